package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/veranemoloko/ytfetch/internal/domain"
)

const prompt = "Enter command: "

const shellHelp = `h - help
cs - scan the playlist into the pending ledger
dl - download pending items
a - scan and download pending items
dbclean - drop processed entries from the pending ledger
s <url> - download a single video
p <url> - download a playlist
q - quit`

// Shell is the interactive command loop.
type Shell struct {
	lib         Library
	playlistURL string
	opts        domain.DownloadOptions
	in          *lineReader
	out         io.Writer
	logger      *slog.Logger
}

// NewShell creates a shell. playlistURL is the default for cs and a.
func NewShell(lib Library, playlistURL string, opts domain.DownloadOptions, in *lineReader, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{
		lib:         lib,
		playlistURL: playlistURL,
		opts:        opts,
		in:          in,
		out:         out,
		logger:      logger,
	}
}

// Run reads commands until q, end of input or ctx is done. Command errors are
// printed and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Welcome to ytfetch, enter \"h\" for the list of commands")

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "Interrupted")
			return nil
		}

		fmt.Fprint(s.out, prompt)
		line, ok := s.in.ReadLine(ctx)
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "q" {
			fmt.Fprintln(s.out, "Quitting")
			return nil
		}

		if err := s.execute(ctx, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			s.logger.Warn("shell command failed", "command", fields[0], "error", err)
		}
	}
}

func (s *Shell) execute(ctx context.Context, cmd string, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", cmd, r)
		}
	}()

	switch cmd {
	case "h":
		fmt.Fprintln(s.out, shellHelp)
		return nil
	case "cs":
		return scan(ctx, s.out, s.lib, s.playlistURL, s.opts)
	case "dl":
		return downloadPending(ctx, s.out, s.lib, s.opts)
	case "a":
		if err := scan(ctx, s.out, s.lib, s.playlistURL, s.opts); err != nil {
			return err
		}
		return downloadPending(ctx, s.out, s.lib, s.opts)
	case "dbclean":
		return clean(ctx, s.out, s.lib)
	case "s":
		url, err := urlArg("s", args, "")
		if err != nil {
			return err
		}
		_, err = s.lib.DownloadSingle(ctx, url, s.opts)
		return err
	case "p":
		url, err := urlArg("p", args, "")
		if err != nil {
			return err
		}
		_, err = s.lib.DownloadPlaylist(ctx, url, s.opts, confirmer(ctx, s.in, s.out))
		return err
	default:
		fmt.Fprintln(s.out, "Invalid command")
		fmt.Fprintln(s.out, "Please enter \"h\" to know available commands")
		return nil
	}
}

// lineReader delivers input lines through a channel so that a blocked read
// does not keep the shell from noticing ctx being done.
// Reading starts on the first ReadLine.
type lineReader struct {
	r     io.Reader
	once  sync.Once
	lines chan string
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r, lines: make(chan string)}
}

func (lr *lineReader) start() {
	go func() {
		defer close(lr.lines)
		scanner := bufio.NewScanner(lr.r)
		for scanner.Scan() {
			lr.lines <- scanner.Text()
		}
	}()
}

// ReadLine returns the next line, or false at end of input or when ctx is done.
func (lr *lineReader) ReadLine(ctx context.Context) (string, bool) {
	lr.once.Do(lr.start)
	select {
	case line, ok := <-lr.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}
