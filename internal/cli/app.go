package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/veranemoloko/ytfetch/internal/config"
	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
	"github.com/veranemoloko/ytfetch/internal/service"
)

// Library is the set of user-level operations the commands drive.
type Library interface {
	Scan(ctx context.Context, playlistURL string, opts domain.DownloadOptions) (int, error)
	DownloadPending(ctx context.Context, opts domain.DownloadOptions) (domain.BatchResult, error)
	Clean(ctx context.Context) (int, error)
	DownloadSingle(ctx context.Context, rawURL string, opts domain.DownloadOptions) (domain.BatchResult, error)
	DownloadPlaylist(ctx context.Context, rawURL string, opts domain.DownloadOptions, confirm service.ConfirmFunc) (domain.BatchResult, error)
	Download(ctx context.Context, rawURL string, opts domain.DownloadOptions, confirm service.ConfirmFunc) (domain.BatchResult, error)
}

// LibraryFactory builds a Library whose downloads run on workers parallel units.
type LibraryFactory func(workers int) Library

// ServeFunc runs the HTTP surface on top of lib until ctx is done.
type ServeFunc func(ctx context.Context, lib Library) error

// App parses the command line and dispatches to one-shot commands or the shell.
type App struct {
	cfg        *config.Config
	newLibrary LibraryFactory
	serve      ServeFunc
	in         *lineReader
	out        io.Writer
	logger     *slog.Logger
}

// NewApp creates an App reading answers and shell commands from in.
func NewApp(cfg *config.Config, newLibrary LibraryFactory, serve ServeFunc, in io.Reader, out io.Writer, logger *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		newLibrary: newLibrary,
		serve:      serve,
		in:         newLineReader(in),
		out:        out,
		logger:     logger,
	}
}

// Run executes the command named in args. Without a command it starts the shell.
func (a *App) Run(ctx context.Context, args []string) error {
	settings, err := ParseFlags(a.cfg, args, a.out)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	lib := a.newLibrary(settings.Workers)
	cmd := "shell"
	rest := settings.Args
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	confirm := confirmer(ctx, a.in, a.out)
	if settings.AutoConfirm {
		confirm = nil
	}

	opts := settings.Options
	switch cmd {
	case "single":
		url, err := urlArg(cmd, rest, "")
		if err != nil {
			return err
		}
		return a.report(lib.DownloadSingle(ctx, url, opts))
	case "playlist":
		url, err := urlArg(cmd, rest, "")
		if err != nil {
			return err
		}
		return a.report(lib.DownloadPlaylist(ctx, url, opts, confirm))
	case "auto":
		url, err := urlArg(cmd, rest, "")
		if err != nil {
			return err
		}
		return a.report(lib.Download(ctx, url, opts, nil))
	case "scan":
		url, err := urlArg(cmd, rest, a.cfg.PlaylistURL)
		if err != nil {
			return err
		}
		return scan(ctx, a.out, lib, url, opts)
	case "download":
		return downloadPending(ctx, a.out, lib, opts)
	case "all":
		url, err := urlArg(cmd, rest, a.cfg.PlaylistURL)
		if err != nil {
			return err
		}
		if err := scan(ctx, a.out, lib, url, opts); err != nil {
			return err
		}
		return downloadPending(ctx, a.out, lib, opts)
	case "clean":
		return clean(ctx, a.out, lib)
	case "serve":
		if a.serve == nil {
			return fmt.Errorf("%w: serve is not available", errpkg.ErrConfiguration)
		}
		return a.serve(ctx, lib)
	case "shell":
		return NewShell(lib, a.cfg.PlaylistURL, opts, a.in, a.out, a.logger).Run(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errpkg.ErrConfiguration, cmd)
	}
}

// report turns a batch result into the command outcome. The per-item lines and
// the summary are already printed by the console reporter.
func (a *App) report(result domain.BatchResult, err error) error {
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d item(s) failed", result.Failed, result.Total)
	}
	return nil
}

func scan(ctx context.Context, out io.Writer, lib Library, url string, opts domain.DownloadOptions) error {
	fmt.Fprintln(out, "Starting: scanning playlist")
	n, err := lib.Scan(ctx, url, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Finished: %d new item(s) added to the pending ledger\n", n)
	return nil
}

func downloadPending(ctx context.Context, out io.Writer, lib Library, opts domain.DownloadOptions) error {
	fmt.Fprintln(out, "Downloading pending items")
	result, err := lib.DownloadPending(ctx, opts)
	if err != nil {
		return err
	}
	if result.Total == 0 {
		fmt.Fprintln(out, "Nothing to download")
	}
	fmt.Fprintln(out, "Downloading pending items complete")
	return nil
}

func clean(ctx context.Context, out io.Writer, lib Library) error {
	fmt.Fprintln(out, "Cleaning pending ledger")
	n, err := lib.Clean(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Pending ledger cleaning complete: %d record(s) removed\n", n)
	return nil
}

func confirmer(ctx context.Context, in *lineReader, out io.Writer) service.ConfirmFunc {
	return func(n int) bool {
		fmt.Fprintf(out, "Download %d item(s)? [y/N]: ", n)
		line, ok := in.ReadLine(ctx)
		if !ok {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func urlArg(cmd string, args []string, fallback string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("%w: %s needs a url", errpkg.ErrConfiguration, cmd)
}
