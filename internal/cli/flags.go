package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/veranemoloko/ytfetch/internal/config"
	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

// Settings is the per-invocation result of flag parsing.
type Settings struct {
	Options     domain.DownloadOptions
	Workers     int
	AutoConfirm bool
	Args        []string
}

// ParseFlags parses the global flags. Config values are the defaults.
func ParseFlags(cfg *config.Config, args []string, output io.Writer) (Settings, error) {
	fs := flag.NewFlagSet("ytfetch", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(output, usage)
		fs.PrintDefaults()
	}

	var (
		s     Settings
		video bool
	)
	s.Options = domain.DefaultDownloadOptions(cfg.OutputDir)

	fs.IntVar(&s.Options.Limit, "limit", 0, "download at most N items (default all)")
	fs.BoolVar(&s.Options.Reverse, "reverse", false, "process playlist entries last to first")
	fs.IntVar(&s.Options.Bitrate, "bitrate", cfg.DefaultBitrate, "mp3 bitrate in kbps: 128, 192, 256 or 320")
	fs.BoolVar(&video, "video", false, "download video instead of mp3 audio")
	fs.BoolVar(&s.Options.KeepSource, "keep", false, "keep the downloaded source file next to the mp3")
	fs.BoolVar(&s.Options.EmbedThumbnail, "thumbnail", false, "embed the video thumbnail as cover art")
	fs.StringVar(&s.Options.OutputRoot, "out", cfg.OutputDir, "output root directory")
	fs.StringVar(&s.Options.PlaylistName, "name", "", "folder name override for playlist downloads")
	fs.BoolVar(&s.Options.SongsOnly, "songs", false, "keep only playlist entries that look like music")
	fs.IntVar(&s.Workers, "workers", cfg.WorkerPoolSize, "number of parallel downloads")
	fs.BoolVar(&s.AutoConfirm, "yes", false, "download playlists without asking")

	if err := fs.Parse(args); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", errpkg.ErrConfiguration, err)
	}
	limitSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "limit" {
			limitSet = true
		}
	})
	if limitSet && s.Options.Limit <= 0 {
		return Settings{}, fmt.Errorf("%w: limit must be positive, got %d", errpkg.ErrConfiguration, s.Options.Limit)
	}
	if video {
		s.Options.Kind = domain.MediaKindVideo
	}
	if s.Workers <= 0 {
		return Settings{}, fmt.Errorf("%w: workers must be positive, got %d", errpkg.ErrConfiguration, s.Workers)
	}
	s.Args = fs.Args()

	return s, nil
}

const usage = `usage: ytfetch [flags] <command> [args]

commands:
  single <url>     download one video
  playlist <url>   download a playlist after confirmation
  auto <url>       single or playlist, picked from the url
  scan [url]       add new playlist entries to the pending ledger
  download         download pending ledger entries
  all [url]        scan then download
  clean            drop processed entries from the pending ledger
  serve            run the HTTP status server
  shell            interactive command loop (default)

flags:`
