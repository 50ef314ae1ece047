package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/veranemoloko/ytfetch/internal/domain"
)

// Config holds all application configuration settings.
type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	OutputDir      string `envconfig:"OUTPUT_DIR" default:"./work/music"`
	WorkDir        string `envconfig:"WORK_DIR" default:"./work"`
	PendingFile    string `envconfig:"PENDING_FILE" default:"database.txt"`
	DownloadedFile string `envconfig:"DOWNLOADED_FILE" default:"downloaded_files.txt"`
	StateDir       string `envconfig:"STATE_DIR" default:"./work/batches"`
	PlaylistURL    string `envconfig:"PLAYLIST_URL"`

	WorkerPoolSize  int           `envconfig:"WORKER_POOL_SIZE" default:"4"`
	DownloadTimeout time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"10m"`
	FFmpegPath      string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	DefaultBitrate  int           `envconfig:"DEFAULT_BITRATE" default:"192"`
	LookupRate      float64       `envconfig:"LOOKUP_RATE" default:"5"`

	HTTPPort        int           `envconfig:"HTTP_PORT" default:"8080"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker pool size must be positive: %d", c.WorkerPoolSize)
	}

	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive: %s", c.DownloadTimeout)
	}

	if !slices.Contains(domain.Bitrates, c.DefaultBitrate) {
		return fmt.Errorf("unsupported default bitrate: %d", c.DefaultBitrate)
	}

	if c.LookupRate < 0 {
		return fmt.Errorf("lookup rate cannot be negative: %v", c.LookupRate)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.WorkDir == "" {
		return fmt.Errorf("work directory cannot be empty")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory cannot be empty")
	}
	if c.PendingFile == "" || c.DownloadedFile == "" {
		return fmt.Errorf("ledger file names cannot be empty")
	}
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path cannot be empty")
	}

	return nil
}

// PendingPath is the pending ledger resolved against WorkDir.
func (c *Config) PendingPath() string {
	return c.inWorkDir(c.PendingFile)
}

// DownloadedPath is the downloaded ledger resolved against WorkDir.
func (c *Config) DownloadedPath() string {
	return c.inWorkDir(c.DownloadedFile)
}

func (c *Config) inWorkDir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.WorkDir, name)
}
