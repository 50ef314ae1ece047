// Package encoder wraps the ffmpeg executable.
package encoder

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

const (
	FFmpegCommand = "ffmpeg"

	AudioCodec    = "libmp3lame"
	OutputFormat  = "mp3"
	ID3Version    = "3"
	CoverCodec    = "mjpeg"
	LogLevel      = "error"
	maxStderrTail = 512
)

// Job describes one MP3 transcode. Cover is optional.
type Job struct {
	Source  string
	Target  string
	Bitrate int
	Title   string
	Cover   string
}

// FFmpeg runs transcodes through an ffmpeg binary.
type FFmpeg struct {
	path   string
	logger *slog.Logger
}

// NewFFmpeg creates an encoder using the binary at path, or ffmpeg from PATH when empty.
func NewFFmpeg(path string, logger *slog.Logger) *FFmpeg {
	if path == "" {
		path = FFmpegCommand
	}
	return &FFmpeg{path: path, logger: logger}
}

// CheckAvailable resolves the binary and returns ErrEncoderMissing when it cannot be found.
func (f *FFmpeg) CheckAvailable() error {
	resolved, err := exec.LookPath(f.path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errpkg.ErrEncoderMissing, f.path, err)
	}
	f.logger.Debug("encoder found", "path", resolved)
	return nil
}

// ToMP3 transcodes job.Source into job.Target. A failed run leaves no target behind.
func (f *FFmpeg) ToMP3(ctx context.Context, job Job) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, BuildArgs(job)...)
	cmd.Stderr = &stderr

	f.logger.Debug("starting transcode", "source", job.Source, "target", job.Target, "bitrate", job.Bitrate)

	if err := cmd.Run(); err != nil {
		os.Remove(job.Target)
		if ctx.Err() != nil {
			return fmt.Errorf("transcode cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String()))
	}

	return nil
}

// BuildArgs returns the ffmpeg arguments for job.
func BuildArgs(job Job) []string {
	args := []string{"-hide_banner", "-loglevel", LogLevel, "-y", "-i", job.Source}

	if job.Cover != "" {
		args = append(args,
			"-i", job.Cover,
			"-map", "0:a",
			"-map", "1:v",
			"-c:v", CoverCodec,
			"-disposition:v", "attached_pic",
			"-metadata:s:v", "title=Album cover",
			"-metadata:s:v", "comment=Cover (front)",
		)
	} else {
		args = append(args, "-vn")
	}

	args = append(args,
		"-c:a", AudioCodec,
		"-b:a", strconv.Itoa(job.Bitrate)+"k",
		"-id3v2_version", ID3Version,
	)

	if job.Title != "" {
		args = append(args, "-metadata", "title="+job.Title)
	}

	return append(args, "-f", OutputFormat, job.Target)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		return s[len(s)-maxStderrTail:]
	}
	return s
}
