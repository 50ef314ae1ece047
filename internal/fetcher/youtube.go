// Package fetcher downloads streams for resolved items and produces the
// artifact the orchestrator files.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/veranemoloko/ytfetch/internal/domain"
	"github.com/veranemoloko/ytfetch/internal/encoder"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

const (
	partSuffix   = ".part"
	sourceInfix  = ".src."
	thumbnailExt = "jpg"
	copyBufSize  = 32 * 1024
)

// FetchRequest tells the fetcher where to write and what to produce.
type FetchRequest struct {
	Dir            string
	Kind           domain.MediaKind
	Bitrate        int
	KeepSource     bool
	EmbedThumbnail bool
}

// Artifact is what a successful fetch left in FetchRequest.Dir.
// SourcePath is the downloaded container for audio, empty for video.
type Artifact struct {
	Path       string
	SourcePath string
	Bytes      int64
}

// Fetcher produces <dir>/<id>.<ext> for an item.
type Fetcher interface {
	Fetch(ctx context.Context, item domain.MediaItem, req FetchRequest) (Artifact, error)
}

// StreamClient is the part of *youtube.Client used for downloads.
type StreamClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Encoder transcodes a downloaded container to MP3.
type Encoder interface {
	ToMP3(ctx context.Context, job encoder.Job) error
}

// Files creates and renames files on disk.
type Files interface {
	CreateFile(path string) (*os.File, error)
	MoveFile(src, dst string) error
	RemoveFile(path string) error
}

// YouTubeFetcher downloads through the youtube client and encodes with Encoder.
type YouTubeFetcher struct {
	client     StreamClient
	encoder    Encoder
	files      Files
	httpClient *http.Client
	logger     *slog.Logger
}

// NewYouTubeFetcher creates a fetcher. Thumbnails are fetched with a client bounded by timeout.
func NewYouTubeFetcher(client StreamClient, enc Encoder, files Files, timeout time.Duration, logger *slog.Logger) *YouTubeFetcher {
	return &YouTubeFetcher{
		client:  client,
		encoder: enc,
		files:   files,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads item according to req.
func (f *YouTubeFetcher) Fetch(ctx context.Context, item domain.MediaItem, req FetchRequest) (Artifact, error) {
	video, err := f.client.GetVideoContext(ctx, item.ID)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: lookup %s: %w", errpkg.ErrFetch, item.ID, err)
	}

	if req.Kind == domain.MediaKindVideo {
		return f.fetchVideo(ctx, item, video, req)
	}
	return f.fetchAudio(ctx, item, video, req)
}

func (f *YouTubeFetcher) fetchVideo(ctx context.Context, item domain.MediaItem, video *youtube.Video, req FetchRequest) (Artifact, error) {
	format := SelectVideoFormat(video.Formats)
	if format == nil {
		return Artifact{}, fmt.Errorf("%w: no progressive (audio+video) formats for %s", errpkg.ErrFetch, item.ID)
	}

	target := filepath.Join(req.Dir, item.ID+"."+domain.MediaKindVideo.Extension())
	n, err := f.download(ctx, video, format, target)
	if err != nil {
		return Artifact{}, err
	}

	f.logger.Debug("video downloaded", "item_id", item.ID, "itag", format.ItagNo, "bytes", n)
	return Artifact{Path: target, Bytes: n}, nil
}

func (f *YouTubeFetcher) fetchAudio(ctx context.Context, item domain.MediaItem, video *youtube.Video, req FetchRequest) (Artifact, error) {
	format := SelectAudioFormat(video.Formats)
	if format == nil {
		return Artifact{}, fmt.Errorf("%w: no audio-only formats for %s", errpkg.ErrFetch, item.ID)
	}

	source := filepath.Join(req.Dir, item.ID+sourceInfix+MimeToExt(format.MimeType))
	n, err := f.download(ctx, video, format, source)
	if err != nil {
		return Artifact{}, err
	}

	var cover string
	if req.EmbedThumbnail {
		cover, err = f.downloadThumbnail(ctx, video, filepath.Join(req.Dir, item.ID+"."+thumbnailExt))
		if err != nil {
			if ctx.Err() != nil {
				return Artifact{}, fmt.Errorf("%w: %w", errpkg.ErrFetch, ctx.Err())
			}
			f.logger.Warn("thumbnail download failed, continuing without cover", "item_id", item.ID, "error", err)
			cover = ""
		}
	}

	target := filepath.Join(req.Dir, item.ID+"."+domain.MediaKindAudio.Extension())
	job := encoder.Job{
		Source:  source,
		Target:  target,
		Bitrate: req.Bitrate,
		Title:   item.Title,
		Cover:   cover,
	}
	if err := f.encoder.ToMP3(ctx, job); err != nil {
		return Artifact{}, fmt.Errorf("%w: encode %s: %w", errpkg.ErrFetch, item.ID, err)
	}

	f.logger.Debug("audio downloaded and encoded",
		"item_id", item.ID,
		"itag", format.ItagNo,
		"source_bytes", n,
		"bitrate", req.Bitrate,
	)
	return Artifact{Path: target, SourcePath: source, Bytes: n}, nil
}

// download streams format into target through a .part file.
func (f *YouTubeFetcher) download(ctx context.Context, video *youtube.Video, format *youtube.Format, target string) (int64, error) {
	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return 0, fmt.Errorf("%w: open stream: %w", errpkg.ErrFetch, err)
	}
	defer stream.Close()

	return f.writeThroughPart(ctx, stream, target)
}

func (f *YouTubeFetcher) downloadThumbnail(ctx context.Context, video *youtube.Video, target string) (string, error) {
	thumb, ok := BestThumbnail(video.Thumbnails)
	if !ok {
		return "", fmt.Errorf("no thumbnails")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumb.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("thumbnail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	if _, err := f.writeThroughPart(ctx, resp.Body, target); err != nil {
		return "", err
	}
	return target, nil
}

func (f *YouTubeFetcher) writeThroughPart(ctx context.Context, src io.Reader, target string) (int64, error) {
	part := target + partSuffix
	file, err := f.files.CreateFile(part)
	if err != nil {
		return 0, fmt.Errorf("%w: create file: %w", errpkg.ErrFetch, err)
	}

	n, err := copyWithContext(ctx, file, src)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		f.files.RemoveFile(part)
		return n, fmt.Errorf("%w: copy data: %w", errpkg.ErrFetch, err)
	}

	if err := f.files.MoveFile(part, target); err != nil {
		return n, fmt.Errorf("%w: %w", errpkg.ErrFetch, err)
	}
	return n, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufSize)
	var total int64

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
			nr, err := src.Read(buf)
			if nr > 0 {
				nw, err := dst.Write(buf[0:nr])
				if nw > 0 {
					total += int64(nw)
				}
				if err != nil {
					return total, err
				}
				if nr != nw {
					return total, io.ErrShortWrite
				}
			}
			if err != nil {
				if err == io.EOF {
					return total, nil
				}
				return total, err
			}
		}
	}
}

// SelectAudioFormat returns the audio-only format with the highest bitrate.
func SelectAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		format := &formats[i]
		if format.AudioChannels == 0 || format.Width != 0 || format.Height != 0 {
			continue
		}
		if best == nil || bitrateForFormat(format) > bitrateForFormat(best) {
			best = format
		}
	}
	return best
}

// SelectVideoFormat returns the best progressive format, preferring an mp4 container.
func SelectVideoFormat(formats youtube.FormatList) *youtube.Format {
	var best, bestMP4 *youtube.Format
	for i := range formats {
		format := &formats[i]
		if format.AudioChannels == 0 || format.Width == 0 || format.Height == 0 {
			continue
		}
		if best == nil || betterVideoFormat(format, best) {
			best = format
		}
		if MimeToExt(format.MimeType) == "mp4" && (bestMP4 == nil || betterVideoFormat(format, bestMP4)) {
			bestMP4 = format
		}
	}
	if bestMP4 != nil {
		return bestMP4
	}
	return best
}

// BestThumbnail returns the thumbnail with the largest area.
func BestThumbnail(thumbs youtube.Thumbnails) (youtube.Thumbnail, bool) {
	var best youtube.Thumbnail
	found := false
	for _, th := range thumbs {
		if th.URL == "" {
			continue
		}
		if !found || th.Width*th.Height > best.Width*best.Height {
			best = th
			found = true
		}
	}
	return best, found
}

// MimeToExt maps a stream mime type such as `audio/webm; codecs="opus"` to a file extension.
func MimeToExt(mime string) string {
	base := strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
	_, subtype, ok := strings.Cut(base, "/")
	if !ok || subtype == "" {
		return "bin"
	}
	switch subtype {
	case "3gpp":
		return "3gp"
	case "mp4":
		if strings.HasPrefix(base, "audio/") {
			return "m4a"
		}
	}
	return subtype
}

func betterVideoFormat(candidate, current *youtube.Format) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return bitrateForFormat(candidate) > bitrateForFormat(current)
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return 0
}
