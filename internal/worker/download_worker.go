package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
	"github.com/veranemoloko/ytfetch/internal/fetcher"
	"github.com/veranemoloko/ytfetch/internal/naming"
	"github.com/veranemoloko/ytfetch/internal/report"
	"github.com/veranemoloko/ytfetch/internal/validation"
)

// DefaultPoolSize is the number of items downloaded at once.
const DefaultPoolSize = 4

// Files is the filesystem surface the worker needs.
type Files interface {
	FileExists(path string) bool
	GetFileSize(path string) (int64, error)
	MoveFile(src, dst string) error
	ListFiles(dir string) ([]string, error)
	RemoveFile(path string) error
}

// DownloadWorker downloads batches of items over a bounded pool and files the results.
type DownloadWorker struct {
	fetcher  fetcher.Fetcher
	files    Files
	reporter report.Reporter
	logger   *slog.Logger
	poolSize int
}

// NewDownloadWorker creates a DownloadWorker. poolSize <= 0 selects DefaultPoolSize.
func NewDownloadWorker(f fetcher.Fetcher, files Files, reporter report.Reporter, logger *slog.Logger, poolSize int) *DownloadWorker {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if reporter == nil {
		reporter = report.Nop{}
	}
	return &DownloadWorker{
		fetcher:  f,
		files:    files,
		reporter: reporter,
		logger:   logger,
		poolSize: poolSize,
	}
}

// PoolSize returns the configured concurrency.
func (w *DownloadWorker) PoolSize() int {
	return w.poolSize
}

// DownloadBatch downloads items with at most PoolSize in flight. Repeated ids
// are downloaded once, keeping the first occurrence. Per-item failures are counted, never returned; the error is only set for
// invalid options. Items not started before ctx is done count as failures.
func (w *DownloadWorker) DownloadBatch(ctx context.Context, items []domain.MediaItem, opts domain.DownloadOptions) (domain.BatchResult, error) {
	if err := validation.ValidateOptions(opts); err != nil {
		return domain.BatchResult{}, err
	}
	items = uniqueByID(items)
	if len(items) == 0 {
		return domain.BatchResult{}, nil
	}

	w.logger.Info("batch started", "items", len(items), "pool_size", w.poolSize, "kind", opts.Kind)

	var succeeded, failed atomic.Int64
	filed := make([]bool, len(items))

	g := new(errgroup.Group)
	g.SetLimit(w.poolSize)

	for i, item := range items {
		w.logger.Debug("item state", "item_id", item.ID, "state", domain.ItemStateQueued)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				w.reporter.ReportFailure(item, fmt.Errorf("not started: %w", err))
				failed.Add(1)
				return nil
			}

			if w.DownloadOne(ctx, item, opts) {
				filed[i] = true
				succeeded.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := domain.BatchResult{
		Total:     len(items),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	for i, ok := range filed {
		if ok {
			result.Completed = append(result.Completed, items[i])
		}
	}

	w.reporter.ReportSummary(result)
	w.logger.Info("batch finished", "total", result.Total, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// DownloadOne fetches, verifies, files and cleans up a single item.
// It never panics and reports the outcome before returning.
func (w *DownloadWorker) DownloadOne(ctx context.Context, item domain.MediaItem, opts domain.DownloadOptions) bool {
	w.reporter.ReportStart(item)
	w.logger.Debug("item state", "item_id", item.ID, "state", domain.ItemStateDownloading)

	if err := w.process(ctx, item, opts); err != nil {
		w.logger.Error("download failed", "item_id", item.ID, "title", item.Title, "state", domain.ItemStateFailed, "error", err)
		w.reporter.ReportFailure(item, err)
		return false
	}

	w.logger.Debug("item state", "item_id", item.ID, "state", domain.ItemStateSucceeded)
	w.reporter.ReportSuccess(item)
	return true
}

func (w *DownloadWorker) process(ctx context.Context, item domain.MediaItem, opts domain.DownloadOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while downloading %s: %v", item.ID, r)
		}
	}()

	dir, err := naming.BuildOutputPath(opts.OutputRoot, opts.Kind, naming.GroupingFor(item))
	if err != nil {
		return fmt.Errorf("%w: %w", errpkg.ErrFiling, err)
	}
	var filed []string
	defer func() { w.cleanup(dir, item.ID, filed) }()

	art, err := w.fetcher.Fetch(ctx, item, fetcher.FetchRequest{
		Dir:            dir,
		Kind:           opts.Kind,
		Bitrate:        opts.Bitrate,
		KeepSource:     opts.KeepSource,
		EmbedThumbnail: opts.EmbedThumbnail,
	})
	if err != nil {
		return err
	}

	ext := opts.Kind.Extension()
	if art.Path == "" {
		art.Path = filepath.Join(dir, item.ID+"."+ext)
	}
	if !w.files.FileExists(art.Path) {
		return fmt.Errorf("%w: %s", errpkg.ErrArtifactMissing, art.Path)
	}

	title := displayName(item)
	dest := filepath.Join(dir, naming.FileName(title, ext))
	if err := w.files.MoveFile(art.Path, dest); err != nil {
		return fmt.Errorf("%w: %w", errpkg.ErrFiling, err)
	}
	filed = append(filed, dest)

	if opts.KeepSource && art.SourcePath != "" && w.files.FileExists(art.SourcePath) {
		kept := filepath.Join(dir, naming.FileName(title, sourceExt(art.SourcePath)))
		if err := w.files.MoveFile(art.SourcePath, kept); err != nil {
			w.logger.Warn("could not keep source file", "item_id", item.ID, "path", art.SourcePath, "error", err)
		} else {
			filed = append(filed, kept)
		}
	}

	size, _ := w.files.GetFileSize(dest)
	w.logger.Debug("item filed", "item_id", item.ID, "path", dest, "bytes", size)
	return nil
}

// uniqueByID drops items whose id already occurred. Temp and artifact names
// derive from the id, so two in-flight copies would collide.
func uniqueByID(items []domain.MediaItem) []domain.MediaItem {
	seen := make(map[string]bool, len(items))
	out := make([]domain.MediaItem, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

func displayName(item domain.MediaItem) string {
	if strings.TrimSpace(item.Title) == "" {
		return item.ID
	}
	return item.Title
}

func sourceExt(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "src"
	}
	return ext
}
