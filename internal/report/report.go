// Package report delivers per-item progress and batch summaries to the user.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/veranemoloko/ytfetch/internal/domain"
)

// Reporter receives orchestrator events. Implementations must be safe for
// concurrent use.
type Reporter interface {
	ReportStart(item domain.MediaItem)
	ReportSuccess(item domain.MediaItem)
	ReportFailure(item domain.MediaItem, reason error)
	ReportSummary(result domain.BatchResult)
}

// Console prints one line per event.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) ReportStart(item domain.MediaItem) {
	c.printf("Downloading: %s\n", label(item))
}

func (c *Console) ReportSuccess(item domain.MediaItem) {
	c.printf("Done: %s\n", label(item))
}

func (c *Console) ReportFailure(item domain.MediaItem, reason error) {
	c.printf("Failed: %s: %v\n", label(item), reason)
}

func (c *Console) ReportSummary(result domain.BatchResult) {
	c.printf("Finished %d item(s): %d succeeded, %d failed\n", result.Total, result.Succeeded, result.Failed)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func label(item domain.MediaItem) string {
	if item.Title == "" {
		return item.ID
	}
	return fmt.Sprintf("%s (%s)", item.Title, item.ID)
}

// Log writes events to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log reporter.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) ReportStart(item domain.MediaItem) {
	l.logger.Info("download started", "item_id", item.ID, "title", item.Title)
}

func (l *Log) ReportSuccess(item domain.MediaItem) {
	l.logger.Info("download finished", "item_id", item.ID, "title", item.Title)
}

func (l *Log) ReportFailure(item domain.MediaItem, reason error) {
	l.logger.Error("download failed", "item_id", item.ID, "title", item.Title, "error", reason)
}

func (l *Log) ReportSummary(result domain.BatchResult) {
	l.logger.Info("batch finished", "total", result.Total, "succeeded", result.Succeeded, "failed", result.Failed)
}

// Nop discards every event.
type Nop struct{}

func (Nop) ReportStart(domain.MediaItem)          {}
func (Nop) ReportSuccess(domain.MediaItem)        {}
func (Nop) ReportFailure(domain.MediaItem, error) {}
func (Nop) ReportSummary(domain.BatchResult)      {}

// Multi fans events out to several reporters in order.
type Multi []Reporter

func (m Multi) ReportStart(item domain.MediaItem) {
	for _, r := range m {
		r.ReportStart(item)
	}
}

func (m Multi) ReportSuccess(item domain.MediaItem) {
	for _, r := range m {
		r.ReportSuccess(item)
	}
}

func (m Multi) ReportFailure(item domain.MediaItem, reason error) {
	for _, r := range m {
		r.ReportFailure(item, reason)
	}
}

func (m Multi) ReportSummary(result domain.BatchResult) {
	for _, r := range m {
		r.ReportSummary(result)
	}
}
