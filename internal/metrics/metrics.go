package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/veranemoloko/ytfetch/internal/domain"
)

var (
	BatchesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_batches_submitted_total",
		Help: "Total number of batches submitted",
	})

	BatchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_batches_completed_total",
		Help: "Total number of batches completed",
	})

	BatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_batches_failed_total",
		Help: "Total number of batches that could not run",
	})

	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_downloads_total",
		Help: "Total number of download attempts",
	})

	DownloadsSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_downloads_success_total",
		Help: "Total number of successful downloads",
	})

	DownloadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytfetch_downloads_failed_total",
		Help: "Total number of failed downloads",
	})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ytfetch_download_duration_seconds",
		Help:    "Download duration in seconds, fetch through filing",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	LedgerRecordsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ytfetch_ledger_records_appended_total",
		Help: "Ledger records appended, by status",
	}, []string{"status"})
)

// Reporter records orchestrator events as Prometheus metrics.
// Start times queue per id, so overlapping runs of one id are each observed.
type Reporter struct {
	mu      sync.Mutex
	started map[string][]time.Time
}

// NewReporter creates a metrics Reporter.
func NewReporter() *Reporter {
	return &Reporter{started: make(map[string][]time.Time)}
}

func (r *Reporter) ReportStart(item domain.MediaItem) {
	DownloadsTotal.Inc()

	r.mu.Lock()
	r.started[item.ID] = append(r.started[item.ID], time.Now())
	r.mu.Unlock()
}

func (r *Reporter) ReportSuccess(item domain.MediaItem) {
	DownloadsSuccess.Inc()
	r.observe(item)
}

func (r *Reporter) ReportFailure(item domain.MediaItem, _ error) {
	DownloadsFailed.Inc()
	r.observe(item)
}

func (r *Reporter) ReportSummary(domain.BatchResult) {}

func (r *Reporter) observe(item domain.MediaItem) {
	r.mu.Lock()
	starts := r.started[item.ID]
	if len(starts) == 0 {
		r.mu.Unlock()
		return
	}
	start := starts[0]
	if len(starts) == 1 {
		delete(r.started, item.ID)
	} else {
		r.started[item.ID] = starts[1:]
	}
	r.mu.Unlock()

	DownloadDuration.Observe(time.Since(start).Seconds())
}
