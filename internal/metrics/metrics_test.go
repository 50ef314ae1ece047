package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/veranemoloko/ytfetch/internal/domain"
)

func TestReporter_Counts(t *testing.T) {
	total := testutil.ToFloat64(DownloadsTotal)
	success := testutil.ToFloat64(DownloadsSuccess)
	failed := testutil.ToFloat64(DownloadsFailed)

	r := NewReporter()
	ok := domain.MediaItem{ID: "ok"}
	bad := domain.MediaItem{ID: "bad"}

	r.ReportStart(ok)
	r.ReportStart(bad)
	r.ReportSuccess(ok)
	r.ReportFailure(bad, errors.New("boom"))
	r.ReportSummary(domain.BatchResult{Total: 2, Succeeded: 1, Failed: 1})

	assert.Equal(t, total+2, testutil.ToFloat64(DownloadsTotal))
	assert.Equal(t, success+1, testutil.ToFloat64(DownloadsSuccess))
	assert.Equal(t, failed+1, testutil.ToFloat64(DownloadsFailed))
	assert.Empty(t, r.started)
}

func TestReporter_FailureWithoutStart(t *testing.T) {
	r := NewReporter()
	failed := testutil.ToFloat64(DownloadsFailed)

	r.ReportFailure(domain.MediaItem{ID: "cancelled"}, errors.New("context canceled"))

	assert.Equal(t, failed+1, testutil.ToFloat64(DownloadsFailed))
}

func TestReporter_OverlappingRunsOfOneID(t *testing.T) {
	r := NewReporter()
	item := domain.MediaItem{ID: "dup"}

	r.ReportStart(item)
	r.ReportStart(item)
	assert.Len(t, r.started["dup"], 2)

	r.ReportSuccess(item)
	assert.Len(t, r.started["dup"], 1)

	r.ReportFailure(item, errors.New("boom"))
	assert.Empty(t, r.started)
}
