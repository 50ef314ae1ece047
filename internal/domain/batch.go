package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchResult is the tally of one orchestrator run.
// Completed holds the items that were filed, in submission order.
type BatchResult struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Completed []MediaItem `json:"-"`
}

// BatchStatus represents the current state of an asynchronous batch.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// IsFinished reports whether the batch reached a terminal state.
func (s BatchStatus) IsFinished() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// BatchMode selects how the source URL of a batch is resolved.
type BatchMode string

const (
	BatchModeSingle   BatchMode = "single"
	BatchModePlaylist BatchMode = "playlist"
)

// Batch is a download run submitted through the HTTP surface.
type Batch struct {
	ID        uuid.UUID       `json:"id"`
	URL       string          `json:"url"`
	Mode      BatchMode       `json:"mode"`
	Options   DownloadOptions `json:"options"`
	Status    BatchStatus     `json:"status"`
	Result    *BatchResult    `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
