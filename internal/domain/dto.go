package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateBatchRequest represents the request body for submitting a new Batch.
type CreateBatchRequest struct {
	URL            string    `json:"url" validate:"required,url"`
	Mode           BatchMode `json:"mode" validate:"required,oneof=single playlist"`
	Kind           MediaKind `json:"kind" validate:"omitempty,oneof=audio video"`
	Bitrate        int       `json:"bitrate" validate:"omitempty,oneof=128 192 256 320"`
	KeepSource     bool      `json:"keep_source"`
	EmbedThumbnail bool      `json:"embed_thumbnail"`
	PlaylistName   string    `json:"playlist_name" validate:"omitempty,max=200"`
	Reverse        bool      `json:"reverse"`
	Limit          int       `json:"limit" validate:"omitempty,gt=0"`
	SongsOnly      bool      `json:"songs_only"`
}

// Options converts the request into download options rooted at root.
// Zero kind and bitrate fall back to audio at the default bitrate.
func (r CreateBatchRequest) Options(root string) DownloadOptions {
	opts := DownloadOptions{
		Kind:           r.Kind,
		Bitrate:        r.Bitrate,
		KeepSource:     r.KeepSource,
		EmbedThumbnail: r.EmbedThumbnail,
		OutputRoot:     root,
		PlaylistName:   r.PlaylistName,
		Reverse:        r.Reverse,
		Limit:          r.Limit,
		SongsOnly:      r.SongsOnly,
	}
	if opts.Kind == "" {
		opts.Kind = MediaKindAudio
	}
	if opts.Bitrate == 0 {
		opts.Bitrate = DefaultBitrate
	}
	return opts
}

// BatchResponse represents the response returned for a Batch.
type BatchResponse struct {
	ID        uuid.UUID    `json:"batch_id"`
	URL       string       `json:"url"`
	Mode      BatchMode    `json:"mode"`
	Status    BatchStatus  `json:"status"`
	Result    *BatchResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewBatchResponse copies the public fields of a batch.
func NewBatchResponse(b *Batch) BatchResponse {
	return BatchResponse{
		ID:        b.ID,
		URL:       b.URL,
		Mode:      b.Mode,
		Status:    b.Status,
		Result:    b.Result,
		Error:     b.Error,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
