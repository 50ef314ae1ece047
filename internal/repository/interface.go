package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/veranemoloko/ytfetch/internal/domain"
)

// LedgerRepo defines the interface for ledger file operations.
type LedgerRepo interface {
	Append(ctx context.Context, file string, record domain.LedgerRecord) error
	AppendAll(ctx context.Context, file string, records []domain.LedgerRecord) error
	ReadAll(ctx context.Context, file string) ([]domain.LedgerRecord, error)
	TrimCompleted(ctx context.Context, pendingFile, downloadedFile string) (int, error)
}

// BatchRepo defines the interface for batch storage operations.
type BatchRepo interface {
	CreateBatch(ctx context.Context, batch *domain.Batch) error
	GetBatch(ctx context.Context, id uuid.UUID) (*domain.Batch, error)
	UpdateBatch(ctx context.Context, batch *domain.Batch) error
	GetBatchesByStatus(ctx context.Context, status domain.BatchStatus) ([]*domain.Batch, error)
}
