package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

// BatchStorage keeps batches in memory and persists each one as <id>.json in dir.
type BatchStorage struct {
	mu      sync.RWMutex
	dir     string
	batches map[uuid.UUID]domain.Batch
	logger  *slog.Logger
}

// NewBatchStorage creates a BatchStorage and loads the batches already present in dir.
func NewBatchStorage(dir string, logger *slog.Logger) (*BatchStorage, error) {
	s := &BatchStorage{
		dir:     filepath.Clean(dir),
		batches: make(map[uuid.UUID]domain.Batch),
		logger:  logger,
	}

	if err := s.loadBatches(); err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}

	logger.Info("batch storage initialized", "dir", s.dir, "batches_count", len(s.batches))
	return s, nil
}

func (s *BatchStorage) loadBatches() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read dir: %w", err)
	}

	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read batch file: %w", err)
		}

		var batch domain.Batch
		if err := json.Unmarshal(data, &batch); err != nil {
			s.logger.Warn("skipping unreadable batch file", "file", entry.Name(), "error", err)
			continue
		}
		s.batches[batch.ID] = batch
	}

	return nil
}

// CreateBatch stores a new batch and persists it.
func (s *BatchStorage) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[batch.ID] = *batch
	if err := s.persist(*batch); err != nil {
		return fmt.Errorf("failed to save state after creating batch: %w", err)
	}

	s.logger.Debug("batch created and saved", "batch_id", batch.ID)
	return nil
}

// GetBatch returns a copy of the batch with the given id.
func (s *BatchStorage) GetBatch(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	batch, exists := s.batches[id]
	s.mu.RUnlock()

	if !exists {
		return nil, errpkg.ErrBatchNotFound
	}
	return &batch, nil
}

// UpdateBatch replaces a stored batch, stamps UpdatedAt and persists it.
func (s *BatchStorage) UpdateBatch(ctx context.Context, batch *domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batch.ID]; !exists {
		return errpkg.ErrBatchNotFound
	}

	batch.UpdatedAt = time.Now()
	s.batches[batch.ID] = *batch
	if err := s.persist(*batch); err != nil {
		return fmt.Errorf("failed to save state after updating batch: %w", err)
	}

	s.logger.Debug("batch updated and saved", "batch_id", batch.ID, "status", batch.Status)
	return nil
}

// GetBatchesByStatus returns the batches in status, oldest first.
func (s *BatchStorage) GetBatchesByStatus(ctx context.Context, status domain.BatchStatus) ([]*domain.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var filtered []*domain.Batch
	for _, batch := range s.batches {
		if batch.Status == status {
			b := batch
			filtered = append(filtered, &b)
		}
	}
	s.mu.RUnlock()

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})
	return filtered, nil
}

func (s *BatchStorage) persist(batch domain.Batch) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	filename := filepath.Join(s.dir, batch.ID.String()+".json")
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, filename); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
