package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
	"github.com/veranemoloko/ytfetch/internal/metrics"
	repo "github.com/veranemoloko/ytfetch/internal/repository"
	"github.com/veranemoloko/ytfetch/internal/validation"
)

// Runner executes the downloads behind a batch.
type Runner interface {
	DownloadSingle(ctx context.Context, rawURL string, opts domain.DownloadOptions) (domain.BatchResult, error)
	DownloadPlaylist(ctx context.Context, rawURL string, opts domain.DownloadOptions, confirm ConfirmFunc) (domain.BatchResult, error)
}

// BatchService runs submitted batches in the background and keeps their state in a BatchRepo.
type BatchService struct {
	runner     Runner
	batchRepo  repo.BatchRepo
	outputRoot string
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBatchService(runner Runner, batchRepo repo.BatchRepo, outputRoot string, logger *slog.Logger) *BatchService {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchService{
		runner:     runner,
		batchRepo:  batchRepo,
		outputRoot: outputRoot,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Submit validates req, stores a pending batch and starts it.
func (s *BatchService) Submit(ctx context.Context, req domain.CreateBatchRequest) (*domain.Batch, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validation.ValidateURL(req.URL); err != nil {
		return nil, err
	}
	opts := req.Options(s.outputRoot)
	if err := validation.ValidateOptions(opts); err != nil {
		return nil, err
	}

	now := time.Now()
	batch := &domain.Batch{
		ID:        uuid.New(),
		URL:       req.URL,
		Mode:      req.Mode,
		Options:   opts,
		Status:    domain.BatchStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errpkg.ErrServiceClosed
	}

	if err := s.batchRepo.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	metrics.BatchesSubmitted.Inc()

	s.logger.Info("batch submitted", "batch_id", batch.ID, "url", batch.URL, "mode", batch.Mode)
	s.start(*batch)

	return batch, nil
}

// Get returns the current state of a batch.
func (s *BatchService) Get(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	return s.batchRepo.GetBatch(ctx, id)
}

// RecoverPendingBatches restarts batches left pending or in progress by a previous run.
func (s *BatchService) RecoverPendingBatches(ctx context.Context) (int, error) {
	pending, err := s.batchRepo.GetBatchesByStatus(ctx, domain.BatchStatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending batches: %w", err)
	}
	inProgress, err := s.batchRepo.GetBatchesByStatus(ctx, domain.BatchStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to get in-progress batches: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errpkg.ErrServiceClosed
	}

	batches := append(pending, inProgress...)
	for _, b := range batches {
		b.Options.OutputRoot = s.outputRoot
		s.logger.Info("recovering batch", "batch_id", b.ID, "status", b.Status)
		s.start(*b)
	}
	return len(batches), nil
}

// start must be called with s.mu held.
func (s *BatchService) start(batch domain.Batch) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(batch)
	}()
}

func (s *BatchService) process(batch domain.Batch) {
	batch.Status = domain.BatchStatusInProgress
	s.save(&batch)

	var (
		result domain.BatchResult
		err    error
	)
	switch batch.Mode {
	case domain.BatchModePlaylist:
		result, err = s.runner.DownloadPlaylist(s.ctx, batch.URL, batch.Options, nil)
	default:
		result, err = s.runner.DownloadSingle(s.ctx, batch.URL, batch.Options)
	}

	if err != nil {
		batch.Status = domain.BatchStatusFailed
		batch.Error = err.Error()
		metrics.BatchesFailed.Inc()
		s.logger.Error("batch failed", "batch_id", batch.ID, "error", err)
	} else {
		batch.Status = domain.BatchStatusCompleted
		batch.Result = &result
		metrics.BatchesCompleted.Inc()
		s.logger.Info("batch completed",
			"batch_id", batch.ID,
			"total", result.Total,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
		)
	}
	s.save(&batch)
}

func (s *BatchService) save(batch *domain.Batch) {
	if err := s.batchRepo.UpdateBatch(context.Background(), batch); err != nil {
		s.logger.Error("failed to save batch state", "batch_id", batch.ID, "status", batch.Status, "error", err)
	}
}

// Shutdown stops accepting batches and waits for running ones. When ctx
// expires first, running batches are cancelled and ctx.Err is returned.
func (s *BatchService) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down batch service")

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("batch service shutdown completed")
		return nil
	case <-ctx.Done():
		s.cancel()
		s.logger.Warn("batch service shutdown timed out, cancelling running batches")
		return ctx.Err()
	}
}
