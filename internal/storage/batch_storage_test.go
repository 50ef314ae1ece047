package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

func newBatch(status domain.BatchStatus, created time.Time) *domain.Batch {
	return &domain.Batch{
		ID:        uuid.New(),
		URL:       "https://www.youtube.com/playlist?list=PL1",
		Mode:      domain.BatchModePlaylist,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestBatchStorage_CRUD(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewBatchStorage(dir, newTestLogger())
	require.NoError(t, err)
	ctx := context.Background()

	batch := newBatch(domain.BatchStatusPending, time.Now())
	require.NoError(t, repo.CreateBatch(ctx, batch))

	_, err = os.Stat(filepath.Join(dir, batch.ID.String()+".json"))
	assert.NoError(t, err)

	got, err := repo.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, got.ID)

	got.Status = domain.BatchStatusCompleted
	got.Result = &domain.BatchResult{Total: 2, Succeeded: 1, Failed: 1}
	require.NoError(t, repo.UpdateBatch(ctx, got))

	again, err := repo.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusCompleted, again.Status)
	assert.Equal(t, 1, again.Result.Failed)
}

func TestBatchStorage_ReturnsCopies(t *testing.T) {
	repo, err := NewBatchStorage(t.TempDir(), newTestLogger())
	require.NoError(t, err)
	ctx := context.Background()

	batch := newBatch(domain.BatchStatusPending, time.Now())
	require.NoError(t, repo.CreateBatch(ctx, batch))

	got, err := repo.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	got.Status = domain.BatchStatusFailed

	stored, err := repo.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusPending, stored.Status)
}

func TestBatchStorage_LoadsExisting(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewBatchStorage(dir, newTestLogger())
	require.NoError(t, err)
	batch := newBatch(domain.BatchStatusCompleted, time.Now())
	require.NoError(t, first.CreateBatch(ctx, batch))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0644))

	second, err := NewBatchStorage(dir, newTestLogger())
	require.NoError(t, err)

	got, err := second.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusCompleted, got.Status)
	assert.Equal(t, batch.URL, got.URL)
}

func TestBatchStorage_GetBatchesByStatus(t *testing.T) {
	repo, err := NewBatchStorage(t.TempDir(), newTestLogger())
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Now()
	older := newBatch(domain.BatchStatusPending, now.Add(-time.Minute))
	newer := newBatch(domain.BatchStatusPending, now)
	done := newBatch(domain.BatchStatusCompleted, now)

	for _, b := range []*domain.Batch{newer, done, older} {
		require.NoError(t, repo.CreateBatch(ctx, b))
	}

	pending, err := repo.GetBatchesByStatus(ctx, domain.BatchStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
	assert.Equal(t, newer.ID, pending[1].ID)
}

func TestBatchStorage_NotFound(t *testing.T) {
	repo, err := NewBatchStorage(t.TempDir(), newTestLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = repo.GetBatch(ctx, uuid.New())
	assert.ErrorIs(t, err, errpkg.ErrBatchNotFound)

	err = repo.UpdateBatch(ctx, newBatch(domain.BatchStatusFailed, time.Now()))
	assert.ErrorIs(t, err, errpkg.ErrBatchNotFound)
}
