package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
	"github.com/veranemoloko/ytfetch/internal/metrics"
	"github.com/veranemoloko/ytfetch/internal/naming"
	repo "github.com/veranemoloko/ytfetch/internal/repository"
	"github.com/veranemoloko/ytfetch/internal/resolver"
	"github.com/veranemoloko/ytfetch/internal/validation"
)

// Downloader runs a batch of items.
type Downloader interface {
	DownloadBatch(ctx context.Context, items []domain.MediaItem, opts domain.DownloadOptions) (domain.BatchResult, error)
}

// LedgerFiles names the two ledger files.
type LedgerFiles struct {
	Pending    string
	Downloaded string
}

// ConfirmFunc is asked before a playlist of n items is downloaded.
type ConfirmFunc func(n int) bool

// LibraryService ties resolution, downloading and ledger bookkeeping together.
// Ledger writes happen only after a batch has finished.
type LibraryService struct {
	resolver   resolver.Resolver
	ledger     repo.LedgerRepo
	downloader Downloader
	files      LedgerFiles
	logger     *slog.Logger
}

func NewLibraryService(
	res resolver.Resolver,
	ledger repo.LedgerRepo,
	downloader Downloader,
	files LedgerFiles,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		resolver:   res,
		ledger:     ledger,
		downloader: downloader,
		files:      files,
		logger:     logger,
	}
}

// Scan resolves a playlist and appends a pending record for every item that
// is in neither ledger yet. It returns the number of records appended.
func (s *LibraryService) Scan(ctx context.Context, playlistURL string, opts domain.DownloadOptions) (int, error) {
	if err := validation.ValidateURL(playlistURL); err != nil {
		return 0, err
	}

	pl, err := s.resolver.ResolvePlaylist(ctx, playlistURL, resolver.PlaylistOptionsFrom(opts))
	if err != nil {
		return 0, fmt.Errorf("scan playlist: %w", err)
	}
	if len(pl.Items) == 0 {
		s.logger.Warn("playlist resolved to no items", "url", playlistURL)
		return 0, nil
	}

	known, err := s.knownIDs(ctx, s.files.Pending, s.files.Downloaded)
	if err != nil {
		return 0, err
	}

	var records []domain.LedgerRecord
	for _, item := range pl.Items {
		if known[item.ID] {
			continue
		}
		known[item.ID] = true
		records = append(records, domain.NewPendingRecord(ledgerSafe(item)))
	}

	if err := s.ledger.AppendAll(ctx, s.files.Pending, records); err != nil {
		return 0, fmt.Errorf("append pending records: %w", err)
	}
	metrics.LedgerRecordsAppended.WithLabelValues(string(domain.LedgerStatusPending)).Add(float64(len(records)))

	s.logger.Info("scan finished",
		"playlist", pl.Title,
		"resolved", len(pl.Items),
		"appended", len(records),
	)
	return len(records), nil
}

// DownloadPending downloads the pending records that are not downloaded yet.
// Reverse, Limit and PlaylistName of opts apply to the pending list.
func (s *LibraryService) DownloadPending(ctx context.Context, opts domain.DownloadOptions) (domain.BatchResult, error) {
	if err := validation.ValidateOptions(opts); err != nil {
		return domain.BatchResult{}, err
	}

	pending, err := s.ledger.ReadAll(ctx, s.files.Pending)
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("read pending ledger: %w", err)
	}

	done, err := s.knownIDs(ctx, s.files.Downloaded)
	if err != nil {
		return domain.BatchResult{}, err
	}

	items := make([]domain.MediaItem, 0, len(pending))
	for _, record := range pending {
		if done[record.ID] {
			continue
		}
		done[record.ID] = true
		item := record.MediaItem()
		item.GroupName = opts.PlaylistName
		items = append(items, item)
	}

	items = resolver.Select(items, resolver.PlaylistOptions{Reverse: opts.Reverse, Limit: opts.Limit}, nil)
	if len(items) == 0 {
		s.logger.Info("nothing pending to download", "pending_records", len(pending))
		return domain.BatchResult{}, nil
	}

	return s.run(ctx, items, opts)
}

// Clean trims the processed prefix of the pending ledger.
func (s *LibraryService) Clean(ctx context.Context) (int, error) {
	return s.ledger.TrimCompleted(ctx, s.files.Pending, s.files.Downloaded)
}

// DownloadSingle resolves and downloads one video into the output root.
// opts.PlaylistName does not apply to singles.
func (s *LibraryService) DownloadSingle(ctx context.Context, rawURL string, opts domain.DownloadOptions) (domain.BatchResult, error) {
	if err := validation.ValidateURL(rawURL); err != nil {
		return domain.BatchResult{}, err
	}
	if err := validation.ValidateOptions(opts); err != nil {
		return domain.BatchResult{}, err
	}

	item, err := s.resolver.ResolveSingle(ctx, rawURL)
	if err != nil {
		return domain.BatchResult{}, err
	}

	return s.run(ctx, []domain.MediaItem{item}, opts)
}

// DownloadPlaylist resolves a playlist and downloads its items once confirm
// agrees. A nil confirm downloads without asking.
func (s *LibraryService) DownloadPlaylist(ctx context.Context, rawURL string, opts domain.DownloadOptions, confirm ConfirmFunc) (domain.BatchResult, error) {
	if err := validation.ValidateURL(rawURL); err != nil {
		return domain.BatchResult{}, err
	}
	if err := validation.ValidateOptions(opts); err != nil {
		return domain.BatchResult{}, err
	}

	pl, err := s.resolver.ResolvePlaylist(ctx, rawURL, resolver.PlaylistOptionsFrom(opts))
	if err != nil {
		return domain.BatchResult{}, err
	}
	if len(pl.Items) == 0 {
		s.logger.Warn("playlist resolved to no items", "url", rawURL)
		return domain.BatchResult{}, nil
	}

	if confirm != nil && !confirm(len(pl.Items)) {
		s.logger.Info("playlist download declined", "url", rawURL, "items", len(pl.Items))
		return domain.BatchResult{}, nil
	}

	return s.run(ctx, pl.Items, opts)
}

// Download picks DownloadPlaylist or DownloadSingle from the shape of rawURL.
func (s *LibraryService) Download(ctx context.Context, rawURL string, opts domain.DownloadOptions, confirm ConfirmFunc) (domain.BatchResult, error) {
	if validation.IsPlaylistURL(rawURL) {
		return s.DownloadPlaylist(ctx, rawURL, opts, confirm)
	}
	return s.DownloadSingle(ctx, rawURL, opts)
}

func (s *LibraryService) run(ctx context.Context, items []domain.MediaItem, opts domain.DownloadOptions) (domain.BatchResult, error) {
	result, err := s.downloader.DownloadBatch(ctx, items, opts)
	if err != nil {
		return result, err
	}

	// completed downloads are recorded even when ctx was cancelled mid-batch
	if err := s.recordDownloaded(context.WithoutCancel(ctx), result.Completed); err != nil {
		return result, err
	}
	return result, nil
}

func (s *LibraryService) recordDownloaded(ctx context.Context, items []domain.MediaItem) error {
	if len(items) == 0 {
		return nil
	}

	records := make([]domain.LedgerRecord, 0, len(items))
	for _, item := range items {
		records = append(records, domain.NewDownloadedRecord(ledgerSafe(item)))
	}

	if err := s.ledger.AppendAll(ctx, s.files.Downloaded, records); err != nil {
		return fmt.Errorf("append downloaded records: %w", err)
	}
	metrics.LedgerRecordsAppended.WithLabelValues(string(domain.LedgerStatusDownloaded)).Add(float64(len(records)))
	return nil
}

// knownIDs collects the ids of the given ledgers. Missing or empty ledgers
// contribute nothing; malformed ones are an error.
func (s *LibraryService) knownIDs(ctx context.Context, files ...string) (map[string]bool, error) {
	ids := make(map[string]bool)
	for _, file := range files {
		records, err := s.ledger.ReadAll(ctx, file)
		if err != nil {
			if errors.Is(err, errpkg.ErrMissingLedger) || errors.Is(err, errpkg.ErrEmptyLedger) {
				continue
			}
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		for _, r := range records {
			ids[r.ID] = true
		}
	}
	return ids, nil
}

func ledgerSafe(item domain.MediaItem) domain.MediaItem {
	item.Title = naming.Sanitize(item.Title)
	return item
}
