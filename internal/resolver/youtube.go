package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"
	"golang.org/x/time/rate"

	"github.com/veranemoloko/ytfetch/internal/domain"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
)

// Client is the part of *youtube.Client the resolver needs.
type Client interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
	VideoFromPlaylistEntryContext(ctx context.Context, entry *youtube.PlaylistEntry) (*youtube.Video, error)
}

// NewClient returns a youtube client with a bounded HTTP timeout.
func NewClient(timeout time.Duration) *youtube.Client {
	return &youtube.Client{
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// YouTubeResolver resolves URLs through the youtube client.
// Per-entry lookups used by the music filter are paced by a rate limiter.
type YouTubeResolver struct {
	client  Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewYouTubeResolver creates a resolver. lookupsPerSecond <= 0 disables pacing.
func NewYouTubeResolver(client Client, lookupsPerSecond float64, logger *slog.Logger) *YouTubeResolver {
	limit := rate.Inf
	if lookupsPerSecond > 0 {
		limit = rate.Limit(lookupsPerSecond)
	}
	return &YouTubeResolver{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// ResolveSingle looks up one video.
func (r *YouTubeResolver) ResolveSingle(ctx context.Context, rawURL string) (domain.MediaItem, error) {
	video, err := r.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return domain.MediaItem{}, wrapLookupError(err, "resolve video")
	}
	if video == nil || video.ID == "" {
		return domain.MediaItem{}, fmt.Errorf("%w: %s", errpkg.ErrNotFound, rawURL)
	}

	r.logger.Debug("video resolved", "item_id", video.ID, "title", video.Title)
	return domain.MediaItem{
		ID:       video.ID,
		Title:    video.Title,
		Duration: int(video.Duration.Seconds()),
		Origin:   domain.OriginDirectLookup,
	}, nil
}

// ResolvePlaylist lists the entries of a playlist or mix and applies opts.
// An empty playlist is not an error.
func (r *YouTubeResolver) ResolvePlaylist(ctx context.Context, rawURL string, opts PlaylistOptions) (Playlist, error) {
	pl, err := r.client.GetPlaylistContext(ctx, rawURL)
	if err != nil {
		return Playlist{}, wrapLookupError(err, "resolve playlist")
	}

	listID, _ := PlaylistID(rawURL)
	if pl.ID != "" {
		listID = pl.ID
	}
	group := GroupName(opts.GroupName, listID, pl.Title, IsMixURL(rawURL))

	entries := make(map[string]*youtube.PlaylistEntry, len(pl.Videos))
	items := make([]domain.MediaItem, 0, len(pl.Videos))
	for _, entry := range pl.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		if _, seen := entries[entry.ID]; seen {
			r.logger.Debug("skipping repeated playlist entry", "item_id", entry.ID)
			continue
		}
		entries[entry.ID] = entry
		items = append(items, domain.MediaItem{
			ID:        entry.ID,
			Title:     entryTitle(entry),
			Duration:  int(entry.Duration.Seconds()),
			Origin:    domain.OriginMetadataScrape,
			GroupName: group,
		})
	}

	var lookupErr error
	keep := func(item domain.MediaItem) bool {
		if lookupErr != nil {
			return false
		}
		signals, err := r.signals(ctx, entries[item.ID])
		if err != nil {
			lookupErr = err
			return false
		}
		music := IsMusic(signals)
		if !music {
			r.logger.Debug("skipping non-music entry", "item_id", item.ID, "title", item.Title)
		}
		return music
	}

	selected := Select(items, opts, keep)
	if lookupErr != nil {
		return Playlist{}, lookupErr
	}

	r.logger.Info("playlist resolved",
		"playlist_id", listID,
		"title", pl.Title,
		"group", group,
		"entries", len(items),
		"selected", len(selected),
	)

	return Playlist{ID: listID, Title: pl.Title, Items: selected}, nil
}

// signals fetches the full metadata of entry. A failed lookup falls back to
// the entry fields; only cancellation aborts.
func (r *YouTubeResolver) signals(ctx context.Context, entry *youtube.PlaylistEntry) (Signals, error) {
	base := Signals{
		Title:    entry.Title,
		Author:   entry.Author,
		Duration: int(entry.Duration.Seconds()),
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return Signals{}, err
	}

	video, err := r.client.VideoFromPlaylistEntryContext(ctx, entry)
	if err != nil {
		if ctx.Err() != nil {
			return Signals{}, ctx.Err()
		}
		r.logger.Warn("entry lookup failed, using playlist metadata", "item_id", entry.ID, "error", err)
		return base, nil
	}

	base.Description = video.Description
	if video.Author != "" {
		base.Author = video.Author
	}
	return base, nil
}

func entryTitle(entry *youtube.PlaylistEntry) string {
	if entry.Title != "" {
		return entry.Title
	}
	return entry.ID
}

func wrapLookupError(err error, op string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrNotPlayableInEmbed),
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength),
		errors.Is(err, youtube.ErrInvalidPlaylist):
		return fmt.Errorf("%s: %w: %w", op, errpkg.ErrNotFound, err)
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%s: %w: %w", op, errpkg.ErrNotFound, err)
	}

	return fmt.Errorf("%s: %w: %w", op, errpkg.ErrResolution, err)
}
