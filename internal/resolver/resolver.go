// Package resolver turns YouTube URLs into ordered media descriptors.
package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/veranemoloko/ytfetch/internal/domain"
)

const (
	mixPrefix      = "RD"
	mixGroupPrefix = "mix-"
)

// Resolver resolves URLs into media items.
type Resolver interface {
	ResolveSingle(ctx context.Context, rawURL string) (domain.MediaItem, error)
	ResolvePlaylist(ctx context.Context, rawURL string, opts PlaylistOptions) (Playlist, error)
}

// PlaylistOptions control which playlist entries are returned and in what order.
// Limit 0 means all entries.
type PlaylistOptions struct {
	Reverse   bool
	Limit     int
	MusicOnly bool
	GroupName string
}

// PlaylistOptionsFrom extracts the resolver-relevant part of download options.
func PlaylistOptionsFrom(opts domain.DownloadOptions) PlaylistOptions {
	return PlaylistOptions{
		Reverse:   opts.Reverse,
		Limit:     opts.Limit,
		MusicOnly: opts.SongsOnly,
		GroupName: opts.PlaylistName,
	}
}

// Playlist is a resolved playlist. Items carry the group name it is filed under.
type Playlist struct {
	ID    string
	Title string
	Items []domain.MediaItem
}

// Select applies reverse, then keep (when MusicOnly is set), then limit.
// keep is only called until the limit is reached. items is not modified.
func Select(items []domain.MediaItem, opts PlaylistOptions, keep func(domain.MediaItem) bool) []domain.MediaItem {
	ordered := make([]domain.MediaItem, len(items))
	copy(ordered, items)
	if opts.Reverse {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	selected := make([]domain.MediaItem, 0, len(ordered))
	for _, item := range ordered {
		if opts.Limit > 0 && len(selected) >= opts.Limit {
			break
		}
		if opts.MusicOnly && keep != nil && !keep(item) {
			continue
		}
		selected = append(selected, item)
	}
	return selected
}

// PlaylistID returns the value of the list query parameter.
func PlaylistID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	id := u.Query().Get("list")
	return id, id != ""
}

// IsMixURL reports whether rawURL points at an auto-generated mix playlist.
func IsMixURL(rawURL string) bool {
	id, ok := PlaylistID(rawURL)
	return ok && strings.HasPrefix(id, mixPrefix)
}

// GroupName picks the folder name for a playlist: the override when given,
// mix-<id> for mixes, otherwise the playlist title or id.
func GroupName(override, playlistID, title string, mix bool) string {
	switch {
	case override != "":
		return override
	case mix:
		return mixGroupPrefix + playlistID
	case strings.TrimSpace(title) != "":
		return title
	default:
		return playlistID
	}
}
