package naming

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/veranemoloko/ytfetch/internal/domain"
)

const (
	DefaultDirPermissions = 0o755

	playlistDir = "playlist"
)

// Grouping tells whether an item is filed on its own or under a playlist.
type Grouping struct {
	Playlist string
}

// Single is the grouping for stand-alone downloads.
func Single() Grouping {
	return Grouping{}
}

// Playlist is the grouping for items of the named playlist.
func Playlist(name string) Grouping {
	return Grouping{Playlist: name}
}

// IsPlaylist reports whether the grouping names a playlist.
func (g Grouping) IsPlaylist() bool {
	return g.Playlist != ""
}

// GroupingFor returns the grouping of item.
func GroupingFor(item domain.MediaItem) Grouping {
	if item.InPlaylist() {
		return Playlist(item.GroupName)
	}
	return Single()
}

// OutputDir computes the directory an item is filed into:
// <root>/<kind> for singles and <root>/playlist/<group>/<kind> for playlists.
func OutputDir(root string, kind domain.MediaKind, g Grouping) string {
	if g.IsPlaylist() {
		return filepath.Join(root, playlistDir, Sanitize(g.Playlist), string(kind))
	}
	return filepath.Join(root, string(kind))
}

// BuildOutputPath returns OutputDir and makes sure the directory exists.
// Safe to call concurrently with the same arguments.
func BuildOutputPath(root string, kind domain.MediaKind, g Grouping) (string, error) {
	dir := OutputDir(root, kind, g)
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// CreateDirectoryIfNotExists creates dirPath and its parents when missing.
func CreateDirectoryIfNotExists(dirPath string) error {
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return fmt.Errorf("create directory %s: %w", dirPath, err)
	}
	return nil
}
