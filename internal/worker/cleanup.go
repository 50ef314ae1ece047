package worker

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var (
	transientSuffixes = []string{
		".part",
		".ytdl",
		".temp",
		".jpg",
		".webp",
		".webm",
		".m4a",
	}

	formatCoded = regexp.MustCompile(`^f\d+\.[^.]+$`)
)

// IsTransient reports whether name is an intermediate file of the item id:
//
//	<id>.part <id>.*.part <id>.ytdl <id>.temp
//	<id>.jpg <id>.webp <id>.webm <id>.m4a <id>.src.*
//	<id>.f<digits>.<ext>
func IsTransient(name, id string) bool {
	if id == "" || !strings.HasPrefix(name, id+".") {
		return false
	}
	rest := strings.TrimPrefix(name, id)

	for _, suffix := range transientSuffixes {
		if rest == suffix {
			return true
		}
	}

	rest = rest[1:]
	switch {
	case strings.HasSuffix(rest, ".part"):
		return true
	case strings.HasPrefix(rest, "src."):
		return true
	case formatCoded.MatchString(rest):
		return true
	}
	return false
}

// cleanup removes the transient files of id in dir, sparing the paths in keep.
func (w *DownloadWorker) cleanup(dir, id string, keep []string) {
	names, err := w.files.ListFiles(dir)
	if err != nil {
		w.logger.Warn("cleanup listing failed", "dir", dir, "item_id", id, "error", err)
		return
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		if !IsTransient(name, id) || slices.Contains(keep, path) {
			continue
		}
		if err := w.files.RemoveFile(path); err != nil {
			w.logger.Warn("cleanup failed", "path", path, "error", err)
		}
	}
}
