package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage performs the filesystem operations of the download pipeline.
// Paths are absolute or relative to the process working directory.
type FileStorage struct{}

// NewFileStorage creates a new FileStorage.
func NewFileStorage() *FileStorage {
	return &FileStorage{}
}

// CreateFile creates or truncates the file at path.
func (s *FileStorage) CreateFile(path string) (*os.File, error) {
	return os.Create(path)
}

// FileExists reports whether a regular file exists at path.
func (s *FileStorage) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GetFileSize returns the size of the file in bytes.
func (s *FileStorage) GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// MoveFile renames src to dst, replacing any existing dst.
func (s *FileStorage) MoveFile(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove previous file: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(src), err)
	}
	return nil
}

// ListFiles returns the names of the regular files in dir.
// A missing directory yields no names.
func (s *FileStorage) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// RemoveFile deletes the file at path. A missing file is not an error.
func (s *FileStorage) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
