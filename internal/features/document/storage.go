package document

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"byov-backend/internal/config"
)

// Storage resolves a document's file path to bytes. The sync engine only
// depends on this interface, so tests can swap in an in-memory fake.
type Storage interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	Exists(path string) bool
	Size(path string) (int64, error)
}

// LocalStorage serves documents from a directory on disk. Relative paths
// are resolved against the configured base directory.
type LocalStorage struct {
	BasePath string
}

func NewLocalStorage(cfg *config.Config) Storage {
	return &LocalStorage{
		BasePath: cfg.FSPath,
	}
}

func (s *LocalStorage) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.BasePath, path)
}

func (s *LocalStorage) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return b, nil
}

func (s *LocalStorage) Write(path string, data []byte) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

func (s *LocalStorage) Exists(path string) bool {
	_, err := os.Stat(s.resolve(path))
	return err == nil
}

func (s *LocalStorage) Size(path string) (int64, error) {
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		return 0, fmt.Errorf("stat document %s: %w", path, err)
	}
	return info.Size(), nil
}

// MimeTypeOf derives a content type from the file extension,
// falling back to application/octet-stream.
func MimeTypeOf(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
