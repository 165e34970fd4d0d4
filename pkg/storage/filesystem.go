package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists imported file content on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// AllocatePath returns a destination path for the given display name that does
// not collide with an existing file. Name collisions get a " (N)" suffix
// before the extension, incrementing until a free slot is found.
func (s *LocalStorage) AllocatePath(name string) string {
	dest := filepath.Join(s.baseDir, filepath.Base(name))
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)
	for idx := 1; ; idx++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
		dest = fmt.Sprintf("%s (%d)%s", base, idx, ext)
	}
}

// WriteFile persists a fully buffered payload at path and returns its sha256.
func (s *LocalStorage) WriteFile(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// WriteStream copies from the reader into path while hashing each chunk,
// bounding memory for large payloads. It returns the sha256 hex digest and
// the number of bytes written.
func (s *LocalStorage) WriteStream(path string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(file, hasher), r)
	if err != nil {
		return "", 0, fmt.Errorf("write stream: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Exists reports whether a file is present at path.
func (s *LocalStorage) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Remove deletes a stored file if present.
func (s *LocalStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Dir exposes the base directory (useful for startup logging).
func (s *LocalStorage) Dir() string {
	return s.baseDir
}
