package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FilesystemStore keeps attachment bodies under a base directory, sharded
// by upload date: <base>/YYYY/MM/<uuid><ext>. The relative path is the key.
type FilesystemStore struct {
	basePath string
	now      func() time.Time
}

// NewFilesystemStore creates the base directory and returns a store over it.
func NewFilesystemStore(basePath string) (*FilesystemStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &FilesystemStore{basePath: basePath, now: time.Now}, nil
}

// Save writes content to a fresh uuid-named file and returns its key.
func (s *FilesystemStore) Save(_ context.Context, filename string, content []byte) (string, error) {
	now := s.now()
	dir := filepath.Join(fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))
	if err := os.MkdirAll(filepath.Join(s.basePath, dir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create attachment directory: %w", err)
	}

	key := filepath.Join(dir, uuid.NewString()+safeExtension(filename))
	if err := os.WriteFile(filepath.Join(s.basePath, key), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	return filepath.ToSlash(key), nil
}

// Load reads the content stored under key. Missing files return (nil, nil).
func (s *FilesystemStore) Load(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return content, nil
}

// Delete removes the content stored under key.
func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// resolve joins key onto the base path, rejecting keys that escape it.
func (s *FilesystemStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// safeExtension returns the filename's extension when it looks harmless,
// so stored files keep a recognizable suffix. Anything odd is dropped.
func safeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
