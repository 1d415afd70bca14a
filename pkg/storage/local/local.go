// Package local implements the local filesystem disk adapter. A public disk
// is served as static files; a secure disk is only reachable by token.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// PublicURLPrefix serves public disks as static files.
	PublicURLPrefix = "/assets/uploads/"
	// TokenURLPrefix is the token-gated access route of secure disks.
	TokenURLPrefix = "/media/t/"
)

// Config holds local disk configuration.
type Config struct {
	Name   string
	Root   string
	Secure bool
}

// Storage implements the storage.Disk interface using the local filesystem.
type Storage struct {
	name     string
	basePath string
	secure   bool
}

// New creates a new local disk adapter. The root directory is created on
// the first write, not here.
func New(cfg Config) (*Storage, error) {
	if cfg.Name == "" {
		return nil, errors.New("disk name is required")
	}
	basePath := cfg.Root
	if basePath == "" {
		basePath = filepath.Join("storage", cfg.Name)
	}
	return &Storage{name: cfg.Name, basePath: basePath, secure: cfg.Secure}, nil
}

// Name returns the disk name.
func (s *Storage) Name() string {
	return s.name
}

// Kind returns "token" for secure disks and "local" otherwise.
func (s *Storage) Kind() string {
	if s.secure {
		return "token"
	}
	return "local"
}

// ObjectURL returns the static path for public disks and the token route for
// secure disks.
func (s *Storage) ObjectURL(key, token string) (string, error) {
	if s.secure {
		if token == "" {
			return "", fmt.Errorf("disk %s: token required", s.name)
		}
		return TokenURLPrefix + token, nil
	}
	key = strings.TrimLeft(path.Clean("/"+filepath.ToSlash(key)), "/")
	if key == "" {
		return "", fmt.Errorf("disk %s: empty key", s.name)
	}
	return PublicURLPrefix + key, nil
}

// PutObject writes a file to the local filesystem.
func (s *Storage) PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// GetObject reads a file from the local filesystem.
func (s *Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", key, err)
	}
	return f, nil
}

// DeleteObject removes a file from the local filesystem.
func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete file: %w", err)
	}

	// Drop the parent directory when it became empty.
	if dir := filepath.Dir(fullPath); dir != filepath.Clean(s.basePath) {
		_ = os.Remove(dir)
	}
	return nil
}

// CopyObject copies src to dst inside the disk root.
func (s *Storage) CopyObject(ctx context.Context, src, dst string) error {
	in, err := s.GetObject(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	return s.PutObject(ctx, dst, in, "", 0)
}

// ObjectExists checks if a file exists in the local filesystem.
func (s *Storage) ObjectExists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return !info.IsDir(), nil
}

// BasePath returns the root directory of the disk.
func (s *Storage) BasePath() string {
	return s.basePath
}

// keyToPath converts an object key to a filesystem path confined to the root.
func (s *Storage) keyToPath(key string) (string, error) {
	cleaned := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(key))
	if cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("disk %s: empty key", s.name)
	}
	return filepath.Join(s.basePath, cleaned), nil
}
