// Package storage defines the disk abstraction for media assets. A disk is a
// named backend (public local directory, token-gated local directory, or an
// S3-compatible bucket) selected once through the Registry.
package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
)

// Disk kinds.
const (
	KindLocal = "local"
	KindToken = "token"
	KindS3    = "s3"
)

var (
	// ErrUnknownDisk is returned for disk names missing from the configuration.
	ErrUnknownDisk = errors.New("unknown disk")
	// ErrObjectNotFound matches errors for keys with no backing object.
	ErrObjectNotFound = fs.ErrNotExist
)

// Disk defines the operations every storage backend implements.
type Disk interface {
	// Name returns the configured disk name, e.g. "media" or "r2".
	Name() string

	// Kind returns KindLocal, KindToken or KindS3.
	Kind() string

	// ObjectURL builds the non-SEO URL for key. Token-gated disks ignore key
	// and require token; the other kinds ignore token.
	ObjectURL(key, token string) (string, error)

	// PutObject uploads data under key.
	PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) error

	// GetObject retrieves an object. The caller must close the reader.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteObject removes an object. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, key string) error

	// CopyObject duplicates src to dst on the same disk.
	CopyObject(ctx context.Context, src, dst string) error

	// ObjectExists checks if an object exists.
	ObjectExists(ctx context.Context, key string) (bool, error)
}
