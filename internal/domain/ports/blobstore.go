package ports

import (
	"context"
	"errors"
	"time"
)

// ErrBlobNotFound is returned by BlobStore.Get for a missing path.
var ErrBlobNotFound = errors.New("blob not found")

// BlobRef describes a stored binary.
type BlobRef struct {
	Path        string
	CID         string
	Size        int64
	ContentType string
}

// BlobStore stores rendered reports and signature images.
type BlobStore interface {
	// Put stores data at path. An existing blob at path is an error.
	Put(ctx context.Context, path string, data []byte, contentType string) (*BlobRef, error)

	// Get reads the blob at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Stat reads the blob at path and returns its current size and content
	// identifier. A missing blob is ErrBlobNotFound.
	Stat(ctx context.Context, path string) (*BlobRef, error)

	// Delete removes the blob at path. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error

	// SignedURL returns a URL that grants read access to path until ttl elapses.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
