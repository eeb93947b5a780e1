package mocks

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// BlobStore is an in-memory implementation of ports.BlobStore.
type BlobStore struct {
	mu    sync.Mutex
	Blobs map[string][]byte

	Err          error
	PutErr       error
	DeleteErr    error
	StatErr      error
	SignedURLErr error

	Deleted []string
}

// NewBlobStore creates an empty BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{Blobs: make(map[string][]byte)}
}

// Put stores a copy of data at path.
func (m *BlobStore) Put(_ context.Context, path string, data []byte, contentType string) (*ports.BlobRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := firstErr(m.Err, m.PutErr); err != nil {
		return nil, err
	}
	if _, ok := m.Blobs[path]; ok {
		return nil, fmt.Errorf("blob already exists: %s", path)
	}
	m.Blobs[path] = append([]byte(nil), data...)
	return &ports.BlobRef{
		Path:        path,
		CID:         contentID(data),
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Get returns the blob at path.
func (m *BlobStore) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	data, ok := m.Blobs[path]
	if !ok {
		return nil, ports.ErrBlobNotFound
	}
	return append([]byte(nil), data...), nil
}

// Stat returns the size and content id of the bytes currently at path.
func (m *BlobStore) Stat(_ context.Context, path string) (*ports.BlobRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := firstErr(m.Err, m.StatErr); err != nil {
		return nil, err
	}
	data, ok := m.Blobs[path]
	if !ok {
		return nil, ports.ErrBlobNotFound
	}
	return &ports.BlobRef{Path: path, CID: contentID(data), Size: int64(len(data))}, nil
}

// Delete removes path and remembers it in Deleted.
func (m *BlobStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := firstErr(m.Err, m.DeleteErr); err != nil {
		return err
	}
	delete(m.Blobs, path)
	m.Deleted = append(m.Deleted, path)
	return nil
}

// SignedURL returns a fake URL embedding path and ttl.
func (m *BlobStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := firstErr(m.Err, m.SignedURLErr); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://blobs.test/%s?ttl=%d", url.PathEscape(path), int(ttl.Seconds())), nil
}

// Paths returns the stored paths in sorted order.
func (m *BlobStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.Blobs))
	for p := range m.Blobs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func contentID(data []byte) string {
	return fmt.Sprintf("mock-%x", sha256.Sum256(data))
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
