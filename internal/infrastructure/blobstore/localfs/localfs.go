// Package localfs stores blobs on the local filesystem and issues HMAC-signed
// download URLs for them.
package localfs

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

// FilesPrefix is the URL path under which signed downloads are served.
const FilesPrefix = "/files/"

var (
	// ErrInvalidPath is returned for empty, absolute or escaping blob paths.
	ErrInvalidPath = errors.New("localfs: invalid blob path")
	// ErrSignatureInvalid is returned when a download signature does not match.
	ErrSignatureInvalid = errors.New("localfs: invalid signature")
	// ErrURLExpired is returned when a signed URL is past its expiry.
	ErrURLExpired = errors.New("localfs: signed url expired")
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Store is a filesystem-backed ports.BlobStore.
type Store struct {
	root    string
	baseURL string
	key     []byte
}

var _ ports.BlobStore = (*Store)(nil)

// New creates a store rooted at root. Signed URLs are absolute under baseURL
// and keyed with signingKey. The directory will be created if needed.
func New(root, baseURL, signingKey string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if signingKey == "" {
		return nil, errors.New("localfs: signing key is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: creating root: %w", err)
	}
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     []byte(signingKey),
	}, nil
}

// ContentID returns the CIDv1 (raw codec, sha2-256) of data.
func ContentID(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// Put writes data at p. Blobs are immutable: an existing file is an error.
func (s *Store) Put(ctx context.Context, p string, data []byte, contentType string) (*ports.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.pathFor(p)
	if err != nil {
		return nil, err
	}
	id, err := ContentID(data)
	if err != nil {
		return nil, fmt.Errorf("localfs: computing content id: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("localfs: blob already exists: %s", p)
		}
		return nil, err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return nil, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return nil, err
	}

	return &ports.BlobRef{
		Path:        p,
		CID:         id,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Get reads the blob at p.
func (s *Store) Get(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.pathFor(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrBlobNotFound
		}
		return nil, err
	}
	return b, nil
}

// Stat re-reads the file at p and returns its size and content id.
// Anything other than a regular file is ErrBlobNotFound.
func (s *Store) Stat(ctx context.Context, p string) (*ports.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.pathFor(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrBlobNotFound
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ports.ErrBlobNotFound
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	id, err := ContentID(data)
	if err != nil {
		return nil, fmt.Errorf("localfs: computing content id: %w", err)
	}
	return &ports.BlobRef{Path: p, CID: id, Size: int64(len(data))}, nil
}

// Delete removes the blob at p. A missing blob is not an error.
func (s *Store) Delete(_ context.Context, p string) error {
	full, err := s.pathFor(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SignedURL returns <baseURL>/files/<p>?expires=<unix>&sig=<hex>.
func (s *Store) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	if _, err := s.pathFor(p); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("localfs: ttl must be positive, got %s", ttl)
	}
	expires := strconv.FormatInt(timeNow().Add(ttl).Unix(), 10)

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("sig", s.sign(p, expires))
	return s.baseURL + FilesPrefix + escapePath(p) + "?" + q.Encode(), nil
}

// Verify checks a signature produced by SignedURL.
func (s *Store) Verify(p, expires, sig string) error {
	if _, err := s.pathFor(p); err != nil {
		return err
	}
	want, err := hex.DecodeString(sig)
	if err != nil {
		return ErrSignatureInvalid
	}
	got, _ := hex.DecodeString(s.sign(p, expires))
	if !hmac.Equal(got, want) {
		return ErrSignatureInvalid
	}

	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	if timeNow().Unix() > unix {
		return ErrURLExpired
	}
	return nil
}

func (s *Store) sign(p, expires string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(p))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}

// pathFor maps a slash-separated blob path to a file under root.
func (s *Store) pathFor(p string) (string, error) {
	if p == "" || strings.Contains(p, `\`) || path.Clean(p) != p {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	local := filepath.FromSlash(p)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return filepath.Join(s.root, local), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
