// Package blob stores uploaded chat media on the local filesystem and issues
// signed download URLs for it.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chatconsole/chatconsole/internal/chat"
	"go.uber.org/zap"
)

var ErrInvalidKey = errors.New("invalid blob key")

// Signer issues a download token scoped to one key.
type Signer interface {
	Sign(key string) (string, error)
}

// Store is a filesystem blob store rooted at a directory.
type Store struct {
	root      string
	publicURL string
	signer    Signer
	logger    *zap.Logger
}

// New creates a store under root. Download URLs are built against publicURL,
// which is the externally reachable base of the HTTP API.
func New(root, publicURL string, signer Signer, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
		signer:    signer,
		logger:    logger,
	}, nil
}

// ValidateKey rejects empty, absolute and traversing keys.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func (s *Store) pathFor(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes r under key. The object becomes visible atomically.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, readerWithContext(ctx, r))
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("commit blob: %w", err)
	}

	s.logger.Debug("blob stored", zap.String("key", key), zap.Int64("bytes", n))
	return nil
}

// Open returns the object stored under key.
func (s *Store) Open(key string) (*os.File, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: blob %q", chat.ErrNotFound, key)
	}
	return f, err
}

// URL returns a signed download URL for key.
func (s *Store) URL(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	token, err := s.signer.Sign(key)
	if err != nil {
		return "", fmt.Errorf("sign %q: %w", key, err)
	}
	return s.publicURL + "/media/" + EscapeKey(key) + "?token=" + url.QueryEscape(token), nil
}

// EscapeKey path-escapes each segment of key.
func EscapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return path.Join(segs...)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
