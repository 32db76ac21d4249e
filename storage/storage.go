package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when no blob exists under a key.
var ErrNotFound = errors.New("storage: blob not found")

// ErrInvalidKey is returned for keys that could escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Backend stores opaque byte streams under string keys.
//
// Write must never leave a partially written blob reachable under key: on
// failure the key is either absent or still holds its previous content.
type Backend interface {
	// Write streams r to key and returns the number of bytes stored.
	Write(ctx context.Context, key string, r io.Reader) (int64, error)
	// Read opens the blob at key. The caller closes the returned reader.
	Read(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at key, returning ErrNotFound if it is absent.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PresignOptions controls a presigned download URL.
type PresignOptions struct {
	TTL time.Duration
	// ContentType and ContentDisposition override the response headers the
	// object store sends when the URL is fetched.
	ContentType        string
	ContentDisposition string
}

// PresignedURL is a time-limited URL granting read access to a single blob.
type PresignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// Presigner is implemented by backends that can hand out direct download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string, opts PresignOptions) (*PresignedURL, error)
}

// Error describes a failed backend operation.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the blob does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidateKey rejects empty, absolute and parent-relative keys.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsRune(key, '\\') || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}

// ErrTooLarge is returned by a LimitedReader once more than its limit has
// been read.
var ErrTooLarge = errors.New("storage: stream exceeds size limit")

// LimitedReader fails with ErrTooLarge as soon as more than Max bytes pass
// through it. Unlike io.LimitReader it does not truncate silently, so a
// backend write aborts instead of persisting a clipped blob.
type LimitedReader struct {
	R   io.Reader
	Max int64

	read     int64
	exceeded bool
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, ErrTooLarge
	}
	n, err := l.R.Read(p)
	l.read += int64(n)
	if l.read > l.Max {
		l.exceeded = true
		return 0, ErrTooLarge
	}
	return n, err
}

// Exceeded reports whether the limit was hit.
func (l *LimitedReader) Exceeded() bool { return l.exceeded }

// ContextReader fails reads once ctx is done so that long copies stop when
// the caller goes away.
func ContextReader(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
