package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(_ context.Context, cfg storage.Config, log *logger.Logger) (storage.Backend, error) {
		return New(cfg.BasePath, log)
	})
}

const (
	dirPerm  = 0o750
	filePerm = 0o640
	// tempPattern marks in-flight writes. Temp files live next to their
	// destination so the final rename never crosses filesystems.
	tempPattern = ".upload-*.tmp"
)

// Backend stores blobs as files under a base directory.
type Backend struct {
	root string
	log  *logger.Logger
}

var _ storage.Backend = (*Backend)(nil)

// New creates the base directory if needed and returns a backend rooted there.
func New(basePath string, log *logger.Logger) (*Backend, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("local: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("local: create base directory: %w", err)
	}
	return &Backend{root: abs, log: log}, nil
}

// Root returns the absolute base directory.
func (b *Backend) Root() string { return b.root }

func (b *Backend) path(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(key)), nil
}

// Write copies r into a temporary file beside the destination, syncs it and
// renames it into place. Any failure removes the temporary file.
func (b *Backend) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	dst, err := b.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return 0, &storage.Error{Op: "write", Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), tempPattern)
	if err != nil {
		return 0, &storage.Error{Op: "write", Key: key, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			b.log.Warn("failed to remove temp file", map[string]interface{}{"path": tmpName, "error": rmErr.Error()})
		}
	}()

	n, err := io.Copy(tmp, storage.ContextReader(ctx, r))
	if err != nil {
		return n, &storage.Error{Op: "write", Key: key, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return n, &storage.Error{Op: "write", Key: key, Err: err}
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return n, &storage.Error{Op: "write", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return n, &storage.Error{Op: "write", Key: key, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return n, &storage.Error{Op: "write", Key: key, Err: err}
	}
	committed = true

	b.log.Debug("blob written", map[string]interface{}{logger.FieldStorageKey: key, "bytes": n})
	return n, nil
}

// Read opens the file for key. The returned *os.File is the stream.
func (b *Backend) Read(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &storage.Error{Op: "read", Key: key, Err: storage.ErrNotFound}
		}
		return nil, &storage.Error{Op: "read", Key: key, Err: err}
	}
	return f, nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &storage.Error{Op: "delete", Key: key, Err: storage.ErrNotFound}
		}
		return &storage.Error{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (b *Backend) Exists(_ context.Context, key string) (bool, error) {
	p, err := b.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &storage.Error{Op: "stat", Key: key, Err: err}
	}
	return info.Mode().IsRegular(), nil
}
