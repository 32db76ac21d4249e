package storage

import (
	"context"
	"io"
	"strings"
)

// WithPrefix scopes a backend to a fixed key prefix such as "article_reference".
// Callers keep using bare keys. The result implements Presigner when b does.
func WithPrefix(b Backend, prefix string) Backend {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return b
	}
	p := &prefixed{inner: b, prefix: prefix + "/"}
	if ps, ok := b.(Presigner); ok {
		return &prefixedPresigner{prefixed: p, presigner: ps}
	}
	return p
}

type prefixed struct {
	inner  Backend
	prefix string
}

func (p *prefixed) key(k string) (string, error) {
	if err := ValidateKey(k); err != nil {
		return "", err
	}
	return p.prefix + k, nil
}

func (p *prefixed) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	full, err := p.key(key)
	if err != nil {
		return 0, err
	}
	return p.inner.Write(ctx, full, r)
}

func (p *prefixed) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := p.key(key)
	if err != nil {
		return nil, err
	}
	return p.inner.Read(ctx, full)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	full, err := p.key(key)
	if err != nil {
		return err
	}
	return p.inner.Delete(ctx, full)
}

func (p *prefixed) Exists(ctx context.Context, key string) (bool, error) {
	full, err := p.key(key)
	if err != nil {
		return false, err
	}
	return p.inner.Exists(ctx, full)
}

type prefixedPresigner struct {
	*prefixed
	presigner Presigner
}

func (p *prefixedPresigner) PresignGet(ctx context.Context, key string, opts PresignOptions) (*PresignedURL, error) {
	full, err := p.key(key)
	if err != nil {
		return nil, err
	}
	return p.presigner.PresignGet(ctx, full, opts)
}
