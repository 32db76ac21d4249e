package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/resilience"
)

// ResilienceConfig guards a remote backend with retries and a circuit breaker.
type ResilienceConfig struct {
	Enabled bool                            `mapstructure:"enabled" json:"enabled"`
	Retry   resilience.RetryConfig          `mapstructure:"retry" json:"-"`
	Breaker resilience.CircuitBreakerConfig `mapstructure:"breaker" json:"-"`
}

// WithResilience wraps b so that Read, Delete and Exists are retried on
// transient errors and every call passes a circuit breaker. Write is never
// retried since its reader cannot be replayed. Missing blobs and invalid keys
// are answers, not failures: they are neither retried nor counted.
// The result implements Presigner when b does.
func WithResilience(b Backend, cfg ResilienceConfig, log *logger.Logger) Backend {
	log = log.WithComponent("storage")

	r := &resilient{inner: b, retry: cfg.Retry}
	r.retry.ApplyDefaults()
	r.retry.RetryIf = retryable
	r.retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Debug("retrying storage call", map[string]interface{}{
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   err.Error(),
		})
	}

	breaker := cfg.Breaker
	if breaker.Name == "" {
		breaker.Name = "storage"
	}
	breaker.IsFailure = isBackendFailure
	breaker.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("storage circuit changed state", map[string]interface{}{
			"circuit": name,
			"from":    from.String(),
			"to":      to.String(),
		})
	}
	r.breaker = resilience.NewCircuitBreaker(breaker)

	if ps, ok := b.(Presigner); ok {
		return &resilientPresigner{resilient: r, presigner: ps}
	}
	return r
}

func isBackendFailure(err error) bool {
	var se sourceError
	return !IsNotFound(err) && !errors.Is(err, ErrInvalidKey) &&
		!errors.Is(err, context.Canceled) && !errors.As(err, &se)
}

func retryable(err error) bool {
	return isBackendFailure(err) && resilience.DefaultRetryIf(err)
}

type resilient struct {
	inner   Backend
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// Write failures caused by the source reader, such as a client hanging up
// mid-upload, do not count against the circuit.
func (r *resilient) Write(ctx context.Context, key string, src io.Reader) (int64, error) {
	var n int64
	err := r.breaker.Execute(func() error {
		tr := &trackingReader{r: src}
		var err error
		n, err = r.inner.Write(ctx, key, tr)
		if err != nil && tr.err != nil {
			return sourceError{err}
		}
		return err
	})
	var se sourceError
	if errors.As(err, &se) {
		err = se.error
	}
	return n, err
}

type sourceError struct{ error }

func (e sourceError) Unwrap() error { return e.error }

type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

func (r *resilient) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := r.breaker.Execute(func() error {
		var err error
		rc, err = resilience.Retry(ctx, r.retry, func() (io.ReadCloser, error) {
			return r.inner.Read(ctx, key)
		})
		return err
	})
	return rc, err
}

func (r *resilient) Delete(ctx context.Context, key string) error {
	return r.breaker.Execute(func() error {
		return resilience.RetryFunc(ctx, r.retry, func() error {
			return r.inner.Delete(ctx, key)
		})
	})
}

func (r *resilient) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := r.breaker.Execute(func() error {
		var err error
		ok, err = resilience.Retry(ctx, r.retry, func() (bool, error) {
			return r.inner.Exists(ctx, key)
		})
		return err
	})
	return ok, err
}

// Presigning is local computation and bypasses the breaker.
type resilientPresigner struct {
	*resilient
	presigner Presigner
}

func (r *resilientPresigner) PresignGet(ctx context.Context, key string, opts PresignOptions) (*PresignedURL, error) {
	return r.presigner.PresignGet(ctx, key, opts)
}
