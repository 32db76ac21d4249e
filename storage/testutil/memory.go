package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/william251082/fileupload/storage"
)

// Op names recorded by Memory.
const (
	OpWrite   = "write"
	OpRead    = "read"
	OpDelete  = "delete"
	OpExists  = "exists"
	OpPresign = "presign"
)

// Memory is a thread-safe in-memory backend. Writes are buffered and only
// committed when the source reader is drained without error, mirroring the
// all-or-nothing contract of real backends.
type Memory struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	calls   map[string]int
	failOps map[string]error
}

var _ storage.Backend = (*Memory)(nil)

// NewMemory returns an empty backend.
func NewMemory() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset drops every blob, counter and injected failure.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = make(map[string][]byte)
	m.calls = make(map[string]int)
	m.failOps = make(map[string]error)
}

// Fail makes every subsequent call to op return err. A nil err clears it.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOps, op)
		return
	}
	m.failOps[op] = err
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Keys lists stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bytes returns a copy of the blob under key.
func (m *Memory) Bytes(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	return append([]byte(nil), b...), ok
}

// Put stores data directly without counting a call.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
}

func (m *Memory) begin(op, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if err := m.failOps[op]; err != nil {
		return &storage.Error{Op: op, Key: key, Err: err}
	}
	return storage.ValidateKey(key)
}

func (m *Memory) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := m.begin(OpWrite, key); err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, storage.ContextReader(ctx, r))
	if err != nil {
		return n, &storage.Error{Op: OpWrite, Key: key, Err: err}
	}
	m.mu.Lock()
	m.blobs[key] = buf.Bytes()
	m.mu.Unlock()
	return n, nil
}

func (m *Memory) Read(_ context.Context, key string) (io.ReadCloser, error) {
	if err := m.begin(OpRead, key); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, &storage.Error{Op: OpRead, Key: key, Err: storage.ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := m.begin(OpDelete, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return &storage.Error{Op: OpDelete, Key: key, Err: storage.ErrNotFound}
	}
	delete(m.blobs, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	if err := m.begin(OpExists, key); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

// PresigningMemory is a Memory that also implements storage.Presigner.
// URLs have the form memory://<key>?ttl=<seconds>&...
type PresigningMemory struct {
	*Memory
	// Now is used to compute ExpiresAt; defaults to time.Now.
	Now func() time.Time
}

var _ storage.Presigner = (*PresigningMemory)(nil)

// NewPresigningMemory returns an empty presign-capable backend.
func NewPresigningMemory() *PresigningMemory {
	return &PresigningMemory{Memory: NewMemory(), Now: time.Now}
}

func (p *PresigningMemory) PresignGet(_ context.Context, key string, opts storage.PresignOptions) (*storage.PresignedURL, error) {
	if err := p.begin(OpPresign, key); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("ttl", fmt.Sprintf("%d", int64(opts.TTL/time.Second)))
	if opts.ContentType != "" {
		q.Set("response-content-type", opts.ContentType)
	}
	if opts.ContentDisposition != "" {
		q.Set("response-content-disposition", opts.ContentDisposition)
	}
	u := url.URL{Scheme: "memory", Host: "blobs", Path: "/" + key, RawQuery: q.Encode()}
	return &storage.PresignedURL{URL: u.String(), ExpiresAt: p.Now().Add(opts.TTL)}, nil
}
