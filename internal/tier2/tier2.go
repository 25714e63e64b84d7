// Package tier2 defines the L2 tier: a bulk object store holding payloads
// too large to inline in L1, addressed by object key (typically the
// fingerprint or a fingerprint-derived path).
package tier2

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Get when the object key has no object.
var ErrNotFound = errors.New("tier2: object not found")

// Object is one L2 blob.
type Object struct {
	Key        string
	Body       []byte
	Alg        string // codec.Algorithm tag
	IV         []byte
	ContentLen int64
}

// Backend is the external collaborator L2 reads and writes through. A
// concrete backend (S3, GCS, etc.) only needs to implement these three
// operations.
type Backend interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
}

// Tier wraps a Backend with a bounded retry: a single transient read
// failure is retried once before the caller sees it, since L2 is on the
// critical path of every pointer-record hit and its failure domain (a
// bulk object store) sees more transient blips than L1.
type Tier struct {
	backend Backend
}

// New wraps backend.
func New(backend Backend) *Tier {
	return &Tier{backend: backend}
}

// Get fetches the object for key, retrying once on a non-ErrNotFound
// failure before giving up.
func (t *Tier) Get(ctx context.Context, key string) (Object, error) {
	obj, err := t.backend.Get(ctx, key)
	if err == nil || errors.Is(err, ErrNotFound) {
		return obj, err
	}

	obj, err = t.backend.Get(ctx, key)
	return obj, err
}

// Put writes or replaces obj.
func (t *Tier) Put(ctx context.Context, obj Object) error {
	return t.backend.Put(ctx, obj)
}

// Delete removes the object for key, tolerating an already-absent object.
func (t *Tier) Delete(ctx context.Context, key string) error {
	err := t.backend.Delete(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
