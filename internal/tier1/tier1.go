// Package tier1 defines the L1 tier: a low-latency key-value record store
// holding either the cache payload inline or a pointer to an L2 object.
package tier1

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Backend.Get when the fingerprint has no
// record, distinct from a transport-level error.
var ErrNotFound = errors.New("tier1: record not found")

// Record is one L1 row, keyed by fingerprint.
type Record struct {
	Fingerprint string

	// Inline holds the (possibly encrypted) payload directly when the
	// placement policy decided the artifact is small enough to live in L1.
	// Pointer holds an L2 object key instead when it is not.
	Inline  []byte
	Pointer string

	Alg string // codec.Algorithm tag, stored alongside the payload.
	IV  []byte

	// Headers and StatusCode are plain metadata columns, never encrypted:
	// only Body/Inline (and any L2-pointed payload) carries ciphertext.
	Headers    map[string]string
	StatusCode string

	ExpiresAtMillis int64
	PurgeAtMillis   int64
	CreatedAtMillis int64
	HitCount        int64
}

// HasPointer reports whether the record's payload lives in L2.
func (r Record) HasPointer() bool {
	return r.Pointer != ""
}

// Backend is the external collaborator L1 reads and writes through. A
// concrete backend (DynamoDB, Redis, etc.) only needs to implement these
// four operations; everything else (placement, expiry, encryption) is
// decided above this interface.
type Backend interface {
	Get(ctx context.Context, fingerprint string) (Record, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context, fingerprint string) error
	IncrementHitCount(ctx context.Context, fingerprint string) error
}

// Tier wraps a Backend with the tri-state semantics the read pipeline
// expects: a record whose ExpiresAtMillis has passed is EXPIRED, not a
// transport error, and the backend is never asked to interpret time.
type Tier struct {
	backend Backend
	now     func() time.Time
}

// New wraps backend. now is injectable for tests; production callers pass
// time.Now.
func New(backend Backend, now func() time.Time) *Tier {
	return &Tier{backend: backend, now: now}
}

// Status mirrors tier0's tri-state result so the read pipeline can treat
// every tier uniformly.
type Status int

const (
	Miss Status = iota
	Hit
	Expired
)

// Get fetches the record for fingerprint. A backend ErrNotFound maps to
// (Miss, zero Record, nil) — not an error — since "no record" is an
// expected outcome, not a fault.
func (t *Tier) Get(ctx context.Context, fingerprint string) (Status, Record, error) {
	rec, err := t.backend.Get(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return Miss, Record{}, nil
	}
	if err != nil {
		return Miss, Record{}, err
	}

	now := t.now().UnixMilli()
	if rec.PurgeAtMillis <= now {
		return Miss, Record{}, nil
	}
	if rec.ExpiresAtMillis <= now {
		return Expired, rec, nil
	}
	return Hit, rec, nil
}

// Put writes or replaces rec.
func (t *Tier) Put(ctx context.Context, rec Record) error {
	return t.backend.Put(ctx, rec)
}

// Delete removes the record for fingerprint, tolerating an already-absent
// record.
func (t *Tier) Delete(ctx context.Context, fingerprint string) error {
	err := t.backend.Delete(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// IncrementHitCount bumps the hit counter for fingerprint. Failures here
// are never fatal to a read: callers should log and continue.
func (t *Tier) IncrementHitCount(ctx context.Context, fingerprint string) error {
	return t.backend.IncrementHitCount(ctx, fingerprint)
}
