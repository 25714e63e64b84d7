package tier1

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process Backend used by tests in place of a real
// L1 backend.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

func (m *MemoryBackend) Get(_ context.Context, fingerprint string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[fingerprint]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryBackend) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.Fingerprint] = rec
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[fingerprint]; !ok {
		return ErrNotFound
	}
	delete(m.records, fingerprint)
	return nil
}

func (m *MemoryBackend) IncrementHitCount(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[fingerprint]
	if !ok {
		return ErrNotFound
	}
	rec.HitCount++
	m.records[fingerprint] = rec
	return nil
}

// Len reports the number of records currently stored, for test assertions.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
