package tier2

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process Backend used by tests in place of a real
// L2 backend.
type MemoryBackend struct {
	mu      sync.Mutex
	objects map[string]Object

	// FailNextGet, when positive, causes the next N Get calls to fail with
	// a transient (non-ErrNotFound) error before succeeding — used to
	// exercise the Tier's single-retry behavior.
	FailNextGet int
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]Object)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNextGet > 0 {
		m.FailNextGet--
		return Object{}, errTransient
	}

	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

func (m *MemoryBackend) Put(_ context.Context, obj Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[obj.Key] = obj
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

type transientError struct{}

func (transientError) Error() string { return "tier2: transient backend failure" }

var errTransient = transientError{}
