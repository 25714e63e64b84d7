package codec

import (
	"fmt"
	"sync"
	"time"
)

// SecretStore is the external collaborator backing a KeyCache:
// get(name) -> bytes | cached bytes.
type SecretStore interface {
	Get(name string) (string, error)
}

// cachedKey is one entry in the in-process key cache.
type cachedKey struct {
	value     []byte
	fetchedAt time.Time
}

// KeyCache resolves cipher keys from a SecretStore and caches them
// in-process with a bounded refresh horizon. A stale read past the horizon
// triggers a re-fetch; if the re-fetch fails, the previous value is still
// served, with the fetch error returned alongside it so the caller can log
// the failure rather than have it silently swallowed.
type KeyCache struct {
	mu      sync.Mutex
	store   SecretStore
	horizon time.Duration
	entries map[string]cachedKey
}

// NewKeyCache creates a KeyCache backed by store, refreshing entries older
// than horizon on next access.
func NewKeyCache(store SecretStore, horizon time.Duration) *KeyCache {
	return &KeyCache{
		store:   store,
		horizon: horizon,
		entries: make(map[string]cachedKey),
	}
}

// Resolve returns the raw key bytes for name, fetching from the store on
// first use or once the cached value exceeds the refresh horizon.
func (k *KeyCache) Resolve(name string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	if entry, ok := k.entries[name]; ok && now.Sub(entry.fetchedAt) < k.horizon {
		return entry.value, nil
	}

	secret, err := k.store.Get(name)
	if err != nil {
		if entry, ok := k.entries[name]; ok {
			// Serve the stale value rather than fail the whole request;
			// the caller is expected to log the refresh failure.
			return entry.value, fmt.Errorf("codec: key refresh for %q failed, serving cached value: %w", name, err)
		}
		return nil, fmt.Errorf("%w: resolving %q: %v", ErrBadKey, name, err)
	}

	value := []byte(secret)
	k.entries[name] = cachedKey{value: value, fetchedAt: now}
	return value, nil
}
