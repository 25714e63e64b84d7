// Package singleflight coordinates concurrent origin fetches for the same
// fingerprint so at most one fetch is in flight at a time, with every
// waiter receiving the shared result. It wraps golang.org/x/sync/singleflight
// and adds cancellation semantics: a caller whose context is canceled
// detaches from the wait without canceling the underlying fetch for the
// other waiters still depending on it.
package singleflight

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Group coordinates fetches keyed by fingerprint.
type Group struct {
	g singleflight.Group
}

// Result is what Do returns for a completed (or canceled) call.
type Result[V any] struct {
	Value   V
	Err     error
	Shared  bool
	Fetches int
}

// Do runs fn at most once concurrently for a given key: if a fetch for key
// is already in flight, the caller joins it and receives its result
// instead of starting a new one, reflected by Result.Shared so a caller
// can distinguish "I triggered a fetch" from "I joined one already in
// flight" for metrics purposes. If ctx is canceled before the shared
// fetch completes, Do returns ctx.Err() immediately without affecting the
// other waiters or the in-flight fetch, which continues to completion for
// their benefit.
func Do[V any](ctx context.Context, g *Group, key string, fn func(context.Context) (V, error)) Result[V] {
	done := make(chan Result[V], 1)

	go func() {
		ran := false
		v, err, shared := g.g.Do(key, func() (interface{}, error) {
			ran = true
			// The shared fetch runs detached from any single waiter's
			// context: it must keep running for the other waiters even if
			// this particular caller (who may be the one that happened to
			// start it) is canceled.
			return fn(context.Background())
		})
		var zero V
		value, _ := v.(V)
		if v == nil {
			value = zero
		}
		done <- Result[V]{Value: value, Err: err, Shared: shared && !ran}
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		var zero V
		return Result[V]{Value: zero, Err: ctx.Err()}
	}
}

// Forget removes key from the group's bookkeeping so the next Do call for
// the same key starts a fresh fetch instead of (incorrectly) joining a
// completed one's stale result, which singleflight.Group would otherwise
// never do on its own — Forget exists for callers that want to explicitly
// invalidate an in-flight coordination slot (e.g. after a manual purge).
func (g *Group) Forget(key string) {
	g.g.Forget(key)
}
