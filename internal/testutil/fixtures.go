package testutil

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ionlayer/tiercache/internal/engine"
	"github.com/ionlayer/tiercache/internal/fingerprint"
)

// Descriptor returns a descriptor for the given path, scoped to a fixed
// test application ID so fixtures across tests never collide.
func Descriptor(path string) fingerprint.Descriptor {
	return fingerprint.Descriptor{
		ApplicationID: "testapp",
		Method:        "GET",
		Host:          "api.example.com",
		Path:          path,
	}
}

// Artifact returns a small, freshly-created Artifact with the given body,
// suitable as a fixture for placement, codec, and tier tests.
func Artifact(body []byte) engine.Artifact {
	return engine.Artifact{
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/octet-stream"},
		StatusCode: "200",
	}
}

// FakeOrigin returns an engine.Fetcher that always succeeds with body,
// counting the number of times it was invoked so tests can assert on
// single-flight coalescing and write-through behavior.
func FakeOrigin(body []byte) (engine.Fetcher, *int64) {
	var calls int64
	fetch := func(ctx context.Context, d fingerprint.Descriptor) (engine.OriginResult, error) {
		atomic.AddInt64(&calls, 1)
		return engine.OriginResult{
			Body:       body,
			Headers:    map[string]string{"Content-Type": "application/octet-stream"},
			StatusCode: "200",
		}, nil
	}
	return fetch, &calls
}

// FailingOrigin returns an engine.Fetcher that always fails, for exercising
// stale-fallback and error-path tests.
func FailingOrigin() engine.Fetcher {
	return func(ctx context.Context, d fingerprint.Descriptor) (engine.OriginResult, error) {
		return engine.OriginResult{}, fmt.Errorf("testutil: origin unreachable")
	}
}
