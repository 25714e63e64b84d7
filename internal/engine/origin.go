package engine

import (
	"context"
	"time"

	"github.com/ionlayer/tiercache/internal/fingerprint"
)

// OriginResult is what an origin fetcher returns on success.
type OriginResult struct {
	Body       []byte
	Headers    map[string]string
	StatusCode string

	// OriginProvidedExpiresAt is the zero time when the origin furnished
	// no expiry of its own.
	OriginProvidedExpiresAt time.Time
}

// OriginBadResponse reports a cacheable-but-negative upstream response
// (e.g. a well-formed 404), as opposed to an unreachable/erroring origin.
// An OriginFetcher signals this by returning it as the error alongside a
// populated OriginResult; the pipeline caches the result under
// StatusCachedNegative with the profile's error-extension horizon instead
// of treating it as a transport failure.
type OriginBadResponse struct {
	Result OriginResult
}

func (e *OriginBadResponse) Error() string {
	return "engine: origin returned a cacheable negative response"
}

// Fetcher is the injected origin collaborator. Any non-success return is
// treated as a fetch failure for stale-fallback purposes, except when the
// error is an *OriginBadResponse.
type Fetcher func(ctx context.Context, d fingerprint.Descriptor) (OriginResult, error)
