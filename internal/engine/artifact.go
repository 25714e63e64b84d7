// Package engine implements the read pipeline: the orchestrator that
// threads a request through L0, L1, L2, and the origin, applying
// stale-on-error fallback and writing fresh results back through every
// tier below the one that served them.
package engine

// StatusNoCache is the sentinel statusCode meaning "no cache yet produced"
// for this fingerprint. It MUST never be served as a hit.
const StatusNoCache = ""

// StatusCachedNegative marks an artifact cached from an OriginBadResponse:
// a cacheable-but-negative upstream response, held for a shorter horizon
// to prevent dog-piling on a known-bad origin result. Distinct from
// StatusNoCache so logs and metrics can tell "nothing was ever cached
// here" apart from "we deliberately cached a negative result".
const StatusCachedNegative = "cached_negative"

// Source tags where an artifact was served from.
type Source string

const (
	SourceL0           Source = "L0"
	SourceL1           Source = "L1"
	SourceL2           Source = "L2"
	SourceOrigin       Source = "ORIGIN"
	SourceStaleOnError Source = "STALE_ON_ERROR"
	SourceError        Source = "ERROR"
)

// Artifact is the unit stored at every tier and returned by the pipeline.
// Values are treated as immutable after creation: the pipeline never hands
// out a reference a caller could use to mutate internal cache state, only
// defensive copies.
type Artifact struct {
	Body            []byte
	Headers         map[string]string
	StatusCode      string
	ExpiresAtMillis int64
	PurgeAtMillis   int64

	Source Source
}

// Clone returns a deep, independent copy of a, safe for a caller to mutate
// without affecting anything held inside a tier.
func (a Artifact) Clone() Artifact {
	out := a
	if a.Body != nil {
		out.Body = append([]byte(nil), a.Body...)
	}
	if a.Headers != nil {
		out.Headers = make(map[string]string, len(a.Headers))
		for k, v := range a.Headers {
			out.Headers[k] = v
		}
	}
	return out
}

// IsNoCache reports whether a is the "no cache yet produced" sentinel.
func (a Artifact) IsNoCache() bool {
	return a.StatusCode == StatusNoCache
}
