// Package fingerprint computes a stable, content-addressed cache key for a
// (host, path, method, query, body, auth-shape) tuple.
package fingerprint

// Descriptor is the input to Compute: method, host, path, canonical query,
// body, and the *shape* (not value) of auth material, partitioned by
// ApplicationID so two tenants never collide.
type Descriptor struct {
	ApplicationID string
	Method        string
	Host          string
	Path          string
	Query         []QueryParam
	Body          []byte
	AuthShape     AuthShape

	// DuplicateKeyPolicy controls how repeated query keys are folded into
	// the canonical form.
	DuplicateKeyPolicy DuplicateKeyPolicy
}

// QueryParam is a single key/value pair from the request's query string,
// prior to canonicalization (sorting/dedup happens in Compute).
type QueryParam struct {
	Key   string
	Value string
}

// AuthShape captures the *presence and structure* of authentication
// material without ever including secret values in the fingerprint.
type AuthShape struct {
	// Present reports whether an auth slot exists at all, so authenticated
	// and unauthenticated variants of the same URL never collide.
	Present bool
	// Scheme is a label such as "bearer", "basic", "hmac" — structural
	// only, never the credential value itself.
	Scheme string
	// Fields lists the names (not values) of credential-bearing fields,
	// e.g. ["Authorization"] or ["key_id", "signature"].
	Fields []string
}

// DuplicateKeyPolicy enumerates how repeated query-string keys fold into
// the canonical descriptor used for hashing.
type DuplicateKeyPolicy int

const (
	// DuplicateKeyJoin joins repeated values with a separator under one
	// canonical key: key=a,b,c.
	DuplicateKeyJoin DuplicateKeyPolicy = iota
	// DuplicateKeySuffix repeats the key once per value instead of joining
	// or indexing them: key=a&key=b&key=c, preserving original order.
	DuplicateKeySuffix
	// DuplicateKeyIndexed assigns each repeated value an ordinal suffix:
	// key.0=a, key.1=b, key.2=c, preserving original order.
	DuplicateKeyIndexed
)
