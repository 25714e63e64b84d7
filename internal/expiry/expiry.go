// Package expiry computes an artifact's absolute expiry and purge instants
// from a per-profile policy, the wall clock, and (optionally) an
// origin-supplied expiry hint, including interval-aligned expiry buckets
// in a named civil time zone.
package expiry

import (
	"fmt"
	"time"
)

// Policy computes expiry and purge times for one cache profile.
type Policy struct {
	// DefaultExpirySeconds is the base TTL applied when the origin
	// furnishes no expiry of its own, when OverrideOriginExpiry is true,
	// or as the alignment granularity when AlignToInterval is set.
	DefaultExpirySeconds int

	// OverrideOriginExpiry, when true, ignores any expiry the origin
	// supplied and always bases the computation on DefaultExpirySeconds.
	OverrideOriginExpiry bool

	// AlignToInterval, when true, aligns the computed expiry down to the
	// nearest multiple of DefaultExpirySeconds within the civil-time day
	// of Location — a 6-hour interval produces expiry at 00:00, 06:00,
	// 12:00, 18:00 local time; a 24-hour interval expires at local
	// midnight. This is a narrowing operation: the aligned expiry never
	// exceeds the unaligned base.
	AlignToInterval bool

	// Location is the IANA time zone interval alignment is computed in.
	// A nil Location defaults to UTC.
	Location *time.Location

	// PurgeExtensionSeconds is added to ExpiresAt to derive PurgeAt, bounded
	// above by PurgeExpiredAfterHours*3600 when that is positive.
	PurgeExtensionSeconds int
	PurgeExpiredAfterHours int
}

// Result is the pair of absolute instants the pipeline attaches to a
// freshly written artifact.
type Result struct {
	ExpiresAt time.Time
	PurgeAt   time.Time
}

// Compute returns ExpiresAt/PurgeAt for an artifact fetched at now, given
// originExpiry (the zero time if the origin supplied none).
func (p Policy) Compute(now time.Time, originExpiry time.Time) Result {
	base := originExpiry
	if p.OverrideOriginExpiry || originExpiry.IsZero() {
		base = now.Add(time.Duration(p.DefaultExpirySeconds) * time.Second)
	}

	expiresAt := base
	if p.AlignToInterval && p.DefaultExpirySeconds > 0 {
		expiresAt = p.alignToIntervalBucket(base)
	}

	purgeExt := time.Duration(p.PurgeExtensionSeconds) * time.Second
	if p.PurgeExpiredAfterHours > 0 {
		max := time.Duration(p.PurgeExpiredAfterHours) * time.Hour
		if purgeExt > max {
			purgeExt = max
		}
	}

	return Result{
		ExpiresAt: expiresAt,
		PurgeAt:   expiresAt.Add(purgeExt),
	}
}

// alignToIntervalBucket floors t down to the nearest multiple of
// DefaultExpirySeconds measured from local midnight of the civil day t
// falls in, in the configured Location.
func (p Policy) alignToIntervalBucket(t time.Time) time.Time {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	elapsed := local.Sub(midnight)
	interval := time.Duration(p.DefaultExpirySeconds) * time.Second
	buckets := elapsed / interval
	return midnight.Add(buckets * interval)
}

// ExtendForStale computes the forward-extended expiry applied to a stale
// artifact served as a fallback after an origin failure: now plus extend,
// never interval-aligned, since the goal is a short breathing room before
// the next retry, not a wall-clock-aligned schedule.
func ExtendForStale(now time.Time, extendSeconds int) time.Time {
	return now.Add(time.Duration(extendSeconds) * time.Second)
}

// ParseLocation loads an IANA time zone name, defaulting to UTC for an
// empty name.
func ParseLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("expiry: loading time zone %q: %w", name, err)
	}
	return loc, nil
}
