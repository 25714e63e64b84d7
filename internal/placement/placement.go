// Package placement decides whether an artifact's encrypted payload is
// stored inline in an L1 record or offloaded to an L2 object with a
// pointer left in L1.
package placement

// Decision is the outcome of evaluating a payload against a threshold.
type Decision int

const (
	// Inline means the payload is small enough to store directly in the
	// L1 record.
	Inline Decision = iota
	// Pointer means the payload is stored as an L2 object, with only a
	// pointer (object key) left in the L1 record.
	Pointer
)

func (d Decision) String() string {
	if d == Pointer {
		return "POINTER"
	}
	return "INLINE"
}

// Policy decides placement from a single configured size threshold: any
// payload at or under ThresholdBytes is Inline, anything larger is
// Pointer. A zero ThresholdBytes disables inlining entirely (every
// payload, including empty ones, is placed behind a pointer) since a
// caller that sets it to zero has opted out of inlining rather than
// accidentally configured it.
type Policy struct {
	ThresholdBytes int
}

// Decide returns the placement decision for a payload of the given size
// in bytes.
func (p Policy) Decide(payloadSize int) Decision {
	if p.ThresholdBytes > 0 && payloadSize <= p.ThresholdBytes {
		return Inline
	}
	return Pointer
}
