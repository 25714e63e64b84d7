package fingerprint

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// undefinedSentinel is substituted for any JS-style "undefined"/absent
// value the canonicalizer is asked to encode explicitly: an absent field
// is never silently dropped, it always leaves a trace in the output.
const undefinedSentinel = "\x00undefined\x00"

// InvalidValueError reports a non-canonicalizable input value (NaN,
// +/-Inf floats).
type InvalidValueError struct {
	Value interface{}
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("fingerprint: cannot canonicalize non-finite float value %v", e.Value)
}

// canonicalize walks an arbitrary Go value (as produced by json.Unmarshal
// with UseNumber, or assembled directly by callers) and produces a
// deterministic string encoding: sorted object keys, undefined elided to a
// sentinel, big integers as decimal strings, nested structures recursed
// into. NaN/+-Inf floats panic with *InvalidValueError — the caller is
// expected to validate inputs before they reach the fingerprinter.
func canonicalize(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		b.WriteString(undefinedSentinel)

	case json.Number:
		b.WriteString(val.String())

	case string:
		b.WriteByte('"')
		b.WriteString(val)
		b.WriteByte('"')

	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			panic(&InvalidValueError{Value: val})
		}
		b.WriteString(fmt.Sprintf("%g", val))

	case int:
		b.WriteString(fmt.Sprintf("%d", val))
	case int64:
		b.WriteString(fmt.Sprintf("%d", val))

	case []byte:
		b.WriteByte('"')
		b.WriteString(string(val))
		b.WriteByte('"')

	case []interface{}:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalize(b, item)
		}
		b.WriteByte(']')

	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(k)
			b.WriteString(`":`)
			canonicalize(b, val[k])
		}
		b.WriteByte('}')

	default:
		// Unknown concrete type: fall back to its default string form.
		// Still deterministic for a given Go value, just not specially
		// structured (e.g. custom structs the caller should have already
		// flattened to maps before calling Compute).
		b.WriteString(fmt.Sprintf("%v", val))
	}
}

// canonicalJSON parses body as JSON (preserving integer precision via
// json.Number) and returns its canonical string form. If body does not
// parse as JSON, it is treated as an opaque string and canonicalized as
// such — canonicalization only reorders structured JSON; arbitrary binary
// bodies hash byte-for-byte.
func canonicalJSON(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		var b strings.Builder
		canonicalize(&b, string(body))
		return b.String()
	}

	var b strings.Builder
	canonicalize(&b, v)
	return b.String()
}

// canonicalQuery renders the query params per the descriptor's duplicate-key
// policy, after sorting distinct keys lexically. Values belonging to the
// same key retain their original relative order.
func canonicalQuery(params []QueryParam, policy DuplicateKeyPolicy) string {
	if len(params) == 0 {
		return ""
	}

	byKey := make(map[string][]string)
	var keys []string
	for _, p := range params {
		if _, ok := byKey[p.Key]; !ok {
			keys = append(keys, p.Key)
		}
		byKey[p.Key] = append(byKey[p.Key], p.Value)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		values := byKey[k]
		switch {
		case len(values) == 1:
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(values[0])

		case policy == DuplicateKeyIndexed:
			for j, v := range values {
				if j > 0 {
					b.WriteByte('&')
				}
				fmt.Fprintf(&b, "%s.%d=%s", k, j, v)
			}

		case policy == DuplicateKeySuffix:
			for j, v := range values {
				if j > 0 {
					b.WriteByte('&')
				}
				fmt.Fprintf(&b, "%s=%s", k, v)
			}

		default: // DuplicateKeyJoin
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strings.Join(values, ","))
		}
	}
	return b.String()
}
