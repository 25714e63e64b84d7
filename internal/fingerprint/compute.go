package fingerprint

import (
	"crypto/sha256"
	"crypto/sha3"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"
)

// HashAlgorithm selects the hash family used to derive a fingerprint. Every
// supported member is a cryptographic hash of at least 256 bits.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	SHA3_256 HashAlgorithm = "sha3-256"
	SHA3_512 HashAlgorithm = "sha3-512"
)

func newHasher(algo HashAlgorithm) (hash.Hash, error) {
	switch algo {
	case SHA256, "":
		return sha256.New(), nil
	case SHA3_256:
		return sha3.New256(), nil
	case SHA3_512:
		return sha3.New512(), nil
	default:
		return nil, fmt.Errorf("fingerprint: unsupported hash algorithm %q", algo)
	}
}

// Compute derives the hex fingerprint for d using the given algorithm. It
// is pure and deterministic: identical canonicalized inputs always yield
// identical fingerprints, and the application identifier partitions the
// fingerprint domain so two tenants sharing L1/L2 cannot collide.
//
// Compute recovers from the canonicalizer's *InvalidValueError panic (NaN /
// +-Inf floats in the body) and surfaces it as a normal error, since callers
// of a library function should never see an unrecovered panic for bad input.
func Compute(d Descriptor, algo HashAlgorithm) (fp string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ive, ok := r.(*InvalidValueError); ok {
				err = ive
				return
			}
			panic(r)
		}
	}()

	h, herr := newHasher(algo)
	if herr != nil {
		return "", herr
	}

	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	write(d.ApplicationID)
	write(strings.ToUpper(d.Method))
	write(strings.ToLower(d.Host))
	write(d.Path)
	write(canonicalQuery(d.Query, d.DuplicateKeyPolicy))
	write(canonicalJSON(d.Body))

	// Auth shape: presence + scheme + sorted field names, never values.
	if d.AuthShape.Present {
		write("auth=1")
		write(d.AuthShape.Scheme)
		fields := append([]string(nil), d.AuthShape.Fields...)
		sort.Strings(fields)
		write(strings.Join(fields, ","))
	} else {
		write("auth=0")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
