package engine

import "time"

// Profile is the per-origin policy driving expiry, encryption, and header
// retention for every fingerprint it governs.
type Profile struct {
	DefaultExpirySeconds  int
	ExpiryOnInterval      bool
	IntervalTimeZone      *time.Location
	RetainHeaders         []string
	Encrypt               bool
	OverrideOriginExpiry  bool
	HostID                string
	PathID                string
	ErrorExtensionSeconds int
}

// filterHeaders returns only the headers named in p.RetainHeaders, case
// sensitively, dropping everything else before an artifact is written to
// any tier.
func (p Profile) filterHeaders(in map[string]string) map[string]string {
	if len(p.RetainHeaders) == 0 || len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(p.RetainHeaders))
	for _, name := range p.RetainHeaders {
		if v, ok := in[name]; ok {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
