package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ionlayer/tiercache/internal/engine"
	"github.com/ionlayer/tiercache/internal/fingerprint"
)

// Front is the demo HTTP front door: it turns an incoming request into a
// fingerprint.Descriptor and runs it through engine.Engine.Get, serving
// the resulting Artifact back to the caller. It exists to give the
// shipped binary something to exercise the read pipeline against besides
// its own unit tests (§1.3); a production deployment fronting a real
// origin would replace this with its own routing/envelope layer.
//
// ProfileFunc, not a static Profile, is read on every request so a config
// hot-reload (internal/config.Watch) can swap the active policy without a
// container restart (§3).
type Front struct {
	Engine      *engine.Engine
	ProfileFunc func() engine.Profile
}

// handleCache serves requests of any method under /cache/* by resolving
// them through the configured Front. A missing Front or a Front with no
// Engine reports 503 rather than panicking, matching handleReady's posture toward
// half-constructed servers.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if s.front == nil || s.front.Engine == nil {
		http.Error(w, "cache front door not configured", http.StatusServiceUnavailable)
		return
	}

	path := "/" + chi.URLParam(r, "*")

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	profile := s.front.ProfileFunc()

	d := fingerprint.Descriptor{
		ApplicationID: profile.HostID,
		Method:        r.Method,
		Host:          r.Host,
		Path:          path,
		Query:         queryParams(r),
		Body:          body,
	}

	art, err := s.front.Engine.Get(r.Context(), d, profile)
	if err != nil {
		http.Error(w, "cache engine: "+err.Error(), http.StatusBadGateway)
		return
	}

	for k, v := range art.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("X-Cache-Source", string(art.Source))

	code, convErr := strconv.Atoi(art.StatusCode)
	if convErr != nil || code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	_, _ = w.Write(art.Body)
}

// queryParams flattens r.URL.Query() into fingerprint.QueryParam pairs,
// preserving each key's original value order.
func queryParams(r *http.Request) []fingerprint.QueryParam {
	raw := r.URL.Query()
	if len(raw) == 0 {
		return nil
	}
	params := make([]fingerprint.QueryParam, 0, len(raw))
	for k, values := range raw {
		for _, v := range values {
			params = append(params, fingerprint.QueryParam{Key: k, Value: v})
		}
	}
	return params
}
