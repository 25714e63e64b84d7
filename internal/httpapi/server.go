// Package httpapi is the debug/inspect HTTP surface: health checks,
// Prometheus metrics, point-in-time tier stats, and a manual purge
// operation, plus, when a Front is supplied, a /cache/* demo front door
// (front.go) that serves cached content through the engine.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ionlayer/tiercache/internal/engine"
	"github.com/ionlayer/tiercache/internal/metrics"
	"github.com/ionlayer/tiercache/internal/tier0"
	"github.com/ionlayer/tiercache/internal/tier1"
	"github.com/ionlayer/tiercache/internal/tracing"
)

// Purger exposes the tier handles the debug surface needs to remove a
// fingerprint from every tier it might live in. engine.Engine does not
// itself expose a delete operation (the spec's engine contract has no
// explicit-clear operation beyond LRU eviction/TTL/lifecycle), so the
// server is wired directly against the tiers it was constructed with.
type Purger struct {
	L0 l0Deleter
	L1 *tier1.Tier
}

// l0Deleter narrows tier0.Cache[engine.Artifact] to the one method the
// purge handler needs, so tests can substitute a fake L0.
type l0Deleter interface {
	Delete(key string)
}

var _ l0Deleter = (*tier0.Cache[engine.Artifact])(nil)

// Server is the debug/inspect HTTP server. It binds a chi router to the
// configured address, mirroring the teacher proxy's NewServer shape.
type Server struct {
	router    chi.Router
	httpSrv   *http.Server
	collector *metrics.Collector
	purger    Purger
	front     *Front
}

// NewServer creates a Server exposing /health, /health/ready,
// /metrics (if collector is non-nil), /debug/stats, /debug/purge/{fingerprint},
// and, when front is non-nil, a /cache/* demo front door that runs
// requests through front.Engine.
func NewServer(addr string, collector *metrics.Collector, purger Purger, readTimeout, writeTimeout, idleTimeout time.Duration, tracingEnabled bool, front *Front) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if tracingEnabled {
		r.Use(tracing.HTTPMiddleware)
	}

	s := &Server{router: r, collector: collector, purger: purger, front: front}

	r.Get("/health", s.handleHealth)
	r.Get("/health/ready", s.handleReady)
	if collector != nil {
		r.Get("/metrics", metrics.PrometheusHandler(collector))
		r.Get("/debug/stats", s.handleStats)
	}
	r.Delete("/debug/purge/{fingerprint}", s.handlePurge)
	if front != nil {
		r.HandleFunc("/cache/*", s.handleCache)
	}

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s
}

// Router returns the underlying chi.Router for tests or additional
// route mounting by the caller.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start begins listening for HTTP connections on the configured address.
// It blocks until the server is shut down or encounters a fatal error.
func (s *Server) Start() error {
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleReady reports ready only once the engine's collaborators are wired
// in (a nil L1 means the caller never finished constructing the server).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.purger.L1 == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not_ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.collector.Stats()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, fmt.Sprintf("encoding stats: %v", err), http.StatusInternalServerError)
	}
}

// handlePurge removes a fingerprint from L0 (if configured) and L1. It does
// not attempt to remove the corresponding L2 object: L2 is lifecycle-swept
// by the backend and a dangling object is harmless once its L1 pointer is
// gone (§4.5).
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	if fp == "" {
		http.Error(w, "missing fingerprint", http.StatusBadRequest)
		return
	}

	if s.purger.L0 != nil {
		s.purger.L0.Delete(fp)
	}
	if s.purger.L1 != nil {
		if err := s.purger.L1.Delete(r.Context(), fp); err != nil {
			http.Error(w, fmt.Sprintf("purging L1 record: %v", err), http.StatusBadGateway)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
