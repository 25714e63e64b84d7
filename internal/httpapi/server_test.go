package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ionlayer/tiercache/internal/engine"
	"github.com/ionlayer/tiercache/internal/metrics"
	"github.com/ionlayer/tiercache/internal/tier0"
	"github.com/ionlayer/tiercache/internal/tier1"
)

func newTestServer(t *testing.T) (*Server, *tier0.Cache[engine.Artifact], *tier1.Tier) {
	t.Helper()
	l0 := tier0.New[engine.Artifact](10, func() int64 { return time.Now().UnixMilli() })
	l1 := tier1.New(tier1.NewMemoryBackend(), time.Now)
	collector := metrics.NewCollector()
	srv := NewServer("127.0.0.1:0", collector, Purger{L0: l0, L1: l1}, 0, 0, 0, false, nil)
	return srv, l0, l1
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReady(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyNotReadyWithoutL1(t *testing.T) {
	collector := metrics.NewCollector()
	srv := NewServer("127.0.0.1:0", collector, Purger{}, 0, 0, 0, false, nil)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.collector.RecordL0("hit")
	req := httptest.NewRequest(http.MethodGet, "/debug/stats", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats metrics.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.L0Hits != 1 {
		t.Fatalf("expected 1 L0 hit, got %d", stats.L0Hits)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPurgeRemovesFromBothTiers(t *testing.T) {
	srv, l0, l1 := newTestServer(t)
	ctx := context.Background()

	l0.Set("abc123", engine.Artifact{Body: []byte("x")}, time.Now().Add(time.Hour).UnixMilli())
	if err := l1.Put(ctx, tier1.Record{
		Fingerprint:     "abc123",
		ExpiresAtMillis: time.Now().Add(time.Hour).UnixMilli(),
		PurgeAtMillis:   time.Now().Add(2 * time.Hour).UnixMilli(),
	}); err != nil {
		t.Fatalf("seeding L1: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/debug/purge/abc123", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	if status, _ := l0.Get("abc123"); status != tier0.Miss {
		t.Fatalf("expected L0 miss after purge, got %v", status)
	}
	status, _, err := l1.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("L1 get after purge: %v", err)
	}
	if status != tier1.Miss {
		t.Fatalf("expected L1 miss after purge, got %v", status)
	}
}

func TestPurgeMissingFingerprintIsIdempotent(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodDelete, "/debug/purge/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
