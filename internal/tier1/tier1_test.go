package tier1

import (
	"context"
	"testing"
	"time"
)

func TestTier_MissOnAbsentRecord(t *testing.T) {
	tier := New(NewMemoryBackend(), time.Now)

	status, _, err := tier.Get(context.Background(), "fp-absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status != Miss {
		t.Errorf("status = %v, want Miss", status)
	}
}

func TestTier_HitBeforeExpiry(t *testing.T) {
	now := time.Now()
	tier := New(NewMemoryBackend(), func() time.Time { return now })

	rec := Record{
		Fingerprint:     "fp1",
		Inline:          []byte("payload"),
		ExpiresAtMillis: now.Add(time.Hour).UnixMilli(),
		PurgeAtMillis:   now.Add(2 * time.Hour).UnixMilli(),
	}
	if err := tier.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	status, got, err := tier.Get(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status != Hit {
		t.Errorf("status = %v, want Hit", status)
	}
	if string(got.Inline) != "payload" {
		t.Errorf("Inline = %q, want %q", got.Inline, "payload")
	}
}

func TestTier_ExpiredRecordReportsExpired(t *testing.T) {
	now := time.Now()
	tier := New(NewMemoryBackend(), func() time.Time { return now })

	rec := Record{
		Fingerprint:     "fp1",
		Inline:          []byte("stale"),
		ExpiresAtMillis: now.Add(-time.Minute).UnixMilli(),
		PurgeAtMillis:   now.Add(time.Minute).UnixMilli(),
	}
	if err := tier.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	status, got, err := tier.Get(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status != Expired {
		t.Errorf("status = %v, want Expired", status)
	}
	if string(got.Inline) != "stale" {
		t.Errorf("Inline = %q, want stale payload returned alongside EXPIRED", got.Inline)
	}
}

func TestTier_PastPurgeHorizonReportsMissEvenIfBackendStillHoldsRecord(t *testing.T) {
	now := time.Now()
	tier := New(NewMemoryBackend(), func() time.Time { return now })

	rec := Record{
		Fingerprint:     "fp1",
		Inline:          []byte("long-gone"),
		ExpiresAtMillis: now.Add(-time.Hour).UnixMilli(),
		PurgeAtMillis:   now.Add(-time.Minute).UnixMilli(),
	}
	if err := tier.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	status, _, err := tier.Get(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if status != Miss {
		t.Errorf("status = %v, want Miss for a record past its purge horizon", status)
	}
}

func TestTier_DeleteToleratesAbsentRecord(t *testing.T) {
	tier := New(NewMemoryBackend(), time.Now)

	if err := tier.Delete(context.Background(), "fp-absent"); err != nil {
		t.Errorf("Delete of absent record: %v, want nil", err)
	}
}

func TestTier_PointerRecordReportsHasPointer(t *testing.T) {
	rec := Record{Fingerprint: "fp1", Pointer: "objects/fp1"}
	if !rec.HasPointer() {
		t.Error("HasPointer() = false, want true")
	}

	inline := Record{Fingerprint: "fp2", Inline: []byte("x")}
	if inline.HasPointer() {
		t.Error("HasPointer() = true for inline record, want false")
	}
}

func TestMemoryBackend_IncrementHitCount(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	backend.Put(ctx, Record{Fingerprint: "fp1"})
	if err := backend.IncrementHitCount(ctx, "fp1"); err != nil {
		t.Fatalf("IncrementHitCount: %v", err)
	}

	rec, err := backend.Get(ctx, "fp1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.HitCount != 1 {
		t.Errorf("HitCount = %d, want 1", rec.HitCount)
	}
}

func TestMemoryBackend_IncrementHitCountOnAbsentRecord(t *testing.T) {
	backend := NewMemoryBackend()
	if err := backend.IncrementHitCount(context.Background(), "fp-absent"); err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
