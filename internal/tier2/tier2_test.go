package tier2

import (
	"context"
	"errors"
	"testing"
)

func TestTier_MissOnAbsentObject(t *testing.T) {
	tier := New(NewMemoryBackend())

	_, err := tier.Get(context.Background(), "key-absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestTier_HitReturnsStoredObject(t *testing.T) {
	backend := NewMemoryBackend()
	tier := New(backend)
	ctx := context.Background()

	want := Object{Key: "k1", Body: []byte("blob body"), Alg: "aes-256-gcm"}
	if err := tier.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := tier.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Body) != string(want.Body) {
		t.Errorf("Body = %q, want %q", got.Body, want.Body)
	}
}

func TestTier_RetriesOnceOnTransientFailure(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	backend.Put(ctx, Object{Key: "k1", Body: []byte("blob")})
	backend.FailNextGet = 1

	tier := New(backend)
	got, err := tier.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get after single transient failure: %v", err)
	}
	if string(got.Body) != "blob" {
		t.Errorf("Body = %q, want %q", got.Body, "blob")
	}
}

func TestTier_GivesUpAfterSecondFailure(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	backend.Put(ctx, Object{Key: "k1", Body: []byte("blob")})
	backend.FailNextGet = 2

	tier := New(backend)
	_, err := tier.Get(ctx, "k1")
	if err == nil {
		t.Fatal("expected error after two consecutive failures")
	}
}

func TestTier_DeleteToleratesAbsentObject(t *testing.T) {
	tier := New(NewMemoryBackend())
	if err := tier.Delete(context.Background(), "key-absent"); err != nil {
		t.Errorf("Delete of absent object: %v, want nil", err)
	}
}
