package fingerprint

import (
	"math"
	"strings"
	"testing"
)

func baseDescriptor() Descriptor {
	return Descriptor{
		ApplicationID: "app-a",
		Method:        "GET",
		Host:          "api.example.com",
		Path:          "/v1/widgets",
		Query: []QueryParam{
			{Key: "b", Value: "2"},
			{Key: "a", Value: "1"},
		},
		Body: []byte(`{"z":1,"a":2}`),
	}
}

func TestCompute_Stability(t *testing.T) {
	d1 := baseDescriptor()

	// d2 differs only in key ordering of the body and query params — spec
	// property 5: fingerprint(d) == fingerprint(d') for a permutation that
	// reorders object keys.
	d2 := baseDescriptor()
	d2.Body = []byte(`{"a":2,"z":1}`)
	d2.Query = []QueryParam{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
	}

	fp1, err := Compute(d1, SHA256)
	if err != nil {
		t.Fatalf("Compute(d1): %v", err)
	}
	fp2, err := Compute(d2, SHA256)
	if err != nil {
		t.Fatalf("Compute(d2): %v", err)
	}
	if fp1 != fp2 {
		t.Errorf("key-order permutation changed fingerprint: %s != %s", fp1, fp2)
	}
}

func TestCompute_DomainSeparation(t *testing.T) {
	d := baseDescriptor()

	d.ApplicationID = "app-a"
	fpA, err := Compute(d, SHA256)
	if err != nil {
		t.Fatalf("Compute(appA): %v", err)
	}

	d.ApplicationID = "app-b"
	fpB, err := Compute(d, SHA256)
	if err != nil {
		t.Fatalf("Compute(appB): %v", err)
	}

	if fpA == fpB {
		t.Error("different application IDs produced the same fingerprint")
	}
}

func TestCompute_AuthPresenceSeparatesVariants(t *testing.T) {
	withAuth := baseDescriptor()
	withAuth.AuthShape = AuthShape{Present: true, Scheme: "bearer", Fields: []string{"Authorization"}}

	withoutAuth := baseDescriptor()

	fp1, err := Compute(withAuth, SHA256)
	if err != nil {
		t.Fatalf("Compute(withAuth): %v", err)
	}
	fp2, err := Compute(withoutAuth, SHA256)
	if err != nil {
		t.Fatalf("Compute(withoutAuth): %v", err)
	}
	if fp1 == fp2 {
		t.Error("authenticated and unauthenticated variants collided")
	}
}

func TestCompute_FixedWidth(t *testing.T) {
	fp, err := Compute(baseDescriptor(), SHA256)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// SHA-256 -> 32 bytes -> 64 hex chars, satisfying the >=256-bit floor.
	if len(fp) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(fp))
	}

	fp3, err := Compute(baseDescriptor(), SHA3_256)
	if err != nil {
		t.Fatalf("Compute(sha3-256): %v", err)
	}
	if len(fp3) != 64 {
		t.Errorf("sha3-256 fingerprint length = %d, want 64", len(fp3))
	}
}

func TestCanonicalize_NaNRejected(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for NaN value")
		}
		if _, ok := r.(*InvalidValueError); !ok {
			t.Fatalf("expected *InvalidValueError, got %T", r)
		}
	}()

	var b strings.Builder
	canonicalize(&b, math.NaN())
}

func TestCanonicalize_InfRejected(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for +Inf value")
		}
	}()

	var b strings.Builder
	canonicalize(&b, math.Inf(1))
}

func TestCompute_DuplicateKeyPolicies(t *testing.T) {
	params := []QueryParam{
		{Key: "tag", Value: "x"},
		{Key: "tag", Value: "y"},
	}

	dJoin := baseDescriptor()
	dJoin.Query = params
	dJoin.DuplicateKeyPolicy = DuplicateKeyJoin

	dIndexed := baseDescriptor()
	dIndexed.Query = params
	dIndexed.DuplicateKeyPolicy = DuplicateKeyIndexed

	dSuffix := baseDescriptor()
	dSuffix.Query = params
	dSuffix.DuplicateKeyPolicy = DuplicateKeySuffix

	fpJoin, err := Compute(dJoin, SHA256)
	if err != nil {
		t.Fatalf("Compute(join): %v", err)
	}
	fpIndexed, err := Compute(dIndexed, SHA256)
	if err != nil {
		t.Fatalf("Compute(indexed): %v", err)
	}
	fpSuffix, err := Compute(dSuffix, SHA256)
	if err != nil {
		t.Fatalf("Compute(suffix): %v", err)
	}
	if fpJoin == fpIndexed {
		t.Error("different duplicate-key policies produced the same fingerprint")
	}
	if fpSuffix == fpJoin {
		t.Error("DuplicateKeySuffix produced the same fingerprint as DuplicateKeyJoin")
	}
	if fpSuffix == fpIndexed {
		t.Error("DuplicateKeySuffix produced the same fingerprint as DuplicateKeyIndexed")
	}
}

func TestCompute_UnsupportedAlgorithm(t *testing.T) {
	_, err := Compute(baseDescriptor(), HashAlgorithm("md5"))
	if err == nil {
		t.Fatal("expected error for unsupported hash algorithm")
	}
}
