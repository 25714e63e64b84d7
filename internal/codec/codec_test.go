package codec

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generating key: %v", err)
	}
	return key
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := New(AlgorithmAES256GCM)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := randomKey(t)
	plaintext := []byte("hello cache world")

	env, err := c.Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if env.Alg != AlgorithmAES256GCM {
		t.Errorf("Alg = %q, want %q", env.Alg, AlgorithmAES256GCM)
	}
	if len(env.IV) == 0 {
		t.Error("expected non-empty IV")
	}

	got, err := c.Decrypt(env, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt = %q, want %q", got, plaintext)
	}
}

func TestCodec_FreshIVPerCall(t *testing.T) {
	c, _ := New(AlgorithmAES256GCM)
	key := randomKey(t)

	env1, _ := c.Encrypt([]byte("same plaintext"), key)
	env2, _ := c.Encrypt([]byte("same plaintext"), key)

	if bytes.Equal(env1.IV, env2.IV) {
		t.Error("expected distinct IVs across encryptions")
	}
	if bytes.Equal(env1.Ciphertext, env2.Ciphertext) {
		t.Error("expected distinct ciphertexts across encryptions with fresh IVs")
	}
}

func TestCodec_AuthFailureOnTamperedCiphertext(t *testing.T) {
	c, _ := New(AlgorithmAES256GCM)
	key := randomKey(t)

	env, _ := c.Encrypt([]byte("secret payload"), key)
	env.Ciphertext[0] ^= 0xFF

	_, err := c.Decrypt(env, key)
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Decrypt tampered ciphertext: got %v, want ErrAuth", err)
	}
}

func TestCodec_WrongKeyFailsAuth(t *testing.T) {
	c, _ := New(AlgorithmAES256GCM)
	key := randomKey(t)
	other := randomKey(t)

	env, _ := c.Encrypt([]byte("secret payload"), key)
	_, err := c.Decrypt(env, other)
	if !errors.Is(err, ErrAuth) {
		t.Errorf("Decrypt with wrong key: got %v, want ErrAuth", err)
	}
}

func TestCodec_NoneAlgorithmPassesThrough(t *testing.T) {
	c, err := New(AlgorithmNone)
	if err != nil {
		t.Fatalf("New(AlgorithmNone): %v", err)
	}

	plaintext := []byte("cleartext allowed")
	env, err := c.Encrypt(plaintext, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := c.Decrypt(env, nil)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestNew_UnsupportedAlgorithm(t *testing.T) {
	_, err := New(Algorithm("rot13"))
	if !errors.Is(err, ErrCipherUnsupported) {
		t.Errorf("New(rot13): got %v, want ErrCipherUnsupported", err)
	}
}

func TestCodec_BadKeyLength(t *testing.T) {
	c, _ := New(AlgorithmAES256GCM)
	_, err := c.Encrypt([]byte("x"), []byte("too-short"))
	if !errors.Is(err, ErrBadKey) {
		t.Errorf("Encrypt with bad key: got %v, want ErrBadKey", err)
	}
}
