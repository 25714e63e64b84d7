// Package vault implements a secret store collaborator: get(name) -> bytes,
// with fallback from the OS keychain to an environment variable, so a
// briefly unavailable keychain doesn't necessarily fail the lookup. A key
// reference can also name an environment variable or a plain-text file
// directly.
package vault

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "tiercache"

// Vault resolves cipher-key material from the OS keychain, an environment
// variable, or a plain-text file, as the key reference's scheme selects.
type Vault struct{}

// New creates a new Vault instance.
func New() *Vault {
	return &Vault{}
}

// Set stores key material for the given name in the OS keychain.
func (v *Vault) Set(name, key string) error {
	return keyring.Set(serviceName, name, key)
}

// Get retrieves key material for the given name. It first checks the OS
// keychain, then falls back to the environment variable
// TIERCACHE_KEY_{UPPER(name)}.
func (v *Vault) Get(name string) (string, error) {
	secret, err := keyring.Get(serviceName, name)
	if err == nil && secret != "" {
		return secret, nil
	}

	envKey := "TIERCACHE_KEY_" + strings.ToUpper(name)
	if val := os.Getenv(envKey); val != "" {
		return val, nil
	}

	return "", fmt.Errorf("no key found for %q: not in keychain and %s not set", name, envKey)
}

// Delete removes key material for the given name from the OS keychain.
func (v *Vault) Delete(name string) error {
	return keyring.Delete(serviceName, name)
}

// List returns the names that currently have keys stored, checking both the
// keychain and environment variables for each candidate.
func (v *Vault) List(candidates []string) []string {
	var names []string

	for _, name := range candidates {
		secret, err := keyring.Get(serviceName, name)
		if err == nil && secret != "" {
			names = append(names, name)
			continue
		}

		envKey := "TIERCACHE_KEY_" + strings.ToUpper(name)
		if val := os.Getenv(envKey); val != "" {
			names = append(names, name)
		}
	}

	return names
}

// ResolveKeyRef parses a key reference and retrieves the corresponding key
// material. Supported formats:
//   - "keyring://tiercache/<name>" (preferred)
//   - "env:VARIABLE_NAME" (environment variable)
//   - "file:///path/to/key" (plain-text file)
func (v *Vault) ResolveKeyRef(keyRef string) (string, error) {
	// Format 1: keyring://tiercache/<name>
	if strings.HasPrefix(keyRef, "keyring://") {
		path := strings.TrimPrefix(keyRef, "keyring://")
		parts := strings.SplitN(path, "/", 2)
		if len(parts) != 2 || parts[0] != serviceName || parts[1] == "" {
			return "", fmt.Errorf("invalid key reference format: %q (expected \"keyring://tiercache/<name>\")", keyRef)
		}
		return v.Get(parts[1])
	}

	// Format 2: env:VARIABLE_NAME
	if strings.HasPrefix(keyRef, "env:") {
		envVar := strings.TrimPrefix(keyRef, "env:")
		if val := os.Getenv(envVar); val != "" {
			return val, nil
		}
		return "", fmt.Errorf("environment variable %q is not set", envVar)
	}

	// Format 3: file:///path/to/key
	if strings.HasPrefix(keyRef, "file://") {
		filePath := strings.TrimPrefix(keyRef, "file://")
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("reading key file %q: %w", filePath, err)
		}
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", fmt.Errorf("key file %q is empty", filePath)
		}
		return key, nil
	}

	return "", fmt.Errorf("invalid key reference format: %q (expected \"keyring://tiercache/<name>\", \"env:VARIABLE_NAME\", or \"file:///path/to/key\")", keyRef)
}
