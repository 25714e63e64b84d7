package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ionlayer/tiercache/internal/config"
	"github.com/ionlayer/tiercache/internal/vault"
)

// cmdKeys manages cipher-key material in the OS keychain (see
// internal/vault). Key names are bare identifiers, e.g. "default"; the
// full reference stored in codec.cipher_key_ref is
// "keyring://tiercache/<name>".
func cmdKeys(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: tiercache keys <list|set|get|delete|rotate> [name]")
		os.Exit(1)
	}

	v := vault.New()

	switch args[0] {
	case "list":
		present := v.List(candidateKeyNames())
		if len(present) == 0 {
			fmt.Println("No keys stored")
			return
		}
		for _, name := range present {
			fmt.Printf("  %s: ****\n", name)
		}

	case "set":
		if len(args) < 2 {
			fmt.Println("Usage: tiercache keys set <name>")
			os.Exit(1)
		}
		name := strings.ToLower(args[1])
		fmt.Printf("Enter key material for %s: ", name)
		key, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading key: %v\n", err)
			os.Exit(1)
		}
		if err := v.Set(name, string(key)); err != nil {
			fmt.Fprintf(os.Stderr, "error storing key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Key %q stored successfully\n", name)

	case "get":
		if len(args) < 2 {
			fmt.Println("Usage: tiercache keys get <name>")
			os.Exit(1)
		}
		name := strings.ToLower(args[1])
		if _, err := v.Get(name); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: **** (present)\n", name)

	case "delete":
		if len(args) < 2 {
			fmt.Println("Usage: tiercache keys delete <name>")
			os.Exit(1)
		}
		name := strings.ToLower(args[1])
		if err := v.Delete(name); err != nil {
			fmt.Fprintf(os.Stderr, "error deleting key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Key %q deleted\n", name)

	case "rotate":
		if len(args) < 2 {
			fmt.Println("Usage: tiercache keys rotate <name>")
			os.Exit(1)
		}
		name := strings.ToLower(args[1])
		fresh := make([]byte, 32)
		if _, err := rand.Read(fresh); err != nil {
			fmt.Fprintf(os.Stderr, "error generating key material: %v\n", err)
			os.Exit(1)
		}
		encoded := base64.StdEncoding.EncodeToString(fresh)
		if err := v.Set(name, encoded); err != nil {
			fmt.Fprintf(os.Stderr, "error storing rotated key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Key %q rotated. Artifacts encrypted under the previous key remain\n", name)
		fmt.Println("decodable until their purge_at horizon, since every artifact carries")
		fmt.Println("its own cipher algorithm tag — only its raw key material changed.")

	default:
		fmt.Fprintf(os.Stderr, "unknown keys command: %s\n", args[0])
		os.Exit(1)
	}
}

// candidateKeyNames collects the key names worth probing for "keys list":
// the name in codec.cipher_key_ref (when it uses the keyring:// scheme) plus
// "default", since the vault has no native enumeration API.
func candidateKeyNames() []string {
	names := map[string]struct{}{"default": {}}

	cfg, err := config.Load("")
	if err == nil {
		if name, ok := keyringName(cfg.Codec.CipherKeyRef); ok {
			names[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	return out
}

// keyringName extracts the <name> from a "keyring://tiercache/<name>"
// reference, mirroring vault.Vault.ResolveKeyRef's own parsing.
func keyringName(ref string) (string, bool) {
	const prefix = "keyring://tiercache/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, prefix)
	if name == "" {
		return "", false
	}
	return name, true
}
