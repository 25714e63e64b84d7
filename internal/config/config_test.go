package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_WithExplicitFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "test.toml")

	content := `
[engine]
application_id = "acme"
hash_algorithm = "sha3-256"
in_memory_l0 = true

[tiers.l1]
placement_threshold_bytes = 2048
purge_expired_after_hours = 12
table_name = "acme-cache"
region = "us-west-2"

[tiers.l2]
bucket = "acme-cache-objects"
region = "us-west-2"

[profiles.test]
default_expiry_seconds = 600
expiry_on_interval = false
encrypt = true
host_id = "api.example.com"
path_id = "/v1/widgets"
error_extension_seconds = 300

[codec]
cipher_algorithm = "aes-256-gcm"
cipher_key_ref = "env:TEST_KEY"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.ApplicationID != "acme" {
		t.Errorf("ApplicationID: got %q, want %q", cfg.Engine.ApplicationID, "acme")
	}
	if cfg.Engine.HashAlgorithm != "sha3-256" {
		t.Errorf("HashAlgorithm: got %q, want %q", cfg.Engine.HashAlgorithm, "sha3-256")
	}
	if cfg.Tiers.L1.TableName != "acme-cache" {
		t.Errorf("L1.TableName: got %q, want %q", cfg.Tiers.L1.TableName, "acme-cache")
	}
	if cfg.Tiers.L2.Bucket != "acme-cache-objects" {
		t.Errorf("L2.Bucket: got %q, want %q", cfg.Tiers.L2.Bucket, "acme-cache-objects")
	}
	if _, ok := cfg.Profiles["test"]; !ok {
		t.Fatal("expected 'test' profile to be configured")
	}
	if cfg.Profiles["test"].DefaultExpirySeconds != 600 {
		t.Errorf("profile.DefaultExpirySeconds: got %d, want 600", cfg.Profiles["test"].DefaultExpirySeconds)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "test.toml")

	content := `
[engine]
application_id = "acme"
hash_algorithm = "sha256"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("TIERCACHE_ENGINE_APPLICATION_ID", "overridden")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Engine.ApplicationID != "overridden" {
		t.Errorf("ApplicationID with env override: got %q, want %q", cfg.Engine.ApplicationID, "overridden")
	}
}

func TestLoad_ValidationFailure_BadHashAlgorithm(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.toml")

	content := `
[engine]
application_id = "acme"
hash_algorithm = "md5"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for unsupported hash algorithm")
	}
}

func TestLoad_ValidationFailure_BadTimeZone(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad-tz.toml")

	content := `
[profiles.test]
default_expiry_seconds = 60
interval_time_zone = "Not/A_Zone"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for unknown IANA zone")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.HashAlgorithm != DefaultHashAlgorithm {
		t.Errorf("HashAlgorithm: got %q, want %q", cfg.Engine.HashAlgorithm, DefaultHashAlgorithm)
	}
	if cfg.Tiers.L1.PlacementThresholdBytes != DefaultPlacementThresholdBytes {
		t.Errorf("PlacementThresholdBytes: got %d, want %d", cfg.Tiers.L1.PlacementThresholdBytes, DefaultPlacementThresholdBytes)
	}
	if cfg.Codec.CipherAlgorithm != DefaultCipherAlgorithm {
		t.Errorf("CipherAlgorithm: got %q, want %q", cfg.Codec.CipherAlgorithm, DefaultCipherAlgorithm)
	}
	if _, ok := cfg.Profiles["default"]; !ok {
		t.Error("expected a 'default' profile in DefaultConfig")
	}
}

func TestProfileConfig_Location(t *testing.T) {
	tests := []struct {
		zone    string
		wantErr bool
	}{
		{"", false},
		{"UTC", false},
		{"America/Chicago", false},
		{"Not/A_Zone", true},
	}

	for _, tt := range tests {
		p := ProfileConfig{IntervalTimeZone: tt.zone}
		_, err := p.Location()
		if (err != nil) != tt.wantErr {
			t.Errorf("Location(%q): err = %v, wantErr = %v", tt.zone, err, tt.wantErr)
		}
	}
}

func TestConfigFilePath_BeforeLoad(t *testing.T) {
	// Reset to ensure clean state.
	loadedConfigFile.Store("")
	path := ConfigFilePath()
	if path != "" {
		t.Errorf("ConfigFilePath before load: got %q, want empty", path)
	}
}

func TestExportConfig(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "exported.toml")

	// Set a known config.
	cfg := DefaultConfig()
	set(cfg)

	if err := ExportConfig(exportPath); err != nil {
		t.Fatalf("ExportConfig: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Error("exported config is empty")
	}
}

func TestImportConfig(t *testing.T) {
	dir := t.TempDir()
	importPath := filepath.Join(dir, "import.toml")

	content := `
[engine]
application_id = "imported-app"
hash_algorithm = "sha256"
`
	if err := os.WriteFile(importPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := ImportConfig(importPath); err != nil {
		t.Fatalf("ImportConfig: %v", err)
	}

	cfg := Get()
	if cfg.Engine.ApplicationID != "imported-app" {
		t.Errorf("ApplicationID after import: got %q, want %q", cfg.Engine.ApplicationID, "imported-app")
	}

	// Reset to default to not affect other tests.
	set(DefaultConfig())
}
