package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// configPtr holds the current config for thread-safe access.
var configPtr atomic.Pointer[Config]

// loadedConfigFile stores the path of the config file used by the last successful Load.
var loadedConfigFile atomic.Value

// Get returns the current Config. It is safe for concurrent use.
// If no config has been loaded yet, it returns the default config.
func Get() *Config {
	if c := configPtr.Load(); c != nil {
		return c
	}
	d := DefaultConfig()
	configPtr.Store(d)
	return d
}

// set stores a new Config atomically.
func set(cfg *Config) {
	configPtr.Store(cfg)
}

// Config is the top-level configuration for the cache engine.
type Config struct {
	Engine     EngineConfig             `mapstructure:"engine"     toml:"engine"`
	Tiers      TiersConfig              `mapstructure:"tiers"      toml:"tiers"`
	Profiles   map[string]ProfileConfig `mapstructure:"profiles"   toml:"profiles"`
	Codec      CodecConfig              `mapstructure:"codec"      toml:"codec"`
	Resilience ResilienceConfig         `mapstructure:"resilience" toml:"resilience"`
	Tracing    TracingConfig            `mapstructure:"tracing"    toml:"tracing"`
	Metrics    MetricsConfig            `mapstructure:"metrics"    toml:"metrics"`
	HTTP       HTTPConfig               `mapstructure:"http"       toml:"http"`
	Logging    LoggingConfig            `mapstructure:"logging"    toml:"logging"`
}

// EngineConfig carries the fingerprint domain prefix, the hash family C1
// uses, and the L0 on/off switch (features.inMemoryL0).
type EngineConfig struct {
	ApplicationID string `mapstructure:"application_id" toml:"application_id"`
	HashAlgorithm string `mapstructure:"hash_algorithm" toml:"hash_algorithm"`
	InMemoryL0    bool   `mapstructure:"in_memory_l0"   toml:"in_memory_l0"`
}

// TiersConfig groups L0/L1/L2 backend sizing and connection settings.
type TiersConfig struct {
	L0 L0Config `mapstructure:"l0" toml:"l0"`
	L1 L1Config `mapstructure:"l1" toml:"l1"`
	L2 L2Config `mapstructure:"l2" toml:"l2"`
}

// L0Config sizes the in-process cache either directly (MaxEntries) or via a
// memory-budget heuristic, mirroring internal/tier0.CapacityBudget.
type L0Config struct {
	MaxEntries        int `mapstructure:"max_entries"         toml:"max_entries"`
	MemoryBudgetMiB   int `mapstructure:"memory_budget_mib"    toml:"memory_budget_mib"`
	EntriesPerGiB     int `mapstructure:"entries_per_gib"      toml:"entries_per_gib"`
	DefaultMaxEntries int `mapstructure:"default_max_entries"  toml:"default_max_entries"`
}

// L1Config configures the small-object KV backend (DynamoDB in production).
type L1Config struct {
	PlacementThresholdBytes int    `mapstructure:"placement_threshold_bytes" toml:"placement_threshold_bytes"`
	PurgeExpiredAfterHours  int    `mapstructure:"purge_expired_after_hours" toml:"purge_expired_after_hours"`
	TableName               string `mapstructure:"table_name"                toml:"table_name"`
	Region                  string `mapstructure:"region"                    toml:"region"`
}

// L2Config configures the blob backend (S3 in production).
type L2Config struct {
	Bucket string `mapstructure:"bucket" toml:"bucket"`
	Region string `mapstructure:"region" toml:"region"`
}

// ProfileConfig is the on-disk form of a per-origin policy; ToProfile
// resolves it into the engine's runtime engine.Profile, parsing the named
// time zone once at load time rather than on every request.
type ProfileConfig struct {
	DefaultExpirySeconds  int      `mapstructure:"default_expiry_seconds"   toml:"default_expiry_seconds"`
	ExpiryOnInterval      bool     `mapstructure:"expiry_on_interval"       toml:"expiry_on_interval"`
	IntervalTimeZone      string   `mapstructure:"interval_time_zone"       toml:"interval_time_zone"`
	RetainHeaders         []string `mapstructure:"retain_headers"           toml:"retain_headers"`
	Encrypt               bool     `mapstructure:"encrypt"                  toml:"encrypt"`
	OverrideOriginExpiry  bool     `mapstructure:"override_origin_expiry"   toml:"override_origin_expiry"`
	HostID                string   `mapstructure:"host_id"                  toml:"host_id"`
	PathID                string   `mapstructure:"path_id"                  toml:"path_id"`
	ErrorExtensionSeconds int      `mapstructure:"error_extension_seconds"  toml:"error_extension_seconds"`
}

// CodecConfig selects the at-rest cipher and where its key material comes
// from. CipherKeyRef follows internal/vault's scheme: "keyring://tiercache/<name>",
// "env:VAR", or "file:///path".
type CodecConfig struct {
	CipherAlgorithm string `mapstructure:"cipher_algorithm" toml:"cipher_algorithm"`
	CipherKeyRef    string `mapstructure:"cipher_key_ref"   toml:"cipher_key_ref"`
}

// ResilienceConfig holds the engine-wide fallback horizon used when a
// profile does not set its own error_extension_seconds.
type ResilienceConfig struct {
	DefaultErrorExtensionSeconds int `mapstructure:"default_error_extension_seconds" toml:"default_error_extension_seconds"`
}

// TracingConfig controls OpenTelemetry distributed tracing.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"      toml:"enabled"`
	Exporter    string  `mapstructure:"exporter"     toml:"exporter"`     // "stdout" or "otlp-grpc"
	Endpoint    string  `mapstructure:"endpoint"     toml:"endpoint"`     // e.g. "localhost:4317"
	ServiceName string  `mapstructure:"service_name" toml:"service_name"` // defaults to "tiercache"
	SampleRate  float64 `mapstructure:"sample_rate"  toml:"sample_rate"`  // 0.0 to 1.0
	Insecure    bool    `mapstructure:"insecure"     toml:"insecure"`     // skip TLS for dev
}

// MetricsConfig toggles the Prometheus text-exposition endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
}

// HTTPConfig controls the debug/inspect surface and demo front door.
type HTTPConfig struct {
	BindAddress  string `mapstructure:"bind_address"  toml:"bind_address"`
	Port         int    `mapstructure:"port"          toml:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"  toml:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout" toml:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"  toml:"idle_timeout"`
}

// LoggingConfig controls the zerolog global logger's verbosity.
type LoggingConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// Location resolves IntervalTimeZone to a *time.Location, defaulting to UTC
// when unset. Callers build an engine.Profile from the resolved location
// once at load time rather than parsing the zone name on every request.
func (p ProfileConfig) Location() (*time.Location, error) {
	if p.IntervalTimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.IntervalTimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", p.IntervalTimeZone, err)
	}
	return loc, nil
}

// Load reads configuration from disk with the following precedence:
//  1. Environment variables (TIERCACHE_ prefix, _ as separator)
//  2. The file at explicitPath if non-empty
//  3. ~/.tiercache/tiercache.toml
//  4. ./tiercache.toml
//  5. Built-in defaults
//
// The loaded config is validated and stored in the global atomic pointer.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	// Set all defaults so viper knows every key.
	setViperDefaults(v)

	// Environment variable overlay: TIERCACHE_ENGINE_APPLICATION_ID etc.
	v.SetEnvPrefix("TIERCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Determine which file(s) to read.
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".tiercache"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("tiercache")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file exists we still proceed with defaults + env.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Store the resolved config file path.
	if cf := v.ConfigFileUsed(); cf != "" {
		loadedConfigFile.Store(cf)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	set(cfg)
	return cfg, nil
}

// InitConfig writes the default configuration file to ~/.tiercache/tiercache.toml.
// If the file already exists it is not overwritten.
func InitConfig() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("determining home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".tiercache")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(dir, DefaultConfigFilename)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists: %s\n", path)
		return nil
	}

	cfg := DefaultConfig()
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Config written to %s\n", path)
	return nil
}

// ExportConfig writes the current config to the given path in TOML format.
func ExportConfig(path string) error {
	cfg := Get()
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ImportConfig reads a TOML config file on top of the default config, so
// fields the file omits take their default values, not their current ones.
// The imported config is also persisted to the active config file so changes
// survive restarts.
func ImportConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return err
	}
	set(cfg)

	// Persist to the active config file so changes survive restart.
	if dest := ConfigFilePath(); dest != "" {
		out, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshalling config for persistence: %w", err)
		}
		if err := os.WriteFile(dest, out, 0o600); err != nil {
			return fmt.Errorf("persisting imported config: %w", err)
		}
	}

	return nil
}

// ConfigFilePath returns the path of the config file that was loaded, or
// empty if no file was found.
func ConfigFilePath() string {
	if v, ok := loadedConfigFile.Load().(string); ok {
		return v
	}
	return ""
}

// setViperDefaults registers every known key with viper so that env var
// binding works for all fields even when no config file is present.
func setViperDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Engine
	v.SetDefault("engine.application_id", d.Engine.ApplicationID)
	v.SetDefault("engine.hash_algorithm", d.Engine.HashAlgorithm)
	v.SetDefault("engine.in_memory_l0", d.Engine.InMemoryL0)

	// Tiers.L0
	v.SetDefault("tiers.l0.max_entries", d.Tiers.L0.MaxEntries)
	v.SetDefault("tiers.l0.memory_budget_mib", d.Tiers.L0.MemoryBudgetMiB)
	v.SetDefault("tiers.l0.entries_per_gib", d.Tiers.L0.EntriesPerGiB)
	v.SetDefault("tiers.l0.default_max_entries", d.Tiers.L0.DefaultMaxEntries)

	// Tiers.L1
	v.SetDefault("tiers.l1.placement_threshold_bytes", d.Tiers.L1.PlacementThresholdBytes)
	v.SetDefault("tiers.l1.purge_expired_after_hours", d.Tiers.L1.PurgeExpiredAfterHours)
	v.SetDefault("tiers.l1.table_name", d.Tiers.L1.TableName)
	v.SetDefault("tiers.l1.region", d.Tiers.L1.Region)

	// Tiers.L2
	v.SetDefault("tiers.l2.bucket", d.Tiers.L2.Bucket)
	v.SetDefault("tiers.l2.region", d.Tiers.L2.Region)

	// Codec
	v.SetDefault("codec.cipher_algorithm", d.Codec.CipherAlgorithm)
	v.SetDefault("codec.cipher_key_ref", d.Codec.CipherKeyRef)

	// Resilience
	v.SetDefault("resilience.default_error_extension_seconds", d.Resilience.DefaultErrorExtensionSeconds)

	// Tracing
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.insecure", d.Tracing.Insecure)

	// Metrics
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	// HTTP
	v.SetDefault("http.bind_address", d.HTTP.BindAddress)
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", d.HTTP.IdleTimeout)

	// Logging
	v.SetDefault("logging.level", d.Logging.Level)

	// Profiles has no scalar default: an empty config starts with zero
	// profiles, same as DefaultConfig().
}
