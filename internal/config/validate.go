package config

import (
	"fmt"
	"strings"
	"time"
)

// validate checks the Config for invalid or out-of-range values.
// It returns a combined error if any checks fail.
func validate(cfg *Config) error {
	var errs []string

	// Engine validation
	if cfg.Engine.ApplicationID == "" {
		errs = append(errs, "engine.application_id must not be empty")
	}
	if !isValidEnum(cfg.Engine.HashAlgorithm, ValidHashAlgorithms) {
		errs = append(errs, fmt.Sprintf("engine.hash_algorithm must be one of %v, got %q", ValidHashAlgorithms, cfg.Engine.HashAlgorithm))
	}

	// Tiers.L0 validation
	if cfg.Tiers.L0.MaxEntries < 0 {
		errs = append(errs, fmt.Sprintf("tiers.l0.max_entries must be non-negative, got %d", cfg.Tiers.L0.MaxEntries))
	}
	if cfg.Tiers.L0.MemoryBudgetMiB < 0 {
		errs = append(errs, fmt.Sprintf("tiers.l0.memory_budget_mib must be non-negative, got %d", cfg.Tiers.L0.MemoryBudgetMiB))
	}
	if cfg.Tiers.L0.EntriesPerGiB < 0 {
		errs = append(errs, fmt.Sprintf("tiers.l0.entries_per_gib must be non-negative, got %d", cfg.Tiers.L0.EntriesPerGiB))
	}
	if cfg.Tiers.L0.DefaultMaxEntries < 1 {
		errs = append(errs, fmt.Sprintf("tiers.l0.default_max_entries must be at least 1, got %d", cfg.Tiers.L0.DefaultMaxEntries))
	}

	// Tiers.L1 validation
	if cfg.Tiers.L1.PlacementThresholdBytes < 0 {
		errs = append(errs, fmt.Sprintf("tiers.l1.placement_threshold_bytes must be non-negative, got %d", cfg.Tiers.L1.PlacementThresholdBytes))
	}
	if cfg.Tiers.L1.PurgeExpiredAfterHours < 1 {
		errs = append(errs, fmt.Sprintf("tiers.l1.purge_expired_after_hours must be at least 1, got %d", cfg.Tiers.L1.PurgeExpiredAfterHours))
	}
	if cfg.Tiers.L1.TableName == "" {
		errs = append(errs, "tiers.l1.table_name must not be empty")
	}

	// Tiers.L2 validation
	if cfg.Tiers.L2.Bucket == "" {
		errs = append(errs, "tiers.l2.bucket must not be empty")
	}

	// Profile validation
	for name, p := range cfg.Profiles {
		if p.DefaultExpirySeconds < 1 {
			errs = append(errs, fmt.Sprintf("profiles.%s.default_expiry_seconds must be at least 1, got %d", name, p.DefaultExpirySeconds))
		}
		if p.ErrorExtensionSeconds < 0 {
			errs = append(errs, fmt.Sprintf("profiles.%s.error_extension_seconds must be non-negative, got %d", name, p.ErrorExtensionSeconds))
		}
		if p.IntervalTimeZone != "" {
			if _, err := time.LoadLocation(p.IntervalTimeZone); err != nil {
				errs = append(errs, fmt.Sprintf("profiles.%s.interval_time_zone %q is not a known IANA zone: %v", name, p.IntervalTimeZone, err))
			}
		}
	}

	// Codec validation
	if !isValidEnum(cfg.Codec.CipherAlgorithm, ValidCipherAlgorithms) {
		errs = append(errs, fmt.Sprintf("codec.cipher_algorithm must be one of %v, got %q", ValidCipherAlgorithms, cfg.Codec.CipherAlgorithm))
	}
	if cfg.Codec.CipherAlgorithm != "none" && cfg.Codec.CipherKeyRef == "" {
		errs = append(errs, "codec.cipher_key_ref must be set when codec.cipher_algorithm is not \"none\"")
	}

	// Resilience validation
	if cfg.Resilience.DefaultErrorExtensionSeconds < 0 {
		errs = append(errs, fmt.Sprintf("resilience.default_error_extension_seconds must be non-negative, got %d", cfg.Resilience.DefaultErrorExtensionSeconds))
	}

	// Tracing validation
	if cfg.Tracing.Enabled {
		if !isValidEnum(cfg.Tracing.Exporter, ValidTracingExporters) {
			errs = append(errs, fmt.Sprintf("tracing.exporter must be one of %v, got %q", ValidTracingExporters, cfg.Tracing.Exporter))
		}
		if cfg.Tracing.ServiceName == "" {
			errs = append(errs, "tracing.service_name must not be empty when tracing is enabled")
		}
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("tracing.sample_rate must be between 0 and 1, got %f", cfg.Tracing.SampleRate))
	}

	// HTTP validation
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", cfg.HTTP.Port))
	}
	if cfg.HTTP.ReadTimeout < 0 {
		errs = append(errs, fmt.Sprintf("http.read_timeout must be non-negative, got %d", cfg.HTTP.ReadTimeout))
	}
	if cfg.HTTP.WriteTimeout < 0 {
		errs = append(errs, fmt.Sprintf("http.write_timeout must be non-negative, got %d", cfg.HTTP.WriteTimeout))
	}
	if cfg.HTTP.IdleTimeout < 0 {
		errs = append(errs, fmt.Sprintf("http.idle_timeout must be non-negative, got %d", cfg.HTTP.IdleTimeout))
	}

	// Logging validation
	if !isValidEnum(cfg.Logging.Level, ValidLogLevels) {
		errs = append(errs, fmt.Sprintf("logging.level must be one of %v, got %q", ValidLogLevels, cfg.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// isValidEnum returns true if val is in the allowed list (case-insensitive).
func isValidEnum(val string, allowed []string) bool {
	lower := strings.ToLower(val)
	for _, a := range allowed {
		if strings.ToLower(a) == lower {
			return true
		}
	}
	return false
}
