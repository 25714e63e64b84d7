package config

// DefaultHashAlgorithm is the default fingerprint hash family (C1).
const DefaultHashAlgorithm = "sha256"

// DefaultCipherAlgorithm is the default at-rest cipher (C2).
const DefaultCipherAlgorithm = "aes-256-gcm"

// DefaultConfigFilename is the name of the config file.
const DefaultConfigFilename = "tiercache.toml"

// DefaultL0MaxEntries is the L0 entry cap used when no memory-budget
// heuristic is configured.
const DefaultL0MaxEntries = 10000

// DefaultEntriesPerGiB is the L0 sizing heuristic's entries-per-GiB figure.
const DefaultEntriesPerGiB = 50000

// DefaultPlacementThresholdBytes is the L1-inline vs L2-pointer boundary
// (10 KiB, per spec §4.6).
const DefaultPlacementThresholdBytes = 10 << 10

// DefaultPurgeExpiredAfterHours determines the L1 TTL attribute's horizon
// past an artifact's computed expiry.
const DefaultPurgeExpiredAfterHours = 24

// DefaultErrorExtensionSeconds is the stale-fallback horizon applied when a
// profile does not override it (15 minutes).
const DefaultErrorExtensionSeconds = 900

// DefaultTracingExporter is the default tracing exporter type.
const DefaultTracingExporter = "stdout"

// DefaultTracingEndpoint is the default OTLP collector endpoint.
const DefaultTracingEndpoint = "localhost:4317"

// DefaultTracingServiceName is the default service name for traces.
const DefaultTracingServiceName = "tiercache"

// DefaultTracingSampleRate is the default sampling rate (1.0 = 100%).
const DefaultTracingSampleRate = 1.0

// DefaultHTTPBindAddress is the default bind address for the debug/demo
// front door (localhost only).
const DefaultHTTPBindAddress = "127.0.0.1"

// DefaultHTTPPort is the default port for the debug/demo front door.
const DefaultHTTPPort = 8088

// DefaultHTTPReadTimeout is the default HTTP server read timeout in seconds.
const DefaultHTTPReadTimeout = 10

// DefaultHTTPWriteTimeout is the default HTTP server write timeout in seconds.
const DefaultHTTPWriteTimeout = 30

// DefaultHTTPIdleTimeout is the default HTTP server idle timeout in seconds.
const DefaultHTTPIdleTimeout = 120

// DefaultLogLevel is the default zerolog level.
const DefaultLogLevel = "info"

// ValidLogLevels lists the allowed log level values.
var ValidLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal"}

// ValidHashAlgorithms lists the allowed fingerprint hash families.
var ValidHashAlgorithms = []string{"sha256", "sha3-256", "sha3-512"}

// ValidCipherAlgorithms lists the allowed at-rest cipher algorithms.
var ValidCipherAlgorithms = []string{"aes-256-gcm", "none"}

// ValidTracingExporters lists the allowed tracing exporters. otlp-http is
// deliberately absent: no component needs a second OTLP transport.
var ValidTracingExporters = []string{"stdout", "otlp-grpc"}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ApplicationID: "tiercache",
			HashAlgorithm: DefaultHashAlgorithm,
			InMemoryL0:    true,
		},
		Tiers: TiersConfig{
			L0: L0Config{
				MaxEntries:        0,
				MemoryBudgetMiB:   0,
				EntriesPerGiB:     DefaultEntriesPerGiB,
				DefaultMaxEntries: DefaultL0MaxEntries,
			},
			L1: L1Config{
				PlacementThresholdBytes: DefaultPlacementThresholdBytes,
				PurgeExpiredAfterHours:  DefaultPurgeExpiredAfterHours,
				TableName:               "tiercache",
				Region:                  "us-east-1",
			},
			L2: L2Config{
				Bucket: "tiercache-objects",
				Region: "us-east-1",
			},
		},
		Profiles: map[string]ProfileConfig{
			"default": {
				DefaultExpirySeconds:  300,
				ExpiryOnInterval:      false,
				IntervalTimeZone:      "UTC",
				RetainHeaders:         []string{"Content-Type", "ETag"},
				Encrypt:               true,
				OverrideOriginExpiry:  false,
				HostID:                "default",
				PathID:                "default",
				ErrorExtensionSeconds: DefaultErrorExtensionSeconds,
			},
		},
		Codec: CodecConfig{
			CipherAlgorithm: DefaultCipherAlgorithm,
			CipherKeyRef:    "keyring://tiercache/default",
		},
		Resilience: ResilienceConfig{
			DefaultErrorExtensionSeconds: DefaultErrorExtensionSeconds,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    DefaultTracingExporter,
			Endpoint:    DefaultTracingEndpoint,
			ServiceName: DefaultTracingServiceName,
			SampleRate:  DefaultTracingSampleRate,
			Insecure:    false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		HTTP: HTTPConfig{
			BindAddress:  DefaultHTTPBindAddress,
			Port:         DefaultHTTPPort,
			ReadTimeout:  DefaultHTTPReadTimeout,
			WriteTimeout: DefaultHTTPWriteTimeout,
			IdleTimeout:  DefaultHTTPIdleTimeout,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}
