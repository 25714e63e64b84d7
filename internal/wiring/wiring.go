// Package wiring assembles a runnable engine.Engine and httpapi.Server
// from a loaded config.Config: resolving the L1/L2 backends, the codec
// and key cache, the per-profile policies, and the debug/inspect HTTP
// surface. This is the one place in the module that wires every
// external collaborator together; everything it builds from is itself
// an interface the core packages already define.
package wiring

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/ionlayer/tiercache/internal/backend/dynamotier"
	"github.com/ionlayer/tiercache/internal/backend/s3tier"
	"github.com/ionlayer/tiercache/internal/codec"
	"github.com/ionlayer/tiercache/internal/config"
	"github.com/ionlayer/tiercache/internal/engine"
	"github.com/ionlayer/tiercache/internal/fingerprint"
	"github.com/ionlayer/tiercache/internal/httpapi"
	"github.com/ionlayer/tiercache/internal/metrics"
	"github.com/ionlayer/tiercache/internal/origin"
	"github.com/ionlayer/tiercache/internal/placement"
	"github.com/ionlayer/tiercache/internal/tier0"
	"github.com/ionlayer/tiercache/internal/tier1"
	"github.com/ionlayer/tiercache/internal/tier2"
	"github.com/ionlayer/tiercache/internal/vault"
)

// keyRefStore adapts vault.Vault's ResolveKeyRef method to codec.SecretStore
// so a codec.KeyCache can front it with a refresh horizon: the "name"
// KeyCache.Resolve passes through is the full key reference string
// (e.g. "keyring://tiercache/default"), not a bare provider name.
type keyRefStore struct {
	v *vault.Vault
}

func (s keyRefStore) Get(name string) (string, error) {
	return s.v.ResolveKeyRef(name)
}

// App bundles the assembled engine, its active profile, and its
// debug/inspect server. The active profile is held behind an atomic
// pointer so Reload can swap it in response to a config hot-reload (§3)
// without disturbing requests already in flight; CurrentProfile is what a
// caller's own request handler (routing/envelope formatting is out of
// scope per spec §1) should call before each Engine.Get rather than
// capturing Profile once at startup.
type App struct {
	Engine      *engine.Engine
	HTTP        *httpapi.Server
	Metrics     *metrics.Collector
	profileName string
	profile     atomic.Pointer[engine.Profile]
}

// CurrentProfile returns the profile currently in effect.
func (a *App) CurrentProfile() engine.Profile {
	return *a.profile.Load()
}

// Reload recomputes the named profile from cfg and swaps it in atomically.
// It is the callback config.Watch's OnChange hook should invoke: only the
// profile changes, the engine's tier handles, codec, and placement policy
// are left untouched.
func (a *App) Reload(cfg *config.Config, profileName string) error {
	profile, err := buildProfile(cfg, profileName)
	if err != nil {
		return fmt.Errorf("wiring: reloading profile %q: %w", profileName, err)
	}
	a.profile.Store(&profile)
	return nil
}

// buildProfile resolves the on-disk ProfileConfig named profileName into a
// runtime engine.Profile, falling back to the engine-wide default error
// extension horizon when the profile does not set its own.
func buildProfile(cfg *config.Config, profileName string) (engine.Profile, error) {
	profileCfg, ok := cfg.Profiles[profileName]
	if !ok {
		return engine.Profile{}, fmt.Errorf("wiring: no profile named %q in config", profileName)
	}
	loc, err := profileCfg.Location()
	if err != nil {
		return engine.Profile{}, fmt.Errorf("wiring: resolving profile time zone: %w", err)
	}
	profile := engine.Profile{
		DefaultExpirySeconds:  profileCfg.DefaultExpirySeconds,
		ExpiryOnInterval:      profileCfg.ExpiryOnInterval,
		IntervalTimeZone:      loc,
		RetainHeaders:         profileCfg.RetainHeaders,
		Encrypt:               profileCfg.Encrypt,
		OverrideOriginExpiry:  profileCfg.OverrideOriginExpiry,
		HostID:                profileCfg.HostID,
		PathID:                profileCfg.PathID,
		ErrorExtensionSeconds: profileCfg.ErrorExtensionSeconds,
	}
	if profile.ErrorExtensionSeconds <= 0 {
		profile.ErrorExtensionSeconds = cfg.Resilience.DefaultErrorExtensionSeconds
	}
	return profile, nil
}

// Build assembles an App from cfg, using profileName as the single active
// per-origin policy (the engine is constructed per profile; a deployment
// fronting multiple origins with different policies runs one App per
// profile, matching the spec's "per-origin policy" framing in §3). It
// dials the real DynamoDB/S3 backends, so it requires valid AWS
// credentials in the process environment; BuildWithBackends is the
// backend-agnostic core used by tests.
func Build(ctx context.Context, cfg *config.Config, profileName string) (*App, error) {
	l1Backend, l2Backend, err := buildBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return BuildWithBackends(cfg, profileName, l1Backend, l2Backend)
}

// BuildWithBackends assembles an App from cfg and profileName against
// already-constructed L1/L2 backends, so tests can substitute
// tier1.MemoryBackend / tier2.MemoryBackend instead of dialing AWS.
func BuildWithBackends(cfg *config.Config, profileName string, l1Backend tier1.Backend, l2Backend tier2.Backend) (*App, error) {
	profile, err := buildProfile(cfg, profileName)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	var l0 *tier0.Cache[engine.Artifact]
	if cfg.Engine.InMemoryL0 {
		budget := tier0.CapacityBudget{
			MemoryBudgetMiB:   cfg.Tiers.L0.MemoryBudgetMiB,
			EntriesPerGiB:     cfg.Tiers.L0.EntriesPerGiB,
			DefaultMaxEntries: cfg.Tiers.L0.DefaultMaxEntries,
		}
		capacity := cfg.Tiers.L0.MaxEntries
		if capacity <= 0 {
			capacity = budget.Capacity()
		}
		l0 = tier0.New[engine.Artifact](capacity, func() int64 { return time.Now().UnixMilli() })
	}

	l1 := tier1.New(l1Backend, time.Now)
	l2 := tier2.New(l2Backend)

	cod, err := codec.New(codec.Algorithm(cfg.Codec.CipherAlgorithm))
	if err != nil {
		return nil, fmt.Errorf("wiring: constructing codec: %w", err)
	}

	keyCache := codec.NewKeyCache(keyRefStore{v: vault.New()}, 5*time.Minute)
	resolveKey := func() ([]byte, error) { return keyCache.Resolve(cfg.Codec.CipherKeyRef) }

	originClient := origin.NewClient("https", 30*time.Second)

	eng := engine.New(engine.Config{
		L0:         l0,
		L1:         l1,
		L2:         l2,
		Codec:      cod,
		ResolveKey: resolveKey,
		Placement:  placement.Policy{ThresholdBytes: cfg.Tiers.L1.PlacementThresholdBytes},
		HashAlgo:   fingerprint.HashAlgorithm(cfg.Engine.HashAlgorithm),
		Fetch:      originClient.Fetch,
		Metrics:    collector,
	})

	purger := httpapi.Purger{L1: l1}
	if l0 != nil {
		// l0 is a possibly-nil *tier0.Cache[engine.Artifact]; assigning it
		// unconditionally would wrap a nil pointer in a non-nil l0Deleter
		// interface value, so the purge handler's nil check would pass and
		// then panic calling Delete on the nil receiver.
		purger.L0 = l0
	}

	app := &App{Engine: eng, Metrics: collector, profileName: profileName}
	app.profile.Store(&profile)

	httpSrv := httpapi.NewServer(
		fmt.Sprintf("%s:%d", cfg.HTTP.BindAddress, cfg.HTTP.Port),
		collector,
		purger,
		time.Duration(cfg.HTTP.ReadTimeout)*time.Second,
		time.Duration(cfg.HTTP.WriteTimeout)*time.Second,
		time.Duration(cfg.HTTP.IdleTimeout)*time.Second,
		cfg.Tracing.Enabled,
		&httpapi.Front{Engine: eng, ProfileFunc: app.CurrentProfile},
	)
	app.HTTP = httpSrv

	log.Info().Str("profile", profileName).Msg("wiring: engine assembled")

	return app, nil
}

// buildBackends constructs the concrete L1 (DynamoDB) and L2 (S3)
// backends from cfg, ensuring the DynamoDB table exists before returning.
func buildBackends(ctx context.Context, cfg *config.Config) (tier1.Backend, tier2.Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Tiers.L1.Region))
	if err != nil {
		return nil, nil, fmt.Errorf("wiring: loading AWS config: %w", err)
	}

	dynClient := dynamodb.NewFromConfig(awsCfg)
	if err := dynamotier.EnsureTable(ctx, dynClient, cfg.Tiers.L1.TableName); err != nil {
		return nil, nil, fmt.Errorf("wiring: ensuring L1 table: %w", err)
	}
	l1Backend := dynamotier.New(dynClient, cfg.Tiers.L1.TableName)

	s3Cfg := awsCfg
	if cfg.Tiers.L2.Region != "" && cfg.Tiers.L2.Region != cfg.Tiers.L1.Region {
		var err error
		s3Cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Tiers.L2.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("wiring: loading AWS config for L2 region: %w", err)
		}
	}
	s3Client := s3.NewFromConfig(s3Cfg)
	l2Backend := s3tier.New(s3Client, cfg.Tiers.L2.Bucket)

	return l1Backend, l2Backend, nil
}
