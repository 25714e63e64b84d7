package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ionlayer/tiercache/internal/codec"
	"github.com/ionlayer/tiercache/internal/expiry"
	"github.com/ionlayer/tiercache/internal/fingerprint"
	"github.com/ionlayer/tiercache/internal/metrics"
	"github.com/ionlayer/tiercache/internal/placement"
	"github.com/ionlayer/tiercache/internal/singleflight"
	"github.com/ionlayer/tiercache/internal/tier0"
	"github.com/ionlayer/tiercache/internal/tier1"
	"github.com/ionlayer/tiercache/internal/tier2"
	"github.com/ionlayer/tiercache/internal/tracing"
)

// KeyResolver returns the current cipher key bytes. Implementations
// typically wrap a codec.KeyCache backed by internal/vault.
type KeyResolver func() ([]byte, error)

// Config wires every collaborator the engine needs. L0 may be nil, which
// disables it entirely: the pipeline begins at L1 (features.inMemoryL0).
type Config struct {
	L0 *tier0.Cache[Artifact]
	L1 *tier1.Tier
	L2 *tier2.Tier

	Codec      *codec.Codec
	ResolveKey KeyResolver
	Placement  placement.Policy
	HashAlgo   fingerprint.HashAlgorithm

	Fetch   Fetcher
	Now     func() time.Time
	Metrics *metrics.Collector
}

// Engine is the read pipeline: one instance per configured cache, shared
// across concurrent requests within a container.
type Engine struct {
	l0 *tier0.Cache[Artifact]
	l1 *tier1.Tier
	l2 *tier2.Tier

	codec      *codec.Codec
	resolveKey KeyResolver
	placement  placement.Policy
	hashAlgo   fingerprint.HashAlgorithm

	fetch   Fetcher
	now     func() time.Time
	sf      singleflight.Group
	metrics *metrics.Collector
}

// New constructs an Engine from cfg.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		l0:         cfg.L0,
		l1:         cfg.L1,
		l2:         cfg.L2,
		codec:      cfg.Codec,
		resolveKey: cfg.ResolveKey,
		placement:  cfg.Placement,
		hashAlgo:   cfg.HashAlgo,
		fetch:      cfg.Fetch,
		now:        now,
		metrics:    cfg.Metrics,
	}
}

// Get runs the read pipeline for descriptor d under profile p: L0 -> L1/L2
// -> origin, with stale-on-error fallback. The caller always receives an
// Artifact; fetch failures are recovered into a fallback artifact rather
// than returned as an error whenever a fallback exists.
func (e *Engine) Get(ctx context.Context, d fingerprint.Descriptor, p Profile) (Artifact, error) {
	reqID := uuid.New().String()

	fp, err := fingerprint.Compute(d, e.hashAlgo)
	if err != nil {
		return Artifact{}, fmt.Errorf("engine: computing fingerprint: %w", err)
	}

	ctx, span := tracing.StartGetSpan(ctx, fp, d.Host, d.Path)
	defer span.End()

	if e.metrics != nil {
		e.metrics.IncrementActive()
		defer e.metrics.DecrementActive()
	}

	var stale *Artifact

	// Step 1-2: L0 probe.
	if e.l0 != nil {
		status, art := e.l0.Get(fp)
		e.recordL0(status)
		switch status {
		case tier0.Hit:
			out := art.Clone()
			out.Source = SourceL0
			tracing.SetResultAttributes(ctx, string(out.Source), out.StatusCode, len(out.Body))
			return out, nil
		case tier0.Expired:
			stale = preferFreshest(stale, &art)
		}
	}

	// Step 3-4: L1/L2 probe.
	tierCtx, tierSpan := tracing.StartTierSpan(ctx, "l1l2", "get")
	l1Art, l1Status, err := e.probeL1L2(tierCtx, fp)
	if err != nil {
		tracing.RecordError(tierCtx, err)
		log.Warn().Err(err).Str("request_id", reqID).Str("fingerprint", fp).Msg("engine: L1/L2 probe failed, treating as miss")
	} else {
		e.recordL1(l1Status)
		switch l1Status {
		case tier1.Hit:
			if e.l0 != nil && !l1Art.IsNoCache() {
				e.l0.Set(fp, l1Art, l1Art.ExpiresAtMillis)
			}
			out := l1Art.Clone()
			tierSpan.End()
			tracing.SetResultAttributes(ctx, string(out.Source), out.StatusCode, len(out.Body))
			return out, nil
		case tier1.Expired:
			stale = preferFreshest(stale, &l1Art)
		}
	}
	tierSpan.End()

	// Step 5: origin fetch via single-flight.
	originCtx, originSpan := tracing.StartOriginSpan(ctx, false)
	result := singleflight.Do(originCtx, &e.sf, fp, func(fetchCtx context.Context) (OriginResult, error) {
		return e.fetch(fetchCtx, d)
	})
	originSpan.SetAttributes(attribute.Bool("origin.single_flight_shared", result.Shared))
	originSpan.End()
	if e.metrics != nil {
		if result.Shared {
			e.metrics.RecordSingleFlightJoin()
		} else {
			e.metrics.RecordOriginFetch(result.Err)
		}
	}

	var badResp *OriginBadResponse
	if errors.As(result.Err, &badResp) {
		art := e.writeFreshArtifact(ctx, reqID, fp, p, badResp.Result, true)
		tracing.SetResultAttributes(ctx, string(art.Source), art.StatusCode, len(art.Body))
		return art, nil
	}

	if result.Err != nil {
		tracing.RecordError(ctx, result.Err)
		if ctx.Err() != nil && errors.Is(result.Err, ctx.Err()) {
			return Artifact{}, result.Err
		}
		if e.metrics != nil && stale != nil {
			e.metrics.RecordStaleFallback()
		}
		art := e.handleOriginFailure(ctx, reqID, fp, p, stale)
		tracing.SetResultAttributes(ctx, string(art.Source), art.StatusCode, len(art.Body))
		return art, nil
	}

	art := e.writeFreshArtifact(ctx, reqID, fp, p, result.Value, false)
	tracing.SetResultAttributes(ctx, string(art.Source), art.StatusCode, len(art.Body))
	return art, nil
}

// recordL0 reports an L0 probe outcome to the metrics collector, if one is
// configured.
func (e *Engine) recordL0(status tier0.Status) {
	if e.metrics == nil {
		return
	}
	switch status {
	case tier0.Hit:
		e.metrics.RecordL0("hit")
	case tier0.Expired:
		e.metrics.RecordL0("expired")
	default:
		e.metrics.RecordL0("miss")
	}
}

// recordL1 reports an L1 probe outcome to the metrics collector, if one is
// configured.
func (e *Engine) recordL1(status tier1.Status) {
	if e.metrics == nil {
		return
	}
	switch status {
	case tier1.Hit:
		e.metrics.RecordL1("hit")
	case tier1.Expired:
		e.metrics.RecordL1("expired")
	default:
		e.metrics.RecordL1("miss")
	}
}

// probeL1L2 fetches the L1 record for fp and, if it points to L2,
// resolves the body from there, then decrypts and reconstructs the
// Artifact. Any decryption failure is an IntegrityFailure: the record is
// treated as MISS and a warning is logged, never surfaced to the caller.
func (e *Engine) probeL1L2(ctx context.Context, fp string) (Artifact, tier1.Status, error) {
	if e.l1 == nil {
		return Artifact{}, tier1.Miss, nil
	}

	status, rec, err := e.l1.Get(ctx, fp)
	if err != nil {
		return Artifact{}, tier1.Miss, err
	}
	if status == tier1.Miss {
		return Artifact{}, tier1.Miss, nil
	}

	body := rec.Inline
	source := SourceL1
	if rec.HasPointer() {
		if e.l2 == nil {
			return Artifact{}, tier1.Miss, fmt.Errorf("engine: record for %q has an L2 pointer but no L2 tier is configured", fp)
		}
		obj, err := e.l2.Get(ctx, rec.Pointer)
		if err != nil {
			if e.metrics != nil {
				e.metrics.RecordL2(false)
			}
			return Artifact{}, tier1.Miss, fmt.Errorf("engine: fetching L2 object %q: %w", rec.Pointer, err)
		}
		if e.metrics != nil {
			e.metrics.RecordL2(true)
		}
		body = obj.Body
		source = SourceL2
	}

	plaintext, err := e.decrypt(body, rec.Alg, rec.IV)
	if err != nil {
		log.Warn().Err(err).Str("fingerprint", fp).Msg("engine: decrypting cache record failed, treating as miss")
		_ = e.l1.Delete(ctx, fp)
		return Artifact{}, tier1.Miss, nil
	}

	if status == tier1.Hit {
		_ = e.l1.IncrementHitCount(ctx, fp)
	}

	art := Artifact{
		Body:            plaintext,
		Headers:         rec.Headers,
		StatusCode:      rec.StatusCode,
		ExpiresAtMillis: rec.ExpiresAtMillis,
		PurgeAtMillis:   rec.PurgeAtMillis,
		Source:          source,
	}
	return art, status, nil
}

// decrypt reverses the codec step for a stored payload. AlgorithmNone
// payloads (encrypt=false profiles) pass through unchanged.
func (e *Engine) decrypt(ciphertext []byte, alg string, iv []byte) ([]byte, error) {
	if alg == "" || codec.Algorithm(alg) == codec.AlgorithmNone {
		return ciphertext, nil
	}
	key, err := e.resolveKey()
	if err != nil {
		return nil, fmt.Errorf("resolving cipher key: %w", err)
	}
	env := codec.Envelope{Alg: codec.Algorithm(alg), IV: iv, Ciphertext: ciphertext}
	return e.codec.Decrypt(env, key)
}

// writeFreshArtifact computes expiry, encrypts, applies placement, writes
// L1 (and L2 if oversized), writes L0, and returns the resulting Artifact
// tagged SourceOrigin. When negative is true the result is an
// OriginBadResponse: the artifact is cached under StatusCachedNegative
// with the profile's shorter error-extension horizon instead of the
// normal expiry policy.
func (e *Engine) writeFreshArtifact(ctx context.Context, reqID string, fp string, p Profile, result OriginResult, negative bool) Artifact {
	now := e.now()

	var expRes expiry.Result
	statusCode := result.StatusCode
	if negative {
		expRes = expiry.Result{
			ExpiresAt: expiry.ExtendForStale(now, p.ErrorExtensionSeconds),
			PurgeAt:   expiry.ExtendForStale(now, p.ErrorExtensionSeconds),
		}
		statusCode = StatusCachedNegative
	} else {
		policy := expiry.Policy{
			DefaultExpirySeconds: p.DefaultExpirySeconds,
			OverrideOriginExpiry: p.OverrideOriginExpiry,
			AlignToInterval:      p.ExpiryOnInterval,
			Location:             p.IntervalTimeZone,
		}
		expRes = policy.Compute(now, result.OriginProvidedExpiresAt)
	}

	headers := p.filterHeaders(result.Headers)

	art := Artifact{
		Body:            result.Body,
		Headers:         headers,
		StatusCode:      statusCode,
		ExpiresAtMillis: expRes.ExpiresAt.UnixMilli(),
		PurgeAtMillis:   expRes.PurgeAt.UnixMilli(),
		Source:          SourceOrigin,
	}

	e.writeThrough(ctx, reqID, fp, art, headers, p.Encrypt)

	out := art.Clone()
	return out
}

// writeThrough persists art into L1 (and L2 if the placement policy
// decides the payload is too large to inline), encrypting the body first
// if the profile requires it.
func (e *Engine) writeThrough(ctx context.Context, reqID string, fp string, art Artifact, headers map[string]string, encrypt bool) {
	alg := string(codec.AlgorithmNone)
	payload := art.Body
	var iv []byte

	if encrypt && e.codec != nil {
		key, err := e.resolveKey()
		if err != nil {
			log.Error().Err(err).Str("request_id", reqID).Str("fingerprint", fp).Msg("engine: resolving cipher key for write-through failed")
		} else {
			env, err := e.codec.Encrypt(art.Body, key)
			if err != nil {
				log.Error().Err(err).Str("request_id", reqID).Str("fingerprint", fp).Msg("engine: encrypting payload for write-through failed")
			} else {
				payload = env.Ciphertext
				alg = string(env.Alg)
				iv = env.IV
			}
		}
	}

	rec := tier1.Record{
		Fingerprint:     fp,
		Alg:             alg,
		IV:              iv,
		Headers:         headers,
		StatusCode:      art.StatusCode,
		ExpiresAtMillis: art.ExpiresAtMillis,
		PurgeAtMillis:   art.PurgeAtMillis,
		CreatedAtMillis: e.now().UnixMilli(),
	}

	if e.placement.Decide(len(payload)) == placement.Pointer && e.l2 != nil {
		objKey := "cache/" + fp
		obj := tier2.Object{Key: objKey, Body: payload, Alg: alg, IV: iv, ContentLen: int64(len(payload))}
		if err := e.l2.Put(ctx, obj); err != nil {
			log.Error().Err(err).Str("request_id", reqID).Str("fingerprint", fp).Msg("engine: L2 write-through failed")
		} else {
			rec.Pointer = objKey
		}
	} else {
		rec.Inline = payload
	}

	if e.l1 != nil {
		if err := e.l1.Put(ctx, rec); err != nil {
			log.Error().Err(err).Str("request_id", reqID).Str("fingerprint", fp).Msg("engine: L1 write-through failed")
		}
	}

	if e.l0 != nil {
		e.l0.Set(fp, art, art.ExpiresAtMillis)
	}
}

// handleOriginFailure implements the stale-on-error path: if stale is
// populated its expiry is extended forward and it is rewritten into L0 so
// coincident callers all observe the same fallback; otherwise an empty,
// no-cache artifact tagged SourceError is returned.
func (e *Engine) handleOriginFailure(ctx context.Context, reqID string, fp string, p Profile, stale *Artifact) Artifact {
	if stale == nil {
		log.Warn().Str("request_id", reqID).Str("fingerprint", fp).Msg("engine: origin fetch failed with no stale fallback available")
		return Artifact{StatusCode: StatusNoCache, Source: SourceError}
	}

	now := e.now()
	extendedAt := expiry.ExtendForStale(now, p.ErrorExtensionSeconds).UnixMilli()
	extended := stale.Clone()
	extended.ExpiresAtMillis = extendedAt
	extended.PurgeAtMillis = extendedAt
	extended.Source = SourceStaleOnError

	if e.l0 != nil {
		e.l0.Set(fp, extended, extended.ExpiresAtMillis)
	}

	return extended
}

// preferFreshest returns whichever of cur and candidate has the later
// ExpiresAtMillis, keeping the most recently fresh stale candidate across
// the L0 and L1 probes.
func preferFreshest(cur, candidate *Artifact) *Artifact {
	if cur == nil {
		return candidate
	}
	if candidate == nil {
		return cur
	}
	if candidate.ExpiresAtMillis > cur.ExpiresAtMillis {
		return candidate
	}
	return cur
}
