package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	appcfg "github.com/councildigest/core/internal/config"
	"go.uber.org/zap"
)

// Service is the summary orchestrator: fingerprint, look up, claim,
// synthesize, store. One instance serves the whole process.
type Service struct {
	cache      *TwoTierCache
	persistent PersistentStore
	claims     *claimTable
	synth      *synthesizer
	gen        Generator
	waitPoll   time.Duration
	claimTTL   time.Duration
	log        *zap.Logger
}

// NewService wires the orchestrator from its tiers and the generator.
func NewService(volatile VolatileStore, persistent PersistentStore, gen Generator, cfg appcfg.SummaryConfig, log *zap.Logger) *Service {
	return &Service{
		cache:      NewTwoTierCache(volatile, persistent, cfg.VolatileTTL, log),
		persistent: persistent,
		claims:     newClaimTable(volatile, cfg.ClaimTTL),
		synth:      newSynthesizer(gen, cfg.GenerationTimeout, log),
		gen:        gen,
		waitPoll:   cfg.WaitPollInterval,
		claimTTL:   cfg.ClaimTTL,
		log:        log,
	}
}

// Summarize returns the cached artifact for the request, generating and
// persisting one when no current artifact exists. Concurrent callers for
// the same fingerprint coalesce onto a single generation.
func (s *Service) Summarize(ctx context.Context, req GenerationRequest, style Style) (*SummaryArtifact, error) {
	return s.run(ctx, req, style, false)
}

// Regenerate forces a fresh generation even when a current artifact
// exists, then overwrites both tiers.
func (s *Service) Regenerate(ctx context.Context, req GenerationRequest, style Style) (*SummaryArtifact, error) {
	return s.run(ctx, req, style, true)
}

func (s *Service) run(ctx context.Context, req GenerationRequest, style Style, force bool) (*SummaryArtifact, error) {
	strategy, err := SelectStrategy(req.Subtype, style)
	if err != nil {
		return nil, err
	}

	fp := ComputeFingerprint(canonicalSource(req), style, s.gen.ModelID())

	if !force {
		artifact, err := s.cache.Lookup(ctx, fp)
		if err != nil {
			return nil, err
		}
		if artifact != nil {
			s.log.Debug("summary cache hit",
				zap.String("hash", fp.Short()), zap.String("style", string(style)))
			return artifact, nil
		}
	}

	for {
		won, err := s.claims.acquire(ctx, fp)
		if err != nil {
			return nil, err
		}
		if won {
			break
		}
		artifact, err := s.waitForWinner(ctx, fp)
		if err != nil {
			return nil, err
		}
		if artifact != nil {
			return artifact, nil
		}
		// Winner released without an artifact; contend for the claim again.
	}
	defer s.claims.release(ctx, fp)

	// Re-check under the claim: a prior holder may have finished between
	// our lookup and our acquisition.
	if !force {
		artifact, err := s.cache.Lookup(ctx, fp)
		if err != nil {
			return nil, err
		}
		if artifact != nil {
			return artifact, nil
		}
	}

	artifact, err := s.synthesize(ctx, req, strategy)
	if err != nil {
		return nil, err
	}

	artifact.Style = style
	artifact.Model = s.gen.ModelID()
	artifact.ContentHash = fp.ContentHash
	artifact.CreatedAt = time.Now()

	if err := s.cache.Store(ctx, fp, req.Parent, artifact, true); err != nil {
		return nil, err
	}

	s.log.Info("summary generated",
		zap.String("parent_kind", string(req.Parent.Kind)),
		zap.String("parent_id", req.Parent.ID),
		zap.String("style", string(style)),
		zap.String("strategy", string(strategy)),
		zap.String("hash", fp.Short()))
	return artifact, nil
}

// waitForWinner polls the cache while another generation holds the claim.
// Returns nil, nil when the claim frees without producing an artifact so
// the caller can contend again.
func (s *Service) waitForWinner(ctx context.Context, fp Fingerprint) (*SummaryArtifact, error) {
	deadline := time.Now().Add(s.claimTTL)
	ticker := time.NewTicker(s.waitPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		artifact, err := s.cache.Lookup(ctx, fp)
		if err != nil {
			return nil, err
		}
		if artifact != nil {
			return artifact, nil
		}

		held, err := s.claimHeld(ctx, fp)
		if err != nil {
			return nil, err
		}
		if !held {
			return nil, nil
		}
		if time.Now().After(deadline) {
			return nil, &GenerationError{
				Entity:    fp.Short(),
				Stage:     "wait",
				Retryable: true,
				Err:       fmt.Errorf("timed out waiting for concurrent generation"),
			}
		}
	}
}

func (s *Service) claimHeld(ctx context.Context, fp Fingerprint) (bool, error) {
	raw, err := s.claims.store.Get(ctx, claimKey(fp))
	if err != nil {
		return false, &PersistenceError{Op: "claim", Err: err}
	}
	return raw != "", nil
}

func (s *Service) synthesize(ctx context.Context, req GenerationRequest, strategy StrategyKind) (*SummaryArtifact, error) {
	switch strategy {
	case StrategyStructured:
		analysis := AnalyzeHistory(req.Title, req.FullText, req.Actions)
		return s.synth.structured(ctx, req, analysis)
	default:
		return s.synth.singlePass(ctx, req)
	}
}

// Lookup resolves the stored artifact for a parent entity without
// triggering generation.
func (s *Service) Lookup(ctx context.Context, parent ParentRef, style Style) (*SummaryArtifact, error) {
	if !validStyle(style) {
		return nil, &ConfigurationError{Style: style, Valid: Styles()}
	}
	artifact, err := s.persistent.GetByParent(ctx, parent, style)
	if err != nil {
		return nil, &PersistenceError{Op: "lookup", Err: err}
	}
	return artifact, nil
}

// Invalidate removes stored artifacts for a content hash. Empty style or
// model widen the deletion. Returns the number of persistent entries
// removed.
func (s *Service) Invalidate(ctx context.Context, contentHash string, style Style, model string) (int64, error) {
	if style != "" && !validStyle(style) {
		return 0, &ConfigurationError{Style: style, Valid: Styles()}
	}
	return s.cache.Invalidate(ctx, contentHash, style, model)
}

// FingerprintFor exposes the fingerprint the orchestrator would use for a
// request. Batch tooling uses it for targeted invalidation.
func (s *Service) FingerprintFor(req GenerationRequest, style Style) Fingerprint {
	return ComputeFingerprint(canonicalSource(req), style, s.gen.ModelID())
}

// canonicalSource assembles the text identity of a request. Entities
// whose summaries derive from several sources fold every contributing
// source into the hash so a change in any of them invalidates the entry.
func canonicalSource(req GenerationRequest) string {
	var b strings.Builder
	if req.FullText != "" {
		b.WriteString(req.FullText)
	} else {
		b.WriteString(req.Title)
	}
	if req.Subtype == SubtypeStructuredAction {
		for _, rec := range req.Actions {
			version := rec.Version
			if version <= 0 {
				version = 1
			}
			fmt.Fprintf(&b, "\n%d|%s|%s|%s|%s", version, rec.Action, rec.Result, rec.ActionBy, rec.Date)
		}
	}
	for _, unit := range req.TextUnits {
		b.WriteString("\n")
		b.WriteString(unit)
	}
	return b.String()
}
