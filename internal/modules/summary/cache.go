package summary

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// VolatileStore is the fast, non-authoritative cache tier. A miss or a
// failure here is never an error for lookups; the persistent tier decides.
type VolatileStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// PersistentStore is the durable, authoritative tier. A nil artifact with
// a nil error means a clean miss.
type PersistentStore interface {
	GetByParent(ctx context.Context, parent ParentRef, style Style) (*SummaryArtifact, error)
	GetByFingerprint(ctx context.Context, contentHash string, style Style, model string) (*SummaryArtifact, error)
	Upsert(ctx context.Context, parent ParentRef, artifact *SummaryArtifact) error
	DeleteByFingerprint(ctx context.Context, contentHash string, style Style, model string) (int64, error)
}

// TwoTierCache layers the volatile tier over the persistent tier.
// Content addressing makes the volatile tier safe: an entry can be absent
// or expired, never wrong for a live key.
type TwoTierCache struct {
	volatile   VolatileStore
	persistent PersistentStore
	ttl        time.Duration
	log        *zap.Logger
}

func NewTwoTierCache(volatile VolatileStore, persistent PersistentStore, ttl time.Duration, log *zap.Logger) *TwoTierCache {
	return &TwoTierCache{volatile: volatile, persistent: persistent, ttl: ttl, log: log}
}

// Lookup checks the volatile tier first, then the persistent tier. A
// persistent hit is written back into the volatile tier before returning.
func (c *TwoTierCache) Lookup(ctx context.Context, fp Fingerprint) (*SummaryArtifact, error) {
	raw, err := c.volatile.Get(ctx, fp.Key())
	if err != nil {
		c.log.Warn("volatile tier lookup failed, degrading to persistent tier",
			zap.String("hash", fp.Short()), zap.Error(err))
	} else if raw != "" {
		var artifact SummaryArtifact
		if err := json.Unmarshal([]byte(raw), &artifact); err == nil {
			return &artifact, nil
		}
		// Unreadable entry: drop it and fall through.
		_ = c.volatile.Del(ctx, fp.Key())
	}

	artifact, err := c.persistent.GetByFingerprint(ctx, fp.ContentHash, fp.Style, fp.Model)
	if err != nil {
		return nil, &PersistenceError{Op: "lookup", Err: err}
	}
	if artifact == nil {
		return nil, nil
	}

	c.mirror(ctx, fp, artifact)
	return artifact, nil
}

// Store upserts the artifact into the persistent tier when persist is set,
// then refreshes the volatile tier with a fresh TTL.
func (c *TwoTierCache) Store(ctx context.Context, fp Fingerprint, parent ParentRef, artifact *SummaryArtifact, persist bool) error {
	if persist {
		if err := c.persistent.Upsert(ctx, parent, artifact); err != nil {
			return &PersistenceError{Op: "upsert", Err: err}
		}
	}
	c.mirror(ctx, fp, artifact)
	return nil
}

// Invalidate removes matching entries from both tiers. Empty style/model
// widen the persistent-tier deletion to all entries for the content hash;
// the volatile tier can only be purged for fully-specified fingerprints,
// remaining entries age out by TTL.
func (c *TwoTierCache) Invalidate(ctx context.Context, contentHash string, style Style, model string) (int64, error) {
	if style != "" && model != "" {
		fp := Fingerprint{ContentHash: contentHash, Style: style, Model: model}
		if err := c.volatile.Del(ctx, fp.Key()); err != nil {
			c.log.Warn("volatile tier invalidate failed", zap.String("hash", fp.Short()), zap.Error(err))
		}
	}

	deleted, err := c.persistent.DeleteByFingerprint(ctx, contentHash, style, model)
	if err != nil {
		return 0, &PersistenceError{Op: "invalidate", Err: err}
	}
	return deleted, nil
}

func (c *TwoTierCache) mirror(ctx context.Context, fp Fingerprint, artifact *SummaryArtifact) {
	data, err := json.Marshal(artifact)
	if err != nil {
		return
	}
	if err := c.volatile.Set(ctx, fp.Key(), string(data), c.ttl); err != nil {
		c.log.Warn("volatile tier write-back failed", zap.String("hash", fp.Short()), zap.Error(err))
	}
}
