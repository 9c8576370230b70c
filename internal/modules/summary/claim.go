package summary

import (
	"context"
	"time"
)

// claimTable enforces the per-fingerprint generation discipline: at most
// one generation runs per fingerprint system-wide. Claims live in the
// shared volatile store under SET NX semantics with a TTL safety net so a
// crashed winner cannot wedge the fingerprint forever.
type claimTable struct {
	store VolatileStore
	ttl   time.Duration
}

func newClaimTable(store VolatileStore, ttl time.Duration) *claimTable {
	return &claimTable{store: store, ttl: ttl}
}

func claimKey(fp Fingerprint) string { return "claim:" + fp.Key() }

// acquire atomically claims the fingerprint. Returns false when another
// generation holds it.
func (t *claimTable) acquire(ctx context.Context, fp Fingerprint) (bool, error) {
	won, err := t.store.SetNX(ctx, claimKey(fp), "1", t.ttl)
	if err != nil {
		return false, &PersistenceError{Op: "claim", Err: err}
	}
	return won, nil
}

// release frees the claim. Best effort: the TTL covers a failed delete.
func (t *claimTable) release(ctx context.Context, fp Fingerprint) {
	_ = t.store.Del(ctx, claimKey(fp))
}
