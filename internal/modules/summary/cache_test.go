package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCache(t *testing.T) (*TwoTierCache, *memVolatile, *memPersistent) {
	t.Helper()
	volatile := newMemVolatile()
	persistent := newMemPersistent()
	cache := NewTwoTierCache(volatile, persistent, time.Hour, zap.NewNop())
	return cache, volatile, persistent
}

func testArtifact(fp Fingerprint) *SummaryArtifact {
	return &SummaryArtifact{
		Headline:    "Headline",
		Body:        "Body text",
		Style:       fp.Style,
		Model:       fp.Model,
		ContentHash: fp.ContentHash,
		CreatedAt:   time.Now(),
	}
}

func TestCacheLookupMiss(t *testing.T) {
	cache, _, _ := testCache(t)
	fp := ComputeFingerprint("text", StyleConcise, "m")

	artifact, err := cache.Lookup(context.Background(), fp)
	require.NoError(t, err)
	assert.Nil(t, artifact)
}

func TestCacheStoreThenLookup(t *testing.T) {
	cache, volatile, persistent := testCache(t)
	fp := ComputeFingerprint("text", StyleConcise, "m")
	parent := ParentRef{Kind: KindLegislation, ID: "leg-1"}

	require.NoError(t, cache.Store(context.Background(), fp, parent, testArtifact(fp), true))
	assert.Equal(t, 1, persistent.upserts)
	assert.True(t, volatile.has(fp.Key()))

	got, err := cache.Lookup(context.Background(), fp)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Body text", got.Body)
}

func TestCacheVolatileClearRoundTrip(t *testing.T) {
	cache, volatile, _ := testCache(t)
	fp := ComputeFingerprint("text", StyleConcise, "m")
	parent := ParentRef{Kind: KindLegislation, ID: "leg-1"}

	require.NoError(t, cache.Store(context.Background(), fp, parent, testArtifact(fp), true))
	volatile.clear()

	// Persistent tier answers and the volatile tier is repopulated.
	got, err := cache.Lookup(context.Background(), fp)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Body text", got.Body)
	assert.True(t, volatile.has(fp.Key()))
}

func TestCacheVolatileFailureDegrades(t *testing.T) {
	cache, volatile, _ := testCache(t)
	fp := ComputeFingerprint("text", StyleConcise, "m")
	parent := ParentRef{Kind: KindLegislation, ID: "leg-1"}

	require.NoError(t, cache.Store(context.Background(), fp, parent, testArtifact(fp), true))

	volatile.getErr = errors.New("connection refused")
	got, err := cache.Lookup(context.Background(), fp)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Body text", got.Body)
}

func TestCacheUnreadableVolatileEntryDropped(t *testing.T) {
	cache, volatile, _ := testCache(t)
	fp := ComputeFingerprint("text", StyleConcise, "m")

	require.NoError(t, volatile.Set(context.Background(), fp.Key(), "not json", time.Hour))

	got, err := cache.Lookup(context.Background(), fp)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, volatile.has(fp.Key()))
}

func TestCacheStoreWithoutPersist(t *testing.T) {
	cache, volatile, persistent := testCache(t)
	fp := ComputeFingerprint("text", StyleConcise, "m")

	require.NoError(t, cache.Store(context.Background(), fp, ParentRef{}, testArtifact(fp), false))
	assert.Equal(t, 0, persistent.upserts)
	assert.True(t, volatile.has(fp.Key()))
}

func TestCacheInvalidate(t *testing.T) {
	cache, volatile, persistent := testCache(t)
	fpConcise := ComputeFingerprint("text", StyleConcise, "m")
	fpDetailed := ComputeFingerprint("text", StyleDetailed, "m")
	parent1 := ParentRef{Kind: KindLegislation, ID: "leg-1"}

	ctx := context.Background()
	require.NoError(t, cache.Store(ctx, fpConcise, parent1, testArtifact(fpConcise), true))
	require.NoError(t, cache.Store(ctx, fpDetailed, parent1, testArtifact(fpDetailed), true))

	deleted, err := cache.Invalidate(ctx, fpConcise.ContentHash, StyleConcise, "m")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.False(t, volatile.has(fpConcise.Key()))
	assert.True(t, volatile.has(fpDetailed.Key()))
	assert.Equal(t, 1, persistent.count())

	got, err := cache.Lookup(ctx, fpConcise)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheInvalidateWildcard(t *testing.T) {
	cache, _, persistent := testCache(t)
	fpConcise := ComputeFingerprint("text", StyleConcise, "m")
	fpDetailed := ComputeFingerprint("text", StyleDetailed, "m")

	ctx := context.Background()
	require.NoError(t, cache.Store(ctx, fpConcise, ParentRef{Kind: KindLegislation, ID: "a"}, testArtifact(fpConcise), true))
	require.NoError(t, cache.Store(ctx, fpDetailed, ParentRef{Kind: KindLegislation, ID: "a"}, testArtifact(fpDetailed), true))

	// Empty style and model widen the deletion to every entry for the hash.
	deleted, err := cache.Invalidate(ctx, fpConcise.ContentHash, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 0, persistent.count())
}

func TestCachePersistentFailureIsPersistenceError(t *testing.T) {
	cache, _, persistent := testCache(t)
	fp := ComputeFingerprint("text", StyleConcise, "m")

	persistent.lookupErr = errors.New("table gone")
	_, err := cache.Lookup(context.Background(), fp)
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.True(t, IsRetryable(err))

	persistent.lookupErr = nil
	persistent.upsertErr = errors.New("deadlock")
	err = cache.Store(context.Background(), fp, ParentRef{}, testArtifact(fp), true)
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "upsert", persistErr.Op)
}
