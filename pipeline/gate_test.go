package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aowotoys/catalog-sync/models"
	"github.com/aowotoys/catalog-sync/storage"
)

type mapCache struct {
	seen map[string]int64
	err  error
}

func (c *mapCache) Seen(ctx context.Context, url string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	_, ok := c.seen[url]
	return ok, nil
}

func (c *mapCache) MarkSeen(ctx context.Context, url string, id int64) error {
	if c.err != nil {
		return c.err
	}
	c.seen[url] = id
	return nil
}

// racingStore reports every URL as absent and then loses the insert race.
type racingStore struct{ *storage.MemoryStore }

func (s racingStore) FindByURL(ctx context.Context, url string) (int64, bool, error) {
	return 0, false, nil
}

type brokenStore struct{ *storage.MemoryStore }

func (brokenStore) Insert(ctx context.Context, rec *models.ProductRecord) (int64, error) {
	return 0, errors.New("connection reset")
}

func record(url string) *models.ProductRecord {
	return &models.ProductRecord{ProductID: "abc", URL: url, Name: "盒", Price: 400}
}

func TestGate_PersistIfNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	g := NewGate(store, nil, nil)

	first, err := g.PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	assert.Equal(t, Persisted, first.Status)
	assert.Positive(t, first.ID)

	second, err := g.PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	assert.Equal(t, Skipped, second.Status)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 1, store.Len())
}

func TestGate_InsertRaceIsSkipped(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	_, err := mem.Insert(ctx, record("u1"))
	require.NoError(t, err)

	out, err := NewGate(racingStore{mem}, nil, nil).PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.Status)
	assert.Equal(t, 1, mem.Len())
}

func TestGate_StoreError(t *testing.T) {
	_, err := NewGate(brokenStore{storage.NewMemoryStore()}, nil, nil).PersistIfNew(context.Background(), record("u1"))
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}

func TestGate_Cache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	cache := &mapCache{seen: map[string]int64{"cached": 0}}
	g := NewGate(store, cache, nil)

	out, err := g.PersistIfNew(ctx, record("cached"))
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.Status)
	assert.Equal(t, 0, store.Len())

	out, err = g.PersistIfNew(ctx, record("fresh"))
	require.NoError(t, err)
	assert.Equal(t, Persisted, out.Status)
	assert.Equal(t, out.ID, cache.seen["fresh"])
}

func TestGate_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	g := NewGate(store, &mapCache{err: errors.New("redis down")}, nil)

	out, err := g.PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	assert.Equal(t, Persisted, out.Status)

	out, err = g.PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.Status)
}

func TestGate_ScopedCacheSharedByTwoStores(t *testing.T) {
	ctx := context.Background()
	shared := &mapCache{seen: map[string]int64{}}

	storeA := storage.NewMemoryStore()
	out, err := NewGate(storeA, ScopedCache(shared, "postgres:a"), nil).PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	require.Equal(t, Persisted, out.Status)

	storeB := storage.NewMemoryStore()
	gateB := NewGate(storeB, ScopedCache(shared, "postgres:b"), nil)
	out, err = gateB.PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	assert.Equal(t, Persisted, out.Status)
	assert.Equal(t, 1, storeB.Len())

	out, err = gateB.PersistIfNew(ctx, record("u1"))
	require.NoError(t, err)
	assert.Equal(t, Skipped, out.Status)
	assert.Len(t, shared.seen, 2)
}
