package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/study-progress-core/pkg/logger"
)

// fakeStore mimics Cache with JSON round-tripping.
type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	failGet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failGet != nil {
		return f.failGet
	}
	raw, ok := f.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	return nil
}

func (f *fakeStore) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func seededRepo(t *testing.T) achievement.Repository {
	t.Helper()
	repo := memory.NewStore().Achievements()
	require.NoError(t, repo.SeedDefinitions(context.Background(), achievement.DefaultCatalog()))
	return repo
}

func TestCatalogCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cc := NewCatalogCache(seededRepo(t), store, time.Hour, logger.Nop())

	first, err := cc.ListDefinitions(ctx)
	require.NoError(t, err)
	assert.True(t, store.has(KeyCatalog), "miss must populate the cache")

	second, err := cc.ListDefinitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, achievement.DefaultCatalog(), second)
}

func TestCatalogCache_SeedInvalidates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cc := NewCatalogCache(seededRepo(t), store, time.Hour, logger.Nop())

	_, err := cc.ListDefinitions(ctx)
	require.NoError(t, err)
	require.True(t, store.has(KeyCatalog))

	extra := achievement.Definition{
		Type: "night_owl", Title: "Night Owl",
		RequirementType: achievement.RequirementHours, RequirementValue: 100,
	}
	require.NoError(t, cc.SeedDefinitions(ctx, []achievement.Definition{extra}))
	assert.False(t, store.has(KeyCatalog))

	defs, err := cc.ListDefinitions(ctx)
	require.NoError(t, err)
	_, ok := achievement.Find(defs, "night_owl")
	assert.True(t, ok)
}

func TestCatalogCache_FallsBackOnCacheError(t *testing.T) {
	store := newFakeStore()
	store.failGet = errors.New("connection refused")
	cc := NewCatalogCache(seededRepo(t), store, time.Hour, logger.Nop())

	defs, err := cc.ListDefinitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, len(achievement.DefaultCatalog()))
}

func TestCatalogCache_UnlockPassesThrough(t *testing.T) {
	ctx := context.Background()
	cc := NewCatalogCache(seededRepo(t), newFakeStore(), time.Hour, nil)

	ok, err := cc.Unlock(ctx, "u1", "first_lesson", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cc.Unlock(ctx, "u1", "first_lesson", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	unlocks, err := cc.ListUnlocks(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, unlocks, 1)
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 10, opts.PoolSize)

	cfg.URL = "redis://:secret@cache:6380/2"
	opts, err = cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	cfg.URL = "http://nope"
	_, err = cfg.Options()
	assert.Error(t, err)
}
