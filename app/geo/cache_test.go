package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCacheStore struct {
	entries map[string]Point
	loadErr error
	putErr  error
	puts    int
}

func (m *mockCacheStore) LoadAll(_ context.Context) (map[string]Point, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.entries, nil
}

func (m *mockCacheStore) Put(_ context.Context, key string, p Point) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	if m.entries == nil {
		m.entries = make(map[string]Point)
	}
	m.entries[key] = p
	return nil
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "paris|fr", CacheKey("Paris", "FR"))
	assert.Equal(t, "paris|fr", CacheKey("  PARIS ", "fr"))
	assert.Equal(t, "paris|", CacheKey("Paris", ""))
}

func TestCityCache_SeededLookupIsCaseInsensitive(t *testing.T) {
	cache := NewCityCache(nil)

	p, ok := cache.Lookup("REYKJAVIK", "IS")
	require.True(t, ok)
	assert.InDelta(t, 64.1466, p.Lat, 0.0001)

	_, ok = cache.Lookup("Atlantis", "XX")
	assert.False(t, ok)
}

func TestCityCache_StoreWritesThroughAndServes(t *testing.T) {
	store := &mockCacheStore{}
	cache := NewCityCache(store)

	cache.Store(context.Background(), "Smalltown", "US", Point{Lat: 41.1, Lng: -73.8})

	p, ok := cache.Lookup("smalltown", "us")
	require.True(t, ok)
	assert.Equal(t, 41.1, p.Lat)
	assert.Equal(t, 1, store.puts)
}

func TestCityCache_StoreFailureStillServesFromMemory(t *testing.T) {
	store := &mockCacheStore{putErr: errors.New("connection refused")}
	cache := NewCityCache(store)

	cache.Store(context.Background(), "Smalltown", "US", Point{Lat: 41.1, Lng: -73.8})

	_, ok := cache.Lookup("Smalltown", "US")
	assert.True(t, ok, "persistence failure must not lose the in-memory entry")
}

func TestCityCache_StoreRejectsInvalidInput(t *testing.T) {
	store := &mockCacheStore{}
	cache := NewCityCache(store)
	before := cache.Len()

	cache.Store(context.Background(), "", "US", Point{Lat: 1, Lng: 1})
	cache.Store(context.Background(), "Badville", "US", Point{Lat: 9999, Lng: 0})

	assert.Equal(t, before, cache.Len())
	assert.Equal(t, 0, store.puts)
}

func TestCityCache_WarmMergesPersistedEntries(t *testing.T) {
	store := &mockCacheStore{entries: map[string]Point{
		"smalltown|us": {Lat: 41.1, Lng: -73.8},
	}}
	cache := NewCityCache(store)

	cache.Warm(context.Background())

	_, ok := cache.Lookup("Smalltown", "US")
	assert.True(t, ok)

	// Seed entries survive warming.
	_, ok = cache.Lookup("Paris", "FR")
	assert.True(t, ok)
}

func TestCityCache_WarmFailureKeepsSeed(t *testing.T) {
	store := &mockCacheStore{loadErr: errors.New("relation does not exist")}
	cache := NewCityCache(store)

	cache.Warm(context.Background())

	_, ok := cache.Lookup("Paris", "FR")
	assert.True(t, ok)
}
