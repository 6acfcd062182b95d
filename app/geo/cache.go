package geo

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// CacheStore is the persistence behind the city cache. Entries survive
// across runs as an optimization; correctness never depends on it.
type CacheStore interface {
	LoadAll(ctx context.Context) (map[string]Point, error)
	Put(ctx context.Context, key string, p Point) error
}

// CityCache maps normalized place keys to coordinates. It is seeded from a
// curated table of well-known chess-hub cities, warmed from the store at
// startup, and written through on every successful external resolution.
// Reads vastly outnumber writes; writes are idempotent upserts of the same
// computed value, so racing writers are harmless.
type CityCache struct {
	store CacheStore

	mu      sync.RWMutex
	entries map[string]Point
}

// CacheKey normalizes a city plus optional country code into the cache key.
func CacheKey(city, country string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + strings.ToLower(strings.TrimSpace(country))
}

// NewCityCache creates a cache pre-seeded with the curated city table.
// store may be nil (memory-only cache).
func NewCityCache(store CacheStore) *CityCache {
	entries := make(map[string]Point, len(seedCities))
	for k, v := range seedCities {
		entries[k] = v
	}
	return &CityCache{
		store:   store,
		entries: entries,
	}
}

// Warm loads persisted entries into memory. Failures are logged and
// swallowed; the seed table still serves.
func (c *CityCache) Warm(ctx context.Context) {
	if c.store == nil {
		return
	}

	persisted, err := c.store.LoadAll(ctx)
	if err != nil {
		slog.Warn("Failed to warm geocode cache from store", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range persisted {
		c.entries[k] = v
	}
	slog.Debug("Geocode cache warmed", "persisted_entries", len(persisted), "total", len(c.entries))
}

// Lookup returns coordinates for an exact case-insensitive city match,
// trying the city+country key first, then a city-only entry.
func (c *CityCache) Lookup(city, country string) (Point, bool) {
	if strings.TrimSpace(city) == "" {
		return Point{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.entries[CacheKey(city, country)]; ok {
		return p, true
	}
	if country != "" {
		if p, ok := c.entries[CacheKey(city, "")]; ok {
			return p, true
		}
	}
	return Point{}, false
}

// Store records a resolution in memory and writes it through to the store.
// Store failures are logged and swallowed; the in-memory entry still serves
// for the rest of the run.
func (c *CityCache) Store(ctx context.Context, city, country string, p Point) {
	if strings.TrimSpace(city) == "" || !p.Valid() {
		return
	}
	key := CacheKey(city, country)

	c.mu.Lock()
	c.entries[key] = p
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, key, p); err != nil {
		slog.Warn("Failed to persist geocode cache entry", "key", key, "error", err)
	}
}

// Len returns the number of cached entries, seed cities included.
func (c *CityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// seedCities covers cities that host a disproportionate share of listed
// tournaments, so the bulk of crawled listings never reach the rate-limited
// geocoder.
var seedCities = map[string]Point{
	"new york|us":         {40.7128, -74.0060},
	"saint louis|us":      {38.6270, -90.1994},
	"chicago|us":          {41.8781, -87.6298},
	"philadelphia|us":     {39.9526, -75.1652},
	"los angeles|us":      {34.0522, -118.2437},
	"dallas|us":           {32.7767, -96.7970},
	"charlotte|us":        {35.2271, -80.8431},
	"london|gb":           {51.5074, -0.1278},
	"paris|fr":            {48.8566, 2.3522},
	"berlin|de":           {52.5200, 13.4050},
	"dortmund|de":         {51.5136, 7.4653},
	"wijk aan zee|nl":     {52.4931, 4.6020},
	"amsterdam|nl":        {52.3676, 4.9041},
	"madrid|es":           {40.4168, -3.7038},
	"linares|es":          {38.0934, -3.6351},
	"reykjavik|is":        {64.1466, -21.9426},
	"stavanger|no":        {58.9700, 5.7331},
	"moscow|ru":           {55.7558, 37.6173},
	"saint petersburg|ru": {59.9311, 30.3609},
	"baku|az":             {40.4093, 49.8671},
	"batumi|ge":           {41.6168, 41.6367},
	"yerevan|am":          {40.1792, 44.4991},
	"astana|kz":           {51.1694, 71.4491},
	"chennai|in":          {13.0827, 80.2707},
	"kolkata|in":          {22.5726, 88.3639},
	"mumbai|in":           {19.0760, 72.8777},
	"new delhi|in":        {28.6139, 77.2090},
	"singapore|sg":        {1.3521, 103.8198},
	"sydney|au":           {-33.8688, 151.2093},
	"toronto|ca":          {43.6532, -79.3832},
	"montreal|ca":         {45.5017, -73.5673},
	"sao paulo|br":        {-23.5505, -46.6333},
	"buenos aires|ar":     {-34.6037, -58.3816},
}
