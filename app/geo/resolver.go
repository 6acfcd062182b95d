package geo

import (
	"context"
	"log/slog"
)

// Strategy is one rung of the tiered resolution ladder. Resolve returns
// (point, true, nil) on success, (_, false, nil) when the strategy does not
// apply or found nothing, and an error only for external service failures.
// Errors never abort resolution; the resolver logs them and falls through.
type Strategy interface {
	Tier() Tier
	Resolve(ctx context.Context, loc Location) (Point, bool, error)
}

// Resolver tries strategies in priority order (cheapest and most precise
// first) and stops at the first hit. The order is assembled at startup, not
// hard-coded, so tiers can be reordered or disabled per deployment.
type Resolver struct {
	strategies []Strategy
}

func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve always returns a result; tier none means even the centroid table
// had no entry for the location's region. It never returns an error.
func (r *Resolver) Resolve(ctx context.Context, loc Location) Resolution {
	for _, s := range r.strategies {
		p, ok, err := s.Resolve(ctx, loc)
		if err != nil {
			slog.Warn("Geocoding strategy failed, falling through",
				"tier", string(s.Tier()), "location", loc.Raw, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if !p.Valid() {
			slog.Warn("Geocoding strategy returned out-of-range coordinates, falling through",
				"tier", string(s.Tier()), "location", loc.Raw, "lat", p.Lat, "lng", p.Lng)
			continue
		}
		return Resolution{Point: p, Tier: s.Tier()}
	}
	return Resolution{Tier: TierNone}
}

// ExactStrategy queries the paid geocoder for organizer-submitted venue
// addresses. Listings without a venue address skip this tier entirely.
type ExactStrategy struct {
	client *PreciseClient
}

func NewExactStrategy(client *PreciseClient) *ExactStrategy {
	return &ExactStrategy{client: client}
}

func (s *ExactStrategy) Tier() Tier { return TierExact }

func (s *ExactStrategy) Resolve(ctx context.Context, loc Location) (Point, bool, error) {
	if loc.Address == "" {
		return Point{}, false, nil
	}
	return s.client.Geocode(ctx, loc.Address)
}

// CacheStrategy checks the city cache for an exact case-insensitive match.
// No external call is made at this tier.
type CacheStrategy struct {
	cache *CityCache
}

func NewCacheStrategy(cache *CityCache) *CacheStrategy {
	return &CacheStrategy{cache: cache}
}

func (s *CacheStrategy) Tier() Tier { return TierCityCache }

func (s *CacheStrategy) Resolve(_ context.Context, loc Location) (Point, bool, error) {
	p, ok := s.cache.Lookup(loc.City, loc.Country)
	return p, ok, nil
}

// GeocoderStrategy issues one rate-limited lookup against the free public
// geocoder for cities the cache has not seen. Successful results are
// written through the cache for reuse within and across runs.
type GeocoderStrategy struct {
	client  *FreeClient
	limiter *Limiter
	cache   *CityCache
}

func NewGeocoderStrategy(client *FreeClient, limiter *Limiter, cache *CityCache) *GeocoderStrategy {
	return &GeocoderStrategy{client: client, limiter: limiter, cache: cache}
}

func (s *GeocoderStrategy) Tier() Tier { return TierGeocoder }

func (s *GeocoderStrategy) Resolve(ctx context.Context, loc Location) (Point, bool, error) {
	if loc.City == "" {
		return Point{}, false, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return Point{}, false, err
	}

	p, ok, err := s.client.GeocodeCity(ctx, loc.City, loc.Country)
	if err != nil || !ok {
		return Point{}, false, err
	}

	s.cache.Store(ctx, loc.City, loc.Country, p)
	return p, true, nil
}

// CentroidStrategy is the deliberate accuracy-for-coverage fallback: a
// fixed representative coordinate for the tournament's state or country.
type CentroidStrategy struct {
	centroids *Centroids
}

func NewCentroidStrategy(centroids *Centroids) *CentroidStrategy {
	return &CentroidStrategy{centroids: centroids}
}

func (s *CentroidStrategy) Tier() Tier { return TierRegionCentroid }

func (s *CentroidStrategy) Resolve(_ context.Context, loc Location) (Point, bool, error) {
	p, ok := s.centroids.Lookup(loc.Country, loc.State)
	return p, ok, nil
}
