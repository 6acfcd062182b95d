package database

import (
	"context"
	"fmt"

	"github.com/openchess/tourmap/app/geo"
)

// GeocodeCacheRepo persists resolved place keys across runs. Writes are
// idempotent upserts of the same computed value, so concurrent writers for
// one key cannot corrupt anything.
type GeocodeCacheRepo struct {
	db *DB
}

var _ GeocodeCacheRepository = (*GeocodeCacheRepo)(nil)

func NewGeocodeCacheRepository(db *DB) *GeocodeCacheRepo {
	return &GeocodeCacheRepo{db: db}
}

func (r *GeocodeCacheRepo) LoadAll(ctx context.Context) (map[string]geo.Point, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT place_key, lat, lng FROM geocode_cache")
	if err != nil {
		return nil, fmt.Errorf("failed to load geocode cache: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]geo.Point)
	for rows.Next() {
		var (
			key string
			p   geo.Point
		)
		if err := rows.Scan(&key, &p.Lat, &p.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan geocode cache row: %w", err)
		}
		entries[key] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating geocode cache rows: %w", err)
	}
	return entries, nil
}

func (r *GeocodeCacheRepo) Put(ctx context.Context, key string, p geo.Point) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (place_key, lat, lng)
		VALUES ($1, $2, $3)
		ON CONFLICT (place_key) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng
	`, key, p.Lat, p.Lng)

	if err != nil {
		return fmt.Errorf("failed to store geocode cache entry: %w", err)
	}
	return nil
}
