package geo

// Tier identifies the strategy that produced a coordinate resolution,
// ranked by precision.
type Tier string

const (
	TierExact          Tier = "exact"
	TierCityCache      Tier = "city-cache"
	TierGeocoder       Tier = "geocoder"
	TierRegionCentroid Tier = "region-centroid"
	TierNone           Tier = "none"
)

// Rank orders tiers by precision. Higher is better. Used by the upsert
// engine to refuse coordinate downgrades across runs.
func (t Tier) Rank() int {
	switch t {
	case TierExact:
		return 4
	case TierCityCache:
		return 3
	case TierGeocoder:
		return 2
	case TierRegionCentroid:
		return 1
	default:
		return 0
	}
}

type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point lies within latitude/longitude bounds.
// The zero point is treated as invalid; no tournament venue sits at
// null island.
func (p Point) Valid() bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Location is the normalized place description the resolver works from.
// Raw preserves the source's free text verbatim for audit.
type Location struct {
	Address string // full venue address, organizer-submitted listings only
	City    string
	State   string
	Country string // ISO 3166-1 alpha-2
	Raw     string
}

type Resolution struct {
	Point Point
	Tier  Tier
}

// Resolved reports whether the resolution carries usable coordinates.
func (r Resolution) Resolved() bool {
	return r.Tier != TierNone
}
