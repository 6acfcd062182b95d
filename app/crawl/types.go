package crawl

import "context"

// RawListing is a source-specific, weakly-typed record exactly as scraped.
// It exists only between the crawler and the normalizer; nothing persists it.
type RawListing struct {
	SourceID    string // the source's own listing id, when it exposes one
	Name        string
	URL         string
	StartRaw    string
	EndRaw      string
	LocationRaw string // free-text "city, state, country" as the source prints it
	VenueRaw    string // full venue address, organizer-submitted listings only
	Organizer   string
	CategoryRaw string
	TimeCtrlRaw string
	RoundsRaw   string
	RatedRaw    string
}

// Scan is a lazy, finite, non-restartable page sequence over one region.
// Next returns one page of listings; more=false means the scan is exhausted.
// A non-nil error with more=true means this page failed but the scan can
// still advance, so the caller may count the error and keep draining.
type Scan interface {
	Next(ctx context.Context) (listings []RawListing, more bool, err error)
}

// Source fetches listings from one external listing site. Implementations
// make outbound HTTP calls only; they never touch the store.
type Source interface {
	Name() string
	Scan(regionCode string) Scan
}
