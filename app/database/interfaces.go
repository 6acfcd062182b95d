package database

import (
	"context"
	"time"

	"github.com/openchess/tourmap/app/geo"
)

// UpsertResult reports what the upsert engine did with a draft.
type UpsertResult struct {
	ID       string
	Inserted bool
}

// TournamentFilter narrows ListPublished results.
type TournamentFilter struct {
	Source  string
	Country string
	From    *time.Time
	Limit   int
}

type TournamentRepository interface {
	GetBySourceRef(source, externalRef string) (*Tournament, error)
	Upsert(t Tournament) (UpsertResult, error)
	ListPublished(filter TournamentFilter) ([]Tournament, error)
	GetCount() (int, error)
}

type GeocodeCacheRepository interface {
	LoadAll(ctx context.Context) (map[string]geo.Point, error)
	Put(ctx context.Context, key string, p geo.Point) error
}

type RunRepository interface {
	StartRun() (string, error)
	CompleteRun(id string, counters RunCounters, note string) error
	FailRun(id string, counters RunCounters, message string) error
	GetRun(id string) (*PipelineRun, error)
	ListRuns(limit int) ([]PipelineRun, error)
}
