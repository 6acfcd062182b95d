package database

import (
	"time"

	"github.com/openchess/tourmap/app/geo"
)

// Tournament publication statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusCompleted = "completed"
)

// Pipeline run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Tournament is the persisted canonical tournament record. At most one row
// exists per (Source, ExternalRef) pair.
type Tournament struct {
	ID          string // Database UUID, assigned at first insert
	Source      string
	ExternalRef string

	Name        string
	Category    string
	Rated       bool
	TimeControl string
	Rounds      int
	Organizer   string

	StartDate time.Time
	EndDate   *time.Time

	LocationText string // source's free text, preserved verbatim
	City         string
	State        string
	Country      string
	Lat          *float64
	Lng          *float64
	GeoTier      geo.Tier // set if and only if coordinates are set

	Status      string
	SourceURL   string
	FirstSeenAt time.Time
	UpdatedAt   time.Time
}

// PipelineRun is one ledger row per orchestrator invocation.
type PipelineRun struct {
	ID          string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string
	Counters    RunCounters
	Note        string
}

// RunCounters are the aggregate counters carried by a ledger record.
type RunCounters struct {
	RegionsProcessed   int
	ListingsFound      int
	TournamentsWritten int
	Errors             int
}
