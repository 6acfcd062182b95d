package api

import (
	"context"

	"github.com/openchess/tourmap/app/database"
	"github.com/openchess/tourmap/app/sources"
)

// RunnerInterface starts a pipeline run in the background and returns its
// ledger id once the running record exists.
type RunnerInterface interface {
	Launch(ctx context.Context) (string, error)
}

type Handler struct {
	tournamentRepo database.TournamentRepository
	runRepo        database.RunRepository
	configCache    *sources.ConfigCache
	runner         RunnerInterface
}
