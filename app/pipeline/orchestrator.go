package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/openchess/tourmap/app/crawl"
	"github.com/openchess/tourmap/app/database"
	"github.com/openchess/tourmap/app/geo"
	"github.com/openchess/tourmap/app/normalize"
	"github.com/openchess/tourmap/app/sources"
)

// ErrRunInProgress is returned when a run is triggered while another is
// still executing.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Resolver is the coordinate resolution surface the orchestrator needs.
type Resolver interface {
	Resolve(ctx context.Context, loc geo.Location) geo.Resolution
}

// Pinger verifies the store is reachable before a run commits to crawling.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SourceBuilder constructs the crawler adapter for a source configuration.
type SourceBuilder func(config *sources.Config) (crawl.Source, error)

// Orchestrator sequences one pipeline run: crawl each configured region up
// to its target, normalize, resolve coordinates, upsert, and bookend the
// whole thing in the run ledger. One run executes at a time.
type Orchestrator struct {
	configCache *sources.ConfigCache
	buildSource SourceBuilder
	normalizer  *normalize.Normalizer
	resolver    Resolver
	tournaments database.TournamentRepository
	runs        database.RunRepository
	store       Pinger
	workerCount int
	budget      time.Duration
	clock       clockwork.Clock

	running atomic.Bool
}

func NewOrchestrator(configCache *sources.ConfigCache, buildSource SourceBuilder,
	normalizer *normalize.Normalizer, resolver Resolver,
	tournaments database.TournamentRepository, runs database.RunRepository,
	store Pinger, workerCount int, budget time.Duration, clock clockwork.Clock) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Orchestrator{
		configCache: configCache,
		buildSource: buildSource,
		normalizer:  normalizer,
		resolver:    resolver,
		tournaments: tournaments,
		runs:        runs,
		store:       store,
		workerCount: workerCount,
		budget:      budget,
		clock:       clock,
	}
}

// Launch starts a run in the background and returns its ledger id as soon
// as the running record is written. The trigger endpoint reports success
// from here on regardless of the run's eventual outcome.
func (o *Orchestrator) Launch(ctx context.Context) (string, error) {
	if !o.running.CompareAndSwap(false, true) {
		return "", ErrRunInProgress
	}

	runID, err := o.begin(ctx)
	if err != nil {
		o.running.Store(false)
		return "", err
	}

	// The trigger request's context dies with the response; the run
	// itself must not.
	go func() {
		defer o.running.Store(false)
		o.run(context.Background(), runID)
	}()

	return runID, nil
}

// Execute runs the pipeline synchronously. Used by the internal scheduler
// and tests; Launch is the HTTP trigger's path.
func (o *Orchestrator) Execute(ctx context.Context) (string, error) {
	if !o.running.CompareAndSwap(false, true) {
		return "", ErrRunInProgress
	}
	defer o.running.Store(false)

	runID, err := o.begin(ctx)
	if err != nil {
		return "", err
	}

	o.run(ctx, runID)
	return runID, nil
}

// begin verifies the store is reachable and writes the running ledger
// record. Failure here is run-fatal: there is nowhere to record anything.
func (o *Orchestrator) begin(ctx context.Context) (string, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := o.store.PingContext(pingCtx); err != nil {
		return "", fmt.Errorf("store unreachable: %w", err)
	}

	runID, err := o.runs.StartRun()
	if err != nil {
		return "", fmt.Errorf("failed to open run ledger: %w", err)
	}

	slog.Info("Pipeline run started", "run_id", runID, "budget", o.budget.String())
	return runID, nil
}

// run executes the crawl and guarantees a terminal ledger record, even on
// panic. Ledger-write failures are logged and swallowed; observability
// never masks the pipeline's actual outcome.
func (o *Orchestrator) run(ctx context.Context, runID string) {
	stats := NewRunStats()
	started := o.clock.Now()

	var fatal error
	defer func() {
		if r := recover(); r != nil {
			fatal = fmt.Errorf("panic: %v", r)
		}
		counters := stats.Counters()
		duration := o.clock.Since(started)

		if fatal != nil {
			slog.Error("Pipeline run failed", "run_id", runID, "duration", duration, "error", fatal)
			if err := o.runs.FailRun(runID, counters, fatal.Error()); err != nil {
				slog.Warn("Failed to write terminal run record", "run_id", runID, "error", err)
			}
			return
		}

		slog.Info("Pipeline run completed", "run_id", runID, "duration", duration,
			"regions", counters.RegionsProcessed, "listings", counters.ListingsFound,
			"written", counters.TournamentsWritten, "errors", counters.Errors)
		if err := o.runs.CompleteRun(runID, counters, stats.Note()); err != nil {
			slog.Warn("Failed to write terminal run record", "run_id", runID, "error", err)
		}
	}()

	fatal = o.crawlAll(ctx, stats, started.Add(o.budget))
}

type regionJob struct {
	src    crawl.Source
	region sources.Region
}

func (o *Orchestrator) crawlAll(ctx context.Context, stats *RunStats, deadline time.Time) error {
	configs := o.configCache.GetEnabledConfigs()

	var jobs []regionJob
	for _, config := range configs {
		src, err := o.buildSource(config)
		if err != nil {
			slog.Error("Failed to build source adapter", "source", config.Name, "error", err)
			stats.AddError()
			continue
		}
		for _, region := range config.Regions {
			jobs = append(jobs, regionJob{src: src, region: region})
		}
	}

	if len(jobs) == 0 {
		return errors.New("no enabled sources configured")
	}

	// Bounded parallelism across regions; pages within a region stay
	// sequential because listing sources paginate statefully.
	jobCh := make(chan regionJob)
	var wg sync.WaitGroup

	workers := o.workerCount
	if workers > len(jobs) {
		workers = len(jobs)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if o.pastDeadline(deadline) {
					stats.MarkBudgetExceeded()
					continue
				}
				o.scanRegion(ctx, job, stats, deadline)
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	if stats.ListingsFound() == 0 && stats.Errors() > 0 {
		return fmt.Errorf("no listings acquired from any source (%d errors)", stats.Errors())
	}
	return nil
}

// scanRegion drains one region's scan up to its target count. Page errors
// are counted and the scan continues when it can; a region ending short of
// target is a shortfall, not a failure. The deadline is checked between
// pages only, so an in-flight page always finishes.
func (o *Orchestrator) scanRegion(ctx context.Context, job regionJob, stats *RunStats, deadline time.Time) {
	log := slog.With("source", job.src.Name(), "region", job.region.Code)
	scan := job.src.Scan(job.region.Code)

	count := 0
	for count < job.region.Target {
		if ctx.Err() != nil {
			log.Warn("Run cancelled mid-region")
			break
		}
		if o.pastDeadline(deadline) {
			stats.MarkBudgetExceeded()
			log.Warn("Wall-clock budget exceeded, stopping region early", "listings", count)
			break
		}

		listings, more, err := scan.Next(ctx)
		if err != nil {
			stats.AddError()
			log.Warn("Listing page failed", "error", err)
			if !more {
				break
			}
			continue
		}

		for _, raw := range listings {
			if count >= job.region.Target {
				break
			}
			count++
			stats.AddListings(1)
			o.processListing(ctx, raw, job, stats, log)
		}

		if !more {
			break
		}
	}

	if count < job.region.Target {
		stats.AddShortfall(job.src.Name()+"/"+job.region.Code, count, job.region.Target)
	}
	stats.RegionProcessed()
	log.Debug("Region scan finished", "listings", count, "target", job.region.Target)
}

func (o *Orchestrator) processListing(ctx context.Context, raw crawl.RawListing, job regionJob, stats *RunStats, log *slog.Logger) {
	draft, err := o.normalizer.Run(raw, job.src.Name(), job.region)
	if err != nil {
		stats.AddError()
		log.Debug("Listing rejected by normalizer", "name", raw.Name, "error", err)
		return
	}

	res := o.resolver.Resolve(ctx, draft.Location)

	if _, err := o.tournaments.Upsert(draftToTournament(draft, res)); err != nil {
		stats.AddError()
		log.Warn("Failed to upsert tournament", "external_ref", draft.ExternalRef, "error", err)
		return
	}
	stats.AddWritten()
}

func (o *Orchestrator) pastDeadline(deadline time.Time) bool {
	return o.budget > 0 && !o.clock.Now().Before(deadline)
}

func draftToTournament(draft normalize.Draft, res geo.Resolution) database.Tournament {
	t := database.Tournament{
		Source:       draft.Source,
		ExternalRef:  draft.ExternalRef,
		Name:         draft.Name,
		Category:     draft.Category,
		Rated:        draft.Rated,
		TimeControl:  draft.TimeControl,
		Rounds:       draft.Rounds,
		Organizer:    draft.Organizer,
		StartDate:    draft.StartDate,
		EndDate:      draft.EndDate,
		LocationText: draft.Location.Raw,
		City:         draft.Location.City,
		State:        draft.Location.State,
		Country:      draft.Location.Country,
		GeoTier:      geo.TierNone,
		Status:       database.StatusPublished,
		SourceURL:    draft.SourceURL,
	}

	if res.Resolved() {
		lat, lng := res.Point.Lat, res.Point.Lng
		t.Lat = &lat
		t.Lng = &lng
		t.GeoTier = res.Tier
	}

	return t
}
