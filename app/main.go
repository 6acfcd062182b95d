package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/openchess/tourmap/app/api"
	"github.com/openchess/tourmap/app/cfg"
	"github.com/openchess/tourmap/app/crawl"
	"github.com/openchess/tourmap/app/database"
	"github.com/openchess/tourmap/app/geo"
	"github.com/openchess/tourmap/app/normalize"
	"github.com/openchess/tourmap/app/pipeline"
	"github.com/openchess/tourmap/app/schedule"
	"github.com/openchess/tourmap/app/sources"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting Tourmap server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort,
		appCfg.DBUser, appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	tournamentRepo := database.NewTournamentRepository(db)
	geocodeRepo := database.NewGeocodeCacheRepository(db)
	runRepo := database.NewRunRepository(db)

	configCache := sources.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	resolver := buildResolver(appCfg, geocodeRepo)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	buildSource := func(config *sources.Config) (crawl.Source, error) {
		switch config.Kind {
		case sources.KindHTML:
			return crawl.NewHTMLSource(config, httpClient, appCfg.UserAgent), nil
		case sources.KindRSS:
			return crawl.NewRSSSource(config, httpClient, appCfg.UserAgent), nil
		default:
			return nil, fmt.Errorf("unknown source kind %q", config.Kind)
		}
	}

	orchestrator := pipeline.NewOrchestrator(configCache, buildSource,
		normalize.NewNormalizer(), resolver, tournamentRepo, runRepo, db,
		appCfg.WorkerCount, time.Duration(appCfg.RunBudget)*time.Minute,
		clockwork.NewRealClock())

	scheduler := schedule.NewScheduler(orchestrator,
		time.Duration(appCfg.ScheduleInterval)*time.Minute)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, tournamentRepo, runRepo, orchestrator)
	router := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// buildResolver assembles the tiered coordinate resolution chain. The exact
// tier only participates when a precise geocoder key is configured; the
// remaining tiers are always present.
func buildResolver(appCfg *cfg.Cfg, geocodeRepo database.GeocodeCacheRepository) *geo.Resolver {
	geocoderTimeout := time.Duration(appCfg.GeocoderTimeout) * time.Second

	cityCache := geo.NewCityCache(geocodeRepo)
	warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cityCache.Warm(warmCtx)
	cancel()
	slog.Info("Geocode cache warmed", "entries", cityCache.Len())

	freeClient := geo.NewFreeClient(appCfg.FreeGeocoderURL, appCfg.UserAgent,
		appCfg.ContactEmail, geocoderTimeout)
	limiter := geo.NewLimiter(time.Duration(appCfg.GeocoderInterval)*time.Millisecond,
		clockwork.NewRealClock())

	var strategies []geo.Strategy
	if appCfg.PreciseGeocoderKey != "" {
		preciseClient := geo.NewPreciseClient(appCfg.PreciseGeocoderURL,
			appCfg.PreciseGeocoderKey, appCfg.UserAgent, geocoderTimeout)
		strategies = append(strategies, geo.NewExactStrategy(preciseClient))
	} else {
		slog.Warn("Precise geocoder key not set, exact tier disabled")
	}

	strategies = append(strategies,
		geo.NewCacheStrategy(cityCache),
		geo.NewGeocoderStrategy(freeClient, limiter, cityCache),
		geo.NewCentroidStrategy(geo.NewCentroids()),
	)

	return geo.NewResolver(strategies...)
}
