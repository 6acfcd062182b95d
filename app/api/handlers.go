package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openchess/tourmap/app/database"
	"github.com/openchess/tourmap/app/pipeline"
	"github.com/openchess/tourmap/app/sources"
)

const (
	defaultTournamentLimit = 100
	maxTournamentLimit     = 500
	defaultRunsLimit       = 20
)

func NewHandler(configCache *sources.ConfigCache, tournamentRepo database.TournamentRepository,
	runRepo database.RunRepository, runner RunnerInterface) *Handler {
	return &Handler{
		tournamentRepo: tournamentRepo,
		runRepo:        runRepo,
		configCache:    configCache,
		runner:         runner,
	}
}

func (h *Handler) TriggerRun(c *gin.Context) {
	runID, err := h.runner.Launch(c.Request.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
			return
		}
		slog.Error("Failed to start pipeline run", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to start run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": runID,
		"status": database.RunStatusRunning,
	})
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.runRepo.ListRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse(run))
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  out,
		"total": len(out),
	})
}

func (h *Handler) GetRunByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing run id parameter"})
		return
	}

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, runResponse(*run))
}

func (h *Handler) ListTournaments(c *gin.Context) {
	filter := database.TournamentFilter{
		Source:  c.Query("source"),
		Country: c.Query("country"),
		Limit:   defaultTournamentLimit,
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		filter.Limit = n
	}
	if filter.Limit > maxTournamentLimit {
		filter.Limit = maxTournamentLimit
	}

	if raw := c.Query("from"); raw != "" {
		from, err := parseFromDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from parameter, use YYYY-MM-DD or RFC 3339"})
			return
		}
		filter.From = &from
	}

	tournaments, err := h.tournamentRepo.ListPublished(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_tournaments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(tournaments))
	for _, t := range tournaments {
		out = append(out, tournamentResponse(t))
	}

	c.JSON(http.StatusOK, gin.H{
		"tournaments": out,
		"total":       len(out),
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.tournamentRepo.GetCount(); err == nil {
		health["tournaments"] = count
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"loaded_configurations": h.configCache.GetConfigCount(),
	}

	if count, err := h.tournamentRepo.GetCount(); err == nil {
		stats["tournaments"] = count
	}

	srcs := make([]gin.H, 0)
	for _, config := range h.configCache.GetConfigs() {
		srcs = append(srcs, gin.H{
			"name":    config.Name,
			"kind":    config.Kind,
			"enabled": config.Settings.Enabled,
			"regions": len(config.Regions),
		})
	}
	stats["sources"] = srcs

	if runs, err := h.runRepo.ListRuns(1); err == nil && len(runs) > 0 {
		stats["last_run"] = runResponse(runs[0])
	}

	c.JSON(http.StatusOK, stats)
}

func runResponse(run database.PipelineRun) gin.H {
	out := gin.H{
		"id":         run.ID,
		"status":     run.Status,
		"started_at": run.StartedAt.Format(time.RFC3339),
		"counters": gin.H{
			"regions_processed":   run.Counters.RegionsProcessed,
			"listings_found":      run.Counters.ListingsFound,
			"tournaments_written": run.Counters.TournamentsWritten,
			"errors":              run.Counters.Errors,
		},
	}
	if run.CompletedAt != nil {
		out["completed_at"] = run.CompletedAt.Format(time.RFC3339)
	}
	if run.Note != "" {
		out["note"] = run.Note
	}
	return out
}

func tournamentResponse(t database.Tournament) gin.H {
	out := gin.H{
		"id":           t.ID,
		"source":       t.Source,
		"name":         t.Name,
		"category":     t.Category,
		"rated":        t.Rated,
		"start_date":   t.StartDate.Format("2006-01-02"),
		"location":     t.LocationText,
		"city":         t.City,
		"country":      t.Country,
		"status":       t.Status,
		"source_url":   t.SourceURL,
		"time_control": t.TimeControl,
	}
	if t.EndDate != nil {
		out["end_date"] = t.EndDate.Format("2006-01-02")
	}
	if t.Rounds > 0 {
		out["rounds"] = t.Rounds
	}
	if t.Organizer != "" {
		out["organizer"] = t.Organizer
	}
	if t.Lat != nil && t.Lng != nil {
		out["lat"] = *t.Lat
		out["lng"] = *t.Lng
		out["geo_tier"] = string(t.GeoTier)
	}
	return out
}

func parseFromDate(raw string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, raw)
}
