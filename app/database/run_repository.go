package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// RunRepo appends to the pipeline run ledger. Rows are created at run start
// and closed exactly once; nothing else mutates them.
type RunRepo struct {
	db *DB
}

var _ RunRepository = (*RunRepo)(nil)

func NewRunRepository(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// StartRun writes the running record and returns its id.
func (r *RunRepo) StartRun() (string, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO pipeline_runs (id, status)
		VALUES ($1, $2)
	`, id, RunStatusRunning)

	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

func (r *RunRepo) CompleteRun(id string, counters RunCounters, note string) error {
	return r.finishRun(id, RunStatusCompleted, counters, note)
}

func (r *RunRepo) FailRun(id string, counters RunCounters, message string) error {
	return r.finishRun(id, RunStatusFailed, counters, message)
}

func (r *RunRepo) finishRun(id, status string, counters RunCounters, note string) error {
	result, err := r.db.Exec(`
		UPDATE pipeline_runs
		SET completed_at = NOW(), status = $2, regions_processed = $3,
			listings_found = $4, tournaments_written = $5, errors = $6, note = $7
		WHERE id = $1 AND status = $8
	`, id, status, counters.RegionsProcessed, counters.ListingsFound,
		counters.TournamentsWritten, counters.Errors, note, RunStatusRunning)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s is not in running state", id)
	}
	return nil
}

func (r *RunRepo) GetRun(id string) (*PipelineRun, error) {
	row := r.db.QueryRow(`
		SELECT id, started_at, completed_at, status, regions_processed,
			listings_found, tournaments_written, errors, note
		FROM pipeline_runs
		WHERE id = $1
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) ListRuns(limit int) ([]PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, started_at, completed_at, status, regions_processed,
			listings_found, tournaments_written, errors, note
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (*PipelineRun, error) {
	var (
		run         PipelineRun
		completedAt sql.NullTime
	)

	err := row.Scan(
		&run.ID, &run.StartedAt, &completedAt, &run.Status,
		&run.Counters.RegionsProcessed, &run.Counters.ListingsFound,
		&run.Counters.TournamentsWritten, &run.Counters.Errors, &run.Note,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}
