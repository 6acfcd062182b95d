package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/openchess/tourmap/app/geo"
)

// TournamentRepo handles tournament table operations, including the
// insert-or-update decision the pipeline relies on for deduplication.
type TournamentRepo struct {
	db *DB
}

var _ TournamentRepository = (*TournamentRepo)(nil)

func NewTournamentRepository(db *DB) *TournamentRepo {
	return &TournamentRepo{db: db}
}

const tournamentColumns = `id, source, external_ref, name, category, rated, time_control,
	rounds, organizer, start_date, end_date, location_text, city, state, country,
	lat, lng, geo_tier, status, source_url, first_seen_at, updated_at`

// GetBySourceRef returns the tournament for a (source, external-reference)
// pair, or nil when no such row exists.
func (r *TournamentRepo) GetBySourceRef(source, externalRef string) (*Tournament, error) {
	row := r.db.QueryRow(`
		SELECT `+tournamentColumns+`
		FROM tournaments
		WHERE source = $1 AND external_ref = $2
	`, source, externalRef)

	t, err := scanTournament(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return t, nil
}

// Upsert inserts a new tournament or updates the existing row for the same
// (source, external-reference) pair. Stored coordinates are never downgraded:
// the incoming resolution replaces them only at equal or better tier rank.
// A first-sight insert that loses to a concurrent writer falls through to
// the update path. The update is guarded by the row's updated_at for
// optimistic concurrency and retried once on conflict; losing both attempts
// is reported as an error so the run counts the skipped record.
func (r *TournamentRepo) Upsert(t Tournament) (UpsertResult, error) {
	existing, err := r.GetBySourceRef(t.Source, t.ExternalRef)
	if err != nil {
		return UpsertResult{}, err
	}

	if existing == nil {
		id, inserted, err := r.insert(t)
		if err != nil {
			return UpsertResult{}, err
		}
		if inserted {
			return UpsertResult{ID: id, Inserted: true}, nil
		}
		// A concurrent writer inserted this pair first; update its row.
		existing, err = r.GetBySourceRef(t.Source, t.ExternalRef)
		if err != nil {
			return UpsertResult{}, err
		}
		if existing == nil {
			return UpsertResult{}, fmt.Errorf("tournament %s/%s vanished after insert conflict", t.Source, t.ExternalRef)
		}
	}

	merged := mergeForUpdate(*existing, t)
	updated, err := r.update(merged, existing.UpdatedAt)
	if err != nil {
		return UpsertResult{}, err
	}
	if !updated {
		// Concurrent writer got there first; re-read and retry once.
		current, err := r.GetBySourceRef(t.Source, t.ExternalRef)
		if err != nil {
			return UpsertResult{}, err
		}
		if current == nil {
			return UpsertResult{}, fmt.Errorf("tournament %s/%s vanished during update", t.Source, t.ExternalRef)
		}
		merged = mergeForUpdate(*current, t)
		updated, err = r.update(merged, current.UpdatedAt)
		if err != nil {
			return UpsertResult{}, err
		}
		if !updated {
			return UpsertResult{}, fmt.Errorf("tournament %s/%s: update lost two concurrent races", t.Source, t.ExternalRef)
		}
	}

	return UpsertResult{ID: existing.ID, Inserted: false}, nil
}

// mergeForUpdate overlays the incoming draft onto the stored row. All
// descriptive fields take the incoming value; coordinates keep whichever
// side holds the better (or equal-rank fresher) resolution.
func mergeForUpdate(existing, incoming Tournament) Tournament {
	merged := incoming
	merged.ID = existing.ID
	merged.FirstSeenAt = existing.FirstSeenAt

	if incoming.GeoTier.Rank() < existing.GeoTier.Rank() {
		merged.Lat = existing.Lat
		merged.Lng = existing.Lng
		merged.GeoTier = existing.GeoTier
	}
	return merged
}

// insert writes a first-sight row. The bool result is false when another
// writer inserted the same (source, external_ref) pair concurrently.
func (r *TournamentRepo) insert(t Tournament) (string, bool, error) {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}

	result, err := r.db.Exec(`
		INSERT INTO tournaments (
			id, source, external_ref, name, category, rated, time_control,
			rounds, organizer, start_date, end_date, location_text, city, state,
			country, lat, lng, geo_tier, status, source_url, first_seen_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, NOW(), NOW())
		ON CONFLICT (source, external_ref) DO NOTHING
	`, id, t.Source, t.ExternalRef, t.Name, t.Category, t.Rated, t.TimeControl,
		t.Rounds, t.Organizer, t.StartDate, t.EndDate, t.LocationText, t.City, t.State,
		t.Country, t.Lat, t.Lng, tierValue(t.GeoTier), t.Status, t.SourceURL)

	if err != nil {
		return "", false, fmt.Errorf("failed to insert tournament: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return id, affected > 0, nil
}

func (r *TournamentRepo) update(t Tournament, prevUpdatedAt interface{}) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE tournaments
		SET name = $2, category = $3, rated = $4, time_control = $5, rounds = $6,
			organizer = $7, start_date = $8, end_date = $9, location_text = $10,
			city = $11, state = $12, country = $13, lat = $14, lng = $15,
			geo_tier = $16, status = $17, source_url = $18, updated_at = NOW()
		WHERE id = $1 AND updated_at = $19
	`, t.ID, t.Name, t.Category, t.Rated, t.TimeControl, t.Rounds,
		t.Organizer, t.StartDate, t.EndDate, t.LocationText,
		t.City, t.State, t.Country, t.Lat, t.Lng,
		tierValue(t.GeoTier), t.Status, t.SourceURL, prevUpdatedAt)

	if err != nil {
		return false, fmt.Errorf("failed to update tournament: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// ListPublished returns published tournaments for the web layer, newest
// start date first.
func (r *TournamentRepo) ListPublished(filter TournamentFilter) ([]Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1`
	args := []interface{}{StatusPublished}

	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.Country != "" {
		args = append(args, filter.Country)
		query += fmt.Sprintf(" AND country = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND start_date >= $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY start_date DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *TournamentRepo) GetCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tournaments").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get tournament count: %w", err)
	}
	return count, nil
}

// tierValue maps the none tier to SQL NULL so the geo_tier column is set
// if and only if coordinates are.
func tierValue(t geo.Tier) sql.NullString {
	if t == "" || t == geo.TierNone {
		return sql.NullString{}
	}
	return sql.NullString{String: string(t), Valid: true}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row rowScanner) (*Tournament, error) {
	var (
		t       Tournament
		endDate sql.NullTime
		lat     sql.NullFloat64
		lng     sql.NullFloat64
		tier    sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.Source, &t.ExternalRef, &t.Name, &t.Category, &t.Rated,
		&t.TimeControl, &t.Rounds, &t.Organizer, &t.StartDate, &endDate,
		&t.LocationText, &t.City, &t.State, &t.Country, &lat, &lng, &tier,
		&t.Status, &t.SourceURL, &t.FirstSeenAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		t.EndDate = &endDate.Time
	}
	if lat.Valid {
		t.Lat = &lat.Float64
	}
	if lng.Valid {
		t.Lng = &lng.Float64
	}
	if tier.Valid {
		t.GeoTier = geo.Tier(tier.String)
	} else {
		t.GeoTier = geo.TierNone
	}

	return &t, nil
}
