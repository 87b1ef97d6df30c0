package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type macroObservationsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMacroObservationsRepo creates a Postgres-backed MacroObservationsRepo.
func NewMacroObservationsRepo(db *sqlx.DB, timeout time.Duration) persistence.MacroObservationsRepo {
	return &macroObservationsRepo{db: db, timeout: timeout}
}

// QueryMacroObservations returns the maximum-revision row per
// observation_date whose release_time <= asOf, using Postgres DISTINCT ON
// to pick the winning vintage server-side rather than filtering in Go.
func (r *macroObservationsRepo) QueryMacroObservations(ctx context.Context, seriesCode string, startDate, endDate domain.Date, asOf time.Time) ([]domain.ObservationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (observation_date)
			series_id, observation_date, value, release_time, revision_number, source
		FROM macro_observations
		WHERE series_id = $1
		  AND observation_date >= $2 AND observation_date <= $3
		  AND release_time <= $4
		ORDER BY observation_date, revision_number DESC`

	rows, err := r.db.QueryxContext(ctx, query, seriesCode, startDate.Time(), endDate.Time(), asOf)
	if err != nil {
		return nil, fmt.Errorf("query macro observations for %s: %w", seriesCode, err)
	}
	defer rows.Close()

	var out []domain.ObservationRecord
	for rows.Next() {
		rec, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan macro observation for %s: %w", seriesCode, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate macro observations for %s: %w", seriesCode, err)
	}
	return out, nil
}

func scanObservation(rows *sqlx.Rows) (domain.ObservationRecord, error) {
	var (
		seriesID       string
		obsDate        time.Time
		value          *float64
		releaseTime    time.Time
		revisionNumber int
		source         string
	)
	if err := rows.Scan(&seriesID, &obsDate, &value, &releaseTime, &revisionNumber, &source); err != nil {
		return domain.ObservationRecord{}, err
	}
	return domain.ObservationRecord{
		SeriesID:        seriesID,
		ObservationDate: domain.NewDate(obsDate),
		Value:           value,
		ReleaseTime:     releaseTime,
		RevisionNumber:  revisionNumber,
		Source:          source,
	}, nil
}
