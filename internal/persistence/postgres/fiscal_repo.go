package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type fiscalObservationsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFiscalObservationsRepo creates a Postgres-backed FiscalObservationsRepo.
func NewFiscalObservationsRepo(db *sqlx.DB, timeout time.Duration) persistence.FiscalObservationsRepo {
	return &fiscalObservationsRepo{db: db, timeout: timeout}
}

func (r *fiscalObservationsRepo) QueryFiscalObservations(ctx context.Context, fiscalMetric string, startDate, endDate domain.Date, asOf time.Time) ([]domain.FiscalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (observation_date)
			fiscal_metric, observation_date, value, release_time, revision_number, source
		FROM fiscal_observations
		WHERE fiscal_metric = $1
		  AND observation_date >= $2 AND observation_date <= $3
		  AND release_time <= $4
		ORDER BY observation_date, revision_number DESC`

	rows, err := r.db.QueryxContext(ctx, query, fiscalMetric, startDate.Time(), endDate.Time(), asOf)
	if err != nil {
		return nil, fmt.Errorf("query fiscal observations for %s: %w", fiscalMetric, err)
	}
	defer rows.Close()

	var out []domain.FiscalRecord
	for rows.Next() {
		var (
			rec     domain.FiscalRecord
			obsDate time.Time
		)
		if err := rows.Scan(&rec.FiscalMetric, &obsDate, &rec.Value, &rec.ReleaseTime, &rec.RevisionNumber, &rec.Source); err != nil {
			return nil, fmt.Errorf("scan fiscal observation for %s: %w", fiscalMetric, err)
		}
		rec.ObservationDate = domain.NewDate(obsDate)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fiscal observations for %s: %w", fiscalMetric, err)
	}
	return out, nil
}
