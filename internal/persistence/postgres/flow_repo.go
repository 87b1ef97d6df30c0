package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type flowObservationsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFlowObservationsRepo creates a Postgres-backed FlowObservationsRepo.
func NewFlowObservationsRepo(db *sqlx.DB, timeout time.Duration) persistence.FlowObservationsRepo {
	return &flowObservationsRepo{db: db, timeout: timeout}
}

func (r *flowObservationsRepo) QueryFlowObservations(ctx context.Context, flowType string, startDate, endDate domain.Date, asOf time.Time) ([]domain.FlowRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (observation_date)
			flow_type, observation_date, value, release_time, revision_number, source
		FROM flow_observations
		WHERE flow_type = $1
		  AND observation_date >= $2 AND observation_date <= $3
		  AND release_time <= $4
		ORDER BY observation_date, revision_number DESC`

	rows, err := r.db.QueryxContext(ctx, query, flowType, startDate.Time(), endDate.Time(), asOf)
	if err != nil {
		return nil, fmt.Errorf("query flow observations for %s: %w", flowType, err)
	}
	defer rows.Close()

	var out []domain.FlowRecord
	for rows.Next() {
		var (
			rec     domain.FlowRecord
			obsDate time.Time
		)
		if err := rows.Scan(&rec.FlowType, &obsDate, &rec.Value, &rec.ReleaseTime, &rec.RevisionNumber, &rec.Source); err != nil {
			return nil, fmt.Errorf("scan flow observation for %s: %w", flowType, err)
		}
		rec.ObservationDate = domain.NewDate(obsDate)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow observations for %s: %w", flowType, err)
	}
	return out, nil
}
