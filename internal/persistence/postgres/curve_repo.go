package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type curvePointsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewCurvePointsRepo creates a Postgres-backed CurvePointsRepo.
func NewCurvePointsRepo(db *sqlx.DB, timeout time.Duration) persistence.CurvePointsRepo {
	return &curvePointsRepo{db: db, timeout: timeout}
}

func (r *curvePointsRepo) QueryCurvePoints(ctx context.Context, curveID string, startDate, endDate domain.Date) ([]domain.CurveRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT curve_id, curve_date, tenor_days, tenor_label, rate, curve_type
		FROM curve_points
		WHERE curve_id = $1
		  AND curve_date >= $2 AND curve_date <= $3
		ORDER BY curve_date, tenor_days`

	rows, err := r.db.QueryxContext(ctx, query, curveID, startDate.Time(), endDate.Time())
	if err != nil {
		return nil, fmt.Errorf("query curve points for %s: %w", curveID, err)
	}
	defer rows.Close()

	var out []domain.CurveRecord
	for rows.Next() {
		var (
			rec       domain.CurveRecord
			curveDate time.Time
		)
		if err := rows.Scan(&rec.CurveID, &curveDate, &rec.TenorDays, &rec.TenorLabel, &rec.Rate, &rec.CurveType); err != nil {
			return nil, fmt.Errorf("scan curve point for %s: %w", curveID, err)
		}
		rec.CurveDate = domain.NewDate(curveDate)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve points for %s: %w", curveID, err)
	}
	return out, nil
}
