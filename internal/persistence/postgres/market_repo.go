package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type marketBarsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMarketBarsRepo creates a Postgres-backed MarketBarsRepo.
func NewMarketBarsRepo(db *sqlx.DB, timeout time.Duration) persistence.MarketBarsRepo {
	return &marketBarsRepo{db: db, timeout: timeout}
}

// QueryMarketBars returns end-of-session OHLCV bars censored by asOf, the
// release_time for market data being the end of that trading session.
func (r *marketBarsRepo) QueryMarketBars(ctx context.Context, ticker string, startDate, endDate domain.Date, asOf time.Time) ([]persistence.MarketBar, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ticker, bar_date, open, high, low, close, adjusted_close, volume, release_time
		FROM market_bars
		WHERE ticker = $1
		  AND bar_date >= $2 AND bar_date <= $3
		  AND release_time <= $4
		ORDER BY bar_date`

	rows, err := r.db.QueryxContext(ctx, query, ticker, startDate.Time(), endDate.Time(), asOf)
	if err != nil {
		return nil, fmt.Errorf("query market bars for %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []persistence.MarketBar
	for rows.Next() {
		var (
			bar     persistence.MarketBar
			barDate time.Time
		)
		if err := rows.Scan(&bar.Ticker, &barDate, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.AdjustedClose, &bar.Volume, &bar.ReleaseTime); err != nil {
			return nil, fmt.Errorf("scan market bar for %s: %w", ticker, err)
		}
		bar.BarDate = domain.NewDate(barDate)
		out = append(out, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market bars for %s: %w", ticker, err)
	}
	return out, nil
}
