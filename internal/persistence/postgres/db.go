// Package postgres implements the persistence ports against PostgreSQL
// using sqlx and lib/pq, following the query/scan/transaction conventions
// of the repositories this module was adapted from.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

// Open establishes a connection pool against a Postgres DSN.
func Open(dsn string, maxOpenConns, maxIdleConns int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// NewRepository wires every port to the same connection pool.
func NewRepository(db *sqlx.DB, timeout time.Duration) persistence.Repository {
	return persistence.Repository{
		MacroObservations:  NewMacroObservationsRepo(db, timeout),
		MarketBars:         NewMarketBarsRepo(db, timeout),
		FlowObservations:   NewFlowObservationsRepo(db, timeout),
		FiscalObservations: NewFiscalObservationsRepo(db, timeout),
		CurvePoints:        NewCurvePointsRepo(db, timeout),
		AgentReports:       NewAgentReportsRepo(db, timeout),
		TradeProposals:     NewTradeProposalsRepo(db, timeout),
		Journal:            NewJournalRepo(db, timeout),
	}
}

// healthChecker implements persistence.HealthChecker for the shared pool.
type healthChecker struct {
	db *sqlx.DB
}

// NewHealthChecker returns a HealthChecker backed by db.
func NewHealthChecker(db *sqlx.DB) persistence.HealthChecker {
	return &healthChecker{db: db}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h *healthChecker) Health(ctx context.Context) persistence.Health {
	start := time.Now()
	err := h.db.PingContext(ctx)
	health := persistence.Health{
		Healthy:        err == nil,
		LastCheck:      time.Now().UTC(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
		ConnectionPool: map[string]int{
			"open":     h.db.Stats().OpenConnections,
			"idle":     h.db.Stats().Idle,
			"in_use":   h.db.Stats().InUse,
			"max_open": h.db.Stats().MaxOpenConnections,
		},
	}
	if err != nil {
		health.Errors = []string{err.Error()}
	}
	return health
}
