// Package persistence defines the repository contracts the point-in-time
// loader and decision journal depend on. Concrete backends live in
// sub-packages (postgres); nothing above this layer imports database/sql
// or a driver directly.
package persistence

import (
	"context"
	"time"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

// MacroObservationsRepo serves the highest-revision vintage of a macro
// series visible as of a given instant.
type MacroObservationsRepo interface {
	// QueryMacroObservations returns the maximum-revision row per
	// observation_date in [startDate, endDate] where release_time <= asOf.
	QueryMacroObservations(ctx context.Context, seriesCode string, startDate, endDate domain.Date, asOf time.Time) ([]domain.ObservationRecord, error)
}

// MarketBar is one OHLCV row for a ticker on a calendar date.
type MarketBar struct {
	Ticker         string    `json:"ticker" db:"ticker"`
	BarDate        domain.Date `json:"bar_date" db:"bar_date"`
	Open           float64   `json:"open" db:"open"`
	High           float64   `json:"high" db:"high"`
	Low            float64   `json:"low" db:"low"`
	Close          float64   `json:"close" db:"close"`
	AdjustedClose  float64   `json:"adjusted_close" db:"adjusted_close"`
	Volume         float64   `json:"volume" db:"volume"`
	ReleaseTime    time.Time `json:"release_time" db:"release_time"`
}

// MarketBarsRepo serves end-of-session OHLCV bars.
type MarketBarsRepo interface {
	QueryMarketBars(ctx context.Context, ticker string, startDate, endDate domain.Date, asOf time.Time) ([]MarketBar, error)
}

// FlowObservationsRepo serves capital-flow series with the same vintage
// censoring rule as macro observations.
type FlowObservationsRepo interface {
	QueryFlowObservations(ctx context.Context, flowType string, startDate, endDate domain.Date, asOf time.Time) ([]domain.FlowRecord, error)
}

// FiscalObservationsRepo serves fiscal series with the same vintage
// censoring rule as macro observations.
type FiscalObservationsRepo interface {
	QueryFiscalObservations(ctx context.Context, fiscalMetric string, startDate, endDate domain.Date, asOf time.Time) ([]domain.FiscalRecord, error)
}

// CurvePointsRepo serves term-structure curve points. Curve points have no
// vintage dimension in this system — a curve_date uniquely determines the
// published rate per tenor.
type CurvePointsRepo interface {
	QueryCurvePoints(ctx context.Context, curveID string, startDate, endDate domain.Date) ([]domain.CurveRecord, error)
}

// AgentReportsRepo persists agent reports under the natural key
// (agent_id, as_of_date); writing the same key twice replaces the prior
// report and its signals.
type AgentReportsRepo interface {
	UpsertAgentReport(ctx context.Context, report domain.Report) error
	GetAgentReport(ctx context.Context, agentID string, asOf domain.Date) (*domain.Report, error)
	ListAgentReports(ctx context.Context, asOf domain.Date) ([]domain.Report, error)
}

// TradeProposalsRepo persists proposal lifecycle state.
type TradeProposalsRepo interface {
	Insert(ctx context.Context, proposal domain.TradeProposal) error
	Update(ctx context.Context, proposal domain.TradeProposal) error
	GetByID(ctx context.Context, proposalID string) (*domain.TradeProposal, error)
	CountPendingOnDate(ctx context.Context, day domain.Date) (int, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.TradeProposal, error)
	ListByStatus(ctx context.Context, status domain.ProposalStatus, limit int) ([]domain.TradeProposal, error)
}

// JournalRepo persists append-only journal entries. There is no Update:
// the repository must reject any attempt to mutate a row once inserted.
type JournalRepo interface {
	Append(ctx context.Context, entry domain.JournalEntry) error
	GetByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	ListByProposal(ctx context.Context, proposalID string) ([]domain.JournalEntry, error)
	ListChain(ctx context.Context, rootEntryID string) ([]domain.JournalEntry, error)
	CountByEntryType(ctx context.Context, proposalID *string) (map[string]int, error)
}

// Repository aggregates every port the pipeline depends on. A single
// Postgres-backed implementation satisfies all of them; tests may compose
// narrower fakes per interface.
type Repository struct {
	MacroObservations MacroObservationsRepo
	MarketBars        MarketBarsRepo
	FlowObservations  FlowObservationsRepo
	FiscalObservations FiscalObservationsRepo
	CurvePoints       CurvePointsRepo
	AgentReports      AgentReportsRepo
	TradeProposals    TradeProposalsRepo
	Journal           JournalRepo
}

// Health reports the status of the underlying storage connection.
type Health struct {
	Healthy        bool              `json:"healthy"`
	Errors         []string          `json:"errors,omitempty"`
	ConnectionPool map[string]int    `json:"connection_pool"`
	LastCheck      time.Time         `json:"last_check"`
	ResponseTimeMS int64             `json:"response_time_ms"`
}

// HealthChecker exposes repository connectivity diagnostics.
type HealthChecker interface {
	Health(ctx context.Context) Health
	Ping(ctx context.Context) error
}
