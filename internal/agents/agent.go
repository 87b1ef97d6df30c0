// Package agents implements the five analytical agents and the shared
// lifecycle every agent follows: load_data, compute_features, run_models,
// generate_narrative, then persist on success. Each concrete agent is a
// thin adapter wiring its loader calls and model set through that
// lifecycle; the lifecycle itself lives in BaseAgent so no agent has to
// reimplement persistence or narrative plumbing.
package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
)

// pointsFromColumn zips a MarketFrame's dates with one of its OHLCV
// columns into the []pit.Point shape feature bundles expect, the same
// censored-series representation GetMacroSeries/GetFlowData/GetFiscalData
// already return.
func pointsFromColumn(dates []domain.Date, column []float64) []pit.Point {
	n := len(dates)
	if len(column) < n {
		n = len(column)
	}
	points := make([]pit.Point, n)
	for i := 0; i < n; i++ {
		v := column[i]
		points[i] = pit.Point{Date: dates[i], Value: &v}
	}
	return points
}

// Agent is the contract the registry drives. Subclasses declare AgentID
// and implement the four pipeline steps; Run and BacktestRun are provided
// by BaseAgent and are not part of this interface's obligations beyond
// being reachable through it.
type Agent interface {
	AgentID() string
	Run(ctx context.Context, asOf domain.Date) (domain.Report, error)
	BacktestRun(ctx context.Context, asOf domain.Date) (domain.Report, error)
}

// lifecycle is implemented by each concrete agent and driven by BaseAgent.
// load_data populates an agent-specific bundle; compute_features and
// run_models are pure given that bundle.
type lifecycle interface {
	loadData(ctx context.Context, asOf domain.Date, r *domain.Report) interface{}
	computeFeatures(bundle interface{}, asOf domain.Date) map[string]interface{}
	runModels(features map[string]interface{}, asOf domain.Date) []domain.Signal
	generateNarrative(signals []domain.Signal, features map[string]interface{}) string
}

// BaseAgent implements the shared run/backtest_run chain described in
// spec §4.5; every concrete agent embeds one.
type BaseAgent struct {
	agentID string
	loader  *pit.Loader
	repo    persistence.AgentReportsRepo
	logger  zerolog.Logger
	self    lifecycle
}

func newBaseAgent(agentID string, loader *pit.Loader, repo persistence.AgentReportsRepo, logger zerolog.Logger, self lifecycle) BaseAgent {
	return BaseAgent{agentID: agentID, loader: loader, repo: repo, logger: logger.With().Str("agent_id", agentID).Logger(), self: self}
}

// AgentID returns the agent's locked identifier.
func (b *BaseAgent) AgentID() string { return b.agentID }

// Run executes the full lifecycle and persists the resulting report.
func (b *BaseAgent) Run(ctx context.Context, asOf domain.Date) (domain.Report, error) {
	report := b.execute(ctx, asOf)
	if err := b.repo.UpsertAgentReport(ctx, report); err != nil {
		return report, fmt.Errorf("persist report for %s: %w", b.agentID, err)
	}
	return report, nil
}

// BacktestRun executes the same chain but never writes to the repository,
// enabling historical replay without side effects.
func (b *BaseAgent) BacktestRun(ctx context.Context, asOf domain.Date) (domain.Report, error) {
	return b.execute(ctx, asOf), nil
}

func (b *BaseAgent) execute(ctx context.Context, asOf domain.Date) domain.Report {
	report := domain.NewReport(b.agentID, asOf)

	bundle := b.self.loadData(ctx, asOf, &report)
	features := b.self.computeFeatures(bundle, asOf)
	signals := b.self.runModels(features, asOf)
	report.Signals = signals
	report.Narrative = b.self.generateNarrative(signals, features)

	return report
}

// safeLoad runs fn and, on error, logs it, records a data-quality flag
// named by key, and returns the zero value rather than aborting load_data
// for the other keys — the per-key try/catch pattern spec §4.5 requires.
func safeLoad[T any](b *BaseAgent, report *domain.Report, key string, fn func() (T, error)) T {
	value, err := fn()
	if err != nil {
		b.logger.Warn().Err(err).Str("key", key).Msg("load_data: key failed, marking data-quality flag")
		report.AddDataQualityFlag(key + "_unavailable")
		var zero T
		return zero
	}
	return value
}
