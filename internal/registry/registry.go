// Package registry holds the process-global set of registered agents and
// drives run_all/run_all_backtest in the locked execution order, isolating
// any single agent's failure or timeout from the rest of the pipeline.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mcauduro0/macro-signal-pipeline/internal/agents"
	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/metrics"
)

// ExecutionOrder is the locked agent execution order; agents not present
// here are appended alphabetically by AgentID.
var ExecutionOrder = []string{
	agents.InflationAgentID,
	agents.MonetaryAgentID,
	agents.FiscalAgentID,
	agents.FXAgentID,
	agents.CrossAssetAgentID,
}

// DefaultWallClockBudget is the per-agent timeout before the registry
// substitutes a stub report and proceeds to the next agent.
const DefaultWallClockBudget = 60 * time.Second

// Registry is a process-global collection of registered agents. There is
// no instance-level state a caller needs beyond the one returned by New;
// production code constructs one at startup and shares it, calling Clear
// only from test setup.
type Registry struct {
	mu           sync.RWMutex
	agents       map[string]agents.Agent
	wallClock    time.Duration
	logger       zerolog.Logger
	runGroup     singleflight.Group
}

// New builds an empty registry.
func New(logger zerolog.Logger, wallClockBudget time.Duration) *Registry {
	if wallClockBudget <= 0 {
		wallClockBudget = DefaultWallClockBudget
	}
	return &Registry{
		agents:    make(map[string]agents.Agent),
		wallClock: wallClockBudget,
		logger:    logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds an agent keyed by its AgentID; duplicates are an error.
func (r *Registry) Register(a agents.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.AgentID()
	if id == "" {
		return fmt.Errorf("registry: agent must have a non-empty agent_id")
	}
	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("registry: agent %q already registered", id)
	}
	r.agents[id] = a
	return nil
}

// Unregister removes an agent by id; unregistering an unknown id is a
// no-op.
func (r *Registry) Unregister(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, agentID)
}

// Get returns the registered agent for agentID, if any.
func (r *Registry) Get(agentID string) (agents.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[agentID]
	return a, ok
}

// ListOrdered returns every registered agent in the locked execution
// order, with any agent not named in ExecutionOrder appended alphabetically
// after it.
func (r *Registry) ListOrdered() []agents.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.agents))
	ordered := make([]agents.Agent, 0, len(r.agents))
	for _, id := range ExecutionOrder {
		if a, ok := r.agents[id]; ok {
			ordered = append(ordered, a)
			seen[id] = true
		}
	}

	var rest []string
	for id := range r.agents {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		ordered = append(ordered, r.agents[id])
	}
	return ordered
}

// Clear removes every registered agent. Exclusively for test isolation;
// must never be called on a production registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]agents.Agent)
}

// RunAll runs every registered agent's Run in the locked order, isolating
// each from the others: a failure or timeout produces a stub report for
// that agent and the registry proceeds to the next one. Concurrent calls
// for the same as_of_date are deduplicated via singleflight so a retried
// or overlapping invocation does not re-run the pipeline twice.
func (r *Registry) RunAll(ctx context.Context, asOf domain.Date) (map[string]domain.Report, error) {
	key := "run_all:" + asOf.String()
	v, err, _ := r.runGroup.Do(key, func() (interface{}, error) {
		return r.runAll(ctx, asOf, false), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]domain.Report), nil
}

// RunAllBacktest mirrors RunAll but invokes each agent's BacktestRun,
// which never persists.
func (r *Registry) RunAllBacktest(ctx context.Context, asOf domain.Date) (map[string]domain.Report, error) {
	key := "run_all_backtest:" + asOf.String()
	v, err, _ := r.runGroup.Do(key, func() (interface{}, error) {
		return r.runAll(ctx, asOf, true), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]domain.Report), nil
}

func (r *Registry) runAll(ctx context.Context, asOf domain.Date, backtest bool) map[string]domain.Report {
	runTimer := time.Now()
	reports := make(map[string]domain.Report)
	for _, a := range r.ListOrdered() {
		reports[a.AgentID()] = r.runOne(ctx, a, asOf, backtest)
	}
	metrics.Default.RunAllDuration.Observe(time.Since(runTimer).Seconds())
	return reports
}

func (r *Registry) runOne(ctx context.Context, a agents.Agent, asOf domain.Date, backtest bool) domain.Report {
	runCtx, cancel := context.WithTimeout(ctx, r.wallClock)
	defer cancel()

	timer := metrics.Default.StartAgentTimer(a.AgentID())

	type result struct {
		report domain.Report
		err    error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		var report domain.Report
		var err error
		if backtest {
			report, err = a.BacktestRun(runCtx, asOf)
		} else {
			report, err = a.Run(runCtx, asOf)
		}
		done <- result{report: report, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			timer.Stop("error")
			metrics.Default.RecordAgentError(a.AgentID(), res.err.Error())
			r.logger.Error().Err(res.err).Str("agent_id", a.AgentID()).Msg("agent run failed, recording stub report")
			return domain.StubReport(a.AgentID(), asOf, res.err.Error())
		}
		timer.Stop("ok")
		return res.report
	case <-runCtx.Done():
		timer.Stop("timeout")
		metrics.Default.RecordAgentTimeout(a.AgentID())
		r.logger.Error().Str("agent_id", a.AgentID()).Dur("budget", r.wallClock).Msg("agent exceeded wall-clock budget, recording timeout stub")
		return domain.StubReport(a.AgentID(), asOf, "wall_clock_timeout")
	}
}
