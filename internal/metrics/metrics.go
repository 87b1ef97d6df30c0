// Package metrics holds the process-wide Prometheus registry for the
// pipeline: per-agent run duration and error counts, journal entry
// counts by type, and trade proposal throughput.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus collectors for the pipeline.
type Registry struct {
	AgentRunDuration   *prometheus.HistogramVec
	AgentRunsTotal     *prometheus.CounterVec
	AgentErrorsTotal   *prometheus.CounterVec
	AgentTimeoutsTotal *prometheus.CounterVec

	JournalEntriesTotal *prometheus.CounterVec

	ProposalsGeneratedTotal *prometheus.CounterVec
	ProposalsDecidedTotal   *prometheus.CounterVec
	ProposalsExpiredTotal   prometheus.Counter

	RunAllDuration prometheus.Histogram
}

// NewRegistry builds and registers every collector against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		AgentRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_agent_run_seconds",
				Help:    "Wall-clock duration of a single agent run.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"agent", "result"},
		),
		AgentRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_agent_runs_total",
				Help: "Total agent runs by result (ok, error, timeout; a recovered panic counts as error).",
			},
			[]string{"agent", "result"},
		),
		AgentErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_agent_errors_total",
				Help: "Total agent run failures by reason.",
			},
			[]string{"agent", "reason"},
		),
		AgentTimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_agent_timeouts_total",
				Help: "Total agent runs that exceeded the wall-clock budget.",
			},
			[]string{"agent"},
		),
		JournalEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "journal_entries_total",
				Help: "Total decision journal entries appended by entry type.",
			},
			[]string{"entry_type"},
		),
		ProposalsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_proposals_generated_total",
				Help: "Total trade proposals generated by source agent.",
			},
			[]string{"agent"},
		),
		ProposalsDecidedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_proposals_decided_total",
				Help: "Total trade proposals decided by outcome (approved, rejected, modified_approved).",
			},
			[]string{"outcome"},
		),
		ProposalsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pipeline_proposals_expired_total",
				Help: "Total trade proposals auto-expired for staleness.",
			},
		),
		RunAllDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pipeline_run_all_seconds",
				Help:    "Wall-clock duration of a full run_all across every agent.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
	}

	reg.MustRegister(
		r.AgentRunDuration,
		r.AgentRunsTotal,
		r.AgentErrorsTotal,
		r.AgentTimeoutsTotal,
		r.JournalEntriesTotal,
		r.ProposalsGeneratedTotal,
		r.ProposalsDecidedTotal,
		r.ProposalsExpiredTotal,
		r.RunAllDuration,
	)
	return r
}

// Default is the process-global registry, built against the default
// Prometheus registerer so /metrics exposes it without extra wiring.
var Default = NewRegistry(prometheus.DefaultRegisterer)

// AgentTimer tracks a single agent run's duration.
type AgentTimer struct {
	registry *Registry
	agentID  string
	start    time.Time
}

// StartAgentTimer begins timing an agent run.
func (r *Registry) StartAgentTimer(agentID string) *AgentTimer {
	return &AgentTimer{registry: r, agentID: agentID, start: time.Now()}
}

// Stop records the run's duration and result.
func (t *AgentTimer) Stop(result string) {
	duration := time.Since(t.start)
	t.registry.AgentRunDuration.WithLabelValues(t.agentID, result).Observe(duration.Seconds())
	t.registry.AgentRunsTotal.WithLabelValues(t.agentID, result).Inc()
}

// RecordAgentError records an agent failure by reason.
func (r *Registry) RecordAgentError(agentID, reason string) {
	r.AgentErrorsTotal.WithLabelValues(agentID, reason).Inc()
}

// RecordAgentTimeout records an agent exceeding its wall-clock budget.
func (r *Registry) RecordAgentTimeout(agentID string) {
	r.AgentTimeoutsTotal.WithLabelValues(agentID).Inc()
}

// RecordJournalEntry records a decision journal append by entry type.
func (r *Registry) RecordJournalEntry(entryType string) {
	r.JournalEntriesTotal.WithLabelValues(entryType).Inc()
}

// RecordProposalGenerated records a proposal generated for agentID.
func (r *Registry) RecordProposalGenerated(agentID string) {
	r.ProposalsGeneratedTotal.WithLabelValues(agentID).Inc()
}

// RecordProposalDecided records a proposal decision outcome.
func (r *Registry) RecordProposalDecided(outcome string) {
	r.ProposalsDecidedTotal.WithLabelValues(outcome).Inc()
}

// RecordProposalsExpired adds count stale proposals to the expiry total.
func (r *Registry) RecordProposalsExpired(count int) {
	r.ProposalsExpiredTotal.Add(float64(count))
}

// Handler returns the HTTP handler serving /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
