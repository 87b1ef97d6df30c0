package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type agentReportsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAgentReportsRepo creates a Postgres-backed AgentReportsRepo.
func NewAgentReportsRepo(db *sqlx.DB, timeout time.Duration) persistence.AgentReportsRepo {
	return &agentReportsRepo{db: db, timeout: timeout}
}

// UpsertAgentReport replaces the report for (agent_id, as_of_date) whenever
// one already exists, per the natural-key conflict policy: the previous
// signals are overwritten, not appended to.
func (r *agentReportsRepo) UpsertAgentReport(ctx context.Context, report domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	signalsJSON, err := json.Marshal(report.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals for %s/%s: %w", report.AgentID, report.AsOfDate, err)
	}
	diagnosticsJSON, err := json.Marshal(report.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics for %s/%s: %w", report.AgentID, report.AsOfDate, err)
	}
	flagsJSON, err := json.Marshal(report.DataQualityFlags)
	if err != nil {
		return fmt.Errorf("marshal data quality flags for %s/%s: %w", report.AgentID, report.AsOfDate, err)
	}

	query := `
		INSERT INTO agent_reports (agent_id, as_of_date, signals, narrative, diagnostics, data_quality_flags, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (agent_id, as_of_date) DO UPDATE SET
			signals = EXCLUDED.signals,
			narrative = EXCLUDED.narrative,
			diagnostics = EXCLUDED.diagnostics,
			data_quality_flags = EXCLUDED.data_quality_flags,
			updated_at = now()`

	_, err = r.db.ExecContext(ctx, query, report.AgentID, report.AsOfDate.Time(), signalsJSON, report.Narrative, diagnosticsJSON, flagsJSON)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate agent report %s/%s: %w", report.AgentID, report.AsOfDate, err)
		}
		return fmt.Errorf("upsert agent report %s/%s: %w", report.AgentID, report.AsOfDate, err)
	}
	return nil
}

func (r *agentReportsRepo) GetAgentReport(ctx context.Context, agentID string, asOf domain.Date) (*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT agent_id, as_of_date, signals, narrative, diagnostics, data_quality_flags
		FROM agent_reports
		WHERE agent_id = $1 AND as_of_date = $2`

	row := r.db.QueryRowxContext(ctx, query, agentID, asOf.Time())
	report, err := scanReport(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent report %s/%s: %w", agentID, asOf, err)
	}
	return report, nil
}

func (r *agentReportsRepo) ListAgentReports(ctx context.Context, asOf domain.Date) ([]domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT agent_id, as_of_date, signals, narrative, diagnostics, data_quality_flags
		FROM agent_reports
		WHERE as_of_date = $1
		ORDER BY agent_id`

	rows, err := r.db.QueryxContext(ctx, query, asOf.Time())
	if err != nil {
		return nil, fmt.Errorf("list agent reports for %s: %w", asOf, err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		report, err := scanReportFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent report for %s: %w", asOf, err)
		}
		out = append(out, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent reports for %s: %w", asOf, err)
	}
	return out, nil
}

func scanReport(row *sqlx.Row) (*domain.Report, error) {
	var (
		report      domain.Report
		asOfDate    time.Time
		signalsRaw  []byte
		diagRaw     []byte
		flagsRaw    []byte
	)
	if err := row.Scan(&report.AgentID, &asOfDate, &signalsRaw, &report.Narrative, &diagRaw, &flagsRaw); err != nil {
		return nil, err
	}
	return unmarshalReport(&report, asOfDate, signalsRaw, diagRaw, flagsRaw)
}

func scanReportFromRows(rows *sqlx.Rows) (*domain.Report, error) {
	var (
		report     domain.Report
		asOfDate   time.Time
		signalsRaw []byte
		diagRaw    []byte
		flagsRaw   []byte
	)
	if err := rows.Scan(&report.AgentID, &asOfDate, &signalsRaw, &report.Narrative, &diagRaw, &flagsRaw); err != nil {
		return nil, err
	}
	return unmarshalReport(&report, asOfDate, signalsRaw, diagRaw, flagsRaw)
}

func unmarshalReport(report *domain.Report, asOfDate time.Time, signalsRaw, diagRaw, flagsRaw []byte) (*domain.Report, error) {
	report.AsOfDate = domain.NewDate(asOfDate)
	if len(signalsRaw) > 0 {
		if err := json.Unmarshal(signalsRaw, &report.Signals); err != nil {
			return nil, fmt.Errorf("unmarshal signals: %w", err)
		}
	}
	if len(diagRaw) > 0 {
		if err := json.Unmarshal(diagRaw, &report.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	} else {
		report.Diagnostics = map[string]string{}
	}
	if len(flagsRaw) > 0 {
		if err := json.Unmarshal(flagsRaw, &report.DataQualityFlags); err != nil {
			return nil, fmt.Errorf("unmarshal data quality flags: %w", err)
		}
	}
	return report, nil
}
