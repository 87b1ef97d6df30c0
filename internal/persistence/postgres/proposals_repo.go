package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

type tradeProposalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTradeProposalsRepo creates a Postgres-backed TradeProposalsRepo.
func NewTradeProposalsRepo(db *sqlx.DB, timeout time.Duration) persistence.TradeProposalsRepo {
	return &tradeProposalsRepo{db: db, timeout: timeout}
}

func (r *tradeProposalsRepo) Insert(ctx context.Context, p domain.TradeProposal) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO trade_proposals
			(proposal_id, source_signal_id, instrument_id, direction, target_weight, rationale, status, conviction, created_at, decided_at, is_flip, flip_instruction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		p.ProposalID, p.SourceSignalID, p.InstrumentID, p.Direction, p.TargetWeight,
		p.Rationale, p.Status, p.Conviction, p.CreatedAt, p.DecidedAt, p.IsFlip, p.FlipInstruction)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate proposal %s: %w", p.ProposalID, err)
		}
		return fmt.Errorf("insert proposal %s: %w", p.ProposalID, err)
	}
	return nil
}

func (r *tradeProposalsRepo) Update(ctx context.Context, p domain.TradeProposal) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE trade_proposals SET
			status = $2, decided_at = $3, is_flip = $4, flip_instruction = $5
		WHERE proposal_id = $1`

	res, err := r.db.ExecContext(ctx, query, p.ProposalID, p.Status, p.DecidedAt, p.IsFlip, p.FlipInstruction)
	if err != nil {
		return fmt.Errorf("update proposal %s: %w", p.ProposalID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update proposal %s: %w", p.ProposalID, err)
	}
	if rows == 0 {
		return fmt.Errorf("update proposal %s: not found", p.ProposalID)
	}
	return nil
}

func (r *tradeProposalsRepo) GetByID(ctx context.Context, proposalID string) (*domain.TradeProposal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT proposal_id, source_signal_id, instrument_id, direction, target_weight, rationale, status, conviction, created_at, decided_at, is_flip, flip_instruction
		FROM trade_proposals
		WHERE proposal_id = $1`

	p, err := scanProposal(r.db.QueryRowxContext(ctx, query, proposalID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get proposal %s: %w", proposalID, err)
	}
	return p, nil
}

func (r *tradeProposalsRepo) CountPendingOnDate(ctx context.Context, day domain.Date) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT COUNT(*) FROM trade_proposals
		WHERE status = $1 AND created_at >= $2 AND created_at < $3`

	var count int
	err := r.db.QueryRowxContext(ctx, query, domain.ProposalPending, day.StartOfDay(time.UTC), day.AddDays(1).StartOfDay(time.UTC)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending proposals on %s: %w", day, err)
	}
	return count, nil
}

func (r *tradeProposalsRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.TradeProposal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT proposal_id, source_signal_id, instrument_id, direction, target_weight, rationale, status, conviction, created_at, decided_at, is_flip, flip_instruction
		FROM trade_proposals
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`

	rows, err := r.db.QueryxContext(ctx, query, domain.ProposalPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale pending proposals: %w", err)
	}
	defer rows.Close()
	return scanProposals(rows)
}

func (r *tradeProposalsRepo) ListByStatus(ctx context.Context, status domain.ProposalStatus, limit int) ([]domain.TradeProposal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT proposal_id, source_signal_id, instrument_id, direction, target_weight, rationale, status, conviction, created_at, decided_at, is_flip, flip_instruction
		FROM trade_proposals
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list proposals by status %s: %w", status, err)
	}
	defer rows.Close()
	return scanProposals(rows)
}

func scanProposal(row *sqlx.Row) (*domain.TradeProposal, error) {
	var p domain.TradeProposal
	if err := row.Scan(&p.ProposalID, &p.SourceSignalID, &p.InstrumentID, &p.Direction, &p.TargetWeight,
		&p.Rationale, &p.Status, &p.Conviction, &p.CreatedAt, &p.DecidedAt, &p.IsFlip, &p.FlipInstruction); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProposals(rows *sqlx.Rows) ([]domain.TradeProposal, error) {
	var out []domain.TradeProposal
	for rows.Next() {
		var p domain.TradeProposal
		if err := rows.Scan(&p.ProposalID, &p.SourceSignalID, &p.InstrumentID, &p.Direction, &p.TargetWeight,
			&p.Rationale, &p.Status, &p.Conviction, &p.CreatedAt, &p.DecidedAt, &p.IsFlip, &p.FlipInstruction); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
