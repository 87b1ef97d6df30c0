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

type journalRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewJournalRepo creates a Postgres-backed JournalRepo. The backing table
// carries no UPDATE grant for the application role; this type never issues
// one, matching the append-only contract.
func NewJournalRepo(db *sqlx.DB, timeout time.Duration) persistence.JournalRepo {
	return &journalRepo{db: db, timeout: timeout}
}

func (r *journalRepo) Append(ctx context.Context, entry domain.JournalEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	payloadJSON, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal journal payload for %s: %w", entry.EntryID, err)
	}

	query := `
		INSERT INTO journal_entries
			(entry_id, parent_entry_id, proposal_id, entry_type, payload, content_hash, created_at, is_locked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		entry.EntryID, entry.ParentEntryID, entry.ProposalID, entry.EntryType,
		payloadJSON, entry.ContentHash, entry.CreatedAt, entry.IsLocked)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate journal entry %s: %w", entry.EntryID, err)
		}
		return fmt.Errorf("append journal entry %s: %w", entry.EntryID, err)
	}
	return nil
}

func (r *journalRepo) GetByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT entry_id, parent_entry_id, proposal_id, entry_type, payload, content_hash, created_at, is_locked
		FROM journal_entries
		WHERE entry_id = $1`

	entry, err := scanJournalEntry(r.db.QueryRowxContext(ctx, query, entryID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get journal entry %s: %w", entryID, err)
	}
	return entry, nil
}

func (r *journalRepo) ListByProposal(ctx context.Context, proposalID string) ([]domain.JournalEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT entry_id, parent_entry_id, proposal_id, entry_type, payload, content_hash, created_at, is_locked
		FROM journal_entries
		WHERE proposal_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryxContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries for proposal %s: %w", proposalID, err)
	}
	defer rows.Close()
	return scanJournalEntries(rows)
}

// ListChain walks the parent_entry_id links starting from rootEntryID,
// returning the full decision-to-outcome lineage in chronological order.
func (r *journalRepo) ListChain(ctx context.Context, rootEntryID string) ([]domain.JournalEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		WITH RECURSIVE chain AS (
			SELECT entry_id, parent_entry_id, proposal_id, entry_type, payload, content_hash, created_at, is_locked
			FROM journal_entries WHERE entry_id = $1
			UNION ALL
			SELECT j.entry_id, j.parent_entry_id, j.proposal_id, j.entry_type, j.payload, j.content_hash, j.created_at, j.is_locked
			FROM journal_entries j
			JOIN chain c ON j.parent_entry_id = c.entry_id
		)
		SELECT entry_id, parent_entry_id, proposal_id, entry_type, payload, content_hash, created_at, is_locked
		FROM chain
		ORDER BY created_at`

	rows, err := r.db.QueryxContext(ctx, query, rootEntryID)
	if err != nil {
		return nil, fmt.Errorf("list journal chain from %s: %w", rootEntryID, err)
	}
	defer rows.Close()
	return scanJournalEntries(rows)
}

// CountByEntryType returns entry counts grouped by entry_type, scoped to
// proposalID when non-nil or across the whole journal otherwise, the
// read-only aggregate stats_decision_analysis() in journal.go builds on.
func (r *journalRepo) CountByEntryType(ctx context.Context, proposalID *string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT entry_type, COUNT(*)
		FROM journal_entries
		WHERE $1::text IS NULL OR proposal_id = $1
		GROUP BY entry_type
		ORDER BY entry_type`

	rows, err := r.db.QueryxContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("count journal entries by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			entryType string
			count     int
		)
		if err := rows.Scan(&entryType, &count); err != nil {
			return nil, fmt.Errorf("scan journal entry type count: %w", err)
		}
		counts[entryType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entry type counts: %w", err)
	}
	return counts, nil
}

func scanJournalEntry(row *sqlx.Row) (*domain.JournalEntry, error) {
	var (
		entry       domain.JournalEntry
		payloadRaw  []byte
	)
	if err := row.Scan(&entry.EntryID, &entry.ParentEntryID, &entry.ProposalID, &entry.EntryType,
		&payloadRaw, &entry.ContentHash, &entry.CreatedAt, &entry.IsLocked); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadRaw, &entry.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal journal payload: %w", err)
	}
	return &entry, nil
}

func scanJournalEntries(rows *sqlx.Rows) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	for rows.Next() {
		var (
			entry      domain.JournalEntry
			payloadRaw []byte
		)
		if err := rows.Scan(&entry.EntryID, &entry.ParentEntryID, &entry.ProposalID, &entry.EntryType,
			&payloadRaw, &entry.ContentHash, &entry.CreatedAt, &entry.IsLocked); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payloadRaw, &entry.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal journal payload: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
