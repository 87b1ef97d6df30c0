// Package journal implements the append-only decision log (C9): every
// proposal decision and discretionary action is recorded as a
// content-hashed, immutable entry chained by parent_entry_id.
package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/metrics"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

// Journal appends and reads decision entries. There is no update method:
// immutability is enforced by never exposing one, and by the repository's
// own contract (persistence.JournalRepo.Append only).
type Journal struct {
	repo persistence.JournalRepo
}

// New builds a Journal backed by repo.
func New(repo persistence.JournalRepo) *Journal {
	return &Journal{repo: repo}
}

// Append canonicalizes payload, computes its content hash, and inserts a
// new locked entry. proposalID and parentEntryID are optional (nil for
// entries not tied to a proposal, or with no parent).
func (j *Journal) Append(ctx context.Context, entryType domain.EntryType, proposalID, parentEntryID *string, payload map[string]interface{}) (domain.JournalEntry, error) {
	hash, err := ContentHash(payload)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("journal: canonicalize payload: %w", err)
	}

	entry := domain.JournalEntry{
		EntryID:       uuid.NewString(),
		ParentEntryID: parentEntryID,
		ProposalID:    proposalID,
		EntryType:     entryType,
		Payload:       payload,
		ContentHash:   hash,
		CreatedAt:      time.Now().UTC(),
		IsLocked:      true,
	}

	if err := j.repo.Append(ctx, entry); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("journal: append entry: %w", err)
	}
	metrics.Default.RecordJournalEntry(string(entryType))
	return entry, nil
}

// AddOutcome appends a new OUTCOME entry chained to parentEntryID without
// touching the original entry in any way.
func (j *Journal) AddOutcome(ctx context.Context, parentEntryID string, outcomePayload map[string]interface{}) (domain.JournalEntry, error) {
	parent, err := j.repo.GetByID(ctx, parentEntryID)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("journal: load parent entry: %w", err)
	}
	if parent == nil {
		return domain.JournalEntry{}, fmt.Errorf("journal: parent entry %q not found", parentEntryID)
	}
	return j.Append(ctx, domain.EntryOutcome, parent.ProposalID, &parentEntryID, outcomePayload)
}

// FindByProposal returns every entry referencing proposalID, in insertion
// order.
func (j *Journal) FindByProposal(ctx context.Context, proposalID string) ([]domain.JournalEntry, error) {
	return j.repo.ListByProposal(ctx, proposalID)
}

// FindByType filters a proposal's chain-free entry set by entry type; callers
// needing every entry of a type across all proposals should page through
// ListByProposal results themselves — this helper operates on a single
// chain already materialized by the caller, matching the read-only-view
// contract of spec §4.9.
func FindByType(entries []domain.JournalEntry, entryType domain.EntryType) []domain.JournalEntry {
	var out []domain.JournalEntry
	for _, e := range entries {
		if e.EntryType == entryType {
			out = append(out, e)
		}
	}
	return out
}

// Chain returns the full ancestor-to-descendant chain rooted at
// rootEntryID (e.g. an APPROVE entry and every OUTCOME entry appended
// against it).
func (j *Journal) Chain(ctx context.Context, rootEntryID string) ([]domain.JournalEntry, error) {
	return j.repo.ListChain(ctx, rootEntryID)
}

// DecisionStats summarizes entry-type counts and the approve/reject
// ratio, the read-only aggregate view stats_decision_analysis() returns.
type DecisionStats struct {
	TotalEntries int            `json:"total_entries"`
	ByType       map[string]int `json:"by_type"`
	ApproveRatio float64        `json:"approve_ratio"`
}

// StatsDecisionAnalysis runs the stats_decision_analysis() aggregate in
// the Postgres repository (grounded on trades_repo.go's CountByVenue),
// scoped to proposalID when non-nil or across the whole journal
// otherwise.
func (j *Journal) StatsDecisionAnalysis(ctx context.Context, proposalID *string) (DecisionStats, error) {
	counts, err := j.repo.CountByEntryType(ctx, proposalID)
	if err != nil {
		return DecisionStats{}, fmt.Errorf("journal: stats decision analysis: %w", err)
	}
	return decisionStatsFromCounts(counts), nil
}

// TallyDecisionStats tallies an already-materialized entry set by type,
// for callers that have a chain or proposal's entries in hand (e.g. via
// FindByProposal or Chain) and want the same shape without a round trip.
func TallyDecisionStats(entries []domain.JournalEntry) DecisionStats {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[string(e.EntryType)]++
	}
	return decisionStatsFromCounts(counts)
}

func decisionStatsFromCounts(counts map[string]int) DecisionStats {
	stats := DecisionStats{ByType: counts}
	for _, c := range counts {
		stats.TotalEntries += c
	}
	approve := counts[string(domain.EntryApprove)]
	reject := counts[string(domain.EntryReject)]
	if approve+reject > 0 {
		stats.ApproveRatio = float64(approve) / float64(approve+reject)
	}
	return stats
}

// ContentHash canonicalizes payload (Go's encoding/json already sorts
// map[string]interface{} keys and renders floats deterministically) and
// returns its SHA-256 digest as 64 lowercase hex characters.
func ContentHash(payload map[string]interface{}) (string, error) {
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return strings.ToLower(hex.EncodeToString(sum[:])), nil
}
