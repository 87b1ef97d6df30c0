package journal

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

type fakeJournalRepo struct {
	mu      sync.Mutex
	entries map[string]domain.JournalEntry
	order   []string
}

func newFakeJournalRepo() *fakeJournalRepo {
	return &fakeJournalRepo{entries: make(map[string]domain.JournalEntry)}
}

func (f *fakeJournalRepo) Append(ctx context.Context, entry domain.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.EntryID] = entry
	f.order = append(f.order, entry.EntryID)
	return nil
}

func (f *fakeJournalRepo) GetByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeJournalRepo) ListByProposal(ctx context.Context, proposalID string) ([]domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.JournalEntry
	for _, id := range f.order {
		e := f.entries[id]
		if e.ProposalID != nil && *e.ProposalID == proposalID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeJournalRepo) ListChain(ctx context.Context, rootEntryID string) ([]domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byParent := make(map[string][]string)
	for _, id := range f.order {
		e := f.entries[id]
		if e.ParentEntryID != nil {
			byParent[*e.ParentEntryID] = append(byParent[*e.ParentEntryID], id)
		}
	}
	var out []domain.JournalEntry
	queue := []string{rootEntryID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		e, ok := f.entries[id]
		if !ok {
			continue
		}
		out = append(out, e)
		queue = append(queue, byParent[id]...)
	}
	return out, nil
}

func (f *fakeJournalRepo) CountByEntryType(ctx context.Context, proposalID *string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, id := range f.order {
		e := f.entries[id]
		if proposalID != nil && (e.ProposalID == nil || *e.ProposalID != *proposalID) {
			continue
		}
		counts[string(e.EntryType)]++
	}
	return counts, nil
}

func TestAppendSetsContentHashAndLocks(t *testing.T) {
	repo := newFakeJournalRepo()
	j := New(repo)
	proposalID := "prop-1"

	entry, err := j.Append(context.Background(), domain.EntryApprove, &proposalID, nil, map[string]interface{}{
		"approver": "manager-1",
	})
	require.NoError(t, err)
	assert.Len(t, entry.ContentHash, 64)
	assert.True(t, entry.IsLocked)
	assert.Equal(t, proposalID, *entry.ProposalID)
}

func TestContentHashIsDeterministicRegardlessOfKeyOrder(t *testing.T) {
	a := map[string]interface{}{"b": 2, "a": 1}
	b := map[string]interface{}{"a": 1, "b": 2}

	hashA, err := ContentHash(a)
	require.NoError(t, err)
	hashB, err := ContentHash(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
}

func TestAddOutcomeDoesNotMutateOriginal(t *testing.T) {
	repo := newFakeJournalRepo()
	j := New(repo)
	proposalID := "prop-2"

	original, err := j.Append(context.Background(), domain.EntryApprove, &proposalID, nil, map[string]interface{}{"approver": "m"})
	require.NoError(t, err)
	originalHash := original.ContentHash

	outcome, err := j.AddOutcome(context.Background(), original.EntryID, map[string]interface{}{"pnl": 120.5})
	require.NoError(t, err)

	assert.Equal(t, domain.EntryOutcome, outcome.EntryType)
	require.NotNil(t, outcome.ParentEntryID)
	assert.Equal(t, original.EntryID, *outcome.ParentEntryID)

	reloaded, err := repo.GetByID(context.Background(), original.EntryID)
	require.NoError(t, err)
	assert.Equal(t, originalHash, reloaded.ContentHash)
}

func TestChainReturnsAncestorAndDescendants(t *testing.T) {
	repo := newFakeJournalRepo()
	j := New(repo)
	proposalID := "prop-3"

	original, err := j.Append(context.Background(), domain.EntryApprove, &proposalID, nil, map[string]interface{}{"approver": "m"})
	require.NoError(t, err)
	_, err = j.AddOutcome(context.Background(), original.EntryID, map[string]interface{}{"pnl": 10.0})
	require.NoError(t, err)

	chain, err := j.Chain(context.Background(), original.EntryID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, domain.EntryApprove, chain[0].EntryType)
	assert.Equal(t, domain.EntryOutcome, chain[1].EntryType)
}

func TestTallyDecisionStatsTalliesByType(t *testing.T) {
	entries := []domain.JournalEntry{
		{EntryType: domain.EntryApprove},
		{EntryType: domain.EntryApprove},
		{EntryType: domain.EntryReject},
	}
	stats := TallyDecisionStats(entries)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.ByType["APPROVE"])
	assert.Equal(t, 1, stats.ByType["REJECT"])
	assert.InDelta(t, 2.0/3.0, stats.ApproveRatio, 1e-9)
}

func TestStatsDecisionAnalysisQueriesRepo(t *testing.T) {
	repo := newFakeJournalRepo()
	j := New(repo)
	ctx := context.Background()

	_, err := j.Append(ctx, domain.EntryApprove, nil, nil, map[string]interface{}{"a": 1})
	require.NoError(t, err)
	_, err = j.Append(ctx, domain.EntryApprove, nil, nil, map[string]interface{}{"a": 2})
	require.NoError(t, err)
	_, err = j.Append(ctx, domain.EntryReject, nil, nil, map[string]interface{}{"a": 3})
	require.NoError(t, err)

	stats, err := j.StatsDecisionAnalysis(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.ByType["APPROVE"])
	assert.Equal(t, 1, stats.ByType["REJECT"])
	assert.InDelta(t, 2.0/3.0, stats.ApproveRatio, 1e-9)
}

func TestFindByTypeFilters(t *testing.T) {
	entries := []domain.JournalEntry{
		{EntryType: domain.EntryApprove},
		{EntryType: domain.EntryOutcome},
		{EntryType: domain.EntryOutcome},
	}
	outcomes := FindByType(entries, domain.EntryOutcome)
	assert.Len(t, outcomes, 2)
}
