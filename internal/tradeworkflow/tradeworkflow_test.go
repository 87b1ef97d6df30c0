package tradeworkflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/journal"
)

type fakeProposalsRepo struct {
	mu        sync.Mutex
	proposals map[string]domain.TradeProposal
}

func newFakeProposalsRepo() *fakeProposalsRepo {
	return &fakeProposalsRepo{proposals: make(map[string]domain.TradeProposal)}
}

func (f *fakeProposalsRepo) Insert(ctx context.Context, p domain.TradeProposal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proposals[p.ProposalID] = p
	return nil
}

func (f *fakeProposalsRepo) Update(ctx context.Context, p domain.TradeProposal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proposals[p.ProposalID] = p
	return nil
}

func (f *fakeProposalsRepo) GetByID(ctx context.Context, proposalID string) (*domain.TradeProposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proposals[proposalID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProposalsRepo) CountPendingOnDate(ctx context.Context, day domain.Date) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.proposals {
		if p.Status == domain.ProposalPending {
			count++
		}
	}
	return count, nil
}

func (f *fakeProposalsRepo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.TradeProposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TradeProposal
	for _, p := range f.proposals {
		if p.Status == domain.ProposalPending && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProposalsRepo) ListByStatus(ctx context.Context, status domain.ProposalStatus, limit int) ([]domain.TradeProposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TradeProposal
	for _, p := range f.proposals {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeJournalRepo struct {
	mu      sync.Mutex
	entries map[string]domain.JournalEntry
}

func newFakeJournalRepo() *fakeJournalRepo {
	return &fakeJournalRepo{entries: make(map[string]domain.JournalEntry)}
}

func (f *fakeJournalRepo) Append(ctx context.Context, entry domain.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.EntryID] = entry
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
	for _, e := range f.entries {
		if e.ProposalID != nil && *e.ProposalID == proposalID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeJournalRepo) ListChain(ctx context.Context, rootEntryID string) ([]domain.JournalEntry, error) {
	return nil, nil
}

func (f *fakeJournalRepo) CountByEntryType(ctx context.Context, proposalID *string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range f.entries {
		if proposalID != nil && (e.ProposalID == nil || *e.ProposalID != *proposalID) {
			continue
		}
		counts[string(e.EntryType)]++
	}
	return counts, nil
}

func newTestService() (*Service, *fakeProposalsRepo) {
	proposalsRepo := newFakeProposalsRepo()
	j := journal.New(newFakeJournalRepo())
	svc := New(proposalsRepo, j, NewDefaultConfig(), zerolog.Nop())
	return svc, proposalsRepo
}

func compositeSignal(id string, direction domain.SignalDirection, confidence float64) domain.Signal {
	return domain.NewSignal(id+"_COMPOSITE", id, domain.MustParseDate("2026-02-21"), direction, confidence, 1.0, 90, nil)
}

func reportWithComposite(agentID string, signal domain.Signal) domain.Report {
	r := domain.NewReport(agentID, domain.MustParseDate("2026-02-21"))
	r.Signals = []domain.Signal{signal}
	return r
}

func TestGenerateProposalsFiltersByConvictionFloor(t *testing.T) {
	svc, _ := newTestService()
	reports := map[string]domain.Report{
		"fx":       reportWithComposite("fx", compositeSignal("fx", domain.DirectionShort, 0.70)),
		"fiscal":   reportWithComposite("fiscal", compositeSignal("fiscal", domain.DirectionLong, 0.40)),
		"monetary": reportWithComposite("monetary", compositeSignal("monetary", domain.DirectionNeutral, 0.0)),
	}

	proposals, err := svc.GenerateProposalsFromSignals(context.Background(), reports, domain.MustParseDate("2026-02-21"), nil, nil)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, "fx_COMPOSITE", proposals[0].SourceSignalID)
}

func TestGenerateProposalsCapsAtFivePerDay(t *testing.T) {
	svc, _ := newTestService()
	reports := make(map[string]domain.Report)
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("agent_%d", i)
		reports[id] = reportWithComposite(id, compositeSignal(id, domain.DirectionLong, 0.80))
	}

	proposals, err := svc.GenerateProposalsFromSignals(context.Background(), reports, domain.MustParseDate("2026-02-21"), nil, nil)
	require.NoError(t, err)
	assert.Len(t, proposals, DefaultMaxProposalsPerDay)
}

func TestGenerateProposalsDetectsFlip(t *testing.T) {
	svc, _ := newTestService()
	reports := map[string]domain.Report{
		"fx": reportWithComposite("fx", compositeSignal("fx", domain.DirectionShort, 0.70)),
	}
	openPositions := []OpenPosition{{PositionID: "pos-1", InstrumentID: "fx_COMPOSITE", Direction: domain.DirectionLong}}

	proposals, err := svc.GenerateProposalsFromSignals(context.Background(), reports, domain.MustParseDate("2026-02-21"), openPositions, nil)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.True(t, proposals[0].IsFlip)
	assert.Contains(t, proposals[0].FlipInstruction, "close position pos-1")
}

func TestApproveProposalTransitionsAndJournals(t *testing.T) {
	svc, repo := newTestService()
	proposal := domain.TradeProposal{
		ProposalID: "prop-1",
		Status:     domain.ProposalPending,
		Conviction: 0.6,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(context.Background(), proposal))

	updated, entry, err := svc.ApproveProposal(context.Background(), "prop-1", "manager-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalApproved, updated.Status)
	assert.Equal(t, domain.EntryApprove, entry.EntryType)
}

func TestApproveAlreadyDecidedProposalFails(t *testing.T) {
	svc, repo := newTestService()
	proposal := domain.TradeProposal{ProposalID: "prop-2", Status: domain.ProposalApproved, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Insert(context.Background(), proposal))

	_, _, err := svc.ApproveProposal(context.Background(), "prop-2", "manager-1")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestOpenDiscretionaryTradeRejectsBlankThesis(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.OpenDiscretionaryTrade(context.Background(), "BRL_5Y", domain.DirectionLong, 0.05, "   ")
	assert.ErrorIs(t, err, ErrBlankThesis)
}

func TestOpenDiscretionaryTradeSucceedsWithThesis(t *testing.T) {
	svc, _ := newTestService()
	proposal, entry, err := svc.OpenDiscretionaryTrade(context.Background(), "BRL_5Y", domain.DirectionLong, 0.05, "curve steepening into COPOM")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalApproved, proposal.Status)
	assert.Equal(t, domain.EntryOpenDiscretionary, entry.EntryType)
}

func TestModifyAndApproveProposalRecordsOriginalAndModified(t *testing.T) {
	svc, repo := newTestService()
	proposal := domain.TradeProposal{
		ProposalID:   "prop-3",
		Status:       domain.ProposalPending,
		Direction:    domain.DirectionLong,
		TargetWeight: 0.05,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(context.Background(), proposal))

	newWeight := 0.03
	mods := ProposalModifications{TargetWeight: &newWeight}
	updated, entry, err := svc.ModifyAndApproveProposal(context.Background(), "prop-3", mods, "manager-2")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalModifiedApproved, updated.Status)
	assert.Equal(t, 0.03, updated.TargetWeight)
	assert.Equal(t, domain.EntryModify, entry.EntryType)
}

func TestExpireStaleProposalsMarksOldPendingExpired(t *testing.T) {
	svc, repo := newTestService()
	old := domain.TradeProposal{
		ProposalID: "prop-old",
		Status:     domain.ProposalPending,
		CreatedAt:  time.Now().UTC().Add(-72 * time.Hour),
	}
	fresh := domain.TradeProposal{
		ProposalID: "prop-fresh",
		Status:     domain.ProposalPending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(context.Background(), old))
	require.NoError(t, repo.Insert(context.Background(), fresh))

	count, err := svc.ExpireStaleProposals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	oldReloaded, _ := repo.GetByID(context.Background(), "prop-old")
	freshReloaded, _ := repo.GetByID(context.Background(), "prop-fresh")
	assert.Equal(t, domain.ProposalExpired, oldReloaded.Status)
	assert.Equal(t, domain.ProposalPending, freshReloaded.Status)
}
