// Package tradeworkflow implements the trade proposal lifecycle (C8):
// turning agent reports into proposals, deciding them, and recording every
// decision in the journal. State transitions are linear and terminal;
// re-deciding an already-decided proposal is rejected.
package tradeworkflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
	"github.com/mcauduro0/macro-signal-pipeline/internal/errs"
	"github.com/mcauduro0/macro-signal-pipeline/internal/journal"
	"github.com/mcauduro0/macro-signal-pipeline/internal/metrics"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
)

// Locked thresholds (spec §6.5); callers needing to override them do so
// via Config, never by editing these constants.
const (
	DefaultConvictionMin        = 0.55
	DefaultFlipThreshold        = 0.60
	DefaultMaxProposalsPerDay   = 5
	DefaultStaleProposalMaxAge  = 2 * 24 * time.Hour
)

// Config carries the tunable thresholds the workflow enforces; the zero
// value is not valid — use NewDefaultConfig.
type Config struct {
	ConvictionMin       float64
	FlipThreshold       float64
	MaxProposalsPerDay  int
	StaleProposalMaxAge time.Duration
}

// NewDefaultConfig returns the locked defaults from spec §6.5.
func NewDefaultConfig() Config {
	return Config{
		ConvictionMin:       DefaultConvictionMin,
		FlipThreshold:       DefaultFlipThreshold,
		MaxProposalsPerDay:  DefaultMaxProposalsPerDay,
		StaleProposalMaxAge: DefaultStaleProposalMaxAge,
	}
}

// OpenPosition is the minimal shape the workflow needs to detect a flip
// against an existing holding; the portfolio system of record owns the
// full position model.
type OpenPosition struct {
	PositionID   string
	InstrumentID string
	Direction    domain.SignalDirection
}

// Service implements the trade workflow operations.
type Service struct {
	proposals persistence.TradeProposalsRepo
	journal   *journal.Journal
	cfg       Config
	logger    zerolog.Logger
}

// New builds a Service.
func New(proposals persistence.TradeProposalsRepo, j *journal.Journal, cfg Config, logger zerolog.Logger) *Service {
	return &Service{proposals: proposals, journal: j, cfg: cfg, logger: logger.With().Str("component", "tradeworkflow").Logger()}
}

// GenerateProposalsFromSignals filters each report's composite signal
// (other signals in a report are not considered) by the conviction floor, retains
// at most MaxProposalsPerDay, and flags flips against openPositions with
// a close-then-open instruction.
func (s *Service) GenerateProposalsFromSignals(ctx context.Context, reports map[string]domain.Report, asOf domain.Date, openPositions []OpenPosition, instrumentFor func(signalID string) string) ([]domain.TradeProposal, error) {
	existingCount, err := s.proposals.CountPendingOnDate(ctx, asOf)
	if err != nil {
		return nil, errs.NewRetryable("count_pending_on_date", err)
	}

	var candidates []domain.Signal
	for _, report := range reports {
		composite, ok := report.Composite()
		if !ok {
			continue
		}
		candidates = append(candidates, composite)
	}

	var proposals []domain.TradeProposal
	slotsRemaining := s.cfg.MaxProposalsPerDay - existingCount
	for _, signal := range candidates {
		if slotsRemaining <= 0 {
			s.logger.Warn().Int("max_per_day", s.cfg.MaxProposalsPerDay).Msg("daily proposal cap reached; dropping remaining candidates")
			break
		}
		if signal.Direction == domain.DirectionNeutral || signal.Confidence < s.cfg.ConvictionMin {
			continue
		}

		instrumentID := signal.SignalID
		if instrumentFor != nil {
			if id := instrumentFor(signal.SignalID); id != "" {
				instrumentID = id
			}
		}

		proposal := domain.TradeProposal{
			ProposalID:     uuid.NewString(),
			SourceSignalID: signal.SignalID,
			InstrumentID:   instrumentID,
			Direction:      signal.Direction,
			TargetWeight:   s.estimatePortfolioImpact(signal),
			Rationale:      s.generateTradeRationale(signal),
			Status:         domain.ProposalPending,
			Conviction:     signal.Confidence,
			CreatedAt:      time.Now().UTC(),
		}

		if flip, instruction := detectFlip(signal, instrumentID, openPositions, s.cfg.FlipThreshold); flip {
			proposal.IsFlip = true
			proposal.FlipInstruction = instruction
		}

		if err := s.proposals.Insert(ctx, proposal); err != nil {
			return proposals, fmt.Errorf("insert proposal for %s: %w", signal.SignalID, err)
		}
		metrics.Default.RecordProposalGenerated(signal.AgentID)
		proposals = append(proposals, proposal)
		slotsRemaining--
	}

	return proposals, nil
}

// detectFlip reports whether signal opposes an existing open position on
// the same instrument at or above flipThreshold confidence.
func detectFlip(signal domain.Signal, instrumentID string, openPositions []OpenPosition, flipThreshold float64) (bool, string) {
	if signal.Confidence < flipThreshold {
		return false, ""
	}
	for _, pos := range openPositions {
		if pos.InstrumentID != instrumentID {
			continue
		}
		if pos.Direction != domain.DirectionNeutral && pos.Direction != signal.Direction {
			return true, fmt.Sprintf("close position %s before opening %s %s", pos.PositionID, instrumentID, signal.Direction)
		}
	}
	return false, ""
}

func (s *Service) estimatePortfolioImpact(signal domain.Signal) float64 {
	return signal.Confidence * 0.10
}

func (s *Service) generateTradeRationale(signal domain.Signal) string {
	reason, _ := signal.Metadata["reason"].(string)
	if reason != "" {
		return fmt.Sprintf("%s %s at confidence %.2f (%s)", signal.SignalID, signal.Direction, signal.Confidence, reason)
	}
	return fmt.Sprintf("%s %s at confidence %.2f", signal.SignalID, signal.Direction, signal.Confidence)
}

// listAllLimit is passed to ListByStatus when the caller wants every
// matching row; the repository's LIMIT clause treats 0 as "zero rows", so
// GetPendingProposals must not pass 0 for "unlimited".
const listAllLimit = 100000

// GetPendingProposals returns every PENDING proposal.
func (s *Service) GetPendingProposals(ctx context.Context) ([]domain.TradeProposal, error) {
	return s.proposals.ListByStatus(ctx, domain.ProposalPending, listAllLimit)
}

// ErrAlreadyDecided is returned when a caller attempts to transition a
// proposal whose status is already terminal.
var ErrAlreadyDecided = errors.New("tradeworkflow: proposal already decided")

// ErrBlankThesis is returned when open_discretionary_trade is called with
// an empty or whitespace-only manager thesis.
var ErrBlankThesis = errors.New("tradeworkflow: manager thesis must not be blank")

func (s *Service) loadPendingOrFail(ctx context.Context, proposalID string) (*domain.TradeProposal, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, errs.NewRetryable("get_proposal", err)
	}
	if proposal == nil {
		return nil, fmt.Errorf("tradeworkflow: proposal %q not found", proposalID)
	}
	if proposal.Status.IsTerminal() {
		return nil, ErrAlreadyDecided
	}
	return proposal, nil
}

// ApproveProposal transitions a PENDING proposal to APPROVED and appends an
// APPROVE journal entry linked to it.
func (s *Service) ApproveProposal(ctx context.Context, proposalID, approver string) (domain.TradeProposal, domain.JournalEntry, error) {
	proposal, err := s.loadPendingOrFail(ctx, proposalID)
	if err != nil {
		return domain.TradeProposal{}, domain.JournalEntry{}, err
	}

	now := time.Now().UTC()
	proposal.Status = domain.ProposalApproved
	proposal.DecidedAt = &now
	if err := s.proposals.Update(ctx, *proposal); err != nil {
		return domain.TradeProposal{}, domain.JournalEntry{}, fmt.Errorf("approve proposal %s: %w", proposalID, err)
	}

	entry, err := s.journal.Append(ctx, domain.EntryApprove, &proposalID, nil, map[string]interface{}{
		"approver":      approver,
		"proposal_id":   proposalID,
		"instrument_id": proposal.InstrumentID,
		"target_weight": proposal.TargetWeight,
	})
	if err != nil {
		return *proposal, domain.JournalEntry{}, err
	}
	metrics.Default.RecordProposalDecided("approved")
	return *proposal, entry, nil
}

// RejectProposal transitions a PENDING proposal to REJECTED and appends a
// REJECT entry carrying reason.
func (s *Service) RejectProposal(ctx context.Context, proposalID, reason string) (domain.TradeProposal, domain.JournalEntry, error) {
	proposal, err := s.loadPendingOrFail(ctx, proposalID)
	if err != nil {
		return domain.TradeProposal{}, domain.JournalEntry{}, err
	}

	now := time.Now().UTC()
	proposal.Status = domain.ProposalRejected
	proposal.DecidedAt = &now
	if err := s.proposals.Update(ctx, *proposal); err != nil {
		return domain.TradeProposal{}, domain.JournalEntry{}, fmt.Errorf("reject proposal %s: %w", proposalID, err)
	}

	entry, err := s.journal.Append(ctx, domain.EntryReject, &proposalID, nil, map[string]interface{}{
		"reason":      reason,
		"proposal_id": proposalID,
	})
	if err != nil {
		return *proposal, domain.JournalEntry{}, err
	}
	metrics.Default.RecordProposalDecided("rejected")
	return *proposal, entry, nil
}

// ProposalModifications carries the fields a modify-and-approve call may
// override; zero-value TargetWeight means "unchanged" and is only applied
// when Direction/TargetWeight are explicitly set via the pointer fields.
type ProposalModifications struct {
	Direction    *domain.SignalDirection
	TargetWeight *float64
}

// ModifyAndApproveProposal applies modifications to a PENDING proposal,
// transitions it to MODIFIED_APPROVED, and appends a MODIFY entry carrying
// both the original and modified payload.
func (s *Service) ModifyAndApproveProposal(ctx context.Context, proposalID string, mods ProposalModifications, approver string) (domain.TradeProposal, domain.JournalEntry, error) {
	proposal, err := s.loadPendingOrFail(ctx, proposalID)
	if err != nil {
		return domain.TradeProposal{}, domain.JournalEntry{}, err
	}

	original := map[string]interface{}{
		"direction":     proposal.Direction,
		"target_weight": proposal.TargetWeight,
	}

	if mods.Direction != nil {
		proposal.Direction = *mods.Direction
	}
	if mods.TargetWeight != nil {
		proposal.TargetWeight = *mods.TargetWeight
	}

	now := time.Now().UTC()
	proposal.Status = domain.ProposalModifiedApproved
	proposal.DecidedAt = &now
	if err := s.proposals.Update(ctx, *proposal); err != nil {
		return domain.TradeProposal{}, domain.JournalEntry{}, fmt.Errorf("modify proposal %s: %w", proposalID, err)
	}

	modified := map[string]interface{}{
		"direction":     proposal.Direction,
		"target_weight": proposal.TargetWeight,
	}
	entry, err := s.journal.Append(ctx, domain.EntryModify, &proposalID, nil, map[string]interface{}{
		"approver":    approver,
		"proposal_id": proposalID,
		"original":    original,
		"modified":    modified,
	})
	if err != nil {
		return *proposal, domain.JournalEntry{}, err
	}
	metrics.Default.RecordProposalDecided("modified_approved")
	return *proposal, entry, nil
}

// OpenDiscretionaryTrade creates a proposal not tied to any signal. A blank
// managerThesis is rejected outright.
func (s *Service) OpenDiscretionaryTrade(ctx context.Context, instrument string, direction domain.SignalDirection, size float64, managerThesis string) (domain.TradeProposal, domain.JournalEntry, error) {
	if strings.TrimSpace(managerThesis) == "" {
		return domain.TradeProposal{}, domain.JournalEntry{}, ErrBlankThesis
	}

	proposal := domain.TradeProposal{
		ProposalID:   uuid.NewString(),
		InstrumentID: instrument,
		Direction:    direction,
		TargetWeight: size,
		Rationale:    managerThesis,
		Status:       domain.ProposalApproved,
		Conviction:   1.0,
		CreatedAt:    time.Now().UTC(),
	}
	now := time.Now().UTC()
	proposal.DecidedAt = &now

	if err := s.proposals.Insert(ctx, proposal); err != nil {
		return domain.TradeProposal{}, domain.JournalEntry{}, fmt.Errorf("insert discretionary proposal: %w", err)
	}

	entry, err := s.journal.Append(ctx, domain.EntryOpenDiscretionary, &proposal.ProposalID, nil, map[string]interface{}{
		"instrument_id":  instrument,
		"direction":      direction,
		"size":           size,
		"manager_thesis": managerThesis,
	})
	if err != nil {
		return proposal, domain.JournalEntry{}, err
	}
	return proposal, entry, nil
}

// ClosePosition records a CLOSE journal entry for positionID. It does not
// itself own position bookkeeping; the portfolio system of record applies
// the close and calls this to record the rationale.
func (s *Service) ClosePosition(ctx context.Context, positionID, rationale string) (domain.JournalEntry, error) {
	return s.journal.Append(ctx, domain.EntryClose, nil, nil, map[string]interface{}{
		"position_id": positionID,
		"rationale":   rationale,
	})
}

// ExpireStaleProposals marks every PENDING proposal older than
// StaleProposalMaxAge as EXPIRED. Expiry is a bulk operation and creates no
// journal entry.
func (s *Service) ExpireStaleProposals(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.StaleProposalMaxAge)
	stale, err := s.proposals.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, errs.NewRetryable("list_pending_older_than", err)
	}

	for i := range stale {
		stale[i].Status = domain.ProposalExpired
		if err := s.proposals.Update(ctx, stale[i]); err != nil {
			return i, fmt.Errorf("expire proposal %s: %w", stale[i].ProposalID, err)
		}
	}
	metrics.Default.RecordProposalsExpired(len(stale))
	return len(stale), nil
}
