package domain

import "time"

// ProposalStatus is the lifecycle state of a TradeProposal.
type ProposalStatus string

const (
	ProposalPending          ProposalStatus = "PENDING"
	ProposalApproved         ProposalStatus = "APPROVED"
	ProposalRejected         ProposalStatus = "REJECTED"
	ProposalModifiedApproved ProposalStatus = "MODIFIED_APPROVED"
	ProposalExpired          ProposalStatus = "EXPIRED"
)

// IsTerminal reports whether the status can never transition further.
func (s ProposalStatus) IsTerminal() bool {
	switch s {
	case ProposalApproved, ProposalRejected, ProposalModifiedApproved, ProposalExpired:
		return true
	default:
		return false
	}
}

// TradeProposal is generated from a signal that passes conviction filtering,
// or opened at a manager's discretion.
type TradeProposal struct {
	ProposalID      string          `json:"proposal_id"`
	SourceSignalID  string          `json:"source_signal_id,omitempty"`
	InstrumentID    string          `json:"instrument_id"`
	Direction       SignalDirection `json:"direction"`
	TargetWeight    float64         `json:"target_weight"`
	Rationale       string          `json:"rationale"`
	Status          ProposalStatus  `json:"status"`
	Conviction      float64         `json:"conviction"`
	CreatedAt       time.Time       `json:"created_at"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty"`
	IsFlip          bool            `json:"is_flip,omitempty"`
	FlipInstruction string          `json:"flip_instruction,omitempty"`
}
