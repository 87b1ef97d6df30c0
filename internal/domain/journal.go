package domain

import "time"

// EntryType names the kind of decision a JournalEntry records.
type EntryType string

const (
	EntryApprove           EntryType = "APPROVE"
	EntryReject            EntryType = "REJECT"
	EntryModify            EntryType = "MODIFY"
	EntryOpenDiscretionary EntryType = "OPEN_DISCRETIONARY"
	EntryClose             EntryType = "CLOSE"
	EntryOutcome           EntryType = "OUTCOME"
)

// JournalEntry is an append-only decision record. Once appended, IsLocked is
// always true and there is no update path — see internal/journal.
type JournalEntry struct {
	EntryID       string                 `json:"entry_id"`
	ParentEntryID *string                `json:"parent_entry_id,omitempty"`
	ProposalID    *string                `json:"proposal_id,omitempty"`
	EntryType     EntryType              `json:"entry_type"`
	Payload       map[string]interface{} `json:"payload"`
	ContentHash   string                 `json:"content_hash"`
	CreatedAt     time.Time              `json:"created_at"`
	IsLocked      bool                   `json:"is_locked"`
}
