package domain

import "time"

// ApprovalStatus enumerates human decision states. APPROVED and REJECTED are
// terminal; an approval is mutated exactly once.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Approval gates an AI-suggested action on a human decision.
type Approval struct {
	ID           string
	TicketID     string
	ActionType   string
	AISuggestion string
	Status       ApprovalStatus
	PlanID       *string
	DecidedBy    *string
	Reason       *string
	Metadata     map[string]any
	CreatedAt    time.Time
	DecidedAt    *time.Time
}

// Decided reports whether the approval has reached a terminal state.
func (a *Approval) Decided() bool {
	return a.Status == ApprovalStatusApproved || a.Status == ApprovalStatusRejected
}
