package events

import (
	"time"

	"github.com/spec-kit/support-ai-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventAIResponseRecorded EventType = "ai_response_recorded"
	EventApprovalRequested  EventType = "approval_requested"
	EventApprovalDecided    EventType = "approval_decided"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CustomerEmail string                `json:"customer_email"`
	Subject       string                `json:"subject"`
	Priority      domain.TicketPriority `json:"priority"`
	Source        string                `json:"source"`
}

// AIResponseRecordedPayload payload.
type AIResponseRecordedPayload struct {
	PlanID           string  `json:"plan_id,omitempty"`
	Category         string  `json:"category"`
	Confidence       float64 `json:"confidence"`
	RequiresApproval bool    `json:"requires_approval"`
	Degraded         bool    `json:"degraded"`
}

// ApprovalRequestedPayload payload.
type ApprovalRequestedPayload struct {
	ApprovalID string `json:"approval_id"`
	ActionType string `json:"action_type"`
}

// ApprovalDecidedPayload payload.
type ApprovalDecidedPayload struct {
	ApprovalID string                `json:"approval_id"`
	Status     domain.ApprovalStatus `json:"status"`
	DecidedBy  *string               `json:"decided_by,omitempty"`
}
