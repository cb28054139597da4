package dto

import (
	"time"

	"github.com/spec-kit/support-ai-service/internal/domain"
)

// ProcessQueryRequest is the customer intake payload.
type ProcessQueryRequest struct {
	CustomerEmail string         `json:"customer_email"`
	Query         string         `json:"query"`
	Subject       string         `json:"subject"`
	Source        string         `json:"source"`
	Context       map[string]any `json:"context"`
	Metadata      map[string]any `json:"metadata"`
}

// ProcessQueryResponse reports the pipeline outcome.
type ProcessQueryResponse struct {
	RequestID             string                 `json:"request_id"`
	TicketID              string                 `json:"ticket_id"`
	PlanID                string                 `json:"plan_id,omitempty"`
	Status                string                 `json:"status"`
	AIResponse            string                 `json:"ai_response"`
	Classification        *domain.Classification `json:"classification,omitempty"`
	RequiresHumanApproval bool                   `json:"requires_human_approval"`
	ApprovalID            *string                `json:"approval_id,omitempty"`
	SuggestedActions      []map[string]any       `json:"suggested_actions,omitempty"`
	ProcessingTimeMs      float64                `json:"processing_time_ms"`
}

// ApprovalDecisionRequest is an agent's decision on a pending approval.
type ApprovalDecisionRequest struct {
	ApprovalID string  `json:"approval_id"`
	Approved   bool    `json:"approved"`
	Reason     *string `json:"reason"`
	DecidedBy  *string `json:"decided_by"`
}

// ApprovalResponse represents one approval record.
type ApprovalResponse struct {
	ID           string                `json:"id"`
	TicketID     string                `json:"ticket_id"`
	ActionType   string                `json:"action_type"`
	AISuggestion string                `json:"ai_suggestion"`
	Status       domain.ApprovalStatus `json:"status"`
	PlanID       *string               `json:"plan_id,omitempty"`
	DecidedBy    *string               `json:"decided_by,omitempty"`
	Reason       *string               `json:"reason,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	DecidedAt    *time.Time            `json:"decided_at,omitempty"`
}

// ApprovalDecisionResponse reports a recorded decision.
type ApprovalDecisionResponse struct {
	ApprovalID  string         `json:"approval_id"`
	TicketID    string         `json:"ticket_id"`
	Approved    bool           `json:"approved"`
	ProcessedAt time.Time      `json:"processed_at"`
	Result      map[string]any `json:"result"`
}

// CustomerResponse represents the ticket owner.
type CustomerResponse struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`
	Segment *string `json:"segment,omitempty"`
}

// ConversationResponse is one timeline entry.
type ConversationResponse struct {
	ID        string                  `json:"id"`
	TicketID  string                  `json:"ticket_id"`
	Content   string                  `json:"content"`
	Role      domain.ConversationRole `json:"role"`
	Metadata  map[string]any          `json:"metadata,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// TicketSummary is the listing row.
type TicketSummary struct {
	ID           string                `json:"id"`
	Subject      string                `json:"subject"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	Category     *string               `json:"category,omitempty"`
	Source       string                `json:"source"`
	CustomerID   string                `json:"customer_id"`
	AIConfidence *float64              `json:"ai_confidence,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides the full ticket view with nested context.
type TicketDetailResponse struct {
	TicketSummary
	Customer      *CustomerResponse      `json:"customer,omitempty"`
	Conversations []ConversationResponse `json:"conversations"`
	Approvals     []ApprovalResponse     `json:"approvals"`
	ResolvedAt    *time.Time             `json:"resolved_at,omitempty"`
}
