package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingApproval TicketStatus = "WAITING_APPROVAL"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for customer support cases. Tickets are never
// physically deleted; the status field carries the soft lifecycle.
type Ticket struct {
	ID           string
	Subject      string
	Status       TicketStatus
	Priority     TicketPriority
	Category     *string
	Source       string
	CustomerID   string
	AssignedTo   *string
	ResolvedBy   *string
	AIConfidence *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
}
