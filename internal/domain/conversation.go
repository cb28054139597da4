package domain

import "time"

// ConversationRole indicates who authored a conversation entry.
type ConversationRole string

const (
	RoleCustomer ConversationRole = "CUSTOMER"
	RoleAgent    ConversationRole = "AGENT"
	RoleAIAgent  ConversationRole = "AI_AGENT"
	RoleSystem   ConversationRole = "SYSTEM"
)

// Conversation is one message on a ticket's timeline. Entries are append-only
// and immutable once created, ordered by creation time per ticket.
type Conversation struct {
	ID         string
	TicketID   string
	CustomerID string
	Content    string
	Role       ConversationRole
	Metadata   map[string]any
	CreatedAt  time.Time
}
