package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-ai-service/internal/domain"
	"github.com/spec-kit/support-ai-service/internal/repository"
	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

// TicketService exposes the ticket read model: detail views with nested
// context and filtered listings.
type TicketService struct {
	tickets       repository.TicketRepository
	customers     repository.CustomerRepository
	conversations repository.ConversationRepository
	approvals     repository.ApprovalRepository
	logger        *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(
	tickets repository.TicketRepository,
	customers repository.CustomerRepository,
	conversations repository.ConversationRepository,
	approvals repository.ApprovalRepository,
	logger *zap.Logger,
) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:       tickets,
		customers:     customers,
		conversations: conversations,
		approvals:     approvals,
		logger:        logger,
	}
}

// TicketDetail is a ticket with its customer, full conversation history in
// chronological order and any approval records.
type TicketDetail struct {
	Ticket        *domain.Ticket
	Customer      *domain.Customer
	Conversations []domain.Conversation
	Approvals     []domain.Approval
}

// GetTicketDetail fetches a ticket with nested context.
func (s *TicketService) GetTicketDetail(ctx context.Context, id string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}

	detail := &TicketDetail{Ticket: ticket}

	customer, err := s.customers.GetByID(ctx, ticket.CustomerID)
	if err != nil {
		s.logger.Warn("customer lookup for ticket detail failed",
			zap.String("ticket_id", id), zap.Error(err))
	} else {
		detail.Customer = customer
	}

	conversations, err := s.conversations.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	detail.Conversations = conversations

	approvals, err := s.approvals.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	detail.Approvals = approvals

	return detail, nil
}

// ListTickets returns tickets matching the filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// ListConversations returns the conversation timeline for a ticket. The
// ticket must exist.
func (s *TicketService) ListConversations(ctx context.Context, ticketID string) ([]domain.Conversation, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewInternalError(err)
	}

	conversations, err := s.conversations.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return conversations, nil
}
