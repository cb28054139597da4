package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-ai-service/internal/api/dto"
	"github.com/spec-kit/support-ai-service/internal/domain"
	"github.com/spec-kit/support-ai-service/internal/repository"
	"github.com/spec-kit/support-ai-service/internal/service"
	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

const maxQueryLength = 5000

// TicketsHandler manages the intake and ticket read endpoints.
type TicketsHandler struct {
	pipeline *service.QueryPipeline
	tickets  *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(pipeline *service.QueryPipeline, tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{pipeline: pipeline, tickets: tickets}
}

// ProcessQuery POST /tickets/process-query.
func (h *TicketsHandler) ProcessQuery(c *fiber.Ctx) error {
	var req dto.ProcessQueryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	email := strings.TrimSpace(req.CustomerEmail)
	query := strings.TrimSpace(req.Query)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return apperrors.NewValidationError("valid customer_email required", nil)
	case query == "":
		return apperrors.NewValidationError("query required", nil)
	case len(query) > maxQueryLength:
		return apperrors.NewValidationError("query too long", map[string]any{"max_length": maxQueryLength})
	}

	result, err := h.pipeline.ProcessQuery(c.UserContext(), service.ProcessQueryInput{
		CustomerEmail: email,
		Query:         query,
		Subject:       req.Subject,
		Source:        req.Source,
		Context:       req.Context,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ProcessQueryResponse{
		RequestID:             result.RequestID,
		TicketID:              result.TicketID,
		PlanID:                result.PlanID,
		Status:                result.Status,
		AIResponse:            result.AIResponse,
		Classification:        result.Classification,
		RequiresHumanApproval: result.RequiresHumanApproval,
		ApprovalID:            result.ApprovalID,
		SuggestedActions:      result.SuggestedActions,
		ProcessingTimeMs:      result.ProcessingTimeMs,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.tickets.GetTicketDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetailResponse(detail)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{Limit: 50}
	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		status := domain.TicketStatus(strings.ToUpper(statusStr))
		filter.Status = &status
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filter.Category = &category
	}
	if priorityStr := strings.TrimSpace(c.Query("priority")); priorityStr != "" {
		priority := domain.TicketPriority(strings.ToUpper(priorityStr))
		filter.Priority = &priority
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= 200 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		Subject:      ticket.Subject,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		Category:     ticket.Category,
		Source:       ticket.Source,
		CustomerID:   ticket.CustomerID,
		AIConfidence: ticket.AIConfidence,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetailResponse(detail *service.TicketDetail) dto.TicketDetailResponse {
	response := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(detail.Ticket),
		ResolvedAt:    detail.Ticket.ResolvedAt,
		Conversations: make([]dto.ConversationResponse, 0, len(detail.Conversations)),
		Approvals:     make([]dto.ApprovalResponse, 0, len(detail.Approvals)),
	}
	if detail.Customer != nil {
		response.Customer = &dto.CustomerResponse{
			ID:      detail.Customer.ID,
			Email:   detail.Customer.Email,
			Name:    detail.Customer.Name,
			Company: detail.Customer.Company,
			Segment: detail.Customer.Segment,
		}
	}
	for i := range detail.Conversations {
		response.Conversations = append(response.Conversations, conversationResponse(&detail.Conversations[i]))
	}
	for i := range detail.Approvals {
		response.Approvals = append(response.Approvals, approvalResponse(&detail.Approvals[i]))
	}
	return response
}

func conversationResponse(entry *domain.Conversation) dto.ConversationResponse {
	return dto.ConversationResponse{
		ID:        entry.ID,
		TicketID:  entry.TicketID,
		Content:   entry.Content,
		Role:      entry.Role,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt,
	}
}

func approvalResponse(approval *domain.Approval) dto.ApprovalResponse {
	return dto.ApprovalResponse{
		ID:           approval.ID,
		TicketID:     approval.TicketID,
		ActionType:   approval.ActionType,
		AISuggestion: approval.AISuggestion,
		Status:       approval.Status,
		PlanID:       approval.PlanID,
		DecidedBy:    approval.DecidedBy,
		Reason:       approval.Reason,
		CreatedAt:    approval.CreatedAt,
		DecidedAt:    approval.DecidedAt,
	}
}
