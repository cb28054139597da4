package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-ai-service/internal/api/dto"
	"github.com/spec-kit/support-ai-service/internal/service"
	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

// ConversationsHandler serves ticket conversation timelines.
type ConversationsHandler struct {
	tickets *service.TicketService
}

// NewConversationsHandler constructs handler.
func NewConversationsHandler(tickets *service.TicketService) *ConversationsHandler {
	return &ConversationsHandler{tickets: tickets}
}

// List GET /conversations?ticket_id=...
func (h *ConversationsHandler) List(c *fiber.Ctx) error {
	ticketID := strings.TrimSpace(c.Query("ticket_id"))
	if ticketID == "" {
		return apperrors.NewValidationError("ticket_id required", nil)
	}

	conversations, err := h.tickets.ListConversations(c.UserContext(), ticketID)
	if err != nil {
		return err
	}

	items := make([]dto.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		items = append(items, conversationResponse(&conversations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
