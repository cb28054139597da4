package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-ai-service/internal/api/dto"
	"github.com/spec-kit/support-ai-service/internal/auth"
	"github.com/spec-kit/support-ai-service/internal/service"
	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

// ApprovalsHandler manages the human-approval endpoints.
type ApprovalsHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvals *service.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{approvals: approvals}
}

// Decide POST /tickets/:id/approve.
func (h *ApprovalsHandler) Decide(c *fiber.Ctx) error {
	var req dto.ApprovalDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ApprovalID) == "" {
		return apperrors.NewValidationError("approval_id required", nil)
	}

	decidedBy := req.DecidedBy
	if principal, ok := auth.PrincipalFromContext(c); ok {
		decidedBy = &principal.AgentID
	}

	result, err := h.approvals.Decide(c.UserContext(), service.DecideInput{
		TicketID:   c.Params("id"),
		ApprovalID: req.ApprovalID,
		Approved:   req.Approved,
		Reason:     req.Reason,
		DecidedBy:  decidedBy,
	})
	if err != nil {
		return err
	}

	decision := map[string]any{"status": string(result.Approval.Status)}
	if result.Approval.Reason != nil {
		decision["reason"] = *result.Approval.Reason
	}
	if result.AIContinuation != nil {
		decision["ai_continuation"] = result.AIContinuation
	}

	return c.JSON(fiber.Map{"data": dto.ApprovalDecisionResponse{
		ApprovalID:  result.Approval.ID,
		TicketID:    result.Approval.TicketID,
		Approved:    req.Approved,
		ProcessedAt: result.ProcessedAt,
		Result:      decision,
	}})
}

// GetApproval GET /approvals/:id.
func (h *ApprovalsHandler) GetApproval(c *fiber.Ctx) error {
	approval, err := h.approvals.GetApproval(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": approvalResponse(approval)})
}
