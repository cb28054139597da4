package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-ai-service/internal/ai"
	"github.com/spec-kit/support-ai-service/internal/domain"
	"github.com/spec-kit/support-ai-service/internal/events"
	"github.com/spec-kit/support-ai-service/internal/repository"
	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

// ApprovalService handles the human-approval gate: reviewing pending AI
// suggestions and recording terminal decisions.
type ApprovalService struct {
	approvals  repository.ApprovalRepository
	tickets    repository.TicketRepository
	invoker    PlanInvoker
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(
	approvals repository.ApprovalRepository,
	tickets repository.TicketRepository,
	invoker PlanInvoker,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		approvals:  approvals,
		tickets:    tickets,
		invoker:    invoker,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// DecideInput carries an agent's decision on a pending approval.
type DecideInput struct {
	TicketID   string
	ApprovalID string
	Approved   bool
	Reason     *string
	DecidedBy  *string
}

// DecisionResult reports the recorded decision plus any follow-up the
// planning service produced after an approval.
type DecisionResult struct {
	Approval       *domain.Approval
	ProcessedAt    time.Time
	AIContinuation map[string]any
}

// GetApproval fetches one approval by id.
func (s *ApprovalService) GetApproval(ctx context.Context, id string) (*domain.Approval, error) {
	approval, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("approval", map[string]any{"approval_id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return approval, nil
}

// ListPending returns undecided approvals for a ticket.
func (s *ApprovalService) ListPending(ctx context.Context, ticketID string) ([]domain.Approval, error) {
	all, err := s.approvals.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	var pending []domain.Approval
	for _, approval := range all {
		if !approval.Decided() {
			pending = append(pending, approval)
		}
	}
	return pending, nil
}

// Decide records a terminal decision on a pending approval. Re-deciding an
// already-decided approval yields a conflict, never an overwrite.
func (s *ApprovalService) Decide(ctx context.Context, input DecideInput) (*DecisionResult, error) {
	approval, err := s.approvals.GetByID(ctx, input.ApprovalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("approval", map[string]any{"approval_id": input.ApprovalID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if approval.TicketID != input.TicketID {
		return nil, apperrors.NewNotFound("approval", map[string]any{
			"approval_id": input.ApprovalID,
			"ticket_id":   input.TicketID,
		})
	}
	if approval.Decided() {
		return nil, apperrors.NewConflict("approval already decided", map[string]any{
			"approval_id": approval.ID,
			"status":      string(approval.Status),
		})
	}

	status := domain.ApprovalStatusRejected
	if input.Approved {
		status = domain.ApprovalStatusApproved
	}

	decided, err := s.approvals.Decide(ctx, input.ApprovalID, status, input.DecidedBy, input.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a race with a concurrent decision.
			return nil, apperrors.NewConflict("approval already decided", map[string]any{
				"approval_id": input.ApprovalID,
			})
		}
		return nil, apperrors.NewInternalError(err)
	}

	// The decision record is the source of truth; follow-up writes are
	// best-effort.
	ticketStatus := domain.TicketStatusOpen
	if input.Approved {
		ticketStatus = domain.TicketStatusInProgress
	}
	if err := s.tickets.SetStatus(ctx, decided.TicketID, ticketStatus); err != nil {
		s.logger.Error("ticket status update after decision failed",
			zap.String("ticket_id", decided.TicketID), zap.Error(err))
	}

	result := &DecisionResult{Approval: decided}
	if decided.DecidedAt != nil {
		result.ProcessedAt = *decided.DecidedAt
	} else {
		result.ProcessedAt = time.Now().UTC()
	}

	if input.Approved && decided.PlanID != nil && s.invoker != nil {
		result.AIContinuation = s.continuePlan(ctx, *decided.PlanID, input.Reason)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventApprovalDecided,
		TicketID: decided.TicketID,
		Payload: events.ApprovalDecidedPayload{
			ApprovalID: decided.ID,
			Status:     decided.Status,
			DecidedBy:  decided.DecidedBy,
		},
	})

	s.logger.Info("approval decided",
		zap.String("approval_id", decided.ID),
		zap.String("ticket_id", decided.TicketID),
		zap.String("status", string(decided.Status)))

	return result, nil
}

// continuePlan resumes the paused planning run after an approval. Failures
// are swallowed: the decision stands regardless.
func (s *ApprovalService) continuePlan(ctx context.Context, planID string, reason *string) map[string]any {
	clarification := "Human agent approved the suggested action."
	if reason != nil && *reason != "" {
		clarification = *reason
	}

	run, err := s.invoker.ContinueRun(ctx, planID, clarification)
	if err != nil {
		s.logger.Warn("plan continuation failed",
			zap.String("plan_id", planID), zap.Error(err))
		return map[string]any{"status": "continuation_failed"}
	}
	return map[string]any{
		"status":   "continued",
		"plan_id":  run.PlanID,
		"response": ai.ResponseText(run.Bag),
	}
}

func (s *ApprovalService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}
