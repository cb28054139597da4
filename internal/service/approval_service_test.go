package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-ai-service/internal/ai"
	"github.com/spec-kit/support-ai-service/internal/domain"
	"github.com/spec-kit/support-ai-service/internal/events"
	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

type approvalFixture struct {
	service   *ApprovalService
	approvals *memApprovalRepo
	tickets   *memTicketRepo
	invoker   *fakeInvoker
}

func newApprovalFixture(t *testing.T, invoker *fakeInvoker) (*approvalFixture, string, string) {
	t.Helper()

	approvals := newMemApprovalRepo()
	tickets := newMemTicketRepo()

	ticket := &domain.Ticket{
		Subject:    "Refund request",
		Status:     domain.TicketStatusWaitingApproval,
		Priority:   domain.TicketPriorityMedium,
		Source:     "api",
		CustomerID: "customer-1",
	}
	require.NoError(t, tickets.Create(context.Background(), ticket))

	planID := "plan-9"
	approval := &domain.Approval{
		TicketID:     ticket.ID,
		ActionType:   "refund_request",
		AISuggestion: "Issue a refund of the last order.",
		Status:       domain.ApprovalStatusPending,
		PlanID:       &planID,
	}
	require.NoError(t, approvals.Create(context.Background(), approval))

	f := &approvalFixture{
		service:   NewApprovalService(approvals, tickets, invoker, events.NewInMemoryDispatcher(), zap.NewNop()),
		approvals: approvals,
		tickets:   tickets,
		invoker:   invoker,
	}
	return f, ticket.ID, approval.ID
}

func TestDecideApproveContinuesPlan(t *testing.T) {
	invoker := &fakeInvoker{continueRes: &ai.RunResult{
		PlanID: "plan-9",
		Bag:    ai.ResultBag{"final_output": "Refund issued."},
	}}
	f, ticketID, approvalID := newApprovalFixture(t, invoker)

	agent := "agent-1"
	result, err := f.service.Decide(context.Background(), DecideInput{
		TicketID:   ticketID,
		ApprovalID: approvalID,
		Approved:   true,
		DecidedBy:  &agent,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ApprovalStatusApproved, result.Approval.Status)
	require.NotNil(t, result.Approval.DecidedAt)
	assert.False(t, result.ProcessedAt.IsZero())

	assert.Equal(t, domain.TicketStatusInProgress, f.tickets.get(ticketID).Status)

	require.NotNil(t, result.AIContinuation)
	assert.Equal(t, "continued", result.AIContinuation["status"])
	assert.Equal(t, "Refund issued.", result.AIContinuation["response"])
	assert.Equal(t, "plan-9", f.invoker.lastPlanID)
}

func TestDecideRejectReopensTicket(t *testing.T) {
	f, ticketID, approvalID := newApprovalFixture(t, &fakeInvoker{})

	reason := "amount exceeds policy"
	result, err := f.service.Decide(context.Background(), DecideInput{
		TicketID:   ticketID,
		ApprovalID: approvalID,
		Approved:   false,
		Reason:     &reason,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ApprovalStatusRejected, result.Approval.Status)
	require.NotNil(t, result.Approval.Reason)
	assert.Equal(t, reason, *result.Approval.Reason)

	assert.Equal(t, domain.TicketStatusOpen, f.tickets.get(ticketID).Status)
	assert.Zero(t, f.invoker.continueCalls)
	assert.Nil(t, result.AIContinuation)
}

func TestDecideTwiceConflicts(t *testing.T) {
	f, ticketID, approvalID := newApprovalFixture(t, &fakeInvoker{continueRes: &ai.RunResult{
		Bag: ai.ResultBag{"final_output": "done"},
	}})

	_, err := f.service.Decide(context.Background(), DecideInput{
		TicketID:   ticketID,
		ApprovalID: approvalID,
		Approved:   true,
	})
	require.NoError(t, err)

	_, err = f.service.Decide(context.Background(), DecideInput{
		TicketID:   ticketID,
		ApprovalID: approvalID,
		Approved:   false,
	})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	// First decision stands.
	assert.Equal(t, domain.ApprovalStatusApproved, f.approvals.get(approvalID).Status)
}

func TestDecideUnknownApprovalNotFound(t *testing.T) {
	f, ticketID, _ := newApprovalFixture(t, &fakeInvoker{})

	_, err := f.service.Decide(context.Background(), DecideInput{
		TicketID:   ticketID,
		ApprovalID: "approval-missing",
		Approved:   true,
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestDecideMismatchedTicketNotFound(t *testing.T) {
	f, _, approvalID := newApprovalFixture(t, &fakeInvoker{})

	_, err := f.service.Decide(context.Background(), DecideInput{
		TicketID:   "ticket-other",
		ApprovalID: approvalID,
		Approved:   true,
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	// The approval stays pending.
	assert.Equal(t, domain.ApprovalStatusPending, f.approvals.get(approvalID).Status)
}

func TestDecideSurvivesContinuationFailure(t *testing.T) {
	invoker := &fakeInvoker{continueErr: context.DeadlineExceeded}
	f, ticketID, approvalID := newApprovalFixture(t, invoker)

	result, err := f.service.Decide(context.Background(), DecideInput{
		TicketID:   ticketID,
		ApprovalID: approvalID,
		Approved:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ApprovalStatusApproved, result.Approval.Status)
	require.NotNil(t, result.AIContinuation)
	assert.Equal(t, "continuation_failed", result.AIContinuation["status"])
}

func TestListPendingFiltersDecided(t *testing.T) {
	f, ticketID, approvalID := newApprovalFixture(t, &fakeInvoker{})

	second := &domain.Approval{
		TicketID:     ticketID,
		ActionType:   "account_update",
		AISuggestion: "Close the account.",
		Status:       domain.ApprovalStatusPending,
	}
	require.NoError(t, f.approvals.Create(context.Background(), second))

	_, err := f.service.Decide(context.Background(), DecideInput{
		TicketID:   ticketID,
		ApprovalID: approvalID,
		Approved:   false,
	})
	require.NoError(t, err)

	pending, err := f.service.ListPending(context.Background(), ticketID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}
