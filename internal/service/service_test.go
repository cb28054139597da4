package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-ai-service/internal/ai"
	"github.com/spec-kit/support-ai-service/internal/domain"
	"github.com/spec-kit/support-ai-service/internal/repository"
)

// In-memory repository fakes shared by the service tests.

type memCustomerRepo struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]domain.Customer
	byEmail map[string]string
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{byID: map[string]domain.Customer{}, byEmail: map[string]string{}}
}

func (r *memCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	customer.ID = fmt.Sprintf("customer-%d", r.seq)
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	r.byID[customer.ID] = *customer
	r.byEmail[customer.Email] = customer.ID
	return nil
}

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &customer, nil
}

func (r *memCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	customer := r.byID[id]
	return &customer, nil
}

func (r *memCustomerRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type memTicketRepo struct {
	mu         sync.Mutex
	seq        int
	tickets    map[string]domain.Ticket
	failCreate error
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (r *memTicketRepo) ApplyAIResult(_ context.Context, ticketID string, update repository.AIResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if update.Category != nil {
		ticket.Category = update.Category
	}
	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.Confidence != nil {
		ticket.AIConfidence = update.Confidence
	}
	if update.Status != nil {
		ticket.Status = *update.Status
	}
	r.tickets[ticketID] = ticket
	return nil
}

func (r *memTicketRepo) SetStatus(_ context.Context, ticketID string, status domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = status
	r.tickets[ticketID] = ticket
	return nil
}

func (r *memTicketRepo) get(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id]
}

func (r *memTicketRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

type memConversationRepo struct {
	mu         sync.Mutex
	seq        int
	entries    []domain.Conversation
	failOnRole domain.ConversationRole
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{}
}

func (r *memConversationRepo) Create(_ context.Context, entry *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOnRole != "" && entry.Role == r.failOnRole {
		return fmt.Errorf("conversation insert failed")
	}
	r.seq++
	entry.ID = fmt.Sprintf("conversation-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memConversationRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Conversation
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *memConversationRepo) forTicket(ticketID string) []domain.Conversation {
	result, _ := r.ListByTicket(context.Background(), ticketID)
	return result
}

type memApprovalRepo struct {
	mu        sync.Mutex
	seq       int
	approvals map[string]domain.Approval
}

func newMemApprovalRepo() *memApprovalRepo {
	return &memApprovalRepo{approvals: map[string]domain.Approval{}}
}

func (r *memApprovalRepo) Create(_ context.Context, approval *domain.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	approval.ID = fmt.Sprintf("approval-%d", r.seq)
	approval.CreatedAt = time.Now()
	r.approvals[approval.ID] = *approval
	return nil
}

func (r *memApprovalRepo) GetByID(_ context.Context, id string) (*domain.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	approval, ok := r.approvals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &approval, nil
}

func (r *memApprovalRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Approval
	for _, approval := range r.approvals {
		if approval.TicketID == ticketID {
			result = append(result, approval)
		}
	}
	return result, nil
}

func (r *memApprovalRepo) Decide(_ context.Context, id string, status domain.ApprovalStatus, decidedBy, reason *string) (*domain.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	approval, ok := r.approvals[id]
	if !ok || approval.Status != domain.ApprovalStatusPending {
		return nil, pgx.ErrNoRows
	}
	now := time.Now()
	approval.Status = status
	approval.DecidedBy = decidedBy
	approval.Reason = reason
	approval.DecidedAt = &now
	r.approvals[id] = approval
	return &approval, nil
}

func (r *memApprovalRepo) get(id string) domain.Approval {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approvals[id]
}

func (r *memApprovalRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.approvals)
}

// fakeInvoker scripts the planning-service adapter.
type fakeInvoker struct {
	mu            sync.Mutex
	result        *ai.RunResult
	err           error
	continueRes   *ai.RunResult
	continueErr   error
	calls         int
	continueCalls int
	lastTask      string
	lastPlanID    string
}

func (f *fakeInvoker) Invoke(_ context.Context, task string) (*ai.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastTask = task
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeInvoker) ContinueRun(_ context.Context, planID, _ string) (*ai.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.continueCalls++
	f.lastPlanID = planID
	if f.continueErr != nil {
		return nil, f.continueErr
	}
	return f.continueRes, nil
}
