package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-ai-service/internal/ai"
	"github.com/spec-kit/support-ai-service/internal/dedup"
	"github.com/spec-kit/support-ai-service/internal/domain"
	"github.com/spec-kit/support-ai-service/internal/events"
	"github.com/spec-kit/support-ai-service/internal/observability"
	"github.com/spec-kit/support-ai-service/internal/repository"
	"github.com/spec-kit/support-ai-service/internal/triage"
	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

// PlanInvoker is the slice of the AI adapter the pipeline needs.
type PlanInvoker interface {
	Invoke(ctx context.Context, task string) (*ai.RunResult, error)
	ContinueRun(ctx context.Context, planID, reason string) (*ai.RunResult, error)
}

// Degraded response texts. Internal error details never reach the customer;
// these fixed strings do.
const (
	timeoutFallbackText = "We're sorry for the delay. Your request is taking longer than expected, " +
		"so a support agent will review your ticket and follow up shortly."
	errorFallbackText = "We're sorry, we couldn't fully process your request automatically. " +
		"Your ticket has been created and a support agent will review it shortly."
	duplicateResponseText = "A request identical to this one is already being processed."
)

// QueryPipeline orchestrates one customer query end to end: dedup check,
// ticket creation, AI invocation with fallback, classification merge,
// persistence and the conditional human-approval gate.
type QueryPipeline struct {
	customers     repository.CustomerRepository
	tickets       repository.TicketRepository
	conversations repository.ConversationRepository
	approvals     repository.ApprovalRepository
	invoker       PlanInvoker
	guard         dedup.Guard
	dispatcher    events.Dispatcher
	classifier    *triage.Classifier
	metrics       *observability.Metrics
	logger        *zap.Logger

	overallTimeout time.Duration
}

// PipelineDependencies bundles collaborators for the pipeline.
type PipelineDependencies struct {
	CustomerRepo     repository.CustomerRepository
	TicketRepo       repository.TicketRepository
	ConversationRepo repository.ConversationRepository
	ApprovalRepo     repository.ApprovalRepository
	Invoker          PlanInvoker
	Guard            dedup.Guard
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	OverallTimeout   time.Duration
}

// NewQueryPipeline constructs the pipeline.
func NewQueryPipeline(deps PipelineDependencies) *QueryPipeline {
	timeout := deps.OverallTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPipeline{
		customers:      deps.CustomerRepo,
		tickets:        deps.TicketRepo,
		conversations:  deps.ConversationRepo,
		approvals:      deps.ApprovalRepo,
		invoker:        deps.Invoker,
		guard:          deps.Guard,
		dispatcher:     deps.Dispatcher,
		classifier:     triage.NewClassifier(),
		metrics:        deps.Metrics,
		logger:         logger,
		overallTimeout: timeout,
	}
}

// ProcessQueryInput is the validated request payload.
type ProcessQueryInput struct {
	CustomerEmail string
	Query         string
	Subject       string
	Source        string
	Context       map[string]any
	Metadata      map[string]any
}

// ProcessQueryResult is the assembled pipeline outcome.
type ProcessQueryResult struct {
	RequestID             string
	TicketID              string
	PlanID                string
	Status                string
	AIResponse            string
	Classification        *domain.Classification
	RequiresHumanApproval bool
	ApprovalID            *string
	SuggestedActions      []map[string]any
	ProcessingTimeMs      float64
}

// ProcessQuery runs the request state machine. AI failures of any kind are
// absorbed into a degraded-but-successful result; only ticket creation and
// the initial conversation append are fatal.
func (p *QueryPipeline) ProcessQuery(ctx context.Context, input ProcessQueryInput) (*ProcessQueryResult, error) {
	start := time.Now()
	requestID := uuid.NewString()

	logger := p.logger.With(
		zap.String("request_id", requestID),
		zap.String("customer_email", input.CustomerEmail))
	logger.Info("processing customer query", zap.Int("query_length", len(input.Query)))

	fingerprint := dedup.Fingerprint(input.CustomerEmail, input.Query)
	existing, accepted, err := p.guard.Begin(ctx, fingerprint, requestID)
	if err != nil {
		// The guard is best-effort; a broken backend must not block support.
		logger.Warn("dedup guard unavailable", zap.Error(err))
	} else if !accepted {
		logger.Info("duplicate submission suppressed",
			zap.String("original_request_id", existing.RequestID),
			zap.String("original_ticket_id", existing.TicketID))
		return &ProcessQueryResult{
			RequestID:        requestID,
			TicketID:         existing.TicketID,
			Status:           "duplicate_prevented",
			AIResponse:       duplicateResponseText,
			ProcessingTimeMs: elapsedMs(start),
		}, nil
	}
	// End on every exit path so the window only blocks concurrent duplicates.
	defer func() {
		if err := p.guard.End(context.WithoutCancel(ctx), fingerprint); err != nil {
			logger.Warn("dedup guard cleanup failed", zap.Error(err))
		}
	}()

	customer, err := p.resolveCustomer(ctx, input)
	if err != nil {
		return nil, fatal(err, requestID)
	}

	ticket, err := p.openTicket(ctx, customer, input)
	if err != nil {
		return nil, fatal(err, requestID)
	}
	if err := p.guard.Attach(ctx, fingerprint, ticket.ID); err != nil {
		logger.Warn("dedup guard attach failed", zap.Error(err))
	}

	p.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			CustomerEmail: customer.Email,
			Subject:       ticket.Subject,
			Priority:      ticket.Priority,
			Source:        ticket.Source,
		},
	})

	bag, planID, degraded, timedOut := p.invokePlanner(ctx, input, ticket.ID, logger)

	responseText := ai.ResponseText(bag)
	merged := p.mergeClassification(input.Query, bag)
	requiresApproval := triage.RequiresHumanApproval(input.Query) || ai.RequiresApproval(bag, responseText)

	p.persistAIResult(ctx, ticket, customer, planID, responseText, merged, requiresApproval, degraded, timedOut, logger)

	var approvalID *string
	if requiresApproval {
		approvalID = p.requestApproval(ctx, ticket.ID, planID, responseText, merged, bag, logger)
	}

	result := &ProcessQueryResult{
		RequestID:             requestID,
		TicketID:              ticket.ID,
		PlanID:                planID,
		Status:                "completed",
		AIResponse:            responseText,
		Classification:        &merged,
		RequiresHumanApproval: requiresApproval,
		ApprovalID:            approvalID,
		SuggestedActions:      ai.SuggestedActions(bag),
		ProcessingTimeMs:      elapsedMs(start),
	}

	logger.Info("customer query processed",
		zap.String("ticket_id", ticket.ID),
		zap.Bool("requires_approval", requiresApproval),
		zap.Bool("degraded", degraded))

	return result, nil
}

// resolveCustomer looks up the customer by email, creating one lazily on the
// first ticket.
func (p *QueryPipeline) resolveCustomer(ctx context.Context, input ProcessQueryInput) (*domain.Customer, error) {
	customer, err := p.customers.GetByEmail(ctx, input.CustomerEmail)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	customer = &domain.Customer{Email: input.CustomerEmail}
	if name, ok := input.Metadata["name"].(string); ok && name != "" {
		customer.Name = &name
	}
	if err := p.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// openTicket creates the ticket and the initial CUSTOMER conversation entry.
// Failures here are fatal to the request.
func (p *QueryPipeline) openTicket(ctx context.Context, customer *domain.Customer, input ProcessQueryInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		subject = "Customer Inquiry"
	}
	source := input.Source
	if source == "" {
		source = "api"
	}

	ticket := &domain.Ticket{
		Subject:    subject,
		Status:     domain.TicketStatusOpen,
		Priority:   domain.TicketPriorityMedium,
		Source:     source,
		CustomerID: customer.ID,
	}
	if err := p.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	entry := &domain.Conversation{
		TicketID:   ticket.ID,
		CustomerID: customer.ID,
		Content:    input.Query,
		Role:       domain.RoleCustomer,
		Metadata:   input.Metadata,
	}
	if err := p.conversations.Create(ctx, entry); err != nil {
		return nil, err
	}
	return ticket, nil
}

// invokePlanner calls the AI adapter under the overall request budget and
// synthesizes a fallback result bag on timeout or fatal error.
func (p *QueryPipeline) invokePlanner(ctx context.Context, input ProcessQueryInput, ticketID string, logger *zap.Logger) (bag ai.ResultBag, planID string, degraded, timedOut bool) {
	task := ai.BuildSupportTask(input.Query, ai.TaskContext{
		Email:    input.CustomerEmail,
		TicketID: ticketID,
		Source:   input.Source,
		Segment:  stringFromContext(input.Context, "segment"),
		History:  historyFromContext(input.Context),
	})

	aiCtx, cancel := context.WithTimeout(ctx, p.overallTimeout)
	defer cancel()

	result, err := p.invoker.Invoke(aiCtx, task)
	if err == nil {
		p.metrics.RecordAICall(true)
		return result.Bag, result.PlanID, false, false
	}
	p.metrics.RecordAICall(false)

	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("planning service timed out; continuing degraded")
		return ai.ResultBag{
			"final_output":            timeoutFallbackText,
			"requires_human_approval": true,
			"timeout":                 true,
			"suggested_actions": []any{
				map[string]any{
					"action":      "human_review_timeout",
					"description": "AI processing timed out; queued for human review",
				},
			},
		}, "", true, true
	}

	logger.Error("planning service failed; continuing degraded", zap.Error(err))
	return ai.ResultBag{
		"final_output":            errorFallbackText,
		"requires_human_approval": true,
		"error":                   err.Error(),
		"suggested_actions": []any{
			map[string]any{
				"action":      "human_review_error",
				"description": "AI processing failed; queued for human review",
			},
		},
	}, "", true, false
}

// mergeClassification computes the local classification from the original
// query and lets well-formed AI-provided fields override it. Every field has
// a deterministic local default, so the merge is always fully populated.
func (p *QueryPipeline) mergeClassification(query string, bag ai.ResultBag) domain.Classification {
	merged := p.classifier.Classify(query)

	override := ai.ClassificationOverride(bag)
	if override == nil {
		return merged
	}

	if v, ok := override["category"].(string); ok && v != "" {
		merged.Category = v
	}
	if v, ok := override["urgency"].(string); ok && v != "" {
		merged.Urgency = v
	}
	if v, ok := override["sentiment"].(string); ok && v != "" {
		merged.Sentiment = v
	}
	if v, ok := override["priority"].(string); ok {
		if priority, valid := normalizePriority(v); valid {
			merged.Priority = string(priority)
		}
	}
	if v, ok := override["confidence"].(float64); ok {
		merged.Confidence = clamp01(v)
	}
	// Booleans are normalized to their lowercase string form for
	// serialization stability downstream.
	switch v := override["cloud_enhanced"].(type) {
	case bool:
		if v {
			merged.CloudEnhanced = "true"
		} else {
			merged.CloudEnhanced = "false"
		}
	case string:
		merged.CloudEnhanced = strings.ToLower(v)
	}

	return merged
}

// persistAIResult applies the merged classification to the ticket and appends
// the AI_AGENT conversation entry. These are secondary writes: failures are
// logged and the request continues.
func (p *QueryPipeline) persistAIResult(
	ctx context.Context,
	ticket *domain.Ticket,
	customer *domain.Customer,
	planID, responseText string,
	merged domain.Classification,
	requiresApproval, degraded, timedOut bool,
	logger *zap.Logger,
) {
	status := domain.TicketStatusInProgress
	if requiresApproval {
		status = domain.TicketStatusWaitingApproval
	}
	priority := domain.TicketPriority(merged.Priority)

	update := repository.AIResultUpdate{
		Category:   &merged.Category,
		Priority:   &priority,
		Confidence: &merged.Confidence,
		Status:     &status,
	}
	if err := p.tickets.ApplyAIResult(ctx, ticket.ID, update); err != nil {
		logger.Error("ticket AI update failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	metadata := map[string]any{
		"confidence":              merged.Confidence,
		"category":                merged.Category,
		"urgency":                 merged.Urgency,
		"sentiment":               merged.Sentiment,
		"requires_human_approval": requiresApproval,
	}
	if planID != "" {
		metadata["plan_id"] = planID
	}
	if degraded {
		metadata["degraded"] = true
		metadata["fallback_reason"] = "planning_service_error"
		if timedOut {
			metadata["fallback_reason"] = "planning_service_timeout"
		}
	}

	entry := &domain.Conversation{
		TicketID:   ticket.ID,
		CustomerID: customer.ID,
		Content:    responseText,
		Role:       domain.RoleAIAgent,
		Metadata:   metadata,
	}
	if err := p.conversations.Create(ctx, entry); err != nil {
		logger.Error("AI conversation append failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	p.publish(ctx, events.Event{
		Type:     events.EventAIResponseRecorded,
		TicketID: ticket.ID,
		Payload: events.AIResponseRecordedPayload{
			PlanID:           planID,
			Category:         merged.Category,
			Confidence:       merged.Confidence,
			RequiresApproval: requiresApproval,
			Degraded:         degraded,
		},
	})
}

// requestApproval records the human gate for the suggested action. A failure
// here is secondary: logged, and the customer still gets a response.
func (p *QueryPipeline) requestApproval(
	ctx context.Context,
	ticketID, planID, responseText string,
	merged domain.Classification,
	bag ai.ResultBag,
	logger *zap.Logger,
) *string {
	approval := &domain.Approval{
		TicketID:     ticketID,
		ActionType:   merged.Category,
		AISuggestion: responseText,
		Status:       domain.ApprovalStatusPending,
		Metadata:     bag,
	}
	if planID != "" {
		approval.PlanID = &planID
	}

	if err := p.approvals.Create(ctx, approval); err != nil {
		logger.Error("approval creation failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil
	}

	p.publish(ctx, events.Event{
		Type:     events.EventApprovalRequested,
		TicketID: ticketID,
		Payload: events.ApprovalRequestedPayload{
			ApprovalID: approval.ID,
			ActionType: approval.ActionType,
		},
	})
	return &approval.ID
}

func (p *QueryPipeline) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = p.dispatcher.Publish(ctx, event)
}

func fatal(err error, requestID string) error {
	return &apperrors.DomainError{
		Code:       "QUERY_PROCESSING_FAILED",
		Message:    "query processing failed",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"request_id": requestID},
		Err:        err,
	}
}

func normalizePriority(v string) (domain.TicketPriority, bool) {
	switch domain.TicketPriority(strings.ToUpper(v)) {
	case domain.TicketPriorityLow:
		return domain.TicketPriorityLow, true
	case domain.TicketPriorityMedium:
		return domain.TicketPriorityMedium, true
	case domain.TicketPriorityHigh:
		return domain.TicketPriorityHigh, true
	case domain.TicketPriorityUrgent:
		return domain.TicketPriorityUrgent, true
	default:
		return "", false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func stringFromContext(ctx map[string]any, key string) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx[key].(string); ok {
		return v
	}
	return ""
}

func historyFromContext(ctx map[string]any) []string {
	if ctx == nil {
		return nil
	}
	raw, ok := ctx["history"].([]any)
	if !ok {
		return nil
	}
	var history []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			history = append(history, s)
		}
	}
	return history
}
