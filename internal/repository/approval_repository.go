package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-ai-service/internal/domain"
)

// ApprovalRepository manages human-approval records.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *domain.Approval) error
	GetByID(ctx context.Context, id string) (*domain.Approval, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Approval, error)
	// Decide moves a PENDING approval to a terminal state. Returns
	// pgx.ErrNoRows when the approval is missing or already decided.
	Decide(ctx context.Context, id string, status domain.ApprovalStatus, decidedBy, reason *string) (*domain.Approval, error)
}

type approvalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository builds repository.
func NewApprovalRepository(pool *pgxpool.Pool) ApprovalRepository {
	return &approvalRepository{pool: pool}
}

const approvalColumns = `id, ticket_id, action_type, ai_suggestion, status, plan_id,
               decided_by, reason, metadata, created_at, decided_at`

func (r *approvalRepository) Create(ctx context.Context, approval *domain.Approval) error {
	const query = `
        INSERT INTO approvals (ticket_id, action_type, ai_suggestion, status, plan_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		approval.TicketID,
		approval.ActionType,
		approval.AISuggestion,
		approval.Status,
		approval.PlanID,
		approval.Metadata,
	).Scan(&approval.ID, &approval.CreatedAt)
}

func (r *approvalRepository) GetByID(ctx context.Context, id string) (*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id=$1`

	var approval domain.Approval
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&approval.ID,
		&approval.TicketID,
		&approval.ActionType,
		&approval.AISuggestion,
		&approval.Status,
		&approval.PlanID,
		&approval.DecidedBy,
		&approval.Reason,
		&approval.Metadata,
		&approval.CreatedAt,
		&approval.DecidedAt,
	); err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Approval
	for rows.Next() {
		var approval domain.Approval
		if err := rows.Scan(
			&approval.ID,
			&approval.TicketID,
			&approval.ActionType,
			&approval.AISuggestion,
			&approval.Status,
			&approval.PlanID,
			&approval.DecidedBy,
			&approval.Reason,
			&approval.Metadata,
			&approval.CreatedAt,
			&approval.DecidedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, approval)
	}
	return result, rows.Err()
}

func (r *approvalRepository) Decide(ctx context.Context, id string, status domain.ApprovalStatus, decidedBy, reason *string) (*domain.Approval, error) {
	// The status='PENDING' guard makes the decision terminal: a second call
	// matches no rows instead of overwriting the first decision.
	query := `
        UPDATE approvals SET status=$1, decided_by=$2, reason=$3, decided_at=NOW()
        WHERE id=$4 AND status='PENDING'
        RETURNING ` + approvalColumns

	var approval domain.Approval
	if err := r.pool.QueryRow(ctx, query, status, decidedBy, reason, id).Scan(
		&approval.ID,
		&approval.TicketID,
		&approval.ActionType,
		&approval.AISuggestion,
		&approval.Status,
		&approval.PlanID,
		&approval.DecidedBy,
		&approval.Reason,
		&approval.Metadata,
		&approval.CreatedAt,
		&approval.DecidedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &approval, nil
}
