package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-ai-service/internal/domain"
)

// ConversationRepository manages the append-only ticket timeline.
type ConversationRepository interface {
	Create(ctx context.Context, entry *domain.Conversation) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Conversation, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository builds repository.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) Create(ctx context.Context, entry *domain.Conversation) error {
	const query = `
        INSERT INTO conversations (ticket_id, customer_id, content, role, metadata)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.CustomerID,
		entry.Content,
		entry.Role,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *conversationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Conversation, error) {
	const query = `
        SELECT id, ticket_id, customer_id, content, role, metadata, created_at
        FROM conversations WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Conversation
	for rows.Next() {
		var entry domain.Conversation
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.CustomerID,
			&entry.Content,
			&entry.Role,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
