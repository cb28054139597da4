package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardCounts aggregates the support metrics shown on the dashboard.
type DashboardCounts struct {
	TotalTickets     int64
	TicketsToday     int64
	OpenTickets      int64
	PendingApprovals int64
	AIConversations  int64
}

// AnalyticsRepository runs aggregate queries over the support tables.
type AnalyticsRepository interface {
	Dashboard(ctx context.Context, now time.Time) (*DashboardCounts, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository builds repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) Dashboard(ctx context.Context, now time.Time) (*DashboardCounts, error) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	const query = `
        SELECT
            (SELECT COUNT(*) FROM tickets),
            (SELECT COUNT(*) FROM tickets WHERE created_at >= $1),
            (SELECT COUNT(*) FROM tickets WHERE status = 'OPEN'),
            (SELECT COUNT(*) FROM approvals WHERE status = 'PENDING'),
            (SELECT COUNT(*) FROM conversations WHERE role = 'AI_AGENT' AND created_at >= $2)`

	var counts DashboardCounts
	if err := r.pool.QueryRow(ctx, query, todayStart, weekAgo).Scan(
		&counts.TotalTickets,
		&counts.TicketsToday,
		&counts.OpenTickets,
		&counts.PendingApprovals,
		&counts.AIConversations,
	); err != nil {
		return nil, err
	}
	return &counts, nil
}
