package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"cartbill/ms_invoicing_core/internal/core/activity"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the activity.Sink interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL activity sink.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Log appends an activity entry.
func (r *Repository) Log(ctx context.Context, entry activity.Entry) error {
	query := `
		INSERT INTO activity_log (status, order_id, title, content, correlation_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.Status,
		entry.OrderID,
		entry.Title,
		entry.Content,
		entry.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}

	r.log.Debug("Activity entry saved",
		"order_id", entry.OrderID,
		"status", entry.Status,
		"title", entry.Title,
	)
	return nil
}

// Recent returns the latest entries for an order, newest first.
func (r *Repository) Recent(ctx context.Context, orderID int64, limit int) ([]activity.Entry, error) {
	query := `
		SELECT id, status, order_id, title, content, correlation_id, created_at
		FROM activity_log
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity entries: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var e activity.Entry
		if err := rows.Scan(&e.ID, &e.Status, &e.OrderID, &e.Title, &e.Content, &e.CorrelationID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

var _ activity.Sink = (*Repository)(nil)
