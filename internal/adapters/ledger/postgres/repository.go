package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cartbill/ms_invoicing_core/internal/core/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code raised by the order_id
// constraint; it carries the whole idempotency guarantee.
const uniqueViolation = "23505"

// Repository implements the ledger.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL invoice ledger repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// Get returns the ledger record for the order, or ledger.ErrNotFound.
func (r *Repository) Get(ctx context.Context, orderID int64) (*ledger.InvoiceRecord, error) {
	query := `
		SELECT id, order_id, invoice_number, invoice_id, created_at
		FROM invoices
		WHERE order_id = $1
	`

	var rec ledger.InvoiceRecord
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&rec.ID,
		&rec.OrderID,
		&rec.InvoiceNumber,
		&rec.DocumentID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("query invoice record: %w", err)
	}

	return &rec, nil
}

// Put inserts a ledger record for the order. A unique violation on
// order_id maps to ledger.ErrDuplicate so callers can treat the race as
// already-done.
func (r *Repository) Put(ctx context.Context, orderID int64, invoiceNumber string, documentID int64) error {
	query := `
		INSERT INTO invoices (order_id, invoice_number, invoice_id)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, orderID, invoiceNumber, documentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ledger.ErrDuplicate
		}
		return fmt.Errorf("insert invoice record: %w", err)
	}

	r.log.Debug("Invoice record saved",
		"order_id", orderID,
		"invoice_number", invoiceNumber,
		"document_id", documentID,
	)
	return nil
}

var _ ledger.Repository = (*Repository)(nil)
