package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned by Put when a record already exists for the
// order. The unique constraint is the last line of defense against two
// lifecycle events for the same order racing each other; callers treat it
// as the already-invoiced case, not as a failure.
var ErrDuplicate = errors.New("ledger: invoice record already exists for order")

// ErrNotFound is returned by Get when no record exists for the order.
var ErrNotFound = errors.New("ledger: no invoice record for order")

// InvoiceRecord maps a host order to the provider document created for it.
// Records are written once on successful document creation and never
// updated; cancellation deliberately leaves the record in place.
type InvoiceRecord struct {
	ID            int64
	OrderID       int64
	InvoiceNumber string
	DocumentID    int64
	CreatedAt     time.Time
}

// Repository persists the order -> invoice mapping. At most one record per
// order id.
type Repository interface {
	// Get returns the record for the order, or ErrNotFound.
	Get(ctx context.Context, orderID int64) (*InvoiceRecord, error)
	// Put inserts a record for the order. Returns ErrDuplicate if one
	// already exists.
	Put(ctx context.Context, orderID int64, invoiceNumber string, documentID int64) error
}
