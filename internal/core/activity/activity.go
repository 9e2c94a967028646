package activity

import (
	"context"
	"time"
)

// Entry statuses. The activity trail is the only place invoicing failures
// surface to operators; the host order flow is never interrupted.
const (
	StatusInfo    = "info"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry is one append-only audit record tied to an order.
type Entry struct {
	ID            int64
	Status        string
	OrderID       int64
	Title         string
	Content       string
	CorrelationID string
	CreatedAt     time.Time
}

// Sink receives activity entries. Implementations are write-only and
// append-only; a sink failure must never fail the invoicing attempt.
type Sink interface {
	Log(ctx context.Context, entry Entry) error
}

// Discard is a Sink that drops everything. Useful in tests and when the
// activity table is not configured.
type Discard struct{}

func (Discard) Log(context.Context, Entry) error { return nil }
