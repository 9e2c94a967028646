// Package kafka consumes order lifecycle events from the host cart
// system's event stream and drives the invoicing workflow from them.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Lifecycle event names published by the host cart system.
const (
	EventOrderPaidDone        = "order_paid_done"
	EventOrderStatusChanged   = "order_status_changed"
	EventPaymentStatusToPaid  = "payment_status_changed_to_paid"
	EventOrderFullyRefunded   = "order_fully_refunded"
	EventOrderPartialRefunded = "order_partially_refunded"
	EventSubscriptionRenewed  = "subscription_renewed"
)

// statusCompleted is the only order_status_changed transition that triggers
// invoicing.
const statusCompleted = "completed"

// handlerTimeout bounds a single event's processing, provider calls included.
const handlerTimeout = 30 * time.Second

// InvoiceService is the slice of the invoice orchestrator the consumer
// drives.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, orderID, mainOrderID int64) error
	CancelInvoice(ctx context.Context, orderID int64, reason string) error
	NotePartialRefund(ctx context.Context, orderID int64)
}

// reader is the subset of kafka.Reader the consumer needs; tests inject a
// fake.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope is the wire shape of a lifecycle event.
type envelope struct {
	Event       string `json:"event"`
	OrderID     int64  `json:"order_id"`
	MainOrderID int64  `json:"main_order_id,omitempty"`
	NewStatus   string `json:"new_status,omitempty"`
}

// Consumer reads lifecycle events and dispatches them to the invoice
// service.
type Consumer struct {
	reader  reader
	service InvoiceService
	log     *slog.Logger
}

// Config holds the consumer's connection settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewConsumer creates a consumer reading from the configured topic. The
// group id makes multiple instances split the partitions instead of each
// processing every event.
func NewConsumer(cfg Config, service InvoiceService, log *slog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		service: service,
		log:     log,
	}
}

// newConsumerWithReader is the test seam.
func newConsumerWithReader(r reader, service InvoiceService, log *slog.Logger) *Consumer {
	return &Consumer{reader: r, service: service, log: log}
}

// Run consumes events until the context is cancelled. Every fetched message
// is committed, whether handling succeeded or not: invoicing failures are
// business-level, land in the activity trail, and are not fixed by
// redelivering the same event. Fetch errors back off and retry.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("Lifecycle event consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Lifecycle event consumer stopping")
				return ctx.Err()
			}
			c.log.Error("Failed to fetch message", "error", err)
			time.Sleep(time.Second)
			continue
		}

		handleCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		if err := c.handle(handleCtx, msg.Value); err != nil {
			c.log.Error("Event handling failed",
				"offset", msg.Offset,
				"partition", msg.Partition,
				"error", err,
			)
		}
		cancel()

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Failed to commit offset", "offset", msg.Offset, "error", err)
		}
	}
}

// handle decodes one event and dispatches it. Unknown events and
// non-triggering status transitions are skipped silently; the host stream
// carries far more event types than invoicing cares about.
func (c *Consumer) handle(ctx context.Context, value []byte) error {
	var evt envelope
	if err := json.Unmarshal(value, &evt); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if evt.OrderID == 0 {
		return fmt.Errorf("event %q missing order_id", evt.Event)
	}

	log := c.log.With("event", evt.Event, "order_id", evt.OrderID)

	switch evt.Event {
	case EventOrderPaidDone, EventPaymentStatusToPaid:
		return c.service.CreateInvoice(ctx, evt.OrderID, evt.OrderID)

	case EventOrderStatusChanged:
		if evt.NewStatus != statusCompleted {
			log.Debug("Ignoring status transition", "new_status", evt.NewStatus)
			return nil
		}
		return c.service.CreateInvoice(ctx, evt.OrderID, evt.OrderID)

	case EventSubscriptionRenewed:
		mainOrderID := evt.MainOrderID
		if mainOrderID == 0 {
			mainOrderID = evt.OrderID
		}
		return c.service.CreateInvoice(ctx, evt.OrderID, mainOrderID)

	case EventOrderFullyRefunded:
		return c.service.CancelInvoice(ctx, evt.OrderID, "Order refunded")

	case EventOrderPartialRefunded:
		c.service.NotePartialRefund(ctx, evt.OrderID)
		return nil

	default:
		log.Debug("Ignoring unknown event")
		return nil
	}
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
