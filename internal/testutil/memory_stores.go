package testutil

import (
	"context"
	"sync"
	"time"

	"cartbill/ms_invoicing_core/internal/core/activity"
	"cartbill/ms_invoicing_core/internal/core/ledger"
	"cartbill/ms_invoicing_core/internal/core/order"
)

// MemoryLedger is an in-memory ledger.Repository enforcing the same
// uniqueness the postgres adapter gets from its constraint.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[int64]ledger.InvoiceRecord
	nextID  int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[int64]ledger.InvoiceRecord)}
}

func (m *MemoryLedger) Get(_ context.Context, orderID int64) (*ledger.InvoiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[orderID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryLedger) Put(_ context.Context, orderID int64, invoiceNumber string, documentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[orderID]; ok {
		return ledger.ErrDuplicate
	}
	m.nextID++
	m.records[orderID] = ledger.InvoiceRecord{
		ID:            m.nextID,
		OrderID:       orderID,
		InvoiceNumber: invoiceNumber,
		DocumentID:    documentID,
		CreatedAt:     time.Now(),
	}
	return nil
}

// Len returns the number of stored records.
func (m *MemoryLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

var _ ledger.Repository = (*MemoryLedger)(nil)

// MemoryActivitySink collects activity entries for assertions.
type MemoryActivitySink struct {
	mu      sync.Mutex
	Entries []activity.Entry
}

func (m *MemoryActivitySink) Log(_ context.Context, entry activity.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

// Last returns the most recent entry, or a zero Entry.
func (m *MemoryActivitySink) Last() activity.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return activity.Entry{}
	}
	return m.Entries[len(m.Entries)-1]
}

var _ activity.Sink = (*MemoryActivitySink)(nil)

// MockOrderRepository is a mock implementation of order.Repository.
type MockOrderRepository struct {
	GetOrderFunc    func(ctx context.Context, orderID int64) (*order.Order, error)
	GetItemsFunc    func(ctx context.Context, orderID int64) ([]order.Item, error)
	GetCheckoutFunc func(ctx context.Context, orderID int64) (order.Checkout, error)
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, orderID)
	}
	return nil, order.ErrNotFound
}

func (m *MockOrderRepository) GetItems(ctx context.Context, orderID int64) ([]order.Item, error) {
	if m.GetItemsFunc != nil {
		return m.GetItemsFunc(ctx, orderID)
	}
	return []order.Item{}, nil
}

func (m *MockOrderRepository) GetCheckout(ctx context.Context, orderID int64) (order.Checkout, error) {
	if m.GetCheckoutFunc != nil {
		return m.GetCheckoutFunc(ctx, orderID)
	}
	return order.Checkout{}, nil
}

var _ order.Repository = (*MockOrderRepository)(nil)
