package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"cartbill/ms_invoicing_core/internal/testutil"
)

type fakeService struct {
	createCalls  []int64
	mainOrderIDs []int64
	cancelCalls  []int64
	cancelReason string
	partialCalls []int64
	createErr    error
}

func (f *fakeService) CreateInvoice(_ context.Context, orderID, mainOrderID int64) error {
	f.createCalls = append(f.createCalls, orderID)
	f.mainOrderIDs = append(f.mainOrderIDs, mainOrderID)
	return f.createErr
}

func (f *fakeService) CancelInvoice(_ context.Context, orderID int64, reason string) error {
	f.cancelCalls = append(f.cancelCalls, orderID)
	f.cancelReason = reason
	return nil
}

func (f *fakeService) NotePartialRefund(_ context.Context, orderID int64) {
	f.partialCalls = append(f.partialCalls, orderID)
}

// fakeReader serves a fixed set of messages, then signals drained and
// blocks until the context is cancelled.
type fakeReader struct {
	messages  []kafka.Message
	next      int
	committed []int64
	drained   chan struct{}
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if f.next >= len(f.messages) {
		if f.drained != nil {
			close(f.drained)
			f.drained = nil
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.messages[f.next]
	f.next++
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func newTestConsumer(svc InvoiceService, r reader) *Consumer {
	return newConsumerWithReader(r, svc, testutil.NewNullLogger())
}

func handleEvent(t *testing.T, svc InvoiceService, payload string) error {
	t.Helper()
	c := newTestConsumer(svc, &fakeReader{})
	return c.handle(context.Background(), []byte(payload))
}

func TestHandle_OrderPaidDone(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"order_paid_done","order_id":55}`); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(svc.createCalls) != 1 || svc.createCalls[0] != 55 {
		t.Errorf("create calls = %v, want [55]", svc.createCalls)
	}
	if svc.mainOrderIDs[0] != 55 {
		t.Errorf("main order id = %d, want 55", svc.mainOrderIDs[0])
	}
}

func TestHandle_PaymentStatusToPaid(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"payment_status_changed_to_paid","order_id":7}`); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(svc.createCalls) != 1 {
		t.Errorf("create calls = %v, want one call", svc.createCalls)
	}
}

func TestHandle_StatusChanged(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantCreate bool
	}{
		{"completed triggers", "completed", true},
		{"processing ignored", "processing", false},
		{"on-hold ignored", "on-hold", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			payload := `{"event":"order_status_changed","order_id":55,"new_status":"` + tt.status + `"}`
			if err := handleEvent(t, svc, payload); err != nil {
				t.Fatalf("handle() error = %v", err)
			}
			if got := len(svc.createCalls) == 1; got != tt.wantCreate {
				t.Errorf("create called = %v, want %v", got, tt.wantCreate)
			}
		})
	}
}

func TestHandle_SubscriptionRenewed(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"subscription_renewed","order_id":200,"main_order_id":100}`); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if svc.createCalls[0] != 200 || svc.mainOrderIDs[0] != 100 {
		t.Errorf("create = (%d, %d), want (200, 100)", svc.createCalls[0], svc.mainOrderIDs[0])
	}
}

func TestHandle_SubscriptionRenewedWithoutMainOrder(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"subscription_renewed","order_id":200}`); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if svc.mainOrderIDs[0] != 200 {
		t.Errorf("main order id = %d, want fallback to 200", svc.mainOrderIDs[0])
	}
}

func TestHandle_FullRefund(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"order_fully_refunded","order_id":55}`); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(svc.cancelCalls) != 1 || svc.cancelCalls[0] != 55 {
		t.Errorf("cancel calls = %v, want [55]", svc.cancelCalls)
	}
	if svc.cancelReason == "" {
		t.Error("cancel reason is empty")
	}
}

func TestHandle_PartialRefund(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"order_partially_refunded","order_id":55}`); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(svc.partialCalls) != 1 {
		t.Errorf("partial refund calls = %v, want one", svc.partialCalls)
	}
	if len(svc.cancelCalls) != 0 {
		t.Errorf("cancel calls = %v, want none", svc.cancelCalls)
	}
}

func TestHandle_UnknownEventSkipped(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"cart_abandoned","order_id":55}`); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if len(svc.createCalls)+len(svc.cancelCalls)+len(svc.partialCalls) != 0 {
		t.Error("unknown event reached the service")
	}
}

func TestHandle_MalformedPayload(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{not json`); err == nil {
		t.Fatal("handle() error = nil, want decode failure")
	}
}

func TestHandle_MissingOrderID(t *testing.T) {
	svc := &fakeService{}
	if err := handleEvent(t, svc, `{"event":"order_paid_done"}`); err == nil {
		t.Fatal("handle() error = nil, want missing order_id failure")
	}
}

func TestRun_CommitsFailedEvents(t *testing.T) {
	svc := &fakeService{createErr: errors.New("provider down")}
	drained := make(chan struct{})
	r := &fakeReader{
		messages: []kafka.Message{
			{Offset: 1, Value: []byte(`{"event":"order_paid_done","order_id":55}`)},
			{Offset: 2, Value: []byte(`{"event":"order_paid_done","order_id":56}`)},
		},
		drained: drained,
	}
	c := newTestConsumer(svc, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()

	<-drained
	cancel()
	<-done

	// Both offsets committed even though handling failed: a redelivery
	// would just fail the same way.
	if len(r.committed) != 2 {
		t.Errorf("committed offsets = %v, want both", r.committed)
	}
	if len(svc.createCalls) != 2 {
		t.Errorf("create calls = %v, want two attempts", svc.createCalls)
	}
}
