// Package invoice orchestrates the invoicing workflow: one linear,
// early-exit sequence of provider calls per order lifecycle event, with the
// local ledger providing idempotency and the activity trail providing the
// operator-visible failure surface.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cartbill/ms_invoicing_core/internal/application/partner"
	"cartbill/ms_invoicing_core/internal/core/activity"
	"cartbill/ms_invoicing_core/internal/core/billing"
	"cartbill/ms_invoicing_core/internal/core/ledger"
	"cartbill/ms_invoicing_core/internal/core/order"
	ctxutil "cartbill/ms_invoicing_core/internal/infrastructure/context"
)

// dueDateOffsetDays is the payment term applied to every invoice.
const dueDateOffsetDays = 8

// Settings is the read-only invoicing configuration injected into the
// service. Mapping functions never reach into it; the service resolves
// every setting before calling them.
type Settings struct {
	DocumentBlockID    int64
	Language           string
	ElectronicInvoice  bool
	PaymentMethodLabel string
	QuantityUnit       string
	ShippingTitle      string
	ShippingVATRate    float64
	CreateZeroInvoice  bool
	ValidateTaxNumber  bool
}

// PDFCache is the optional cache consulted before hitting the provider for
// a rendered document. A nil cache disables caching.
type PDFCache interface {
	Get(invoiceNumber string) ([]byte, bool)
	Put(invoiceNumber string, data []byte) error
}

// Service sequences the invoicing workflow against the billing provider.
type Service struct {
	orders   order.Repository
	provider billing.Provider
	resolver *partner.Resolver
	ledger   ledger.Repository
	activity activity.Sink
	pdfCache PDFCache
	settings Settings
	log      *slog.Logger
}

// NewService creates the invoice orchestrator. pdfCache may be nil.
func NewService(
	orders order.Repository,
	provider billing.Provider,
	resolver *partner.Resolver,
	ledgerRepo ledger.Repository,
	sink activity.Sink,
	pdfCache PDFCache,
	settings Settings,
	log *slog.Logger,
) *Service {
	if settings.QuantityUnit == "" {
		settings.QuantityUnit = "db"
	}
	if settings.ShippingTitle == "" {
		settings.ShippingTitle = "Szállítás"
	}
	if settings.Language == "" {
		settings.Language = "hu"
	}
	if sink == nil {
		sink = activity.Discard{}
	}
	return &Service{
		orders:   orders,
		provider: provider,
		resolver: resolver,
		ledger:   ledgerRepo,
		activity: sink,
		pdfCache: pdfCache,
		settings: settings,
		log:      log,
	}
}

// dueDate applies the payment term in calendar days.
func dueDate(fulfillment time.Time) time.Time {
	return fulfillment.AddDate(0, 0, dueDateOffsetDays)
}

// CreateInvoice runs the full invoicing workflow for an order. For
// subscription renewals mainOrderID names the parent order whose buyer and
// line data the invoice is built from; the result is still ledgered and
// vendor-referenced under orderID. For plain lifecycle events both ids are
// the same.
//
// Every step fails the whole attempt; nothing is rolled back. A partner
// created before a later failure stays at the provider and is reused on
// the next attempt via tax-number lookup.
func (s *Service) CreateInvoice(ctx context.Context, orderID, mainOrderID int64) error {
	correlationID := uuid.NewString()
	ctx = ctxutil.WithCorrelationID(ctx, correlationID)
	log := s.log.With("order_id", orderID, "correlation_id", correlationID)

	ord, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order %d: %w", orderID, err)
	}

	// Idempotency: a ledger row means this order is done, whatever the
	// remote document's current state is.
	if existing, err := s.ledger.Get(ctx, orderID); err == nil {
		log.Info("Invoice already exists", "invoice_number", existing.InvoiceNumber)
		s.logActivity(ctx, orderID, activity.StatusSuccess, "Invoice already exists",
			fmt.Sprintf("Invoice already exists: %s", existing.InvoiceNumber), correlationID)
		return nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("check ledger for order %d: %w", orderID, err)
	}

	if ord.TotalAmount == 0 && !s.settings.CreateZeroInvoice {
		log.Info("Skipping invoice creation for zero-total order")
		return nil
	}

	mainOrder := ord
	if mainOrderID != orderID {
		mainOrder, err = s.orders.GetOrder(ctx, mainOrderID)
		if err != nil {
			return fmt.Errorf("get main order %d: %w", mainOrderID, err)
		}
	}

	doc, err := s.generate(ctx, log, mainOrder, orderID)
	if err != nil {
		log.Error("Invoice generation failed", "error", err)
		s.logActivity(ctx, orderID, activity.StatusFailed, "Invoice generation failed",
			fmt.Sprintf("Failed to generate invoice: %s", err), correlationID)
		return err
	}

	if err := s.ledger.Put(ctx, orderID, doc.InvoiceNumber, doc.ID); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			// A concurrent event won the race; the document exists, so this
			// attempt counts as done.
			log.Warn("Ledger row already written by a concurrent attempt", "invoice_number", doc.InvoiceNumber)
			return nil
		}
		log.Error("Ledger write failed", "error", err)
		s.logActivity(ctx, orderID, activity.StatusFailed, "Invoice generation failed",
			fmt.Sprintf("Failed to record invoice %s: %s", doc.InvoiceNumber, err), correlationID)
		return fmt.Errorf("record invoice for order %d: %w", orderID, err)
	}

	log.Info("Invoice generated", "invoice_number", doc.InvoiceNumber, "document_id", doc.ID)
	s.logActivity(ctx, orderID, activity.StatusSuccess, "Invoice generated",
		fmt.Sprintf("Billingo invoice created: %s", doc.InvoiceNumber), correlationID)
	return nil
}

// generate performs the provider-facing steps and returns the created
// document. orderID is the vendor reference; buyer and line data come from
// mainOrder.
func (s *Service) generate(ctx context.Context, log *slog.Logger, mainOrder *order.Order, orderID int64) (*billing.Document, error) {
	log.Info("Starting invoice generation", "currency", mainOrder.Currency, "main_order_id", mainOrder.ID)

	checkout, err := s.orders.GetCheckout(ctx, mainOrder.ID)
	if err != nil {
		return nil, fmt.Errorf("get checkout data: %w", err)
	}

	buyer, err := s.buildBuyerData(ctx, log, mainOrder, checkout)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolver.ResolveOrCreate(ctx, buyer)
	if err != nil {
		return nil, err
	}

	blockID, err := s.resolveDocumentBlock(ctx, log)
	if err != nil {
		return nil, err
	}

	items, err := s.buildOrderItems(ctx, log, mainOrder)
	if err != nil {
		return nil, err
	}

	fulfillment := time.Now().UTC()
	electronic := s.settings.ElectronicInvoice
	paid := false

	payload := billing.BuildDocumentPayload(billing.DocumentParams{
		PartnerID:       resolved.ID,
		BlockID:         blockID,
		Type:            billing.DocumentTypeInvoice,
		FulfillmentDate: fulfillment.Format("2006-01-02"),
		DueDate:         dueDate(fulfillment).Format("2006-01-02"),
		PaymentMethod:   billing.MapPaymentMethod(s.settings.PaymentMethodLabel),
		Language:        s.settings.Language,
		Currency:        mainOrder.Currency,
		Items:           billing.BuildDocumentItems(items),
		VendorID:        strconv.FormatInt(orderID, 10),
		Electronic:      &electronic,
		Paid:            &paid,
	})

	log.Debug("Creating document",
		"partner_id", resolved.ID,
		"block_id", blockID,
		"items", len(payload.Items),
		"payment_method", payload.PaymentMethod,
	)

	doc, err := s.provider.CreateDocument(ctx, payload)
	if err != nil {
		return nil, err
	}

	// An HTTP-success response without both identifiers is still a failure;
	// a ledger row without them would be unusable.
	if doc.InvoiceNumber == "" || doc.ID == 0 {
		return nil, errors.New("document created but invoice number or document id missing from response")
	}

	return doc, nil
}

// buildBuyerData assembles the transient buyer snapshot from the order's
// billing address and checkout data. The company-name override from
// checkout takes precedence over the billing profile's name. A supplied
// tax number is validated against the provider registry best-effort: any
// validation failure downgrades to a log line and the raw number is used.
func (s *Service) buildBuyerData(ctx context.Context, log *slog.Logger, ord *order.Order, checkout order.Checkout) (billing.BuyerData, error) {
	billingAddr := ord.BillingAddress
	if billingAddr == nil {
		return billing.BuyerData{}, billing.ErrNoBillingAddress
	}

	name := billingAddr.Name
	if checkout.BillingCompanyName != "" {
		name = checkout.BillingCompanyName
	}

	if checkout.VATNumber != "" && s.settings.ValidateTaxNumber {
		check, err := s.provider.CheckTaxNumber(ctx, checkout.VATNumber)
		switch {
		case err != nil:
			log.Warn("Tax number validation failed, using raw number", "tax_number", checkout.VATNumber, "error", err)
		case check.Result != billing.TaxNumberResultOK:
			log.Warn("Tax number not confirmed by registry, using raw number", "tax_number", checkout.VATNumber, "result", check.Result)
		default:
			log.Debug("Tax number validated", "tax_number", checkout.VATNumber)
		}
	}

	buyer := billing.BuyerData{
		Name:      name,
		Postcode:  billingAddr.Postcode,
		City:      billingAddr.City,
		Address:   billingAddr.FullAddress(),
		Country:   billingAddr.Country,
		TaxNumber: checkout.VATNumber,
		Email:     billingAddr.Email,
		Phone:     billingAddr.Phone,
	}

	log.Debug("Buyer data assembled", "name", buyer.Name, "city", buyer.City)
	return buyer, nil
}

// resolveDocumentBlock returns the configured block id, or the first
// available invoice block from the provider.
func (s *Service) resolveDocumentBlock(ctx context.Context, log *slog.Logger) (int64, error) {
	if s.settings.DocumentBlockID != 0 {
		log.Debug("Using configured document block", "block_id", s.settings.DocumentBlockID)
		return s.settings.DocumentBlockID, nil
	}

	blocks, err := s.provider.GetDocumentBlocks(ctx, billing.DocumentTypeInvoice)
	if err != nil {
		return 0, fmt.Errorf("fetch document blocks: %w", err)
	}
	if len(blocks) == 0 {
		return 0, billing.ErrNoBlocks
	}

	log.Debug("Using first available document block", "block_id", blocks[0].ID, "name", blocks[0].Name)
	return blocks[0].ID, nil
}

// buildOrderItems converts host order lines (minor units) into net-priced
// line items in major units, appending a synthesized shipping line when the
// order carries a shipping total. Tax applies only when the order's
// tax-behavior flag is set; otherwise every line is zero-rated.
func (s *Service) buildOrderItems(ctx context.Context, log *slog.Logger, ord *order.Order) ([]billing.ItemData, error) {
	lines, err := s.orders.GetItems(ctx, ord.ID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	if len(lines) == 0 {
		return nil, billing.ErrNoItems
	}

	hundred := decimal.NewFromInt(100)
	items := make([]billing.ItemData, 0, len(lines)+1)

	for _, line := range lines {
		taxRate := 0.0
		taxAmount := decimal.Zero
		if ord.TaxBehavior != 0 {
			taxRate = line.TaxRate
			taxAmount = decimal.NewFromInt(line.TaxAmount).Div(hundred)
		}

		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}

		net := decimal.NewFromInt(line.LineTotal).Div(hundred)
		unitPrice := net.Div(decimal.NewFromInt(qty))
		gross := net.Add(taxAmount)

		items = append(items, billing.ItemData{
			Name:        line.Title,
			Quantity:    float64(qty),
			Unit:        s.settings.QuantityUnit,
			UnitPrice:   unitPrice.InexactFloat64(),
			VATRate:     taxRate,
			NetPrice:    net.InexactFloat64(),
			VATAmount:   taxAmount.InexactFloat64(),
			GrossAmount: gross.InexactFloat64(),
		})

		log.Debug("Item",
			"name", line.Title,
			"quantity", qty,
			"unit_price", unitPrice.InexactFloat64(),
			"tax_rate", taxRate,
		)
	}

	if ord.ShippingTotal != 0 {
		shippingNet := decimal.NewFromInt(ord.ShippingTotal).Div(hundred)
		shippingVATRate := 0.0
		shippingVATAmount := decimal.Zero
		if ord.TaxBehavior != 0 {
			shippingVATRate = s.settings.ShippingVATRate
			shippingVATAmount = shippingNet.Mul(decimal.NewFromFloat(shippingVATRate)).Div(hundred)
		}

		items = append(items, billing.ItemData{
			Name:        s.settings.ShippingTitle,
			Quantity:    1,
			Unit:        s.settings.QuantityUnit,
			UnitPrice:   shippingNet.InexactFloat64(),
			VATRate:     shippingVATRate,
			NetPrice:    shippingNet.InexactFloat64(),
			VATAmount:   shippingVATAmount.InexactFloat64(),
			GrossAmount: shippingNet.Add(shippingVATAmount).InexactFloat64(),
		})
	}

	return items, nil
}

// CancelInvoice voids the provider document for a fully refunded order.
// The ledger row is deliberately left in place, so a later lifecycle event
// still sees the order as invoiced.
func (s *Service) CancelInvoice(ctx context.Context, orderID int64, reason string) error {
	correlationID := uuid.NewString()
	ctx = ctxutil.WithCorrelationID(ctx, correlationID)
	log := s.log.With("order_id", orderID, "correlation_id", correlationID)

	record, err := s.ledger.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			log.Warn("Invoice cancellation requested but no invoice recorded")
			s.logActivity(ctx, orderID, activity.StatusFailed, "Invoice cancellation failed",
				"No invoice found for this order", correlationID)
			return billing.ErrNoInvoiceFound
		}
		return fmt.Errorf("check ledger for order %d: %w", orderID, err)
	}

	log.Info("Cancelling document", "document_id", record.DocumentID, "reason", reason)

	if err := s.provider.CancelDocument(ctx, record.DocumentID, reason); err != nil {
		log.Error("Invoice cancellation failed", "error", err)
		s.logActivity(ctx, orderID, activity.StatusFailed, "Invoice cancellation failed",
			fmt.Sprintf("Failed to cancel invoice: %s", err), correlationID)
		return err
	}

	s.logActivity(ctx, orderID, activity.StatusSuccess, "Invoice cancelled",
		fmt.Sprintf("Billingo invoice cancelled: %s", record.InvoiceNumber), correlationID)
	return nil
}

// NotePartialRefund records that a partial refund arrived and nothing was
// done about it. Partial refunds are out of scope; the operator corrects
// the invoice manually.
func (s *Service) NotePartialRefund(ctx context.Context, orderID int64) {
	s.log.Warn("Partial refund received, not supported", "order_id", orderID)
	s.logActivity(ctx, orderID, activity.StatusFailed, "Partial refund not supported",
		"Partial refund is not supported yet. Correct the invoice manually.", "")
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// PDFFilename builds the attachment filename for an invoice, replacing
// anything outside [a-zA-Z0-9_-] in the invoice number.
func PDFFilename(invoiceNumber string) string {
	return "invoice_" + unsafeFilenameChars.ReplaceAllString(invoiceNumber, "_") + ".pdf"
}

// GetPDF returns the rendered invoice PDF for an order and the filename to
// serve it under. Resolution order: ledger record, then provider lookup by
// vendor reference. The cache, when configured, short-circuits the
// provider download and is populated after a successful fetch.
// billing.ErrPDFNotReady propagates so callers can retry later.
func (s *Service) GetPDF(ctx context.Context, orderID int64) ([]byte, string, error) {
	var documentID int64
	var invoiceNumber string

	record, err := s.ledger.Get(ctx, orderID)
	switch {
	case err == nil:
		documentID = record.DocumentID
		invoiceNumber = record.InvoiceNumber
	case errors.Is(err, ledger.ErrNotFound):
		doc, err := s.provider.GetDocumentByVendorID(ctx, strconv.FormatInt(orderID, 10))
		if err != nil {
			return nil, "", err
		}
		documentID = doc.ID
		invoiceNumber = doc.InvoiceNumber
	default:
		return nil, "", fmt.Errorf("check ledger for order %d: %w", orderID, err)
	}

	filename := PDFFilename(invoiceNumber)

	if s.pdfCache != nil {
		if data, ok := s.pdfCache.Get(invoiceNumber); ok {
			s.log.Debug("Serving invoice PDF from cache", "order_id", orderID, "invoice_number", invoiceNumber)
			return data, filename, nil
		}
	}

	data, err := s.provider.DownloadDocument(ctx, documentID)
	if err != nil {
		return nil, "", err
	}

	if s.pdfCache != nil {
		if err := s.pdfCache.Put(invoiceNumber, data); err != nil {
			s.log.Warn("Failed to cache invoice PDF", "invoice_number", invoiceNumber, "error", err)
		}
	}

	return data, filename, nil
}

// logActivity appends to the activity trail. Sink failures are logged and
// swallowed; the trail must never fail the attempt it describes.
func (s *Service) logActivity(ctx context.Context, orderID int64, status, title, content, correlationID string) {
	entry := activity.Entry{
		Status:        status,
		OrderID:       orderID,
		Title:         title,
		Content:       content,
		CorrelationID: correlationID,
	}
	if err := s.activity.Log(ctx, entry); err != nil {
		s.log.Warn("Failed to write activity entry", "order_id", orderID, "title", title, "error", err)
	}
}
