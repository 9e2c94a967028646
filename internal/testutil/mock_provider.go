package testutil

import (
	"context"

	"cartbill/ms_invoicing_core/internal/core/billing"
)

// MockProvider is a mock implementation of billing.Provider for testing.
// Unset funcs return zero values without error so tests only wire what they
// assert on.
type MockProvider struct {
	GetDocumentBlocksFunc     func(ctx context.Context, blockType string) ([]billing.DocumentBlock, error)
	FindPartnersFunc          func(ctx context.Context, query string) ([]billing.Partner, error)
	CreatePartnerFunc         func(ctx context.Context, payload billing.PartnerPayload) (*billing.Partner, error)
	CreateDocumentFunc        func(ctx context.Context, payload billing.DocumentPayload) (*billing.Document, error)
	CancelDocumentFunc        func(ctx context.Context, documentID int64, reason string) error
	DownloadDocumentFunc      func(ctx context.Context, documentID int64) ([]byte, error)
	GetDocumentByVendorIDFunc func(ctx context.Context, vendorID string) (*billing.Document, error)
	CheckTaxNumberFunc        func(ctx context.Context, taxNumber string) (*billing.TaxNumberCheck, error)

	// Call counters for idempotency assertions.
	CreateDocumentCalls int
	CreatePartnerCalls  int
	FindPartnersCalls   int
}

func (m *MockProvider) GetDocumentBlocks(ctx context.Context, blockType string) ([]billing.DocumentBlock, error) {
	if m.GetDocumentBlocksFunc != nil {
		return m.GetDocumentBlocksFunc(ctx, blockType)
	}
	return []billing.DocumentBlock{}, nil
}

func (m *MockProvider) FindPartners(ctx context.Context, query string) ([]billing.Partner, error) {
	m.FindPartnersCalls++
	if m.FindPartnersFunc != nil {
		return m.FindPartnersFunc(ctx, query)
	}
	return []billing.Partner{}, nil
}

func (m *MockProvider) CreatePartner(ctx context.Context, payload billing.PartnerPayload) (*billing.Partner, error) {
	m.CreatePartnerCalls++
	if m.CreatePartnerFunc != nil {
		return m.CreatePartnerFunc(ctx, payload)
	}
	return &billing.Partner{ID: 1, Name: payload.Name, TaxCode: payload.TaxCode}, nil
}

func (m *MockProvider) CreateDocument(ctx context.Context, payload billing.DocumentPayload) (*billing.Document, error) {
	m.CreateDocumentCalls++
	if m.CreateDocumentFunc != nil {
		return m.CreateDocumentFunc(ctx, payload)
	}
	return &billing.Document{ID: 1, InvoiceNumber: "TEST-1"}, nil
}

func (m *MockProvider) CancelDocument(ctx context.Context, documentID int64, reason string) error {
	if m.CancelDocumentFunc != nil {
		return m.CancelDocumentFunc(ctx, documentID, reason)
	}
	return nil
}

func (m *MockProvider) DownloadDocument(ctx context.Context, documentID int64) ([]byte, error) {
	if m.DownloadDocumentFunc != nil {
		return m.DownloadDocumentFunc(ctx, documentID)
	}
	return nil, nil
}

func (m *MockProvider) GetDocumentByVendorID(ctx context.Context, vendorID string) (*billing.Document, error) {
	if m.GetDocumentByVendorIDFunc != nil {
		return m.GetDocumentByVendorIDFunc(ctx, vendorID)
	}
	return nil, billing.ErrDocumentNotFound
}

func (m *MockProvider) CheckTaxNumber(ctx context.Context, taxNumber string) (*billing.TaxNumberCheck, error) {
	if m.CheckTaxNumberFunc != nil {
		return m.CheckTaxNumberFunc(ctx, taxNumber)
	}
	return &billing.TaxNumberCheck{Result: billing.TaxNumberResultOK}, nil
}

// Ensure MockProvider implements billing.Provider.
var _ billing.Provider = (*MockProvider)(nil)
