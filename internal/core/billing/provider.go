package billing

import "context"

// TaxNumberResultOK is the provider's registry answer for a valid number.
const TaxNumberResultOK = "validation_ok"

// TaxNumberCheck is the provider's registry lookup result.
type TaxNumberCheck struct {
	Result string `json:"result"`
}

// Provider is the gateway to the billing backend's REST API. Every method
// is a single request/response call with a bounded timeout; there are no
// retries at this layer.
type Provider interface {
	// GetDocumentBlocks lists the account's document blocks of the given type.
	GetDocumentBlocks(ctx context.Context, blockType string) ([]DocumentBlock, error)
	// FindPartners searches partners by free-text query.
	FindPartners(ctx context.Context, query string) ([]Partner, error)
	// CreatePartner creates a new partner record.
	CreatePartner(ctx context.Context, payload PartnerPayload) (*Partner, error)
	// CreateDocument creates a document (invoice) from the payload.
	CreateDocument(ctx context.Context, payload DocumentPayload) (*Document, error)
	// CancelDocument voids a document with a cancellation reason.
	CancelDocument(ctx context.Context, documentID int64, reason string) error
	// DownloadDocument fetches the rendered file for a document. While the
	// provider is still rendering it returns ErrPDFNotReady.
	DownloadDocument(ctx context.Context, documentID int64) ([]byte, error)
	// GetDocumentByVendorID looks a document up by the vendor reference
	// stored at creation time (the host order id).
	GetDocumentByVendorID(ctx context.Context, vendorID string) (*Document, error)
	// CheckTaxNumber validates a domestic tax number against the provider's
	// registry lookup. Malformed numbers fail with ErrInvalidTaxNumberFormat
	// before any network call.
	CheckTaxNumber(ctx context.Context, taxNumber string) (*TaxNumberCheck, error)
}
