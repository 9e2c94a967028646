package billing

import (
	"errors"
	"fmt"
)

// Sentinel errors for the invoicing workflow. Callers match these with
// errors.Is; everything coming back from the provider over HTTP is an
// *APIError instead.
var (
	// ErrMissingAPIKey means the provider API key is not configured.
	ErrMissingAPIKey = errors.New("billing: API key not configured")
	// ErrInvalidTaxNumberFormat is returned by the client-side tax number
	// gate before any network call is made.
	ErrInvalidTaxNumberFormat = errors.New("billing: invalid tax number format")
	// ErrNoBillingAddress means the order has no billing address to invoice.
	ErrNoBillingAddress = errors.New("billing: no billing address found for order")
	// ErrNoItems means the order has no line items.
	ErrNoItems = errors.New("billing: no items found for order")
	// ErrNoBlocks means no document block is configured and the provider
	// account has none of the requested type.
	ErrNoBlocks = errors.New("billing: no document blocks found")
	// ErrNoInvoiceFound means no invoice is recorded for the order.
	ErrNoInvoiceFound = errors.New("billing: no invoice found for this order")
	// ErrDocumentNotFound means the provider has no document under the
	// vendor reference.
	ErrDocumentNotFound = errors.New("billing: document not found")
	// ErrPDFNotReady means the provider is still rendering the document.
	// Callers should retry later rather than treat this as permanent.
	ErrPDFNotReady = errors.New("billing: PDF is being generated, try again later")
)

// APIError is a provider-side failure: either an HTTP status >= 400 with the
// message extracted from the response body, or a transport-level failure
// (Code == 0). It replaces the untyped error-shaped values the provider
// returns in its body.
type APIError struct {
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("billing: request failed: %s", e.Message)
	}
	return fmt.Sprintf("billing: API returned %d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Transport reports whether the error happened before an HTTP status was
// received (DNS, timeout, TLS).
func (e *APIError) Transport() bool { return e.Code == 0 }
