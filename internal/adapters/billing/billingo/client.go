package billingo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"cartbill/ms_invoicing_core/internal/core/billing"
)

// DefaultBaseURL is the provider's v3 REST API root.
const DefaultBaseURL = "https://api.billingo.hu/v3"

// HTTPClient interface allows using both standard and instrumented HTTP clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements the billing.Provider interface against the Billingo v3
// REST API. Authentication is a static API key header; every call is one
// request with the timeout carried by the injected HTTP client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	log        *slog.Logger
}

// NewClient creates a new Billingo API client.
func NewClient(baseURL, apiKey string, httpClient HTTPClient, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log,
	}
}

var _ billing.Provider = (*Client)(nil)

// apiErrorBody covers the two error envelopes the provider uses.
type apiErrorBody struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// request performs a single JSON API call. Transport failures come back as
// *billing.APIError with Code 0; HTTP statuses >= 400 come back as
// *billing.APIError carrying the status and the message extracted from the
// response body.
func (c *Client) request(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, billing.ErrMissingAPIKey
	}

	var reqBody io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch) {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debug("Billingo API request", "method", method, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Billingo request failed", "method", method, "endpoint", endpoint, "error", err)
		return nil, &billing.APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &billing.APIError{Message: fmt.Sprintf("read response body: %v", err), Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.providerError(resp.StatusCode, respBody, endpoint)
	}

	return respBody, nil
}

// providerError extracts the error message from body.message or
// body.error.message, falling back to a generic string.
func (c *Client) providerError(status int, body []byte, endpoint string) *billing.APIError {
	message := "API error"
	var errBody apiErrorBody
	if err := json.Unmarshal(body, &errBody); err == nil {
		switch {
		case errBody.Message != "":
			message = errBody.Message
		case errBody.Error.Message != "":
			message = errBody.Error.Message
		}
	}
	c.log.Warn("Billingo API returned error status", "status", status, "endpoint", endpoint, "message", message)
	return &billing.APIError{Code: status, Message: message}
}

// listResponse is the provider's paged list envelope.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// GetDocumentBlocks lists the account's document blocks of the given type.
func (c *Client) GetDocumentBlocks(ctx context.Context, blockType string) ([]billing.DocumentBlock, error) {
	body, err := c.request(ctx, http.MethodGet, "/document-blocks?type="+url.QueryEscape(blockType), nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse[billing.DocumentBlock]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal document blocks: %w", err)
	}
	return resp.Data, nil
}

// FindPartners searches partners by free-text query.
func (c *Client) FindPartners(ctx context.Context, query string) ([]billing.Partner, error) {
	body, err := c.request(ctx, http.MethodGet, "/partners?query="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse[billing.Partner]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal partners: %w", err)
	}
	return resp.Data, nil
}

// CreatePartner creates a new partner record.
func (c *Client) CreatePartner(ctx context.Context, payload billing.PartnerPayload) (*billing.Partner, error) {
	body, err := c.request(ctx, http.MethodPost, "/partners", payload)
	if err != nil {
		return nil, err
	}

	var partner billing.Partner
	if err := json.Unmarshal(body, &partner); err != nil {
		return nil, fmt.Errorf("unmarshal partner: %w", err)
	}
	return &partner, nil
}

// CreateDocument creates a document (invoice) from the payload.
func (c *Client) CreateDocument(ctx context.Context, payload billing.DocumentPayload) (*billing.Document, error) {
	body, err := c.request(ctx, http.MethodPost, "/documents", payload)
	if err != nil {
		return nil, err
	}

	var doc billing.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &doc, nil
}

// CancelDocument voids a document with a cancellation reason.
func (c *Client) CancelDocument(ctx context.Context, documentID int64, reason string) error {
	payload := map[string]string{"cancellation_reason": reason}
	_, err := c.request(ctx, http.MethodPost, fmt.Sprintf("/documents/%d/cancel", documentID), payload)
	return err
}

// GetDocumentByVendorID looks a document up by the vendor reference stored
// at creation time (the host order id).
func (c *Client) GetDocumentByVendorID(ctx context.Context, vendorID string) (*billing.Document, error) {
	body, err := c.request(ctx, http.MethodGet, "/documents/vendor/"+url.PathEscape(vendorID), nil)
	if err != nil {
		return nil, err
	}

	var doc billing.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if doc.ID == 0 {
		return nil, billing.ErrDocumentNotFound
	}
	return &doc, nil
}

// CheckTaxNumber validates a domestic tax number against the provider's
// registry lookup. The format gate runs before any network call.
func (c *Client) CheckTaxNumber(ctx context.Context, taxNumber string) (*billing.TaxNumberCheck, error) {
	if !billing.ValidTaxNumberFormat(taxNumber) {
		return nil, billing.ErrInvalidTaxNumberFormat
	}

	body, err := c.request(ctx, http.MethodGet, "/utils/check-tax-number/"+url.PathEscape(taxNumber), nil)
	if err != nil {
		return nil, err
	}

	var check billing.TaxNumberCheck
	if err := json.Unmarshal(body, &check); err != nil {
		return nil, fmt.Errorf("unmarshal tax number check: %w", err)
	}
	return &check, nil
}

// DownloadDocument fetches the rendered file for a document. HTTP 202 means
// the provider is still rendering and surfaces as ErrPDFNotReady so the
// caller can retry later instead of treating it as permanent.
func (c *Client) DownloadDocument(ctx context.Context, documentID int64) ([]byte, error) {
	if c.apiKey == "" {
		return nil, billing.ErrMissingAPIKey
	}

	endpoint := fmt.Sprintf("/documents/%d/download", documentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Billingo download failed", "document_id", documentID, "error", err)
		return nil, &billing.APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		return nil, billing.ErrPDFNotReady
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &billing.APIError{Message: fmt.Sprintf("read response body: %v", err), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.providerError(resp.StatusCode, body, endpoint)
	}

	return body, nil
}
