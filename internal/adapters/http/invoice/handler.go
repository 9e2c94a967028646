package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appinvoice "cartbill/ms_invoicing_core/internal/application/invoice"
	"cartbill/ms_invoicing_core/internal/core/activity"
	"cartbill/ms_invoicing_core/internal/core/billing"
	"cartbill/ms_invoicing_core/internal/core/order"
	ctxutil "cartbill/ms_invoicing_core/internal/infrastructure/context"
	httperrors "cartbill/ms_invoicing_core/internal/infrastructure/http"
)

// ActivityReader lists the activity trail for an order. Nil disables the
// activity endpoint's data source.
type ActivityReader interface {
	Recent(ctx context.Context, orderID int64, limit int) ([]activity.Entry, error)
}

// Handler bridges HTTP traffic with the invoice application service. The
// endpoints exist for operators: resyncing an order whose event was missed,
// cancelling, and fetching the rendered PDF.
type Handler struct {
	service  *appinvoice.Service
	activity ActivityReader
	log      *slog.Logger
}

// NewHandler creates a new invoice HTTP handler. activityReader may be nil.
func NewHandler(service *appinvoice.Service, activityReader ActivityReader, log *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		activity: activityReader,
		log:      log,
	}
}

// statusResponse is the body for state-changing operations.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

// cancelRequest is the optional body for the cancel endpoint.
type cancelRequest struct {
	Reason string `json:"reason"`
}

type activityResponse struct {
	Total int              `json:"total"`
	Data  []activity.Entry `json:"data"`
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", raw)
	}
	return id, nil
}

// CreateInvoice handles POST /api/v1/orders/{orderID}/invoice. It runs the
// same workflow the event consumer runs, so a missed or failed lifecycle
// event can be resynced by hand. The workflow is idempotent; repeating the
// call for an invoiced order is a no-op success.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{err.Error()}, h.log)
		return
	}

	if err := h.service.CreateInvoice(r.Context(), orderID, orderID); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Message: "Invoice created",
		OrderID: orderID,
	}, h.log)
}

// CancelInvoice handles POST /api/v1/orders/{orderID}/invoice/cancel.
func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{err.Error()}, h.log)
		return
	}

	reason := "Order refunded"
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Reason != "" {
		reason = req.Reason
	}

	if err := h.service.CancelInvoice(r.Context(), orderID, reason); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Message: "Invoice cancelled",
		OrderID: orderID,
	}, h.log)
}

// DownloadPDF handles GET /api/v1/orders/{orderID}/invoice/pdf and serves
// the rendered document as an attachment. While the provider is still
// rendering, it answers 202 so the caller can retry.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{err.Error()}, h.log)
		return
	}

	data, filename, err := h.service.GetPDF(r.Context(), orderID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error("Failed to write PDF response", "order_id", orderID, "error", err)
	}
}

// GetActivity handles GET /api/v1/orders/{orderID}/activity.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{err.Error()}, h.log)
		return
	}

	if h.activity == nil {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Activity log unavailable", []string{"activity storage is not configured"}, h.log)
		return
	}

	entries, err := h.activity.Recent(r.Context(), orderID, 50)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}

	writeJSON(w, http.StatusOK, activityResponse{
		Total: len(entries),
		Data:  entries,
	}, h.log)
}

// handleError maps domain errors onto HTTP statuses. Buyer and order data
// problems are the caller's 4xx; provider trouble is a 502; everything else
// is a 500.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	correlationID := ctxutil.GetCorrelationID(r.Context())

	var statusCode int
	var apiErr *billing.APIError

	switch {
	case errors.Is(err, order.ErrNotFound):
		statusCode = http.StatusNotFound
		httperrors.WriteError(w, statusCode, "Not found", []string{"order not found"}, h.log)

	case errors.Is(err, billing.ErrNoInvoiceFound), errors.Is(err, billing.ErrDocumentNotFound):
		statusCode = http.StatusNotFound
		httperrors.WriteError(w, statusCode, "Not found", []string{"no invoice exists for this order"}, h.log)

	case errors.Is(err, billing.ErrPDFNotReady):
		statusCode = http.StatusAccepted
		httperrors.WriteError(w, statusCode, "Document pending", []string{"the invoice is still being rendered, retry later"}, h.log)

	case errors.Is(err, billing.ErrNoBillingAddress),
		errors.Is(err, billing.ErrNoItems),
		errors.Is(err, billing.ErrInvalidTaxNumberFormat):
		statusCode = http.StatusUnprocessableEntity
		httperrors.WriteError(w, statusCode, "Order not invoiceable", []string{err.Error()}, h.log)

	case errors.Is(err, billing.ErrMissingAPIKey), errors.Is(err, billing.ErrNoBlocks):
		statusCode = http.StatusBadGateway
		httperrors.WriteError(w, statusCode, "Provider configuration error", []string{err.Error()}, h.log)

	case errors.As(err, &apiErr):
		statusCode = http.StatusBadGateway
		httperrors.WriteError(w, statusCode, "Provider error", []string{apiErr.Message}, h.log)

	default:
		statusCode = http.StatusInternalServerError
		httperrors.WriteError(w, statusCode, "Internal server error", []string{"an internal error occurred"}, h.log)
	}

	logAttrs := []any{
		"error", err,
		"status_code", statusCode,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if correlationID != "" {
		logAttrs = append(logAttrs, "correlation_id", correlationID)
	}

	if statusCode >= http.StatusInternalServerError {
		h.log.Error("Request failed", logAttrs...)
	} else {
		h.log.Warn("Request failed", logAttrs...)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}
