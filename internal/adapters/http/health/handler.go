package health

import (
	"encoding/json"
	"net/http"

	apphealth "cartbill/ms_invoicing_core/internal/application/health"
	corehealth "cartbill/ms_invoicing_core/internal/core/health"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
}

func NewHandler(service *apphealth.Service) *Handler {
	return &Handler{service: service}
}

// Status answers 200 while all dependencies are up and 503 otherwise, so
// orchestrators can gate traffic on it.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response := h.service.Status(r.Context())

	code := http.StatusOK
	if response.Status == corehealth.StateDown {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}
