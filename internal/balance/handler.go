package balance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KaivDev4434/FairShare/internal/bill"
	"github.com/KaivDev4434/FairShare/pkg/response"
)

// Handler handles HTTP requests for balance reports
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for balance endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/report", h.Report)

	return r
}

// Report handles POST /balances/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if len(req.BillIDs) == 0 {
		response.BadRequest(w, "bill_ids is required")
		return
	}

	report, err := h.service.Report(r.Context(), &req)
	if err != nil {
		if errors.Is(err, bill.ErrBillNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		if errors.Is(err, ErrCurrencyMismatch) {
			response.UnprocessableEntity(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to build balance report")
		return
	}

	response.JSON(w, http.StatusOK, report)
}
