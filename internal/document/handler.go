package document

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KaivDev4434/FairShare/internal/bill"
	"github.com/KaivDev4434/FairShare/pkg/response"
)

// Handler handles HTTP requests for document extraction
type Handler struct {
	service *Service
}

// NewHandler creates a new document handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for document endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/extract", h.Extract)

	return r
}

// Extract handles POST /documents/extract
// @Summary      Extract bill items from a document
// @Description  Runs a receipt or invoice (PDF, JPG, PNG) through OCR and item extraction. Pass bill_id to append the extracted items to an existing unlocked bill.
// @Tags         documents
// @Accept       mpfd
// @Produce      json
// @Param        file formData file true "Receipt or invoice"
// @Param        bill_id formData string false "Bill to append the extracted items to"
// @Success      200 {object} response.APIResponse{data=ExtractResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      502 {object} response.APIResponse
// @Router       /documents/extract [post]
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.InternalError(w, "Failed to read file")
		return
	}

	billID := r.FormValue("bill_id")
	if billID == "" {
		draft, err := h.service.Extract(r.Context(), header.Filename, content)
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, http.StatusOK, NewExtractResponse(draft, "", nil))
		return
	}

	draft, added, err := h.service.ExtractToBill(r.Context(), billID, header.Filename, content)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, NewExtractResponse(draft, billID, added))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoFile):
		response.BadRequest(w, err.Error())
	case errors.Is(err, bill.ErrBillNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, bill.ErrBillLocked):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrParserFailed), errors.Is(err, ErrExtractionFailed):
		response.BadGateway(w, err.Error())
	default:
		response.InternalError(w, "Failed to extract document")
	}
}
