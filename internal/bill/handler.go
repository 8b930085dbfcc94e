package bill

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KaivDev4434/FairShare/pkg/middleware"
	"github.com/KaivDev4434/FairShare/pkg/response"
)

// Handler handles HTTP requests for bill operations
type Handler struct {
	service *Service
	tokens  *middleware.TokenManager
	verify  func(http.Handler) http.Handler
}

// NewHandler creates a new bill handler. When requireToken is set, mutating
// routes demand a bearer token issued for the bill being changed.
func NewHandler(service *Service, tokens *middleware.TokenManager, requireToken bool) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		verify:  middleware.VerifyBillAccess(tokens, requireToken),
	}
}

// Routes returns the router for bill endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.Get("/splits", h.GetSplits)

		// Mutations require the bill's token when token auth is enabled
		r.Group(func(r chi.Router) {
			r.Use(h.verify)

			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/lock", h.Lock)
			r.Post("/unlock", h.Unlock)

			r.Post("/items", h.AddItem)
			r.Put("/items/{itemId}", h.UpdateItem)
			r.Delete("/items/{itemId}", h.DeleteItem)

			r.Post("/shares", h.AddShare)
			r.Delete("/shares/{shareId}", h.DeleteShare)

			r.Put("/claims", h.UpsertClaim)
			r.Delete("/claims/{shareId}/{itemId}", h.DeleteClaim)
		})
	})

	return r
}

// writeError maps service errors onto HTTP responses
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrBillNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrShareNotFound),
		errors.Is(err, ErrClaimNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrBillLocked):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrShareNotInBill),
		errors.Is(err, ErrItemNotInBill),
		errors.Is(err, ErrPayerNotInBill),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPortion),
		errors.Is(err, ErrPortionTooLarge):
		response.UnprocessableEntity(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// Create handles POST /bills
// @Summary      Create a new bill
// @Description  Create a bill with optional initial items and shares. The response carries an editor token for the bill.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        request body CreateBillRequest true "Bill creation request"
// @Success      201 {object} response.APIResponse{data=BillResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /bills [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if req.Title == "" {
		response.BadRequest(w, "Title is required")
		return
	}
	for _, item := range req.Items {
		if item == nil || item.Name == "" {
			response.BadRequest(w, "Item name is required")
			return
		}
	}
	for _, share := range req.Shares {
		if share == nil || share.Name == "" {
			response.BadRequest(w, "Share name is required")
			return
		}
	}

	detail, err := h.service.CreateBill(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create bill")
		return
	}

	token, err := h.tokens.Generate(detail.Bill.ID, middleware.RoleEditor)
	if err != nil {
		response.InternalError(w, "Failed to issue bill token")
		return
	}

	resp := detail.ToResponse()
	resp.Token = token

	response.JSON(w, http.StatusCreated, resp)
}

// GetByID handles GET /bills/{id}
// @Summary      Get bill by ID
// @Description  Get a bill with its items, shares and claims
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} response.APIResponse{data=BillResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetBill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to get bill")
		return
	}

	response.JSON(w, http.StatusOK, detail.ToResponse())
}

// Update handles PATCH /bills/{id}
// @Summary      Update bill attributes
// @Description  Partially update title, tax, tip or the paying share. Title, tax and tip are rejected while the bill is locked.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body UpdateBillRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=BillResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /bills/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	b, err := h.service.UpdateBill(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err, "Failed to update bill")
		return
	}

	response.JSON(w, http.StatusOK, b.ToResponse())
}

// Delete handles DELETE /bills/{id}
// @Summary      Delete a bill
// @Description  Delete a bill together with its items, shares and claims
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBill(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "Failed to delete bill")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Bill deleted successfully"})
}

// Lock handles POST /bills/{id}/lock
// @Summary      Lock a bill
// @Description  Freeze the bill's items, shares and claims so the computed splits cannot change
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} response.APIResponse{data=BillResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id}/lock [post]
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Lock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to lock bill")
		return
	}

	response.JSON(w, http.StatusOK, b.ToResponse())
}

// Unlock handles POST /bills/{id}/unlock
// @Summary      Unlock a bill
// @Description  Make a locked bill editable again
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} response.APIResponse{data=BillResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id}/unlock [post]
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Unlock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to unlock bill")
		return
	}

	response.JSON(w, http.StatusOK, b.ToResponse())
}

// GetSplits handles GET /bills/{id}/splits
// @Summary      Get computed splits
// @Description  Calculate per-person totals from the current claims. The grand totals always sum exactly to the claimed part of the bill.
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} response.APIResponse{data=SplitsResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /bills/{id}/splits [get]
func (h *Handler) GetSplits(w http.ResponseWriter, r *http.Request) {
	b, result, err := h.service.ComputeSplits(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Failed to compute splits")
		return
	}

	response.JSON(w, http.StatusOK, NewSplitsResponse(b, result))
}

// AddItem handles POST /bills/{id}/items
// @Summary      Add an item
// @Description  Append an item to an unlocked bill
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body CreateItemRequest true "Item to add"
// @Success      201 {object} response.APIResponse{data=ItemResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /bills/{id}/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "Item name is required")
		return
	}

	item, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err, "Failed to add item")
		return
	}

	response.JSON(w, http.StatusCreated, item.ToResponse())
}

// UpdateItem handles PUT /bills/{id}/items/{itemId}
// @Summary      Update an item
// @Description  Partially update an item's name, price or quantity
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        itemId path string true "Item ID"
// @Param        request body UpdateItemRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=ItemResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /bills/{id}/items/{itemId} [put]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	item, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), &req)
	if err != nil {
		writeError(w, err, "Failed to update item")
		return
	}

	response.JSON(w, http.StatusOK, item.ToResponse())
}

// DeleteItem handles DELETE /bills/{id}/items/{itemId}
// @Summary      Delete an item
// @Description  Remove an item and every claim on it
// @Tags         items
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        itemId path string true "Item ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /bills/{id}/items/{itemId} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId")); err != nil {
		writeError(w, err, "Failed to delete item")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// AddShare handles POST /bills/{id}/shares
// @Summary      Add a participant
// @Description  Append a participant to an unlocked bill
// @Tags         shares
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body CreateShareRequest true "Participant to add"
// @Success      201 {object} response.APIResponse{data=ShareResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /bills/{id}/shares [post]
func (h *Handler) AddShare(w http.ResponseWriter, r *http.Request) {
	var req CreateShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "Share name is required")
		return
	}

	share, err := h.service.AddShare(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err, "Failed to add share")
		return
	}

	response.JSON(w, http.StatusCreated, share.ToResponse())
}

// DeleteShare handles DELETE /bills/{id}/shares/{shareId}
// @Summary      Delete a participant
// @Description  Remove a participant and their claims from an unlocked bill
// @Tags         shares
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        shareId path string true "Share ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /bills/{id}/shares/{shareId} [delete]
func (h *Handler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteShare(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "shareId")); err != nil {
		writeError(w, err, "Failed to delete share")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Share deleted successfully"})
}

// UpsertClaim handles PUT /bills/{id}/claims
// @Summary      Create or replace a claim
// @Description  Set a share's portion of an item. Writing the same pair again replaces the portion; a portion of 0 removes the claim.
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body UpsertClaimRequest true "Claim to save"
// @Success      200 {object} response.APIResponse{data=ClaimResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /bills/{id}/claims [put]
func (h *Handler) UpsertClaim(w http.ResponseWriter, r *http.Request) {
	var req UpsertClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.ShareID == "" || req.ItemID == "" {
		response.BadRequest(w, "share_id and item_id are required")
		return
	}

	claim, err := h.service.UpsertClaim(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, err, "Failed to save claim")
		return
	}
	if claim == nil {
		response.JSON(w, http.StatusOK, map[string]string{"message": "Claim removed"})
		return
	}

	response.JSON(w, http.StatusOK, claim.ToResponse())
}

// DeleteClaim handles DELETE /bills/{id}/claims/{shareId}/{itemId}
// @Summary      Delete a claim
// @Description  Remove the claim a share holds on an item
// @Tags         claims
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        shareId path string true "Share ID"
// @Param        itemId path string true "Item ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /bills/{id}/claims/{shareId}/{itemId} [delete]
func (h *Handler) DeleteClaim(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteClaim(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "shareId"), chi.URLParam(r, "itemId"))
	if err != nil {
		writeError(w, err, "Failed to delete claim")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Claim removed"})
}
