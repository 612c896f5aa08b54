package handler

import (
	"encoding/base64"
	"net/http"

	"tetsy-hub/internal/model"
)

// handleCreateListing inserts a catalog record.
// POST /api/listings
func (h *Handler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		SellerID    string  `json:"seller_id"`
		Image       string  `json:"image"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	switch {
	case req.Name == "":
		h.writeError(w, model.NewValidationError("name", "required"))
		return
	case req.SellerID == "":
		h.writeError(w, model.NewValidationError("seller_id", "required"))
		return
	case req.Price <= 0:
		h.writeError(w, model.NewValidationError("price", "must be positive"))
		return
	}

	var image []byte
	if req.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			h.writeError(w, model.NewValidationError("image", "invalid base64"))
			return
		}
		image = decoded
	}

	l := &model.Listing{
		ID:          h.store.NewID("lst"),
		Name:        req.Name,
		Description: req.Description,
		Price:       model.DollarsToCents(req.Price),
		SellerID:    req.SellerID,
		Image:       image,
	}
	if err := h.store.CreateListing(r.Context(), l); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toListingWire(l, false))
}

// handleGetListing returns one listing with its image inlined.
// GET /api/listings/{id}
func (h *Handler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.store.GetListing(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toListingWire(l, true))
}

// handleListListings lists the catalog, optionally filtered by seller.
// GET /api/listings?seller_id=
func (h *Handler) handleListListings(w http.ResponseWriter, r *http.Request) {
	ls, err := h.store.ListListings(r.Context(), r.URL.Query().Get("seller_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	wires := make([]listingWire, len(ls))
	for i := range ls {
		wires[i] = toListingWire(&ls[i], false)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"listings": wires})
}
