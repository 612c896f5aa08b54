package handler

import (
	"log/slog"
	"net/http"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

// handleStartNegotiation opens a negotiation with the buyer's initial offer.
// POST /api/negotiations
func (h *Handler) handleStartNegotiation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ProductID    string  `json:"product_id"`
		BuyerID      string  `json:"buyer_id"`
		SellerID     string  `json:"seller_id"`
		ProductTitle string  `json:"product_title"`
		ProductImage string  `json:"product_image"`
		OfferAmount  float64 `json:"offer_amount"`
		Content      string  `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "starting negotiation",
		slog.String("product_id", req.ProductID),
		slog.String("buyer_id", req.BuyerID),
		slog.Float64("offer_amount", req.OfferAmount),
	)

	n, err := h.service.Start(ctx, negotiation.StartRequest{
		ProductID:    req.ProductID,
		BuyerID:      req.BuyerID,
		SellerID:     req.SellerID,
		ProductTitle: req.ProductTitle,
		ProductImage: req.ProductImage,
		OfferAmount:  model.DollarsToCents(req.OfferAmount),
		Content:      req.Content,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"negotiation": toNegotiationWire(n),
	})
}

// handleBuyerNegotiations lists the buyer's non-archived negotiations.
// GET /api/negotiations?buyer_id=
func (h *Handler) handleBuyerNegotiations(w http.ResponseWriter, r *http.Request) {
	buyerID := r.URL.Query().Get("buyer_id")
	if buyerID == "" {
		h.writeError(w, model.NewValidationError("buyer_id", "required"))
		return
	}

	ns, err := h.service.BuyerList(r.Context(), buyerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"negotiations": toNegotiationWires(ns),
	})
}

// handleGetNegotiation returns a negotiation and its thread for either
// party. A seller view marks the thread read.
// GET /api/negotiations/{id}?user_id=
func (h *Handler) handleGetNegotiation(w http.ResponseWriter, r *http.Request) {
	negotiationID := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, model.NewValidationError("user_id", "required"))
		return
	}

	n, msgs, err := h.service.Get(r.Context(), negotiationID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"negotiation": toNegotiationWire(n),
		"messages":    toMessageWires(msgs),
	})
}

// handleBuyerMessage appends a buyer message. A present offer_amount makes
// it a new offer and resets the negotiation to pending; without one it is
// free text that leaves state alone.
// POST /api/negotiations/{id}/messages
func (h *Handler) handleBuyerMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	negotiationID := r.PathValue("id")

	var req struct {
		BuyerID     string   `json:"buyer_id"`
		Content     string   `json:"content"`
		OfferAmount *float64 `json:"offer_amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.BuyerID == "" {
		h.writeError(w, model.NewValidationError("buyer_id", "required"))
		return
	}

	var msg *model.Message
	var err error
	if req.OfferAmount != nil {
		msg, err = h.service.BuyerOffer(ctx, negotiationID, req.BuyerID,
			model.DollarsToCents(*req.OfferAmount), req.Content)
	} else {
		msg, err = h.service.BuyerMessage(ctx, negotiationID, req.BuyerID, req.Content)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": toMessageWire(msg),
	})
}

// handleBuyerAccept accepts the seller's standing counter-offer.
// POST /api/negotiations/{id}/accept
func (h *Handler) handleBuyerAccept(w http.ResponseWriter, r *http.Request) {
	negotiationID := r.PathValue("id")

	var req struct {
		BuyerID string `json:"buyer_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.BuyerID == "" {
		h.writeError(w, model.NewValidationError("buyer_id", "required"))
		return
	}

	n, err := h.service.BuyerAccept(r.Context(), negotiationID, req.BuyerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"negotiation": toNegotiationWire(n),
	})
}

// handleArchive hides a negotiation from the buyer's list view.
// POST /api/negotiations/{id}/archive
func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	negotiationID := r.PathValue("id")

	var req struct {
		BuyerID string `json:"buyer_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.BuyerID == "" {
		h.writeError(w, model.NewValidationError("buyer_id", "required"))
		return
	}

	if err := h.service.Archive(r.Context(), negotiationID, req.BuyerID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"archived": true})
}
