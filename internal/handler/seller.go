package handler

import (
	"log/slog"
	"net/http"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

// handleSellerNegotiations lists a seller's negotiations, optionally
// filtered by status.
// GET /api/seller/{sellerId}/negotiations?status=
func (h *Handler) handleSellerNegotiations(w http.ResponseWriter, r *http.Request) {
	sellerID := r.PathValue("sellerId")
	status := model.NegotiationStatus(r.URL.Query().Get("status"))

	ns, err := h.service.SellerList(r.Context(), sellerID, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"negotiations": toNegotiationWires(ns),
	})
}

// handleSellerGetNegotiation returns one negotiation with its thread and
// marks it read for the seller.
// GET /api/seller/{sellerId}/negotiations/{id}
func (h *Handler) handleSellerGetNegotiation(w http.ResponseWriter, r *http.Request) {
	sellerID := r.PathValue("sellerId")
	negotiationID := r.PathValue("id")

	n, msgs, err := h.service.Get(r.Context(), negotiationID, sellerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if n.SellerID != sellerID {
		h.writeError(w, model.NewAuthorizationError("negotiation belongs to a different seller"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"negotiation": toNegotiationWire(n),
		"messages":    toMessageWires(msgs),
	})
}

// handleSellerRespond applies a seller action to a negotiation.
// POST /api/seller/{sellerId}/negotiations/{id}/respond
func (h *Handler) handleSellerRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID := r.PathValue("sellerId")
	negotiationID := r.PathValue("id")

	var req struct {
		Action        string   `json:"action"`
		CounterAmount *float64 `json:"counter_amount"`
		Reason        string   `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	var counterCents *int64
	if req.CounterAmount != nil {
		cents := model.DollarsToCents(*req.CounterAmount)
		counterCents = &cents
	}
	action, err := negotiation.ParseSellerAction(req.Action, counterCents, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "seller responding",
		slog.String("negotiation_id", negotiationID),
		slog.String("seller_id", sellerID),
		slog.String("action", req.Action),
	)

	n, err := h.service.SellerRespond(ctx, negotiationID, sellerID, action)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"negotiation": toNegotiationWire(n),
	})
}

// handleSellerMessage appends seller free text without changing state.
// POST /api/seller/{sellerId}/negotiations/{id}/message
func (h *Handler) handleSellerMessage(w http.ResponseWriter, r *http.Request) {
	sellerID := r.PathValue("sellerId")
	negotiationID := r.PathValue("id")

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	msg, err := h.service.SellerMessage(r.Context(), negotiationID, sellerID, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": toMessageWire(msg),
	})
}

// handleUnreadCount returns the seller's unread message count across all
// threads.
// GET /api/seller/{sellerId}/unread-count
func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	sellerID := r.PathValue("sellerId")

	count, err := h.service.UnreadCount(r.Context(), sellerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}
