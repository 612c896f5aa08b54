// Package handler provides the HTTP handlers for the negotiation backend
// API. Amounts cross this boundary as decimal dollars; everything internal
// is int64 cents.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
	"tetsy-hub/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service *negotiation.Service
	store   *store.Store
	logger  *slog.Logger
}

// New creates a Handler over the negotiation service and the store.
func New(service *negotiation.Service, st *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, store: st, logger: logger}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Catalog
	mux.HandleFunc("POST /api/listings", h.handleCreateListing)
	mux.HandleFunc("GET /api/listings", h.handleListListings)
	mux.HandleFunc("GET /api/listings/{id}", h.handleGetListing)

	// Buyer side
	mux.HandleFunc("POST /api/negotiations", h.handleStartNegotiation)
	mux.HandleFunc("GET /api/negotiations", h.handleBuyerNegotiations)
	mux.HandleFunc("GET /api/negotiations/{id}", h.handleGetNegotiation)
	mux.HandleFunc("POST /api/negotiations/{id}/messages", h.handleBuyerMessage)
	mux.HandleFunc("POST /api/negotiations/{id}/accept", h.handleBuyerAccept)
	mux.HandleFunc("POST /api/negotiations/{id}/archive", h.handleArchive)

	// Seller side
	mux.HandleFunc("GET /api/seller/{sellerId}/negotiations", h.handleSellerNegotiations)
	mux.HandleFunc("GET /api/seller/{sellerId}/negotiations/{id}", h.handleSellerGetNegotiation)
	mux.HandleFunc("POST /api/seller/{sellerId}/negotiations/{id}/respond", h.handleSellerRespond)
	mux.HandleFunc("POST /api/seller/{sellerId}/negotiations/{id}/message", h.handleSellerMessage)
	mux.HandleFunc("GET /api/seller/{sellerId}/unread-count", h.handleUnreadCount)

	// MCP transport, exposing the same operations as tools
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
