package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"tetsy-hub/internal/a2a"
	"tetsy-hub/internal/model"
)

// InboundMessage is the payload the negotiation backend POSTs to the
// agent's webhook when a message lands in one of its threads.
type InboundMessage struct {
	NegotiationID string         `json:"negotiation_id"`
	Status        string         `json:"status"`
	Message       *model.Message `json:"message"`
}

// MessageConsumer handles webhook-delivered negotiation messages.
type MessageConsumer interface {
	HandleMessage(ctx context.Context, msg *InboundMessage) error
}

// Server is the HTTP surface of an agent host: task execution with SSE
// streaming, agent-card discovery, and the backend webhook.
type Server struct {
	executor *Executor
	card     a2a.AgentCard
	consumer MessageConsumer
	logger   *slog.Logger
}

// NewServer builds a server. consumer may be nil when the agent does not
// receive backend webhooks.
func NewServer(executor *Executor, card a2a.AgentCard, consumer MessageConsumer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{executor: executor, card: card, consumer: consumer, logger: logger}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /.well-known/agent-card", s.handleAgentCard)
	mux.HandleFunc("POST /tasks", s.handleExecute)
	mux.HandleFunc("POST /tasks/{id}/cancel", s.handleCancel)
	mux.HandleFunc("POST /webhook/message", s.handleWebhook)
	mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.card)
}

// taskRequest is the body of POST /tasks.
type taskRequest struct {
	TaskID     string       `json:"taskId,omitempty"`
	ContextID  string       `json:"contextId,omitempty"`
	Message    *a2a.Message `json:"message"`
	Extensions []string     `json:"extensions,omitempty"`
}

// handleExecute runs a task and streams its events as Server-Sent Events.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		s.writeError(w, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}
	if req.Message == nil || len(req.Message.Parts) == 0 {
		s.writeError(w, model.NewValidationError("message", "required"))
		return
	}

	rc := &a2a.RequestContext{
		TaskID:              req.TaskID,
		ContextID:           req.ContextID,
		Message:             req.Message,
		RequestedExtensions: req.Extensions,
	}
	if rc.TaskID == "" {
		rc.TaskID = uuid.NewString()
	}
	if rc.ContextID == "" {
		rc.ContextID = uuid.NewString()
	}

	sse := newSSEWriter(w)
	if sse == nil {
		s.writeError(w, model.NewInternalError(errors.New("response writer does not support streaming")))
		return
	}

	queue := a2a.NewEventQueue(32)
	go func() {
		defer queue.Close()
		s.executor.Execute(r.Context(), rc, queue)
	}()

	for ev := range queue.Events() {
		if err := sse.sendEvent("task-event", ev); err != nil {
			s.logger.Warn("sse write failed, client gone",
				slog.String("task_id", rc.TaskID), slog.String("error", err.Error()))
			return
		}
	}
	sse.sendDone()
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	rc := &a2a.RequestContext{
		TaskID:    r.PathValue("id"),
		ContextID: r.URL.Query().Get("contextId"),
	}
	err := s.executor.Cancel(r.Context(), rc)
	// Cancellation always reports unsupported; surface it as the protocol error.
	s.writeError(w, err)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.consumer == nil {
		s.writeError(w, model.NewUnsupportedError("webhook delivery"))
		return
	}
	var msg InboundMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&msg); err != nil {
		s.writeError(w, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}
	if msg.NegotiationID == "" || msg.Message == nil {
		s.writeError(w, model.NewValidationError("body", "negotiation_id and message are required"))
		return
	}
	if err := s.consumer.HandleMessage(r.Context(), &msg); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// maxRequestBodySize limits JSON request bodies to 1MB.
const maxRequestBodySize = 1 << 20

// === Response helpers ===

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		s.logger.Error("internal error", slog.String("error", err.Error()))
	}
	s.writeJSON(w, apiErr.StatusCode, map[string]map[string]string{
		"error": {"code": apiErr.Code, "message": apiErr.Message},
	})
}

// sseWriter writes Server-Sent Events.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares an SSE response. Returns nil if the response
// writer does not support flushing.
func newSSEWriter(w http.ResponseWriter) *sseWriter {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return &sseWriter{w: w, flusher: flusher}
}

func (s *sseWriter) sendEvent(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, raw); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) sendDone() {
	fmt.Fprintf(s.w, "event: done\ndata: {}\n\n")
	s.flusher.Flush()
}
