package negotiation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tetsy-hub/internal/model"
)

// WebhookNotifier POSTs appended messages to an agent's webhook endpoint
// as JSON. The receiving side is the agent host's /webhook/message route.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier builds a notifier for the given webhook URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// webhookPayload is the wire shape of a message notification.
type webhookPayload struct {
	NegotiationID string         `json:"negotiation_id"`
	Status        string         `json:"status"`
	Message       *model.Message `json:"message"`
}

// NotifyMessage implements Notifier.
func (w *WebhookNotifier) NotifyMessage(ctx context.Context, n *model.Negotiation, m *model.Message) error {
	body, err := json.Marshal(webhookPayload{
		NegotiationID: n.ID,
		Status:        string(n.Status),
		Message:       m,
	})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return nil
}
