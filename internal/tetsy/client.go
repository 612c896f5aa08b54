// Package tetsy is the REST client for the Tetsy negotiation backend and
// its Marketplace adapter. Amounts cross this boundary as decimal dollars,
// matching the backend's JSON API; everything internal stays in cents.
package tetsy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tetsy-hub/internal/model"
)

const userAgent = "tetsy-hub/1.0"

// Client is the Tetsy backend HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the backend at baseURL
// (e.g. "http://localhost:8050/api").
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// === Wire types (decimal dollars) ===

// Listing is the backend's listing representation.
type Listing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	SellerID    string  `json:"seller_id"`
}

// ListingInput creates a listing.
type ListingInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	SellerID    string  `json:"seller_id"`
}

// RespondInput is the seller's response to a negotiation.
type RespondInput struct {
	Action        string   `json:"action"`
	CounterAmount *float64 `json:"counter_amount,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Negotiation is the backend's negotiation summary.
type Negotiation struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	BuyerID         string  `json:"buyer_id"`
	SellerID        string  `json:"seller_id"`
	Status          string  `json:"status"`
	LastOfferAmount float64 `json:"last_offer_amount"`
}

// === Operations ===

// CreateListing posts a new listing.
func (c *Client) CreateListing(ctx context.Context, input *ListingInput) (*Listing, error) {
	var out Listing
	if err := c.do(ctx, http.MethodPost, "/listings", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetListing fetches a listing by id.
func (c *Client) GetListing(ctx context.Context, id string) (*Listing, error) {
	var out Listing
	if err := c.do(ctx, http.MethodGet, "/listings/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNegotiation fetches a negotiation as the given user (buyer or seller).
func (c *Client) GetNegotiation(ctx context.Context, negotiationID, userID string) (*Negotiation, error) {
	var out struct {
		Negotiation Negotiation `json:"negotiation"`
	}
	path := "/negotiations/" + negotiationID + "?user_id=" + userID
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Negotiation, nil
}

// SellerNegotiations lists a seller's negotiations, optionally by status.
func (c *Client) SellerNegotiations(ctx context.Context, sellerID, status string) ([]Negotiation, error) {
	path := "/seller/" + sellerID + "/negotiations"
	if status != "" {
		path += "?status=" + status
	}
	var out struct {
		Negotiations []Negotiation `json:"negotiations"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Negotiations, nil
}

// Respond applies a seller action to a negotiation.
func (c *Client) Respond(ctx context.Context, sellerID, negotiationID string, input *RespondInput) error {
	path := "/seller/" + sellerID + "/negotiations/" + negotiationID + "/respond"
	return c.do(ctx, http.MethodPost, path, input, nil)
}

// SendMessage posts a free-text seller message to a negotiation.
func (c *Client) SendMessage(ctx context.Context, sellerID, negotiationID, content string) error {
	path := "/seller/" + sellerID + "/negotiations/" + negotiationID + "/message"
	body := map[string]string{"content": content}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// === HTTP helpers ===

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewAdapterError("tetsy", err, true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return c.parseError(resp.StatusCode, raw)
	}
	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// parseError converts backend errors to model.APIError.
func (c *Client) parseError(statusCode int, body []byte) error {
	var backendErr struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	json.Unmarshal(body, &backendErr) // Best effort parse

	msg := backendErr.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("status %d", statusCode)
	}

	switch statusCode {
	case 400:
		return model.NewValidationError("request", msg)
	case 403:
		return model.NewAuthorizationError(msg)
	case 404:
		return model.NewNotFoundError("resource")
	case 409:
		return model.NewInvalidStateError(msg)
	default:
		return model.NewAdapterError("tetsy",
			fmt.Errorf("status %d: %s", statusCode, msg), statusCode >= 500)
	}
}
