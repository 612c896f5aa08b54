// Package ebay implements the eBay Inventory API client and its
// Marketplace adapter. eBay sits behind a fingerprinting CDN, so the
// client rides the Chrome TLS transport like a real browser session.
package ebay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/transport"
)

const (
	sandboxTokenURL     = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	sandboxInventoryURL = "https://api.sandbox.ebay.com/sell/inventory/v1"

	inventoryScope = "https://api.ebay.com/oauth/api_scope/sell.inventory"

	// Tokens are refreshed a bit before expiry to avoid races at the edge.
	tokenSlack = 60 * time.Second
)

// Client is the eBay Inventory API HTTP client with OAuth
// client-credentials token caching.
type Client struct {
	httpClient   *http.Client
	tokenURL     string
	inventoryURL string
	clientID     string
	clientSecret string

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a client against the eBay sandbox.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		},
		tokenURL:     sandboxTokenURL,
		inventoryURL: sandboxInventoryURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// NewClientForTest creates a client pointed at a test server, with the
// default HTTP transport.
func NewClientForTest(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     baseURL + "/identity/v1/oauth2/token",
		inventoryURL: baseURL + "/sell/inventory/v1",
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// === OAuth ===

// token returns a cached application token, fetching a fresh one via the
// client-credentials grant when missing or near expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", inventoryScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", model.NewAdapterError("ebay", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", model.NewAdapterError("ebay",
			fmt.Errorf("token request failed with %d: %s", resp.StatusCode, body), false)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", model.NewAdapterError("ebay", fmt.Errorf("empty access token"), false)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// === Inventory operations ===

// InventoryItem is the minimal inventory payload the publish flow needs.
type InventoryItem struct {
	Product struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		ImageURLs   []string `json:"imageUrls,omitempty"`
	} `json:"product"`
	Condition    string `json:"condition"`
	Availability struct {
		ShipToLocationAvailability struct {
			Quantity int `json:"quantity"`
		} `json:"shipToLocationAvailability"`
	} `json:"availability"`
}

// CreateInventoryItem upserts an inventory item under the given SKU.
// SKUs must be purely alphanumeric; eBay rejects anything else.
func (c *Client) CreateInventoryItem(ctx context.Context, sku string, item *InventoryItem) error {
	return c.do(ctx, http.MethodPut, "/inventory_item/"+sku, item, nil)
}

// Offer prices and publishes an inventory item.
type Offer struct {
	SKU           string `json:"sku"`
	MarketplaceID string `json:"marketplaceId"`
	Format        string `json:"format"`
	PricingSummary struct {
		Price struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"pricingSummary"`
	CategoryID         string `json:"categoryId,omitempty"`
	MerchantLocationKey string `json:"merchantLocationKey,omitempty"`
}

// CreateOffer creates an offer for a SKU and returns the offer id.
func (c *Client) CreateOffer(ctx context.Context, offer *Offer) (string, error) {
	var out struct {
		OfferID string `json:"offerId"`
	}
	if err := c.do(ctx, http.MethodPost, "/offer", offer, &out); err != nil {
		return "", err
	}
	if out.OfferID == "" {
		return "", model.NewAdapterError("ebay", fmt.Errorf("empty offer id"), false)
	}
	return out.OfferID, nil
}

// PublishOffer publishes an offer and returns the live listing id.
func (c *Client) PublishOffer(ctx context.Context, offerID string) (string, error) {
	var out struct {
		ListingID string `json:"listingId"`
	}
	if err := c.do(ctx, http.MethodPost, "/offer/"+offerID+"/publish", nil, &out); err != nil {
		return "", err
	}
	return out.ListingID, nil
}

// === HTTP helpers ===

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.inventoryURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewAdapterError("ebay", err, true)
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

// parseError converts eBay API errors to model.APIError. eBay reports an
// errors array with numeric error ids.
func (c *Client) parseError(statusCode int, body []byte) error {
	var ebayErr struct {
		Errors []struct {
			ErrorID int    `json:"errorId"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	json.Unmarshal(body, &ebayErr) // Best effort parse

	msg := fmt.Sprintf("status %d", statusCode)
	if len(ebayErr.Errors) > 0 {
		msg = fmt.Sprintf("error %d: %s", ebayErr.Errors[0].ErrorID, ebayErr.Errors[0].Message)
	}

	switch {
	case statusCode == 401 || statusCode == 403:
		return model.NewAuthorizationError("eBay " + msg)
	case statusCode == 404:
		return model.NewNotFoundError("eBay resource")
	case statusCode == 429 || statusCode >= 500:
		return model.NewAdapterError("ebay", fmt.Errorf("%s", msg), true)
	default:
		return model.NewAdapterError("ebay", fmt.Errorf("%s", msg), false)
	}
}
