package ebay

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

// Marketplace adapts the eBay Inventory API to the Marketplace interface.
// Publishing runs the full inventory-item, offer, publish sequence.
type Marketplace struct {
	client        *Client
	marketplaceID string
}

// NewMarketplace wraps a client. marketplaceID is e.g. "EBAY_US".
func NewMarketplace(client *Client, marketplaceID string) *Marketplace {
	return &Marketplace{client: client, marketplaceID: marketplaceID}
}

// Platform implements adapter.Marketplace.
func (m *Marketplace) Platform() string { return "ebay" }

// PublishListing implements adapter.Marketplace. Each attempt derives a
// fresh SKU: publishing is not idempotent and eBay keeps failed SKUs
// around, so retries must never reuse one.
func (m *Marketplace) PublishListing(ctx context.Context, spec *adapter.PublishSpec) (*adapter.ListingRef, error) {
	sku := newSKU()

	item := &InventoryItem{Condition: "NEW"}
	item.Product.Title = spec.Name
	item.Product.Description = spec.Description
	if spec.ImageURI != "" {
		item.Product.ImageURLs = []string{spec.ImageURI}
	}
	item.Availability.ShipToLocationAvailability.Quantity = 1

	if err := m.client.CreateInventoryItem(ctx, sku, item); err != nil {
		return nil, err
	}

	offer := &Offer{SKU: sku, MarketplaceID: m.marketplaceID, Format: "FIXED_PRICE"}
	offer.PricingSummary.Price.Value = fmt.Sprintf("%.2f", model.CentsToDollars(spec.Price))
	offer.PricingSummary.Price.Currency = "USD"

	offerID, err := m.client.CreateOffer(ctx, offer)
	if err != nil {
		return nil, err
	}

	listingID, err := m.client.PublishOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	return &adapter.ListingRef{Platform: "ebay", ListingID: listingID}, nil
}

// RespondToOffer implements adapter.Marketplace. eBay best-offer handling
// is not wired to the negotiation backend.
func (m *Marketplace) RespondToOffer(ctx context.Context, ref adapter.NegotiationRef, action negotiation.SellerAction) error {
	return model.NewUnsupportedError("eBay offer negotiation")
}

// newSKU returns a fresh alphanumeric SKU. ULIDs fit eBay's SKU rules
// (A-Z, 0-9 only, under 50 chars) and sort by creation time.
func newSKU() string {
	return "TH" + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Verify Marketplace implements the interface at compile time.
var _ adapter.Marketplace = (*Marketplace)(nil)
