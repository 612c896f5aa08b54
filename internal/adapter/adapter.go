// Package adapter defines the interface for marketplace integrations.
// Adapters translate platform-specific APIs (Tetsy, eBay) into a unified
// listing/negotiation surface for the agents.
package adapter

import (
	"context"

	"tetsy-hub/internal/negotiation"
)

// Marketplace abstracts the operations the agents need from a selling
// platform. Each platform provides its own implementation.
//
// Platform-specific error handling is encapsulated within each
// implementation; failures surface as model.AdapterError with the
// Retryable flag set for transient conditions.
type Marketplace interface {
	// Platform returns the platform identifier ("tetsy", "ebay").
	Platform() string

	// PublishListing creates a live listing from the spec.
	// Publishing is NOT idempotent: a retry must use a fresh spec
	// (implementations derive per-attempt SKUs where the platform
	// requires one).
	PublishListing(ctx context.Context, spec *PublishSpec) (*ListingRef, error)

	// RespondToOffer applies a seller decision to an open negotiation.
	RespondToOffer(ctx context.Context, ref NegotiationRef, action negotiation.SellerAction) error
}

// PublishSpec describes a listing to create.
type PublishSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Price in cents.
	Price    int64  `json:"price"`
	SellerID string `json:"seller_id"`
	ImageURI string `json:"image_uri,omitempty"`
}

// ListingRef identifies a published listing on its platform.
type ListingRef struct {
	Platform  string `json:"platform"`
	ListingID string `json:"listing_id"`
	URL       string `json:"url,omitempty"`
}

// NegotiationRef identifies a negotiation on its platform.
type NegotiationRef struct {
	NegotiationID string `json:"negotiation_id"`
	SellerID      string `json:"seller_id"`
}
