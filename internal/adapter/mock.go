package adapter

import (
	"context"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

// Mock implements Marketplace for testing.
// Each method can be configured via function fields.
type Mock struct {
	PlatformName       string
	PublishListingFunc func(ctx context.Context, spec *PublishSpec) (*ListingRef, error)
	RespondToOfferFunc func(ctx context.Context, ref NegotiationRef, action negotiation.SellerAction) error
}

// Platform returns PlatformName, defaulting to "mock".
func (m *Mock) Platform() string {
	if m.PlatformName != "" {
		return m.PlatformName
	}
	return "mock"
}

// PublishListing calls the configured PublishListingFunc or returns an error.
func (m *Mock) PublishListing(ctx context.Context, spec *PublishSpec) (*ListingRef, error) {
	if m.PublishListingFunc != nil {
		return m.PublishListingFunc(ctx, spec)
	}
	return nil, model.NewInternalError(nil)
}

// RespondToOffer calls the configured RespondToOfferFunc or returns an error.
func (m *Mock) RespondToOffer(ctx context.Context, ref NegotiationRef, action negotiation.SellerAction) error {
	if m.RespondToOfferFunc != nil {
		return m.RespondToOfferFunc(ctx, ref, action)
	}
	return model.NewNotFoundError("negotiation")
}

// Verify Mock implements Marketplace interface at compile time.
var _ Marketplace = (*Mock)(nil)
