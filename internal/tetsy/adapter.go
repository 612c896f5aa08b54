package tetsy

import (
	"context"

	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

// Marketplace adapts the Tetsy backend to the Marketplace interface.
type Marketplace struct {
	client *Client
}

// NewMarketplace wraps a client.
func NewMarketplace(client *Client) *Marketplace {
	return &Marketplace{client: client}
}

// Platform implements adapter.Marketplace.
func (m *Marketplace) Platform() string { return "tetsy" }

// PublishListing implements adapter.Marketplace.
func (m *Marketplace) PublishListing(ctx context.Context, spec *adapter.PublishSpec) (*adapter.ListingRef, error) {
	listing, err := m.client.CreateListing(ctx, &ListingInput{
		Name:        spec.Name,
		Description: spec.Description,
		Price:       model.CentsToDollars(spec.Price),
		SellerID:    spec.SellerID,
	})
	if err != nil {
		return nil, err
	}
	return &adapter.ListingRef{Platform: "tetsy", ListingID: listing.ID}, nil
}

// RespondToOffer implements adapter.Marketplace.
func (m *Marketplace) RespondToOffer(ctx context.Context, ref adapter.NegotiationRef, action negotiation.SellerAction) error {
	input := &RespondInput{}
	switch a := action.(type) {
	case negotiation.Accept:
		input.Action = "accept"
	case negotiation.Reject:
		input.Action = "reject"
		input.Reason = a.Reason
	case negotiation.Counter:
		input.Action = "counter"
		dollars := model.CentsToDollars(a.Amount)
		input.CounterAmount = &dollars
	default:
		return model.NewValidationError("action", "unknown seller action")
	}
	return m.client.Respond(ctx, ref.SellerID, ref.NegotiationID, input)
}

// Verify Marketplace implements the interface at compile time.
var _ adapter.Marketplace = (*Marketplace)(nil)
