package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"

	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/intent"
	"tetsy-hub/internal/model"
)

// ListingRuntime is a deterministic runtime for the listing agent: it
// classifies the request, publishes through a marketplace adapter, and
// reports the outcome. Adapter failures become a normal final response
// describing the error; the turn itself still completes.
type ListingRuntime struct {
	classifier intent.Classifier
	market     adapter.Marketplace
	sellerID   string
}

// NewListingRuntime builds a listing runtime over the given marketplace.
func NewListingRuntime(classifier intent.Classifier, market adapter.Marketplace, sellerID string) *ListingRuntime {
	return &ListingRuntime{classifier: classifier, market: market, sellerID: sellerID}
}

// Name implements Runtime.
func (r *ListingRuntime) Name() string {
	return r.market.Platform() + "-listing-agent"
}

// Run implements Runtime. The returned stream is lazy: the adapter call
// happens when the consumer pulls past the progress event.
func (r *ListingRuntime) Run(ctx context.Context, session *Session, content Content) (Stream, error) {
	session.Append(content)
	return &listingStream{r: r, session: session, query: content.Text()}, nil
}

type listingStream struct {
	r       *ListingRuntime
	session *Session
	query   string
	step    int
}

func (s *listingStream) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s.step {
	case 0:
		s.step = 1
		res := s.r.classifier.Classify(s.query)
		if res.Kind != intent.KindPostListing {
			return s.final(fmt.Sprintf(
				"I can help you post listings on %s. Your request was: %s",
				s.r.market.Platform(), s.query)), nil
		}
		if missing := res.Listing.MissingFields(); len(missing) > 0 {
			return s.final(fmt.Sprintf(
				"Could not parse listing details. Missing: %s. Please provide: 'item name', description, and price.",
				strings.Join(missing, ", "))), nil
		}
		s.step = 2
		return IntermediateText{Text: fmt.Sprintf("Posting %q to %s...", res.Listing.Name, s.r.market.Platform())}, nil
	case 2:
		// Re-classify rather than carrying parse state across steps;
		// the classifier is deterministic.
		res := s.r.classifier.Classify(s.query)
		ref, err := s.r.market.PublishListing(ctx, &adapter.PublishSpec{
			Name:        res.Listing.Name,
			Description: res.Listing.Description,
			Price:       res.Listing.Price,
			SellerID:    s.r.sellerID,
		})
		if err != nil {
			return s.final("Error posting listing: " + err.Error()), nil
		}
		return s.final(fmt.Sprintf(
			"Successfully posted listing %q at $%.2f (id %s).",
			res.Listing.Name, model.CentsToDollars(res.Listing.Price), ref.ListingID)), nil
	default:
		return nil, io.EOF
	}
}

func (s *listingStream) final(text string) Event {
	s.step = 3
	reply := NewModelText(text)
	s.session.Append(reply)
	return FinalResponse{Content: reply}
}
