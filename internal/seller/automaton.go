// Package seller automates the seller side of negotiations: webhook
// messages come in, the policy engine decides, and the marketplace
// adapter carries the decision back.
package seller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/bridge"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
	"tetsy-hub/internal/policy"
	"tetsy-hub/internal/runtime"
	"tetsy-hub/internal/tetsy"
)

// Automaton consumes negotiation webhooks for one seller. Offer-bearing
// buyer messages go through the policy engine; free text gets a runtime
// reply that never changes negotiation state.
type Automaton struct {
	sellerID  string
	backend   *tetsy.Client
	market    adapter.Marketplace
	responder runtime.Runtime
	sessions  *runtime.SessionService
	logger    *slog.Logger
}

// NewAutomaton builds the automaton. responder may be nil to disable
// free-text replies.
func NewAutomaton(sellerID string, backend *tetsy.Client, market adapter.Marketplace, responder runtime.Runtime, logger *slog.Logger) *Automaton {
	if logger == nil {
		logger = slog.Default()
	}
	return &Automaton{
		sellerID:  sellerID,
		backend:   backend,
		market:    market,
		responder: responder,
		sessions:  runtime.NewSessionService(),
		logger:    logger,
	}
}

// HandleMessage implements bridge.MessageConsumer.
func (a *Automaton) HandleMessage(ctx context.Context, msg *bridge.InboundMessage) error {
	m := msg.Message
	if m.SenderType != model.SenderBuyer {
		// Our own messages echo back through the webhook; ignore them.
		return nil
	}

	if m.Type.OfferBearing() && m.OfferAmount != nil {
		return a.handleOffer(ctx, msg.NegotiationID, *m.OfferAmount)
	}
	return a.handleChat(ctx, msg.NegotiationID, m.Content)
}

// handleOffer runs the policy engine against the listing's asking price
// and sends the decision back through the marketplace adapter.
func (a *Automaton) handleOffer(ctx context.Context, negotiationID string, offerAmount int64) error {
	n, err := a.backend.GetNegotiation(ctx, negotiationID, a.sellerID)
	if err != nil {
		return err
	}
	listing, err := a.backend.GetListing(ctx, n.ProductID)
	if err != nil {
		return err
	}
	asking := model.DollarsToCents(listing.Price)

	action, err := policy.Decide(asking, offerAmount)
	if err != nil {
		return err
	}
	a.logger.Info("policy decision",
		slog.String("negotiation_id", negotiationID),
		slog.Int64("asking", asking),
		slog.Int64("offer", offerAmount),
		slog.String("action", actionName(action)))

	return a.market.RespondToOffer(ctx, adapter.NegotiationRef{
		NegotiationID: negotiationID,
		SellerID:      a.sellerID,
	}, action)
}

// handleChat answers free text through the responder runtime. The reply
// is a plain message; negotiation state is untouched.
func (a *Automaton) handleChat(ctx context.Context, negotiationID, content string) error {
	if a.responder == nil {
		return nil
	}
	session, _ := a.sessions.GetOrCreate(negotiationID)
	stream, err := a.responder.Run(ctx, session, runtime.NewUserText(content))
	if err != nil {
		return err
	}
	for {
		ev, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if final, ok := ev.(runtime.FinalResponse); ok {
			reply := final.Content.Text()
			if reply == "" {
				return nil
			}
			return a.backend.SendMessage(ctx, a.sellerID, negotiationID, reply)
		}
	}
}

func actionName(action negotiation.SellerAction) string {
	switch a := action.(type) {
	case negotiation.Accept:
		return "accept"
	case negotiation.Reject:
		return "reject"
	case negotiation.Counter:
		return fmt.Sprintf("counter %d", a.Amount)
	default:
		return "unknown"
	}
}
