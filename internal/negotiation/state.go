// Package negotiation implements the price-negotiation state machine and the
// service layer that drives it against the store.
package negotiation

import (
	"tetsy-hub/internal/model"
)

// SellerAction is a seller's response to an open negotiation. The set of
// actions is closed: Accept, Reject, and Counter are the only implementations.
type SellerAction interface {
	sellerAction()
}

// Accept closes the negotiation at the buyer's last offer.
type Accept struct{}

// Reject closes the negotiation. Reason, when set, is relayed to the buyer
// as a final message.
type Reject struct {
	Reason string
}

// Counter proposes a new price in cents.
type Counter struct {
	Amount int64
}

func (Accept) sellerAction()  {}
func (Reject) sellerAction()  {}
func (Counter) sellerAction() {}

// ParseSellerAction validates a wire-level action string and its companions
// into a SellerAction. counterAmount is required for "counter" and ignored
// otherwise; an invalid string or a missing/non-positive counter amount is a
// ValidationError.
func ParseSellerAction(action string, counterAmount *int64, reason string) (SellerAction, error) {
	switch action {
	case "accept":
		return Accept{}, nil
	case "reject":
		return Reject{Reason: reason}, nil
	case "counter":
		if counterAmount == nil {
			return nil, model.NewValidationError("counter_amount", "required for counter action")
		}
		if *counterAmount <= 0 {
			return nil, model.NewValidationError("counter_amount", "must be positive")
		}
		return Counter{Amount: *counterAmount}, nil
	default:
		return nil, model.NewValidationError("action", "must be accept, reject, or counter")
	}
}

// nextForBuyerOffer validates a buyer offer against the current status.
// A buyer offer is valid in any non-terminal state and resets the
// negotiation to pending.
func nextForBuyerOffer(cur model.NegotiationStatus) (model.NegotiationStatus, error) {
	if cur.Terminal() {
		return "", terminalErr()
	}
	return model.StatusPending, nil
}

// nextForBuyerAccept validates a buyer accept. Only a standing seller
// counter can be accepted.
func nextForBuyerAccept(cur model.NegotiationStatus) (model.NegotiationStatus, error) {
	if cur.Terminal() {
		return "", terminalErr()
	}
	if cur != model.StatusCountered {
		return "", model.NewInvalidStateError("no counter-offer to accept")
	}
	return model.StatusAccepted, nil
}

// nextForSeller maps a seller action to the resulting status.
func nextForSeller(cur model.NegotiationStatus, action SellerAction) (model.NegotiationStatus, error) {
	if cur.Terminal() {
		return "", terminalErr()
	}
	switch action.(type) {
	case Accept:
		return model.StatusAccepted, nil
	case Reject:
		return model.StatusRejected, nil
	case Counter:
		return model.StatusCountered, nil
	default:
		return "", model.NewValidationError("action", "unknown seller action")
	}
}

func terminalErr() error {
	return model.NewInvalidStateError("negotiation is already accepted or rejected")
}
