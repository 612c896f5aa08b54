// Package policy holds the seller-side automatic negotiation rules.
//
// The rules are a deterministic function of the offer-to-asking ratio:
// offers at 85% of asking or better are accepted, anything lower draws a
// counter at 90% of asking. A counter never undercuts the buyer's own
// offer and never drops below 80% of asking.
package policy

import (
	"math"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

const (
	acceptRatio  = 0.85
	counterRatio = 0.90
	floorRatio   = 0.80
)

// Decide maps a buyer offer against an asking price (both in cents) to the
// seller action to take. Non-positive inputs are a ValidationError.
func Decide(askingPrice, offerAmount int64) (negotiation.SellerAction, error) {
	if askingPrice <= 0 {
		return nil, model.NewValidationError("asking_price", "must be positive")
	}
	if offerAmount <= 0 {
		return nil, model.NewValidationError("offer_amount", "must be positive")
	}

	if float64(offerAmount) >= acceptRatio*float64(askingPrice) {
		return negotiation.Accept{}, nil
	}

	counter := int64(math.Round(counterRatio * float64(askingPrice)))
	if floor := int64(math.Round(floorRatio * float64(askingPrice))); counter < floor {
		counter = floor
	}
	if counter < offerAmount {
		counter = offerAmount
	}
	return negotiation.Counter{Amount: counter}, nil
}
