package policy

import (
	"errors"
	"math/rand"
	"testing"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		asking int64
		offer  int64
		want   negotiation.SellerAction
	}{
		{"well above threshold", 10000, 8700, negotiation.Accept{}},
		{"exactly at threshold", 10000, 8500, negotiation.Accept{}},
		{"full price", 10000, 10000, negotiation.Accept{}},
		{"just below threshold", 10000, 8499, negotiation.Counter{Amount: 9000}},
		{"lowball", 10000, 7000, negotiation.Counter{Amount: 9000}},
		{"tiny offer", 10000, 1, negotiation.Counter{Amount: 9000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(tt.asking, tt.offer)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide(%d, %d) = %#v, want %#v", tt.asking, tt.offer, got, tt.want)
			}
		})
	}
}

func TestDecideValidation(t *testing.T) {
	if _, err := Decide(0, 100); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("zero asking: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := Decide(100, 0); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("zero offer: err = %v, want ErrInvalidRequest", err)
	}
	if _, err := Decide(100, -5); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("negative offer: err = %v, want ErrInvalidRequest", err)
	}
}

// Counter amounts must never undercut the buyer's offer and never fall
// below 80% of asking, for any inputs.
func TestDecideProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		asking := rng.Int63n(1_000_000) + 1
		offer := rng.Int63n(asking) + 1

		action, err := Decide(asking, offer)
		if err != nil {
			t.Fatalf("Decide(%d, %d): %v", asking, offer, err)
		}

		ratio := float64(offer) / float64(asking)
		switch a := action.(type) {
		case negotiation.Accept:
			if ratio < 0.85 {
				t.Fatalf("Decide(%d, %d) accepted at ratio %.3f", asking, offer, ratio)
			}
		case negotiation.Counter:
			if ratio >= 0.85 {
				t.Fatalf("Decide(%d, %d) countered at ratio %.3f", asking, offer, ratio)
			}
			if a.Amount < offer {
				t.Fatalf("counter %d undercuts offer %d", a.Amount, offer)
			}
			if float64(a.Amount) < 0.80*float64(asking)-0.5 {
				t.Fatalf("counter %d below floor for asking %d", a.Amount, asking)
			}
		default:
			t.Fatalf("unexpected action %#v", action)
		}
	}
}
