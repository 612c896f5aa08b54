package seller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/bridge"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
	"tetsy-hub/internal/runtime"
	"tetsy-hub/internal/tetsy"
)

// fakeBackend serves the negotiation and listing lookups the automaton
// performs, and records seller messages.
type fakeBackend struct {
	listingPrice float64
	messages     []string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /negotiations/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"negotiation": map[string]interface{}{
				"id":         r.PathValue("id"),
				"product_id": "listing-1",
				"buyer_id":   "buyer-001",
				"seller_id":  r.URL.Query().Get("user_id"),
				"status":     "pending",
			},
		})
	})
	mux.HandleFunc("GET /listings/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tetsy.Listing{
			ID: r.PathValue("id"), Name: "Handmade Vase",
			Price: f.listingPrice, SellerID: "seller-001",
		})
	})
	mux.HandleFunc("POST /seller/{sellerId}/negotiations/{id}/message", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.messages = append(f.messages, body.Content)
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func offerMessage(amount int64) *model.Message {
	return &model.Message{
		SenderID:    "buyer-001",
		SenderType:  model.SenderBuyer,
		Type:        model.MessageOffer,
		OfferAmount: &amount,
	}
}

func TestOfferRoutedThroughPolicy(t *testing.T) {
	tests := []struct {
		name       string
		asking     float64
		offer      int64
		wantAction negotiation.SellerAction
	}{
		{"high offer accepted", 100.00, 9000, negotiation.Accept{}},
		{"boundary ratio accepted", 100.00, 8500, negotiation.Accept{}},
		{"low offer countered", 100.00, 5000, negotiation.Counter{Amount: 9000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBackend{listingPrice: tt.asking}
			ts := httptest.NewServer(fake.handler())
			defer ts.Close()

			var got negotiation.SellerAction
			var gotRef adapter.NegotiationRef
			mock := &adapter.Mock{
				RespondToOfferFunc: func(ctx context.Context, ref adapter.NegotiationRef, action negotiation.SellerAction) error {
					gotRef, got = ref, action
					return nil
				},
			}
			a := NewAutomaton("seller-001", tetsy.NewClient(ts.URL), mock, nil, nil)

			err := a.HandleMessage(context.Background(), &bridge.InboundMessage{
				NegotiationID: "neg-1",
				Status:        "pending",
				Message:       offerMessage(tt.offer),
			})
			if err != nil {
				t.Fatalf("HandleMessage: %v", err)
			}
			if got != tt.wantAction {
				t.Errorf("action = %#v, want %#v", got, tt.wantAction)
			}
			if gotRef.NegotiationID != "neg-1" || gotRef.SellerID != "seller-001" {
				t.Errorf("ref = %+v", gotRef)
			}
		})
	}
}

func TestNonBuyerMessagesIgnored(t *testing.T) {
	mock := &adapter.Mock{
		RespondToOfferFunc: func(ctx context.Context, ref adapter.NegotiationRef, action negotiation.SellerAction) error {
			t.Error("RespondToOffer called for a seller message")
			return nil
		},
	}
	a := NewAutomaton("seller-001", tetsy.NewClient("http://unused"), mock, nil, nil)

	amount := int64(5000)
	err := a.HandleMessage(context.Background(), &bridge.InboundMessage{
		NegotiationID: "neg-1",
		Message: &model.Message{
			SenderID: "seller-001", SenderType: model.SenderSeller,
			Type: model.MessageCounterOffer, OfferAmount: &amount,
		},
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
}

func TestChatWithoutResponderIsNoop(t *testing.T) {
	a := NewAutomaton("seller-001", tetsy.NewClient("http://unused"), &adapter.Mock{}, nil, nil)
	err := a.HandleMessage(context.Background(), &bridge.InboundMessage{
		NegotiationID: "neg-1",
		Message: &model.Message{
			SenderType: model.SenderBuyer, Type: model.MessageChat,
			Content: "Is this still available?",
		},
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
}

// fixedRuntime replies with a fixed final response.
type fixedRuntime struct {
	reply string
}

func (r *fixedRuntime) Name() string { return "fixed" }

func (r *fixedRuntime) Run(ctx context.Context, session *runtime.Session, content runtime.Content) (runtime.Stream, error) {
	session.Append(content)
	return &fixedStream{reply: r.reply}, nil
}

type fixedStream struct {
	reply string
	done  bool
}

func (s *fixedStream) Next(ctx context.Context) (runtime.Event, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return runtime.FinalResponse{Content: runtime.NewModelText(s.reply)}, nil
}

func TestChatRepliedThroughBackend(t *testing.T) {
	fake := &fakeBackend{listingPrice: 100}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	a := NewAutomaton("seller-001", tetsy.NewClient(ts.URL), &adapter.Mock{},
		&fixedRuntime{reply: "Yes, it ships tomorrow."}, nil)

	err := a.HandleMessage(context.Background(), &bridge.InboundMessage{
		NegotiationID: "neg-1",
		Message: &model.Message{
			SenderType: model.SenderBuyer, Type: model.MessageChat,
			Content: "When does it ship?",
		},
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(fake.messages) != 1 || fake.messages[0] != "Yes, it ships tomorrow." {
		t.Errorf("messages = %v", fake.messages)
	}
}

func TestChatKeepsSessionPerNegotiation(t *testing.T) {
	fake := &fakeBackend{listingPrice: 100}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	a := NewAutomaton("seller-001", tetsy.NewClient(ts.URL), &adapter.Mock{},
		&fixedRuntime{reply: "ok"}, nil)

	for _, negID := range []string{"neg-1", "neg-1", "neg-2"} {
		err := a.HandleMessage(context.Background(), &bridge.InboundMessage{
			NegotiationID: negID,
			Message: &model.Message{
				SenderType: model.SenderBuyer, Type: model.MessageChat, Content: "hi",
			},
		})
		if err != nil {
			t.Fatalf("HandleMessage(%s): %v", negID, err)
		}
	}
	if n := a.sessions.Len(); n != 2 {
		t.Errorf("sessions = %d, want 2", n)
	}
}

func TestOfferLookupFailurePropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	a := NewAutomaton("seller-001", tetsy.NewClient(ts.URL), &adapter.Mock{}, nil, nil)
	err := a.HandleMessage(context.Background(), &bridge.InboundMessage{
		NegotiationID: "neg-missing",
		Message:       offerMessage(5000),
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

var _ bridge.MessageConsumer = (*Automaton)(nil)
