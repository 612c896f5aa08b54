package tetsy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

func TestCreateListing(t *testing.T) {
	var gotPath string
	var gotBody ListingInput
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Listing{ID: "listing-1", Name: gotBody.Name, Price: gotBody.Price})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	out, err := c.CreateListing(context.Background(), &ListingInput{
		Name: "Blue Scarf", Description: "Hand-knit", Price: 20.00, SellerID: "seller-001",
	})
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	if gotPath != "POST /listings" {
		t.Errorf("request = %q, want POST /listings", gotPath)
	}
	if gotBody.Price != 20.00 {
		t.Errorf("sent price = %v, want 20.00", gotBody.Price)
	}
	if out.ID != "listing-1" {
		t.Errorf("listing id = %q", out.ID)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{400, model.ErrInvalidRequest},
		{403, model.ErrUnauthorized},
		{404, model.ErrNotFound},
		{409, model.ErrInvalidState},
		{502, model.ErrAdapter},
	}
	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error":{"code":"X","message":"nope"}}`))
		}))
		c := NewClient(ts.URL)
		_, err := c.GetListing(context.Background(), "listing-1")
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		ts.Close()
	}
}

func TestServerErrorIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	_, err := c.GetListing(context.Background(), "listing-1")
	if !model.IsRetryable(err) {
		t.Errorf("503 should be retryable, got %v", err)
	}
}

func TestRespondWireFormat(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotBody = nil // Decode reuses map entries; clear stale keys from the previous request.
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	m := NewMarketplace(NewClient(ts.URL))
	ref := adapter.NegotiationRef{NegotiationID: "neg-1", SellerID: "seller-001"}

	// Counter crosses the wire in decimal dollars.
	if err := m.RespondToOffer(context.Background(), ref, negotiation.Counter{Amount: 9000}); err != nil {
		t.Fatalf("RespondToOffer: %v", err)
	}
	if gotPath != "POST /seller/seller-001/negotiations/neg-1/respond" {
		t.Errorf("request = %q", gotPath)
	}
	if gotBody["action"] != "counter" || gotBody["counter_amount"] != 90.0 {
		t.Errorf("body = %v", gotBody)
	}

	if err := m.RespondToOffer(context.Background(), ref, negotiation.Accept{}); err != nil {
		t.Fatalf("RespondToOffer(accept): %v", err)
	}
	if gotBody["action"] != "accept" {
		t.Errorf("body = %v", gotBody)
	}
	if _, present := gotBody["counter_amount"]; present {
		t.Error("accept should not carry counter_amount")
	}
}

func TestPublishListingConvertsCents(t *testing.T) {
	var gotBody ListingInput
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Listing{ID: "listing-9"})
	}))
	defer ts.Close()

	m := NewMarketplace(NewClient(ts.URL))
	ref, err := m.PublishListing(context.Background(), &adapter.PublishSpec{
		Name: "Mug", Price: 1250, SellerID: "seller-001",
	})
	if err != nil {
		t.Fatalf("PublishListing: %v", err)
	}
	if gotBody.Price != 12.50 {
		t.Errorf("wire price = %v, want 12.50", gotBody.Price)
	}
	if ref.ListingID != "listing-9" || ref.Platform != "tetsy" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestSellerNegotiations(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "pending" {
			t.Errorf("status query = %q, want pending", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"negotiations": []Negotiation{{ID: "neg-1", Status: "pending", LastOfferAmount: 90.0}},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	got, err := c.SellerNegotiations(context.Background(), "seller-001", "pending")
	if err != nil {
		t.Fatalf("SellerNegotiations: %v", err)
	}
	if len(got) != 1 || got[0].ID != "neg-1" {
		t.Errorf("got %+v", got)
	}
}
