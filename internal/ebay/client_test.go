package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"tetsy-hub/internal/adapter"
	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

// fakeEbay serves the token and inventory endpoints the publish flow hits.
type fakeEbay struct {
	tokenCalls   int64
	inventorySKU string
	offerSKU     string
	published    string
	failPublish  bool
}

func (f *fakeEbay) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /identity/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.tokenCalls, 1)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123", "expires_in": 7200,
		})
	})
	mux.HandleFunc("PUT /sell/inventory/v1/inventory_item/{sku}", func(w http.ResponseWriter, r *http.Request) {
		f.inventorySKU = r.PathValue("sku")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /sell/inventory/v1/offer", func(w http.ResponseWriter, r *http.Request) {
		var offer Offer
		json.NewDecoder(r.Body).Decode(&offer)
		f.offerSKU = offer.SKU
		json.NewEncoder(w).Encode(map[string]string{"offerId": "offer-7"})
	})
	mux.HandleFunc("POST /sell/inventory/v1/offer/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
		if f.failPublish {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"errors":[{"errorId":25007,"message":"fulfillment policy missing"}]}`))
			return
		}
		f.published = r.PathValue("id")
		json.NewEncoder(w).Encode(map[string]string{"listingId": "listing-55"})
	})
	return mux
}

func TestPublishFlow(t *testing.T) {
	fake := &fakeEbay{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	m := NewMarketplace(NewClientForTest(ts.URL, "id", "secret"), "EBAY_US")
	ref, err := m.PublishListing(context.Background(), &adapter.PublishSpec{
		Name: "Blue Scarf", Description: "Hand-knit", Price: 2000, SellerID: "seller-001",
	})
	if err != nil {
		t.Fatalf("PublishListing: %v", err)
	}
	if ref.ListingID != "listing-55" || ref.Platform != "ebay" {
		t.Errorf("ref = %+v", ref)
	}
	if fake.inventorySKU == "" || fake.inventorySKU != fake.offerSKU {
		t.Errorf("inventory sku %q and offer sku %q must match", fake.inventorySKU, fake.offerSKU)
	}
	if fake.published != "offer-7" {
		t.Errorf("published offer = %q", fake.published)
	}
}

func TestPublishRetriesUseFreshSKU(t *testing.T) {
	fake := &fakeEbay{failPublish: true}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	m := NewMarketplace(NewClientForTest(ts.URL, "id", "secret"), "EBAY_US")
	spec := &adapter.PublishSpec{Name: "Mug", Price: 1200}

	if _, err := m.PublishListing(context.Background(), spec); err == nil {
		t.Fatal("expected publish failure")
	}
	firstSKU := fake.offerSKU

	fake.failPublish = false
	if _, err := m.PublishListing(context.Background(), spec); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if fake.offerSKU == firstSKU {
		t.Errorf("retry reused SKU %q", firstSKU)
	}
}

func TestTokenIsCached(t *testing.T) {
	fake := &fakeEbay{}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c := NewClientForTest(ts.URL, "id", "secret")
	for i := 0; i < 3; i++ {
		if err := c.CreateInventoryItem(context.Background(), "SKU1", &InventoryItem{Condition: "NEW"}); err != nil {
			t.Fatalf("CreateInventoryItem: %v", err)
		}
	}
	if n := atomic.LoadInt64(&fake.tokenCalls); n != 1 {
		t.Errorf("token endpoint hit %d times, want 1", n)
	}
}

func TestServerErrorsAreRetryable(t *testing.T) {
	fake := &fakeEbay{failPublish: true}
	ts := httptest.NewServer(fake.handler())
	defer ts.Close()

	c := NewClientForTest(ts.URL, "id", "secret")
	_, err := c.PublishOffer(context.Background(), "offer-1")
	if !errors.Is(err, model.ErrAdapter) {
		t.Fatalf("err = %v, want ErrAdapter", err)
	}
	if !model.IsRetryable(err) {
		t.Error("5xx publish failure should be retryable")
	}
}

func TestRespondToOfferUnsupported(t *testing.T) {
	m := NewMarketplace(NewClientForTest("http://unused", "id", "secret"), "EBAY_US")
	err := m.RespondToOffer(context.Background(), adapter.NegotiationRef{NegotiationID: "n"}, negotiation.Accept{})
	if !errors.Is(err, model.ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestNewSKUAlphanumeric(t *testing.T) {
	for i := 0; i < 20; i++ {
		sku := newSKU()
		if len(sku) > 50 {
			t.Fatalf("sku %q longer than 50 chars", sku)
		}
		for _, r := range sku {
			if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				t.Fatalf("sku %q contains invalid character %q", sku, r)
			}
		}
	}
}
