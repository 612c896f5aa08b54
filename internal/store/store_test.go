package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tetsy-hub/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "negotiations.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func offer(amount int64) *int64 { return &amount }

func createNegotiation(t *testing.T, s *Store, amount int64) *model.Negotiation {
	t.Helper()
	n := &model.Negotiation{
		ID:              s.NewID("neg"),
		ProductID:       "prod-1",
		BuyerID:         "buyer-001",
		SellerID:        "seller-001",
		ProductTitle:    "Blue Scarf",
		Status:          model.StatusPending,
		LastOfferAmount: amount,
	}
	initial := &model.Message{
		ID:            s.NewID("msg"),
		NegotiationID: n.ID,
		SenderID:      n.BuyerID,
		SenderType:    model.SenderBuyer,
		Content:       "I'd like to offer $100.00 for this item.",
		Type:          model.MessageOffer,
		OfferAmount:   offer(amount),
	}
	if err := s.CreateNegotiation(context.Background(), n, initial); err != nil {
		t.Fatalf("CreateNegotiation: %v", err)
	}
	return n
}

func TestCreateNegotiation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n := createNegotiation(t, s, 10000)

	got, err := s.GetNegotiation(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNegotiation: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %s, want pending", got.Status)
	}
	if got.LastOfferAmount != 10000 {
		t.Errorf("LastOfferAmount = %d, want 10000", got.LastOfferAmount)
	}

	msgs, err := s.ListMessages(ctx, n.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(msgs))
	}
	if msgs[0].Type != model.MessageOffer {
		t.Errorf("message type = %s, want offer", msgs[0].Type)
	}
	if msgs[0].OfferAmount == nil || *msgs[0].OfferAmount != 10000 {
		t.Errorf("message OfferAmount = %v, want 10000", msgs[0].OfferAmount)
	}
}

func TestGetNegotiationNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetNegotiation(context.Background(), "neg-missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendMessageUpdatesLastOffer(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := createNegotiation(t, s, 10000)

	// Seller counters at $90.
	counter := &model.Message{
		ID:            s.NewID("msg"),
		NegotiationID: n.ID,
		SenderID:      n.SellerID,
		SenderType:    model.SenderSeller,
		Content:       "I can do $90.00",
		Type:          model.MessageCounterOffer,
		OfferAmount:   offer(9000),
	}
	err := s.AppendMessage(ctx, counter, &StatusUpdate{
		Status:          model.StatusCountered,
		LastOfferAmount: offer(9000),
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	got, err := s.GetNegotiation(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNegotiation: %v", err)
	}
	if got.Status != model.StatusCountered {
		t.Errorf("Status = %s, want countered", got.Status)
	}
	if got.LastOfferAmount != 9000 {
		t.Errorf("LastOfferAmount = %d, want 9000", got.LastOfferAmount)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestLastOfferTracksMostRecentOfferMessage(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := createNegotiation(t, s, 10000)

	amounts := []int64{9000, 9500, 9200}
	statuses := []model.NegotiationStatus{
		model.StatusCountered, model.StatusPending, model.StatusCountered,
	}
	senders := []model.SenderType{model.SenderSeller, model.SenderBuyer, model.SenderSeller}
	types := []model.MessageType{model.MessageCounterOffer, model.MessageOffer, model.MessageCounterOffer}

	for i, amt := range amounts {
		msg := &model.Message{
			ID:            s.NewID("msg"),
			NegotiationID: n.ID,
			SenderID:      "someone",
			SenderType:    senders[i],
			Type:          types[i],
			OfferAmount:   offer(amt),
		}
		if err := s.AppendMessage(ctx, msg, &StatusUpdate{Status: statuses[i], LastOfferAmount: offer(amt)}); err != nil {
			t.Fatalf("AppendMessage[%d]: %v", i, err)
		}
	}

	got, _ := s.GetNegotiation(ctx, n.ID)
	if got.LastOfferAmount != 9200 {
		t.Errorf("LastOfferAmount = %d, want amount of last offer message (9200)", got.LastOfferAmount)
	}

	msgs, _ := s.ListMessages(ctx, n.ID)
	last := msgs[len(msgs)-1]
	if last.OfferAmount == nil || *last.OfferAmount != got.LastOfferAmount {
		t.Error("last_offer_amount does not match most recent offer-bearing message")
	}
}

func TestTerminalStateRejectsMutation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := createNegotiation(t, s, 10000)

	if err := s.SetStatus(ctx, n.ID, StatusUpdate{Status: model.StatusAccepted}); err != nil {
		t.Fatalf("SetStatus(accepted): %v", err)
	}

	// Further transitions must fail with InvalidStateError.
	err := s.SetStatus(ctx, n.ID, StatusUpdate{Status: model.StatusRejected})
	if !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("SetStatus after terminal: err = %v, want ErrInvalidState", err)
	}

	// Message appends must fail too, and must not persist the message.
	msg := &model.Message{
		ID:            s.NewID("msg"),
		NegotiationID: n.ID,
		SenderID:      n.BuyerID,
		SenderType:    model.SenderBuyer,
		Content:       "still there?",
		Type:          model.MessageChat,
	}
	err = s.AppendMessage(ctx, msg, nil)
	if !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("AppendMessage after terminal: err = %v, want ErrInvalidState", err)
	}

	msgs, _ := s.ListMessages(ctx, n.ID)
	if len(msgs) != 1 {
		t.Errorf("len(messages) = %d after rejected append, want 1 (atomicity violated)", len(msgs))
	}
}

func TestSetStatusUnknownNegotiation(t *testing.T) {
	s := testStore(t)

	err := s.SetStatus(context.Background(), "neg-missing", StatusUpdate{Status: model.StatusAccepted})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestArchiveHidesFromBuyerOnly(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := createNegotiation(t, s, 10000)

	if err := s.Archive(ctx, n.ID, n.BuyerID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	buyerList, _ := s.ListBuyerNegotiations(ctx, n.BuyerID)
	if len(buyerList) != 0 {
		t.Errorf("buyer list has %d entries after archive, want 0", len(buyerList))
	}

	sellerList, _ := s.ListSellerNegotiations(ctx, n.SellerID, "")
	if len(sellerList) != 1 {
		t.Errorf("seller list has %d entries after archive, want 1", len(sellerList))
	}
}

func TestSellerStatusFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n1 := createNegotiation(t, s, 10000)
	createNegotiation(t, s, 5000)

	if err := s.SetStatus(ctx, n1.ID, StatusUpdate{Status: model.StatusAccepted}); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	accepted, _ := s.ListSellerNegotiations(ctx, "seller-001", model.StatusAccepted)
	if len(accepted) != 1 || accepted[0].ID != n1.ID {
		t.Errorf("accepted filter returned %d entries, want the accepted negotiation", len(accepted))
	}
}

func TestUnreadSellerCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	n := createNegotiation(t, s, 10000)

	count, err := s.UnreadSellerCount(ctx, n.SellerID)
	if err != nil {
		t.Fatalf("UnreadSellerCount: %v", err)
	}
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}

	if err := s.MarkSellerRead(ctx, n.ID); err != nil {
		t.Fatalf("MarkSellerRead: %v", err)
	}
	count, _ = s.UnreadSellerCount(ctx, n.SellerID)
	if count != 0 {
		t.Errorf("unread after mark = %d, want 0", count)
	}
}

func TestNewIDTimeOrdered(t *testing.T) {
	s := testStore(t)

	prev := ""
	for i := 0; i < 100; i++ {
		id := s.NewID("msg")
		if id <= prev {
			t.Fatalf("ids not strictly increasing: %q then %q", prev, id)
		}
		prev = id
	}
}

func TestListings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	l := &model.Listing{
		ID:       s.NewID("listing"),
		Name:     "Blue Scarf",
		Price:    2000,
		SellerID: "seller-001",
		Image:    []byte{0x89, 0x50, 0x4e, 0x47},
	}
	if err := s.CreateListing(ctx, l); err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	got, err := s.GetListing(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.Price != 2000 || got.Name != "Blue Scarf" {
		t.Errorf("listing mismatch: %+v", got)
	}
	if len(got.Image) != 4 {
		t.Errorf("image blob not round-tripped, got %d bytes", len(got.Image))
	}

	all, _ := s.ListListings(ctx, "")
	if len(all) != 1 {
		t.Errorf("ListListings = %d entries, want 1", len(all))
	}
	none, _ := s.ListListings(ctx, "seller-other")
	if len(none) != 0 {
		t.Errorf("filtered ListListings = %d entries, want 0", len(none))
	}
}
