package negotiation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/store"
)

// Notifier delivers an appended message to the counterparty's agent.
// Implementations must be safe for concurrent use.
type Notifier interface {
	NotifyMessage(ctx context.Context, n *model.Negotiation, m *model.Message) error
}

// notifyTimeout bounds each fire-and-forget webhook delivery.
const notifyTimeout = 10 * time.Second

// Service drives the negotiation state machine against the store and fans
// appended messages out to the notifier. All service errors are model
// sentinels (NotFound, Authorization, Validation, InvalidState) suitable
// for direct HTTP mapping.
type Service struct {
	store    *store.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a Service. notifier may be nil to disable webhooks.
func NewService(st *store.Store, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, notifier: notifier, logger: logger}
}

// StartRequest opens a negotiation with the buyer's initial offer.
type StartRequest struct {
	ProductID    string
	BuyerID      string
	SellerID     string
	ProductTitle string
	ProductImage string
	OfferAmount  int64
	// Content overrides the generated initial-offer text when set.
	Content string
}

// Start creates a negotiation in pending state with one initial offer message.
func (s *Service) Start(ctx context.Context, req StartRequest) (*model.Negotiation, error) {
	switch {
	case req.ProductID == "":
		return nil, model.NewValidationError("product_id", "required")
	case req.BuyerID == "":
		return nil, model.NewValidationError("buyer_id", "required")
	case req.SellerID == "":
		return nil, model.NewValidationError("seller_id", "required")
	case req.OfferAmount <= 0:
		return nil, model.NewValidationError("offer_amount", "must be positive")
	}

	content := req.Content
	if content == "" {
		content = fmt.Sprintf("I'd like to offer $%.2f for this item.",
			model.CentsToDollars(req.OfferAmount))
	}

	n := &model.Negotiation{
		ID:              s.store.NewID("neg"),
		ProductID:       req.ProductID,
		BuyerID:         req.BuyerID,
		SellerID:        req.SellerID,
		ProductTitle:    req.ProductTitle,
		ProductImage:    req.ProductImage,
		Status:          model.StatusPending,
		LastOfferAmount: req.OfferAmount,
	}
	amount := req.OfferAmount
	msg := &model.Message{
		ID:            s.store.NewID("msg"),
		NegotiationID: n.ID,
		SenderID:      req.BuyerID,
		SenderType:    model.SenderBuyer,
		Content:       content,
		Type:          model.MessageOffer,
		OfferAmount:   &amount,
		ReadByBuyer:   true,
	}
	if err := s.store.CreateNegotiation(ctx, n, msg); err != nil {
		return nil, err
	}
	s.notify(n, msg)
	return n, nil
}

// BuyerOffer appends a new buyer offer, resetting the negotiation to pending.
func (s *Service) BuyerOffer(ctx context.Context, negotiationID, buyerID string, amount int64, content string) (*model.Message, error) {
	if amount <= 0 {
		return nil, model.NewValidationError("offer_amount", "must be positive")
	}
	n, err := s.authorizeBuyer(ctx, negotiationID, buyerID)
	if err != nil {
		return nil, err
	}
	status, err := nextForBuyerOffer(n.Status)
	if err != nil {
		return nil, err
	}

	if content == "" {
		content = fmt.Sprintf("How about $%.2f?", model.CentsToDollars(amount))
	}
	msg := &model.Message{
		ID:            s.store.NewID("msg"),
		NegotiationID: negotiationID,
		SenderID:      buyerID,
		SenderType:    model.SenderBuyer,
		Content:       content,
		Type:          model.MessageOffer,
		OfferAmount:   &amount,
		ReadByBuyer:   true,
	}
	update := &store.StatusUpdate{Status: status, LastOfferAmount: &amount}
	if err := s.store.AppendMessage(ctx, msg, update); err != nil {
		return nil, err
	}
	s.notify(n, msg)
	return msg, nil
}

// BuyerMessage appends buyer free text without changing state.
func (s *Service) BuyerMessage(ctx context.Context, negotiationID, buyerID, content string) (*model.Message, error) {
	if content == "" {
		return nil, model.NewValidationError("content", "required")
	}
	n, err := s.authorizeBuyer(ctx, negotiationID, buyerID)
	if err != nil {
		return nil, err
	}
	if n.Status.Terminal() {
		return nil, terminalErr()
	}
	msg := &model.Message{
		ID:            s.store.NewID("msg"),
		NegotiationID: negotiationID,
		SenderID:      buyerID,
		SenderType:    model.SenderBuyer,
		Content:       content,
		Type:          model.MessageChat,
		ReadByBuyer:   true,
	}
	if err := s.store.AppendMessage(ctx, msg, nil); err != nil {
		return nil, err
	}
	s.notify(n, msg)
	return msg, nil
}

// BuyerAccept accepts the seller's standing counter-offer.
func (s *Service) BuyerAccept(ctx context.Context, negotiationID, buyerID string) (*model.Negotiation, error) {
	n, err := s.authorizeBuyer(ctx, negotiationID, buyerID)
	if err != nil {
		return nil, err
	}
	status, err := nextForBuyerAccept(n.Status)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetStatus(ctx, negotiationID, store.StatusUpdate{Status: status}); err != nil {
		return nil, err
	}
	return s.store.GetNegotiation(ctx, negotiationID)
}

// SellerRespond applies a seller action. Counter appends a counter_offer
// message; Reject with a reason appends that reason as a final message; the
// message append and the status transition commit atomically.
func (s *Service) SellerRespond(ctx context.Context, negotiationID, sellerID string, action SellerAction) (*model.Negotiation, error) {
	n, err := s.authorizeSeller(ctx, negotiationID, sellerID)
	if err != nil {
		return nil, err
	}
	status, err := nextForSeller(n.Status, action)
	if err != nil {
		return nil, err
	}

	var msg *model.Message
	update := store.StatusUpdate{Status: status}
	switch a := action.(type) {
	case Counter:
		amount := a.Amount
		update.LastOfferAmount = &amount
		msg = &model.Message{
			ID:            s.store.NewID("msg"),
			NegotiationID: negotiationID,
			SenderID:      sellerID,
			SenderType:    model.SenderSeller,
			Content:       fmt.Sprintf("I can do $%.2f.", model.CentsToDollars(amount)),
			Type:          model.MessageCounterOffer,
			OfferAmount:   &amount,
			ReadBySeller:  true,
		}
	case Reject:
		if a.Reason != "" {
			msg = &model.Message{
				ID:            s.store.NewID("msg"),
				NegotiationID: negotiationID,
				SenderID:      sellerID,
				SenderType:    model.SenderSeller,
				Content:       a.Reason,
				Type:          model.MessageChat,
				ReadBySeller:  true,
			}
		}
	}

	if msg != nil {
		err = s.store.AppendMessage(ctx, msg, &update)
	} else {
		err = s.store.SetStatus(ctx, negotiationID, update)
	}
	if err != nil {
		return nil, err
	}
	if msg != nil {
		s.notify(n, msg)
	}
	return s.store.GetNegotiation(ctx, negotiationID)
}

// SellerMessage appends seller free text without changing state.
func (s *Service) SellerMessage(ctx context.Context, negotiationID, sellerID, content string) (*model.Message, error) {
	if content == "" {
		return nil, model.NewValidationError("content", "required")
	}
	n, err := s.authorizeSeller(ctx, negotiationID, sellerID)
	if err != nil {
		return nil, err
	}
	if n.Status.Terminal() {
		return nil, terminalErr()
	}
	msg := &model.Message{
		ID:            s.store.NewID("msg"),
		NegotiationID: negotiationID,
		SenderID:      sellerID,
		SenderType:    model.SenderSeller,
		Content:       content,
		Type:          model.MessageChat,
		ReadBySeller:  true,
	}
	if err := s.store.AppendMessage(ctx, msg, nil); err != nil {
		return nil, err
	}
	s.notify(n, msg)
	return msg, nil
}

// Get returns a negotiation and its full thread, enforcing that the caller
// is a party to it. A seller view marks the thread read.
func (s *Service) Get(ctx context.Context, negotiationID, userID string) (*model.Negotiation, []model.Message, error) {
	n, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, nil, err
	}
	if userID != n.BuyerID && userID != n.SellerID {
		return nil, nil, model.NewAuthorizationError("not a party to this negotiation")
	}
	if userID == n.SellerID {
		if err := s.store.MarkSellerRead(ctx, negotiationID); err != nil {
			s.logger.Warn("marking messages read failed",
				slog.String("negotiation_id", negotiationID), slog.String("error", err.Error()))
		}
	}
	msgs, err := s.store.ListMessages(ctx, negotiationID)
	if err != nil {
		return nil, nil, err
	}
	return n, msgs, nil
}

// BuyerList returns the buyer's non-archived negotiations.
func (s *Service) BuyerList(ctx context.Context, buyerID string) ([]model.Negotiation, error) {
	return s.store.ListBuyerNegotiations(ctx, buyerID)
}

// SellerList returns the seller's negotiations, optionally filtered by status.
func (s *Service) SellerList(ctx context.Context, sellerID string, status model.NegotiationStatus) ([]model.Negotiation, error) {
	if status != "" && !status.Valid() {
		return nil, model.NewValidationError("status", "unknown status value")
	}
	return s.store.ListSellerNegotiations(ctx, sellerID, status)
}

// Archive hides a negotiation from the buyer's list view.
func (s *Service) Archive(ctx context.Context, negotiationID, buyerID string) error {
	return s.store.Archive(ctx, negotiationID, buyerID)
}

// UnreadCount returns the seller's unread message count across all threads.
func (s *Service) UnreadCount(ctx context.Context, sellerID string) (int, error) {
	return s.store.UnreadSellerCount(ctx, sellerID)
}

func (s *Service) authorizeBuyer(ctx context.Context, negotiationID, buyerID string) (*model.Negotiation, error) {
	n, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if n.BuyerID != buyerID {
		return nil, model.NewAuthorizationError("negotiation belongs to a different buyer")
	}
	return n, nil
}

func (s *Service) authorizeSeller(ctx context.Context, negotiationID, sellerID string) (*model.Negotiation, error) {
	n, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if n.SellerID != sellerID {
		return nil, model.NewAuthorizationError("negotiation belongs to a different seller")
	}
	return n, nil
}

// notify fans the message out without blocking the request. Delivery failures
// are logged, never surfaced.
func (s *Service) notify(n *model.Negotiation, m *model.Message) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyMessage(ctx, n, m); err != nil {
			s.logger.Warn("webhook notification failed",
				slog.String("negotiation_id", n.ID),
				slog.String("message_id", m.ID),
				slog.String("error", err.Error()))
		}
	}()
}
