// Package model defines the negotiation domain records and the shared
// error taxonomy. All money amounts are int64 minor units (cents).
package model

import "time"

// NegotiationStatus is the negotiation state machine's state.
type NegotiationStatus string

const (
	// StatusPending is the initial state, and the state after any buyer offer.
	StatusPending NegotiationStatus = "pending"
	// StatusCountered means the seller's counter-offer is the latest word.
	StatusCountered NegotiationStatus = "countered"
	// StatusAccepted is terminal.
	StatusAccepted NegotiationStatus = "accepted"
	// StatusRejected is terminal.
	StatusRejected NegotiationStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s NegotiationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Valid reports whether s is a known status value.
func (s NegotiationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCountered, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// SenderType identifies which side of the negotiation authored a message.
type SenderType string

const (
	SenderBuyer  SenderType = "buyer"
	SenderSeller SenderType = "seller"
)

// MessageType classifies a message within a negotiation thread.
type MessageType string

const (
	// MessageChat is free text; it never changes negotiation state.
	MessageChat MessageType = "message"
	// MessageOffer is a buyer price proposal.
	MessageOffer MessageType = "offer"
	// MessageCounterOffer is a seller price proposal.
	MessageCounterOffer MessageType = "counter_offer"
)

// OfferBearing reports whether the message type carries an offer amount.
func (t MessageType) OfferBearing() bool {
	return t == MessageOffer || t == MessageCounterOffer
}

// Negotiation is one buyer/seller price-discussion thread tied to a product.
//
// LastOfferAmount always equals the offer amount of the most recent
// offer/counter_offer message in the thread; the store maintains this
// atomically with each append.
type Negotiation struct {
	ID              string            `json:"id"`
	ProductID       string            `json:"product_id"`
	BuyerID         string            `json:"buyer_id"`
	SellerID        string            `json:"seller_id"`
	ProductTitle    string            `json:"product_title"`
	ProductImage    string            `json:"product_image,omitempty"`
	Status          NegotiationStatus `json:"status"`
	LastOfferAmount int64             `json:"last_offer_amount"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	// Archived hides the thread from the buyer's list view only.
	// It never affects the seller view.
	Archived bool `json:"archived"`
}

// Message is one immutable entry in a negotiation thread (append-only log).
// OfferAmount is present iff Type is offer or counter_offer.
type Message struct {
	ID            string      `json:"id"`
	NegotiationID string      `json:"negotiation_id"`
	SenderID      string      `json:"sender_id"`
	SenderType    SenderType  `json:"sender_type"`
	Content       string      `json:"content"`
	Type          MessageType `json:"type"`
	OfferAmount   *int64      `json:"offer_amount,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	ReadBySeller  bool        `json:"read_by_seller"`
	ReadByBuyer   bool        `json:"read_by_buyer"`
}

// Listing is a simple catalog record. Listings are lifecycle-managed by the
// marketplace adapters and are not subject to the negotiation state machine.
type Listing struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	SellerID    string    `json:"seller_id"`
	Image       []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
