package handler

import (
	"encoding/base64"
	"time"

	"tetsy-hub/internal/model"
)

// Wire representations. The frontend and the agent clients exchange
// amounts as decimal dollars.

type negotiationWire struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	BuyerID         string  `json:"buyer_id"`
	SellerID        string  `json:"seller_id"`
	ProductTitle    string  `json:"product_title,omitempty"`
	ProductImage    string  `json:"product_image,omitempty"`
	Status          string  `json:"status"`
	LastOfferAmount float64 `json:"last_offer_amount"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type messageWire struct {
	ID            string   `json:"id"`
	NegotiationID string   `json:"negotiation_id"`
	SenderID      string   `json:"sender_id"`
	SenderType    string   `json:"sender_type"`
	Content       string   `json:"content"`
	Type          string   `json:"type"`
	OfferAmount   *float64 `json:"offer_amount,omitempty"`
	Timestamp     string   `json:"timestamp"`
}

type listingWire struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	SellerID    string  `json:"seller_id"`
	Image       string  `json:"image,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toNegotiationWire(n *model.Negotiation) negotiationWire {
	return negotiationWire{
		ID:              n.ID,
		ProductID:       n.ProductID,
		BuyerID:         n.BuyerID,
		SellerID:        n.SellerID,
		ProductTitle:    n.ProductTitle,
		ProductImage:    n.ProductImage,
		Status:          string(n.Status),
		LastOfferAmount: model.CentsToDollars(n.LastOfferAmount),
		CreatedAt:       n.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       n.UpdatedAt.Format(time.RFC3339),
	}
}

func toNegotiationWires(ns []model.Negotiation) []negotiationWire {
	out := make([]negotiationWire, len(ns))
	for i := range ns {
		out[i] = toNegotiationWire(&ns[i])
	}
	return out
}

func toMessageWire(m *model.Message) messageWire {
	w := messageWire{
		ID:            m.ID,
		NegotiationID: m.NegotiationID,
		SenderID:      m.SenderID,
		SenderType:    string(m.SenderType),
		Content:       m.Content,
		Type:          string(m.Type),
		Timestamp:     m.Timestamp.Format(time.RFC3339),
	}
	if m.OfferAmount != nil {
		dollars := model.CentsToDollars(*m.OfferAmount)
		w.OfferAmount = &dollars
	}
	return w
}

func toMessageWires(ms []model.Message) []messageWire {
	out := make([]messageWire, len(ms))
	for i := range ms {
		out[i] = toMessageWire(&ms[i])
	}
	return out
}

func toListingWire(l *model.Listing, withImage bool) listingWire {
	w := listingWire{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Price:       model.CentsToDollars(l.Price),
		SellerID:    l.SellerID,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
	if withImage && len(l.Image) > 0 {
		w.Image = base64.StdEncoding.EncodeToString(l.Image)
	}
	return w
}
