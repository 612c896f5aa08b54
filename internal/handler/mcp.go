// MCP transport handler using the official MCP Go SDK. Exposes the
// negotiation operations as MCP tools so LLM agents can drive them
// without the REST surface.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"tetsy-hub/internal/model"
	"tetsy-hub/internal/negotiation"
)

// === MCP Tool Input/Output Types ===

// StartNegotiationInput is the input schema for start_negotiation.
type StartNegotiationInput struct {
	ProductID    string  `json:"product_id" jsonschema:"listing ID,required"`
	BuyerID      string  `json:"buyer_id" jsonschema:"buyer user ID,required"`
	SellerID     string  `json:"seller_id" jsonschema:"seller user ID,required"`
	ProductTitle string  `json:"product_title,omitempty" jsonschema:"listing title shown in the thread"`
	OfferAmount  float64 `json:"offer_amount" jsonschema:"initial offer in dollars,required"`
	Content      string  `json:"content,omitempty" jsonschema:"custom opening message"`
}

// GetNegotiationInput is the input schema for get_negotiation.
type GetNegotiationInput struct {
	ID     string `json:"id" jsonschema:"negotiation ID,required"`
	UserID string `json:"user_id" jsonschema:"caller's user ID (buyer or seller),required"`
}

// SendMessageInput is the input schema for send_message. A present
// offer_amount makes the message a new buyer offer.
type SendMessageInput struct {
	ID          string   `json:"id" jsonschema:"negotiation ID,required"`
	BuyerID     string   `json:"buyer_id" jsonschema:"buyer user ID,required"`
	Content     string   `json:"content,omitempty" jsonschema:"message text"`
	OfferAmount *float64 `json:"offer_amount,omitempty" jsonschema:"new offer in dollars"`
}

// RespondToOfferInput is the input schema for respond_to_offer.
type RespondToOfferInput struct {
	ID            string   `json:"id" jsonschema:"negotiation ID,required"`
	SellerID      string   `json:"seller_id" jsonschema:"seller user ID,required"`
	Action        string   `json:"action" jsonschema:"accept, reject, or counter,required"`
	CounterAmount *float64 `json:"counter_amount,omitempty" jsonschema:"counter price in dollars (counter only)"`
	Reason        string   `json:"reason,omitempty" jsonschema:"rejection reason relayed to the buyer"`
}

// AcceptCounterInput is the input schema for accept_counter.
type AcceptCounterInput struct {
	ID      string `json:"id" jsonschema:"negotiation ID,required"`
	BuyerID string `json:"buyer_id" jsonschema:"buyer user ID,required"`
}

// CreateListingInput is the input schema for create_listing.
type CreateListingInput struct {
	Name        string  `json:"name" jsonschema:"listing title,required"`
	Description string  `json:"description,omitempty" jsonschema:"listing description"`
	Price       float64 `json:"price" jsonschema:"asking price in dollars,required"`
	SellerID    string  `json:"seller_id" jsonschema:"seller user ID,required"`
}

// NegotiationOutput wraps a negotiation and optionally its thread.
type NegotiationOutput struct {
	Negotiation negotiationWire `json:"negotiation"`
	Messages    []messageWire   `json:"messages,omitempty"`
}

// MessageOutput wraps an appended message.
type MessageOutput struct {
	Message messageWire `json:"message"`
}

// NewMCPServer creates an MCP server with negotiation tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "tetsy-hub",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Tetsy negotiation backend. Use these tools to create listings, " +
				"open price negotiations, exchange offers, and respond as the seller.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_listing",
		Description: "Create a catalog listing with an asking price in dollars.",
	}, h.mcpCreateListing)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_negotiation",
		Description: "Open a price negotiation on a listing with an initial buyer offer.",
	}, h.mcpStartNegotiation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_negotiation",
		Description: "Get a negotiation and its full message thread.",
	}, h.mcpGetNegotiation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send a buyer message. Include offer_amount to make it a new offer.",
	}, h.mcpSendMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "respond_to_offer",
		Description: "Respond to the buyer as the seller: accept, reject, or counter.",
	}, h.mcpRespondToOffer)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "accept_counter",
		Description: "Accept the seller's standing counter-offer as the buyer.",
	}, h.mcpAcceptCounter)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpCreateListing(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateListingInput,
) (*mcp.CallToolResult, *listingWire, error) {
	if input.Name == "" || input.SellerID == "" || input.Price <= 0 {
		return nil, nil, fmt.Errorf("name, seller_id, and a positive price are required")
	}
	l := &model.Listing{
		ID:          h.store.NewID("lst"),
		Name:        input.Name,
		Description: input.Description,
		Price:       model.DollarsToCents(input.Price),
		SellerID:    input.SellerID,
	}
	if err := h.store.CreateListing(ctx, l); err != nil {
		return nil, nil, h.mcpError(err)
	}
	wire := toListingWire(l, false)
	return nil, &wire, nil
}

func (h *Handler) mcpStartNegotiation(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input StartNegotiationInput,
) (*mcp.CallToolResult, *NegotiationOutput, error) {
	n, err := h.service.Start(ctx, negotiation.StartRequest{
		ProductID:    input.ProductID,
		BuyerID:      input.BuyerID,
		SellerID:     input.SellerID,
		ProductTitle: input.ProductTitle,
		OfferAmount:  model.DollarsToCents(input.OfferAmount),
		Content:      input.Content,
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &NegotiationOutput{Negotiation: toNegotiationWire(n)}, nil
}

func (h *Handler) mcpGetNegotiation(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetNegotiationInput,
) (*mcp.CallToolResult, *NegotiationOutput, error) {
	if input.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	n, msgs, err := h.service.Get(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &NegotiationOutput{
		Negotiation: toNegotiationWire(n),
		Messages:    toMessageWires(msgs),
	}, nil
}

func (h *Handler) mcpSendMessage(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SendMessageInput,
) (*mcp.CallToolResult, *MessageOutput, error) {
	if input.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	var msg *model.Message
	var err error
	if input.OfferAmount != nil {
		msg, err = h.service.BuyerOffer(ctx, input.ID, input.BuyerID,
			model.DollarsToCents(*input.OfferAmount), input.Content)
	} else {
		msg, err = h.service.BuyerMessage(ctx, input.ID, input.BuyerID, input.Content)
	}
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &MessageOutput{Message: toMessageWire(msg)}, nil
}

func (h *Handler) mcpRespondToOffer(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RespondToOfferInput,
) (*mcp.CallToolResult, *NegotiationOutput, error) {
	if input.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	var counterCents *int64
	if input.CounterAmount != nil {
		cents := model.DollarsToCents(*input.CounterAmount)
		counterCents = &cents
	}
	action, err := negotiation.ParseSellerAction(input.Action, counterCents, input.Reason)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	n, err := h.service.SellerRespond(ctx, input.ID, input.SellerID, action)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &NegotiationOutput{Negotiation: toNegotiationWire(n)}, nil
}

func (h *Handler) mcpAcceptCounter(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AcceptCounterInput,
) (*mcp.CallToolResult, *NegotiationOutput, error) {
	if input.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	n, err := h.service.BuyerAccept(ctx, input.ID, input.BuyerID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &NegotiationOutput{Negotiation: toNegotiationWire(n)}, nil
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
