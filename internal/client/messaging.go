package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/crosspost/pkg/models"
)

// MessagingClient talks to the messaging service: conversations,
// payments, and dashboard stats.
type MessagingClient struct {
	http *httpClient
}

// NewMessagingClient creates a client for the messaging service at
// baseURL.
func NewMessagingClient(baseURL string, rps float64) *MessagingClient {
	return &MessagingClient{http: newHTTPClient(baseURL, rps)}
}

// ConversationFilter narrows ListConversations. Zero values mean no
// filter.
type ConversationFilter struct {
	ListingID int64
	Status    string
}

// ListConversations fetches negotiation threads, optionally filtered.
func (c *MessagingClient) ListConversations(ctx context.Context, filter ConversationFilter) ([]models.Conversation, error) {
	params := url.Values{}
	if filter.ListingID != 0 {
		params.Set("listing_id", strconv.FormatInt(filter.ListingID, 10))
	}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	endpoint := "/conversations"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var convos []models.Conversation
	if err := c.http.getJSON(ctx, endpoint, &convos); err != nil {
		return nil, err
	}
	return convos, nil
}

// GetConversation fetches one conversation with buyer and full message
// history.
func (c *MessagingClient) GetConversation(ctx context.Context, id int64) (*models.ConversationDetail, error) {
	var detail models.ConversationDetail
	if err := c.http.getJSON(ctx, fmt.Sprintf("/conversations/%d", id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListTransactions fetches all escrow transactions.
func (c *MessagingClient) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := c.http.getJSON(ctx, "/payments/transactions", &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// GetTransaction fetches one transaction.
func (c *MessagingClient) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	if err := c.http.getJSON(ctx, fmt.Sprintf("/payments/transactions/%d", id), &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// AddTracking attaches a tracking number to a payment_held transaction.
// The form is validated locally first; the status itself is unchanged
// by this call.
func (c *MessagingClient) AddTracking(ctx context.Context, id int64, form TrackingForm) (*models.Transaction, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	payload := map[string]string{"tracking_number": form.TrackingNumber}
	var txn models.Transaction
	if err := c.http.postJSON(ctx, fmt.Sprintf("/payments/transactions/%d/tracking", id), payload, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// CreateCheckout starts the escrow payment flow for an agreed
// conversation.
func (c *MessagingClient) CreateCheckout(ctx context.Context, conversationID int64) (*models.Checkout, error) {
	var checkout models.Checkout
	if err := c.http.postJSON(ctx, fmt.Sprintf("/payments/checkout/%d", conversationID), nil, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

// GetStats fetches the aggregate dashboard counts.
func (c *MessagingClient) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.http.getJSON(ctx, "/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
