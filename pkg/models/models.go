package models

import (
	"fmt"
	"strings"
	"time"
)

// Listing lifecycle and posting models

// Condition is the seller-declared condition of a listing.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

// Platform is an external marketplace a listing can be posted to.
type Platform string

const (
	PlatformFacebookMarketplace Platform = "facebook_marketplace"
	PlatformEbay                Platform = "ebay"
	PlatformCraigslist          Platform = "craigslist"
	PlatformMercari             Platform = "mercari"
)

// AllPlatforms lists the supported posting targets in display order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformFacebookMarketplace,
		PlatformEbay,
		PlatformCraigslist,
		PlatformMercari,
	}
}

// ListingImage is one image attached to a listing, ordered by Position.
type ListingImage struct {
	ID        int64     `json:"id"`
	ListingID int64     `json:"listing_id"`
	Filename  string    `json:"filename"`
	Filepath  string    `json:"filepath"`
	Position  int       `json:"position"`
	CreatedAt Timestamp `json:"created_at"`
}

// Listing is a seller's item for sale. Price and MinPrice are dollar
// amounts as the core service serializes them; they are never summed
// client-side (all aggregation runs over Transaction.AmountCents).
type Listing struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	MinPrice    *float64       `json:"min_price,omitempty"`
	Condition   Condition      `json:"condition,omitempty"`
	Location    *string        `json:"location,omitempty"`
	SellerNotes *string        `json:"seller_notes,omitempty"`
	Status      string         `json:"status,omitempty"`
	Images      []ListingImage `json:"images"`
	CreatedAt   Timestamp      `json:"created_at"`
	UpdatedAt   Timestamp      `json:"updated_at"`
}

// JobLog is one log line attached to a posting job.
type JobLog struct {
	ID             int64     `json:"id"`
	JobID          int64     `json:"job_id"`
	Level          string    `json:"level"`
	Message        string    `json:"message"`
	ScreenshotPath *string   `json:"screenshot_path,omitempty"`
	CreatedAt      Timestamp `json:"created_at"`
}

// PostingJob is one attempt to publish a listing to one platform. Status
// transitions are driven by the external automation; the console only
// observes them and may request a retry while the job is failed.
type PostingJob struct {
	ID           int64      `json:"id"`
	ListingID    int64      `json:"listing_id"`
	Platform     Platform   `json:"platform"`
	Status       string     `json:"status"`
	ExternalID   *string    `json:"external_id,omitempty"`
	ExternalURL  *string    `json:"external_url,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	RetryCount   int        `json:"retry_count"`
	ScheduledAt  Timestamp  `json:"scheduled_at"`
	StartedAt    *Timestamp `json:"started_at,omitempty"`
	CompletedAt  *Timestamp `json:"completed_at,omitempty"`
	Logs         []JobLog   `json:"logs,omitempty"`
}

// Conversation and payment models

// Buyer is the counterparty of a conversation.
type Buyer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"fb_name"`
	ProfileURL *string   `json:"fb_profile_url,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
}

// Message is one message in a conversation thread.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	SentAt         Timestamp `json:"sent_at"`
	Delivered      bool      `json:"delivered"`
}

// Conversation is a negotiation thread between one buyer and the seller
// over one listing. Offer amounts are integer cents. Once AgreedPrice is
// set it is final for display; CurrentOffer is ignored from then on.
type Conversation struct {
	ID            int64      `json:"id"`
	BuyerID       int64      `json:"buyer_id"`
	ListingID     *int64     `json:"listing_id,omitempty"`
	ThreadID      *string    `json:"fb_thread_id,omitempty"`
	Status        string     `json:"status"`
	CurrentOffer  *int64     `json:"current_offer,omitempty"`
	AgreedPrice   *int64     `json:"agreed_price,omitempty"`
	LastMessageAt *Timestamp `json:"last_message_at,omitempty"`
	CreatedAt     Timestamp  `json:"created_at"`
}

// ListingSummary is the trimmed listing embedded in conversation detail.
type ListingSummary struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Price    float64  `json:"price"`
	MinPrice *float64 `json:"min_price,omitempty"`
	Status   string   `json:"status"`
}

// ConversationDetail is a conversation with its buyer and full message
// history, as returned by GET /conversations/{id}.
type ConversationDetail struct {
	Conversation
	Buyer    Buyer           `json:"buyer"`
	Messages []Message       `json:"messages"`
	Listing  *ListingSummary `json:"listing,omitempty"`
}

// Transaction is an escrow-backed payment tied to exactly one conversation
// and one listing. AmountCents is integer cents; conversion to dollars
// happens only at the rendering edge.
type Transaction struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	ListingID      int64      `json:"listing_id"`
	BuyerID        int64      `json:"buyer_id"`
	AmountCents    int64      `json:"amount_cents"`
	CheckoutURL    *string    `json:"checkout_url,omitempty"`
	TrackingNumber *string    `json:"tracking_number,omitempty"`
	Status         string     `json:"status"`
	PaidAt         *Timestamp `json:"paid_at,omitempty"`
	ShippedAt      *Timestamp `json:"shipped_at,omitempty"`
	DeliveredAt    *Timestamp `json:"delivered_at,omitempty"`
	PaidOutAt      *Timestamp `json:"paid_out_at,omitempty"`
	RefundedAt     *Timestamp `json:"refunded_at,omitempty"`
	CreatedAt      Timestamp  `json:"created_at"`
	UpdatedAt      Timestamp  `json:"updated_at"`
}

// Checkout is the response to creating a checkout for a conversation.
type Checkout struct {
	CheckoutURL   string `json:"checkout_url"`
	TransactionID int64  `json:"transaction_id"`
}

// DashboardStats are the aggregate counts served by GET /stats.
type DashboardStats struct {
	TotalConversations  int64 `json:"total_conversations"`
	ActiveConversations int64 `json:"active_conversations"`
	SoldConversations   int64 `json:"sold_conversations"`
	TotalMessages       int64 `json:"total_messages"`
	TotalBuyers         int64 `json:"total_buyers"`
}

// FormatCents renders integer cents as a dollar string for display.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// Timestamp wraps time.Time to tolerate the two formats the services
// emit: RFC 3339 and naive ISO 8601 without a timezone offset.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON parses a timestamp, treating offset-less values as UTC.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("invalid timestamp %q: %w", s, lastErr)
}

// MarshalJSON always emits RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.Time.UTC().Format(time.RFC3339) + `"`), nil
}

// At builds a Timestamp from a time.Time. Mostly used in tests and the
// dashboard's rendering helpers.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}
