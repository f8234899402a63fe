package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/pkg/models"
)

func TestAPIErrorDetailExtraction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"detail": "listing already posted to ebay"})
	}))
	defer server.Close()

	core := NewCoreClient(server.URL, 100)
	_, err := core.PostListing(context.Background(), 1, models.PlatformEbay)
	require.Error(t, err)

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "listing already posted to ebay", apiErr.Message)
}

func TestAPIErrorFallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	core := NewCoreClient(server.URL, 100)
	_, err := core.ListListings(context.Background())
	require.Error(t, err)

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "request failed", apiErr.Message)
}

func TestRequestIDHeaderSet(t *testing.T) {
	var gotID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]models.Listing{})
	}))
	defer server.Close()

	core := NewCoreClient(server.URL, 100)
	_, err := core.ListListings(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, gotID)
}

func TestCreateListingValidationBlocksNetwork(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(models.Listing{})
	}))
	defer server.Close()

	core := NewCoreClient(server.URL, 100)
	_, err := core.CreateListing(context.Background(), ListingDraft{
		Title:       "Broken lamp",
		Description: "It is broken",
		Price:       -5,
		Condition:   "fair",
	})
	require.Error(t, err)
	assert.Equal(t, int64(0), requests.Load(), "invalid draft must never reach the network")
}

func TestCreateListingMinPriceAbovePriceRejected(t *testing.T) {
	minPrice := 60.0
	draft := ListingDraft{
		Title:       "Chair",
		Description: "Solid oak",
		Price:       50,
		Condition:   "good",
		MinPrice:    &minPrice,
	}
	assert.Error(t, draft.Validate())

	minPrice = 40.0
	assert.NoError(t, draft.Validate())
}

func TestCreateListingSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Desk", r.FormValue("title"))
		assert.Equal(t, "45.5", r.FormValue("price"))
		assert.Equal(t, "good", r.FormValue("condition"))

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 2)
		assert.Equal(t, "front.jpg", files[0].Filename)
		assert.Equal(t, "back.jpg", files[1].Filename)

		json.NewEncoder(w).Encode(models.Listing{ID: 10, Title: "Desk"})
	}))
	defer server.Close()

	core := NewCoreClient(server.URL, 100)
	listing, err := core.CreateListing(context.Background(), ListingDraft{
		Title:       "Desk",
		Description: "Standing desk",
		Price:       45.5,
		Condition:   "good",
		Images: []ImageFile{
			{Filename: "front.jpg", Content: strings.NewReader("img1")},
			{Filename: "back.jpg", Content: strings.NewReader("img2")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), listing.ID)
}

func TestUpdateListingSendsOnlySetFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/listings/3", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "99", r.FormValue("price"))
		_, hasTitle := r.MultipartForm.Value["title"]
		assert.False(t, hasTitle, "unset fields must not be sent")
		json.NewEncoder(w).Encode(models.Listing{ID: 3})
	}))
	defer server.Close()

	price := 99.0
	core := NewCoreClient(server.URL, 100)
	_, err := core.UpdateListing(context.Background(), 3, ListingPatch{Price: &price})
	require.NoError(t, err)
}

func TestListJobsQueryParams(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.PostingJob{})
	}))
	defer server.Close()

	core := NewCoreClient(server.URL, 100)
	_, err := core.ListJobs(context.Background(), JobFilter{Status: "failed", ListingID: 12})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "status=failed")
	assert.Contains(t, gotQuery, "listing_id=12")

	_, err = core.ListJobs(context.Background(), JobFilter{})
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestPostListingBatchPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/listings/5/post-batch", r.URL.Path)
		var payload struct {
			Platforms []models.Platform `json:"platforms"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []models.Platform{models.PlatformEbay, models.PlatformMercari}, payload.Platforms)
		json.NewEncoder(w).Encode([]models.PostingJob{{ID: 1}, {ID: 2}})
	}))
	defer server.Close()

	core := NewCoreClient(server.URL, 100)
	jobs, err := core.PostListingBatch(context.Background(), 5, []models.Platform{models.PlatformEbay, models.PlatformMercari})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestAddTrackingValidatesFirst(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(models.Transaction{})
	}))
	defer server.Close()

	messaging := NewMessagingClient(server.URL, 100)

	// Too short to be a tracking number.
	_, err := messaging.AddTracking(context.Background(), 1, TrackingForm{TrackingNumber: "abc"})
	require.Error(t, err)
	assert.Equal(t, int64(0), requests.Load())

	_, err = messaging.AddTracking(context.Background(), 1, TrackingForm{TrackingNumber: "1Z999AA10123456784"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests.Load())
}

func TestMessagingEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conversations":
			assert.Equal(t, "8", r.URL.Query().Get("listing_id"))
			json.NewEncoder(w).Encode([]models.Conversation{{ID: 1}})
		case "/payments/transactions":
			json.NewEncoder(w).Encode([]models.Transaction{{ID: 2}})
		case "/payments/checkout/4":
			assert.Equal(t, http.MethodPost, r.Method)
			json.NewEncoder(w).Encode(models.Checkout{TransactionID: 9, CheckoutURL: "https://pay.example/9"})
		case "/stats":
			json.NewEncoder(w).Encode(models.DashboardStats{TotalBuyers: 3})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	messaging := NewMessagingClient(server.URL, 100)
	ctx := context.Background()

	convos, err := messaging.ListConversations(ctx, ConversationFilter{ListingID: 8})
	require.NoError(t, err)
	assert.Len(t, convos, 1)

	txns, err := messaging.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	checkout, err := messaging.CreateCheckout(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(9), checkout.TransactionID)

	stats, err := messaging.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalBuyers)
}

func TestImageURL(t *testing.T) {
	core := NewCoreClient("http://localhost:8000/", 100)
	assert.Equal(t, "http://localhost:8000/uploads/photo.jpg",
		core.ImageURL("/srv/data/uploads/photo.jpg"))
	assert.Equal(t, "http://localhost:8000/uploads/photo.jpg",
		core.ImageURL("photo.jpg"))
}
