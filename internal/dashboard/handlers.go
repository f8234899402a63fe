package dashboard

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/crosspost/internal/analytics"
	"github.com/crosspost/internal/client"
	"github.com/crosspost/internal/status"
	"github.com/crosspost/pkg/models"
)

// resourceMeta is the per-resource cache state attached to every read
// response, so the UI can show stale/error badges without losing data.
type resourceMeta struct {
	Loaded  bool   `json:"loaded"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func metaOf(loaded, loading bool, err error) resourceMeta {
	m := resourceMeta{Loaded: loaded, Loading: loading}
	if err != nil {
		m.Error = err.Error()
	}
	return m
}

// overviewResponse is the one-call dashboard payload.
type overviewResponse struct {
	TotalEarnedCents   int64                    `json:"total_earned_cents"`
	PendingPayoutCents int64                    `json:"pending_payout_cents"`
	AverageSaleCents   int64                    `json:"average_sale_cents"`
	RevenueOverTime    []analytics.RevenuePoint `json:"revenue_over_time"`
	SalesVolume        []analytics.VolumePoint  `json:"sales_volume"`
	AveragePriceTrend  []analytics.TrendPoint   `json:"average_price_trend"`
	TabCounts          map[analytics.Tab]int    `json:"tab_counts"`
	ActiveListings     int                      `json:"active_listings"`
	SoldListings       int                      `json:"sold_listings"`
	JobCounts          map[string]int           `json:"job_counts"`
	Stats              *models.DashboardStats   `json:"stats,omitempty"`
	Resources          map[string]resourceMeta  `json:"resources"`
}

func (s *Server) getOverview(c echo.Context) error {
	listings := s.store.Listings()
	jobs := s.store.Jobs()
	txns := s.store.Transactions()
	stats := s.store.Stats()
	convos := s.store.Conversations()

	resp := overviewResponse{
		TotalEarnedCents:   analytics.TotalEarned(txns.Value),
		PendingPayoutCents: analytics.PendingPayout(txns.Value),
		AverageSaleCents:   analytics.AverageSalePrice(txns.Value),
		RevenueOverTime:    analytics.RevenueOverTime(txns.Value),
		SalesVolume:        analytics.SalesVolumeByDate(txns.Value),
		AveragePriceTrend:  analytics.AveragePriceTrend(txns.Value),
		TabCounts:          analytics.TabCounts(txns.Value),
		ActiveListings:     analytics.ActiveListingCount(listings.Value),
		SoldListings:       analytics.SoldListingCount(listings.Value),
		JobCounts:          analytics.JobCountsByStatus(jobs.Value),
		Stats:              stats.Value,
		Resources: map[string]resourceMeta{
			"listings":      metaOf(listings.Loaded, listings.Loading, listings.Err),
			"jobs":          metaOf(jobs.Loaded, jobs.Loading, jobs.Err),
			"transactions":  metaOf(txns.Loaded, txns.Loading, txns.Err),
			"conversations": metaOf(convos.Loaded, convos.Loading, convos.Err),
			"stats":         metaOf(stats.Loaded, stats.Loading, stats.Err),
		},
	}
	return c.JSON(http.StatusOK, resp)
}

// decorated wraps an entity with its status display metadata so views
// never interpret raw status strings themselves.
type decorated[T any] struct {
	Item    T              `json:"item"`
	Display status.Display `json:"display"`
}

type listResponse[T any] struct {
	Items []decorated[T] `json:"items"`
	Meta  resourceMeta   `json:"meta"`
}

func (s *Server) getListings(c echo.Context) error {
	st := s.store.Listings()
	items := make([]decorated[models.Listing], 0, len(st.Value))
	for _, l := range st.Value {
		items = append(items, decorated[models.Listing]{
			Item:    l,
			Display: status.For(status.KindListing, l.Status),
		})
	}
	return c.JSON(http.StatusOK, listResponse[models.Listing]{
		Items: items,
		Meta:  metaOf(st.Loaded, st.Loading, st.Err),
	})
}

type jobView struct {
	decorated[models.PostingJob]
	CanRetry bool `json:"can_retry"`
}

func (s *Server) getJobs(c echo.Context) error {
	st := s.store.Jobs()
	items := make([]jobView, 0, len(st.Value))
	for _, j := range st.Value {
		items = append(items, jobView{
			decorated: decorated[models.PostingJob]{
				Item:    j,
				Display: status.For(status.KindJob, j.Status),
			},
			CanRetry: status.CanRetry(j),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"meta":  metaOf(st.Loaded, st.Loading, st.Err),
	})
}

type transactionView struct {
	decorated[models.Transaction]
	StageIndex  int    `json:"stage_index"`
	Refunded    bool   `json:"refunded"`
	CanTrack    bool   `json:"can_track"`
	AmountLabel string `json:"amount_label"`
}

func (s *Server) getTransactions(c echo.Context) error {
	st := s.store.Transactions()
	tab := analytics.Tab(c.QueryParam("tab"))
	if tab == "" {
		tab = analytics.TabAll
	}
	if !validTab(tab) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown tab"})
	}

	filtered := analytics.FilterByTab(tab, st.Value)
	items := make([]transactionView, 0, len(filtered))
	for _, t := range filtered {
		idx, refunded := status.StageIndex(t.Status)
		items = append(items, transactionView{
			decorated: decorated[models.Transaction]{
				Item:    t,
				Display: status.For(status.KindTransaction, t.Status),
			},
			StageIndex:  idx,
			Refunded:    refunded,
			CanTrack:    status.CanAttachTracking(t),
			AmountLabel: models.FormatCents(t.AmountCents),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tab":        tab,
		"tab_counts": analytics.TabCounts(st.Value),
		"items":      items,
		"meta":       metaOf(st.Loaded, st.Loading, st.Err),
	})
}

func validTab(tab analytics.Tab) bool {
	for _, known := range analytics.Tabs() {
		if tab == known {
			return true
		}
	}
	return false
}

func (s *Server) getConversations(c echo.Context) error {
	st := s.store.Conversations()
	items := make([]decorated[models.Conversation], 0, len(st.Value))
	for _, convo := range st.Value {
		items = append(items, decorated[models.Conversation]{
			Item:    convo,
			Display: status.For(status.KindConversation, convo.Status),
		})
	}
	return c.JSON(http.StatusOK, listResponse[models.Conversation]{
		Items: items,
		Meta:  metaOf(st.Loaded, st.Loading, st.Err),
	})
}

func (s *Server) getJobLogs(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	job, err := s.store.JobLogs(c.Request().Context(), id)
	if err != nil {
		return actionError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) getConversation(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.store.Conversation(c.Request().Context(), id)
	if err != nil {
		return actionError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Actions. Validation failures and upstream rejections surface to the
// caller; each success kicks the affected resources.

func (s *Server) createListing(c echo.Context) error {
	draft, err := draftFromForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	listing, err := s.core.CreateListing(c.Request().Context(), draft)
	if err != nil {
		return actionError(c, err)
	}
	s.store.RefreshListings()
	return c.JSON(http.StatusCreated, listing)
}

func (s *Server) deleteListing(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := s.core.DeleteListing(c.Request().Context(), id); err != nil {
		return actionError(c, err)
	}
	s.store.RefreshListings()
	s.store.RefreshJobs()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) postListing(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Platform models.Platform `json:"platform"`
	}
	if err := c.Bind(&body); err != nil || body.Platform == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "platform is required"})
	}
	job, err := s.core.PostListing(c.Request().Context(), id, body.Platform)
	if err != nil {
		return actionError(c, err)
	}
	// Posting affects both the listing and its jobs; resync each
	// explicitly rather than relying on any shared cache.
	s.store.RefreshListings()
	s.store.RefreshJobs()
	return c.JSON(http.StatusCreated, job)
}

func (s *Server) postListingBatch(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Platforms []models.Platform `json:"platforms"`
	}
	if err := c.Bind(&body); err != nil || len(body.Platforms) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "platforms are required"})
	}
	jobs, err := s.core.PostListingBatch(c.Request().Context(), id, body.Platforms)
	if err != nil {
		return actionError(c, err)
	}
	s.store.RefreshListings()
	s.store.RefreshJobs()
	return c.JSON(http.StatusCreated, jobs)
}

func (s *Server) retryJob(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	// The retry gate runs here, before any network call: only a failed
	// job with retries left may go back to pending.
	var candidate *models.PostingJob
	for _, j := range s.store.Jobs().Value {
		if j.ID == id {
			job := j
			candidate = &job
			break
		}
	}
	if candidate == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown job"})
	}
	if !status.CanRetry(*candidate) {
		return c.JSON(http.StatusConflict, map[string]string{
			"error": "job is not retryable",
		})
	}

	job, err := s.core.RetryJob(c.Request().Context(), id)
	if err != nil {
		return actionError(c, err)
	}
	s.store.RefreshJobs()
	s.store.InvalidateJobLogs(id)
	return c.JSON(http.StatusOK, job)
}

func (s *Server) addTracking(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		TrackingNumber string `json:"tracking_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}

	// Tracking may only attach while the payment sits in escrow. Like
	// the retry gate, this runs against the cache before any network
	// call, so an unknown id is rejected rather than forwarded.
	var candidate *models.Transaction
	for _, t := range s.store.Transactions().Value {
		if t.ID == id {
			txn := t
			candidate = &txn
			break
		}
	}
	if candidate == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown transaction"})
	}
	if !status.CanAttachTracking(*candidate) {
		return c.JSON(http.StatusConflict, map[string]string{
			"error": "tracking can only be added while payment is held",
		})
	}

	txn, err := s.messaging.AddTracking(c.Request().Context(), id, client.TrackingForm{TrackingNumber: body.TrackingNumber})
	if err != nil {
		return actionError(c, err)
	}
	s.store.RefreshTransactions()
	return c.JSON(http.StatusOK, txn)
}

func (s *Server) createCheckout(c echo.Context) error {
	id, err := paramID(c, "conversation_id")
	if err != nil {
		return err
	}
	checkout, err := s.messaging.CreateCheckout(c.Request().Context(), id)
	if err != nil {
		return actionError(c, err)
	}
	s.store.RefreshTransactions()
	s.store.RefreshConversations()
	return c.JSON(http.StatusCreated, checkout)
}

// draftFromForm maps a multipart submission onto a ListingDraft. The
// draft's own Validate runs inside CreateListing.
func draftFromForm(c echo.Context) (client.ListingDraft, error) {
	draft := client.ListingDraft{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Condition:   c.FormValue("condition"),
		Location:    c.FormValue("location"),
		SellerNotes: c.FormValue("seller_notes"),
	}
	if raw := c.FormValue("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return draft, err
		}
		draft.Price = price
	}
	if raw := c.FormValue("min_price"); raw != "" {
		minPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return draft, err
		}
		draft.MinPrice = &minPrice
	}

	form, err := c.MultipartForm()
	if err != nil {
		// A plain form post without files is fine.
		return draft, nil
	}
	for _, header := range form.File["images"] {
		f, err := header.Open()
		if err != nil {
			return draft, err
		}
		draft.Images = append(draft.Images, client.ImageFile{Filename: header.Filename, Content: f})
	}
	return draft, nil
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// actionError renders an upstream failure: typed API errors keep their
// status code, transport failures read as a bad gateway.
func actionError(c echo.Context, err error) error {
	if apiErr, ok := client.IsAPIError(err); ok {
		return c.JSON(apiErr.StatusCode, map[string]string{"error": apiErr.Message})
	}
	return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
}
