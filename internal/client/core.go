package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path"
	"strconv"

	"github.com/crosspost/pkg/models"
)

// CoreClient talks to the core service: listings, posting jobs, and
// uploaded images.
type CoreClient struct {
	http *httpClient
}

// NewCoreClient creates a client for the core service at baseURL.
func NewCoreClient(baseURL string, rps float64) *CoreClient {
	return &CoreClient{http: newHTTPClient(baseURL, rps)}
}

// ListListings fetches all of the seller's listings.
func (c *CoreClient) ListListings(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	if err := c.http.getJSON(ctx, "/api/listings", &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing fetches one listing by id.
func (c *CoreClient) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	var listing models.Listing
	if err := c.http.getJSON(ctx, fmt.Sprintf("/api/listings/%d", id), &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// CreateListing validates the draft and submits it as a multipart form:
// text fields plus the ordered image files.
func (c *CoreClient) CreateListing(ctx context.Context, draft ListingDraft) (*models.Listing, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"title":       draft.Title,
		"description": draft.Description,
		"price":       strconv.FormatFloat(draft.Price, 'f', -1, 64),
		"condition":   draft.Condition,
	}
	if draft.Location != "" {
		fields["location"] = draft.Location
	}
	if draft.MinPrice != nil {
		fields["min_price"] = strconv.FormatFloat(*draft.MinPrice, 'f', -1, 64)
	}
	if draft.SellerNotes != "" {
		fields["seller_notes"] = draft.SellerNotes
	}

	body, contentType, err := encodeMultipart(fields, draft.Images)
	if err != nil {
		return nil, err
	}

	var listing models.Listing
	if err := c.http.do(ctx, "POST", "/api/listings", body, contentType, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// UpdateListing validates the patch and submits only the set fields,
// again as multipart.
func (c *CoreClient) UpdateListing(ctx context.Context, id int64, patch ListingPatch) (*models.Listing, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Price != nil {
		fields["price"] = strconv.FormatFloat(*patch.Price, 'f', -1, 64)
	}
	if patch.Condition != nil {
		fields["condition"] = *patch.Condition
	}
	if patch.Location != nil {
		fields["location"] = *patch.Location
	}
	if patch.MinPrice != nil {
		fields["min_price"] = strconv.FormatFloat(*patch.MinPrice, 'f', -1, 64)
	}
	if patch.SellerNotes != nil {
		fields["seller_notes"] = *patch.SellerNotes
	}

	body, contentType, err := encodeMultipart(fields, patch.Images)
	if err != nil {
		return nil, err
	}

	var listing models.Listing
	if err := c.http.do(ctx, "PUT", fmt.Sprintf("/api/listings/%d", id), body, contentType, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// DeleteListing removes a listing.
func (c *CoreClient) DeleteListing(ctx context.Context, id int64) error {
	return c.http.delete(ctx, fmt.Sprintf("/api/listings/%d", id), nil)
}

// PostListing queues one posting job for a listing on one platform.
func (c *CoreClient) PostListing(ctx context.Context, id int64, platform models.Platform) (*models.PostingJob, error) {
	payload := map[string]models.Platform{"platform": platform}
	var job models.PostingJob
	if err := c.http.postJSON(ctx, fmt.Sprintf("/api/listings/%d/post", id), payload, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// PostListingBatch queues posting jobs for several platforms at once.
func (c *CoreClient) PostListingBatch(ctx context.Context, id int64, platforms []models.Platform) ([]models.PostingJob, error) {
	payload := map[string][]models.Platform{"platforms": platforms}
	var jobs []models.PostingJob
	if err := c.http.postJSON(ctx, fmt.Sprintf("/api/listings/%d/post-batch", id), payload, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// JobFilter narrows ListJobs. Zero values mean no filter.
type JobFilter struct {
	Status    string
	ListingID int64
}

// ListJobs fetches posting jobs, optionally filtered by status and
// listing.
func (c *CoreClient) ListJobs(ctx context.Context, filter JobFilter) ([]models.PostingJob, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.ListingID != 0 {
		params.Set("listing_id", strconv.FormatInt(filter.ListingID, 10))
	}
	endpoint := "/api/jobs"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var jobs []models.PostingJob
	if err := c.http.getJSON(ctx, endpoint, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob fetches one posting job.
func (c *CoreClient) GetJob(ctx context.Context, id int64) (*models.PostingJob, error) {
	var job models.PostingJob
	if err := c.http.getJSON(ctx, fmt.Sprintf("/api/jobs/%d", id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// RetryJob asks the automation to retry a failed job. Callers must gate
// this with status.CanRetry first; the client itself never retries
// anything automatically.
func (c *CoreClient) RetryJob(ctx context.Context, id int64) (*models.PostingJob, error) {
	var job models.PostingJob
	if err := c.http.postJSON(ctx, fmt.Sprintf("/api/jobs/%d/retry", id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobLogs fetches one job with its log entries attached.
func (c *CoreClient) GetJobLogs(ctx context.Context, id int64) (*models.PostingJob, error) {
	var job models.PostingJob
	if err := c.http.getJSON(ctx, fmt.Sprintf("/api/jobs/%d/logs", id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ImageURL derives the public URL for a stored image from its filepath:
// only the last path segment matters to the uploads route.
func (c *CoreClient) ImageURL(filepath string) string {
	return c.http.baseURL + "/uploads/" + path.Base(filepath)
}

// encodeMultipart builds a multipart body from text fields plus the
// ordered image parts.
func encodeMultipart(fields map[string]string, images []ImageFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// Fixed order keeps request bodies reproducible in tests.
	for _, key := range []string{"title", "description", "price", "condition", "location", "min_price", "seller_notes"} {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	for _, img := range images {
		part, err := writer.CreateFormFile("images", img.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy image %s: %w", img.Filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
