// Package dashboard is the console's view boundary: a thin local echo
// server rendering cached remote state as JSON and forwarding user
// actions to the remote services. No business rule lives here; status
// and analytics packages supply every derived value.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/crosspost/internal/client"
	"github.com/crosspost/internal/sync"
	"github.com/crosspost/pkg/models"
)

// CoreActions are the core-service calls user actions can trigger.
type CoreActions interface {
	CreateListing(ctx context.Context, draft client.ListingDraft) (*models.Listing, error)
	DeleteListing(ctx context.Context, id int64) error
	PostListing(ctx context.Context, id int64, platform models.Platform) (*models.PostingJob, error)
	PostListingBatch(ctx context.Context, id int64, platforms []models.Platform) ([]models.PostingJob, error)
	RetryJob(ctx context.Context, id int64) (*models.PostingJob, error)
}

// MessagingActions are the messaging-service calls user actions can
// trigger.
type MessagingActions interface {
	AddTracking(ctx context.Context, id int64, form client.TrackingForm) (*models.Transaction, error)
	CreateCheckout(ctx context.Context, conversationID int64) (*models.Checkout, error)
}

// Server serves the local dashboard.
type Server struct {
	echo      *echo.Echo
	port      int
	store     *sync.Store
	core      CoreActions
	messaging MessagingActions
}

// NewServer creates the dashboard server over a running store.
func NewServer(port int, store *sync.Store, core CoreActions, messaging MessagingActions) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:      e,
		port:      port,
		store:     store,
		core:      core,
		messaging: messaging,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all view endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	api := s.echo.Group("/api")

	// Read endpoints backed by the polling caches
	api.GET("/overview", s.getOverview)
	api.GET("/listings", s.getListings)
	api.GET("/jobs", s.getJobs)
	api.GET("/transactions", s.getTransactions)
	api.GET("/conversations", s.getConversations)

	// Lazy per-entity detail
	api.GET("/jobs/:id/logs", s.getJobLogs)
	api.GET("/conversations/:id", s.getConversation)

	// User actions; each forces a resync of the affected resources
	api.POST("/listings", s.createListing)
	api.DELETE("/listings/:id", s.deleteListing)
	api.POST("/listings/:id/post", s.postListing)
	api.POST("/listings/:id/post-batch", s.postListingBatch)
	api.POST("/jobs/:id/retry", s.retryJob)
	api.POST("/transactions/:id/tracking", s.addTracking)
	api.POST("/checkout/:conversation_id", s.createCheckout)
}

// Start begins the dashboard server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
