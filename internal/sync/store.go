package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/crosspost/internal/client"
	"github.com/crosspost/pkg/models"
)

// CoreSource is the slice of the core service the store depends on.
type CoreSource interface {
	ListListings(ctx context.Context) ([]models.Listing, error)
	ListJobs(ctx context.Context, filter client.JobFilter) ([]models.PostingJob, error)
	GetJobLogs(ctx context.Context, id int64) (*models.PostingJob, error)
}

// MessagingSource is the slice of the messaging service the store
// depends on.
type MessagingSource interface {
	ListConversations(ctx context.Context, filter client.ConversationFilter) ([]models.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*models.ConversationDetail, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

// Intervals carries one poll interval per resource. Each resource's
// cache is independent; there is no shared state across them.
type Intervals struct {
	Listings      time.Duration
	Jobs          time.Duration
	Conversations time.Duration
	Transactions  time.Duration
	Stats         time.Duration
}

// Store bundles the five polled resource caches plus the lazily
// fetched per-entity detail caches.
type Store struct {
	listings      *Poller[[]models.Listing]
	jobs          *Poller[[]models.PostingJob]
	conversations *Poller[[]models.Conversation]
	transactions  *Poller[[]models.Transaction]
	stats         *Poller[*models.DashboardStats]

	core      CoreSource
	messaging MessagingSource

	detailMu    stdsync.Mutex
	jobLogs     map[int64]*models.PostingJob
	convoDetail map[int64]*models.ConversationDetail
}

// NewStore builds a store polling the given sources.
func NewStore(core CoreSource, messaging MessagingSource, intervals Intervals) *Store {
	s := &Store{
		core:        core,
		messaging:   messaging,
		jobLogs:     make(map[int64]*models.PostingJob),
		convoDetail: make(map[int64]*models.ConversationDetail),
	}
	s.listings = NewPoller("listings", intervals.Listings, NewResource[[]models.Listing](),
		func(ctx context.Context) ([]models.Listing, error) {
			return core.ListListings(ctx)
		})
	s.jobs = NewPoller("jobs", intervals.Jobs, NewResource[[]models.PostingJob](),
		func(ctx context.Context) ([]models.PostingJob, error) {
			return core.ListJobs(ctx, client.JobFilter{})
		})
	s.conversations = NewPoller("conversations", intervals.Conversations, NewResource[[]models.Conversation](),
		func(ctx context.Context) ([]models.Conversation, error) {
			return messaging.ListConversations(ctx, client.ConversationFilter{})
		})
	s.transactions = NewPoller("transactions", intervals.Transactions, NewResource[[]models.Transaction](),
		func(ctx context.Context) ([]models.Transaction, error) {
			return messaging.ListTransactions(ctx)
		})
	s.stats = NewPoller("stats", intervals.Stats, NewResource[*models.DashboardStats](),
		func(ctx context.Context) (*models.DashboardStats, error) {
			return messaging.GetStats(ctx)
		})
	return s
}

// Start launches every poller and blocks until ctx is cancelled and
// all of them have stopped. Cancellation is the teardown path: it
// stops the timers and abandons in-flight fetches.
func (s *Store) Start(ctx context.Context) {
	var wg stdsync.WaitGroup
	for _, run := range []func(context.Context){
		s.listings.Run,
		s.jobs.Run,
		s.conversations.Run,
		s.transactions.Run,
		s.stats.Run,
	} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}
	wg.Wait()
}

// Snapshot accessors. Views read these on every render.

func (s *Store) Listings() State[[]models.Listing] { return s.listings.Resource().Snapshot() }

func (s *Store) Jobs() State[[]models.PostingJob] { return s.jobs.Resource().Snapshot() }

func (s *Store) Conversations() State[[]models.Conversation] {
	return s.conversations.Resource().Snapshot()
}

func (s *Store) Transactions() State[[]models.Transaction] {
	return s.transactions.Resource().Snapshot()
}

func (s *Store) Stats() State[*models.DashboardStats] { return s.stats.Resource().Snapshot() }

// Refresh kicks. User actions call these for each affected resource
// after the action's request resolves; posting, for instance, touches
// both the listing and its jobs.

func (s *Store) RefreshListings() { s.listings.Kick() }

func (s *Store) RefreshJobs() { s.jobs.Kick() }

func (s *Store) RefreshConversations() { s.conversations.Kick() }

func (s *Store) RefreshTransactions() { s.transactions.Kick() }

func (s *Store) RefreshStats() { s.stats.Kick() }

// JobLogs returns a job with its log entries, fetching lazily on first
// request and memoizing per id so expand/collapse in the UI does not
// refetch within a session.
func (s *Store) JobLogs(ctx context.Context, id int64) (*models.PostingJob, error) {
	s.detailMu.Lock()
	if cached, ok := s.jobLogs[id]; ok {
		s.detailMu.Unlock()
		return cached, nil
	}
	s.detailMu.Unlock()

	job, err := s.core.GetJobLogs(ctx, id)
	if err != nil {
		return nil, err
	}

	s.detailMu.Lock()
	s.jobLogs[id] = job
	s.detailMu.Unlock()
	return job, nil
}

// InvalidateJobLogs drops one job's cached logs, e.g. after a retry
// makes them stale.
func (s *Store) InvalidateJobLogs(id int64) {
	s.detailMu.Lock()
	delete(s.jobLogs, id)
	s.detailMu.Unlock()
}

// Conversation returns one conversation's detail, lazily fetched and
// memoized per id like JobLogs.
func (s *Store) Conversation(ctx context.Context, id int64) (*models.ConversationDetail, error) {
	s.detailMu.Lock()
	if cached, ok := s.convoDetail[id]; ok {
		s.detailMu.Unlock()
		return cached, nil
	}
	s.detailMu.Unlock()

	detail, err := s.messaging.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.detailMu.Lock()
	s.convoDetail[id] = detail
	s.detailMu.Unlock()
	return detail, nil
}

// InvalidateConversation drops one conversation's cached detail.
func (s *Store) InvalidateConversation(id int64) {
	s.detailMu.Lock()
	delete(s.convoDetail, id)
	s.detailMu.Unlock()
}
