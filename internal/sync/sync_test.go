package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost/internal/client"
	"github.com/crosspost/pkg/models"
)

func TestResourceKeepsStaleValueOnFailure(t *testing.T) {
	r := NewResource[[]models.Listing]()

	r.begin()
	r.complete([]models.Listing{{ID: 1, Title: "Lamp"}})

	r.begin()
	r.fail(errors.New("service unavailable"))

	state := r.Snapshot()
	assert.True(t, state.Loaded)
	assert.False(t, state.Loading)
	assert.Error(t, state.Err)
	require.Len(t, state.Value, 1)
	assert.Equal(t, "Lamp", state.Value[0].Title)
}

func TestResourceCompleteClearsError(t *testing.T) {
	r := NewResource[int]()

	r.begin()
	r.fail(errors.New("boom"))
	assert.Error(t, r.Snapshot().Err)
	assert.False(t, r.Snapshot().Loaded)

	r.begin()
	r.complete(42)

	state := r.Snapshot()
	assert.NoError(t, state.Err)
	assert.True(t, state.Loaded)
	assert.Equal(t, 42, state.Value)
	assert.False(t, state.FetchedAt.IsZero())
}

func TestPollerRefreshesImmediatelyAndOnKick(t *testing.T) {
	var calls atomic.Int64
	p := NewPoller("test", time.Hour, NewResource[int](),
		func(ctx context.Context) (int, error) {
			return int(calls.Add(1)), nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// First refresh happens before the first tick.
	waitFor(t, func() bool { return p.Resource().Snapshot().Loaded })
	assert.Equal(t, int64(1), calls.Load())

	p.Kick()
	waitFor(t, func() bool { return calls.Load() >= 2 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestPollerFetchesNeverOverlap(t *testing.T) {
	var inFlight, maxSeen atomic.Int64
	release := make(chan struct{})
	p := NewPoller("test", 5*time.Millisecond, NewResource[int](),
		func(ctx context.Context) (int, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				prev := maxSeen.Load()
				if n <= prev || maxSeen.CompareAndSwap(prev, n) {
					break
				}
			}
			select {
			case <-release:
			case <-ctx.Done():
			}
			return 0, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// Pile ticks and kicks up behind the blocked first fetch; none of
	// them may start a second fetch while it is in flight.
	time.Sleep(30 * time.Millisecond)
	p.Kick()
	p.Kick()
	time.Sleep(30 * time.Millisecond)

	close(release)
	waitFor(t, func() bool { return p.Resource().Snapshot().Loaded })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}

	assert.Equal(t, int64(1), maxSeen.Load(), "fetches for one resource must never run concurrently")
}

func TestPollerCancellationNotRecordedAsFailure(t *testing.T) {
	started := make(chan struct{})
	p := NewPoller("test", time.Hour, NewResource[int](),
		func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	<-started
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}

	// Teardown is not a fetch failure: no error flag, no stuck spinner.
	state := p.Resource().Snapshot()
	assert.NoError(t, state.Err)
	assert.False(t, state.Loading)
	assert.False(t, state.Loaded)
}

func TestPollerKeepsStaleDataAcrossFailedPolls(t *testing.T) {
	var calls atomic.Int64
	p := NewPoller("test", time.Hour, NewResource[[]string](),
		func(ctx context.Context) ([]string, error) {
			if calls.Add(1) == 1 {
				return []string{"first"}, nil
			}
			return nil, errors.New("flaky backend")
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	waitFor(t, func() bool { return p.Resource().Snapshot().Loaded })

	p.Kick()
	waitFor(t, func() bool { return p.Resource().Snapshot().Err != nil })

	state := p.Resource().Snapshot()
	assert.Equal(t, []string{"first"}, state.Value, "stale value must survive the failure")
	assert.True(t, state.Loaded)
}

type fakeCore struct {
	listings    []models.Listing
	jobs        []models.PostingJob
	logCalls    atomic.Int64
	logsByJobID map[int64]*models.PostingJob
}

func (f *fakeCore) ListListings(ctx context.Context) ([]models.Listing, error) {
	return f.listings, nil
}

func (f *fakeCore) ListJobs(ctx context.Context, filter client.JobFilter) ([]models.PostingJob, error) {
	return f.jobs, nil
}

func (f *fakeCore) GetJobLogs(ctx context.Context, id int64) (*models.PostingJob, error) {
	f.logCalls.Add(1)
	job, ok := f.logsByJobID[id]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

type fakeMessaging struct {
	convos      []models.Conversation
	txns        []models.Transaction
	stats       models.DashboardStats
	detailCalls atomic.Int64
}

func (f *fakeMessaging) ListConversations(ctx context.Context, filter client.ConversationFilter) ([]models.Conversation, error) {
	return f.convos, nil
}

func (f *fakeMessaging) GetConversation(ctx context.Context, id int64) (*models.ConversationDetail, error) {
	f.detailCalls.Add(1)
	return &models.ConversationDetail{
		Conversation: models.Conversation{ID: id, Status: "active"},
		Buyer:        models.Buyer{ID: 1, Name: "Alex"},
	}, nil
}

func (f *fakeMessaging) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return f.txns, nil
}

func (f *fakeMessaging) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	return &f.stats, nil
}

func testIntervals() Intervals {
	return Intervals{
		Listings:      time.Hour,
		Jobs:          time.Hour,
		Conversations: time.Hour,
		Transactions:  time.Hour,
		Stats:         time.Hour,
	}
}

func TestStorePopulatesAllResources(t *testing.T) {
	core := &fakeCore{
		listings: []models.Listing{{ID: 1, Title: "Desk"}},
		jobs:     []models.PostingJob{{ID: 2, Status: "pending"}},
	}
	messaging := &fakeMessaging{
		convos: []models.Conversation{{ID: 3, Status: "active"}},
		txns:   []models.Transaction{{ID: 4, Status: "pending", AmountCents: 100}},
		stats:  models.DashboardStats{TotalConversations: 1},
	}

	store := NewStore(core, messaging, testIntervals())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Start(ctx)

	waitFor(t, func() bool {
		return store.Listings().Loaded && store.Jobs().Loaded &&
			store.Conversations().Loaded && store.Transactions().Loaded &&
			store.Stats().Loaded
	})

	assert.Equal(t, "Desk", store.Listings().Value[0].Title)
	assert.Equal(t, int64(2), store.Jobs().Value[0].ID)
	assert.Equal(t, int64(3), store.Conversations().Value[0].ID)
	assert.Equal(t, int64(100), store.Transactions().Value[0].AmountCents)
	assert.Equal(t, int64(1), store.Stats().Value.TotalConversations)
}

func TestStoreJobLogsMemoized(t *testing.T) {
	core := &fakeCore{
		logsByJobID: map[int64]*models.PostingJob{
			7: {ID: 7, Status: "failed", Logs: []models.JobLog{{ID: 1, Message: "login failed"}}},
		},
	}
	store := NewStore(core, &fakeMessaging{}, testIntervals())
	ctx := context.Background()

	job, err := store.JobLogs(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, job.Logs, 1)

	// Second read hits the cache, not the source.
	_, err = store.JobLogs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), core.logCalls.Load())

	// Invalidation forces a refetch.
	store.InvalidateJobLogs(7)
	_, err = store.JobLogs(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), core.logCalls.Load())
}

func TestStoreJobLogsErrorNotCached(t *testing.T) {
	core := &fakeCore{logsByJobID: map[int64]*models.PostingJob{}}
	store := NewStore(core, &fakeMessaging{}, testIntervals())

	_, err := store.JobLogs(context.Background(), 99)
	assert.Error(t, err)

	// Failures are not memoized; the next read tries again.
	_, err = store.JobLogs(context.Background(), 99)
	assert.Error(t, err)
	assert.Equal(t, int64(2), core.logCalls.Load())
}

func TestStoreConversationMemoized(t *testing.T) {
	messaging := &fakeMessaging{}
	store := NewStore(&fakeCore{}, messaging, testIntervals())
	ctx := context.Background()

	detail, err := store.Conversation(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Alex", detail.Buyer.Name)

	_, err = store.Conversation(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), messaging.detailCalls.Load())

	store.InvalidateConversation(5)
	_, err = store.Conversation(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), messaging.detailCalls.Load())
}

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
