// Package sync keeps the console's view of remote state fresh. Each
// remote resource gets its own polling cache: the last successfully
// fetched value is always served immediately, a failed poll only raises
// an error flag without discarding prior data, and user actions can
// force an out-of-band refresh independent of the timer.
package sync

import (
	stdsync "sync"
	"time"
)

// State is a point-in-time view of one resource cache. Value is only
// meaningful when Loaded is true; Err holds the most recent fetch
// failure, which coexists with stale-but-present data.
type State[T any] struct {
	Value     T
	Loaded    bool
	Loading   bool
	Err       error
	FetchedAt time.Time
}

// Resource is a concurrency-safe cache for one remote resource.
type Resource[T any] struct {
	mu        stdsync.Mutex
	value     T
	loaded    bool
	loading   bool
	err       error
	fetchedAt time.Time
}

// NewResource returns an empty, not-yet-loaded cache.
func NewResource[T any]() *Resource[T] {
	return &Resource[T]{}
}

// begin marks a fetch as in flight.
func (r *Resource[T]) begin() {
	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()
}

// complete stores a successful fetch and clears any prior error.
func (r *Resource[T]) complete(value T) {
	r.mu.Lock()
	r.value = value
	r.loaded = true
	r.loading = false
	r.err = nil
	r.fetchedAt = time.Now()
	r.mu.Unlock()
}

// abort clears the loading flag without recording an error, for
// teardown paths where the fetch was cancelled rather than failed.
func (r *Resource[T]) abort() {
	r.mu.Lock()
	r.loading = false
	r.mu.Unlock()
}

// fail records a fetch failure. The previous value, if any, stays
// visible: stale data beats a blank screen.
func (r *Resource[T]) fail(err error) {
	r.mu.Lock()
	r.loading = false
	r.err = err
	r.mu.Unlock()
}

// Snapshot returns the current cache state.
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State[T]{
		Value:     r.value,
		Loaded:    r.loaded,
		Loading:   r.loading,
		Err:       r.err,
		FetchedAt: r.fetchedAt,
	}
}
