package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller refreshes one Resource on a fixed interval. The loop is
// sequential, so polls for a resource never overlap: a slow fetch
// simply delays the next tick. Kick requests an immediate out-of-band
// refresh (after a user action); kicks arriving while one is already
// pending coalesce.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	resource *Resource[T]
	kick     chan struct{}
}

// NewPoller wires a fetch function to a resource cache.
func NewPoller[T any](name string, interval time.Duration, resource *Resource[T], fetch func(ctx context.Context) (T, error)) *Poller[T] {
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		resource: resource,
		kick:     make(chan struct{}, 1),
	}
}

// Resource exposes the cache this poller maintains.
func (p *Poller[T]) Resource() *Resource[T] {
	return p.resource
}

// Kick schedules an immediate refresh. Non-blocking; a kick while one
// is already queued is a no-op.
func (p *Poller[T]) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. Fetches run under ctx, so
// cancellation abandons in-flight work and late responses can never
// touch the cache afterwards.
func (p *Poller[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.kick:
			p.refresh(ctx)
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// refresh performs one fetch. Failures are absorbed here: logged,
// flagged on the resource, never propagated.
func (p *Poller[T]) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	p.resource.begin()
	value, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled mid-fetch; the view is going away, so the
			// aborted fetch is not recorded as a failure.
			p.resource.abort()
			return
		}
		log.Warn().Str("resource", p.name).Err(err).Msg("poll failed, keeping stale data")
		p.resource.fail(err)
		return
	}
	p.resource.complete(value)
}
