package syncer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// newPacer allows one event immediately and then one per delay.
func newPacer(delay time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Run drives the poll loop until ctx is cancelled or ticks is closed. The
// queue is replayed and a forced pull made at start and again whenever a
// pull succeeds after the engine was offline. Other ticks pull subject to
// MinPullInterval. Queue and draft changes in the store are published to
// subscribers while Run is active.
func (e *Engine) Run(ctx context.Context, ticks <-chan time.Time) error {
	changes, unwatch := e.store.Subscribe(32)
	defer unwatch()
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go e.watchStore(watchCtx, changes)

	e.reconnect(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			wasOffline := e.Status().State == StateOffline
			res, err := e.PullAll(ctx, false)
			if err != nil || res.Skipped {
				continue
			}
			if wasOffline {
				e.log.Info("back online")
				e.reconnect(ctx)
			}
		}
	}
}

func (e *Engine) reconnect(ctx context.Context) {
	if _, err := e.RetryQueue(ctx); err != nil && ctx.Err() == nil {
		e.log.ErrorErr("retry failed", err)
	}
	if _, err := e.PullAll(ctx, true); err != nil && ctx.Err() == nil {
		e.log.Debug("pull failed", map[string]any{"error": err.Error()})
	}
}

// Ticker adapts a time.Ticker for Run. The returned stop func must be called.
func Ticker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}
