package safechecks

import (
	"context"
	"time"

	"github.com/safechecks/safechecks/internal/syncer"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

// PushRecord pushes one stored record now and waits for the outcome. A
// failure leaves the record in the retry queue.
func (c *Client) PushRecord(ctx context.Context, id string) (model.Record, error) {
	recs, err := c.store.Records()
	if err != nil {
		return model.Record{}, err
	}
	for _, r := range recs {
		if r.ID == id {
			if err := c.sync.Push(ctx, r); err != nil {
				return r, err
			}
			return r, c.store.Dequeue(r.ID)
		}
	}
	return model.Record{}, errclass.ErrNotFound.WithMessagef("record %s", id)
}

// Pull fetches every tab now, ignoring the minimum pull interval.
func (c *Client) Pull(ctx context.Context) (syncer.PullResult, error) {
	return c.sync.PullAll(ctx, true)
}

// Retry replays the queue and re-pushes pending drafts.
func (c *Client) Retry(ctx context.Context) (syncer.RetryResult, error) {
	res, err := c.sync.RetryQueue(ctx)
	c.sync.Flush()
	return res, err
}

// Run polls the remote every interval until ctx is done.
func (c *Client) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = c.cfg.Sync.PullInterval
	}
	ticks, stop := syncer.Ticker(interval)
	defer stop()
	return c.sync.Run(ctx, ticks)
}

// Status returns the sync status.
func (c *Client) Status() syncer.Status {
	return c.sync.Status()
}
