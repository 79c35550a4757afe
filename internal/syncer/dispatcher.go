package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/safechecks/safechecks/pkg/logging"
)

// job is one unit of background network work.
type job struct {
	name string
	fn   func(ctx context.Context) error
}

// Dispatcher runs push jobs on a single background worker so callers never
// wait on the network. Jobs submitted before Close are always run.
type Dispatcher struct {
	queue   chan job
	timeout time.Duration
	wg      sync.WaitGroup
	pending sync.WaitGroup
	depth   atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts a worker with a bounded queue. timeout bounds each
// job; zero means no bound beyond the transport's own.
func NewDispatcher(size int, timeout time.Duration) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	d := &Dispatcher{
		queue:   make(chan job, size),
		timeout: timeout,
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	defer d.pending.Done()
	defer d.depth.Add(-1)

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := j.fn(ctx); err != nil {
		logging.Debug("dispatch job failed", map[string]any{"job": j.name, "error": err.Error()})
	}
}

// Submit queues fn. It returns false without blocking when the queue is
// full or the dispatcher is closed; the caller then owns the fallback.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	d.pending.Add(1)
	d.depth.Add(1)
	select {
	case d.queue <- job{name: name, fn: fn}:
		return true
	default:
		d.depth.Add(-1)
		d.pending.Done()
		logging.Warn("dispatch queue full", map[string]any{"job": name})
		return false
	}
}

// Depth returns the number of queued or running jobs.
func (d *Dispatcher) Depth() int { return int(d.depth.Load()) }

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() { d.pending.Wait() }

// Close stops accepting jobs, runs what is queued and returns when the
// worker exits.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}
