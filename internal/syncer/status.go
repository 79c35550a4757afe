package syncer

import (
	"context"
	"time"

	"github.com/safechecks/safechecks/internal/store"
)

// State is the coarse connectivity state shown to the user.
type State string

const (
	StateIdle          State = "idle"
	StateSyncing       State = "syncing"
	StateOnline        State = "online"
	StateOffline       State = "offline"
	StateNotConfigured State = "not_configured"
)

// Status is a snapshot of the engine's sync state.
type Status struct {
	State     State     `json:"state"`
	LastPull  time.Time `json:"last_pull,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Queued    int       `json:"queued"`
	Pending   int       `json:"pending_drafts"`
	InFlight  int       `json:"in_flight"`
}

// Online reports whether the last pull reached the remote.
func (s Status) Online() bool { return s.State == StateOnline }

// Status returns the current status with live queue counts.
func (e *Engine) Status() Status {
	e.mu.Lock()
	s := e.status
	e.mu.Unlock()

	if q, err := e.store.Queue(); err == nil {
		s.Queued = len(q)
	}
	if e.drafts != nil {
		if keys, err := e.drafts.Pending(); err == nil {
			s.Pending = len(keys)
		}
	}
	s.InFlight = e.dispatch.Depth()
	if s.LastPull.IsZero() {
		if t, err := e.store.LastPull(); err == nil {
			s.LastPull = t
		}
	}
	return s
}

// Subscribe returns a channel receiving every status change. Slow readers
// miss updates rather than stall the engine.
func (e *Engine) Subscribe(buffer int) (<-chan Status, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	ch := make(chan Status, buffer)
	e.subs[id] = ch
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			close(c)
			delete(e.subs, id)
		}
	}
}

// setState updates the status and returns the previous state.
func (e *Engine) setState(state State, lastErr error, pulled time.Time) State {
	e.mu.Lock()
	prev := e.status.State
	e.status.State = state
	e.status.LastError = ""
	if lastErr != nil {
		e.status.LastError = lastErr.Error()
	}
	if !pulled.IsZero() {
		e.status.LastPull = pulled
	}
	e.mu.Unlock()
	e.publish()
	return prev
}

// publish sends the live status to every subscriber.
func (e *Engine) publish() {
	snapshot := e.Status()
	if e.opts.Metrics != nil {
		e.opts.Metrics.SetQueueDepth(snapshot.Queued)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// watchStore republishes the status whenever the queue or a draft changes
// in the local store, including writes made by other components.
func (e *Engine) watchStore(ctx context.Context, changes <-chan store.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if ch.Key == store.KeyQueue || ch.IsDraft() {
				e.publish()
			}
		}
	}
}
