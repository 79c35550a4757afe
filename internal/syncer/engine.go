// Package syncer moves records, drafts and settings between the local
// store and the remote row store. Pushes are fire-and-forget with a
// durable retry queue; pulls fetch every tab and merge into local state.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/safechecks/safechecks/internal/draft"
	"github.com/safechecks/safechecks/internal/journal"
	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/internal/tasks"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/logging"
	"github.com/safechecks/safechecks/pkg/metrics"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/progress"
)

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	MinPullInterval time.Duration
	RetryDelay      time.Duration
	DispatchQueue   int
	PushTimeout     time.Duration
	Logger          *logging.Logger
	Metrics         *metrics.Registry
	Journal         *journal.Journal
	Progress        progress.Callback
	Clock           func() time.Time
}

// Engine is the sync engine of one device.
type Engine struct {
	store    *store.Local
	remote   sheets.RowStore
	drafts   *draft.Engine
	tasks    *tasks.Scheduler
	dispatch *Dispatcher

	opts Options
	log  *logging.Logger
	now  func() time.Time

	pulling  atomic.Bool
	retrying atomic.Bool

	mu          sync.Mutex
	status      Status
	lastAttempt time.Time
	subs        map[int]chan Status
	nextID      int
}

// New wires an engine and attaches it as the draft pusher. remote may be
// nil when no endpoint is configured; pushes are then queued.
func New(st *store.Local, remote sheets.RowStore, drafts *draft.Engine, sched *tasks.Scheduler, opts Options) *Engine {
	if opts.MinPullInterval <= 0 {
		opts.MinPullInterval = 15 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 400 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}
	if opts.Progress == nil {
		opts.Progress = progress.Noop
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	e := &Engine{
		store:    st,
		remote:   remote,
		drafts:   drafts,
		tasks:    sched,
		dispatch: NewDispatcher(opts.DispatchQueue, opts.PushTimeout),
		opts:     opts,
		log:      opts.Logger.WithFields(map[string]any{"component": "sync"}),
		now:      opts.Clock,
		subs:     make(map[int]chan Status),
	}
	e.status.State = StateIdle
	if remote == nil {
		e.status.State = StateNotConfigured
	}
	if drafts != nil {
		drafts.SetPusher(e)
	}
	return e
}

// SetDrafts replaces the draft engine. Call it before any sync activity.
func (e *Engine) SetDrafts(d *draft.Engine) {
	e.drafts = d
	if d != nil {
		d.SetPusher(e)
	}
}

// Close drains in-flight pushes and closes subscriptions.
func (e *Engine) Close() error {
	err := e.dispatch.Close()
	e.mu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.mu.Unlock()
	return err
}

// Flush waits until every dispatched push has completed.
func (e *Engine) Flush() { e.dispatch.Wait() }

func (e *Engine) journal(event model.JournalEvent, recordID, tab string, details map[string]any) {
	if e.opts.Journal == nil {
		return
	}
	if err := e.opts.Journal.Append(event, recordID, tab, details); err != nil {
		e.log.ErrorErr("journal append failed", err, map[string]any{"event": string(event)})
	}
}

func (e *Engine) configured() error {
	if e.remote == nil {
		return errclass.ErrNotConfigured.WithMessage("no remote endpoint configured")
	}
	return nil
}

// Submit stores rec durably and pushes it in the background. It returns
// once the record is on disk.
func (e *Engine) Submit(rec model.Record) error {
	if err := e.store.AppendRecord(rec); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	e.PushAsync(rec)
	return nil
}

// PushAsync dispatches a push of rec without waiting. If the dispatcher
// cannot take it the record goes straight to the pending queue.
func (e *Engine) PushAsync(rec model.Record) {
	ok := e.dispatch.Submit("push "+rec.ID, func(ctx context.Context) error {
		return e.Push(ctx, rec)
	})
	if !ok {
		e.queue(rec, errclass.ErrTransport.WithMessage("dispatcher unavailable"))
	}
}

// Push appends rec to its tab. Any failure queues the record for
// RetryQueue and is returned for logging only; the response body is never
// trusted as an acknowledgment.
func (e *Engine) Push(ctx context.Context, rec model.Record) error {
	tab := sheets.TabFor(rec.Type)
	err := e.configured()
	if err == nil {
		var row []string
		row, err = sheets.BuildRow(rec)
		if err == nil {
			err = e.remote.Append(ctx, tab, sheets.Headers(rec.Type), row)
		}
	}
	if err != nil {
		e.queue(rec, err)
		return err
	}

	e.log.Debug("record pushed", map[string]any{"record_id": rec.ID, "tab": tab, "type": string(rec.Type)})
	e.journal(model.JournalRecordSent, rec.ID, tab, nil)
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordPush(true)
	}
	return nil
}

func (e *Engine) queue(rec model.Record, cause error) {
	tab := sheets.TabFor(rec.Type)
	added, err := e.store.Enqueue(rec)
	if err != nil {
		e.log.ErrorErr("cannot queue record", err, map[string]any{"record_id": rec.ID})
		return
	}
	e.log.Warn("record push failed", map[string]any{
		"record_id": rec.ID,
		"tab":       tab,
		"type":      string(rec.Type),
		"queued":    added,
		"error":     cause.Error(),
	})
	e.journal(model.JournalRecordQueued, rec.ID, tab, map[string]any{"error": cause.Error()})
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordPush(false)
		if q, err := e.store.Queue(); err == nil {
			e.opts.Metrics.SetQueueDepth(len(q))
		}
	}
}

// PushDraft upserts a draft row in the background. Success clears the
// draft's pending flag; failure leaves it for RetryQueue.
func (e *Engine) PushDraft(row sheets.DraftRow) {
	e.dispatch.Submit("draft "+row.Key.String(), func(ctx context.Context) error {
		return e.pushDraft(ctx, row)
	})
}

func (e *Engine) pushDraft(ctx context.Context, row sheets.DraftRow) error {
	err := e.configured()
	if err == nil {
		var cells []string
		cells, err = row.Cells()
		if err == nil {
			err = e.remote.Upsert(ctx, sheets.TabDrafts, row.Key.String(), sheets.DraftHeaders, cells)
		}
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordDraftPush(err == nil)
	}
	if err != nil {
		e.log.Debug("draft push failed", map[string]any{"key": row.Key.String(), "error": err.Error()})
		e.journal(model.JournalDraftPending, "", sheets.TabDrafts, map[string]any{"key": row.Key.String()})
		return err
	}
	e.journal(model.JournalDraftSent, "", sheets.TabDrafts, map[string]any{
		"key":       row.Key.String(),
		"ticks":     row.Ticks.Count(),
		"finalized": row.Finalized,
	})
	if e.drafts != nil {
		return e.drafts.MarkSent(row.Key, row.UpdatedAt)
	}
	return nil
}

// RetryResult summarizes a RetryQueue run.
type RetryResult struct {
	Attempted int  `json:"attempted"`
	Sent      int  `json:"sent"`
	Requeued  int  `json:"requeued"`
	Drafts    int  `json:"drafts"`
	Skipped   bool `json:"skipped,omitempty"`
}

// RetryQueue replays the pending queue one record at a time, spaced by
// RetryDelay. Each record leaves the queue when its push is attempted and
// is queued again if that push fails. Pending drafts are re-dispatched.
func (e *Engine) RetryQueue(ctx context.Context) (RetryResult, error) {
	if !e.retrying.CompareAndSwap(false, true) {
		return RetryResult{Skipped: true}, nil
	}
	defer e.retrying.Store(false)

	var res RetryResult
	queued, err := e.store.Queue()
	if err != nil {
		return res, err
	}

	if len(queued) > 0 {
		p := progress.New("retry", len(queued), e.opts.Progress)
		limiter := newPacer(e.opts.RetryDelay)
		for _, rec := range queued {
			if err := limiter.Wait(ctx); err != nil {
				return res, err
			}
			if err := e.store.Dequeue(rec.ID); err != nil {
				return res, err
			}
			res.Attempted++
			if err := e.Push(ctx, rec); err != nil {
				res.Requeued++
			} else {
				res.Sent++
			}
			p.Increment(rec.ID)
		}
	}

	if e.drafts != nil && e.remote != nil {
		n, err := e.drafts.PushPending()
		if err != nil {
			return res, err
		}
		res.Drafts = n
	}

	if res.Attempted > 0 || res.Drafts > 0 {
		e.log.Info("retry queue drained", map[string]any{
			"attempted": res.Attempted,
			"sent":      res.Sent,
			"requeued":  res.Requeued,
			"drafts":    res.Drafts,
		})
		e.journal(model.JournalQueueDrained, "", "", map[string]any{
			"attempted": res.Attempted,
			"sent":      res.Sent,
			"requeued":  res.Requeued,
		})
	}
	if e.opts.Metrics != nil {
		if q, err := e.store.Queue(); err == nil {
			e.opts.Metrics.SetQueueDepth(len(q))
		}
	}
	return res, nil
}

// PushSettings stores the settings blob remotely.
func (e *Engine) PushSettings(ctx context.Context, s model.Settings) error {
	if err := e.configured(); err != nil {
		return err
	}
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := e.remote.SaveSettings(ctx, blob); err != nil {
		return err
	}
	e.journal(model.JournalSettings, "", sheets.TabSettings, map[string]any{"direction": "push"})
	return nil
}

// PullSettings fetches the remote settings blob and saves it locally.
// The second result is false when the remote has none.
func (e *Engine) PullSettings(ctx context.Context) (model.Settings, bool, error) {
	if err := e.configured(); err != nil {
		return model.Settings{}, false, err
	}
	blob, err := e.remote.ReadSettings(ctx)
	if err != nil || blob == nil {
		return model.Settings{}, false, err
	}
	var s model.Settings
	if err := json.Unmarshal(blob, &s); err != nil {
		return model.Settings{}, false, errclass.ErrParse.WithMessagef("remote settings: %v", err)
	}
	if err := e.store.SaveSettings(s); err != nil {
		return model.Settings{}, false, err
	}
	e.journal(model.JournalSettings, "", sheets.TabSettings, map[string]any{"direction": "pull"})
	return s, true, nil
}
