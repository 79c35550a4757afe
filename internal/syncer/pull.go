package syncer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/pkg/model"
)

// PullResult summarizes one PullAll.
type PullResult struct {
	Skipped     bool          `json:"skipped,omitempty"`
	Fetched     int           `json:"fetched"`
	Dropped     int           `json:"dropped"`
	Added       int           `json:"added"`
	Updated     int           `json:"updated"`
	Drafts      int           `json:"drafts"`
	Completions int           `json:"completions"`
	FailedTabs  []string      `json:"failed_tabs,omitempty"`
	Duration    time.Duration `json:"duration"`
}

type tabResult struct {
	tab  string
	typ  model.RecordType
	rows []sheets.Row
	err  error
}

// PullAll fetches every record tab plus the Drafts tab and merges them into
// the local store. Without force, a pull within MinPullInterval of the
// previous attempt is skipped; a pull already in flight is always skipped.
// When no record tab can be read the local store is left untouched and the
// status goes offline.
func (e *Engine) PullAll(ctx context.Context, force bool) (PullResult, error) {
	if err := e.configured(); err != nil {
		e.setState(StateNotConfigured, err, time.Time{})
		return PullResult{}, err
	}
	if !e.pulling.CompareAndSwap(false, true) {
		return PullResult{Skipped: true}, nil
	}
	defer e.pulling.Store(false)

	start := e.now()
	e.mu.Lock()
	last := e.lastAttempt
	if !force && !last.IsZero() && start.Sub(last) < e.opts.MinPullInterval {
		e.mu.Unlock()
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordPull("skipped", 0, 0)
		}
		return PullResult{Skipped: true}, nil
	}
	e.lastAttempt = start
	e.mu.Unlock()

	prev := e.setState(StateSyncing, nil, time.Time{})
	res, err := e.pull(ctx)
	res.Duration = e.now().Sub(start)

	if err != nil {
		e.setState(StateOffline, err, time.Time{})
		e.log.Warn("pull failed", map[string]any{"error": err.Error(), "previous": string(prev)})
		e.journal(model.JournalPullFailed, "", "", map[string]any{"error": err.Error()})
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordPull("failed", res.Duration, 0)
		}
		return res, err
	}

	pulled := e.now()
	if err := e.store.SetLastPull(pulled); err != nil {
		e.log.ErrorErr("cannot record pull time", err)
	}
	e.setState(StateOnline, nil, pulled)

	outcome := "ok"
	if len(res.FailedTabs) > 0 {
		outcome = "partial"
	}
	fields := map[string]any{
		"fetched":     res.Fetched,
		"added":       res.Added,
		"updated":     res.Updated,
		"dropped":     res.Dropped,
		"drafts":      res.Drafts,
		"completions": res.Completions,
	}
	if len(res.FailedTabs) > 0 {
		fields["failed_tabs"] = res.FailedTabs
	}
	e.log.Info("pull complete", fields)
	e.journal(model.JournalPull, "", "", fields)
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordPull(outcome, res.Duration, res.Added+res.Updated)
	}
	return res, nil
}

func (e *Engine) pull(ctx context.Context) (PullResult, error) {
	var res PullResult

	types := model.RecordTypes()
	results := make([]tabResult, len(types))
	var draftRows []sheets.Row
	var draftErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, t := range types {
		i, t := i, t
		tab := sheets.TabFor(t)
		g.Go(func() error {
			rows, err := e.remote.Read(gctx, tab)
			results[i] = tabResult{tab: tab, typ: t, rows: rows, err: err}
			return nil
		})
	}
	g.Go(func() error {
		draftRows, draftErr = e.remote.Read(gctx, sheets.TabDrafts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	var remote []model.Record
	var firstErr error
	for _, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			res.FailedTabs = append(res.FailedTabs, r.tab)
			e.log.Debug("tab read failed", map[string]any{"tab": r.tab, "error": r.err.Error()})
			continue
		}
		recs, dropped := sheets.ParseRows(r.typ, r.rows)
		res.Fetched += len(r.rows)
		res.Dropped += dropped
		if dropped > 0 && e.opts.Metrics != nil {
			e.opts.Metrics.RecordDroppedRows(r.tab, dropped)
		}
		remote = append(remote, recs...)
	}
	if len(res.FailedTabs) == len(types) {
		return res, firstErr
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var stats MergeStats
	err := e.store.UpdateRecords(func(local []model.Record) ([]model.Record, error) {
		merged, s := MergeRecords(local, remote)
		stats = s
		if s.Added == 0 && s.Updated == 0 && len(merged) == len(local) {
			return nil, store.ErrUnchanged
		}
		return merged, nil
	})
	if err != nil {
		return res, err
	}
	res.Added, res.Updated = stats.Added, stats.Updated

	if draftErr != nil {
		e.log.Debug("draft tab read failed", map[string]any{"error": draftErr.Error()})
	} else if e.drafts != nil {
		rows := make([]sheets.DraftRow, 0, len(draftRows))
		for _, row := range draftRows {
			dr, err := sheets.ParseDraftRow(row)
			if err != nil {
				res.Dropped++
				e.log.Debug("draft row dropped", map[string]any{"error": err.Error()})
				continue
			}
			rows = append(rows, dr)
		}
		if res.Drafts, err = e.drafts.ApplyRemote(rows); err != nil {
			return res, err
		}
		if n, err := e.drafts.Prune(); err != nil {
			e.log.ErrorErr("cannot prune old drafts", err)
		} else if n > 0 {
			e.log.Debug("old drafts pruned", map[string]any{"count": n})
		}
	}

	if e.tasks != nil {
		all, err := e.store.Records()
		if err != nil {
			return res, err
		}
		if res.Completions, err = e.tasks.Bridge(all); err != nil {
			return res, err
		}
	}
	return res, nil
}
