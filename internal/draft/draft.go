// Package draft keeps the in-progress tick state of checklists, one draft
// per (type, department, day), and reconciles it with other devices.
package draft

import (
	"time"

	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/logging"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/textutil"
)

// Pusher sends a whole draft to the remote Drafts tab without waiting.
// A successful delivery is reported back through Engine.MarkSent.
type Pusher interface {
	PushDraft(row sheets.DraftRow)
}

// Engine mutates drafts in the local store and hands them to a Pusher.
type Engine struct {
	store  *store.Local
	device string
	push   Pusher
	now    func() time.Time
}

// NewEngine creates an engine for this device. push may be nil until the
// sync engine is attached with SetPusher.
func NewEngine(st *store.Local, deviceID string, push Pusher) *Engine {
	return &Engine{store: st, device: deviceID, push: push, now: time.Now}
}

// SetClock overrides time.Now.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetPusher attaches the push path.
func (e *Engine) SetPusher(p Pusher) { e.push = p }

// Key returns today's draft key for a checklist.
func (e *Engine) Key(t model.RecordType, dept model.Department) model.DraftKey {
	return model.DraftKey{Type: t, Dept: dept, Date: e.now().Format(model.DateLayout)}
}

func validKey(t model.RecordType, dept model.Department) error {
	if !t.IsChecklist() {
		return errclass.ErrValidation.WithMessagef("%q has no checklist", t)
	}
	if !dept.Valid() {
		return errclass.ErrValidation.WithMessagef("unknown department %q", dept)
	}
	return nil
}

// SetTick records one check as ticked or unticked in today's draft and
// pushes the entire draft.
func (e *Engine) SetTick(t model.RecordType, dept model.Department, checkID string, ticked bool) (model.Draft, error) {
	if err := validKey(t, dept); err != nil {
		return model.Draft{}, err
	}
	if err := textutil.ValidateID(checkID); err != nil {
		return model.Draft{}, err
	}

	k := e.Key(t, dept)
	now := e.now().UTC()
	var out model.Draft
	err := e.store.UpdateDraft(k, func(d *model.Draft, _ bool) error {
		if ticked {
			d.Ticks[checkID] = true
			delete(d.Unticked, checkID)
		} else {
			delete(d.Ticks, checkID)
			if d.Unticked == nil {
				d.Unticked = map[string]time.Time{}
			}
			d.Unticked[checkID] = now
		}
		d.UpdatedAt = now
		d.Finalized = false
		d.Pending = true
		out = d.Clone()
		return nil
	})
	if err != nil {
		return model.Draft{}, err
	}
	logging.Debug("draft tick", map[string]any{"key": k.String(), "check": checkID, "ticked": ticked})
	e.dispatch(k, out)
	return out, nil
}

// Get returns today's draft, empty if none exists.
func (e *Engine) Get(t model.RecordType, dept model.Department) (model.Draft, error) {
	if err := validKey(t, dept); err != nil {
		return model.Draft{}, err
	}
	d, _, err := e.store.Draft(e.Key(t, dept))
	return d, err
}

// Clear empties today's draft after its checklist was submitted and pushes
// the finalized empty draft so other devices drop their progress.
func (e *Engine) Clear(t model.RecordType, dept model.Department) error {
	if err := validKey(t, dept); err != nil {
		return err
	}
	k := e.Key(t, dept)
	d := model.Draft{
		Ticks:     model.Ticks{},
		UpdatedAt: e.now().UTC(),
		Finalized: true,
		Pending:   true,
	}
	if err := e.store.UpdateDraft(k, func(cur *model.Draft, _ bool) error {
		*cur = d.Clone()
		return nil
	}); err != nil {
		return err
	}
	e.dispatch(k, d)
	return nil
}

func (e *Engine) dispatch(k model.DraftKey, d model.Draft) {
	if e.push == nil {
		return
	}
	e.push.PushDraft(e.Row(k, d))
}

// Row renders a draft for the Drafts tab.
func (e *Engine) Row(k model.DraftKey, d model.Draft) sheets.DraftRow {
	return sheets.DraftRow{
		Key:       k,
		Device:    e.device,
		UpdatedAt: d.UpdatedAt,
		Finalized: d.Finalized,
		Ticks:     d.Ticks.Clone(),
	}
}

// MarkSent clears the pending flag if the draft has not changed since the
// pushed version.
func (e *Engine) MarkSent(k model.DraftKey, updatedAt time.Time) error {
	return e.store.UpdateDraft(k, func(d *model.Draft, found bool) error {
		if !found || !d.Pending || !d.UpdatedAt.Equal(updatedAt) {
			return store.ErrUnchanged
		}
		d.Pending = false
		return nil
	})
}

// ApplyRemote merges remote draft rows dated today into the local drafts
// and returns how many local drafts changed. A merged draft holding ticks
// the remote row lacks is marked pending and pushed back, so the shared
// row converges on the union.
func (e *Engine) ApplyRemote(rows []sheets.DraftRow) (int, error) {
	today := e.now().Format(model.DateLayout)
	changed := 0
	for _, row := range rows {
		if row.Key.Date != today || validKey(row.Key.Type, row.Key.Dept) != nil {
			continue
		}
		remote := model.Draft{
			Ticks:     row.Ticks,
			UpdatedAt: row.UpdatedAt,
			Finalized: row.Finalized,
		}
		var out model.Draft
		republish := false
		err := e.store.UpdateDraft(row.Key, func(d *model.Draft, _ bool) error {
			merged := MergeDraft(*d, remote)
			republish = Ahead(merged, remote)
			same := Equal(merged, *d)
			if same && (!republish || d.Pending) {
				// Nothing new, or the retry path already owns the push.
				republish = false
				return store.ErrUnchanged
			}
			if !same {
				changed++
			}
			merged.Pending = d.Pending || republish
			*d = merged
			out = merged.Clone()
			return nil
		})
		if err != nil {
			return changed, err
		}
		if republish {
			logging.Debug("draft republished", map[string]any{"key": row.Key.String(), "ticks": out.Ticks.Count()})
			e.dispatch(row.Key, out)
		}
	}
	return changed, nil
}

// PushPending re-dispatches every draft whose last push did not land.
// It returns the number of drafts handed to the pusher.
func (e *Engine) PushPending() (int, error) {
	keys, err := e.store.DraftKeys()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		d, found, err := e.store.Draft(k)
		if err != nil {
			return n, err
		}
		if !found || !d.Pending {
			continue
		}
		e.dispatch(k, d)
		n++
	}
	return n, nil
}

// Prune deletes drafts of earlier days. Other devices ignore them, so a
// stale draft is never pushed or merged again.
func (e *Engine) Prune() (int, error) {
	keys, err := e.store.DraftKeys()
	if err != nil {
		return 0, err
	}
	today := e.now().Format(model.DateLayout)
	n := 0
	for _, k := range keys {
		if k.Date >= today {
			continue
		}
		if err := e.store.DeleteDraft(k); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Pending lists the keys of drafts awaiting a push.
func (e *Engine) Pending() ([]model.DraftKey, error) {
	keys, err := e.store.DraftKeys()
	if err != nil {
		return nil, err
	}
	var out []model.DraftKey
	for _, k := range keys {
		d, found, err := e.store.Draft(k)
		if err != nil {
			return nil, err
		}
		if found && d.Pending {
			out = append(out, k)
		}
	}
	return out, nil
}
