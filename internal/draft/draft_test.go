package draft_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safechecks/safechecks/internal/draft"
	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

type recordingPusher struct {
	mu   sync.Mutex
	rows []sheets.DraftRow
}

func (p *recordingPusher) PushDraft(row sheets.DraftRow) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = append(p.rows, row)
}

func (p *recordingPusher) last() sheets.DraftRow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows[len(p.rows)-1]
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setup(t *testing.T) (*draft.Engine, *store.Local, *recordingPusher, *clock) {
	t.Helper()
	st, err := store.Open(store.DriverFile, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	p := &recordingPusher{}
	c := &clock{t: time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)}
	e := draft.NewEngine(st, "dev-a", p)
	e.SetClock(c.now)
	return e, st, p, c
}

func TestMerge(t *testing.T) {
	local := model.Ticks{"a": true, "b": false}
	remote := model.Ticks{"b": true, "c": false, "a": false}

	got := draft.Merge(local, remote)
	assert.Equal(t, model.Ticks{"a": true, "b": true, "c": false}, got)

	// Idempotent.
	assert.Equal(t, got, draft.Merge(got, remote))
	// Commutative on the ticked subset.
	assert.ElementsMatch(t, got.Ticked(), draft.Merge(remote, local).Ticked())
	// Inputs untouched.
	assert.False(t, local["b"])
}

func TestMergeDraft_Tombstones(t *testing.T) {
	t0 := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)
	local := model.Draft{
		Ticks:     model.Ticks{"a": true},
		Unticked:  map[string]time.Time{"b": t0.Add(time.Minute)},
		UpdatedAt: t0.Add(time.Minute),
	}

	older := model.Draft{Ticks: model.Ticks{"b": true, "c": true}, UpdatedAt: t0}
	got := draft.MergeDraft(local, older)
	assert.Equal(t, []string{"a", "c"}, got.Ticks.Ticked())

	newer := model.Draft{Ticks: model.Ticks{"b": true}, UpdatedAt: t0.Add(2 * time.Minute)}
	got = draft.MergeDraft(local, newer)
	assert.Equal(t, []string{"a", "b"}, got.Ticks.Ticked())
	assert.Nil(t, got.Unticked)
	assert.True(t, got.UpdatedAt.Equal(newer.UpdatedAt))
}

func TestMergeDraft_Finalized(t *testing.T) {
	t0 := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)
	local := model.Draft{Ticks: model.Ticks{"a": true}, UpdatedAt: t0}

	reset := draft.MergeDraft(local, model.Draft{Finalized: true, UpdatedAt: t0.Add(time.Second)})
	assert.True(t, reset.Finalized)
	assert.Zero(t, reset.Ticks.Count())

	kept := draft.MergeDraft(local, model.Draft{Finalized: true, UpdatedAt: t0.Add(-time.Second)})
	assert.Equal(t, 1, kept.Ticks.Count())

	// Old progress from another device does not reopen a submitted list.
	stale := draft.MergeDraft(reset, model.Draft{Ticks: model.Ticks{"z": true}, UpdatedAt: t0})
	assert.True(t, stale.Finalized)
	assert.Zero(t, stale.Ticks.Count())
}

func TestEngine_SetTickPushesWholeDraft(t *testing.T) {
	e, _, p, c := setup(t)

	_, err := e.SetTick(model.TypeOpening, model.DeptKitchen, "ko1", true)
	require.NoError(t, err)
	c.advance(time.Second)
	d, err := e.SetTick(model.TypeOpening, model.DeptKitchen, "ko2", true)
	require.NoError(t, err)

	assert.True(t, d.Pending)
	row := p.last()
	assert.Equal(t, "opening|kitchen|2026-02-27", row.Key.String())
	assert.Equal(t, "dev-a", row.Device)
	assert.Equal(t, []string{"ko1", "ko2"}, row.Ticks.Ticked())

	d, err = e.SetTick(model.TypeOpening, model.DeptKitchen, "ko1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"ko2"}, d.Ticks.Ticked())
	assert.Contains(t, d.Unticked, "ko1")
}

func TestEngine_Validation(t *testing.T) {
	e, _, _, _ := setup(t)

	_, err := e.SetTick(model.TypeTemperature, model.DeptKitchen, "x", true)
	assert.ErrorIs(t, err, errclass.ErrValidation)
	_, err = e.SetTick(model.TypeOpening, "bar", "x", true)
	assert.ErrorIs(t, err, errclass.ErrValidation)
	_, err = e.SetTick(model.TypeOpening, model.DeptKitchen, "bad id!", true)
	assert.ErrorIs(t, err, errclass.ErrValidation)
}

func TestEngine_MarkSentAndPushPending(t *testing.T) {
	e, _, p, c := setup(t)

	d, err := e.SetTick(model.TypeClosing, model.DeptFOH, "fc1", true)
	require.NoError(t, err)

	n, err := e.PushPending()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, p.rows, 2)

	k := e.Key(model.TypeClosing, model.DeptFOH)
	// An acknowledgment for an older version leaves the flag set.
	require.NoError(t, e.MarkSent(k, d.UpdatedAt.Add(-time.Second)))
	pending, err := e.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, e.MarkSent(k, d.UpdatedAt))
	pending, err = e.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	c.advance(time.Minute)
	require.NoError(t, e.Clear(model.TypeClosing, model.DeptFOH))
	got, err := e.Get(model.TypeClosing, model.DeptFOH)
	require.NoError(t, err)
	assert.True(t, got.Finalized)
	assert.Zero(t, got.Ticks.Count())
	assert.True(t, p.last().Finalized)
}

func TestEngine_ApplyRemote(t *testing.T) {
	e, _, p, c := setup(t)

	_, err := e.SetTick(model.TypeOpening, model.DeptKitchen, "ko1", true)
	require.NoError(t, err)

	rows := []sheets.DraftRow{
		{
			Key:       model.DraftKey{Type: model.TypeOpening, Dept: model.DeptKitchen, Date: "2026-02-27"},
			Device:    "dev-b",
			UpdatedAt: c.t.Add(time.Second),
			Ticks:     model.Ticks{"ko2": true, "ko3": true},
		},
		{
			Key:       model.DraftKey{Type: model.TypeOpening, Dept: model.DeptKitchen, Date: "2026-02-26"},
			UpdatedAt: c.t,
			Ticks:     model.Ticks{"old": true},
		},
	}
	changed, err := e.ApplyRemote(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	d, err := e.Get(model.TypeOpening, model.DeptKitchen)
	require.NoError(t, err)
	assert.Equal(t, []string{"ko1", "ko2", "ko3"}, d.Ticks.Ticked())

	// The remote row lacked ko1, so the union goes back out.
	assert.True(t, d.Pending)
	require.Len(t, p.rows, 2)
	assert.Equal(t, []string{"ko1", "ko2", "ko3"}, p.last().Ticks.Ticked())

	changed, err = e.ApplyRemote(rows)
	require.NoError(t, err)
	assert.Zero(t, changed, "merge must be idempotent")
	assert.Len(t, p.rows, 2)
}

func TestEngine_ApplyRemoteCaughtUp(t *testing.T) {
	e, _, p, c := setup(t)

	d, err := e.SetTick(model.TypeOpening, model.DeptKitchen, "ko1", true)
	require.NoError(t, err)
	k := e.Key(model.TypeOpening, model.DeptKitchen)
	require.NoError(t, e.MarkSent(k, d.UpdatedAt))

	changed, err := e.ApplyRemote([]sheets.DraftRow{{
		Key:       k,
		Device:    "dev-b",
		UpdatedAt: c.t.Add(time.Second),
		Ticks:     model.Ticks{"ko1": true, "ko2": true},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Len(t, p.rows, 1, "a row already holding every tick is not pushed again")

	pending, err := e.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAhead(t *testing.T) {
	t0 := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC)
	local := model.Draft{Ticks: model.Ticks{"a": true, "b": true}, UpdatedAt: t0}

	assert.True(t, draft.Ahead(local, model.Draft{Ticks: model.Ticks{"a": true}}))
	assert.False(t, draft.Ahead(local, model.Draft{Ticks: model.Ticks{"a": true, "b": true, "c": true}}))

	done := model.Draft{Ticks: model.Ticks{}, Finalized: true, UpdatedAt: t0}
	assert.True(t, draft.Ahead(done, model.Draft{Ticks: model.Ticks{"a": true}, UpdatedAt: t0.Add(-time.Minute)}))
	assert.False(t, draft.Ahead(done, model.Draft{Finalized: true, UpdatedAt: t0.Add(-time.Minute)}))
}

func TestEngine_Prune(t *testing.T) {
	e, st, _, c := setup(t)

	_, err := e.SetTick(model.TypeOpening, model.DeptKitchen, "ko1", true)
	require.NoError(t, err)
	c.advance(24 * time.Hour)
	_, err = e.SetTick(model.TypeClosing, model.DeptKitchen, "kc1", true)
	require.NoError(t, err)

	n, err := e.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, err := st.DraftKeys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "closing|kitchen|2026-02-28", keys[0].String())

	n, err = e.Prune()
	require.NoError(t, err)
	assert.Zero(t, n)
}
