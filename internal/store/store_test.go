package store_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]store.KV {
	t.Helper()
	dir := t.TempDir()
	fileKV, err := store.OpenKV(store.DriverFile, filepath.Join(dir, "kv"))
	require.NoError(t, err)
	sqliteKV, err := store.OpenKV(store.DriverSQLite, filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		fileKV.Close()
		sqliteKV.Close()
	})
	return map[string]store.KV{"file": fileKV, "sqlite": sqliteKV}
}

func TestKV_Contract(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set("draft/opening/kitchen/2026-02-27", []byte(`{"ticks":{}}`)))
			require.NoError(t, kv.Set("draft/closing/foh/2026-02-27", []byte(`{}`)))
			require.NoError(t, kv.Set("records", []byte(`[]`)))

			v, ok, err := kv.Get("draft/opening/kitchen/2026-02-27")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"ticks":{}}`, string(v))

			keys, err := kv.Keys("draft/")
			require.NoError(t, err)
			assert.Equal(t, []string{"draft/closing/foh/2026-02-27", "draft/opening/kitchen/2026-02-27"}, keys)

			require.NoError(t, kv.Set("records", []byte(`[{"id":"r1"}]`)))
			v, _, _ = kv.Get("records")
			assert.JSONEq(t, `[{"id":"r1"}]`, string(v))

			require.NoError(t, kv.Delete("records"))
			require.NoError(t, kv.Delete("records"))
			_, ok, _ = kv.Get("records")
			assert.False(t, ok)
		})
	}
}

func TestOpenKV_UnknownDriver(t *testing.T) {
	_, err := store.OpenKV("redis", t.TempDir())
	assert.Error(t, err)
}

func newLocal(t *testing.T) *store.Local {
	t.Helper()
	l, err := store.Open(store.DriverFile, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLocal_EnqueueDedupByID(t *testing.T) {
	l := newLocal(t)
	rec := model.Record{ID: "r1", Type: model.TypeTemperature}

	added, err := l.Enqueue(rec)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = l.Enqueue(rec)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = l.Enqueue(model.Record{ID: "r2"})
	require.NoError(t, err)

	q, err := l.Queue()
	require.NoError(t, err)
	assert.Len(t, q, 2)

	require.NoError(t, l.Dequeue("r1"))
	q, _ = l.Queue()
	require.Len(t, q, 1)
	assert.Equal(t, "r2", q[0].ID)
}

func TestLocal_AppendRecordReplacesSameID(t *testing.T) {
	l := newLocal(t)
	require.NoError(t, l.AppendRecord(model.Record{ID: "a", Summary: "first"}))
	require.NoError(t, l.AppendRecord(model.Record{ID: "b"}))
	require.NoError(t, l.AppendRecord(model.Record{ID: "a", Summary: "second"}))

	recs, err := l.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "second", recs[0].Summary)
}

func TestLocal_Drafts(t *testing.T) {
	l := newLocal(t)
	k := model.DraftKey{Type: model.TypeOpening, Dept: model.DeptKitchen, Date: "2026-02-27"}

	d, found, err := l.Draft(k)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, d.Ticks)

	require.NoError(t, l.UpdateDraft(k, func(d *model.Draft, found bool) error {
		assert.False(t, found)
		d.Ticks["ko1"] = true
		return nil
	}))

	d, found, err = l.Draft(k)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, d.Ticks["ko1"])

	keys, err := l.DraftKeys()
	require.NoError(t, err)
	assert.Equal(t, []model.DraftKey{k}, keys)

	require.NoError(t, l.DeleteDraft(k))
	keys, _ = l.DraftKeys()
	assert.Empty(t, keys)
}

func TestLocal_ConcurrentAppends(t *testing.T) {
	l := newLocal(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Enqueue(model.Record{ID: string(rune('a' + i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	q, err := l.Queue()
	require.NoError(t, err)
	assert.Len(t, q, 20)
}

func TestLocal_Subscribe(t *testing.T) {
	l := newLocal(t)
	ch, cancel := l.Subscribe(4)
	defer cancel()

	require.NoError(t, l.SetLastPull(time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)))

	select {
	case c := <-ch:
		assert.Equal(t, store.KeyLastPull, c.Key)
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
	}

	last, err := l.LastPull()
	require.NoError(t, err)
	assert.Equal(t, 2026, last.Year())
}

func TestLocal_EndpointAndDevice(t *testing.T) {
	l := newLocal(t)

	url, err := l.Endpoint()
	require.NoError(t, err)
	assert.Empty(t, url)

	require.NoError(t, l.SetEndpoint("https://script.example.com/exec"))
	url, _ = l.Endpoint()
	assert.Equal(t, "https://script.example.com/exec", url)

	require.NoError(t, l.SetEndpoint(""))
	url, _ = l.Endpoint()
	assert.Empty(t, url)

	require.NoError(t, l.SaveDevice(model.Device{ID: "dev", Dept: model.DeptFOH, StaffID: "s5"}))
	dev, found, err := l.Device()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, model.DeptFOH, dev.Dept)
}

func TestLocal_Completions(t *testing.T) {
	l := newLocal(t)
	key := model.CompletionKey("2026-02-23", "kt1")
	require.NoError(t, l.UpdateCompletions(func(c map[string]model.TaskCompletion) error {
		c[key] = model.TaskCompletion{StaffName: "KP", Done: true}
		return nil
	}))

	c, err := l.Completions()
	require.NoError(t, err)
	assert.True(t, c[key].Done)
}

func TestLocal_SQLiteBackend(t *testing.T) {
	l, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.AppendRecord(model.Record{ID: "x", Type: model.TypeWeekly}))
	recs, err := l.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.TypeWeekly, recs[0].Type)
}
