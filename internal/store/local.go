package store

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

// Persisted keys.
const (
	KeyRecords     = "records"
	KeyConfig      = "config"
	KeySettings    = "settings"
	KeyDevice      = "device"
	KeyQueue       = "queue"
	KeyLastPull    = "last_pull"
	KeyCompletions = "task_completions"
	KeyOneOffTasks = "oneoff_tasks"
	draftPrefix    = "draft/"
)

// Change is delivered to subscribers after a key was written or deleted.
type Change struct {
	Key string
}

// IsDraft reports whether the change touched a checklist draft.
func (c Change) IsDraft() bool { return strings.HasPrefix(c.Key, draftPrefix) }

// Local is the typed view of the device store. Every read-modify-write
// runs under one mutex, so concurrent pushes, pulls and CLI actions never
// lose each other's updates.
type Local struct {
	kv KV
	mu sync.Mutex

	subMu sync.Mutex
	subs  map[int]chan Change
	next  int
}

// New wraps a KV backend.
func New(kv KV) *Local {
	return &Local{kv: kv, subs: make(map[int]chan Change)}
}

// Open opens a backend by driver name and wraps it.
func Open(driver, path string) (*Local, error) {
	kv, err := OpenKV(driver, path)
	if err != nil {
		return nil, err
	}
	return New(kv), nil
}

// Close closes the backend and every subscription.
func (l *Local) Close() error {
	l.subMu.Lock()
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
	l.subMu.Unlock()
	return l.kv.Close()
}

// Subscribe returns a channel of changes and a cancel function. Slow
// subscribers miss changes rather than block writers.
func (l *Local) Subscribe(buffer int) (<-chan Change, func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	id := l.next
	l.next++
	ch := make(chan Change, buffer)
	l.subs[id] = ch
	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if c, ok := l.subs[id]; ok {
			close(c)
			delete(l.subs, id)
		}
	}
}

func (l *Local) notify(key string) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		select {
		case ch <- Change{Key: key}:
		default:
		}
	}
}

// Get decodes the value at key into dst.
func (l *Local) Get(key string, dst any) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getLocked(key, dst)
}

// Set encodes v and stores it at key.
func (l *Local) Set(key string, v any) error {
	l.mu.Lock()
	err := l.setLocked(key, v)
	l.mu.Unlock()
	if err == nil {
		l.notify(key)
	}
	return err
}

// Delete removes key.
func (l *Local) Delete(key string) error {
	l.mu.Lock()
	err := l.kv.Delete(key)
	l.mu.Unlock()
	if err == nil {
		l.notify(key)
	}
	return err
}

func (l *Local) getLocked(key string, dst any) (bool, error) {
	data, ok, err := l.kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, errclass.ErrStore.WithMessagef("decode %s: %v", key, err)
	}
	return true, nil
}

func (l *Local) setLocked(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errclass.ErrStore.WithMessagef("encode %s: %v", key, err)
	}
	return l.kv.Set(key, data)
}

// ErrUnchanged may be returned by an update callback to skip the write.
// The update itself then returns nil and subscribers are not notified.
var ErrUnchanged = errors.New("store: unchanged")

// update runs fn on the decoded value at key and stores the result when
// fn returns nil. The whole cycle holds the store mutex.
func update[T any](l *Local, key string, fn func(v *T, found bool) error) error {
	l.mu.Lock()
	var v T
	found, err := l.getLocked(key, &v)
	if err == nil {
		err = fn(&v, found)
	}
	if errors.Is(err, ErrUnchanged) {
		l.mu.Unlock()
		return nil
	}
	if err == nil {
		err = l.setLocked(key, v)
	}
	l.mu.Unlock()
	if err == nil {
		l.notify(key)
	}
	return err
}

// Records returns every stored record in insertion order.
func (l *Local) Records() ([]model.Record, error) {
	var recs []model.Record
	_, err := l.Get(KeyRecords, &recs)
	return recs, err
}

// AppendRecord adds a record, replacing one with the same id.
func (l *Local) AppendRecord(rec model.Record) error {
	return update(l, KeyRecords, func(recs *[]model.Record, _ bool) error {
		for i := range *recs {
			if (*recs)[i].ID == rec.ID {
				(*recs)[i] = rec
				return nil
			}
		}
		*recs = append(*recs, rec)
		return nil
	})
}

// UpdateRecords atomically rewrites the record list.
func (l *Local) UpdateRecords(fn func([]model.Record) ([]model.Record, error)) error {
	return update(l, KeyRecords, func(recs *[]model.Record, _ bool) error {
		out, err := fn(*recs)
		if err != nil {
			return err
		}
		*recs = out
		return nil
	})
}

// Queue returns records waiting to be pushed.
func (l *Local) Queue() ([]model.Record, error) {
	var q []model.Record
	_, err := l.Get(KeyQueue, &q)
	return q, err
}

// Enqueue adds rec to the pending queue unless a record with the same id
// is already queued. It reports whether the queue grew.
func (l *Local) Enqueue(rec model.Record) (bool, error) {
	added := false
	err := update(l, KeyQueue, func(q *[]model.Record, _ bool) error {
		for _, r := range *q {
			if r.ID == rec.ID {
				return nil
			}
		}
		*q = append(*q, rec)
		added = true
		return nil
	})
	return added, err
}

// Dequeue removes the record with id from the queue.
func (l *Local) Dequeue(id string) error {
	return update(l, KeyQueue, func(q *[]model.Record, _ bool) error {
		out := (*q)[:0]
		for _, r := range *q {
			if r.ID != id {
				out = append(out, r)
			}
		}
		*q = out
		return nil
	})
}

func draftStoreKey(k model.DraftKey) string {
	return draftPrefix + string(k.Type) + "/" + string(k.Dept) + "/" + k.Date
}

// Draft loads the draft for k.
func (l *Local) Draft(k model.DraftKey) (model.Draft, bool, error) {
	var d model.Draft
	found, err := l.Get(draftStoreKey(k), &d)
	if d.Ticks == nil {
		d.Ticks = model.Ticks{}
	}
	return d, found, err
}

// UpdateDraft atomically mutates the draft for k, creating it if absent.
func (l *Local) UpdateDraft(k model.DraftKey, fn func(d *model.Draft, found bool) error) error {
	return update(l, draftStoreKey(k), func(d *model.Draft, found bool) error {
		if d.Ticks == nil {
			d.Ticks = model.Ticks{}
		}
		return fn(d, found)
	})
}

// DeleteDraft removes the draft for k.
func (l *Local) DeleteDraft(k model.DraftKey) error {
	return l.Delete(draftStoreKey(k))
}

// DraftKeys lists every stored draft.
func (l *Local) DraftKeys() ([]model.DraftKey, error) {
	l.mu.Lock()
	keys, err := l.kv.Keys(draftPrefix)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]model.DraftKey, 0, len(keys))
	for _, k := range keys {
		parts := strings.SplitN(strings.TrimPrefix(k, draftPrefix), "/", 3)
		if len(parts) != 3 {
			continue
		}
		out = append(out, model.DraftKey{
			Type: model.RecordType(parts[0]),
			Dept: model.Department(parts[1]),
			Date: parts[2],
		})
	}
	return out, nil
}

// Settings returns the saved settings blob, if any. Callers merge it over
// the defaults.
func (l *Local) Settings() (model.Settings, bool, error) {
	var s model.Settings
	found, err := l.Get(KeySettings, &s)
	return s, found, err
}

// SaveSettings stores the settings blob.
func (l *Local) SaveSettings(s model.Settings) error {
	return l.Set(KeySettings, s)
}

// Device returns the device identity, if set up.
func (l *Local) Device() (model.Device, bool, error) {
	var d model.Device
	found, err := l.Get(KeyDevice, &d)
	return d, found, err
}

// SaveDevice stores the device identity.
func (l *Local) SaveDevice(d model.Device) error {
	return l.Set(KeyDevice, d)
}

type connection struct {
	Endpoint string `json:"endpoint"`
}

// Endpoint returns the endpoint saved with connect, if any.
func (l *Local) Endpoint() (string, error) {
	var c connection
	_, err := l.Get(KeyConfig, &c)
	return c.Endpoint, err
}

// SetEndpoint saves the remote endpoint; an empty url disconnects.
func (l *Local) SetEndpoint(url string) error {
	if url == "" {
		return l.Delete(KeyConfig)
	}
	return l.Set(KeyConfig, connection{Endpoint: url})
}

// LastPull returns the time of the last successful pull.
func (l *Local) LastPull() (time.Time, error) {
	var t time.Time
	_, err := l.Get(KeyLastPull, &t)
	return t, err
}

// SetLastPull records a successful pull.
func (l *Local) SetLastPull(t time.Time) error {
	return l.Set(KeyLastPull, t.UTC())
}

// Completions returns task completions keyed by model.CompletionKey.
func (l *Local) Completions() (map[string]model.TaskCompletion, error) {
	c := map[string]model.TaskCompletion{}
	_, err := l.Get(KeyCompletions, &c)
	return c, err
}

// UpdateCompletions atomically mutates the completion map.
func (l *Local) UpdateCompletions(fn func(c map[string]model.TaskCompletion) error) error {
	return update(l, KeyCompletions, func(c *map[string]model.TaskCompletion, _ bool) error {
		if *c == nil {
			*c = map[string]model.TaskCompletion{}
		}
		return fn(*c)
	})
}

// OneOffTasks returns every one-off task.
func (l *Local) OneOffTasks() ([]model.OneOffTask, error) {
	var t []model.OneOffTask
	_, err := l.Get(KeyOneOffTasks, &t)
	return t, err
}

// UpdateOneOffTasks atomically rewrites the one-off task list.
func (l *Local) UpdateOneOffTasks(fn func([]model.OneOffTask) ([]model.OneOffTask, error)) error {
	return update(l, KeyOneOffTasks, func(t *[]model.OneOffTask, _ bool) error {
		out, err := fn(*t)
		if err != nil {
			return err
		}
		*t = out
		return nil
	})
}
