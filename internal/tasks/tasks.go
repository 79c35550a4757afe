// Package tasks schedules weekly tasks per department: recurring tasks from
// settings plus one-off tasks for a single week, with completion state
// keyed by (week start, task id).
package tasks

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/safechecks/safechecks/internal/store"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/logging"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/textutil"
)

// WeekStart returns the Monday-anchored week key of t.
func WeekStart(t time.Time) string {
	return model.WeekStartOf(t).Format(model.DateLayout)
}

// DayDate returns the calendar date of day in the week starting weekStart.
func DayDate(weekStart string, day model.Weekday) (time.Time, error) {
	start, err := time.Parse(model.DateLayout, weekStart)
	if err != nil {
		return time.Time{}, errclass.ErrValidation.WithMessagef("week start %q", weekStart)
	}
	idx := day.Index()
	if idx < 0 {
		return time.Time{}, errclass.ErrValidation.WithMessagef("unknown weekday %q", day)
	}
	return start.AddDate(0, 0, idx), nil
}

// IsOverdue reports whether an undone task scheduled on day of the week
// starting weekStart is late at now. Only the current week has overdue
// tasks: one is late once its day has passed.
func IsOverdue(weekStart string, day model.Weekday, done bool, now time.Time) bool {
	if done || day.Index() < 0 || weekStart != WeekStart(now) {
		return false
	}
	return day.Index() < model.WeekdayOf(now).Index()
}

// Item is a task in the active set of a week with its completion state.
type Item struct {
	ID      string           `json:"id"`
	Label   string           `json:"label"`
	Day     model.Weekday    `json:"day"`
	Dept    model.Department `json:"dept"`
	OneOff  bool             `json:"oneOff"`
	Done    bool             `json:"done"`
	DoneBy  string           `json:"doneBy,omitempty"`
	Overdue bool             `json:"overdue"`
}

// Summary is the dashboard digest of a department's week.
type Summary struct {
	WeekStart string `json:"weekStart"`
	Today     []Item `json:"today"`
	Overdue   []Item `json:"overdue"`
	DoneToday int    `json:"doneToday"`
}

// Scheduler reads and writes task state in the local store.
type Scheduler struct {
	store *store.Local
	now   func() time.Time
}

// NewScheduler creates a scheduler.
func NewScheduler(st *store.Local) *Scheduler {
	return &Scheduler{store: st, now: time.Now}
}

// SetClock overrides time.Now.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// CurrentWeek returns this week's key.
func (s *Scheduler) CurrentWeek() string { return WeekStart(s.now()) }

func visible(viewer, owner model.Department) bool {
	return viewer.SeesAll() || viewer == owner
}

// Active returns the tasks of dept for weekStart: enabled recurring tasks
// followed by that week's one-off tasks, each with its completion state.
// Management sees every department.
func (s *Scheduler) Active(settings model.Settings, dept model.Department, weekStart string) ([]Item, error) {
	oneOffs, err := s.store.OneOffTasks()
	if err != nil {
		return nil, err
	}
	done, err := s.store.Completions()
	if err != nil {
		return nil, err
	}
	now := s.now()

	var out []Item
	add := func(it Item) {
		c, ok := done[model.CompletionKey(weekStart, it.ID)]
		if ok && c.Done {
			it.Done = true
			it.DoneBy = c.StaffName
		}
		it.Overdue = IsOverdue(weekStart, it.Day, it.Done, now)
		out = append(out, it)
	}
	for _, t := range settings.Tasks {
		if t.Enabled && visible(dept, t.Dept) {
			add(Item{ID: t.ID, Label: t.Label, Day: t.Day, Dept: t.Dept})
		}
	}
	for _, t := range oneOffs {
		if t.WeekStart == weekStart && visible(dept, t.Dept) {
			add(Item{ID: t.ID, Label: t.Label, Day: t.Day, Dept: t.Dept, OneOff: true})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.Index() < out[j].Day.Index() })
	return out, nil
}

// MarkDone records a completion by staff for the task in weekStart.
func (s *Scheduler) MarkDone(weekStart, taskID, staff string) (model.TaskCompletion, error) {
	if err := textutil.ValidateID(taskID); err != nil {
		return model.TaskCompletion{}, err
	}
	if _, err := time.Parse(model.DateLayout, weekStart); err != nil {
		return model.TaskCompletion{}, errclass.ErrValidation.WithMessagef("week start %q", weekStart)
	}
	c := model.TaskCompletion{
		StaffName: staff,
		Timestamp: s.now().Format(model.TimestampLayout),
		Done:      true,
		Source:    model.SourceLocal,
	}
	err := s.store.UpdateCompletions(func(m map[string]model.TaskCompletion) error {
		m[model.CompletionKey(weekStart, taskID)] = c
		return nil
	})
	return c, err
}

// Undo reopens a task. The completion is kept as a not-done entry so a
// later pull does not bring the remote completion record back.
func (s *Scheduler) Undo(weekStart, taskID string) error {
	return s.store.UpdateCompletions(func(m map[string]model.TaskCompletion) error {
		key := model.CompletionKey(weekStart, taskID)
		c, ok := m[key]
		if !ok || !c.Done {
			return errclass.ErrNotFound.WithMessagef("task %s is not done in week %s", taskID, weekStart)
		}
		c.Done = false
		c.Source = model.SourceLocal
		c.Timestamp = s.now().Format(model.TimestampLayout)
		m[key] = c
		return nil
	})
}

// AddOneOff schedules a task for a single week.
func (s *Scheduler) AddOneOff(label string, day model.Weekday, dept model.Department, weekStart, createdBy string) (model.OneOffTask, error) {
	label, err := textutil.ValidateLabel("task", label)
	if err != nil {
		return model.OneOffTask{}, err
	}
	if day.Index() < 0 {
		return model.OneOffTask{}, errclass.ErrValidation.WithMessagef("unknown weekday %q", day)
	}
	if !dept.Valid() {
		return model.OneOffTask{}, errclass.ErrValidation.WithMessagef("unknown department %q", dept)
	}
	if _, err := time.Parse(model.DateLayout, weekStart); err != nil {
		return model.OneOffTask{}, errclass.ErrValidation.WithMessagef("week start %q", weekStart)
	}

	t := model.OneOffTask{
		ID:        "ot_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Label:     label,
		Day:       day,
		Dept:      dept,
		WeekStart: weekStart,
		CreatedBy: createdBy,
		CreatedAt: s.now().UTC(),
	}
	err = s.store.UpdateOneOffTasks(func(list []model.OneOffTask) ([]model.OneOffTask, error) {
		return append(list, t), nil
	})
	return t, err
}

// RemoveOneOff deletes a one-off task.
func (s *Scheduler) RemoveOneOff(id string) error {
	return s.store.UpdateOneOffTasks(func(list []model.OneOffTask) ([]model.OneOffTask, error) {
		out := list[:0]
		found := false
		for _, t := range list {
			if t.ID == id {
				found = true
				continue
			}
			out = append(out, t)
		}
		if !found {
			return nil, errclass.ErrNotFound.WithMessagef("one-off task %s", id)
		}
		return out, nil
	})
}

// Bridge copies task_completion records into the completion map where no
// entry exists for their (week, task) key yet. It returns how many were
// added.
func (s *Scheduler) Bridge(records []model.Record) (int, error) {
	added := 0
	err := s.store.UpdateCompletions(func(m map[string]model.TaskCompletion) error {
		for _, rec := range records {
			if rec.Type != model.TypeTaskCompletion {
				continue
			}
			typed, err := rec.Typed()
			if err != nil {
				continue
			}
			f := typed.(model.TaskCompletionFields)
			if f.TaskID == "" || f.WeekStart == "" {
				logging.Debug("task completion without task or week", map[string]any{"record_id": rec.ID})
				continue
			}
			key := model.CompletionKey(f.WeekStart, f.TaskID)
			if _, ok := m[key]; ok {
				continue
			}
			source := model.SourceLocal
			if rec.Remote() {
				source = model.SourceRemote
			}
			m[key] = model.TaskCompletion{
				StaffName: f.DoneBy,
				Timestamp: rec.Timestamp,
				Done:      true,
				Source:    source,
			}
			added++
		}
		if added == 0 {
			return store.ErrUnchanged
		}
		return nil
	})
	return added, err
}

// Summarize returns today's tasks, overdue tasks and how many of today's
// are done, for the current week.
func (s *Scheduler) Summarize(settings model.Settings, dept model.Department) (Summary, error) {
	week := s.CurrentWeek()
	items, err := s.Active(settings, dept, week)
	if err != nil {
		return Summary{}, err
	}
	today := model.WeekdayOf(s.now())
	sum := Summary{WeekStart: week}
	for _, it := range items {
		if it.Day == today {
			sum.Today = append(sum.Today, it)
			if it.Done {
				sum.DoneToday++
			}
		}
		if it.Overdue {
			sum.Overdue = append(sum.Overdue, it)
		}
	}
	return sum, nil
}

// Undone lists every department's unfinished tasks this week.
func (s *Scheduler) Undone(settings model.Settings) ([]Item, error) {
	items, err := s.Active(settings, model.DeptMgmt, s.CurrentWeek())
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if !it.Done {
			out = append(out, it)
		}
	}
	return out, nil
}
