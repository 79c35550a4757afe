package model

import (
	"time"

	"github.com/safechecks/safechecks/pkg/errclass"
)

// Weekday names the day a task is scheduled on.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the days in week order, Monday first.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// Index returns the Monday-based index (Mon=0 … Sun=6), or -1.
func (w Weekday) Index() int {
	for i, d := range Weekdays() {
		if d == w {
			return i
		}
	}
	return -1
}

// ParseWeekday validates a day name.
func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(s)
	if w.Index() < 0 {
		return "", errclass.ErrValidation.WithMessagef("unknown weekday %q", s)
	}
	return w, nil
}

// WeekdayOf maps a time to its Weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekdays()[(int(t.Weekday())+6)%7]
}

// Task is a recurring weekly task configured in settings.
type Task struct {
	ID      string     `json:"id" yaml:"id"`
	Label   string     `json:"label" yaml:"label"`
	Day     Weekday    `json:"day" yaml:"day"`
	Dept    Department `json:"dept" yaml:"dept"`
	Enabled bool       `json:"enabled" yaml:"enabled"`
}

// OneOffTask applies to a single week only.
type OneOffTask struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Day       Weekday    `json:"day"`
	Dept      Department `json:"dept"`
	WeekStart string     `json:"weekStart"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TaskCompletion is the completion state of one task in one week.
type TaskCompletion struct {
	StaffName string `json:"staffName"`
	Timestamp string `json:"timestamp"`
	Done      bool   `json:"done"`
	Source    Source `json:"source,omitempty"`
}

// CompletionKey is the store key of a completion: week start and task id.
func CompletionKey(weekStart, taskID string) string {
	return weekStart + "__" + taskID
}

// WeekStartOf returns midnight of the Monday of t's week. Sunday belongs
// to the week that started six days earlier.
func WeekStartOf(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -WeekdayOf(t).Index())
}
