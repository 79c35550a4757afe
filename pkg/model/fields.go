package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Field keys of the non-checklist record types.
const (
	KeyTempLocation  = "temp_location"
	KeyTempValue     = "temp_value"
	KeyTempUnit      = "temp_unit"
	KeyTempProbe     = "temp_probe"
	KeyTempStatus    = "temp_status"
	KeyTempAction    = "temp_corrective_action"
	KeyTempLoggedBy  = "temp_logged_by"
	KeyProbeProduct  = "probe_product"
	KeyProbeTemp     = "probe_temp"
	KeyProbeStatus   = "probe_status"
	KeyProbeUsed     = "probe_used"
	KeyProbeAction   = "probe_action"
	KeyProbeStaff    = "probe_staff"
	KeyTaskID        = "task_id"
	KeyTaskWeek      = "task_week"
	KeyTaskDoneBy    = "task_done_by"
	KeyTaskDate      = "task_date"
	KeyWeeklyRating  = "weekly_rating"
	TickYes          = "Yes"
	TickNo           = "No"
	DefaultAction    = "None required"
	DefaultTempUnit  = "°C"
	checkNotesSuffix = "_notes"
	checkSignSuffix  = "_signed_by"
)

// FieldSet is the typed view of a record's fields. Each record type has
// exactly one implementation; the open Fields map is only used at the
// storage and wire boundary.
type FieldSet interface {
	RecordType() RecordType
	Fields() Fields
}

// Check is one checklist line and whether it was ticked.
type Check struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Ticked bool   `json:"ticked"`
}

// ChecklistFields covers opening, closing, cleaning and weekly records.
type ChecklistFields struct {
	Type     RecordType
	Checks   []Check
	Notes    string
	SignedBy string
	// Rating is only used by weekly reviews.
	Rating string
}

// ChecklistPrefix returns the field-key prefix of a checklist type.
func ChecklistPrefix(t RecordType) string {
	switch t {
	case TypeOpening:
		return "open"
	case TypeClosing:
		return "close"
	case TypeCleaning:
		return "clean"
	case TypeWeekly:
		return "weekly"
	}
	return string(t)
}

// SignedByKey is the field key holding the checklist signature.
func SignedByKey(t RecordType) string { return ChecklistPrefix(t) + checkSignSuffix }

// NotesKey is the field key holding free-text checklist notes.
func NotesKey(t RecordType) string { return ChecklistPrefix(t) + checkNotesSuffix }

func (c ChecklistFields) RecordType() RecordType { return c.Type }

func (c ChecklistFields) Fields() Fields {
	f := make(Fields, len(c.Checks)+3)
	for _, ch := range c.Checks {
		if ch.Ticked {
			f[ch.ID] = TickYes
		} else {
			f[ch.ID] = TickNo
		}
	}
	if c.Notes != "" {
		f[NotesKey(c.Type)] = c.Notes
	}
	f[SignedByKey(c.Type)] = c.SignedBy
	if c.Type == TypeWeekly && c.Rating != "" {
		f[KeyWeeklyRating] = c.Rating
	}
	return f
}

// Passed counts ticked checks.
func (c ChecklistFields) Passed() int {
	n := 0
	for _, ch := range c.Checks {
		if ch.Ticked {
			n++
		}
	}
	return n
}

// Total counts all checks.
func (c ChecklistFields) Total() int { return len(c.Checks) }

// TickedIDs returns the ids of ticked checks in checklist order.
func (c ChecklistFields) TickedIDs() []string {
	var out []string
	for _, ch := range c.Checks {
		if ch.Ticked {
			out = append(out, ch.ID)
		}
	}
	return out
}

// UntickedIDs returns the ids of unticked checks in checklist order.
func (c ChecklistFields) UntickedIDs() []string {
	var out []string
	for _, ch := range c.Checks {
		if !ch.Ticked {
			out = append(out, ch.ID)
		}
	}
	return out
}

// TemperatureFields is an equipment temperature reading.
type TemperatureFields struct {
	Location         string
	Value            string
	Unit             string
	Probe            string
	Status           Status
	CorrectiveAction string
	LoggedBy         string
}

func (TemperatureFields) RecordType() RecordType { return TypeTemperature }

func (t TemperatureFields) Fields() Fields {
	unit := t.Unit
	if unit == "" {
		unit = DefaultTempUnit
	}
	action := t.CorrectiveAction
	if action == "" {
		action = DefaultAction
	}
	return Fields{
		KeyTempLocation: t.Location,
		KeyTempValue:    t.Value,
		KeyTempUnit:     unit,
		KeyTempProbe:    t.Probe,
		KeyTempStatus:   string(t.Status),
		KeyTempAction:   action,
		KeyTempLoggedBy: t.LoggedBy,
	}
}

// FoodProbeFields is a core temperature reading of cooked food.
type FoodProbeFields struct {
	Product string
	Temp    string
	Status  Status
	Probe   string
	Action  string
	Staff   string
}

func (FoodProbeFields) RecordType() RecordType { return TypeFoodProbe }

func (p FoodProbeFields) Fields() Fields {
	return Fields{
		KeyProbeProduct: p.Product,
		KeyProbeTemp:    p.Temp,
		KeyProbeStatus:  string(p.Status),
		KeyProbeUsed:    p.Probe,
		KeyProbeAction:  p.Action,
		KeyProbeStaff:   p.Staff,
	}
}

// TaskCompletionFields marks a weekly task done.
type TaskCompletionFields struct {
	TaskID    string
	WeekStart string
	DoneBy    string
	DoneDate  string
}

func (TaskCompletionFields) RecordType() RecordType { return TypeTaskCompletion }

func (t TaskCompletionFields) Fields() Fields {
	return Fields{
		KeyTaskID:     t.TaskID,
		KeyTaskWeek:   t.WeekStart,
		KeyTaskDoneBy: t.DoneBy,
		KeyTaskDate:   t.DoneDate,
	}
}

// DecodeFields builds the typed variant for t from an open field map.
// Unknown keys of non-checklist types are ignored.
func DecodeFields(t RecordType, f Fields) (FieldSet, error) {
	switch t {
	case TypeTemperature:
		return TemperatureFields{
			Location:         f[KeyTempLocation],
			Value:            f[KeyTempValue],
			Unit:             f[KeyTempUnit],
			Probe:            f[KeyTempProbe],
			Status:           Status(f[KeyTempStatus]),
			CorrectiveAction: f[KeyTempAction],
			LoggedBy:         f[KeyTempLoggedBy],
		}, nil
	case TypeFoodProbe:
		return FoodProbeFields{
			Product: f[KeyProbeProduct],
			Temp:    f[KeyProbeTemp],
			Status:  Status(f[KeyProbeStatus]),
			Probe:   f[KeyProbeUsed],
			Action:  f[KeyProbeAction],
			Staff:   f[KeyProbeStaff],
		}, nil
	case TypeTaskCompletion:
		return TaskCompletionFields{
			TaskID:    f[KeyTaskID],
			WeekStart: f[KeyTaskWeek],
			DoneBy:    f[KeyTaskDoneBy],
			DoneDate:  f[KeyTaskDate],
		}, nil
	case TypeOpening, TypeClosing, TypeCleaning, TypeWeekly:
		return decodeChecklist(t, f), nil
	}
	return nil, fmt.Errorf("decode fields: unknown record type %q", t)
}

func decodeChecklist(t RecordType, f Fields) ChecklistFields {
	c := ChecklistFields{
		Type:     t,
		Notes:    f[NotesKey(t)],
		SignedBy: f[SignedByKey(t)],
	}
	if t == TypeWeekly {
		c.Rating = f[KeyWeeklyRating]
	}
	meta := map[string]bool{NotesKey(t): true, SignedByKey(t): true, KeyWeeklyRating: true}
	ids := make([]string, 0, len(f))
	for k, v := range f {
		if meta[k] {
			continue
		}
		if v == TickYes || v == TickNo {
			ids = append(ids, k)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return NaturalLess(ids[i], ids[j]) })
	for _, id := range ids {
		c.Checks = append(c.Checks, Check{ID: id, Ticked: f[id] == TickYes})
	}
	return c
}

// NaturalLess orders ids so that embedded numbers compare numerically
// (ko2 before ko10).
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, ra := splitDigits(a)
		db, rb := splitDigits(b)
		if da != "" && db != "" {
			na, _ := strconv.Atoi(da)
			nb, _ := strconv.Atoi(db)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func splitDigits(s string) (string, string) {
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
