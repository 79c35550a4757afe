// Package settings owns the venue configuration: the built-in defaults,
// merging of saved settings over them, and the per-department views the
// other components query.
package settings

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/textutil"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	defaultsOnce sync.Once
	defaults     model.Settings
	defaultsErr  error
)

// Defaults returns a fresh copy of the built-in settings.
func Defaults() model.Settings {
	defaultsOnce.Do(func() {
		defaultsErr = yaml.Unmarshal(defaultsYAML, &defaults)
	})
	if defaultsErr != nil {
		panic(fmt.Sprintf("settings: embedded defaults are invalid: %v", defaultsErr))
	}
	return Clone(defaults)
}

// Clone deep-copies s.
func Clone(s model.Settings) model.Settings {
	out := s
	out.OpeningTimes = cloneMap(s.OpeningTimes)
	out.ClosingTimes = cloneMap(s.ClosingTimes)
	out.Staff = append([]model.StaffMember(nil), s.Staff...)
	out.Equipment = append([]model.Equipment(nil), s.Equipment...)
	out.ProbeProducts = append([]model.ProbeProduct(nil), s.ProbeProducts...)
	out.Tasks = append([]model.Task(nil), s.Tasks...)
	out.SharedChecks = cloneSections(s.SharedChecks)
	if s.Checks != nil {
		out.Checks = make(map[model.Department]map[model.RecordType][]model.CheckItem, len(s.Checks))
		for d, sections := range s.Checks {
			out.Checks[d] = cloneSections(sections)
		}
	}
	return out
}

func cloneMap(m map[model.Department]string) map[model.Department]string {
	if m == nil {
		return nil
	}
	out := make(map[model.Department]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSections(m map[model.RecordType][]model.CheckItem) map[model.RecordType][]model.CheckItem {
	if m == nil {
		return nil
	}
	out := make(map[model.RecordType][]model.CheckItem, len(m))
	for k, v := range m {
		out[k] = append([]model.CheckItem(nil), v...)
	}
	return out
}

// Merge lays saved over def. Lists present in saved replace the default
// list wholesale (an empty list is a deliberate choice); time maps and
// per-department check sections are merged key by key.
func Merge(def, saved model.Settings) model.Settings {
	m := Clone(def)
	if saved.RestaurantName != "" {
		m.RestaurantName = saved.RestaurantName
	}
	if saved.OpeningTimes != nil {
		if m.OpeningTimes == nil {
			m.OpeningTimes = map[model.Department]string{}
		}
		for k, v := range saved.OpeningTimes {
			m.OpeningTimes[k] = v
		}
	}
	if saved.ClosingTimes != nil {
		if m.ClosingTimes == nil {
			m.ClosingTimes = map[model.Department]string{}
		}
		for k, v := range saved.ClosingTimes {
			m.ClosingTimes[k] = v
		}
	}
	if saved.Staff != nil {
		m.Staff = append([]model.StaffMember(nil), saved.Staff...)
	}
	if saved.Equipment != nil {
		m.Equipment = append([]model.Equipment(nil), saved.Equipment...)
	}
	if saved.SharedChecks != nil {
		m.SharedChecks = cloneSections(saved.SharedChecks)
	}
	if saved.Tasks != nil {
		m.Tasks = append([]model.Task(nil), saved.Tasks...)
	}
	if saved.ProbeProducts != nil {
		m.ProbeProducts = append([]model.ProbeProduct(nil), saved.ProbeProducts...)
	}
	for _, d := range model.Departments() {
		sections, ok := saved.Checks[d]
		if !ok {
			continue
		}
		if m.Checks == nil {
			m.Checks = map[model.Department]map[model.RecordType][]model.CheckItem{}
		}
		if m.Checks[d] == nil {
			m.Checks[d] = map[model.RecordType][]model.CheckItem{}
		}
		for sec, items := range sections {
			m.Checks[d][sec] = append([]model.CheckItem(nil), items...)
		}
	}
	return m
}

// ActiveChecks returns the enabled checks of a section for a department:
// shared checks first, then the department's own.
func ActiveChecks(s model.Settings, dept model.Department, section model.RecordType) []model.CheckItem {
	var out []model.CheckItem
	for _, c := range s.SharedChecks[section] {
		if c.Enabled {
			out = append(out, c)
		}
	}
	for _, c := range s.Checks[dept][section] {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out
}

// DeptEquipment returns the department's equipment plus shared items.
// Management sees everything.
func DeptEquipment(s model.Settings, dept model.Department) []model.Equipment {
	if dept.SeesAll() {
		return append([]model.Equipment(nil), s.Equipment...)
	}
	var out []model.Equipment
	for _, e := range s.Equipment {
		if e.Dept == dept || e.Dept == model.DeptShared {
			out = append(out, e)
		}
	}
	return out
}

// DeptStaff returns staff of the department. Management sees everyone.
func DeptStaff(s model.Settings, dept model.Department) []model.StaffMember {
	if dept.SeesAll() {
		return append([]model.StaffMember(nil), s.Staff...)
	}
	var out []model.StaffMember
	for _, m := range s.Staff {
		if m.Dept == dept {
			out = append(out, m)
		}
	}
	return out
}

// FindEquipment looks up equipment by id or by case-insensitive name.
func FindEquipment(s model.Settings, idOrName string) (model.Equipment, bool) {
	want := textutil.Clean(idOrName)
	for _, e := range s.Equipment {
		if e.ID == want || strings.EqualFold(e.Name, want) {
			return e, true
		}
	}
	return model.Equipment{}, false
}

// FindProbeProduct looks up a probe product by id or name.
func FindProbeProduct(s model.Settings, idOrName string) (model.ProbeProduct, bool) {
	want := textutil.Clean(idOrName)
	for _, p := range s.ProbeProducts {
		if p.ID == want || strings.EqualFold(p.Name, want) {
			return p, true
		}
	}
	return model.ProbeProduct{}, false
}

// StaffName resolves the display name of a device's staff id. Guest ids
// resolve to the department label.
func StaffName(s model.Settings, dev model.Device) string {
	if dev.StaffID == "" {
		return ""
	}
	if strings.HasPrefix(dev.StaffID, "guest_") {
		return dev.Dept.Label() + " (Guest)"
	}
	for _, m := range s.Staff {
		if m.ID == dev.StaffID {
			return m.Name
		}
	}
	return ""
}

// Problem is one inconsistency found by Check.
type Problem struct {
	Where   string `json:"where"`
	Message string `json:"message"`
}

// Check reports duplicate ids, unknown departments and malformed task days.
func Check(s model.Settings) []Problem {
	var out []Problem
	add := func(where, format string, args ...any) {
		out = append(out, Problem{Where: where, Message: fmt.Sprintf(format, args...)})
	}
	validDept := func(d model.Department) bool { return d.Valid() || d == model.DeptShared }

	seen := map[string]string{}
	dup := func(kind, id string) {
		if prev, ok := seen[id]; ok {
			add(kind, "id %q already used by %s", id, prev)
			return
		}
		seen[id] = kind
	}

	for _, m := range s.Staff {
		dup("staff", m.ID)
		if !validDept(m.Dept) {
			add("staff", "%s has unknown department %q", m.ID, m.Dept)
		}
	}
	for _, e := range s.Equipment {
		dup("equipment", e.ID)
		if !validDept(e.Dept) {
			add("equipment", "%s has unknown department %q", e.ID, e.Dept)
		}
		switch e.Type {
		case model.EquipFridge, model.EquipFreezer, model.EquipOven, model.EquipHotHold, model.EquipOther:
		default:
			add("equipment", "%s has unknown type %q", e.ID, e.Type)
		}
	}
	for _, t := range s.Tasks {
		dup("task", t.ID)
		if t.Day.Index() < 0 {
			add("task", "%s has unknown day %q", t.ID, t.Day)
		}
		if !t.Dept.Valid() {
			add("task", "%s has unknown department %q", t.ID, t.Dept)
		}
	}
	for sec, items := range s.SharedChecks {
		for _, c := range items {
			dup("check "+string(sec), c.ID)
		}
	}
	for d, sections := range s.Checks {
		for sec, items := range sections {
			for _, c := range items {
				dup("check "+string(d)+"/"+string(sec), c.ID)
			}
		}
	}
	return out
}
