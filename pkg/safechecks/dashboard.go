package safechecks

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/safechecks/safechecks/internal/settings"
	"github.com/safechecks/safechecks/internal/tasks"
	"github.com/safechecks/safechecks/pkg/model"
)

// Fallback checklist sizes when a department has no configured lines.
var defaultTotals = map[model.RecordType]int{
	model.TypeOpening:  12,
	model.TypeCleaning: 14,
	model.TypeClosing:  10,
	model.TypeWeekly:   20,
}

const (
	defaultOpening = "08:00"
	defaultClosing = "23:00"
	tempAlertHour  = 15
	probeAlertHour = 12
	minTempsPerDay = 2
)

// ChecklistStatus is the latest submission of one checklist today.
type ChecklistStatus struct {
	Type     model.RecordType `json:"type"`
	Done     bool             `json:"done"`
	RecordID string           `json:"recordId,omitempty"`
	Passed   int              `json:"passed"`
	Total    int              `json:"total"`
	Percent  int              `json:"percent"`
	SignedBy string           `json:"signedBy,omitempty"`
	Time     string           `json:"time,omitempty"`
}

// ReadingStatus counts today's readings by outcome.
type ReadingStatus struct {
	Readings int    `json:"readings"`
	Warnings int    `json:"warnings"`
	Failures int    `json:"failures"`
	State    string `json:"state"` // none, ok, warning, breach
}

// DeptDashboard is one department's day.
type DeptDashboard struct {
	Dept         model.Department  `json:"dept"`
	Checklists   []ChecklistStatus `json:"checklists"`
	Temperatures ReadingStatus     `json:"temperatures"`
	FoodProbe    *ReadingStatus    `json:"foodProbe,omitempty"`
	Tasks        tasks.Summary     `json:"tasks"`
}

// Dashboard is today's status for this device.
type Dashboard struct {
	Date        string          `json:"date"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Departments []DeptDashboard `json:"departments"`
	Alerts      []string        `json:"alerts"`
}

// Dashboard summarizes today for the device's department, or for every
// department on a management device, and lists what needs attention.
func (c *Client) Dashboard() (*Dashboard, error) {
	if err := c.requireDevice(); err != nil {
		return nil, err
	}
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	recs, err := c.store.Records()
	if err != nil {
		return nil, err
	}

	now := c.now()
	today := now.Format(model.DateLayout)
	var todays []model.Record
	for _, r := range recs {
		if r.Date == today {
			todays = append(todays, r)
		}
	}

	dash := &Dashboard{Date: today, GeneratedAt: now}
	depts := []model.Department{c.device.Dept}
	if c.device.Dept.SeesAll() {
		depts = model.Departments()
	}
	for _, d := range depts {
		dd, err := c.deptDashboard(s, d, todays)
		if err != nil {
			return nil, err
		}
		dash.Departments = append(dash.Departments, dd)
	}
	dash.Alerts = alerts(s, c.device.Dept, todays, now)
	return dash, nil
}

// inDept matches records of dept. Staff also see records with no
// department.
func inDept(r model.Record, dept model.Department, staffView bool) bool {
	return r.Dept == dept || (staffView && r.Dept == "")
}

func (c *Client) deptDashboard(s model.Settings, dept model.Department, todays []model.Record) (DeptDashboard, error) {
	staffView := !c.device.Dept.SeesAll()
	var mine []model.Record
	for _, r := range todays {
		if inDept(r, dept, staffView) {
			mine = append(mine, r)
		}
	}

	dd := DeptDashboard{Dept: dept}
	sections := []model.RecordType{model.TypeOpening, model.TypeCleaning, model.TypeClosing}
	if dept == model.DeptMgmt {
		sections = []model.RecordType{model.TypeWeekly}
	}
	for _, t := range sections {
		total := len(settings.ActiveChecks(s, dept, t))
		if total == 0 {
			total = defaultTotals[t]
		}
		dd.Checklists = append(dd.Checklists, checklistStatus(t, total, mine))
	}

	if dept != model.DeptMgmt {
		dd.Temperatures = readingStatus(mine, model.TypeTemperature, model.KeyTempStatus)
	}
	if dept == model.DeptKitchen {
		probe := readingStatus(todays, model.TypeFoodProbe, model.KeyProbeStatus)
		dd.FoodProbe = &probe
	}

	sum, err := c.tasks.Summarize(s, dept)
	if err != nil {
		return dd, err
	}
	dd.Tasks = sum
	return dd, nil
}

func checklistStatus(t model.RecordType, total int, recs []model.Record) ChecklistStatus {
	st := ChecklistStatus{Type: t, Total: total}
	var latest *model.Record
	for i := range recs {
		if recs[i].Type == t && (latest == nil || recs[i].ISO.After(latest.ISO)) {
			latest = &recs[i]
		}
	}
	if latest == nil {
		return st
	}
	st.Done = true
	st.RecordID = latest.ID
	st.Time = clockOf(latest.Timestamp)
	if typed, err := latest.Typed(); err == nil {
		if f, ok := typed.(model.ChecklistFields); ok {
			st.Passed = f.Passed()
			if f.Total() > 0 {
				st.Total = f.Total()
			}
			st.SignedBy = f.SignedBy
		}
	}
	if st.Total > 0 {
		st.Percent = int(math.Round(float64(st.Passed) * 100 / float64(st.Total)))
	}
	return st
}

func clockOf(ts string) string {
	if i := strings.LastIndex(ts, " "); i >= 0 {
		return ts[i+1:]
	}
	return ts
}

func readingStatus(recs []model.Record, t model.RecordType, statusKey string) ReadingStatus {
	var rs ReadingStatus
	for _, r := range recs {
		if r.Type != t {
			continue
		}
		rs.Readings++
		switch model.Status(r.Fields[statusKey]) {
		case model.StatusWarning:
			rs.Warnings++
		case model.StatusFail:
			rs.Failures++
		}
	}
	switch {
	case rs.Failures > 0:
		rs.State = "breach"
	case rs.Warnings > 0:
		rs.State = "warning"
	case rs.Readings > 0:
		rs.State = "ok"
	default:
		rs.State = "none"
	}
	return rs
}

// hourOf returns the hour of an HH:MM setting, or the hour of def.
func hourOf(v, def string) int {
	if v == "" {
		v = def
	}
	h, err := strconv.Atoi(strings.SplitN(v, ":", 2)[0])
	if err != nil {
		h, _ = strconv.Atoi(strings.SplitN(def, ":", 2)[0])
	}
	return h
}

func hasType(recs []model.Record, t model.RecordType, dept model.Department, staffView bool) bool {
	for _, r := range recs {
		if r.Type == t && inDept(r, dept, staffView) {
			return true
		}
	}
	return false
}

func alerts(s model.Settings, dept model.Department, todays []model.Record, now time.Time) []string {
	hour := now.Hour()
	out := []string{}
	probeToday := false
	for _, r := range todays {
		if r.Type == model.TypeFoodProbe {
			probeToday = true
			break
		}
	}

	if !dept.SeesAll() {
		if hour >= hourOf(s.OpeningTimes[dept], defaultOpening) && !hasType(todays, model.TypeOpening, dept, true) {
			out = append(out, "Opening checks not yet completed today")
		}
		temps := 0
		for _, r := range todays {
			if r.Type == model.TypeTemperature && inDept(r, dept, true) {
				temps++
			}
		}
		if hour >= tempAlertHour && temps < minTempsPerDay {
			out = append(out, fmt.Sprintf("Fewer than %d temperature readings logged today", minTempsPerDay))
		}
		if dept == model.DeptKitchen && hour >= probeAlertHour && !probeToday {
			out = append(out, "No food probe check logged today (at least 1 required)")
		}
		if hour >= hourOf(s.ClosingTimes[dept], defaultClosing) && !hasType(todays, model.TypeClosing, dept, true) {
			out = append(out, "Closing checks not yet completed")
		}
	} else {
		for _, d := range []model.Department{model.DeptKitchen, model.DeptFOH} {
			if hour >= hourOf(s.OpeningTimes[d], defaultOpening) && !hasType(todays, model.TypeOpening, d, false) {
				out = append(out, d.Label()+": Opening checks not done")
			}
			if hour >= hourOf(s.ClosingTimes[d], defaultClosing) && !hasType(todays, model.TypeClosing, d, false) {
				out = append(out, d.Label()+": Closing checks not done")
			}
		}
		if hour >= probeAlertHour && !probeToday {
			out = append(out, "Kitchen: No food probe check logged today")
		}
	}

	breaches := 0
	for _, r := range todays {
		if r.Type != model.TypeTemperature || model.Status(r.Fields[model.KeyTempStatus]) != model.StatusFail {
			continue
		}
		if dept.SeesAll() || inDept(r, dept, true) {
			breaches++
		}
	}
	if breaches == 1 {
		out = append(out, "1 temperature breach today: check corrective actions")
	} else if breaches > 1 {
		out = append(out, fmt.Sprintf("%d temperature breaches today: check corrective actions", breaches))
	}
	return out
}
