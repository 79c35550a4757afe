package sheets

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/jsonutil"
	"github.com/safechecks/safechecks/pkg/logging"
	"github.com/safechecks/safechecks/pkg/model"
)

const (
	sheetDateLayout = "02/01/2006"
	clockLayout     = "15:04:05"
)

// BuildRow renders rec in the column order of its tab.
func BuildRow(rec model.Record) ([]string, error) {
	cells, err := recordCells(rec)
	if err != nil {
		return nil, err
	}
	headers := Headers(rec.Type)
	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = cells[h]
	}
	return row, nil
}

func recordCells(rec model.Record) (Row, error) {
	typed, err := rec.Typed()
	if err != nil {
		return nil, errclass.ErrValidation.WithMessage(err.Error())
	}
	blob, err := jsonutil.CanonicalString(rec.Fields)
	if err != nil {
		return nil, err
	}

	day, clock := splitTimestamp(rec)
	cells := Row{
		ColID:         rec.ID,
		ColDate:       day,
		ColTime:       clock,
		ColDept:       string(rec.Dept),
		ColSummary:    rec.Summary,
		ColFieldsJSON: blob,
	}

	switch f := typed.(type) {
	case model.ChecklistFields:
		cells[ColPassed] = strconv.Itoa(f.Passed())
		cells[ColTotal] = strconv.Itoa(f.Total())
		cells[ColTicked] = strings.Join(f.TickedIDs(), ", ")
		cells[ColUnticked] = strings.Join(f.UntickedIDs(), ", ")
		cells[ColNotes] = f.Notes
		cells[ColSignedBy] = f.SignedBy
		if f.Type == model.TypeWeekly {
			cells[ColRating] = f.Rating
			cells[ColSubmittedAt] = rec.Timestamp
			if d, err := time.Parse(model.DateLayout, rec.Date); err == nil {
				cells[ColWeekStart] = model.WeekStartOf(d).Format(model.DateLayout)
			}
		}
	case model.TemperatureFields:
		cells[ColLocation] = f.Location
		cells[ColTemperature] = f.Value
		cells[ColStatus] = string(f.Status)
		cells[ColProbeUsed] = f.Probe
		cells[ColAction] = f.CorrectiveAction
		cells[ColLoggedBy] = f.LoggedBy
	case model.FoodProbeFields:
		cells[ColProduct] = f.Product
		cells[ColCoreTemp] = f.Temp
		cells[ColStatus] = string(f.Status)
		cells[ColProbeUsed] = f.Probe
		cells[ColAction] = f.Action
		cells[ColLoggedBy] = f.Staff
	case model.TaskCompletionFields:
		cells[ColTaskID] = f.TaskID
		cells[ColTaskWeek] = f.WeekStart
		cells[ColCompletedBy] = f.DoneBy
	}
	return cells, nil
}

func splitTimestamp(rec model.Record) (string, string) {
	day := rec.Date
	if d, err := time.Parse(model.DateLayout, rec.Date); err == nil {
		day = d.Format(sheetDateLayout)
	}
	clock := ""
	if i := strings.Index(rec.Timestamp, ", "); i >= 0 {
		clock = rec.Timestamp[i+2:]
	}
	return day, clock
}

// ParseRow rebuilds a remote record from a row of the tab for t.
// Fields come from the Fields JSON column when it carries values, then
// from the named columns, and are otherwise left empty.
func ParseRow(t model.RecordType, row Row) (model.Record, error) {
	id := strings.TrimSpace(row[ColID])
	if id == "" {
		return model.Record{}, errclass.ErrParse.WithMessage("row has no id")
	}

	dateCell, clockCell := row[ColDate], row[ColTime]
	if t == model.TypeWeekly {
		dateCell, clockCell = row[ColSubmittedAt], row[ColSubmittedAt]
		if strings.TrimSpace(dateCell) == "" {
			dateCell = row[ColWeekStart]
		}
	}
	date, ok := NormalizeDate(dateCell)
	if !ok {
		return model.Record{}, errclass.ErrParse.WithMessagef("row %s: unrecognised date %q", id, dateCell)
	}

	rec := model.Record{
		ID:      id,
		Type:    t,
		Dept:    parseDept(row[ColDept]),
		Date:    date,
		Summary: strings.TrimSpace(row[ColSummary]),
		Source:  model.SourceRemote,
	}

	day, _ := time.ParseInLocation(model.DateLayout, date, time.Local)
	rec.Timestamp = day.Format(sheetDateLayout)
	rec.ISO = day.UTC()
	if clock, ok := NormalizeClock(clockCell); ok {
		rec.Timestamp += ", " + clock
		if at, err := time.ParseInLocation(model.DateLayout+" "+clockLayout, date+" "+clock, time.Local); err == nil {
			rec.ISO = at.UTC()
		}
	}

	if f, ok := fieldsFromBlob(row[ColFieldsJSON]); ok && f.HasValues() {
		rec.Fields = f
	} else {
		rec.Fields = namedFields(t, row)
	}
	return rec, nil
}

func parseDept(s string) model.Department {
	s = strings.TrimSpace(s)
	for _, d := range model.Departments() {
		if strings.EqualFold(s, string(d)) || strings.EqualFold(s, d.Label()) {
			return d
		}
	}
	return ""
}

func fieldsFromBlob(s string) (model.Fields, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	f := make(model.Fields, len(raw))
	for k, v := range raw {
		if str, ok := cellString(v); ok {
			f[k] = str
		}
	}
	return f, true
}

func cellString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func namedFields(t model.RecordType, row Row) model.Fields {
	f := model.Fields{}
	set := func(key, col string) {
		if v := strings.TrimSpace(row[col]); v != "" {
			f[key] = v
		}
	}
	switch t {
	case model.TypeOpening, model.TypeClosing, model.TypeCleaning, model.TypeWeekly:
		for _, id := range splitList(row[ColTicked]) {
			f[id] = model.TickYes
		}
		for _, id := range splitList(row[ColUnticked]) {
			f[id] = model.TickNo
		}
		set(model.NotesKey(t), ColNotes)
		set(model.SignedByKey(t), ColSignedBy)
		if t == model.TypeWeekly {
			set(model.KeyWeeklyRating, ColRating)
		}
	case model.TypeTemperature:
		set(model.KeyTempLocation, ColLocation)
		set(model.KeyTempValue, ColTemperature)
		set(model.KeyTempStatus, ColStatus)
		set(model.KeyTempProbe, ColProbeUsed)
		set(model.KeyTempAction, ColAction)
		set(model.KeyTempLoggedBy, ColLoggedBy)
	case model.TypeFoodProbe:
		set(model.KeyProbeProduct, ColProduct)
		set(model.KeyProbeTemp, ColCoreTemp)
		set(model.KeyProbeStatus, ColStatus)
		set(model.KeyProbeUsed, ColProbeUsed)
		set(model.KeyProbeAction, ColAction)
		set(model.KeyProbeStaff, ColLoggedBy)
	case model.TypeTaskCompletion:
		set(model.KeyTaskID, ColTaskID)
		set(model.KeyTaskWeek, ColTaskWeek)
		set(model.KeyTaskDoneBy, ColCompletedBy)
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseRows parses every row of a record tab. Rows that cannot be parsed
// are dropped and logged at debug level; the count is returned.
func ParseRows(t model.RecordType, rows []Row) ([]model.Record, int) {
	out := make([]model.Record, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		rec, err := ParseRow(t, row)
		if err != nil {
			dropped++
			logging.Debug("dropped remote row", map[string]any{
				"tab":   TabFor(t),
				"row":   i + 2,
				"error": err.Error(),
			})
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}
