// Package sheets speaks the row-store protocol of the remote spreadsheet:
// tab and column layout, record and draft row codecs, and the HTTP client.
package sheets

import (
	"context"

	"github.com/safechecks/safechecks/pkg/model"
)

// Tab names of the remote workbook.
const (
	TabOpening         = "Opening Checks"
	TabClosing         = "Closing Checks"
	TabTemperature     = "Temperature Log"
	TabFoodProbe       = "Food Probe Log"
	TabCleaning        = "Cleaning Schedule"
	TabWeekly          = "Weekly Review"
	TabTaskCompletions = "Task Completions"
	TabDrafts          = "Drafts"
	TabSettings        = "Settings"
)

// Column headers.
const (
	ColID          = "ID"
	ColDate        = "Date"
	ColTime        = "Time"
	ColDept        = "Department"
	ColPassed      = "Passed"
	ColTotal       = "Total"
	ColTicked      = "Ticked"
	ColUnticked    = "Unticked"
	ColNotes       = "Notes"
	ColSignedBy    = "Signed By"
	ColWeekStart   = "Week Start Date"
	ColSubmittedAt = "Submitted At"
	ColRating      = "Overall Rating"
	ColLocation    = "Location"
	ColTemperature = "Temperature (°C)"
	ColStatus      = "Status"
	ColProbeUsed   = "Probe Used"
	ColAction      = "Corrective Action"
	ColLoggedBy    = "Logged By"
	ColProduct     = "Product / Dish"
	ColCoreTemp    = "Core Temperature (°C)"
	ColTaskID      = "Task ID"
	ColTaskWeek    = "Week Start"
	ColCompletedBy = "Completed By"
	ColSummary     = "Summary"
	ColFieldsJSON  = "Fields JSON"

	ColKey       = "Key"
	ColType      = "Type"
	ColDevice    = "Device"
	ColUpdatedAt = "Updated At"
	ColFinalized = "Finalized"
	ColTicks     = "Ticks (JSON)"
)

// Row is one remote row keyed by column header. Values are always strings;
// the client stringifies numbers and booleans returned by the backend.
type Row map[string]string

// RowStore is the remote collaborator. Implementations never interpret
// record semantics; they store and return rows.
type RowStore interface {
	Append(ctx context.Context, tab string, headers, row []string) error
	// Upsert overwrites the row whose Key column equals key, or appends.
	Upsert(ctx context.Context, tab, key string, headers, row []string) error
	Read(ctx context.Context, tab string) ([]Row, error)
	SaveSettings(ctx context.Context, blob []byte) error
	// ReadSettings returns nil when no settings were ever saved.
	ReadSettings(ctx context.Context) ([]byte, error)
}

var tabs = map[model.RecordType]string{
	model.TypeOpening:        TabOpening,
	model.TypeClosing:        TabClosing,
	model.TypeTemperature:    TabTemperature,
	model.TypeFoodProbe:      TabFoodProbe,
	model.TypeCleaning:       TabCleaning,
	model.TypeWeekly:         TabWeekly,
	model.TypeTaskCompletion: TabTaskCompletions,
}

// TabFor returns the tab records of type t are written to.
func TabFor(t model.RecordType) string {
	return tabs[t]
}

var checklistHeaders = []string{
	ColID, ColDate, ColTime, ColDept, ColPassed, ColTotal, ColTicked, ColUnticked,
	ColNotes, ColSignedBy, ColSummary, ColFieldsJSON,
}

var weeklyHeaders = []string{
	ColID, ColWeekStart, ColSubmittedAt, ColDept, ColPassed, ColTotal, ColTicked, ColUnticked,
	ColRating, ColNotes, ColSignedBy, ColSummary, ColFieldsJSON,
}

var temperatureHeaders = []string{
	ColID, ColDate, ColTime, ColDept, ColLocation, ColTemperature, ColStatus, ColProbeUsed,
	ColAction, ColLoggedBy, ColSummary, ColFieldsJSON,
}

var foodProbeHeaders = []string{
	ColID, ColDate, ColTime, ColDept, ColProduct, ColCoreTemp, ColStatus, ColProbeUsed,
	ColAction, ColLoggedBy, ColSummary, ColFieldsJSON,
}

var taskHeaders = []string{
	ColID, ColDate, ColTime, ColDept, ColTaskID, ColTaskWeek, ColCompletedBy, ColSummary,
	ColFieldsJSON,
}

// DraftHeaders are the columns of the Drafts tab.
var DraftHeaders = []string{
	ColKey, ColType, ColDept, ColDate, ColDevice, ColUpdatedAt, ColFinalized, ColTicks,
}

// Headers returns the column layout of the tab for t.
func Headers(t model.RecordType) []string {
	var h []string
	switch t {
	case model.TypeWeekly:
		h = weeklyHeaders
	case model.TypeOpening, model.TypeClosing, model.TypeCleaning:
		h = checklistHeaders
	case model.TypeTemperature:
		h = temperatureHeaders
	case model.TypeFoodProbe:
		h = foodProbeHeaders
	case model.TypeTaskCompletion:
		h = taskHeaders
	}
	return append([]string(nil), h...)
}
