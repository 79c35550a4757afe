package model_test

import (
	"testing"
	"time"

	"github.com/safechecks/safechecks/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistFields_OpenMap(t *testing.T) {
	c := model.ChecklistFields{
		Type: model.TypeOpening,
		Checks: []model.Check{
			{ID: "ko1", Ticked: true},
			{ID: "ko2", Ticked: false},
			{ID: "ko10", Ticked: true},
		},
		Notes:    "Fridge 2 door sticking",
		SignedBy: "Head Chef",
	}

	f := c.Fields()
	assert.Equal(t, "Yes", f["ko1"])
	assert.Equal(t, "No", f["ko2"])
	assert.Equal(t, "Head Chef", f["open_signed_by"])
	assert.Equal(t, "Fridge 2 door sticking", f["open_notes"])
	assert.Equal(t, 2, c.Passed())
	assert.Equal(t, 3, c.Total())

	decoded, err := model.DecodeFields(model.TypeOpening, f)
	require.NoError(t, err)
	back := decoded.(model.ChecklistFields)
	assert.Equal(t, []string{"ko1", "ko10"}, back.TickedIDs())
	assert.Equal(t, []string{"ko2"}, back.UntickedIDs())
	assert.Equal(t, "Head Chef", back.SignedBy)
	// natural order, not lexical
	assert.Equal(t, "ko2", back.Checks[1].ID)
}

func TestChecklistFields_WeeklyRating(t *testing.T) {
	c := model.ChecklistFields{Type: model.TypeWeekly, SignedBy: "Manager", Rating: "Good"}
	f := c.Fields()
	assert.Equal(t, "Good", f[model.KeyWeeklyRating])
	assert.Equal(t, "Manager", f["weekly_signed_by"])
}

func TestDecodeChecklist_MetadataNotCounted(t *testing.T) {
	f := model.Fields{
		"ko1":            "Yes",
		"ko2":            "No",
		"open_notes":     "No",
		"open_signed_by": "Yes",
	}
	decoded, err := model.DecodeFields(model.TypeOpening, f)
	require.NoError(t, err)
	c := decoded.(model.ChecklistFields)
	assert.Equal(t, 2, c.Total())
	assert.Equal(t, 1, c.Passed())
	assert.Equal(t, "No", c.Notes)

	decoded, err = model.DecodeFields(model.TypeWeekly, model.Fields{
		"kw1": "Yes", model.KeyWeeklyRating: "No", "weekly_notes": "Yes",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.(model.ChecklistFields).Total())
}

func TestTemperatureFields_Defaults(t *testing.T) {
	f := model.TemperatureFields{Location: "Fridge 1", Value: "4", Status: model.StatusOK, LoggedBy: "Chef"}.Fields()
	assert.Equal(t, "None required", f[model.KeyTempAction])
	assert.Equal(t, "°C", f[model.KeyTempUnit])
	assert.Equal(t, "OK", f[model.KeyTempStatus])
}

func TestRecord_Typed(t *testing.T) {
	r := model.Record{
		ID:   "r1",
		Type: model.TypeTaskCompletion,
		Fields: model.TaskCompletionFields{
			TaskID: "kt1", WeekStart: "2026-02-23", DoneBy: "KP", DoneDate: "2026-02-23",
		}.Fields(),
	}
	fs, err := r.Typed()
	require.NoError(t, err)
	task := fs.(model.TaskCompletionFields)
	assert.Equal(t, "kt1", task.TaskID)
	assert.Equal(t, model.TypeTaskCompletion, fs.RecordType())

	_, err = model.Record{Type: "bogus"}.Typed()
	assert.Error(t, err)
}

func TestFields_HasValues(t *testing.T) {
	assert.False(t, model.Fields{}.HasValues())
	assert.False(t, model.Fields{"a": "  "}.HasValues())
	assert.True(t, model.Fields{"a": "", "b": "x"}.HasValues())
}

func TestRecordClone_Independent(t *testing.T) {
	r := model.Record{ID: "r", Fields: model.Fields{"k": "v"}}
	c := r.Clone()
	c.Fields["k"] = "changed"
	assert.Equal(t, "v", r.Fields["k"])
}

func TestNaturalLess(t *testing.T) {
	assert.True(t, model.NaturalLess("kt2", "kt10"))
	assert.False(t, model.NaturalLess("kt10", "kt2"))
	assert.True(t, model.NaturalLess("ft1", "kt1"))
	assert.True(t, model.NaturalLess("sh_o1", "sh_o2"))
	assert.False(t, model.NaturalLess("a", "a"))
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, 0, model.Monday.Index())
	assert.Equal(t, 6, model.Sunday.Index())
	assert.Equal(t, -1, model.Weekday("funday").Index())

	sunday := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, model.Sunday, model.WeekdayOf(sunday))
	assert.Equal(t, model.Monday, model.WeekdayOf(sunday.AddDate(0, 0, 1)))

	_, err := model.ParseWeekday("Friday")
	assert.Error(t, err, "day names are lower case")
}

func TestDraftKey(t *testing.T) {
	k := model.DraftKey{Type: model.TypeClosing, Dept: model.DeptFOH, Date: "2026-02-27"}
	assert.Equal(t, "closing|foh|2026-02-27", k.String())

	parsed, err := model.ParseDraftKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = model.ParseDraftKey("closing|foh")
	assert.Error(t, err)
}

func TestTicks(t *testing.T) {
	ticks := model.Ticks{"c10": true, "c2": true, "c3": false}
	assert.Equal(t, []string{"c2", "c10"}, ticks.Ticked())
	assert.Equal(t, 2, ticks.Count())

	clone := ticks.Clone()
	clone["c3"] = true
	assert.False(t, ticks["c3"])
}

func TestParseDepartment(t *testing.T) {
	d, err := model.ParseDepartment("foh")
	require.NoError(t, err)
	assert.Equal(t, "Front of House", d.Label())

	_, err = model.ParseDepartment("shared")
	assert.Error(t, err)
	assert.True(t, model.DeptMgmt.SeesAll())
}

func TestCompletionKey(t *testing.T) {
	assert.Equal(t, "2026-02-23__kt1", model.CompletionKey("2026-02-23", "kt1"))
}
