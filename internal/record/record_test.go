package record_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safechecks/safechecks/internal/record"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

var fixedNow = time.Date(2026, 2, 27, 9, 30, 15, 0, time.UTC)

func newBuilder() *record.Builder {
	return record.NewBuilder(
		record.WithClock(func() time.Time { return fixedNow }),
		record.WithIDs(func() string { return "rec-1" }),
	)
}

func TestClassify_FridgeBoundaries(t *testing.T) {
	cases := []struct {
		value string
		want  model.Status
	}{
		{"2", model.StatusOK},
		{"5", model.StatusOK},
		{"5.1", model.StatusWarning},
		{"8", model.StatusWarning},
		{"8.1", model.StatusFail},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			got := record.Classify(record.ClassRefrigerated, decimal.RequireFromString(tc.value))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassify_OtherClasses(t *testing.T) {
	assert.Equal(t, model.StatusOK, record.Classify(record.ClassFrozen, decimal.NewFromInt(-18)))
	assert.Equal(t, model.StatusWarning, record.Classify(record.ClassFrozen, decimal.NewFromInt(-16)))
	assert.Equal(t, model.StatusFail, record.Classify(record.ClassFrozen, decimal.NewFromInt(-10)))
	assert.Equal(t, model.StatusOK, record.Classify(record.ClassHotHold, decimal.NewFromInt(63)))
	assert.Equal(t, model.StatusWarning, record.Classify(record.ClassHotHold, decimal.NewFromInt(60)))
	assert.Equal(t, model.StatusFail, record.Classify(record.ClassHotHold, decimal.NewFromInt(50)))
	assert.Equal(t, model.StatusOK, record.Classify(record.ClassUnclassified, decimal.NewFromInt(20)))
	assert.Equal(t, model.StatusFail, record.Classify(record.ClassUnclassified, decimal.NewFromInt(120)))
}

func TestClassifyProbe_Boundary(t *testing.T) {
	assert.Equal(t, model.StatusPass, record.ClassifyProbe(decimal.RequireFromString("75")))
	assert.Equal(t, model.StatusFail, record.ClassifyProbe(decimal.RequireFromString("74.9")))
}

func TestResolveClass(t *testing.T) {
	assert.Equal(t, record.ClassFrozen, record.ResolveClass(model.EquipFreezer, "Walk-in fridge"))
	assert.Equal(t, record.ClassRefrigerated, record.ResolveClass("", "Walk-in Fridge"))
	assert.Equal(t, record.ClassHotHold, record.ResolveClass(model.EquipOther, "Soup kettle"))
	assert.Equal(t, record.ClassUnclassified, record.ResolveClass("", "Dry store"))
}

func TestBuilder_Checklist(t *testing.T) {
	rec, err := newBuilder().Checklist(record.ChecklistInput{
		Type: model.TypeOpening,
		Dept: model.DeptKitchen,
		Checks: []model.Check{
			{ID: "ko1", Ticked: true},
			{ID: "ko2", Ticked: true},
			{ID: "ko3"},
		},
		SignedBy: "Sam",
	})
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "2026-02-27", rec.Date)
	assert.Equal(t, "27/02/2026, 09:30:15", rec.Timestamp)
	assert.Equal(t, "2/3 checks passed · Signed: Sam", rec.Summary)
	assert.Equal(t, model.TickYes, rec.Fields["ko1"])
	assert.Equal(t, model.TickNo, rec.Fields["ko3"])
	assert.Equal(t, "Sam", rec.Fields[model.SignedByKey(model.TypeOpening)])

	typed, err := rec.Typed()
	require.NoError(t, err)
	cl := typed.(model.ChecklistFields)
	assert.Equal(t, []string{"ko3"}, cl.UntickedIDs())
}

func TestBuilder_ChecklistRequiresSignature(t *testing.T) {
	_, err := newBuilder().Checklist(record.ChecklistInput{
		Type:   model.TypeClosing,
		Dept:   model.DeptFOH,
		Checks: []model.Check{{ID: "fc1", Ticked: true}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrValidation)
}

func TestBuilder_Temperature(t *testing.T) {
	b := newBuilder()

	rec, err := b.Temperature(record.TemperatureInput{
		Dept:          model.DeptKitchen,
		Location:      "Walk-in Fridge",
		Value:         "5.10",
		EquipmentType: model.EquipFridge,
		LoggedBy:      "Sam",
	})
	require.NoError(t, err)
	assert.Equal(t, "WARNING", rec.Fields[model.KeyTempStatus])
	assert.Equal(t, "5.1", rec.Fields[model.KeyTempValue])
	assert.Equal(t, model.DefaultAction, rec.Fields[model.KeyTempAction])
	assert.Equal(t, "Walk-in Fridge: 5.1°C (WARNING) · Sam", rec.Summary)

	_, err = b.Temperature(record.TemperatureInput{Location: "Fridge", Value: "cold", LoggedBy: "Sam"})
	assert.ErrorIs(t, err, errclass.ErrValidation)
}

func TestBuilder_FoodProbe(t *testing.T) {
	b := newBuilder()

	pass, err := b.FoodProbe(record.FoodProbeInput{Product: "Chicken Breast", Value: "75", Staff: "Alex"})
	require.NoError(t, err)
	assert.Equal(t, model.DeptKitchen, pass.Dept)
	assert.Equal(t, "PASS", pass.Fields[model.KeyProbeStatus])
	assert.Equal(t, model.DefaultAction, pass.Fields[model.KeyProbeAction])
	assert.Equal(t, "Chicken Breast: 75°C (PASS) · Alex", pass.Summary)

	fail, err := b.FoodProbe(record.FoodProbeInput{Product: "Chicken Breast", Value: "74.9", Staff: "Alex"})
	require.NoError(t, err)
	assert.Equal(t, "FAIL", fail.Fields[model.KeyProbeStatus])
	assert.Empty(t, fail.Fields[model.KeyProbeAction])

	fixed, err := b.FoodProbe(record.FoodProbeInput{Product: "Rice", Value: "70", Action: "Reheated", Staff: "Alex"})
	require.NoError(t, err)
	assert.Equal(t, "Reheated", fixed.Fields[model.KeyProbeAction])
}

func TestBuilder_TaskCompletion(t *testing.T) {
	rec, err := newBuilder().TaskCompletion(record.TaskCompletionInput{
		Dept:      model.DeptFOH,
		TaskID:    "t_f1",
		WeekStart: "2026-02-23",
		DoneBy:    "Jo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Task completed by Jo", rec.Summary)
	assert.Equal(t, "t_f1", rec.Fields[model.KeyTaskID])
	assert.Equal(t, "2026-02-23", rec.Fields[model.KeyTaskWeek])

	_, err = newBuilder().TaskCompletion(record.TaskCompletionInput{TaskID: "t_f1", WeekStart: "23/02/2026", DoneBy: "Jo"})
	assert.ErrorIs(t, err, errclass.ErrValidation)
}
