// Package record builds immutable submission records from collected field
// data: it validates input, classifies temperature readings and writes the
// one-line summary shown in history views.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/textutil"
)

// ChecklistInput is a checklist ready to be submitted.
type ChecklistInput struct {
	Type     model.RecordType `validate:"required,oneof=opening closing cleaning weekly"`
	Dept     model.Department `validate:"required,oneof=kitchen foh mgmt"`
	Checks   []model.Check    `validate:"required,min=1"`
	Notes    string
	SignedBy string `validate:"required"`
	Rating   string
}

// TemperatureInput is an equipment temperature reading.
type TemperatureInput struct {
	Dept     model.Department `validate:"omitempty,oneof=kitchen foh mgmt"`
	Location string           `validate:"required"`
	Value    string           `validate:"required"`
	// EquipmentType, when known from settings, takes precedence over
	// location keywords.
	EquipmentType    model.EquipmentType
	Probe            string
	CorrectiveAction string
	LoggedBy         string `validate:"required"`
}

// FoodProbeInput is a core temperature reading of cooked food.
type FoodProbeInput struct {
	Product string `validate:"required"`
	Value   string `validate:"required"`
	Probe   string
	Action  string
	Staff   string `validate:"required"`
}

// TaskCompletionInput marks one weekly task done.
type TaskCompletionInput struct {
	Dept      model.Department `validate:"omitempty,oneof=kitchen foh mgmt"`
	TaskID    string           `validate:"required"`
	WeekStart string           `validate:"required,datetime=2006-01-02"`
	DoneBy    string           `validate:"required"`
}

// Builder creates records. It holds no state besides its clock and id
// source, so one instance is shared by every caller.
type Builder struct {
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDs overrides the UUID v4 id source.
func WithIDs(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		validate: validator.New(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Builder) check(v any) error {
	err := b.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return errclass.ErrValidation.WithMessage(strings.Join(parts, "; "))
	}
	return errclass.ErrValidation.WithMessage(err.Error())
}

func (b *Builder) base(t model.RecordType, dept model.Department) model.Record {
	now := b.now()
	return model.Record{
		ID:        b.newID(),
		Type:      t,
		Dept:      dept,
		Date:      now.Format(model.DateLayout),
		Timestamp: now.Format(model.TimestampLayout),
		ISO:       now.UTC(),
	}
}

func parseTemp(field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, errclass.ErrValidation.WithMessagef("%s %q is not a number", field, s)
	}
	return v, nil
}

// Checklist builds an opening, closing, cleaning or weekly record.
func (b *Builder) Checklist(in ChecklistInput) (model.Record, error) {
	if err := b.check(in); err != nil {
		return model.Record{}, err
	}
	signed, err := textutil.ValidateLabel("signed by", in.SignedBy)
	if err != nil {
		return model.Record{}, err
	}
	for _, c := range in.Checks {
		if err := textutil.ValidateID(c.ID); err != nil {
			return model.Record{}, err
		}
	}

	fs := model.ChecklistFields{
		Type:     in.Type,
		Checks:   in.Checks,
		Notes:    textutil.Clean(in.Notes),
		SignedBy: signed,
		Rating:   textutil.Clean(in.Rating),
	}
	rec := b.base(in.Type, in.Dept)
	rec.Fields = fs.Fields()
	rec.Summary = Summarize(fs)
	return rec, nil
}

// Temperature builds a temperature record with its computed status.
func (b *Builder) Temperature(in TemperatureInput) (model.Record, error) {
	if err := b.check(in); err != nil {
		return model.Record{}, err
	}
	location, err := textutil.ValidateLabel("location", in.Location)
	if err != nil {
		return model.Record{}, err
	}
	staff, err := textutil.ValidateLabel("logged by", in.LoggedBy)
	if err != nil {
		return model.Record{}, err
	}
	v, err := parseTemp("temperature", in.Value)
	if err != nil {
		return model.Record{}, err
	}

	fs := model.TemperatureFields{
		Location:         location,
		Value:            v.String(),
		Unit:             model.DefaultTempUnit,
		Probe:            textutil.Clean(in.Probe),
		Status:           Classify(ResolveClass(in.EquipmentType, location), v),
		CorrectiveAction: textutil.Clean(in.CorrectiveAction),
		LoggedBy:         staff,
	}
	rec := b.base(model.TypeTemperature, in.Dept)
	rec.Fields = fs.Fields()
	rec.Summary = Summarize(fs)
	return rec, nil
}

// FoodProbe builds a kitchen food probe record. A passing reading without
// an action records "None required"; a failing one keeps what staff typed.
func (b *Builder) FoodProbe(in FoodProbeInput) (model.Record, error) {
	if err := b.check(in); err != nil {
		return model.Record{}, err
	}
	product, err := textutil.ValidateLabel("product", in.Product)
	if err != nil {
		return model.Record{}, err
	}
	staff, err := textutil.ValidateLabel("staff", in.Staff)
	if err != nil {
		return model.Record{}, err
	}
	v, err := parseTemp("core temperature", in.Value)
	if err != nil {
		return model.Record{}, err
	}

	status := ClassifyProbe(v)
	action := textutil.Clean(in.Action)
	if action == "" && status == model.StatusPass {
		action = model.DefaultAction
	}
	fs := model.FoodProbeFields{
		Product: product,
		Temp:    v.String(),
		Status:  status,
		Probe:   textutil.Clean(in.Probe),
		Action:  action,
		Staff:   staff,
	}
	rec := b.base(model.TypeFoodProbe, model.DeptKitchen)
	rec.Fields = fs.Fields()
	rec.Summary = Summarize(fs)
	return rec, nil
}

// TaskCompletion builds the record that tells other devices a task is done.
func (b *Builder) TaskCompletion(in TaskCompletionInput) (model.Record, error) {
	if err := b.check(in); err != nil {
		return model.Record{}, err
	}
	if err := textutil.ValidateID(in.TaskID); err != nil {
		return model.Record{}, err
	}
	staff, err := textutil.ValidateLabel("done by", in.DoneBy)
	if err != nil {
		return model.Record{}, err
	}

	rec := b.base(model.TypeTaskCompletion, in.Dept)
	fs := model.TaskCompletionFields{
		TaskID:    in.TaskID,
		WeekStart: in.WeekStart,
		DoneBy:    staff,
		DoneDate:  rec.Date,
	}
	rec.Fields = fs.Fields()
	rec.Summary = Summarize(fs)
	return rec, nil
}

// Summarize renders the one-line digest of a field set.
func Summarize(fs model.FieldSet) string {
	switch f := fs.(type) {
	case model.ChecklistFields:
		return fmt.Sprintf("%d/%d checks passed · Signed: %s", f.Passed(), f.Total(), f.SignedBy)
	case model.TemperatureFields:
		return fmt.Sprintf("%s: %s°C (%s) · %s", f.Location, f.Value, f.Status, f.LoggedBy)
	case model.FoodProbeFields:
		return fmt.Sprintf("%s: %s°C (%s) · %s", f.Product, f.Temp, f.Status, f.Staff)
	case model.TaskCompletionFields:
		return "Task completed by " + f.DoneBy
	}
	return ""
}
