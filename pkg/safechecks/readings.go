package safechecks

import (
	"github.com/safechecks/safechecks/internal/record"
	"github.com/safechecks/safechecks/internal/settings"
	"github.com/safechecks/safechecks/pkg/model"
)

// TemperatureOptions is an equipment reading. Equipment is matched against
// the configured equipment by id or name; anything else is logged as a
// free-text location.
type TemperatureOptions struct {
	Equipment        string
	Value            string
	Probe            string
	CorrectiveAction string
	LoggedBy         string // defaults to the device's staff member
}

// FoodProbeOptions is a core temperature reading of a dish.
type FoodProbeOptions struct {
	Product string
	Value   string
	Probe   string
	Action  string
	Staff   string // defaults to the device's staff member
}

func (c *Client) staffOr(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	return c.StaffName()
}

// LogTemperature classifies, stores and pushes an equipment reading.
func (c *Client) LogTemperature(opts TemperatureOptions) (model.Record, error) {
	if err := c.requireDevice(); err != nil {
		return model.Record{}, err
	}
	s, err := c.Settings()
	if err != nil {
		return model.Record{}, err
	}
	staff, err := c.staffOr(opts.LoggedBy)
	if err != nil {
		return model.Record{}, err
	}

	in := record.TemperatureInput{
		Dept:             c.device.Dept,
		Location:         opts.Equipment,
		Value:            opts.Value,
		Probe:            opts.Probe,
		CorrectiveAction: opts.CorrectiveAction,
		LoggedBy:         staff,
	}
	if eq, ok := settings.FindEquipment(s, opts.Equipment); ok {
		in.Location = eq.Name
		in.EquipmentType = eq.Type
	}
	rec, err := c.builder.Temperature(in)
	if err != nil {
		return model.Record{}, err
	}
	return rec, c.sync.Submit(rec)
}

// LogFoodProbe classifies, stores and pushes a food probe reading.
func (c *Client) LogFoodProbe(opts FoodProbeOptions) (model.Record, error) {
	if err := c.requireDevice(); err != nil {
		return model.Record{}, err
	}
	s, err := c.Settings()
	if err != nil {
		return model.Record{}, err
	}
	staff, err := c.staffOr(opts.Staff)
	if err != nil {
		return model.Record{}, err
	}

	product := opts.Product
	if p, ok := settings.FindProbeProduct(s, product); ok {
		product = p.Name
	}
	rec, err := c.builder.FoodProbe(record.FoodProbeInput{
		Product: product,
		Value:   opts.Value,
		Probe:   opts.Probe,
		Action:  opts.Action,
		Staff:   staff,
	})
	if err != nil {
		return model.Record{}, err
	}
	return rec, c.sync.Submit(rec)
}
