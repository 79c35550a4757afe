package safechecks

import (
	"time"

	"github.com/safechecks/safechecks/internal/record"
	"github.com/safechecks/safechecks/internal/settings"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

// DraftItem is one checklist line in a draft view.
type DraftItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Ticked bool   `json:"ticked"`
}

// DraftView is today's draft of a checklist merged with its configured
// lines.
type DraftView struct {
	Type      model.RecordType `json:"type"`
	Dept      model.Department `json:"dept"`
	Date      string           `json:"date"`
	Items     []DraftItem      `json:"items"`
	Ticked    int              `json:"ticked"`
	Total     int              `json:"total"`
	UpdatedAt time.Time        `json:"updatedAt,omitempty"`
	Pending   bool             `json:"pending"`
}

// SubmitOptions completes a checklist submission.
type SubmitOptions struct {
	Notes    string
	SignedBy string // defaults to the device's staff member
	Rating   string // weekly reviews only
}

func (c *Client) activeChecks(t model.RecordType) ([]model.CheckItem, error) {
	if !t.IsChecklist() {
		return nil, errclass.ErrValidation.WithMessagef("%s is not a checklist", t)
	}
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	items := settings.ActiveChecks(s, c.device.Dept, t)
	if len(items) == 0 {
		return nil, errclass.ErrValidation.WithMessagef("no %s checks configured for %s", t, c.device.Dept)
	}
	return items, nil
}

// Draft returns today's draft of checklist t for this device's department.
func (c *Client) Draft(t model.RecordType) (DraftView, error) {
	if err := c.requireDevice(); err != nil {
		return DraftView{}, err
	}
	items, err := c.activeChecks(t)
	if err != nil {
		return DraftView{}, err
	}
	d, err := c.drafts.Get(t, c.device.Dept)
	if err != nil {
		return DraftView{}, err
	}
	k := c.drafts.Key(t, c.device.Dept)
	v := DraftView{
		Type:      t,
		Dept:      k.Dept,
		Date:      k.Date,
		Total:     len(items),
		UpdatedAt: d.UpdatedAt,
		Pending:   d.Pending,
	}
	for _, it := range items {
		ticked := d.Ticks[it.ID]
		if ticked {
			v.Ticked++
		}
		v.Items = append(v.Items, DraftItem{ID: it.ID, Label: it.Label, Ticked: ticked})
	}
	return v, nil
}

// Tick marks a check done in today's draft and shares it with other devices.
func (c *Client) Tick(t model.RecordType, checkID string) (DraftView, error) {
	return c.setTick(t, checkID, true)
}

// Untick clears a check in today's draft. The untick wins over older
// ticks from other devices.
func (c *Client) Untick(t model.RecordType, checkID string) (DraftView, error) {
	return c.setTick(t, checkID, false)
}

func (c *Client) setTick(t model.RecordType, checkID string, ticked bool) (DraftView, error) {
	if err := c.requireDevice(); err != nil {
		return DraftView{}, err
	}
	items, err := c.activeChecks(t)
	if err != nil {
		return DraftView{}, err
	}
	known := false
	for _, it := range items {
		if it.ID == checkID {
			known = true
			break
		}
	}
	if !known {
		return DraftView{}, errclass.ErrNotFound.WithMessagef("check %q is not part of %s for %s", checkID, t, c.device.Dept)
	}
	if _, err := c.drafts.SetTick(t, c.device.Dept, checkID, ticked); err != nil {
		return DraftView{}, err
	}
	return c.Draft(t)
}

// SubmitChecklist turns today's draft into a record, stores it, pushes it
// in the background and clears the draft on every device.
func (c *Client) SubmitChecklist(t model.RecordType, opts SubmitOptions) (model.Record, error) {
	view, err := c.Draft(t)
	if err != nil {
		return model.Record{}, err
	}
	signedBy := opts.SignedBy
	if signedBy == "" {
		if signedBy, err = c.StaffName(); err != nil {
			return model.Record{}, err
		}
	}

	checks := make([]model.Check, 0, len(view.Items))
	for _, it := range view.Items {
		checks = append(checks, model.Check{ID: it.ID, Label: it.Label, Ticked: it.Ticked})
	}
	rec, err := c.builder.Checklist(record.ChecklistInput{
		Type:     t,
		Dept:     c.device.Dept,
		Checks:   checks,
		Notes:    opts.Notes,
		SignedBy: signedBy,
		Rating:   opts.Rating,
	})
	if err != nil {
		return model.Record{}, err
	}
	if err := c.sync.Submit(rec); err != nil {
		return model.Record{}, err
	}
	if err := c.drafts.Clear(t, c.device.Dept); err != nil {
		return rec, err
	}
	return rec, nil
}
