package sheets

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/jsonutil"
	"github.com/safechecks/safechecks/pkg/model"
)

// DraftRow is a draft as stored in the Drafts tab, one row per key.
type DraftRow struct {
	Key       model.DraftKey
	Device    string
	UpdatedAt time.Time
	Finalized bool
	Ticks     model.Ticks
}

// Cells renders the row in DraftHeaders order.
func (d DraftRow) Cells() ([]string, error) {
	ticks := map[string]bool{}
	for _, id := range d.Ticks.Ticked() {
		ticks[id] = true
	}
	blob, err := jsonutil.CanonicalString(ticks)
	if err != nil {
		return nil, err
	}
	return []string{
		d.Key.String(),
		string(d.Key.Type),
		string(d.Key.Dept),
		d.Key.Date,
		d.Device,
		d.UpdatedAt.UTC().Format(time.RFC3339Nano),
		strconv.FormatBool(d.Finalized),
		blob,
	}, nil
}

// ParseDraftRow decodes a Drafts tab row. The Key column is authoritative;
// the Type, Department and Date columns are informational.
func ParseDraftRow(row Row) (DraftRow, error) {
	key, err := model.ParseDraftKey(strings.TrimSpace(row[ColKey]))
	if err != nil {
		return DraftRow{}, err
	}
	if date, ok := NormalizeDate(key.Date); ok {
		key.Date = date
	}

	d := DraftRow{
		Key:    key,
		Device: strings.TrimSpace(row[ColDevice]),
		Ticks:  model.Ticks{},
	}
	if s := strings.TrimSpace(row[ColUpdatedAt]); s != "" {
		at, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return DraftRow{}, errclass.ErrParse.WithMessagef("draft %s: updated at %q", key, s)
		}
		d.UpdatedAt = at
	}
	d.Finalized, _ = strconv.ParseBool(strings.TrimSpace(row[ColFinalized]))

	if s := strings.TrimSpace(row[ColTicks]); s != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return DraftRow{}, errclass.ErrParse.WithMessagef("draft %s: ticks: %v", key, err)
		}
		for id, v := range raw {
			if b, ok := v.(bool); ok && b {
				d.Ticks[id] = true
			}
		}
	}
	return d, nil
}
