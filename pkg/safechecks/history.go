package safechecks

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/model"
)

// HistoryFilter selects records. Zero values match everything except
// task completions, which are only listed when asked for by Type.
type HistoryFilter struct {
	Type  model.RecordType
	From  string // YYYY-MM-DD, inclusive
	To    string // YYYY-MM-DD, inclusive
	Range string // today, yesterday or week; overrides From and To
	Limit int
}

func (f *HistoryFilter) resolve(now time.Time) error {
	if f.Type != "" && !f.Type.Valid() {
		return errclass.ErrValidation.WithMessagef("unknown record type %q", f.Type)
	}
	today := now.Format(model.DateLayout)
	switch f.Range {
	case "":
	case "today":
		f.From, f.To = today, today
	case "yesterday":
		y := now.AddDate(0, 0, -1).Format(model.DateLayout)
		f.From, f.To = y, y
	case "week":
		f.From, f.To = model.WeekStartOf(now).Format(model.DateLayout), today
	default:
		return errclass.ErrValidation.WithMessagef("unknown range %q (want today, yesterday or week)", f.Range)
	}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, d); err != nil {
			return errclass.ErrValidation.WithMessagef("date %q: want YYYY-MM-DD", d)
		}
	}
	return nil
}

// History returns matching records newest first. Staff devices see their
// own department and records without one; management sees everything.
func (c *Client) History(f HistoryFilter) ([]model.Record, error) {
	if err := f.resolve(c.now()); err != nil {
		return nil, err
	}
	recs, err := c.store.Records()
	if err != nil {
		return nil, err
	}

	dept := c.device.Dept
	out := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		switch {
		case f.Type == "" && r.Type == model.TypeTaskCompletion:
		case f.Type != "" && r.Type != f.Type:
		case !dept.SeesAll() && r.Dept != "" && r.Dept != dept:
		case f.From != "" && r.Date < f.From:
		case f.To != "" && r.Date > f.To:
		default:
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ISO.Equal(out[j].ISO) {
			return out[i].ISO.After(out[j].ISO)
		}
		return out[i].Date > out[j].Date
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

var exportHeaders = []string{"ID", "Type", "Department", "Date", "Timestamp", "Summary", "Details"}

func exportRow(r model.Record) []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	details := make([]string, 0, len(keys))
	for _, k := range keys {
		details = append(details, k+": "+r.Fields[k])
	}
	return []string{r.ID, string(r.Type), string(r.Dept), r.Date, r.Timestamp, r.Summary, strings.Join(details, " | ")}
}

// ExportCSV writes records as CSV with a header row.
func ExportCSV(w io.Writer, recs []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX writes records as a single-sheet workbook.
func ExportXLSX(w io.Writer, recs []model.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "History"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	write := func(row int, cells []string) error {
		vals := make([]any, len(cells))
		for i, c := range cells {
			vals[i] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &vals)
	}
	if err := write(1, exportHeaders); err != nil {
		return err
	}
	for i, r := range recs {
		if err := write(i+2, exportRow(r)); err != nil {
			return fmt.Errorf("export row %d: %w", i+1, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}
