// Package gateway is a self-hosted stand-in for the spreadsheet web app:
// an .xlsx workbook exposed over the same JSON protocol.
package gateway

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/pkg/errclass"
)

const (
	settingsKeyCol   = "key"
	settingsValueCol = "value"
	settingsRowKey   = "settings"
)

// Workbook is a RowStore backed by an .xlsx file. Every write is saved
// before it returns.
type Workbook struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

var _ sheets.RowStore = (*Workbook)(nil)

// OpenWorkbook opens path, creating an empty workbook if it does not exist.
func OpenWorkbook(path string) (*Workbook, error) {
	var (
		f   *excelize.File
		err error
	)
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		f = excelize.NewFile()
		err = f.SaveAs(path)
	} else {
		f, err = excelize.OpenFile(path)
	}
	if err != nil {
		return nil, errclass.ErrStore.WithMessagef("open workbook %s: %v", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

// Path returns the workbook file path.
func (w *Workbook) Path() string { return w.path }

// Close releases the workbook.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Workbook) hasSheet(tab string) bool {
	idx, err := w.file.GetSheetIndex(tab)
	return err == nil && idx >= 0
}

// header returns the header row of tab, creating the sheet and adding any
// missing columns from want.
func (w *Workbook) header(tab string, want []string) ([]string, error) {
	if !w.hasSheet(tab) {
		if _, err := w.file.NewSheet(tab); err != nil {
			return nil, err
		}
	}
	rows, err := w.file.GetRows(tab)
	if err != nil {
		return nil, err
	}
	var have []string
	if len(rows) > 0 {
		have = rows[0]
	}
	changed := false
	for _, h := range want {
		if indexOf(have, h) < 0 {
			have = append(have, h)
			changed = true
		}
	}
	if changed {
		if err := w.writeRow(tab, 1, have); err != nil {
			return nil, err
		}
	}
	return have, nil
}

func (w *Workbook) writeRow(tab string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return w.file.SetSheetRow(tab, cell, &values)
}

// arrange places row values under the sheet's own column order.
func arrange(sheetHeader, headers, row []string) []string {
	out := make([]string, len(sheetHeader))
	for i, h := range headers {
		if i >= len(row) {
			break
		}
		if j := indexOf(sheetHeader, h); j >= 0 {
			out[j] = row[i]
		}
	}
	return out
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func (w *Workbook) save(op string) error {
	if err := w.file.SaveAs(w.path); err != nil {
		return errclass.ErrStore.WithMessagef("%s: save workbook: %v", op, err)
	}
	return nil
}

// Append adds row at the bottom of tab, creating the tab on first use.
func (w *Workbook) Append(ctx context.Context, tab string, headers, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(tab) == "" {
		return errclass.ErrValidation.WithMessage("append: tab is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	sheetHeader, err := w.header(tab, headers)
	if err != nil {
		return errclass.ErrStore.WithMessagef("append %s: %v", tab, err)
	}
	rows, err := w.file.GetRows(tab)
	if err != nil {
		return errclass.ErrStore.WithMessagef("append %s: %v", tab, err)
	}
	if err := w.writeRow(tab, len(rows)+1, arrange(sheetHeader, headers, row)); err != nil {
		return errclass.ErrStore.WithMessagef("append %s: %v", tab, err)
	}
	return w.save("append")
}

// Upsert overwrites the row whose Key column equals key.
func (w *Workbook) Upsert(ctx context.Context, tab, key string, headers, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.upsertLocked(tab, sheets.ColKey, key, headers, row); err != nil {
		return err
	}
	return w.save("upsert")
}

func (w *Workbook) upsertLocked(tab, keyCol, key string, headers, row []string) error {
	if key == "" {
		return errclass.ErrValidation.WithMessage("upsert: key is required")
	}
	sheetHeader, err := w.header(tab, headers)
	if err != nil {
		return errclass.ErrStore.WithMessagef("upsert %s: %v", tab, err)
	}
	keyIdx := indexOf(sheetHeader, keyCol)
	if keyIdx < 0 {
		return errclass.ErrValidation.WithMessagef("upsert %s: no %q column", tab, keyCol)
	}
	rows, err := w.file.GetRows(tab)
	if err != nil {
		return errclass.ErrStore.WithMessagef("upsert %s: %v", tab, err)
	}
	target := len(rows) + 1
	for i := 1; i < len(rows); i++ {
		if keyIdx < len(rows[i]) && rows[i][keyIdx] == key {
			target = i + 1
			break
		}
	}
	if err := w.writeRow(tab, target, arrange(sheetHeader, headers, row)); err != nil {
		return errclass.ErrStore.WithMessagef("upsert %s: %v", tab, err)
	}
	return nil
}

// Read returns the rows of tab keyed by header, skipping blank rows.
// A tab that does not exist yet reads as empty.
func (w *Workbook) Read(ctx context.Context, tab string) ([]sheets.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheet(tab) {
		return []sheets.Row{}, nil
	}
	rows, err := w.file.GetRows(tab)
	if err != nil {
		return nil, errclass.ErrStore.WithMessagef("read %s: %v", tab, err)
	}
	out := make([]sheets.Row, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	header := rows[0]
	for _, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		row := make(sheets.Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SaveSettings stores the blob in the Settings tab.
func (w *Workbook) SaveSettings(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	headers := []string{settingsKeyCol, settingsValueCol}
	if err := w.upsertLocked(sheets.TabSettings, settingsKeyCol, settingsRowKey, headers, []string{settingsRowKey, string(blob)}); err != nil {
		return err
	}
	return w.save("save settings")
}

// ReadSettings returns the stored blob, or nil.
func (w *Workbook) ReadSettings(ctx context.Context) ([]byte, error) {
	rows, err := w.Read(ctx, sheets.TabSettings)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r[settingsKeyCol] == settingsRowKey && strings.TrimSpace(r[settingsValueCol]) != "" {
			return []byte(r[settingsValueCol]), nil
		}
	}
	return nil, nil
}
