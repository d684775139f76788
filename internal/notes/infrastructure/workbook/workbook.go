// Package workbook stores debit notes and contractors in a single .xlsx
// file, one sheet per record type. It suits small offices that keep their
// register in a spreadsheet.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
)

const (
	notesSheet       = "DebitNotes"
	contractorsSheet = "Contractors"
)

var (
	notesHeader = []any{
		"ID", "Contractor Name", "Date", "Amount", "Reason", "Site Location", "Image Link", "PDF Link",
		"Category", "Submitter", "Signature Link", "Created At",
	}
	contractorsHeader = []any{"ID", "Name", "Created At"}
)

// Workbook serializes access to the spreadsheet file. Every write rewrites
// the file through a temporary copy so readers never see a torn workbook.
type Workbook struct {
	mu   sync.Mutex
	path string
}

// Open returns a Workbook at path, creating the file and its sheets when
// they do not exist yet.
func Open(path string) (*Workbook, error) {
	if path == "" {
		return nil, errors.New("workbook: empty path")
	}
	wb := &Workbook{path: path}
	wb.mu.Lock()
	defer wb.mu.Unlock()

	f, err := wb.load()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	changed, err := ensureSheets(f)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := wb.save(f); err != nil {
			return nil, err
		}
	}
	return wb, nil
}

// Path returns the file location.
func (w *Workbook) Path() string {
	return w.path
}

func (w *Workbook) load() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("workbook: open %s: %w", w.path, err)
	}
	return f, nil
}

func (w *Workbook) save(f *excelize.File) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".workbook-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("workbook: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, w.path)
}

// ensureSheets adds missing sheets with their header rows and drops the
// default sheet of a fresh file.
func ensureSheets(f *excelize.File) (bool, error) {
	changed := false
	for _, s := range []struct {
		name   string
		header []any
	}{
		{notesSheet, notesHeader},
		{contractorsSheet, contractorsHeader},
	} {
		idx, err := f.GetSheetIndex(s.name)
		if err != nil {
			return false, err
		}
		if idx >= 0 {
			continue
		}
		if _, err := f.NewSheet(s.name); err != nil {
			return false, err
		}
		header := s.header
		if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
			return false, err
		}
		changed = true
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 && changed {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// update loads the file, applies fn and saves the result.
func (w *Workbook) update(fn func(f *excelize.File) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.load()
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := ensureSheets(f); err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	return w.save(f)
}

// rows returns the data rows of sheet without its header.
func (w *Workbook) rows(sheet string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.load()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// appendRow writes values below the last used row of sheet.
func appendRow(f *excelize.File, sheet string, values []any) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
