package workbook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	notes "debitnote-cloud/internal/notes/domain"
)

const (
	dateLayout = "2006-01-02"
	noImage    = "No Image"
)

// NoteRepository keeps debit notes on the DebitNotes sheet.
type NoteRepository struct {
	wb *Workbook
}

// NewNoteRepository constructs a repository.
func NewNoteRepository(wb *Workbook) *NoteRepository {
	return &NoteRepository{wb: wb}
}

// Insert appends a note row.
func (r *NoteRepository) Insert(ctx context.Context, note *notes.DebitNote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if note == nil {
		return notes.ErrNilNote
	}
	if err := note.Validate(); err != nil {
		return err
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	images := strings.Join(note.ImageLinks, "\n")
	if images == "" {
		images = noImage
	}
	row := []any{
		note.ID,
		note.Contractor,
		note.Date.Format(dateLayout),
		note.Amount.String(),
		note.Reason,
		note.Site,
		images,
		note.PDFLink,
		string(note.Category),
		note.Submitter,
		note.SignatureLink,
		note.CreatedAt.Format(time.RFC3339),
	}
	return r.wb.update(func(f *excelize.File) error {
		return appendRow(f, notesSheet, row)
	})
}

// Query scans the sheet and returns matching notes ordered by date.
func (r *NoteRepository) Query(ctx context.Context, filter notes.NoteFilter) ([]notes.DebitNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.wb.rows(notesSheet)
	if err != nil {
		return nil, err
	}
	var result []notes.DebitNote
	for i, row := range rows {
		if cellAt(row, 0) == "" {
			continue
		}
		note, err := parseNote(row)
		if err != nil {
			return nil, fmt.Errorf("workbook: %s row %d: %w", notesSheet, i+2, err)
		}
		if filter.Match(note) {
			result = append(result, note)
		}
	}
	notes.SortNotes(result)
	return filter.ApplyLimit(result), nil
}

func parseNote(row []string) (notes.DebitNote, error) {
	date, err := time.Parse(dateLayout, cellAt(row, 2))
	if err != nil {
		return notes.DebitNote{}, fmt.Errorf("date: %w", err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(cellAt(row, 3)))
	if err != nil {
		return notes.DebitNote{}, fmt.Errorf("amount: %w", err)
	}
	note := notes.DebitNote{
		ID:            cellAt(row, 0),
		Contractor:    cellAt(row, 1),
		Date:          date,
		Amount:        amount,
		Reason:        cellAt(row, 4),
		Site:          cellAt(row, 5),
		PDFLink:       cellAt(row, 7),
		Category:      notes.Category(cellAt(row, 8)),
		Submitter:     cellAt(row, 9),
		SignatureLink: cellAt(row, 10),
	}
	if note.Category == "" {
		note.Category = notes.CategoryOther
	}
	if images := cellAt(row, 6); images != "" && images != noImage {
		note.ImageLinks = strings.Split(images, "\n")
	}
	if created := cellAt(row, 11); created != "" {
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			note.CreatedAt = ts.UTC()
		}
	}
	return note, nil
}

// ContractorRepository keeps contractors on the Contractors sheet.
type ContractorRepository struct {
	wb *Workbook
}

// NewContractorRepository constructs a repository.
func NewContractorRepository(wb *Workbook) *ContractorRepository {
	return &ContractorRepository{wb: wb}
}

// Add appends a contractor unless the name is already listed.
func (r *ContractorRepository) Add(ctx context.Context, contractor *notes.Contractor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if contractor == nil {
		return notes.ErrEmptyName
	}
	if err := contractor.Validate(); err != nil {
		return err
	}
	if contractor.CreatedAt.IsZero() {
		contractor.CreatedAt = time.Now().UTC()
	}
	return r.wb.update(func(f *excelize.File) error {
		rows, err := f.GetRows(contractorsSheet)
		if err != nil {
			return err
		}
		for _, row := range rows[min(1, len(rows)):] {
			if notes.SameName(cellAt(row, 1), contractor.Name) {
				return notes.ErrDuplicateContractor
			}
		}
		return appendRow(f, contractorsSheet, []any{
			contractor.ID,
			strings.Join(strings.Fields(contractor.Name), " "),
			contractor.CreatedAt.Format(time.RFC3339),
		})
	})
}

// List returns contractors in sheet order.
func (r *ContractorRepository) List(ctx context.Context) ([]notes.Contractor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.wb.rows(contractorsSheet)
	if err != nil {
		return nil, err
	}
	var result []notes.Contractor
	for _, row := range rows {
		name := cellAt(row, 1)
		if strings.TrimSpace(name) == "" {
			continue
		}
		c := notes.Contractor{ID: cellAt(row, 0), Name: name}
		if ts, err := time.Parse(time.RFC3339, cellAt(row, 2)); err == nil {
			c.CreatedAt = ts.UTC()
		}
		result = append(result, c)
	}
	return result, nil
}
