package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	notes "debitnote-cloud/internal/notes/domain"
)

const defaultNotesTable = "debit_notes"

// NoteRepository is a Postgres implementation for debit notes.
type NoteRepository struct {
	db    DBTX
	table string
}

// NoteOption configures the repository.
type NoteOption func(*NoteRepository)

// WithNotesTable overrides the default table name.
func WithNotesTable(table string) NoteOption {
	return func(repo *NoteRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewNoteRepository constructs a repository.
func NewNoteRepository(db DBTX, opts ...NoteOption) *NoteRepository {
	repo := &NoteRepository{db: db, table: defaultNotesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Insert writes a new note.
func (r *NoteRepository) Insert(ctx context.Context, note *notes.DebitNote) error {
	if r == nil || r.db == nil {
		return errors.New("note repo: nil db")
	}
	if note == nil {
		return notes.ErrNilNote
	}
	if err := note.Validate(); err != nil {
		return err
	}
	links := note.ImageLinks
	if links == nil {
		links = []string{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return err
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	contractor,
	note_date,
	site,
	category,
	amount,
	reason,
	submitter,
	image_links,
	signature_link,
	pdf_link,
	created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)`, r.table)
	_, err = r.db.ExecContext(ctx, query,
		note.ID,
		note.Contractor,
		notes.Day(note.Date),
		note.Site,
		string(note.Category),
		note.Amount,
		note.Reason,
		note.Submitter,
		string(linksJSON),
		note.SignatureLink,
		note.PDFLink,
		note.CreatedAt,
	)
	return err
}

// Query lists notes matching filter ordered by date.
func (r *NoteRepository) Query(ctx context.Context, filter notes.NoteFilter) ([]notes.DebitNote, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("note repo: nil db")
	}
	query, args := buildNoteQuery(r.table, filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []notes.DebitNote
	for rows.Next() {
		var (
			note      notes.DebitNote
			category  string
			linksJSON []byte
		)
		if err := rows.Scan(
			&note.ID,
			&note.Contractor,
			&note.Date,
			&note.Site,
			&category,
			&note.Amount,
			&note.Reason,
			&note.Submitter,
			&linksJSON,
			&note.SignatureLink,
			&note.PDFLink,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		note.Category = notes.Category(category)
		if len(linksJSON) > 0 {
			if err := json.Unmarshal(linksJSON, &note.ImageLinks); err != nil {
				return nil, fmt.Errorf("note repo: image links of %s: %w", note.ID, err)
			}
		}
		note.Date = notes.Day(note.Date)
		note.CreatedAt = note.CreatedAt.UTC()
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func buildNoteQuery(table string, filter notes.NoteFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if c := strings.TrimSpace(filter.Contractor); c != "" {
		add("LOWER(contractor) = LOWER($%d)", c)
	}
	if !filter.From.IsZero() {
		add("note_date >= $%d", notes.Day(filter.From))
	}
	if !filter.To.IsZero() {
		add("note_date <= $%d", notes.Day(filter.To))
	}
	if filter.Category != "" {
		add("category = $%d", string(filter.Category))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(reason ILIKE $%d OR site ILIKE $%d)", n, n))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
SELECT id, contractor, note_date, site, category, amount, reason, submitter,
	image_links, signature_link, pdf_link, created_at
FROM %s`, table)
	if len(conds) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString("\nORDER BY note_date ASC, created_at ASC, id ASC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, "\nLIMIT $%d", len(args))
	}
	return b.String(), args
}
