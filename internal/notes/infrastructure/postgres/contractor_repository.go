package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	notes "debitnote-cloud/internal/notes/domain"
)

const defaultContractorsTable = "contractors"

// ContractorRepository is a Postgres implementation for contractors.
// Name uniqueness is enforced by a unique index on the normalized name.
type ContractorRepository struct {
	db    DBTX
	table string
}

// ContractorOption configures the repository.
type ContractorOption func(*ContractorRepository)

// WithContractorsTable overrides the default table name.
func WithContractorsTable(table string) ContractorOption {
	return func(repo *ContractorRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewContractorRepository constructs a repository.
func NewContractorRepository(db DBTX, opts ...ContractorOption) *ContractorRepository {
	repo := &ContractorRepository{db: db, table: defaultContractorsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Add inserts a contractor.
func (r *ContractorRepository) Add(ctx context.Context, contractor *notes.Contractor) error {
	if r == nil || r.db == nil {
		return errors.New("contractor repo: nil db")
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
	name := strings.Join(strings.Fields(contractor.Name), " ")
	query := fmt.Sprintf(`
INSERT INTO %s (id, name, name_key, created_at)
VALUES ($1, $2, $3, $4)`, r.table)
	_, err := r.db.ExecContext(ctx, query, contractor.ID, name, strings.ToLower(name), contractor.CreatedAt)
	if isUniqueViolation(err) {
		return notes.ErrDuplicateContractor
	}
	return err
}

// List returns contractors in registration order.
func (r *ContractorRepository) List(ctx context.Context) ([]notes.Contractor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("contractor repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, name, created_at
FROM %s
ORDER BY created_at ASC, id ASC`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []notes.Contractor
	for rows.Next() {
		var c notes.Contractor
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
