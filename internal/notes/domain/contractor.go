package notes

import (
	"context"
	"strings"
	"time"
)

// Contractor is a party debit notes are raised against.
type Contractor struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Validate checks contractor invariants.
func (c Contractor) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// SameName reports whether two contractor names refer to the same party.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// ContractorRepository manages contractor master data. Add returns
// ErrDuplicateContractor when the name is already registered.
type ContractorRepository interface {
	Add(ctx context.Context, contractor *Contractor) error
	List(ctx context.Context) ([]Contractor, error)
}
