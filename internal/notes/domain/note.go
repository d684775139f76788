package notes

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies why a deduction was raised.
type Category string

const (
	CategoryQuality  Category = "quality"
	CategorySafety   Category = "safety"
	CategoryDelay    Category = "delay"
	CategoryMaterial Category = "material"
	CategoryOther    Category = "other"
)

// DefaultCategories is the category set used when none is configured.
var DefaultCategories = []Category{
	CategoryQuality,
	CategorySafety,
	CategoryDelay,
	CategoryMaterial,
	CategoryOther,
}

// ParseCategory matches s case-insensitively against allowed.
func ParseCategory(s string, allowed []Category) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range allowed {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// DebitNote is a persisted deduction raised against a contractor.
type DebitNote struct {
	ID            string
	Contractor    string
	Date          time.Time
	Site          string
	Category      Category
	Amount        decimal.Decimal
	Reason        string
	Submitter     string
	ImageLinks    []string
	SignatureLink string
	PDFLink       string
	CreatedAt     time.Time
}

// Validate checks note invariants before it reaches a store.
func (n DebitNote) Validate() error {
	if n.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(n.Contractor) == "" {
		return ErrEmptyContractor
	}
	if n.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(n.Site) == "" {
		return ErrEmptySite
	}
	if n.Category == "" {
		return ErrUnknownCategory
	}
	if n.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// NoteFilter selects notes. Zero fields match everything; From and To are
// inclusive calendar days.
type NoteFilter struct {
	Contractor string
	From       time.Time
	To         time.Time
	Category   Category
	Query      string
	Limit      int
}

// Match reports whether n passes the filter.
func (f NoteFilter) Match(n DebitNote) bool {
	if f.Contractor != "" && !strings.EqualFold(strings.TrimSpace(f.Contractor), strings.TrimSpace(n.Contractor)) {
		return false
	}
	date := Day(n.Date)
	if !f.From.IsZero() && date.Before(Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && date.After(Day(f.To)) {
		return false
	}
	if f.Category != "" && f.Category != n.Category {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := strings.ToLower(n.Reason + " " + n.Site)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortNotes orders notes by date, then creation time, then id.
func SortNotes(items []DebitNote) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// ApplyLimit cuts items to the filter limit.
func (f NoteFilter) ApplyLimit(items []DebitNote) []DebitNote {
	if f.Limit > 0 && len(items) > f.Limit {
		return items[:f.Limit]
	}
	return items
}

// NoteRepository persists debit notes.
type NoteRepository interface {
	Insert(ctx context.Context, note *DebitNote) error
	Query(ctx context.Context, filter NoteFilter) ([]DebitNote, error)
}
