package notes

import "errors"

var (
	// ErrNilNote is returned when inserting a nil note.
	ErrNilNote = errors.New("notes: nil note")
	// ErrEmptyID is returned when a record has no id.
	ErrEmptyID = errors.New("notes: empty id")
	// ErrEmptyContractor is returned when a note names no contractor.
	ErrEmptyContractor = errors.New("notes: empty contractor")
	// ErrEmptySite is returned when a note has no site location.
	ErrEmptySite = errors.New("notes: empty site")
	// ErrInvalidDate is returned when a note date is zero.
	ErrInvalidDate = errors.New("notes: invalid date")
	// ErrNegativeAmount is returned when a deduction is negative.
	ErrNegativeAmount = errors.New("notes: negative amount")
	// ErrUnknownCategory is returned for a category outside the configured set.
	ErrUnknownCategory = errors.New("notes: unknown category")
	// ErrEmptyName is returned when a contractor has no name.
	ErrEmptyName = errors.New("notes: empty contractor name")
	// ErrDuplicateContractor is returned when a contractor name already exists.
	ErrDuplicateContractor = errors.New("notes: contractor already exists")
	// ErrUnknownContractor is returned when a note names an unregistered contractor.
	ErrUnknownContractor = errors.New("notes: unknown contractor")
)
