package composer

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("composer: validation failed")
	// ErrInvalidRange matches every *InvalidRangeError.
	ErrInvalidRange = errors.New("composer: invalid date range")
)

// ValidationError reports a required field that is missing or malformed.
// Nothing is rendered when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("composer: %s %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InvalidRangeError is returned when a statement period starts after it ends.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("composer: period start %s is after end %s", e.Start.Format(dateLayout), e.End.Format(dateLayout))
}

// Is reports whether target is ErrInvalidRange.
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// AssetSkipped records an image that was left out of a document because it
// could not be decoded or placed. It never aborts composition.
type AssetSkipped struct {
	Kind   string
	Index  int
	Name   string
	Reason string
}

func (a AssetSkipped) Error() string {
	return fmt.Sprintf("composer: skipped %s #%d (%s): %s", a.Kind, a.Index, a.Name, a.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
