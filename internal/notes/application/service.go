package application

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func newID() string {
	return uuid.NewString()
}
