package composer

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImageRef is a handle to encoded pixel data (PNG, JPEG or GIF). Its
// intrinsic size is read from the data when the image is placed.
type ImageRef struct {
	Name string
	Data []byte
}

// ReceiptRecord is the input of ComposeReceipt. It is built right before
// rendering and is not modified by the composer.
type ReceiptRecord struct {
	Contractor string
	Date       time.Time
	Site       string
	Category   string
	Amount     decimal.Decimal
	Reason     string
	Images     []ImageRef
	Signature  *ImageRef
	Submitter  string
}

// Validate checks the required receipt fields.
func (r ReceiptRecord) Validate() error {
	if strings.TrimSpace(r.Contractor) == "" {
		return invalid("contractor", "is required")
	}
	if r.Date.IsZero() {
		return invalid("date", "is required")
	}
	if strings.TrimSpace(r.Site) == "" {
		return invalid("site", "is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return invalid("category", "is required")
	}
	if r.Amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}
	return nil
}

// LineItem is one statement row.
type LineItem struct {
	Date     time.Time
	Category string
	Reason   string
	Amount   decimal.Decimal
}

// StatementRequest is the input of ComposeStatement. Items are rendered in
// the order given.
type StatementRequest struct {
	Contractor string
	Start      time.Time
	End        time.Time
	Items      []LineItem
}

// Validate checks the statement header, the period and every line item.
func (r StatementRequest) Validate() error {
	if strings.TrimSpace(r.Contractor) == "" {
		return invalid("contractor", "is required")
	}
	if r.Start.IsZero() {
		return invalid("start", "is required")
	}
	if r.End.IsZero() {
		return invalid("end", "is required")
	}
	if calendarDate(r.Start).After(calendarDate(r.End)) {
		return &InvalidRangeError{Start: r.Start, End: r.End}
	}
	for i, item := range r.Items {
		if item.Date.IsZero() {
			return invalid(itemField(i, "date"), "is required")
		}
		if item.Amount.IsNegative() {
			return invalid(itemField(i, "amount"), "must not be negative")
		}
	}
	return nil
}

func itemField(index int, name string) string {
	return "items[" + strconv.Itoa(index) + "]." + name
}

// calendarDate drops the clock part so that ranges compare whole days.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
