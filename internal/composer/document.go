package composer

import (
	"bytes"
	"io"

	"github.com/shopspring/decimal"
)

// Kind identifies what a Document was composed from.
type Kind string

const (
	KindReceipt   Kind = "receipt"
	KindStatement Kind = "statement"
)

// ElementKind names a placed layout element.
type ElementKind string

const (
	ElementTitle       ElementKind = "title"
	ElementHeading     ElementKind = "heading"
	ElementField       ElementKind = "field"
	ElementReasonLine  ElementKind = "reason_line"
	ElementSection     ElementKind = "section"
	ElementImageRow    ElementKind = "image_row"
	ElementImage       ElementKind = "image"
	ElementSignature   ElementKind = "signature"
	ElementAttribution ElementKind = "attribution"
	ElementTableHeader ElementKind = "table_header"
	ElementTableRow    ElementKind = "table_row"
	ElementTotalRow    ElementKind = "total_row"
)

// Placement records where an element was drawn, in millimetres from the top
// left corner of its page. Pages are numbered from 1.
type Placement struct {
	Kind  ElementKind
	Page  int
	X     float64
	Y     float64
	W     float64
	H     float64
	Label string
	Cells []string
}

// Bottom returns the lower edge of the placement.
func (p Placement) Bottom() float64 {
	return p.Y + p.H
}

// Document is a finished, paginated PDF.
type Document struct {
	Kind    Kind
	Pages   int
	Data    []byte
	Layout  []Placement
	Skipped []AssetSkipped
	// Total is the exact statement total; zero for receipts.
	Total decimal.Decimal
}

// WriteTo writes the PDF bytes to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(d.Data).WriteTo(w)
}

// Elements returns the placements of the given kind in drawing order.
func (d *Document) Elements(kind ElementKind) []Placement {
	var result []Placement
	for _, p := range d.Layout {
		if p.Kind == kind {
			result = append(result, p)
		}
	}
	return result
}
