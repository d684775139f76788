package composer

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
)

// A4 portrait geometry in millimetres.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 10.0
	marginRight  = 10.0
	contentTop   = 40.0
	marginBottom = 15.0
	contentWidth = pageWidth - marginLeft - marginRight
	pageBottom   = pageHeight - marginBottom

	// Evidence images are fitted into a W x H box, two boxes per row.
	imageBoxWidth  = 90.0
	imageBoxHeight = 70.0
	halfWidth      = contentWidth / 2

	signatureBoxWidth  = 60.0
	signatureBoxHeight = 25.0

	titleHeight       = 12.0
	fieldHeight       = 10.0
	labelWidth        = 50.0
	valueWidth        = contentWidth - labelWidth
	reasonLineHeight  = 7.0
	sectionHeight     = 10.0
	attributionHeight = 7.0
	spacerHeight      = 5.0
	tableRowHeight    = 8.0

	// epsilon absorbs float drift when the cursor lands exactly on the bottom.
	epsilon = 1e-6
)

// flow owns one gofpdf document and its vertical cursor. Pagination is done
// here; gofpdf auto page breaks are disabled.
type flow struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	y      float64
	page   int
	layout []Placement
}

func (f *flow) newPage() {
	f.pdf.AddPage()
	f.page = f.pdf.PageNo()
	f.y = contentTop
}

func (f *flow) remaining() float64 {
	return pageBottom - f.y
}

// reserve starts a new page when an element of height h does not fit below
// the cursor. It never splits an element.
func (f *flow) reserve(h float64) {
	if f.page == 0 || f.remaining()+epsilon < h {
		f.newPage()
	}
}

// skip moves the cursor down without placing anything. A spacer never
// forces a page break on its own.
func (f *flow) skip(h float64) {
	f.y += h
	if f.y > pageBottom {
		f.y = pageBottom
	}
}

func (f *flow) record(p Placement) {
	p.Page = f.page
	f.layout = append(f.layout, p)
}

func (f *flow) finish() (data []byte, pages int, err error) {
	var buf bytes.Buffer
	if err := f.pdf.Output(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), f.pdf.PageCount(), nil
}

// fitInBox scales a width x height image into a boxW x boxH box without
// distortion. Tall images fill the box height, all others fill its width.
func fitInBox(width, height int, boxW, boxH float64) (w, h float64) {
	aspect := float64(height) / float64(width)
	if aspect > boxH/boxW {
		return boxH / aspect, boxH
	}
	return boxW, boxW * aspect
}
