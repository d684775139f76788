// Package composer lays out debit note receipts and contractor statements as
// paginated PDF documents.
//
// A Composer is immutable after New and keeps no state between calls, so one
// instance can serve concurrent requests. Every call builds its own gofpdf
// document and either returns a complete Document or an error; callers never
// observe a partially written file.
package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultCompany        = "Debit Notes"
	defaultCurrency       = "INR"
	defaultPlaces         = 2
	defaultReasonBudget   = 55
	defaultCategoryBudget = 16
	fontFamily            = "Arial"
	logoKey               = "company-logo"
	logoBoxWidth          = 33.0
	logoBoxHeight         = 20.0
)

// Composer renders receipts and statements.
type Composer struct {
	company        string
	logo           *decodedImage
	currency       string
	places         int32
	reasonBudget   int
	categoryBudget int
	maxImagePixels int
	logger         *zap.Logger
}

// Option configures a Composer.
type Option func(*Composer) error

// WithCompanyName sets the name printed in every page header.
func WithCompanyName(name string) Option {
	return func(c *Composer) error {
		if strings.TrimSpace(name) != "" {
			c.company = name
		}
		return nil
	}
}

// WithLogo sets the header logo. Invalid image data is a configuration error.
func WithLogo(data []byte) Option {
	return func(c *Composer) error {
		if len(data) == 0 {
			return nil
		}
		img, err := decodeImage(ImageRef{Name: "logo", Data: data}, c.boxBudget(logoBoxWidth, logoBoxHeight))
		if err != nil {
			return fmt.Errorf("composer: logo: %w", err)
		}
		c.logo = &img
		return nil
	}
}

// WithCurrency sets the currency code and the number of decimal places
// amounts are rendered and validated with.
func WithCurrency(code string, places int32) Option {
	return func(c *Composer) error {
		if places < 0 {
			return errors.New("composer: negative currency places")
		}
		c.currency = code
		c.places = places
		return nil
	}
}

// WithReasonBudget sets the statement reason column width in characters.
func WithReasonBudget(chars int) Option {
	return func(c *Composer) error {
		if chars <= 0 {
			return errors.New("composer: reason budget must be positive")
		}
		c.reasonBudget = chars
		return nil
	}
}

// WithMaxImagePixels caps the width x height of any image the composer will
// decode. Larger uploads are skipped.
func WithMaxImagePixels(pixels int) Option {
	return func(c *Composer) error {
		if pixels <= 0 {
			return errors.New("composer: max image pixels must be positive")
		}
		c.maxImagePixels = pixels
		return nil
	}
}

// WithLogger sets the logger used to report skipped assets.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Composer) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// New constructs a Composer.
func New(opts ...Option) (*Composer, error) {
	c := &Composer{
		company:        defaultCompany,
		currency:       defaultCurrency,
		places:         defaultPlaces,
		reasonBudget:   defaultReasonBudget,
		categoryBudget: defaultCategoryBudget,
		maxImagePixels: defaultMaxImagePixels,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Places returns the number of decimal places amounts carry.
func (c *Composer) Places() int32 {
	return c.places
}

// FormatAmount renders an amount the way documents show it.
func (c *Composer) FormatAmount(amount decimal.Decimal) string {
	return formatAmount(c.currency, c.places, amount)
}

// newFlow prepares a document with the company header and page footer.
func (c *Composer) newFlow(title string) *flow {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, 10, marginRight)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAuthor(c.company, true)
	pdf.SetCreator("debitnote-cloud", true)

	hasLogo := false
	if c.logo != nil {
		if err := register(pdf, logoKey, *c.logo); err != nil {
			c.logger.Warn("logo not registered", zap.Error(err))
		} else {
			hasLogo = true
		}
	}

	pdf.SetHeaderFunc(func() {
		if hasLogo {
			w, h := fitInBox(c.logo.width, c.logo.height, logoBoxWidth, logoBoxHeight)
			drawImage(pdf, logoKey, marginLeft, 8, w, h)
		}
		pdf.SetFont(fontFamily, "B", 15)
		pdf.SetXY(marginLeft, 12)
		pdf.CellFormat(contentWidth, 10, tr(c.company), "", 0, "C", false, 0, "")
		pdf.Line(marginLeft, 30, pageWidth-marginRight, 30)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetXY(marginLeft, pageHeight-12)
		pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return &flow{pdf: pdf, tr: tr}
}

// checkPrecision rejects amounts that would render rounded.
func (c *Composer) checkPrecision(field string, amount decimal.Decimal) error {
	if !hasPrecision(amount, c.places) {
		return invalid(field, fmt.Sprintf("has more than %d decimal places", c.places))
	}
	return nil
}

func (c *Composer) logSkipped(kind Kind, skipped []AssetSkipped) {
	for _, s := range skipped {
		c.logger.Warn("asset skipped",
			zap.String("document", string(kind)),
			zap.String("asset", s.Kind),
			zap.Int("index", s.Index),
			zap.String("name", s.Name),
			zap.String("reason", s.Reason),
		)
	}
}

// drawTitle places the centered document title.
func (c *Composer) drawTitle(f *flow, title string) {
	f.reserve(titleHeight)
	f.pdf.SetFont(fontFamily, "B", 16)
	f.pdf.SetXY(marginLeft, f.y)
	f.pdf.CellFormat(contentWidth, titleHeight, f.tr(title), "", 0, "C", false, 0, "")
	f.record(Placement{Kind: ElementTitle, X: marginLeft, Y: f.y, W: contentWidth, H: titleHeight, Label: title})
	f.y += titleHeight
}
