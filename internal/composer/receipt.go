package composer

import (
	"fmt"
	"strings"
)

const (
	receiptTitle     = "DEBIT NOTE"
	evidenceHeading  = "Evidence"
	signatureKey     = "signature"
	attributionLabel = "Raised by: "
)

// ComposeReceipt renders a debit note receipt: title, bordered field table,
// bordered reason block, evidence images two per row and an optional
// right-aligned signature with an attribution line.
//
// Images that cannot be decoded are left out and reported in
// Document.Skipped. Any other problem returns an error and no document.
func (c *Composer) ComposeReceipt(record ReceiptRecord) (*Document, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkPrecision("amount", record.Amount); err != nil {
		return nil, err
	}

	images, skipped := decodeAll("image", record.Images, c.boxBudget(imageBoxWidth, imageBoxHeight))
	var signature *decodedImage
	if record.Signature != nil {
		sig, sigSkipped := decodeAll("signature", []ImageRef{*record.Signature}, c.boxBudget(signatureBoxWidth, signatureBoxHeight))
		if len(sig) == 1 {
			signature = &sig[0]
		}
		skipped = append(skipped, sigSkipped...)
	}

	f := c.newFlow(receiptTitle)
	f.newPage()
	c.drawTitle(f, receiptTitle)
	f.skip(spacerHeight)

	c.drawField(f, "Contractor Name", record.Contractor)
	c.drawField(f, "Date", record.Date.Format(dateLayout))
	c.drawField(f, "Site Location", record.Site)
	c.drawField(f, "Category", record.Category)
	c.drawField(f, "Amount Deducted", c.FormatAmount(record.Amount))
	c.drawReason(f, record.Reason)

	if len(images) > 0 {
		skipped = append(skipped, c.drawEvidence(f, images)...)
	}
	if signature != nil {
		if err := register(f.pdf, signatureKey, *signature); err != nil {
			skipped = append(skipped, AssetSkipped{Kind: "signature", Name: signature.name, Reason: err.Error()})
			signature = nil
		}
	}
	c.drawSignature(f, signature, record.Submitter)

	data, pages, err := f.finish()
	if err != nil {
		return nil, fmt.Errorf("composer: render receipt: %w", err)
	}
	c.logSkipped(KindReceipt, skipped)
	return &Document{
		Kind:    KindReceipt,
		Pages:   pages,
		Data:    data,
		Layout:  f.layout,
		Skipped: skipped,
	}, nil
}

// drawField places one bordered label/value row.
func (c *Composer) drawField(f *flow, label, value string) {
	f.reserve(fieldHeight)
	f.pdf.SetXY(marginLeft, f.y)
	f.pdf.SetFont(fontFamily, "B", 12)
	f.pdf.CellFormat(labelWidth, fieldHeight, f.tr(label), "1", 0, "L", false, 0, "")
	f.pdf.SetFont(fontFamily, "", 12)
	f.pdf.CellFormat(valueWidth, fieldHeight, f.tr(value), "1", 0, "L", false, 0, "")
	f.record(Placement{Kind: ElementField, X: marginLeft, Y: f.y, W: contentWidth, H: fieldHeight, Label: label, Cells: []string{value}})
	f.y += fieldHeight
}

// drawReason places the reason as fixed-height lines inside a bordered
// block. When the block crosses a page, each page gets its own closed
// border segment and no line is split.
func (c *Composer) drawReason(f *flow, reason string) {
	f.pdf.SetFont(fontFamily, "", 11)
	lines := c.wrap(f, reason, valueWidth)
	first := true
	for len(lines) > 0 {
		f.reserve(reasonLineHeight)
		fit := int((f.remaining() + epsilon) / reasonLineHeight)
		if fit > len(lines) {
			fit = len(lines)
		}
		segment := lines[:fit]
		lines = lines[fit:]
		height := float64(fit) * reasonLineHeight

		f.pdf.Rect(marginLeft, f.y, labelWidth, height, "D")
		f.pdf.Rect(marginLeft+labelWidth, f.y, valueWidth, height, "D")
		if first {
			f.pdf.SetFont(fontFamily, "B", 12)
			f.pdf.SetXY(marginLeft, f.y)
			f.pdf.CellFormat(labelWidth, reasonLineHeight, "Reason", "", 0, "L", false, 0, "")
			first = false
		}
		f.pdf.SetFont(fontFamily, "", 11)
		for _, line := range segment {
			f.pdf.SetXY(marginLeft+labelWidth, f.y)
			f.pdf.CellFormat(valueWidth, reasonLineHeight, line, "", 0, "L", false, 0, "")
			f.record(Placement{Kind: ElementReasonLine, X: marginLeft + labelWidth, Y: f.y, W: valueWidth, H: reasonLineHeight, Cells: []string{line}})
			f.y += reasonLineHeight
		}
	}
	f.skip(spacerHeight)
}

// wrap splits text into lines that fit width using the current font. Blank
// paragraphs are kept and an empty text yields one empty line.
func (c *Composer) wrap(f *flow, text string, width float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		paragraph = strings.TrimRight(paragraph, " \t")
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		for _, line := range f.pdf.SplitLines([]byte(f.tr(paragraph)), width) {
			lines = append(lines, string(line))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

// drawEvidence lays images out two per row in W x H boxes. The heading is
// kept on the same page as the first row. Each row advances the cursor by
// exactly the box height.
func (c *Composer) drawEvidence(f *flow, images []decodedImage) []AssetSkipped {
	var skipped []AssetSkipped
	keys := make([]string, len(images))
	placeable := images[:0:0]
	for i, img := range images {
		key := fmt.Sprintf("evidence-%d", i)
		if err := register(f.pdf, key, img); err != nil {
			skipped = append(skipped, AssetSkipped{Kind: "image", Index: img.index, Name: img.name, Reason: err.Error()})
			continue
		}
		keys[len(placeable)] = key
		placeable = append(placeable, img)
	}
	if len(placeable) == 0 {
		return skipped
	}

	f.reserve(sectionHeight + imageBoxHeight)
	f.pdf.SetFont(fontFamily, "B", 12)
	f.pdf.SetXY(marginLeft, f.y)
	f.pdf.CellFormat(contentWidth, sectionHeight, evidenceHeading, "", 0, "L", false, 0, "")
	f.record(Placement{Kind: ElementSection, X: marginLeft, Y: f.y, W: contentWidth, H: sectionHeight, Label: evidenceHeading})
	f.y += sectionHeight

	for row := 0; row*2 < len(placeable); row++ {
		f.reserve(imageBoxHeight)
		rowY := f.y
		f.record(Placement{Kind: ElementImageRow, X: marginLeft, Y: rowY, W: contentWidth, H: imageBoxHeight})
		for col := 0; col < 2; col++ {
			idx := row*2 + col
			if idx >= len(placeable) {
				break
			}
			img := placeable[idx]
			w, h := fitInBox(img.width, img.height, imageBoxWidth, imageBoxHeight)
			x := marginLeft + float64(col)*halfWidth + (halfWidth-w)/2
			drawImage(f.pdf, keys[idx], x, rowY, w, h)
			f.record(Placement{Kind: ElementImage, X: x, Y: rowY, W: w, H: h, Label: img.name})
		}
		f.y = rowY + imageBoxHeight
	}
	f.skip(spacerHeight)
	return skipped
}

// drawSignature places the signature image right-aligned with the submitter
// attribution underneath. Either part is omitted when it has nothing to show.
func (c *Composer) drawSignature(f *flow, signature *decodedImage, submitter string) {
	submitter = strings.TrimSpace(submitter)
	if signature == nil && submitter == "" {
		return
	}
	needed := attributionHeight
	if signature != nil {
		needed += signatureBoxHeight
	}
	f.reserve(needed)

	right := pageWidth - marginRight
	if signature != nil {
		w, h := fitInBox(signature.width, signature.height, signatureBoxWidth, signatureBoxHeight)
		x := right - w
		drawImage(f.pdf, signatureKey, x, f.y, w, h)
		f.record(Placement{Kind: ElementSignature, X: x, Y: f.y, W: w, H: h, Label: signature.name})
		f.y += signatureBoxHeight
	}
	if submitter != "" {
		label := attributionLabel + submitter
		f.pdf.SetFont(fontFamily, "I", 10)
		f.pdf.SetXY(marginLeft, f.y)
		f.pdf.CellFormat(contentWidth, attributionHeight, f.tr(label), "", 0, "R", false, 0, "")
		f.record(Placement{Kind: ElementAttribution, X: marginLeft, Y: f.y, W: contentWidth, H: attributionHeight, Label: label})
		f.y += attributionHeight
	}
}
