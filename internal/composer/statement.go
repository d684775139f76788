package composer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const statementTitle = "STATEMENT OF DEBIT NOTES"

// Statement table columns; widths add up to contentWidth.
var statementColumns = []struct {
	title string
	width float64
	align string
}{
	{title: "Date", width: 28, align: "C"},
	{title: "Category", width: 34, align: "L"},
	{title: "Reason", width: 98, align: "L"},
	{title: "Amount", width: 30, align: "R"},
}

// ComposeStatement renders a contractor statement: a header naming the
// contractor and period, one table header row, one row per line item in the
// order given and a total row holding the exact sum of all items.
func (c *Composer) ComposeStatement(req StatementRequest) (*Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for i, item := range req.Items {
		if err := c.checkPrecision(itemField(i, "amount"), item.Amount); err != nil {
			return nil, err
		}
	}

	f := c.newFlow(statementTitle)
	f.newPage()
	c.drawTitle(f, statementTitle)
	c.drawHeading(f, "Contractor: "+req.Contractor)
	c.drawHeading(f, fmt.Sprintf("Period: %s to %s", req.Start.Format(dateLayout), req.End.Format(dateLayout)))
	f.skip(spacerHeight)

	headers := make([]string, len(statementColumns))
	for i, col := range statementColumns {
		headers[i] = col.title
	}
	c.drawTableRow(f, ElementTableHeader, headers, true)

	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(item.Amount)
		c.drawTableRow(f, ElementTableRow, c.statementCells(item), false)
	}
	c.drawTotalRow(f, total)

	data, pages, err := f.finish()
	if err != nil {
		return nil, fmt.Errorf("composer: render statement: %w", err)
	}
	return &Document{
		Kind:   KindStatement,
		Pages:  pages,
		Data:   data,
		Layout: f.layout,
		Total:  total,
	}, nil
}

// statementCells returns the display values of one line item.
func (c *Composer) statementCells(item LineItem) []string {
	return []string{
		item.Date.Format(dateLayout),
		truncate(item.Category, c.categoryBudget),
		truncate(item.Reason, c.reasonBudget),
		c.FormatAmount(item.Amount),
	}
}

func (c *Composer) drawHeading(f *flow, text string) {
	f.reserve(fieldHeight)
	f.pdf.SetFont(fontFamily, "", 12)
	f.pdf.SetXY(marginLeft, f.y)
	f.pdf.CellFormat(contentWidth, fieldHeight, f.tr(text), "", 0, "L", false, 0, "")
	f.record(Placement{Kind: ElementHeading, X: marginLeft, Y: f.y, W: contentWidth, H: fieldHeight, Label: text})
	f.y += fieldHeight
}

func (c *Composer) drawTableRow(f *flow, kind ElementKind, cells []string, header bool) {
	f.reserve(tableRowHeight)
	style := ""
	if header {
		style = "B"
		f.pdf.SetFillColor(230, 230, 230)
	}
	f.pdf.SetFont(fontFamily, style, 9)
	f.pdf.SetXY(marginLeft, f.y)
	for i, col := range statementColumns {
		align := col.align
		if header {
			align = "C"
		}
		f.pdf.CellFormat(col.width, tableRowHeight, f.tr(cells[i]), "1", 0, align, header, 0, "")
	}
	f.record(Placement{Kind: kind, X: marginLeft, Y: f.y, W: contentWidth, H: tableRowHeight, Cells: cells})
	f.y += tableRowHeight
}

// drawTotalRow spans the label over every column but the amount.
func (c *Composer) drawTotalRow(f *flow, total decimal.Decimal) {
	f.reserve(tableRowHeight)
	labelSpan := 0.0
	for _, col := range statementColumns[:len(statementColumns)-1] {
		labelSpan += col.width
	}
	amountCol := statementColumns[len(statementColumns)-1]
	amount := c.FormatAmount(total)

	f.pdf.SetFont(fontFamily, "B", 9)
	f.pdf.SetXY(marginLeft, f.y)
	f.pdf.CellFormat(labelSpan, tableRowHeight, "Total", "1", 0, "R", false, 0, "")
	f.pdf.CellFormat(amountCol.width, tableRowHeight, f.tr(amount), "1", 0, "R", false, 0, "")
	f.record(Placement{Kind: ElementTotalRow, X: marginLeft, Y: f.y, W: contentWidth, H: tableRowHeight, Label: "Total", Cells: []string{amount}})
	f.y += tableRowHeight
}
