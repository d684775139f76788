package composer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "summary"
	itemsSheet   = "items"
)

// amountNumFmt is the cell number format for amounts with places decimals.
func amountNumFmt(places int32) string {
	if places <= 0 {
		return "#,##0"
	}
	return "#,##0." + strings.Repeat("0", int(places))
}

// StatementXLSX renders the same statement as ComposeStatement as a
// workbook with a summary sheet and an items sheet. Validation and totals
// follow the PDF rules; reasons are written untruncated.
func (c *Composer) StatementXLSX(req StatementRequest) ([]byte, decimal.Decimal, error) {
	if err := req.Validate(); err != nil {
		return nil, decimal.Zero, err
	}
	for i, item := range req.Items {
		if err := c.checkPrecision(itemField(i, "amount"), item.Amount); err != nil {
			return nil, decimal.Zero, err
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, decimal.Zero, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, decimal.Zero, err
	}
	numFmt := amountNumFmt(c.places)
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, decimal.Zero, err
	}

	_ = f.SetCellValue(itemsSheet, "A1", "Date")
	_ = f.SetCellValue(itemsSheet, "B1", "Category")
	_ = f.SetCellValue(itemsSheet, "C1", "Reason")
	_ = f.SetCellValue(itemsSheet, "D1", "Amount")
	total := decimal.Zero
	for i, item := range req.Items {
		row := i + 2
		total = total.Add(item.Amount)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.Date.Format(dateLayout))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Category)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Reason)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Amount.InexactFloat64())
	}
	totalRow := len(req.Items) + 2
	_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", totalRow), "Total")
	_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", totalRow), total.InexactFloat64())
	_ = f.SetCellStyle(itemsSheet, "D2", fmt.Sprintf("D%d", totalRow), amountStyle)
	_ = f.SetColWidth(itemsSheet, "A", "B", 14)
	_ = f.SetColWidth(itemsSheet, "C", "C", 60)
	_ = f.SetColWidth(itemsSheet, "D", "D", 14)

	_ = f.SetCellValue(summarySheet, "A1", statementTitle)
	_ = f.SetCellValue(summarySheet, "A3", "Contractor")
	_ = f.SetCellValue(summarySheet, "B3", req.Contractor)
	_ = f.SetCellValue(summarySheet, "A4", "From")
	_ = f.SetCellValue(summarySheet, "B4", req.Start.Format(dateLayout))
	_ = f.SetCellValue(summarySheet, "A5", "To")
	_ = f.SetCellValue(summarySheet, "B5", req.End.Format(dateLayout))
	_ = f.SetCellValue(summarySheet, "A6", "Notes")
	_ = f.SetCellValue(summarySheet, "B6", len(req.Items))
	_ = f.SetCellValue(summarySheet, "A7", "Total Amount")
	_ = f.SetCellValue(summarySheet, "B7", total.InexactFloat64())
	_ = f.SetCellStyle(summarySheet, "B7", "B7", amountStyle)
	_ = f.SetCellValue(summarySheet, "A8", "Currency")
	_ = f.SetCellValue(summarySheet, "B8", c.currency)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, decimal.Zero, err
	}
	return buf.Bytes(), total, nil
}
