// Package export renders transactions as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/aggregate"
	"fintrack/internal/models"
)

// SheetName is the worksheet holding the transaction rows.
const SheetName = "Transactions"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"Date", "Type", "Category", "Description", "Amount", "Notes", "Recurring", "Frequency"}

var columnWidths = map[string]float64{
	"A": 12, "B": 10, "C": 18, "D": 40, "E": 12, "F": 40, "G": 10, "H": 12,
}

// WriteTransactions writes one row per transaction followed by income,
// expense and balance totals. categories supplies display names.
func WriteTransactions(w io.Writer, txs []models.Transaction, categories map[string]models.Category) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "H1", bold); err != nil {
		return err
	}

	row := 2
	for i := range txs {
		tx := &txs[i]
		values := []any{
			tx.Date.String(),
			string(tx.Type),
			categories[tx.CategoryID].Name,
			tx.Description,
			tx.Amount.InexactFloat64(),
			"",
			"no",
			"",
		}
		if tx.Notes != nil {
			values[5] = *tx.Notes
		}
		if tx.IsRecurring {
			values[6] = "yes"
		}
		if tx.RecurringFrequency != nil {
			values[7] = string(*tx.RecurringFrequency)
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	summary := aggregate.Summarize(txs)
	row++
	totals := []struct {
		label string
		value float64
	}{
		{"Total income", summary.TotalIncome.InexactFloat64()},
		{"Total expense", summary.TotalExpense.InexactFloat64()},
		{"Balance", summary.Balance.InexactFloat64()},
	}
	for _, t := range totals {
		if err := setRow(f, row, []any{"", "", "", t.label, t.value}); err != nil {
			return err
		}
		label, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(SheetName, label, label, bold); err != nil {
			return err
		}
		row++
	}

	last, _ := excelize.CoordinatesToCellName(5, row)
	if err := f.SetCellStyle(SheetName, "E2", last, money); err != nil {
		return err
	}
	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	return f.SetSheetRow(SheetName, cell, &values)
}
