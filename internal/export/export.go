// Package export renders household expenses as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/homebase/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a query value to a Format, defaulting to CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType is the MIME type of the rendered file.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is the suggested download name for an export made at t.
func (f Format) Filename(t time.Time) string {
	return fmt.Sprintf("expenses_%s.%s", t.Format("20060102"), f)
}

var header = []string{"Title", "Category", "Amount", "Status", "Due Date", "Created By", "Paid Splits", "Total Splits", "Recurrence"}

const sheetName = "Expenses"

// Write renders expenses to w. names maps user ids to display names; unknown
// ids are written as-is.
func Write(w io.Writer, format Format, expenses []*models.Expense, names map[string]string) error {
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, row(e, names))
	}
	switch format {
	case FormatXLSX:
		return writeXLSX(w, rows)
	default:
		return writeCSV(w, rows)
	}
}

func row(e *models.Expense, names map[string]string) []any {
	due := ""
	if e.DueDate != nil {
		due = e.DueDate.Format("2006-01-02")
	}
	creator := e.CreatedBy
	if n, ok := names[creator]; ok {
		creator = n
	}
	paid := 0
	for _, s := range e.Splits {
		if s.Paid {
			paid++
		}
	}
	recurrence := ""
	if e.Recurrence.IsRecurring {
		recurrence = string(e.Recurrence.Frequency)
	}
	return []any{e.Title, string(e.Category), e.Amount, string(e.Status), due, creator, paid, len(e.Splits), recurrence}
}

func writeCSV(w io.Writer, rows [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := make([]string, len(r))
		for i, v := range r {
			switch val := v.(type) {
			case float64:
				record[i] = strconv.FormatFloat(val, 'f', 2, 64)
			case int:
				record[i] = strconv.Itoa(val)
			default:
				record[i] = fmt.Sprint(val)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i, r := range rows {
		for col, v := range r {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 30)
	_ = f.SetColWidth(sheetName, "B", "F", 15)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
