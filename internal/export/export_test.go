package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/homebase/internal/models"
)

func sampleExpenses() []*models.Expense {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []*models.Expense{
		{
			Title: "Rent", Category: models.CategoryRent, Amount: 1000, Status: models.StatusPartiallyPaid,
			DueDate: &due, CreatedBy: "u1",
			Splits:     []models.Split{{UserID: "u1", Amount: 500, Paid: true}, {UserID: "u2", Amount: 500}},
			Recurrence: models.Recurrence{IsRecurring: true, Frequency: models.Monthly},
		},
		{Title: "Soap, sponges", Category: models.CategoryCleaning, Amount: 7.5, Status: models.StatusPending, CreatedBy: "u9"},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleExpenses(), map[string]string{"u1": "Alice"}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{"Rent", "rent", "1000.00", "partially_paid", "2025-03-01", "Alice", "1", "2", "monthly"}, records[1])
	assert.Equal(t, "Soap, sponges", records[2][0])
	assert.Equal(t, "u9", records[2][5])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleExpenses(), nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, "Rent", rows[1][0])
	assert.Equal(t, "1000", rows[1][2])
}
