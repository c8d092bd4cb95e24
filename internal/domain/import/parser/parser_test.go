package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildTestWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Services"))
	require.NoError(t, f.SetSheetRow("Services", "A1", &[]string{"Name", "Price", "Category 1"}))
	require.NoError(t, f.SetSheetRow("Services", "A2", &[]string{"Drain Cleaning", "149.99", "Plumbing"}))
	require.NoError(t, f.SetSheetRow("Services", "A3", &[]string{"Panel Upgrade", "1200", "Electrical"}))

	_, err := f.NewSheet("Notes")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseWorkbook(t *testing.T) {
	wb, err := ParseWorkbook(buildTestWorkbook(t))
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 2)

	services, ok := wb.Sheet("services")
	require.True(t, ok, "sheet lookup should be case-insensitive")
	assert.Equal(t, []string{"Name", "Price", "Category 1"}, services.Headers)
	require.Len(t, services.Rows, 2)
	assert.Equal(t, "Drain Cleaning", services.Rows[0][0])
}

func TestWorkbook_SuggestedSheet(t *testing.T) {
	wb, err := ParseWorkbook(buildTestWorkbook(t))
	require.NoError(t, err)

	suggested := wb.SuggestedSheet()
	require.NotNil(t, suggested)
	assert.Equal(t, "Services", suggested.Name)
}

func TestParseCSV(t *testing.T) {
	t.Run("comma delimited", func(t *testing.T) {
		sheet, err := ParseCSV(strings.NewReader("Name,Price\nDrain Cleaning,149.99\n"), 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "Price"}, sheet.Headers)
		require.Len(t, sheet.Rows, 1)
	})

	t.Run("semicolon sniffed", func(t *testing.T) {
		sheet, err := ParseCSV(strings.NewReader("Name;Price\nService A;10\n"), 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "Price"}, sheet.Headers)
	})

	t.Run("preamble skipped", func(t *testing.T) {
		raw := "Acme Plumbing Export\nGenerated 2026-08-01\n\nName,Price,Category 1\nDrain Cleaning,149.99,Plumbing\n"
		sheet, err := ParseCSV(strings.NewReader(raw), 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "Price", "Category 1"}, sheet.Headers)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, "Drain Cleaning", sheet.Rows[0][0])
	})

	t.Run("ragged rows tolerated", func(t *testing.T) {
		sheet, err := ParseCSV(strings.NewReader("Name,Price,Code\nOnly Name\n"), 0)
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, []string{"Only Name"}, sheet.Rows[0])
	})
}
