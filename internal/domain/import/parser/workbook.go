// Package parser turns uploaded spreadsheet files into named sheets of
// header row plus data rows. The binary formats stay contained here; the
// rest of the import pipeline only ever sees string cells.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one parsed worksheet: a header row and its data rows
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Workbook is the parsed form of an uploaded file
type Workbook struct {
	Sheets []Sheet
}

// sheetRoleKeywords ranks sheets by name when the caller does not pick one
// explicitly. Pricebook exports commonly split per catalog type.
var sheetRoleKeywords = []string{
	"services", "pricebook", "materials", "equipment", "categories", "sheet1",
}

// ParseWorkbook reads an XLSX workbook into named sheets
func ParseWorkbook(reader io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}

		sheet := Sheet{Name: name}
		if len(rows) > 0 {
			sheet.Headers = rows[0]
			sheet.Rows = rows[1:]
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// Sheet returns the named sheet, matching case-insensitively
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if strings.EqualFold(w.Sheets[i].Name, name) {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// SuggestedSheet picks the most likely catalog sheet by name, falling back
// to the first sheet
func (w *Workbook) SuggestedSheet() *Sheet {
	if len(w.Sheets) == 0 {
		return nil
	}
	for _, kw := range sheetRoleKeywords {
		for i := range w.Sheets {
			if strings.Contains(strings.ToLower(w.Sheets[i].Name), kw) {
				return &w.Sheets[i]
			}
		}
	}
	return &w.Sheets[0]
}
