package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/FACorreiaa/pricebook-admin/internal/domain/import/sniffer"
)

// ParseCSV reads a delimited text export into a single synthetic sheet.
// The delimiter and header row are sniffed unless the delimiter is forced;
// metadata preamble lines before the header are skipped.
func ParseCSV(reader io.Reader, delimiter rune) (*Sheet, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var opts *sniffer.DetectOptions
	if delimiter != 0 {
		opts = &sniffer.DetectOptions{HeaderRowIndex: -1, Delimiter: delimiter}
	}
	layout, err := sniffer.DetectLayoutWithOptions(data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to detect CSV layout: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = layout.Delimiter
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	sheet := &Sheet{Name: "csv", Headers: layout.Headers}
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if line > layout.HeaderRow {
			sheet.Rows = append(sheet.Rows, record)
		}
		line++
	}
	return sheet, nil
}
