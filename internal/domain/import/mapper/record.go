package mapper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Record is a typed catalog row produced after header reconciliation.
// Untyped cell maps never travel past this point.
type Record struct {
	Name        string
	Description string
	Code        string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	Hours       decimal.Decimal
	Unit        string
	Taxable     bool
	Active      bool
	Categories  []string // raw category path cells, deepest last
	Row         int      // source row number for error reporting
}

// BuildRecord converts one raw data row into a typed Record using the
// session's resolved column index. Negative or unparseable numeric cells
// collapse to zero so downstream totals stay well-defined.
func BuildRecord(row []string, columns map[Field]int, rowNum int) Record {
	cell := func(f Field) string {
		idx, ok := columns[f]
		if !ok || idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := Record{
		Name:        cell(FieldName),
		Description: cell(FieldDescription),
		Code:        cell(FieldCode),
		Price:       parseAmount(cell(FieldPrice)),
		Cost:        parseAmount(cell(FieldCost)),
		Hours:       parseAmount(cell(FieldHours)),
		Unit:        cell(FieldUnit),
		Taxable:     parseBool(cell(FieldTaxable)),
		Active:      parseBoolDefault(cell(FieldActive), true),
		Row:         rowNum,
	}

	for _, f := range CategoryFields() {
		if v := cell(f); v != "" {
			rec.Categories = append(rec.Categories, v)
		}
	}
	return rec
}

// IsBlank reports whether the record carries no usable data
func (r Record) IsBlank() bool {
	return r.Name == "" && r.Code == "" && len(r.Categories) == 0
}

// parseAmount parses a currency or hour cell. Currency symbols and thousands
// separators are tolerated; negatives and garbage become zero.
func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	for _, sym := range []string{"$", "€", "£", ","} {
		s = strings.ReplaceAll(s, sym, "")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "x", "active":
		return true
	}
	return false
}

func parseBoolDefault(s string, def bool) bool {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return parseBool(s)
}
