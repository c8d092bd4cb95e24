// Package mapper reconciles arbitrary spreadsheet column headers with the
// fixed pricebook destination schema. Matching proposes at most one canonical
// field per incoming header; the interactive correction step then enforces
// that every destination field is claimed by at most one header.
package mapper

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Field is one canonical destination field of the pricebook import schema.
// The schema is closed: imported data never crosses this boundary as an
// untyped map.
type Field string

const (
	FieldNone        Field = ""
	FieldName        Field = "Name"
	FieldDescription Field = "Description"
	FieldCode        Field = "Code"
	FieldPrice       Field = "Price"
	FieldCost        Field = "Cost"
	FieldHours       Field = "Hours"
	FieldUnit        Field = "Unit"
	FieldTaxable     Field = "Taxable"
	FieldActive      Field = "Active"
	FieldCategory1   Field = "Category 1"
	FieldCategory2   Field = "Category 2"
	FieldCategory3   Field = "Category 3"
	FieldCategory4   Field = "Category 4"
	FieldCategory5   Field = "Category 5"
)

// Fields is the destination schema in display order
var Fields = []Field{
	FieldName,
	FieldDescription,
	FieldCode,
	FieldPrice,
	FieldCost,
	FieldHours,
	FieldUnit,
	FieldTaxable,
	FieldActive,
	FieldCategory1,
	FieldCategory2,
	FieldCategory3,
	FieldCategory4,
	FieldCategory5,
}

// CategoryFields returns the category level fields in order
func CategoryFields() []Field {
	return []Field{FieldCategory1, FieldCategory2, FieldCategory3, FieldCategory4, FieldCategory5}
}

// prefixTokens are domain prefixes stripped from headers wherever they occur,
// with or without surrounding separators ("Service Name", "service_name" and
// "servicename" all normalize to "name")
var prefixTokens = []string{
	"recommendations",
	"equipment",
	"category",
	"material",
	"service",
	"variant",
}

// synonyms maps a normalized destination field to the normalized header
// variants that should resolve to it. Changing the destination schema
// requires updating this table.
var synonyms = map[string][]string{
	"name":        {"title", "item", "itemname", "displayname"},
	"description": {"desc", "details", "longdescription", "notes", "summary"},
	"code":        {"sku", "itemcode", "partnumber", "partno", "number", "id"},
	"price":       {"rate", "amount", "retailprice", "sellprice", "total", "charge"},
	"cost":        {"unitcost", "purchaseprice", "wholesale", "vendorcost"},
	"hours":       {"duration", "laborhours", "estimatedhours", "time"},
	"unit":        {"uom", "unitofmeasure", "units"},
	"taxable":     {"tax", "istaxable", "taxed"},
	"active":      {"enabled", "visible", "status", "isactive"},
}

// Mapping associates one incoming header with the destination field the
// matcher proposed for it. Field is FieldNone when nothing matched.
type Mapping struct {
	Source string
	Field  Field
}

// AutoMap reconciles each incoming header with the destination schema.
// Headers are processed independently, so two headers may be proposed the
// same field; the Session resolves those conflicts interactively.
func AutoMap(headers []string) []Mapping {
	mappings := make([]Mapping, len(headers))
	for i, header := range headers {
		mappings[i] = Mapping{Source: header, Field: matchHeader(header)}
	}
	return mappings
}

// matchHeader applies the matching precedence: exact normalized equality,
// synonym table, partial prefix match, then unmapped
func matchHeader(header string) Field {
	norm := Normalize(header)
	if norm == "" {
		return FieldNone
	}

	// 1. Exact match against a normalized destination name
	for _, f := range Fields {
		if norm == Normalize(string(f)) {
			return f
		}
	}

	// 2. Synonym table keyed by normalized destination name
	for _, f := range Fields {
		for _, syn := range synonyms[Normalize(string(f))] {
			if norm == syn {
				return f
			}
		}
	}

	// 3. Partial match: either side is a prefix of the other
	for _, f := range Fields {
		dest := Normalize(string(f))
		if dest == "" {
			continue
		}
		if strings.HasPrefix(dest, norm) || strings.HasPrefix(norm, dest) {
			return f
		}
	}

	return FieldNone
}

// Normalize lowercases a header, strips domain prefix tokens wherever they
// occur, and removes every remaining non-alphanumeric character
func Normalize(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	for _, tok := range prefixTokens {
		s = strings.ReplaceAll(s, tok, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Suggestion is a ranked candidate destination for an unmapped header
type Suggestion struct {
	Field Field
	Rank  int // Levenshtein distance, lower is closer
}

// Suggest returns destination candidates for a header that failed to match,
// ranked by fuzzy distance. Used by the correction UI to pre-sort the
// dropdown options.
func Suggest(header string, limit int) []Suggestion {
	norm := Normalize(header)
	if norm == "" {
		return nil
	}

	var suggestions []Suggestion
	for _, f := range Fields {
		rank := fuzzy.RankMatchNormalizedFold(norm, Normalize(string(f)))
		if rank < 0 {
			// Try the reverse direction for headers longer than the target
			rank = fuzzy.RankMatchNormalizedFold(Normalize(string(f)), norm)
		}
		if rank >= 0 {
			suggestions = append(suggestions, Suggestion{Field: f, Rank: rank})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Rank < suggestions[j].Rank
	})

	if limit > 0 && limit < len(suggestions) {
		suggestions = suggestions[:limit]
	}
	return suggestions
}
