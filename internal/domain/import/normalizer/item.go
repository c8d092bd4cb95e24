// Package normalizer cleans up raw item names from vendor price files.
// Flat-rate exports frequently embed codes, reference numbers and shouting
// abbreviations in the name column; the sanitizer produces display-ready
// names and stable keys for dedupe.
package normalizer

import (
	"regexp"
	"strings"
)

// ItemInfo contains a normalized item name
type ItemInfo struct {
	OriginalName string `json:"original_name"`
	CleanName    string `json:"clean_name"`
}

type abbreviation struct {
	pattern     *regexp.Regexp
	replacement string
}

// ItemSanitizer normalizes catalog item names
type ItemSanitizer struct {
	abbreviations []abbreviation
}

// NewItemSanitizer creates a sanitizer with common trade abbreviations
func NewItemSanitizer() *ItemSanitizer {
	return &ItemSanitizer{
		abbreviations: defaultAbbreviations(),
	}
}

// Sanitize normalizes a raw item name
func (s *ItemSanitizer) Sanitize(raw string) ItemInfo {
	result := ItemInfo{
		OriginalName: raw,
		CleanName:    raw,
	}

	cleaned := titleCase(cleanItemName(raw))

	for _, abbr := range s.abbreviations {
		cleaned = abbr.pattern.ReplaceAllString(cleaned, abbr.replacement)
	}

	result.CleanName = cleaned
	return result
}

// AddAbbreviation registers a custom abbreviation expansion. The pattern is
// matched case-insensitively on word boundaries.
func (s *ItemSanitizer) AddAbbreviation(abbr, replacement string) error {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(abbr) + `\b`)
	if err != nil {
		return err
	}
	s.abbreviations = append(s.abbreviations, abbreviation{
		pattern:     re,
		replacement: replacement,
	})
	return nil
}

var (
	leadingCodePattern = regexp.MustCompile(`^[A-Z]{2,5}[-_]?\d{3,}\s+`)
	trailingRefPattern = regexp.MustCompile(`\s+#?\d{5,}$`)
	decorationPattern  = regexp.MustCompile(`[*~]{2,}`)
	multiSpacePattern  = regexp.MustCompile(`\s+`)
	parentheticalCode  = regexp.MustCompile(`\(\s*(?:SKU|PN|REF)[:#]?\s*[\w-]+\s*\)`)
)

// cleanItemName removes common noise from vendor item names
func cleanItemName(raw string) string {
	result := strings.TrimSpace(raw)

	// Strip a leading catalog code token like "PLB-4021 "
	result = leadingCodePattern.ReplaceAllString(result, "")

	// Strip parenthetical part references like "(SKU: 40213)"
	result = parentheticalCode.ReplaceAllString(result, "")

	// Strip trailing vendor reference numbers
	result = trailingRefPattern.ReplaceAllString(result, "")

	// Strip decoration runs like "***" or "~~~"
	result = decorationPattern.ReplaceAllString(result, " ")

	result = multiSpacePattern.ReplaceAllString(result, " ")

	return strings.TrimSpace(result)
}

// titleCase converts an all-caps name to title case; mixed-case names are
// assumed intentional and left alone.
func titleCase(s string) string {
	if s != strings.ToUpper(s) {
		return s
	}

	words := strings.Fields(s)
	for i, word := range words {
		// Leave short unit tokens like 3/4" or 50A untouched
		if strings.ContainsAny(word, "0123456789/\"") {
			continue
		}
		if len(word) > 0 {
			words[i] = strings.ToUpper(string(word[0])) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}

// defaultAbbreviations returns common flat-rate trade abbreviations
func defaultAbbreviations() []abbreviation {
	expand := func(abbr, repl string) abbreviation {
		return abbreviation{
			pattern:     regexp.MustCompile(`(?i)\b` + abbr + `\b`),
			replacement: repl,
		}
	}

	return []abbreviation{
		expand(`WTR`, "Water"),
		expand(`HTR`, "Heater"),
		expand(`WH`, "Water Heater"),
		expand(`ELEC`, "Electric"),
		expand(`INSTL`, "Install"),
		expand(`REPL`, "Replace"),
		expand(`RPR`, "Repair"),
		expand(`SVC`, "Service"),
		expand(`VLV`, "Valve"),
		expand(`ASSY`, "Assembly"),
		expand(`FLR`, "Floor"),
		expand(`DISP`, "Disposal"),
		expand(`CONN`, "Connection"),
		expand(`GALV`, "Galvanized"),
		expand(`TKLS`, "Tankless"),
	}
}
