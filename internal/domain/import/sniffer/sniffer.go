// Package sniffer provides automatic detection of delimited pricebook export
// layouts. It identifies the delimiter, locates the header row below any
// metadata preamble, and fingerprints the header set so a known vendor layout
// can be recognized on re-import.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode"
)

// Header keywords commonly found in flat-rate pricebook exports
var headerKeywords = []string{
	"name", "task", "item", "service", "description",
	"price", "cost", "rate", "retail", "msrp",
	"code", "sku", "part", "number",
	"category", "subcategory", "group", "trade",
	"hours", "labor", "unit", "taxable", "active", "qty",
}

// Layout holds the detected structure of a delimited export file
type Layout struct {
	Delimiter   rune       // The field delimiter (';', ',', '\t', '|')
	HeaderRow   int        // 0-based index of the header line; preceding lines are preamble
	Headers     []string   // Detected header names
	Fingerprint string     // SHA256 hash of normalized headers
	SampleRows  [][]string // First few data rows for preview
}

// DetectOptions allows callers to override header row or delimiter detection.
type DetectOptions struct {
	// HeaderRowIndex is a 0-based index for the header row. Set to -1 to auto-detect.
	HeaderRowIndex int
	// Delimiter overrides the detected delimiter when non-zero.
	Delimiter rune
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// DetectLayout analyzes a delimited export and returns its structure
func DetectLayout(data []byte) (*Layout, error) {
	return DetectLayoutWithOptions(data, nil)
}

// DetectLayoutWithOptions analyzes a delimited export with optional overrides.
func DetectLayoutWithOptions(data []byte, opts *DetectOptions) (*Layout, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		delimiter rune
		headerRow int
		err       error
	)
	if opts != nil && opts.HeaderRowIndex >= 0 {
		if opts.HeaderRowIndex >= len(lines) {
			return nil, ErrNoHeadersFound
		}
		headerRow = opts.HeaderRowIndex
		if opts.Delimiter != 0 {
			delimiter = opts.Delimiter
		} else {
			line := cleanLine(lines[headerRow], headerRow == 0)
			delimiter, _ = detectDelimiter(line)
			if delimiter == 0 {
				return nil, ErrInvalidDelimiter
			}
		}
	} else {
		delimiter, headerRow, err = findHeaderRow(lines)
		if err != nil {
			return nil, err
		}
		if opts != nil && opts.Delimiter != 0 {
			delimiter = opts.Delimiter
		}
	}

	// Parse headers
	headerLine := cleanLine(lines[headerRow], headerRow == 0)
	reader := csv.NewReader(strings.NewReader(headerLine))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &Layout{
		Delimiter:   delimiter,
		HeaderRow:   headerRow,
		Headers:     headers,
		Fingerprint: generateFingerprint(headers),
		SampleRows:  getSampleRows(data, delimiter, headerRow+1, 5),
	}, nil
}

// findHeaderRow locates the header row and its delimiter. Vendor exports often
// carry preamble lines ("Exported on ...", company name) before the real
// header, so the scan prefers keyword-bearing lines with many columns.
func findHeaderRow(lines []string) (rune, int, error) {
	// Track the best candidate among lines with no keywords (fallback)
	fallbackIndex := -1
	fallbackDelimiter := rune(0)
	fallbackCount := 0

	// Track the best candidate among lines WITH keywords (preferred)
	keywordIndex := -1
	keywordDelimiter := rune(0)
	keywordCount := 0
	keywordBestScore := 0

	for i, line := range lines {
		if i > 20 { // Don't search more than 20 lines
			break
		}

		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		lineLower := strings.ToLower(line)

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue // Not enough columns to be a valid header
		}

		keywordMatches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				keywordMatches++
			}
		}

		if keywordMatches > 0 {
			// Prefer lines with more columns and more keyword hits; real
			// headers are wide, preamble lines are narrow.
			score := count*10 + keywordMatches
			if keywordIndex == -1 || score > keywordBestScore {
				keywordBestScore = score
				keywordCount = count
				keywordDelimiter = delimiter
				keywordIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if keywordIndex >= 0 && keywordCount >= 1 {
		return keywordDelimiter, keywordIndex, nil
	}

	if fallbackCount >= 1 {
		return fallbackDelimiter, fallbackIndex, nil
	}

	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// generateFingerprint creates a stable hash from normalized header names.
// Two exports from the same vendor tool produce the same fingerprint even
// when casing or punctuation differ.
func generateFingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	joined := strings.Join(normalized, "|")
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:])
}

// getSampleRows returns the first N data rows after the header
func getSampleRows(data []byte, delimiter rune, startLine, maxRows int) [][]string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Allow variable fields

	var rows [][]string
	lineNum := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		if lineNum >= startLine {
			rows = append(rows, record)
			if len(rows) >= maxRows {
				break
			}
		}
		lineNum++
	}

	return rows
}
