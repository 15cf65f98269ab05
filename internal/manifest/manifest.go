// Package manifest parses expected-inventory lists into line items.
//
// Two inputs are supported: delimited text exported from a spreadsheet, and
// free-form text recognized from a photographed document. Both produce the
// same Line values.
package manifest

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/erazemk/popis/internal/barcode"
)

// Line is one expected item of a manifest.
type Line struct {
	Barcode          string `json:"barcode"`
	ProductName      string `json:"product_name"`
	ExpectedQuantity int    `json:"expected_quantity"`
}

var (
	lineBreak = regexp.MustCompile(`\r?\n`)
	// A code of 8 to 13 digits, a name, and a trailing count. OCR output may
	// separate fields with no-break spaces.
	recognizedLine = regexp.MustCompile(`(\d{8,13})[\s\x{00A0}]+(.+?)[\s\x{00A0}]+(\d+)[\s\x{00A0}]*$`)
)

type options struct {
	matchers map[Role]ColumnMatcher
}

// Option configures ParseDelimited.
type Option func(*options)

// WithMatcher replaces the column matcher used for role.
func WithMatcher(role Role, m ColumnMatcher) Option {
	return func(o *options) {
		o.matchers[role] = m
	}
}

// ParseDelimited parses comma- or tab-separated text with a header row.
//
// The delimiter is a tab when the header contains one, otherwise a comma.
// Rows without a barcode or product name are skipped, and an unparsable
// quantity counts as zero.
func ParseDelimited(text string, opts ...Option) ([]Line, error) {
	o := options{matchers: DefaultMatchers()}
	for _, opt := range opts {
		opt(&o)
	}

	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, &InputFormatError{Lines: len(lines), Err: ErrEmptyInput}
	}

	sep := ","
	if strings.Contains(lines[0], "\t") {
		sep = "\t"
	}

	columns := splitFields(lines[0], sep)
	for i, col := range columns {
		columns[i] = fold(col)
	}

	idx, err := locateColumns(columns, o.matchers)
	if err != nil {
		return nil, err
	}

	var items []Line
	for _, row := range lines[1:] {
		fields := splitFields(row, sep)
		code := barcode.Normalize(field(fields, idx[RoleBarcode]))
		name := cleanName(field(fields, idx[RoleName]))
		if code == "" || name == "" {
			continue
		}

		items = append(items, Line{
			Barcode:          code,
			ProductName:      name,
			ExpectedQuantity: parseQuantity(field(fields, idx[RoleQuantity])),
		})
	}

	if len(items) == 0 {
		return nil, &InputFormatError{Lines: len(lines), Err: ErrNoItemsParsed}
	}
	return items, nil
}

// ParseRecognized extracts items from text recognized in a document photo.
//
// Each line is matched on its own; lines that do not look like
// "<8-13 digits> <name> <count>" are skipped. An empty result is not an
// error here, the caller decides what to do with it.
func ParseRecognized(text string) []Line {
	var items []Line
	for _, line := range splitLines(width.Fold.String(text)) {
		m := recognizedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[3])
		if err != nil {
			// Out of range for int.
			continue
		}
		items = append(items, Line{
			Barcode:          barcode.Normalize(m[1]),
			ProductName:      cleanName(m[2]),
			ExpectedQuantity: qty,
		})
	}
	return items
}

func splitLines(text string) []string {
	var out []string
	for _, l := range lineBreak.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func splitFields(line, sep string) []string {
	fields := strings.Split(line, sep)
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func parseQuantity(s string) int {
	n, err := strconv.Atoi(leadingInt(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// leadingInt returns the optional sign and digits at the start of s, the
// way a spreadsheet value like "12 pcs" reads as 12.
func leadingInt(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

func cleanName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// fold case-folds a header name. Casers are stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
