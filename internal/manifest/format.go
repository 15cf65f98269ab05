package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects a parser.
type Format string

const (
	// FormatDelimited is a CSV or TSV export with a header row.
	FormatDelimited Format = "delimited"
	// FormatRecognized is free text produced by OCR.
	FormatRecognized Format = "recognized"
)

// ParseFormat converts a user-supplied name into a Format. The empty
// string selects FormatDelimited.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "csv", "tsv":
		return FormatDelimited, nil
	case FormatDelimited, FormatRecognized:
		return f, nil
	case "ocr", "text":
		return FormatRecognized, nil
	default:
		return "", fmt.Errorf("unknown manifest format %q", s)
	}
}

// FormatForFile guesses the format from a file name: .csv, .tsv and .txt
// exports are delimited, anything else is treated as recognized text.
func FormatForFile(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatDelimited
	default:
		return FormatRecognized
	}
}

// Parse runs the parser for f. Recognized text never fails; it may
// return no lines.
func Parse(f Format, text string, opts ...Option) ([]Line, error) {
	switch f {
	case FormatDelimited:
		return ParseDelimited(text, opts...)
	case FormatRecognized:
		return ParseRecognized(text), nil
	default:
		return nil, fmt.Errorf("unknown manifest format %q", string(f))
	}
}
