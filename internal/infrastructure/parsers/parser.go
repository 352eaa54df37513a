// Package parsers reads and writes citations as CSL-JSON and CSV.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawCitation is a citation parsed from an external source before validation.
type RawCitation struct {
	// Key is the citation key, taken from the CSL "id".
	Key string
	// Data is the CSL item without its "id".
	Data map[string]any
	// LineNum is the record's position in the source (set by parser).
	LineNum int
}

// Parser defines the interface for parsing citations from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawCitation, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csl", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json", "csl":
		return &CSLJSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return &CSLJSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
