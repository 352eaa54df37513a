package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses citations from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed citations.
// Expected columns: key, type, title, author, issued, url
func (p *CSVParser) Parse(r io.Reader) ([]RawCitation, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"key", "type", "title"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawCitations.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawCitation, error) {
	var citations []RawCitation
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		citation, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		citations = append(citations, citation)
	}

	return citations, nil
}

// parseRecord converts a CSV record to a RawCitation holding a CSL item.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawCitation, error) {
	data := map[string]any{
		"type":  getColumn(record, colIndex, "type"),
		"title": getColumn(record, colIndex, "title"),
	}

	if authors := getColumn(record, colIndex, "author"); authors != "" {
		data["author"] = parseAuthors(authors)
	}

	if issued := getColumn(record, colIndex, "issued"); issued != "" {
		parts, err := parseDateParts(issued)
		if err != nil {
			return RawCitation{}, fmt.Errorf("line %d: invalid issued value %q: %w", lineNum, issued, err)
		}
		data["issued"] = map[string]any{"date-parts": []any{parts}}
	}

	if url := getColumn(record, colIndex, "url"); url != "" {
		data["URL"] = url
	}

	return RawCitation{
		Key:     getColumn(record, colIndex, "key"),
		Data:    data,
		LineNum: lineNum,
	}, nil
}

// parseAuthors splits "Family, Given; Family, Given" into CSL name objects.
func parseAuthors(s string) []any {
	var names []any
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		family, given, found := strings.Cut(part, ",")
		name := map[string]any{"family": strings.TrimSpace(family)}
		if found && strings.TrimSpace(given) != "" {
			name["given"] = strings.TrimSpace(given)
		}
		names = append(names, name)
	}
	return names
}

// parseDateParts turns "2020", "2020-05" or "2020-05-01" into CSL date parts.
func parseDateParts(s string) ([]any, error) {
	fields := strings.Split(strings.TrimSpace(s), "-")
	if len(fields) > 3 {
		return nil, fmt.Errorf("expected YYYY[-MM[-DD]]")
	}
	parts := make([]any, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}
	return parts, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
