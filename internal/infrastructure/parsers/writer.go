package parsers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Writer writes citations in one of the import formats, so an export can be
// imported again.
type Writer interface {
	Write(w io.Writer, citations []RawCitation) error
}

// WriterForFormat returns the writer for format, or nil when unsupported.
// Supported formats: "json", "csl", "csv".
func WriterForFormat(format string) Writer {
	switch strings.ToLower(format) {
	case "json", "csl":
		return &CSLJSONWriter{}
	case "csv":
		return &CSVWriter{}
	default:
		return nil
	}
}

// CSLJSONWriter writes a CSL-JSON array. The key becomes the item "id".
type CSLJSONWriter struct{}

// Write encodes citations sorted by key.
func (cw *CSLJSONWriter) Write(w io.Writer, citations []RawCitation) error {
	items := make([]map[string]any, 0, len(citations))
	for _, c := range sortedByKey(citations) {
		item := make(map[string]any, len(c.Data)+1)
		for k, v := range c.Data {
			item[k] = v
		}
		item["id"] = c.Key
		items = append(items, item)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// csvColumns are the columns CSVParser reads.
var csvColumns = []string{"key", "type", "title", "author", "issued", "url"}

// CSVWriter writes the flat CSV columns. CSL fields without a column are
// dropped.
type CSVWriter struct{}

// Write encodes citations sorted by key.
func (cw *CSVWriter) Write(w io.Writer, citations []RawCitation) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, c := range sortedByKey(citations) {
		record := []string{
			c.Key,
			stringField(c.Data, "type"),
			stringField(c.Data, "title"),
			formatAuthors(c.Data["author"]),
			formatIssued(c.Data["issued"]),
			stringField(c.Data, "URL"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV record %s: %w", c.Key, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

func sortedByKey(citations []RawCitation) []RawCitation {
	out := append([]RawCitation(nil), citations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// formatAuthors renders CSL names as "Family, Given; Family, Given".
func formatAuthors(v any) string {
	names, ok := v.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		name, ok := n.(map[string]any)
		if !ok {
			continue
		}
		family := stringField(name, "family")
		if family == "" {
			family = stringField(name, "literal")
		}
		if given := stringField(name, "given"); given != "" {
			parts = append(parts, family+", "+given)
		} else {
			parts = append(parts, family)
		}
	}
	return strings.Join(parts, "; ")
}

// formatIssued renders the first CSL date as YYYY[-MM[-DD]].
func formatIssued(v any) string {
	date, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	ranges, ok := date["date-parts"].([]any)
	if !ok || len(ranges) == 0 {
		return ""
	}
	parts, ok := ranges[0].([]any)
	if !ok {
		return ""
	}
	fields := make([]string, 0, len(parts))
	for i, p := range parts {
		n, ok := intValue(p)
		if !ok {
			return ""
		}
		if i == 0 {
			fields = append(fields, strconv.FormatInt(n, 10))
		} else {
			fields = append(fields, fmt.Sprintf("%02d", n))
		}
	}
	return strings.Join(fields, "-")
}

func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
