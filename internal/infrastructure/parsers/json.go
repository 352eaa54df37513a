package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// CSLJSONParser parses a CSL-JSON array of items.
type CSLJSONParser struct{}

// Parse reads CSL-JSON from the reader and returns parsed citations.
func (p *CSLJSONParser) Parse(r io.Reader) ([]RawCitation, error) {
	var items []map[string]any

	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	citations := make([]RawCitation, 0, len(items))
	for i, item := range items {
		key := itemKey(item["id"])
		normalizeNumbers(item)
		citations = append(citations, RawCitation{
			Key:     key,
			Data:    withoutID(item),
			LineNum: i + 1,
		})
	}
	return citations, nil
}

func itemKey(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

func withoutID(item map[string]any) map[string]any {
	data := make(map[string]any, len(item))
	for k, v := range item {
		if k == "id" {
			continue
		}
		data[k] = v
	}
	return data
}

// normalizeNumbers turns json.Number into int64 or float64 so stored data
// round-trips like any other decoded JSON.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	default:
		return val
	}
}
