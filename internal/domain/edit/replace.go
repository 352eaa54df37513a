package edit

import (
	"sort"
	"strings"

	"github.com/ersonp/folio/internal/domain/errs"
)

// Replacement swaps one exact occurrence of From for To.
type Replacement struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type match struct {
	start, end int
	index      int
}

// ReplaceExact applies every replacement to text, or none of them.
// Each From must occur exactly once, and the matched spans must not overlap.
func ReplaceExact(text string, replacements []Replacement) (string, error) {
	if len(replacements) == 0 {
		return "", errs.NewInvalidRequest("at least one replacement is required")
	}

	matches := make([]match, 0, len(replacements))
	for i, r := range replacements {
		if r.From == "" {
			return "", errs.NewInvalidRequest("replacement %d has an empty from", i+1).With("index", i+1)
		}
		first := strings.Index(text, r.From)
		if first < 0 {
			return "", errs.NewNotFound("text %q not found", r.From).
				With("from", r.From).
				With("index", i+1)
		}
		if strings.Contains(text[first+1:], r.From) {
			return "", errs.NewConflict("text %q occurs more than once; refusing to apply partial replacement", r.From).
				With("from", r.From).
				With("index", i+1).
				With("occurrences", countOccurrences(text, r.From))
		}
		matches = append(matches, match{start: first, end: first + len(r.From), index: i})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1], matches[i]
		if cur.start < prev.end {
			return "", errs.NewInvalidRequest("replacements %q and %q overlap", replacements[prev.index].From, replacements[cur.index].From).
				With("first", replacements[prev.index].From).
				With("second", replacements[cur.index].From)
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, m := range matches {
		b.WriteString(text[cursor:m.start])
		b.WriteString(replacements[m.index].To)
		cursor = m.end
	}
	b.WriteString(text[cursor:])

	result := b.String()
	if result == text {
		return "", errs.NewPreconditionFailed("replacement did not change content")
	}
	return result, nil
}

// countOccurrences counts possibly overlapping occurrences of sub in s.
func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; ; {
		j := strings.Index(s[i:], sub)
		if j < 0 {
			return count
		}
		count++
		i += j + 1
		if i > len(s) {
			return count
		}
	}
}
