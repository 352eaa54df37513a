package diff

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ersonp/folio/internal/domain/entities"
)

// ContextLines is the number of unchanged lines shown around each hunk.
const ContextLines = 3

// SpanOp marks a token span as added, removed or unchanged.
type SpanOp string

const (
	SpanAdded     SpanOp = "added"
	SpanRemoved   SpanOp = "removed"
	SpanUnchanged SpanOp = "unchanged"
)

// Span is a run of tokens sharing one operation.
type Span struct {
	Op   SpanOp `json:"op"`
	Text string `json:"text"`
}

// LanguageDelta is the change of one language of a localized field.
type LanguageDelta struct {
	// From and To are nil when the language is absent on that side.
	From    *string `json:"from"`
	To      *string `json:"to"`
	Spans   []Span  `json:"spans"`
	Unified string  `json:"unified"`
	Added   int     `json:"added"`
	Removed int     `json:"removed"`
}

// diffText runs one line-level pass over from and to and derives the word
// spans, the unified rendering and the line counts from its opcodes.
//
// The pass always runs with the smaller text first and is mirrored when the
// inputs come the other way round, so swapping from and to only exchanges
// added and removed.
func diffText(field string, lang entities.LanguageCode, from, to string) *LanguageDelta {
	a := splitLines(from)
	b := splitLines(to)
	swap := to < from
	x, y := a, b
	if swap {
		x, y = b, a
	}
	matcher := difflib.NewMatcherWithJunk(x, y, false, nil)
	// GetGroupedOpCodes rewrites the matcher's cached opcodes in place.
	ops := append([]difflib.OpCode(nil), matcher.GetOpCodes()...)
	groups := matcher.GetGroupedOpCodes(ContextLines)

	ld := &LanguageDelta{}
	var spans spanBuilder
	for _, op := range ops {
		removed := strings.Join(x[op.I1:op.I2], "")
		added := strings.Join(y[op.J1:op.J2], "")
		switch op.Tag {
		case 'e':
			spans.add(SpanUnchanged, removed)
		case 'd':
			spans.add(SpanRemoved, removed)
			ld.Removed += op.I2 - op.I1
		case 'i':
			spans.add(SpanAdded, added)
			ld.Added += op.J2 - op.J1
		case 'r':
			for _, s := range wordSpans(removed, added) {
				spans.add(s.Op, s.Text)
			}
			ld.Removed += op.I2 - op.I1
			ld.Added += op.J2 - op.J1
		}
	}
	ld.Spans = spans.spans
	if ld.Spans == nil {
		ld.Spans = []Span{}
	}
	if swap {
		ld.Added, ld.Removed = ld.Removed, ld.Added
		mirrorSpans(ld.Spans)
		for i, group := range groups {
			groups[i] = mirrorOpCodes(group)
		}
	}
	ld.Unified = renderUnified(fmt.Sprintf("%s.%s", field, lang), a, b, groups)
	return ld
}

// mirrorSpans exchanges added and removed in place. A removed span stays in
// front of the added span it borders.
func mirrorSpans(spans []Span) {
	for i := range spans {
		switch spans[i].Op {
		case SpanAdded:
			spans[i].Op = SpanRemoved
		case SpanRemoved:
			spans[i].Op = SpanAdded
		}
	}
	for i := 0; i+1 < len(spans); i++ {
		if spans[i].Op == SpanAdded && spans[i+1].Op == SpanRemoved {
			spans[i], spans[i+1] = spans[i+1], spans[i]
			i++
		}
	}
}

// mirrorOpCodes returns the opcodes of the reverse comparison.
func mirrorOpCodes(ops []difflib.OpCode) []difflib.OpCode {
	out := make([]difflib.OpCode, len(ops))
	for i, op := range ops {
		tag := op.Tag
		switch tag {
		case 'd':
			tag = 'i'
		case 'i':
			tag = 'd'
		}
		out[i] = difflib.OpCode{Tag: tag, I1: op.J1, I2: op.J2, J1: op.I1, J2: op.I2}
	}
	return out
}

// splitLines splits text into lines that keep their newline. The final line
// has no newline if the text does not end with one.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func renderUnified(label string, a, b []string, groups [][]difflib.OpCode) string {
	if len(groups) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", label, label)
	for _, group := range groups {
		first, last := group[0], group[len(group)-1]
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", unifiedRange(first.I1, last.I2), unifiedRange(first.J1, last.J2))
		for _, op := range group {
			switch op.Tag {
			case 'e':
				writeLines(&sb, " ", a[op.I1:op.I2])
			case 'd':
				writeLines(&sb, "-", a[op.I1:op.I2])
			case 'i':
				writeLines(&sb, "+", b[op.J1:op.J2])
			case 'r':
				writeLines(&sb, "-", a[op.I1:op.I2])
				writeLines(&sb, "+", b[op.J1:op.J2])
			}
		}
	}
	return sb.String()
}

func unifiedRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return fmt.Sprintf("%d", beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}

func writeLines(sb *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		sb.WriteString(prefix)
		sb.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			sb.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

// wordSpans diffs two texts token by token. Tokens are runs of letters and
// digits, runs of whitespace, or single other characters.
func wordSpans(from, to string) []Span {
	codec := newTokenCodec()
	a := codec.encode(tokenize(from))
	b := codec.encode(tokenize(to))

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	var spans spanBuilder
	for _, d := range dmp.DiffMainRunes(a, b, false) {
		text := codec.decode([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			spans.add(SpanUnchanged, text)
		case diffmatchpatch.DiffDelete:
			spans.add(SpanRemoved, text)
		case diffmatchpatch.DiffInsert:
			spans.add(SpanAdded, text)
		}
	}
	return spans.spans
}

func tokenize(text string) []string {
	var tokens []string
	runes := []rune(text)
	for i := 0; i < len(runes); {
		j := i + 1
		switch {
		case isWordRune(runes[i]):
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
		case unicode.IsSpace(runes[i]):
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
		}
		tokens = append(tokens, string(runes[i:j]))
		i = j
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// tokenCodec maps each distinct token to one rune so the character diff
// operates on whole tokens.
type tokenCodec struct {
	tokens []string
	index  map[string]rune
}

func newTokenCodec() *tokenCodec {
	return &tokenCodec{index: make(map[string]rune)}
}

func (c *tokenCodec) encode(tokens []string) []rune {
	out := make([]rune, len(tokens))
	for i, tok := range tokens {
		r, ok := c.index[tok]
		if !ok {
			r = tokenRune(len(c.tokens))
			c.tokens = append(c.tokens, tok)
			c.index[tok] = r
		}
		out[i] = r
	}
	return out
}

func (c *tokenCodec) decode(runes []rune) string {
	var sb strings.Builder
	for _, r := range runes {
		sb.WriteString(c.tokens[runeIndex(r)])
	}
	return sb.String()
}

// tokenRune skips the surrogate range, which does not survive a string
// round trip.
func tokenRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func runeIndex(r rune) int {
	if r >= 0xD800+0x800 {
		r -= 0x800
	}
	return int(r) - 1
}

type spanBuilder struct {
	spans []Span
}

func (b *spanBuilder) add(op SpanOp, text string) {
	if text == "" {
		return
	}
	if n := len(b.spans); n > 0 && b.spans[n-1].Op == op {
		b.spans[n-1].Text += text
		return
	}
	b.spans = append(b.spans, Span{Op: op, Text: text})
}
