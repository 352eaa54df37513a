package patch

import (
	"strings"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

const (
	codexBegin      = "*** Begin Patch"
	codexEnd        = "*** End Patch"
	codexUpdateFile = "*** Update File: "
	codexEndOfFile  = "*** End of File"
)

// codexChunk is one "@@" section of a codex patch.
type codexChunk struct {
	anchor string
	old    []string
	new    []string
	eof    bool
}

func applyCodex(current, patch string, opts entities.PatchOptions) (string, error) {
	label, chunks, err := parseCodex(patch)
	if err != nil {
		return "", err
	}
	if err := checkLabel(label, opts); err != nil {
		return "", err
	}

	doc := splitDocument(current)
	out := make([]string, 0, len(doc.lines))
	cursor := 0
	placed := make([]codexPlacement, 0, len(chunks))

	for i, c := range chunks {
		n := i + 1
		from := cursor
		at := codexPlacement{anchor: -1}
		if c.anchor != "" {
			idx := indexLine(doc.lines, c.anchor, from)
			if idx < 0 {
				return "", hunkConflict(n, from+1, "anchor %q not found", c.anchor).With("anchor", c.anchor)
			}
			from = idx + 1
			at.anchor = idx
		}

		var start int
		switch {
		case c.eof:
			start = len(doc.lines) - len(c.old)
			if start < from || !equalLines(doc.lines[start:], c.old) {
				return "", hunkConflict(n, max(start, 0)+1, "does not match the end of the text")
			}
		case len(c.old) == 0:
			start = from
			if c.anchor == "" {
				start = len(doc.lines)
			}
		default:
			start = indexLines(doc.lines, c.old, from)
			if start < 0 {
				return "", hunkConflict(n, from+1, "context not found after line %d", from).
					With("expected", c.old[0])
			}
			at.located = true
		}
		at.start = start
		placed = append(placed, at)

		out = append(out, doc.lines[cursor:start]...)
		out = append(out, c.new...)
		cursor = start + len(c.old)
	}
	if err := checkCodexAmbiguity(doc.lines, chunks, placed); err != nil {
		return "", err
	}
	out = append(out, doc.lines[cursor:]...)

	trailing := doc.trailingNewline || len(doc.lines) == 0
	return document{lines: out, trailingNewline: trailing}.String(), nil
}

// codexPlacement is where a chunk landed in the original lines.
type codexPlacement struct {
	anchor  int
	start   int
	located bool
}

// checkCodexAmbiguity rejects a chunk whose context also matches at a later
// line that would still come before the next chunk.
func checkCodexAmbiguity(lines []string, chunks []codexChunk, placed []codexPlacement) error {
	for i, at := range placed {
		if !at.located {
			continue
		}
		bound := len(lines)
		if i+1 < len(placed) {
			next := placed[i+1]
			bound = next.start
			if next.anchor >= 0 {
				bound = next.anchor
			}
		}
		if other := indexLines(lines[:bound], chunks[i].old, at.start+1); other >= 0 {
			return hunkConflict(i+1, at.start+1, "context matches more than once (lines %d and %d)", at.start+1, other+1).
				With("matches", []int{at.start + 1, other + 1})
		}
	}
	return nil
}

// parseCodex reads the single Update File section of a codex patch.
func parseCodex(patch string) (string, []codexChunk, error) {
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(patch, "\r\n", "\n"), "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != codexBegin {
		return "", nil, errs.NewInvalidRequest("codex patch must start with %q", codexBegin)
	}
	if strings.TrimSpace(lines[len(lines)-1]) != codexEnd {
		return "", nil, errs.NewInvalidRequest("codex patch must end with %q", codexEnd)
	}
	lines = lines[1 : len(lines)-1]

	if len(lines) == 0 || !strings.HasPrefix(lines[0], codexUpdateFile) {
		if len(lines) > 0 && strings.HasPrefix(lines[0], "*** ") {
			return "", nil, errs.NewInvalidRequest("unsupported codex operation %q, only Update File is allowed", lines[0])
		}
		return "", nil, errs.NewInvalidRequest("codex patch must contain an %q section", strings.TrimSpace(codexUpdateFile))
	}
	label := strings.TrimSpace(strings.TrimPrefix(lines[0], codexUpdateFile))
	if label == "" {
		return "", nil, errs.NewInvalidRequest("codex patch has an empty file label")
	}

	var (
		chunks []codexChunk
		cur    *codexChunk
	)
	start := func(anchor string) {
		chunks = append(chunks, codexChunk{anchor: anchor})
		cur = &chunks[len(chunks)-1]
	}

	for i, line := range lines[1:] {
		lineNum := i + 3
		switch {
		case strings.HasPrefix(line, "@@"):
			start(strings.TrimSpace(strings.TrimPrefix(line, "@@")))
			continue
		case line == codexEndOfFile:
			if cur == nil {
				return "", nil, errs.NewInvalidRequest("line %d: %q outside a hunk", lineNum, codexEndOfFile)
			}
			cur.eof = true
			continue
		case strings.HasPrefix(line, "*** "):
			return "", nil, errs.NewInvalidRequest("line %d: codex patch may update only one file", lineNum).
				With("line", lineNum)
		}

		if cur == nil {
			start("")
		}
		if cur.eof {
			return "", nil, errs.NewInvalidRequest("line %d: content after %q", lineNum, codexEndOfFile)
		}
		if line == "" {
			line = " "
		}
		switch line[0] {
		case ' ':
			cur.old = append(cur.old, line[1:])
			cur.new = append(cur.new, line[1:])
		case '-':
			cur.old = append(cur.old, line[1:])
		case '+':
			cur.new = append(cur.new, line[1:])
		default:
			return "", nil, errs.NewInvalidRequest("line %d: unexpected line %q", lineNum, line).
				With("line", lineNum)
		}
	}

	if len(chunks) == 0 {
		return "", nil, errs.NewInvalidRequest("codex patch contains no hunks")
	}
	return label, chunks, nil
}

func indexLine(lines []string, want string, from int) int {
	for i := from; i < len(lines); i++ {
		if lines[i] == want {
			return i
		}
	}
	return -1
}

func indexLines(lines, want []string, from int) int {
	for i := from; i+len(want) <= len(lines); i++ {
		if equalLines(lines[i:i+len(want)], want) {
			return i
		}
	}
	return -1
}
