package patch

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// hunkBody is a unified hunk split into its original and new sides.
type hunkBody struct {
	old      []string
	new      []string
	oldNoEOL bool
	newNoEOL bool
}

func applyUnified(current, patch string, opts entities.PatchOptions) (string, error) {
	if !strings.HasSuffix(patch, "\n") {
		patch += "\n"
	}
	label, hunks, err := parseUnified(patch)
	if err != nil {
		return "", err
	}
	if err := checkLabel(label, opts); err != nil {
		return "", err
	}

	doc := splitDocument(current)
	out := make([]string, 0, len(doc.lines))
	trailing := doc.trailingNewline
	cursor := 0

	for i, h := range hunks {
		n := i + 1
		body, err := splitHunk(n, h)
		if err != nil {
			return "", err
		}

		start := int(h.OrigStartLine) - 1
		if h.OrigLines == 0 {
			// An empty original side names the line to insert after.
			start = int(h.OrigStartLine)
		}
		if start < cursor {
			return "", hunkConflict(n, start+1, "overlaps the previous hunk")
		}
		end := start + len(body.old)
		if end > len(doc.lines) {
			return "", hunkConflict(n, start+1, "extends past the end of the text (%d lines)", len(doc.lines))
		}
		if !equalLines(doc.lines[start:end], body.old) {
			j := firstMismatch(doc.lines[start:end], body.old)
			return "", hunkConflict(n, start+j+1, "does not match line %d", start+j+1).
				With("expected", body.old[j]).
				With("actual", doc.lines[start+j])
		}
		atEOF := end == len(doc.lines)
		if body.oldNoEOL && (!atEOF || doc.trailingNewline) {
			return "", hunkConflict(n, end, "expects the text to end without a newline")
		}

		out = append(out, doc.lines[cursor:start]...)
		out = append(out, body.new...)
		cursor = end

		if atEOF {
			switch {
			case body.newNoEOL:
				trailing = false
			case body.oldNoEOL, len(doc.lines) == 0:
				trailing = true
			}
		}
	}
	out = append(out, doc.lines[cursor:]...)

	return document{lines: out, trailingNewline: trailing}.String(), nil
}

// parseUnified returns the target label and hunks of a single-file patch.
// Bare hunks without file headers are accepted and carry no label.
func parseUnified(patch string) (string, []*diff.Hunk, error) {
	if strings.HasPrefix(strings.TrimLeft(patch, "\r\n"), "@@") {
		hunks, err := diff.ParseHunks([]byte(patch))
		if err != nil {
			return "", nil, errs.NewInvalidRequest("parsing unified patch: %v", err)
		}
		if len(hunks) == 0 {
			return "", nil, errs.NewInvalidRequest("patch contains no hunks")
		}
		return "", hunks, nil
	}

	files, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return "", nil, errs.NewInvalidRequest("parsing unified patch: %v", err)
	}
	switch len(files) {
	case 0:
		return "", nil, errs.NewInvalidRequest("patch contains no file diff")
	case 1:
	default:
		return "", nil, errs.NewInvalidRequest("patch touches %d files, expected one", len(files)).
			With("files", len(files))
	}

	fd := files[0]
	if len(fd.Hunks) == 0 {
		return "", nil, errs.NewInvalidRequest("patch contains no hunks")
	}
	label := fd.NewName
	if label == "" || label == "/dev/null" {
		label = fd.OrigName
	}
	return label, fd.Hunks, nil
}

// splitHunk reads a hunk body. The parser drops "\ No newline at end of file"
// markers: an original-side marker is recorded in OrigNoNewlineAt, a new-side
// one strips the final newline of the body.
func splitHunk(n int, h *diff.Hunk) (hunkBody, error) {
	var b hunkBody
	raw := string(h.Body)
	if raw == "" {
		return b, checkCounts(n, h, b)
	}
	b.newNoEOL = !strings.HasSuffix(raw, "\n")
	b.oldNoEOL = h.OrigNoNewlineAt > 0

	var last byte
	for _, line := range strings.Split(strings.TrimSuffix(raw, "\n"), "\n") {
		if line == "" {
			// Some editors strip the space from blank context lines.
			line = " "
		}
		switch line[0] {
		case ' ':
			b.old = append(b.old, line[1:])
			b.new = append(b.new, line[1:])
		case '-':
			b.old = append(b.old, line[1:])
		case '+':
			b.new = append(b.new, line[1:])
		case '\\':
			switch last {
			case '-':
				b.oldNoEOL = true
			case '+':
				b.newNoEOL = true
			default:
				b.oldNoEOL, b.newNoEOL = true, true
			}
			continue
		default:
			return b, errs.NewInvalidRequest("hunk %d: unexpected line %q", n, line).With("hunk", n)
		}
		last = line[0]
	}
	if b.newNoEOL && last == ' ' {
		b.oldNoEOL = true
	}
	return b, checkCounts(n, h, b)
}

func checkCounts(n int, h *diff.Hunk, b hunkBody) error {
	if len(b.old) != int(h.OrigLines) || len(b.new) != int(h.NewLines) {
		return errs.NewInvalidRequest("hunk %d: header says -%d +%d lines, body has -%d +%d",
			n, h.OrigLines, h.NewLines, len(b.old), len(b.new)).With("hunk", n)
	}
	return nil
}
