// Package patch applies unified and codex-style patches to page bodies.
package patch

import (
	"strings"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// Applier implements ports.PatchApplier. It never fuzzes: every hunk must
// match the current text exactly where it says it applies.
type Applier struct{}

// NewApplier creates a patch applier.
func NewApplier() *Applier {
	return &Applier{}
}

// Apply returns current with patch applied.
func (a *Applier) Apply(current, patch string, format entities.PatchFormat, opts entities.PatchOptions) (string, error) {
	if strings.TrimSpace(patch) == "" {
		return "", errs.NewInvalidRequest("patch is empty")
	}
	switch format {
	case entities.PatchUnified:
		return applyUnified(current, patch, opts)
	case entities.PatchCodex:
		return applyCodex(current, patch, opts)
	default:
		return "", errs.NewInvalidRequest("unsupported patch format %q", format).
			With("format", string(format)).
			With("supported", []string{string(entities.PatchUnified), string(entities.PatchCodex)})
	}
}

// document is text split into lines plus its final-newline state.
type document struct {
	lines           []string
	trailingNewline bool
}

func splitDocument(s string) document {
	if s == "" {
		return document{}
	}
	trailing := strings.HasSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	return document{lines: strings.Split(s, "\n"), trailingNewline: trailing}
}

func (d document) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	out := strings.Join(d.lines, "\n")
	if d.trailingNewline {
		out += "\n"
	}
	return out
}

// checkLabel compares a patch file label with the expected one, ignoring the
// a/ and b/ prefixes git adds.
func checkLabel(label string, opts entities.PatchOptions) error {
	if opts.ExpectedFileLabel == "" || label == "" {
		return nil
	}
	if cleanLabel(label) != cleanLabel(opts.ExpectedFileLabel) {
		return errs.NewInvalidRequest("patch targets %q, expected %q", label, opts.ExpectedFileLabel).
			With("label", label).
			With("expected", opts.ExpectedFileLabel)
	}
	return nil
}

func cleanLabel(label string) string {
	label = strings.TrimSpace(label)
	// Timestamps follow a tab in classic diff headers.
	if i := strings.IndexByte(label, '\t'); i >= 0 {
		label = label[:i]
	}
	for _, prefix := range []string{"a/", "b/"} {
		if strings.HasPrefix(label, prefix) {
			return label[len(prefix):]
		}
	}
	return label
}

func hunkConflict(hunk, line int, format string, args ...any) error {
	return errs.NewConflict("hunk %d: "+format, append([]any{hunk}, args...)...).
		With("hunk", hunk).
		With("line", line)
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// firstMismatch returns the index of the first line where got differs from want.
func firstMismatch(got, want []string) int {
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			return i
		}
	}
	return len(want)
}
