package edit

import (
	"strings"

	"github.com/ersonp/folio/internal/domain/errs"
)

// Mode is how new content is combined with a section body.
type Mode string

const (
	ModeReplace Mode = "replace"
	ModePrepend Mode = "prepend"
	ModeAppend  Mode = "append"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReplace, ModePrepend, ModeAppend:
		return Mode(s), nil
	}
	return "", errs.NewInvalidRequest("unsupported rewrite mode %q", s).
		With("mode", s).
		With("supported", []Mode{ModeReplace, ModePrepend, ModeAppend})
}

// Target selects the section to rewrite.
// With Lead set, the text before the first heading is targeted and the
// heading fields are ignored.
type Target struct {
	Lead    bool   `json:"lead,omitempty"`
	Heading string `json:"heading,omitempty"`
	// Level restricts matches to one heading depth. Zero matches any depth.
	Level int `json:"level,omitempty"`
	// Occurrence picks among several matches, starting at 1. Zero means the
	// match must be unique.
	Occurrence int `json:"occurrence,omitempty"`
}

// LeadTarget targets the text before the first heading.
func LeadTarget() Target {
	return Target{Lead: true}
}

// HeadingTarget targets the section under the given heading text.
func HeadingTarget(text string) Target {
	return Target{Heading: text}
}

// Validate checks the target is well formed.
func (t Target) Validate() error {
	if t.Lead {
		return nil
	}
	if strings.TrimSpace(t.Heading) == "" {
		return errs.NewInvalidRequest("a heading or the lead section must be targeted")
	}
	if t.Level < 0 || t.Level > 6 {
		return errs.NewInvalidRequest("heading level %d is out of range 1-6", t.Level).With("level", t.Level)
	}
	if t.Occurrence < 0 {
		return errs.NewInvalidRequest("occurrence must be positive").With("occurrence", t.Occurrence)
	}
	return nil
}

// LocateSection returns the 0-based body line range [start, end) for target.
func LocateSection(text string, target Target) (start, end int, err error) {
	if err := target.Validate(); err != nil {
		return 0, 0, err
	}
	doc := splitDocument(text)
	return locate(doc.lines, target)
}

func locate(lines []string, target Target) (int, int, error) {
	sections := parseSections(lines)

	if target.Lead {
		if len(sections) == 0 {
			return 0, len(lines), nil
		}
		return 0, sections[0].Line - 1, nil
	}

	var matches []Section
	for _, s := range sections {
		if s.Text != target.Heading {
			continue
		}
		if target.Level != 0 && s.Level != target.Level {
			continue
		}
		matches = append(matches, s)
	}

	switch {
	case len(matches) == 0:
		err := errs.NewNotFound("heading %q not found", target.Heading).
			With("heading", target.Heading).
			With("headings", headingsOf(sections, MaxListedHeadings))
		if target.Level != 0 {
			err.With("level", target.Level)
		}
		return 0, 0, err
	case target.Occurrence == 0 && len(matches) > 1:
		return 0, 0, errs.NewConflict("heading %q matches %d sections; pass an occurrence to choose one", target.Heading, len(matches)).
			With("heading", target.Heading).
			With("matches", headingsOf(matches, 0))
	case target.Occurrence > len(matches):
		return 0, 0, errs.NewNotFound("heading %q has %d match(es), occurrence %d does not exist", target.Heading, len(matches), target.Occurrence).
			With("heading", target.Heading).
			With("occurrence", target.Occurrence).
			With("matches", headingsOf(matches, 0))
	}

	selected := matches[0]
	if target.Occurrence > 0 {
		selected = matches[target.Occurrence-1]
	}
	return selected.ContentStart, selected.ContentEnd, nil
}

// RewriteSection applies mode with content to the targeted section of text.
// It fails with PreconditionFailed when the result equals the input.
func RewriteSection(text string, target Target, mode Mode, content string) (string, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return "", err
	}
	if err := target.Validate(); err != nil {
		return "", err
	}

	doc := splitDocument(text)
	start, end, err := locate(doc.lines, target)
	if err != nil {
		return "", err
	}

	body := doc.lines[start:end]
	newLines := splitContent(content)

	var newBody []string
	switch mode {
	case ModeReplace:
		newBody = trimTrailingBlank(newLines)
		if endsWithBlank(body) {
			newBody = append(newBody, "")
		}
	case ModePrepend:
		newBody = append(append([]string{}, newLines...), body...)
	case ModeAppend:
		newBody = append(append([]string{}, body...), newLines...)
	}

	out := make([]string, 0, len(doc.lines)-len(body)+len(newBody))
	out = append(out, doc.lines[:start]...)
	out = append(out, newBody...)
	out = append(out, doc.lines[end:]...)

	result := document{lines: out, trailingNewline: doc.trailingNewline}.String()
	if len(doc.lines) == 0 && len(out) > 0 {
		// An empty document has no newline to preserve; keep the content's own.
		result = strings.Join(out, "\n")
		if strings.HasSuffix(content, "\n") {
			result += "\n"
		}
	}
	if result == text {
		return "", errs.NewPreconditionFailed("rewrite did not change content")
	}
	return result, nil
}

func endsWithBlank(lines []string) bool {
	return len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == ""
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
