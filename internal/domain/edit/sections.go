// Package edit implements the body mutations applied to wiki page text.
// Every function here is pure: it takes the current text and returns the new
// text or a categorized error, and never touches storage.
package edit

import (
	"regexp"
	"strings"
)

// MaxListedHeadings caps the headings reported when a target is not found.
const MaxListedHeadings = 25

var (
	reATXHeading = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)
	reFence      = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
)

// Heading is a markdown ATX heading found in a document.
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
	// Occurrence counts headings with the same text, starting at 1.
	Occurrence int `json:"occurrence"`
	// Line is the 1-based line number of the heading.
	Line int `json:"line"`
}

// Section is a heading plus the lines that belong to it.
// Content covers lines [ContentStart, ContentEnd) of the document, 0-based.
type Section struct {
	Heading
	ContentStart int
	ContentEnd   int
}

// document is a text split into lines with its trailing newline remembered.
type document struct {
	lines           []string
	trailingNewline bool
}

func splitDocument(text string) document {
	if text == "" {
		return document{}
	}
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = strings.TrimSuffix(text, "\n")
	}
	return document{lines: strings.Split(text, "\n"), trailingNewline: trailing}
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

// splitContent splits replacement content into lines, ignoring one final newline.
func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// ParseSections returns every heading section of text in document order.
func ParseSections(text string) []Section {
	return parseSections(splitDocument(text).lines)
}

func parseSections(lines []string) []Section {
	var sections []Section
	seen := make(map[string]int)
	fence := ""

	for i, line := range lines {
		if m := reFence.FindStringSubmatch(line); m != nil {
			marker := m[1]
			switch {
			case fence == "":
				fence = marker
			case marker[0] == fence[0] && len(marker) >= len(fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}

		m := reATXHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := stripClosingSequence(m[2])
		seen[text]++
		sections = append(sections, Section{
			Heading: Heading{
				Text:       text,
				Level:      len(m[1]),
				Occurrence: seen[text],
				Line:       i + 1,
			},
			ContentStart: i + 1,
		})
	}

	for i := range sections {
		end := len(lines)
		for _, next := range sections[i+1:] {
			if next.Level <= sections[i].Level {
				end = next.Line - 1
				break
			}
		}
		sections[i].ContentEnd = end
	}
	return sections
}

// stripClosingSequence removes an optional closing run of '#'.
func stripClosingSequence(text string) string {
	text = strings.TrimSpace(text)
	trimmed := strings.TrimRight(text, "#")
	if trimmed == text {
		return text
	}
	if trimmed == "" {
		return ""
	}
	if strings.HasSuffix(trimmed, " ") || strings.HasSuffix(trimmed, "\t") {
		return strings.TrimSpace(trimmed)
	}
	return text
}

func headingsOf(sections []Section, limit int) []Heading {
	n := len(sections)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]Heading, n)
	for i := 0; i < n; i++ {
		out[i] = sections[i].Heading
	}
	return out
}
