package edit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

const notesDoc = "# Guide\nIntro\n## Notes\nfirst\n## Notes\nsecond\n"

func TestParseSections(t *testing.T) {
	t.Run("nesting decides content end", func(t *testing.T) {
		sections := ParseSections("# A\na\n## B\nb\n# C\nc\n")

		require.Len(t, sections, 3)
		assert.Equal(t, Heading{Text: "A", Level: 1, Occurrence: 1, Line: 1}, sections[0].Heading)
		assert.Equal(t, 1, sections[0].ContentStart)
		assert.Equal(t, 4, sections[0].ContentEnd)
		assert.Equal(t, 3, sections[1].ContentStart)
		assert.Equal(t, 4, sections[1].ContentEnd)
		assert.Equal(t, 6, sections[2].ContentEnd)
	})

	t.Run("headings inside fences are ignored", func(t *testing.T) {
		sections := ParseSections("```\n# not a heading\n```\n## Real\nx\n")

		require.Len(t, sections, 1)
		assert.Equal(t, "Real", sections[0].Text)
		assert.Equal(t, 4, sections[0].Line)
	})

	t.Run("closing sequence is stripped", func(t *testing.T) {
		sections := ParseSections("## Notes ##\nx\n#hashtag\n")

		require.Len(t, sections, 1)
		assert.Equal(t, "Notes", sections[0].Text)
	})

	t.Run("occurrences count repeated text", func(t *testing.T) {
		sections := ParseSections(notesDoc)

		require.Len(t, sections, 3)
		assert.Equal(t, 1, sections[1].Occurrence)
		assert.Equal(t, 2, sections[2].Occurrence)
	})
}

func TestRewriteSection(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		target   Target
		mode     Mode
		content  string
		expected string
	}{
		{
			name:     "replace heading section",
			text:     "# Intro\nHello\n## History\nOld text\n",
			target:   HeadingTarget("History"),
			mode:     ModeReplace,
			content:  "New text",
			expected: "# Intro\nHello\n## History\nNew text\n",
		},
		{
			name:     "replace second occurrence only",
			text:     notesDoc,
			target:   Target{Heading: "Notes", Occurrence: 2},
			mode:     ModeReplace,
			content:  "updated",
			expected: "# Guide\nIntro\n## Notes\nfirst\n## Notes\nupdated\n",
		},
		{
			name:     "replace includes nested sections",
			text:     "# A\na\n## B\nb\n# C\nc\n",
			target:   HeadingTarget("A"),
			mode:     ModeReplace,
			content:  "new",
			expected: "# A\nnew\n# C\nc\n",
		},
		{
			name:     "replace keeps single trailing blank line",
			text:     "## A\nold\n\n## B\nb\n",
			target:   HeadingTarget("A"),
			mode:     ModeReplace,
			content:  "new\n\n\n",
			expected: "## A\nnew\n\n## B\nb\n",
		},
		{
			name:     "missing trailing newline is preserved",
			text:     "## A\nold",
			target:   HeadingTarget("A"),
			mode:     ModeReplace,
			content:  "new\n",
			expected: "## A\nnew",
		},
		{
			name:     "prepend",
			text:     "## A\nold\n",
			target:   HeadingTarget("A"),
			mode:     ModePrepend,
			content:  "new",
			expected: "## A\nnew\nold\n",
		},
		{
			name:     "append stops at next sibling",
			text:     "## A\nold\n## B\nb\n",
			target:   HeadingTarget("A"),
			mode:     ModeAppend,
			content:  "more",
			expected: "## A\nold\nmore\n## B\nb\n",
		},
		{
			name:     "replace lead",
			text:     "Lead text\n# A\nbody\n",
			target:   LeadTarget(),
			mode:     ModeReplace,
			content:  "New lead",
			expected: "New lead\n# A\nbody\n",
		},
		{
			name:     "lead of document without headings is everything",
			text:     "just text\nmore\n",
			target:   LeadTarget(),
			mode:     ModeReplace,
			content:  "other",
			expected: "other\n",
		},
		{
			name:     "level filter disambiguates",
			text:     "# Notes\na\n## Notes\nb\n",
			target:   Target{Heading: "Notes", Level: 2},
			mode:     ModeReplace,
			content:  "c",
			expected: "# Notes\na\n## Notes\nc\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteSection(tt.text, tt.target, tt.mode, tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRewriteSection_Errors(t *testing.T) {
	t.Run("ambiguous heading lists matches", func(t *testing.T) {
		_, err := RewriteSection(notesDoc, HeadingTarget("Notes"), ModeReplace, "x")

		require.Error(t, err)
		e, ok := errs.As(err)
		require.True(t, ok)
		assert.Equal(t, errs.Conflict, e.Kind)
		assert.Equal(t, []Heading{
			{Text: "Notes", Level: 2, Occurrence: 1, Line: 3},
			{Text: "Notes", Level: 2, Occurrence: 2, Line: 5},
		}, e.Details["matches"])
	})

	t.Run("missing heading lists available headings", func(t *testing.T) {
		_, err := RewriteSection(notesDoc, HeadingTarget("History"), ModeReplace, "x")

		e, ok := errs.As(err)
		require.True(t, ok)
		assert.Equal(t, errs.NotFound, e.Kind)
		assert.Len(t, e.Details["headings"], 3)
	})

	t.Run("available headings are capped", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 30; i++ {
			b.WriteString("## Section\nbody\n")
		}

		_, err := RewriteSection(b.String(), HeadingTarget("Missing"), ModeReplace, "x")

		e, ok := errs.As(err)
		require.True(t, ok)
		assert.Len(t, e.Details["headings"], MaxListedHeadings)
	})

	t.Run("occurrence out of range", func(t *testing.T) {
		_, err := RewriteSection(notesDoc, Target{Heading: "Notes", Occurrence: 3}, ModeReplace, "x")

		assert.True(t, errs.IsKind(err, errs.NotFound))
	})

	t.Run("level filter excludes every match", func(t *testing.T) {
		_, err := RewriteSection(notesDoc, Target{Heading: "Notes", Level: 3}, ModeReplace, "x")

		assert.True(t, errs.IsKind(err, errs.NotFound))
	})

	t.Run("heading match is case sensitive", func(t *testing.T) {
		_, err := RewriteSection(notesDoc, HeadingTarget("notes"), ModeReplace, "x")

		assert.True(t, errs.IsKind(err, errs.NotFound))
	})

	t.Run("no-op rewrite", func(t *testing.T) {
		_, err := RewriteSection("## A\nold\n", HeadingTarget("A"), ModeReplace, "old")

		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.PreconditionFailed))
		assert.Contains(t, err.Error(), "rewrite did not change content")
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := RewriteSection("## A\nold\n", HeadingTarget("A"), Mode("merge"), "x")

		assert.True(t, errs.IsKind(err, errs.InvalidRequest))
	})

	t.Run("empty heading target", func(t *testing.T) {
		_, err := RewriteSection("## A\nold\n", Target{}, ModeReplace, "x")

		assert.True(t, errs.IsKind(err, errs.InvalidRequest))
	})
}

func TestRewriteSection_ChangesOnlyTargetLines(t *testing.T) {
	text := "# Intro\nHello\n## History\nOld text\nmore old\n## Later\nkeep\n"
	start, end, err := LocateSection(text, HeadingTarget("History"))
	require.NoError(t, err)

	got, err := RewriteSection(text, HeadingTarget("History"), ModeReplace, "New text\nsecond line")
	require.NoError(t, err)

	before := strings.Split(text, "\n")
	after := strings.Split(got, "\n")
	assert.Equal(t, before[:start], after[:start])
	assert.Equal(t, before[end:], after[len(after)-(len(before)-end):])
}

func TestReplaceExact(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		replacements []Replacement
		expected     string
		wantKind     errs.Kind
	}{
		{
			name:         "single replacement",
			text:         "my faviorite color",
			replacements: []Replacement{{From: "faviorite", To: "favorite"}},
			expected:     "my favorite color",
		},
		{
			name:         "multiple replacements applied out of order",
			text:         "a b c",
			replacements: []Replacement{{From: "c", To: "C"}, {From: "a", To: "A"}},
			expected:     "A b C",
		},
		{
			name:         "adjacent spans are allowed",
			text:         "foobar",
			replacements: []Replacement{{From: "foo", To: "1"}, {From: "bar", To: "2"}},
			expected:     "12",
		},
		{
			name:         "missing text",
			text:         "my favorite color",
			replacements: []Replacement{{From: "faviorite", To: "favorite"}},
			wantKind:     errs.NotFound,
		},
		{
			name:         "text occurs twice",
			text:         "faviorite and faviorite",
			replacements: []Replacement{{From: "faviorite", To: "favorite"}},
			wantKind:     errs.Conflict,
		},
		{
			name:         "overlapping occurrences of one text",
			text:         "aaa",
			replacements: []Replacement{{From: "aa", To: "b"}},
			wantKind:     errs.Conflict,
		},
		{
			name:         "later failure blocks earlier pairs",
			text:         "alpha beta",
			replacements: []Replacement{{From: "alpha", To: "A"}, {From: "gamma", To: "G"}},
			wantKind:     errs.NotFound,
		},
		{
			name:         "empty from",
			text:         "alpha",
			replacements: []Replacement{{From: "", To: "x"}},
			wantKind:     errs.InvalidRequest,
		},
		{
			name:         "empty list",
			text:         "alpha",
			replacements: nil,
			wantKind:     errs.InvalidRequest,
		},
		{
			name:         "no-op",
			text:         "alpha",
			replacements: []Replacement{{From: "alpha", To: "alpha"}},
			wantKind:     errs.PreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReplaceExact(tt.text, tt.replacements)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, errs.KindOf(err))
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReplaceExact_OverlapNamesBothTexts(t *testing.T) {
	_, err := ReplaceExact("the quick brown fox", []Replacement{
		{From: "brown fox", To: "Y"},
		{From: "quick brown", To: "X"},
	})

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.InvalidRequest, e.Kind)
	assert.Equal(t, "quick brown", e.Details["first"])
	assert.Equal(t, "brown fox", e.Details["second"])
}

type fakeApplier struct {
	result string
	err    error
}

func (f fakeApplier) Apply(current, patch string, format entities.PatchFormat, opts entities.PatchOptions) (string, error) {
	return f.result, f.err
}

func TestOperations(t *testing.T) {
	t.Run("variants dispatch to their algorithm", func(t *testing.T) {
		ops := []Operation{
			SectionRewrite{Target: HeadingTarget("A"), Mode: ModeReplace, Content: "new"},
			ExactReplace{Replacements: []Replacement{{From: "old", To: "new"}}},
			PatchApply{Patch: "p", Format: entities.PatchUnified, Applier: fakeApplier{result: "## A\nnew\n"}},
		}

		for _, op := range ops {
			got, err := op.Apply("## A\nold\n")
			require.NoError(t, err, op.Name())
			assert.Equal(t, "## A\nnew\n", got, op.Name())
		}
	})

	t.Run("patch that changes nothing", func(t *testing.T) {
		op := PatchApply{Patch: "p", Format: entities.PatchUnified, Applier: fakeApplier{result: "same"}}

		_, err := op.Apply("same")

		assert.True(t, errs.IsKind(err, errs.PreconditionFailed))
	})

	t.Run("empty patch", func(t *testing.T) {
		op := PatchApply{Format: entities.PatchUnified, Applier: fakeApplier{result: "x"}}

		_, err := op.Apply("same")

		assert.True(t, errs.IsKind(err, errs.InvalidRequest))
	})
}
