package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/domain/edit"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

type stubApplier struct {
	result string
	err    error
}

func (s stubApplier) Apply(current, patch string, format entities.PatchFormat, opts entities.PatchOptions) (string, error) {
	return s.result, s.err
}

func TestEditService_Apply(t *testing.T) {
	const body = "# Intro\nHello\n## History\nOld text\n"

	tests := []struct {
		name     string
		op       edit.Operation
		want     string
		wantKind errs.Kind
	}{
		{
			name: "rewrite section",
			op: edit.SectionRewrite{
				Target:  edit.HeadingTarget("History"),
				Mode:    edit.ModeReplace,
				Content: "New text",
			},
			want: "# Intro\nHello\n## History\nNew text\n",
		},
		{
			name: "replace exact",
			op:   edit.ExactReplace{Replacements: []edit.Replacement{{From: "Hello", To: "Hi"}}},
			want: "# Intro\nHi\n## History\nOld text\n",
		},
		{
			name: "apply patch",
			op:   edit.PatchApply{Patch: "p", Format: entities.PatchUnified, Applier: stubApplier{result: "patched\n"}},
			want: "patched\n",
		},
		{
			name:     "missing heading",
			op:       edit.SectionRewrite{Target: edit.HeadingTarget("Legacy"), Mode: edit.ModeReplace, Content: "x"},
			wantKind: errs.NotFound,
		},
		{
			name:     "ambiguous replacement",
			op:       edit.ExactReplace{Replacements: []edit.Replacement{{From: "t", To: "T"}}},
			wantKind: errs.Conflict,
		},
		{
			name:     "no-op rewrite",
			op:       edit.SectionRewrite{Target: edit.HeadingTarget("History"), Mode: edit.ModeReplace, Content: "Old text"},
			wantKind: errs.PreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPageFixture(t)
			page := createPage(t, f.svc, "lisbon", body)
			svc := NewEditService(f.svc, nil)

			got, err := svc.Apply(context.Background(), EditRequest{
				PageID:        page.ID,
				Language:      "en",
				ExpectedRevID: page.RevID,
				Commit:        commit("edit"),
				Operation:     tt.op,
			})

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, errs.KindOf(err))
				assert.Equal(t, 1, f.store.Len(page.ID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Body["en"])
			assert.Equal(t, 2, f.store.Len(page.ID))
		})
	}
}

func TestEditService_Apply_OtherLanguagesUntouched(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	page := createPage(t, f.svc, "lisbon", "Hello\n")
	page, err := f.svc.Update(ctx, page.ID, "", commit("add de"), func(p *entities.WikiPage) error {
		p.Body = p.Body.With("de", "Hallo\n")
		return nil
	})
	require.NoError(t, err)

	svc := NewEditService(f.svc, nil)
	got, err := svc.Apply(ctx, EditRequest{
		PageID:    page.ID,
		Language:  "en",
		Commit:    commit("edit"),
		Operation: edit.ExactReplace{Replacements: []edit.Replacement{{From: "Hello", To: "Hi"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.LocalizedText{"en": "Hi\n", "de": "Hallo\n"}, got.Body)
}

func TestEditService_Apply_Rejections(t *testing.T) {
	f := newPageFixture(t)
	page := createPage(t, f.svc, "lisbon", "Hello\n")
	svc := NewEditService(f.svc, nil)
	op := edit.ExactReplace{Replacements: []edit.Replacement{{From: "Hello", To: "Hi"}}}

	tests := []struct {
		name string
		req  EditRequest
		kind errs.Kind
	}{
		{
			name: "missing operation",
			req:  EditRequest{PageID: page.ID, Language: "en", Commit: commit("x")},
			kind: errs.InvalidRequest,
		},
		{
			name: "missing language",
			req:  EditRequest{PageID: page.ID, Commit: commit("x"), Operation: op},
			kind: errs.InvalidRequest,
		},
		{
			name: "language without body",
			req:  EditRequest{PageID: page.ID, Language: "fr", Commit: commit("x"), Operation: op},
			kind: errs.NotFound,
		},
		{
			name: "stale revision",
			req:  EditRequest{PageID: page.ID, Language: "en", ExpectedRevID: "r0", Commit: commit("x"), Operation: op},
			kind: errs.PreconditionFailed,
		},
		{
			name: "unknown page",
			req:  EditRequest{PageID: "3f2c7d1a-9a0e-4c1b-8f5e-2d6b7a8c9e01", Language: "en", Commit: commit("x"), Operation: op},
			kind: errs.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(context.Background(), tt.req)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
	assert.Equal(t, 1, f.store.Len(page.ID))
}

func TestEditService_Apply_MissingLanguageListsAvailable(t *testing.T) {
	f := newPageFixture(t)
	page := createPage(t, f.svc, "lisbon", "Hello\n")
	svc := NewEditService(f.svc, nil)

	_, err := svc.Apply(context.Background(), EditRequest{
		PageID:    page.ID,
		Language:  "pt",
		Commit:    commit("x"),
		Operation: edit.ExactReplace{Replacements: []edit.Replacement{{From: "a", To: "b"}}},
	})

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, []entities.LanguageCode{"en"}, e.Details["languages"])
	assert.True(t, strings.Contains(e.Message, "pt"))
}
