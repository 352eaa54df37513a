package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

func TestRegistry_Handler(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		kind     string
		want     entities.Kind
		wantKind errs.Kind
	}{
		{name: "canonical name", kind: "wiki_page", want: entities.KindWikiPage},
		{name: "alias", kind: "cite", want: entities.KindCitation},
		{name: "not served", kind: "post", wantKind: errs.InvalidRequest},
		{name: "unknown", kind: "novel", wantKind: errs.InvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := f.registry.Handler(tt.kind)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, errs.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Kind())
		})
	}

	assert.Equal(t, []entities.Kind{entities.KindCitation, entities.KindWikiPage}, f.registry.Kinds())
}

func TestKindHandler_CreateShowUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.registry.Handler("page")
	require.NoError(t, err)

	page := f.createPage(t, "lisbon", lisbonBody)

	shown, err := h.Show(ctx, "Lisbon", "")
	require.NoError(t, err)
	assert.Equal(t, page.RevID, shown.(*entities.WikiPage).RevID)

	updated, err := h.Update(ctx, UpdateCommand{
		Ref:           "lisbon",
		ExpectedRevID: page.RevID,
		Input:         json.RawMessage(`{"title": {"de": "Lissabon"}}`),
		Commit:        author("add de title"),
	})
	require.NoError(t, err)
	next := updated.(*entities.WikiPage)
	assert.Equal(t, entities.LocalizedText{"en": "Lisbon", "de": "Lissabon"}, next.Title)

	old, err := h.Show(ctx, page.ID, page.RevID)
	require.NoError(t, err)
	assert.Equal(t, entities.LocalizedText{"en": "Lisbon"}, old.(*entities.WikiPage).Title)
}

func TestKindHandler_Create_Rejections(t *testing.T) {
	f := newFixture(t)
	h, err := f.registry.Handler("page")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		kind  errs.Kind
	}{
		{name: "empty input", input: "", kind: errs.InvalidRequest},
		{name: "not json", input: "{slug", kind: errs.InvalidRequest},
		{name: "unknown field", input: `{"slug": "a", "colour": "red"}`, kind: errs.InvalidRequest},
		{name: "invalid fields", input: `{"slug": "not a slug", "title": {"xx": "T"}}`, kind: errs.ValidationError},
		{
			name:  "uuid-shaped slug",
			input: `{"slug": "0b6f3c2e-4a1d-4f7e-9c3b-2d8e5f6a7b90", "title": {"en": "T"}, "original_language": "en"}`,
			kind:  errs.ValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Create(context.Background(), CreateCommand{
				Input:  json.RawMessage(tt.input),
				Commit: author("create"),
			})
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
}

func TestKindHandler_Create_ValidationListsEveryField(t *testing.T) {
	f := newFixture(t)
	h, err := f.registry.Handler("page")
	require.NoError(t, err)

	_, err = h.Create(context.Background(), CreateCommand{
		Input:  json.RawMessage(`{"slug": "not a slug", "title": {"en": "Lisbon"}}`),
		Commit: author("create"),
	})

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.ValidationError, e.Kind)
	assert.Contains(t, e.Details["fields"], "slug")
	assert.Contains(t, e.Details["fields"], "original_language")
}

func TestKindHandler_Update_Stale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.registry.Handler("page")
	require.NoError(t, err)
	page := f.createPage(t, "lisbon", lisbonBody)

	_, err = h.Update(ctx, UpdateCommand{
		Ref:    "lisbon",
		Input:  json.RawMessage(`{"title": {"en": "Lisboa"}}`),
		Commit: author("rename"),
	})
	require.NoError(t, err)

	_, err = h.Update(ctx, UpdateCommand{
		Ref:           "lisbon",
		ExpectedRevID: page.RevID,
		Input:         json.RawMessage(`{"title": {"en": "Lisbon!"}}`),
		Commit:        author("again"),
	})

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.PreconditionFailed, e.Kind)
	assert.Equal(t, page.RevID, e.Details["expected"])
	assert.Equal(t, 2, f.pageStore.Len(page.ID))
}

func TestKindHandler_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.registry.Handler("page")
	require.NoError(t, err)
	page := f.createPage(t, "lisbon", lisbonBody)

	t.Run("requires admin", func(t *testing.T) {
		_, err := h.Delete(ctx, DeleteCommand{Ref: "lisbon", Commit: author("remove")})
		assert.Equal(t, errs.Forbidden, errs.KindOf(err))
		assert.Equal(t, 1, f.pageStore.Len(page.ID))
	})

	t.Run("admin deletes", func(t *testing.T) {
		deleted, err := h.Delete(ctx, DeleteCommand{Ref: "lisbon", Commit: admin("remove")})
		require.NoError(t, err)
		assert.True(t, deleted.(*entities.WikiPage).RevDeleted)

		_, err = h.Show(ctx, "lisbon", "")
		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})
}

func TestKindHandler_ListHistoryDiff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.registry.Handler("page")
	require.NoError(t, err)

	page := f.createPage(t, "lisbon", lisbonBody)
	f.createPage(t, "porto", "Porto\n")
	updated, err := h.Update(ctx, UpdateCommand{
		Ref:    "lisbon",
		Input:  json.RawMessage(`{"title": {"en": "Lisboa"}}`),
		Commit: author("rename"),
	})
	require.NoError(t, err)
	next := updated.(*entities.WikiPage)

	list, err := h.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 50, list.Limit)

	history, err := h.History(ctx, "lisbon")
	require.NoError(t, err)
	require.Len(t, history.Revisions, 2)
	assert.Equal(t, next.RevID, history.Revisions[0].RevID)
	assert.True(t, history.Revisions[0].Current)
	assert.False(t, history.Revisions[1].Current)
	assert.Equal(t, entities.ChangeCreation, history.Revisions[1].ChangeType)

	d, err := h.Diff(ctx, "lisbon", page.RevID, next.RevID)
	require.NoError(t, err)
	require.Len(t, d.Changes, 1)
	assert.Equal(t, "title", d.Changes[0].Field)

	_, err = h.Diff(ctx, "lisbon", page.RevID, "")
	assert.Equal(t, errs.InvalidRequest, errs.KindOf(err))
}

func TestKindHandler_Audit(t *testing.T) {
	f := newFixture(t)
	h, err := f.registry.Handler("page")
	require.NoError(t, err)
	page := f.createPage(t, "lisbon", lisbonBody)

	entries, err := h.Audit(context.Background(), "lisbon")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entities.ActionCreate, entries[0].Action)
	assert.Equal(t, page.ID, entries[0].EntityID)
}

func TestRespond(t *testing.T) {
	ok := Respond(map[string]int{"n": 1}, nil)
	assert.Equal(t, StatusOK, ok.Status)
	assert.Nil(t, ok.Error)

	failed := Respond(nil, errs.NewNotFound("page %q not found", "x"))
	require.NotNil(t, failed.Error)
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, errs.NotFound, failed.Error.Kind)

	internal := Fail(errors.New("disk on fire"))
	assert.Equal(t, errs.Internal, internal.Error.Kind)
	assert.NotContains(t, internal.Error.Message, "disk")
}
