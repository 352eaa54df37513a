package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/edit"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/mocks"
	"github.com/ersonp/folio/internal/domain/services"
	"github.com/ersonp/folio/internal/infrastructure/config"
	"github.com/ersonp/folio/internal/infrastructure/patch"
	"github.com/ersonp/folio/internal/infrastructure/validation"
)

const body = "# Intro\nHello\n## History\nOld text\n"

type fixture struct {
	pages *services.RevisionService[*entities.WikiPage]
	index *mocks.SearchIndex
	tools *Tools
	page  *entities.WikiPage
}

func newFixture(t *testing.T, search bool) *fixture {
	t.Helper()
	v, err := validation.New(config.DefaultLanguages)
	require.NoError(t, err)

	pages := services.NewRevisionService(entities.NewWikiPage, mocks.NewRevisionStore[*entities.WikiPage](), nil, v, nil)
	f := &fixture{pages: pages, index: mocks.NewSearchIndex()}

	var searchSvc *services.SearchService
	if search {
		searchSvc = services.NewSearchService(&mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}, f.index, nil)
		pages.WithIndexer(searchSvc)
	}

	f.tools = New(Deps{
		Pages:  handlers.NewKindHandler[*entities.WikiPage, entities.WikiPageInput](pages, nil),
		Edits:  handlers.NewEditHandler(pages, services.NewEditService(pages, nil), patch.NewApplier()),
		Search: handlers.NewSearchHandler(searchSvc),
		Client: "test-agent",
	})

	f.page, err = pages.Create(context.Background(), entities.CommitMeta{
		Actor:   entities.Actor{ID: "alice"},
		Summary: entities.LocalizedText{"en": "create"},
	}, func(p *entities.WikiPage) error {
		p.Slug = "lisbon"
		p.Title = entities.LocalizedText{"en": "Lisbon"}
		p.Body = entities.LocalizedText{"en": body}
		p.OriginalLanguage = "en"
		return nil
	})
	require.NoError(t, err)
	return f
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func errorPayload(t *testing.T, res *mcp.CallToolResult) errs.Payload {
	t.Helper()
	require.True(t, res.IsError)
	var p errs.Payload
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &p))
	return p
}

func TestTools_Server(t *testing.T) {
	f := newFixture(t, false)
	assert.NotNil(t, f.tools.Server("folio"))
}

func TestTools_PageGet(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.tools.PageGet(ctx, mcp.CallToolRequest{}, PageGetArgs{Ref: "Lisbon"})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, f.page.ID, got["id"])
	assert.Equal(t, f.page.RevID, got["rev_id"])

	res, err = f.tools.PageGet(ctx, mcp.CallToolRequest{}, PageGetArgs{Ref: "porto"})
	require.NoError(t, err)
	assert.Equal(t, errs.NotFound, errorPayload(t, res).Kind)
}

func TestTools_RewriteSection_TagsAgent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.tools.RewriteSection(ctx, mcp.CallToolRequest{}, RewriteSectionArgs{
		CommitArgs:    CommitArgs{Summary: "rewrite history", Actor: "alice"},
		Ref:           "lisbon",
		Language:      "en",
		Heading:       "History",
		Content:       "New text",
		ExpectedRevID: f.page.RevID,
	})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out handlers.EditResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "# Intro\nHello\n## History\nNew text\n", out.Body)

	current, err := f.pages.Current(ctx, f.page.ID)
	require.NoError(t, err)
	assert.Contains(t, current.RevTags, "agent:test-agent")
	require.NotNil(t, current.RevUser)
	assert.Equal(t, "alice", *current.RevUser)
	assert.Equal(t, entities.LocalizedText{"en": "rewrite history"}, current.RevSummary)
}

func TestTools_EditFailures(t *testing.T) {
	tests := []struct {
		name string
		call func(f *fixture) (*mcp.CallToolResult, error)
		kind errs.Kind
	}{
		{
			name: "missing summary",
			call: func(f *fixture) (*mcp.CallToolResult, error) {
				return f.tools.ReplaceExact(context.Background(), mcp.CallToolRequest{}, ReplaceExactArgs{
					Ref:          "lisbon",
					Language:     "en",
					Replacements: []edit.Replacement{{From: "Hello", To: "Hi"}},
				})
			},
			kind: errs.ValidationError,
		},
		{
			name: "stale revision",
			call: func(f *fixture) (*mcp.CallToolResult, error) {
				return f.tools.ReplaceExact(context.Background(), mcp.CallToolRequest{}, ReplaceExactArgs{
					CommitArgs:    CommitArgs{Summary: "greeting"},
					Ref:           "lisbon",
					Language:      "en",
					Replacements:  []edit.Replacement{{From: "Hello", To: "Hi"}},
					ExpectedRevID: "00000000-0000-0000-0000-000000000000",
				})
			},
			kind: errs.PreconditionFailed,
		},
		{
			name: "patch does not apply",
			call: func(f *fixture) (*mcp.CallToolResult, error) {
				return f.tools.ApplyPatch(context.Background(), mcp.CallToolRequest{}, ApplyPatchArgs{
					CommitArgs: CommitArgs{Summary: "patch"},
					Ref:        "lisbon",
					Language:   "en",
					Patch:      "@@ -4,1 +4,1 @@\n-Other text\n+New text\n",
				})
			},
			kind: errs.Conflict,
		},
		{
			name: "unknown mode",
			call: func(f *fixture) (*mcp.CallToolResult, error) {
				return f.tools.RewriteSection(context.Background(), mcp.CallToolRequest{}, RewriteSectionArgs{
					CommitArgs: CommitArgs{Summary: "x"},
					Ref:        "lisbon",
					Language:   "en",
					Heading:    "History",
					Mode:       "overwrite",
					Content:    "x",
				})
			},
			kind: errs.InvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			res, err := tt.call(f)

			require.NoError(t, err)
			assert.Equal(t, tt.kind, errorPayload(t, res).Kind)
			current, err := f.pages.Current(context.Background(), f.page.ID)
			require.NoError(t, err)
			assert.Equal(t, f.page.RevID, current.RevID)
		})
	}
}

func TestTools_ApplyPatch_Codex(t *testing.T) {
	f := newFixture(t, false)

	res, err := f.tools.ApplyPatch(context.Background(), mcp.CallToolRequest{}, ApplyPatchArgs{
		CommitArgs: CommitArgs{Summary: "patch"},
		Ref:        "lisbon",
		Language:   "en",
		Format:     "codex",
		Patch:      "*** Begin Patch\n*** Update File: lisbon.md\n@@ ## History\n-Old text\n+New text\n*** End Patch\n",
	})

	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "New text")
}

func TestTools_HistoryAndDiff(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.tools.ReplaceExact(ctx, mcp.CallToolRequest{}, ReplaceExactArgs{
		CommitArgs:   CommitArgs{Summary: "greeting"},
		Ref:          "lisbon",
		Language:     "en",
		Replacements: []edit.Replacement{{From: "Hello", To: "Hi"}},
	})
	require.NoError(t, err)
	var edited handlers.EditResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &edited))

	res, err = f.tools.PageHistory(ctx, mcp.CallToolRequest{}, PageHistoryArgs{Ref: "lisbon"})
	require.NoError(t, err)
	var history handlers.HistoryResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &history))
	require.Len(t, history.Revisions, 2)
	assert.Equal(t, edited.RevID, history.Revisions[0].RevID)

	res, err = f.tools.PageDiff(ctx, mcp.CallToolRequest{}, PageDiffArgs{
		Ref:       "lisbon",
		FromRevID: f.page.RevID,
		ToRevID:   edited.RevID,
	})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), `"field":"body"`)
}

func TestTools_Search(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, false)
		res, err := f.tools.Search(context.Background(), mcp.CallToolRequest{}, SearchArgs{Query: "lisbon"})
		require.NoError(t, err)
		assert.Equal(t, errs.InvalidRequest, errorPayload(t, res).Kind)
	})

	t.Run("empty query", func(t *testing.T) {
		f := newFixture(t, true)
		res, err := f.tools.Search(context.Background(), mcp.CallToolRequest{}, SearchArgs{Query: " "})
		require.NoError(t, err)
		assert.Equal(t, errs.InvalidRequest, errorPayload(t, res).Kind)
	})

	t.Run("hits", func(t *testing.T) {
		f := newFixture(t, true)
		res, err := f.tools.Search(context.Background(), mcp.CallToolRequest{}, SearchArgs{Query: "lisbon", Limit: 5})
		require.NoError(t, err)

		var out handlers.SearchResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
		require.Equal(t, 1, out.Total)
		assert.Equal(t, f.page.ID, out.Hits[0].EntityID)
		assert.Equal(t, []int{5}, f.index.SearchLimits)
	})
}

func TestServe_UnsupportedTransport(t *testing.T) {
	f := newFixture(t, false)

	err := Serve(context.Background(), f.tools.Server("folio"), "carrier-pigeon", "", nil)

	assert.Equal(t, errs.InvalidRequest, errs.KindOf(err))
}
