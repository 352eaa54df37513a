// Package tools exposes page reading, editing and search as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/edit"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// Version is reported to clients in the initialize handshake.
const Version = "0.1.0"

// AgentTagPrefix starts the tag attached to every revision made through a tool.
const AgentTagPrefix = "agent:"

// Deps holds the command handlers the tools call into.
type Deps struct {
	Pages  handlers.ContentHandler
	Edits  *handlers.EditHandler
	Search *handlers.SearchHandler
	// Client names the connected agent in revision tags.
	Client string
	Logger *zap.Logger
}

// Tools binds MCP tool calls to the command handlers.
type Tools struct {
	pages  handlers.ContentHandler
	edits  *handlers.EditHandler
	search *handlers.SearchHandler
	client string
	logger *zap.Logger
}

// New creates the tool set.
func New(d Deps) *Tools {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := strings.TrimSpace(d.Client)
	if client == "" {
		client = "mcp"
	}
	return &Tools{
		pages:  d.Pages,
		edits:  d.Edits,
		search: d.Search,
		client: client,
		logger: logger,
	}
}

// CommitArgs carries the revision metadata of a mutating tool call.
type CommitArgs struct {
	Summary         string `json:"summary"`
	SummaryLanguage string `json:"summary_language,omitempty"`
	Actor           string `json:"actor,omitempty"`
}

// PageGetArgs are the arguments of page_get.
type PageGetArgs struct {
	Ref   string `json:"ref"`
	RevID string `json:"rev_id,omitempty"`
}

// PageHistoryArgs are the arguments of page_history.
type PageHistoryArgs struct {
	Ref string `json:"ref"`
}

// PageDiffArgs are the arguments of page_diff.
type PageDiffArgs struct {
	Ref       string `json:"ref"`
	FromRevID string `json:"from_rev_id"`
	ToRevID   string `json:"to_rev_id"`
}

// RewriteSectionArgs are the arguments of page_rewrite_section.
type RewriteSectionArgs struct {
	CommitArgs
	Ref           string `json:"ref"`
	Language      string `json:"language"`
	Heading       string `json:"heading,omitempty"`
	Lead          bool   `json:"lead,omitempty"`
	Level         int    `json:"level,omitempty"`
	Occurrence    int    `json:"occurrence,omitempty"`
	Mode          string `json:"mode,omitempty"`
	Content       string `json:"content"`
	ExpectedRevID string `json:"expected_rev_id,omitempty"`
}

// ReplaceExactArgs are the arguments of page_replace_exact.
type ReplaceExactArgs struct {
	CommitArgs
	Ref           string             `json:"ref"`
	Language      string             `json:"language"`
	Replacements  []edit.Replacement `json:"replacements"`
	ExpectedRevID string             `json:"expected_rev_id,omitempty"`
}

// ApplyPatchArgs are the arguments of page_apply_patch.
type ApplyPatchArgs struct {
	CommitArgs
	Ref               string `json:"ref"`
	Language          string `json:"language"`
	Patch             string `json:"patch"`
	Format            string `json:"format,omitempty"`
	ExpectedFileLabel string `json:"expected_file_label,omitempty"`
	ExpectedRevID     string `json:"expected_rev_id,omitempty"`
}

// SearchArgs are the arguments of search.
type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Server creates an MCP server with every tool registered.
func (t *Tools) Server(name string) *server.MCPServer {
	s := server.NewMCPServer(name, Version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("page_get",
		mcp.WithDescription("Get the current or a past revision of a wiki page"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Page id or slug")),
		mcp.WithString("rev_id", mcp.Description("Revision id; the current revision when empty")),
	), mcp.NewTypedToolHandler(t.PageGet))

	s.AddTool(mcp.NewTool("page_history",
		mcp.WithDescription("List the revisions of a wiki page, newest first"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Page id or slug")),
	), mcp.NewTypedToolHandler(t.PageHistory))

	s.AddTool(mcp.NewTool("page_diff",
		mcp.WithDescription("Show the field changes between two revisions of a wiki page"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Page id or slug")),
		mcp.WithString("from_rev_id", mcp.Required(), mcp.Description("Older revision id")),
		mcp.WithString("to_rev_id", mcp.Required(), mcp.Description("Newer revision id")),
	), mcp.NewTypedToolHandler(t.PageDiff))

	s.AddTool(mcp.NewTool("page_rewrite_section",
		commitOptions(
			mcp.WithDescription("Replace, prepend to or append to one heading section of a page body"),
			mcp.WithString("ref", mcp.Required(), mcp.Description("Page id or slug")),
			mcp.WithString("language", mcp.Required(), mcp.Description("Body language code, e.g. en")),
			mcp.WithString("heading", mcp.Description("Heading text of the section; omit with lead")),
			mcp.WithBoolean("lead", mcp.Description("Target the text before the first heading")),
			mcp.WithNumber("level", mcp.Description("Only match headings of this depth (1-6)")),
			mcp.WithNumber("occurrence", mcp.Description("Pick the nth matching heading, starting at 1")),
			mcp.WithString("mode", mcp.Enum("replace", "prepend", "append"), mcp.Description("Defaults to replace")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Section text")),
			mcp.WithString("expected_rev_id", mcp.Description("Fail unless this is the current revision")),
		)...,
	), mcp.NewTypedToolHandler(t.RewriteSection))

	s.AddTool(mcp.NewTool("page_replace_exact",
		commitOptions(
			mcp.WithDescription("Replace exact text spans of a page body; every span must occur exactly once"),
			mcp.WithString("ref", mcp.Required(), mcp.Description("Page id or slug")),
			mcp.WithString("language", mcp.Required(), mcp.Description("Body language code, e.g. en")),
			mcp.WithArray("replacements",
				mcp.Required(),
				mcp.Description("Spans to replace, applied all or nothing"),
				mcp.Items(map[string]any{
					"type": "object",
					"properties": map[string]any{
						"from": map[string]any{"type": "string"},
						"to":   map[string]any{"type": "string"},
					},
					"required": []string{"from", "to"},
				}),
			),
			mcp.WithString("expected_rev_id", mcp.Description("Fail unless this is the current revision")),
		)...,
	), mcp.NewTypedToolHandler(t.ReplaceExact))

	s.AddTool(mcp.NewTool("page_apply_patch",
		commitOptions(
			mcp.WithDescription("Apply a unified diff or codex patch to a page body"),
			mcp.WithString("ref", mcp.Required(), mcp.Description("Page id or slug")),
			mcp.WithString("language", mcp.Required(), mcp.Description("Body language code, e.g. en")),
			mcp.WithString("patch", mcp.Required(), mcp.Description("Patch text")),
			mcp.WithString("format", mcp.Enum("unified", "codex"), mcp.Description("Defaults to unified")),
			mcp.WithString("expected_file_label", mcp.Description("Reject patches naming another file")),
			mcp.WithString("expected_rev_id", mcp.Description("Fail unless this is the current revision")),
		)...,
	), mcp.NewTypedToolHandler(t.ApplyPatch))

	s.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Search wiki pages and blog posts by meaning"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits")),
	), mcp.NewTypedToolHandler(t.Search))

	return s
}

func commitOptions(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("summary", mcp.Required(), mcp.Description("Edit summary")),
		mcp.WithString("summary_language", mcp.Description("Language of the summary; defaults to en")),
		mcp.WithString("actor", mcp.Description("User the agent acts for")),
	)
}

// PageGet handles page_get.
func (t *Tools) PageGet(ctx context.Context, _ mcp.CallToolRequest, args PageGetArgs) (*mcp.CallToolResult, error) {
	page, err := t.pages.Show(ctx, args.Ref, args.RevID)
	return t.result("page_get", page, err)
}

// PageHistory handles page_history.
func (t *Tools) PageHistory(ctx context.Context, _ mcp.CallToolRequest, args PageHistoryArgs) (*mcp.CallToolResult, error) {
	history, err := t.pages.History(ctx, args.Ref)
	return t.result("page_history", history, err)
}

// PageDiff handles page_diff.
func (t *Tools) PageDiff(ctx context.Context, _ mcp.CallToolRequest, args PageDiffArgs) (*mcp.CallToolResult, error) {
	d, err := t.pages.Diff(ctx, args.Ref, args.FromRevID, args.ToRevID)
	return t.result("page_diff", d, err)
}

// RewriteSection handles page_rewrite_section.
func (t *Tools) RewriteSection(ctx context.Context, _ mcp.CallToolRequest, args RewriteSectionArgs) (*mcp.CallToolResult, error) {
	res, err := t.edits.RewriteSection(ctx, handlers.RewriteSectionCommand{
		Ref:      args.Ref,
		Language: entities.LanguageCode(args.Language),
		Target: edit.Target{
			Lead:       args.Lead,
			Heading:    args.Heading,
			Level:      args.Level,
			Occurrence: args.Occurrence,
		},
		Mode:          edit.Mode(args.Mode),
		Content:       args.Content,
		ExpectedRevID: args.ExpectedRevID,
	}, t.commit(args.CommitArgs))
	return t.result("page_rewrite_section", res, err)
}

// ReplaceExact handles page_replace_exact.
func (t *Tools) ReplaceExact(ctx context.Context, _ mcp.CallToolRequest, args ReplaceExactArgs) (*mcp.CallToolResult, error) {
	res, err := t.edits.ReplaceExact(ctx, handlers.ReplaceExactCommand{
		Ref:           args.Ref,
		Language:      entities.LanguageCode(args.Language),
		Replacements:  args.Replacements,
		ExpectedRevID: args.ExpectedRevID,
	}, t.commit(args.CommitArgs))
	return t.result("page_replace_exact", res, err)
}

// ApplyPatch handles page_apply_patch.
func (t *Tools) ApplyPatch(ctx context.Context, _ mcp.CallToolRequest, args ApplyPatchArgs) (*mcp.CallToolResult, error) {
	res, err := t.edits.ApplyPatch(ctx, handlers.ApplyPatchCommand{
		Ref:               args.Ref,
		Language:          entities.LanguageCode(args.Language),
		Patch:             args.Patch,
		Format:            entities.PatchFormat(args.Format),
		ExpectedFileLabel: args.ExpectedFileLabel,
		ExpectedRevID:     args.ExpectedRevID,
	}, t.commit(args.CommitArgs))
	return t.result("page_apply_patch", res, err)
}

// Search handles search.
func (t *Tools) Search(ctx context.Context, _ mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(args.Query) == "" {
		return t.result("search", nil, errs.NewInvalidRequest("a query is required"))
	}
	res, err := t.search.Handle(ctx, args.Query, args.Limit)
	return t.result("search", res, err)
}

func (t *Tools) commit(args CommitArgs) entities.CommitMeta {
	meta := entities.CommitMeta{
		Actor: entities.Actor{ID: strings.TrimSpace(args.Actor)},
		Tags:  []string{AgentTagPrefix + t.client},
	}
	if summary := strings.TrimSpace(args.Summary); summary != "" {
		lang := entities.LanguageCode(args.SummaryLanguage)
		if lang == "" {
			lang = "en"
		}
		meta.Summary = entities.LocalizedText{lang: summary}
	}
	return meta
}

// result renders a handler outcome. Domain failures become tool errors
// carrying the JSON error payload; the returned Go error is reserved for
// protocol failures.
func (t *Tools) result(tool string, data any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		payload := errs.ToPayload(err)
		t.logger.Debug("tool call failed",
			zap.String("tool", tool),
			zap.String("kind", string(payload.Kind)),
			zap.Error(err))
		body, mErr := json.Marshal(payload)
		if mErr != nil {
			return mcp.NewToolResultError(payload.Message), nil
		}
		return mcp.NewToolResultError(string(body)), nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(`{"kind":"Internal","message":"internal error"}`), nil
	}
	t.logger.Debug("tool call", zap.String("tool", tool))
	return mcp.NewToolResultText(string(body)), nil
}
