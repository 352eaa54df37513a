package handlers

import (
	"context"

	"github.com/ersonp/folio/internal/domain/edit"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
	"github.com/ersonp/folio/internal/domain/services"
)

// RewriteSectionCommand rewrites one heading section of a page body.
type RewriteSectionCommand struct {
	Ref           string                `json:"ref"`
	Language      entities.LanguageCode `json:"language"`
	Target        edit.Target           `json:"target"`
	Mode          edit.Mode             `json:"mode"`
	Content       string                `json:"content"`
	ExpectedRevID string                `json:"expected_rev_id,omitempty"`
}

// ReplaceExactCommand swaps exact text spans of a page body.
type ReplaceExactCommand struct {
	Ref           string                `json:"ref"`
	Language      entities.LanguageCode `json:"language"`
	Replacements  []edit.Replacement    `json:"replacements"`
	ExpectedRevID string                `json:"expected_rev_id,omitempty"`
}

// ApplyPatchCommand applies a unified or codex patch to a page body.
type ApplyPatchCommand struct {
	Ref               string                `json:"ref"`
	Language          entities.LanguageCode `json:"language"`
	Patch             string                `json:"patch"`
	Format            entities.PatchFormat  `json:"format,omitempty"`
	ExpectedFileLabel string                `json:"expected_file_label,omitempty"`
	ExpectedRevID     string                `json:"expected_rev_id,omitempty"`
}

// EditResult describes the revision an edit produced.
type EditResult struct {
	ID       string                `json:"id"`
	Slug     string                `json:"slug"`
	RevID    string                `json:"rev_id"`
	Language entities.LanguageCode `json:"language"`
	Body     string                `json:"body"`
}

// EditHandler runs body edit commands against wiki pages.
type EditHandler struct {
	pages   *services.RevisionService[*entities.WikiPage]
	edits   *services.EditService
	applier ports.PatchApplier
}

// NewEditHandler creates a new edit handler.
func NewEditHandler(pages *services.RevisionService[*entities.WikiPage], edits *services.EditService, applier ports.PatchApplier) *EditHandler {
	return &EditHandler{
		pages:   pages,
		edits:   edits,
		applier: applier,
	}
}

// RewriteSection replaces, prepends to or appends to one section.
func (h *EditHandler) RewriteSection(ctx context.Context, cmd RewriteSectionCommand, commit entities.CommitMeta) (*EditResult, error) {
	mode := cmd.Mode
	if mode == "" {
		mode = edit.ModeReplace
	}
	if _, err := edit.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := cmd.Target.Validate(); err != nil {
		return nil, err
	}
	op := edit.SectionRewrite{Target: cmd.Target, Mode: mode, Content: cmd.Content}
	return h.apply(ctx, cmd.Ref, cmd.Language, cmd.ExpectedRevID, commit, op)
}

// ReplaceExact applies every replacement or none.
func (h *EditHandler) ReplaceExact(ctx context.Context, cmd ReplaceExactCommand, commit entities.CommitMeta) (*EditResult, error) {
	op := edit.ExactReplace{Replacements: cmd.Replacements}
	return h.apply(ctx, cmd.Ref, cmd.Language, cmd.ExpectedRevID, commit, op)
}

// ApplyPatch applies a patch. The format defaults to unified.
func (h *EditHandler) ApplyPatch(ctx context.Context, cmd ApplyPatchCommand, commit entities.CommitMeta) (*EditResult, error) {
	format := cmd.Format
	if format == "" {
		format = entities.PatchUnified
	}
	op := edit.PatchApply{
		Patch:   cmd.Patch,
		Format:  format,
		Options: entities.PatchOptions{ExpectedFileLabel: cmd.ExpectedFileLabel},
		Applier: h.applier,
	}
	return h.apply(ctx, cmd.Ref, cmd.Language, cmd.ExpectedRevID, commit, op)
}

func (h *EditHandler) apply(ctx context.Context, ref string, lang entities.LanguageCode, expected string, commit entities.CommitMeta, op edit.Operation) (*EditResult, error) {
	if lang == "" {
		return nil, errs.NewInvalidRequest("a body language is required")
	}
	id, err := h.pages.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	page, err := h.edits.Apply(ctx, services.EditRequest{
		PageID:        id,
		Language:      lang,
		ExpectedRevID: expected,
		Commit:        commit,
		Operation:     op,
	})
	if err != nil {
		return nil, err
	}
	return &EditResult{
		ID:       page.ID,
		Slug:     page.Slug,
		RevID:    page.RevID,
		Language: lang,
		Body:     page.Body[lang],
	}, nil
}
