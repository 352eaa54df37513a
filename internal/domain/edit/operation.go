package edit

import (
	"fmt"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
)

// Operation is one of SectionRewrite, ExactReplace or PatchApply.
type Operation interface {
	// Name identifies the operation in logs and audit details.
	Name() string
	// Apply computes the new text from the current one.
	Apply(current string) (string, error)
	operation()
}

// SectionRewrite rewrites one heading section (or the lead).
type SectionRewrite struct {
	Target  Target
	Mode    Mode
	Content string
}

func (SectionRewrite) Name() string { return "rewrite_section" }

func (op SectionRewrite) Apply(current string) (string, error) {
	return RewriteSection(current, op.Target, op.Mode, op.Content)
}

func (SectionRewrite) operation() {}

// ExactReplace swaps exact text spans, all or nothing.
type ExactReplace struct {
	Replacements []Replacement
}

func (ExactReplace) Name() string { return "replace_exact" }

func (op ExactReplace) Apply(current string) (string, error) {
	return ReplaceExact(current, op.Replacements)
}

func (ExactReplace) operation() {}

// PatchApply applies an external patch through a PatchApplier.
type PatchApply struct {
	Patch   string
	Format  entities.PatchFormat
	Options entities.PatchOptions
	Applier ports.PatchApplier
}

func (PatchApply) Name() string { return "apply_patch" }

func (op PatchApply) Apply(current string) (string, error) {
	if op.Applier == nil {
		return "", fmt.Errorf("patch applier not configured")
	}
	if op.Patch == "" {
		return "", errs.NewInvalidRequest("patch is empty")
	}
	result, err := op.Applier.Apply(current, op.Patch, op.Format, op.Options)
	if err != nil {
		return "", err
	}
	if result == current {
		return "", errs.NewPreconditionFailed("patch did not change content")
	}
	return result, nil
}

func (PatchApply) operation() {}
