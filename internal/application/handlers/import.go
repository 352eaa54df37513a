package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/services"
	"github.com/ersonp/folio/internal/infrastructure/parsers"
)

// ImportHandler handles importing citations from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "csl", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing keys
	Commit     entities.CommitMeta
}

// Handle imports citations from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}
	if parser == nil {
		return nil, errs.NewInvalidRequest("unsupported format for file: %s", filePath).
			With("format", opts.Format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.NewInvalidRequest("opening %s: %v", filePath, err)
	}
	defer file.Close()

	return h.handle(ctx, parser, file, opts)
}

// HandleReader imports citations read from r in an explicit format.
func (h *ImportHandler) HandleReader(ctx context.Context, r io.Reader, opts ImportOptions) (*services.ImportResult, error) {
	parser := parsers.ForFormat(opts.Format)
	if parser == nil {
		return nil, errs.NewInvalidRequest("unsupported import format %q", opts.Format).
			With("format", opts.Format)
	}
	return h.handle(ctx, parser, r, opts)
}

func (h *ImportHandler) handle(ctx context.Context, parser parsers.Parser, r io.Reader, opts ImportOptions) (*services.ImportResult, error) {
	raws, err := parser.Parse(r)
	if err != nil {
		return nil, errs.NewInvalidRequest("parsing citations: %v", err)
	}
	if len(raws) == 0 {
		return &services.ImportResult{}, nil
	}

	result, err := h.service.Import(ctx, raws, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
		Commit:     opts.Commit,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, importValidationError(result, len(raws))
	}
	return result, nil
}

// importValidationError reports every invalid record as one aggregated
// validation error, keyed by source line.
func importValidationError(result *services.ImportResult, total int) error {
	var c errs.Collector
	for _, ie := range result.Errors {
		field := fmt.Sprintf("line %d", ie.Line)
		if ie.Field != "" {
			field += ": " + ie.Field
		}
		c.Add(field, "import", ie.Message)
	}
	err := c.Err()
	if e, ok := errs.As(err); ok {
		e.Message = fmt.Sprintf("%d of %d records are invalid, nothing was imported", len(result.Errors), total)
		return e.With("errors", result.Errors)
	}
	return err
}
