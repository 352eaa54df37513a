package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/services"
	"github.com/ersonp/folio/internal/infrastructure/parsers"
)

// exportPageSize is how many citations are read per store query.
const exportPageSize = 200

// ExportResult describes a finished export.
type ExportResult struct {
	Format string `json:"format"`
	Count  int    `json:"count"`
	Path   string `json:"path,omitempty"`
}

// ExportHandler writes the current citations in an import format.
type ExportHandler struct {
	citations *services.RevisionService[*entities.Citation]
}

// NewExportHandler creates a new export handler.
func NewExportHandler(citations *services.RevisionService[*entities.Citation]) *ExportHandler {
	return &ExportHandler{
		citations: citations,
	}
}

// Handle writes every current citation to w.
func (h *ExportHandler) Handle(ctx context.Context, w io.Writer, format string) (*ExportResult, error) {
	if format == "" {
		format = "json"
	}
	writer := parsers.WriterForFormat(format)
	if writer == nil {
		return nil, errs.NewInvalidRequest("unsupported export format %q", format).
			With("supported", []string{"json", "csl", "csv"})
	}

	var raws []parsers.RawCitation
	for offset := 0; ; offset += exportPageSize {
		page, err := h.citations.List(ctx, exportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("listing citations: %w", err)
		}
		for _, c := range page {
			raws = append(raws, parsers.RawCitation{Key: c.CiteKey, Data: c.Data})
		}
		if len(page) < exportPageSize {
			break
		}
	}

	if err := writer.Write(w, raws); err != nil {
		return nil, fmt.Errorf("writing citations: %w", err)
	}
	return &ExportResult{Format: format, Count: len(raws)}, nil
}
