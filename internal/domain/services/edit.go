package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/domain/edit"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// EditRequest applies one edit operation to one language of a page body.
type EditRequest struct {
	PageID        string
	Language      entities.LanguageCode
	ExpectedRevID string
	Commit        entities.CommitMeta
	Operation     edit.Operation
}

// EditService applies body edits to wiki pages as new revisions.
type EditService struct {
	pages  *RevisionService[*entities.WikiPage]
	logger *zap.Logger
}

// NewEditService creates a new edit service.
func NewEditService(pages *RevisionService[*entities.WikiPage], logger *zap.Logger) *EditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditService{pages: pages, logger: logger}
}

// Apply runs the operation against the current body and commits the result.
// Any failure, including an operation that changes nothing, leaves the page
// at its current revision.
func (s *EditService) Apply(ctx context.Context, req EditRequest) (*entities.WikiPage, error) {
	if req.Operation == nil {
		return nil, errs.NewInvalidRequest("an edit operation is required")
	}
	if req.Language == "" {
		return nil, errs.NewInvalidRequest("a body language is required")
	}

	page, err := s.pages.Update(ctx, req.PageID, req.ExpectedRevID, req.Commit, func(p *entities.WikiPage) error {
		current, ok := p.Body.Get(req.Language)
		if !ok {
			return errs.NewNotFound("page %s has no body in %s", req.PageID, req.Language).
				With("id", req.PageID).
				With("language", req.Language).
				With("languages", p.Body.Languages())
		}
		next, err := req.Operation.Apply(current)
		if err != nil {
			return err
		}
		p.Body = p.Body.With(req.Language, next)
		return nil
	})
	if err != nil {
		s.logger.Debug("edit rejected",
			zap.String("operation", req.Operation.Name()),
			zap.String("page_id", req.PageID),
			zap.String("kind", string(errs.KindOf(err))))
		return nil, err
	}

	s.logger.Info("page edited",
		zap.String("operation", req.Operation.Name()),
		zap.String("page_id", page.ID),
		zap.String("rev_id", page.RevID))
	return page, nil
}
