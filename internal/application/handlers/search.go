package handlers

import (
	"context"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/services"
)

// SearchResult contains ranked search hits.
type SearchResult struct {
	Query string               `json:"query"`
	Hits  []entities.SearchHit `json:"hits"`
	Total int                  `json:"total"`
}

// SearchHandler handles semantic search over indexed revisions.
type SearchHandler struct {
	service *services.SearchService
}

// NewSearchHandler creates a new search handler. A nil service means search
// is disabled for the site.
func NewSearchHandler(service *services.SearchService) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

// Handle runs a search query.
func (h *SearchHandler) Handle(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if h.service == nil {
		return nil, errs.NewInvalidRequest("search is disabled; set search.enabled in the config")
	}
	hits, err := h.service.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []entities.SearchHit{}
	}
	return &SearchResult{
		Query: query,
		Hits:  hits,
		Total: len(hits),
	}, nil
}
