package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
)

// pointNamespace scopes search point ids derived from entity ids.
var pointNamespace = uuid.MustParse("6f1c0d8e-2b4a-4d7e-9a55-3c1f2e8b7a90")

// DefaultSearchLimit is used when a caller passes no limit.
const DefaultSearchLimit = 10

// SearchService embeds current revisions and queries the search index.
type SearchService struct {
	embedder ports.Embedder
	index    ports.SearchIndex
	logger   *zap.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(embedder ports.Embedder, index ports.SearchIndex, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{embedder: embedder, index: index, logger: logger}
}

// PointID returns the stable search point id for one language of an entity.
func PointID(entityID string, lang entities.LanguageCode) string {
	return uuid.NewSHA1(pointNamespace, []byte(entityID+"/"+string(lang))).String()
}

// Index embeds every language of v and replaces its search documents.
func (s *SearchService) Index(ctx context.Context, v entities.Searchable) error {
	m := v.Meta()
	texts := v.SearchTexts()
	if len(texts) == 0 {
		return s.Remove(ctx, m.ID)
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = searchInput(t)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embedding %s %s: %w", v.Kind(), m.ID, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding %s %s: got %d vectors for %d texts", v.Kind(), m.ID, len(vectors), len(texts))
	}

	// Languages dropped from the entity must not linger in the index.
	if err := s.index.DeleteByEntity(ctx, m.ID); err != nil {
		return fmt.Errorf("clearing search documents: %w", err)
	}

	docs := make([]entities.SearchDocument, len(texts))
	for i, t := range texts {
		docs[i] = entities.SearchDocument{
			PointID:  PointID(m.ID, t.Language),
			EntityID: m.ID,
			Kind:     v.Kind(),
			RevID:    m.RevID,
			Language: t.Language,
			Title:    t.Title,
			Text:     t.Text,
			Vector:   vectors[i],
		}
	}
	if err := s.index.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("upserting search documents: %w", err)
	}

	s.logger.Debug("indexed revision",
		zap.String("entity_id", m.ID),
		zap.String("rev_id", m.RevID),
		zap.Int("documents", len(docs)))
	return nil
}

// Remove deletes every search document of an entity.
func (s *SearchService) Remove(ctx context.Context, entityID string) error {
	if err := s.index.DeleteByEntity(ctx, entityID); err != nil {
		return fmt.Errorf("removing search documents: %w", err)
	}
	return nil
}

// Search returns the indexed revisions closest to query.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]entities.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.NewInvalidRequest("search query is empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.index.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	return hits, nil
}

func searchInput(t entities.SearchText) string {
	if t.Title == "" {
		return t.Text
	}
	return t.Title + "\n\n" + t.Text
}
