package mocks

import (
	"context"
	"sort"

	"github.com/ersonp/folio/internal/domain/entities"
)

// SearchIndex is an in-memory mock implementation of ports.SearchIndex.
type SearchIndex struct {
	Docs map[string]entities.SearchDocument
	Hits []entities.SearchHit
	Err  error

	// Call tracking
	UpsertCallCount int
	DeleteCalls     []string
	SearchLimits    []int
}

// NewSearchIndex creates an empty mock search index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{Docs: make(map[string]entities.SearchDocument)}
}

// Upsert stores documents by point id.
func (m *SearchIndex) Upsert(_ context.Context, docs []entities.SearchDocument) error {
	m.UpsertCallCount++
	if m.Err != nil {
		return m.Err
	}
	if m.Docs == nil {
		m.Docs = make(map[string]entities.SearchDocument)
	}
	for _, d := range docs {
		m.Docs[d.PointID] = d
	}
	return nil
}

// DeleteByEntity removes every document of an entity.
func (m *SearchIndex) DeleteByEntity(_ context.Context, entityID string) error {
	m.DeleteCalls = append(m.DeleteCalls, entityID)
	if m.Err != nil {
		return m.Err
	}
	for id, d := range m.Docs {
		if d.EntityID == entityID {
			delete(m.Docs, id)
		}
	}
	return nil
}

// Search returns the configured hits, or every stored document when none are set.
func (m *SearchIndex) Search(_ context.Context, _ []float32, limit int) ([]entities.SearchHit, error) {
	m.SearchLimits = append(m.SearchLimits, limit)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Hits != nil {
		return m.Hits, nil
	}
	hits := make([]entities.SearchHit, 0, len(m.Docs))
	for _, d := range m.Docs {
		hits = append(hits, entities.SearchHit{
			EntityID: d.EntityID,
			Kind:     d.Kind,
			RevID:    d.RevID,
			Language: d.Language,
			Title:    d.Title,
			Snippet:  d.Text,
			Score:    1,
		})
	}
	// Sort for deterministic test results
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].EntityID != hits[j].EntityID {
			return hits[i].EntityID < hits[j].EntityID
		}
		return hits[i].Language < hits[j].Language
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
