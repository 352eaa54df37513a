package ports

import (
	"context"

	"github.com/ersonp/folio/internal/domain/entities"
)

// SearchIndex stores embedded search documents for current revisions.
type SearchIndex interface {
	// Upsert stores documents, replacing any with the same point id.
	Upsert(ctx context.Context, docs []entities.SearchDocument) error

	// DeleteByEntity removes every document of an entity.
	DeleteByEntity(ctx context.Context, entityID string) error

	// Search returns the documents closest to the embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]entities.SearchHit, error)
}
