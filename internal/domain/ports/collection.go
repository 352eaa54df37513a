// Package ports defines interfaces for external service communication.
package ports

import "context"

// CollectionManager handles search collection lifecycle operations.
// It is separate from SearchIndex so sites can be created and removed
// without touching document operations.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all its data.
	DeleteCollection(ctx context.Context) error
}
