package ports

import (
	"context"

	"github.com/ersonp/folio/internal/domain/entities"
)

// IdentityResolver maps a human-facing key to a logical entity id.
type IdentityResolver interface {
	// ResolveKey returns the entity id bound to the normalized key.
	// The boolean is false when no entity holds the key.
	ResolveKey(ctx context.Context, key string) (string, bool, error)
}

// RevisionStore persists the append-only revision chain of one content kind.
//
// Lookups report absence through the boolean rather than an error.
// Every mutation is atomic: it either writes all of its rows or none.
type RevisionStore[T entities.Revisionable[T]] interface {
	IdentityResolver

	// FindCurrent returns the current, non-deleted revision of id.
	FindCurrent(ctx context.Context, id string) (T, bool, error)

	// FindRevision returns one revision of id by revision id, deleted or not.
	FindRevision(ctx context.Context, id, revID string) (T, bool, error)

	// ListRevisions returns every revision of id, newest first.
	ListRevisions(ctx context.Context, id string) ([]T, error)

	// ListCurrent returns current, non-deleted revisions, most recently
	// changed first.
	ListCurrent(ctx context.Context, limit, offset int) ([]T, error)

	// CreateFirst writes the first revision of a new entity and binds its key.
	CreateFirst(ctx context.Context, first T) error

	// Commit demotes old and writes next as the current revision.
	// It fails with PreconditionFailed when old is no longer current.
	Commit(ctx context.Context, old, next T) error

	// DeleteAll marks every revision of current's entity deleted and appends
	// terminal as the final revision. Keys bound to the entity are released.
	DeleteAll(ctx context.Context, current, terminal T) error
}

// AuditLog records committed actions.
type AuditLog interface {
	LogAction(ctx context.Context, action string, kind entities.Kind, entityID string, details map[string]any) error
	FindAuditLog(ctx context.Context, entityID string) ([]entities.AuditEntry, error)
}

// Validator checks a value against its field rules.
// A failure is a ValidationError listing every violated field.
type Validator interface {
	Validate(v any) error
}

// PatchApplier applies an external patch to a text.
type PatchApplier interface {
	Apply(current, patch string, format entities.PatchFormat, opts entities.PatchOptions) (string, error)
}
