package services

import (
	"context"

	"github.com/ersonp/folio/internal/domain/diff"
	"github.com/ersonp/folio/internal/domain/entities"
)

// RevisionDiff is the field-level delta between two revisions of one entity.
type RevisionDiff struct {
	Kind      entities.Kind `json:"kind"`
	EntityID  string        `json:"entity_id"`
	FromRevID string        `json:"from_rev_id"`
	ToRevID   string        `json:"to_rev_id"`
	Changes   []diff.Delta  `json:"changes"`
}

// Diff compares any two revisions of id. The revisions need not be adjacent,
// and either order is accepted.
func (s *RevisionService[T]) Diff(ctx context.Context, id, fromRevID, toRevID string) (*RevisionDiff, error) {
	from, err := s.Revision(ctx, id, fromRevID)
	if err != nil {
		return nil, err
	}
	to, err := s.Revision(ctx, id, toRevID)
	if err != nil {
		return nil, err
	}

	changes := diff.Fields(from.Fields(), to.Fields())
	if changes == nil {
		changes = []diff.Delta{}
	}
	return &RevisionDiff{
		Kind:      s.kind,
		EntityID:  id,
		FromRevID: fromRevID,
		ToRevID:   toRevID,
		Changes:   changes,
	}, nil
}
