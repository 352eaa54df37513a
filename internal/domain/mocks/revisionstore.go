package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// RevisionStore is an in-memory mock implementation of ports.RevisionStore.
// It enforces the same current-revision and key rules as the real store.
type RevisionStore[T entities.Revisionable[T]] struct {
	mu      sync.Mutex
	chains  map[string][]T
	aliases map[string]string

	// Err, when set, is returned by every mutation.
	Err error

	// Call tracking
	CommitCallCount int
}

// NewRevisionStore creates an empty mock store.
func NewRevisionStore[T entities.Revisionable[T]]() *RevisionStore[T] {
	return &RevisionStore[T]{
		chains:  make(map[string][]T),
		aliases: make(map[string]string),
	}
}

// ResolveKey returns the entity bound to key.
func (m *RevisionStore[T]) ResolveKey(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.aliases[key]
	return id, ok, nil
}

// FindCurrent returns the current, non-deleted revision of id.
func (m *RevisionStore[T]) FindCurrent(_ context.Context, id string) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	for _, rev := range m.chains[id] {
		meta := rev.Meta()
		if meta.IsCurrent() && !meta.RevDeleted {
			return rev.Clone(), true, nil
		}
	}
	return zero, false, nil
}

// FindRevision returns one revision of id.
func (m *RevisionStore[T]) FindRevision(_ context.Context, id, revID string) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	for _, rev := range m.chains[id] {
		if rev.Meta().RevID == revID {
			return rev.Clone(), true, nil
		}
	}
	return zero, false, nil
}

// ListRevisions returns every revision of id, newest first.
func (m *RevisionStore[T]) ListRevisions(_ context.Context, id string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chain := m.chains[id]
	out := make([]T, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Clone())
	}
	return out, nil
}

// ListCurrent returns current, non-deleted revisions, newest change first.
func (m *RevisionStore[T]) ListCurrent(_ context.Context, limit, offset int) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []T
	for _, chain := range m.chains {
		for _, rev := range chain {
			meta := rev.Meta()
			if meta.IsCurrent() && !meta.RevDeleted {
				out = append(out, rev.Clone())
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Meta(), out[j].Meta()
		if !a.RevDate.Equal(b.RevDate) {
			return a.RevDate.After(b.RevDate)
		}
		return a.ID < b.ID
	})
	if offset >= len(out) {
		return []T{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CreateFirst stores the first revision and binds its key.
func (m *RevisionStore[T]) CreateFirst(_ context.Context, first T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	id := first.Meta().ID
	if len(m.chains[id]) > 0 {
		return errs.NewConflict("entity %s already exists", id)
	}
	if err := m.checkKey(first); err != nil {
		return err
	}
	m.bindKey(first)
	m.chains[id] = []T{first.Clone()}
	return nil
}

// Commit demotes old and appends next when old is still current.
func (m *RevisionStore[T]) Commit(_ context.Context, old, next T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitCallCount++
	if m.Err != nil {
		return m.Err
	}
	id := old.Meta().ID
	head, err := m.head(id, old.Meta().RevID)
	if err != nil {
		return err
	}
	if err := m.checkKey(next); err != nil {
		return err
	}

	chain := m.chains[id]
	chain[head].Meta().OldRevOf = &id
	m.chains[id] = append(chain, next.Clone())
	m.bindKey(next)
	return nil
}

// DeleteAll marks every revision deleted, appends terminal and releases keys.
func (m *RevisionStore[T]) DeleteAll(_ context.Context, current, terminal T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	id := current.Meta().ID
	head, err := m.head(id, current.Meta().RevID)
	if err != nil {
		return err
	}

	chain := m.chains[id]
	chain[head].Meta().OldRevOf = &id
	for _, rev := range chain {
		rev.Meta().RevDeleted = true
	}
	m.chains[id] = append(chain, terminal.Clone())
	for key, owner := range m.aliases {
		if owner == id {
			delete(m.aliases, key)
		}
	}
	return nil
}

// Len returns the number of stored revisions of id.
func (m *RevisionStore[T]) Len(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chains[id])
}

// CurrentCount returns how many revisions of id are marked current.
func (m *RevisionStore[T]) CurrentCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rev := range m.chains[id] {
		if rev.Meta().IsCurrent() {
			n++
		}
	}
	return n
}

func (m *RevisionStore[T]) head(id, revID string) (int, error) {
	for i, rev := range m.chains[id] {
		meta := rev.Meta()
		if meta.RevID == revID && meta.IsCurrent() && !meta.RevDeleted {
			return i, nil
		}
	}
	return 0, errs.NewPreconditionFailed("revision %s is no longer current", revID).
		With("id", id).
		With("expected", revID)
}

func (m *RevisionStore[T]) checkKey(v T) error {
	key := entities.NormalizeKey(v.Key())
	if key == "" {
		return nil
	}
	if owner, ok := m.aliases[key]; ok && owner != v.Meta().ID {
		return errs.NewConflict("key %q is already in use", v.Key()).
			With("key", v.Key()).
			With("id", owner)
	}
	return nil
}

func (m *RevisionStore[T]) bindKey(v T) {
	key := entities.NormalizeKey(v.Key())
	if key != "" {
		m.aliases[key] = v.Meta().ID
	}
}
