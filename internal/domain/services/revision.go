package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// newRevisionID returns a fresh revision or entity id.
var newRevisionID = func() string {
	return uuid.New().String()
}

// CheckExpectedRevision compares a caller's expected revision id with the
// current one. An empty expected id disables the check.
func CheckExpectedRevision(current *entities.Revision, expected string) error {
	if expected == "" || expected == current.RevID {
		return nil
	}
	return errs.StaleRevision(current.RevID, expected)
}

// RevisionService runs the revision lifecycle of one content kind.
//
// Every mutation loads the current snapshot, builds the next snapshot on a
// clone and hands both to the store in a single Commit. Nothing is cached
// between calls.
type RevisionService[T entities.Revisionable[T]] struct {
	kind      entities.Kind
	newEntity func() T
	store     ports.RevisionStore[T]
	audit     ports.AuditLog
	validator ports.Validator
	indexer   *SearchService
	logger    *zap.Logger
}

// NewRevisionService creates a revision service. audit and logger may be nil.
func NewRevisionService[T entities.Revisionable[T]](
	newEntity func() T,
	store ports.RevisionStore[T],
	audit ports.AuditLog,
	validator ports.Validator,
	logger *zap.Logger,
) *RevisionService[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	kind := newEntity().Kind()
	return &RevisionService[T]{
		kind:      kind,
		newEntity: newEntity,
		store:     store,
		audit:     audit,
		validator: validator,
		logger:    logger.With(zap.String("kind", string(kind))),
	}
}

// WithIndexer enables search indexing of committed revisions.
func (s *RevisionService[T]) WithIndexer(indexer *SearchService) *RevisionService[T] {
	s.indexer = indexer
	return s
}

// Kind returns the content kind this service manages.
func (s *RevisionService[T]) Kind() entities.Kind {
	return s.kind
}

// Resolve maps a reference to a logical id. A UUID is taken as an id;
// anything else is looked up as a human-facing key.
func (s *RevisionService[T]) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", errs.NewInvalidRequest("a %s reference is required", s.kind)
	}
	if _, err := uuid.Parse(ref); err == nil {
		return ref, nil
	}
	id, ok, err := s.store.ResolveKey(ctx, entities.NormalizeKey(ref))
	if err != nil {
		return "", fmt.Errorf("resolving %s key: %w", s.kind, err)
	}
	if !ok {
		return "", errs.NewNotFound("%s %q not found", s.kind, ref).With("ref", ref)
	}
	return id, nil
}

// Current returns the current revision of id.
func (s *RevisionService[T]) Current(ctx context.Context, id string) (T, error) {
	current, ok, err := s.store.FindCurrent(ctx, id)
	if err != nil {
		return current, fmt.Errorf("finding current %s: %w", s.kind, err)
	}
	if !ok {
		return current, errs.NewNotFound("%s %s not found", s.kind, id).With("id", id)
	}
	return current, nil
}

// Revision returns one revision of id.
func (s *RevisionService[T]) Revision(ctx context.Context, id, revID string) (T, error) {
	rev, ok, err := s.store.FindRevision(ctx, id, revID)
	if err != nil {
		return rev, fmt.Errorf("finding %s revision: %w", s.kind, err)
	}
	if !ok {
		return rev, errs.NewNotFound("revision %s of %s %s not found", revID, s.kind, id).
			With("id", id).
			With("rev_id", revID)
	}
	return rev, nil
}

// History returns every revision of id, newest first.
func (s *RevisionService[T]) History(ctx context.Context, id string) ([]T, error) {
	revs, err := s.store.ListRevisions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing %s revisions: %w", s.kind, err)
	}
	if len(revs) == 0 {
		return nil, errs.NewNotFound("%s %s not found", s.kind, id).With("id", id)
	}
	return revs, nil
}

// DefaultListLimit is used when a caller passes no list limit.
const DefaultListLimit = 50

// List returns current entities, most recently changed first.
func (s *RevisionService[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		return nil, errs.NewInvalidRequest("offset must not be negative").With("offset", offset)
	}
	items, err := s.store.ListCurrent(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.kind, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Create writes the first revision of a new entity built by build.
func (s *RevisionService[T]) Create(ctx context.Context, meta entities.CommitMeta, build func(T) error) (T, error) {
	first := s.newEntity()
	if err := build(first); err != nil {
		return first, err
	}

	m := first.Meta()
	m.ID = newRevisionID()
	s.stamp(m, meta, entities.ChangeCreation)

	if err := s.prepare(first); err != nil {
		return first, err
	}
	if err := s.store.CreateFirst(ctx, first); err != nil {
		return first, fmt.Errorf("creating %s: %w", s.kind, err)
	}

	s.afterCommit(ctx, entities.ActionCreate, first, meta)
	return first, nil
}

// Update writes a new revision of id produced by mutate.
//
// The expected revision is checked before mutate runs, so a stale caller never
// sees its edit computed. mutate works on a clone; the loaded snapshot is not
// touched.
func (s *RevisionService[T]) Update(ctx context.Context, id, expectedRevID string, meta entities.CommitMeta, mutate func(T) error) (T, error) {
	var zero T
	if err := requireSummary(meta); err != nil {
		return zero, err
	}

	current, err := s.Current(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := CheckExpectedRevision(current.Meta(), expectedRevID); err != nil {
		s.logger.Info("stale revision rejected",
			zap.String("entity_id", id),
			zap.String("current", current.Meta().RevID),
			zap.String("expected", expectedRevID))
		return zero, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return zero, err
	}

	m := next.Meta()
	m.ID = current.Meta().ID
	m.OldRevOf = nil
	m.RevDeleted = false
	s.stamp(m, meta, entities.ChangeUpdate)

	if err := s.prepare(next); err != nil {
		return zero, err
	}
	if m.ContentHash == current.Meta().ContentHash {
		return zero, errs.NewPreconditionFailed("update did not change content").With("id", id)
	}

	if err := s.store.Commit(ctx, current, next); err != nil {
		return zero, fmt.Errorf("committing %s revision: %w", s.kind, err)
	}

	s.afterCommit(ctx, entities.ActionUpdate, next, meta)
	return next, nil
}

// Delete soft-deletes id: every revision is marked deleted and a terminal
// revision carrying the summary is appended.
func (s *RevisionService[T]) Delete(ctx context.Context, id, expectedRevID string, meta entities.CommitMeta) (T, error) {
	var zero T
	if err := requireSummary(meta); err != nil {
		return zero, err
	}

	current, err := s.Current(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := CheckExpectedRevision(current.Meta(), expectedRevID); err != nil {
		return zero, err
	}

	terminal := current.Clone()
	m := terminal.Meta()
	m.OldRevOf = nil
	m.RevDeleted = true
	s.stamp(m, meta, entities.ChangeDeletion)
	if err := s.validator.Validate(terminal); err != nil {
		return zero, err
	}

	if err := s.store.DeleteAll(ctx, current, terminal); err != nil {
		return zero, fmt.Errorf("deleting %s: %w", s.kind, err)
	}

	s.afterCommit(ctx, entities.ActionDelete, terminal, meta)
	return terminal, nil
}

func (s *RevisionService[T]) stamp(m *entities.Revision, meta entities.CommitMeta, change entities.ChangeType) {
	m.RevID = newRevisionID()
	m.RevDate = timeNow().UTC()
	m.RevUser = meta.Actor.UserRef()
	m.RevTags = append([]string(nil), meta.Tags...)
	m.RevSummary = meta.Summary.Clone()
	m.ChangeType = change
}

// prepare validates v and records its content hash.
func (s *RevisionService[T]) prepare(v T) error {
	if err := s.validator.Validate(v); err != nil {
		return err
	}
	hash, err := entities.ContentHash(v.Fields())
	if err != nil {
		return fmt.Errorf("hashing %s content: %w", s.kind, err)
	}
	v.Meta().ContentHash = hash
	return nil
}

// afterCommit runs the side effects of a committed revision. Failures are
// logged; the revision itself is already durable.
func (s *RevisionService[T]) afterCommit(ctx context.Context, action string, v T, meta entities.CommitMeta) {
	m := v.Meta()
	s.logger.Info("revision committed",
		zap.String("action", action),
		zap.String("entity_id", m.ID),
		zap.String("rev_id", m.RevID),
		zap.String("actor", meta.Actor.ID),
		zap.Strings("tags", meta.Tags))

	if s.audit != nil {
		details := map[string]any{
			"rev_id": m.RevID,
			"actor":  meta.Actor.ID,
			"tags":   meta.Tags,
		}
		if err := s.audit.LogAction(ctx, action, s.kind, m.ID, details); err != nil {
			s.logger.Warn("audit log write failed", zap.String("entity_id", m.ID), zap.Error(err))
		}
	}

	if s.indexer == nil {
		return
	}
	searchable, ok := any(v).(entities.Searchable)
	if !ok {
		return
	}
	var err error
	if m.RevDeleted {
		err = s.indexer.Remove(ctx, m.ID)
	} else {
		err = s.indexer.Index(ctx, searchable)
	}
	if err != nil {
		s.logger.Warn("search indexing failed", zap.String("entity_id", m.ID), zap.Error(err))
	}
}

func requireSummary(meta entities.CommitMeta) error {
	if len(meta.Summary) == 0 {
		var c errs.Collector
		c.Add("rev_summary", "required", "a revision summary is required")
		return c.Err()
	}
	return nil
}
