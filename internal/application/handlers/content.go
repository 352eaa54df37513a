package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
	"github.com/ersonp/folio/internal/domain/services"
)

// CreateCommand creates the first revision of an entity from a JSON input.
type CreateCommand struct {
	Input  json.RawMessage
	Commit entities.CommitMeta
}

// UpdateCommand merges a JSON partial input into the current revision.
type UpdateCommand struct {
	Ref           string
	ExpectedRevID string
	Input         json.RawMessage
	Commit        entities.CommitMeta
}

// DeleteCommand soft-deletes an entity. The actor must be an admin.
type DeleteCommand struct {
	Ref           string
	ExpectedRevID string
	Commit        entities.CommitMeta
}

// RevisionSummary is one row of an entity's history, without its content.
type RevisionSummary struct {
	RevID      string                 `json:"rev_id"`
	RevDate    time.Time              `json:"rev_date"`
	RevUser    *string                `json:"rev_user"`
	RevTags    []string               `json:"rev_tags"`
	RevSummary entities.LocalizedText `json:"rev_summary,omitempty"`
	ChangeType entities.ChangeType    `json:"change_type"`
	Current    bool                   `json:"current"`
	Deleted    bool                   `json:"deleted"`
}

// HistoryResult lists the revisions of one entity, newest first.
type HistoryResult struct {
	Kind      entities.Kind     `json:"kind"`
	EntityID  string            `json:"entity_id"`
	Revisions []RevisionSummary `json:"revisions"`
}

// ListResult contains one page of current revisions.
type ListResult struct {
	Kind   entities.Kind `json:"kind"`
	Items  []any         `json:"items"`
	Count  int           `json:"count"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ContentHandler is the kind-independent command surface of one content kind.
type ContentHandler interface {
	Kind() entities.Kind
	Create(ctx context.Context, cmd CreateCommand) (any, error)
	Update(ctx context.Context, cmd UpdateCommand) (any, error)
	Delete(ctx context.Context, cmd DeleteCommand) (any, error)
	Show(ctx context.Context, ref, revID string) (any, error)
	List(ctx context.Context, limit, offset int) (*ListResult, error)
	History(ctx context.Context, ref string) (*HistoryResult, error)
	Diff(ctx context.Context, ref, fromRevID, toRevID string) (*services.RevisionDiff, error)
	Audit(ctx context.Context, ref string) ([]entities.AuditEntry, error)
}

// Input is a kind's partial-update record.
type Input[T any] interface {
	ApplyTo(T)
}

// KindHandler serves one content kind. I is the kind's input record.
type KindHandler[T entities.Revisionable[T], I Input[T]] struct {
	service *services.RevisionService[T]
	audit   ports.AuditLog
}

// NewKindHandler creates a handler for the kind managed by service.
// audit may be nil, in which case Audit returns no entries.
func NewKindHandler[T entities.Revisionable[T], I Input[T]](service *services.RevisionService[T], audit ports.AuditLog) *KindHandler[T, I] {
	return &KindHandler[T, I]{
		service: service,
		audit:   audit,
	}
}

// Kind returns the served content kind.
func (h *KindHandler[T, I]) Kind() entities.Kind {
	return h.service.Kind()
}

// Create decodes the input and commits a first revision.
func (h *KindHandler[T, I]) Create(ctx context.Context, cmd CreateCommand) (any, error) {
	in, err := decodeInput[I](cmd.Input)
	if err != nil {
		return nil, err
	}
	created, err := h.service.Create(ctx, cmd.Commit, func(v T) error {
		in.ApplyTo(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update merges the input into the current revision and commits the result.
func (h *KindHandler[T, I]) Update(ctx context.Context, cmd UpdateCommand) (any, error) {
	in, err := decodeInput[I](cmd.Input)
	if err != nil {
		return nil, err
	}
	id, err := h.service.Resolve(ctx, cmd.Ref)
	if err != nil {
		return nil, err
	}
	updated, err := h.service.Update(ctx, id, cmd.ExpectedRevID, cmd.Commit, func(v T) error {
		in.ApplyTo(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes the entity and returns the terminal revision.
func (h *KindHandler[T, I]) Delete(ctx context.Context, cmd DeleteCommand) (any, error) {
	if !cmd.Commit.Actor.Admin {
		return nil, errs.NewForbidden("deleting a %s requires admin", h.Kind()).
			With("actor", cmd.Commit.Actor.ID)
	}
	id, err := h.service.Resolve(ctx, cmd.Ref)
	if err != nil {
		return nil, err
	}
	terminal, err := h.service.Delete(ctx, id, cmd.ExpectedRevID, cmd.Commit)
	if err != nil {
		return nil, err
	}
	return terminal, nil
}

// Show returns the current revision, or revID when it is set.
func (h *KindHandler[T, I]) Show(ctx context.Context, ref, revID string) (any, error) {
	id, err := h.service.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	var v T
	if revID == "" {
		v, err = h.service.Current(ctx, id)
	} else {
		v, err = h.service.Revision(ctx, id, revID)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// List returns current revisions, most recently changed first.
func (h *KindHandler[T, I]) List(ctx context.Context, limit, offset int) (*ListResult, error) {
	if limit <= 0 {
		limit = services.DefaultListLimit
	}
	items, err := h.service.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return &ListResult{
		Kind:   h.Kind(),
		Items:  out,
		Count:  len(out),
		Limit:  limit,
		Offset: offset,
	}, nil
}

// History returns the revision chain of an entity.
func (h *KindHandler[T, I]) History(ctx context.Context, ref string) (*HistoryResult, error) {
	id, err := h.service.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	revs, err := h.service.History(ctx, id)
	if err != nil {
		return nil, err
	}
	summaries := make([]RevisionSummary, len(revs))
	for i, rev := range revs {
		summaries[i] = summarize(rev.Meta())
	}
	return &HistoryResult{
		Kind:      h.Kind(),
		EntityID:  id,
		Revisions: summaries,
	}, nil
}

// Diff compares two revisions of an entity.
func (h *KindHandler[T, I]) Diff(ctx context.Context, ref, fromRevID, toRevID string) (*services.RevisionDiff, error) {
	if fromRevID == "" || toRevID == "" {
		return nil, errs.NewInvalidRequest("both revision ids are required")
	}
	id, err := h.service.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return h.service.Diff(ctx, id, fromRevID, toRevID)
}

// Audit returns the audit entries of an entity, newest first.
func (h *KindHandler[T, I]) Audit(ctx context.Context, ref string) ([]entities.AuditEntry, error) {
	id, err := h.service.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if h.audit == nil {
		return []entities.AuditEntry{}, nil
	}
	entries, err := h.audit.FindAuditLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	if entries == nil {
		entries = []entities.AuditEntry{}
	}
	return entries, nil
}

func summarize(m *entities.Revision) RevisionSummary {
	return RevisionSummary{
		RevID:      m.RevID,
		RevDate:    m.RevDate,
		RevUser:    m.RevUser,
		RevTags:    m.RevTags,
		RevSummary: m.RevSummary,
		ChangeType: m.ChangeType,
		Current:    m.IsCurrent(),
		Deleted:    m.RevDeleted,
	}
}

// decodeInput strictly decodes a JSON input record. Unknown fields are
// rejected so typos do not silently drop data.
func decodeInput[I any](raw json.RawMessage) (I, error) {
	var in I
	if len(bytes.TrimSpace(raw)) == 0 {
		return in, errs.NewInvalidRequest("input is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, errs.NewInvalidRequest("malformed input: %v", err)
	}
	if dec.More() {
		return in, errs.NewInvalidRequest("malformed input: trailing data after the input object")
	}
	return in, nil
}

// Registry dispatches commands to the handler of a kind.
type Registry struct {
	handlers map[entities.Kind]ContentHandler
}

// NewRegistry creates a registry serving the given handlers.
func NewRegistry(handlers ...ContentHandler) *Registry {
	r := &Registry{handlers: make(map[entities.Kind]ContentHandler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Kind()] = h
	}
	return r
}

// Handler returns the handler for a kind name or alias.
func (r *Registry) Handler(name string) (ContentHandler, error) {
	kind, err := entities.ParseKind(name)
	if err != nil {
		return nil, err
	}
	h, ok := r.handlers[kind]
	if !ok {
		return nil, errs.NewInvalidRequest("kind %s is not served", kind).With("kind", string(kind))
	}
	return h, nil
}

// Kinds returns the served kinds in name order.
func (r *Registry) Kinds() []entities.Kind {
	kinds := make([]entities.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
