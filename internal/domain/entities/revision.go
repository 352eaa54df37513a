package entities

import (
	"strings"
	"time"
)

// ChangeType indicates why a revision was written.
type ChangeType string

const (
	ChangeCreation ChangeType = "creation"
	ChangeUpdate   ChangeType = "update"
	ChangeDeletion ChangeType = "deletion"
)

// Revision is the metadata carried by every row of a revision chain.
// Content types embed it so the chain fields sit alongside their own.
type Revision struct {
	ID          string        `json:"id"`
	RevID       string        `json:"rev_id"`
	RevDate     time.Time     `json:"rev_date"`
	RevUser     *string       `json:"rev_user"`
	RevTags     []string      `json:"rev_tags"`
	RevSummary  LocalizedText `json:"rev_summary,omitempty" validate:"omitempty,dive,keys,langcode,endkeys,nocontrol,singleline,max=500"`
	OldRevOf    *string       `json:"old_rev_of"`
	RevDeleted  bool          `json:"rev_deleted"`
	ChangeType  ChangeType    `json:"change_type"`
	ContentHash string        `json:"content_hash"`
}

// Meta returns the revision metadata. Promoted to every content type.
func (r *Revision) Meta() *Revision {
	return r
}

// IsCurrent reports whether this row is the head of its chain.
func (r *Revision) IsCurrent() bool {
	return r.OldRevOf == nil
}

// CloneRevision returns a deep copy of r.
func (r Revision) CloneRevision() Revision {
	c := r
	if r.RevUser != nil {
		user := *r.RevUser
		c.RevUser = &user
	}
	if r.OldRevOf != nil {
		old := *r.OldRevOf
		c.OldRevOf = &old
	}
	if r.RevTags != nil {
		c.RevTags = append([]string(nil), r.RevTags...)
	}
	c.RevSummary = r.RevSummary.Clone()
	return c
}

// Revisionable is implemented by every versioned content type.
// T is the concrete pointer type, so Clone returns a value of the same type.
type Revisionable[T any] interface {
	Kind() Kind
	Meta() *Revision
	// Key is the human-facing identifier (slug, citation key, claim id).
	// Empty when the kind has none.
	Key() string
	Fields() []Field
	Clone() T
}

// Actor identifies who is issuing a command.
type Actor struct {
	ID    string `json:"id,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

// UserRef returns the actor id for revision metadata, nil for the system.
func (a Actor) UserRef() *string {
	if a.ID == "" {
		return nil
	}
	id := a.ID
	return &id
}

// CommitMeta is the caller-supplied metadata attached to a new revision.
type CommitMeta struct {
	Actor   Actor
	Tags    []string
	Summary LocalizedText
}

// NormalizeKey converts a human-facing key to its lookup form.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
