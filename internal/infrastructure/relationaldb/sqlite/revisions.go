package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

const revisionColumns = `rev_id, entity_id, old_rev_of, rev_deleted, rev_date, rev_user,
	rev_tags, rev_summary, change_type, content_hash, content`

// RevisionTable implements ports.RevisionStore for one kind on the shared
// revisions table.
type RevisionTable[T entities.Revisionable[T]] struct {
	repo      *Repository
	kind      entities.Kind
	newEntity func() T
}

// NewRevisionTable creates the store for the kind produced by newEntity.
func NewRevisionTable[T entities.Revisionable[T]](repo *Repository, newEntity func() T) *RevisionTable[T] {
	return &RevisionTable[T]{
		repo:      repo,
		kind:      newEntity().Kind(),
		newEntity: newEntity,
	}
}

// ResolveKey returns the entity bound to a normalized key.
func (t *RevisionTable[T]) ResolveKey(ctx context.Context, key string) (string, bool, error) {
	var id string
	err := t.repo.db.QueryRowContext(ctx,
		`SELECT entity_id FROM aliases WHERE kind = ? AND key = ?`, string(t.kind), key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolving key: %w", err)
	}
	return id, true, nil
}

// FindCurrent returns the current, non-deleted revision of id.
func (t *RevisionTable[T]) FindCurrent(ctx context.Context, id string) (T, bool, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions
		WHERE kind = ? AND entity_id = ? AND old_rev_of IS NULL AND rev_deleted = 0`
	return t.findOne(ctx, query, string(t.kind), id)
}

// FindRevision returns one revision of id, deleted or not.
func (t *RevisionTable[T]) FindRevision(ctx context.Context, id, revID string) (T, bool, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions
		WHERE kind = ? AND entity_id = ? AND rev_id = ?`
	return t.findOne(ctx, query, string(t.kind), id, revID)
}

// ListRevisions returns every revision of id, newest first.
func (t *RevisionTable[T]) ListRevisions(ctx context.Context, id string) ([]T, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions
		WHERE kind = ? AND entity_id = ?
		ORDER BY rev_date DESC, seq DESC`
	return t.query(ctx, query, string(t.kind), id)
}

// ListCurrent returns current, non-deleted revisions ordered by newest change.
func (t *RevisionTable[T]) ListCurrent(ctx context.Context, limit, offset int) ([]T, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions
		WHERE kind = ? AND old_rev_of IS NULL AND rev_deleted = 0
		ORDER BY rev_date DESC, seq DESC
		LIMIT ? OFFSET ?`
	return t.query(ctx, query, string(t.kind), limit, offset)
}

// CreateFirst writes the first revision of a new entity and binds its key.
func (t *RevisionTable[T]) CreateFirst(ctx context.Context, first T) error {
	return t.repo.withTx(ctx, func(tx *sql.Tx) error {
		if err := t.bindKey(ctx, tx, first); err != nil {
			return err
		}
		return t.insert(ctx, tx, first)
	})
}

// Commit demotes old and writes next as the current revision.
func (t *RevisionTable[T]) Commit(ctx context.Context, old, next T) error {
	return t.repo.withTx(ctx, func(tx *sql.Tx) error {
		if err := t.demote(ctx, tx, old); err != nil {
			return err
		}
		if err := t.bindKey(ctx, tx, next); err != nil {
			return err
		}
		return t.insert(ctx, tx, next)
	})
}

// DeleteAll marks the whole chain deleted, appends terminal and releases keys.
func (t *RevisionTable[T]) DeleteAll(ctx context.Context, current, terminal T) error {
	id := current.Meta().ID
	return t.repo.withTx(ctx, func(tx *sql.Tx) error {
		if err := t.demote(ctx, tx, current); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE revisions SET rev_deleted = 1 WHERE kind = ? AND entity_id = ?`,
			string(t.kind), id); err != nil {
			return fmt.Errorf("marking revisions deleted: %w", err)
		}
		if err := t.insert(ctx, tx, terminal); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM aliases WHERE kind = ? AND entity_id = ?`,
			string(t.kind), id); err != nil {
			return fmt.Errorf("releasing keys: %w", err)
		}
		return nil
	})
}

// demote turns old into a historical row by setting old_rev_of to the
// entity's logical id. It only succeeds while old is still the current,
// non-deleted revision.
func (t *RevisionTable[T]) demote(ctx context.Context, tx *sql.Tx, old T) error {
	m := old.Meta()
	res, err := tx.ExecContext(ctx, `
		UPDATE revisions SET old_rev_of = ?
		WHERE kind = ? AND entity_id = ? AND rev_id = ?
			AND old_rev_of IS NULL AND rev_deleted = 0`,
		m.ID, string(t.kind), m.ID, m.RevID)
	if err != nil {
		return fmt.Errorf("demoting revision: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("demoting revision: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = tx.QueryRowContext(ctx, `
		SELECT rev_id FROM revisions
		WHERE kind = ? AND entity_id = ? AND old_rev_of IS NULL AND rev_deleted = 0`,
		string(t.kind), m.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NewPreconditionFailed("revision %s is no longer current", m.RevID).
			With("id", m.ID).
			With("expected", m.RevID)
	}
	if err != nil {
		return fmt.Errorf("reading current revision: %w", err)
	}
	return errs.StaleRevision(current, m.RevID)
}

// bindKey records v's key for its entity. A key owned by another entity is a
// conflict; re-binding the same key is a no-op.
func (t *RevisionTable[T]) bindKey(ctx context.Context, tx *sql.Tx, v T) error {
	key := entities.NormalizeKey(v.Key())
	if key == "" {
		return nil
	}
	id := v.Meta().ID

	var owner string
	err := tx.QueryRowContext(ctx,
		`SELECT entity_id FROM aliases WHERE kind = ? AND key = ?`, string(t.kind), key).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO aliases (kind, key, entity_id) VALUES (?, ?, ?)`,
			string(t.kind), key, id); err != nil {
			return fmt.Errorf("binding key: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("checking key: %w", err)
	case owner != id:
		return errs.NewConflict("%s key %q is already in use", t.kind, v.Key()).
			With("key", v.Key()).
			With("id", owner)
	default:
		return nil
	}
}

func (t *RevisionTable[T]) insert(ctx context.Context, tx *sql.Tx, v T) error {
	m := v.Meta()

	content, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling content: %w", err)
	}
	tags := m.RevTags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}
	var summary sql.NullString
	if len(m.RevSummary) > 0 {
		data, err := json.Marshal(m.RevSummary)
		if err != nil {
			return fmt.Errorf("marshaling summary: %w", err)
		}
		summary = sql.NullString{String: string(data), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO revisions (
			rev_id, kind, entity_id, old_rev_of, rev_deleted, rev_date, rev_user,
			rev_tags, rev_summary, change_type, content_hash, content
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RevID,
		string(t.kind),
		m.ID,
		nullString(m.OldRevOf),
		boolToInt(m.RevDeleted),
		m.RevDate.UnixNano(),
		nullString(m.RevUser),
		string(tagsJSON),
		summary,
		string(m.ChangeType),
		m.ContentHash,
		string(content),
	)
	if isUniqueViolation(err) {
		return errs.NewConflict("%s %s already has a current revision", t.kind, m.ID).With("id", m.ID)
	}
	if err != nil {
		return fmt.Errorf("inserting revision: %w", err)
	}
	return nil
}

func (t *RevisionTable[T]) findOne(ctx context.Context, query string, args ...any) (T, bool, error) {
	v, err := t.scan(t.repo.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

func (t *RevisionTable[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := t.repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying revisions: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scan reads one row. The indexed columns are authoritative over the
// metadata copy inside content, since demotion and deletion update them in place.
func (t *RevisionTable[T]) scan(row rowScanner) (T, error) {
	var (
		zero                       T
		m                          entities.Revision
		oldRevOf, revUser, summary sql.NullString
		deleted                    int
		revDate                    int64
		tags, changeType, content  string
	)
	err := row.Scan(
		&m.RevID,
		&m.ID,
		&oldRevOf,
		&deleted,
		&revDate,
		&revUser,
		&tags,
		&summary,
		&changeType,
		&m.ContentHash,
		&content,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, err
	}
	if err != nil {
		return zero, fmt.Errorf("scanning revision: %w", err)
	}

	v := t.newEntity()
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return zero, fmt.Errorf("unmarshaling %s content: %w", t.kind, err)
	}

	m.OldRevOf = stringPtr(oldRevOf)
	m.RevUser = stringPtr(revUser)
	m.RevDeleted = deleted != 0
	m.RevDate = time.Unix(0, revDate).UTC()
	m.ChangeType = entities.ChangeType(changeType)
	if err := json.Unmarshal([]byte(tags), &m.RevTags); err != nil {
		return zero, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if summary.Valid {
		if err := json.Unmarshal([]byte(summary.String), &m.RevSummary); err != nil {
			return zero, fmt.Errorf("unmarshaling summary: %w", err)
		}
	}

	*v.Meta() = m
	return v, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
