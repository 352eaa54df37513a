package mocks

import (
	"context"
	"time"

	"github.com/ersonp/folio/internal/domain/entities"
)

// AuditLog is an in-memory mock implementation of ports.AuditLog.
type AuditLog struct {
	Entries []entities.AuditEntry
	Err     error
}

// LogAction appends an entry unless Err is set.
func (m *AuditLog) LogAction(_ context.Context, action string, kind entities.Kind, entityID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Entries = append(m.Entries, entities.AuditEntry{
		ID:        int64(len(m.Entries) + 1),
		Action:    action,
		Kind:      kind,
		EntityID:  entityID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// FindAuditLog returns the entries of one entity in insertion order.
func (m *AuditLog) FindAuditLog(_ context.Context, entityID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []entities.AuditEntry
	for _, e := range m.Entries {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Actions returns the recorded actions in order.
func (m *AuditLog) Actions() []string {
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Action
	}
	return out
}
