package entities

import "time"

// Audit actions written after each committed mutation.
const (
	ActionCreate = "revision.create"
	ActionUpdate = "revision.update"
	ActionDelete = "revision.delete"
)

// AuditEntry represents a logged action in the system.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	Kind      Kind           `json:"kind"`
	EntityID  string         `json:"entity_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
