// Package errs defines the error taxonomy shared by every folio command.
package errs

import (
	"errors"
	"fmt"
	"sort"
)

// Kind categorizes a failure. Callers branch on Kind, never on message text.
type Kind string

const (
	// NotFound covers a missing entity, revision, heading occurrence or text span.
	NotFound Kind = "NotFound"
	// Conflict covers ambiguous matches, duplicate identifiers and patches that do not apply.
	Conflict Kind = "Conflict"
	// PreconditionFailed covers stale expected revisions and edits that change nothing.
	PreconditionFailed Kind = "PreconditionFailed"
	// InvalidRequest covers malformed input, overlapping ranges and unsupported formats.
	InvalidRequest Kind = "InvalidRequest"
	// ValidationError carries every violated field at once.
	ValidationError Kind = "ValidationError"
	// Forbidden is returned when a destructive command lacks admin capability.
	Forbidden Kind = "Forbidden"
	// Internal is used at the boundary for errors outside the taxonomy.
	Internal Kind = "Internal"
)

// Error is a categorized failure with structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// With returns e with an additional detail set.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Wrap attaches a cause to e.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound creates a NotFound error.
func NewNotFound(format string, args ...any) *Error {
	return newError(NotFound, format, args...)
}

// NewConflict creates a Conflict error.
func NewConflict(format string, args ...any) *Error {
	return newError(Conflict, format, args...)
}

// NewPreconditionFailed creates a PreconditionFailed error.
func NewPreconditionFailed(format string, args ...any) *Error {
	return newError(PreconditionFailed, format, args...)
}

// NewInvalidRequest creates an InvalidRequest error.
func NewInvalidRequest(format string, args ...any) *Error {
	return newError(InvalidRequest, format, args...)
}

// NewForbidden creates a Forbidden error.
func NewForbidden(format string, args ...any) *Error {
	return newError(Forbidden, format, args...)
}

// StaleRevision reports an expected revision that no longer matches the current one.
func StaleRevision(current, expected string) *Error {
	return NewPreconditionFailed("expected revision %s but current revision is %s", expected, current).
		With("current", current).
		With("expected", expected)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or Internal when err is outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Payload is the structured error form returned across the command boundary.
type Payload struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToPayload converts err for the command boundary.
// Errors outside the taxonomy are reported with a generic message.
func ToPayload(err error) Payload {
	e, ok := As(err)
	if !ok {
		return Payload{Kind: Internal, Message: "internal error"}
	}
	return Payload{Kind: e.Kind, Message: e.Message, Details: e.Details}
}

// Violation is a single failed field check.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Collector aggregates field violations so they can be reported together.
type Collector struct {
	violations []Violation
}

// Add records a violation.
func (c *Collector) Add(field, rule, message string) {
	c.violations = append(c.violations, Violation{Field: field, Rule: rule, Message: message})
}

// Len returns the number of recorded violations.
func (c *Collector) Len() int {
	return len(c.violations)
}

// Violations returns the recorded violations ordered by field.
func (c *Collector) Violations() []Violation {
	out := make([]Violation, len(c.violations))
	copy(out, c.violations)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Err returns a ValidationError listing every violation, or nil if there are none.
func (c *Collector) Err() error {
	if len(c.violations) == 0 {
		return nil
	}
	violations := c.Violations()
	fields := make([]string, len(violations))
	for i, v := range violations {
		fields[i] = v.Field
	}
	return &Error{
		Kind:    ValidationError,
		Message: fmt.Sprintf("%d field(s) failed validation", len(violations)),
		Details: map[string]any{
			"fields":     fields,
			"violations": violations,
		},
	}
}
