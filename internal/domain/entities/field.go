package entities

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// FieldKind selects how a field is compared between revisions.
type FieldKind string

const (
	FieldScalar     FieldKind = "scalar"
	FieldLocalized  FieldKind = "localized"
	FieldStructured FieldKind = "structured"
)

// Field is one diffable content field of a revision.
// Exactly one of Scalar, Localized or Structured is meaningful, selected by Kind.
type Field struct {
	Name       string
	Kind       FieldKind
	Scalar     *string
	Localized  LocalizedText
	Structured any
}

// ScalarField describes a plain string field. Empty strings are reported as nil.
func ScalarField(name, value string) Field {
	f := Field{Name: name, Kind: FieldScalar}
	if value != "" {
		v := value
		f.Scalar = &v
	}
	return f
}

// LocalizedField describes a language-keyed text field.
func LocalizedField(name string, value LocalizedText) Field {
	return Field{Name: name, Kind: FieldLocalized, Localized: value}
}

// StructuredField describes a nested key/value field.
func StructuredField(name string, value any) Field {
	return Field{Name: name, Kind: FieldStructured, Structured: value}
}

// Value returns the field's value for serialization.
func (f Field) Value() any {
	switch f.Kind {
	case FieldScalar:
		return f.Scalar
	case FieldLocalized:
		return f.Localized
	default:
		return f.Structured
	}
}

// ContentHash returns a stable hash of the given content fields.
// Maps are serialized with sorted keys, so equal content always hashes the same.
func ContentHash(fields []Field) (string, error) {
	content := make(map[string]any, len(fields))
	for _, f := range fields {
		content[f.Name] = f.Value()
	}
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("marshaling content: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
