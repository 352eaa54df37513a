// Package diff computes field-level deltas between two revisions.
//
// All functions are pure and deterministic and return nil when the inputs are
// equivalent. Swapping the inputs swaps From and To in the result.
package diff

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/ersonp/folio/internal/domain/entities"
)

// Delta is the change of one field between two revisions.
type Delta struct {
	Field string             `json:"field"`
	Kind  entities.FieldKind `json:"kind"`
	From  any                `json:"from"`
	To    any                `json:"to"`
	// Languages is set for localized fields only and holds one entry per
	// language that differs.
	Languages map[entities.LanguageCode]*LanguageDelta `json:"languages,omitempty"`
}

// Scalar compares two optional strings. Nil differs from every string,
// including the empty one.
func Scalar(field string, from, to *string) *Delta {
	if from == nil && to == nil {
		return nil
	}
	if from != nil && to != nil && *from == *to {
		return nil
	}
	return &Delta{
		Field: field,
		Kind:  entities.FieldScalar,
		From:  derefOrNil(from),
		To:    derefOrNil(to),
	}
}

// Localized compares two language-keyed texts over the union of their
// languages. A language present on one side only counts as a change.
func Localized(field string, from, to entities.LocalizedText) *Delta {
	languages := make(map[entities.LanguageCode]*LanguageDelta)
	for _, lang := range entities.UnionLanguages(from, to) {
		fromText, inFrom := from[lang]
		toText, inTo := to[lang]
		if inFrom == inTo && fromText == toText {
			continue
		}
		ld := diffText(field, lang, fromText, toText)
		if inFrom {
			ld.From = &fromText
		}
		if inTo {
			ld.To = &toText
		}
		languages[lang] = ld
	}
	if len(languages) == 0 {
		return nil
	}
	return &Delta{
		Field:     field,
		Kind:      entities.FieldLocalized,
		From:      from.Clone(),
		To:        to.Clone(),
		Languages: languages,
	}
}

// Structured deep-compares two JSON-shaped values.
func Structured(field string, from, to any) *Delta {
	if structuredEqual(from, to) {
		return nil
	}
	return &Delta{
		Field: field,
		Kind:  entities.FieldStructured,
		From:  entities.CloneStructured(from),
		To:    entities.CloneStructured(to),
	}
}

// Field dispatches to the comparison matching the field kind.
func Field(from, to entities.Field) *Delta {
	switch to.Kind {
	case entities.FieldScalar:
		return Scalar(to.Name, from.Scalar, to.Scalar)
	case entities.FieldLocalized:
		return Localized(to.Name, from.Localized, to.Localized)
	default:
		return Structured(to.Name, from.Structured, to.Structured)
	}
}

// Fields compares two field lists by name and returns the changed fields in
// the order of to, followed by any field present only in from.
func Fields(from, to []entities.Field) []Delta {
	byName := make(map[string]entities.Field, len(from))
	for _, f := range from {
		byName[f.Name] = f
	}

	var deltas []Delta
	seen := make(map[string]bool, len(to))
	for _, t := range to {
		seen[t.Name] = true
		f, ok := byName[t.Name]
		if !ok {
			f = entities.Field{Name: t.Name, Kind: t.Kind}
		}
		if d := Field(f, t); d != nil {
			deltas = append(deltas, *d)
		}
	}
	for _, f := range from {
		if seen[f.Name] {
			continue
		}
		if d := Field(f, entities.Field{Name: f.Name, Kind: f.Kind}); d != nil {
			deltas = append(deltas, *d)
		}
	}
	return deltas
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// structuredEqual compares through canonical JSON so that numeric types and
// map ordering do not matter.
func structuredEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}
