// Package validation checks content against its struct tags with a closed
// set of language codes.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
)

// reSlug matches keys made of ASCII letters and digits joined by - _ . or :.
var reSlug = regexp.MustCompile(`^[A-Za-z0-9]+(?:[-_.:][A-Za-z0-9]+)*$`)

// Validator implements ports.Validator.
type Validator struct {
	validate  *validator.Validate
	languages map[entities.LanguageCode]struct{}
}

// New creates a validator accepting only the given language codes.
// Each code must be a well-formed BCP 47 tag and is stored in canonical form.
func New(languages []string) (*Validator, error) {
	if len(languages) == 0 {
		return nil, errors.New("at least one language is required")
	}

	set := make(map[entities.LanguageCode]struct{}, len(languages))
	for _, code := range languages {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid language code %q: %w", code, err)
		}
		set[entities.LanguageCode(tag.String())] = struct{}{}
	}

	v := &Validator{
		validate:  validator.New(),
		languages: set,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range map[string]validator.Func{
		"langcode":   v.validateLanguage,
		"nocontrol":  validateNoControl,
		"singleline": validateSingleLine,
		"slug":       validateSlug,
		"csl":        validateCSL,
	} {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("registering %s validation: %w", tag, err)
		}
	}

	return v, nil
}

// Languages returns the accepted language codes in sorted order.
func (v *Validator) Languages() []entities.LanguageCode {
	out := make([]entities.LanguageCode, 0, len(v.languages))
	for code := range v.languages {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Supports reports whether code is in the accepted set.
func (v *Validator) Supports(code entities.LanguageCode) bool {
	_, ok := v.languages[code]
	return ok
}

// Validate checks a struct and reports every violated field at once.
func (v *Validator) Validate(value any) error {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating: %w", err)
	}

	var c errs.Collector
	for _, fe := range fieldErrs {
		field := fieldPath(fe)
		c.Add(field, fe.Tag(), message(field, fe))
	}
	return c.Err()
}

func (v *Validator) validateLanguage(fl validator.FieldLevel) bool {
	return v.Supports(entities.LanguageCode(fl.Field().String()))
}

// validateNoControl rejects control characters other than newline and tab.
func validateNoControl(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func validateSingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\r\n")
}

// validateSlug also rejects anything that parses as a UUID, since references
// in that form resolve as logical ids.
func validateSlug(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if _, err := uuid.Parse(key); err == nil {
		return false
	}
	return reSlug.MatchString(key)
}

// validateCSL requires a CSL-JSON item: an object with a string type.
func validateCSL(fl validator.FieldLevel) bool {
	item, ok := fl.Field().Interface().(map[string]any)
	if !ok {
		return false
	}
	typ, ok := item["type"].(string)
	return ok && strings.TrimSpace(typ) != ""
}

// fieldPath turns a validator namespace into a JSON field path, dropping the
// struct name and the embedded revision metadata.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.TrimPrefix(ns, "Revision.")
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "langcode":
		return fmt.Sprintf("%s: unsupported language code %q", field, fe.Value())
	case "nocontrol":
		return fmt.Sprintf("%s must not contain control characters", field)
	case "singleline":
		return fmt.Sprintf("%s must be a single line", field)
	case "slug":
		return fmt.Sprintf("%s must contain only letters, digits and single separators (- _ . :) and must not be a UUID", field)
	case "csl":
		return fmt.Sprintf("%s must be a CSL-JSON item with a string \"type\"", field)
	case "uuid":
		return fmt.Sprintf("%s must be a UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
