package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
	"github.com/ersonp/folio/internal/infrastructure/parsers"
)

// ImportTag marks revisions written by a citation import.
const ImportTag = "import"

// ConflictStrategy defines how to handle citation keys that already exist.
type ConflictStrategy string

const (
	// ConflictSkip leaves existing citations untouched.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictUpdate writes a new revision of the existing citation.
	ConflictUpdate ConflictStrategy = "update"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool
	OnConflict ConflictStrategy
	Commit     entities.CommitMeta
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    `json:"line"`
	Key     string `json:"key,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Skipped   int           `json:"skipped"`
	Unchanged int           `json:"unchanged"`
	Errors    []ImportError `json:"errors,omitempty"`
}

// ImportService imports citations from parsed external records.
type ImportService struct {
	citations *RevisionService[*entities.Citation]
	validator ports.Validator
	logger    *zap.Logger
}

// NewImportService creates a new import service.
func NewImportService(citations *RevisionService[*entities.Citation], validator ports.Validator, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{citations: citations, validator: validator, logger: logger}
}

// Import validates every record first and writes nothing if any is invalid.
func (s *ImportService) Import(ctx context.Context, raws []parsers.RawCitation, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}
	result.Errors = s.validateRecords(raws)
	if len(result.Errors) > 0 || opts.DryRun {
		return result, nil
	}

	meta := opts.Commit
	meta.Tags = appendTag(meta.Tags, ImportTag)

	for i := range raws {
		raw := &raws[i]
		id, ok, err := s.existing(ctx, raw.Key)
		if err != nil {
			return nil, err
		}

		if !ok {
			if _, err := s.citations.Create(ctx, meta, func(c *entities.Citation) error {
				c.CiteKey = raw.Key
				c.Data = raw.Data
				return nil
			}); err != nil {
				return nil, fmt.Errorf("line %d: %w", raw.LineNum, err)
			}
			result.Created++
			continue
		}

		if opts.OnConflict != ConflictUpdate {
			result.Skipped++
			continue
		}

		_, err = s.citations.Update(ctx, id, "", updateMeta(meta, raw.Key), func(c *entities.Citation) error {
			c.Data = raw.Data
			return nil
		})
		switch {
		case errs.IsKind(err, errs.PreconditionFailed):
			result.Unchanged++
		case err != nil:
			return nil, fmt.Errorf("line %d: %w", raw.LineNum, err)
		default:
			result.Updated++
		}
	}

	s.logger.Info("citations imported",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// validateRecords checks every record and returns all problems found.
func (s *ImportService) validateRecords(raws []parsers.RawCitation) []ImportError {
	var importErrors []ImportError
	seen := make(map[string]int, len(raws))

	for i := range raws {
		raw := &raws[i]
		line := raw.LineNum
		if line == 0 {
			line = i + 1
		}

		key := entities.NormalizeKey(raw.Key)
		if first, dup := seen[key]; dup && key != "" {
			importErrors = append(importErrors, ImportError{
				Line:    line,
				Key:     raw.Key,
				Field:   "key",
				Message: fmt.Sprintf("duplicate key %q (first seen on line %d)", raw.Key, first),
			})
			continue
		}
		seen[key] = line

		candidate := &entities.Citation{CiteKey: raw.Key, Data: raw.Data}
		err := s.validator.Validate(candidate)
		if err == nil {
			continue
		}
		e, ok := errs.As(err)
		if !ok {
			importErrors = append(importErrors, ImportError{Line: line, Key: raw.Key, Message: err.Error()})
			continue
		}
		violations, _ := e.Details["violations"].([]errs.Violation)
		for _, v := range violations {
			importErrors = append(importErrors, ImportError{
				Line:    line,
				Key:     raw.Key,
				Field:   v.Field,
				Message: v.Message,
			})
		}
	}
	return importErrors
}

func (s *ImportService) existing(ctx context.Context, key string) (string, bool, error) {
	id, err := s.citations.Resolve(ctx, key)
	if errs.IsKind(err, errs.NotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if _, err := s.citations.Current(ctx, id); err != nil {
		if errs.IsKind(err, errs.NotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// updateMeta fills in a summary for import updates when the caller gave none.
func updateMeta(meta entities.CommitMeta, key string) entities.CommitMeta {
	if len(meta.Summary) > 0 {
		return meta
	}
	meta.Summary = entities.LocalizedText{"en": fmt.Sprintf("Reimported citation %s", key)}
	return meta
}

func appendTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(append([]string(nil), tags...), tag)
}
