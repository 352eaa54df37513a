package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/mocks"
	"github.com/ersonp/folio/internal/infrastructure/parsers"
)

// cslValidator requires a key and a CSL type.
func cslValidator() *mocks.Validator {
	return &mocks.Validator{Func: func(v any) error {
		c, ok := v.(*entities.Citation)
		if !ok {
			return nil
		}
		var collector errs.Collector
		if c.CiteKey == "" {
			collector.Add("key", "required", "key is required")
		}
		if _, ok := c.Data["type"].(string); !ok {
			collector.Add("data", "csl", "data must be a CSL item with a type")
		}
		return collector.Err()
	}}
}

type importFixture struct {
	citations *RevisionService[*entities.Citation]
	store     *mocks.RevisionStore[*entities.Citation]
	svc       *ImportService
}

func newImportFixture(t *testing.T) importFixture {
	t.Helper()
	fixClock(t)
	store := mocks.NewRevisionStore[*entities.Citation]()
	validator := cslValidator()
	citations := NewRevisionService(entities.NewCitation, store, nil, validator, nil)
	return importFixture{
		citations: citations,
		store:     store,
		svc:       NewImportService(citations, validator, nil),
	}
}

func raw(line int, key, title string) parsers.RawCitation {
	return parsers.RawCitation{
		Key:     key,
		Data:    map[string]any{"type": "book", "title": title},
		LineNum: line,
	}
}

func TestImportService_Import_Creates(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	result, err := f.svc.Import(ctx, []parsers.RawCitation{
		raw(1, "smith2020", "Rivers"),
		raw(2, "doe2019", "Mountains"),
	}, ImportOptions{Commit: commit("import")})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)

	id, err := f.citations.Resolve(ctx, "smith2020")
	require.NoError(t, err)
	c, err := f.citations.Current(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rivers", c.Data["title"])
	assert.Contains(t, c.RevTags, ImportTag)
}

func TestImportService_Import_InvalidRecordWritesNothing(t *testing.T) {
	f := newImportFixture(t)
	ctx := context.Background()

	bad := parsers.RawCitation{Key: "broken", Data: map[string]any{"title": "No type"}, LineNum: 2}
	result, err := f.svc.Import(ctx, []parsers.RawCitation{
		raw(1, "smith2020", "Rivers"),
		bad,
		raw(3, "", "Anonymous"),
	}, ImportOptions{Commit: commit("import")})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, "data", result.Errors[0].Field)
	assert.Equal(t, 3, result.Errors[1].Line)
	assert.Equal(t, "key", result.Errors[1].Field)

	_, err = f.citations.Resolve(ctx, "smith2020")
	assert.True(t, errs.IsKind(err, errs.NotFound))
}

func TestImportService_Import_DuplicateKeysInInput(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), []parsers.RawCitation{
		raw(1, "smith2020", "Rivers"),
		raw(2, "Smith2020", "Rivers again"),
	}, ImportOptions{Commit: commit("import")})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Message, "line 1")
}

func TestImportService_Import_ExistingKeys(t *testing.T) {
	tests := []struct {
		name        string
		strategy    ConflictStrategy
		title       string
		wantSkipped int
		wantUpdated int
		wantSame    int
		wantTitle   string
	}{
		{name: "skip", strategy: ConflictSkip, title: "Rivers 2e", wantSkipped: 1, wantTitle: "Rivers"},
		{name: "update", strategy: ConflictUpdate, title: "Rivers 2e", wantUpdated: 1, wantTitle: "Rivers 2e"},
		{name: "update unchanged", strategy: ConflictUpdate, title: "Rivers", wantSame: 1, wantTitle: "Rivers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t)
			ctx := context.Background()
			_, err := f.svc.Import(ctx, []parsers.RawCitation{raw(1, "smith2020", "Rivers")}, ImportOptions{Commit: commit("import")})
			require.NoError(t, err)

			meta := commit("")
			meta.Summary = nil
			result, err := f.svc.Import(ctx, []parsers.RawCitation{
				raw(1, "smith2020", tt.title),
				raw(2, "doe2019", "Mountains"),
			}, ImportOptions{OnConflict: tt.strategy, Commit: meta})

			require.NoError(t, err)
			assert.Equal(t, 1, result.Created)
			assert.Equal(t, tt.wantSkipped, result.Skipped)
			assert.Equal(t, tt.wantUpdated, result.Updated)
			assert.Equal(t, tt.wantSame, result.Unchanged)

			id, err := f.citations.Resolve(ctx, "smith2020")
			require.NoError(t, err)
			c, err := f.citations.Current(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, c.Data["title"])
		})
	}
}

func TestImportService_Import_DryRun(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), []parsers.RawCitation{raw(1, "smith2020", "Rivers")},
		ImportOptions{DryRun: true, Commit: commit("import")})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, result.Errors)
	_, err = f.citations.Resolve(context.Background(), "smith2020")
	assert.True(t, errs.IsKind(err, errs.NotFound))
}
