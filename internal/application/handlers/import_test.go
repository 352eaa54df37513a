package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/services"
)

const citationsCSV = "key,type,title,author,issued,url\n" +
	"smith2020,book,Rivers of Portugal,Smith,2020,\n" +
	"doe2019,article-journal,Atlantic Ports,Doe,2019,https://example.org/ports\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportHandler_Handle_CSVFile(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, "citations.csv", citationsCSV)

	result, err := f.imports.Handle(context.Background(), path, ImportOptions{Commit: author("import")})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)

	id, err := f.citations.Resolve(context.Background(), "doe2019")
	require.NoError(t, err)
	c, err := f.citations.Current(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Atlantic Ports", c.Data["title"])
	assert.Contains(t, c.RevTags, services.ImportTag)
}

func TestImportHandler_Handle_JSONFile(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, "citations.json", `[
		{"id": "smith2020", "type": "book", "title": "Rivers of Portugal"}
	]`)

	result, err := f.imports.Handle(context.Background(), path, ImportOptions{Commit: author("import")})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
}

func TestImportHandler_Handle_InvalidWritesNothing(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, "citations.json", `[
		{"id": "smith2020", "type": "book", "title": "Rivers of Portugal"},
		{"id": "bad key!", "type": "book", "title": "Broken"}
	]`)

	_, err := f.imports.Handle(context.Background(), path, ImportOptions{Commit: author("import")})

	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.ValidationError, e.Kind)
	assert.Contains(t, e.Message, "1 of 2")
	importErrs, ok := e.Details["errors"].([]services.ImportError)
	require.True(t, ok)
	require.Len(t, importErrs, 1)
	assert.Equal(t, "bad key!", importErrs[0].Key)

	_, err = f.citations.Resolve(context.Background(), "smith2020")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestImportHandler_Handle_ExistingKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := writeFile(t, "citations.csv", citationsCSV)
	_, err := f.imports.Handle(ctx, path, ImportOptions{Commit: author("import")})
	require.NoError(t, err)

	skipped, err := f.imports.Handle(ctx, path, ImportOptions{Commit: author("import")})
	require.NoError(t, err)
	assert.Equal(t, 2, skipped.Skipped)

	changed := writeFile(t, "changed.csv", strings.Replace(citationsCSV, "Atlantic Ports", "Atlantic Harbours", 1))
	updated, err := f.imports.Handle(ctx, changed, ImportOptions{
		OnConflict: services.ConflictUpdate,
		Commit:     author("reimport"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Updated)
	assert.Equal(t, 1, updated.Unchanged)
}

func TestImportHandler_Handle_UnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, "citations.bib", "@book{smith2020}")

	_, err := f.imports.Handle(context.Background(), path, ImportOptions{})

	assert.Equal(t, errs.InvalidRequest, errs.KindOf(err))
}

func TestImportHandler_HandleReader_DryRun(t *testing.T) {
	f := newFixture(t)

	result, err := f.imports.HandleReader(context.Background(), strings.NewReader(citationsCSV), ImportOptions{
		Format: "csv",
		DryRun: true,
		Commit: author("import"),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	_, err = f.citations.Resolve(context.Background(), "smith2020")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}
