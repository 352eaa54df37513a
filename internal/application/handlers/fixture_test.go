package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/mocks"
	"github.com/ersonp/folio/internal/domain/services"
	"github.com/ersonp/folio/internal/infrastructure/config"
	"github.com/ersonp/folio/internal/infrastructure/patch"
	"github.com/ersonp/folio/internal/infrastructure/validation"
)

const lisbonBody = "# Intro\nHello\n## History\nOld text\n"

type fixture struct {
	pages     *services.RevisionService[*entities.WikiPage]
	citations *services.RevisionService[*entities.Citation]
	pageStore *mocks.RevisionStore[*entities.WikiPage]
	audit     *mocks.AuditLog
	registry  *Registry
	edits     *EditHandler
	imports   *ImportHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	v, err := validation.New(config.DefaultLanguages)
	require.NoError(t, err)

	audit := &mocks.AuditLog{}
	pageStore := mocks.NewRevisionStore[*entities.WikiPage]()
	pages := services.NewRevisionService(entities.NewWikiPage, pageStore, audit, v, nil)
	citations := services.NewRevisionService(entities.NewCitation, mocks.NewRevisionStore[*entities.Citation](), audit, v, nil)

	return &fixture{
		pages:     pages,
		citations: citations,
		pageStore: pageStore,
		audit:     audit,
		registry: NewRegistry(
			NewKindHandler[*entities.WikiPage, entities.WikiPageInput](pages, audit),
			NewKindHandler[*entities.Citation, entities.CitationInput](citations, audit),
		),
		edits:   NewEditHandler(pages, services.NewEditService(pages, nil), patch.NewApplier()),
		imports: NewImportHandler(services.NewImportService(citations, v, nil)),
	}
}

func author(summary string) entities.CommitMeta {
	return entities.CommitMeta{
		Actor:   entities.Actor{ID: "alice"},
		Summary: entities.LocalizedText{"en": summary},
	}
}

func admin(summary string) entities.CommitMeta {
	meta := author(summary)
	meta.Actor.Admin = true
	return meta
}

func pageInput(t *testing.T, slug, body string) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"slug":              slug,
		"title":             map[string]string{"en": "Lisbon"},
		"body":              map[string]string{"en": body},
		"original_language": "en",
	})
	require.NoError(t, err)
	return data
}

func (f *fixture) createPage(t *testing.T, slug, body string) *entities.WikiPage {
	t.Helper()
	h, err := f.registry.Handler("page")
	require.NoError(t, err)
	created, err := h.Create(context.Background(), CreateCommand{
		Input:  pageInput(t, slug, body),
		Commit: author("create"),
	})
	require.NoError(t, err)
	return created.(*entities.WikiPage)
}
