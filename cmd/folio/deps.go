package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/application/handlers"
	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
	"github.com/ersonp/folio/internal/domain/services"
	"github.com/ersonp/folio/internal/infrastructure/config"
	embedder "github.com/ersonp/folio/internal/infrastructure/embedder/openai"
	"github.com/ersonp/folio/internal/infrastructure/logging"
	"github.com/ersonp/folio/internal/infrastructure/patch"
	"github.com/ersonp/folio/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/folio/internal/infrastructure/validation"
	"github.com/ersonp/folio/internal/infrastructure/vectordb/qdrant"
)

// workspace is the configuration shared by every command.
type workspace struct {
	basePath string
	cfg      *config.Config
	logger   *zap.Logger
}

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config   *config.Config
	Site     string
	Logger   *zap.Logger
	Registry *handlers.Registry
	Pages    handlers.ContentHandler
	Edits    *handlers.EditHandler
	Imports  *handlers.ImportHandler
	Exports  *handlers.ExportHandler
	Search   *handlers.SearchHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	relationalDB *sqlite.Repository
}

// withWorkspace loads config and the logger from the current directory.
func withWorkspace(fn func(*workspace) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return errs.NewInvalidRequest("loading config: %v", err)
	}
	if globalLogLevel != "" {
		cfg.Log.Level = globalLogLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return errs.NewInvalidRequest("configuring logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	return fn(&workspace{basePath: cwd, cfg: cfg, logger: logger})
}

// withDeps builds the handlers of the selected site, then calls fn.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	return withWorkspace(func(ws *workspace) error {
		if globalSite == "" {
			return errs.NewInvalidRequest("site is required (use --site flag)")
		}

		sites, err := config.LoadSites(ws.basePath)
		if err != nil {
			return fmt.Errorf("loading sites: %w", err)
		}
		if !sites.Exists(globalSite) {
			return errs.NewNotFound("site %q not found", globalSite).
				With("site", globalSite).
				With("available", sites.Names())
		}
		entry := sites.Sites[globalSite]
		logger := ws.logger.With(zap.String("site", globalSite))

		relationalDB, err := sqlite.NewRepository(config.SQLiteConfig{Path: config.SQLitePathForSite(ws.basePath, globalSite)})
		if err != nil {
			return fmt.Errorf("creating sqlite repository: %w", err)
		}
		defer relationalDB.Close()

		if err := relationalDB.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensuring sqlite schema: %w", err)
		}

		validator, err := validation.New(ws.cfg.Content.Languages)
		if err != nil {
			return errs.NewInvalidRequest("configuring validation: %v", err)
		}

		d := &internalDeps{relationalDB: relationalDB}

		var search *services.SearchService
		if ws.cfg.Search.Enabled {
			emb, err := embedder.NewEmbedder(ws.cfg.Embedder)
			if err != nil {
				return errs.NewInvalidRequest("creating embedder: %v", err)
			}

			qdrantCfg := ws.cfg.Qdrant
			qdrantCfg.Collection = entry.Collection
			index, err := qdrant.NewRepository(qdrantCfg)
			if err != nil {
				return fmt.Errorf("creating qdrant repository: %w", err)
			}
			defer index.Close()

			search = services.NewSearchService(emb, index, logger)
		}

		pages := services.NewRevisionService(entities.NewWikiPage,
			sqlite.NewRevisionTable(relationalDB, entities.NewWikiPage), relationalDB, validator, logger)
		citations := services.NewRevisionService(entities.NewCitation,
			sqlite.NewRevisionTable(relationalDB, entities.NewCitation), relationalDB, validator, logger)
		claims := services.NewRevisionService(entities.NewCitationClaim,
			sqlite.NewRevisionTable(relationalDB, entities.NewCitationClaim), relationalDB, validator, logger)
		posts := services.NewRevisionService(entities.NewBlogPost,
			sqlite.NewRevisionTable(relationalDB, entities.NewBlogPost), relationalDB, validator, logger)
		checks := services.NewRevisionService(entities.NewPageCheck,
			sqlite.NewRevisionTable(relationalDB, entities.NewPageCheck), relationalDB, validator, logger)
		if search != nil {
			pages.WithIndexer(search)
			posts.WithIndexer(search)
		}

		pageHandler := handlers.NewKindHandler[*entities.WikiPage, entities.WikiPageInput](pages, relationalDB)

		d.Deps = Deps{
			Config: ws.cfg,
			Site:   globalSite,
			Logger: logger,
			Registry: handlers.NewRegistry(
				pageHandler,
				handlers.NewKindHandler[*entities.Citation, entities.CitationInput](citations, relationalDB),
				handlers.NewKindHandler[*entities.CitationClaim, entities.CitationClaimInput](claims, relationalDB),
				handlers.NewKindHandler[*entities.BlogPost, entities.BlogPostInput](posts, relationalDB),
				handlers.NewKindHandler[*entities.PageCheck, entities.PageCheckInput](checks, relationalDB),
			),
			Pages:   pageHandler,
			Edits:   handlers.NewEditHandler(pages, services.NewEditService(pages, logger), patch.NewApplier()),
			Imports: handlers.NewImportHandler(services.NewImportService(citations, validator, logger)),
			Exports: handlers.NewExportHandler(citations),
			Search:  handlers.NewSearchHandler(search),
		}

		return fn(d)
	})
}

// newSiteHandler wires site management to sqlite and, with search enabled,
// to qdrant collections.
func newSiteHandler(ws *workspace) (*handlers.SiteHandler, error) {
	setup := func(ctx context.Context, path string) error {
		repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
		if err != nil {
			return err
		}
		defer repo.Close()
		return repo.EnsureSchema(ctx)
	}

	if !ws.cfg.Search.Enabled {
		return handlers.NewSiteHandler(ws.basePath, setup, nil, 0, ws.logger), nil
	}

	emb, err := embedder.NewEmbedder(ws.cfg.Embedder)
	if err != nil {
		return nil, errs.NewInvalidRequest("creating embedder: %v", err)
	}
	collections := func(collection string) (ports.CollectionManager, func() error, error) {
		qdrantCfg := ws.cfg.Qdrant
		qdrantCfg.Collection = collection
		repo, err := qdrant.NewRepository(qdrantCfg)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}
	return handlers.NewSiteHandler(ws.basePath, setup, collections, emb.Dimensions(), ws.logger), nil
}
