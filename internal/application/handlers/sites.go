package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/folio/internal/domain/entities"
	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/domain/ports"
	"github.com/ersonp/folio/internal/infrastructure/config"
)

// StoreSetup prepares the database of a new site at path.
type StoreSetup func(ctx context.Context, path string) error

// CollectionOpener opens the search collection of a site. The returned
// function releases the connection.
type CollectionOpener func(collection string) (ports.CollectionManager, func() error, error)

// SiteInfo describes one registered site.
type SiteInfo struct {
	Name        string `json:"name"`
	Collection  string `json:"collection"`
	Description string `json:"description,omitempty"`
	Database    string `json:"database"`
}

// SiteHandler creates, lists and deletes sites in a workspace.
type SiteHandler struct {
	basePath    string
	setup       StoreSetup
	collections CollectionOpener
	vectorSize  uint64
	logger      *zap.Logger
}

// NewSiteHandler creates a site handler. collections may be nil when search
// is disabled; no collection is then created or removed.
func NewSiteHandler(basePath string, setup StoreSetup, collections CollectionOpener, vectorSize uint64, logger *zap.Logger) *SiteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteHandler{
		basePath:    basePath,
		setup:       setup,
		collections: collections,
		vectorSize:  vectorSize,
		logger:      logger,
	}
}

// Create registers a site, creates its database and, with search enabled,
// its collection.
func (h *SiteHandler) Create(ctx context.Context, name, description string) (*SiteInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.NewInvalidRequest("a site name is required")
	}

	sites, err := config.LoadSites(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading sites: %w", err)
	}
	if sites.Exists(name) {
		return nil, errs.NewConflict("site %q already exists", name).With("site", name)
	}
	for _, other := range sites.Names() {
		if config.SanitizeSiteName(other) == config.SanitizeSiteName(name) {
			return nil, errs.NewConflict("site %q would share storage with site %q", name, other).
				With("site", name).
				With("existing", other)
		}
	}

	info := h.info(name, config.SiteEntry{
		Collection:  config.GenerateCollectionName(name),
		Description: description,
	})

	if err := os.MkdirAll(config.SiteDir(h.basePath, name), 0755); err != nil {
		return nil, fmt.Errorf("creating site directory: %w", err)
	}
	if h.setup != nil {
		if err := h.setup(ctx, info.Database); err != nil {
			return nil, fmt.Errorf("preparing site database: %w", err)
		}
	}
	if h.collections != nil {
		if err := h.withCollection(info.Collection, func(mgr ports.CollectionManager) error {
			return mgr.EnsureCollection(ctx, h.vectorSize)
		}); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	}

	sites.Add(name, config.SiteEntry{Collection: info.Collection, Description: description})
	if err := sites.Save(h.basePath); err != nil {
		return nil, fmt.Errorf("saving sites: %w", err)
	}

	h.logger.Info("site created", zap.String("site", name), zap.String("collection", info.Collection))
	return &info, nil
}

// List returns every registered site in name order.
func (h *SiteHandler) List() ([]SiteInfo, error) {
	sites, err := config.LoadSites(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading sites: %w", err)
	}
	out := make([]SiteInfo, 0, len(sites.Sites))
	for _, name := range sites.Names() {
		out = append(out, h.info(name, sites.Sites[name]))
	}
	return out, nil
}

// Delete removes a site with its database and collection. The actor must be an admin.
func (h *SiteHandler) Delete(ctx context.Context, name string, actor entities.Actor) (*SiteInfo, error) {
	if !actor.Admin {
		return nil, errs.NewForbidden("deleting a site requires admin").With("actor", actor.ID)
	}

	sites, err := config.LoadSites(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading sites: %w", err)
	}
	if !sites.Exists(name) {
		return nil, errs.NewNotFound("site %q not found", name).
			With("site", name).
			With("available", sites.Names())
	}
	info := h.info(name, sites.Sites[name])

	if h.collections != nil {
		if err := h.withCollection(info.Collection, func(mgr ports.CollectionManager) error {
			return mgr.DeleteCollection(ctx)
		}); err != nil {
			h.logger.Warn("could not delete collection",
				zap.String("site", name),
				zap.String("collection", info.Collection),
				zap.Error(err))
		}
	}

	if err := os.RemoveAll(config.SiteDir(h.basePath, name)); err != nil {
		return nil, fmt.Errorf("removing site directory: %w", err)
	}

	sites.Remove(name)
	if err := sites.Save(h.basePath); err != nil {
		return nil, fmt.Errorf("saving sites: %w", err)
	}

	h.logger.Info("site deleted", zap.String("site", name))
	return &info, nil
}

func (h *SiteHandler) info(name string, entry config.SiteEntry) SiteInfo {
	return SiteInfo{
		Name:        name,
		Collection:  entry.Collection,
		Description: entry.Description,
		Database:    config.SQLitePathForSite(h.basePath, name),
	}
}

func (h *SiteHandler) withCollection(collection string, fn func(ports.CollectionManager) error) error {
	mgr, closeFn, err := h.collections(collection)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(mgr)
}
