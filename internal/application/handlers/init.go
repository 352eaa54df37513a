package handlers

import (
	"fmt"

	"github.com/ersonp/folio/internal/domain/errs"
	"github.com/ersonp/folio/internal/infrastructure/config"
)

// InitHandler handles workspace initialization.
type InitHandler struct{}

// NewInitHandler creates a new init handler.
func NewInitHandler() *InitHandler {
	return &InitHandler{}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string   `json:"config_path"`
	Languages  []string `json:"languages"`
}

// Handle writes the default config into basePath.
func (h *InitHandler) Handle(basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, errs.NewConflict("folio already initialized in %s", basePath).
			With("path", config.ConfigDir(basePath))
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		Languages:  cfg.Content.Languages,
	}, nil
}
