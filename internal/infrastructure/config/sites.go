package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SitesConfig holds dynamic site definitions (read/write).
type SitesConfig struct {
	Sites map[string]SiteEntry `yaml:"sites,omitempty"`
}

// SiteEntry holds configuration for a specific site.
type SiteEntry struct {
	Collection  string `yaml:"collection"`
	Description string `yaml:"description,omitempty"`
}

// LoadSites loads site configuration from the .folio directory.
func LoadSites(basePath string) (*SitesConfig, error) {
	sitesFile := SitesFilePath(basePath)

	data, err := os.ReadFile(sitesFile)
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &SitesConfig{
			Sites: make(map[string]SiteEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sites file: %w", err)
	}

	var cfg SitesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing sites file: %w", err)
	}

	if cfg.Sites == nil {
		cfg.Sites = make(map[string]SiteEntry)
	}

	return &cfg, nil
}

// Save writes the sites configuration to the sites file.
func (s *SitesConfig) Save(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling sites config: %w", err)
	}

	if err := os.WriteFile(SitesFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing sites file: %w", err)
	}

	return nil
}

// Add adds a site to the configuration.
func (s *SitesConfig) Add(name string, entry SiteEntry) {
	if s.Sites == nil {
		s.Sites = make(map[string]SiteEntry)
	}
	s.Sites[name] = entry
}

// Remove removes a site from the configuration.
func (s *SitesConfig) Remove(name string) {
	if s.Sites != nil {
		delete(s.Sites, name)
	}
}

// Names returns the configured site names in sorted order.
func (s *SitesConfig) Names() []string {
	names := make([]string, 0, len(s.Sites))
	for name := range s.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the configuration for a specific site.
func (s *SitesConfig) Get(name string) (*SiteEntry, error) {
	if len(s.Sites) == 0 {
		return nil, errors.New("no sites configured")
	}

	entry, ok := s.Sites[name]
	if !ok {
		names := s.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("site %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}

// GetCollection returns the search collection name for a site.
func (s *SitesConfig) GetCollection(name string) (string, error) {
	entry, err := s.Get(name)
	if err != nil {
		return "", err
	}
	return entry.Collection, nil
}

// Exists checks if a site exists in the configuration.
func (s *SitesConfig) Exists(name string) bool {
	if s.Sites == nil {
		return false
	}
	_, ok := s.Sites[name]
	return ok
}
