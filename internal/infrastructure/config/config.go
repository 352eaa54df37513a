// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for folio configuration.
	DefaultConfigDir = ".folio"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultSitesFile is the default sites file name.
	DefaultSitesFile = "sites.yaml"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
	Search   SearchConfig   `yaml:"search,omitempty"`
	Content  ContentConfig  `yaml:"content,omitempty"`
	MCP      MCPConfig      `yaml:"mcp,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// BaseURL points the client at an OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// Dimensions overrides the vector size reported for the model.
	Dimensions uint64 `yaml:"dimensions,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	UseTLS     bool   `yaml:"use_tls,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// For per-site databases, this is computed dynamically using SQLitePathForSite.
	Path string `yaml:"path,omitempty"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
	// Format is json or console.
	Format string `yaml:"format,omitempty"`
}

// SearchConfig controls semantic search indexing.
type SearchConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	Limit   int  `yaml:"limit,omitempty"`
}

// ContentConfig holds content rules shared by every kind.
type ContentConfig struct {
	// Languages is the closed set of accepted language codes (BCP 47).
	Languages []string `yaml:"languages,omitempty"`
}

// MCPConfig holds configuration for the agent tool server.
type MCPConfig struct {
	Name string `yaml:"name,omitempty"`
	// Transport is stdio or http.
	Transport string `yaml:"transport,omitempty"`
	// Addr is the listen address for the http transport.
	Addr string `yaml:"addr,omitempty"`
}

// DefaultLanguages is the language set used when none is configured.
var DefaultLanguages = []string{"en", "de", "fr", "es", "pt", "it", "nl"}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Search: SearchConfig{
			Limit: 10,
		},
		Content: ContentConfig{
			Languages: append([]string(nil), DefaultLanguages...),
		},
		MCP: MCPConfig{
			Name:      "folio",
			Transport: "stdio",
			Addr:      ":8080",
		},
	}
}

// Load loads configuration from the .folio directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'folio init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Parse overlays YAML data onto the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if len(cfg.Content.Languages) == 0 {
		cfg.Content.Languages = append([]string(nil), DefaultLanguages...)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// ConfigDir returns the path to the .folio config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SitesFilePath returns the path to the sites file.
func SitesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultSitesFile)
}

// SanitizeSiteName converts a site name to a valid collection suffix.
func SanitizeSiteName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// GenerateCollectionName creates a search collection name for a site.
func GenerateCollectionName(siteName string) string {
	return "folio_" + SanitizeSiteName(siteName)
}

// SQLitePathForSite returns the SQLite database path for a given site.
func SQLitePathForSite(basePath, siteName string) string {
	return filepath.Join(SiteDir(basePath, siteName), "folio.db")
}

// SiteDir returns the directory path for a given site.
func SiteDir(basePath, siteName string) string {
	return filepath.Join(basePath, DefaultConfigDir, "sites", SanitizeSiteName(siteName))
}
