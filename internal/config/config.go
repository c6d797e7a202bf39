package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cursorgallery/cursorgallery/internal/inventory"
)

// Strategy selects how the remote inventory is obtained
type Strategy string

const (
	StrategyListing Strategy = "listing"
	StrategyArchive Strategy = "archive"
)

const (
	DefaultListingBaseURL = "https://www.googleapis.com/drive/v3"
	DefaultTimeout        = 60 * time.Second
	DefaultPerPage        = 12
	LibraryDirName        = "CursorsLib"
)

// DefaultPatterns selects the theme assets compared by the listing strategy
var DefaultPatterns = []string{"**/*.cur", "**/*.ani", "**/preview.gif"}

// Config represents the complete cursorgallery configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Remote  RemoteConfig  `yaml:"remote"`
	Sync    SyncConfig    `yaml:"sync"`
	Catalog CatalogConfig `yaml:"catalog"`
	Update  UpdateConfig  `yaml:"update"`
}

// PathsConfig configures local filesystem paths
type PathsConfig struct {
	LibraryDir string `yaml:"library_dir"`
	StateDir   string `yaml:"state_dir"`
}

// RemoteConfig configures the theme source
type RemoteConfig struct {
	Strategy Strategy      `yaml:"strategy"`
	Timeout  time.Duration `yaml:"timeout"`
	Listing  ListingConfig `yaml:"listing"`
	Archive  ArchiveConfig `yaml:"archive"`
}

// ListingConfig configures the folder-listing API source
type ListingConfig struct {
	BaseURL      string `yaml:"base_url"`
	RootFolderID string `yaml:"root_folder_id"`
	APIKeyFile   string `yaml:"api_key_file"`
}

// ArchiveConfig configures the single-archive source
type ArchiveConfig struct {
	URL        string `yaml:"url"`
	RootPrefix string `yaml:"root_prefix"`
}

// SyncConfig configures how local and remote inventories are compared
type SyncConfig struct {
	Patterns []string `yaml:"patterns"`
	Workers  int      `yaml:"workers"`
}

// CatalogConfig configures browsing
type CatalogConfig struct {
	PerPage int `yaml:"per_page"`
}

// UpdateConfig configures the release check
type UpdateConfig struct {
	ReleaseURL string `yaml:"release_url"`
}

// Default returns a configuration usable without a config file. It has no
// remote source, so only the catalog commands can run with it.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in all path-like string fields
func (c *Config) expandEnv() {
	c.Paths.LibraryDir = os.ExpandEnv(c.Paths.LibraryDir)
	c.Paths.StateDir = os.ExpandEnv(c.Paths.StateDir)
	c.Remote.Listing.BaseURL = os.ExpandEnv(c.Remote.Listing.BaseURL)
	c.Remote.Listing.RootFolderID = os.ExpandEnv(c.Remote.Listing.RootFolderID)
	c.Remote.Listing.APIKeyFile = os.ExpandEnv(c.Remote.Listing.APIKeyFile)
	c.Remote.Archive.URL = os.ExpandEnv(c.Remote.Archive.URL)
	c.Update.ReleaseURL = os.ExpandEnv(c.Update.ReleaseURL)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Paths.LibraryDir == "" || c.Paths.StateDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			if c.Paths.LibraryDir == "" {
				c.Paths.LibraryDir = filepath.Join(home, ".local", "share", "cursorgallery", LibraryDirName)
			}
			if c.Paths.StateDir == "" {
				c.Paths.StateDir = filepath.Join(home, ".local", "state", "cursorgallery")
			}
		}
	}
	if c.Remote.Strategy == "" && c.Remote.Archive.URL != "" && c.Remote.Listing.RootFolderID == "" {
		c.Remote.Strategy = StrategyArchive
	}
	if c.Remote.Strategy == "" {
		c.Remote.Strategy = StrategyListing
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = DefaultTimeout
	}
	if c.Remote.Listing.BaseURL == "" {
		c.Remote.Listing.BaseURL = DefaultListingBaseURL
	}
	c.Remote.Listing.BaseURL = strings.TrimSuffix(c.Remote.Listing.BaseURL, "/")
	// The archive pass compares every file, so it gets no default patterns.
	if c.Sync.Patterns == nil && c.Remote.Strategy == StrategyListing {
		c.Sync.Patterns = append([]string(nil), DefaultPatterns...)
	}
	if c.Catalog.PerPage == 0 {
		c.Catalog.PerPage = DefaultPerPage
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Paths.LibraryDir == "" {
		return fmt.Errorf("paths.library_dir is required")
	}
	if c.Paths.StateDir == "" {
		return fmt.Errorf("paths.state_dir is required")
	}
	if !filepath.IsAbs(c.Paths.LibraryDir) {
		return fmt.Errorf("paths.library_dir must be an absolute path: %s", c.Paths.LibraryDir)
	}
	if !filepath.IsAbs(c.Paths.StateDir) {
		return fmt.Errorf("paths.state_dir must be an absolute path: %s", c.Paths.StateDir)
	}

	switch c.Remote.Strategy {
	case StrategyListing, StrategyArchive:
		// valid
	default:
		return fmt.Errorf("invalid remote.strategy: %s (must be listing or archive)", c.Remote.Strategy)
	}
	if c.HasRemote() {
		if err := c.ValidateRemote(); err != nil {
			return err
		}
	}

	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout must not be negative")
	}
	if c.Sync.Workers < 0 {
		return fmt.Errorf("sync.workers must not be negative")
	}
	if err := inventory.ValidatePatterns(c.Sync.Patterns); err != nil {
		return fmt.Errorf("sync.patterns: %w", err)
	}
	if c.Catalog.PerPage < 0 {
		return fmt.Errorf("catalog.per_page must be positive")
	}
	if c.Update.ReleaseURL != "" && !isHTTPURL(c.Update.ReleaseURL) {
		return fmt.Errorf("update.release_url must be an http(s) URL: %s", c.Update.ReleaseURL)
	}

	return nil
}

// HasRemote reports whether a theme source is configured
func (c *Config) HasRemote() bool {
	return c.Remote.Listing.RootFolderID != "" || c.Remote.Archive.URL != ""
}

// ValidateRemote checks the settings of the selected remote strategy
func (c *Config) ValidateRemote() error {
	switch c.Remote.Strategy {
	case StrategyListing:
		if c.Remote.Listing.RootFolderID == "" {
			return fmt.Errorf("remote.listing.root_folder_id is required for the listing strategy")
		}
		if !isHTTPURL(c.Remote.Listing.BaseURL) {
			return fmt.Errorf("remote.listing.base_url must be an http(s) URL: %s", c.Remote.Listing.BaseURL)
		}
	case StrategyArchive:
		if c.Remote.Archive.URL == "" {
			return fmt.Errorf("remote.archive.url is required for the archive strategy")
		}
		if !isHTTPURL(c.Remote.Archive.URL) {
			return fmt.Errorf("remote.archive.url must be an http(s) URL: %s", c.Remote.Archive.URL)
		}
	default:
		return fmt.Errorf("invalid remote.strategy: %s (must be listing or archive)", c.Remote.Strategy)
	}
	return nil
}

// APIKey reads the listing API key, if one is configured
func (c *Config) APIKey() (string, error) {
	if c.Remote.Listing.APIKeyFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Remote.Listing.APIKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read api key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// RecentFilePath returns the path to the recently applied themes file
func (c *Config) RecentFilePath() string {
	return filepath.Join(c.Paths.StateDir, "recent_cursors.json")
}

// FavoritesFilePath returns the path to the favorites file
func (c *Config) FavoritesFilePath() string {
	return filepath.Join(c.Paths.StateDir, "favorites.json")
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}
