package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/taxa/taxonomy"
)

// Config represents the taxa configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database" yaml:"database"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy" json:"taxonomy" yaml:"taxonomy"`
	Engine   EngineConfig   `mapstructure:"engine" json:"engine" yaml:"engine"`
	Server   ServerConfig   `mapstructure:"server" json:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" json:"log" yaml:"log"`
}

// DatabaseConfig configures the SQLite snapshot cache
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"` // "~/" is expanded by DatabasePath
}

// TaxonomyConfig configures where taxonomy dumps come from and which clades are known
type TaxonomyConfig struct {
	URL                    string           `mapstructure:"url" json:"url" yaml:"url"`
	LatestIndex            string           `mapstructure:"latest_index" json:"latest_index" yaml:"latest_index"`
	ArchiveIndex           string           `mapstructure:"archive_index" json:"archive_index" yaml:"archive_index"`
	DownloadTimeoutSeconds int              `mapstructure:"download_timeout_seconds" json:"download_timeout_seconds" yaml:"download_timeout_seconds"`
	Clades                 map[string]int64 `mapstructure:"clades" json:"clades" yaml:"clades"`
}

// EngineConfig tunes the in-memory query engine
type EngineConfig struct {
	PathCacheSize int `mapstructure:"path_cache_size" json:"path_cache_size" yaml:"path_cache_size"` // 0 disables the cache
}

// ServerConfig configures taxa serve
type ServerConfig struct {
	Port              int     `mapstructure:"port" json:"port" yaml:"port"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"` // 0 disables rate limiting
	Burst             int     `mapstructure:"burst" json:"burst" yaml:"burst"`
}

// LogConfig configures console logging
type LogConfig struct {
	Theme string `mapstructure:"theme" json:"theme" yaml:"theme"` // gruvbox, everforest
	JSON  bool   `mapstructure:"json" json:"json" yaml:"json"`
}

const (
	// DefaultServerPort is the port taxa serve listens on
	DefaultServerPort = 8737

	// DefaultDirPermissions for ~/.taxa
	DefaultDirPermissions = 0750

	// ConfigFileName is the file looked up at every level of the cascade
	ConfigFileName = "am.toml"
)

// CladeTable converts the configured clades into the engine's table
func (t TaxonomyConfig) CladeTable() taxonomy.CladeTable {
	if len(t.Clades) == 0 {
		return taxonomy.DefaultClades()
	}
	table := make(taxonomy.CladeTable, len(t.Clades))
	for name, anchor := range t.Clades {
		table[name] = taxonomy.Taxid(anchor)
	}
	return table
}

// DatabasePath returns the cache path with a leading "~/" expanded
func (c *Config) DatabasePath() string {
	return expandHome(c.Database.Path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// TaxaDir returns ~/.taxa, or "" when the home directory is unknown
func TaxaDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".taxa")
}
