package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

// isolate points HOME and the working directory at fresh temp dirs and
// returns (home, project).
func isolate(t *testing.T) (string, string) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	root := t.TempDir()
	home := filepath.Join(root, "home")
	project := filepath.Join(root, "project", "nested")
	require.NoError(t, os.MkdirAll(home, 0755))
	require.NoError(t, os.MkdirAll(project, 0755))

	t.Setenv("HOME", home)
	t.Chdir(project)
	return home, filepath.Dir(project)
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "~/.taxa/taxa.db", cfg.Database.Path)
	assert.Equal(t, DefaultTaxonomyURL, cfg.Taxonomy.URL)
	assert.Equal(t, DefaultLatestIndex, cfg.Taxonomy.LatestIndex)
	assert.Equal(t, DefaultArchiveIndex, cfg.Taxonomy.ArchiveIndex)
	assert.Equal(t, 1800, cfg.Taxonomy.DownloadTimeoutSeconds)
	assert.Equal(t, 4096, cfg.Engine.PathCacheSize)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, float64(50), cfg.Server.RequestsPerSecond)
	assert.Equal(t, 100, cfg.Server.Burst)
	assert.Equal(t, "everforest", cfg.Log.Theme)
	assert.False(t, cfg.Log.JSON)

	assert.Equal(t, taxonomy.DefaultClades(), cfg.Taxonomy.CladeTable())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Cascade(t *testing.T) {
	home, project := isolate(t)

	writeConfig(t, filepath.Join(home, ".taxa", "am.toml"), `
[server]
port = 9000
burst = 7

[taxonomy.clades]
fungi = 4751
`)
	writeConfig(t, filepath.Join(project, "am.toml"), `
[server]
port = 9100
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "project overrides user")
	assert.Equal(t, 7, cfg.Server.Burst, "user overrides default")
	assert.Equal(t, "everforest", cfg.Log.Theme)

	clades := cfg.Taxonomy.CladeTable()
	assert.Equal(t, taxonomy.Taxid(4751), clades["fungi"])
	assert.Equal(t, taxonomy.Taxid(10239), clades["virus"], "configured clades extend the defaults")

	assert.Equal(t, SourceProject, ConfigSources["server.port"].Source)
	assert.Equal(t, filepath.Join(project, "am.toml"), ConfigSources["server.port"].Path)
	assert.Equal(t, SourceUser, ConfigSources["server.burst"].Source)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again, "config is cached until Reset")
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("TAXA_SERVER_PORT", "9200")
	t.Setenv("TAXA_DB_PATH", "/var/lib/taxa/cache.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "/var/lib/taxa/cache.db", cfg.DatabasePath())

	path, err := GetDatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/taxa/cache.db", path)
}

func TestLoad_MalformedFile(t *testing.T) {
	home, _ := isolate(t)
	writeConfig(t, filepath.Join(home, ".taxa", "am.toml"), "[server\nport = ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user config")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeConfig(t, path, `
[engine]
path_cache_size = 0
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Engine.PathCacheSize)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	isolate(t)

	v, err := Get("server.port")
	require.NoError(t, err)
	assert.EqualValues(t, DefaultServerPort, v)
	assert.Equal(t, DefaultTaxonomyURL, GetString("taxonomy.url"))
	assert.Equal(t, 4096, GetInt("engine.path_cache_size"))

	_, err = Get("server.nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestDatabasePath(t *testing.T) {
	home, _ := isolate(t)

	cfg := &Config{Database: DatabaseConfig{Path: "~/.taxa/taxa.db"}}
	assert.Equal(t, filepath.Join(home, ".taxa", "taxa.db"), cfg.DatabasePath())

	cfg.Database.Path = "/abs/taxa.db"
	assert.Equal(t, "/abs/taxa.db", cfg.DatabasePath())

	cfg.Database.Path = "~other/taxa.db"
	assert.Equal(t, "~other/taxa.db", cfg.DatabasePath())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero cache disables it", func(c *Config) { c.Engine.PathCacheSize = 0 }, ""},
		{"zero rate is unlimited", func(c *Config) { c.Server.RequestsPerSecond = 0; c.Server.Burst = 0 }, ""},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"empty taxonomy url", func(c *Config) { c.Taxonomy.URL = "" }, "taxonomy.url"},
		{"bad archive index", func(c *Config) { c.Taxonomy.ArchiveIndex = "http://[::1" }, "taxonomy.archive_index"},
		{"zero download timeout", func(c *Config) { c.Taxonomy.DownloadTimeoutSeconds = 0 }, "download_timeout_seconds"},
		{"negative clade anchor", func(c *Config) { c.Taxonomy.Clades = map[string]int64{"x": -1} }, "taxonomy.clades.x"},
		{"negative cache", func(c *Config) { c.Engine.PathCacheSize = -1 }, "path_cache_size"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative rate", func(c *Config) { c.Server.RequestsPerSecond = -1 }, "requests_per_second"},
		{"rate without burst", func(c *Config) { c.Server.Burst = 0 }, "server.burst"},
		{"unknown theme", func(c *Config) { c.Log.Theme = "solarized" }, "log.theme"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	home, project := isolate(t)

	assert.Empty(t, findProjectConfig())

	writeConfig(t, filepath.Join(project, "am.toml"), "")
	assert.Equal(t, filepath.Join(project, "am.toml"), findProjectConfig(), "found by walking up")

	// The user config is not a project config even when working inside ~/.taxa
	writeConfig(t, filepath.Join(home, ".taxa", "am.toml"), "")
	t.Chdir(filepath.Join(home, ".taxa"))
	assert.Empty(t, findProjectConfig())
}
