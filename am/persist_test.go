package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/taxa/errors"
)

func TestSetTaxonomyURL(t *testing.T) {
	home, _ := isolate(t)
	userConfig := filepath.Join(home, ".taxa", "am.toml")
	writeConfig(t, userConfig, `
[server]
port = 9000

[taxonomy]
download_timeout_seconds = 60
`)

	archive := "https://ftp.ncbi.nih.gov/pub/taxonomy/taxdump_archive/new_taxdump_2024-01-01.zip"
	require.NoError(t, SetTaxonomyURL(archive))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, archive, cfg.Taxonomy.URL)
	assert.Equal(t, 9000, cfg.Server.Port, "other settings survive")
	assert.Equal(t, 60, cfg.Taxonomy.DownloadTimeoutSeconds)

	data, err := os.ReadFile(userConfig)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, toml.Unmarshal(data, &raw))
	assert.Equal(t, archive, raw["taxonomy"].(map[string]interface{})["url"])

	backup, err := os.ReadFile(userConfig + ".back1")
	require.NoError(t, err)
	assert.Contains(t, string(backup), "port = 9000")
	assert.NotContains(t, string(backup), archive)
}

func TestSetTaxonomyURL_CreatesUserConfig(t *testing.T) {
	home, _ := isolate(t)

	require.NoError(t, SetTaxonomyURL("file:///data/new_taxdump.tar.gz"))

	cfg, err := LoadFromFile(filepath.Join(home, ".taxa", "am.toml"))
	require.NoError(t, err)
	assert.Equal(t, "file:///data/new_taxdump.tar.gz", cfg.Taxonomy.URL)
	assert.NoFileExists(t, filepath.Join(home, ".taxa", "am.toml.back1"))

	err = SetTaxonomyURL("")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestCreateBackup_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")

	for i := 1; i <= 5; i++ {
		writeConfig(t, path, "version = "+string(rune('0'+i)))
		require.NoError(t, createBackup(path))
	}

	for n, want := range map[int]string{1: "version = 5", 2: "version = 4", 3: "version = 3"} {
		got, err := os.ReadFile(backupName(path, n))
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
	assert.NoFileExists(t, path+".back4")
}

func TestSettings(t *testing.T) {
	home, _ := isolate(t)
	writeConfig(t, filepath.Join(home, ".taxa", "am.toml"), "[server]\nburst = 3\n")
	t.Setenv("TAXA_LOG_THEME", "gruvbox")

	settings, err := Settings()
	require.NoError(t, err)

	byKey := make(map[string]SettingInfo)
	for _, s := range settings {
		byKey[s.Key] = s
	}
	assert.Equal(t, SourceUser, byKey["server.burst"].Source)
	assert.Equal(t, SourceEnvironment, byKey["log.theme"].Source)
	assert.Equal(t, "TAXA_LOG_THEME", byKey["log.theme"].SourcePath)
	assert.Equal(t, SourceDefault, byKey["server.port"].Source)
	assert.Contains(t, byKey, "taxonomy.clades.virus")

	sources := Sources()
	require.GreaterOrEqual(t, len(sources), 2)
	assert.Equal(t, SourceSystem, sources[0].Source)
	assert.Equal(t, SourceUser, sources[1].Source)
	assert.True(t, sources[1].Exists)
}

func TestConfigWatcher(t *testing.T) {
	home, _ := isolate(t)
	userConfig := filepath.Join(home, ".taxa", "am.toml")
	writeConfig(t, userConfig, "[server]\nport = 9000\n")

	cw, err := NewConfigWatcher(zaptest.NewLogger(t).Sugar(), userConfig)
	require.NoError(t, err)
	defer cw.Stop()
	cw.SetDebounce(20 * time.Millisecond)

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(c *Config) error {
		reloaded <- c
		return errors.New("callback errors are logged, not fatal")
	})
	cw.Start()

	writeConfig(t, userConfig, "[server]\nport = 9001\n")

	select {
	case c := <-reloaded:
		assert.Equal(t, 9001, c.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not picked up")
	}
}

func TestConfigWatcher_IgnoresOwnWrites(t *testing.T) {
	home, _ := isolate(t)
	userConfig := filepath.Join(home, ".taxa", "am.toml")
	writeConfig(t, userConfig, "[server]\nport = 9000\n")

	cw, err := NewConfigWatcher(nil, userConfig)
	require.NoError(t, err)
	defer cw.Stop()
	cw.SetDebounce(20 * time.Millisecond)
	SetGlobalWatcher(cw)
	defer SetGlobalWatcher(nil)

	reloaded := make(chan struct{}, 4)
	cw.OnReload(func(*Config) error {
		reloaded <- struct{}{}
		return nil
	})
	cw.Start()

	require.NoError(t, SetTaxonomyURL("file:///data/dump.tar.gz"))

	select {
	case <-reloaded:
		t.Fatal("own write triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchCascade_PicksUpNewUserConfig(t *testing.T) {
	home, project := isolate(t)
	writeConfig(t, filepath.Join(project, "am.toml"), "[server]\nburst = 7\n")
	userConfig := filepath.Join(home, ".taxa", "am.toml")

	cw, err := WatchCascade(zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer cw.Stop()
	assert.Contains(t, cw.paths, userConfig)
	assert.Contains(t, cw.paths, filepath.Join(project, "am.toml"))
	cw.SetDebounce(20 * time.Millisecond)

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(c *Config) error {
		reloaded <- c
		return nil
	})
	cw.Start()

	writeConfig(t, userConfig, "[taxonomy]\nurl = \"file:///data/new_taxdump.tar.gz\"\n")

	select {
	case c := <-reloaded:
		assert.Equal(t, "file:///data/new_taxdump.tar.gz", c.Taxonomy.URL)
		assert.Equal(t, 7, c.Server.Burst)
	case <-time.After(5 * time.Second):
		t.Fatal("new user config was not picked up")
	}
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/home/u/.taxa/am.toml.back1"))
	assert.True(t, isBackupFile("am.toml.back3"))
	assert.False(t, isBackupFile("am.toml"))
	assert.False(t, isBackupFile("backup.toml"))
}

func TestNewConfigWatcher_NoPaths(t *testing.T) {
	_, err := NewConfigWatcher(nil)
	assert.Error(t, err)
}
