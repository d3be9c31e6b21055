package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/logger"
)

const backupCount = 3

// createBackup rotates .back1 .. .back3 before the config is modified
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	oldest := backupName(configPath, backupCount)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", "path", oldest, "error", err)
	}

	for i := backupCount - 1; i >= 1; i-- {
		from := backupName(configPath, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupName(configPath, i+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", filepath.Base(from))
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupName(configPath, 1), content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupName(configPath string, n int) string {
	return configPath + ".back" + string(rune('0'+n))
}

// UserConfigPath returns ~/.taxa/am.toml
func UserConfigPath() string {
	dir := TaxaDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFileName)
}

// loadOrInitializeUserConfig reads the user config as a raw map, or an empty map if absent
func loadOrInitializeUserConfig() (map[string]interface{}, string, error) {
	configPath := UserConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .taxa directory")
	}

	config := make(map[string]interface{})
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrapf(err, "failed to parse %s", configPath)
		}
	case !os.IsNotExist(err):
		return nil, "", errors.Wrapf(err, "failed to read %s", configPath)
	}
	return config, configPath, nil
}

// saveUserConfig writes config with backup
func saveUserConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Our own write must not trigger a reload
	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write user config")
	}
	return nil
}

// setUserValue sets section.key in the user config, keeping every other entry
func setUserValue(section, key string, value interface{}) error {
	config, configPath, err := loadOrInitializeUserConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load user config")
	}

	table, ok := config[section].(map[string]interface{})
	if !ok {
		table = make(map[string]interface{})
	}
	table[key] = value
	config[section] = table

	if err := saveUserConfig(config, configPath); err != nil {
		return err
	}
	Reset()
	return nil
}

// SetTaxonomyURL persists taxonomy.url in ~/.taxa/am.toml
func SetTaxonomyURL(url string) error {
	if url == "" {
		return errors.NewInvalidRequestError("taxonomy url cannot be empty")
	}
	return setUserValue("taxonomy", "url", url)
}
