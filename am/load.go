package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/taxa/errors"
)

// SystemConfigPath is the lowest-precedence config file
const SystemConfigPath = "/etc/taxa/am.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records which file set each key during the last load
	ConfigSources = map[string]SourceInfo{}
)

// Load reads the taxa configuration using Viper. The result is cached until Reset.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() (*viper.Viper, error) {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, over the defaults only
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper builds the Viper instance once. Callers hold mu.
func initViper() (*viper.Viper, error) {
	if viperInstance != nil {
		return viperInstance, nil
	}

	v := viper.New()

	v.SetEnvPrefix("TAXA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	if err := mergeConfigFiles(v); err != nil {
		return nil, err
	}

	viperInstance = v
	return v, nil
}

// findProjectConfig walks up from the working directory looking for am.toml.
// The user config directory is skipped so ~/.taxa/am.toml is not counted twice.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	userDir := TaxaDir()

	for {
		path := filepath.Join(dir, ConfigFileName)
		if dir != userDir {
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// configCascade lists the config files in precedence order, lowest first
func configCascade() []SourceFile {
	files := []SourceFile{{Source: SourceSystem, Path: SystemConfigPath}}
	if dir := TaxaDir(); dir != "" {
		files = append(files, SourceFile{Source: SourceUser, Path: filepath.Join(dir, ConfigFileName)})
	}
	if project := findProjectConfig(); project != "" {
		files = append(files, SourceFile{Source: SourceProject, Path: project})
	}
	for i := range files {
		if _, err := os.Stat(files[i].Path); err == nil {
			files[i].Exists = true
		}
	}
	return files
}

// mergeConfigFiles merges the cascade into v. Precedence (lowest to highest):
// defaults < system < user < project < env vars
func mergeConfigFiles(v *viper.Viper) error {
	if dir := TaxaDir(); dir != "" {
		os.MkdirAll(dir, DefaultDirPermissions)
	}

	for _, file := range configCascade() {
		if !file.Exists {
			continue
		}
		tempViper := viper.New()
		tempViper.SetConfigFile(file.Path)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "failed to read %s config %s", file.Source, file.Path),
				"fix the TOML syntax or remove the file",
			)
		}
		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			return errors.Wrapf(err, "failed to merge %s", file.Path)
		}
		for _, key := range tempViper.AllKeys() {
			ConfigSources[key] = SourceInfo{Source: file.Source, Path: file.Path}
		}
	}
	return nil
}

// Get returns a configuration value using dot notation
func Get(key string) (interface{}, error) {
	v, err := GetViper()
	if err != nil {
		return nil, err
	}
	if !v.IsSet(key) {
		return nil, errors.WithHint(
			errors.NewNotFoundError("unknown config key %q", key),
			"list the available keys with 'taxa am show'",
		)
	}
	return v.Get(key), nil
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	v, err := GetViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	v, err := GetViper()
	if err != nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDatabasePath returns the configured database path with "~/" expanded
func GetDatabasePath() (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}
	return config.DatabasePath(), nil
}
