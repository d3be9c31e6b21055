package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/taxa/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/taxa/am.toml
	SourceUser        ConfigSource = "user"        // ~/.taxa/am.toml
	SourceProject     ConfigSource = "project"     // project am.toml
	SourceEnvironment ConfigSource = "environment" // TAXA_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path or environment variable name
}

// SourceFile is one level of the config cascade
type SourceFile struct {
	Source ConfigSource `json:"source" yaml:"source"`
	Path   string       `json:"path" yaml:"path"`
	Exists bool         `json:"exists" yaml:"exists"`
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Sources lists the config cascade, lowest precedence first
func Sources() []SourceFile {
	return configCascade()
}

// Settings returns every effective setting with the source that set it
func Settings() ([]SettingInfo, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v, err := GetViper()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	sources := make(map[string]SourceInfo, len(ConfigSources))
	for k, s := range ConfigSources {
		sources[k] = s
	}
	mu.Unlock()

	keys := v.AllKeys()
	sort.Strings(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sources[key]; ok {
			info = si
		}
		if env, ok := envOverride(key); ok {
			info = SourceInfo{Source: SourceEnvironment, Path: env}
		}
		settings = append(settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return settings, nil
}

// envOverride reports the environment variable, if any, overriding key
func envOverride(key string) (string, bool) {
	candidates := []string{"TAXA_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	if key == "database.path" {
		candidates = append([]string{"TAXA_DB_PATH"}, candidates...)
	}
	for _, env := range candidates {
		if os.Getenv(env) != "" {
			return env, true
		}
	}
	return "", false
}
