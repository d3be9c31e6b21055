package am

import (
	"net/url"

	"github.com/teranos/taxa/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	for _, field := range []struct{ key, value string }{
		{"taxonomy.url", c.Taxonomy.URL},
		{"taxonomy.latest_index", c.Taxonomy.LatestIndex},
		{"taxonomy.archive_index", c.Taxonomy.ArchiveIndex},
	} {
		if field.value == "" {
			return errors.Newf("%s cannot be empty", field.key)
		}
		if _, err := url.Parse(field.value); err != nil {
			return errors.Wrapf(err, "%s is not a URL", field.key)
		}
	}
	if c.Taxonomy.DownloadTimeoutSeconds <= 0 {
		return errors.Newf("taxonomy.download_timeout_seconds must be > 0, got %d", c.Taxonomy.DownloadTimeoutSeconds)
	}
	for name, anchor := range c.Taxonomy.Clades {
		if anchor <= 0 {
			return errors.Newf("taxonomy.clades.%s must be a positive taxid, got %d", name, anchor)
		}
	}

	// Path cache: 0 = disabled, negative = invalid
	if c.Engine.PathCacheSize < 0 {
		return errors.Newf("engine.path_cache_size must be >= 0, got %d", c.Engine.PathCacheSize)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	// Rate limit: 0 = unlimited, negative = invalid
	if c.Server.RequestsPerSecond < 0 {
		return errors.Newf("server.requests_per_second must be >= 0, got %g", c.Server.RequestsPerSecond)
	}
	if c.Server.RequestsPerSecond > 0 && c.Server.Burst < 1 {
		return errors.Newf("server.burst must be >= 1 when rate limiting, got %d", c.Server.Burst)
	}

	switch c.Log.Theme {
	case "gruvbox", "everforest":
	default:
		return errors.Newf("log.theme must be gruvbox or everforest, got %q", c.Log.Theme)
	}

	return nil
}
