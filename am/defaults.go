package am

import (
	"github.com/spf13/viper"

	"github.com/teranos/taxa/taxonomy"
)

// Default NCBI locations
const (
	DefaultTaxonomyURL  = "https://ftp.ncbi.nih.gov/pub/taxonomy/new_taxdump/new_taxdump.tar.gz"
	DefaultLatestIndex  = "https://ftp.ncbi.nih.gov/pub/taxonomy/new_taxdump/"
	DefaultArchiveIndex = "https://ftp.ncbi.nih.gov/pub/taxonomy/taxdump_archive/"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.taxa/taxa.db")

	v.SetDefault("taxonomy.url", DefaultTaxonomyURL)
	v.SetDefault("taxonomy.latest_index", DefaultLatestIndex)
	v.SetDefault("taxonomy.archive_index", DefaultArchiveIndex)
	v.SetDefault("taxonomy.download_timeout_seconds", 1800) // full dump is ~70MB
	clades := make(map[string]interface{})
	for name, anchor := range taxonomy.DefaultClades() {
		clades[name] = int64(anchor)
	}
	v.SetDefault("taxonomy.clades", clades)

	v.SetDefault("engine.path_cache_size", 4096)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.requests_per_second", 50)
	v.SetDefault("server.burst", 100)

	v.SetDefault("log.theme", "everforest")
	v.SetDefault("log.json", false)
}

// BindEnvVars binds settings that have an environment name outside the TAXA_ key scheme
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "TAXA_DB_PATH", "TAXA_DATABASE_PATH")
}
