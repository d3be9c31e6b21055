// Package commands implements the taxa command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/logger"
)

// Persistent flag names shared by every subcommand
const (
	flagVerbose      = "verbose"
	flagJSONLog      = "json-log"
	flagDB           = "db"
	flagFollowMerged = "follow-merged"
)

// NewRootCmd builds the full taxa command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taxa",
		Short: "taxa - NCBI taxonomy index and query engine",
		Long: `taxa - NCBI taxonomy index and query engine.

taxa downloads an NCBI taxonomy dump once, caches it in SQLite, and answers
ancestry, common-ancestor, clade and status questions about taxids.

Available commands:
  taxid    - Return taxids (parent, genus, species, common ancestor, ...)
  record   - Return full taxon records
  check    - Levels between taxa, clade membership, status, lineage graphs
  taxonomy - List NCBI dump archives and build the cache from one
  am       - Show and validate configuration ("I am")
  db       - Snapshot cache statistics
  serve    - Serve queries over HTTP
  version  - Print version information

Examples:
  taxa taxonomy set                  # Build the cache from the latest dump
  taxa taxid --genus 562             # 561
  taxa record --common 9612 34199    # Eukaryota
  taxa check --is-virus 2560487      # true
  taxa check --graph 562 623         # Lineage tree of two taxa`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbosity, _ := cmd.Flags().GetCount(flagVerbose)
			jsonLog, _ := cmd.Flags().GetBool(flagJSONLog)
			if cfg, err := am.Load(); err == nil {
				logger.SetTheme(cfg.Log.Theme)
				jsonLog = jsonLog || cfg.Log.JSON
			}
			if err := logger.InitializeWithVerbosity(jsonLog, verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			logger.Debugw("Logger initialized",
				"level", logger.LevelName(verbosity),
				"shows", logger.VerbosityDescription(verbosity),
			)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.CountP(flagVerbose, "v", "Increase log verbosity (repeat for more detail: -v, -vv, -vvv)")
	flags.Bool(flagJSONLog, false, "Write logs as JSON to stderr")
	flags.String(flagDB, "", "Snapshot cache path (overrides database.path)")
	flags.Bool(flagFollowMerged, false, "Resolve merged taxids to their replacement before querying")

	root.AddCommand(
		newTaxidCmd(),
		newRecordCmd(),
		newCheckCmd(),
		newTaxonomyCmd(),
		newAmCmd(),
		newDbCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}
