package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/db"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/logger"
	"github.com/teranos/taxa/taxonomy"
)

// databasePath resolves the cache path: --db, then configuration
func databasePath(cmd *cobra.Command, cfg *am.Config) string {
	if path, _ := cmd.Flags().GetString(flagDB); path != "" {
		return path
	}
	return cfg.DatabasePath()
}

// loadEngine builds the query engine from the snapshot cache
func loadEngine(cmd *cobra.Command) (*taxonomy.Engine, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	path := databasePath(cmd, cfg)
	e, _, err := db.LoadEngine(cmd.Context(), path, logger.AddDBSymbol(logger.ComponentLogger("db")),
		taxonomy.WithClades(cfg.Taxonomy.CladeTable()),
		taxonomy.WithPathCache(cfg.Engine.PathCacheSize),
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// queryIDs parses taxid arguments and, with --follow-merged, resolves merged
// ids to their replacement
func queryIDs(cmd *cobra.Command, e *taxonomy.Engine, args ...string) ([]taxonomy.Taxid, error) {
	ids, err := taxonomy.ParseTaxids(args)
	if err != nil {
		return nil, err
	}
	follow, _ := cmd.Flags().GetBool(flagFollowMerged)
	if !follow {
		return ids, nil
	}
	for i, id := range ids {
		current, err := e.Current(id)
		if err != nil {
			return nil, err
		}
		if current != id {
			logger.AddAxSymbol(logger.ComponentLogger("ax")).Infow("Following merged taxid",
				"taxid", id,
				"merged", current,
			)
		}
		ids[i] = current
	}
	return ids, nil
}

// queryID is queryIDs for a single argument
func queryID(cmd *cobra.Command, e *taxonomy.Engine, arg string) (taxonomy.Taxid, error) {
	ids, err := queryIDs(cmd, e, arg)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// exactlyOne returns the single selector flag that was set among names
func exactlyOne(cmd *cobra.Command, names ...string) (string, error) {
	var chosen string
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			if chosen != "" {
				return "", errors.NewInvalidRequestError("--%s and --%s cannot be combined", chosen, name)
			}
			chosen = name
		}
	}
	if chosen == "" {
		return "", errors.WithHintf(
			errors.NewInvalidRequestError("no query selected"),
			"run 'taxa %s -h' for the available flags", cmd.Name(),
		)
	}
	return chosen, nil
}

// argCount checks the positional taxids a pair/list selector needs
func argCount(flag string, args []string, want int) error {
	if want > 0 && len(args) != want {
		return errors.NewInvalidRequestError("--%s takes %d taxids, got %d", flag, want, len(args))
	}
	if want == 0 && len(args) == 0 {
		return errors.NewInvalidRequestError("--%s takes at least one taxid", flag)
	}
	return nil
}
