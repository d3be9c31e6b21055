package commands

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/db"
	"github.com/teranos/taxa/display"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/internal/httpclient"
	"github.com/teranos/taxa/logger"
	"github.com/teranos/taxa/sym"
	"github.com/teranos/taxa/taxdump"
	"github.com/teranos/taxa/taxonomy"
)

// listTimeout bounds each index page request of 'taxonomy get'
const listTimeout = 30 * time.Second

func newTaxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: sym.IX + " List NCBI dump archives and build the cache",
		Long: sym.IX + ` taxonomy - List NCBI dump archives and build the cache

The cache is a SQLite snapshot of one NCBI taxonomy dump. Queries never touch
the network; rebuild the cache to move to a newer dump.

Examples:
  taxa taxonomy get                        # {"latest":[...],"archive":[...]}
  taxa taxonomy set                        # Build from taxonomy.url
  taxa taxonomy set https://.../taxdmp_2024-01-01.zip
  taxa taxonomy build ./new_taxdump        # Build from an unpacked dump`,
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "List downloadable taxonomy dumps",
		Args:  cobra.NoArgs,
		RunE:  runTaxonomyGet,
	}
	getCmd.Flags().Bool("allow-private", false, "Allow index pages on loopback or private addresses")

	setCmd := &cobra.Command{
		Use:   "set [url]",
		Short: "Download a dump, build the cache from it and remember its URL",
		Long: `Download a dump archive, build the snapshot cache from it and persist the URL
as taxonomy.url in ~/.taxa/am.toml. Without an argument the configured
taxonomy.url is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTaxonomySet,
	}

	buildCmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Build the cache from an unpacked dump directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaxonomyBuild,
	}

	cmd.AddCommand(getCmd, setCmd, buildCmd)
	return cmd
}

func runTaxonomyGet(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	allowPrivate, _ := cmd.Flags().GetBool("allow-private")
	client := httpclient.New(listTimeout, httpclient.WithPrivateNetworks(allowPrivate))
	logger.FetchInfow("Listing taxonomy dumps",
		"latest_index", cfg.Taxonomy.LatestIndex,
		"archive_index", cfg.Taxonomy.ArchiveIndex,
	)

	archives, err := taxdump.ListArchives(cmd.Context(), client, cfg.Taxonomy.LatestIndex, cfg.Taxonomy.ArchiveIndex)
	if err != nil {
		return err
	}
	return display.OutputJSON(archives)
}

func runTaxonomySet(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	src := cfg.Taxonomy.URL
	if len(args) == 1 {
		src = args[0]
	}
	if src == "" {
		return errors.WithHint(
			errors.NewInvalidRequestError("no taxonomy url given"),
			"pass a url or set taxonomy.url; 'taxa taxonomy get' lists the available dumps",
		)
	}

	ctx := cmd.Context()
	if secs := cfg.Taxonomy.DownloadTimeoutSeconds; secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	tmp, err := os.MkdirTemp("", "taxa-dump-")
	if err != nil {
		return errors.Wrap(err, "create download directory")
	}
	defer os.RemoveAll(tmp)

	log := logger.AddIXSymbol(logger.ComponentLogger("taxdump"))
	dir, err := taxdump.Fetch(ctx, src, tmp, log, taxdump.WithProgress(newDownloadProgress()))
	if err != nil {
		return err
	}
	snap, err := taxdump.Load(ctx, dir, log)
	if err != nil {
		return err
	}

	path := databasePath(cmd, cfg)
	if err := writeCache(ctx, path, snap, src, cfg.Taxonomy.CladeTable()); err != nil {
		return err
	}
	if err := am.SetTaxonomyURL(src); err != nil {
		return errors.Wrap(err, "cache built but taxonomy.url could not be saved")
	}
	logger.ConfigInfow("Saved taxonomy.url", "url", src, "path", am.UserConfigPath())
	pterm.Success.Printfln("Built %s from %s (%d taxa)", path, src, len(snap.Records))
	return nil
}

func runTaxonomyBuild(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Wrapf(err, "resolve %s", args[0])
	}

	snap, err := taxdump.Load(cmd.Context(), dir, logger.AddIXSymbol(logger.ComponentLogger("taxdump")))
	if err != nil {
		return err
	}
	path := databasePath(cmd, cfg)
	src := "file://" + filepath.ToSlash(dir)
	if err := writeCache(cmd.Context(), path, snap, src, cfg.Taxonomy.CladeTable()); err != nil {
		return err
	}
	pterm.Success.Printfln("Built %s from %s (%d taxa)", path, dir, len(snap.Records))
	return nil
}

// writeCache replaces the snapshot at path, creating its directory.
// The snapshot must build an engine before the cache is touched.
func writeCache(ctx context.Context, path string, snap taxonomy.Snapshot, src string, clades taxonomy.CladeTable) error {
	if _, err := taxonomy.New(snap, taxonomy.WithClades(clades)); err != nil {
		return errors.WithHintf(errors.Wrapf(err, "dump from %s is not a valid taxonomy", src),
			"the previous cache at %s is left untouched", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	conn, err := db.OpenWithMigrations(path, logger.AddDBSymbol(logger.ComponentLogger("db")))
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.WriteSnapshot(ctx, conn, snap, db.NewMetadata(src)); err != nil {
		return errors.WithHintf(errors.Wrap(err, "write snapshot"),
			"the previous cache at %s is left untouched", path)
	}
	logger.DBInfow("Snapshot cache written",
		"path", path,
		"source", src,
		"records", len(snap.Records),
		"merged", len(snap.Merged),
		"deleted", len(snap.Deleted),
	)
	return nil
}
