package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/logger"
	"github.com/teranos/taxa/server"
	"github.com/teranos/taxa/sym"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: sym.Serve + " Serve taxonomy queries over HTTP",
		Long: sym.Serve + ` serve - Serve taxonomy queries over HTTP

Loads the snapshot cache once and answers JSON queries under /api. Editing
am.toml reloads the cache and rate limits without a restart.

Endpoints:
  GET /api/record/{taxid}          GET /api/common/{a}/{b}
  GET /api/parent/{taxid}          GET /api/levels/{a}/{b}
  GET /api/lineage/{taxid}         GET /api/clade/{clade}/{taxid}
  GET /api/genus/{taxid}           GET /api/clades/{taxid}
  GET /api/species/{taxid}         GET /api/graph?taxid=562&taxid=623
  GET /api/superkingdom/{taxid}    GET /health
  GET /api/status/{taxid}          GET /metrics

Examples:
  taxa serve                       # Listen on server.port
  taxa serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().Int("port", 0, "Port to listen on (default server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	// --db applies to the initial load; config reloads use database.path
	local := *cfg
	local.Database.Path = databasePath(cmd, cfg)

	port := cfg.Server.Port
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}

	log := logger.AddServeSymbol(logger.ComponentLogger("server"))
	watcher, err := am.WatchCascade(logger.ComponentLogger("am"))
	if err != nil {
		log.Warnw("Config hot reload disabled", "error", err)
		watcher = nil
	} else {
		am.SetGlobalWatcher(watcher)
	}

	opts := []server.Option{server.WithLogger(log)}
	if watcher != nil {
		opts = append(opts, server.WithConfigWatcher(watcher))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv, err := server.New(ctx, &local, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}
	if srv.Engine() == nil {
		pterm.Warning.Println("No taxonomy cache yet; queries return 503 until 'taxa taxonomy set' builds one")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx, fmt.Sprintf(":%d", port))
	}()
	pterm.Info.Printfln("Serving on http://localhost:%d (Ctrl+C to stop)", port)
	if logger.ShouldOutput(logger.Verbosity, logger.OutputConfig) {
		logger.ServeInfow("Server configuration",
			"database", local.DatabasePath(),
			"requests_per_second", cfg.Server.RequestsPerSecond,
			"burst", cfg.Server.Burst,
			"path_cache_size", cfg.Engine.PathCacheSize,
		)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server stopped")
		}
		return nil
	case <-sigCh:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")
		cancel()

		select {
		case err := <-errCh:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigCh:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			logger.Cleanup()
			os.Exit(1)
			return nil
		}
	}
}
