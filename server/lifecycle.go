package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/sym"
)

// Start listens on addr and serves until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *TaxaServer) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WithHintf(errors.Wrapf(err, "listen on %s", addr),
			"pick another port with TAXA_SERVER_PORT or server.port in am.toml")
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *TaxaServer) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if s.configWatcher != nil {
		s.configWatcher.Start()
	}

	s.logger.Infow(fmt.Sprintf("%s HTTP server listening on %s", sym.Serve, ln.Addr()),
		"address", ln.Addr().String(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop drains in-flight requests and stops the config watcher
func (s *TaxaServer) Stop() error {
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	var shutdownErr error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warnw("HTTP shutdown timed out, forcing exit",
				"timeout", ShutdownTimeout,
				"error", err,
			)
			shutdownErr = errors.Wrap(err, "shutdown http server")
		}
	}

	if s.configWatcher != nil {
		if err := s.configWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop config watcher", "error", err)
		} else {
			s.logger.Infow("Config watcher stopped")
		}
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete")
	return shutdownErr
}
