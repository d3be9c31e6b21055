// Package server exposes the taxonomy engine over read-only JSON endpoints.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/db"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

// ShutdownTimeout bounds how long Stop waits for in-flight requests
const ShutdownTimeout = 10 * time.Second

// ServerState tracks the server lifecycle
type ServerState int32

const (
	ServerStateRunning ServerState = iota
	ServerStateDraining
	ServerStateStopped
)

// TaxaServer serves engine queries. The engine is swapped atomically on
// reload, so in-flight requests finish against the snapshot they started on.
type TaxaServer struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry
	metrics  *taxonomy.Metrics
	http     *httpMetrics
	limiter  *rate.Limiter // nil when rate limiting is off

	engine atomic.Pointer[taxonomy.Engine]
	meta   atomic.Pointer[db.Metadata]
	dbPath atomic.Value // string

	reloadMu      sync.Mutex // serialises engine rebuilds
	configWatcher *am.ConfigWatcher
	httpServer    *http.Server
	state         atomic.Int32
	startedAt     time.Time
}

// Option configures a TaxaServer
type Option func(*TaxaServer)

// WithLogger sets the server logger. Without one the server is silent.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *TaxaServer) {
		s.logger = logger
	}
}

// WithEngine serves e instead of reading the cache at startup
func WithEngine(e *taxonomy.Engine) Option {
	return func(s *TaxaServer) {
		s.engine.Store(e)
	}
}

// WithConfigWatcher reloads the engine and rate limits on config changes
func WithConfigWatcher(cw *am.ConfigWatcher) Option {
	return func(s *TaxaServer) {
		s.configWatcher = cw
	}
}

// New builds a server from cfg. When no engine is supplied the cache at
// cfg.DatabasePath() is loaded; a missing or empty cache is not fatal and
// queries answer 503 until a reload finds one.
func New(ctx context.Context, cfg *am.Config, opts ...Option) (*TaxaServer, error) {
	if cfg == nil {
		return nil, errors.AssertionFailedf("nil config")
	}

	s := &TaxaServer{
		logger:    zap.NewNop().Sugar(),
		registry:  prometheus.NewRegistry(),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = taxonomy.NewMetrics(s.registry)
	s.http = newHTTPMetrics(s.registry)
	s.limiter = newLimiter(cfg.Server)
	s.dbPath.Store(cfg.DatabasePath())

	if s.engine.Load() == nil {
		if err := s.Reload(ctx, cfg); err != nil {
			if !errors.IsServiceUnavailableError(err) {
				return nil, err
			}
			s.logger.Warnw("Taxonomy cache not available; queries will return 503 until it is built",
				"path", cfg.DatabasePath(),
				"error", err,
				"hint", errors.FlattenHints(err),
			)
		}
	}

	if s.configWatcher != nil {
		s.configWatcher.OnReload(func(newCfg *am.Config) error {
			s.applyLimits(newCfg.Server)
			return s.Reload(context.Background(), newCfg)
		})
	}

	s.state.Store(int32(ServerStateRunning))
	return s, nil
}

// Reload rebuilds the engine from the cache named by cfg and swaps it in.
// On failure the current engine keeps serving.
func (s *TaxaServer) Reload(ctx context.Context, cfg *am.Config) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	path := cfg.DatabasePath()
	e, meta, err := db.LoadEngine(ctx, path, s.logger.Named("db"),
		taxonomy.WithClades(cfg.Taxonomy.CladeTable()),
		taxonomy.WithPathCache(cfg.Engine.PathCacheSize),
		taxonomy.WithMetrics(s.metrics),
	)
	if err != nil {
		return errors.Wrap(err, "reload taxonomy engine")
	}

	s.engine.Store(e)
	s.meta.Store(&meta)
	s.dbPath.Store(path)
	s.logger.Infow("Taxonomy engine swapped in",
		"path", path,
		"source", meta.SourceURL,
		"records", e.Store().Len(),
	)
	return nil
}

// Engine returns the engine currently serving queries, or nil
func (s *TaxaServer) Engine() *taxonomy.Engine {
	return s.engine.Load()
}

// Registry returns the prometheus registry behind /metrics
func (s *TaxaServer) Registry() *prometheus.Registry {
	return s.registry
}

func (s *TaxaServer) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *TaxaServer) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
