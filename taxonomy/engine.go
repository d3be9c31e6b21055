package taxonomy

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/teranos/taxa/errors"
)

// Engine answers ancestry, LCA, clade and status queries over one
// immutable snapshot. All methods are safe for concurrent use.
type Engine struct {
	store   *Store
	clades  CladeTable
	paths   *lru.Cache[Taxid, []Taxid] // nil when memoisation is off
	metrics *Metrics                   // nil when metrics are off
}

type engineOptions struct {
	clades        CladeTable
	pathCacheSize int
	metrics       *Metrics
	logger        *zap.SugaredLogger
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithClades replaces the default clade anchor table.
func WithClades(clades CladeTable) Option {
	return func(o *engineOptions) {
		o.clades = clades
	}
}

// WithPathCache memoises up to size ancestry paths. Zero disables it.
func WithPathCache(size int) Option {
	return func(o *engineOptions) {
		o.pathCacheSize = size
	}
}

// WithMetrics records query counts and timings into m.
func WithMetrics(m *Metrics) Option {
	return func(o *engineOptions) {
		o.metrics = m
	}
}

// WithLogger logs construction summaries and configuration warnings.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// New validates snap and builds an engine over it. A snapshot that is not
// a single rooted tree fails with ErrInvariantViolation and yields no engine.
func New(snap Snapshot, opts ...Option) (*Engine, error) {
	start := time.Now()
	store, err := NewStore(snap)
	if err != nil {
		return nil, errors.Wrap(err, "build taxonomy store")
	}

	e, err := NewFromStore(store, opts...)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	if o.logger != nil {
		o.logger.Infow("Taxonomy engine ready",
			"records", store.Len(),
			"merged", store.MergedCount(),
			"deleted", store.DeletedCount(),
			"clades", len(e.clades),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return e, nil
}

// NewFromStore builds an engine over an already validated store.
func NewFromStore(store *Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.AssertionFailedf("nil store")
	}
	o := applyOptions(opts)

	clades, err := o.clades.normalize()
	if err != nil {
		return nil, err
	}
	if o.logger != nil {
		for _, name := range clades.Names() {
			if anchor := clades[name]; !store.Contains(anchor) {
				o.logger.Warnw("Clade anchor is not a current taxid; membership checks will be false",
					"clade", name,
					"taxid", anchor,
				)
			}
		}
	}

	e := &Engine{
		store:   store,
		clades:  clades,
		metrics: o.metrics,
	}
	if o.pathCacheSize > 0 {
		cache, err := lru.New[Taxid, []Taxid](o.pathCacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "create path cache")
		}
		e.paths = cache
	}
	return e, nil
}

func applyOptions(opts []Option) engineOptions {
	o := engineOptions{clades: DefaultClades()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store exposes the underlying record store.
func (e *Engine) Store() *Store { return e.store }

// Clades returns a copy of the configured clade table.
func (e *Engine) Clades() CladeTable {
	out := make(CladeTable, len(e.clades))
	for k, v := range e.clades {
		out[k] = v
	}
	return out
}

// Root returns the root taxid.
func (e *Engine) Root() Taxid { return e.store.Root() }

// Record returns the record of a current taxid.
func (e *Engine) Record(id Taxid) (rec Record, err error) {
	defer func(start time.Time) { e.metrics.observe(opRecord, start, err) }(time.Now())
	return e.store.Record(id)
}

// Parent returns the parent of a current taxid; the root returns itself.
func (e *Engine) Parent(id Taxid) (parent Taxid, err error) {
	defer func(start time.Time) { e.metrics.observe(opParent, start, err) }(time.Now())
	return e.store.Parent(id)
}

// ParentRecord returns the record of id's parent.
func (e *Engine) ParentRecord(id Taxid) (Record, error) {
	parent, err := e.Parent(id)
	if err != nil {
		return Record{}, err
	}
	return e.store.Record(parent)
}
