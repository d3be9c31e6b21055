package taxonomy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/teranos/taxa/errors"
)

// Operation labels for query metrics.
const (
	opRecord         = "record"
	opParent         = "parent"
	opAncestry       = "ancestry"
	opCommonAncestor = "common_ancestor"
	opIsAncestor     = "is_ancestor"
	opIsClade        = "is_clade"
	opRank           = "rank"
	opStatus         = "status"
)

// Metrics holds the engine's prometheus collectors. Create one per
// registry and share it between engines; collectors can only be
// registered once, and engines are rebuilt on reload.
type Metrics struct {
	queries   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	pathDepth prometheus.Histogram
	pathCache *prometheus.CounterVec
}

// NewMetrics registers the engine collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: operation, result ("success", "unknown_taxid", "unknown_clade", "no_rank", "other")
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxa_engine_queries_total",
			Help: "Taxonomy engine queries by operation and result",
		}, []string{"operation", "result"}),

		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxa_engine_query_duration_seconds",
			Help:    "Taxonomy engine query duration",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01},
		}, []string{"operation"}),

		pathDepth: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxa_engine_path_depth",
			Help:    "Length of computed ancestry paths",
			Buckets: []float64{5, 10, 20, 30, 40, 60},
		}),

		pathCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxa_engine_path_cache_total",
			Help: "Ancestry path cache lookups by result",
		}, []string{"result"}),
	}
}

// observe records one query. Safe on a nil receiver.
func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.queries.WithLabelValues(op, classifyError(err)).Inc()
}

func (m *Metrics) observePath(depth int) {
	if m == nil {
		return
	}
	m.pathDepth.Observe(float64(depth))
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.pathCache.WithLabelValues("hit").Inc()
		return
	}
	m.pathCache.WithLabelValues("miss").Inc()
}

// classifyError maps an engine error onto the result label.
func classifyError(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnknownTaxid):
		return "unknown_taxid"
	case errors.Is(err, ErrUnknownClade):
		return "unknown_clade"
	case errors.Is(err, ErrNoRankInLineage):
		return "no_rank"
	default:
		return "other"
	}
}
