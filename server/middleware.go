package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/logger"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	limited  prometheus.Counter
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	f := promauto.With(reg)
	return &httpMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "taxa_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxa_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		limited: f.NewCounter(prometheus.CounterOpts{
			Name: "taxa_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// statusRecorder captures the response code for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rr *statusRecorder) WriteHeader(code int) {
	if !rr.wroteHeader {
		rr.statusCode = code
		rr.wroteHeader = true
	}
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *statusRecorder) Write(b []byte) (int, error) {
	if !rr.wroteHeader {
		rr.WriteHeader(http.StatusOK)
	}
	return rr.ResponseWriter.Write(b)
}

func (rr *statusRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}

// newLimiter returns nil when requests_per_second is zero
func newLimiter(cfg am.ServerConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

// applyLimits updates the limiter in place. Turning limiting on or off
// needs a restart.
func (s *TaxaServer) applyLimits(cfg am.ServerConfig) {
	if s.limiter == nil || cfg.RequestsPerSecond <= 0 {
		return
	}
	s.limiter.SetLimit(rate.Limit(cfg.RequestsPerSecond))
	s.limiter.SetBurst(cfg.Burst)
}

// requestIDMiddleware reuses the caller's X-Request-ID when it is a UUID
// and mints one otherwise
func (s *TaxaServer) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
			requestID = id.String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := logger.WithComponent(logger.WithRequestID(r.Context(), requestID), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware answers 429 once the token bucket is empty.
// /health and /metrics are never limited.
func (s *TaxaServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && r.URL.Path != "/health" && r.URL.Path != "/metrics" && !s.limiter.Allow() {
			s.http.limited.Inc()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware logs and counts every request by its route pattern
func (s *TaxaServer) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.http.requests.WithLabelValues(route, strconv.Itoa(rec.statusCode)).Inc()
		s.http.duration.WithLabelValues(route).Observe(elapsed.Seconds())

		log := logger.LoggerFromContext(r.Context(), s.logger)
		fields := []interface{}{
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, rec.statusCode,
			logger.FieldDurationMS, elapsed.Milliseconds(),
		}
		if rec.statusCode >= http.StatusInternalServerError {
			log.Warnw("Request failed", fields...)
			return
		}
		log.Debugw("Request served", fields...)
	})
}
