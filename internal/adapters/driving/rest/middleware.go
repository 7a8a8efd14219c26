package rest

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// apiKeyHeader carries the shared-secret key when one is configured.
const apiKeyHeader = "X-API-Key"

// requestLogger logs one line per request with method, path, status,
// and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log := logger.Get()
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// recoverer converts handler panics into 500 responses.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log := logger.Get()
				log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("handler panic")
				respondErrorMessage(w, http.StatusInternalServerError, "internal error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// apiKeyGate rejects requests without the shared secret. An empty key
// disables the gate.
func apiKeyGate(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" {
				presented := r.Header.Get(apiKeyHeader)
				if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
					respondErrorMessage(w, http.StatusUnauthorized, "invalid api key", "")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authGate rejects requests when no valid Google session exists. The
// provider refreshes an expired token once before giving up.
func authGate(provider driven.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := provider.GetToken(r.Context()); err != nil {
				respondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// metrics holds the gateway's prometheus collectors on a private
// registry so tests can build servers independently.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gsuite_gateway_requests_total",
			Help: "Requests handled by the gateway, by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gsuite_gateway_request_duration_seconds",
			Help:    "Request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(m.requests, m.latency)
	return m
}

// middleware records request count and latency. The route label is the
// chi pattern, so path parameters do not explode cardinality.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
