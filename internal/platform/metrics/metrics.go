// Package metrics expone los collectors Prometheus del servicio.
//
// Labels acotados: el path es el patrón de ruta de chi (no la URL cruda) y
// las feeds se etiquetan por colección, nunca por usuario.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// FeedFailovers cuenta suscripciones ordenadas reemplazadas por la fallback.
	FeedFailovers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_feed_failovers_total",
			Help: "Primary (ordered) subscriptions replaced by an unordered fallback.",
		},
		[]string{"collection"},
	)

	// FeedFailures cuenta feeds donde también falló la fallback.
	FeedFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_feed_failures_total",
			Help: "Feeds that failed to load after the fallback subscription also failed.",
		},
		[]string{"collection"},
	)

	NotificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Best-effort system notifications dropped after exhausting retries.",
		},
	)

	MetadataCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_cache_lookups_total",
			Help: "Breed/type metadata cache lookups by result (hit, miss, fallback).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, FeedFailovers, FeedFailures, NotificationFailures, MetadataCache)
}

// HTTP instrumenta requests. Va después del router de chi para poder leer
// el patrón de ruta resuelto.
func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpReqs.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpLat.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
