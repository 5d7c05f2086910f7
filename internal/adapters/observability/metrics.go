package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"hotel_sync/internal/domain"
)

const namespace = "hotel_sync"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "partner_requests_total", Help: "Outbound partner requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "partner_request_duration_seconds",
			Help:    "Outbound partner request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/refreshes."},
		[]string{"cache", "event"}, // event: hit|miss|set|del|refresh|refresh_error
	)
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sync_runs_total", Help: "Sync runs by lifecycle event."},
		[]string{"event"}, // started|completed
	)
	SyncItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sync_items_total", Help: "Processed sync items."},
		[]string{"type", "status", "error"},
	)
	ActiveRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "sync_runs_active", Help: "Runs currently executing."},
	)
)

// Serve exposes reg on a standalone listener; an empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
		CacheEvents, SyncRuns, SyncItems, ActiveRuns)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExternal records a partner call; status 0 means no HTTP response.
func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveRun(event string) {
	SyncRuns.WithLabelValues(event).Inc()
	switch event {
	case "started":
		ActiveRuns.Inc()
	case "completed":
		ActiveRuns.Dec()
	}
}

func ObserveItem(r domain.ItemResult) {
	SyncItems.WithLabelValues(string(r.Type), string(r.Status()), LabelErr(r.Err)).Inc()
}

// LabelErr maps an error to a bounded label value.
func LabelErr(err error) string {
	return domain.ErrorKind(err)
}
