// Package metrics exposes Prometheus counters for the dispatch loop.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	Fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_notifier_fetches_total",
		Help: "Feed downloads by result",
	}, []string{"result"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_notifier_notifications_total",
		Help: "Notifications sent by result",
	}, []string{"result"})

	SeenSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_notifier_seen_saves_total",
		Help: "Seen-set writes by result",
	}, []string{"result"})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_notifier_cycle_duration_seconds",
		Help:    "Duration of one feed cycle, delays included",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Handler serves /metrics and /healthz.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
