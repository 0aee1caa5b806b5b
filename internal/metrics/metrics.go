// Package metrics exposes Providence's Prometheus collectors: connection
// count, messages published/delivered, and per-stage pipeline throughput.
// spec.md's non-goals cover authentication, encryption, NAT traversal,
// reliability, cross-LAN discovery, lossless delivery, and persistent
// identity — not observability, so metrics are carried as ordinary ambient
// infrastructure rather than treated as out of scope.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps every Prometheus collector Providence registers.
type Registry struct {
	ActiveConnections prometheus.Gauge
	MessagesPublished prometheus.Counter
	MessagesDelivered prometheus.Counter
	AcceptErrors      prometheus.Counter

	StageFPS     *prometheus.GaugeVec
	StageLatency *prometheus.HistogramVec
}

// NewRegistry creates and registers Providence's Prometheus collectors.
func NewRegistry() *Registry {
	return &Registry{
		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "providence_connections_active",
			Help: "Number of subscribers currently connected to the publisher",
		}),
		MessagesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "providence_messages_published_total",
			Help: "Total number of tracking messages published to the slot",
		}),
		MessagesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "providence_messages_delivered_total",
			Help: "Total number of tracking messages successfully written to a client",
		}),
		AcceptErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "providence_accept_errors_total",
			Help: "Total number of publisher accept-loop errors",
		}),
		StageFPS: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "providence_pipeline_stage_fps",
			Help: "Frames processed per second, by pipeline stage",
		}, []string{"stage"}),
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "providence_pipeline_stage_latency_seconds",
			Help:    "Per-iteration processing latency, by pipeline stage",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// Handler returns an HTTP handler exposing all registered collectors.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
