// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts handled HTTP requests by method and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbond_http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"method", "status"})

	// RequestDuration observes request latency by method.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heartbond_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// FeedSubscribers tracks open change-feed subscriptions.
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "heartbond_feed_subscribers",
		Help: "Open change feed subscriptions.",
	})

	// FeedEventsPublished counts events published to the feed hub by table.
	FeedEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartbond_feed_events_published_total",
		Help: "Change feed events published.",
	}, []string{"table"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
