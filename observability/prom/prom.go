// Package prom exports dispatcher metrics to Prometheus.
package prom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/broady/humble"
)

// NewRegistry returns a fresh Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Handler returns a Prometheus HTTP handler bound to the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Observer counts dispatched requests and their latency.
// It implements humble.Observer.
type Observer struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var _ humble.Observer = (*Observer)(nil)

// NewObserver registers request metrics on the registry.
func NewObserver(reg *prometheus.Registry) *Observer {
	o := &Observer{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "humble_requests_total",
			Help: "Requests dispatched by service, route and result code.",
		}, []string{"service", "route", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "humble_request_duration_seconds",
			Help:    "Time spent dispatching a request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "route"}),
	}
	reg.MustRegister(o.requests, o.latency)
	return o
}

func (o *Observer) Request(service, route, result string, d time.Duration) {
	o.requests.WithLabelValues(service, route, result).Inc()
	o.latency.WithLabelValues(service, route).Observe(d.Seconds())
}
