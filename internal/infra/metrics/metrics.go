// Package metrics exposes the prometheus collectors of the storefront core.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	PermissionCache  *prometheus.CounterVec
	Orders           *prometheus.CounterVec
	SideEffectErrors *prometheus.CounterVec
	Subscriptions    *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates and registers the collectors on a dedicated registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		PermissionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "permission_cache",
			Name:      "events_total",
			Help:      "Permission cache hits, misses and invalidations.",
		}, []string{"event"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "processed_total",
			Help:      "processOrder outcomes by result.",
		}, []string{"result"}),
		SideEffectErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "side_effects",
			Name:      "failures_total",
			Help:      "Best-effort side effects that failed and were swallowed.",
		}, []string{"effect"}),
		Subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "live_subscriptions",
			Help:      "Live server-push subscriptions by manager.",
		}, []string{"manager"}),
		registry: reg,
	}
	reg.MustRegister(m.PermissionCache, m.Orders, m.SideEffectErrors, m.Subscriptions)
	return m
}

func (m *Metrics) CacheEvent(event string) {
	if m == nil {
		return
	}
	m.PermissionCache.WithLabelValues(event).Inc()
}

func (m *Metrics) OrderResult(result string) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(result).Inc()
}

func (m *Metrics) SideEffectFailed(effect string) {
	if m == nil {
		return
	}
	m.SideEffectErrors.WithLabelValues(effect).Inc()
}

func (m *Metrics) SetSubscriptions(manager string, n int) {
	if m == nil {
		return
	}
	m.Subscriptions.WithLabelValues(manager).Set(float64(n))
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
