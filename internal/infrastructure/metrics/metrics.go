// Package metrics exposes Prometheus metrics for catalog refreshes, matching and resolution.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timepiece"

// Metrics holds all Prometheus collectors for the service
type Metrics struct {
	registry *prometheus.Registry

	CatalogRefreshes *prometheus.CounterVec
	CatalogProducts  prometheus.Gauge
	CatalogFetchedAt prometheus.Gauge
	Matches          *prometheus.CounterVec
	Resolutions      *prometheus.CounterVec
}

// New creates a dedicated registry and registers every collector on it
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CatalogRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "refreshes_total",
				Help:      "Catalog extractions by outcome (website, stale, fallback)",
			},
			[]string{"outcome"},
		),
		CatalogProducts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "products",
			Help:      "Number of products in the installed snapshot",
		}),
		CatalogFetchedAt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "fetched_at_seconds",
			Help:      "Unix time the installed snapshot was created",
		}),
		Matches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matcher",
				Name:      "matches_total",
				Help:      "Match attempts by winning tier (exact, brand, search, none)",
			},
			[]string{"tier"},
		),
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "resolutions_total",
				Help:      "Image resolutions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records an installed snapshot
func (m *Metrics) ObserveRefresh(outcome string, products int, fetchedAtUnix float64) {
	if m == nil {
		return
	}
	m.CatalogRefreshes.WithLabelValues(outcome).Inc()
	m.CatalogProducts.Set(float64(products))
	m.CatalogFetchedAt.Set(fetchedAtUnix)
}

// ObserveMatch records the tier that resolved a query, or "none"
func (m *Metrics) ObserveMatch(tier string) {
	if m == nil {
		return
	}
	m.Matches.WithLabelValues(tier).Inc()
}

// ObserveResolution records the outcome of an image resolution
func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}
