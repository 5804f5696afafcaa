// Package metrics defines the Prometheus collectors recorded during an enrichment run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "linkenricher"

// Outcome labels for LookupsTotal.
const (
	OutcomeFound = "found"
	OutcomeMiss  = "miss"
)

// Error kinds for ProviderErrorsTotal.
const (
	ErrorKindAuth      = "auth"
	ErrorKindTransport = "transport"
)

// Metrics holds the run's collectors on a private registry, so tests can create as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	LookupsTotal        *prometheus.CounterVec
	ProviderErrorsTotal *prometheus.CounterVec
	ReleasesTotal       prometheus.Counter
	LinksFoundTotal     *prometheus.CounterVec
	EvidenceTracks      prometheus.Histogram
	ReleaseDuration     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Resolution attempts per provider, ladder tier and outcome",
			},
			[]string{"provider", "tier", "outcome"},
		),
		ProviderErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Provider calls that failed, by error kind",
			},
			[]string{"provider", "kind"},
		),
		ReleasesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "releases_total",
				Help:      "Releases processed",
			},
		),
		LinksFoundTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "links_found_total",
				Help:      "Link fields filled, by field",
			},
			[]string{"field"},
		),
		EvidenceTracks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evidence_tracks",
				Help:      "Track titles known per release when link resolution finished",
				Buckets:   []float64{0, 5, 10, 20, 40, 80},
			},
		),
		ReleaseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "release_duration_seconds",
				Help:      "Wall time spent resolving one release",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	m.Registry.MustRegister(
		m.LookupsTotal,
		m.ProviderErrorsTotal,
		m.ReleasesTotal,
		m.LinksFoundTotal,
		m.EvidenceTracks,
		m.ReleaseDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Lookup records one ladder tier outcome. Safe on a nil receiver.
func (m *Metrics) Lookup(provider, tier, outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(provider, tier, outcome).Inc()
}

// ProviderError records a failed provider call. Safe on a nil receiver.
func (m *Metrics) ProviderError(provider, kind string) {
	if m == nil {
		return
	}
	m.ProviderErrorsTotal.WithLabelValues(provider, kind).Inc()
}

// LinkFound records a filled output field. Safe on a nil receiver.
func (m *Metrics) LinkFound(field string) {
	if m == nil {
		return
	}
	m.LinksFoundTotal.WithLabelValues(field).Inc()
}

// ReleaseDone records a finished release. Safe on a nil receiver.
func (m *Metrics) ReleaseDone(seconds float64, evidenceTracks int) {
	if m == nil {
		return
	}
	m.ReleasesTotal.Inc()
	m.ReleaseDuration.Observe(seconds)
	m.EvidenceTracks.Observe(float64(evidenceTracks))
}
