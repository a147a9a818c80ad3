// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Geocode outcomes.
const (
	GeocodeOK      = "ok"
	GeocodeEmpty   = "no_results"
	GeocodeFailed  = "error"
	GeocodeSkipped = "skipped"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	GeocodeLookups  *prometheus.CounterVec
	GeocodeDuration prometheus.Histogram
	Registrations   prometheus.Counter
	Logins          *prometheus.CounterVec
	DiaryEntries    prometheus.Counter
	Comments        prometheus.Counter
	Incidents       prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "traveldiary_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "traveldiary_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		GeocodeLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "traveldiary_geocode_lookups_total",
			Help: "Geocoding lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "traveldiary_geocode_duration_seconds",
			Help:    "Latency of outbound geocoding calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "traveldiary_registrations_total",
			Help: "Successful user registrations.",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "traveldiary_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		DiaryEntries: f.NewCounter(prometheus.CounterOpts{
			Name: "traveldiary_diary_entries_created_total",
			Help: "Diary entries created.",
		}),
		Comments: f.NewCounter(prometheus.CounterOpts{
			Name: "traveldiary_comments_created_total",
			Help: "Comments created.",
		}),
		Incidents: f.NewCounter(prometheus.CounterOpts{
			Name: "traveldiary_incidents_reported_total",
			Help: "Incidents reported.",
		}),
	}
}

// ObserveRequest records one finished HTTP request. route is the matched
// router pattern, never the raw path.
func (m *Metrics) ObserveRequest(route, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, code).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveGeocode(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GeocodeLookups.WithLabelValues(outcome).Inc()
	if outcome != GeocodeSkipped {
		m.GeocodeDuration.Observe(d.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
