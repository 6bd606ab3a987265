// Package metrics exposes Prometheus counters for logins, food lookups and
// log entries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
	OutcomeEmpty    = "empty"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
)

// Recorder is what services report to. Collector implements it; Noop discards.
type Recorder interface {
	RecordLogin(outcome string)
	RecordLookup(outcome string, latency time.Duration)
	RecordEntryLogged()
	RecordEntryDeleted()
}

// Collector records metrics into a Prometheus registry.
type Collector struct {
	logins        *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	lookupLatency prometheus.Histogram
	entriesLogged prometheus.Counter
	entriesDelete prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodpoints_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodpoints_food_lookups_total",
			Help: "Food provider lookups by outcome.",
		}, []string{"outcome"}),
		lookupLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodpoints_food_lookup_seconds",
			Help:    "Food provider lookup latency.",
			Buckets: prometheus.DefBuckets,
		}),
		entriesLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodpoints_entries_logged_total",
			Help: "Log entries created.",
		}),
		entriesDelete: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodpoints_entries_deleted_total",
			Help: "Log entries deleted.",
		}),
	}
	reg.MustRegister(c.logins, c.lookups, c.lookupLatency, c.entriesLogged, c.entriesDelete)
	return c
}

// RecordLogin counts a login attempt.
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordLookup counts a provider lookup and observes its latency.
func (c *Collector) RecordLookup(outcome string, latency time.Duration) {
	c.lookups.WithLabelValues(outcome).Inc()
	c.lookupLatency.Observe(latency.Seconds())
}

// RecordEntryLogged counts a created log entry.
func (c *Collector) RecordEntryLogged() { c.entriesLogged.Inc() }

// RecordEntryDeleted counts a deleted log entry.
func (c *Collector) RecordEntryDeleted() { c.entriesDelete.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Noop discards all metrics.
type Noop struct{}

func (Noop) RecordLogin(string)                 {}
func (Noop) RecordLookup(string, time.Duration) {}
func (Noop) RecordEntryLogged()                 {}
func (Noop) RecordEntryDeleted()                {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Noop{}
)
