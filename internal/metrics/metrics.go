// Package metrics exposes Prometheus collectors for graph activity.
//
// Collectors are registered on a private registry so tests and multiple
// services in one process never collide on the global default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netwatch/internal/domain"
)

const namespace = "netwatch"

// Store append results
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Collector holds every metric the service updates
type Collector struct {
	registry *prometheus.Registry

	ConnectionsTotal *prometheus.CounterVec
	Devices          prometheus.Gauge
	Edges            prometheus.Gauge
	FlaggedTotal     prometheus.Counter
	StoreAppends     *prometheus.CounterVec
	ReplayedRecords  prometheus.Counter
}

// New creates a collector with its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Connection requests by outcome",
		}, []string{"outcome"}),
		Devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Registered devices",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "edges",
			Help:      "Distinct connections in the graph",
		}),
		FlaggedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flagged_devices_total",
			Help:      "Devices that crossed the anomaly threshold",
		}),
		StoreAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "appends_total",
			Help:      "Store appends by result",
		}, []string{"result"}),
		ReplayedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "replayed_records_total",
			Help:      "Records parsed during store replay",
		}),
	}

	c.registry.MustRegister(
		c.ConnectionsTotal,
		c.Devices,
		c.Edges,
		c.FlaggedTotal,
		c.StoreAppends,
		c.ReplayedRecords,
		collectors.NewGoCollector(),
	)

	// Pre-create label values so every outcome shows up at zero
	for _, o := range []domain.Outcome{
		domain.OutcomeCreated,
		domain.OutcomeAlreadyExists,
		domain.OutcomeSelfLoopRejected,
		domain.OutcomeCapacityExceeded,
	} {
		c.ConnectionsTotal.WithLabelValues(o.String())
	}
	c.StoreAppends.WithLabelValues(ResultOK)
	c.StoreAppends.WithLabelValues(ResultFailed)

	return c
}

// ObserveConnect records one connect outcome and the resulting sizes
func (c *Collector) ObserveConnect(o domain.Outcome, devices, edges, newlyFlagged int) {
	c.ConnectionsTotal.WithLabelValues(o.String()).Inc()
	c.Devices.Set(float64(devices))
	c.Edges.Set(float64(edges))
	c.FlaggedTotal.Add(float64(newlyFlagged))
}

// ObserveAppend records one store append
func (c *Collector) ObserveAppend(err error) {
	if err != nil {
		c.StoreAppends.WithLabelValues(ResultFailed).Inc()
		return
	}
	c.StoreAppends.WithLabelValues(ResultOK).Inc()
}

// ObserveReplay records the number of records a replay parsed
func (c *Collector) ObserveReplay(parsed int) {
	c.ReplayedRecords.Add(float64(parsed))
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
