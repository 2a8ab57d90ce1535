// Package metrics exposes unit-of-work lifecycle counters to Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "persistence"

// Collector groups the lifecycle metrics of one persistence unit.
// A nil *Collector is valid and records nothing.
type Collector struct {
	unitsBegun    prometheus.Counter
	unitsEnded    prometheus.Counter
	beginFailures prometheus.Counter
	activeUnits   prometheus.Gauge
	factoryStarts prometheus.Counter
	factoryStops  prometheus.Counter
}

// NewCollector creates the metrics for unit and registers them on reg.
func NewCollector(reg prometheus.Registerer, unit string) (*Collector, error) {
	labels := prometheus.Labels{"unit": unit}
	c := &Collector{
		unitsBegun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "units_begun_total",
			Help:        "Total number of units of work begun.",
			ConstLabels: labels,
		}),
		unitsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "units_ended_total",
			Help:        "Total number of units of work ended.",
			ConstLabels: labels,
		}),
		beginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "begin_failures_total",
			Help:        "Total number of units of work that failed to begin.",
			ConstLabels: labels,
		}),
		activeUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "active_units",
			Help:        "Number of work scopes currently holding a session.",
			ConstLabels: labels,
		}),
		factoryStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "factory_builds_total",
			Help:        "Total number of session factories built.",
			ConstLabels: labels,
		}),
		factoryStops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "factory_stops_total",
			Help:        "Total number of session factories closed.",
			ConstLabels: labels,
		}),
	}

	var err error
	for _, col := range []prometheus.Collector{
		c.unitsBegun, c.unitsEnded, c.beginFailures, c.activeUnits, c.factoryStarts, c.factoryStops,
	} {
		err = errors.Join(err, reg.Register(col))
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Collector) UnitBegun() {
	if c == nil {
		return
	}
	c.unitsBegun.Inc()
	c.activeUnits.Inc()
}

func (c *Collector) UnitEnded() {
	if c == nil {
		return
	}
	c.unitsEnded.Inc()
	c.activeUnits.Dec()
}

func (c *Collector) BeginFailed() {
	if c == nil {
		return
	}
	c.beginFailures.Inc()
}

func (c *Collector) FactoryStarted() {
	if c == nil {
		return
	}
	c.factoryStarts.Inc()
}

func (c *Collector) FactoryStopped() {
	if c == nil {
		return
	}
	c.factoryStops.Inc()
}
