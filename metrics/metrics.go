// Package metrics exports binding activity as Prometheus metrics.
//
// A Collector is both a skemabind.Observer, to be passed to Bind through
// skemabind.WithObserver, and a prometheus.Collector to be registered once.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/skemabind"
)

const subsystem = "skemabind"

// Collector counts operations by schema, op and outcome, along with the
// issues they reported and how long they took.
type Collector struct {
	operations *prometheus.CounterVec
	issues     *prometheus.CounterVec
	items      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var (
	_ skemabind.Observer   = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// NewCollector creates a collector whose metric names start with namespace,
// which may be empty.
func NewCollector(namespace string) *Collector {
	return &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Total number of binding operations by schema, operation and outcome",
		}, []string{"schema", "op", "outcome", "many"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "issues_total",
			Help:      "Total number of validation issues reported",
		}, []string{"schema", "op"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_total",
			Help:      "Total number of model instances processed",
		}, []string{"schema", "op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Duration of binding operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"schema", "op"}),
	}
}

// Observe implements skemabind.Observer.
func (c *Collector) Observe(ev skemabind.Event) {
	op := string(ev.Op)
	c.operations.WithLabelValues(ev.Schema, op, string(ev.Outcome), strconv.FormatBool(ev.Many)).Inc()
	if ev.Issues > 0 {
		c.issues.WithLabelValues(ev.Schema, op).Add(float64(ev.Issues))
	}
	c.items.WithLabelValues(ev.Schema, op).Add(float64(ev.Items))
	c.duration.WithLabelValues(ev.Schema, op).Observe(ev.Duration.Seconds())
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.operations.Describe(ch)
	c.issues.Describe(ch)
	c.items.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.operations.Collect(ch)
	c.issues.Collect(ch)
	c.items.Collect(ch)
	c.duration.Collect(ch)
}

// Register registers c with registerer.
func (c *Collector) Register(registerer prometheus.Registerer) error {
	return registerer.Register(c)
}

// MustRegister is like Register but panics on error.
func (c *Collector) MustRegister(registerer prometheus.Registerer) {
	if err := c.Register(registerer); err != nil {
		panic(err)
	}
}
