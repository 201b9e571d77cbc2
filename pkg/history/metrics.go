package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures coordinator metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "wayfinder").
	Namespace string

	// Subsystem is the metrics subsystem (default: "history").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures coordinator metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "wayfinder",
		Subsystem: "history",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors a Coordinator reports to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	navigations   *prometheus.CounterVec
	delivered     prometheus.Counter
	duplicates    prometheus.Counter
	subscriptions prometheus.Gauge
	observers     prometheus.Gauge
}

// NewMetrics creates and registers coordinator metrics:
//   - wayfinder_history_navigations_total{kind,result}
//   - wayfinder_history_location_changes_total
//   - wayfinder_history_duplicate_changes_total
//   - wayfinder_history_upstream_subscriptions
//   - wayfinder_history_observers
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Navigations issued through the coordinator",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "result"}),

		delivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "location_changes_total",
			Help:        "Location changes committed and broadcast to observers",
			ConstLabels: config.ConstLabels,
		}),

		duplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "duplicate_changes_total",
			Help:        "Upstream changes dropped because they repeated the current location",
			ConstLabels: config.ConstLabels,
		}),

		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "upstream_subscriptions",
			Help:        "Live subscriptions to the location store (0 or 1)",
			ConstLabels: config.ConstLabels,
		}),

		observers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observers",
			Help:        "Consumers currently subscribed to the coordinator",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) navigation(kind, result string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) change(duplicate bool) {
	if m == nil {
		return
	}
	if duplicate {
		m.duplicates.Inc()
		return
	}
	m.delivered.Inc()
}

func (m *Metrics) state(subscribed bool, observers int) {
	if m == nil {
		return
	}
	if subscribed {
		m.subscriptions.Set(1)
	} else {
		m.subscriptions.Set(0)
	}
	m.observers.Set(float64(observers))
}
