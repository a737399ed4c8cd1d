package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors of a Session.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "insightlink").
	Namespace string

	// Subsystem is the metrics subsystem (default: "server").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
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
		Namespace: "insightlink",
		Subsystem: "server",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors updated by the streaming loops.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	activeViewers prometheus.Gauge
	viewersTotal  prometheus.Counter
	framesSent    prometheus.Counter
	frameBytes    prometheus.Histogram
	encodeSeconds prometheus.Histogram
	streamErrors  *prometheus.CounterVec
	kicks         prometheus.Counter
	paused        prometheus.Gauge
}

// NewMetrics registers the session collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		activeViewers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_viewers",
			Help:        "Number of viewers currently receiving frames",
			ConstLabels: config.ConstLabels,
		}),

		viewersTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "viewers_total",
			Help:        "Total number of viewer connections accepted",
			ConstLabels: config.ConstLabels,
		}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of frames written to viewers",
			ConstLabels: config.ConstLabels,
		}),

		frameBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes",
			Help:        "Encoded frame payload size in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(16*1024, 2, 10),
		}),

		encodeSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "encode_duration_seconds",
			Help:        "Time spent watermarking and encoding one frame",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 10),
		}),

		streamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_errors_total",
			Help:        "Errors that ended a viewer stream, by stage",
			ConstLabels: config.ConstLabels,
		}, []string{"stage"}),

		kicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "kicks_total",
			Help:        "Total number of viewers disconnected by the presenter",
			ConstLabels: config.ConstLabels,
		}),

		paused: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "paused",
			Help:        "1 while streaming is paused",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) viewerConnected() {
	if m == nil {
		return
	}
	m.viewersTotal.Inc()
	m.activeViewers.Inc()
}

func (m *Metrics) viewerDisconnected() {
	if m == nil {
		return
	}
	m.activeViewers.Dec()
}

func (m *Metrics) frameSent(size int) {
	if m == nil {
		return
	}
	m.framesSent.Inc()
	m.frameBytes.Observe(float64(size))
}

func (m *Metrics) encoded(d time.Duration) {
	if m == nil {
		return
	}
	m.encodeSeconds.Observe(d.Seconds())
}

func (m *Metrics) streamError(stage string) {
	if m == nil {
		return
	}
	m.streamErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) kicked() {
	if m == nil {
		return
	}
	m.kicks.Inc()
}

func (m *Metrics) setPaused(p bool) {
	if m == nil {
		return
	}
	if p {
		m.paused.Set(1)
	} else {
		m.paused.Set(0)
	}
}
