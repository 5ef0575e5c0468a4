package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the metrics provider
type MetricsConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Metric options
	Namespace        string    // Prometheus namespace (default: mcp)
	Subsystem        string    // Prometheus subsystem
	HistogramBuckets []float64 // Custom histogram buckets for latency

	// Labels to add to all metrics
	ConstLabels prometheus.Labels
}

// MetricsProvider records request, tool and clock metrics and exposes them
// in Prometheus text format.
type MetricsProvider interface {
	// Record MCP operations
	RecordRequest(ctx context.Context, method, status string, duration time.Duration)
	RecordToolCall(ctx context.Context, tool, status string, duration time.Duration)
	RecordPromptRender(ctx context.Context, prompt, status string, duration time.Duration)

	// Record HTTP API traffic
	RecordHTTPRequest(ctx context.Context, path, method string, code int, duration time.Duration)

	// Record clock sync probes
	RecordSyncProbe(ctx context.Context, source string, synced bool, offsetMS float64, stratum uint8)

	// Record errors by JSON-RPC code
	RecordError(ctx context.Context, code, method string)

	// Handler serves the registry in Prometheus text exposition format
	Handler() http.Handler
}

// PrometheusMetricsProvider implements MetricsProvider using Prometheus
type PrometheusMetricsProvider struct {
	config   MetricsConfig
	registry *prometheus.Registry

	// JSON-RPC metrics
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	// Tool metrics; prompt renders fold into these under a prompt: prefix
	toolCallDuration *prometheus.HistogramVec
	toolCallTotal    *prometheus.CounterVec

	// HTTP API metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestTotal    *prometheus.CounterVec

	// Clock sync metrics
	syncProbeTotal *prometheus.CounterVec
	clockOffsetMS  prometheus.Gauge
	clockStratum   prometheus.Gauge
	clockSynced    prometheus.Gauge

	// Wall clock gauges, sampled at scrape time
	timeSeconds prometheus.GaugeFunc
	timeNanos   prometheus.GaugeFunc

	// Error metrics
	errorTotal *prometheus.CounterVec
}

// NewMetricsProvider creates a new Prometheus metrics provider backed by its
// own registry.
func NewMetricsProvider(config MetricsConfig) (*PrometheusMetricsProvider, error) {
	// Set defaults
	if config.Namespace == "" {
		config.Namespace = "mcp"
	}
	if config.HistogramBuckets == nil {
		// Buckets in milliseconds; the sub-millisecond range covers local
		// clock reads, the tail covers ntpq subprocess calls
		config.HistogramBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}
	}

	// Add service labels to const labels
	if config.ConstLabels == nil {
		config.ConstLabels = prometheus.Labels{}
	}
	config.ConstLabels["service"] = config.ServiceName
	config.ConstLabels["version"] = config.ServiceVersion
	if config.Environment != "" {
		config.ConstLabels["environment"] = config.Environment
	}

	provider := &PrometheusMetricsProvider{
		config:   config,
		registry: prometheus.NewRegistry(),
	}

	// Initialize metrics
	provider.initializeMetrics()

	// Register metrics
	if err := provider.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return provider, nil
}

// initializeMetrics creates all metric collectors
func (p *PrometheusMetricsProvider) initializeMetrics() {
	// Request metrics
	p.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "request_duration_milliseconds",
			Help:        "Duration of MCP requests in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"method", "status"},
	)

	p.requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "request_total",
			Help:        "Total number of MCP requests",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"method", "status"},
	)

	// Tool metrics
	p.toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "tool_call_duration_milliseconds",
			Help:        "Duration of tool calls in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"tool", "status"},
	)

	p.toolCallTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "tool_call_total",
			Help:        "Total number of tool calls",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"tool", "status"},
	)

	// HTTP API metrics
	p.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "Duration of HTTP API requests in milliseconds",
			Buckets:     p.config.HistogramBuckets,
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"path", "method", "code"},
	)

	p.httpRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "http_request_total",
			Help:        "Total number of HTTP API requests",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"path", "method", "code"},
	)

	// Clock sync metrics
	p.syncProbeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "sync_probe_total",
			Help:        "Total number of clock sync probes",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"source", "outcome"},
	)

	p.clockOffsetMS = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "clock_offset_milliseconds",
			Help:        "Clock offset reported by the last sync probe",
			ConstLabels: p.config.ConstLabels,
		},
	)

	p.clockStratum = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "clock_stratum",
			Help:        "NTP stratum reported by the last sync probe",
			ConstLabels: p.config.ConstLabels,
		},
	)

	p.clockSynced = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "clock_synced",
			Help:        "Whether the clock was synchronized at the last probe (1=synced)",
			ConstLabels: p.config.ConstLabels,
		},
	)

	// Wall clock gauges, read at collection time so every scrape sees the
	// current instant
	p.timeSeconds = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "time_seconds",
			Help:        "Current Unix timestamp",
			ConstLabels: p.config.ConstLabels,
		},
		func() float64 { return float64(time.Now().Unix()) },
	)

	p.timeNanos = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "time_nanos",
			Help:        "Current nanoseconds component",
			ConstLabels: p.config.ConstLabels,
		},
		func() float64 { return float64(time.Now().Nanosecond()) },
	)

	// Error metrics
	p.errorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   p.config.Namespace,
			Subsystem:   p.config.Subsystem,
			Name:        "error_total",
			Help:        "Total number of errors",
			ConstLabels: p.config.ConstLabels,
		},
		[]string{"code", "method"},
	)
}

// registerMetrics registers all metrics with the provider registry
func (p *PrometheusMetricsProvider) registerMetrics() error {
	collectors := []prometheus.Collector{
		p.requestDuration,
		p.requestTotal,
		p.toolCallDuration,
		p.toolCallTotal,
		p.httpRequestDuration,
		p.httpRequestTotal,
		p.syncProbeTotal,
		p.clockOffsetMS,
		p.clockStratum,
		p.clockSynced,
		p.timeSeconds,
		p.timeNanos,
		p.errorTotal,
	}

	for _, collector := range collectors {
		if err := p.registry.Register(collector); err != nil {
			// Check if already registered
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	return nil
}

// RecordRequest records a dispatched JSON-RPC request
func (p *PrometheusMetricsProvider) RecordRequest(ctx context.Context, method, status string, duration time.Duration) {
	ms := durationMillis(duration)
	p.requestDuration.WithLabelValues(method, status).Observe(ms)
	p.requestTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall records a tool call
func (p *PrometheusMetricsProvider) RecordToolCall(ctx context.Context, tool, status string, duration time.Duration) {
	ms := durationMillis(duration)
	p.toolCallDuration.WithLabelValues(tool, status).Observe(ms)
	p.toolCallTotal.WithLabelValues(tool, status).Inc()
}

// RecordPromptRender records a prompt render
func (p *PrometheusMetricsProvider) RecordPromptRender(ctx context.Context, prompt, status string, duration time.Duration) {
	// Use tool call metrics for prompts
	p.RecordToolCall(ctx, "prompt:"+prompt, status, duration)
}

// RecordHTTPRequest records a request served by the HTTP API
func (p *PrometheusMetricsProvider) RecordHTTPRequest(ctx context.Context, path, method string, code int, duration time.Duration) {
	ms := durationMillis(duration)
	codeLabel := strconv.Itoa(code)
	p.httpRequestDuration.WithLabelValues(path, method, codeLabel).Observe(ms)
	p.httpRequestTotal.WithLabelValues(path, method, codeLabel).Inc()
}

// RecordSyncProbe records the outcome of a clock sync probe and updates the
// clock gauges
func (p *PrometheusMetricsProvider) RecordSyncProbe(ctx context.Context, source string, synced bool, offsetMS float64, stratum uint8) {
	outcome := "unsynced"
	if synced {
		outcome = "synced"
	}
	p.syncProbeTotal.WithLabelValues(source, outcome).Inc()

	p.clockOffsetMS.Set(offsetMS)
	p.clockStratum.Set(float64(stratum))
	if synced {
		p.clockSynced.Set(1)
	} else {
		p.clockSynced.Set(0)
	}
}

// RecordError records an error by JSON-RPC code
func (p *PrometheusMetricsProvider) RecordError(ctx context.Context, code, method string) {
	p.errorTotal.WithLabelValues(code, method).Inc()
}

// Handler returns an http.Handler serving the provider registry in
// Prometheus text exposition format
func (p *PrometheusMetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// durationMillis converts a duration to fractional milliseconds. Local clock
// reads complete well under a millisecond, so truncating would collapse most
// observations to zero.
func durationMillis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
