// Package metrics exposes shop activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Prometheus metric names.
const (
	MetricOrdersPlacedTotal      = "dukaan_orders_placed_total"
	MetricOrderFailuresTotal     = "dukaan_order_failures_total"
	MetricStatusTransitionsTotal = "dukaan_status_transitions_total"
	MetricNotificationsSentTotal = "dukaan_notifications_sent_total"
	MetricWebhookMessagesTotal   = "dukaan_webhook_messages_total"
	MetricSweepRunsTotal         = "dukaan_sweep_runs_total"
	MetricSweepDurationSeconds   = "dukaan_sweep_duration_seconds"
	MetricHTTPRequestsTotal      = "dukaan_http_requests_total"
	MetricHTTPRequestSeconds     = "dukaan_http_request_duration_seconds"
)

// Recorder owns a dedicated Prometheus registry with the shop counters.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Recorder struct {
	registry *prometheus.Registry

	ordersPlaced      prometheus.Counter
	orderFailures     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	webhookMessages   *prometheus.CounterVec
	sweepRuns         *prometheus.CounterVec
	sweepDuration     *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// RecorderOption configures a Recorder
type RecorderOption func(*recorderOptions)

type recorderOptions struct {
	runtimeCollectors bool
}

// WithRuntimeCollectors also registers the Go runtime and process collectors
func WithRuntimeCollectors() RecorderOption {
	return func(o *recorderOptions) {
		o.runtimeCollectors = true
	}
}

// NewRecorder creates a Recorder with its own registry
func NewRecorder(opts ...RecorderOption) *Recorder {
	var o recorderOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricOrdersPlacedTotal,
			Help: "Orders appended to the ledger.",
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOrderFailuresTotal,
			Help: "Order attempts that were rejected or failed, by reason.",
		}, []string{"reason"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStatusTransitionsTotal,
			Help: "Order status transitions applied by the advance sweep, by target status.",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricNotificationsSentTotal,
			Help: "Outbound WhatsApp notifications, by kind and result.",
		}, []string{"kind", "result"}),
		webhookMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricWebhookMessagesTotal,
			Help: "Inbound webhook messages, by outcome.",
		}, []string{"result"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSweepRunsTotal,
			Help: "Scheduled sweep executions, by job and result.",
		}, []string{"job", "result"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSweepDurationSeconds,
			Help:    "Sweep execution time in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"job"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestSeconds,
			Help:    "HTTP request latency in seconds, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		r.ordersPlaced,
		r.orderFailures,
		r.statusTransitions,
		r.notifications,
		r.webhookMessages,
		r.sweepRuns,
		r.sweepDuration,
		r.httpRequests,
		r.httpDuration,
	)
	if o.runtimeCollectors {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// OrderPlaced counts a successful order
func (r *Recorder) OrderPlaced(context.Context) {
	r.ordersPlaced.Inc()
}

// OrderFailed counts a failed order attempt
func (r *Recorder) OrderFailed(_ context.Context, reason string) {
	r.orderFailures.WithLabelValues(reason).Inc()
}

// StatusTransition counts an order reaching status
func (r *Recorder) StatusTransition(_ context.Context, status string) {
	r.statusTransitions.WithLabelValues(status).Inc()
}

// NotificationSent counts an outbound notification
func (r *Recorder) NotificationSent(_ context.Context, kind, result string) {
	r.notifications.WithLabelValues(kind, result).Inc()
}

// WebhookMessage counts an inbound message
func (r *Recorder) WebhookMessage(_ context.Context, result string) {
	r.webhookMessages.WithLabelValues(result).Inc()
}

// SweepRun records one sweep execution
func (r *Recorder) SweepRun(_ context.Context, job, result string, elapsed time.Duration) {
	r.sweepRuns.WithLabelValues(job, result).Inc()
	r.sweepDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// HTTPRequest records one served HTTP request. route is the matched route
// pattern, never the raw path.
func (r *Recorder) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry:          r.registry,
		EnableOpenMetrics: true,
	})
}

// Gather collects all metric families (for testing).
func (r *Recorder) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
