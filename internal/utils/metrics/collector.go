// internal/utils/metrics/collector.go
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bonfida_bot"

// Status labels of an operation.
const (
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
	StatusDryRun    = "dry_run"
)

// Collector holds the bot metrics on its own registry, so several
// collectors can live in one process.
type Collector struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rpcLatency        *prometheus.HistogramVec
	rpcErrors         *prometheus.CounterVec
	submitAttempts    *prometheus.CounterVec

	mu        sync.Mutex
	lastError map[string]string
}

// NewCollector creates a collector with every metric registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of pool operations by outcome",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Pool operation duration in seconds, confirmation included",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"operation"},
		),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "endpoint"},
		),
		rpcErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_transport_errors_total",
				Help:      "RPC requests that failed before the node answered",
			},
			[]string{"method", "endpoint"},
		),
		submitAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submit_attempts_total",
				Help:      "Transaction send attempts, retries included",
			},
			[]string{"result"},
		),
		lastError: make(map[string]string),
	}

	c.registry.MustRegister(
		c.operations,
		c.operationDuration,
		c.rpcLatency,
		c.rpcErrors,
		c.submitAttempts,
	)
	return c
}

// Registry exposes the registry for gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordOperation records one pool operation. A context error counts as
// cancelled rather than failed.
func (c *Collector) RecordOperation(operation string, duration time.Duration, dryRun bool, err error) {
	status := StatusSuccess
	switch {
	case dryRun && err == nil:
		status = StatusDryRun
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = StatusCancelled
	case err != nil:
		status = StatusFailure
	}

	c.operations.WithLabelValues(operation, status).Inc()
	if status != StatusDryRun {
		c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}

	if err != nil {
		c.mu.Lock()
		c.lastError[operation] = err.Error()
		c.mu.Unlock()
	}
}

// RecordRPC records one RPC request against an endpoint.
func (c *Collector) RecordRPC(method, endpoint string, duration time.Duration, transportErr bool) {
	c.rpcLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if transportErr {
		c.rpcErrors.WithLabelValues(method, endpoint).Inc()
	}
}

// RecordSubmitAttempt counts a send attempt, result is "sent", "retried" or "rejected".
func (c *Collector) RecordSubmitAttempt(result string) {
	c.submitAttempts.WithLabelValues(result).Inc()
}

// LastError returns the last error message recorded for operation.
func (c *Collector) LastError(operation string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.lastError[operation]
	return msg, ok
}

// WriteTextfile writes the current values in the text exposition format,
// for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
