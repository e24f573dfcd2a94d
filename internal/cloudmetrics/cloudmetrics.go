package cloudmetrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// CloudMetrics owns the accounting registry for a cloud-registered instance
// and pushes it to the hosted control plane.
type CloudMetrics struct {
	registry   *prometheus.Registry
	metrics    *metrics
	pusher     Pusher
	instanceID string
	version    string
	logger     *zap.Logger
}

// New builds the cloud metrics collector and installs it as the process-wide
// recorder. A nil registry allocates a private one so accounting series never
// leak onto the public /metrics endpoint.
func New(registry *prometheus.Registry, pusher Pusher, instanceID, version string, logger *zap.Logger) *CloudMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &CloudMetrics{
		registry:   registry,
		metrics:    newMetrics(registry),
		pusher:     pusher,
		instanceID: instanceID,
		version:    version,
		logger:     logger,
	}
	setRecorder(&recorder{metrics: c.metrics, defaultBookID: instanceID})
	return c
}

// Push sends the current accounting snapshot. A nil pusher is a no-op.
func (c *CloudMetrics) Push(ctx context.Context) error {
	if c == nil || c.pusher == nil {
		return nil
	}
	return c.pusher.Push(ctx, c.registry)
}

// SetMemoryUsage updates the instance memory gauge.
func (c *CloudMetrics) SetMemoryUsage(bytes uint64) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.memoryBytes.Set(float64(bytes))
}

// SetBooksTotal updates the recipe book count gauge.
func (c *CloudMetrics) SetBooksTotal(count int64) {
	if c == nil || c.metrics == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	c.metrics.booksTotal.Set(float64(count))
}
