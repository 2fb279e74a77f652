// Package metrics provides Prometheus metrics for frame conversion and the
// overlay sink.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "framebridge"

// Conversion results.
const (
	ResultOK          = "ok"
	ResultUnsupported = "unsupported"
	ResultError       = "error"
	ResultCached      = "cached"
)

// Sink results. ResultOK and ResultError are shared with conversions.
const (
	ResultInvalid     = "invalid"
	ResultUnavailable = "unavailable"
)

var (
	conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "video",
		Name:      "conversions_total",
		Help:      "ToPlanar calls by source format and outcome",
	}, []string{"format", "result"})

	conversionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "video",
		Name:      "conversion_seconds",
		Help:      "Time spent converting a frame to I420",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"format"})

	poolBuffers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "video",
		Name:      "pool_buffers_total",
		Help:      "Conversion buffer requests served from the pool (hit) or allocated (miss)",
	}, []string{"result"})

	sinkFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sink",
		Name:      "frames_total",
		Help:      "Frames handed to the overlay sink by outcome",
	}, []string{"result"})
)

// ObserveConversion records one ToPlanar outcome for a source format.
func ObserveConversion(format, result string, elapsed time.Duration) {
	conversions.WithLabelValues(format, result).Inc()
	if result == ResultOK {
		conversionSeconds.WithLabelValues(format).Observe(elapsed.Seconds())
	}
}

// ObservePoolBuffer records whether a conversion buffer was reused.
func ObservePoolBuffer(hit bool) {
	if hit {
		poolBuffers.WithLabelValues("hit").Inc()
		return
	}
	poolBuffers.WithLabelValues("miss").Inc()
}

// ObserveSinkFrame records one send attempt.
func ObserveSinkFrame(result string) {
	sinkFrames.WithLabelValues(result).Inc()
}
