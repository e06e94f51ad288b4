// Package observe provides logging and OpenTelemetry metrics for notetrainer.
//
// A package-level default [Metrics] ([DefaultMetrics]) records through the
// global meter provider, which is a no-op until [InitProvider] installs the
// SDK. Tests should use [NewMetrics] with their own provider.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all notetrainer metrics.
const meterName = "github.com/0xlemi/notetrainer"

// Metrics holds the metric instruments of the detection loop.
type Metrics struct {
	// Frames counts frames handed to the engine.
	Frames metric.Int64Counter

	// Detections counts frames that produced a pitch.
	Detections metric.Int64Counter

	// RoundsCompleted counts won rounds. Use with attribute "target".
	RoundsCompleted metric.Int64Counter

	// TickFailures counts ticks that panicked and were recovered.
	TickFailures metric.Int64Counter

	// TickDuration tracks the time spent in one engine tick.
	TickDuration metric.Float64Histogram
}

// tickBuckets are histogram boundaries in seconds. A tick must fit well
// inside one display frame (~16ms).
var tickBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05, 0.1,
}

// NewMetrics creates all instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Frames, err = m.Int64Counter("notetrainer.frames",
		metric.WithDescription("Audio frames processed."),
	); err != nil {
		return nil, err
	}
	if met.Detections, err = m.Int64Counter("notetrainer.detections",
		metric.WithDescription("Frames with a detected pitch."),
	); err != nil {
		return nil, err
	}
	if met.RoundsCompleted, err = m.Int64Counter("notetrainer.rounds.completed",
		metric.WithDescription("Rounds won by holding the target note."),
	); err != nil {
		return nil, err
	}
	if met.TickFailures, err = m.Int64Counter("notetrainer.tick.failures",
		metric.WithDescription("Ticks that failed and were skipped."),
	); err != nil {
		return nil, err
	}
	if met.TickDuration, err = m.Float64Histogram("notetrainer.tick.duration",
		metric.WithDescription("Time spent processing one tick."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(tickBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first call
// from [otel.GetMeterProvider].
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}
