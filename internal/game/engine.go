// Package game turns per-frame pitch estimates into round outcomes for the
// note-finding trainer: smoothing, status judgment and the hold gate.
package game

import (
	"context"
	"time"

	"github.com/0xlemi/notetrainer/internal/audio"
	"github.com/0xlemi/notetrainer/internal/observe"
	"github.com/0xlemi/notetrainer/internal/pitch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Status grades the smoothed note against the round target.
type Status int

const (
	StatusIncorrect Status = iota // Different pitch class
	StatusPartial                 // Right pitch class, out of tolerance
	StatusCorrect                 // Right pitch class within tolerance
)

func (s Status) String() string {
	switch s {
	case StatusCorrect:
		return "correct"
	case StatusPartial:
		return "partial"
	default:
		return "incorrect"
	}
}

// Result is the outcome of one tick.
type Result struct {
	Detected bool       // False when the frame carried no pitch
	Note     pitch.Note // Raw per-frame note
	Smoothed pitch.Note // Note of the window's average frequency
	Status   Status

	Stability float64 // Cents stdev over the window
	Stable    bool

	HoldState          HoldState
	HoldProgress       float64 // In [0, 1]
	RoundJustCompleted bool    // Fires on exactly one tick per round
}

// Engine runs the detection pipeline for one tick. It holds no round
// state; rounds are passed in by the caller.
type Engine struct {
	estimator pitch.Estimator
	clock     Clock
	metrics   *observe.Metrics
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithMetrics records tick metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine around the given estimator.
func NewEngine(estimator pitch.Estimator, opts ...Option) *Engine {
	e := &Engine{
		estimator: estimator,
		clock:     SystemClock{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Clock returns the engine's time source.
func (e *Engine) Clock() Clock { return e.clock }

// Tick runs estimate, note mapping, smoothing, judgment and the hold gate
// for one frame. A frame without pitch leaves the round untouched.
func (e *Engine) Tick(ctx context.Context, r *Round, frame *audio.Frame) Result {
	started := time.Now()
	defer func() {
		e.metrics.TickDuration.Record(ctx, time.Since(started).Seconds())
	}()
	e.metrics.Frames.Add(ctx, 1)

	hz, ok := e.estimator.Estimate(frame)
	if !ok {
		return Result{
			HoldState:    r.hold.State(),
			HoldProgress: r.hold.Progress(e.clock.Now()),
		}
	}
	e.metrics.Detections.Add(ctx, 1)

	ref := r.Settings.ReferencePitch
	raw := pitch.FromFrequency(hz, ref)
	r.window.Push(Sample{Frequency: hz, Cents: raw.Cents, Name: raw.Name})
	smoothed := pitch.FromFrequency(r.window.AverageFrequency(), ref)

	stability := r.window.CentsStability()
	verdict := Verdict{
		PitchMatch:      pitch.Equivalent(smoothed.Name, r.Target.PitchClass),
		WithinTolerance: abs(smoothed.Cents) <= r.Settings.ToleranceCents,
		Stable:          stability <= r.Settings.StabilityThreshold && r.window.Len() >= r.Settings.stableSamples(),
	}

	res := Result{
		Detected:  true,
		Note:      raw,
		Smoothed:  smoothed,
		Status:    judge(verdict),
		Stability: stability,
		Stable:    verdict.Stable,
	}

	now := e.clock.Now()
	res.HoldProgress, res.RoundJustCompleted = r.hold.Update(verdict, now)
	res.HoldState = r.hold.State()

	if res.RoundJustCompleted {
		e.metrics.RoundsCompleted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("target", r.Target.PitchClass),
		))
		e.logger.Debug("round completed",
			zap.String("target", r.Target.PitchClass),
			zap.String("note", smoothed.String()),
			zap.Int("cents", smoothed.Cents),
			zap.Float64("stability", stability),
		)
	}
	return res
}

func judge(v Verdict) Status {
	switch {
	case !v.PitchMatch:
		return StatusIncorrect
	case v.WithinTolerance:
		return StatusCorrect
	default:
		return StatusPartial
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
