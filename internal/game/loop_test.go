package game

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/0xlemi/notetrainer/internal/audio"
	"github.com/0xlemi/notetrainer/internal/observe"
	"github.com/0xlemi/notetrainer/internal/pitch"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type panicEstimator struct{}

func (panicEstimator) Estimate(*audio.Frame) (float64, bool) {
	panic("malformed frame")
}

type panicSource struct{}

func (panicSource) GetFrame() (*audio.Frame, error) {
	panic("device vanished")
}

func newTestLoop(t *testing.T, est pitch.Estimator, clock Clock) (*Loop, *[]Update) {
	t.Helper()
	src := audio.NewToneCapturer(2048, 44100, 440)
	if err := src.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var updates []Update
	engine := NewEngine(est, WithClock(clock))
	picker := NewPicker(rand.New(rand.NewPCG(1, 2)), AllStrings)
	l := NewLoop(engine, src, picker, func(u Update) { updates = append(updates, u) }, LoopConfig{
		Settings:     testSettings(),
		AdvanceDelay: 900 * time.Millisecond,
	})
	l.round.Reset(Target{PitchClass: "A", String: StringA})
	return l, &updates
}

func TestLoopScoresAndAdvances(t *testing.T) {
	clock := newManualClock()
	l, updates := newTestLoop(t, &fixedEstimator{freqs: []float64{440}}, clock)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		l.Step(ctx)
		clock.Advance(50 * time.Millisecond)
	}
	if l.Score() != 1 {
		t.Fatalf("Expected score 1, got %d", l.Score())
	}
	last := (*updates)[len(*updates)-1]
	if last.Score != 1 || last.Target.PitchClass != "A" || last.Result.HoldState != Completed {
		t.Fatalf("Unexpected last update: %+v", last)
	}
	if last.RMS <= 0 {
		t.Errorf("Expected a level reading, got %f", last.RMS)
	}

	// Won at t=650ms; the next round starts at t=1550ms and cannot be won
	// again before t=2200ms.
	for i := 0; i < 20; i++ {
		l.Step(ctx)
		clock.Advance(50 * time.Millisecond)
	}
	if l.Score() != 1 {
		t.Errorf("Expected score to stay 1, got %d", l.Score())
	}
	if l.Round().Completed() {
		t.Error("Expected a fresh round after the advance delay")
	}
}

func TestLoopAdvanceResetsRound(t *testing.T) {
	clock := newManualClock()
	l, _ := newTestLoop(t, &fixedEstimator{freqs: []float64{0}}, clock)
	ctx := context.Background()

	// Force completion without scoring to check the advance timing alone.
	l.round.hold.state = Completed
	l.completedAt = clock.Now()

	clock.Advance(800 * time.Millisecond)
	l.Step(ctx)
	if !l.Round().Completed() {
		t.Fatal("Advanced before the delay elapsed")
	}

	clock.Advance(100 * time.Millisecond)
	l.Step(ctx)
	if l.Round().Completed() || l.Round().HoldState() != Idle {
		t.Fatalf("Expected a fresh round, got %v", l.Round().HoldState())
	}
}

func TestLoopIsolatesFailingTicks(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	clock := newManualClock()
	l, updates := newTestLoop(t, panicEstimator{}, clock)
	l.metrics = metrics

	for i := 0; i < 3; i++ {
		l.Step(context.Background())
	}
	if len(*updates) != 0 {
		t.Errorf("Expected no updates from failed ticks, got %d", len(*updates))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var failures int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "notetrainer.tick.failures" {
				failures = m.Data.(metricdata.Sum[int64]).DataPoints[0].Value
			}
		}
	}
	if failures != 3 {
		t.Errorf("Expected 3 failures, got %d", failures)
	}
}

func TestLoopIsolatesFailingSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	clock := newManualClock()
	l, updates := newTestLoop(t, &fixedEstimator{freqs: []float64{440}}, clock)
	l.metrics = metrics
	healthy := l.source

	l.source = panicSource{}
	l.Step(context.Background())
	l.Step(context.Background())

	l.source = healthy
	l.Step(context.Background())
	if len(*updates) != 1 {
		t.Fatalf("Expected the loop to recover and publish 1 update, got %d", len(*updates))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var failures int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "notetrainer.tick.failures" {
				failures = m.Data.(metricdata.Sum[int64]).DataPoints[0].Value
			}
		}
	}
	if failures != 2 {
		t.Errorf("Expected 2 failures, got %d", failures)
	}
}

func TestLoopPublishesRoundAndPendingSettings(t *testing.T) {
	clock := newManualClock()
	l, updates := newTestLoop(t, &fixedEstimator{freqs: []float64{440}}, clock)

	(AdjustTolerance{Delta: 5}).apply(l)
	l.Step(context.Background())

	last := (*updates)[len(*updates)-1]
	if last.RoundSettings.ToleranceCents != 20 {
		t.Errorf("Expected round tolerance 20, got %d", last.RoundSettings.ToleranceCents)
	}
	if last.Settings.ToleranceCents != 25 {
		t.Errorf("Expected pending tolerance 25, got %d", last.Settings.ToleranceCents)
	}
}

func TestLoopCommands(t *testing.T) {
	clock := newManualClock()
	l, _ := newTestLoop(t, &fixedEstimator{freqs: []float64{440}}, clock)
	l.score = 4

	if msg := (AdjustTolerance{Delta: 100}).apply(l); l.settings.ToleranceCents != 20 {
		t.Fatalf("Out-of-range tolerance accepted: %s", msg)
	}
	(AdjustTolerance{Delta: 5}).apply(l)
	if l.settings.ToleranceCents != 25 {
		t.Fatalf("Expected pending tolerance 25, got %d", l.settings.ToleranceCents)
	}
	if l.round.Settings.ToleranceCents != 20 {
		t.Fatal("Settings change leaked into the running round")
	}

	(AdjustReference{Delta: -1000}).apply(l)
	if l.settings.ReferencePitch != 440 {
		t.Fatalf("Negative reference accepted: %f", l.settings.ReferencePitch)
	}
	(AdjustReference{Delta: 2}).apply(l)

	(SkipRound{}).apply(l)
	if l.round.Settings.ToleranceCents != 25 || l.round.Settings.ReferencePitch != 442 {
		t.Errorf("Expected new round on pending settings, got %+v", l.round.Settings)
	}
	if l.Score() != 4 {
		t.Errorf("Skipping must not score, got %d", l.Score())
	}

	(ResetScore{}).apply(l)
	if l.Score() != 0 {
		t.Errorf("Expected score 0, got %d", l.Score())
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	l, updates := newTestLoop(t, pitch.NewAutocorrEstimator(), SystemClock{})
	l.interval = time.Millisecond

	if !l.Send(ResetScore{}) {
		t.Fatal("Send dropped a command on an empty queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if len(*updates) == 0 {
		t.Error("Expected at least one update")
	}
}

func TestPicker(t *testing.T) {
	p := NewPicker(rand.New(rand.NewPCG(7, 7)), []GuitarString{StringD, StringG})
	sawFlat := false
	for i := 0; i < 200; i++ {
		target := p.Next()
		if !pitch.IsPitchClass(target.PitchClass) {
			t.Fatalf("Unknown pitch class %q", target.PitchClass)
		}
		if target.String != StringD && target.String != StringG {
			t.Fatalf("Picked disabled string %q", target.String)
		}
		if len(target.PitchClass) == 2 && target.PitchClass[1] == 'b' {
			sawFlat = true
		}
	}
	if !sawFlat {
		t.Error("Expected some flat spellings")
	}

	p.Fix("Gb")
	for i := 0; i < 10; i++ {
		if got := p.Next().PitchClass; got != "Gb" {
			t.Fatalf("Expected fixed target Gb, got %q", got)
		}
	}
}

func TestParseStrings(t *testing.T) {
	got, err := ParseStrings([]string{"E", "e"})
	if err != nil || len(got) != 2 || got[1].Label() != "high E" {
		t.Fatalf("Unexpected result %v, %v", got, err)
	}
	if _, err := ParseStrings(nil); err == nil {
		t.Error("Expected error for no strings")
	}
	if _, err := ParseStrings([]string{"H"}); err == nil {
		t.Error("Expected error for unknown string")
	}
}
