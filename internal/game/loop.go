package game

import (
	"context"
	"time"

	"github.com/0xlemi/notetrainer/internal/audio"
	"github.com/0xlemi/notetrainer/internal/observe"
	"go.uber.org/zap"
)

// Update is what the loop publishes to the display after every tick.
type Update struct {
	Result        Result
	Target        Target
	RoundSettings Settings // Settings the current round is judged on
	Settings      Settings // Pending settings, applied from the next round on
	Score         int
	RMS           float64
	DB            float64
	Notice        string // Feedback for the last command, if any
}

// Command changes the game from outside the loop goroutine.
type Command interface {
	apply(l *Loop) string
}

// SkipRound abandons the current round without scoring.
type SkipRound struct{}

// ResetScore sets the score back to zero.
type ResetScore struct{}

// AdjustTolerance changes the tolerance by Delta cents.
type AdjustTolerance struct{ Delta int }

// AdjustReference changes the A4 reference by Delta Hz.
type AdjustReference struct{ Delta float64 }

func (SkipRound) apply(l *Loop) string {
	l.nextRound()
	return "skipped"
}

func (ResetScore) apply(l *Loop) string {
	l.score = 0
	return "score reset"
}

func (c AdjustTolerance) apply(l *Loop) string {
	s := l.settings
	s.ToleranceCents += c.Delta
	return l.updateSettings(s)
}

func (c AdjustReference) apply(l *Loop) string {
	s := l.settings
	s.ReferencePitch += c.Delta
	return l.updateSettings(s)
}

// LoopConfig tunes the host loop.
type LoopConfig struct {
	Settings     Settings
	Interval     time.Duration // Time between ticks
	AdvanceDelay time.Duration // Pause between a won round and the next
	Logger       *zap.Logger
	Metrics      *observe.Metrics
}

// Loop owns the current round and drives the engine from an audio source.
// All round state is confined to the goroutine running Run; other
// goroutines talk to it through Send.
type Loop struct {
	engine *Engine
	source audio.Source
	picker *Picker
	sink   func(Update)

	settings     Settings
	interval     time.Duration
	advanceDelay time.Duration
	logger       *zap.Logger
	metrics      *observe.Metrics

	round       *Round
	score       int
	completedAt time.Time
	notice      string
	commands    chan Command
}

// NewLoop creates a loop and draws the first target. cfg.Settings must be
// valid.
func NewLoop(engine *Engine, source audio.Source, picker *Picker, sink func(Update), cfg LoopConfig) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = 16 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if sink == nil {
		sink = func(Update) {}
	}

	l := &Loop{
		engine:       engine,
		source:       source,
		picker:       picker,
		sink:         sink,
		settings:     cfg.Settings,
		interval:     cfg.Interval,
		advanceDelay: cfg.AdvanceDelay,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		commands:     make(chan Command, 8),
	}
	l.round = NewRound(picker.Next(), l.settings)
	l.logger.Info("round started", zap.String("target", l.round.Target.PitchClass), zap.String("string", string(l.round.Target.String)))
	return l
}

// Send queues a command. It never blocks; when the queue is full the
// command is dropped and false is returned.
func (l *Loop) Send(c Command) bool {
	select {
	case l.commands <- c:
		return true
	default:
		return false
	}
}

// Run ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-l.commands:
			l.notice = c.apply(l)
			l.logger.Info("command applied", zap.String("notice", l.notice))
		case <-ticker.C:
			l.Step(ctx)
		}
	}
}

// Step runs one tick: advance to the next round if due, read a frame,
// run the engine and publish the update. A panic anywhere in the tick is
// logged and counted, and the loop carries on with the next tick.
func (l *Loop) Step(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.metrics.TickFailures.Add(ctx, 1)
			l.logger.Error("tick failed", zap.Any("panic", r))
		}
	}()

	now := l.engine.Clock().Now()
	if l.round.Completed() && now.Sub(l.completedAt) >= l.advanceDelay {
		l.nextRound()
	}

	frame, err := l.source.GetFrame()
	if err != nil {
		l.logger.Debug("no frame", zap.Error(err))
		return
	}

	res := l.engine.Tick(ctx, l.round, frame)
	if res.RoundJustCompleted {
		l.score++
		l.completedAt = now
		l.logger.Info("round won",
			zap.String("target", l.round.Target.PitchClass),
			zap.String("note", res.Smoothed.String()),
			zap.Int("score", l.score),
		)
	}

	rms, db := audio.Level(frame)
	l.sink(Update{
		Result:        res,
		Target:        l.round.Target,
		RoundSettings: l.round.Settings,
		Settings:      l.settings,
		Score:         l.score,
		RMS:           rms,
		DB:            db,
		Notice:        l.notice,
	})
}

func (l *Loop) nextRound() {
	target := l.picker.Next()
	if l.round.Settings == l.settings {
		l.round.Reset(target)
	} else {
		l.round = NewRound(target, l.settings)
	}
	l.notice = ""
	l.logger.Info("round started", zap.String("target", target.PitchClass), zap.String("string", string(target.String)))
}

func (l *Loop) updateSettings(s Settings) string {
	if err := s.Validate(); err != nil {
		l.logger.Warn("settings rejected", zap.Error(err))
		return err.Error()
	}
	l.settings = s
	return "applies from next round"
}

// Score returns the number of rounds won.
func (l *Loop) Score() int { return l.score }

// Round returns the current round.
func (l *Loop) Round() *Round { return l.round }
