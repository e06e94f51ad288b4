package game

import (
	"time"
)

// HoldState is the phase of the hold gate within one round.
type HoldState int

const (
	Idle HoldState = iota
	Holding
	Completed
)

func (s HoldState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Holding:
		return "holding"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Verdict is the per-tick judgment fed to the hold gate.
type Verdict struct {
	PitchMatch      bool // Detected pitch class equals the target
	WithinTolerance bool // |cents| within the configured tolerance
	Stable          bool // Smoothing window is full enough and steady
}

// Passing reports whether the tick counts towards a hold.
func (v Verdict) Passing() bool {
	return v.PitchMatch && v.WithinTolerance && v.Stable
}

// HoldTracker confirms a round only after a passing verdict persists for
// minHold without interruption. Any failing tick restarts the requirement,
// which rejects vibrato and transients.
type HoldTracker struct {
	minHold time.Duration
	state   HoldState
	start   time.Time
}

// NewHoldTracker creates a tracker in the Idle state.
func NewHoldTracker(minHold time.Duration) *HoldTracker {
	return &HoldTracker{minHold: minHold}
}

// State returns the current phase.
func (h *HoldTracker) State() HoldState { return h.state }

// Start returns when the current hold began. Zero unless Holding.
func (h *HoldTracker) Start() time.Time {
	if h.state != Holding {
		return time.Time{}
	}
	return h.start
}

// Reset returns the tracker to Idle for a new round.
func (h *HoldTracker) Reset() {
	h.state = Idle
	h.start = time.Time{}
}

// Progress returns the hold progress in [0, 1] as of now.
func (h *HoldTracker) Progress(now time.Time) float64 {
	switch h.state {
	case Completed:
		return 1
	case Holding:
		if h.minHold <= 0 {
			return 1
		}
		return min(1, float64(now.Sub(h.start))/float64(h.minHold))
	default:
		return 0
	}
}

// Update advances the state machine with one tick. completed is true only
// on the tick that enters Completed.
func (h *HoldTracker) Update(v Verdict, now time.Time) (progress float64, completed bool) {
	if h.state == Completed {
		return 1, false
	}

	if !v.Passing() {
		h.Reset()
		return 0, false
	}

	if h.state != Holding {
		h.state = Holding
		h.start = now
		return 0, false
	}

	if now.Sub(h.start) >= h.minHold {
		h.state = Completed
		return 1, true
	}
	return h.Progress(now), false
}
