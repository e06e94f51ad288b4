package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/0xlemi/notetrainer/internal/pitch"
)

// Settings are the per-round tuning knobs. They are validated when set,
// never inside a tick.
type Settings struct {
	ReferencePitch     float64       // A4 in Hz
	ToleranceCents     int           // Max |cents| counted as correct
	MinHold            time.Duration // How long a correct note must be held
	WindowSize         int           // Smoothing window capacity
	StabilityThreshold float64       // Max cents stdev counted as stable
	MinStableSamples   int           // Samples required before judging stability
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ReferencePitch:     pitch.DefaultReference,
		ToleranceCents:     30,
		MinHold:            450 * time.Millisecond,
		WindowSize:         6,
		StabilityThreshold: 12,
		MinStableSamples:   4,
	}
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	var errs []error
	if s.ReferencePitch <= 0 {
		errs = append(errs, fmt.Errorf("reference pitch %.2f Hz must be positive", s.ReferencePitch))
	}
	if s.ToleranceCents <= 0 || s.ToleranceCents > 50 {
		errs = append(errs, fmt.Errorf("tolerance %d cents is out of range (0, 50]", s.ToleranceCents))
	}
	if s.MinHold <= 0 {
		errs = append(errs, fmt.Errorf("minimum hold %v must be positive", s.MinHold))
	}
	if s.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("smoothing window size %d must be at least 1", s.WindowSize))
	}
	if s.StabilityThreshold < 0 {
		errs = append(errs, fmt.Errorf("stability threshold %.2f cents must not be negative", s.StabilityThreshold))
	}
	if s.MinStableSamples < 1 {
		errs = append(errs, fmt.Errorf("minimum stable samples %d must be at least 1", s.MinStableSamples))
	}
	return errors.Join(errs...)
}

// stableSamples is the window fill required before a stability verdict.
func (s Settings) stableSamples() int {
	return min(s.MinStableSamples, s.WindowSize)
}

// Target is what the player must play this round.
type Target struct {
	PitchClass string       // One of the 17 accepted spellings
	String     GuitarString // Empty when no string is suggested
}

// Round is the mutable context of one round. It is owned by a single
// goroutine and passed explicitly into every tick.
type Round struct {
	Target   Target
	Settings Settings

	window *Window
	hold   *HoldTracker
}

// NewRound starts a round. settings must already be valid.
func NewRound(target Target, settings Settings) *Round {
	return &Round{
		Target:   target,
		Settings: settings,
		window:   NewWindow(settings.WindowSize),
		hold:     NewHoldTracker(settings.MinHold),
	}
}

// Reset starts the next round on the same settings.
func (r *Round) Reset(target Target) {
	r.Target = target
	r.window.Reset()
	r.hold.Reset()
}

// Completed reports whether the round has been won.
func (r *Round) Completed() bool {
	return r.hold.State() == Completed
}

// HoldState returns the current phase of the hold gate.
func (r *Round) HoldState() HoldState {
	return r.hold.State()
}

// Window exposes the smoothing window for display.
func (r *Round) Window() *Window {
	return r.window
}
