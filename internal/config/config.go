// Package config holds the notetrainer configuration file format, its
// defaults and validation.
package config

import (
	"time"

	"github.com/0xlemi/notetrainer/internal/game"
	"github.com/0xlemi/notetrainer/internal/pitch"
)

// Config is the root configuration.
type Config struct {
	Game  GameConfig  `yaml:"game"`
	Audio AudioConfig `yaml:"audio"`
	Log   LogConfig   `yaml:"log"`

	// MetricsAddr, when set, serves Prometheus metrics (e.g. ":9464").
	MetricsAddr string `yaml:"metrics_addr"`
}

// GameConfig tunes detection and the hold gate.
type GameConfig struct {
	ReferencePitch     float64       `yaml:"reference_pitch_hz"`
	ToleranceCents     int           `yaml:"tolerance_cents"`
	MinHold            time.Duration `yaml:"min_hold"`
	WindowSize         int           `yaml:"smoothing_window"`
	StabilityThreshold float64       `yaml:"stability_threshold_cents"`
	MinStableSamples   int           `yaml:"min_stable_samples"`
	AdvanceDelay       time.Duration `yaml:"advance_delay"`
	Strings            []string      `yaml:"strings"`

	// Target fixes the pitch class of every round (analyze mode).
	Target string `yaml:"target"`
}

// AudioConfig describes capture and analysis frames.
type AudioConfig struct {
	Estimator     string        `yaml:"estimator"`
	SampleRate    float64       `yaml:"sample_rate"`
	FrameSize     int           `yaml:"frame_size"`
	Channels      int           `yaml:"channels"`
	Amplification float32       `yaml:"amplification"`
	TickInterval  time.Duration `yaml:"tick_interval"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	s := game.DefaultSettings()
	return &Config{
		Game: GameConfig{
			ReferencePitch:     s.ReferencePitch,
			ToleranceCents:     s.ToleranceCents,
			MinHold:            s.MinHold,
			WindowSize:         s.WindowSize,
			StabilityThreshold: s.StabilityThreshold,
			MinStableSamples:   s.MinStableSamples,
			AdvanceDelay:       900 * time.Millisecond,
			Strings:            []string{"E", "A", "D", "G", "B", "e"},
		},
		Audio: AudioConfig{
			Estimator:     pitch.KindAutocorrelation,
			SampleRate:    44100,
			FrameSize:     2048,
			Channels:      1,
			Amplification: 1,
			TickInterval:  16 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Settings converts the game section for the engine.
func (c *Config) Settings() game.Settings {
	return game.Settings{
		ReferencePitch:     c.Game.ReferencePitch,
		ToleranceCents:     c.Game.ToleranceCents,
		MinHold:            c.Game.MinHold,
		WindowSize:         c.Game.WindowSize,
		StabilityThreshold: c.Game.StabilityThreshold,
		MinStableSamples:   c.Game.MinStableSamples,
	}
}
