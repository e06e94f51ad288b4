package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/0xlemi/notetrainer/internal/game"
	"github.com/0xlemi/notetrainer/internal/pitch"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path over the defaults and validates it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if err := cfg.Settings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("game: %w", err))
	}
	if cfg.Game.AdvanceDelay < 0 {
		errs = append(errs, fmt.Errorf("game.advance_delay %v must not be negative", cfg.Game.AdvanceDelay))
	}
	if _, err := game.ParseStrings(cfg.Game.Strings); err != nil {
		errs = append(errs, fmt.Errorf("game.strings: %w", err))
	}
	if cfg.Game.Target != "" && !pitch.IsPitchClass(cfg.Game.Target) {
		errs = append(errs, fmt.Errorf("game.target %q is not a pitch class", cfg.Game.Target))
	}

	if !slices.Contains([]string{pitch.KindAutocorrelation, pitch.KindFFT}, cfg.Audio.Estimator) {
		errs = append(errs, fmt.Errorf("audio.estimator %q is invalid; valid values: %s, %s",
			cfg.Audio.Estimator, pitch.KindAutocorrelation, pitch.KindFFT))
	}
	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %.0f must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameSize < 256 {
		errs = append(errs, fmt.Errorf("audio.frame_size %d must be at least 256", cfg.Audio.FrameSize))
	}
	if cfg.Audio.Channels < 1 {
		errs = append(errs, fmt.Errorf("audio.channels %d must be at least 1", cfg.Audio.Channels))
	}
	if cfg.Audio.Amplification <= 0 {
		errs = append(errs, fmt.Errorf("audio.amplification %.2f must be positive", cfg.Audio.Amplification))
	}
	if cfg.Audio.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("audio.tick_interval %v must be positive", cfg.Audio.TickInterval))
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	return errors.Join(errs...)
}
