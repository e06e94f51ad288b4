// Command notetrainer is a fretboard note-finding game: it names a pitch
// class and a guitar string, listens to the microphone and scores a round
// once the right note is held steadily in tune.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/0xlemi/notetrainer/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "dev"

// options holds the flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	logFile    string

	reference float64
	tolerance int
	hold      time.Duration
	window    int
	stability float64
	estimator string
	strings   []string
	target    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "notetrainer: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "notetrainer",
		Short:         "Learn the fretboard by ear",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	d := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", d.Log.Level, "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.Float64Var(&opts.reference, "reference", d.Game.ReferencePitch, "A4 reference pitch in Hz")
	pf.IntVar(&opts.tolerance, "tolerance", d.Game.ToleranceCents, "accepted deviation in cents (1-50)")
	pf.DurationVar(&opts.hold, "hold", d.Game.MinHold, "how long the note must be held")
	pf.IntVar(&opts.window, "window", d.Game.WindowSize, "number of readings in the smoothing window")
	pf.Float64Var(&opts.stability, "stability", d.Game.StabilityThreshold, "maximum cents deviation across the window")
	pf.StringVar(&opts.estimator, "estimator", d.Audio.Estimator, "pitch estimator (autocorrelation, fft)")
	pf.StringSliceVar(&opts.strings, "strings", d.Game.Strings, "enabled guitar strings")
	pf.StringVar(&opts.target, "target", "", "fix the target pitch class, e.g. Bb")

	root.AddCommand(newPlayCmd(opts), newAnalyzeCmd(opts))
	return root
}

// load reads the config file, if any, and applies explicitly set flags
// over it.
func (o *options) load(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if flags.Changed("reference") {
		cfg.Game.ReferencePitch = o.reference
	}
	if flags.Changed("tolerance") {
		cfg.Game.ToleranceCents = o.tolerance
	}
	if flags.Changed("hold") {
		cfg.Game.MinHold = o.hold
	}
	if flags.Changed("window") {
		cfg.Game.WindowSize = o.window
	}
	if flags.Changed("stability") {
		cfg.Game.StabilityThreshold = o.stability
	}
	if flags.Changed("estimator") {
		cfg.Audio.Estimator = o.estimator
	}
	if flags.Changed("strings") {
		cfg.Game.Strings = o.strings
	}
	if flags.Changed("target") {
		cfg.Game.Target = o.target
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
