package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/0xlemi/notetrainer/internal/audio"
	"github.com/0xlemi/notetrainer/internal/config"
	"github.com/0xlemi/notetrainer/internal/game"
	"github.com/0xlemi/notetrainer/internal/observe"
	"github.com/0xlemi/notetrainer/internal/pitch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var hop int

	cmd := &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Run a recording through the game engine",
		Long: "Analyze slices a WAV recording into frames and feeds them to the same\n" +
			"engine the live game uses, printing every detection. With --target it\n" +
			"also reports when a round would have been won.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := observe.NewLogger(cfg.Log.Level, cfg.Log.File)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], hop, logger)
		},
	}

	cmd.Flags().IntVar(&hop, "hop", 0, "samples between frame starts (default half the frame size)")
	return cmd
}

// frameClock is advanced by one hop per frame so that hold times follow
// the recording rather than the wall clock.
type frameClock struct {
	now time.Time
}

func (c *frameClock) Now() time.Time { return c.now }

func runAnalyze(ctx context.Context, w io.Writer, cfg *config.Config, path string, hop int, logger *zap.Logger) error {
	if hop <= 0 {
		hop = cfg.Audio.FrameSize / 2
	}
	src, err := audio.OpenWAV(path, cfg.Audio.FrameSize, hop)
	if err != nil {
		return err
	}
	estimator, err := pitch.New(cfg.Audio.Estimator, cfg.Audio.FrameSize)
	if err != nil {
		return err
	}

	start := time.Unix(0, 0)
	clock := &frameClock{now: start}
	engine := game.NewEngine(estimator, game.WithClock(clock), game.WithLogger(logger))
	round := game.NewRound(game.Target{PitchClass: cfg.Game.Target}, cfg.Settings())
	judged := cfg.Game.Target != ""

	logger.Info("analyzing",
		zap.String("file", path),
		zap.Float64("sample_rate", src.SampleRate()),
		zap.Duration("hop", src.Hop()),
		zap.String("target", cfg.Game.Target),
	)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tNOTE\tHZ\tCENTS\tSTABLE\tSTATUS\tHOLD")

	frames, completions := 0, 0
	for ; ; clock.now = clock.now.Add(src.Hop()) {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		frames++

		res := engine.Tick(ctx, round, frame)
		if !res.Detected {
			continue
		}

		elapsed := clock.now.Sub(start).Seconds()
		status, hold := "-", "-"
		if judged {
			status = res.Status.String()
			hold = fmt.Sprintf("%.0f%%", res.HoldProgress*100)
		}
		fmt.Fprintf(tw, "%.3fs\t%s\t%.2f\t%+d\t%t\t%s\t%s\n",
			elapsed, res.Smoothed, res.Smoothed.Frequency, res.Smoothed.Cents, res.Stable, status, hold)

		if res.RoundJustCompleted {
			completions++
			fmt.Fprintf(tw, "%.3fs\tround completed: %s\t\t\t\t\t\n", elapsed, pitch.DisplayName(round.Target.PitchClass))
			round.Reset(round.Target)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d frames, %d rounds completed\n", frames, completions)
	return nil
}
