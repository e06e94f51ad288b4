package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xlemi/notetrainer/internal/audio"
	"github.com/0xlemi/notetrainer/internal/config"
	"github.com/0xlemi/notetrainer/internal/game"
	"github.com/0xlemi/notetrainer/internal/observe"
	"github.com/0xlemi/notetrainer/internal/pitch"
	"github.com/0xlemi/notetrainer/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultLogFile = "notetrainer.log"

func newPlayCmd(opts *options) *cobra.Command {
	var (
		metricsAddr string
		demo        float64
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the game with live microphone input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd.Flags())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			// The TUI owns the terminal.
			if cfg.Log.File == "" {
				cfg.Log.File = defaultLogFile
			}

			logger, err := observe.NewLogger(cfg.Log.Level, cfg.Log.File)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runPlay(cmd.Context(), cfg, demo, logger)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	cmd.Flags().Float64Var(&demo, "demo", 0, "play a synthetic tone of this frequency instead of using the microphone")
	return cmd
}

func runPlay(ctx context.Context, cfg *config.Config, demo float64, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsHandler http.Handler
	if cfg.MetricsAddr != "" {
		handler, shutdown, err := observe.InitProvider(version)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
		metricsHandler = handler
	}

	capturer, err := newCapturer(cfg, demo)
	if err != nil {
		return err
	}
	if err := capturer.Start(); err != nil {
		return err
	}
	defer func() {
		if err := capturer.Stop(); err != nil {
			logger.Warn("stop capture", zap.Error(err))
		}
	}()

	estimator, err := pitch.New(cfg.Audio.Estimator, cfg.Audio.FrameSize)
	if err != nil {
		return err
	}
	strs, err := game.ParseStrings(cfg.Game.Strings)
	if err != nil {
		return err
	}
	picker := game.NewPicker(nil, strs)
	picker.Fix(cfg.Game.Target)

	engine := game.NewEngine(estimator, game.WithLogger(logger))

	var program *tea.Program
	loop := game.NewLoop(engine, capturer, picker, func(u game.Update) {
		program.Send(ui.UpdateMsg(u))
	}, game.LoopConfig{
		Settings:     cfg.Settings(),
		Interval:     cfg.Audio.TickInterval,
		AdvanceDelay: cfg.Game.AdvanceDelay,
		Logger:       logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	program = tea.NewProgram(ui.NewModel(loop.Send), tea.WithAltScreen(), tea.WithContext(ctx))

	logger.Info("notetrainer starting",
		zap.String("version", version),
		zap.String("estimator", cfg.Audio.Estimator),
		zap.Float64("sample_rate", cfg.Audio.SampleRate),
		zap.Int("frame_size", cfg.Audio.FrameSize),
		zap.Float64("demo_hz", demo),
	)

	g.Go(func() error {
		return loop.Run(ctx)
	})

	g.Go(func() error {
		// Quitting the UI stops everything else.
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	if metricsHandler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("notetrainer stopped", zap.Int("score", loop.Score()))
	return err
}

func newCapturer(cfg *config.Config, demo float64) (audio.Capturer, error) {
	if demo > 0 {
		return audio.NewToneCapturer(cfg.Audio.FrameSize, cfg.Audio.SampleRate, demo), nil
	}

	c, err := audio.NewPortAudioCapturer(cfg.Audio.FrameSize, cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		return nil, fmt.Errorf("create audio capturer: %w", err)
	}
	c.SetAmplification(cfg.Audio.Amplification)
	return c, nil
}
