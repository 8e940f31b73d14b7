package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/soocke/pixel-rcs-go/app"
	"github.com/soocke/pixel-rcs-go/config"
	"github.com/soocke/pixel-rcs-go/debug"
	"github.com/soocke/pixel-rcs-go/domain/action"
	"github.com/soocke/pixel-rcs-go/domain/actuation"
	"github.com/soocke/pixel-rcs-go/domain/capture"
	"github.com/soocke/pixel-rcs-go/domain/input"
	"github.com/soocke/pixel-rcs-go/ui/presenter"
	"github.com/soocke/pixel-rcs-go/ui/view"
	"github.com/soocke/pixel-rcs-go/ui/window"
)

var (
	version = "0.1.0"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:           "pixel-rcs",
	Short:         "Desktop duplication capture with a timed pointer actuation loop",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture the primary output and actuate while active",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return run(cmd.Context(), cfg)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		if src := cfg.Source(); src != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# from %s\n", src)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pixel-rcs v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./pixel-rcs.yaml)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(parent context.Context, cfg *config.Config) error {
	logger := NewLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel, uuid.NewString())
	slog.SetDefault(logger)
	if src := cfg.Source(); src != "" {
		logger.Info("config loaded", "path", src)
	}

	actuator, err := newActuator(cfg)
	if err != nil {
		return err
	}
	source, err := newInputSource(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, 5*time.Second, logger.With("component", "debug"))
		debug.StartProcessLogger(ctx, 5*time.Second, logger.With("component", "debug"))
	}

	views := []presenter.StatusView{view.NewLogView(logger.With("component", "fps"))}
	runner, err := app.NewRunner(cfg, app.Deps{
		Platform: capture.NewPlatform(),
		Actuator: actuator,
		Input:    source,
		Views:    views,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	var sum app.Summary
	if cfg.Window {
		// Tk owns this goroutine; the run moves to a background one.
		w := window.NewStatusWindow("pixel-rcs", cfg.DarkTheme, runner.Stop)
		done := make(chan error, 1)
		go func() {
			var err error
			sum, err = runner.Run(ctx)
			w.Close()
			done <- err
		}()
		w.Run(runner.Status())
		runner.Stop()
		err = <-done
	} else {
		sum, err = runner.Run(ctx)
	}
	fmt.Println(sum.Table())
	return err
}

func newActuator(cfg *config.Config) (actuation.Actuator, error) {
	if cfg.DryRun {
		return action.NewRecorder(0), nil
	}
	m, err := action.NewMouse()
	if err != nil {
		return nil, fmt.Errorf("%w (use --dry-run)", err)
	}
	return m, nil
}

func newInputSource(cfg *config.Config, logger *slog.Logger) (input.Source, error) {
	bindings, err := cfg.Bindings()
	if err != nil {
		return nil, err
	}
	keys, err := input.NewKeyboard()
	if err != nil {
		logger.Warn("key state unavailable, using static input",
			"error", err, "enabled", cfg.StartEnabled, "trigger_held", cfg.HoldTrigger)
		return input.Static{Enabled: cfg.StartEnabled, TriggerHeld: cfg.HoldTrigger, ShowFPS: cfg.ShowFPS}, nil
	}
	return input.NewPoller(keys, bindings, cfg.StartEnabled, cfg.ShowFPS), nil
}
