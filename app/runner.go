// Package app wires capture, frame-rate accounting, input polling and the
// actuation loop into one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soocke/pixel-rcs-go/config"
	"github.com/soocke/pixel-rcs-go/domain/actuation"
	"github.com/soocke/pixel-rcs-go/domain/capture"
	"github.com/soocke/pixel-rcs-go/domain/fps"
	"github.com/soocke/pixel-rcs-go/domain/input"
	"github.com/soocke/pixel-rcs-go/ui/model"
	"github.com/soocke/pixel-rcs-go/ui/presenter"
)

// ErrAlreadyRun is returned by Run on a Runner that already ran.
var ErrAlreadyRun = errors.New("app: runner already ran")

// Deps are the platform collaborators of a run.
type Deps struct {
	Platform capture.Platform
	Actuator actuation.Actuator
	Input    input.Source
	Views    []presenter.StatusView
	Logger   *slog.Logger
	// OnFrame, if set, sees every captured frame on the capture goroutine.
	OnFrame func(*capture.PixelBuffer)
}

// Runner owns one run: the capture goroutine and the actuation loop, coupled
// only through an actuation.ControlState.
type Runner struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	state   *actuation.ControlState
	loop    *actuation.Loop
	service *capture.Service
	monitor *fps.Monitor
	times   *model.ActiveTimeModel
	status  *presenter.StatusPresenter

	ran     atomic.Bool
	started time.Time
	sleep   func(time.Duration)
}

// NewRunner validates deps and builds the components. Nothing touches the
// display until Run.
func NewRunner(cfg *config.Config, deps Deps) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Platform == nil || deps.Actuator == nil || deps.Input == nil {
		return nil, fmt.Errorf("app: platform, actuator and input are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Service treats 0 as its default
	maxRebuilds := cfg.MaxRebuilds
	if maxRebuilds == 0 {
		maxRebuilds = -1
	}
	resetFrames := cfg.RebuildResetFrames
	if resetFrames == 0 {
		resetFrames = -1
	}

	r := &Runner{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		state:  actuation.NewControlState(),
		times:  model.NewActiveTimeModel(),
		sleep:  time.Sleep,
	}
	r.service = capture.NewService(deps.Platform, capture.ServiceOptions{
		Stack: capture.StackOptions{
			Width:          cfg.CaptureWidth,
			Height:         cfg.CaptureHeight,
			AcquireTimeout: cfg.AcquireTimeout(),
		},
		MaxRebuilds:        maxRebuilds,
		RebuildResetFrames: resetFrames,
	}, logger.With("component", "capture"))
	r.monitor = fps.New(fps.Options{Interval: cfg.FPSReportInterval(), History: cfg.FPSHistory})
	r.loop = actuation.NewLoop(r.state, deps.Actuator, actuation.Options{
		Interval: cfg.ActuationInterval(),
		DX:       cfg.ActuationDX,
		DY:       cfg.ActuationDY,
	}, logger.With("component", "actuation"))
	r.status = presenter.NewStatusPresenter(r.times, r.loop, deps.Views...)
	return r, nil
}

// Status exposes the presenter for pull-based views.
func (r *Runner) Status() *presenter.StatusPresenter { return r.status }

// Stop ends the run at the next loop boundary. Safe from any goroutine.
func (r *Runner) Stop() { r.state.Stop() }

// Run blocks until ctx is done, Stop is called or capture fails for good.
// Construction and terminal capture failures are returned; a cancelled
// context is a clean exit.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if !r.ran.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRun
	}
	r.started = time.Now()
	r.logger.Info("run started",
		"acquire_timeout", r.cfg.AcquireTimeout(),
		"interval", r.cfg.ActuationInterval(),
		"dx", r.cfg.ActuationDX, "dy", r.cfg.ActuationDY,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.captureLoop(gctx) })
	g.Go(r.loop.Run)
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-r.loop.Done():
		}
		r.state.Stop()
		return nil
	})
	err := g.Wait()

	sum := r.summary()
	r.logger.Info("run finished", "elapsed", sum.Elapsed.Round(time.Millisecond), "frames", sum.Frames, "moves", sum.Moves)
	return sum, err
}

// captureLoop owns every capture resource and runs on a locked OS thread.
func (r *Runner) captureLoop(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer r.state.Stop()

	if err := r.service.Open(); err != nil {
		r.logger.Error("capture setup failed", "error", err)
		return err
	}
	defer func() {
		if err := r.service.Close(); err != nil {
			r.logger.Debug("capture close", "error", err)
		}
	}()

	first := true
	var enabled bool
	for r.state.Running() {
		if ctx.Err() != nil {
			return nil
		}
		buf, err := r.service.Cycle()
		if err != nil {
			r.logger.Error("capture terminated", "error", err)
			return err
		}
		if buf != nil {
			r.monitor.Tick()
			if r.deps.OnFrame != nil {
				r.deps.OnFrame(buf)
			}
		}

		in := r.deps.Input.Poll()
		active := in.Active()
		if prev := r.state.SetActive(active); prev != active {
			r.logger.Debug("actuation gate", "active", active)
		}
		if first || in.Enabled != enabled {
			r.logger.Info("rcs", "enabled", in.Enabled)
			enabled, first = in.Enabled, false
		}
		now := time.Now()
		r.times.OnTick(active, now)
		r.status.OnInput(in)
		if r.monitor.ShouldReport() {
			if rep, ok := r.monitor.Report(); ok {
				r.status.OnReport(rep, now)
			}
		}

		d := r.cfg.IdleSleep()
		if active {
			d = r.cfg.ActiveSleep()
		}
		if d > 0 {
			r.sleep(d)
		}
	}
	return nil
}

func (r *Runner) summary() Summary {
	stats := r.service.Stats()
	_, total := r.times.Values()
	return Summary{
		Elapsed:     time.Since(r.started),
		Frames:      stats.Frames,
		Timeouts:    stats.Timeouts,
		MapErrors:   stats.MapErrors,
		FatalErrors: stats.FatalErrors,
		Rebuilds:    stats.Rebuilds,
		AvgCapture:  stats.AvgCapture,
		AverageRate: r.monitor.OverallRate(),
		Moves:       r.loop.Events(),
		MoveErrors:  r.loop.Errors(),
		ActiveTime:  total,
		Activations: r.times.Stretches(),
	}
}
