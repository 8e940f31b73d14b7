package actuation

import (
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

const (
	DefaultInterval = 20 * time.Millisecond
	// failures are logged on the first occurrence and then every n-th
	errorLogEvery = 100
)

// ErrAlreadyRun is returned when Run is called on a Loop a second time.
var ErrAlreadyRun = errors.New("actuation: loop already run")

// Actuator emits one relative displacement.
type Actuator interface {
	MoveRelative(dx, dy int) error
}

// Options configures NewLoop.
type Options struct {
	Interval time.Duration
	DX, DY   int
	// Sleep replaces time.Sleep, for tests.
	Sleep func(time.Duration)
}

// Loop emits one move of (DX, DY) per interval while the shared state is
// active. It stops at the first iteration boundary after ControlState.Stop;
// an in-progress sleep is never interrupted.
type Loop struct {
	state    *ControlState
	act      Actuator
	interval time.Duration
	dx, dy   int
	sleep    func(time.Duration)
	logger   *slog.Logger

	started atomic.Bool
	phase   atomic.Int32
	events  atomic.Uint64
	errs    atomic.Uint64
	done    chan struct{}
}

// NewLoop wires a loop to state and act. A nil logger uses slog.Default.
func NewLoop(state *ControlState, act Actuator, opts Options, logger *slog.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		state:    state,
		act:      act,
		interval: opts.Interval,
		dx:       opts.DX,
		dy:       opts.DY,
		sleep:    opts.Sleep,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Run blocks on the calling goroutine, locked to its OS thread, until the
// shared state stops running.
func (l *Loop) Run() error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)
	defer l.phase.Store(int32(StateStopped))

	l.logger.Debug("actuation loop started", "interval", l.interval, "dx", l.dx, "dy", l.dy)
	for l.state.Running() {
		if l.state.Active() {
			l.phase.Store(int32(StateActing))
			l.emit()
		} else {
			l.phase.Store(int32(StateIdle))
		}
		l.sleep(l.interval)
	}
	l.logger.Debug("actuation loop stopped", "events", l.events.Load(), "errors", l.errs.Load())
	return nil
}

func (l *Loop) emit() {
	if err := l.act.MoveRelative(l.dx, l.dy); err != nil {
		n := l.errs.Add(1)
		if n == 1 || n%errorLogEvery == 0 {
			l.logger.Warn("actuation move failed", "error", err, "count", n)
		}
		return
	}
	l.events.Add(1)
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Events counts successful moves.
func (l *Loop) Events() uint64 { return l.events.Load() }

// Errors counts failed moves.
func (l *Loop) Errors() uint64 { return l.errs.Load() }

// State reports the phase of the last iteration. A loop that never ran is
// Idle.
func (l *Loop) State() State { return State(l.phase.Load()) }

// Interval between iterations.
func (l *Loop) Interval() time.Duration { return l.interval }
