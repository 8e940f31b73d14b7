package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	captureStatsLogInterval   = 5 * time.Second
	defaultMaxRebuilds        = 3
	defaultRebuildResetFrames = 600
)

// ErrTerminal is returned by Service.Cycle once capture cannot continue.
var ErrTerminal = errors.New("capture: terminal failure")

// ServiceOptions configures NewService.
type ServiceOptions struct {
	Stack StackOptions
	// MaxRebuilds bounds how often a lost session is recovered by building a
	// new stack. Zero uses the default of 3; negative disables rebuilding.
	MaxRebuilds int
	// RebuildResetFrames restores the full rebuild budget once this many
	// frames were captured since the last rebuild. Zero uses the default of
	// 600; negative makes MaxRebuilds a lifetime budget.
	RebuildResetFrames int
}

// Service applies the per-cycle failure policy on top of a Stack: timeouts
// are silent, map errors skip the cycle, fatal acquisition errors rebuild the
// whole stack. All methods except Stats and LatestFrame must be called from
// the goroutine that owns the capture resources.
type Service struct {
	platform    Platform
	opts        StackOptions
	maxRebuilds int
	resetAfter  int
	logger      *slog.Logger

	stack   *Stack
	lastLog time.Time
	// budgetUsed counts rebuilds since the budget was last restored; streak
	// counts frames since the last rebuild.
	budgetUsed int
	streak     int

	latest       atomic.Pointer[FrameSnapshot]
	frames       atomic.Uint64
	timeouts     atomic.Uint64
	mapErrors    atomic.Uint64
	fatalErrors  atomic.Uint64
	rebuilds     atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

// NewService returns a Service that has not built its stack yet; call Open.
func NewService(p Platform, opts ServiceOptions, logger *slog.Logger) *Service {
	maxRebuilds := opts.MaxRebuilds
	if maxRebuilds == 0 {
		maxRebuilds = defaultMaxRebuilds
	}
	if maxRebuilds < 0 {
		maxRebuilds = 0
	}
	resetAfter := opts.RebuildResetFrames
	if resetAfter == 0 {
		resetAfter = defaultRebuildResetFrames
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		platform:    p,
		opts:        opts.Stack,
		maxRebuilds: maxRebuilds,
		resetAfter:  resetAfter,
		logger:      logger,
	}
}

// Open builds the capture stack. Errors are construction errors.
func (s *Service) Open() error {
	if s.stack != nil {
		return nil
	}
	st, err := NewStack(s.platform, s.opts)
	if err != nil {
		return err
	}
	s.stack = st
	s.logger.Info("capture stack ready",
		"width", st.Width(), "height", st.Height(), "timeout", s.opts.AcquireTimeout)
	return nil
}

// Cycle runs one acquisition. It returns (nil, nil) when there is nothing new
// this cycle and a non-nil error only when capture must stop.
func (s *Service) Cycle() (*PixelBuffer, error) {
	if s.stack == nil {
		return nil, fmt.Errorf("%w: %w", ErrTerminal, ErrClosed)
	}
	start := time.Now()
	buf, err := s.stack.AcquireFrame()
	switch {
	case err == nil:
		s.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
		s.frames.Add(1)
		seq := s.sequence.Add(1)
		s.latest.Store(&FrameSnapshot{
			CapturedAt: time.Now(), Sequence: seq,
			Width: buf.Width, Height: buf.Height, RowPitch: buf.RowPitch,
		})
		s.streak++
		if s.budgetUsed > 0 && s.resetAfter > 0 && s.streak >= s.resetAfter {
			s.logger.Debug("capture rebuild budget restored", "frames", s.streak, "used", s.budgetUsed)
			s.budgetUsed = 0
		}
		s.maybeLogStats()
		return buf, nil
	case errors.Is(err, ErrAcquisitionFatal), errors.Is(err, ErrFrameHeld), errors.Is(err, ErrClosed):
		s.fatalErrors.Add(1)
		s.logger.Warn("capture session lost", "error", err, "rebuilds", s.rebuilds.Load())
		return nil, s.rebuild()
	case errors.Is(err, ErrMap):
		n := s.mapErrors.Add(1)
		s.logger.Warn("capture map failed", "error", err, "count", n)
		return nil, nil
	case IsTransient(err):
		s.timeouts.Add(1)
		s.maybeLogStats()
		return nil, nil
	default:
		s.fatalErrors.Add(1)
		s.logger.Warn("capture cycle failed", "error", err)
		return nil, s.rebuild()
	}
}

// rebuild replaces the stack after a lost session.
func (s *Service) rebuild() error {
	s.streak = 0
	if err := s.stack.Close(); err != nil {
		s.logger.Debug("capture stack close", "error", err)
	}
	s.stack = nil
	if s.budgetUsed >= s.maxRebuilds {
		return fmt.Errorf("%w: session lost after %d rebuilds", ErrTerminal, s.rebuilds.Load())
	}
	s.budgetUsed++
	s.rebuilds.Add(1)
	st, err := NewStack(s.platform, s.opts)
	if err != nil {
		return fmt.Errorf("%w: rebuild: %w", ErrTerminal, err)
	}
	s.stack = st
	s.logger.Info("capture stack rebuilt", "rebuilds", s.rebuilds.Load())
	return nil
}

// HeldFrames reports frames held by the current session.
func (s *Service) HeldFrames() int {
	if s.stack == nil {
		return 0
	}
	return s.stack.HeldFrames()
}

// LatestFrame returns metadata of the last successful acquisition.
func (s *Service) LatestFrame() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

// Stats is safe to call from any goroutine.
func (s *Service) Stats() CaptureStats {
	frames := s.frames.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	if frames > 0 && total > 0 {
		avg = time.Duration(total / frames)
	}
	snapshot := s.LatestFrame()
	age := time.Duration(0)
	if !snapshot.CapturedAt.IsZero() {
		age = time.Since(snapshot.CapturedAt)
	}
	return CaptureStats{
		Frames:         frames,
		Timeouts:       s.timeouts.Load(),
		MapErrors:      s.mapErrors.Load(),
		FatalErrors:    s.fatalErrors.Load(),
		Rebuilds:       s.rebuilds.Load(),
		AvgCapture:     avg,
		LastCapture:    snapshot.CapturedAt,
		LatestFrameAge: age,
		Sequence:       snapshot.Sequence,
	}
}

// Close tears the stack down. It is safe to call more than once.
func (s *Service) Close() error {
	if s.stack == nil {
		return nil
	}
	err := s.stack.Close()
	s.stack = nil
	return err
}

func (s *Service) maybeLogStats() {
	now := time.Now()
	if now.Sub(s.lastLog) < captureStatsLogInterval {
		return
	}
	s.lastLog = now
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"frames", stats.Frames,
		"timeouts", stats.Timeouts,
		"map_errors", stats.MapErrors,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}
