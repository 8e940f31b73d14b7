package actuation

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type countingActuator struct {
	moves atomic.Int64
	dy    atomic.Int64
	err   error
}

func (c *countingActuator) MoveRelative(dx, dy int) error {
	if c.err != nil {
		return c.err
	}
	c.moves.Add(1)
	c.dy.Add(int64(dy))
	return nil
}

// virtualSleep advances a fake clock and stops the state once limit is
// reached.
func virtualSleep(state *ControlState, limit time.Duration) func(time.Duration) {
	var elapsed time.Duration
	return func(d time.Duration) {
		elapsed += d
		if elapsed >= limit {
			state.Stop()
		}
	}
}

func TestLoop_InactiveEmitsNothing(t *testing.T) {
	state := NewControlState()
	act := &countingActuator{}
	l := NewLoop(state, act, Options{DY: 1, Sleep: virtualSleep(state, 200*time.Millisecond)}, discardLogger)
	if err := l.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := act.moves.Load(); n != 0 {
		t.Fatalf("inactive loop emitted moves=%d", n)
	}
	if l.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", l.State())
	}
}

func TestLoop_ActiveEmitsOnePerInterval(t *testing.T) {
	state := NewControlState()
	state.SetActive(true)
	act := &countingActuator{}
	l := NewLoop(state, act, Options{DY: 1, Sleep: virtualSleep(state, 200*time.Millisecond)}, discardLogger)
	if err := l.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := act.moves.Load(); n != 10 {
		t.Fatalf("expected 10 moves in 200ms at 20ms, got %d", n)
	}
	if act.dy.Load() != 10 || l.Events() != 10 {
		t.Fatalf("unexpected totals dy=%d events=%d", act.dy.Load(), l.Events())
	}
}

func TestLoop_RealTimeActiveWindow(t *testing.T) {
	state := NewControlState()
	act := &countingActuator{}
	l := NewLoop(state, act, Options{Interval: 20 * time.Millisecond, DY: 1}, discardLogger)
	go l.Run()

	time.Sleep(100 * time.Millisecond)
	if n := act.moves.Load(); n != 0 {
		t.Fatalf("moves while inactive: %d", n)
	}
	state.SetActive(true)
	time.Sleep(200 * time.Millisecond)
	state.SetActive(false)
	n := act.moves.Load()
	state.Stop()
	<-l.Done()
	// ~10 expected; allow for scheduler jitter
	if n < 8 || n > 12 {
		t.Fatalf("expected about 10 moves, got %d", n)
	}
}

func TestLoop_StopJoinsWithinInterval(t *testing.T) {
	state := NewControlState()
	state.SetActive(true)
	l := NewLoop(state, &countingActuator{}, Options{Interval: 20 * time.Millisecond}, discardLogger)
	go l.Run()
	time.Sleep(50 * time.Millisecond)

	stopped := time.Now()
	if !state.Stop() {
		t.Fatalf("first stop should transition")
	}
	select {
	case <-l.Done():
	case <-time.After(20*time.Millisecond + 80*time.Millisecond):
		t.Fatalf("loop did not exit within one interval of stop")
	}
	if d := time.Since(stopped); d > 100*time.Millisecond {
		t.Fatalf("exit took %v", d)
	}
	if state.Stop() {
		t.Fatalf("second stop must be a no-op")
	}
	if state.Running() {
		t.Fatalf("running must never return to true")
	}
}

func TestLoop_RunOnce(t *testing.T) {
	state := NewControlState()
	state.Stop()
	l := NewLoop(state, &countingActuator{}, Options{}, discardLogger)
	if err := l.Run(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := l.Run(); !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("expected ErrAlreadyRun, got %v", err)
	}
	if l.Interval() != DefaultInterval {
		t.Fatalf("expected default interval, got %v", l.Interval())
	}
}

func TestLoop_ActuatorErrorsCounted(t *testing.T) {
	state := NewControlState()
	state.SetActive(true)
	act := &countingActuator{err: errors.New("blocked")}
	l := NewLoop(state, act, Options{Sleep: virtualSleep(state, 60*time.Millisecond)}, discardLogger)
	_ = l.Run()
	if l.Errors() != 3 || l.Events() != 0 {
		t.Fatalf("expected 3 errors 0 events, got errors=%d events=%d", l.Errors(), l.Events())
	}
}

func TestControlState_SetActiveReturnsPrevious(t *testing.T) {
	s := NewControlState()
	if s.Active() || !s.Running() {
		t.Fatalf("unexpected initial state active=%v running=%v", s.Active(), s.Running())
	}
	if prev := s.SetActive(true); prev {
		t.Fatalf("expected previous false")
	}
	if prev := s.SetActive(false); !prev {
		t.Fatalf("expected previous true")
	}
}

func TestState_String(t *testing.T) {
	for st, want := range map[State]string{StateIdle: "Idle", StateActing: "Acting", StateStopped: "Stopped", State(9): "Unknown"} {
		if got := st.String(); got != want {
			t.Fatalf("State(%d).String()=%q want %q", st, got, want)
		}
	}
}
