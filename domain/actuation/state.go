// Package actuation runs the periodic relative-move loop gated by shared
// atomic flags.
package actuation

import "sync/atomic"

// ControlState couples the capture loop and the actuation loop. Both flags
// are read and written without locks from either goroutine.
type ControlState struct {
	running atomic.Bool
	active  atomic.Bool
}

// NewControlState returns a running, inactive state.
func NewControlState() *ControlState {
	s := &ControlState{}
	s.running.Store(true)
	return s
}

// Running is true until Stop.
func (s *ControlState) Running() bool { return s.running.Load() }

// Active reports whether actuation is requested.
func (s *ControlState) Active() bool { return s.active.Load() }

// SetActive publishes the activation decision; it returns the previous value.
func (s *ControlState) SetActive(v bool) bool { return s.active.Swap(v) }

// Stop clears running. Only the first call has an effect and reports true.
func (s *ControlState) Stop() bool { return s.running.CompareAndSwap(true, false) }

// State is the observable phase of a Loop.
type State int32

const (
	StateIdle State = iota
	StateActing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateActing:
		return "Acting"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
