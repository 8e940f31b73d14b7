// Package action emits synthetic pointer input.
package action

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotSupported is returned by NewMouse on platforms without input
// injection.
var ErrNotSupported = errors.New("action: input injection not supported on this OS")

// Actuator emits one relative pointer displacement.
type Actuator interface {
	MoveRelative(dx, dy int) error
}

// Move is one recorded displacement.
type Move struct{ DX, DY int }

// Recorder is an Actuator that only records moves. It backs dry runs.
type Recorder struct {
	count atomic.Uint64
	sumX  atomic.Int64
	sumY  atomic.Int64

	mu   sync.Mutex
	keep int
	last []Move
}

// NewRecorder keeps the keep most recent moves; zero keeps none.
func NewRecorder(keep int) *Recorder {
	return &Recorder{keep: keep}
}

func (r *Recorder) MoveRelative(dx, dy int) error {
	r.count.Add(1)
	r.sumX.Add(int64(dx))
	r.sumY.Add(int64(dy))
	if r.keep <= 0 {
		return nil
	}
	r.mu.Lock()
	if len(r.last) == r.keep {
		r.last = append(r.last[:0], r.last[1:]...)
	}
	r.last = append(r.last, Move{DX: dx, DY: dy})
	r.mu.Unlock()
	return nil
}

// Count of recorded moves.
func (r *Recorder) Count() uint64 { return r.count.Load() }

// Total displacement over all recorded moves.
func (r *Recorder) Total() (dx, dy int64) { return r.sumX.Load(), r.sumY.Load() }

// Recent returns a copy of the retained moves, oldest first.
func (r *Recorder) Recent() []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Move, len(r.last))
	copy(out, r.last)
	return out
}

var _ Actuator = (*Recorder)(nil)
