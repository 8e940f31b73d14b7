package model

import (
	"sync"
	"time"
)

// ActiveTimeModel tracks how long actuation has been active in the current
// stretch and in total. The capture loop feeds it; views poll Values.
// The zero value is ready to use.
type ActiveTimeModel struct {
	mu          sync.Mutex
	active      bool
	activeStart time.Time
	lastStretch time.Duration
	accumulated time.Duration
	stretches   int
}

// NewActiveTimeModel returns a pointer to a ready-to-use ActiveTimeModel.
func NewActiveTimeModel() *ActiveTimeModel { return &ActiveTimeModel{} }

// OnTick updates the model with the current activation state.
func (m *ActiveTimeModel) OnTick(active bool, now time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if active {
		if !m.active { // off -> on
			m.active = true
			m.activeStart = now
			m.lastStretch = 0
			m.stretches++
		}
		m.lastStretch = now.Sub(m.activeStart)
	} else if m.active { // on -> off
		m.lastStretch = now.Sub(m.activeStart)
		m.accumulated += m.lastStretch
		m.active = false
	}
}

// Values returns the current (or last) stretch and the total active time.
// The total includes the ongoing stretch.
func (m *ActiveTimeModel) Values() (stretch, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stretch = m.lastStretch
	total = m.accumulated
	if m.active {
		total += stretch
	}
	return
}

// Stretches counts off -> on transitions.
func (m *ActiveTimeModel) Stretches() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stretches
}
