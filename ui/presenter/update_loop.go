package presenter

import "time"

// Refresher is a view refreshed by polling rather than by push.
type Refresher interface {
	Refresh(Status)
}

// Loop polls the status presenter and refreshes a view, then invokes a
// scheduler callback. The zero value is usable (methods are nil-safe).
type Loop struct {
	Status   *StatusPresenter
	View     Refresher
	Schedule func()
	now      func() time.Time
}

func NewLoop(status *StatusPresenter, view Refresher, schedule func()) *Loop {
	return &Loop{Status: status, View: view, Schedule: schedule, now: time.Now}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	if l.Status != nil && l.View != nil {
		l.View.Refresh(l.Status.Snapshot(now()))
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
