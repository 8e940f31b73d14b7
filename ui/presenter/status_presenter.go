package presenter

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-rcs-go/domain/actuation"
	"github.com/soocke/pixel-rcs-go/domain/fps"
	"github.com/soocke/pixel-rcs-go/domain/input"
	"github.com/soocke/pixel-rcs-go/ui/model"
)

// Status is everything a view shows about a run.
type Status struct {
	Rate        float64
	Average     float64
	FrameTimeMs float64
	Reported    bool

	Enabled bool
	Active  bool
	ShowFPS bool
	Phase   actuation.State
	Events  uint64

	Stretch time.Duration
	Total   time.Duration

	UpdatedAt time.Time
}

// RateLine formats the frame-rate part of s.
func (s Status) RateLine() string {
	if !s.Reported {
		return "FPS: --"
	}
	return fmt.Sprintf("FPS: %.1f (avg %.1f, %.2f ms)", s.Rate, s.Average, s.FrameTimeMs)
}

// StateLine formats the actuation part of s.
func (s Status) StateLine() string {
	enabled := "off"
	if s.Enabled {
		enabled = "on"
	}
	return fmt.Sprintf("RCS %s | %s | moves %d", enabled, s.Phase, s.Events)
}

// StatusView receives a Status on every frame-rate report it should show.
type StatusView interface {
	ShowStatus(Status)
}

// ActuationStats is the part of actuation.Loop the presenter reads.
type ActuationStats interface {
	Events() uint64
	State() actuation.State
}

// StatusPresenter turns capture-loop observations into Status values. OnReport
// and OnInput are called from the capture goroutine; Snapshot from any.
type StatusPresenter struct {
	times *model.ActiveTimeModel
	act   ActuationStats
	views []StatusView

	input   atomic.Pointer[input.State]
	lastRep atomic.Pointer[fps.Report]
}

// NewStatusPresenter returns a presenter pushing to views. Any argument may
// be nil.
func NewStatusPresenter(times *model.ActiveTimeModel, act ActuationStats, views ...StatusView) *StatusPresenter {
	return &StatusPresenter{times: times, act: act, views: views}
}

// OnInput records the latest poll result.
func (p *StatusPresenter) OnInput(st input.State) {
	if p == nil {
		return
	}
	p.input.Store(&st)
}

// OnReport publishes a frame-rate report. Views are only notified while the
// FPS display is on.
func (p *StatusPresenter) OnReport(r fps.Report, now time.Time) {
	if p == nil {
		return
	}
	p.lastRep.Store(&r)
	s := p.build(now)
	if !s.ShowFPS {
		return
	}
	for _, v := range p.views {
		if v != nil {
			v.ShowStatus(s)
		}
	}
}

// Snapshot builds the current Status.
func (p *StatusPresenter) Snapshot(now time.Time) Status {
	if p == nil {
		return Status{}
	}
	return p.build(now)
}

func (p *StatusPresenter) build(now time.Time) Status {
	s := Status{UpdatedAt: now}
	if r := p.lastRep.Load(); r != nil {
		s.Rate, s.Average, s.FrameTimeMs, s.Reported = r.Rate, r.Average, r.FrameTimeMs, true
	}
	if in := p.input.Load(); in != nil {
		s.Enabled, s.Active, s.ShowFPS = in.Enabled, in.Active(), in.ShowFPS
	}
	if p.act != nil {
		s.Events = p.act.Events()
		s.Phase = p.act.State()
	}
	s.Stretch, s.Total = p.times.Values()
	return s
}
