package presenter

import (
	"strings"
	"testing"
	"time"

	"github.com/soocke/pixel-rcs-go/domain/actuation"
	"github.com/soocke/pixel-rcs-go/domain/fps"
	"github.com/soocke/pixel-rcs-go/domain/input"
	"github.com/soocke/pixel-rcs-go/ui/model"
)

type mockView struct{ shown []Status }

func (v *mockView) ShowStatus(s Status) { v.shown = append(v.shown, s) }

type mockActuation struct {
	events uint64
	state  actuation.State
}

func (m *mockActuation) Events() uint64         { return m.events }
func (m *mockActuation) State() actuation.State { return m.state }

func TestStatusPresenter_ReportRespectsFPSToggle(t *testing.T) {
	view := &mockView{}
	act := &mockActuation{events: 7, state: actuation.StateActing}
	p := NewStatusPresenter(model.NewActiveTimeModel(), act, view)
	now := time.Unix(100, 0)

	p.OnInput(input.State{Enabled: true, TriggerHeld: true, ShowFPS: true})
	p.OnReport(fps.Report{Rate: 60, Average: 58, FrameTimeMs: 16.67}, now)
	if len(view.shown) != 1 {
		t.Fatalf("expected one status pushed, got %d", len(view.shown))
	}
	s := view.shown[0]
	if !s.Reported || s.Rate != 60 || !s.Active || s.Events != 7 || s.Phase != actuation.StateActing {
		t.Fatalf("unexpected status %+v", s)
	}

	p.OnInput(input.State{Enabled: true, ShowFPS: false})
	p.OnReport(fps.Report{Rate: 30}, now.Add(time.Second))
	if len(view.shown) != 1 {
		t.Fatalf("hidden FPS display must not push, got %d", len(view.shown))
	}
	if snap := p.Snapshot(now.Add(time.Second)); snap.Rate != 30 || snap.Active {
		t.Fatalf("snapshot should still track state, got %+v", snap)
	}
}

func TestStatus_Lines(t *testing.T) {
	var s Status
	if got := s.RateLine(); got != "FPS: --" {
		t.Fatalf("unexpected empty rate line %q", got)
	}
	s = Status{Reported: true, Rate: 60, Average: 59.5, FrameTimeMs: 16.666, Enabled: true, Phase: actuation.StateIdle, Events: 3}
	if got := s.RateLine(); got != "FPS: 60.0 (avg 59.5, 16.67 ms)" {
		t.Fatalf("unexpected rate line %q", got)
	}
	if got := s.StateLine(); !strings.Contains(got, "RCS on") || !strings.Contains(got, "Idle") {
		t.Fatalf("unexpected state line %q", got)
	}
}

type mockRefresher struct{ n int }

func (r *mockRefresher) Refresh(Status) { r.n++ }

func TestLoop_TickRefreshesAndSchedules(t *testing.T) {
	r := &mockRefresher{}
	scheduled := 0
	l := NewLoop(NewStatusPresenter(nil, nil), r, func() { scheduled++ })
	l.Tick()
	l.Tick()
	if r.n != 2 || scheduled != 2 {
		t.Fatalf("expected 2 refreshes and schedules, got %d %d", r.n, scheduled)
	}
	var nilLoop *Loop
	nilLoop.Tick()
}
