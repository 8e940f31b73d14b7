package window

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-rcs-go/ui/presenter"
	"github.com/soocke/pixel-rcs-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const refreshInterval = 100 * time.Millisecond

// StatusWindow is a small always-on-top Tk window showing the run status.
// All methods except Close must run on the Tk goroutine.
type StatusWindow struct {
	rateLbl  *LabelWidget
	stateLbl *TLabelWidget
	timeLbl  *LabelWidget
	afterID  string
	loop     *presenter.Loop
	onExit   func()
	closed   bool
	closeReq atomic.Bool
}

// NewStatusWindow builds the widgets. onExit runs once when the window is
// closed by the user.
func NewStatusWindow(title string, dark bool, onExit func()) *StatusWindow {
	w := &StatusWindow{onExit: onExit}
	theme.SetDark(dark)
	App.WmTitle(title)
	WmGeometry(App, "320x110+40+40")
	WmAttributes(App, "-topmost", 1)
	WmProtocol(App, "WM_DELETE_WINDOW", w.exit)

	w.rateLbl = Label(Txt("FPS: --"), Width(34), Anchor("w"))
	Grid(w.rateLbl, Row(0), Column(0), Sticky("we"), Padx("1m"), Pady("0.5m"))
	w.stateLbl = TLabel(Txt("RCS --"), Style(theme.StyleStateLabel), Width(34))
	Grid(w.stateLbl, Row(1), Column(0), Sticky("we"), Padx("1m"), Pady("0.5m"))
	w.timeLbl = Label(Txt("Active: 00:00  Total: 00:00"), Width(34), Anchor("w"))
	Grid(w.timeLbl, Row(2), Column(0), Sticky("we"), Padx("1m"), Pady("0.5m"))
	exitBtn := TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(w.exit))
	Grid(exitBtn, Row(3), Column(0), Sticky("e"), Padx("1m"), Pady("0.5m"))
	return w
}

// Run refreshes from status every 100ms and blocks until the window closes.
func (w *StatusWindow) Run(status *presenter.StatusPresenter) {
	w.loop = presenter.NewLoop(status, w, w.schedule)
	w.schedule()
	App.Wait()
}

func (w *StatusWindow) schedule() {
	if w.closed {
		return
	}
	w.afterID = TclAfter(refreshInterval, func() {
		if w.closeReq.Load() {
			w.exit()
			return
		}
		w.loop.Tick()
	})
}

// Refresh updates the labels.
func (w *StatusWindow) Refresh(s presenter.Status) {
	if w == nil || w.closed {
		return
	}
	rate := "FPS: hidden"
	if s.ShowFPS {
		rate = s.RateLine()
	}
	w.rateLbl.Configure(Txt(rate))
	style := theme.StyleStateLabel
	if s.Active {
		style = theme.StyleActingLabel
	}
	w.stateLbl.Configure(Txt(s.StateLine()), Style(style))
	w.timeLbl.Configure(Txt(fmt.Sprintf("Active: %s  Total: %s", mmss(s.Stretch), mmss(s.Total))))
}

func (w *StatusWindow) exit() {
	if w.closed {
		return
	}
	w.closed = true
	if w.afterID != "" {
		TclAfterCancel(w.afterID)
	}
	if w.onExit != nil {
		w.onExit()
	}
	Destroy(App)
}

// Close asks the window to close on its next refresh. Safe from any
// goroutine.
func (w *StatusWindow) Close() { w.closeReq.Store(true) }

func mmss(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

var _ presenter.Refresher = (*StatusWindow)(nil)
