package input

// State is one poll result.
type State struct {
	Enabled     bool
	TriggerHeld bool
	ShowFPS     bool
}

// Active reports whether actuation should run.
func (s State) Active() bool { return s.Enabled && s.TriggerHeld }

// Source is polled by the capture loop at its own cadence.
type Source interface {
	Poll() State
}

// KeyReader reports whether a virtual key is currently down.
type KeyReader interface {
	Down(vk byte) bool
}

// KeyReaderFunc adapts a function to KeyReader.
type KeyReaderFunc func(vk byte) bool

func (f KeyReaderFunc) Down(vk byte) bool { return f(vk) }

// Poller derives State from raw key states. Toggle keys act on the press
// edge so holding them flips the setting once. Not safe for concurrent use.
type Poller struct {
	keys     KeyReader
	bindings Bindings

	enabled bool
	showFPS bool

	prevToggle bool
	prevFPS    bool
}

// NewPoller starts with actuation enabled as given and the FPS display on.
func NewPoller(keys KeyReader, b Bindings, enabled, showFPS bool) *Poller {
	return &Poller{keys: keys, bindings: b, enabled: enabled, showFPS: showFPS}
}

func (p *Poller) Poll() State {
	toggle := p.keys.Down(p.bindings.Toggle)
	if toggle && !p.prevToggle {
		p.enabled = !p.enabled
	}
	p.prevToggle = toggle

	fps := p.keys.Down(p.bindings.FPSToggle)
	if fps && !p.prevFPS {
		p.showFPS = !p.showFPS
	}
	p.prevFPS = fps

	return State{
		Enabled:     p.enabled,
		TriggerHeld: p.keys.Down(p.bindings.Trigger),
		ShowFPS:     p.showFPS,
	}
}

// Static always returns the same State.
type Static State

func (s Static) Poll() State { return State(s) }

var (
	_ Source = (*Poller)(nil)
	_ Source = Static{}
)
