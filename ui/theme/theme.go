package theme

// Palette and ttk styles for the status window. Light and dark variants
// share style names so widgets never need reconfiguring on a mode switch.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff" // panels, cards
	ColorBorder    = "#d0d7de"
	ColorDanger    = "#dc2626"
	ColorAccent    = "#10b981" // acting
	ColorIdle      = "#64748b"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
)

// PaletteSnapshot represents resolved colors for the active mode.
type PaletteSnapshot struct {
	AppBg   string
	Surface string
	Danger  string
	Accent  string
	Idle    string
	Text    string
}

// style names used with Style("danger.TButton") etc.
const (
	StyleDangerButton = "danger.TButton"
	StyleStateLabel   = "state.TLabel"
	StyleActingLabel  = "acting.TLabel"
)

var darkMode bool

// CurrentPalette returns colors for the current dark/light mode.
func CurrentPalette() PaletteSnapshot { return palette(darkMode) }

func palette(dark bool) PaletteSnapshot {
	if dark {
		return PaletteSnapshot{
			AppBg:   "#0f172a",
			Surface: "#1e293b",
			Danger:  "#ef4444",
			Accent:  "#10b981",
			Idle:    "#334155",
			Text:    "#f1f5f9",
		}
	}
	return PaletteSnapshot{
		AppBg:   ColorBg,
		Surface: ColorSurface,
		Danger:  ColorDanger,
		Accent:  ColorAccent,
		Idle:    ColorIdle,
		Text:    ColorText,
	}
}

// SetDark selects the mode and reapplies styles. Returns new mode value.
func SetDark(dark bool) bool {
	darkMode = dark
	applyStyles(palette(dark))
	return darkMode
}

// IsDark reports current mode.
func IsDark() bool { return darkMode }

func applyStyles(p PaletteSnapshot) {
	_ = ActivateTheme("azure light") // baseline metrics
	App.Configure(Background(p.AppBg))

	StyleConfigure(StyleDangerButton,
		Background(p.Danger),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleStateLabel,
		Foreground("white"),
		Background(p.Idle),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)
	StyleConfigure(StyleActingLabel,
		Foreground("white"),
		Background(p.Accent),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)
}
