package app

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Summary describes a finished run.
type Summary struct {
	Elapsed     time.Duration
	Frames      uint64
	Timeouts    uint64
	MapErrors   uint64
	FatalErrors uint64
	Rebuilds    uint64
	AvgCapture  time.Duration
	AverageRate float64
	Moves       uint64
	MoveErrors  uint64
	ActiveTime  time.Duration
	Activations int
}

// Table renders the summary for the terminal.
func (s Summary) Table() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("pixel-rcs run")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Elapsed", s.Elapsed.Round(time.Millisecond)},
		{"Frames", s.Frames},
		{"Average FPS", fmt.Sprintf("%.1f", s.AverageRate)},
		{"Avg capture", s.AvgCapture.Round(time.Microsecond)},
		{"Timeouts", s.Timeouts},
		{"Map errors", s.MapErrors},
		{"Fatal errors", s.FatalErrors},
		{"Rebuilds", s.Rebuilds},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Moves", s.Moves},
		{"Move errors", s.MoveErrors},
		{"Active time", s.ActiveTime.Round(time.Millisecond)},
		{"Activations", s.Activations},
	})
	return t.Render()
}
