package view

import (
	"log/slog"

	"github.com/soocke/pixel-rcs-go/ui/presenter"
)

// LogView writes each status as one structured log line.
type LogView struct {
	logger *slog.Logger
}

func NewLogView(logger *slog.Logger) *LogView {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogView{logger: logger}
}

func (v *LogView) ShowStatus(s presenter.Status) {
	if v == nil {
		return
	}
	v.logger.Info("fps",
		slog.Float64("rate", round2(s.Rate)),
		slog.Float64("avg", round2(s.Average)),
		slog.Float64("frame_ms", round2(s.FrameTimeMs)),
		slog.Bool("enabled", s.Enabled),
		slog.String("state", s.Phase.String()),
		slog.Uint64("moves", s.Events),
	)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

var _ presenter.StatusView = (*LogView)(nil)
