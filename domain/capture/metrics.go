package capture

import "time"

// FrameSnapshot describes the most recent successful acquisition.
type FrameSnapshot struct {
	CapturedAt time.Time
	Sequence   uint64
	Width      int
	Height     int
	RowPitch   int
}

// CaptureStats summarises capture loop behaviour for instrumentation.
type CaptureStats struct {
	Frames         uint64
	Timeouts       uint64
	MapErrors      uint64
	FatalErrors    uint64
	Rebuilds       uint64
	AvgCapture     time.Duration
	LastCapture    time.Time
	LatestFrameAge time.Duration
	Sequence       uint64
}
