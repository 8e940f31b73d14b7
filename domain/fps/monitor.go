// Package fps turns capture-loop ticks into rolling frame-rate reports.
package fps

import "time"

const (
	DefaultInterval = time.Second
	DefaultHistory  = 5
)

// Report is one completed reporting interval.
type Report struct {
	// Rate is ticks per second over the interval.
	Rate float64
	// Average is the mean of the retained rates, Rate included.
	Average float64
	// FrameTimeMs is 1000/Rate, 0 when no tick happened.
	FrameTimeMs float64
	Ticks       uint64
	Elapsed     time.Duration
}

// Options configures New. Zero values use the defaults.
type Options struct {
	Interval time.Duration
	History  int
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// Monitor accumulates ticks. It is owned by one goroutine.
type Monitor struct {
	interval time.Duration
	depth    int
	now      func() time.Time

	start   time.Time
	ticks   uint64
	history []float64

	firstTick  time.Time
	totalTicks uint64
	last       Report
	reports    int
}

// New returns a Monitor whose first interval starts now.
func New(opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.History <= 0 {
		opts.History = DefaultHistory
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		interval: opts.Interval,
		depth:    opts.History,
		now:      opts.Now,
		start:    opts.Now(),
		history:  make([]float64, 0, opts.History),
	}
}

// Tick counts one completed capture cycle.
func (m *Monitor) Tick() {
	if m.totalTicks == 0 {
		m.firstTick = m.now()
	}
	m.ticks++
	m.totalTicks++
}

// ShouldReport is true once the reporting interval has elapsed.
func (m *Monitor) ShouldReport() bool {
	return m.now().Sub(m.start) >= m.interval
}

// Report closes the current interval. ok is false, and nothing changes, when
// no time has elapsed since the interval started.
func (m *Monitor) Report() (r Report, ok bool) {
	now := m.now()
	elapsed := now.Sub(m.start)
	if elapsed <= 0 {
		return Report{}, false
	}
	rate := float64(m.ticks) / elapsed.Seconds()
	if len(m.history) == m.depth {
		copy(m.history, m.history[1:])
		m.history = m.history[:m.depth-1]
	}
	m.history = append(m.history, rate)

	var sum float64
	for _, v := range m.history {
		sum += v
	}
	r = Report{
		Rate:    rate,
		Average: sum / float64(len(m.history)),
		Ticks:   m.ticks,
		Elapsed: elapsed,
	}
	if rate > 0 {
		r.FrameTimeMs = 1000 / rate
	}
	m.ticks = 0
	m.start = now
	m.last = r
	m.reports++
	return r, true
}

// History returns a copy of the retained rates, oldest first.
func (m *Monitor) History() []float64 {
	out := make([]float64, len(m.history))
	copy(out, m.history)
	return out
}

// Last returns the most recent report and whether one exists.
func (m *Monitor) Last() (Report, bool) { return m.last, m.reports > 0 }

// TotalTicks counts every tick since New.
func (m *Monitor) TotalTicks() uint64 { return m.totalTicks }

// OverallRate is the tick rate from the first tick until now.
func (m *Monitor) OverallRate() float64 {
	if m.totalTicks == 0 {
		return 0
	}
	d := m.now().Sub(m.firstTick)
	if d <= 0 {
		return 0
	}
	return float64(m.totalTicks) / d.Seconds()
}
