package debug

// Process RSS/CPU logger enabled when config.Debug is true. Logs resident set
// size and CPU share next to Go heap stats to correlate native and heap
// growth, e.g. from leaked duplication frames or staging maps.

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSample is one measurement of this process.
type ProcessSample struct {
	RSS        uint64
	VMS        uint64
	CPUPercent float64
	Threads    int32
	HeapAlloc  uint64
	NumGC      uint32
}

// SampleProcess measures the current process once.
func SampleProcess(ctx context.Context) (ProcessSample, error) {
	var s ProcessSample
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc, s.NumGC = ms.HeapAlloc, ms.NumGC

	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return s, err
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return s, err
	}
	s.RSS, s.VMS = mem.RSS, mem.VMS
	if cpu, err := p.PercentWithContext(ctx, 0); err == nil {
		s.CPUPercent = cpu
	}
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		s.Threads = n
	}
	return s, nil
}

// StartProcessLogger logs a ProcessSample every interval until ctx is done.
// Failures are logged once and then suppressed.
func StartProcessLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var errLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s, err := SampleProcess(ctx)
			if err != nil {
				if !errLogged {
					logger.Warn("process sample failed", slog.String("err", err.Error()))
					errLogged = true
				}
				continue
			}
			logger.Info("memstats",
				slog.Uint64("rss", s.RSS),
				slog.Uint64("vms", s.VMS),
				slog.Float64("cpu_percent", s.CPUPercent),
				slog.Int("threads", int(s.Threads)),
				slog.Uint64("heap_alloc", s.HeapAlloc),
				slog.Uint64("num_gc", uint64(s.NumGC)),
			)
		}
	}()
}
