package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-rcs-go/config"
	"github.com/soocke/pixel-rcs-go/domain/action"
	"github.com/soocke/pixel-rcs-go/domain/capture"
	"github.com/soocke/pixel-rcs-go/domain/input"
	"github.com/soocke/pixel-rcs-go/ui/presenter"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// stubPlatform yields a 4x2 frame on every acquire unless acquireErr is set.
type stubPlatform struct {
	createErr  error
	acquireErr error
	mu         sync.Mutex
	devices    int
}

func (p *stubPlatform) ScreenSize() (int, int, error) { return 4, 2, nil }

func (p *stubPlatform) CreateDevice() (capture.GPUDevice, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.mu.Lock()
	p.devices++
	p.mu.Unlock()
	return &stubGPU{p: p}, nil
}

type stubGPU struct{ p *stubPlatform }

func (g *stubGPU) CreateStaging(w, h int) (capture.StagingSurface, error) {
	return &stubStaging{pix: make([]byte, 16*h)}, nil
}

func (g *stubGPU) DuplicateOutput(int) (capture.Duplication, error) { return &stubDup{p: g.p}, nil }
func (g *stubGPU) Close() error                                     { return nil }

type stubDup struct{ p *stubPlatform }

func (d *stubDup) AcquireNextFrame(time.Duration) (capture.FrameResource, error) {
	if d.p.acquireErr != nil {
		return nil, d.p.acquireErr
	}
	return stubFrame{}, nil
}
func (d *stubDup) ReleaseFrame() error { return nil }
func (d *stubDup) Close() error        { return nil }

type stubFrame struct{}

func (stubFrame) Close() error { return nil }

type stubStaging struct{ pix []byte }

func (s *stubStaging) CopyFrom(capture.FrameResource) error { return nil }
func (s *stubStaging) Map() (capture.Mapping, error) {
	return capture.Mapping{Data: unsafe.Pointer(&s.pix[0]), RowPitch: 16, Len: len(s.pix)}, nil
}
func (s *stubStaging) Unmap()       {}
func (s *stubStaging) Close() error { return nil }

type statusSink struct {
	mu    sync.Mutex
	shown []presenter.Status
}

func (s *statusSink) ShowStatus(st presenter.Status) {
	s.mu.Lock()
	s.shown = append(s.shown, st)
	s.mu.Unlock()
}

func (s *statusSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shown)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.IdleSleepMs = 1
	cfg.ActiveSleepMs = 1
	cfg.ActuationIntervalMs = 5
	cfg.FPSReportIntervalMs = 20
	return cfg
}

func TestRunner_ActiveRunMovesAndReports(t *testing.T) {
	rec := action.NewRecorder(0)
	sink := &statusSink{}
	var frames int
	r, err := NewRunner(testConfig(), Deps{
		Platform: &stubPlatform{},
		Actuator: rec,
		Input:    input.Static{Enabled: true, TriggerHeld: true, ShowFPS: true},
		Views:    []presenter.StatusView{sink},
		Logger:   discardLogger,
		OnFrame:  func(b *capture.PixelBuffer) { frames++ },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	sum, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Positive(t, sum.Frames)
	assert.Equal(t, uint64(frames), sum.Frames)
	assert.Positive(t, sum.Moves)
	assert.Equal(t, rec.Count(), sum.Moves)
	_, dy := rec.Total()
	assert.Equal(t, int64(sum.Moves), dy)
	assert.Positive(t, sink.count(), "expected at least one fps report")
	assert.Equal(t, 1, sum.Activations)
	assert.Contains(t, sum.Table(), "Moves")

	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestRunner_InactiveInputNeverMoves(t *testing.T) {
	rec := action.NewRecorder(0)
	r, err := NewRunner(testConfig(), Deps{
		Platform: &stubPlatform{},
		Actuator: rec,
		Input:    input.Static{Enabled: false, TriggerHeld: true},
		Logger:   discardLogger,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	sum, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, rec.Count())
	assert.Zero(t, sum.Moves)
}

func TestRunner_ConstructionErrorIsTerminal(t *testing.T) {
	r, err := NewRunner(testConfig(), Deps{
		Platform: &stubPlatform{createErr: errors.New("no adapter")},
		Actuator: action.NewRecorder(0),
		Input:    input.Static{},
		Logger:   discardLogger,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, capture.ErrDeviceCreation)
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after construction failure")
	}
}

func TestRunner_RebuildExhaustionIsTerminal(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRebuilds = 1
	p := &stubPlatform{acquireErr: errors.New("access lost")}
	r, err := NewRunner(cfg, Deps{Platform: p, Actuator: action.NewRecorder(0), Input: input.Static{}, Logger: discardLogger})
	require.NoError(t, err)

	sum, err := r.Run(context.Background())
	assert.ErrorIs(t, err, capture.ErrTerminal)
	assert.Equal(t, uint64(1), sum.Rebuilds)
	assert.Equal(t, uint64(2), sum.FatalErrors)
	assert.Equal(t, 2, p.devices)
}

func TestRunner_StopEndsRun(t *testing.T) {
	r, err := NewRunner(testConfig(), Deps{Platform: &stubPlatform{}, Actuator: action.NewRecorder(0), Input: input.Static{}, Logger: discardLogger})
	require.NoError(t, err)
	go func() {
		time.Sleep(30 * time.Millisecond)
		r.Stop()
	}()
	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not end the run")
	}
}

func TestNewRunner_RequiresDeps(t *testing.T) {
	_, err := NewRunner(nil, Deps{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "required"))
}
