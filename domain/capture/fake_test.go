package capture

import (
	"errors"
	"log/slog"
	"time"
	"unsafe"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

var errFake = errors.New("fake platform failure")

// fakePlatform emulates a duplication backend in host memory. Rows are
// padded to pitch bytes and every pixel encodes its coordinates and the
// frame sequence. Staging receives the top-left region of the source.
type fakePlatform struct {
	width, height int
	pitch         int

	screenErr  error
	createErr  error
	stagingErr error
	dupErr     error
	copyErr    error
	mapErr     error
	releaseErr error
	// acquire decides the outcome of the n-th AcquireNextFrame call (0-based,
	// counted across devices). nil always yields a frame.
	acquire func(n int) error

	devices  int
	acquires int
	held     int
	log      []string
	lastGPU  *fakeGPU
}

func newFakePlatform(w, h int) *fakePlatform {
	return &fakePlatform{width: w, height: h, pitch: alignTo(w*BytesPerPixel, 64)}
}

func alignTo(n, a int) int { return (n + a - 1) / a * a }

func (p *fakePlatform) ScreenSize() (int, int, error) {
	if p.screenErr != nil {
		return 0, 0, p.screenErr
	}
	return p.width, p.height, nil
}

func (p *fakePlatform) CreateDevice() (GPUDevice, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.devices++
	g := &fakeGPU{p: p}
	p.lastGPU = g
	return g, nil
}

type fakeGPU struct {
	p      *fakePlatform
	closed bool
}

func (g *fakeGPU) CreateStaging(w, h int) (StagingSurface, error) {
	if g.p.stagingErr != nil {
		return nil, g.p.stagingErr
	}
	pitch := g.p.pitch
	if pitch < w*BytesPerPixel {
		pitch = w * BytesPerPixel
	}
	return &fakeStaging{p: g.p, pix: make([]byte, pitch*h), pitch: pitch, w: w, h: h}, nil
}

func (g *fakeGPU) DuplicateOutput(output int) (Duplication, error) {
	if g.p.dupErr != nil {
		return nil, g.p.dupErr
	}
	return &fakeDup{p: g.p}, nil
}

func (g *fakeGPU) Close() error {
	g.closed = true
	g.p.log = append(g.p.log, "device")
	return nil
}

type fakeDup struct {
	p      *fakePlatform
	closed bool
}

func (d *fakeDup) AcquireNextFrame(timeout time.Duration) (FrameResource, error) {
	n := d.p.acquires
	d.p.acquires++
	if d.p.acquire != nil {
		if err := d.p.acquire(n); err != nil {
			return nil, err
		}
	}
	d.p.held++
	return &fakeFrame{seq: n, w: d.p.width, h: d.p.height}, nil
}

func (d *fakeDup) ReleaseFrame() error {
	d.p.held--
	return d.p.releaseErr
}

func (d *fakeDup) Close() error {
	d.closed = true
	d.p.log = append(d.p.log, "duplication")
	return nil
}

type fakeFrame struct {
	seq  int
	w, h int
}

func (f *fakeFrame) Close() error { return nil }

type fakeStaging struct {
	p      *fakePlatform
	pix    []byte
	pitch  int
	w, h   int
	mapped bool
}

func (s *fakeStaging) CopyFrom(frame FrameResource) error {
	if s.p.copyErr != nil {
		return s.p.copyErr
	}
	f := frame.(*fakeFrame)
	// like a D3D region copy, a source smaller than staging is dropped
	// silently and staging keeps its previous content
	if s.w > f.w || s.h > f.h {
		return nil
	}
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			i := y*s.pitch + x*BytesPerPixel
			s.pix[i+0] = byte(x)
			s.pix[i+1] = byte(y)
			s.pix[i+2] = byte(f.seq)
			s.pix[i+3] = 0
		}
	}
	return nil
}

func (s *fakeStaging) Map() (Mapping, error) {
	if s.p.mapErr != nil {
		return Mapping{}, s.p.mapErr
	}
	s.mapped = true
	return Mapping{Data: unsafe.Pointer(&s.pix[0]), RowPitch: s.pitch, Len: len(s.pix)}, nil
}

func (s *fakeStaging) Unmap() { s.mapped = false }

func (s *fakeStaging) Close() error {
	s.p.log = append(s.p.log, "staging")
	return nil
}

func timeoutErr() error { return ErrAcquisitionTimeout }

var (
	_ Platform       = (*fakePlatform)(nil)
	_ GPUDevice      = (*fakeGPU)(nil)
	_ Duplication    = (*fakeDup)(nil)
	_ StagingSurface = (*fakeStaging)(nil)
)
