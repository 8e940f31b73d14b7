//go:build linux || freebsd

package capture

// Software duplication for development hosts. Frames come from
// vova616/screenshot; a frame only counts as new when its content changed,
// which mirrors how desktop duplication delivers presents.

import (
	"fmt"
	"hash/maphash"
	"image"
	"time"
	"unsafe"

	"github.com/vova616/screenshot"
)

// stagingPitchAlign matches the row alignment of D3D staging textures.
const (
	stagingPitchAlign = 256
	softPollInterval  = 2 * time.Millisecond
)

type softPlatform struct{}

// NewPlatform returns the screenshot-backed software platform.
func NewPlatform() Platform { return softPlatform{} }

func (softPlatform) ScreenSize() (int, int, error) {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return 0, 0, err
	}
	return r.Dx(), r.Dy(), nil
}

func (softPlatform) CreateDevice() (GPUDevice, error) {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceCreation, err)
	}
	return &softDevice{screen: r}, nil
}

type softDevice struct {
	screen     image.Rectangle
	duplicated bool
}

func (d *softDevice) CreateStaging(width, height int) (StagingSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrSurfaceAllocation, width, height)
	}
	pitch := alignUp(width*BytesPerPixel, stagingPitchAlign)
	return &softStaging{pix: make([]byte, pitch*height), pitch: pitch, width: width, height: height}, nil
}

func (d *softDevice) DuplicateOutput(output int) (Duplication, error) {
	if output != 0 {
		return nil, fmt.Errorf("%w: output %d not found", ErrDuplicationUnavailable, output)
	}
	if d.duplicated {
		return nil, fmt.Errorf("%w: output already duplicated", ErrDuplicationUnavailable)
	}
	d.duplicated = true
	return &softDuplication{device: d, seed: maphash.MakeSeed()}, nil
}

func (d *softDevice) Close() error { return nil }

type softDuplication struct {
	device  *softDevice
	seed    maphash.Seed
	last    uint64
	hasLast bool
}

func (s *softDuplication) AcquireNextFrame(timeout time.Duration) (FrameResource, error) {
	deadline := time.Now().Add(timeout)
	for {
		img, err := screenshot.CaptureScreen()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAcquisitionFatal, err)
		}
		sum := maphash.Bytes(s.seed, img.Pix)
		if !s.hasLast || sum != s.last {
			s.last, s.hasLast = sum, true
			return &softFrame{img: img}, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrAcquisitionTimeout
		}
		time.Sleep(min(remaining, softPollInterval))
	}
}

func (s *softDuplication) ReleaseFrame() error { return nil }

func (s *softDuplication) Close() error {
	s.device.duplicated = false
	return nil
}

type softFrame struct{ img *image.RGBA }

func (f *softFrame) Close() error {
	f.img = nil
	return nil
}

type softStaging struct {
	pix    []byte
	pitch  int
	width  int
	height int
	mapped bool
}

// CopyFrom converts the RGBA screenshot into the BGRA staging layout.
func (s *softStaging) CopyFrom(frame FrameResource) error {
	f, ok := frame.(*softFrame)
	if !ok || f.img == nil {
		return fmt.Errorf("capture: unexpected frame resource %T", frame)
	}
	b := f.img.Bounds()
	w, h := min(s.width, b.Dx()), min(s.height, b.Dy())
	for y := 0; y < h; y++ {
		src := f.img.Pix[y*f.img.Stride : y*f.img.Stride+w*4]
		dst := s.pix[y*s.pitch : y*s.pitch+w*4]
		for i := 0; i < len(src); i += 4 {
			dst[i+0] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+0]
			dst[i+3] = src[i+3]
		}
	}
	return nil
}

func (s *softStaging) Map() (Mapping, error) {
	if s.mapped {
		return Mapping{}, fmt.Errorf("%w: already mapped", ErrMap)
	}
	s.mapped = true
	return Mapping{Data: unsafe.Pointer(&s.pix[0]), RowPitch: s.pitch, Len: len(s.pix)}, nil
}

func (s *softStaging) Unmap() { s.mapped = false }

func (s *softStaging) Close() error {
	s.pix = nil
	return nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
