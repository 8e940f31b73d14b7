package capture

import (
	"fmt"
	"time"
	"unsafe"
)

// Platform is the OS display-duplication capability. Implementations live in
// dxgi_windows.go (DXGI Desktop Duplication) and soft_unix.go (software
// emulation for development hosts).
type Platform interface {
	// ScreenSize reports the size of the duplicated output.
	ScreenSize() (width, height int, err error)
	// CreateDevice creates a hardware device and its immediate context.
	CreateDevice() (GPUDevice, error)
}

// GPUDevice is a device plus immediate context.
type GPUDevice interface {
	// CreateStaging allocates a CPU-readable BGRA8 surface (1 sample, 1 mip,
	// 1 array slice, no bind flags).
	CreateStaging(width, height int) (StagingSurface, error)
	// DuplicateOutput binds an exclusive duplication to output index of the
	// device's adapter.
	DuplicateOutput(output int) (Duplication, error)
	Close() error
}

// StagingSurface is the CPU-readable intermediary between GPU frames and
// host memory.
type StagingSurface interface {
	// CopyFrom copies the top-left region of frame matching the surface size
	// on the GPU. The surface is never larger than the frame.
	CopyFrom(frame FrameResource) error
	Map() (Mapping, error)
	Unmap()
	Close() error
}

// Duplication is an exclusive duplication binding on one output.
type Duplication interface {
	// AcquireNextFrame waits at most timeout for a new frame. It returns an
	// error wrapping ErrAcquisitionTimeout when nothing new was presented.
	// On any error no frame is held by the caller.
	AcquireNextFrame(timeout time.Duration) (FrameResource, error)
	ReleaseFrame() error
	Close() error
}

// FrameResource references the acquired desktop image. Close drops the
// reference; the frame slot itself is returned with Duplication.ReleaseFrame.
type FrameResource interface {
	Close() error
}

// Mapping describes a mapped staging surface. Data is valid only until
// StagingSurface.Unmap.
type Mapping struct {
	Data     unsafe.Pointer
	RowPitch int
	// Len is the number of readable bytes at Data, 0 when the platform does
	// not report it.
	Len int
}

// copyMapped copies n bytes out of mapped foreign memory into an owned slice.
func copyMapped(src unsafe.Pointer, n int, limit int) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil mapping", ErrMap)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: invalid copy size %d", ErrMap, n)
	}
	if limit > 0 && n > limit {
		return nil, fmt.Errorf("%w: copy size %d exceeds mapping %d", ErrMap, n, limit)
	}
	dst := make([]byte, n)
	copy(dst, unsafe.Slice((*byte)(src), n))
	return dst, nil
}
