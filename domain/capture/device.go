package capture

import (
	"errors"
	"fmt"
)

// Device owns the GPU device, its immediate context and the staging surface.
// The staging dimensions are fixed for the lifetime of the Device.
type Device struct {
	gpu     GPUDevice
	staging StagingSurface
	width   int
	height  int
	bound   int // sessions not yet closed
	closed  bool
}

// NewDevice creates the device and context first, then the staging surface.
func NewDevice(p Platform, width, height int) (*Device, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil platform", ErrDeviceCreation)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrSurfaceAllocation, width, height)
	}
	gpu, err := p.CreateDevice()
	if err != nil {
		return nil, classify(ErrDeviceCreation, err)
	}
	if gpu == nil {
		return nil, fmt.Errorf("%w: platform returned no device", ErrDeviceCreation)
	}
	staging, err := gpu.CreateStaging(width, height)
	if err != nil {
		_ = gpu.Close()
		return nil, classify(ErrSurfaceAllocation, err)
	}
	return &Device{gpu: gpu, staging: staging, width: width, height: height}, nil
}

// Width of the staging surface in pixels.
func (d *Device) Width() int { return d.width }

// Height of the staging surface in pixels.
func (d *Device) Height() int { return d.height }

// copyFrame is the GPU-to-GPU step of an acquisition cycle.
func (d *Device) copyFrame(frame FrameResource) error {
	if d.closed {
		return ErrClosed
	}
	if err := d.staging.CopyFrom(frame); err != nil {
		return classify(ErrAcquisitionFatal, err)
	}
	return nil
}

// readStaging maps the staging surface, copies RowPitch*Height bytes into a
// new buffer and unmaps on every path.
func (d *Device) readStaging() (*PixelBuffer, error) {
	if d.closed {
		return nil, ErrClosed
	}
	m, err := d.staging.Map()
	if err != nil {
		return nil, classify(ErrMap, err)
	}
	defer d.staging.Unmap()

	if m.RowPitch < d.width*BytesPerPixel {
		return nil, fmt.Errorf("%w: row pitch %d below row width %d", ErrMap, m.RowPitch, d.width*BytesPerPixel)
	}
	pix, err := copyMapped(m.Data, m.RowPitch*d.height, m.Len)
	if err != nil {
		return nil, err
	}
	return &PixelBuffer{Pix: pix, RowPitch: m.RowPitch, Width: d.width, Height: d.height}, nil
}

// Close releases the staging surface, then the device. Every Session bound
// to the device must be closed first.
func (d *Device) Close() error {
	if d == nil || d.closed {
		return nil
	}
	if d.bound > 0 {
		return fmt.Errorf("capture: device still has %d bound session(s)", d.bound)
	}
	d.closed = true
	return errors.Join(d.staging.Close(), d.gpu.Close())
}
