package capture

import (
	"errors"
	"fmt"
	"time"
)

// StackOptions configures NewStack. Zero Width/Height use the platform's
// screen size; otherwise the top-left Width x Height region of the output is
// captured and must fit inside it.
type StackOptions struct {
	Width          int
	Height         int
	AcquireTimeout time.Duration
}

// Stack is a complete capture pipeline: Device, Session and Acquirer, built
// in that order and torn down in reverse. A lost session is recovered only by
// building a new Stack.
type Stack struct {
	device   *Device
	session  *Session
	acquirer *Acquirer
}

// NewStack builds the pipeline. Every error wraps one of the construction
// sentinels.
func NewStack(p Platform, opts StackOptions) (*Stack, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil platform", ErrDeviceCreation)
	}
	sw, sh, err := p.ScreenSize()
	if err != nil {
		return nil, classify(ErrDeviceCreation, err)
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = sw, sh
	}
	// Staging holds the top-left w x h region of the output.
	if w > sw || h > sh {
		return nil, fmt.Errorf("%w: capture region %dx%d exceeds output %dx%d",
			ErrSurfaceAllocation, w, h, sw, sh)
	}
	dev, err := NewDevice(p, w, h)
	if err != nil {
		return nil, err
	}
	sess, err := Bind(dev)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return &Stack{device: dev, session: sess, acquirer: NewAcquirer(sess, opts.AcquireTimeout)}, nil
}

// AcquireFrame runs one acquisition cycle.
func (s *Stack) AcquireFrame() (*PixelBuffer, error) { return s.acquirer.AcquireFrame() }

// Width of captured frames.
func (s *Stack) Width() int { return s.device.Width() }

// Height of captured frames.
func (s *Stack) Height() int { return s.device.Height() }

// HeldFrames reports frames acquired but not yet released.
func (s *Stack) HeldFrames() int { return s.session.HeldFrames() }

// Close tears down the session, then the device.
func (s *Stack) Close() error {
	if s == nil {
		return nil
	}
	return errors.Join(s.session.Close(), s.device.Close())
}
