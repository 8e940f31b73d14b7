package capture

import (
	"fmt"
	"time"
)

// primaryOutput is the only output ever duplicated.
const primaryOutput = 0

// Session is one exclusive duplication bound to the primary output of a
// Device. At most one frame is held at a time.
type Session struct {
	dup    Duplication
	device *Device
	held   bool
	closed bool
}

// Bind requests the duplication for d's primary output. A failure here is
// terminal for the whole capture stack.
func Bind(d *Device) (*Session, error) {
	if d == nil || d.closed {
		return nil, fmt.Errorf("%w: no valid device", ErrDuplicationUnavailable)
	}
	dup, err := d.gpu.DuplicateOutput(primaryOutput)
	if err != nil {
		return nil, classify(ErrDuplicationUnavailable, err)
	}
	if dup == nil {
		return nil, fmt.Errorf("%w: platform returned no duplication", ErrDuplicationUnavailable)
	}
	d.bound++
	return &Session{dup: dup, device: d}, nil
}

// HeldFrames is 1 between a successful acquire and its release, else 0.
func (s *Session) HeldFrames() int {
	if s.held {
		return 1
	}
	return 0
}

func (s *Session) acquire(timeout time.Duration) (FrameResource, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.held {
		return nil, ErrFrameHeld
	}
	frame, err := s.dup.AcquireNextFrame(timeout)
	if err != nil {
		return nil, classify(ErrAcquisitionFatal, err)
	}
	s.held = true
	return frame, nil
}

// release returns the frame slot. The slot counts as returned even when the
// platform call fails; such a failure means the session is lost anyway.
func (s *Session) release() error {
	if !s.held {
		return nil
	}
	s.held = false
	if err := s.dup.ReleaseFrame(); err != nil {
		return classify(ErrAcquisitionFatal, err)
	}
	return nil
}

// Close releases a held frame, if any, and the duplication handle.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	relErr := s.release()
	s.closed = true
	s.device.bound--
	if err := s.dup.Close(); err != nil {
		return err
	}
	return relErr
}
