package capture

import (
	"errors"
	"time"
)

// Acquirer runs the acquire → copy → map → read → release cycle.
type Acquirer struct {
	session *Session
	device  *Device
	timeout time.Duration
}

// NewAcquirer returns an Acquirer waiting at most timeout per frame. A zero
// timeout polls without blocking.
func NewAcquirer(s *Session, timeout time.Duration) *Acquirer {
	if timeout < 0 {
		timeout = 0
	}
	return &Acquirer{session: s, device: s.device, timeout: timeout}
}

// Timeout returns the per-call acquisition wait.
func (a *Acquirer) Timeout() time.Duration { return a.timeout }

// AcquireFrame returns a freshly copied frame. Errors wrap
// ErrAcquisitionTimeout, ErrAcquisitionFatal or ErrMap. Once a frame was
// acquired it is released before returning, whatever happened afterwards.
func (a *Acquirer) AcquireFrame() (buf *PixelBuffer, err error) {
	frame, err := a.session.acquire(a.timeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := a.session.release(); relErr != nil {
			buf = nil
			err = errors.Join(err, relErr)
		}
	}()

	copyErr := a.device.copyFrame(frame)
	_ = frame.Close()
	if copyErr != nil {
		return nil, copyErr
	}
	return a.device.readStaging()
}
