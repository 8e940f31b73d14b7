package capture

import (
	"errors"
	"fmt"
)

// Construction errors. These propagate to the caller of NewStack and are
// terminal for the run; nothing here retries them.
var (
	ErrDeviceCreation         = errors.New("capture: device creation failed")
	ErrSurfaceAllocation      = errors.New("capture: staging surface allocation failed")
	ErrDuplicationUnavailable = errors.New("capture: display duplication unavailable")
)

// Per-cycle errors. They never unwind past the acquisition call site.
var (
	// ErrAcquisitionTimeout means no new frame was presented within the wait
	// timeout. It is the common case at high polling rates.
	ErrAcquisitionTimeout = errors.New("capture: no new frame")
	// ErrAcquisitionFatal means the duplication session is no longer usable.
	ErrAcquisitionFatal = errors.New("capture: frame acquisition failed")
	// ErrMap means the staging surface could not be read this cycle.
	ErrMap = errors.New("capture: staging surface map failed")
)

var (
	// ErrFrameHeld is returned when a frame is acquired while the previous one
	// has not been released yet.
	ErrFrameHeld = errors.New("capture: frame already held")
	// ErrClosed is returned by operations on a torn-down device or session.
	ErrClosed = errors.New("capture: closed")
)

// IsTransient reports whether err only means "no new data this cycle".
func IsTransient(err error) bool {
	return errors.Is(err, ErrAcquisitionTimeout)
}

// classify wraps err with kind unless it already carries one of the capture
// sentinels.
func classify(kind, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrDeviceCreation, ErrSurfaceAllocation, ErrDuplicationUnavailable,
		ErrAcquisitionTimeout, ErrAcquisitionFatal, ErrMap, ErrFrameHeld, ErrClosed,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", kind, err)
}
