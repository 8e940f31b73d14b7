//go:build !windows && !linux && !freebsd

package capture

import "fmt"

type unsupportedPlatform struct{}

// NewPlatform returns a platform whose device creation always fails.
func NewPlatform() Platform { return unsupportedPlatform{} }

func (unsupportedPlatform) ScreenSize() (int, int, error) {
	return 0, 0, fmt.Errorf("%w: display duplication not supported on this OS", ErrDeviceCreation)
}

func (unsupportedPlatform) CreateDevice() (GPUDevice, error) {
	return nil, fmt.Errorf("%w: display duplication not supported on this OS", ErrDeviceCreation)
}
