//go:build !windows

package action

// Mouse is unavailable outside Windows.
type Mouse struct{}

// NewMouse always fails with ErrNotSupported.
func NewMouse() (*Mouse, error) { return nil, ErrNotSupported }

func (m *Mouse) MoveRelative(dx, dy int) error { return ErrNotSupported }

var _ Actuator = (*Mouse)(nil)
