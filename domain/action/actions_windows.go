//go:build windows

package action

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputMouse      = 0
	mouseEventfMove = 0x0001
)

type mouseInput struct {
	dx, dy      int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input mirrors INPUT for the mouse member on 64-bit Windows.
type input struct {
	inputType uint32
	padding   [4]byte
	mi        mouseInput
}

// Mouse injects relative moves with SendInput. Moves are subject to the
// user's pointer acceleration settings.
type Mouse struct{}

// NewMouse checks that SendInput is available.
func NewMouse() (*Mouse, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSupported, err)
	}
	return &Mouse{}, nil
}

func (m *Mouse) MoveRelative(dx, dy int) error {
	in := input{inputType: inputMouse}
	in.mi.dx = int32(dx)
	in.mi.dy = int32(dy)
	in.mi.dwFlags = mouseEventfMove

	sent, _, callErr := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if sent != 1 {
		// UIPI blocks injection into higher-integrity windows
		return fmt.Errorf("action: SendInput injected %d of 1 events: %w", sent, callErr)
	}
	return nil
}

var _ Actuator = (*Mouse)(nil)
