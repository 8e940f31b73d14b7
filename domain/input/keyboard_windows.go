//go:build windows

package input

import "golang.org/x/sys/windows"

var procGetAsyncKeyState = windows.NewLazySystemDLL("user32.dll").NewProc("GetAsyncKeyState")

type asyncKeys struct{}

// Down checks the most significant bit of GetAsyncKeyState.
func (asyncKeys) Down(vk byte) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return uint16(r)&0x8000 != 0
}

// NewKeyboard returns a KeyReader over the global async key state.
func NewKeyboard() (KeyReader, error) {
	if err := procGetAsyncKeyState.Find(); err != nil {
		return nil, err
	}
	return asyncKeys{}, nil
}
