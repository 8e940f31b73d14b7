// Package input turns polled key states into activation decisions.
package input

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned by ParseVK for names it does not recognize.
var ErrUnknownKey = errors.New("input: unknown key name")

// Windows virtual-key codes used by the default bindings.
const (
	VKLButton  byte = 0x01
	VKRButton  byte = 0x02
	VKMButton  byte = 0x04
	VKXButton1 byte = 0x05
	VKXButton2 byte = 0x06
	VKShift    byte = 0x10
	VKControl  byte = 0x11
	VKMenu     byte = 0x12
	VKF1       byte = 0x70
)

var namedKeys = map[string]byte{
	"LBUTTON":  VKLButton,
	"RBUTTON":  VKRButton,
	"MBUTTON":  VKMButton,
	"XBUTTON1": VKXButton1,
	"XBUTTON2": VKXButton2,
	"SHIFT":    VKShift,
	"CTRL":     VKControl,
	"CONTROL":  VKControl,
	"ALT":      VKMenu,
}

// ParseVK converts a key token (e.g. "F3", "R", "LBUTTON") into a Windows
// virtual-key code. Recognizes F1..F12, A..Z, 0..9 and the mouse buttons and
// modifiers in namedKeys.
func ParseVK(key string) (byte, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if vk, ok := namedKeys[k]; ok {
		return vk, nil
	}
	if len(k) == 1 {
		c := k[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return c, nil // VK codes match ASCII here
		}
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'F' {
		n := 0
		for _, c := range k[1:] {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 12 {
			return VKF1 + byte(n-1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Bindings names the keys the poller watches.
type Bindings struct {
	// Trigger must be held for actuation.
	Trigger byte
	// Toggle flips actuation on and off on each press.
	Toggle byte
	// FPSToggle flips the frame-rate display on each press.
	FPSToggle byte
}

// ParseBindings resolves key names into Bindings.
func ParseBindings(trigger, toggle, fps string) (Bindings, error) {
	var b Bindings
	var err error
	if b.Trigger, err = ParseVK(trigger); err != nil {
		return Bindings{}, fmt.Errorf("trigger key: %w", err)
	}
	if b.Toggle, err = ParseVK(toggle); err != nil {
		return Bindings{}, fmt.Errorf("toggle key: %w", err)
	}
	if b.FPSToggle, err = ParseVK(fps); err != nil {
		return Bindings{}, fmt.Errorf("fps key: %w", err)
	}
	return b, nil
}
