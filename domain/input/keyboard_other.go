//go:build !windows

package input

import "errors"

// ErrNotSupported is returned by NewKeyboard outside Windows.
var ErrNotSupported = errors.New("input: global key state not available on this OS")

// NewKeyboard always fails outside Windows; use Static instead.
func NewKeyboard() (KeyReader, error) { return nil, ErrNotSupported }
