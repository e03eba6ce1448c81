package brlapi

import "github.com/dbernaca/brltty2/pkg/keycode"

// Key is a received key event, carrying both the raw 64-bit code and its
// pre-computed decomposition (pkg/keycode.Expand), so callers rarely
// need to call keycode.Expand/Describe themselves.
type Key struct {
	Code     uint64
	Expanded keycode.Expanded
}

func newKey(code uint64) Key {
	return Key{Code: code, Expanded: keycode.Expand(code)}
}

// Describe returns the symbolic name and flags for this key, equivalent
// to keycode.Describe(k.Code).
func (k Key) Describe() keycode.Description {
	return keycode.Describe(k.Code)
}
