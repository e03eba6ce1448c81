package keycode_test

import (
	"math/rand"
	"testing"

	"github.com/dbernaca/brltty2/pkg/keycode"
)

func TestExpandCollapseRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		k := r.Uint64()
		e := keycode.Expand(k)
		got := keycode.Collapse(e)
		if got != k {
			t.Fatalf("Collapse(Expand(%#016x)) = %#016x, want %#016x (expanded=%+v)", k, got, k, e)
		}
	}
}

func TestExpandCmdRoute(t *testing.T) {
	k := uint64(0x0000000020010008)
	e := keycode.Expand(k)
	if e.Type != keycode.TypeCmd {
		t.Errorf("Type = %v, want CMD", e.Type)
	}
	if e.Command != keycode.CmdRoute {
		t.Errorf("Command = %#x, want ROUTE (%#x)", e.Command, keycode.CmdRoute)
	}
	if e.Argument != 8 {
		t.Errorf("Argument = %d, want 8", e.Argument)
	}
	if e.Flags != 0 {
		t.Errorf("Flags = %#x, want 0", e.Flags)
	}
}

func TestExpandSymUnicode(t *testing.T) {
	// Unicode bit set, code point 'A' (0x41).
	k := uint64(keycode.SymUnicode | 0x41)
	e := keycode.Expand(k)
	if e.Type != keycode.TypeSym {
		t.Errorf("Type = %v, want SYM", e.Type)
	}
	if e.Argument != 0x41 {
		t.Errorf("Argument = %#x, want 0x41", e.Argument)
	}
}

func TestDescribeRoute(t *testing.T) {
	d := keycode.Describe(0x0000000020010008)
	if d.Name != "ROUTE" {
		t.Errorf("Name = %q, want ROUTE", d.Name)
	}
	if !d.HasArg || d.Argument != 8 {
		t.Errorf("Argument = %d (HasArg=%v), want 8", d.Argument, d.HasArg)
	}
	if len(d.Flags) != 0 {
		t.Errorf("Flags = %v, want none", d.Flags)
	}
}

func TestDescribeLnUpNoArgument(t *testing.T) {
	d := keycode.Describe(uint64(keycode.TypeCmd) | keycode.CmdLnUp)
	if d.Name != "LNUP" {
		t.Errorf("Name = %q, want LNUP", d.Name)
	}
	if d.HasArg {
		t.Errorf("HasArg = true, want false for an argument-free command")
	}
}

func TestDescribeFunctionKey(t *testing.T) {
	k := uint64(keycode.TypeCmd) | keycode.CmdFunction | 4 // F5 (argument 4)
	d := keycode.Describe(k)
	if d.Name != "F5" {
		t.Errorf("Name = %q, want F5", d.Name)
	}
}

func TestDescribeUnicodeFallback(t *testing.T) {
	k := uint64(keycode.SymUnicode | 0x1F600) // an emoji code point, not in the keysym table
	d := keycode.Describe(k)
	if d.Name != "UNICODE" {
		t.Errorf("Name = %q, want UNICODE", d.Name)
	}
	if d.Argument != 0x1F600 {
		t.Errorf("Argument = %#x, want 0x1F600", d.Argument)
	}
}

func TestDescribeUnknown(t *testing.T) {
	k := uint64(keycode.TypeSym) | 0x00FFFFFF // not a recognized keysym, no Unicode bit
	d := keycode.Describe(k)
	if d.Name != "Unknown" {
		t.Errorf("Name = %q, want Unknown", d.Name)
	}
}

func TestDescribeFlagsContextSensitive(t *testing.T) {
	// PASSXT with the release flag set.
	k := uint64(keycode.FlagKbdRelease) << keycode.FlagsShift
	k |= uint64(keycode.TypeCmd) | keycode.CmdPassXT
	d := keycode.Describe(k)
	found := false
	for _, f := range d.Flags {
		if f == "KBD_RELEASE" {
			found = true
		}
		if f == "TOGGLE_ON" {
			t.Errorf("PASSXT flags incorrectly include TOGGLE_ON: %v", d.Flags)
		}
	}
	if !found {
		t.Errorf("PASSXT flags = %v, want KBD_RELEASE", d.Flags)
	}

	// A regular command uses the toggle/motion flag set instead: the
	// TOGGLE_ON bit (0x0100) must be reported, and KBD_RELEASE must not
	// appear.
	k2 := uint64(keycode.FlagToggleOn) << keycode.FlagsShift
	k2 |= uint64(keycode.TypeCmd) | keycode.CmdLnUp
	d2 := keycode.Describe(k2)
	hasToggleOn := false
	for _, f := range d2.Flags {
		if f == "TOGGLE_ON" {
			hasToggleOn = true
		}
		if f == "KBD_RELEASE" {
			t.Errorf("LNUP flags incorrectly include KBD_RELEASE: %v", d2.Flags)
		}
	}
	if !hasToggleOn {
		t.Errorf("LNUP flags = %v, want TOGGLE_ON", d2.Flags)
	}
}
