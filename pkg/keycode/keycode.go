package keycode

// Expanded is the decomposition of a 64-bit key code into its type,
// command (or symbol) block, argument, and flags, per spec.md ss3/ss4.2.
type Expanded struct {
	Type     Type
	Command  uint64 // the type-masked code with the argument bits cleared
	Argument uint64
	Flags    uint32
}

// argumentWidth returns the number of low bits of the code that belong to
// the argument, given the code's type and (for SYM) whether the Unicode
// bit is set. CMD codes always carry a 16-bit argument; SYM codes carry a
// 24-bit argument when the Unicode bit is set, otherwise 8 bits.
func argumentWidth(typ Type, code uint64) int {
	switch typ {
	case TypeCmd:
		return 16
	case TypeSym:
		if code&SymUnicode != 0 {
			return 24
		}
		return 8
	default:
		return -1
	}
}

// Expand decomposes a 64-bit key code as reported in a Key packet.
func Expand(keyCode uint64) Expanded {
	typ := Type(keyCode & TypeMask)
	code := keyCode & CodeMask
	width := argumentWidth(typ, code)
	var command, argument uint64
	if width < 0 {
		command = code
	} else {
		mask := uint64(1)<<uint(width) - 1
		command = code &^ mask
		argument = code & mask
	}
	return Expanded{
		Type:     typ,
		Command:  command,
		Argument: argument,
		Flags:    uint32(keyCode >> FlagsShift),
	}
}

// Collapse reassembles a 64-bit key code from its components, the
// inverse of Expand. Expand(Collapse(e)) == e for every Expanded value
// Expand can produce (spec.md ss8, Invariant 4).
func Collapse(e Expanded) uint64 {
	return uint64(e.Type) | e.Command | e.Argument | (uint64(e.Flags) << FlagsShift)
}
