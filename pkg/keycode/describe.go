package keycode

import "fmt"

// Description is a human-readable rendering of an Expanded key code: a
// symbolic command/symbol name, its argument (if the name does not
// already fully determine it), and the set of active flag names.
type Description struct {
	Name     string
	Argument uint64
	HasArg   bool
	Flags    []string
}

type tableKey struct {
	typ     Type
	command uint64
	argSet  bool
	arg     uint64
}

// keyTable mirrors keycodes.py's KEY_TABLE: a lookup from
// (type, command[, argument]) to a symbolic name, used to recognize both
// argument-free commands (LNUP) and commands whose argument is itself
// discriminating (the function-key range F1-F35).
var keyTable = buildKeyTable()

func buildKeyTable() map[tableKey]string {
	t := map[tableKey]string{}
	// Command blocks (ROUTE, PASSDOTS, ...) carry a free-form argument and
	// are keyed by type|command alone. Argument-free commands (block 0) and
	// keysyms are complete codes, keyed by type|command|argument exactly
	// as Expand splits them.
	add := func(typ Type, command uint64, name string) {
		if typ == TypeSym || command < 1<<CmdBlkShift {
			e := Expand(uint64(typ) | command)
			t[tableKey{typ: typ, command: e.Command, argSet: true, arg: e.Argument}] = name
			return
		}
		t[tableKey{typ: typ, command: command}] = name
	}
	addArg := func(typ Type, command, arg uint64, name string) {
		t[tableKey{typ: typ, command: command, argSet: true, arg: arg}] = name
	}

	add(TypeCmd, CmdNoop, "NOOP")
	add(TypeCmd, CmdLnUp, "LNUP")
	add(TypeCmd, CmdLnDn, "LNDN")
	add(TypeCmd, CmdWinUp, "WINUP")
	add(TypeCmd, CmdWinDn, "WINDN")
	add(TypeCmd, CmdPrDifLn, "PRDIFLN")
	add(TypeCmd, CmdNxDifLn, "NXDIFLN")
	add(TypeCmd, CmdAttrUp, "ATTRUP")
	add(TypeCmd, CmdAttrDn, "ATTRDN")
	add(TypeCmd, CmdTop, "TOP")
	add(TypeCmd, CmdBot, "BOT")
	add(TypeCmd, CmdTopLeft, "TOP_LEFT")
	add(TypeCmd, CmdBotLeft, "BOT_LEFT")
	add(TypeCmd, CmdPrPgrPh, "PRPGRPH")
	add(TypeCmd, CmdNxPgrPh, "NXPGRPH")
	add(TypeCmd, CmdHome, "HOME")
	add(TypeCmd, CmdBack, "BACK")
	add(TypeCmd, CmdFreeze, "FREEZE")
	add(TypeCmd, CmdDispMD, "DISPMD")
	add(TypeCmd, CmdSixDots, "SIXDOTS")
	add(TypeCmd, CmdSlidEWin, "SLIDEWIN")
	add(TypeCmd, CmdSkpIdLns, "SKPIDLNS")
	add(TypeCmd, CmdSkpBlnk, "SKPBLNK")
	add(TypeCmd, CmdCSRVis, "CSRVIS")
	add(TypeCmd, CmdCSRHide, "CSRHIDE")
	add(TypeCmd, CmdCSRTrk, "CSRTRK")
	add(TypeCmd, CmdCSRSize, "CSRSIZE")
	add(TypeCmd, CmdCSRBlink, "CSRBLINK")
	add(TypeCmd, CmdAttrVis, "ATTRVIS")
	add(TypeCmd, CmdAttrBlink, "ATTRBLINK")
	add(TypeCmd, CmdCapBlink, "CAPBLINK")
	add(TypeCmd, CmdTuneDev, "TUNES")
	add(TypeCmd, CmdAutoRepeat, "AUTOREPEAT")
	add(TypeCmd, CmdAutoSpeak, "AUTOSPEAK")
	add(TypeCmd, CmdFwinLt, "FWINLT")
	add(TypeCmd, CmdFwinRt, "FWINRT")
	add(TypeCmd, CmdLnBeg, "LNBEG")
	add(TypeCmd, CmdLnEnd, "LNEND")
	add(TypeCmd, CmdPaste, "PASTE")
	add(TypeCmd, CmdRestartBRL, "RESTARTBRL")
	add(TypeCmd, CmdRestartSpeech, "RESTARTSPEECH")
	add(TypeCmd, CmdOffLine, "OFFLINE")

	add(TypeCmd, CmdRoute, "ROUTE")
	add(TypeCmd, CmdClipNew, "CLIP_NEW")
	add(TypeCmd, CmdCutBegin, "CUTBEGIN")
	add(TypeCmd, CmdCutAppend, "CUTAPPEND")
	add(TypeCmd, CmdCutLine, "CUTLINE")
	add(TypeCmd, CmdCutRect, "CUTRECT")
	add(TypeCmd, CmdPasteHist, "PASTE_HIST")
	add(TypeCmd, CmdPassDots, "PASSDOTS")
	add(TypeCmd, CmdPassAT, "PASSAT")
	add(TypeCmd, CmdPassXT, "PASSXT")
	add(TypeCmd, CmdPassPS2, "PASSPS2")
	add(TypeCmd, CmdPassKey, "PASSKEY")
	add(TypeCmd, CmdPassChar, "PASSCHAR")
	add(TypeCmd, CmdHostCmd, "HOSTCMD")

	// Function keys F1-F35 live in the FUNCTION command block, one
	// argument value per key.
	for i := uint64(1); i <= 35; i++ {
		addArg(TypeCmd, CmdFunction, i-1, fmt.Sprintf("F%d", i))
	}

	// The arrow/navigation keysyms.
	add(TypeSym, SymBackspace, "BACKSPACE")
	add(TypeSym, SymTab, "TAB")
	add(TypeSym, SymLinefeed, "LINEFEED")
	add(TypeSym, SymReturn, "RETURN")
	add(TypeSym, SymEscape, "ESCAPE")
	add(TypeSym, SymHome, "HOME")
	add(TypeSym, SymLeft, "LEFT")
	add(TypeSym, SymUp, "UP")
	add(TypeSym, SymRight, "RIGHT")
	add(TypeSym, SymDown, "DOWN")
	add(TypeSym, SymPageUp, "PAGE_UP")
	add(TypeSym, SymPageDown, "PAGE_DOWN")
	add(TypeSym, SymEnd, "END")
	add(TypeSym, SymInsert, "INSERT")
	add(TypeSym, SymDelete, "DELETE")

	return t
}

// Describe produces a human-readable rendering of a key code: it tries
// type|command|argument first (recognizing argument-free commands and
// the function-key range), then type|command (recognizing commands that
// carry a free-form argument, like ROUTE), then falls back to UNICODE
// decoding for SYM codes with the Unicode bit set, and finally "Unknown".
func Describe(keyCode uint64) Description {
	e := Expand(keyCode)

	if name, ok := keyTable[tableKey{typ: e.Type, command: e.Command, argSet: true, arg: e.Argument}]; ok {
		return Description{Name: name, Flags: describeFlags(e)}
	}
	if name, ok := keyTable[tableKey{typ: e.Type, command: e.Command}]; ok {
		return Description{Name: name, Argument: e.Argument, HasArg: true, Flags: describeFlags(e)}
	}
	code := keyCode & CodeMask
	if e.Type == TypeSym && code&SymUnicode != 0 {
		return Description{
			Name:     "UNICODE",
			Argument: code & 0x00FFFFFF,
			HasArg:   true,
			Flags:    describeFlags(e),
		}
	}
	return Description{Name: "Unknown", Flags: describeFlags(e)}
}

// describeFlags decodes the flag bits into human-readable names. A
// handful of flags are context-sensitive: the keyboard-passthrough
// commands (PASSXT/PASSAT/PASSPS2) reuse bits for release/emulation
// markers, PASSDOTS carries no extra flags at all, and every other
// command uses the toggle/motion flags instead.
func describeFlags(e Expanded) []string {
	var flags []string
	add := func(mask uint32, name string) {
		if e.Flags&mask != 0 {
			flags = append(flags, name)
		}
	}

	add(FlagShift, "SHIFT")
	add(FlagUpper, "UPPER")
	add(FlagControl, "CONTROL")
	add(FlagMeta, "META")
	add(FlagAltGr, "ALTGR")
	add(FlagGUI, "GUI")

	switch e.Command {
	case CmdPassDots:
		// No extra flags for raw dot passthrough.
	case CmdPassXT, CmdPassAT, CmdPassPS2:
		add(FlagKbdRelease, "KBD_RELEASE")
		add(FlagKbdEmul0, "KBD_EMUL0")
		add(FlagKbdEmul1, "KBD_EMUL1")
	default:
		add(FlagToggleOn, "TOGGLE_ON")
		add(FlagToggleOff, "TOGGLE_OFF")
		add(FlagMotionRoute, "MOTION_ROUTE")
		add(FlagMotionScaled, "MOTION_SCALED")
		add(FlagMotionToLeft, "MOTION_TOLEFT")
	}
	return flags
}
