package terminal

import (
	"bufio"

	"github.com/charmbracelet/x/ansi"
)

// Pre-allocated ANSI sequence fragments, safe to write from crash context
var (
	// CSI sequences
	csi      = []byte("\x1b[")
	csiClear = []byte("\x1b[2J\x1b[H")
	csiRIS   = []byte("\x1bc") // Reset to Initial State (emergency)
	csiSGR0  = []byte("\x1b[0m")

	// Cursor control
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")
	csiCursorPos  = []byte("\x1b[") // followed by row;colH

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")
	// DECAWM: ?7l keeps the cursor at the right edge so a bottom-right write does not scroll
	csiAutoWrapOn  = []byte("\x1b[?7h")
	csiAutoWrapOff = []byte("\x1b[?7l")

	// Mouse reporting: SGR extended coordinates plus click and drag tracking
	csiMouseClickOn  = []byte("\x1b[?1000h")
	csiMouseClickOff = []byte("\x1b[?1000l")
	csiMouseDragOn   = []byte("\x1b[?1002h")
	csiMouseDragOff  = []byte("\x1b[?1002l")
	csiMouseSGROn    = []byte("\x1b[?1006h")
	csiMouseSGROff   = []byte("\x1b[?1006l")

	// Focus in/out reporting (CSI I / CSI O)
	csiFocusOn  = []byte("\x1b[?1004h")
	csiFocusOff = []byte("\x1b[?1004l")

	// Bracketed paste (CSI 200~ ... CSI 201~)
	csiPasteOn  = []byte("\x1b[?2004h")
	csiPasteOff = []byte("\x1b[?2004l")

	// Kitty keyboard protocol: push all enhancement flags, pop one level on exit
	csiKittyPush = []byte(ansi.PushKittyKeyboard(kittyFlags))
	csiKittyPop  = []byte(ansi.PopKittyKeyboard(1))
)

// kittyFlags requests disambiguation, event types, alternate keys and all keys as escapes
const kittyFlags = ansi.KittyDisambiguateEscapeCodes |
	ansi.KittyReportEventTypes |
	ansi.KittyReportAlternateKeys |
	ansi.KittyReportAllKeysAsEscapeCodes

// writeInt writes an integer without allocation
// Optimized for terminal values (0-255 common, 0-999 typical max)
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	if n < 100 {
		w.WriteByte(byte(n/10) + '0')
		w.WriteByte(byte(n%10) + '0')
		return
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	w.Write(buf[i:])
}

// writeCursorPos writes cursor positioning sequence (0-indexed input)
func writeCursorPos(w *bufio.Writer, x, y int) {
	w.Write(csiCursorPos)
	writeInt(w, y+1)
	w.WriteByte(';')
	writeInt(w, x+1)
	w.WriteByte('H')
}

// writeCursorForward writes CUF (cursor forward n columns)
func writeCursorForward(w *bufio.Writer, n int) {
	w.Write(csi)
	writeInt(w, n)
	w.WriteByte('C')
}
