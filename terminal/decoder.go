package terminal

import (
	"bytes"
	"unicode/utf8"
)

const (
	// stalePolls is the number of consecutive empty polls after which a
	// pending partial sequence is resolved: lone ESC becomes Escape, other
	// fragments are discarded
	stalePolls = 2

	// maxCSILen bounds the scan for a CSI final byte; longer runs are garbage
	maxCSILen = 64

	// maxPasteLen caps accumulated paste text, excess bytes are dropped
	maxPasteLen = 1 << 20
)

var (
	pasteStart = []byte("\x1b[200~")
	pasteEnd   = []byte("\x1b[201~")
)

// decoder turns raw terminal bytes into Events without blocking
// Partial sequences at a read boundary are kept until the next feed
type decoder struct {
	// Persistent buffer for stream assembly, sized to avoid corrupting partial UTF-8 at boundary
	buf []byte

	inPaste bool
	paste   []byte

	stale int
}

func newDecoder() *decoder {
	return &decoder{
		buf: make([]byte, 0, 256),
	}
}

// pending reports whether undecoded bytes are buffered
func (d *decoder) pending() bool {
	return len(d.buf) > 0 || d.inPaste
}

// reset discards buffered input and paste state
func (d *decoder) reset() {
	d.buf = d.buf[:0]
	d.paste = d.paste[:0]
	d.inPaste = false
	d.stale = 0
}

// feed appends data and decodes every complete event into dst
func (d *decoder) feed(dst []Event, data []byte) []Event {
	if len(data) == 0 {
		return dst
	}
	d.stale = 0
	d.buf = append(d.buf, data...)

	var consumed int
	dst, consumed = d.parse(dst, d.buf)

	// Compact buffer
	if consumed > 0 {
		if consumed >= len(d.buf) {
			d.buf = d.buf[:0]
		} else {
			n := copy(d.buf, d.buf[consumed:])
			d.buf = d.buf[:n]
		}
	}
	return dst
}

// idle is called when a poll read nothing
// After stalePolls idle calls a dangling ESC is flushed as a key
func (d *decoder) idle(dst []Event) []Event {
	if len(d.buf) == 0 || d.inPaste {
		d.stale = 0
		return dst
	}
	d.stale++
	if d.stale < stalePolls {
		return dst
	}
	d.stale = 0

	if d.buf[0] == 0x1b {
		switch len(d.buf) {
		case 1:
			dst = append(dst, Event{Type: EventKey, Key: KeyEscape})
		case 2:
			// ESC [ or ESC O that never completed: the user typed Alt+[ or Alt+O
			dst = append(dst, Event{Type: EventKey, Key: KeyRune, Rune: rune(d.buf[1]), Modifiers: ModAlt})
		}
	}
	d.buf = d.buf[:0]
	return dst
}

// parse decodes data into dst, returns bytes consumed (stops on incomplete sequence)
func (d *decoder) parse(dst []Event, data []byte) ([]Event, int) {
	i := 0
	n := len(data)

	for i < n {
		if d.inPaste {
			var c int
			dst, c = d.parsePaste(dst, data[i:])
			if c == 0 {
				return dst, i
			}
			i += c
			continue
		}

		b := data[i]

		// Fast path: printable ASCII
		if b >= 0x20 && b < 0x7f {
			dst = append(dst, Event{Type: EventKey, Key: KeyRune, Rune: rune(b)})
			i++
			continue
		}

		if b == 0x1b {
			// Need at least 2 bytes to determine sequence type
			if i+1 >= n {
				return dst, i
			}
			consumed, ev, ok := d.parseEscape(data[i:])
			if consumed == 0 {
				return dst, i
			}
			if ok {
				dst = append(dst, ev)
			}
			i += consumed
			continue
		}

		if b < 0x20 {
			dst = append(dst, parseControl(b))
			i++
			continue
		}

		if b == 0x7f {
			dst = append(dst, Event{Type: EventKey, Key: KeyBackspace})
			i++
			continue
		}

		// UTF-8 multibyte
		if !utf8.FullRune(data[i:]) {
			return dst, i
		}
		r, size := utf8.DecodeRune(data[i:])
		if r != utf8.RuneError || size > 1 {
			dst = append(dst, Event{Type: EventKey, Key: KeyRune, Rune: r})
		}
		i += size
	}
	return dst, i
}

// parsePaste accumulates bracketed paste content until the end marker
// Returns 0 when more data is needed
func (d *decoder) parsePaste(dst []Event, data []byte) ([]Event, int) {
	if idx := bytes.Index(data, pasteEnd); idx >= 0 {
		d.appendPaste(data[:idx])
		dst = append(dst, Event{Type: EventPaste, Text: string(d.paste)})
		d.paste = d.paste[:0]
		d.inPaste = false
		return dst, idx + len(pasteEnd)
	}

	// Keep a tail that could be the start of the end marker
	keep := len(pasteEnd) - 1
	if len(data) <= keep {
		return dst, 0
	}
	take := len(data) - keep
	d.appendPaste(data[:take])
	return dst, take
}

func (d *decoder) appendPaste(p []byte) {
	room := maxPasteLen - len(d.paste)
	if room <= 0 {
		return
	}
	if len(p) > room {
		p = p[:room]
	}
	d.paste = append(d.paste, p...)
}

// parseEscape parses a sequence starting with ESC
// Returns 0 on incomplete input; ok is false for consumed but unrecognized sequences
func (d *decoder) parseEscape(data []byte) (int, Event, bool) {
	if len(data) < 2 {
		return 0, Event{}, false
	}

	switch {
	case data[1] == 0x1b:
		// ESC ESC -> Alt+Escape
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}, true
	case data[1] == '[':
		return d.parseCSI(data)
	case data[1] == 'O':
		return parseSS3(data)
	case data[1] < 0x20:
		// Alt+Control character
		ev := parseControl(data[1])
		ev.Modifiers |= ModAlt
		return 2, ev, true
	case data[1] < 0x7f:
		return 2, Event{Type: EventKey, Key: KeyRune, Rune: rune(data[1]), Modifiers: ModAlt}, true
	case data[1] == 0x7f:
		return 2, Event{Type: EventKey, Key: KeyBackspace, Modifiers: ModAlt}, true
	}

	// Alt+UTF-8
	if !utf8.FullRune(data[1:]) {
		return 0, Event{}, false
	}
	r, size := utf8.DecodeRune(data[1:])
	return 1 + size, Event{Type: EventKey, Key: KeyRune, Rune: r, Modifiers: ModAlt}, r != utf8.RuneError
}

// parseCSI parses ESC [ params final
func (d *decoder) parseCSI(data []byte) (int, Event, bool) {
	if len(data) < 3 {
		return 0, Event{}, false
	}

	// Linux console F1-F5: ESC [ [ A..E
	if data[2] == '[' {
		if len(data) < 4 {
			return 0, Event{}, false
		}
		if data[3] >= 'A' && data[3] <= 'E' {
			return 4, Event{Type: EventKey, Key: KeyF1 + Key(data[3]-'A')}, true
		}
		return 4, Event{}, false
	}

	// Find final byte (0x40-0x7E); parameter and intermediate bytes are 0x20-0x3F
	end := 2
	limit := len(data)
	if limit > maxCSILen {
		limit = maxCSILen
	}
	for end < limit {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		if b < 0x20 || b > 0x3f {
			// Malformed, swallow up to the offending byte
			return end, Event{}, false
		}
		end++
	}
	if end >= limit {
		if limit == maxCSILen {
			return limit, Event{}, false
		}
		return 0, Event{}, false // Incomplete
	}

	params := data[2:end]
	final := data[end]
	consumed := end + 1

	if len(params) > 0 && params[0] == '<' && (final == 'M' || final == 'm') {
		ev, ok := parseSGRMouse(params[1:], final)
		return consumed, ev, ok
	}

	switch final {
	case '~':
		switch string(params) {
		case "200":
			d.inPaste = true
			d.paste = d.paste[:0]
			return consumed, Event{}, false
		case "201":
			// Stray end marker
			return consumed, Event{}, false
		}
		ev, ok := parseTilde(params)
		return consumed, ev, ok
	case 'I', 'O':
		if len(params) == 0 {
			return consumed, Event{Type: EventFocus, Focused: final == 'I'}, true
		}
	case 'u':
		if len(params) > 0 && params[0] == '?' {
			// Keyboard flags query reply
			return consumed, Event{}, false
		}
		ev, ok := parseKitty(params)
		return consumed, ev, ok
	}

	if key, ok := csiFinalKeys[final]; ok {
		ev := Event{Type: EventKey, Key: key}
		fields := splitParams(params)
		if len(fields) >= 2 {
			ev.Modifiers, ev.Kind = parseModField(fields[1])
		}
		if key == KeyBacktab {
			ev.Modifiers |= ModShift
		}
		return consumed, ev, true
	}

	// Unknown but valid CSI syntax, consume silently
	return consumed, Event{}, false
}

// parseTilde handles ESC [ code [; mod[:kind]] ~
func parseTilde(params []byte) (Event, bool) {
	fields := splitParams(params)
	if len(fields) == 0 {
		return Event{}, false
	}
	code, _ := parseSub(fields[0])
	key, ok := csiTildeKeys[code]
	if !ok {
		return Event{}, false
	}
	ev := Event{Type: EventKey, Key: key}
	if len(fields) >= 2 {
		ev.Modifiers, ev.Kind = parseModField(fields[1])
	}
	return ev, true
}

// parseKitty handles CSI code[:shifted[:base]] ; mods[:kind] [; text] u
func parseKitty(params []byte) (Event, bool) {
	fields := splitParams(params)
	if len(fields) == 0 {
		return Event{}, false
	}

	codes := splitSub(fields[0])
	code := atoi(codes[0])
	shifted := 0
	if len(codes) > 1 {
		shifted = atoi(codes[1])
	}

	var mods Modifier
	kind := KeyPress
	if len(fields) >= 2 {
		mods, kind = parseModField(fields[1])
	}

	// Lock state does not change key identity
	identity := mods &^ (ModCapsLock | ModNumLock)

	if mods&ModShift != 0 && shifted > 0 {
		code = shifted
	}

	key, r := kittyKey(code, identity)
	if key == KeyNone {
		return Event{}, false
	}
	if key == KeyRune && shifted > 0 && code == shifted {
		// Shift already applied to the rune
		mods &^= ModShift
	}
	return Event{Type: EventKey, Key: key, Rune: r, Modifiers: mods, Kind: kind}, true
}

// parseModField decodes "mod[:kind]"
func parseModField(f []byte) (Modifier, KeyKind) {
	sub := splitSub(f)
	mods := modifierFromParam(atoi(sub[0]))
	kind := KeyPress
	if len(sub) > 1 {
		switch atoi(sub[1]) {
		case 2:
			kind = KeyRepeat
		case 3:
			kind = KeyRelease
		}
	}
	return mods, kind
}

// parseSS3 parses ESC O X, returns length even for unknown sequences
func parseSS3(data []byte) (int, Event, bool) {
	if len(data) < 3 {
		return 0, Event{}, false
	}
	if k, ok := ss3Keys[data[2]]; ok {
		return 3, Event{Type: EventKey, Key: k.key, Rune: k.rune}, true
	}
	return 3, Event{}, false
}

// parseControl maps C0 control characters to keys
func parseControl(b byte) Event {
	switch b {
	case 0x00: // Ctrl+Space or Ctrl+@
		return Event{Type: EventKey, Key: KeyCtrlSpace, Modifiers: ModCtrl}
	case 0x08: // Ctrl+H or Backspace
		return Event{Type: EventKey, Key: KeyBackspace}
	case 0x09:
		return Event{Type: EventKey, Key: KeyTab}
	case 0x0a, 0x0d:
		return Event{Type: EventKey, Key: KeyEnter}
	case 0x1b:
		return Event{Type: EventKey, Key: KeyEscape}
	case 0x1c:
		return Event{Type: EventKey, Key: KeyCtrlBackslash, Modifiers: ModCtrl}
	case 0x1d:
		return Event{Type: EventKey, Key: KeyCtrlBracketRight, Modifiers: ModCtrl}
	case 0x1e:
		return Event{Type: EventKey, Key: KeyCtrlCaret, Modifiers: ModCtrl}
	case 0x1f:
		return Event{Type: EventKey, Key: KeyCtrlUnderscore, Modifiers: ModCtrl}
	}
	if b >= 0x01 && b <= 0x1a {
		return Event{Type: EventKey, Key: KeyCtrlA + Key(b-0x01), Rune: rune('a' + b - 0x01), Modifiers: ModCtrl}
	}
	return Event{Type: EventKey, Key: KeyNone}
}

// parseSGRMouse decodes "Btn;X;Y" with final M (press/motion) or m (release)
func parseSGRMouse(params []byte, final byte) (Event, bool) {
	btn, x, y, ok := parseSGRParams(params)
	if !ok {
		return Event{}, false
	}

	ev := Event{
		Type:      EventMouse,
		MouseX:    x - 1, // 0-indexed
		MouseY:    y - 1,
		MouseBtn:  sgrButton(btn),
		Modifiers: sgrModifiers(btn),
	}

	motion := btn&sgrMotion != 0
	switch {
	case ev.MouseBtn.IsWheel():
		ev.MouseAction = MouseActionPress
	case final == 'm':
		ev.MouseAction = MouseActionRelease
	case motion && ev.MouseBtn != MouseBtnNone:
		ev.MouseAction = MouseActionDrag
	case motion:
		ev.MouseAction = MouseActionMove
	default:
		ev.MouseAction = MouseActionPress
	}
	return ev, true
}

// parseSGRParams extracts btn, x, y from "Btn;X;Y" format
func parseSGRParams(data []byte) (btn, x, y int, ok bool) {
	state := 0 // 0=btn, 1=x, 2=y
	val := 0

	for _, b := range data {
		if b == ';' {
			switch state {
			case 0:
				btn = val
			case 1:
				x = val
			}
			state++
			val = 0
			if state > 2 {
				return 0, 0, 0, false
			}
		} else if b >= '0' && b <= '9' {
			val = val*10 + int(b-'0')
			if val > 9999 { // Sanity limit
				return 0, 0, 0, false
			}
		} else {
			return 0, 0, 0, false
		}
	}

	if state != 2 {
		return 0, 0, 0, false
	}
	y = val
	return btn, x, y, true
}

// splitParams splits CSI parameters on ';'
func splitParams(p []byte) [][]byte {
	if len(p) == 0 {
		return nil
	}
	return bytes.Split(p, []byte{';'})
}

// splitSub splits a parameter on ':' sub-parameter separators, always returns at least one field
func splitSub(p []byte) [][]byte {
	return bytes.Split(p, []byte{':'})
}

// parseSub returns the first sub-parameter of a field as an int
func parseSub(f []byte) (int, bool) {
	sub := splitSub(f)
	if len(sub[0]) == 0 {
		return 0, false
	}
	return atoi(sub[0]), true
}

// atoi parses decimal digits, returns 0 on empty or invalid input
func atoi(b []byte) int {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
		if n > 0x10FFFF {
			return 0
		}
	}
	return n
}
