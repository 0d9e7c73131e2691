package terminal

// Key represents a parsed input key
type Key uint16

// Key constants - designed for expansion
const (
	KeyNone Key = iota
	KeyRune     // Printable character (check Event.Rune)

	// Control keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBacktab // Shift+Tab
	KeyBackspace
	KeyDelete
	KeySpace

	// Navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Ctrl+letter (Ctrl+A = 0x01, Ctrl+Z = 0x1A)
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH
	KeyCtrlI
	KeyCtrlJ
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ

	// Ctrl+special
	KeyCtrlSpace
	KeyCtrlBackslash
	KeyCtrlBracketRight
	KeyCtrlCaret
	KeyCtrlUnderscore

	// Modifier keys, reported alone only with kitty "all keys as escape codes"
	KeyLeftShift
	KeyLeftCtrl
	KeyLeftAlt
	KeyLeftSuper
	KeyLeftMeta
	KeyRightShift
	KeyRightCtrl
	KeyRightAlt
	KeyRightSuper
	KeyRightMeta
)

// IsModifier reports whether k is a standalone modifier key
func (k Key) IsModifier() bool {
	return k >= KeyLeftShift && k <= KeyRightMeta
}

// Modifier flags, bit layout follows the xterm/kitty modifier parameter minus one
type Modifier uint8

const (
	ModNone     Modifier = 0
	ModShift    Modifier = 1 << 0
	ModAlt      Modifier = 1 << 1
	ModCtrl     Modifier = 1 << 2
	ModSuper    Modifier = 1 << 3
	ModHyper    Modifier = 1 << 4
	ModMeta     Modifier = 1 << 5
	ModCapsLock Modifier = 1 << 6
	ModNumLock  Modifier = 1 << 7
)

// modifierFromParam decodes an xterm modifier parameter (1 + bitmask)
func modifierFromParam(p int) Modifier {
	if p <= 1 {
		return ModNone
	}
	return Modifier(p - 1)
}

// Legacy CSI final bytes without a numeric key code (ESC [ 1 ; mod X)
var csiFinalKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'P': KeyF1,
	'Q': KeyF2,
	'R': KeyF3,
	'S': KeyF4,
	'Z': KeyBacktab,
}

// Tilde-terminated key codes (ESC [ N ; mod ~)
var csiTildeKeys = map[int]Key{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	7:  KeyHome,
	8:  KeyEnd,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
}

// SS3 sequences (ESC O X); keypad entries carry the rune they type
type ss3Key struct {
	key  Key
	rune rune
}

var ss3Keys = map[byte]ss3Key{
	'A': {KeyUp, 0},
	'B': {KeyDown, 0},
	'C': {KeyRight, 0},
	'D': {KeyLeft, 0},
	'H': {KeyHome, 0},
	'F': {KeyEnd, 0},
	'P': {KeyF1, 0},
	'Q': {KeyF2, 0},
	'R': {KeyF3, 0},
	'S': {KeyF4, 0},

	// Numeric keypad (application mode)
	'M': {KeyEnter, 0},
	'X': {KeyRune, '='},
	'j': {KeyRune, '*'},
	'k': {KeyRune, '+'},
	'l': {KeyRune, ','},
	'm': {KeyRune, '-'},
	'n': {KeyRune, '.'},
	'o': {KeyRune, '/'},
	'p': {KeyRune, '0'},
	'q': {KeyRune, '1'},
	'r': {KeyRune, '2'},
	's': {KeyRune, '3'},
	't': {KeyRune, '4'},
	'u': {KeyRune, '5'},
	'v': {KeyRune, '6'},
	'w': {KeyRune, '7'},
	'x': {KeyRune, '8'},
	'y': {KeyRune, '9'},
}

// Kitty functional key codes from the private use area (CSI code u)
var kittyFunctionalKeys = map[int]Key{
	57364: KeyF1,
	57365: KeyF2,
	57366: KeyF3,
	57367: KeyF4,
	57368: KeyF5,
	57369: KeyF6,
	57370: KeyF7,
	57371: KeyF8,
	57372: KeyF9,
	57373: KeyF10,
	57374: KeyF11,
	57375: KeyF12,
	57414: KeyEnter,
	57417: KeyLeft,
	57418: KeyRight,
	57419: KeyUp,
	57420: KeyDown,
	57421: KeyPageUp,
	57422: KeyPageDown,
	57423: KeyHome,
	57424: KeyEnd,
	57425: KeyInsert,
	57426: KeyDelete,
	57441: KeyLeftShift,
	57442: KeyLeftCtrl,
	57443: KeyLeftAlt,
	57444: KeyLeftSuper,
	57446: KeyLeftMeta,
	57447: KeyRightShift,
	57448: KeyRightCtrl,
	57449: KeyRightAlt,
	57450: KeyRightSuper,
	57452: KeyRightMeta,
}

// kittyKeypadRunes maps KP_0..KP_EQUAL (57399..57415 minus enter) to typed runes
var kittyKeypadRunes = map[int]rune{
	57399: '0', 57400: '1', 57401: '2', 57402: '3', 57403: '4',
	57404: '5', 57405: '6', 57406: '7', 57407: '8', 57408: '9',
	57409: '.', 57410: '/', 57411: '*', 57412: '-', 57413: '+',
	57415: '=',
}

// kittyKey maps a kitty key code to a Key and rune
// Returns KeyNone for codes without a mapping
func kittyKey(code int, mods Modifier) (Key, rune) {
	switch code {
	case 27:
		return KeyEscape, 0
	case 13:
		return KeyEnter, 0
	case 9:
		if mods&ModShift != 0 {
			return KeyBacktab, 0
		}
		return KeyTab, 0
	case 127, 8:
		return KeyBackspace, 0
	}

	if r, ok := kittyKeypadRunes[code]; ok {
		return KeyRune, r
	}
	if k, ok := kittyFunctionalKeys[code]; ok {
		return k, 0
	}

	// Unicode text keys; private use area codes without a mapping are dropped
	if code >= 0xE000 && code <= 0xF8FF {
		return KeyNone, 0
	}
	if code < 0x20 || code > 0x10FFFF {
		return KeyNone, 0
	}

	// Ctrl+letter keeps the legacy key identity so bindings match both encodings
	if mods&ModCtrl != 0 && code >= 'a' && code <= 'z' {
		return KeyCtrlA + Key(code-'a'), rune(code)
	}
	if code == ' ' && mods&ModCtrl != 0 {
		return KeyCtrlSpace, ' '
	}
	return KeyRune, rune(code)
}
