package terminal

import "strings"

// ModeConfig selects the terminal capabilities a session enables
// Fixed at session construction; each flag maps to an entry action and its mirrored exit action
type ModeConfig struct {
	RawMode             bool `toml:"raw_mode" yaml:"raw_mode"`
	AlternateScreen     bool `toml:"alternate_screen" yaml:"alternate_screen"`
	MouseCapture        bool `toml:"mouse_capture" yaml:"mouse_capture"`
	FocusReporting      bool `toml:"focus_reporting" yaml:"focus_reporting"`
	BracketedPaste      bool `toml:"bracketed_paste" yaml:"bracketed_paste"`
	KeyboardEnhancement bool `toml:"keyboard_enhancement" yaml:"keyboard_enhancement"`
}

// DefaultModeConfig returns raw mode, alternate screen, bracketed paste and kitty keyboard enabled
// Mouse capture and focus reporting are opt-in
func DefaultModeConfig() ModeConfig {
	return ModeConfig{
		RawMode:             true,
		AlternateScreen:     true,
		MouseCapture:        false,
		FocusReporting:      false,
		BracketedPaste:      true,
		KeyboardEnhancement: true,
	}
}

// String lists enabled modes in entry order
func (c ModeConfig) String() string {
	var parts []string
	for _, m := range allModes {
		if c.Has(m) {
			parts = append(parts, m.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Has reports whether the given mode is enabled
func (c ModeConfig) Has(m Mode) bool {
	switch m {
	case ModeRaw:
		return c.RawMode
	case ModeAltScreen:
		return c.AlternateScreen
	case ModeMouse:
		return c.MouseCapture
	case ModeFocus:
		return c.FocusReporting
	case ModePaste:
		return c.BracketedPaste
	case ModeKeyboard:
		return c.KeyboardEnhancement
	}
	return false
}

// Mode identifies a single toggleable terminal capability
type Mode uint8

const (
	ModeRaw Mode = iota
	ModeAltScreen
	ModeMouse
	ModeFocus
	ModePaste
	ModeKeyboard
)

// allModes is the fixed entry order; exit walks it backwards
var allModes = [...]Mode{ModeRaw, ModeAltScreen, ModeMouse, ModeFocus, ModePaste, ModeKeyboard}

func (m Mode) String() string {
	switch m {
	case ModeRaw:
		return "raw"
	case ModeAltScreen:
		return "alt_screen"
	case ModeMouse:
		return "mouse"
	case ModeFocus:
		return "focus"
	case ModePaste:
		return "paste"
	case ModeKeyboard:
		return "keyboard"
	}
	return "unknown"
}

// enterSeq returns the control sequences written when the mode is entered
// ModeRaw is a termios change and has no sequence
func (m Mode) enterSeq() [][]byte {
	switch m {
	case ModeAltScreen:
		return [][]byte{csiAltScreenEnter, csiCursorHide, csiAutoWrapOff}
	case ModeMouse:
		return [][]byte{csiMouseSGROn, csiMouseClickOn, csiMouseDragOn}
	case ModeFocus:
		return [][]byte{csiFocusOn}
	case ModePaste:
		return [][]byte{csiPasteOn}
	case ModeKeyboard:
		return [][]byte{csiKittyPush}
	}
	return nil
}

// exitSeq mirrors enterSeq in reverse order
// Leaving the alternate screen also resets SGR attributes
func (m Mode) exitSeq() [][]byte {
	switch m {
	case ModeAltScreen:
		return [][]byte{csiSGR0, csiAutoWrapOn, csiCursorShow, csiAltScreenExit}
	case ModeMouse:
		return [][]byte{csiMouseDragOff, csiMouseClickOff, csiMouseSGROff}
	case ModeFocus:
		return [][]byte{csiFocusOff}
	case ModePaste:
		return [][]byte{csiPasteOff}
	case ModeKeyboard:
		return [][]byte{csiKittyPop}
	}
	return nil
}
