// Package event defines the host-facing input events produced from raw terminal input,
// the pure translation step, and the FIFO stream the frame driver publishes into.
package event

import (
	"fmt"

	"github.com/lixenwraith/tickterm/terminal"
)

// Type identifies the concrete event kind
type Type uint8

const (
	TypeKey Type = iota
	TypeMouse
	TypePaste
	TypeFocus
	TypeResize
)

func (t Type) String() string {
	switch t {
	case TypeKey:
		return "key"
	case TypeMouse:
		return "mouse"
	case TypePaste:
		return "paste"
	case TypeFocus:
		return "focus"
	case TypeResize:
		return "resize"
	}
	return "unknown"
}

// Event is a translated input event
type Event interface {
	Type() Type
}

// KeyEvent is a keyboard press, repeat or release
type KeyEvent struct {
	Key       terminal.Key
	Rune      rune
	Modifiers terminal.Modifier
	Kind      terminal.KeyKind

	// Emulated marks releases synthesized because the terminal does not report them
	Emulated bool
}

func (KeyEvent) Type() Type { return TypeKey }

// IsCtrlC reports a Ctrl+C press in either legacy or kitty encoding
func (e KeyEvent) IsCtrlC() bool {
	if e.Kind == terminal.KeyRelease {
		return false
	}
	if e.Key == terminal.KeyCtrlC {
		return true
	}
	return e.Key == terminal.KeyRune && (e.Rune == 'c' || e.Rune == 'C') && e.Modifiers&terminal.ModCtrl != 0
}

// Same reports whether two events refer to the same physical key
func (e KeyEvent) Same(o KeyEvent) bool {
	if e.Key != o.Key {
		return false
	}
	return e.Key != terminal.KeyRune || e.Rune == o.Rune
}

func (e KeyEvent) String() string {
	name := e.Key.String()
	if e.Key == terminal.KeyRune {
		name = fmt.Sprintf("%q", e.Rune)
	}
	if e.Modifiers != terminal.ModNone {
		name = e.Modifiers.String() + "+" + name
	}
	return name + " " + e.Kind.String()
}

// MouseEvent is a button, wheel or motion report in 0-indexed cells
type MouseEvent struct {
	X, Y      int
	Button    terminal.MouseButton
	Action    terminal.MouseAction
	Modifiers terminal.Modifier
}

func (MouseEvent) Type() Type { return TypeMouse }

// PasteEvent carries bracketed paste text
type PasteEvent struct {
	Text string
}

func (PasteEvent) Type() Type { return TypePaste }

// FocusEvent reports the terminal window gaining or losing focus
type FocusEvent struct {
	Focused bool
}

func (FocusEvent) Type() Type { return TypeFocus }

// ResizeEvent reports new terminal dimensions
type ResizeEvent struct {
	Size terminal.Size
}

func (ResizeEvent) Type() Type { return TypeResize }
