package terminal

// EventType distinguishes raw input event categories
type EventType uint8

const (
	EventKey EventType = iota
	EventMouse
	EventResize
	EventPaste
	EventFocus
)

func (t EventType) String() string {
	switch t {
	case EventKey:
		return "key"
	case EventMouse:
		return "mouse"
	case EventResize:
		return "resize"
	case EventPaste:
		return "paste"
	case EventFocus:
		return "focus"
	}
	return "unknown"
}

// KeyKind distinguishes press, auto-repeat and release
// Legacy terminals report only KeyPress; repeat and release need the kitty keyboard protocol
type KeyKind uint8

const (
	KeyPress KeyKind = iota
	KeyRepeat
	KeyRelease
)

func (k KeyKind) String() string {
	switch k {
	case KeyPress:
		return "press"
	case KeyRepeat:
		return "repeat"
	case KeyRelease:
		return "release"
	}
	return "unknown"
}

// Event is a raw terminal input event, produced by a Handle poll
// Immutable once read
type Event struct {
	Type EventType

	// Key event fields
	Key       Key
	Rune      rune
	Modifiers Modifier
	Kind      KeyKind

	// Resize event fields
	Width  int
	Height int

	// Mouse event fields (0-indexed cells)
	MouseX      int
	MouseY      int
	MouseBtn    MouseButton
	MouseAction MouseAction

	// Paste event payload
	Text string

	// Focus event state
	Focused bool
}

// IsCtrlC reports whether the event is a Ctrl+C press in legacy or kitty encoding
func (e Event) IsCtrlC() bool {
	if e.Type != EventKey || e.Kind == KeyRelease {
		return false
	}
	if e.Key == KeyCtrlC {
		return true
	}
	return e.Key == KeyRune && (e.Rune == 'c' || e.Rune == 'C') && e.Modifiers&ModCtrl != 0
}
