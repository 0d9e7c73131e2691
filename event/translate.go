package event

import "github.com/lixenwraith/tickterm/terminal"

// Translate maps a raw terminal event to a host event under cfg
// Mouse, focus and paste events pass only when their mode is enabled; key and resize always pass
// Without keyboard enhancement repeats collapse to presses and releases are dropped
func Translate(raw terminal.Event, cfg terminal.ModeConfig) (Event, bool) {
	switch raw.Type {
	case terminal.EventKey:
		if raw.Key == terminal.KeyNone {
			return nil, false
		}
		kind := raw.Kind
		if !cfg.KeyboardEnhancement {
			switch kind {
			case terminal.KeyRelease:
				return nil, false
			case terminal.KeyRepeat:
				kind = terminal.KeyPress
			}
		}
		return KeyEvent{
			Key:       raw.Key,
			Rune:      raw.Rune,
			Modifiers: raw.Modifiers,
			Kind:      kind,
		}, true

	case terminal.EventMouse:
		if !cfg.MouseCapture {
			return nil, false
		}
		return MouseEvent{
			X:         max(raw.MouseX, 0),
			Y:         max(raw.MouseY, 0),
			Button:    raw.MouseBtn,
			Action:    raw.MouseAction,
			Modifiers: raw.Modifiers,
		}, true

	case terminal.EventPaste:
		if !cfg.BracketedPaste {
			return nil, false
		}
		return PasteEvent{Text: raw.Text}, true

	case terminal.EventFocus:
		if !cfg.FocusReporting {
			return nil, false
		}
		return FocusEvent{Focused: raw.Focused}, true

	case terminal.EventResize:
		return ResizeEvent{Size: terminal.Size{
			Width:  max(raw.Width, 0),
			Height: max(raw.Height, 0),
		}}, true
	}
	return nil, false
}
