package terminal

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// ScreenHandle implements Handle on top of a tcell.Screen
// tcell switches raw mode and the alternate screen together, so both flags must be set
type ScreenHandle struct {
	newScreen func() (tcell.Screen, error)
	opts      options

	mu     sync.Mutex
	exitMu sync.Mutex
	cfg    ModeConfig
	screen tcell.Screen
	active atomic.Bool

	inPaste bool
	paste   strings.Builder

	// Last reported button state, for deriving press/release/drag
	lastButtons tcell.ButtonMask
}

// NewScreenHandle creates a handle that opens the controlling terminal through tcell on Enter
func NewScreenHandle(opts ...Option) *ScreenHandle {
	return NewScreenHandleFunc(tcell.NewScreen, opts...)
}

// NewScreenHandleFunc creates a handle whose screens come from newScreen
// A fresh screen is requested on every Enter since a finalized tcell screen cannot be reused
func NewScreenHandleFunc(newScreen func() (tcell.Screen, error), opts ...Option) *ScreenHandle {
	return &ScreenHandle{
		newScreen: newScreen,
		opts:      buildOptions(opts),
	}
}

func (h *ScreenHandle) Enter(cfg ModeConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active.Load() {
		return ErrAlreadyEntered
	}
	if !cfg.RawMode || !cfg.AlternateScreen {
		return ErrUnsupportedConfig
	}

	s, err := h.newScreen()
	if err != nil {
		return ioErr("open", err)
	}
	if err := s.Init(); err != nil {
		return ioErr("enter raw+alt_screen", err)
	}

	if cfg.MouseCapture {
		s.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	}
	if cfg.FocusReporting {
		s.EnableFocus()
	}
	if cfg.BracketedPaste {
		s.EnablePaste()
	}
	if cfg.KeyboardEnhancement {
		h.opts.log.Debug("tcell backend reports key presses only, releases need emulation")
	}
	s.HideCursor()

	h.cfg = cfg
	h.screen = s
	h.inPaste = false
	h.paste.Reset()
	h.lastButtons = tcell.ButtonNone
	h.active.Store(true)
	h.opts.log.Debug("tcell screen entered", "modes", cfg.String())
	return nil
}

// Exit disables reporting modes in reverse order and finalizes the screen
// A concurrent call waits for the running one to finish
func (h *ScreenHandle) Exit() error {
	h.exitMu.Lock()
	defer h.exitMu.Unlock()

	if !h.active.Swap(false) {
		return nil
	}
	s := h.screen
	if h.cfg.BracketedPaste {
		s.DisablePaste()
	}
	if h.cfg.FocusReporting {
		s.DisableFocus()
	}
	if h.cfg.MouseCapture {
		s.DisableMouse()
	}
	s.ShowCursor(0, 0)
	s.Fini()
	return nil
}

func (h *ScreenHandle) Config() ModeConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

func (h *ScreenHandle) Size() (Size, error) {
	if !h.active.Load() {
		return Size{}, ErrNotEntered
	}
	w, ht := h.screen.Size()
	return Size{Width: w, Height: ht}, nil
}

// Poll converts every event tcell already has queued, stopping once the queue is empty
func (h *ScreenHandle) Poll(dst []Event) ([]Event, error) {
	if !h.active.Load() {
		return dst, ErrNotEntered
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for h.screen.HasPendingEvent() {
		ev := h.screen.PollEvent()
		if ev == nil {
			break
		}
		if out, ok := h.convert(ev); ok {
			dst = append(dst, out)
		}
	}
	return dst, nil
}

func (h *ScreenHandle) convert(ev tcell.Event) (Event, bool) {
	switch e := ev.(type) {
	case *tcell.EventPaste:
		if e.Start() {
			h.inPaste = true
			h.paste.Reset()
			return Event{}, false
		}
		h.inPaste = false
		text := h.paste.String()
		h.paste.Reset()
		return Event{Type: EventPaste, Text: text}, true

	case *tcell.EventKey:
		if h.inPaste {
			switch e.Key() {
			case tcell.KeyRune:
				h.paste.WriteRune(e.Rune())
			case tcell.KeyEnter:
				h.paste.WriteByte('\r')
			case tcell.KeyCtrlJ:
				h.paste.WriteByte('\n')
			case tcell.KeyTab:
				h.paste.WriteByte('\t')
			}
			return Event{}, false
		}
		return convertTcellKey(e)

	case *tcell.EventMouse:
		return h.convertMouse(e), true

	case *tcell.EventResize:
		w, ht := e.Size()
		return Event{Type: EventResize, Width: w, Height: ht}, true

	case *tcell.EventFocus:
		return Event{Type: EventFocus, Focused: e.Focused}, true
	}
	return Event{}, false
}

func convertTcellMods(m tcell.ModMask) Modifier {
	var mods Modifier
	if m&tcell.ModShift != 0 {
		mods |= ModShift
	}
	if m&tcell.ModAlt != 0 {
		mods |= ModAlt
	}
	if m&tcell.ModCtrl != 0 {
		mods |= ModCtrl
	}
	if m&tcell.ModMeta != 0 {
		mods |= ModMeta
	}
	return mods
}

var tcellKeys = map[tcell.Key]Key{
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyTab:        KeyTab,
	tcell.KeyBacktab:    KeyBacktab,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyDelete:     KeyDelete,
	tcell.KeyInsert:     KeyInsert,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyF1:         KeyF1,
	tcell.KeyF2:         KeyF2,
	tcell.KeyF3:         KeyF3,
	tcell.KeyF4:         KeyF4,
	tcell.KeyF5:         KeyF5,
	tcell.KeyF6:         KeyF6,
	tcell.KeyF7:         KeyF7,
	tcell.KeyF8:         KeyF8,
	tcell.KeyF9:         KeyF9,
	tcell.KeyF10:        KeyF10,
	tcell.KeyF11:        KeyF11,
	tcell.KeyF12:        KeyF12,
	tcell.KeyCtrlSpace:  KeyCtrlSpace,
}

func convertTcellKey(e *tcell.EventKey) (Event, bool) {
	mods := convertTcellMods(e.Modifiers())
	k := e.Key()

	if k == tcell.KeyRune {
		if r := e.Rune(); mods&ModCtrl != 0 && r >= 'a' && r <= 'z' {
			return Event{Type: EventKey, Key: KeyCtrlA + Key(r-'a'), Rune: r, Modifiers: mods}, true
		}
		return Event{Type: EventKey, Key: KeyRune, Rune: e.Rune(), Modifiers: mods}, true
	}
	if key, ok := tcellKeys[k]; ok {
		return Event{Type: EventKey, Key: key, Modifiers: mods}, true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		off := Key(k - tcell.KeyCtrlA)
		return Event{Type: EventKey, Key: KeyCtrlA + off, Rune: 'a' + rune(off), Modifiers: mods | ModCtrl}, true
	}
	return Event{}, false
}

func (h *ScreenHandle) convertMouse(e *tcell.EventMouse) Event {
	x, y := e.Position()
	ev := Event{Type: EventMouse, MouseX: x, MouseY: y, Modifiers: convertTcellMods(e.Modifiers())}

	btns := e.Buttons()
	prev := h.lastButtons
	h.lastButtons = btns &^ (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight)

	switch {
	case btns&tcell.WheelUp != 0:
		ev.MouseBtn, ev.MouseAction = MouseBtnWheelUp, MouseActionPress
		return ev
	case btns&tcell.WheelDown != 0:
		ev.MouseBtn, ev.MouseAction = MouseBtnWheelDown, MouseActionPress
		return ev
	}

	cur := h.lastButtons
	switch {
	case cur == tcell.ButtonNone && prev != tcell.ButtonNone:
		ev.MouseBtn, ev.MouseAction = tcellButton(prev), MouseActionRelease
	case cur == tcell.ButtonNone:
		ev.MouseAction = MouseActionMove
	case cur == prev:
		ev.MouseBtn, ev.MouseAction = tcellButton(cur), MouseActionDrag
	case cur&^prev == 0:
		ev.MouseBtn, ev.MouseAction = tcellButton(prev&^cur), MouseActionRelease
	default:
		ev.MouseBtn, ev.MouseAction = tcellButton(cur&^prev), MouseActionPress
	}
	return ev
}

func tcellButton(b tcell.ButtonMask) MouseButton {
	switch {
	case b&tcell.Button1 != 0:
		return MouseBtnLeft
	case b&tcell.Button3 != 0:
		return MouseBtnMiddle
	case b&tcell.Button2 != 0:
		return MouseBtnRight
	case b&tcell.Button4 != 0:
		return MouseBtnBack
	case b&tcell.Button5 != 0:
		return MouseBtnForward
	}
	return MouseBtnNone
}

// Flush copies buf into the tcell back buffer and shows it
func (h *ScreenHandle) Flush(buf *Buffer, full bool) error {
	if !h.active.Load() {
		return ErrNotEntered
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.screen
	size := buf.Size()
	cells := buf.Cells()
	for y := 0; y < size.Height; y++ {
		row := cells[y*size.Width : (y+1)*size.Width]
		for x, c := range row {
			if c.Rune == wideTail {
				continue
			}
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			s.SetContent(x, y, r, nil, tcellStyle(c))
		}
	}
	if full {
		s.Sync()
	} else {
		s.Show()
	}
	return nil
}

func tcellStyle(c Cell) tcell.Style {
	st := tcell.StyleDefault
	if c.Attrs&AttrFg256 != 0 {
		st = st.Foreground(tcell.PaletteColor(int(c.Fg.R)))
	} else {
		st = st.Foreground(tcell.NewRGBColor(int32(c.Fg.R), int32(c.Fg.G), int32(c.Fg.B)))
	}
	if c.Attrs&AttrBg256 != 0 {
		st = st.Background(tcell.PaletteColor(int(c.Bg.R)))
	} else {
		st = st.Background(tcell.NewRGBColor(int32(c.Bg.R), int32(c.Bg.G), int32(c.Bg.B)))
	}
	return st.
		Bold(c.Attrs&AttrBold != 0).
		Dim(c.Attrs&AttrDim != 0).
		Italic(c.Attrs&AttrItalic != 0).
		Underline(c.Attrs&AttrUnderline != 0).
		Blink(c.Attrs&AttrBlink != 0).
		Reverse(c.Attrs&AttrReverse != 0)
}
