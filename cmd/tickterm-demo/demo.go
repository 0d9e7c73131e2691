package main

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/tickterm/event"
	"github.com/lixenwraith/tickterm/input"
	"github.com/lixenwraith/tickterm/status"
	"github.com/lixenwraith/tickterm/terminal"
)

const maxLog = 64

var (
	bgFocused   = terminal.RGB{R: 20, G: 20, B: 30}
	bgUnfocused = terminal.RGB{R: 45, G: 20, B: 20}
	titleStyle  = terminal.Style{Fg: terminal.RGB{R: 200, G: 200, B: 200}, Bg: terminal.RGB{R: 40, G: 40, B: 60}, Attrs: terminal.AttrBold}
	logStyle    = terminal.Style{Fg: terminal.RGB{R: 180, G: 180, B: 180}}
	emuStyle    = terminal.Style{Fg: terminal.RGB{R: 120, G: 160, B: 220}}
	footerStyle = terminal.Style{Fg: terminal.RGB{R: 140, G: 140, B: 160}, Bg: terminal.RGB{R: 30, G: 30, B: 45}}
	cursorStyle = terminal.Style{Fg: terminal.RGB{R: 100, G: 255, B: 100}, Attrs: terminal.AttrBold}
)

type logEntry struct {
	text     string
	emulated bool
}

// demoState is the host side: event consumers update it, draw reads it
type demoState struct {
	focused  bool
	counter  int
	pastes   int
	mouseX   int
	mouseY   int
	hasMouse bool
	log      []logEntry

	quitKey terminal.Key
	hasQuit bool
	quit    func()

	reg      *status.Registry
	emulator *input.ReleaseEmulator
}

func newDemoState(reg *status.Registry, quit func()) *demoState {
	return &demoState{
		focused: true,
		log:     make([]logEntry, 0, maxLog),
		reg:     reg,
		quit:    quit,
	}
}

func (s *demoState) addLog(text string, emulated bool) {
	if len(s.log) >= maxLog {
		copy(s.log, s.log[1:])
		s.log = s.log[:maxLog-1]
	}
	s.log = append(s.log, logEntry{text: text, emulated: emulated})
}

// registerHandlers wires state reactions to the router
func registerHandlers(r *event.Router[*demoState]) {
	r.On(onKey, event.TypeKey)
	r.On(onMouse, event.TypeMouse)
	r.On(onPaste, event.TypePaste)
	r.On(onFocus, event.TypeFocus)
	r.On(onResize, event.TypeResize)
}

func onKey(s *demoState, ev event.Event) {
	k := ev.(event.KeyEvent)
	s.addLog("key "+k.String(), k.Emulated)
	if k.Kind != terminal.KeyPress {
		return
	}
	switch {
	case s.hasQuit && k.Key == s.quitKey:
		s.quit()
	case k.Key == terminal.KeyRune && k.Rune == '+':
		s.counter++
	case k.Key == terminal.KeyRune && k.Rune == '-':
		s.counter--
	}
}

func onMouse(s *demoState, ev event.Event) {
	m := ev.(event.MouseEvent)
	s.mouseX, s.mouseY, s.hasMouse = m.X, m.Y, true
	if m.Action == terminal.MouseActionMove {
		return
	}
	text := fmt.Sprintf("mouse %s %s at %d,%d", m.Button, m.Action, m.X, m.Y)
	if m.Modifiers != terminal.ModNone {
		text += " " + m.Modifiers.String()
	}
	s.addLog(text, false)
}

func onPaste(s *demoState, ev event.Event) {
	p := ev.(event.PasteEvent)
	s.pastes++
	text := strings.ReplaceAll(p.Text, "\n", "\\n")
	if terminal.StringWidth(text) > 40 {
		text = string([]rune(text)[:40]) + "..."
	}
	s.addLog(fmt.Sprintf("paste %d bytes %q", len(p.Text), text), false)
}

func onFocus(s *demoState, ev event.Event) {
	f := ev.(event.FocusEvent)
	s.focused = f.Focused
	if f.Focused {
		s.addLog("focus gained", false)
	} else {
		s.addLog("focus lost", false)
	}
}

func onResize(s *demoState, ev event.Event) {
	r := ev.(event.ResizeEvent)
	s.addLog(fmt.Sprintf("resize %dx%d", r.Size.Width, r.Size.Height), false)
}

// draw renders the title, the newest log entries that fit, and a metrics footer
func (s *demoState) draw(buf *terminal.Buffer, size terminal.Size, resized bool) error {
	w, h := size.Width, size.Height
	if w <= 0 || h <= 0 {
		return nil
	}
	bg := bgFocused
	if !s.focused {
		bg = bgUnfocused
	}
	buf.Fill(' ', terminal.Style{Fg: terminal.RGBWhite, Bg: bg})

	title := fmt.Sprintf(" tickterm demo  counter=%d pastes=%d  +/- to count, Ctrl+C to quit ", s.counter, s.pastes)
	for x := 0; x < w; x++ {
		buf.Set(x, 0, terminal.Cell{Rune: ' ', Bg: titleStyle.Bg})
	}
	buf.SetString(0, 0, title, titleStyle)

	footerRows := 2
	if h < 4 {
		footerRows = 0
	}
	rows := h - 1 - footerRows
	start := max(len(s.log)-rows, 0)
	for i, e := range s.log[start:] {
		st := logStyle
		if e.emulated {
			st = emuStyle
		}
		st.Bg = bg
		buf.SetString(1, 1+i, e.text, st)
	}

	if s.hasMouse && buf.InBounds(s.mouseX, s.mouseY) {
		st := cursorStyle
		st.Bg = bg
		buf.SetString(s.mouseX, s.mouseY, "+", st)
	}

	if footerRows > 0 && s.reg != nil {
		for y := h - footerRows; y < h; y++ {
			for x := 0; x < w; x++ {
				buf.Set(x, y, terminal.Cell{Rune: ' ', Bg: footerStyle.Bg})
			}
		}
		buf.SetString(0, h-2, " "+s.reg.Line("driver.")+" "+s.reg.Line("scheduler."), footerStyle)
		kb := " " + s.reg.Line("terminal.") + " " + s.reg.Line("keyboard.")
		if s.emulator != nil {
			kb += " emulating=" + s.emulator.Emulating().String()
		}
		if resized {
			kb += " (resized)"
		}
		buf.SetString(0, h-1, kb, footerStyle)
	}
	return nil
}
