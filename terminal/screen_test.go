package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimHandle(t *testing.T) (*ScreenHandle, *tcell.SimulationScreen) {
	t.Helper()
	var sim tcell.SimulationScreen
	h := NewScreenHandleFunc(func() (tcell.Screen, error) {
		sim = tcell.NewSimulationScreen("UTF-8")
		return sim, nil
	})
	full := ModeConfig{true, true, true, true, true, false}
	require.NoError(t, h.Enter(full))
	t.Cleanup(func() { h.Exit() })
	sim.SetSize(80, 24)
	return h, &sim
}

// pollTyped drains the handle and keeps only events of type typ
func pollTyped(t *testing.T, h *ScreenHandle, typ EventType) []Event {
	t.Helper()
	evs, err := h.Poll(nil)
	require.NoError(t, err)
	var out []Event
	for _, ev := range evs {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestScreenHandleRequiresRawAndAlt(t *testing.T) {
	h := NewScreenHandleFunc(func() (tcell.Screen, error) {
		return tcell.NewSimulationScreen("UTF-8"), nil
	})
	assert.ErrorIs(t, h.Enter(ModeConfig{RawMode: true}), ErrUnsupportedConfig)
	assert.ErrorIs(t, h.Enter(ModeConfig{AlternateScreen: true}), ErrUnsupportedConfig)
	_, err := h.Size()
	assert.ErrorIs(t, err, ErrNotEntered)
}

func TestScreenHandleKeys(t *testing.T) {
	h, sim := newSimHandle(t)
	s := *sim

	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	s.InjectKey(tcell.KeyUp, 0, tcell.ModShift)
	s.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	s.InjectKey(tcell.KeyF5, 0, tcell.ModNone)

	keys := pollTyped(t, h, EventKey)
	require.Len(t, keys, 4)
	assert.Equal(t, Event{Type: EventKey, Key: KeyRune, Rune: 'q'}, keys[0])
	assert.Equal(t, KeyUp, keys[1].Key)
	assert.Equal(t, ModShift, keys[1].Modifiers)
	assert.True(t, keys[2].IsCtrlC())
	assert.Equal(t, KeyF5, keys[3].Key)
}

func TestScreenHandleMouse(t *testing.T) {
	h, sim := newSimHandle(t)
	s := *sim

	s.InjectMouse(5, 6, tcell.Button1, tcell.ModNone)
	s.InjectMouse(7, 6, tcell.Button1, tcell.ModNone)
	s.InjectMouse(7, 6, tcell.ButtonNone, tcell.ModNone)
	s.InjectMouse(1, 1, tcell.WheelDown, tcell.ModNone)

	mouse := pollTyped(t, h, EventMouse)
	require.Len(t, mouse, 4)
	assert.Equal(t, MouseActionPress, mouse[0].MouseAction)
	assert.Equal(t, MouseBtnLeft, mouse[0].MouseBtn)
	assert.Equal(t, 5, mouse[0].MouseX)
	assert.Equal(t, 6, mouse[0].MouseY)
	assert.Equal(t, MouseActionDrag, mouse[1].MouseAction)
	assert.Equal(t, MouseActionRelease, mouse[2].MouseAction)
	assert.Equal(t, MouseBtnLeft, mouse[2].MouseBtn)
	assert.Equal(t, MouseBtnWheelDown, mouse[3].MouseBtn)
}

func TestScreenHandlePasteAndFocus(t *testing.T) {
	h, sim := newSimHandle(t)
	s := *sim

	require.NoError(t, s.PostEvent(tcell.NewEventPaste(true)))
	s.InjectKey(tcell.KeyRune, 'h', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'i', tcell.ModNone)
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	require.NoError(t, s.PostEvent(tcell.NewEventPaste(false)))
	require.NoError(t, s.PostEvent(tcell.NewEventFocus(false)))

	evs, err := h.Poll(nil)
	require.NoError(t, err)
	var paste, focus []Event
	for _, ev := range evs {
		switch ev.Type {
		case EventPaste:
			paste = append(paste, ev)
		case EventFocus:
			focus = append(focus, ev)
		case EventKey:
			t.Errorf("key leaked out of paste: %+v", ev)
		}
	}
	require.Len(t, paste, 1)
	assert.Equal(t, "hi\r", paste[0].Text)
	require.Len(t, focus, 1)
	assert.False(t, focus[0].Focused)
}

func TestScreenHandleFlush(t *testing.T) {
	h, sim := newSimHandle(t)
	s := *sim

	size, err := h.Size()
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 80, Height: 24}, size)

	buf := NewBuffer(size.Width, size.Height)
	buf.SetString(2, 3, "ok", Style{Fg: RGBGreen, Bg: RGBBlack, Attrs: AttrBold})
	require.NoError(t, h.Flush(buf, true))

	cells, w, _ := s.GetContents()
	assert.Equal(t, []byte("o"), cells[3*w+2].Bytes)
	assert.Equal(t, []byte("k"), cells[3*w+3].Bytes)
	_, _, attrs := cells[3*w+2].Style.Decompose()
	assert.NotZero(t, attrs&tcell.AttrBold)
}

func TestScreenHandleExitIdempotent(t *testing.T) {
	h, _ := newSimHandle(t)
	require.NoError(t, h.Exit())
	require.NoError(t, h.Exit())
	_, err := h.Poll(nil)
	assert.ErrorIs(t, err, ErrNotEntered)

	// A fresh screen is created on re-entry
	require.NoError(t, h.Enter(ModeConfig{RawMode: true, AlternateScreen: true}))
	require.NoError(t, h.Exit())
}
