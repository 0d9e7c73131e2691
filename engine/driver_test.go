package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickterm/event"
	"github.com/lixenwraith/tickterm/status"
	"github.com/lixenwraith/tickterm/terminal"
)

type flushCall struct {
	size terminal.Size
	full bool
	row0 string
}

// scriptedHandle replays queued poll batches and records flushes
type scriptedHandle struct {
	cfg      terminal.ModeConfig
	batches  [][]terminal.Event
	pollErr  error
	flushErr error
	flushes  []flushCall
}

func (h *scriptedHandle) Enter(cfg terminal.ModeConfig) error {
	h.cfg = cfg
	return nil
}

func (h *scriptedHandle) Exit() error                 { return nil }
func (h *scriptedHandle) Config() terminal.ModeConfig { return h.cfg }

func (h *scriptedHandle) Size() (terminal.Size, error) {
	return terminal.Size{Width: 20, Height: 5}, nil
}

func (h *scriptedHandle) Poll(dst []terminal.Event) ([]terminal.Event, error) {
	if len(h.batches) > 0 {
		dst = append(dst, h.batches[0]...)
		h.batches = h.batches[1:]
	}
	return dst, h.pollErr
}

func (h *scriptedHandle) Flush(buf *terminal.Buffer, full bool) error {
	if h.flushErr != nil {
		return h.flushErr
	}
	size := buf.Size()
	row := make([]rune, 0, size.Width)
	for x := 0; x < size.Width; x++ {
		row = append(row, buf.Get(x, 0).Rune)
	}
	h.flushes = append(h.flushes, flushCall{size: size, full: full, row0: string(row)})
	return nil
}

func runeKey(r rune) terminal.Event {
	return terminal.Event{Type: terminal.EventKey, Key: terminal.KeyRune, Rune: r}
}

var testCfg = terminal.ModeConfig{RawMode: true, AlternateScreen: true, BracketedPaste: true}

func newTestDriver(h *scriptedHandle, draw DrawFunc, opts ...DriverOption) *Driver {
	return NewDriver(h, testCfg, terminal.Size{Width: 20, Height: 5}, draw, opts...)
}

func TestDriverPublishOrder(t *testing.T) {
	h := &scriptedHandle{batches: [][]terminal.Event{{runeKey('a'), runeKey('b')}}}
	q := event.NewQueue()
	d := newTestDriver(h, nil, WithQueue(q))

	require.NoError(t, d.Input())
	evs := q.Consume()
	require.Len(t, evs, 2)
	assert.Equal(t, 'a', evs[0].(event.KeyEvent).Rune)
	assert.Equal(t, 'b', evs[1].(event.KeyEvent).Rune)
	assert.Equal(t, StateIdle, d.State())
}

func TestDriverLargeBatchIsLossless(t *testing.T) {
	const n = 1500
	batch := make([]terminal.Event, n)
	for i := range batch {
		batch[i] = runeKey(rune('a' + i%26))
	}
	h := &scriptedHandle{batches: [][]terminal.Event{batch}}
	q := event.NewQueue()
	d := newTestDriver(h, nil, WithQueue(q))

	require.NoError(t, d.Input())
	evs := q.Consume()
	require.Len(t, evs, n)
	for i, ev := range evs {
		require.Equal(t, rune('a'+i%26), ev.(event.KeyEvent).Rune, "event %d", i)
	}
	assert.Zero(t, q.Dropped())
}

func TestDriverDropsDisabledModes(t *testing.T) {
	reg := status.NewRegistry()
	h := &scriptedHandle{batches: [][]terminal.Event{{
		{Type: terminal.EventMouse, MouseX: 1, MouseY: 1},
		{Type: terminal.EventFocus, Focused: true},
		{Type: terminal.EventPaste, Text: "ok"},
	}}}
	var got []event.Event
	d := newTestDriver(h, nil, WithPublisher(func(ev event.Event) { got = append(got, ev) }), WithDriverMetrics(reg))

	require.NoError(t, d.Input())
	require.Len(t, got, 1)
	assert.Equal(t, event.PasteEvent{Text: "ok"}, got[0])
	assert.Equal(t, int64(3), reg.Counter(status.DriverEventsIn).Load())
	assert.Equal(t, int64(1), reg.Counter(status.DriverEventsOut).Load())
	assert.Equal(t, int64(2), reg.Counter(status.DriverEventsDropped).Load())
}

func TestDriverResizeRender(t *testing.T) {
	h := &scriptedHandle{batches: [][]terminal.Event{
		nil,
		{{Type: terminal.EventResize, Width: 40, Height: 10}, {Type: terminal.EventResize, Width: 30, Height: 8}},
		nil,
	}}
	var draws []bool
	d := newTestDriver(h, func(buf *terminal.Buffer, size terminal.Size, resized bool) error {
		draws = append(draws, resized)
		buf.SetString(0, 0, "hello", terminal.DefaultStyle)
		return nil
	})

	for range 3 {
		require.NoError(t, d.Tick())
	}

	require.Len(t, h.flushes, 3)
	assert.True(t, h.flushes[0].full, "first frame is a full repaint")
	assert.Equal(t, terminal.Size{Width: 20, Height: 5}, h.flushes[0].size)

	assert.True(t, h.flushes[1].full)
	assert.Equal(t, terminal.Size{Width: 30, Height: 8}, h.flushes[1].size, "last resize in a tick wins")

	assert.False(t, h.flushes[2].full)
	assert.Equal(t, []bool{false, true, false}, draws)
	assert.Equal(t, "hello", h.flushes[2].row0[:5])

	assert.Equal(t, d.Viewport().Current(), d.Viewport().LastRendered())
}

func TestDriverRenderClearsBetweenFrames(t *testing.T) {
	h := &scriptedHandle{}
	frame := 0
	d := newTestDriver(h, func(buf *terminal.Buffer, _ terminal.Size, _ bool) error {
		if frame == 0 {
			buf.SetString(0, 0, "xx", terminal.DefaultStyle)
		}
		frame++
		return nil
	})
	require.NoError(t, d.Render())
	require.NoError(t, d.Render())
	assert.Equal(t, ' ', rune(h.flushes[1].row0[0]))
}

func TestDriverPollError(t *testing.T) {
	ioErr := &terminal.IOError{Op: "read", Err: errors.New("eof")}
	h := &scriptedHandle{
		batches: [][]terminal.Event{{runeKey('z')}},
		pollErr: ioErr,
	}
	var got []event.Event
	d := newTestDriver(h, nil, WithPublisher(func(ev event.Event) { got = append(got, ev) }))

	err := d.Input()
	var target *terminal.IOError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "read", target.Op)
	assert.Len(t, got, 1, "events decoded before the failure are published")
}

func TestDriverDrawError(t *testing.T) {
	reg := status.NewRegistry()
	h := &scriptedHandle{}
	boom := errors.New("bad frame")
	d := newTestDriver(h, func(*terminal.Buffer, terminal.Size, bool) error { return boom }, WithDriverMetrics(reg))

	err := d.Render()
	var de *DrawError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "draw: bad frame", err.Error())
	assert.Empty(t, h.flushes, "nothing is flushed after a draw failure")
	assert.Equal(t, int64(1), reg.Counter(status.DriverDrawErrors).Load())
	assert.Equal(t, int64(0), reg.Counter(status.DriverTicks).Load())
}

func TestDriverFlushError(t *testing.T) {
	h := &scriptedHandle{flushErr: &terminal.IOError{Op: "flush", Err: errors.New("broken pipe")}}
	d := newTestDriver(h, nil)

	err := d.Render()
	var target *terminal.IOError
	require.ErrorAs(t, err, &target)

	// A failed frame is not marked rendered, so the next one still repaints fully
	h.flushErr = nil
	require.NoError(t, d.Render())
	assert.True(t, h.flushes[0].full)
}

func TestDriverExitOnCtrlC(t *testing.T) {
	h := &scriptedHandle{batches: [][]terminal.Event{{
		runeKey('x'),
		{Type: terminal.EventKey, Key: terminal.KeyCtrlC, Rune: 'c', Modifiers: terminal.ModCtrl},
	}}}
	q := event.NewQueue()
	exits := 0
	d := newTestDriver(h, nil, WithQueue(q), WithExitOnCtrlC(func() { exits++ }))

	require.NoError(t, d.Input())
	assert.Equal(t, 1, exits)
	assert.Len(t, q.Consume(), 2, "ctrl+c is still published")
}

// doubler emits every key twice and a marker on each tick
type doubler struct{ ticks int }

func (p *doubler) Process(ev event.Event, emit func(event.Event)) {
	emit(ev)
	if _, ok := ev.(event.KeyEvent); ok {
		emit(ev)
	}
}

func (p *doubler) Tick(emit func(event.Event)) {
	p.ticks++
	emit(event.FocusEvent{Focused: true})
}

func TestDriverProcessor(t *testing.T) {
	h := &scriptedHandle{batches: [][]terminal.Event{{runeKey('k')}}}
	var got []event.Event
	p := &doubler{}
	d := newTestDriver(h, nil, WithProcessor(p), WithPublisher(func(ev event.Event) { got = append(got, ev) }))

	require.NoError(t, d.Input())
	require.NoError(t, d.Input())
	assert.Equal(t, 2, p.ticks, "processor ticks once per drain even when idle")
	require.Len(t, got, 4)
	assert.Equal(t, event.TypeKey, got[0].Type())
	assert.Equal(t, event.TypeKey, got[1].Type())
	assert.Equal(t, event.TypeFocus, got[2].Type())
	assert.Equal(t, event.TypeFocus, got[3].Type())
}

func TestDriverRegister(t *testing.T) {
	reg := status.NewRegistry()
	h := &scriptedHandle{batches: [][]terminal.Event{{runeKey('a')}}}
	q := event.NewQueue()
	d := newTestDriver(h, nil, WithQueue(q), WithDriverMetrics(reg))

	s := NewScheduler(60)
	var seen int
	d.Register(s)
	s.Add(StageUpdate, "consume", func(context.Context) error {
		seen += len(q.Consume())
		return nil
	})

	require.NoError(t, s.Step(context.Background()))
	assert.Equal(t, 1, seen, "input stage publishes before update consumes")
	assert.Len(t, h.flushes, 1)
	assert.Equal(t, int64(1), reg.Counter(status.DriverTicks).Load())
	assert.Equal(t, "idle", reg.Strings.Get(status.DriverState).Load())
}
