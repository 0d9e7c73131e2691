package terminal

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allConfigs() []ModeConfig {
	out := make([]ModeConfig, 0, 64)
	for bits := 0; bits < 64; bits++ {
		out = append(out, ModeConfig{
			RawMode:             bits&1 != 0,
			AlternateScreen:     bits&2 != 0,
			MouseCapture:        bits&4 != 0,
			FocusReporting:      bits&8 != 0,
			BracketedPaste:      bits&16 != 0,
			KeyboardEnhancement: bits&32 != 0,
		})
	}
	return out
}

func TestEnterExitRoundTripAllConfigs(t *testing.T) {
	for _, cfg := range allConfigs() {
		t.Run(cfg.String(), func(t *testing.T) {
			dev := newFakeDevice(80, 24)
			before := dev.snapshot()

			h := NewANSIHandle(dev)
			require.NoError(t, h.Enter(cfg))

			during := dev.snapshot()
			assert.Equal(t, cfg.RawMode, during.raw)
			assert.Equal(t, cfg.AlternateScreen, during.modes[1049])
			assert.Equal(t, cfg.MouseCapture, during.modes[1000])
			assert.Equal(t, cfg.MouseCapture, during.modes[1006])
			assert.Equal(t, cfg.FocusReporting, during.modes[1004])
			assert.Equal(t, cfg.BracketedPaste, during.modes[2004])
			if cfg.KeyboardEnhancement {
				assert.Equal(t, 1, during.kitty)
			} else {
				assert.Equal(t, 0, during.kitty)
			}

			require.NoError(t, h.Exit())
			after := dev.snapshot()
			assert.Equal(t, before.raw, after.raw)
			assert.Equal(t, before.kitty, after.kitty)
			assert.Equal(t, before.enabled(), after.enabled())
		})
	}
}

func TestEnterOrderAndReverseExit(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)

	full := ModeConfig{true, true, true, true, true, true}
	require.NoError(t, h.Enter(full))
	assert.Equal(t, []string{
		"raw",
		"set 1049", "reset 25", "reset 7",
		"set 1006", "set 1000", "set 1002",
		"set 1004",
		"set 2004",
		"kitty push",
	}, dev.opLog())

	dev.clearOps()
	require.NoError(t, h.Exit())
	assert.Equal(t, []string{
		"kitty pop",
		"reset 2004",
		"reset 1004",
		"reset 1002", "reset 1000", "reset 1006",
		"set 7", "set 25", "reset 1049",
		"cooked",
	}, dev.opLog())
}

func TestExitIdempotent(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))
	require.NoError(t, h.Exit())
	once := dev.snapshot()

	dev.clearOps()
	require.NoError(t, h.Exit())
	assert.Empty(t, dev.opLog(), "second Exit must not touch the device")
	assert.Equal(t, once, dev.snapshot())
	assert.False(t, h.Entered())
}

func TestExitConcurrent(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Exit()
		}()
	}
	wg.Wait()

	pops := 0
	for _, op := range dev.opLog() {
		if op == "kitty pop" {
			pops++
		}
	}
	assert.Equal(t, 1, pops, "restore must run exactly once")
	assert.False(t, dev.snapshot().raw)
}

func TestExitLateCallerWaitsForRestore(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))

	started := make(chan struct{})
	unblock := make(chan struct{})
	var startOnce sync.Once
	dev.failWrite = func(p []byte) error {
		if strings.Contains(string(p), string(csiKittyPop)) {
			startOnce.Do(func() { close(started) })
			<-unblock
		}
		return nil
	}

	go h.Exit()
	<-started

	lateDone := make(chan struct{})
	go func() {
		h.Exit()
		close(lateDone)
	}()

	select {
	case <-lateDone:
		t.Fatal("second Exit returned while the first was still restoring")
	case <-time.After(50 * time.Millisecond):
	}

	close(unblock)
	select {
	case <-lateDone:
	case <-time.After(2 * time.Second):
		t.Fatal("second Exit never returned")
	}
	after := dev.snapshot()
	assert.False(t, after.raw)
	assert.False(t, after.modes[1049])
	assert.Equal(t, 0, after.kitty)
}

func TestEnterPartialFailureUnwinds(t *testing.T) {
	dev := newFakeDevice(80, 24)
	before := dev.snapshot()
	dev.failWrite = failOnSeq(csiFocusOn)

	h := NewANSIHandle(dev)
	err := h.Enter(ModeConfig{true, true, true, true, true, true})
	require.Error(t, err)

	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "enter focus", ioe.Op)
	assert.ErrorIs(t, err, errInjected)

	after := dev.snapshot()
	assert.Equal(t, before.raw, after.raw)
	assert.Equal(t, before.enabled(), after.enabled())
	assert.Equal(t, 0, after.kitty)
	assert.False(t, h.Entered())

	// Nothing left to restore
	dev.clearOps()
	require.NoError(t, h.Exit())
	assert.Empty(t, dev.opLog())
}

func TestEnterRawFailure(t *testing.T) {
	dev := newFakeDevice(80, 24)
	dev.failRaw = ErrNotTerminal

	h := NewANSIHandle(dev)
	err := h.Enter(DefaultModeConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotTerminal)
	assert.Empty(t, dev.opLog())
}

func TestEnterSizeFailureUnwinds(t *testing.T) {
	dev := newFakeDevice(80, 24)
	dev.failSize = errInjected

	h := NewANSIHandle(dev)
	err := h.Enter(DefaultModeConfig())
	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "size", ioe.Op)
	assert.False(t, dev.snapshot().raw)
	assert.Equal(t, 0, dev.snapshot().kitty)
}

func TestEnterTwice(t *testing.T) {
	h := NewANSIHandle(newFakeDevice(80, 24))
	require.NoError(t, h.Enter(DefaultModeConfig()))
	assert.ErrorIs(t, h.Enter(DefaultModeConfig()), ErrAlreadyEntered)

	// Re-entry after exit is allowed
	require.NoError(t, h.Exit())
	require.NoError(t, h.Enter(ModeConfig{RawMode: true}))
	assert.Equal(t, ModeConfig{RawMode: true}, h.Config())
	require.NoError(t, h.Exit())
}

func TestExitContinuesPastFailures(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))

	dev.failWrite = failOnSeq(csiPasteOff)
	err := h.Exit()
	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "exit paste", ioe.Op)

	// Everything after the failed step still ran
	s := dev.snapshot()
	assert.False(t, s.raw)
	assert.False(t, s.modes[1049])
	assert.Equal(t, 0, s.kitty)
}

func TestPollRequiresEnter(t *testing.T) {
	h := NewANSIHandle(newFakeDevice(80, 24))
	_, err := h.Poll(nil)
	assert.ErrorIs(t, err, ErrNotEntered)
	assert.ErrorIs(t, h.Flush(NewBuffer(1, 1), false), ErrNotEntered)
}

func TestPollResizeFirstThenInputInOrder(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))
	defer h.Exit()

	dev.push("ab", "\x1b[A")
	dev.resize(100, 30)

	evs, err := h.Poll(nil)
	require.NoError(t, err)
	require.Len(t, evs, 4)
	assert.Equal(t, Event{Type: EventResize, Width: 100, Height: 30}, evs[0])
	assert.Equal(t, 'a', evs[1].Rune)
	assert.Equal(t, 'b', evs[2].Rune)
	assert.Equal(t, KeyUp, evs[3].Key)

	// Nothing pending
	evs, err = h.Poll(evs[:0])
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestPollDrainsEverythingPending(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))
	defer h.Exit()

	// Many more reads than a fixed-count loop would allow
	const chunks = 500
	for range chunks {
		dev.push("xy")
	}

	evs, err := h.Poll(nil)
	require.NoError(t, err)
	assert.Len(t, evs, 2*chunks)
}

// countingDevice reports a fixed buffered-byte snapshot
type countingDevice struct {
	*fakeDevice
	buffered int
}

func (d *countingDevice) Buffered() (int, error) { return d.buffered, nil }

func TestPollStopsAtBufferedSnapshot(t *testing.T) {
	dev := &countingDevice{fakeDevice: newFakeDevice(80, 24), buffered: 3}
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))
	defer h.Exit()

	// "def" arrives after the snapshot was taken
	dev.push("abc", "def")

	evs, err := h.Poll(nil)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, 'c', evs[2].Rune)

	dev.buffered = 3
	evs, err = h.Poll(evs[:0])
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, 'd', evs[0].Rune)
}

func TestPollLoneEscapeAfterIdle(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))
	defer h.Exit()

	dev.push("\x1b")
	evs, _ := h.Poll(nil)
	assert.Empty(t, evs)
	evs, _ = h.Poll(evs)
	assert.Empty(t, evs)
	evs, _ = h.Poll(evs)
	require.Len(t, evs, 1)
	assert.Equal(t, KeyEscape, evs[0].Key)
}

func TestPollReadError(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))
	defer h.Exit()

	dev.failRead = errInjected
	_, err := h.Poll(nil)
	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "read", ioe.Op)
}

func TestFlushWritesCells(t *testing.T) {
	dev := newFakeDevice(10, 2)
	h := NewANSIHandle(dev, WithColorMode(ColorModeTrueColor))
	require.NoError(t, h.Enter(ModeConfig{RawMode: true, AlternateScreen: true}))
	defer h.Exit()
	dev.clearOps()

	buf := NewBuffer(10, 2)
	buf.SetString(0, 0, "hi", DefaultStyle)
	require.NoError(t, h.Flush(buf, true))
	assert.Contains(t, dev.written(), "hi")

	// Unchanged frame writes no cell content
	dev.clearOps()
	require.NoError(t, h.Flush(buf, false))
	assert.NotContains(t, dev.written(), "hi")

	dev.failWrite = func([]byte) error { return errInjected }
	buf.SetString(0, 1, "yo", DefaultStyle)
	err := h.Flush(buf, false)
	var ioe *IOError
	require.True(t, errors.As(err, &ioe))
	assert.Equal(t, "flush", ioe.Op)
}

func TestCloseExitsAndClosesDevice(t *testing.T) {
	dev := newFakeDevice(80, 24)
	h := NewANSIHandle(dev)
	require.NoError(t, h.Enter(DefaultModeConfig()))
	require.NoError(t, h.Close())
	assert.True(t, dev.closed)
	assert.False(t, dev.snapshot().raw)
}

func TestEmergencyReset(t *testing.T) {
	var sb strings.Builder
	EmergencyReset(&sb)
	out := sb.String()
	for _, seq := range [][]byte{csiKittyPop, csiPasteOff, csiFocusOff, csiMouseSGROff, csiCursorShow, csiAltScreenExit, csiAutoWrapOn} {
		assert.Contains(t, out, string(seq))
	}
}
