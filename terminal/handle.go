package terminal

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// Handle is the raw terminal: mode lifecycle, size, non-blocking input and frame output
type Handle interface {
	// Enter enables the configured modes in fixed order, unwinding on failure
	Enter(cfg ModeConfig) error

	// Exit reverses every entered mode in strict reverse order
	// Safe to call multiple times and from a goroutine other than the tick owner
	Exit() error

	// Config returns the configuration passed to the last Enter
	Config() ModeConfig

	// Size returns current terminal dimensions
	Size() (Size, error)

	// Poll appends all input available right now to dst without blocking
	Poll(dst []Event) ([]Event, error)

	// Flush writes buf to the terminal; full forces a clear and complete repaint
	Flush(buf *Buffer, full bool) error
}

// Restorer is the subset of Handle needed to put the terminal back
type Restorer interface {
	Exit() error
}

type options struct {
	log       *slog.Logger
	colorMode ColorMode
	colorSet  bool
}

// Option configures a handle
type Option func(*options)

// WithLogger routes handle diagnostics to l; default discards
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithColorMode overrides color detection
func WithColorMode(m ColorMode) Option {
	return func(o *options) {
		o.colorMode = m
		o.colorSet = true
	}
}

func buildOptions(opts []Option) options {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.colorSet {
		o.colorMode = DetectColorMode()
	}
	return o
}

// inputCounter is implemented by devices that can report how many input bytes are buffered
type inputCounter interface {
	Buffered() (int, error)
}

// ANSIHandle drives a Device with ANSI/xterm control sequences
type ANSIHandle struct {
	dev Device
	log *slog.Logger

	// mu serializes Enter, Poll and Flush
	mu sync.Mutex
	// exitMu serializes restores so a late Exit returns only once the terminal is back
	exitMu sync.Mutex

	cfg     ModeConfig
	modes   atomic.Uint32 // bit per entered Mode
	active  atomic.Bool
	dec     *decoder
	out     *frameWriter
	readBuf []byte
}

// deviceWriter adapts Device to io.Writer for the output buffer
type deviceWriter struct {
	dev Device
}

func (w deviceWriter) Write(p []byte) (int, error) {
	if err := w.dev.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// NewANSIHandle creates a handle over dev; no terminal state changes until Enter
func NewANSIHandle(dev Device, opts ...Option) *ANSIHandle {
	o := buildOptions(opts)
	return &ANSIHandle{
		dev:     dev,
		log:     o.log,
		dec:     newDecoder(),
		out:     newFrameWriter(deviceWriter{dev: dev}, o.colorMode),
		readBuf: make([]byte, 4096),
	}
}

// Enter enables modes in order raw, alt screen, mouse, focus, paste, keyboard
func (h *ANSIHandle) Enter(cfg ModeConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active.Load() || h.modes.Load() != 0 {
		return ErrAlreadyEntered
	}

	for _, m := range allModes {
		if !cfg.Has(m) {
			continue
		}
		if err := h.enterMode(m); err != nil {
			h.log.Warn("mode entry failed, unwinding", "mode", m.String(), "error", err)
			h.unwind()
			return ioErr("enter "+m.String(), err)
		}
		h.modes.Or(1 << m)
		h.log.Debug("mode entered", "mode", m.String())
	}

	size, err := h.dev.Size()
	if err != nil {
		h.unwind()
		return ioErr("size", err)
	}

	h.cfg = cfg
	h.dec.reset()
	h.out.resize(size.Width, size.Height)
	h.active.Store(true)
	return nil
}

func (h *ANSIHandle) enterMode(m Mode) error {
	if m == ModeRaw {
		return h.dev.MakeRaw()
	}
	return h.writeSeq(m.enterSeq())
}

func (h *ANSIHandle) exitMode(m Mode) error {
	if m == ModeRaw {
		return h.dev.Restore()
	}
	return h.writeSeq(m.exitSeq())
}

func (h *ANSIHandle) writeSeq(seq [][]byte) error {
	for _, s := range seq {
		if err := h.dev.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// unwind exits whatever modes are entered, errors are logged only
func (h *ANSIHandle) unwind() {
	if err := h.restore(); err != nil {
		h.log.Warn("unwind incomplete", "error", err)
	}
}

// restore reverses the entered mode set, continuing past failures
func (h *ANSIHandle) restore() error {
	h.exitMu.Lock()
	defer h.exitMu.Unlock()

	mask := h.modes.Swap(0)
	var first error
	for i := len(allModes) - 1; i >= 0; i-- {
		m := allModes[i]
		if mask&(1<<m) == 0 {
			continue
		}
		if err := h.exitMode(m); err != nil && first == nil {
			first = ioErr("exit "+m.String(), err)
		}
	}
	return first
}

// Exit restores the terminal; only the first call does work
func (h *ANSIHandle) Exit() error {
	h.active.Store(false)
	err := h.restore()
	if err != nil {
		h.log.Error("terminal restore failed", "error", err)
	}
	return err
}

// Entered reports whether Enter succeeded and Exit has not run
func (h *ANSIHandle) Entered() bool {
	return h.active.Load()
}

func (h *ANSIHandle) Config() ModeConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

func (h *ANSIHandle) Size() (Size, error) {
	s, err := h.dev.Size()
	if err != nil {
		return Size{}, ioErr("size", err)
	}
	return s, nil
}

// Poll drains the device: a pending resize first, then decoded input in arrival order
func (h *ANSIHandle) Poll(dst []Event) ([]Event, error) {
	if !h.active.Load() {
		return dst, ErrNotEntered
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dev.Resized() {
		s, err := h.dev.Size()
		if err != nil {
			return dst, ioErr("size", err)
		}
		dst = append(dst, Event{Type: EventResize, Width: s.Width, Height: s.Height})
	}

	// Drain until nothing is pending. When the device can count its buffer,
	// the drain stops at that snapshot so a flood cannot hold the tick
	budget := -1
	if c, ok := h.dev.(inputCounter); ok {
		if n, err := c.Buffered(); err == nil && n > 0 {
			budget = n
		}
	}

	got := false
	for budget != 0 {
		n, err := h.dev.ReadAvailable(h.readBuf)
		if err != nil {
			return dst, ioErr("read", err)
		}
		if n == 0 {
			break
		}
		got = true
		dst = h.dec.feed(dst, h.readBuf[:n])
		if budget > 0 {
			budget = max(budget-n, 0)
		}
	}
	if !got {
		dst = h.dec.idle(dst)
	}
	return dst, nil
}

// Flush diffs buf against the last frame and writes the changes
func (h *ANSIHandle) Flush(buf *Buffer, full bool) error {
	if !h.active.Load() {
		return ErrNotEntered
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	size := buf.Size()
	if full || size.Width != h.out.width || size.Height != h.out.height {
		h.out.resize(size.Width, size.Height)
		h.out.repaint(RGBBlack)
	}
	h.out.draw(buf.Cells(), size.Width, size.Height)
	if err := h.out.flush(); err != nil {
		return ioErr("flush", err)
	}
	return nil
}

// Close exits and releases the device
func (h *ANSIHandle) Close() error {
	err := h.Exit()
	if cerr := h.dev.Close(); err == nil && cerr != nil {
		err = ioErr("close", cerr)
	}
	return err
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery if Exit cannot be called normally
func EmergencyReset(w io.Writer) {
	// Disable reporting modes
	w.Write(csiKittyPop)
	w.Write(csiPasteOff)
	w.Write(csiFocusOff)
	w.Write(csiMouseDragOff)
	w.Write(csiMouseClickOff)
	w.Write(csiMouseSGROff)

	// Write sequences to provided writer
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)

	// Flush if it's a file
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	// Best-effort; ignore errors in crash context
	resetCookedMode()
}
