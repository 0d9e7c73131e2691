package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/lixenwraith/tickterm/core"
	"github.com/lixenwraith/tickterm/event"
	"github.com/lixenwraith/tickterm/status"
	"github.com/lixenwraith/tickterm/terminal"
)

// State is the driver phase within a tick
type State uint32

const (
	StateIdle State = iota
	StatePolling
	StateTranslating
	StateDrawing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateTranslating:
		return "translating"
	case StateDrawing:
		return "drawing"
	}
	return "unknown"
}

// DrawFunc renders one frame into buf
// resized is true when size differs from the previous frame
type DrawFunc func(buf *terminal.Buffer, size terminal.Size, resized bool) error

// DrawError wraps a failure returned by the draw callback
type DrawError struct {
	Err error
}

func (e *DrawError) Error() string { return "draw: " + e.Err.Error() }

func (e *DrawError) Unwrap() error { return e.Err }

// EventProcessor rewrites the translated stream before publication
// Process sees every event in order; Tick runs once after each drain
type EventProcessor interface {
	Process(ev event.Event, emit func(event.Event))
	Tick(emit func(event.Event))
}

// Driver runs the per-tick terminal work: drain input, translate, publish, draw, mark rendered
// Single-threaded; owned by the scheduler goroutine
type Driver struct {
	handle   terminal.Handle
	cfg      terminal.ModeConfig
	viewport *Viewport
	draw     DrawFunc
	buf      *terminal.Buffer
	log      *slog.Logger

	publish   func(event.Event)
	onCtrlC   func()
	processor EventProcessor
	emit      func(event.Event)

	raw   []terminal.Event
	first bool
	state atomic.Uint32

	// Cached metric pointers
	statTicks   *atomic.Int64
	statIn      *atomic.Int64
	statOut     *atomic.Int64
	statDropped *atomic.Int64
	statResizes *atomic.Int64
	statDrawErr *atomic.Int64
	statState   *status.AtomicString
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithPublisher sets the sink for translated events; defaults to discarding them
func WithPublisher(fn func(event.Event)) DriverOption {
	return func(d *Driver) {
		if fn != nil {
			d.publish = fn
		}
	}
}

// WithQueue publishes translated events into q
// Use an unbounded queue so no decoded input is lost between consumes
func WithQueue(q *event.Queue) DriverOption {
	return WithPublisher(q.Push)
}

// WithExitOnCtrlC calls fn when Ctrl+C is read; the key event is still published
func WithExitOnCtrlC(fn func()) DriverOption {
	return func(d *Driver) { d.onCtrlC = fn }
}

// WithProcessor inserts p between translation and publication
func WithProcessor(p EventProcessor) DriverOption {
	return func(d *Driver) { d.processor = p }
}

// WithDriverLogger sets the driver logger
func WithDriverLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithDriverMetrics records tick, event and draw counters in reg
func WithDriverMetrics(reg *status.Registry) DriverOption {
	return func(d *Driver) {
		d.statTicks = reg.Counter(status.DriverTicks)
		d.statIn = reg.Counter(status.DriverEventsIn)
		d.statOut = reg.Counter(status.DriverEventsOut)
		d.statDropped = reg.Counter(status.DriverEventsDropped)
		d.statResizes = reg.Counter(status.DriverResizes)
		d.statDrawErr = reg.Counter(status.DriverDrawErrors)
		d.statState = reg.Strings.Get(status.DriverState)
	}
}

// NewDriver creates a driver for an entered handle
// cfg must be the configuration the handle was entered with, initial its size at entry
func NewDriver(h terminal.Handle, cfg terminal.ModeConfig, initial terminal.Size, draw DrawFunc, opts ...DriverOption) *Driver {
	d := &Driver{
		handle:      h,
		cfg:         cfg,
		viewport:    NewViewport(initial),
		draw:        draw,
		buf:         terminal.NewBuffer(initial.Width, initial.Height),
		log:         slog.New(slog.DiscardHandler),
		publish:     func(event.Event) {},
		raw:         make([]terminal.Event, 0, 64),
		first:       true,
		statTicks:   new(atomic.Int64),
		statIn:      new(atomic.Int64),
		statOut:     new(atomic.Int64),
		statDropped: new(atomic.Int64),
		statResizes: new(atomic.Int64),
		statDrawErr: new(atomic.Int64),
		statState:   new(status.AtomicString),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.emit = d.deliver
	d.setState(StateIdle)
	return d
}

// NewSessionDriver creates a driver for an open session
func NewSessionDriver(s *core.Session, draw DrawFunc, opts ...DriverOption) *Driver {
	return NewDriver(s.Handle(), s.Config(), s.InitialSize(), draw, opts...)
}

// State returns the current phase
func (d *Driver) State() State { return State(d.state.Load()) }

// Viewport returns the driver's size tracker
func (d *Driver) Viewport() *Viewport { return d.viewport }

func (d *Driver) setState(s State) {
	d.state.Store(uint32(s))
	d.statState.Store(s.String())
}

// Input drains pending terminal input and publishes translated events in arrival order
// Returns the handle's *terminal.IOError on read failure; events decoded before it are still published
func (d *Driver) Input() error {
	d.setState(StatePolling)
	raw, err := d.handle.Poll(d.raw[:0])
	d.raw = raw

	d.setState(StateTranslating)
	for _, r := range raw {
		d.statIn.Add(1)
		if r.Type == terminal.EventResize {
			d.viewport.ObserveResize(terminal.Size{Width: r.Width, Height: r.Height})
			d.statResizes.Add(1)
		}
		ev, ok := event.Translate(r, d.cfg)
		if !ok {
			d.statDropped.Add(1)
			continue
		}
		if d.processor != nil {
			d.processor.Process(ev, d.emit)
		} else {
			d.emit(ev)
		}
	}
	if d.processor != nil {
		d.processor.Tick(d.emit)
	}

	d.setState(StateIdle)
	if err != nil {
		d.log.Error("terminal poll failed", "error", err)
		return err
	}
	return nil
}

func (d *Driver) deliver(ev event.Event) {
	d.statOut.Add(1)
	d.publish(ev)
	if d.onCtrlC == nil {
		return
	}
	if k, ok := ev.(event.KeyEvent); ok && k.IsCtrlC() {
		d.log.Info("ctrl+c received, requesting exit")
		d.onCtrlC()
	}
}

// Render draws one frame at the current size and flushes it
// A draw failure returns *DrawError without flushing; a flush failure returns the handle's *terminal.IOError
func (d *Driver) Render() error {
	d.setState(StateDrawing)
	defer d.setState(StateIdle)

	size := d.viewport.Current()
	resized := d.viewport.Resized()
	if resized || d.buf.Size() != size {
		d.buf.Resize(size.Width, size.Height)
	} else {
		d.buf.Clear()
	}

	if d.draw != nil {
		if err := d.draw(d.buf, size, resized); err != nil {
			d.statDrawErr.Add(1)
			return &DrawError{Err: err}
		}
	}

	if err := d.handle.Flush(d.buf, resized || d.first); err != nil {
		d.log.Error("terminal flush failed", "error", err)
		return err
	}
	d.first = false
	d.viewport.MarkRendered()
	d.statTicks.Add(1)
	return nil
}

// Tick runs Input then Render
func (d *Driver) Tick() error {
	if err := d.Input(); err != nil {
		return err
	}
	return d.Render()
}

// Register adds Input to the input stage and Render to the render stage of s
func (d *Driver) Register(s *Scheduler) {
	s.Add(StageInput, "terminal.input", func(context.Context) error { return d.Input() })
	s.Add(StageRender, "terminal.render", func(context.Context) error { return d.Render() })
}
