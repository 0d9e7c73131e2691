package input

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/tickterm/event"
	"github.com/lixenwraith/tickterm/status"
	"github.com/lixenwraith/tickterm/terminal"
)

// Modifier flags that have a standalone key to report them with
var modifierKeys = []struct {
	mod terminal.Modifier
	key terminal.Key
}{
	{terminal.ModShift, terminal.KeyLeftShift},
	{terminal.ModCtrl, terminal.KeyLeftCtrl},
	{terminal.ModAlt, terminal.KeyLeftAlt},
	{terminal.ModSuper, terminal.KeyLeftSuper},
	{terminal.ModMeta, terminal.KeyLeftMeta},
}

const trackedMods = terminal.ModShift | terminal.ModCtrl | terminal.ModAlt | terminal.ModSuper | terminal.ModMeta

// ReleaseEmulator sits after translation and fills in what the terminal does not report
//
// Event stream without native releases, key A then key B:
//
//	Press A, Release A (emulated), Press B, ... Release B (emulated, per ReleasePolicy)
//
// A synthesized release always precedes the next press of a different key.
// Once the terminal is seen to report releases or modifier keys, that capability is
// marked detected and never unset; Automatic stops emulating it from then on.
// Not safe for concurrent use; owned by the frame driver.
type ReleaseEmulator struct {
	release ReleasePolicy
	policy  EmulationPolicy
	now     func() time.Time
	log     *slog.Logger

	detected Capability

	held      event.KeyEvent
	hasHeld   bool
	mods      terminal.Modifier
	fresh     bool
	age       int
	pressedAt time.Time

	statEmulated *atomic.Int64
	statDetected *atomic.Bool
}

// Option configures a ReleaseEmulator
type Option func(*ReleaseEmulator)

// WithNow replaces the clock used by ReleaseAfter
func WithNow(now func() time.Time) Option {
	return func(e *ReleaseEmulator) { e.now = now }
}

// WithLogger sets the emulator logger
func WithLogger(l *slog.Logger) Option {
	return func(e *ReleaseEmulator) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics counts emulated releases and exposes release detection
func WithMetrics(reg *status.Registry) Option {
	return func(e *ReleaseEmulator) {
		e.statEmulated = reg.Counter(status.KeyboardEmulated)
		e.statDetected = reg.Bools.Get(status.KeyboardDetected)
	}
}

// NewReleaseEmulator creates an emulator with the given policies
func NewReleaseEmulator(release ReleasePolicy, policy EmulationPolicy, opts ...Option) *ReleaseEmulator {
	e := &ReleaseEmulator{
		release:      release,
		policy:       policy,
		now:          time.Now,
		log:          slog.New(slog.DiscardHandler),
		statEmulated: new(atomic.Int64),
		statDetected: new(atomic.Bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detected returns the capabilities observed so far
func (e *ReleaseEmulator) Detected() Capability { return e.detected }

// Emulating returns the capabilities currently being synthesized
func (e *ReleaseEmulator) Emulating() Capability { return e.policy.Emulate(e.detected) }

// Held returns the key awaiting an emulated release, if any
func (e *ReleaseEmulator) Held() (event.KeyEvent, bool) { return e.held, e.hasHeld }

// Process forwards ev to emit, inserting synthesized events before it as needed
func (e *ReleaseEmulator) Process(ev event.Event, emit func(event.Event)) {
	k, ok := ev.(event.KeyEvent)
	if !ok {
		emit(ev)
		return
	}

	e.detect(k)
	caps := e.policy.Emulate(e.detected)

	if caps&CapModifier != 0 && !k.Key.IsModifier() {
		e.syncModifiers(k.Modifiers&trackedMods, emit)
	}

	if caps&CapKeyRelease == 0 {
		emit(k)
		return
	}

	switch k.Kind {
	case terminal.KeyRelease:
		if e.hasHeld && e.held.Same(k) {
			e.hasHeld = false
		}
		emit(k)
	case terminal.KeyRepeat:
		e.touch()
		emit(k)
	default:
		if e.hasHeld && e.held.Same(k) {
			// Terminal auto-repeat arrives as repeated presses
			e.touch()
			k.Kind = terminal.KeyRepeat
			emit(k)
			return
		}
		e.releaseHeld(emit)
		emit(k)
		e.held = k
		e.hasHeld = true
		e.touch()
	}
}

// Tick runs once per frame after Process; releases the held key when the policy is due
func (e *ReleaseEmulator) Tick(emit func(event.Event)) {
	if !e.hasHeld && e.mods == 0 {
		return
	}
	if e.fresh {
		e.fresh = false
		return
	}
	e.age++
	if !e.release.due(e.age, e.now().Sub(e.pressedAt)) {
		return
	}
	caps := e.policy.Emulate(e.detected)
	if caps&CapKeyRelease != 0 {
		e.releaseHeld(emit)
	}
	if caps&CapModifier != 0 {
		e.syncModifiers(0, emit)
	}
}

func (e *ReleaseEmulator) detect(k event.KeyEvent) {
	before := e.detected
	if k.Kind == terminal.KeyRelease {
		e.detected |= CapKeyRelease
	}
	if k.Key.IsModifier() {
		e.detected |= CapModifier
	}
	if e.detected == before {
		return
	}
	e.log.Info("keyboard capability detected", "detected", e.detected.String(), "emulating", e.policy.Emulate(e.detected).String())
	e.statDetected.Store(e.detected&CapKeyRelease != 0)

	// The terminal now reports these itself
	if e.policy.Emulate(e.detected)&CapKeyRelease == 0 {
		e.hasHeld = false
	}
	if e.policy.Emulate(e.detected)&CapModifier == 0 {
		e.mods = 0
	}
}

func (e *ReleaseEmulator) touch() {
	e.fresh = true
	e.age = 0
	e.pressedAt = e.now()
}

func (e *ReleaseEmulator) releaseHeld(emit func(event.Event)) {
	if !e.hasHeld {
		return
	}
	rel := e.held
	rel.Kind = terminal.KeyRelease
	rel.Emulated = true
	e.hasHeld = false
	e.statEmulated.Add(1)
	emit(rel)
}

// syncModifiers emits modifier key presses and releases to move from the tracked set to mods
func (e *ReleaseEmulator) syncModifiers(mods terminal.Modifier, emit func(event.Event)) {
	if mods == e.mods {
		return
	}
	delta := mods ^ e.mods
	for _, mk := range modifierKeys {
		if delta&mk.mod == 0 {
			continue
		}
		kind := terminal.KeyRelease
		if mods&mk.mod != 0 {
			kind = terminal.KeyPress
		}
		if kind == terminal.KeyRelease {
			e.statEmulated.Add(1)
		}
		emit(event.KeyEvent{Key: mk.key, Modifiers: mods, Kind: kind, Emulated: true})
	}
	e.mods = mods
	if mods != 0 && !e.hasHeld {
		e.touch()
	}
}
