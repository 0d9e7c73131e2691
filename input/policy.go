// Package input synthesizes key releases and modifier transitions for terminals that
// report only key presses, so hosts can track held keys the same way on every terminal.
package input

import (
	"fmt"
	"strings"
	"time"
)

// Capability is a terminal keyboard feature that can be detected or emulated
type Capability uint8

const (
	// CapKeyRelease means the terminal emits its own key release events
	CapKeyRelease Capability = 1 << iota
	// CapModifier means the terminal emits modifier keys as independent events
	CapModifier

	CapNone Capability = 0
	CapAll             = CapKeyRelease | CapModifier
)

func (c Capability) String() string {
	var parts []string
	if c&CapKeyRelease != 0 {
		parts = append(parts, "key_release")
	}
	if c&CapModifier != 0 {
		parts = append(parts, "modifier")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// ParseCapabilities resolves names like "key_release" and "modifier"
func ParseCapabilities(names []string) (Capability, error) {
	var c Capability
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "key_release", "release":
			c |= CapKeyRelease
		case "modifier", "modifiers":
			c |= CapModifier
		case "all":
			c |= CapAll
		case "none", "":
		default:
			return 0, fmt.Errorf("unknown keyboard capability %q", n)
		}
	}
	return c, nil
}

// EmulationPolicy decides which capabilities are synthesized
type EmulationPolicy struct {
	manual bool
	caps   Capability
}

// Automatic emulates every capability not yet detected
func Automatic() EmulationPolicy {
	return EmulationPolicy{}
}

// Manual emulates caps, except those the terminal has been seen to provide
func Manual(caps Capability) EmulationPolicy {
	return EmulationPolicy{manual: true, caps: caps}
}

// Emulate returns the capabilities to synthesize given what has been detected
func (p EmulationPolicy) Emulate(detected Capability) Capability {
	if p.manual {
		return p.caps &^ detected
	}
	return CapAll &^ detected
}

func (p EmulationPolicy) String() string {
	if p.manual {
		return "manual(" + p.caps.String() + ")"
	}
	return "auto"
}

type releaseMode uint8

const (
	releaseAfter releaseMode = iota
	releaseFrames
	releaseImmediate
	releaseOnNextKey
)

// ReleasePolicy decides when the last pressed key is released if no other key follows
type ReleasePolicy struct {
	mode   releaseMode
	frames int
	after  time.Duration
}

// DefaultReleaseAfter is the hold time used by DefaultReleasePolicy
const DefaultReleaseAfter = time.Second

// DefaultReleasePolicy releases the last key one second after its press
func DefaultReleasePolicy() ReleasePolicy {
	return ReleaseAfter(DefaultReleaseAfter)
}

// ReleaseAfter releases once d has elapsed since the press
func ReleaseAfter(d time.Duration) ReleasePolicy {
	return ReleasePolicy{mode: releaseAfter, after: d}
}

// ReleaseFrames releases after n ticks
func ReleaseFrames(n int) ReleasePolicy {
	return ReleasePolicy{mode: releaseFrames, frames: max(n, 1)}
}

// ReleaseImmediate releases on the tick after the press
func ReleaseImmediate() ReleasePolicy {
	return ReleasePolicy{mode: releaseImmediate}
}

// ReleaseOnNextKey releases only when a different key is pressed
func ReleaseOnNextKey() ReleasePolicy {
	return ReleasePolicy{mode: releaseOnNextKey}
}

// due reports whether a key pressed age ticks and held for elapsed should be released
func (p ReleasePolicy) due(age int, elapsed time.Duration) bool {
	switch p.mode {
	case releaseImmediate:
		return age >= 1
	case releaseFrames:
		return age >= p.frames
	case releaseAfter:
		return elapsed >= p.after
	}
	return false
}

func (p ReleasePolicy) String() string {
	switch p.mode {
	case releaseImmediate:
		return "immediate"
	case releaseFrames:
		return fmt.Sprintf("frames(%d)", p.frames)
	case releaseOnNextKey:
		return "next_key"
	}
	return "after(" + p.after.String() + ")"
}

// ParseReleasePolicy resolves a config name with its parameters
// Names: "immediate", "frames", "duration" (alias "after"), "next_key"
func ParseReleasePolicy(name string, frames int, after time.Duration) (ReleasePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "duration", "after":
		if after <= 0 {
			after = DefaultReleaseAfter
		}
		return ReleaseAfter(after), nil
	case "frames":
		if frames <= 0 {
			return ReleasePolicy{}, fmt.Errorf("release policy frames needs a positive frame count, got %d", frames)
		}
		return ReleaseFrames(frames), nil
	case "immediate":
		return ReleaseImmediate(), nil
	case "next_key", "on_next_key":
		return ReleaseOnNextKey(), nil
	}
	return ReleasePolicy{}, fmt.Errorf("unknown release policy %q", name)
}
