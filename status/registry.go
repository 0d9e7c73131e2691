package status

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metric keys written by the terminal bridge
const (
	DriverTicks         = "driver.ticks"
	DriverEventsIn      = "driver.events.in"
	DriverEventsOut     = "driver.events.out"
	DriverEventsDropped = "driver.events.dropped"
	DriverResizes       = "driver.resizes"
	DriverDrawErrors    = "driver.draw.errors"
	DriverState         = "driver.state"
	GuardRestores       = "guard.restores"
	SchedulerOverruns   = "scheduler.overruns"
	SchedulerRate       = "scheduler.rate"
	TerminalBackend     = "terminal.backend"
	TerminalModes       = "terminal.modes"
	KeyboardEmulated    = "keyboard.releases.emulated"
	KeyboardDetected    = "keyboard.release.detected"
)

// Registry is the central metrics facade
// Components cache pointers at construction; tick loops write directly to atomics
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// Counter returns the int metric for key, nil-safe on a nil Registry
func (r *Registry) Counter(key string) *atomic.Int64 {
	if r == nil {
		return new(atomic.Int64)
	}
	return r.Ints.Get(key)
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Snapshot renders every metric as "key=value" sorted within each type
func (r *Registry) Snapshot() []string {
	out := make([]string, 0, r.TotalCount())
	r.Ints.Range(func(k string, v *atomic.Int64) {
		out = append(out, fmt.Sprintf("%s=%d", k, v.Load()))
	})
	r.Floats.Range(func(k string, v *AtomicFloat) {
		out = append(out, fmt.Sprintf("%s=%.1f", k, v.Get()))
	})
	r.Bools.Range(func(k string, v *atomic.Bool) {
		out = append(out, fmt.Sprintf("%s=%t", k, v.Load()))
	})
	r.Strings.Range(func(k string, v *AtomicString) {
		out = append(out, k+"="+v.Load())
	})
	return out
}

// Line joins the snapshot entries matching prefix into a single status line
func (r *Registry) Line(prefix string) string {
	var parts []string
	for _, kv := range r.Snapshot() {
		if strings.HasPrefix(kv, prefix) {
			parts = append(parts, kv)
		}
	}
	return strings.Join(parts, " ")
}
