package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/tickterm/status"
)

// Stage orders systems within a tick
type Stage uint8

const (
	StageInput Stage = iota
	StageUpdate
	StageRender
	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageInput:
		return "input"
	case StageUpdate:
		return "update"
	case StageRender:
		return "render"
	}
	return "unknown"
}

// System is one unit of per-tick work
type System func(ctx context.Context) error

type namedSystem struct {
	name string
	run  System
}

// SystemError reports which system failed during a tick
type SystemError struct {
	Stage Stage
	Name  string
	Err   error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("%s system %q: %v", e.Stage, e.Name, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

// DefaultRate is the tick rate used when none is configured
const DefaultRate = 60

// Scheduler runs registered systems in stage order on a fixed tick
// Deadlines advance by the interval; when more than two intervals behind it resyncs instead of bursting
type Scheduler struct {
	interval time.Duration
	clock    Clock
	log      *slog.Logger

	systems [stageCount][]namedSystem

	exitReq   atomic.Bool
	tickCount atomic.Uint64

	// Cached metric pointers
	statOverruns *atomic.Int64
	statRate     *status.AtomicFloat
}

// SchedulerOption configures a Scheduler
type SchedulerOption func(*Scheduler)

// WithClock replaces the deadline clock
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithSchedulerLogger sets the scheduler logger
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSchedulerMetrics records overruns and measured rate in reg
func WithSchedulerMetrics(reg *status.Registry) SchedulerOption {
	return func(s *Scheduler) {
		s.statOverruns = reg.Counter(status.SchedulerOverruns)
		s.statRate = reg.Floats.Get(status.SchedulerRate)
	}
}

// NewScheduler creates a scheduler ticking rate times per second; rate <= 0 uses DefaultRate
func NewScheduler(rate int, opts ...SchedulerOption) *Scheduler {
	if rate <= 0 {
		rate = DefaultRate
	}
	s := &Scheduler{
		interval:     time.Second / time.Duration(rate),
		clock:        NewTimeProvider(),
		log:          slog.New(slog.DiscardHandler),
		statOverruns: new(atomic.Int64),
		statRate:     new(status.AtomicFloat),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the tick period
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Add registers sys in stage; systems in a stage run in registration order
// Must be called before Run
func (s *Scheduler) Add(stage Stage, name string, sys System) {
	if stage >= stageCount {
		panic(fmt.Sprintf("engine: invalid stage %d", stage))
	}
	s.systems[stage] = append(s.systems[stage], namedSystem{name: name, run: sys})
}

// RequestExit asks Run to return after the current tick completes
func (s *Scheduler) RequestExit() {
	if s.exitReq.CompareAndSwap(false, true) {
		s.log.Debug("scheduler exit requested", "tick", s.tickCount.Load())
	}
}

// ExitRequested reports whether an exit is pending
func (s *Scheduler) ExitRequested() bool { return s.exitReq.Load() }

// Ticks returns the number of completed ticks
func (s *Scheduler) Ticks() uint64 { return s.tickCount.Load() }

// Step runs one tick: every stage in order, stopping at the first failing system
func (s *Scheduler) Step(ctx context.Context) error {
	for st := Stage(0); st < stageCount; st++ {
		for _, sys := range s.systems[st] {
			if err := sys.run(ctx); err != nil {
				return &SystemError{Stage: st, Name: sys.name, Err: err}
			}
		}
	}
	s.tickCount.Add(1)
	return nil
}

// Run ticks until exit is requested, ctx is done, or a system fails
// Exit and cancellation return nil once the in-flight tick has completed
func (s *Scheduler) Run(ctx context.Context) error {
	s.exitReq.Store(false)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	now := s.clock.Now()
	deadline := now
	windowStart := now
	windowTicks := 0

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("scheduler stopped by context", "ticks", s.tickCount.Load())
			return nil
		default:
		}

		now = s.clock.Now()
		if now.Before(deadline) {
			timer.Reset(deadline.Sub(now))
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil
			}
			continue
		}

		if err := s.Step(ctx); err != nil {
			s.log.Error("tick failed", "error", err)
			return err
		}
		if s.exitReq.Load() {
			s.log.Debug("scheduler exited", "ticks", s.tickCount.Load())
			return nil
		}

		var overrun bool
		deadline, overrun = advanceDeadline(deadline, s.clock.Now(), s.interval)
		if overrun {
			s.statOverruns.Add(1)
		}

		windowTicks++
		if elapsed := now.Sub(windowStart); elapsed >= time.Second {
			s.statRate.Set(float64(windowTicks) / elapsed.Seconds())
			windowStart = now
			windowTicks = 0
		}
	}
}

// advanceDeadline computes the next tick deadline with drift correction
// Returns overrun true when the loop fell too far behind and the deadline was resynced to now
func advanceDeadline(deadline, now time.Time, interval time.Duration) (time.Time, bool) {
	next := deadline.Add(interval)
	if now.Sub(next) > interval*2 {
		return now.Add(interval), true
	}
	return next, false
}

// ExitOnError wraps sys so a failure is logged and turned into an exit request
func ExitOnError(s *Scheduler, log *slog.Logger, sys System) System {
	return func(ctx context.Context) error {
		if err := sys(ctx); err != nil {
			log.Error("system failed, exiting", "error", err)
			s.RequestExit()
		}
		return nil
	}
}
