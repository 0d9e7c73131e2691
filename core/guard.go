package core

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lixenwraith/tickterm/status"
	"github.com/lixenwraith/tickterm/terminal"
)

// ErrAlreadyInstalled is returned when a guard already owns the fatal hook slot
var ErrAlreadyInstalled = errors.New("terminal guard already installed")

// Guard ties terminal restoration to the process fatal hook
// The restore runs at most once whether triggered by Release or a crash
type Guard struct {
	restorer terminal.Restorer
	prev     FatalHook
	log      *slog.Logger
	restores *atomic.Int64
	fallback io.Writer

	// once blocks late callers until the first restore has returned
	once       sync.Once
	restoreErr error
	restored   atomic.Bool
	released   atomic.Bool
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithGuardLogger routes restore failures to l
func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// WithGuardMetrics counts restores in reg
func WithGuardMetrics(reg *status.Registry) GuardOption {
	return func(g *Guard) {
		g.restores = reg.Counter(status.GuardRestores)
	}
}

// WithFallbackOutput sets where the crash path writes a raw reset when the restorer fails
func WithFallbackOutput(w io.Writer) GuardOption {
	return func(g *Guard) {
		if w != nil {
			g.fallback = w
		}
	}
}

// NewGuard installs a fatal hook that restores r before chaining to the previous hook
func NewGuard(r terminal.Restorer, opts ...GuardOption) (*Guard, error) {
	g := &Guard{
		restorer: r,
		log:      slog.New(slog.DiscardHandler),
		restores: new(atomic.Int64),
		fallback: os.Stdout,
	}
	for _, opt := range opts {
		opt(g)
	}

	hookMu.Lock()
	defer hookMu.Unlock()

	if installed != nil {
		return nil, ErrAlreadyInstalled
	}
	g.prev = fatalHook
	fatalHook = g.fatal
	installed = g
	return g, nil
}

// fatal restores first so the chained hook prints to a sane terminal
// A failed restore falls back to writing the reset sequences blindly
func (g *Guard) fatal(r any, stack []byte) {
	if _, err := g.restore(); err != nil {
		terminal.EmergencyReset(g.fallback)
	}
	g.prev(r, stack)
}

// restore calls the restorer once and reports whether this call ran it
// Concurrent callers wait until that restore has returned, then see its error
func (g *Guard) restore() (bool, error) {
	first := false
	g.once.Do(func() {
		first = true
		g.restores.Add(1)
		g.restoreErr = g.restorer.Exit()
		if g.restoreErr != nil {
			g.log.Error("terminal restore failed", "error", g.restoreErr)
		}
		g.restored.Store(true)
	})
	return first, g.restoreErr
}

// Restored reports whether the terminal has been restored by this guard
func (g *Guard) Restored() bool {
	return g.restored.Load()
}

// Release is the normal-exit path: restore once, then reinstate the previous hook
func (g *Guard) Release() error {
	first, err := g.restore()
	if !first {
		err = nil
	}
	if !g.released.CompareAndSwap(false, true) {
		return err
	}

	hookMu.Lock()
	if installed == g {
		fatalHook = g.prev
		installed = nil
	}
	hookMu.Unlock()

	if err != nil {
		return errors.Wrap(err, "release terminal guard")
	}
	return nil
}

// Recover must be deferred directly; it routes a panic to HandleCrash
func (g *Guard) Recover() {
	if r := recover(); r != nil {
		HandleCrash(r)
	}
}
