package core

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/lixenwraith/tickterm/status"
	"github.com/lixenwraith/tickterm/terminal"
)

// Session owns an entered terminal handle and the guard that restores it
// At most one session is active per process, enforced by the guard slot
type Session struct {
	handle terminal.Handle
	guard  *Guard
	cfg    terminal.ModeConfig
	size   terminal.Size
	log    *slog.Logger
}

// SessionOption configures Open
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	log     *slog.Logger
	metrics *status.Registry
}

// WithLogger sets the session logger, shared with its guard
func WithLogger(l *slog.Logger) SessionOption {
	return func(o *sessionOptions) { o.log = l }
}

// WithMetrics records guard restores and mode state in reg
func WithMetrics(reg *status.Registry) SessionOption {
	return func(o *sessionOptions) { o.metrics = reg }
}

// Open installs the guard, then enters cfg on h
// The guard is installed first so a crash during entry still restores
func Open(h terminal.Handle, cfg terminal.ModeConfig, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	gopts := []GuardOption{WithGuardLogger(o.log)}
	if o.metrics != nil {
		gopts = append(gopts, WithGuardMetrics(o.metrics))
	}
	g, err := NewGuard(h, gopts...)
	if err != nil {
		return nil, err
	}

	if err := h.Enter(cfg); err != nil {
		g.Release()
		return nil, errors.Wrap(err, "open terminal session")
	}

	size, err := h.Size()
	if err != nil {
		g.Release()
		return nil, errors.Wrap(err, "open terminal session")
	}

	if o.metrics != nil {
		o.metrics.Strings.Get(status.TerminalModes).Store(cfg.String())
	}
	o.log.Info("terminal session opened", "modes", cfg.String(), "width", size.Width, "height", size.Height)

	return &Session{
		handle: h,
		guard:  g,
		cfg:    cfg,
		size:   size,
		log:    o.log,
	}, nil
}

// Handle returns the entered terminal handle
func (s *Session) Handle() terminal.Handle { return s.handle }

// Config returns the mode configuration fixed at Open
func (s *Session) Config() terminal.ModeConfig { return s.cfg }

// InitialSize returns the size read when the session opened
func (s *Session) InitialSize() terminal.Size { return s.size }

// Guard returns the session guard, for deferring Recover in main
func (s *Session) Guard() *Guard { return s.guard }

// Close restores the terminal and frees the guard slot; safe to call more than once
func (s *Session) Close() error {
	err := s.guard.Release()
	s.log.Info("terminal session closed", "error", err)
	return err
}
