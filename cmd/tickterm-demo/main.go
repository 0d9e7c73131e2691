package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/tickterm/config"
	"github.com/lixenwraith/tickterm/core"
	"github.com/lixenwraith/tickterm/engine"
	"github.com/lixenwraith/tickterm/event"
	"github.com/lixenwraith/tickterm/input"
	"github.com/lixenwraith/tickterm/status"
	"github.com/lixenwraith/tickterm/terminal"
)

type flags struct {
	configPath string
	mouse      bool
	focus      bool
	paste      bool
	kitty      bool
	backend    string
	fps        int
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "tickterm-demo",
		Short:         "Interactive event viewer for the tickterm terminal layer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tickterm-demo: %v\n", err)
				return err
			}
			err = run(cmd.Context(), cfg, f.debug)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tickterm-demo: %v\n", err)
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "config file (.toml, .yaml)")
	fl.BoolVar(&f.mouse, "mouse", false, "enable mouse capture")
	fl.BoolVar(&f.focus, "focus", false, "enable focus reporting")
	fl.BoolVar(&f.paste, "paste", true, "enable bracketed paste")
	fl.BoolVar(&f.kitty, "kitty", true, "enable kitty keyboard enhancement")
	fl.StringVar(&f.backend, "backend", config.BackendANSI, "terminal backend: ansi, tcell")
	fl.IntVar(&f.fps, "fps", engine.DefaultRate, "ticks per second")
	fl.BoolVar(&f.debug, "debug", false, "write debug logs to logs/tickterm.log")
	return cmd
}

// resolveConfig loads the file config, then applies only the flags set explicitly
func resolveConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	fl := cmd.Flags()
	if fl.Changed("mouse") {
		cfg.Terminal.MouseCapture = f.mouse
	}
	if fl.Changed("focus") {
		cfg.Terminal.FocusReporting = f.focus
	}
	if fl.Changed("paste") {
		cfg.Terminal.BracketedPaste = f.paste
	}
	if fl.Changed("kitty") {
		cfg.Terminal.KeyboardEnhancement = f.kitty
	}
	if fl.Changed("backend") {
		cfg.Backend = f.backend
	}
	if fl.Changed("fps") {
		cfg.Frame.Rate = f.fps
	}
	return cfg, cfg.Validate()
}

func newHandle(cfg config.Config, opts ...terminal.Option) terminal.Handle {
	if cfg.Backend == config.BackendTcell {
		return terminal.NewScreenHandle(opts...)
	}
	return terminal.NewANSIHandle(terminal.NewDevice(), opts...)
}

func run(parent context.Context, cfg config.Config, debug bool) error {
	logger, logFile := setupLogging(debug)
	if logFile != nil {
		defer logFile.Close()
	}
	if parent == nil {
		parent = context.Background()
	}

	release, err := cfg.ReleasePolicy()
	if err != nil {
		return errors.Wrap(err, "release policy")
	}
	emulation, err := cfg.EmulationPolicy()
	if err != nil {
		return errors.Wrap(err, "emulation policy")
	}
	quitKey, hasQuit, err := cfg.QuitKey()
	if err != nil {
		return errors.Wrap(err, "quit key")
	}

	reg := status.NewRegistry()
	reg.Strings.Get(status.TerminalBackend).Store(cfg.Backend)

	h := newHandle(cfg, terminal.WithLogger(logger), terminal.WithColorMode(terminal.DetectColorMode()))
	session, err := core.Open(h, cfg.Terminal, core.WithLogger(logger), core.WithMetrics(reg))
	if err != nil {
		return err
	}
	defer session.Close()
	defer session.Guard().Recover()

	emulator := input.NewReleaseEmulator(release, emulation,
		input.WithLogger(logger),
		input.WithMetrics(reg),
	)

	sched := engine.NewScheduler(cfg.Frame.Rate,
		engine.WithSchedulerLogger(logger),
		engine.WithSchedulerMetrics(reg),
	)

	state := newDemoState(reg, sched.RequestExit)
	state.emulator = emulator
	state.quitKey, state.hasQuit = quitKey, hasQuit

	queue := event.NewQueue()
	router := event.NewRouter[*demoState](queue)
	registerHandlers(router)

	dopts := []engine.DriverOption{
		engine.WithQueue(queue),
		engine.WithProcessor(emulator),
		engine.WithDriverLogger(logger),
		engine.WithDriverMetrics(reg),
	}
	if cfg.Keyboard.ExitOnCtrlC {
		dopts = append(dopts, engine.WithExitOnCtrlC(sched.RequestExit))
	}
	driver := engine.NewSessionDriver(session, state.draw, dopts...)

	sched.Add(engine.StageInput, "terminal.input", engine.ExitOnError(sched, logger, func(context.Context) error {
		return driver.Input()
	}))
	sched.Add(engine.StageUpdate, "demo.dispatch", func(context.Context) error {
		router.DispatchAll(state)
		return nil
	})
	sched.Add(engine.StageRender, "terminal.render", engine.ExitOnError(sched, logger, func(context.Context) error {
		return driver.Render()
	}))

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer session.Guard().Recover()
		defer cancel()
		return sched.Run(gctx)
	})

	g.Go(func() error {
		defer session.Guard().Recover()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logger.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	err = g.Wait()
	logger.Info("demo finished", "ticks", sched.Ticks(), "metrics", reg.Snapshot())
	return err
}
