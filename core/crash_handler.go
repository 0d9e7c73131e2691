package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// FatalHook handles an unrecovered panic; production hooks terminate the process
type FatalHook func(r any, stack []byte)

// crashExitCode is the process status after a crash
const crashExitCode = 2

var (
	hookMu    sync.Mutex
	fatalHook FatalHook = defaultHook
	installed *Guard

	// crashing is set by the first HandleCrash; a nested panic skips to exit
	crashing atomic.Bool

	// exitFunc and crashOut are replaced in tests
	exitFunc           = os.Exit
	crashOut io.Writer = os.Stderr
)

// defaultHook prints the crash banner and stack trace, then exits
func defaultHook(r any, stack []byte) {
	syncFile(os.Stdout)

	// \r\n since the tty may still be in raw mode when no guard restored it
	fmt.Fprintf(crashOut, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(crashOut, "Stack Trace:\r\n%s\r\n", stack)
	syncFile(crashOut)

	exitFunc(crashExitCode)
}

func syncFile(w io.Writer) {
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}
}

// SetFatalHook replaces the base fatal hook and returns the previous one
// Fails with ErrAlreadyInstalled while a Guard holds the slot
func SetFatalHook(h FatalHook) (FatalHook, error) {
	hookMu.Lock()
	defer hookMu.Unlock()

	if installed != nil {
		return nil, ErrAlreadyInstalled
	}
	prev := fatalHook
	if h == nil {
		h = defaultHook
	}
	fatalHook = h
	return prev, nil
}

// HandleCrash is the unified panic handler: the installed hook restores the terminal, then reports
func HandleCrash(r any) {
	if r == nil {
		return
	}
	stack := debug.Stack()

	if !crashing.CompareAndSwap(false, true) {
		// Already crashing on another path, do not touch the terminal again
		exitFunc(crashExitCode)
		return
	}

	hookMu.Lock()
	h := fatalHook
	hookMu.Unlock()

	defer func() {
		if r2 := recover(); r2 != nil {
			fmt.Fprintf(crashOut, "\r\npanic during crash handling: %v\r\n", r2)
			exitFunc(crashExitCode)
		}
	}()
	h(r, stack)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
