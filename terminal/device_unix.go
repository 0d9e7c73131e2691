//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package terminal

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

type unixDevice struct {
	in      *os.File
	out     *os.File
	inFd    int
	outFd   int
	oldTerm *term.State

	sigCh chan os.Signal
}

// NewDevice returns the process tty device (stdin/stdout)
func NewDevice() Device {
	return OpenDevice(os.Stdin, os.Stdout)
}

// OpenDevice wraps the given input and output files
// SIGWINCH delivery starts immediately and stops on Close
func OpenDevice(in, out *os.File) Device {
	d := &unixDevice{
		in:    in,
		out:   out,
		inFd:  int(in.Fd()),
		outFd: int(out.Fd()),
		sigCh: make(chan os.Signal, 1),
	}
	signal.Notify(d.sigCh, syscall.SIGWINCH)
	return d
}

func (d *unixDevice) MakeRaw() error {
	if !term.IsTerminal(d.inFd) {
		return ErrNotTerminal
	}
	old, err := term.MakeRaw(d.inFd)
	if err != nil {
		return err
	}
	d.oldTerm = old
	return nil
}

func (d *unixDevice) Restore() error {
	if d.oldTerm == nil {
		return nil
	}
	err := term.Restore(d.inFd, d.oldTerm)
	d.oldTerm = nil
	return err
}

func (d *unixDevice) Write(p []byte) error {
	_, err := d.out.Write(p)
	return err
}

func (d *unixDevice) Size() (Size, error) {
	if !term.IsTerminal(d.outFd) {
		return Size{}, ErrNotTerminal
	}
	ws, err := unix.IoctlGetWinsize(d.outFd, unix.TIOCGWINSZ)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: int(ws.Col), Height: int(ws.Row)}, nil
}

// ReadAvailable polls with zero timeout, so it never blocks the tick
func (d *unixDevice) ReadAvailable(buf []byte) (int, error) {
	fds := []unix.PollFd{
		{Fd: int32(d.inFd), Events: unix.POLLIN},
	}

	n, err := unix.Poll(fds, 0)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
		if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			return 0, io.ErrClosedPipe
		}
		return 0, nil
	}

	rn, err := unix.Read(d.inFd, buf)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	if rn == 0 {
		return 0, io.EOF
	}
	return rn, nil
}

// Buffered reports the bytes waiting in the input queue
func (d *unixDevice) Buffered() (int, error) {
	return unix.IoctlGetInt(d.inFd, ioctlInputQueue)
}

func (d *unixDevice) Resized() bool {
	resized := false
	for {
		select {
		case <-d.sigCh:
			resized = true
		default:
			return resized
		}
	}
}

func (d *unixDevice) Close() error {
	signal.Stop(d.sigCh)
	return nil
}

// resetCookedMode attempts to restore the controlling tty to cooked mode
// Best-effort for crash recovery when the saved state is unavailable; errors ignored
func resetCookedMode() {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return
	}
	defer tty.Close()
	fd := int(tty.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return
	}
	termios.Lflag |= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Iflag |= unix.ICRNL
	termios.Oflag |= unix.OPOST
	unix.IoctlSetTermios(fd, ioctlWriteTermios, termios)
}
