//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package terminal

import "os"

// unsupportedDevice reports ErrNotTerminal for every terminal operation
type unsupportedDevice struct {
	out *os.File
}

// NewDevice returns a device that cannot enter raw mode on this platform
func NewDevice() Device {
	return OpenDevice(os.Stdin, os.Stdout)
}

// OpenDevice wraps out for writes only
func OpenDevice(_, out *os.File) Device {
	return &unsupportedDevice{out: out}
}

func (d *unsupportedDevice) MakeRaw() error { return ErrNotTerminal }
func (d *unsupportedDevice) Restore() error { return nil }
func (d *unsupportedDevice) Write(p []byte) error {
	_, err := d.out.Write(p)
	return err
}
func (d *unsupportedDevice) Size() (Size, error)                { return Size{}, ErrNotTerminal }
func (d *unsupportedDevice) ReadAvailable(_ []byte) (int, error) { return 0, nil }
func (d *unsupportedDevice) Resized() bool                      { return false }
func (d *unsupportedDevice) Close() error                       { return nil }

func resetCookedMode() {}
