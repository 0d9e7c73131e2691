package terminal

// Size is the terminal viewport in character cells
type Size struct {
	Width  int
	Height int
}

// Device abstracts the OS terminal underneath an ANSIHandle
// Unix builds use the process tty; tests substitute fakes or a pty pair
type Device interface {
	// MakeRaw switches input to raw mode, saving the previous state
	MakeRaw() error

	// Restore returns input to the state saved by MakeRaw
	Restore() error

	// Write writes raw bytes to the terminal output
	Write(p []byte) error

	// Size queries current dimensions, fails if the device is not a terminal
	Size() (Size, error)

	// ReadAvailable copies whatever input is ready into buf without waiting
	// Returns 0, nil when nothing is pending
	ReadAvailable(buf []byte) (int, error)

	// Resized reports and clears a pending window size change notification
	Resized() bool

	// Close releases signal subscriptions and file handles owned by the device
	Close() error
}
