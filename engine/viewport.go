package engine

import "github.com/lixenwraith/tickterm/terminal"

// Viewport tracks the latest observed terminal size and the size last drawn
// Owned by the frame driver; not safe for concurrent use
type Viewport struct {
	current      terminal.Size
	lastRendered terminal.Size
}

// NewViewport initializes both sizes to initial
func NewViewport(initial terminal.Size) *Viewport {
	return &Viewport{current: initial, lastRendered: initial}
}

// Current returns the most recently observed size
func (v *Viewport) Current() terminal.Size { return v.current }

// LastRendered returns the size of the last completed frame
func (v *Viewport) LastRendered() terminal.Size { return v.lastRendered }

// ObserveResize records a new size; the last observation in a tick wins
func (v *Viewport) ObserveResize(s terminal.Size) {
	v.current = terminal.Size{Width: max(s.Width, 0), Height: max(s.Height, 0)}
}

// MarkRendered records that a frame was drawn at the current size
func (v *Viewport) MarkRendered() { v.lastRendered = v.current }

// Resized reports whether the next frame differs in size from the last one drawn
func (v *Viewport) Resized() bool { return v.current != v.lastRendered }
