package terminal

import (
	"github.com/mattn/go-runewidth"
)

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrBlink     Attr = 1 << 4
	AttrReverse   Attr = 1 << 5
	AttrFg256     Attr = 1 << 6 // Fg.R is 256-color palette index
	AttrBg256     Attr = 1 << 7 // Bg.R is 256-color palette index
)

// AttrStyle masks only the style bits (excludes color mode flags)
const AttrStyle Attr = AttrBold | AttrDim | AttrItalic | AttrUnderline | AttrBlink | AttrReverse

// wideTail marks the cell covered by the right half of a double-width rune
const wideTail rune = -1

// Cell represents a single terminal cell
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// Style is the color and attribute part of a Cell
type Style struct {
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// DefaultStyle is white on black with no attributes
var DefaultStyle = Style{Fg: RGBWhite, Bg: RGBBlack}

// Buffer is a row-major cell grid the draw callback fills each frame
// Cells are row-major: cells[y*width + x]
type Buffer struct {
	cells  []Cell
	width  int
	height int
}

// NewBuffer creates a blank buffer of the given size
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Size returns buffer dimensions
func (b *Buffer) Size() Size {
	return Size{Width: b.width, Height: b.height}
}

// Resize changes dimensions and blanks every cell
func (b *Buffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	n := width * height
	if cap(b.cells) < n {
		b.cells = make([]Cell, n)
	} else {
		b.cells = b.cells[:n]
	}
	b.width = width
	b.height = height
	b.Clear()
}

// Clear blanks every cell with the default style
func (b *Buffer) Clear() {
	b.Fill(' ', DefaultStyle)
}

// Fill sets every cell to r with style s
func (b *Buffer) Fill(r rune, s Style) {
	c := Cell{Rune: r, Fg: s.Fg, Bg: s.Bg, Attrs: s.Attrs}
	for i := range b.cells {
		b.cells[i] = c
	}
}

// InBounds reports whether (x, y) is inside the buffer
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// Set writes a cell, out-of-bounds writes are ignored
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	b.cells[y*b.width+x] = c
}

// Get returns the cell at (x, y), zero Cell when out of bounds
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return Cell{}
	}
	return b.cells[y*b.width+x]
}

// SetString writes s starting at (x, y) clipped to the row, returns columns used
// Double-width runes occupy two cells; zero-width runes are skipped
func (b *Buffer) SetString(x, y int, s string, st Style) int {
	if y < 0 || y >= b.height {
		return 0
	}
	start := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > b.width {
			break
		}
		if x >= 0 {
			b.cells[y*b.width+x] = Cell{Rune: r, Fg: st.Fg, Bg: st.Bg, Attrs: st.Attrs}
			if w == 2 {
				b.cells[y*b.width+x+1] = Cell{Rune: wideTail, Fg: st.Fg, Bg: st.Bg, Attrs: st.Attrs}
			}
		}
		x += w
	}
	return x - start
}

// Cells exposes the backing slice for output
func (b *Buffer) Cells() []Cell {
	return b.cells
}

// StringWidth returns the display width of s in cells
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}
