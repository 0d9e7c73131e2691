package terminal

import (
	"bufio"
	"io"

	"github.com/mattn/go-runewidth"
)

// frameWriterSize holds a full 4K-wide truecolor frame without intermediate flushes
const frameWriterSize = 128 << 10

// sgrCodes maps style attributes to their SGR parameter, in emission order
var sgrCodes = [...]struct {
	attr Attr
	code byte
}{
	{AttrBold, '1'},
	{AttrDim, '2'},
	{AttrItalic, '3'},
	{AttrUnderline, '4'},
	{AttrBlink, '5'},
	{AttrReverse, '7'},
}

// pen is the SGR state the terminal is known to be in
type pen struct {
	fg, bg RGB
	attrs  Attr
	valid  bool
}

// frameWriter diffs frames against what the terminal currently shows
// and writes only the changed cell runs
type frameWriter struct {
	shown         []Cell
	width, height int
	colorMode     ColorMode
	w             *bufio.Writer

	cx, cy   int
	cursorOK bool
	pen      pen
}

func newFrameWriter(w io.Writer, mode ColorMode) *frameWriter {
	return &frameWriter{
		w:         bufio.NewWriterSize(w, frameWriterSize),
		colorMode: mode,
	}
}

// resize forgets the shown frame so the next draw repaints every cell
func (f *frameWriter) resize(width, height int) {
	n := width * height
	if cap(f.shown) < n {
		f.shown = make([]Cell, n)
	} else {
		f.shown = f.shown[:n]
		clear(f.shown)
	}
	f.width, f.height = width, height
	f.pen.valid = false
	f.cursorOK = false
}

// sameCell ignores the foreground of blank cells since nothing visible uses it
func sameCell(a, b Cell) bool {
	if a.Rune != b.Rune || a.Attrs != b.Attrs || a.Bg != b.Bg {
		return false
	}
	return a.Rune == 0 || a.Rune == ' ' || a.Fg == b.Fg
}

// repaint clears the screen to bg and records it as shown
func (f *frameWriter) repaint(bg RGB) {
	f.w.Write(csiSGR0)
	f.w.Write(csi)
	f.colorParams('4', bg, false)
	f.w.WriteByte('m')
	f.w.Write(csiClear)

	blank := Cell{Rune: ' ', Bg: bg}
	for i := range f.shown {
		f.shown[i] = blank
	}
	f.pen.valid = false
	f.cursorOK = false
}

// draw writes every cell run of cells that differs from the shown frame
func (f *frameWriter) draw(cells []Cell, width, height int) {
	if width != f.width || height != f.height {
		f.resize(width, height)
	}
	if len(cells) < width*height {
		return
	}

	for y := 0; y < height; y++ {
		row := cells[y*width : (y+1)*width]
		shown := f.shown[y*width : (y+1)*width]

		for x := 0; x < width; {
			if sameCell(row[x], shown[x]) {
				x++
				continue
			}
			f.moveTo(x, y)
			for x < width && !sameCell(row[x], shown[x]) {
				f.put(row[x])
				shown[x] = row[x]
				x++
			}
		}
	}

	f.w.Write(csiSGR0)
	f.pen.valid = false
}

// moveTo positions the cursor, preferring a relative forward move on the same row
func (f *frameWriter) moveTo(x, y int) {
	if f.cursorOK && x == f.cx && y == f.cy {
		return
	}
	if f.cursorOK && y == f.cy && x > f.cx {
		writeCursorForward(f.w, x-f.cx)
	} else {
		writeCursorPos(f.w, x, y)
	}
	f.cx, f.cy = x, y
	f.cursorOK = true
}

// put writes one cell at the cursor; wide tails were covered by their head
func (f *frameWriter) put(c Cell) {
	if c.Rune == wideTail {
		return
	}
	f.setPen(c)

	r := c.Rune
	if r == 0 {
		r = ' '
	}
	if r < 0x80 {
		f.w.WriteByte(byte(r))
		f.cx++
		return
	}
	f.w.WriteRune(r)
	f.cx += max(runewidth.RuneWidth(r), 1)
}

// setPen emits one SGR sequence moving the terminal from the current pen to c's style
// A change in style attributes resets first; a color-only change sends just that color
func (f *frameWriter) setPen(c Cell) {
	fgPal := c.Attrs&AttrFg256 != 0
	bgPal := c.Attrs&AttrBg256 != 0
	p := f.pen
	attrsChanged := !p.valid || c.Attrs&AttrStyle != p.attrs&AttrStyle
	fgChanged := !p.valid || c.Fg != p.fg || fgPal != (p.attrs&AttrFg256 != 0)
	bgChanged := !p.valid || c.Bg != p.bg || bgPal != (p.attrs&AttrBg256 != 0)

	if !attrsChanged && !fgChanged && !bgChanged {
		return
	}

	w := f.w
	w.Write(csi)
	sep := false
	if attrsChanged {
		w.WriteByte('0')
		for _, s := range sgrCodes {
			if c.Attrs&s.attr != 0 {
				w.WriteByte(';')
				w.WriteByte(s.code)
			}
		}
		sep = true
		fgChanged, bgChanged = true, true
	}
	if fgChanged {
		if sep {
			w.WriteByte(';')
		}
		f.colorParams('3', c.Fg, fgPal)
		sep = true
	}
	if bgChanged {
		if sep {
			w.WriteByte(';')
		}
		f.colorParams('4', c.Bg, bgPal)
	}
	w.WriteByte('m')

	f.pen = pen{fg: c.Fg, bg: c.Bg, attrs: c.Attrs, valid: true}
}

// colorParams writes "38;5;N" or "38;2;R;G;B" style parameters; layer is '3' for fg, '4' for bg
// palette means c.R already holds a 256-color index
func (f *frameWriter) colorParams(layer byte, c RGB, palette bool) {
	w := f.w
	w.WriteByte(layer)
	switch {
	case palette:
		w.WriteString("8;5;")
		writeInt(w, int(c.R))
	case f.colorMode == ColorModeTrueColor:
		w.WriteString("8;2;")
		writeInt(w, int(c.R))
		w.WriteByte(';')
		writeInt(w, int(c.G))
		w.WriteByte(';')
		writeInt(w, int(c.B))
	default:
		w.WriteString("8;5;")
		writeInt(w, int(RGBTo256(c)))
	}
}

// flush pushes buffered output to the device
func (f *frameWriter) flush() error {
	return f.w.Flush()
}
