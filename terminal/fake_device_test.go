package terminal

import (
	"bytes"
	"errors"
	"maps"
	"regexp"
	"strconv"
	"sync"
)

var (
	rePrivateMode = regexp.MustCompile(`\x1b\[\?(\d+)([hl])`)
	reKittyPush   = regexp.MustCompile(`\x1b\[>(\d*)u`)
	reKittyPop    = regexp.MustCompile(`\x1b\[<(\d*)u`)
)

// fakeState is the observable terminal state the fake tracks from written sequences
type fakeState struct {
	raw   bool
	modes map[int]bool
	kitty int
}

// enabled returns the private modes currently set, for comparison
func (s fakeState) enabled() map[int]bool {
	out := make(map[int]bool)
	for k, v := range s.modes {
		if v {
			out[k] = true
		}
	}
	return out
}

// fakeDevice records writes and interprets mode toggles like a terminal would
type fakeDevice struct {
	mu sync.Mutex

	state fakeState
	ops   []string
	out   bytes.Buffer

	size    Size
	input   [][]byte
	resized bool
	closed  bool

	// Failure injection
	failWrite   func(p []byte) error
	failRaw     error
	failRestore error
	failSize    error
	failRead    error
}

func newFakeDevice(w, h int) *fakeDevice {
	return &fakeDevice{
		size: Size{Width: w, Height: h},
		state: fakeState{
			// Cursor visible and autowrap on, as a freshly opened terminal
			modes: map[int]bool{25: true, 7: true},
		},
	}
}

func (d *fakeDevice) snapshot() fakeState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fakeState{raw: d.state.raw, modes: maps.Clone(d.state.modes), kitty: d.state.kitty}
}

func (d *fakeDevice) opLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ops...)
}

func (d *fakeDevice) clearOps() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = nil
	d.out.Reset()
}

func (d *fakeDevice) written() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.out.String()
}

func (d *fakeDevice) push(chunks ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range chunks {
		d.input = append(d.input, []byte(c))
	}
}

func (d *fakeDevice) resize(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.size = Size{Width: w, Height: h}
	d.resized = true
}

func (d *fakeDevice) MakeRaw() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failRaw != nil {
		return d.failRaw
	}
	d.state.raw = true
	d.ops = append(d.ops, "raw")
	return nil
}

func (d *fakeDevice) Restore() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failRestore != nil {
		return d.failRestore
	}
	d.state.raw = false
	d.ops = append(d.ops, "cooked")
	return nil
}

func (d *fakeDevice) Write(p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrite != nil {
		if err := d.failWrite(p); err != nil {
			return err
		}
	}
	d.out.Write(p)

	for _, m := range rePrivateMode.FindAllSubmatch(p, -1) {
		n, _ := strconv.Atoi(string(m[1]))
		on := string(m[2]) == "h"
		d.state.modes[n] = on
		if on {
			d.ops = append(d.ops, "set "+string(m[1]))
		} else {
			d.ops = append(d.ops, "reset "+string(m[1]))
		}
	}
	for range reKittyPush.FindAll(p, -1) {
		d.state.kitty++
		d.ops = append(d.ops, "kitty push")
	}
	for _, m := range reKittyPop.FindAllSubmatch(p, -1) {
		n := 1
		if len(m[1]) > 0 {
			n, _ = strconv.Atoi(string(m[1]))
		}
		d.state.kitty = max(d.state.kitty-n, 0)
		d.ops = append(d.ops, "kitty pop")
	}
	return nil
}

func (d *fakeDevice) Size() (Size, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failSize != nil {
		return Size{}, d.failSize
	}
	return d.size, nil
}

func (d *fakeDevice) ReadAvailable(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failRead != nil {
		return 0, d.failRead
	}
	if len(d.input) == 0 {
		return 0, nil
	}
	n := copy(buf, d.input[0])
	if n < len(d.input[0]) {
		d.input[0] = d.input[0][n:]
	} else {
		d.input = d.input[1:]
	}
	return n, nil
}

func (d *fakeDevice) Resized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.resized
	d.resized = false
	return r
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var errInjected = errors.New("injected failure")

// failOnSeq fails any write containing seq
func failOnSeq(seq []byte) func([]byte) error {
	return func(p []byte) error {
		if bytes.Contains(p, seq) {
			return errInjected
		}
		return nil
	}
}
