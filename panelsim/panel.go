// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsim

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Commands understood by the emulator.
const (
	cmdSWReset byte = 0x01
	cmdSlpIn   byte = 0x10
	cmdSlpOut  byte = 0x11
	cmdInvOff  byte = 0x20
	cmdInvOn   byte = 0x21
	cmdDispOff byte = 0x28
	cmdDispOn  byte = 0x29
	cmdCASet   byte = 0x2A
	cmdRASet   byte = 0x2B
	cmdRAMWr   byte = 0x2C
	cmdMADCtl  byte = 0x36
	cmdColMod  byte = 0x3A
)

var (
	// ErrNotSelected is returned by Tx while chip select is high.
	ErrNotSelected = errors.New("panelsim: transfer while chip select is high")
	// ErrInReset is returned by Tx while the reset line is held low.
	ErrInReset = errors.New("panelsim: transfer while reset is asserted")
	// ErrInjected is returned by Tx once the FailAfter budget is spent.
	ErrInjected = errors.New("panelsim: injected transfer failure")
)

// Opts describes the emulated panel.
type Opts struct {
	// W and H are the visible size in pixels.
	W, H int
	// OffsetX and OffsetY are the controller RAM coordinates of the top left
	// visible pixel.
	OffsetX, OffsetY int
}

// DefaultOpts matches st7735.DefaultOpts.
var DefaultOpts = Opts{W: 128, H: 160, OffsetX: 2, OffsetY: 1}

// Stats counts the traffic seen by the panel.
type Stats struct {
	// Transfers is the number of Tx calls, failed ones included.
	Transfers int
	// Commands is the number of command bytes received.
	Commands int
	// Pixels is the number of complete 16 bits pixels written to RAM.
	Pixels int
	// ByCommand counts each command byte.
	ByCommand map[byte]int
}

// State is the controller mode as programmed by the host.
type State struct {
	Awake     bool
	DisplayOn bool
	Inverted  bool
	ColMod    byte
	MADCTL    byte
	// Window is the last address window in logical coordinates, Max
	// exclusive.
	Window image.Rectangle
}

// Panel emulates a ST7735 attached over 4-wire SPI.
//
// It implements conn.Conn and its control lines are available through DC, CS
// and RST. Decoded pixels land in an RGBA image, which is the only place in
// the whole stack that holds a copy of the screen.
type Panel struct {
	opts Opts

	mu  sync.Mutex
	img *image.RGBA
	dc  *Pin
	cs  *Pin
	rst *Pin

	cmd     byte
	args    []byte
	writing bool
	pending []byte
	// Address window and write cursor, in controller RAM coordinates,
	// inclusive bounds.
	x0, x1, y0, y1 int
	cx, cy         int
	state          State

	stats     Stats
	failAfter int
	listeners map[chan struct{}]struct{}
}

// New returns a powered, blank panel.
func New(opts *Opts) *Panel {
	p := &Panel{
		opts:      *opts,
		img:       image.NewRGBA(image.Rect(0, 0, opts.W, opts.H)),
		failAfter: -1,
		listeners: map[chan struct{}]struct{}{},
	}
	p.dc = &Pin{p: p, name: "DC", l: gpio.Low}
	p.cs = &Pin{p: p, name: "CS", l: gpio.High}
	p.rst = &Pin{p: p, name: "RST", l: gpio.High}
	p.stats.ByCommand = map[byte]int{}
	draw.Draw(p.img, p.img.Rect, image.Black, image.Point{}, draw.Src)
	p.resetLocked()
	return p
}

func (p *Panel) String() string {
	return fmt.Sprintf("panelsim(%dx%d)", p.opts.W, p.opts.H)
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// DC returns the data/command select line.
func (p *Panel) DC() *Pin { return p.dc }

// CS returns the chip select line, active low.
func (p *Panel) CS() *Pin { return p.cs }

// RST returns the reset line, active low.
func (p *Panel) RST() *Pin { return p.rst }

// Bounds returns the visible area.
func (p *Panel) Bounds() image.Rectangle {
	return p.img.Bounds()
}

// FailAfter makes every transfer after the next n ones fail with
// ErrInjected. A negative n disables the failure.
func (p *Panel) FailAfter(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 0 {
		p.failAfter = -1
		return
	}
	p.failAfter = p.stats.Transfers + n
}

// Tx implements conn.Conn. The panel is write only.
func (p *Panel) Tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Transfers++
	if p.failAfter >= 0 && p.stats.Transfers > p.failAfter {
		return ErrInjected
	}
	if len(r) != 0 {
		return errors.New("panelsim: reads are not supported")
	}
	if p.rst.l == gpio.Low {
		return ErrInReset
	}
	if p.cs.l == gpio.High {
		return ErrNotSelected
	}
	if p.dc.l == gpio.Low {
		for _, b := range w {
			p.commandLocked(b)
		}
		return nil
	}
	if p.dataLocked(w) {
		p.notifyLocked()
	}
	return nil
}

func (p *Panel) commandLocked(b byte) {
	p.stats.Commands++
	p.stats.ByCommand[b]++
	p.cmd = b
	p.args = p.args[:0]
	p.pending = p.pending[:0]
	p.writing = false
	switch b {
	case cmdSWReset:
		p.resetLocked()
	case cmdSlpIn:
		p.state.Awake = false
	case cmdSlpOut:
		p.state.Awake = true
	case cmdDispOff:
		p.state.DisplayOn = false
		p.notifyLocked()
	case cmdDispOn:
		p.state.DisplayOn = true
		p.notifyLocked()
	case cmdInvOff:
		p.state.Inverted = false
		p.notifyLocked()
	case cmdInvOn:
		p.state.Inverted = true
		p.notifyLocked()
	case cmdRAMWr:
		p.writing = true
		p.cx, p.cy = p.x0, p.y0
	}
}

// dataLocked consumes parameter or pixel bytes. It reports whether the RAM
// changed.
func (p *Panel) dataLocked(w []byte) bool {
	if !p.writing {
		p.args = append(p.args, w...)
		switch {
		case p.cmd == cmdCASet && len(p.args) == 4:
			p.x0 = int(p.args[0])<<8 | int(p.args[1])
			p.x1 = int(p.args[2])<<8 | int(p.args[3])
			p.updateWindowLocked()
		case p.cmd == cmdRASet && len(p.args) == 4:
			p.y0 = int(p.args[0])<<8 | int(p.args[1])
			p.y1 = int(p.args[2])<<8 | int(p.args[3])
			p.updateWindowLocked()
		case p.cmd == cmdMADCtl && len(p.args) == 1:
			p.state.MADCTL = p.args[0]
		case p.cmd == cmdColMod && len(p.args) == 1:
			p.state.ColMod = p.args[0]
		}
		return false
	}
	changed := false
	for _, b := range w {
		p.pending = append(p.pending, b)
		if len(p.pending) < 2 {
			continue
		}
		v := uint16(p.pending[0])<<8 | uint16(p.pending[1])
		p.pending = p.pending[:0]
		p.stats.Pixels++
		x, y := p.cx-p.opts.OffsetX, p.cy-p.opts.OffsetY
		if image.Pt(x, y).In(p.img.Rect) {
			p.img.SetRGBA(x, y, rgb565ToRGBA(v))
			changed = true
		}
		// The controller wraps inside the window.
		if p.cx++; p.cx > p.x1 {
			p.cx = p.x0
			if p.cy++; p.cy > p.y1 {
				p.cy = p.y0
			}
		}
	}
	return changed
}

func (p *Panel) updateWindowLocked() {
	p.state.Window = image.Rect(p.x0-p.opts.OffsetX, p.y0-p.opts.OffsetY, p.x1-p.opts.OffsetX+1, p.y1-p.opts.OffsetY+1)
}

// resetLocked puts the controller in its power on state. RAM content is
// kept, as on the real chip it is undefined.
func (p *Panel) resetLocked() {
	p.state = State{}
	p.writing = false
	p.cmd = 0
	p.args = p.args[:0]
	p.pending = p.pending[:0]
	p.x0, p.y0 = 0, 0
	p.x1, p.y1 = 131, 161
	p.updateWindowLocked()
}

// State returns the controller mode.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stats returns a copy of the traffic counters.
func (p *Panel) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.ByCommand = make(map[byte]int, len(p.stats.ByCommand))
	for k, v := range p.stats.ByCommand {
		s.ByCommand[k] = v
	}
	return s
}

// ResetStats zeroes the traffic counters.
func (p *Panel) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAfter >= 0 {
		p.failAfter -= p.stats.Transfers
	}
	p.stats = Stats{ByCommand: map[byte]int{}}
}

// Image returns a snapshot of what the panel shows.
//
// A panel that is asleep or switched off shows black; inversion is applied.
func (p *Panel) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := image.NewRGBA(p.img.Rect)
	if !p.state.Awake || !p.state.DisplayOn {
		draw.Draw(out, out.Rect, image.Black, image.Point{}, draw.Src)
		return out
	}
	copy(out.Pix, p.img.Pix)
	if p.state.Inverted {
		for i := 0; i < len(out.Pix); i += 4 {
			out.Pix[i] = ^out.Pix[i]
			out.Pix[i+1] = ^out.Pix[i+1]
			out.Pix[i+2] = ^out.Pix[i+2]
		}
	}
	return out
}

// RAM returns the RGB565 value stored for the visible pixel (x, y).
func (p *Panel) RAM(x, y int) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.img.RGBAAt(x, y)
	return toRGB565(c.R, c.G, c.B)
}

// appendRAM appends the visible RAM to b, row-major, 2 bytes per pixel
// big-endian as sent by the host.
func (p *Panel) appendRAM(b []byte) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < len(p.img.Pix); i += 4 {
		v := toRGB565(p.img.Pix[i], p.img.Pix[i+1], p.img.Pix[i+2])
		b = append(b, byte(v>>8), byte(v))
	}
	return b
}

func toRGB565(r, g, b uint8) uint16 {
	return uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3)
}

// subscribe returns a channel signaled, without blocking, whenever the
// visible content may have changed.
func (p *Panel) subscribe() chan struct{} {
	c := make(chan struct{}, 1)
	p.mu.Lock()
	p.listeners[c] = struct{}{}
	p.mu.Unlock()
	return c
}

func (p *Panel) unsubscribe(c chan struct{}) {
	p.mu.Lock()
	delete(p.listeners, c)
	p.mu.Unlock()
}

func (p *Panel) notifyLocked() {
	for c := range p.listeners {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

// rgb565ToRGBA expands a RGB565 value, replicating the high bits so that
// 0xFFFF becomes opaque white.
func rgb565ToRGBA(v uint16) color.RGBA {
	r := uint8(v>>11) & 0x1F
	g := uint8(v>>5) & 0x3F
	b := uint8(v) & 0x1F
	return color.RGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 0xFF}
}

var _ conn.Conn = &Panel{}
