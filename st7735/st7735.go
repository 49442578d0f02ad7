// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7735

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/GermanBionicSystems/matrixrain/st7735/font5x8"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Commands
const (
	swReset byte = 0x01
	slpOut  byte = 0x11
	invOff  byte = 0x20
	invOn   byte = 0x21
	dispOn  byte = 0x29
	caSet   byte = 0x2A
	raSet   byte = 0x2B
	ramWr   byte = 0x2C
	madCtl  byte = 0x36
	colMod  byte = 0x3A
	frmCtr1 byte = 0xB1
	frmCtr2 byte = 0xB2
	frmCtr3 byte = 0xB3
	pwCtr1  byte = 0xC0
	pwCtr2  byte = 0xC1
	pwCtr3  byte = 0xC2
	vmCtr1  byte = 0xC5
	gmCtrP1 byte = 0xE0
	gmCtrN1 byte = 0xE1

	colMod16Bit byte = 0x05
)

// CellWidth is the horizontal advance of one character: the glyph plus one
// column of spacing.
const CellWidth = font5x8.Width + 1

var (
	// ErrNotReady is returned by drawing operations before Init succeeded.
	ErrNotReady = errors.New("st7735: display is not initialized")
	// ErrInitialized is returned when Init is called twice.
	ErrInitialized = errors.New("st7735: display is already initialized")
)

// Opts defines the options for the device.
type Opts struct {
	// W and H are the logical panel size in pixels.
	W int
	H int
	// OffsetX and OffsetY are added to every address sent to the controller.
	// Panels rarely use the controller RAM starting at 0, the common green
	// tab 1.8" modules start at column 2, row 1.
	OffsetX int
	OffsetY int
	// MADCTL is the memory access control value (orientation and RGB/BGR
	// order).
	MADCTL byte
	// Speed is the SPI clock used by NewSPI.
	Speed physic.Frequency
	// Sleep waits for the controller. It defaults to time.Sleep; tests pass a
	// function that returns immediately.
	Sleep func(time.Duration)
}

// DefaultOpts is the configuration of a 128x160 1.8" ST7735S module.
var DefaultOpts = Opts{
	W:       128,
	H:       160,
	OffsetX: 2,
	OffsetY: 1,
	MADCTL:  0xC8,
	Speed:   15 * physic.MegaHertz,
}

type state int

const (
	uninitialized state = iota
	initializing
	ready
	failed
)

// Dev is an open handle to the display controller.
//
// It keeps no pixel data: every drawing call is sent to the controller before
// it returns. A Dev must not be used concurrently.
type Dev struct {
	c   conn.Conn
	dc  gpio.PinOut
	cs  gpio.PinOut
	rst gpio.PinOut

	opts  Opts
	rect  image.Rectangle
	sleep func(time.Duration)

	state state
	err   error
}

// NewSPI returns a Dev object that communicates over SPI to a ST7735 display
// controller.
//
// # Wiring
//
// Connect SDA to SPI_MOSI, SCL to SPI_CLK. dc, cs and rst are GPIO outputs;
// cs is driven in software around every transfer.
func NewSPI(p spi.Port, dc, cs, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultOpts.Speed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: %w", err)
	}
	return New(c, dc, cs, rst, opts)
}

// New returns a Dev using an already connected transport.
//
// The display is not touched besides idling the control lines; call Init.
func New(c conn.Conn, dc, cs, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || cs == nil || rst == nil {
		return nil, errors.New("st7735: dc, cs and rst pins are required")
	}
	if opts.W <= 0 || opts.H <= 0 {
		return nil, fmt.Errorf("st7735: invalid size %dx%d", opts.W, opts.H)
	}
	if opts.OffsetX < 0 || opts.OffsetY < 0 || opts.OffsetX+opts.W > 256 || opts.OffsetY+opts.H > 256 {
		return nil, fmt.Errorf("st7735: size %dx%d with offset (%d, %d) exceeds the controller RAM", opts.W, opts.H, opts.OffsetX, opts.OffsetY)
	}
	d := &Dev{
		c:     c,
		dc:    dc,
		cs:    cs,
		rst:   rst,
		opts:  *opts,
		rect:  image.Rect(0, 0, opts.W, opts.H),
		sleep: opts.Sleep,
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("st7735: %w", err)
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("st7735: %w", err)
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7735.Dev{%s, %s, %dx%d}", d.c, d.dc, d.opts.W, d.opts.H)
}

// Init resets the controller and programs it for 16 bits per pixel.
//
// It blocks for about 650ms. A failure leaves the display in an unknown
// state: the Dev refuses any further operation and returns the same error.
func (d *Dev) Init() error {
	switch d.state {
	case ready, initializing:
		return ErrInitialized
	case failed:
		return d.err
	}
	d.state = initializing
	eh := errorHandler{d: d}
	initDisplay(&eh, &d.opts)
	if eh.err != nil {
		d.state = failed
		d.err = fmt.Errorf("st7735: init: %w", eh.err)
		return d.err
	}
	d.state = ready
	return nil
}

func (d *Dev) checkReady() error {
	switch d.state {
	case ready:
		return nil
	case failed:
		return d.err
	}
	return ErrNotReady
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("st7735: %s: %w", op, err)
}

// SetAddressWindow selects the rectangle from (x0, y0) to (x1, y1) inclusive
// and primes the controller for a pixel stream filling it row by row.
//
// Coordinates are not checked.
func (d *Dev) SetAddressWindow(x0, y0, x1, y1 int) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	eh := errorHandler{d: d}
	setAddressWindow(&eh, &d.opts, x0, y0, x1, y1)
	return wrap("set address window", eh.err)
}

// WritePixel sends one pixel into the current address window.
func (d *Dev) WritePixel(c Color) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	eh := errorHandler{d: d}
	eh.sendData(c.bytes())
	return wrap("write pixel", eh.err)
}

// Fill paints the whole panel with c.
//
// It sends one transfer per pixel, 20480 on a 128x160 panel.
func (d *Dev) Fill(c Color) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	eh := errorHandler{d: d}
	setAddressWindow(&eh, &d.opts, 0, 0, d.opts.W-1, d.opts.H-1)
	b := c.bytes()
	for i := d.opts.W * d.opts.H; i > 0 && eh.err == nil; i-- {
		eh.sendData(b)
	}
	return wrap("fill", eh.err)
}

// DrawPixel sets the pixel at (x, y). Coordinates outside the panel are
// ignored.
func (d *Dev) DrawPixel(x, y int, c Color) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	if !image.Pt(x, y).In(d.rect) {
		return nil
	}
	eh := errorHandler{d: d}
	d.drawPixel(&eh, x, y, c)
	return wrap("draw pixel", eh.err)
}

func (d *Dev) drawPixel(eh *errorHandler, x, y int, c Color) {
	if !image.Pt(x, y).In(d.rect) {
		return
	}
	setAddressWindow(eh, &d.opts, x, y, x, y)
	eh.sendData(c.bytes())
}

// DrawChar draws the glyph for code with its top left corner at (x, y),
// followed by one column of bg.
//
// Nothing is drawn if the 6x8 cell does not fit on the panel or if code is
// not a printable ASCII character.
func (d *Dev) DrawChar(x, y int, code byte, fg, bg Color) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	if x < 0 || y < 0 || x > d.opts.W-CellWidth || y > d.opts.H-font5x8.Height {
		return nil
	}
	g, ok := font5x8.Lookup(code)
	if !ok {
		return nil
	}
	eh := errorHandler{d: d}
	for i := 0; i < font5x8.Width; i++ {
		for j := 0; j < font5x8.Height; j++ {
			c := bg
			if g.Bit(i, j) {
				c = fg
			}
			d.drawPixel(&eh, x+i, y+j, c)
		}
	}
	for j := 0; j < font5x8.Height; j++ {
		d.drawPixel(&eh, x+font5x8.Width, y+j, bg)
	}
	return wrap("draw char", eh.err)
}

// DrawString draws s left to right starting at (x, y).
//
// It does not wrap: characters past the right edge are dropped.
func (d *Dev) DrawString(x, y int, s string, fg, bg Color) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if err := d.DrawChar(x, y, s[i], fg, bg); err != nil {
			return err
		}
		x += CellWidth
		if x > d.opts.W-CellWidth {
			break
		}
	}
	return nil
}

// Invert enables or disables the display color inversion.
func (d *Dev) Invert(on bool) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	eh := errorHandler{d: d}
	if on {
		eh.sendCommand(invOn)
	} else {
		eh.sendCommand(invOff)
	}
	return wrap("invert", eh.err)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return ColorModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// The destination rectangle is clipped to the panel, then streamed as one
// address window. It is meant for occasional full images such as a splash
// screen; it is slow since every pixel is its own transfer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if err := d.checkReady(); err != nil {
		return err
	}
	clipped := r.Intersect(d.rect)
	if clipped.Empty() {
		return nil
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	eh := errorHandler{d: d}
	setAddressWindow(&eh, &d.opts, clipped.Min.X, clipped.Min.Y, clipped.Max.X-1, clipped.Max.Y-1)
	for y := 0; y < clipped.Dy() && eh.err == nil; y++ {
		for x := 0; x < clipped.Dx() && eh.err == nil; x++ {
			c := convert(src.At(sp.X+x, sp.Y+y)).(Color)
			eh.sendData(c.bytes())
		}
	}
	return wrap("draw", eh.err)
}

// Halt implements conn.Resource.
//
// It blanks the panel.
func (d *Dev) Halt() error {
	return d.Fill(Black)
}

var _ display.Drawer = &Dev{}
