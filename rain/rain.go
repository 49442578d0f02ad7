// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rain

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/matrixrain/st7735"
)

const (
	// MinTail is the shortest tail, in cells.
	MinTail = 4
	// MaxTail is the number of distinct tail lengths: a tail is between
	// MinTail and MinTail+MaxTail-1 cells long.
	MaxTail = 10
	// MaxSpeed is the slowest speed, in ticks per row.
	MaxSpeed = 3
	// MaxPhase bounds the initial frame counter, exclusive.
	MaxPhase = 10
)

// DefaultCharset is the alphabet the cells are drawn from.
const DefaultCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@#$%&"

// Column is the state of one column of cells.
type Column struct {
	// HeadRow is the row of the brightest cell. It runs past the last row
	// while the tail drains.
	HeadRow int
	// TailLen is the number of cells drawn above the head.
	TailLen int
	// Speed is the number of ticks between two advances.
	Speed int
	// FrameCounter counts down the ticks until the next advance.
	FrameCounter int
}

// FadeRamp lists the tail colors, brightest first, indexed by the distance
// to the head.
type FadeRamp []st7735.Color

// At returns the color of the cell i rows above the head, or bg past the
// end of the ramp.
func (f FadeRamp) At(i int, bg st7735.Color) st7735.Color {
	if i < 0 || i >= len(f) {
		return bg
	}
	return f[i]
}

// DefaultRamp fades from full green to almost black.
var DefaultRamp = FadeRamp{
	st7735.RGB565(0, 255, 0),
	st7735.RGB565(0, 200, 0),
	st7735.RGB565(0, 150, 0),
	st7735.RGB565(0, 100, 0),
	st7735.RGB565(0, 60, 0),
	st7735.RGB565(0, 30, 0),
}

// Rand is the source of randomness. *math/rand.Rand implements it.
type Rand interface {
	// Intn returns a number in [0, n).
	Intn(n int) int
}

// Drawer draws one character cell. *st7735.Dev implements it.
type Drawer interface {
	DrawChar(x, y int, code byte, fg, bg st7735.Color) error
}

// Stats are the counters of an Engine since it was created.
type Stats struct {
	// Ticks is the number of completed calls to Tick.
	Ticks int
	// Advances is the number of rows all columns moved down.
	Advances int
	// Respawns is the number of times a column restarted at the top.
	Respawns int
	// Draws is the number of characters sent to the Drawer.
	Draws int
}

// Opts defines the animation.
type Opts struct {
	// Columns and Rows are the size of the grid, in cells.
	Columns int
	Rows    int
	// CellW and CellH are the size of a cell in pixels.
	CellW int
	CellH int
	// Ramp colors the tail. Cells past its end are drawn in Background.
	Ramp FadeRamp
	// Background is the color behind the characters.
	Background st7735.Color
	// Charset is the alphabet. Every byte must be printable ASCII.
	Charset string
	// OnTick, if set, is called after every successful Tick.
	OnTick func(Stats)
}

// DefaultOpts fills a 128x160 panel with 6x8 cells.
var DefaultOpts = Opts{
	Columns:    128 / st7735.CellWidth,
	Rows:       160 / 8,
	CellW:      st7735.CellWidth,
	CellH:      8,
	Ramp:       DefaultRamp,
	Background: st7735.Black,
	Charset:    DefaultCharset,
}

// Engine evolves the columns and draws them.
type Engine struct {
	opts  Opts
	rng   Rand
	cols  []Column
	stats Stats
}

// New returns an Engine with randomly initialized columns.
func New(opts *Opts, rng Rand) (*Engine, error) {
	if rng == nil {
		return nil, errors.New("rain: a random source is required")
	}
	if opts.Columns <= 0 || opts.Rows <= 0 {
		return nil, fmt.Errorf("rain: invalid grid %dx%d", opts.Columns, opts.Rows)
	}
	if opts.CellW <= 0 || opts.CellH <= 0 {
		return nil, fmt.Errorf("rain: invalid cell %dx%d", opts.CellW, opts.CellH)
	}
	if opts.Charset == "" {
		return nil, errors.New("rain: empty charset")
	}
	for i := 0; i < len(opts.Charset); i++ {
		if c := opts.Charset[i]; c < 0x20 || c > 0x7E {
			return nil, fmt.Errorf("rain: charset byte 0x%02X at %d is not printable", c, i)
		}
	}
	e := &Engine{opts: *opts, rng: rng}
	e.InitColumns(opts.Columns)
	return e, nil
}

// InitColumns replaces the state with n columns, each with an independent
// random head row, tail length, speed and phase.
func (e *Engine) InitColumns(n int) {
	if n < 0 {
		n = 0
	}
	e.cols = make([]Column, n)
	for i := range e.cols {
		e.cols[i] = Column{
			HeadRow:      e.rng.Intn(e.opts.Rows),
			TailLen:      e.randomTail(),
			Speed:        e.randomSpeed(),
			FrameCounter: e.rng.Intn(MaxPhase),
		}
	}
}

// Columns returns a copy of the column state.
func (e *Engine) Columns() []Column {
	out := make([]Column, len(e.cols))
	copy(out, e.cols)
	return out
}

// Stats returns the counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Tick counts down every column and advances the ones that are due.
//
// Columns that are not due are not drawn. The first draw error stops the
// tick and is returned; the failing column keeps its head row.
func (e *Engine) Tick(d Drawer) error {
	for i := range e.cols {
		c := &e.cols[i]
		if c.FrameCounter--; c.FrameCounter > 0 {
			continue
		}
		c.FrameCounter = c.Speed
		if err := e.advance(i, d); err != nil {
			return err
		}
	}
	e.stats.Ticks++
	if e.opts.OnTick != nil {
		e.opts.OnTick(e.stats)
	}
	return nil
}

// Advance moves column col one row down regardless of its frame counter.
func (e *Engine) Advance(col int, d Drawer) error {
	if col < 0 || col >= len(e.cols) {
		return fmt.Errorf("rain: column %d out of range [0, %d)", col, len(e.cols))
	}
	return e.advance(col, d)
}

func (e *Engine) advance(col int, d Drawer) error {
	c := &e.cols[col]
	x := col * e.opts.CellW
	for i := c.TailLen; i >= 0; i-- {
		row := c.HeadRow - i
		if row < 0 || row >= e.opts.Rows {
			continue
		}
		fg := e.opts.Ramp.At(i, e.opts.Background)
		if err := d.DrawChar(x, row*e.opts.CellH, e.randomChar(), fg, e.opts.Background); err != nil {
			return fmt.Errorf("rain: column %d row %d: %w", col, row, err)
		}
		e.stats.Draws++
	}
	c.HeadRow++
	e.stats.Advances++
	if c.HeadRow-c.TailLen > e.opts.Rows {
		c.HeadRow = 0
		c.TailLen = e.randomTail()
		c.Speed = e.randomSpeed()
		e.stats.Respawns++
	}
	return nil
}

func (e *Engine) randomTail() int {
	return MinTail + e.rng.Intn(MaxTail)
}

func (e *Engine) randomSpeed() int {
	return 1 + e.rng.Intn(MaxSpeed)
}

func (e *Engine) randomChar() byte {
	return e.opts.Charset[e.rng.Intn(len(e.opts.Charset))]
}

var _ Drawer = &st7735.Dev{}
