// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsim

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options of the console renderer.
type TerminalOpts struct {
	// Step is the number of panel pixels per console cell, in both
	// directions. 0 means 2, which fits a 128x160 panel in 64 columns.
	Step    int
	Palette *ansi256.Palette

	_ struct{}
}

// Terminal renders a Panel on a console using ANSI 256 colors.
//
// Useful while the real module is still on its way.
type Terminal struct {
	w       io.Writer
	step    int
	palette *ansi256.Palette

	buf bytes.Buffer
}

// NewTerminal returns a renderer writing to stdout.
func NewTerminal(opts *TerminalOpts) *Terminal {
	return NewTerminalWriter(colorable.NewColorableStdout(), opts)
}

// NewTerminalWriter returns a renderer writing to w.
func NewTerminalWriter(w io.Writer, opts *TerminalOpts) *Terminal {
	t := &Terminal{w: w, step: opts.Step, palette: opts.Palette}
	if t.step <= 0 {
		t.step = 2
	}
	if t.palette == nil {
		t.palette = ansi256.Default
	}
	return t
}

func (t *Terminal) String() string {
	return "Terminal"
}

// Render draws the panel content, moving the cursor back home first so that
// successive frames overwrite each other.
func (t *Terminal) Render(p *Panel) error {
	return t.RenderImage(p.Image())
}

// RenderImage draws img.
func (t *Terminal) RenderImage(img image.Image) error {
	// This code is designed to minimize the amount of memory allocated per call.
	t.buf.Reset()
	_, _ = t.buf.WriteString("\033[H\033[0m")
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y += t.step {
		for x := r.Min.X; x < r.Max.X; x += t.step {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			c := color.NRGBA{byte(r16 >> 8), byte(g16 >> 8), byte(b16 >> 8), 255}
			_, _ = io.WriteString(&t.buf, t.palette.Block(c))
		}
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Halt resets the console attributes.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}
