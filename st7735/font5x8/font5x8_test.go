// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package font5x8

import "testing"

func TestLookup(t *testing.T) {
	for c := 0; c < 256; c++ {
		g, ok := Lookup(byte(c))
		want := c >= First && c <= Last
		if ok != want {
			t.Fatalf("Lookup(0x%02x) ok = %t, want %t", c, ok, want)
		}
		if ok && g == nil {
			t.Fatalf("Lookup(0x%02x) returned nil glyph", c)
		}
	}
}

func TestBottomRowBlank(t *testing.T) {
	for c := First; c <= Last; c++ {
		g, _ := Lookup(byte(c))
		for x := 0; x < Width; x++ {
			if g.Bit(x, Height-1) {
				t.Errorf("glyph %q column %d has its bottom row set", rune(c), x)
			}
		}
	}
}

func TestBit(t *testing.T) {
	g, _ := Lookup('A')
	// Left edge of 'A' is 0x7E: rows 1 to 6.
	for y := 0; y < Height; y++ {
		want := y >= 1 && y <= 6
		if got := g.Bit(0, y); got != want {
			t.Errorf("'A'.Bit(0, %d) = %t, want %t", y, got, want)
		}
	}
	space, _ := Lookup(' ')
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			if space.Bit(x, y) {
				t.Fatalf("' '.Bit(%d, %d) is set", x, y)
			}
		}
	}
}
