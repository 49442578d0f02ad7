// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package splash renders a title card shown before the animation starts.
//
// The images have their origin at (0, 0) and are meant to be passed to a
// display.Drawer such as *st7735.Dev.
package splash

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// MaxFontSize is the largest text size in points, used when the text is
	// short enough.
	MaxFontSize = 24
	// MinFontSize is the smallest text size; longer lines are cropped.
	MinFontSize = 6

	lineSpacing = 1.2
)

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

func regular() (*truetype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

// Text renders lines centered on a bg background, in the largest Go Regular
// size that fits.
func Text(bounds image.Rectangle, lines []string, fg, bg color.Color) (image.Image, error) {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("splash: empty bounds %v", bounds)
	}
	f, err := regular()
	if err != nil {
		return nil, fmt.Errorf("splash: %w", err)
	}
	dc := gg.NewContext(w, h)
	dc.SetColor(bg)
	dc.Clear()
	if len(lines) == 0 {
		return dc.Image(), nil
	}

	size := fitSize(dc, f, lines, w, h)
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: size}))
	dc.SetColor(fg)
	lh := size * lineSpacing
	top := (float64(h) - lh*float64(len(lines))) / 2
	for i, l := range lines {
		dc.DrawStringAnchored(l, float64(w)/2, top+lh*(float64(i)+0.5), 0.5, 0.5)
	}
	return dc.Image(), nil
}

// fitSize returns the font size making every line fit in w and all of them
// in h.
func fitSize(dc *gg.Context, f *truetype.Font, lines []string, w, h int) float64 {
	size := float64(MaxFontSize)
	if byHeight := float64(h) / (lineSpacing * float64(len(lines))); byHeight < size {
		size = byHeight
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: size}))
	widest := 0.
	for _, l := range lines {
		if lw, _ := dc.MeasureString(l); lw > widest {
			widest = lw
		}
	}
	// Keep a 2 pixels margin on each side.
	if avail := float64(w - 4); widest > avail && widest > 0 {
		size *= avail / widest
	}
	if size < MinFontSize {
		size = MinFontSize
	}
	return size
}

// SVG rasterizes the SVG document read from r on a bg background, scaled to
// fit and centered.
func SVG(bounds image.Rectangle, r io.Reader, bg color.Color) (image.Image, error) {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("splash: empty bounds %v", bounds)
	}
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, fmt.Errorf("splash: %w", err)
	}
	fw, fh := float64(w), float64(h)
	if vb := icon.ViewBox; vb.W > 0 && vb.H > 0 {
		scale := fw / vb.W
		if s := fh / vb.H; s < scale {
			scale = s
		}
		dw, dh := vb.W*scale, vb.H*scale
		icon.SetTarget((fw-dw)/2, (fh-dh)/2, dw, dh)
	} else {
		icon.SetTarget(0, 0, fw, fh)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img, nil
}
