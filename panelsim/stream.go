// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
)

// MaxScale is the largest accepted "scale" URL parameter.
const MaxScale = 8

// Format is the frame encoding used by Stream.
type Format int

const (
	// PNG is lossless, which suits the sharp glyph edges best.
	PNG Format = iota
	JPEG
	// RGB565 frames are the panel RAM as the host wrote it: W*H big-endian
	// 16 bits values, row-major. The size is in the X-Panel-Size part header.
	// Frames are never scaled.
	RGB565
)

var formats = [...]struct {
	name string
	mime string
}{
	PNG:    {"png", "image/png"},
	JPEG:   {"jpeg", "image/jpeg"},
	RGB565: {"rgb565", "application/octet-stream"},
}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formats) {
		return formats[f].name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the Format named by the "format" URL parameter. "jpg"
// is accepted for JPEG.
func ParseFormat(value string) (Format, error) {
	if value == "jpg" {
		return JPEG, nil
	}
	for f, d := range formats {
		if d.name == value {
			return Format(f), nil
		}
	}
	return PNG, fmt.Errorf("panelsim: unrecognized image format %q", value)
}

// StreamOpts configures Stream.
type StreamOpts struct {
	// Format is used when the request has no "format" parameter.
	Format Format
	// Scale is used when the request has no "scale" parameter. 0 means 1.
	Scale int
	// MinInterval limits the frame rate sent to each client.
	MinInterval time.Duration
	// JPEGQuality is passed to image/jpeg. 0 means 90.
	JPEGQuality int
}

// Stream is an http.Handler sending the panel content as "MJPEG"
// (multipart/x-mixed-replace), the protocol of most IP cameras, so a plain
// browser tab or an <img> tag shows the live panel.
//
// Clients get an initial frame then a new one after every change.
type Stream struct {
	p    *Panel
	opts StreamOpts

	pngEnc png.Encoder
}

// NewStream returns a handler streaming p.
func NewStream(p *Panel, opts *StreamOpts) *Stream {
	s := &Stream{p: p, opts: *opts}
	if s.opts.Format < 0 || int(s.opts.Format) >= len(formats) {
		s.opts.Format = PNG
	}
	if s.opts.Scale <= 0 {
		s.opts.Scale = 1
	}
	if s.opts.JPEGQuality <= 0 {
		s.opts.JPEGQuality = 90
	}
	s.pngEnc = png.Encoder{CompressionLevel: png.BestSpeed, BufferPool: &pngPool{}}
	return s
}

type frameConfig struct {
	format Format
	scale  int
}

func (s *Stream) configFromQuery(values url.Values) (frameConfig, error) {
	cfg := frameConfig{format: s.opts.Format, scale: s.opts.Scale}
	if v := values.Get("format"); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			return frameConfig{}, err
		}
		cfg.format = f
	}
	if v := values.Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxScale {
			return frameConfig{}, fmt.Errorf("panelsim: scale must be between 1 and %d", MaxScale)
		}
		cfg.scale = n
	}
	if cfg.format == RGB565 && cfg.scale != 1 {
		return frameConfig{}, errors.New("panelsim: rgb565 frames cannot be scaled")
	}
	return cfg, nil
}

// bufferPool stores reusable encoding buffers.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

type pngPool sync.Pool

func (p *pngPool) Get() *png.EncoderBuffer {
	b, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return b
}

func (p *pngPool) Put(b *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(b)
}

// encode writes the current panel content to buf.
func (s *Stream) encode(buf *bytes.Buffer, cfg frameConfig) error {
	if cfg.format == RGB565 {
		buf.Write(s.p.appendRAM(buf.AvailableBuffer()))
		return nil
	}
	var img image.Image = s.p.Image()
	if cfg.scale > 1 {
		r := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, r.Dx()*cfg.scale, r.Dy()*cfg.scale))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, r, xdraw.Src, nil)
		img = dst
	}
	switch cfg.format {
	case PNG:
		return s.pngEnc.Encode(buf, img)
	case JPEG:
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: s.opts.JPEGQuality})
	}
	return fmt.Errorf("panelsim: unhandled image format %s", cfg.format)
}

// ServeHTTP handles GET requests. Clients choose the encoding with
// "?format=png", "?format=jpeg" or "?format=rgb565" and the magnification
// with "?scale=N".
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	cfg, err := s.configFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	changed := s.p.subscribe()
	defer s.p.unsubscribe(changed)

	fw := newFrameWriter(w)
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": fw.boundary,
	}))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", formats[cfg.format].mime)
	if cfg.format == RGB565 {
		b := s.p.Bounds()
		header.Set("X-Panel-Size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	for {
		start := time.Now()
		buf.Reset()
		if err := s.encode(buf, cfg); err != nil {
			return
		}
		// Errors silently end the request; there is no way to report them
		// inside an image stream.
		if err := fw.writeFrame(header, buf.Bytes()); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		if wait := s.opts.MinInterval - time.Since(start); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-r.Context().Done():
				t.Stop()
				return
			}
		}
		select {
		case <-changed:
		case <-r.Context().Done():
			return
		}
	}
}

var _ http.Handler = &Stream{}
