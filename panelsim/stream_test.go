// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsim

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "png", want: PNG},
		{in: "jpg", want: JPEG},
		{in: "jpeg", want: JPEG},
		{in: "rgb565", want: RGB565},
		{in: "gif", want: PNG, wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %t", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestConfigFromQuery(t *testing.T) {
	s := NewStream(New(&DefaultOpts), &StreamOpts{Format: JPEG})
	for _, tc := range []struct {
		query   string
		want    frameConfig
		wantErr bool
	}{
		{query: "", want: frameConfig{format: JPEG, scale: 1}},
		{query: "format=png&scale=3", want: frameConfig{format: PNG, scale: 3}},
		{query: "scale=0", wantErr: true},
		{query: "scale=9", wantErr: true},
		{query: "format=bmp", wantErr: true},
		{query: "format=rgb565", want: frameConfig{format: RGB565, scale: 1}},
		{query: "format=rgb565&scale=2", wantErr: true},
	} {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			got, err := s.configFromQuery(req.URL.Query())
			if (err != nil) != tc.wantErr {
				t.Fatalf("configFromQuery(%q) error = %v, wantErr %t", tc.query, err, tc.wantErr)
			}
			if diff := cmp.Diff(got, tc.want, cmp.AllowUnexported(frameConfig{})); diff != "" {
				t.Errorf("configFromQuery(%q) difference (-got +want):\n%s", tc.query, diff)
			}
		})
	}
}

func TestServeHTTP(t *testing.T) {
	p := New(&DefaultOpts)
	srv := httptest.NewServer(NewStream(p, &StreamOpts{}))
	defer srv.Close()

	for _, tc := range []struct {
		query  string
		mime   string
		decode func(io.Reader) (image.Image, error)
		size   image.Point
	}{
		{query: "", mime: "image/png", decode: png.Decode, size: image.Pt(128, 160)},
		{query: "?format=jpeg&scale=2", mime: "image/jpeg", decode: jpeg.Decode, size: image.Pt(256, 320)},
	} {
		t.Run(tc.query, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			mt, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
			if err != nil {
				t.Fatal(err)
			}
			if mt != "multipart/x-mixed-replace" {
				t.Fatalf("Content-Type = %q", mt)
			}
			part, err := multipart.NewReader(resp.Body, params["boundary"]).NextPart()
			if err != nil {
				t.Fatal(err)
			}
			if got := part.Header.Get("Content-Type"); got != tc.mime {
				t.Errorf("part Content-Type = %q, want %q", got, tc.mime)
			}
			img, err := tc.decode(part)
			if err != nil {
				t.Fatal(err)
			}
			if got := img.Bounds().Size(); got != tc.size {
				t.Errorf("frame size = %v, want %v", got, tc.size)
			}
		})
	}
}

func TestServeHTTPErrors(t *testing.T) {
	s := NewStream(New(&DefaultOpts), &StreamOpts{})
	for _, tc := range []struct {
		method string
		target string
		want   int
	}{
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
		{http.MethodGet, "/?format=tiff", http.StatusBadRequest},
	} {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, strings.NewReader("")))
		if w.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.target, w.Code, tc.want)
		}
	}
}

func TestServeHTTPRGB565(t *testing.T) {
	h := newHost(t)
	h.wake()
	h.command(cmdCASet, 0, 12, 0, 13)
	h.command(cmdRASet, 0, 21, 0, 21)
	h.command(cmdRAMWr, 0xF8, 0x00, 0x07, 0xE0)
	srv := httptest.NewServer(NewStream(h.p, &StreamOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?format=rgb565")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatal(err)
	}
	part, err := multipart.NewReader(resp.Body, params["boundary"]).NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if got := part.Header.Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("part Content-Type = %q", got)
	}
	if got := part.Header.Get("X-Panel-Size"); got != "128x160" {
		t.Errorf("X-Panel-Size = %q, want 128x160", got)
	}
	b, err := io.ReadAll(part)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 128*160*2 {
		t.Fatalf("frame is %d bytes, want %d", len(b), 128*160*2)
	}
	for _, tc := range []struct {
		x, y int
		want []byte
	}{
		{10, 20, []byte{0xF8, 0x00}},
		{11, 20, []byte{0x07, 0xE0}},
		{12, 20, []byte{0, 0}},
	} {
		i := 2 * (tc.y*128 + tc.x)
		if diff := cmp.Diff(b[i:i+2], tc.want); diff != "" {
			t.Errorf("pixel (%d, %d) difference (-got +want):\n%s", tc.x, tc.y, diff)
		}
	}
}
