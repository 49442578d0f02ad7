// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsim

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
)

// newBoundary generates a MIME multipart boundary compatible with RFC 2046
// section 5.1.1.
func newBoundary() string {
	var buf [30]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", buf[:])
}

// frameWriter writes an endless multipart/x-mixed-replace body.
//
// mime/multipart.Writer only emits the closing boundary on Close, so a
// client would always be one frame late.
type frameWriter struct {
	w        io.Writer
	boundary string
	started  bool
	head     bytes.Buffer
}

func newFrameWriter(w io.Writer) *frameWriter {
	return &frameWriter{w: w, boundary: newBoundary()}
}

// writeFrame sends one part and its trailing boundary. header is modified to
// carry the Content-Length.
func (f *frameWriter) writeFrame(header textproto.MIMEHeader, body []byte) error {
	header.Set("Content-Length", strconv.Itoa(len(body)))
	f.head.Reset()
	if !f.started {
		fmt.Fprintf(&f.head, "--%s\r\n", f.boundary)
		f.started = true
	}
	for name, values := range header {
		for _, v := range values {
			fmt.Fprintf(&f.head, "%s: %s\r\n", name, v)
		}
	}
	f.head.WriteString("\r\n")
	if _, err := f.head.WriteTo(f.w); err != nil {
		return err
	}
	if _, err := f.w.Write(body); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f.w, "\r\n--%s\r\n", f.boundary)
	return err
}
