// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7735

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management.
//
// The first error is kept and every following operation, delays included,
// becomes a no-op.
type errorHandler struct {
	d   *Dev
	cmd byte
	err error
}

func (eh *errorHandler) fail(what string, err error) {
	eh.err = fmt.Errorf("%s (command 0x%02X): %w", what, eh.cmd, err)
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	if err := eh.d.rst.Out(l); err != nil {
		eh.err = fmt.Errorf("reset line: %w", err)
	}
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	if err := eh.d.dc.Out(l); err != nil {
		eh.fail("data/command line", err)
	}
}

func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	if err := eh.d.cs.Out(l); err != nil {
		eh.fail("chip select line", err)
	}
}

func (eh *errorHandler) cTx(w []byte) {
	if eh.err != nil {
		return
	}
	if err := eh.d.c.Tx(w, nil); err != nil {
		eh.fail("transfer", err)
	}
}

func (eh *errorHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}
	eh.cmd = cmd
	eh.dcOut(gpio.Low)
	eh.csOut(gpio.Low)
	eh.cTx([]byte{cmd})
	eh.csRelease()
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}
	eh.dcOut(gpio.High)
	eh.csOut(gpio.Low)
	eh.cTx(data)
	eh.csRelease()
}

// csRelease ends the transaction even when the transfer failed, so the next
// one starts on a deselected controller. The first error is kept.
func (eh *errorHandler) csRelease() {
	if err := eh.d.cs.Out(gpio.High); err != nil && eh.err == nil {
		eh.fail("chip select line", err)
	}
}

func (eh *errorHandler) delay(d time.Duration) {
	if eh.err != nil {
		return
	}
	eh.d.sleep(d)
}
