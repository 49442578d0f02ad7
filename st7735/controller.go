// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7735

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

type controller interface {
	rstOut(gpio.Level)
	sendCommand(byte)
	sendData([]byte)
	delay(time.Duration)
}

// command is one step of the configuration sequence: a command byte, its
// parameters and the time the controller needs before the next command.
type command struct {
	cmd  byte
	data []byte
	wait time.Duration
}

func hardwareReset(ctrl controller) {
	ctrl.rstOut(gpio.Low)
	ctrl.delay(10 * time.Millisecond)
	ctrl.rstOut(gpio.High)
	ctrl.delay(120 * time.Millisecond)
}

// initSequence returns the power on configuration, in the order the
// controller requires. MADCTL must come after COLMOD and before the first
// address window.
func initSequence(opts *Opts) []command {
	x0 := byte(opts.OffsetX)
	x1 := byte(opts.OffsetX + opts.W - 1)
	y0 := byte(opts.OffsetY)
	y1 := byte(opts.OffsetY + opts.H - 1)
	return []command{
		{cmd: swReset, wait: 150 * time.Millisecond},
		{cmd: slpOut, wait: 255 * time.Millisecond},
		{cmd: frmCtr1, data: []byte{0x05, 0x3C, 0x3C}},
		{cmd: frmCtr2, data: []byte{0x05, 0x3C, 0x3C}},
		{cmd: frmCtr3, data: []byte{0x05, 0x3C, 0x3C, 0x05, 0x3C, 0x3C}},
		{cmd: pwCtr1, data: []byte{0xA2, 0x02, 0x84}},
		{cmd: pwCtr2, data: []byte{0xC5}},
		{cmd: pwCtr3, data: []byte{0x0A, 0x00}},
		{cmd: vmCtr1, data: []byte{0x3C, 0x38}},
		{cmd: colMod, data: []byte{colMod16Bit}, wait: 10 * time.Millisecond},
		{cmd: madCtl, data: []byte{opts.MADCTL}},
		{cmd: caSet, data: []byte{0x00, x0, 0x00, x1}},
		{cmd: raSet, data: []byte{0x00, y0, 0x00, y1}},
		{cmd: ramWr},
		{cmd: gmCtrP1, data: []byte{
			0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D,
			0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10,
		}},
		{cmd: gmCtrN1, data: []byte{
			0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D,
			0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10,
		}},
		{cmd: dispOn, wait: 100 * time.Millisecond},
	}
}

func initDisplay(ctrl controller, opts *Opts) {
	hardwareReset(ctrl)
	for _, c := range initSequence(opts) {
		ctrl.sendCommand(c.cmd)
		if len(c.data) != 0 {
			ctrl.sendData(c.data)
		}
		if c.wait != 0 {
			ctrl.delay(c.wait)
		}
	}
}

// setAddressWindow selects the controller RAM rectangle the next pixel stream
// fills, in logical coordinates. The panel offset is applied here only.
func setAddressWindow(ctrl controller, opts *Opts, x0, y0, x1, y1 int) {
	xs, xe := x0+opts.OffsetX, x1+opts.OffsetX
	ys, ye := y0+opts.OffsetY, y1+opts.OffsetY

	ctrl.sendCommand(caSet)
	ctrl.sendData([]byte{byte(xs >> 8), byte(xs), byte(xe >> 8), byte(xe)})

	ctrl.sendCommand(raSet)
	ctrl.sendData([]byte{byte(ys >> 8), byte(ys), byte(ye >> 8), byte(ye)})

	ctrl.sendCommand(ramWr)
}
