// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package panelsim

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one of the panel control lines.
type Pin struct {
	p    *Panel
	name string
	l    gpio.Level
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return p.name
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.name
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return -1
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return "Out/" + p.Read().String()
}

// Read returns the last level driven.
func (p *Pin) Read() gpio.Level {
	p.p.mu.Lock()
	defer p.p.mu.Unlock()
	return p.l
}

// Out implements gpio.PinOut.
//
// Releasing RST (low to high) resets the controller.
func (p *Pin) Out(l gpio.Level) error {
	p.p.mu.Lock()
	defer p.p.mu.Unlock()
	prev := p.l
	p.l = l
	if p == p.p.rst && prev == gpio.Low && l == gpio.High {
		p.p.resetLocked()
	}
	if p == p.p.cs && l == gpio.High {
		// A partial pixel is dropped when the transaction ends.
		p.p.pending = p.p.pending[:0]
	}
	return nil
}

// PWM implements gpio.PinOut.
func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("panelsim: PWM is not supported")
}

var _ gpio.PinOut = &Pin{}
