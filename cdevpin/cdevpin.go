// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cdevpin exposes a Linux GPIO character device line as a
// gpio.PinOut.
//
// Use it on boards where the periph host registry has no GPIO driver, for
// example the Raspberry Pi 5 whose header lines hang off the RP1 chip.
package cdevpin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// line is the part of *gpiocdev.Line used by Pin.
type line interface {
	SetValue(value int) error
	Close() error
}

// Pin is an output line requested from a GPIO chip.
type Pin struct {
	chip   string
	offset int
	name   string

	mu     sync.Mutex
	l      line
	level  gpio.Level
	closed bool
}

// Request claims line offset of chip, for example "gpiochip0", as an output
// driven low. name is shown as the consumer in gpioinfo.
func Request(chip string, offset int, name string) (*Pin, error) {
	l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(name))
	if err != nil {
		return nil, fmt.Errorf("cdevpin: %s line %d: %w", chip, offset, err)
	}
	return newPin(l, chip, offset, name), nil
}

func newPin(l line, chip string, offset int, name string) *Pin {
	return &Pin{chip: chip, offset: offset, name: name, l: l}
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return fmt.Sprintf("%s(%s/%d)", p.name, p.chip, p.offset)
}

// Halt implements conn.Resource. It releases the line.
func (p *Pin) Halt() error {
	return p.Close()
}

// Close releases the line. Further Out calls fail.
func (p *Pin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.l.Close(); err != nil {
		return fmt.Errorf("cdevpin: %w", err)
	}
	return nil
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.name
}

// Number implements pin.Pin. It returns the line offset.
func (p *Pin) Number() int {
	return p.offset
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "Closed"
	}
	return "Out/" + p.level.String()
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("cdevpin: line is closed")
	}
	v := 0
	if l {
		v = 1
	}
	if err := p.l.SetValue(v); err != nil {
		return fmt.Errorf("cdevpin: %s: %w", p, err)
	}
	p.level = l
	return nil
}

// PWM implements gpio.PinOut. It is not supported.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("cdevpin: PWM is not supported")
}

var _ gpio.PinOut = &Pin{}
