// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cdevpin

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
)

type fakeLine struct {
	values []int
	closed int
	err    error
}

func (f *fakeLine) SetValue(v int) error {
	if f.err != nil {
		return f.err
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeLine) Close() error {
	f.closed++
	return nil
}

func TestOut(t *testing.T) {
	l := &fakeLine{}
	p := newPin(l, "gpiochip0", 25, "RST")
	for _, lvl := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := p.Out(lvl); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(l.values, []int{1, 0, 1}); diff != "" {
		t.Errorf("SetValue() difference (-got +want):\n%s", diff)
	}
	if got := p.Function(); got != "Out/High" {
		t.Errorf("Function() = %q", got)
	}
}

func TestIdentity(t *testing.T) {
	p := newPin(&fakeLine{}, "gpiochip4", 8, "CS")
	if got := p.String(); got != "CS(gpiochip4/8)" {
		t.Errorf("String() = %q", got)
	}
	if p.Name() != "CS" || p.Number() != 8 {
		t.Errorf("Name(), Number() = %q, %d", p.Name(), p.Number())
	}
	if err := p.PWM(gpio.DutyHalf, 0); err == nil {
		t.Error("PWM() succeeded")
	}
}

func TestClose(t *testing.T) {
	l := &fakeLine{}
	p := newPin(l, "gpiochip0", 24, "DC")
	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if l.closed != 1 {
		t.Errorf("line closed %d times", l.closed)
	}
	if err := p.Out(gpio.High); err == nil {
		t.Error("Out() after Close() succeeded")
	}
	if got := p.Function(); got != "Closed" {
		t.Errorf("Function() = %q", got)
	}
}

func TestOutError(t *testing.T) {
	errLine := errors.New("line busy")
	p := newPin(&fakeLine{err: errLine}, "gpiochip0", 24, "DC")
	if err := p.Out(gpio.High); !errors.Is(err, errLine) {
		t.Errorf("Out() = %v, want %v", err, errLine)
	}
	if got := p.Function(); got != "Out/Low" {
		t.Errorf("Function() after a failed Out() = %q", got)
	}
}
