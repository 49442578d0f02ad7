// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/GermanBionicSystems/matrixrain/cdevpin"
	"github.com/GermanBionicSystems/matrixrain/internal/config"
	"github.com/GermanBionicSystems/matrixrain/panelsim"
	"github.com/GermanBionicSystems/matrixrain/st7735"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// display is the opened panel and what must be released with it.
type display struct {
	dev *st7735.Dev
	// panel is set when running on the emulator.
	panel   *panelsim.Panel
	closers []func() error
}

func (d *display) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func driverOpts(cfg *config.Config) st7735.Opts {
	return st7735.Opts{
		W:       cfg.Panel.W,
		H:       cfg.Panel.H,
		OffsetX: cfg.Panel.OffsetX,
		OffsetY: cfg.Panel.OffsetY,
		MADCTL:  cfg.Panel.MADCTL,
		Speed:   physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz,
	}
}

func openDisplay(cfg *config.Config) (*display, error) {
	switch cfg.Driver {
	case config.DriverSim:
		return openSim(cfg)
	case config.DriverSPI:
		return openSPI(cfg)
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

func openSim(cfg *config.Config) (*display, error) {
	p := panelsim.New(&panelsim.Opts{W: cfg.Panel.W, H: cfg.Panel.H, OffsetX: cfg.Panel.OffsetX, OffsetY: cfg.Panel.OffsetY})
	opts := driverOpts(cfg)
	dev, err := st7735.New(p, p.DC(), p.CS(), p.RST(), &opts)
	if err != nil {
		return nil, err
	}
	return &display{dev: dev, panel: p}, nil
}

func openSPI(cfg *config.Config) (*display, error) {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	d := &display{}
	pins := make([]gpio.PinOut, 3)
	for i, name := range []string{cfg.Pins.DC, cfg.Pins.CS, cfg.Pins.RST} {
		p, err := openPin(cfg.GPIOChip, name, [...]string{"st7735-dc", "st7735-cs", "st7735-rst"}[i])
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		if c, ok := p.(*cdevpin.Pin); ok {
			d.closers = append(d.closers, c.Close)
		}
		pins[i] = p
	}
	port, err := spireg.Open(cfg.SPI.Port)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.closers = append(d.closers, port.Close)
	opts := driverOpts(cfg)
	if d.dev, err = st7735.NewSPI(port, pins[0], pins[1], pins[2], &opts); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// openPin returns a periph registry pin, or a character device line when
// chip is set.
func openPin(chip, name, consumer string) (gpio.PinOut, error) {
	if chip == "" {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no pin named %q", name)
		}
		return p, nil
	}
	offset, err := strconv.Atoi(name)
	if err != nil {
		return nil, fmt.Errorf("pin %q is not a line offset of %s", name, chip)
	}
	return cdevpin.Request(chip, offset, consumer)
}
