// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config is the YAML configuration of the matrixrain command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Drivers
const (
	DriverSPI = "spi"
	DriverSim = "sim"
)

// SPI selects the bus and clock of the display.
type SPI struct {
	Port    string `yaml:"port"`     // "" picks the first bus, e.g. /dev/spidev0.0
	SpeedHz int    `yaml:"speed_hz"` // e.g. 15000000
}

// Pins are periph pin names, e.g. "GPIO24", or line offsets when GPIOChip
// is set.
type Pins struct {
	DC  string `yaml:"dc"`
	CS  string `yaml:"cs"`
	RST string `yaml:"rst"`
}

// Panel is the visible area and orientation, see st7735.Opts.
type Panel struct {
	W       int  `yaml:"w"`
	H       int  `yaml:"h"`
	OffsetX int  `yaml:"offset_x"`
	OffsetY int  `yaml:"offset_y"`
	MADCTL  byte `yaml:"madctl"`
}

// Rain tunes the animation. An empty Charset keeps rain.DefaultCharset.
type Rain struct {
	FrameMS int    `yaml:"frame_ms"`
	Charset string `yaml:"charset,omitempty"`
}

// Splash is the title card shown before the animation starts. It is
// skipped when both Text and SVG are empty.
type Splash struct {
	Text   []string `yaml:"text,omitempty"`
	SVG    string   `yaml:"svg,omitempty"` // path to an SVG file, wins over Text
	Millis int      `yaml:"millis"`
}

// Preview enables the development views of the panel.
type Preview struct {
	Addr     string `yaml:"addr,omitempty"` // e.g. :8080, empty disables the server
	Terminal bool   `yaml:"terminal"`
}

// Config is the whole configuration file.
type Config struct {
	Driver   string  `yaml:"driver"` // "spi" | "sim"
	SPI      SPI     `yaml:"spi"`
	Pins     Pins    `yaml:"pins"`
	GPIOChip string  `yaml:"gpio_chip,omitempty"` // e.g. gpiochip0; pins are then line offsets
	Panel    Panel   `yaml:"panel"`
	Rain     Rain    `yaml:"rain"`
	Splash   Splash  `yaml:"splash"`
	Preview  Preview `yaml:"preview"`
}

// Default returns the configuration of a 1.8" 128x160 module wired to the
// Raspberry Pi SPI0 header pins.
func Default() *Config {
	return &Config{
		Driver: DriverSPI,
		SPI:    SPI{SpeedHz: 15000000},
		Pins:   Pins{DC: "GPIO24", CS: "GPIO8", RST: "GPIO25"},
		Panel:  Panel{W: 128, H: 160, OffsetX: 2, OffsetY: 1, MADCTL: 0xC8},
		Rain:   Rain{FrameMS: 30},
		Splash: Splash{Text: []string{"wake up"}, Millis: 1500},
	}
}

// Load reads path over the defaults: keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path as YAML.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []string
	switch c.Driver {
	case DriverSPI:
		if c.Pins.DC == "" || c.Pins.CS == "" || c.Pins.RST == "" {
			errs = append(errs, "pins: dc, cs and rst are required")
		}
		if c.SPI.SpeedHz < 0 {
			errs = append(errs, "spi: negative speed_hz")
		}
	case DriverSim:
	default:
		errs = append(errs, fmt.Sprintf("driver: unknown %q", c.Driver))
	}
	if c.Panel.W <= 0 || c.Panel.H <= 0 {
		errs = append(errs, fmt.Sprintf("panel: invalid size %dx%d", c.Panel.W, c.Panel.H))
	}
	if c.Panel.OffsetX < 0 || c.Panel.OffsetY < 0 {
		errs = append(errs, "panel: negative offset")
	}
	if c.Rain.FrameMS < 0 {
		errs = append(errs, "rain: negative frame_ms")
	}
	for i := 0; i < len(c.Rain.Charset); i++ {
		if b := c.Rain.Charset[i]; b < 0x20 || b > 0x7E {
			errs = append(errs, fmt.Sprintf("rain: charset byte 0x%02X is not printable", b))
			break
		}
	}
	if c.Splash.Millis < 0 {
		errs = append(errs, "splash: negative millis")
	}
	if len(errs) != 0 {
		return errors.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}
