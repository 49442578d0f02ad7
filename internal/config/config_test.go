// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 128, c.Panel.W)
	assert.Equal(t, 160, c.Panel.H)
	assert.Equal(t, byte(0xC8), c.Panel.MADCTL)
	assert.Equal(t, 30, c.Rain.FrameMS)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `driver: sim
panel:
  offset_x: 0
  offset_y: 0
rain:
  charset: "01"
preview:
  addr: ":8080"
  terminal: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSim, c.Driver)
	assert.Equal(t, 0, c.Panel.OffsetX)
	assert.Equal(t, 128, c.Panel.W)
	assert.Equal(t, "01", c.Rain.Charset)
	assert.Equal(t, 30, c.Rain.FrameMS)
	assert.Equal(t, ":8080", c.Preview.Addr)
	assert.True(t, c.Preview.Terminal)
	assert.Equal(t, "GPIO24", c.Pins.DC)
	require.NoError(t, c.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("panel: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	want := Default()
	want.GPIOChip = "gpiochip4"
	want.Pins = Pins{DC: "24", CS: "8", RST: "25"}
	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		edit func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Driver = "i2c" }},
		{"missing pin", func(c *Config) { c.Pins.RST = "" }},
		{"empty panel", func(c *Config) { c.Panel.W = 0 }},
		{"negative offset", func(c *Config) { c.Panel.OffsetY = -1 }},
		{"negative frame", func(c *Config) { c.Rain.FrameMS = -1 }},
		{"control char", func(c *Config) { c.Rain.Charset = "a\tb" }},
		{"negative splash", func(c *Config) { c.Splash.Millis = -5 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.edit(c)
			assert.Error(t, c.Validate())
		})
	}

	c := Default()
	c.Driver = DriverSim
	c.Pins = Pins{}
	assert.NoError(t, c.Validate(), "the emulator needs no pins")
}
