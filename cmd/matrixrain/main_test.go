// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/matrixrain/internal/config"
	"github.com/GermanBionicSystems/matrixrain/rain"
	"github.com/GermanBionicSystems/matrixrain/st7735"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simConfig() *config.Config {
	cfg := config.Default()
	cfg.Driver = config.DriverSim
	cfg.Splash = config.Splash{}
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestColumnHub(t *testing.T) {
	hub := newColumnHub()
	defer hub.Close()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	// Nobody listens yet.
	hub.publish(1, []rain.Column{{HeadRow: 1}})

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer c.Close()
	waitFor(t, func() bool { return hub.clientCount() == 1 })

	want := []rain.Column{{HeadRow: 3, TailLen: 5, Speed: 2, FrameCounter: 1}, {HeadRow: 20, TailLen: 13, Speed: 1}}
	hub.publish(7, want)
	var got snapshot
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, c.ReadJSON(&got))
	assert.Equal(t, 7, got.Tick)
	assert.Equal(t, want, got.Columns)

	require.NoError(t, c.Close())
	waitFor(t, func() bool { return hub.clientCount() == 0 })
}

func TestPreviewServer(t *testing.T) {
	d, err := openSim(simConfig())
	require.NoError(t, err)
	hub := newColumnHub()
	defer hub.Close()

	srv := httptest.NewServer(newPreviewServer("", d.panel, hub).Handler)
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/?scale=0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	hw := httptest.NewServer(newPreviewServer("", nil, hub).Handler)
	defer hw.Close()
	resp, err = http.Get(hw.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewEngine(t *testing.T) {
	cfg := simConfig()
	e, err := newEngine(cfg, newColumnHub())
	require.NoError(t, err)
	assert.Len(t, e.Columns(), 21)

	cfg.Panel.W, cfg.Panel.H = 128, 128
	cfg.Rain.Charset = "01"
	e, err = newEngine(cfg, newColumnHub())
	require.NoError(t, err)
	assert.Len(t, e.Columns(), 21)
	for _, c := range e.Columns() {
		assert.Less(t, c.HeadRow, 16)
	}
}

func TestOpenDisplay(t *testing.T) {
	cfg := simConfig()
	cfg.Panel.W, cfg.Panel.H = 80, 160
	d, err := openDisplay(cfg)
	require.NoError(t, err)
	defer d.Close()
	require.NotNil(t, d.panel)
	assert.Equal(t, 80, d.dev.Bounds().Dx())

	cfg.Driver = "i2c"
	_, err = openDisplay(cfg)
	assert.Error(t, err)
}

func TestShowSplash(t *testing.T) {
	d, err := openSim(simConfig())
	require.NoError(t, err)
	require.NoError(t, d.dev.Init())

	require.NoError(t, showSplash(context.Background(), d.dev, &config.Splash{}))
	assert.Zero(t, d.panel.Stats().Pixels, "no splash configured")

	d.panel.ResetStats()
	require.NoError(t, showSplash(context.Background(), d.dev, &config.Splash{Text: []string{"hi"}}))
	// The card, then the clear.
	assert.Equal(t, 2*128*160, d.panel.Stats().Pixels)
	assert.Equal(t, uint16(st7735.Black), d.panel.RAM(64, 80))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = showSplash(ctx, d.dev, &config.Splash{Text: []string{"hi"}, Millis: 10000})
	assert.True(t, errors.Is(err, context.Canceled))

	err = showSplash(context.Background(), d.dev, &config.Splash{SVG: "missing.svg"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	err := run(ctx, simConfig())
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "run() = %v", err)
}
