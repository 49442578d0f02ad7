// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// matrixrain shows falling character streams on a ST7735 128x160 TFT.
//
// Without hardware, -driver sim runs the same code against an emulated panel
// that can be watched in a browser (-addr) or in the terminal (-term).
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GermanBionicSystems/matrixrain/internal/config"
	"github.com/GermanBionicSystems/matrixrain/panelsim"
	"github.com/GermanBionicSystems/matrixrain/rain"
	"github.com/GermanBionicSystems/matrixrain/splash"
	"github.com/GermanBionicSystems/matrixrain/st7735"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: spi | sim (overrides the config)")
		addr       = flag.String("addr", "", "preview HTTP listen address, e.g. :8080")
		term       = flag.Bool("term", false, "render the emulated panel in the terminal")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Configuration: file, then flags ----
	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
		cfg = c
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *addr != "" {
		cfg.Preview.Addr = *addr
	}
	if *term {
		cfg.Preview.Terminal = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("matrixrain")
	}
	log.Info().Msg("stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	d, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	log.Info().Str("driver", cfg.Driver).Stringer("dev", d.dev).Msg("display opened")

	// A display that failed to initialize is in an unknown state: stop here.
	if err := d.dev.Init(); err != nil {
		return err
	}
	if err := d.dev.Fill(st7735.Black); err != nil {
		return err
	}
	defer func() {
		if err := d.dev.Halt(); err != nil {
			log.Warn().Err(err).Msg("halt")
		}
	}()

	hub := newColumnHub()
	defer hub.Close()
	if cfg.Preview.Addr != "" {
		srv := newPreviewServer(cfg.Preview.Addr, d.panel, hub)
		go func() {
			log.Info().Str("addr", cfg.Preview.Addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("preview server")
			}
		}()
		defer srv.Close()
	}
	if cfg.Preview.Terminal {
		if d.panel == nil {
			log.Warn().Msg("terminal preview needs the sim driver")
		} else {
			t := panelsim.NewTerminal(&panelsim.TerminalOpts{})
			go renderTerminal(ctx, t, d.panel)
			defer t.Halt()
		}
	}

	if err := showSplash(ctx, d.dev, &cfg.Splash); err != nil {
		return err
	}

	e, err := newEngine(cfg, hub)
	if err != nil {
		return err
	}
	interval := time.Duration(cfg.Rain.FrameMS) * time.Millisecond
	log.Info().Int("columns", len(e.Columns())).Dur("interval", interval).Msg("rain starting")
	return rain.Run(ctx, e, d.dev, interval, nil)
}

func newEngine(cfg *config.Config, hub *columnHub) (*rain.Engine, error) {
	opts := rain.DefaultOpts
	opts.Columns = cfg.Panel.W / opts.CellW
	opts.Rows = cfg.Panel.H / opts.CellH
	if cfg.Rain.Charset != "" {
		opts.Charset = cfg.Rain.Charset
	}
	var e *rain.Engine
	var last rain.Stats
	lastLog := time.Now()
	opts.OnTick = func(s rain.Stats) {
		hub.publish(s.Ticks, e.Columns())
		if since := time.Since(lastLog); since >= time.Second {
			log.Debug().
				Float64("fps", float64(s.Ticks-last.Ticks)/since.Seconds()).
				Int("advances", s.Advances-last.Advances).
				Int("respawns", s.Respawns-last.Respawns).
				Int("draws", s.Draws-last.Draws).
				Msg("frames")
			last, lastLog = s, time.Now()
		}
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var err error
	e, err = rain.New(&opts, rng)
	return e, err
}

// showSplash draws the configured title card and waits, then clears the
// panel.
func showSplash(ctx context.Context, dev *st7735.Dev, cfg *config.Splash) error {
	var img image.Image
	var err error
	switch {
	case cfg.SVG != "":
		f, ferr := os.Open(cfg.SVG)
		if ferr != nil {
			return ferr
		}
		img, err = splash.SVG(dev.Bounds(), f, st7735.Black)
		f.Close()
	case len(cfg.Text) != 0:
		img, err = splash.Text(dev.Bounds(), cfg.Text, rain.DefaultRamp[0], st7735.Black)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		return err
	}
	t := time.NewTimer(time.Duration(cfg.Millis) * time.Millisecond)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
	return dev.Fill(st7735.Black)
}

func newPreviewServer(addr string, p *panelsim.Panel, hub *columnHub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/columns", hub)
	if p != nil {
		mux.Handle("/", panelsim.NewStream(p, &panelsim.StreamOpts{Scale: 2, MinInterval: 50 * time.Millisecond}))
	} else {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "the live image is only available with the sim driver", http.StatusNotFound)
		})
	}
	return &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

func renderTerminal(ctx context.Context, t *panelsim.Terminal, p *panelsim.Panel) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := t.Render(p); err != nil {
				log.Debug().Err(err).Msg("terminal")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
