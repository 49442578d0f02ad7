// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rain_test

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/GermanBionicSystems/matrixrain/panelsim"
	"github.com/GermanBionicSystems/matrixrain/rain"
	"github.com/GermanBionicSystems/matrixrain/st7735"
)

func Example() {
	// An emulated panel replaces the SPI bus; see st7735.NewSPI for hardware.
	p := panelsim.New(&panelsim.DefaultOpts)
	opts := st7735.DefaultOpts
	opts.Sleep = func(time.Duration) {}
	dev, err := st7735.New(p, p.DC(), p.CS(), p.RST(), &opts)
	if err != nil {
		log.Fatal(err)
	}
	if err := dev.Init(); err != nil {
		log.Fatal(err)
	}
	if err := dev.Fill(st7735.Black); err != nil {
		log.Fatal(err)
	}

	e, err := rain.New(&rain.DefaultOpts, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := e.Tick(dev); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("%d columns, %d ticks\n", len(e.Columns()), e.Stats().Ticks)
	// Output: 21 columns, 10 ticks
}
