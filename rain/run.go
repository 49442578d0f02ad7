// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rain

import (
	"context"
	"time"
)

// DefaultInterval is the pause between two ticks, about 30 frames per
// second on a fast bus.
const DefaultInterval = 30 * time.Millisecond

// Run ticks e then sleeps for interval, forever.
//
// A slow tick delays the next one; there is no catch up. Run returns the
// first Tick error, or ctx.Err() once ctx is done. ctx is only checked
// between frames. sleep defaults to time.Sleep.
func Run(ctx context.Context, e *Engine, d Drawer, interval time.Duration, sleep func(time.Duration)) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Tick(d); err != nil {
			return err
		}
		sleep(interval)
	}
}
