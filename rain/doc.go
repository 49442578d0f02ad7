// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rain animates independent columns of falling characters on a
// character cell display.
//
// Each column has a head falling one row every Speed ticks and a tail
// painted with a fading color ramp. Every advance repaints the visible part
// of the tail with fresh random characters. Once the tail has left the
// bottom of the screen the column restarts at the top with a new length and
// speed.
//
// The Engine owns the column state and is not safe for concurrent use.
package rain
