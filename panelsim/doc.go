// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panelsim emulates a ST7735 display module at the wire level.
//
// A Panel is a conn.Conn plus the DC, CS and RST lines; hand them to
// st7735.New instead of a real SPI port and GPIO pins. The emulator decodes
// commands, address windows and RGB565 pixel streams the way the controller
// does, counts the traffic and keeps the resulting picture, which can be
// shown on a console (Terminal) or in a browser (Stream).
package panelsim
