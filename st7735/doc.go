// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7735 controls a ST7735 / ST7735S TFT LCD controller over 4-wire
// SPI with software chip select.
//
// Drawing is immediate: there is no frame buffer on the host side, each call
// sets an address window on the controller and streams the pixels to it.
// Out of range coordinates and non printable characters are silently
// ignored; transport errors are returned.
//
// Datasheet
//
// https://www.displayfuture.com/Display/datasheet/controller/ST7735.pdf
package st7735
