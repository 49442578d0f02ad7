// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package matrixrain is a container for the ST7735 display driver and the
// falling characters animation that runs on it.
//
// st7735 talks to the controller, rain owns the animation state, panelsim
// emulates the panel for development and tests. The program lives in
// cmd/matrixrain.
package matrixrain
