// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome OLED display via a SSD1306
// controller.
//
// The driver owns an in-memory surface addressed in panel coordinates and
// keeps the bounding rectangle of every pixel touched since the last
// transfer. Only that rectangle, extended to whole 8 rows pages, is sent to
// the controller. This is especially important when using I²C as the bus
// default speed (often 100kHz) is slow enough to saturate the bus at less
// than 10 frames per second.
//
// Writes can be batched with Suspend and Resume: nothing is transmitted until
// the outermost Resume, which sends the union of all the modified areas at
// once.
//
// The surface can hold more than 1 bit per pixel. In that case the shades of
// gray are reduced to black and white with an ordered 16x16 dither at
// transmission time, see package dither.
//
// The device can be driven on either I²C or SPI with 4 wires. Changing
// between protocol is likely done through resistor soldering, for boards that
// support both.
//
// Some boards expose a RES / Reset pin. If present, pass it as Opts.Reset so
// the driver can pulse it.
//
// # Concurrency
//
// A Dev is not safe for concurrent use. Callers must serialize access.
//
// # More details
//
// See https://periph.io/device/ssd1306/ for more details about the device.
//
// # Datasheets
//
// Product page:
//
// http://www.solomon-systech.com/en/product/display-ic/oled-driver-controller/ssd1306/
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
package ssd1306
