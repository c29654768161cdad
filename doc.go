// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled is a container for the SSD1306 display driver and the image
// and emulation packages it builds on.
//
// See ssd1306 for the driver and oledsim to run it without hardware.
package oled
