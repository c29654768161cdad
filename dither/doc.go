// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dither reduces grayscale pixels to black and white with ordered
// (threshold matrix) dithering.
//
// Ordered dithering is stateless: the decision for a pixel only depends on its
// position and its luminance, so any sub-rectangle of an image can be
// re-dithered independently and produce the exact same bits as a full frame.
// This is what makes it suitable for differential display updates, contrary to
// error diffusion like draw.FloydSteinberg.
//
// # More details
//
// https://en.wikipedia.org/wiki/Ordered_dithering
package dither
