// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/GermanBionicSystems/oled/imagegray"
)

// Surface is the pixel storage of a Dev, addressed in panel coordinates.
//
// *image1bit.VerticalLSB and *imagegray.Gray implement it.
type Surface interface {
	draw.Image
	// Depth is the number of bits of a native sample, between 1 and 8.
	Depth() int
	// Sample returns the native sample at (x, y), in [0, 2^Depth-1].
	Sample(x, y int) uint8
	// Luma returns the sample at (x, y) scaled to [0, 255].
	Luma(x, y int) uint8
	// Fill sets every pixel of r to c.
	Fill(r image.Rectangle, c color.Color)
}

// NewSurface is the default surface allocator. It returns an
// image1bit.VerticalLSB for depth 1 and an imagegray.Gray otherwise.
func NewSurface(r image.Rectangle, depth int) (Surface, error) {
	if depth == 1 {
		return image1bit.NewVerticalLSB(r), nil
	}
	g, err := imagegray.NewGray(r, depth)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func colorModel(depth int) color.Model {
	if depth <= 1 {
		return image1bit.BitModel
	}
	return imagegray.Model(depth)
}

var (
	_ Surface = &image1bit.VerticalLSB{}
	_ Surface = &imagegray.Gray{}
)
