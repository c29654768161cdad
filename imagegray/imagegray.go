// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package imagegray implements grayscale 2D graphics with a configurable
// number of bits per pixel, between 2 and 8.
//
// It is compatible with package image/draw. It is used as the backing surface
// of a monochrome display driver when the application wants to draw shades of
// gray that get dithered at transmission time.
package imagegray

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
)

// Bounds on the supported depth.
const (
	MinDepth = 2
	MaxDepth = 8
)

// GrayN is a gray level expressed with Depth bits.
type GrayN struct {
	Y     uint8
	Depth uint8
}

// RGBA implements color.Color.
func (g GrayN) RGBA() (uint32, uint32, uint32, uint32) {
	top := uint32(1)<<g.Depth - 1
	if top == 0 {
		return 0, 0, 0, 65535
	}
	y := uint32(g.Y)
	if y > top {
		y = top
	}
	i := y * 65535 / top
	return i, i, i, 65535
}

func (g GrayN) String() string {
	return "Gray" + strconv.Itoa(int(g.Depth)) + "(" + strconv.Itoa(int(g.Y)) + ")"
}

// Model returns the color model quantizing to depth bits.
func Model(depth int) color.Model {
	return color.ModelFunc(func(c color.Color) color.Color {
		return convert(c, uint8(depth))
	})
}

// Gray is a grayscale image storing one native sample per byte.
//
// Samples are in [0, 2^Depth-1].
type Gray struct {
	// Pix holds the image's samples, in row major order.
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
	// depth is the number of significant bits per sample.
	depth uint8
	model color.Model
}

// NewGray returns an initialized Gray instance.
func NewGray(r image.Rectangle, depth int) (*Gray, error) {
	if depth < MinDepth || depth > MaxDepth {
		return nil, fmt.Errorf("imagegray: invalid depth %d", depth)
	}
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("imagegray: invalid bounds %s", r)
	}
	return &Gray{
		Pix:    make([]uint8, w*h),
		Stride: w,
		Rect:   r,
		depth:  uint8(depth),
		model:  Model(depth),
	}, nil
}

// ColorModel implements image.Image.
func (i *Gray) ColorModel() color.Model {
	return i.model
}

// Bounds implements image.Image.
func (i *Gray) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Gray) At(x, y int) color.Color {
	return i.GrayAt(x, y)
}

// GrayAt is the optimized version of At().
func (i *Gray) GrayAt(x, y int) GrayN {
	return GrayN{Y: i.Sample(x, y), Depth: i.depth}
}

// Opaque scans the entire image and reports whether it is fully opaque.
func (i *Gray) Opaque() bool {
	return true
}

// PixOffset returns the index of the element of Pix that corresponds to the
// pixel at (x, y).
func (i *Gray) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x - i.Rect.Min.X)
}

// Set implements draw.Image.
func (i *Gray) Set(x, y int, c color.Color) {
	i.SetSample(x, y, convert(c, i.depth).Y)
}

// SetSample sets the native sample at (x, y). Values above the maximum are
// saturated.
func (i *Gray) SetSample(x, y int, v uint8) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	if top := i.Max(); v > top {
		v = top
	}
	i.Pix[i.PixOffset(x, y)] = v
}

// Sample returns the native sample at (x, y).
func (i *Gray) Sample(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return 0
	}
	return i.Pix[i.PixOffset(x, y)]
}

// Luma returns the sample at (x, y) scaled to 8 bits.
func (i *Gray) Luma(x, y int) uint8 {
	return uint8(uint32(i.Sample(x, y)) * 255 / uint32(i.Max()))
}

// Depth returns the number of bits per sample.
func (i *Gray) Depth() int {
	return int(i.depth)
}

// Max returns the largest sample value, i.e. full white.
func (i *Gray) Max() uint8 {
	return uint8(uint32(1)<<i.depth - 1)
}

// Fill sets every pixel of r that lies in the image to c.
func (i *Gray) Fill(r image.Rectangle, c color.Color) {
	r = r.Intersect(i.Rect)
	if r.Empty() {
		return
	}
	v := convert(c, i.depth).Y
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := i.Pix[i.PixOffset(r.Min.X, y):i.PixOffset(r.Max.X, y)]
		for x := range row {
			row[x] = v
		}
	}
}

//

var _ draw.Image = &Gray{}

func convert(c color.Color, depth uint8) GrayN {
	top := uint32(1)<<depth - 1
	if g, ok := c.(GrayN); ok && g.Depth == depth {
		if uint32(g.Y) > top {
			g.Y = uint8(top)
		}
		return g
	}
	r, g, b, _ := c.RGBA()
	// Use the same coefficients than color.GrayModel.
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
	// Round to the nearest level.
	return GrayN{Y: uint8((y*top + 32767) / 65535), Depth: depth}
}
