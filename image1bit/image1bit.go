// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package image1bit implements black and white (1 bit per pixel) 2D graphics.
//
// It is compatible with package image/draw.
//
// VerticalLSB is the only bit packing implemented as it is used by the
// ssd1306. Others would be VerticalMSB, HorizontalLSB and HorizontalMSB.
package image1bit

import (
	"image"
	"image/color"
	"image/draw"
)

// Bit implements a 1 bit color.
type Bit bool

// RGBA returns either all white or all black.
//
// Technically the monochrome display could be colored but this information is
// unavailable here. To use a colored display, use the 1 bit image as a mask
// for a color.
func (b Bit) RGBA() (uint32, uint32, uint32, uint32) {
	if b {
		return 65535, 65535, 65535, 65535
	}
	return 0, 0, 0, 65535
}

func (b Bit) String() string {
	if b {
		return "On"
	}
	return "Off"
}

// Possible bitness.
const (
	On  = Bit(true)
	Off = Bit(false)
)

// BitModel is the color Model for 1 bit color.
var BitModel = color.ModelFunc(convert)

// VerticalLSB is a 1 bit (black and white) image.
//
// Each byte is 8 vertical pixels. Each stride is an horizontal band of 8
// pixels high with LSB first. So the first byte represent the following
// pixels, with lowest bit being the top left pixel.
//
//	0 x x x x x x x
//	1 x x x x x x x
//	2 x x x x x x x
//	3 x x x x x x x
//	4 x x x x x x x
//	5 x x x x x x x
//	6 x x x x x x x
//	7 x x x x x x x
//
// It is designed specifically to work with SSD1306 OLED display controller.
type VerticalLSB struct {
	// Pix holds the image's pixels, as vertically LSB-first packed bitmap. It
	// is laid out exactly like the SSD1306 GDDRAM in horizontal addressing
	// mode.
	Pix []byte
	// Stride is the Pix stride (in bytes) between vertically adjacent 8 pixels
	// horizontal bands.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

// NewVerticalLSB returns an initialized VerticalLSB instance.
func NewVerticalLSB(r image.Rectangle) *VerticalLSB {
	w := r.Dx()
	// Round down.
	minY := r.Min.Y &^ 7
	// Round up.
	maxY := (r.Max.Y + 7) &^ 7
	bands := (maxY - minY) / 8
	return &VerticalLSB{Pix: make([]byte, w*bands), Stride: w, Rect: r}
}

// ColorModel implements image.Image.
func (i *VerticalLSB) ColorModel() color.Model {
	return BitModel
}

// Bounds implements image.Image.
func (i *VerticalLSB) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *VerticalLSB) At(x, y int) color.Color {
	return i.BitAt(x, y)
}

// BitAt is the optimized version of At().
func (i *VerticalLSB) BitAt(x, y int) Bit {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return Off
	}
	offset, mask := i.PixOffset(x, y)
	return Bit(i.Pix[offset]&mask != 0)
}

// Opaque scans the entire image and reports whether it is fully opaque.
func (i *VerticalLSB) Opaque() bool {
	return true
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y) and the bit mask.
func (i *VerticalLSB) PixOffset(x, y int) (int, byte) {
	// Adjust band.
	minY := i.Rect.Min.Y &^ 7
	pY := y - minY
	offset := pY/8*i.Stride + (x - i.Rect.Min.X)
	return offset, byte(1 << uint(pY&7))
}

// Set implements draw.Image
func (i *VerticalLSB) Set(x, y int, c color.Color) {
	i.SetBit(x, y, convertBit(c))
}

// SetBit is the optimized version of Set().
func (i *VerticalLSB) SetBit(x, y int, b Bit) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	offset, mask := i.PixOffset(x, y)
	if b {
		i.Pix[offset] |= mask
	} else {
		i.Pix[offset] &^= mask
	}
}

// Depth returns the number of bits stored per pixel.
func (i *VerticalLSB) Depth() int {
	return 1
}

// Sample returns the native value of the pixel at (x, y), 0 or 1.
func (i *VerticalLSB) Sample(x, y int) uint8 {
	if i.BitAt(x, y) {
		return 1
	}
	return 0
}

// Luma returns the pixel at (x, y) scaled to 8 bits, 0 or 255.
func (i *VerticalLSB) Luma(x, y int) uint8 {
	if i.BitAt(x, y) {
		return 255
	}
	return 0
}

// Fill sets every pixel of r that lies in the image to c.
func (i *VerticalLSB) Fill(r image.Rectangle, c color.Color) {
	r = r.Intersect(i.Rect)
	if r.Empty() {
		return
	}
	b := convertBit(c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i.SetBit(x, y, b)
		}
	}
}

// DrawHLine draws an horizontal line from x1 (included) to x2 (excluded).
func (i *VerticalLSB) DrawHLine(x1, x2, y int, b Bit) {
	i.Fill(image.Rect(x1, y, x2, y+1), b)
}

// DrawVLine draws a vertical line from y1 (included) to y2 (excluded).
func (i *VerticalLSB) DrawVLine(y1, y2, x int, b Bit) {
	i.Fill(image.Rect(x, y1, x+1, y2), b)
}

//

var _ draw.Image = &VerticalLSB{}

func convert(c color.Color) color.Color {
	return convertBit(c)
}

// convertBit turns on anything at or above half luminance.
func convertBit(c color.Color) Bit {
	switch t := c.(type) {
	case Bit:
		return t
	default:
		r, g, b, _ := c.RGBA()
		// Use the same coefficients than color.GrayModel.
		y := (19595*r + 38470*g + 7471*b + 1<<15) >> 24
		return Bit(y >= 128)
	}
}
