// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dither

import (
	"image"
	"image/color"
	"image/draw"
)

// Size is the width and height of a Matrix.
const Size = 16

// Matrix is a Size×Size threshold table stored row major.
type Matrix [Size * Size]uint8

// Bayer16 is the 16×16 Bayer index matrix. Each value in [0, 255] appears
// exactly once.
var Bayer16 = Matrix{
	0, 128, 32, 160, 8, 136, 40, 168, 2, 130, 34, 162, 10, 138, 42, 170,
	192, 64, 224, 96, 200, 72, 232, 104, 194, 66, 226, 98, 202, 74, 234, 106,
	48, 176, 16, 144, 56, 184, 24, 152, 50, 178, 18, 146, 58, 186, 26, 154,
	240, 112, 208, 80, 248, 120, 216, 88, 242, 114, 210, 82, 250, 122, 218, 90,
	12, 140, 44, 172, 4, 132, 36, 164, 14, 142, 46, 174, 6, 134, 38, 166,
	204, 76, 236, 108, 196, 68, 228, 100, 206, 78, 238, 110, 198, 70, 230, 102,
	60, 188, 28, 156, 52, 180, 20, 148, 62, 190, 30, 158, 54, 182, 22, 150,
	252, 124, 220, 92, 244, 116, 212, 84, 254, 126, 222, 94, 246, 118, 214, 86,
	3, 131, 35, 163, 11, 139, 43, 171, 1, 129, 33, 161, 9, 137, 41, 169,
	195, 67, 227, 99, 203, 75, 235, 107, 193, 65, 225, 97, 201, 73, 233, 105,
	51, 179, 19, 147, 59, 187, 27, 155, 49, 177, 17, 145, 57, 185, 25, 153,
	243, 115, 211, 83, 251, 123, 219, 91, 241, 113, 209, 81, 249, 121, 217, 89,
	15, 143, 47, 175, 7, 135, 39, 167, 13, 141, 45, 173, 5, 133, 37, 165,
	207, 79, 239, 111, 199, 71, 231, 103, 205, 77, 237, 109, 197, 69, 229, 101,
	63, 191, 31, 159, 55, 183, 23, 151, 61, 189, 29, 157, 53, 181, 21, 149,
	255, 127, 223, 95, 247, 119, 215, 87, 253, 125, 221, 93, 245, 117, 213, 85,
}

// Threshold returns the threshold applied at (x, y).
func (m *Matrix) Threshold(x, y int) uint8 {
	return m[(x&(Size-1))+(y&(Size-1))*Size]
}

// Decide returns true when a pixel of luminance luma at (x, y) is lit.
//
// x and y are physical panel coordinates; negative values wrap like positive
// ones.
func (m *Matrix) Decide(x, y int, luma uint8) bool {
	return luma > m.Threshold(x, y)
}

// Luma returns the 8 bits luminance of c, using the same coefficients as
// color.GrayModel.
func Luma(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
}

// Ordered is a draw.Drawer that dithers the source through a Matrix and
// writes pure black or pure white to the destination.
//
// The matrix is anchored on the destination coordinates.
type Ordered struct {
	Matrix *Matrix
}

// Draw implements draw.Drawer.
func (o Ordered) Draw(dst draw.Image, r image.Rectangle, src image.Image, sp image.Point) {
	m := o.Matrix
	if m == nil {
		m = &Bayer16
	}
	// sp follows r.Min when r is clipped.
	delta := sp.Sub(r.Min)
	r = r.Intersect(dst.Bounds())
	srcR := src.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		sy := y + delta.Y
		for x := r.Min.X; x < r.Max.X; x++ {
			sx := x + delta.X
			if !(image.Point{X: sx, Y: sy}.In(srcR)) {
				continue
			}
			if m.Decide(x, y, Luma(src.At(sx, sy))) {
				dst.Set(x, y, color.White)
			} else {
				dst.Set(x, y, color.Black)
			}
		}
	}
}

var _ draw.Drawer = Ordered{}
