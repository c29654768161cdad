// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"github.com/GermanBionicSystems/oled/image1bit"
)

// pixelFunc reports whether the physical pixel at (x, y) is lit.
type pixelFunc func(x, y int) bool

// pixelSource selects how surface samples become bits.
func (d *Dev) pixelSource() pixelFunc {
	s := d.surface
	depth := s.Depth()
	if depth == 1 {
		return func(x, y int) bool {
			return s.Sample(x, y) != 0
		}
	}
	if d.dithering {
		m := d.matrix
		return func(x, y int) bool {
			return m.Decide(x, y, s.Luma(x, y))
		}
	}
	mid := uint8(1 << uint(depth-1))
	return func(x, y int) bool {
		return s.Sample(x, y) >= mid
	}
}

// flush sends the dirty region to the controller and resets it.
//
// It is a no-op before Init or when nothing visible changed.
func (d *Dev) flush() error {
	if d.state != ready || d.dirty.isEmpty() {
		return nil
	}
	r, ok := d.dirty.r.crop(d.physical)
	if !ok {
		d.dirty.reset()
		return nil
	}
	var err error
	if img, ok := d.surface.(*image1bit.VerticalLSB); ok && img.Rect == d.physical.image() {
		// Native 1 bit storage has the GDDRAM layout: fast path!
		d.buf, err = writeRegionPix(d, r, img, d.buf)
	} else {
		d.buf, err = writeRegion(d, r, d.pixelSource(), d.buf)
	}
	// The transport is not expected to recover from a failed transfer; the
	// region is dropped either way.
	d.dirty.reset()
	return err
}

// regionCmd returns the addressing command for a page aligned region.
//
// The page end is always 0xFF; the column end bounds the transfer and the
// controller wraps to the next page on its own.
func regionCmd(r rect16) []byte {
	return []byte{
		_PAGEADDR, byte(r.y1 / 8), 0xFF,
		_COLUMNADDR, byte(r.x1), byte(r.x2),
	}
}

// writeRegion page-aligns r and streams it, one byte per column per page, in
// the controller's horizontal addressing order: columns left to right within
// a page, pages top to bottom. Bit k of a byte is row page*8+k.
//
// buf is reused to build the payload and returned.
func writeRegion(ctrl controller, r rect16, lit pixelFunc, buf []byte) ([]byte, error) {
	r = r.pageAligned()
	if err := ctrl.sendCommand(regionCmd(r)); err != nil {
		return buf, err
	}
	buf = buf[:0]
	for y := int(r.y1); y <= int(r.y2); y += 8 {
		for x := int(r.x1); x <= int(r.x2); x++ {
			var b byte
			for k := 0; k < 8; k++ {
				if lit(x, y+k) {
					b |= 1 << uint(k)
				}
			}
			buf = append(buf, b)
		}
	}
	return buf, ctrl.sendData(buf)
}

// writeRegionPix is writeRegion for a surface already packed like GDDRAM.
func writeRegionPix(ctrl controller, r rect16, img *image1bit.VerticalLSB, buf []byte) ([]byte, error) {
	r = r.pageAligned()
	if err := ctrl.sendCommand(regionCmd(r)); err != nil {
		return buf, err
	}
	buf = buf[:0]
	bands := len(img.Pix) / max(img.Stride, 1)
	for page := int(r.y1) / 8; page <= int(r.y2)/8; page++ {
		if page >= bands {
			// Rows below the surface read as off.
			for x := int(r.x1); x <= int(r.x2); x++ {
				buf = append(buf, 0)
			}
			continue
		}
		row := img.Pix[page*img.Stride:]
		buf = append(buf, row[r.x1:int(r.x2)+1]...)
	}
	return buf, ctrl.sendData(buf)
}
