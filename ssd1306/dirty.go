// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import "image"

// rect16 is a rectangle with inclusive bounds.
type rect16 struct {
	x1, y1, x2, y2 uint16
}

// emptyRect marks the absence of damage.
var emptyRect = rect16{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF}

// toRect16 converts a canonical non empty image.Rectangle with non negative
// coordinates.
func toRect16(r image.Rectangle) rect16 {
	return rect16{uint16(r.Min.X), uint16(r.Min.Y), uint16(r.Max.X - 1), uint16(r.Max.Y - 1)}
}

func (r rect16) image() image.Rectangle {
	return image.Rect(int(r.x1), int(r.y1), int(r.x2)+1, int(r.y2)+1)
}

func (r rect16) normalize() rect16 {
	if r.x1 > r.x2 {
		r.x1, r.x2 = r.x2, r.x1
	}
	if r.y1 > r.y2 {
		r.y1, r.y2 = r.y2, r.y1
	}
	return r
}

// crop returns the intersection of r and b. ok is false when they do not
// overlap.
func (r rect16) crop(b rect16) (rect16, bool) {
	if r.x1 > b.x2 || r.y1 > b.y2 || r.x2 < b.x1 || r.y2 < b.y1 {
		return emptyRect, false
	}
	return rect16{max(r.x1, b.x1), max(r.y1, b.y1), min(r.x2, b.x2), min(r.y2, b.y2)}, true
}

// pageAligned extends r vertically to whole 8 rows pages.
func (r rect16) pageAligned() rect16 {
	r.y1 &^= 7
	r.y2 |= 7
	return r
}

// dirtyRegion accumulates the bounding box of everything touched since the
// last reset. It never shrinks between resets.
type dirtyRegion struct {
	r rect16
}

func (d *dirtyRegion) isEmpty() bool {
	return d.r.x1 == 0xFFFF
}

func (d *dirtyRegion) reset() {
	d.r = emptyRect
}

func (d *dirtyRegion) expand(s rect16) {
	s = s.normalize()
	if d.isEmpty() {
		d.r = s
		return
	}
	d.r.x1 = min(d.r.x1, s.x1)
	d.r.y1 = min(d.r.y1, s.y1)
	d.r.x2 = max(d.r.x2, s.x2)
	d.r.y2 = max(d.r.y2, s.y2)
}
