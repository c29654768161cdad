// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"image"
	"strconv"
)

// Rotation is the orientation of the logical coordinate space relative to
// the panel memory.
type Rotation int

// Supported rotations.
const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

func (r Rotation) String() string {
	return strconv.Itoa(int(r)) + "°"
}

func (r Rotation) valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// swapsAxes reports whether the logical width is the panel height.
func (r Rotation) swapsAxes() bool {
	return r == Rotate90 || r == Rotate270
}

// rotationMapper converts between logical and physical coordinates.
//
// The perpendicular rotations both transpose the axes, so every mapping is
// its own inverse and toPhysical also converts back to logical coordinates.
//
// w and h are always the panel (physical) dimensions; reflections are done
// against them and never against the logical ones.
type rotationMapper struct {
	rot  Rotation
	w, h int
}

func (m rotationMapper) logicalSize() image.Point {
	if m.rot.swapsAxes() {
		return image.Point{X: m.h, Y: m.w}
	}
	return image.Point{X: m.w, Y: m.h}
}

func (m rotationMapper) toPhysical(p image.Point) image.Point {
	switch m.rot {
	case Rotate90, Rotate270:
		return image.Point{X: p.Y, Y: p.X}
	case Rotate180:
		return image.Point{X: m.w - 1 - p.X, Y: m.h - 1 - p.Y}
	default:
		return p
	}
}

// toPhysicalRect maps both corners then normalizes, as reflections invert
// the corner order.
func (m rotationMapper) toPhysicalRect(r rect16) rect16 {
	a := m.toPhysical(image.Point{X: int(r.x1), Y: int(r.y1)})
	b := m.toPhysical(image.Point{X: int(r.x2), Y: int(r.y2)})
	return rect16{uint16(a.X), uint16(a.Y), uint16(b.X), uint16(b.Y)}.normalize()
}
