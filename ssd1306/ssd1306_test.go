// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/GermanBionicSystems/oled/imagegray"
	"github.com/GermanBionicSystems/oled/oledsim"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

var init128x64 = []byte{
	0xAE, 0xD5, 0x80, 0xA8, 63, 0xD3, 0x00, 0x40, 0x8D, 0x14, 0x20, 0x00,
	0xA1, 0xC8, 0xDA, 0x12, 0x81, 0xCF, 0xD9, 0xF1, 0xDB, 0x40, 0xA4, 0xA6,
	0x2E, 0xAF,
}

func cmdIO(b ...byte) i2ctest.IO {
	return i2ctest.IO{Addr: 0x3c, W: append([]byte{i2cCmd}, b...)}
}

func dataIO(b ...byte) i2ctest.IO {
	return i2ctest.IO{Addr: 0x3c, W: append([]byte{i2cData}, b...)}
}

func newI2C(t *testing.T, opts *Opts) (*Dev, *i2ctest.Record) {
	bus := &i2ctest.Record{}
	d, err := NewI2C(bus, opts)
	if err != nil {
		t.Fatal(err)
	}
	return d, bus
}

func newReady(t *testing.T, opts *Opts) (*Dev, *i2ctest.Record) {
	d, bus := newI2C(t, opts)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	bus.Ops = nil
	return d, bus
}

func diffOps(t *testing.T, got, want []i2ctest.IO) {
	t.Helper()
	if diff := cmp.Diff(got, want, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("bus difference (-got +want):\n%s", diff)
	}
}

func TestInit(t *testing.T) {
	d, bus := newI2C(t, nil)
	if d.Initialized() {
		t.Fatal("initialized before Init")
	}
	if len(bus.Ops) != 0 {
		t.Fatal("bus used before Init")
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	diffOps(t, bus.Ops, []i2ctest.IO{cmdIO(init128x64...)})
	// Idempotent.
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if len(bus.Ops) != 1 {
		t.Fatalf("Init sent %d transactions", len(bus.Ops))
	}
	if !strings.HasPrefix(d.String(), "SSD1306.Dev{record(60)") {
		t.Fatalf("String() = %q", d.String())
	}
}

func TestGetInitCmd(t *testing.T) {
	for _, tc := range []struct {
		name     string
		w, h     int
		ext      bool
		comPins  byte
		contrast byte
		charge   byte
		pre      byte
	}{
		{"128x32", 128, 32, false, 0x02, 0x8F, 0x14, 0xF1},
		{"128x32 ext", 128, 32, true, 0x02, 0x8F, 0x10, 0x22},
		{"128x64", 128, 64, false, 0x12, 0xCF, 0x14, 0xF1},
		{"128x64 ext", 128, 64, true, 0x12, 0x9F, 0x10, 0x22},
		{"96x16", 96, 16, false, 0x02, 0xAF, 0x14, 0xF1},
		{"96x16 ext", 96, 16, true, 0x02, 0x10, 0x10, 0x22},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := getInitCmd(&Opts{W: tc.w, H: tc.h, ExternalVCC: tc.ext})
			if err != nil {
				t.Fatal(err)
			}
			want := []byte{
				0xAE, 0xD5, 0x80, 0xA8, byte(tc.h - 1), 0xD3, 0x00, 0x40, 0x8D, tc.charge,
				0x20, 0x00, 0xA1, 0xC8, 0xDA, tc.comPins, 0x81, tc.contrast,
				0xD9, tc.pre, 0xDB, 0x40, 0xA4, 0xA6, 0x2E, 0xAF,
			}
			if diff := cmp.Diff(got, want); diff != "" {
				t.Fatalf("getInitCmd() difference (-got +want):\n%s", diff)
			}
		})
	}
}

type errBus struct {
	err error
}

func (e *errBus) String() string                   { return "errbus" }
func (e *errBus) Tx(addr uint16, w, r []byte) error { return e.err }
func (e *errBus) SetSpeed(f physic.Frequency) error { return nil }

func TestInitErrors(t *testing.T) {
	t.Run("unsupported size", func(t *testing.T) {
		d, bus := newI2C(t, &Opts{W: 64, H: 48})
		if err := d.Init(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("Init() = %v", err)
		}
		if len(bus.Ops) != 0 {
			t.Fatal("bus used for an invalid geometry")
		}
		if err := d.SetPoint(image.Point{}, image1bit.On); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("SetPoint() = %v", err)
		}
	})
	t.Run("rotation", func(t *testing.T) {
		d, _ := newI2C(t, &Opts{W: 128, H: 64, Rotation: 45})
		if err := d.Init(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("Init() = %v", err)
		}
	})
	t.Run("out of memory", func(t *testing.T) {
		opts := DefaultOpts
		opts.NewSurface = func(r image.Rectangle, depth int) (Surface, error) {
			return nil, errors.New("no")
		}
		d, bus := newI2C(t, &opts)
		if err := d.Init(); !errors.Is(err, ErrOutOfMemory) {
			t.Fatalf("Init() = %v", err)
		}
		if len(bus.Ops) != 0 {
			t.Fatal("bus used without a surface")
		}
	})
	t.Run("device error then retry", func(t *testing.T) {
		bus := &errBus{err: errors.New("nack")}
		d, err := NewI2C(bus, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := d.Init(); !errors.Is(err, ErrDevice) {
			t.Fatalf("Init() = %v", err)
		}
		if d.Initialized() {
			t.Fatal("initialized after failure")
		}
		bus.err = nil
		if err := d.Init(); err != nil {
			t.Fatal(err)
		}
		if !d.Initialized() {
			t.Fatal("not initialized after retry")
		}
	})
}

type recordPin struct {
	gpiotest.Pin
	levels []gpio.Level
}

func (p *recordPin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return p.Pin.Out(l)
}

func TestReset(t *testing.T) {
	var slept []time.Duration
	sleep = func(d time.Duration) { slept = append(slept, d) }
	defer func() { sleep = time.Sleep }()

	pin := &recordPin{}
	opts := DefaultOpts
	opts.Reset = pin
	opts.ResetBeforeInit = true
	d, bus := newI2C(t, &opts)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pin.levels, []gpio.Level{gpio.High, gpio.Low, gpio.High}); diff != "" {
		t.Fatalf("reset levels (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(slept, []time.Duration{time.Millisecond, 10 * time.Millisecond}); diff != "" {
		t.Fatalf("reset timings (-got +want):\n%s", diff)
	}
	diffOps(t, bus.Ops, []i2ctest.IO{cmdIO(init128x64...)})

	// An explicit reset requires a new bring-up.
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	if d.Initialized() {
		t.Fatal("still initialized after Reset")
	}

	// The next write brings the controller up and resends everything.
	bus.Ops = nil
	if err := d.SetPoint(image.Pt(5, 5), image1bit.On); err != nil {
		t.Fatal(err)
	}
	full := make([]byte, 128*64/8)
	full[5] = 0x20
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(init128x64...),
		cmdIO(0x22, 0, 0xFF, 0x21, 0, 127),
		dataIO(full...),
	})
	bus.Ops = nil
	if err := d.SetPoint(image.Pt(6, 5), image1bit.On); err != nil {
		t.Fatal(err)
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 0, 0xFF, 0x21, 6, 6),
		dataIO(0x20),
	})

	// No pin, no-op.
	d, _ = newI2C(t, nil)
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
}

func TestPointFlushesImmediately(t *testing.T) {
	d, bus := newI2C(t, nil)
	if err := d.SetPoint(image.Pt(5, 5), image1bit.On); err != nil {
		t.Fatal(err)
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(init128x64...),
		cmdIO(0x22, 0, 0xFF, 0x21, 5, 5),
		dataIO(0x20),
	})
	if !d.dirty.isEmpty() {
		t.Fatal("dirty region not reset after flush")
	}
	c, err := d.Point(image.Pt(5, 5))
	if err != nil {
		t.Fatal(err)
	}
	if c != image1bit.On {
		t.Fatalf("Point() = %v", c)
	}
}

func TestPointOutOfBounds(t *testing.T) {
	d, bus := newReady(t, nil)
	for _, p := range []image.Point{{-1, 0}, {128, 0}, {0, 64}, {0, -5}} {
		if err := d.SetPoint(p, image1bit.On); err != nil {
			t.Fatalf("SetPoint(%s) = %v", p, err)
		}
		if _, err := d.Point(p); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("Point(%s) = %v", p, err)
		}
	}
	if len(bus.Ops) != 0 {
		t.Fatal("out of bounds points were sent")
	}
}

func TestPointBeforeInit(t *testing.T) {
	d, _ := newI2C(t, nil)
	if _, err := d.Point(image.Point{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Point() = %v", err)
	}
}

func TestSuspendBatches(t *testing.T) {
	d, bus := newReady(t, nil)
	if err := d.Suspend(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []image.Point{{0, 0}, {10, 20}, {50, 60}} {
		if err := d.SetPoint(p, image1bit.On); err != nil {
			t.Fatal(err)
		}
	}
	if len(bus.Ops) != 0 {
		t.Fatal("flushed while suspended")
	}
	if got, want := d.dirty.r, (rect16{0, 0, 50, 60}); got != want {
		t.Fatalf("dirty = %+v, want %+v", got, want)
	}
	if err := d.Resume(false); err != nil {
		t.Fatal(err)
	}
	data := make([]byte, 8*51)
	data[0] = 0x01
	data[2*51+10] = 0x10
	data[7*51+50] = 0x10
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 0, 0xFF, 0x21, 0, 50),
		dataIO(data...),
	})
}

func TestResumeNesting(t *testing.T) {
	d, bus := newReady(t, nil)
	for i := 0; i < 3; i++ {
		_ = d.Suspend()
	}
	_ = d.SetPoint(image.Pt(1, 1), image1bit.On)
	for i := 0; i < 2; i++ {
		if err := d.Resume(false); err != nil {
			t.Fatal(err)
		}
		if len(bus.Ops) != 0 {
			t.Fatalf("inner Resume #%d flushed", i)
		}
	}
	if d.suspended != 1 {
		t.Fatalf("suspended = %d", d.suspended)
	}
	if err := d.Resume(false); err != nil {
		t.Fatal(err)
	}
	if len(bus.Ops) != 2 {
		t.Fatalf("outer Resume sent %d transactions", len(bus.Ops))
	}

	// Forced.
	bus.Ops = nil
	for i := 0; i < 4; i++ {
		_ = d.Suspend()
	}
	_ = d.SetPoint(image.Pt(2, 2), image1bit.On)
	if err := d.Resume(true); err != nil {
		t.Fatal(err)
	}
	if d.suspended != 0 {
		t.Fatalf("suspended = %d after forced Resume", d.suspended)
	}
	if len(bus.Ops) != 2 {
		t.Fatalf("forced Resume sent %d transactions", len(bus.Ops))
	}

	// Nothing to send.
	bus.Ops = nil
	_ = d.Suspend()
	if err := d.Resume(false); err != nil {
		t.Fatal(err)
	}
	if len(bus.Ops) != 0 {
		t.Fatal("empty Resume sent data")
	}
	// Unbalanced Resume is harmless.
	if err := d.Resume(false); err != nil {
		t.Fatal(err)
	}
}

func TestFill(t *testing.T) {
	d, bus := newReady(t, nil)
	if err := d.Fill(image.Rect(10, 3, 4, 12), image1bit.On); err != nil {
		t.Fatal(err)
	}
	// Rows 3..11 lit in columns 4..9: page 0 is 0xF8, page 1 is 0x0F.
	data := make([]byte, 12)
	for i := 0; i < 6; i++ {
		data[i] = 0xF8
		data[6+i] = 0x0F
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 0, 0xFF, 0x21, 4, 9),
		dataIO(data...),
	})

	bus.Ops = nil
	if err := d.Clear(image.Rect(-10, -10, 1000, 1000)); err != nil {
		t.Fatal(err)
	}
	if got := len(bus.Ops[1].W) - 1; got != 128*8 {
		t.Fatalf("full clear sent %d bytes", got)
	}
	for _, b := range bus.Ops[1].W[1:] {
		if b != 0 {
			t.Fatal("Clear left lit pixels")
		}
	}
}

func TestFillOutside(t *testing.T) {
	d, bus := newReady(t, nil)
	_ = d.Suspend()
	_ = d.SetPoint(image.Pt(3, 3), image1bit.On)
	before := d.dirty
	for _, r := range []image.Rectangle{
		image.Rect(200, 0, 300, 10),
		image.Rect(-20, -20, -1, -1),
		image.Rect(0, 64, 128, 70),
		{},
	} {
		if err := d.Fill(r, image1bit.On); err != nil {
			t.Fatal(err)
		}
		if d.dirty != before {
			t.Fatalf("Fill(%s) changed the dirty region", r)
		}
	}
	_ = d.Resume(false)
	if len(bus.Ops) != 2 {
		t.Fatalf("got %d transactions", len(bus.Ops))
	}
}

func TestDirtyUnionWhileSuspended(t *testing.T) {
	d, _ := newReady(t, &Opts{W: 128, H: 64, Rotation: Rotate270})
	_ = d.Suspend()
	var want dirtyRegion
	want.reset()
	seed := uint32(1)
	next := func(n int) int {
		seed = seed*1664525 + 1013904223
		return int(seed>>16) % n
	}
	for i := 0; i < 50; i++ {
		r := image.Rect(next(64), next(128), next(64), next(128))
		if err := d.Fill(r, image1bit.On); err != nil {
			t.Fatal(err)
		}
		if c := r.Canon(); !c.Empty() {
			want.expand(d.mapper.toPhysicalRect(toRect16(c)))
		}
		if d.dirty != want {
			t.Fatalf("step %d: dirty = %+v, want %+v", i, d.dirty.r, want.r)
		}
	}
}

func TestRotation180(t *testing.T) {
	d, bus := newReady(t, &Opts{W: 128, H: 64, Rotation: Rotate180})
	if err := d.SetPoint(image.Pt(0, 0), image1bit.On); err != nil {
		t.Fatal(err)
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 7, 0xFF, 0x21, 127, 127),
		dataIO(0x80),
	})
}

func TestDimensions(t *testing.T) {
	for _, tc := range []struct {
		opts Opts
		want image.Point
	}{
		{Opts{W: 128, H: 32, Rotation: Rotate90}, image.Pt(32, 128)},
		{Opts{W: 128, H: 32, Rotation: Rotate270}, image.Pt(32, 128)},
		{Opts{W: 128, H: 32, Rotation: Rotate180}, image.Pt(128, 32)},
		{Opts{W: 96, H: 16}, image.Pt(96, 16)},
	} {
		d, _ := newI2C(t, &tc.opts)
		if got := d.Dimensions(); got != tc.want {
			t.Errorf("%s: Dimensions() = %s, want %s", tc.opts.Rotation, got, tc.want)
		}
		if got := d.Bounds(); got != (image.Rectangle{Max: tc.want}) {
			t.Errorf("%s: Bounds() = %s", tc.opts.Rotation, got)
		}
	}
}

func TestRotation90Fill(t *testing.T) {
	d, bus := newReady(t, &Opts{W: 128, H: 32, Rotation: Rotate90})
	// Logical column 3, rows 10..19 is physical row 3, columns 10..19.
	if err := d.Fill(image.Rect(3, 10, 4, 20), image1bit.On); err != nil {
		t.Fatal(err)
	}
	data := make([]byte, 10)
	for i := range data {
		data[i] = 0x08
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 0, 0xFF, 0x21, 10, 19),
		dataIO(data...),
	})
}

func TestDithering(t *testing.T) {
	d, _ := newI2C(t, nil)
	if d.Dithering() {
		t.Fatal("1 bit surface reports dithering")
	}
	d.SetDithering(true)
	if d.Dithering() {
		t.Fatal("SetDithering took effect on a 1 bit surface")
	}

	d, bus := newReady(t, &Opts{W: 128, H: 64, Depth: 4})
	if !d.Dithering() {
		t.Fatal("dithering disabled by default on a gray surface")
	}
	if _, ok := d.surface.(*imagegray.Gray); !ok {
		t.Fatalf("surface is %T", d.surface)
	}
	// Full white lights every pixel of the first page, the only threshold
	// equal to 255 is on row 15.
	if err := d.Fill(image.Rect(0, 0, 16, 8), color.White); err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 16)
	for i := range want {
		want[i] = 0xFF
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 0, 0xFF, 0x21, 0, 15),
		dataIO(want...),
	})

	// Mid gray is dithered through the matrix.
	bus.Ops = nil
	mid := imagegray.GrayN{Y: 8, Depth: 4}
	if err := d.Fill(image.Rect(0, 0, 16, 8), mid); err != nil {
		t.Fatal(err)
	}
	luma := uint8(8 * 255 / 15)
	for x := 0; x < 16; x++ {
		var b byte
		for k := 0; k < 8; k++ {
			if d.matrix.Decide(x, k, luma) {
				b |= 1 << uint(k)
			}
		}
		want[x] = b
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 0, 0xFF, 0x21, 0, 15),
		dataIO(want...),
	})
	if want[0] == 0 || want[0] == 0xFF {
		t.Fatalf("mid gray was not dithered: %#x", want[0])
	}

	// Without dithering it is a plain threshold at half intensity.
	d.SetDithering(false)
	if d.Dithering() {
		t.Fatal("SetDithering(false) ignored")
	}
	bus.Ops = nil
	_ = d.Suspend()
	_ = d.Fill(image.Rect(0, 0, 8, 8), mid)
	_ = d.Fill(image.Rect(8, 0, 16, 8), imagegray.GrayN{Y: 7, Depth: 4})
	_ = d.Resume(false)
	for i := range want {
		want[i] = 0
		if i < 8 {
			want[i] = 0xFF
		}
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0x22, 0, 0xFF, 0x21, 0, 15),
		dataIO(want...),
	})
}

func TestDraw(t *testing.T) {
	d, bus := newI2C(t, &Opts{W: 96, H: 16})
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(1, 1, color.Gray{Y: 255})
	// Only the first 2x2 of the source lands on the display at (94, 14).
	if err := d.Draw(image.Rect(94, 14, 98, 18), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	ops := bus.Ops[1:]
	diffOps(t, ops, []i2ctest.IO{
		cmdIO(0x22, 1, 0xFF, 0x21, 94, 95),
		dataIO(0x00, 0x80),
	})
}

func TestHalt(t *testing.T) {
	d, bus := newI2C(t, nil)
	// Not initialized, nothing to do.
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if len(bus.Ops) != 0 {
		t.Fatal("Halt used the bus before Init")
	}
	_ = d.Init()
	bus.Ops = nil
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetPoint(image.Pt(0, 0), image1bit.On); err != nil {
		t.Fatal(err)
	}
	diffOps(t, bus.Ops, []i2ctest.IO{
		cmdIO(0xAE),
		cmdIO(0xAF, 0x22, 0, 0xFF, 0x21, 0, 0),
		dataIO(0x01),
	})
}

func TestInvertContrast(t *testing.T) {
	d, bus := newReady(t, nil)
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	if err := d.SetContrast(0x42); err != nil {
		t.Fatal(err)
	}
	diffOps(t, bus.Ops, []i2ctest.IO{cmdIO(0xA7), cmdIO(0xA6), cmdIO(0x81, 0x42)})
}

func TestSpeed(t *testing.T) {
	for _, tc := range []struct {
		percent int
		i2c     physic.Frequency
		spi     physic.Frequency
	}{
		{100, 100 * physic.KiloHertz, 825 * physic.KiloHertz},
		{400, 400 * physic.KiloHertz, 3300 * physic.KiloHertz},
		{1000, 1 * physic.MegaHertz, 3300 * physic.KiloHertz},
	} {
		if got := i2cSpeed(tc.percent); got != tc.i2c {
			t.Errorf("i2cSpeed(%d) = %s, want %s", tc.percent, got, tc.i2c)
		}
		if got := spiSpeed(tc.percent); got != tc.spi {
			t.Errorf("spiSpeed(%d) = %s, want %s", tc.percent, got, tc.spi)
		}
	}
}

func TestNewSPI(t *testing.T) {
	port := &spitest.Record{}
	dc := &recordPin{}
	d, err := NewSPI(port, dc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetPoint(image.Pt(127, 63), image1bit.On); err != nil {
		t.Fatal(err)
	}
	if len(port.Ops) != 3 {
		t.Fatalf("got %d transactions", len(port.Ops))
	}
	if diff := cmp.Diff(port.Ops[0].W, init128x64); diff != "" {
		t.Fatalf("init difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(port.Ops[1].W, []byte{0x22, 7, 0xFF, 0x21, 127, 127}); diff != "" {
		t.Fatalf("addressing difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(port.Ops[2].W, []byte{0x80}); diff != "" {
		t.Fatalf("data difference (-got +want):\n%s", diff)
	}
	// Constructor, init command, addressing command, data.
	want := []gpio.Level{gpio.Low, gpio.Low, gpio.Low, gpio.High}
	if diff := cmp.Diff(dc.levels, want); diff != "" {
		t.Fatalf("dc levels (-got +want):\n%s", diff)
	}

	if _, err := NewSPI(&spitest.Record{}, gpio.INVALID, nil); err == nil {
		t.Fatal("gpio.INVALID accepted for dc")
	}
}

func TestEmulatorRoundTrip(t *testing.T) {
	for _, opts := range []Opts{
		{W: 128, H: 64},
		{W: 128, H: 32, Rotation: Rotate90},
		{W: 96, H: 16, Rotation: Rotate180, Depth: 4},
		{W: 128, H: 64, Rotation: Rotate270, Depth: 8},
	} {
		t.Run(fmt.Sprintf("%dx%d %s depth %d", opts.W, opts.H, opts.Rotation, opts.Depth), func(t *testing.T) {
			sim := oledsim.New(&oledsim.Opts{W: opts.W, H: opts.H, Out: io.Discard})
			d, err := NewI2C(sim, &opts)
			if err != nil {
				t.Fatal(err)
			}
			size := d.Dimensions()
			seed := uint32(7)
			next := func(n int) int {
				seed = seed*1664525 + 1013904223
				return int(seed>>16) % n
			}
			for round := 0; round < 4; round++ {
				_ = d.Suspend()
				for i := 0; i < 20; i++ {
					c := color.Gray{Y: uint8(next(256))}
					if i%3 == 0 {
						err = d.SetPoint(image.Pt(next(size.X), next(size.Y)), c)
					} else {
						err = d.Fill(image.Rect(next(size.X), next(size.Y), next(size.X), next(size.Y)), c)
					}
					if err != nil {
						t.Fatal(err)
					}
				}
				if err := d.Resume(false); err != nil {
					t.Fatal(err)
				}
				lit := d.pixelSource()
				for y := 0; y < opts.H; y++ {
					for x := 0; x < opts.W; x++ {
						if got, want := sim.Bit(x, y) == image1bit.On, lit(x, y); got != want {
							t.Fatalf("round %d: pixel (%d, %d) = %t, want %t", round, x, y, got, want)
						}
					}
				}
			}
		})
	}
}
