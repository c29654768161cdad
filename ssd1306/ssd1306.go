// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// https://hallard.me/adafruit-oled-display-driver-for-pi/
//
// https://learn.adafruit.com/ssd1306-oled-displays-with-raspberry-pi-and-beaglebone-black?view=all

import (
	"fmt"
	"image"
	"image/color"

	"github.com/GermanBionicSystems/oled/dither"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	_CHARGEPUMP          = 0x8D
	_COLUMNADDR          = 0x21
	_COMSCANDEC          = 0xC8
	_DEACTIVATE_SCROLL   = 0x2E
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_INVERTDISPLAY       = 0xA7
	_MEMORYMODE          = 0x20
	_NORMALDISPLAY       = 0xA6
	_PAGEADDR            = 0x22
	_SETCOMPINS          = 0xDA
	_SETCONTRAST         = 0x81
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETDISPLAYOFFSET    = 0xD3
	_SETMULTIPLEX        = 0xA8
	_SETPRECHARGE        = 0xD9
	_SETSEGMENTREMAP     = 0xA1
	_SETSTARTLINE        = 0x40
	_SETVCOMDETECT       = 0xDB
)

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:            128,
	H:            64,
	Rotation:     Rotate0,
	Addr:         0x3c,
	Depth:        1,
	SpeedPercent: 400,
}

// Opts defines the options for the device.
type Opts struct {
	// W and H are the panel dimensions, before rotation. Supported sizes are
	// 128x64, 128x32 and 96x16.
	W int
	H int
	// Rotation of the logical coordinates relative to the panel.
	Rotation Rotation
	// The I2C address of the display.
	Addr uint16
	// ExternalVCC is set when the panel is powered by an external supply
	// instead of the internal 3.3V charge pump.
	ExternalVCC bool
	// Depth is the number of bits per pixel of the surface, between 1 and 8.
	// Above 1, pixels are reduced to black and white at transmission time.
	Depth int
	// SpeedPercent scales the bus clock; 100 is 100kHz on I²C, 400 is I²C
	// fast mode and the maximum SPI clock.
	SpeedPercent int
	// Reset is the optional RES pin, pulsed by Reset().
	Reset gpio.PinOut
	// ResetBeforeInit pulses Reset during Init.
	ResetBeforeInit bool
	// Matrix is the dithering threshold matrix. Defaults to dither.Bayer16.
	Matrix *dither.Matrix
	// NewSurface allocates the surface. Defaults to NewSurface.
	NewSurface func(r image.Rectangle, depth int) (Surface, error)
}

// NewSPI returns a Dev object that communicates over SPI to a SSD1306 display
// controller.
//
// The SSD1306 can operate at up to 3.3Mhz, which is much higher than I²C. This
// permits higher refresh rates.
//
// # Wiring
//
// Connect SDA to SPI_MOSI, SCK to SPI_CLK, CS to SPI_CS.
//
// In 3-wire SPI mode, pass nil for 'dc'. In 4-wire SPI mode, pass a GPIO pin
// to use.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == gpio.INVALID {
		return nil, fmt.Errorf("ssd1306: use nil for dc to use 3-wire mode, do not use gpio.INVALID")
	}
	bits := 8
	if dc == nil {
		// 3-wire SPI uses 9 bits per word.
		bits = 9
	} else if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	o := withDefaults(opts)
	c, err := p.Connect(spiSpeed(o.SpeedPercent), spi.Mode0, bits)
	if err != nil {
		return nil, err
	}
	return newDev(c, o, true, dc, nil), nil
}

// NewI2C returns a Dev object that communicates over I²C to a SSD1306 display
// controller.
//
// The bus is not used before the first call to Init or to a drawing
// function.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	o := withDefaults(opts)
	return newDev(&i2c.Dev{Bus: b, Addr: o.Addr}, o, false, nil, b.SetSpeed), nil
}

type state int

const (
	uninitialized state = iota
	initializing
	ready
)

// Dev is an open handle to the display controller.
//
// It is not safe for concurrent use.
type Dev struct {
	// Communication
	c        conn.Conn
	dc       gpio.PinOut
	rst      gpio.PinOut
	spi      bool
	setSpeed func(physic.Frequency) error

	opts     Opts
	mapper   rotationMapper
	physical rect16
	matrix   *dither.Matrix

	// Mutable
	state     state
	surface   Surface
	dirty     dirtyRegion
	suspended int
	dithering bool
	halted    bool
	// stale is set when the controller RAM was lost while the surface was
	// kept.
	stale bool
	// buf is reused across transfers.
	buf []byte
}

func withDefaults(opts *Opts) Opts {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultOpts.Addr
	}
	if o.Depth == 0 {
		o.Depth = 1
	}
	if o.SpeedPercent <= 0 {
		o.SpeedPercent = DefaultOpts.SpeedPercent
	}
	if o.Matrix == nil {
		o.Matrix = &dither.Bayer16
	}
	if o.NewSurface == nil {
		o.NewSurface = NewSurface
	}
	return o
}

// newDev is the common initialization code that is independent of the
// communication protocol (I²C or SPI) being used.
func newDev(c conn.Conn, opts Opts, usingSPI bool, dc gpio.PinOut, setSpeed func(physic.Frequency) error) *Dev {
	d := &Dev{
		c:         c,
		dc:        dc,
		rst:       opts.Reset,
		spi:       usingSPI,
		setSpeed:  setSpeed,
		opts:      opts,
		mapper:    rotationMapper{rot: opts.Rotation, w: opts.W, h: opts.H},
		physical:  rect16{0, 0, uint16(max(opts.W-1, 0)), uint16(max(opts.H-1, 0))},
		matrix:    opts.Matrix,
		dithering: opts.Depth > 1,
	}
	d.dirty.reset()
	return d
}

func (d *Dev) String() string {
	if d.spi {
		return fmt.Sprintf("SSD1306.Dev{%s, %s, %s}", d.c, d.dc, d.Dimensions())
	}
	return fmt.Sprintf("SSD1306.Dev{%s, %s}", d.c, d.Dimensions())
}

// Initialized reports whether Init succeeded.
func (d *Dev) Initialized() bool {
	return d.state == ready
}

// Init brings up the controller. It is called implicitly by the drawing
// functions and is a no-op once it succeeded.
//
// On failure the device stays uninitialized and Init can be retried.
func (d *Dev) Init() error {
	if d.state == ready {
		return nil
	}
	d.state = initializing
	if err := d.init(); err != nil {
		d.state = uninitialized
		return err
	}
	d.state = ready
	return nil
}

func (d *Dev) init() error {
	if !d.opts.Rotation.valid() {
		return fmt.Errorf("%w: rotation %s", ErrInvalidArgument, d.opts.Rotation)
	}
	if d.opts.Depth < 1 || d.opts.Depth > 8 {
		return fmt.Errorf("%w: depth %d", ErrInvalidArgument, d.opts.Depth)
	}
	cmd, err := getInitCmd(&d.opts)
	if err != nil {
		return err
	}
	if d.surface == nil {
		s, err := d.opts.NewSurface(d.physical.image(), d.opts.Depth)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		if s == nil || s.Depth() != d.opts.Depth {
			return fmt.Errorf("%w: no surface of depth %d", ErrOutOfMemory, d.opts.Depth)
		}
		d.surface = s
	}
	if d.setSpeed != nil {
		if err := d.setSpeed(i2cSpeed(d.opts.SpeedPercent)); err != nil {
			return fmt.Errorf("%w: %w", ErrDevice, err)
		}
	}
	if d.opts.ResetBeforeInit {
		if err := d.Reset(); err != nil {
			return fmt.Errorf("%w: %w", ErrDevice, err)
		}
	}
	if err := d.sendCommand(cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}
	d.dirty.reset()
	if d.stale {
		d.dirty.expand(d.physical)
		d.stale = false
	}
	d.suspended = 0
	return nil
}

// Reset pulses the RES pin when one is configured.
//
// The controller loses its configuration and display RAM. The next drawing
// call or Init brings it up again and resends the whole surface.
func (d *Dev) Reset() error {
	if d.rst == nil {
		return nil
	}
	eh := errorHandler{d: d}
	eh.rstOut(gpio.High)
	eh.sleep(resetSetup)
	eh.rstOut(gpio.Low)
	eh.sleep(resetHold)
	eh.rstOut(gpio.High)
	if eh.err == nil && d.state == ready {
		// The next bring-up resends the whole surface.
		d.state = uninitialized
		d.stale = true
	}
	return eh.err
}

// ColorModel implements display.Drawer.
//
// It is image1bit.BitModel for a 1 bit surface and imagegray.Model(Depth)
// otherwise.
func (d *Dev) ColorModel() color.Model {
	return colorModel(d.opts.Depth)
}

// Dimensions returns the logical size, which has the width and height of the
// panel swapped when rotated by 90° or 270°.
func (d *Dev) Dimensions() image.Point {
	return d.mapper.logicalSize()
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: d.Dimensions()}
}

// Point returns the color at the logical point p.
//
// It fails with ErrInvalidState before Init.
func (d *Dev) Point(p image.Point) (color.Color, error) {
	if d.state != ready {
		return nil, ErrInvalidState
	}
	if !p.In(d.Bounds()) {
		return nil, fmt.Errorf("%w: point %s out of %s", ErrInvalidArgument, p, d.Bounds())
	}
	pp := d.mapper.toPhysical(p)
	return d.surface.At(pp.X, pp.Y), nil
}

// SetPoint sets the pixel at the logical point p.
//
// Points outside of Bounds() are silently ignored. The display is updated
// before returning unless suspended.
func (d *Dev) SetPoint(p image.Point, c color.Color) error {
	if err := d.Init(); err != nil {
		return err
	}
	if !p.In(d.Bounds()) {
		return nil
	}
	pp := d.mapper.toPhysical(p)
	d.surface.Set(pp.X, pp.Y, c)
	d.dirty.expand(rect16{uint16(pp.X), uint16(pp.Y), uint16(pp.X), uint16(pp.Y)})
	return d.update()
}

// Fill sets every pixel of the logical rectangle r to c.
//
// r is clipped to Bounds(); nothing happens when nothing is left.
func (d *Dev) Fill(r image.Rectangle, c color.Color) error {
	if err := d.Init(); err != nil {
		return err
	}
	r = r.Canon().Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	pr := d.mapper.toPhysicalRect(toRect16(r))
	d.surface.Fill(pr.image(), c)
	d.dirty.expand(pr)
	return d.update()
}

// Clear turns off every pixel of the logical rectangle r.
func (d *Dev) Clear(r image.Rectangle) error {
	return d.Fill(r, color.Black)
}

// Suspend defers display updates until the matching Resume.
//
// Calls nest.
func (d *Dev) Suspend() error {
	d.suspended++
	return nil
}

// Resume closes one Suspend. The outermost one, or any call with force set,
// sends everything modified since the first Suspend in a single transfer.
func (d *Dev) Resume(force bool) error {
	if d.suspended < 2 || force {
		d.suspended = 0
		return d.flush()
	}
	d.suspended--
	return nil
}

// Dithering reports whether gray levels are dithered. It is always false for
// a 1 bit surface.
func (d *Dev) Dithering() bool {
	return d.opts.Depth > 1 && d.dithering
}

// SetDithering enables or disables dithering. When disabled, pixels at or
// above half intensity are lit. It has no effect on a 1 bit surface.
//
// Already displayed pixels are not updated.
func (d *Dev) SetDithering(on bool) {
	if d.opts.Depth > 1 {
		d.dithering = on
	}
}

// Draw implements display.Drawer.
//
// r is in logical coordinates. It draws synchronously, once this function
// returns, the display is updated unless suspended.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if err := d.Init(); err != nil {
		return err
	}
	dst := r.Canon().Intersect(d.Bounds())
	if dst.Empty() {
		return nil
	}
	delta := sp.Sub(r.Min)
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		for x := dst.Min.X; x < dst.Max.X; x++ {
			pp := d.mapper.toPhysical(image.Point{X: x, Y: y})
			d.surface.Set(pp.X, pp.Y, src.At(x+delta.X, y+delta.Y))
		}
	}
	d.dirty.expand(d.mapper.toPhysicalRect(toRect16(dst)))
	return d.update()
}

// Halt turns off the display.
//
// Sending any other command afterward reenables the display.
func (d *Dev) Halt() error {
	if d.state != ready {
		return nil
	}
	d.halted = false
	err := d.sendCommand([]byte{_DISPLAYOFF})
	if err == nil {
		d.halted = true
	}
	return err
}

// Invert the display (black on white vs white on black).
func (d *Dev) Invert(blackOnWhite bool) error {
	if err := d.Init(); err != nil {
		return err
	}
	b := []byte{_NORMALDISPLAY}
	if blackOnWhite {
		b[0] = _INVERTDISPLAY
	}
	return d.sendCommand(b)
}

// SetContrast changes the screen contrast.
func (d *Dev) SetContrast(level byte) error {
	if err := d.Init(); err != nil {
		return err
	}
	return d.sendCommand([]byte{_SETCONTRAST, level})
}

// update flushes unless suspended.
func (d *Dev) update() error {
	if d.suspended != 0 {
		return nil
	}
	return d.flush()
}

var _ display.Drawer = &Dev{}
