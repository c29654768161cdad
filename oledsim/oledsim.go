// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oledsim implements an SSD1306 controller behind an i2c.Bus, so a
// display can be driven without hardware.
//
// The emulated controller decodes the command and data streams into its
// display RAM and renders the visible area to a terminal (stdout by default)
// using ANSI color codes. It also streams it to web browsers as an HTTP
// handler.
package oledsim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// The controller RAM size, independent of the panel.
const (
	ramWidth  = 128
	ramHeight = 64
	ramPages  = ramHeight / 8
)

const (
	ctrlCmd  = 0x00
	ctrlData = 0x40
)

// argCount is the number of parameter bytes following each command opcode
// that takes any.
var argCount = map[byte]int{
	0x20: 1, // Memory addressing mode
	0x21: 2, // Column address
	0x22: 2, // Page address
	0x26: 6, // Horizontal scroll setup
	0x27: 6,
	0x29: 5, // Vertical and horizontal scroll setup
	0x2A: 5,
	0x81: 1, // Contrast
	0x8D: 1, // Charge pump
	0xA3: 2, // Vertical scroll area
	0xA8: 1, // Multiplex ratio
	0xD3: 1, // Display offset
	0xD5: 1, // Clock divide
	0xD9: 1, // Precharge
	0xDA: 1, // COM pins
	0xDB: 1, // VCOMH deselect level
}

// Opts represents the options available for the emulator.
type Opts struct {
	// W and H are the visible panel dimensions. Defaults to 128x64.
	W, H int
	// Addr is the I²C address the controller answers to. Defaults to 0x3c.
	Addr uint16
	// Out receives the rendering. Defaults to a colorable stdout.
	Out io.Writer
	// Live renders after every data transaction.
	Live    bool
	Palette *ansi256.Palette
	// Format is the default image format streamed over HTTP.
	Format ImageFormat
	// Scale is the size of a pixel in streamed frames. Defaults to 4.
	Scale int

	_ struct{}
}

// Dev is an emulated SSD1306 controller. It implements i2c.Bus.
//
// It is safe for concurrent use.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	live    bool
	palette ansi256.Palette
	addr    uint16
	width   int
	height  int

	ram     *image1bit.VerticalLSB
	speed   physic.Frequency
	pending []byte

	on       bool
	inverted bool
	contrast byte
	mode     byte
	segRemap bool
	comScan  bool

	colStart, colEnd   int
	pageStart, pageEnd int
	col, page          int

	frames int
	buf    bytes.Buffer

	format   ImageFormat
	scale    int
	clients  map[*client]struct{}
	snapshot map[ImageFormat][]byte
}

// New returns a powered off controller with cleared RAM.
func New(opts *Opts) *Dev {
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.W <= 0 || o.W > ramWidth {
		o.W = ramWidth
	}
	if o.H <= 0 || o.H > ramHeight {
		o.H = ramHeight
	}
	if o.Addr == 0 {
		o.Addr = 0x3c
	}
	if o.Out == nil {
		o.Out = colorable.NewColorableStdout()
	}
	if o.Scale <= 0 {
		o.Scale = 4
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Dev{
		w:        o.Out,
		live:     o.Live,
		palette:  *p,
		addr:     o.Addr,
		width:    o.W,
		height:   o.H,
		ram:      image1bit.NewVerticalLSB(image.Rect(0, 0, ramWidth, ramHeight)),
		contrast: 0x7F,
		mode:     0x02,
		colEnd:   ramWidth - 1,
		pageEnd:  ramPages - 1,
		format:   o.Format,
		scale:    o.Scale,
		clients:  map[*client]struct{}{},
		snapshot: map[ImageFormat][]byte{},
	}
}

func (d *Dev) String() string {
	return "oledsim"
}

// SetSpeed implements i2c.Bus.
func (d *Dev) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("oledsim: invalid speed %s", f)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = f
	return nil
}

// Speed returns the last speed set.
func (d *Dev) Speed() physic.Frequency {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

// Tx implements i2c.Bus.
//
// The first byte written is the control byte, 0x00 for a command stream or
// 0x40 for a data stream. Reads are not supported.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	if addr != d.addr {
		return fmt.Errorf("oledsim: no device at address %#x", addr)
	}
	if len(r) != 0 {
		return errors.New("oledsim: read is not supported")
	}
	if len(w) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	switch w[0] {
	case ctrlCmd:
		d.commands(w[1:])
		d.changedLocked()
		return nil
	case ctrlData:
		if err := d.data(w[1:]); err != nil {
			return err
		}
		d.changedLocked()
		if d.live {
			return d.render()
		}
		return nil
	default:
		return fmt.Errorf("oledsim: unsupported control byte %#x", w[0])
	}
}

// commands decodes a command stream. A command may be split across
// transactions.
func (d *Dev) commands(b []byte) {
	d.pending = append(d.pending, b...)
	for len(d.pending) != 0 {
		n := 1 + argCount[d.pending[0]]
		if len(d.pending) < n {
			return
		}
		d.exec(d.pending[0], d.pending[1:n])
		d.pending = d.pending[n:]
	}
	d.pending = d.pending[:0]
}

func (d *Dev) exec(op byte, args []byte) {
	switch op {
	case 0xAE:
		d.on = false
	case 0xAF:
		d.on = true
	case 0xA6:
		d.inverted = false
	case 0xA7:
		d.inverted = true
	case 0xA0:
		d.segRemap = false
	case 0xA1:
		d.segRemap = true
	case 0xC0:
		d.comScan = false
	case 0xC8:
		d.comScan = true
	case 0x81:
		d.contrast = args[0]
	case 0x20:
		d.mode = args[0] & 3
	case 0x21:
		d.colStart = int(args[0] & 0x7F)
		d.colEnd = int(args[1] & 0x7F)
		d.col = d.colStart
	case 0x22:
		d.pageStart = int(args[0] & 7)
		d.pageEnd = int(args[1] & 7)
		d.page = d.pageStart
	}
}

// data writes into RAM at the address pointer, advancing it in horizontal
// addressing order within the current window.
func (d *Dev) data(b []byte) error {
	if d.mode != 0 {
		return fmt.Errorf("oledsim: addressing mode %d is not supported", d.mode)
	}
	for _, v := range b {
		d.ram.Pix[d.page*d.ram.Stride+d.col] = v
		if d.col++; d.col > d.colEnd {
			d.col = d.colStart
			if d.page++; d.page > d.pageEnd {
				d.page = d.pageStart
			}
		}
	}
	return nil
}

// Bit returns the RAM content at column x, row y.
func (d *Dev) Bit(x, y int) image1bit.Bit {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ram.BitAt(x, y)
}

// GDDRAM returns a copy of the controller RAM, 128x64.
func (d *Dev) GDDRAM() *image1bit.VerticalLSB {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *d.ram
	c.Pix = append([]byte(nil), d.ram.Pix...)
	return &c
}

// On reports whether the display is turned on.
func (d *Dev) On() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on
}

// Inverted reports whether the display shows black on white.
func (d *Dev) Inverted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inverted
}

// Contrast returns the current contrast level.
func (d *Dev) Contrast() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contrast
}

// Render writes the visible area to the output.
func (d *Dev) Render() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.render()
}

// Halt clears the terminal colors so it is not corrupted and ends the HTTP
// streams.
func (d *Dev) Halt() error {
	_ = d.Close()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// pixel returns the panel pixel at (x, y), as seen by the viewer.
func (d *Dev) pixel(x, y int) bool {
	if !d.segRemap {
		x = d.width - 1 - x
	}
	if !d.comScan {
		y = d.height - 1 - y
	}
	return d.ram.BitAt(x, y) == image1bit.On
}

func (d *Dev) render() error {
	d.buf.Reset()
	if d.frames != 0 {
		// Redraw in place.
		fmt.Fprintf(&d.buf, "\033[%dA", d.height)
	}
	v := d.litLevel()
	lit := color.NRGBA{v, v, v, 255}
	dark := color.NRGBA{0, 0, 0, 255}
	for y := 0; y < d.height; y++ {
		_, _ = d.buf.WriteString("\r\033[0m")
		for x := 0; x < d.width; x++ {
			c := dark
			if d.on && d.pixel(x, y) != d.inverted {
				c = lit
			}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.frames++
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ i2c.Bus = &Dev{}
var _ fmt.Stringer = &Dev{}
