// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import "fmt"

// panelConfig holds the values of the bring-up sequence that depend on the
// physical panel.
type panelConfig struct {
	comPins byte
	// contrast is indexed by ExternalVCC.
	contrast [2]byte
}

// panels lists the supported panel sizes.
var panels = map[[2]int]panelConfig{
	{128, 32}: {comPins: 0x02, contrast: [2]byte{0x8F, 0x8F}},
	{128, 64}: {comPins: 0x12, contrast: [2]byte{0xCF, 0x9F}},
	{96, 16}:  {comPins: 0x02, contrast: [2]byte{0xAF, 0x10}},
}

// getInitCmd returns the register configuration sent once by Init.
//
// It fails with ErrInvalidArgument when the panel size is not supported.
func getInitCmd(opts *Opts) ([]byte, error) {
	p, ok := panels[[2]int{opts.W, opts.H}]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported panel %dx%d", ErrInvalidArgument, opts.W, opts.H)
	}
	ext := 0
	chargePump := byte(0x14)
	preCharge := byte(0xF1)
	if opts.ExternalVCC {
		ext = 1
		chargePump = 0x10
		preCharge = 0x22
	}
	return []byte{
		_DISPLAYOFF,               // Display off
		_SETDISPLAYCLOCKDIV, 0x80, // Suggested ratio
		_SETMULTIPLEX, byte(opts.H - 1), // Number of lines to display
		_SETDISPLAYOFFSET, 0x00, // No offset
		_SETSTARTLINE | 0x00,    // Line #0
		_CHARGEPUMP, chargePump, // 0x14 enables the internal regulator
		_MEMORYMODE, 0x00, // Horizontal addressing
		_SETSEGMENTREMAP,      // Column 127 is SEG0
		_COMSCANDEC,           // Scan from COM[N-1] to COM0
		_SETCOMPINS, p.comPins, // COM pins hardware configuration
		_SETCONTRAST, p.contrast[ext],
		_SETPRECHARGE, preCharge,
		_SETVCOMDETECT, 0x40,
		_DISPLAYALLON_RESUME, // Use GDDRAM content
		_NORMALDISPLAY,
		_DEACTIVATE_SCROLL,
		_DISPLAYON,
	}, nil
}
