// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	i2cCmd  = 0x00 // I²C transaction has stream of command bytes
	i2cData = 0x40 // I²C transaction has stream of data bytes
)

// Bus speeds at SpeedPercent 100. 400% is I²C fast mode and the SPI maximum
// of the SSD1306.
const (
	i2cBaseSpeed = 100 * physic.KiloHertz
	spiBaseSpeed = 825 * physic.KiloHertz
	spiMaxSpeed  = 3300 * physic.KiloHertz
)

// Reset pulse timings.
const (
	resetSetup = time.Millisecond
	resetHold  = 10 * time.Millisecond
)

// sleep is replaced in tests.
var sleep = time.Sleep

func i2cSpeed(percent int) physic.Frequency {
	return i2cBaseSpeed * physic.Frequency(percent) / 100
}

func spiSpeed(percent int) physic.Frequency {
	if f := spiBaseSpeed * physic.Frequency(percent) / 100; f < spiMaxSpeed {
		return f
	}
	return spiMaxSpeed
}

// controller is the command/data capability the serializer needs.
type controller interface {
	sendCommand(c []byte) error
	sendData(d []byte) error
}

// errorHandler latches the first error of a sequence of bus operations.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) sleep(t time.Duration) {
	if eh.err != nil {
		return
	}
	sleep(t)
}

func (d *Dev) sendData(c []byte) error {
	if d.halted {
		// Transparently enable the display.
		if err := d.sendCommand(nil); err != nil {
			return err
		}
	}
	if d.spi {
		// 4-wire SPI.
		if err := d.dc.Out(gpio.High); err != nil {
			return err
		}
	}
	for chunk := d.maxTxSize(); len(c) != 0; {
		n := len(c)
		if chunk > 0 && n > chunk {
			n = chunk
		}
		var err error
		if d.spi {
			err = d.c.Tx(c[:n], nil)
		} else {
			err = d.c.Tx(append([]byte{i2cData}, c[:n]...), nil)
		}
		if err != nil {
			return err
		}
		c = c[n:]
	}
	return nil
}

func (d *Dev) sendCommand(c []byte) error {
	if d.halted {
		// Transparently enable the display.
		c = append([]byte{_DISPLAYON}, c...)
		d.halted = false
	}
	if d.spi {
		if d.dc == nil {
			// 3-wire SPI.
			return fmt.Errorf("ssd1306: 3-wire SPI mode is not yet implemented")
		}
		// 4-wire SPI.
		if err := d.dc.Out(gpio.Low); err != nil {
			return err
		}
		return d.c.Tx(c, nil)
	}
	return d.c.Tx(append([]byte{i2cCmd}, c...), nil)
}

// maxTxSize returns the largest payload accepted in one transaction, or 0
// when unbounded. One byte is kept for the I²C control byte.
func (d *Dev) maxTxSize() int {
	l, ok := d.c.(conn.Limits)
	if !ok {
		return 0
	}
	n := l.MaxTxSize()
	if n <= 0 {
		return 0
	}
	if !d.spi && n > 1 {
		n--
	}
	return n
}

var _ controller = &Dev{}
