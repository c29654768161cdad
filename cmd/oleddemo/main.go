// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// oleddemo draws a test scene on a SSD1306 display.
//
// With -sim, the controller is emulated and rendered on the terminal, and
// with -http streamed to a web browser.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/oled/dither"
	"github.com/GermanBionicSystems/oled/image1bit"
	"github.com/GermanBionicSystems/oled/oledsim"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

func mainImpl() error {
	i2cID := flag.String("i2c", "", "I²C bus to use")
	spiID := flag.String("spi", "", "SPI port to use, enables SPI")
	dcName := flag.String("dc", "", "D/C pin for 4-wire SPI")
	rstName := flag.String("rst", "", "RES pin, pulsed before init")
	addr := flag.Uint("addr", 0x3c, "I²C address")
	w := flag.Int("w", 128, "panel width")
	h := flag.Int("h", 64, "panel height")
	rotation := flag.Int("r", 0, "rotation in degrees: 0, 90, 180 or 270")
	depth := flag.Int("depth", 1, "surface depth in bits, 1 to 8")
	noDither := flag.Bool("nodither", false, "threshold gray levels instead of dithering")
	ext := flag.Bool("extvcc", false, "panel powered by an external supply")
	speed := flag.Int("speed", ssd1306.DefaultOpts.SpeedPercent, "bus speed in percent of the base speed")
	sim := flag.Bool("sim", false, "emulate the display on the terminal")
	httpAddr := flag.String("http", "", "with -sim, also stream the display over HTTP on this address")
	text := flag.String("text", "Hello from periph!", "text to display")
	imgPath := flag.String("img", "", "image file to display instead of the test scene")
	diffuse := flag.Bool("fs", false, "use Floyd-Steinberg error diffusion on the host")
	hold := flag.Duration("hold", 5*time.Second, "time to keep the scene on before turning the display off")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	opts := ssd1306.DefaultOpts
	opts.W = *w
	opts.H = *h
	opts.Rotation = ssd1306.Rotation(*rotation)
	opts.Addr = uint16(*addr)
	opts.Depth = *depth
	opts.ExternalVCC = *ext
	opts.SpeedPercent = *speed

	var dev *ssd1306.Dev
	var emu *oledsim.Dev
	if *sim {
		emu = oledsim.New(&oledsim.Opts{W: *w, H: *h, Addr: opts.Addr})
		if *httpAddr != "" {
			go func() {
				log.Printf("streaming on http://%s/", *httpAddr)
				if err := http.ListenAndServe(*httpAddr, emu); err != nil {
					fmt.Fprintf(os.Stderr, "oleddemo: %s\n", err)
				}
			}()
		}
		var err error
		if dev, err = ssd1306.NewI2C(emu, &opts); err != nil {
			return err
		}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		if *rstName != "" {
			p := gpioreg.ByName(*rstName)
			if p == nil {
				return fmt.Errorf("invalid RES pin %q", *rstName)
			}
			opts.Reset = p
			opts.ResetBeforeInit = true
		}
		if *spiID != "" {
			p, err := spireg.Open(*spiID)
			if err != nil {
				return err
			}
			defer p.Close()
			var dc gpio.PinOut
			if *dcName != "" {
				if dc = gpioreg.ByName(*dcName); dc == nil {
					return fmt.Errorf("invalid D/C pin %q", *dcName)
				}
			}
			if dev, err = ssd1306.NewSPI(p, dc, &opts); err != nil {
				return err
			}
		} else {
			b, err := i2creg.Open(*i2cID)
			if err != nil {
				return err
			}
			defer b.Close()
			if dev, err = ssd1306.NewI2C(b, &opts); err != nil {
				return err
			}
		}
	}
	log.Printf("%s", dev)
	if err := dev.Init(); err != nil {
		return err
	}
	if *noDither {
		dev.SetDithering(false)
	}

	img, err := load(dev.Bounds(), *imgPath, *text)
	if err != nil {
		return err
	}
	switch {
	case *diffuse:
		gray := image.NewGray(dev.Bounds())
		draw.Draw(gray, gray.Bounds(), img, image.Point{}, draw.Src)
		img = halfgone.FloydSteinbergDitherer{}.Apply(gray)
	case opts.Depth == 1 && !*noDither:
		// The panel surface has no gray levels to dither from.
		bw := image1bit.NewVerticalLSB(dev.Bounds())
		dither.Ordered{}.Draw(bw, bw.Bounds(), img, image.Point{})
		img = bw
	}
	start := time.Now()
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		return err
	}
	log.Printf("drawn in %s", time.Since(start))
	if emu != nil {
		if err := emu.Render(); err != nil {
			return err
		}
		defer emu.Halt()
	}
	time.Sleep(*hold)
	return dev.Halt()
}

// load returns the image file scaled to fit r, or the test scene.
func load(r image.Rectangle, path, text string) (image.Image, error) {
	if path == "" {
		return scene(r, text)
	}
	src, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return imaging.Fit(src, r.Dx(), r.Dy(), imaging.Lanczos), nil
}

// scene renders a gradient, a framed text and a few circles.
func scene(r image.Rectangle, text string) (image.Image, error) {
	w, h := r.Dx(), r.Dy()
	dc := gg.NewContext(w, h)
	g := gg.NewLinearGradient(0, 0, float64(w), 0)
	g.AddColorStop(0, color.Black)
	g.AddColorStop(1, color.White)
	dc.SetFillStyle(g)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	size := float64(h) / 4
	if size < 8 {
		size = 8
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: size}))
	tw, th := dc.MeasureString(text)
	padding := 2.0
	dc.SetRGB(0, 0, 0)
	dc.DrawRoundedRectangle(padding, padding, tw+padding*2, th+padding*2, 3)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawRoundedRectangle(padding, padding, tw+padding*2, th+padding*2, 3)
	dc.Stroke()
	dc.DrawString(text, padding*2, padding+th)
	for i := 0; i < 5; i++ {
		dc.DrawCircle(float64(8+12*i), float64(h)-8, 4)
	}
	dc.Stroke()
	return dc.Image(), nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "oleddemo: %s.\n", err)
		os.Exit(1)
	}
}
