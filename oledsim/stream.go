// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oledsim

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
)

// The panel is streamed as "MJPEG", a never ending multipart/x-mixed-replace
// response as used by IP cameras, with PNG or JPEG parts. A new part is sent
// every time the visible content changes.

// ImageFormat is the encoding of the streamed frames.
type ImageFormat int

const (
	PNG ImageFormat = iota
	JPEG

	// DefaultFormat keeps the pixel edges sharp.
	DefaultFormat = PNG
)

func (f ImageFormat) String() string {
	if c, ok := codecs[f]; ok {
		return c.name
	}
	return strconv.Itoa(int(f))
}

func (f ImageFormat) mimeType() string {
	if c, ok := codecs[f]; ok {
		return c.mimeType
	}
	return "application/octet-stream"
}

// ParseImageFormat returns the ImageFormat named by a "format" URL parameter,
// a file extension without the dot.
func ParseImageFormat(value string) (ImageFormat, error) {
	value = strings.ToLower(value)
	for f, c := range codecs {
		for _, ext := range c.exts {
			if ext == value {
				return f, nil
			}
		}
	}
	return DefaultFormat, fmt.Errorf("oledsim: unrecognized image format %q", value)
}

// codec encodes a frame in one ImageFormat.
type codec struct {
	name     string
	mimeType string
	exts     []string
	encode   func(w io.Writer, img image.Image) error
}

var codecs = map[ImageFormat]codec{
	PNG: {
		name:     "PNG",
		mimeType: "image/png",
		exts:     []string{"png"},
		encode:   pngEncoder.Encode,
	},
	JPEG: {
		name:     "JPEG",
		mimeType: "image/jpeg",
		exts:     []string{"jpg", "jpeg"},
		encode: func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpegOptions)
		},
	},
}

var jpegOptions = jpeg.Options{Quality: 95}

type pngBufferPool sync.Pool

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	buf, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return buf
}

func (p *pngBufferPool) Put(buf *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(buf)
}

var pngEncoder = png.Encoder{
	CompressionLevel: png.BestSpeed,
	BufferPool:       &pngBufferPool{},
}

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// Frame returns the visible panel as seen by the viewer, each pixel enlarged
// to a Scale sized square.
func (d *Dev) Frame() *image.Gray {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameLocked()
}

func (d *Dev) frameLocked() *image.Gray {
	s := d.scale
	img := image.NewGray(image.Rect(0, 0, d.width*s, d.height*s))
	lit := d.litLevel()
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			if !d.on || d.pixel(x, y) == d.inverted {
				continue
			}
			for dy := 0; dy < s; dy++ {
				off := img.PixOffset(x*s, y*s+dy)
				for dx := 0; dx < s; dx++ {
					img.Pix[off+dx] = lit
				}
			}
		}
	}
	return img
}

// litLevel approximates the brightness of a lit pixel at the current
// contrast.
func (d *Dev) litLevel() uint8 {
	return uint8(0x40 + uint32(d.contrast)*0xBF/0xFF)
}

// changedLocked drops the cached frames and wakes up the streams.
func (d *Dev) changedLocked() {
	clear(d.snapshot)
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

func (d *Dev) snapshotFor(format ImageFormat) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.snapshot[format]; ok {
		return b, nil
	}
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("oledsim: unhandled image format %s", format)
	}
	var buf bytes.Buffer
	if err := c.encode(&buf, d.frameLocked()); err != nil {
		return nil, err
	}
	d.snapshot[format] = buf.Bytes()
	return buf.Bytes(), nil
}

// Close terminates all running HTTP streams asynchronously.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// ServeHTTP handles HTTP GET requests and streams the panel content. Clients
// can request PNG or JPEG images with the "format" parameter
// ("?format=png", "?format=jpeg").
func (d *Dev) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	format := d.format
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if format, err = ParseImageFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	pw := newPartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": pw.boundary,
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", format.mimeType())
	header.Set("Content-Transfer-Encoding", "binary")
	for {
		payload, err := d.snapshotFor(format)
		if err == nil {
			err = pw.writeFrame(header, payload)
		}
		if err != nil {
			// There is no way to report an error within an image stream.
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// randomBoundary generates a MIME multipart boundary compatible with RFC 2046
// (section 5.1.1).
func randomBoundary() string {
	var buf [30]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", buf[:])
}

type partWriter struct {
	u        io.Writer
	boundary string
	started  bool
}

func newPartWriter(u io.Writer) *partWriter {
	return &partWriter{u: u, boundary: randomBoundary()}
}

// writeFrame sends one complete part. mime/multipart.Writer cannot flush a
// part together with its closing boundary line.
//
// header is modified to set Content-Length.
func (w *partWriter) writeFrame(header textproto.MIMEHeader, body []byte) error {
	header.Set("Content-Length", strconv.Itoa(len(body)))
	var buf bytes.Buffer
	if !w.started {
		fmt.Fprintf(&buf, "--%s\r\n", w.boundary)
		w.started = true
	}
	for name, values := range header {
		for _, v := range values {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, v)
		}
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", w.boundary)
	_, err := buf.WriteTo(w.u)
	return err
}

var _ http.Handler = &Dev{}
