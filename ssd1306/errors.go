// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import "errors"

// Errors returned by Dev. Use errors.Is to match them, the returned errors
// may wrap the underlying cause.
var (
	// ErrOutOfMemory is returned when the surface could not be allocated.
	ErrOutOfMemory = errors.New("ssd1306: out of memory")
	// ErrDevice is returned when the controller bring-up failed.
	ErrDevice = errors.New("ssd1306: device error")
	// ErrInvalidArgument is returned for an unsupported panel geometry or an
	// out of range coordinate.
	ErrInvalidArgument = errors.New("ssd1306: invalid argument")
	// ErrInvalidState is returned when reading pixels before Init.
	ErrInvalidState = errors.New("ssd1306: invalid state")
)
