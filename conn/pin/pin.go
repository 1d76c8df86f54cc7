// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pin declares well known pins.
//
// pin is about physical pins, not about their logical function. It is
// shared by conn/gpio (digital JTAG/RVSWD lines) and the debug transports
// that need to refer to a fixed, non-GPIO pin such as ground or an invalid
// connection.
package pin

import "fmt"

// These are well known pins that aren't backed by a controllable GPIO.
var (
	INVALID *BasicPin // Either floating or invalid pin.
	GROUND  *BasicPin // Ground; used by TRST on targets that tie it low.
)

// Pin is the minimal common interface shared between gpio.PinIO and any
// other fixed-purpose pin.
type Pin interface {
	// String() typically returns the pin name and number, ex: "PD6(45)".
	fmt.Stringer
	// Name returns the name of the pin.
	Name() string
	// Number returns the logical pin number or a negative number if the pin
	// is not a GPIO, e.g. GROUND.
	Number() int
	// Function returns a user readable string representation of what the
	// pin is configured to do. Common case is In and Out but it can be bus
	// specific, e.g. "JTAG_TCK".
	Function() string
}

// BasicPin implements Pin as a non-functional pin.
type BasicPin struct {
	N string
}

// String returns the pin name.
func (b *BasicPin) String() string {
	return b.N
}

// Name returns the pin name.
func (b *BasicPin) Name() string {
	return b.N
}

// Number returns -1 as pin number.
func (b *BasicPin) Number() int {
	return -1
}

// Function returns "" as pin function.
func (b *BasicPin) Function() string {
	return ""
}

func init() {
	INVALID = &BasicPin{N: "INVALID"}
	GROUND = &BasicPin{N: "GROUND"}
}
