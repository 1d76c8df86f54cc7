// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rvswd implements the physical-transport primitives of RVSWD, a
// two-wire (CLK/DIO) variant of the RISC-V External Debug transport used
// by some WCH devices, and a software bit-bang driver for it over
// gpio.PinIO.
//
// Framing (the start bit, address, parity and reply fields) is a DMI
// concern (spec §4.2) layered on top of these primitives, not part of
// this package.
package rvswd

import "fmt"

// Adapter is the physical-transport primitive consumed by the DMI
// RVSWD backend (spec §4.1, §6). DIO switches direction mid-transaction,
// so implementations own that bus-turnaround; callers only deal in bit
// counts and values.
type Adapter interface {
	fmt.Stringer

	// Start issues the RVSWD start condition.
	Start() error
	// Stop issues the RVSWD stop condition.
	Stop() error
	// SeqOut drives nBits bits of value onto DIO, LSB first.
	SeqOut(value uint64, nBits int) error
	// SeqIn samples nBits bits from DIO, LSB first, and returns them
	// assembled into value.
	SeqIn(nBits int) (value uint64, err error)
	// Close releases any resources held by the adapter.
	Close() error
}
