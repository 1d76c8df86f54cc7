// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package jtag defines the API to communicate with devices over the JTAG
// protocol and a software bit-bang implementation of it.
//
// An Adapter is the physical-transport primitive a DMI backend drives: it
// knows nothing about DMI register layout, only how to load an
// instruction register and shift a data register through a chain of one
// or more TAPs.
//
// See https://en.wikipedia.org/wiki/JTAG for background information.
package jtag

import "fmt"

// AdapterInfo describes the capabilities of a JTAG adapter, whether it is
// a software bit-bang driver over gpio.PinIO or a USB probe.
type AdapterInfo struct {
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	Firmware     string
	MinFrequency int // Hz
	MaxFrequency int // Hz
	SupportsSRST bool
	SupportsTRST bool
}

// Adapter is the physical-transport primitive consumed by a DMI backend
// (spec §4.1, §6). It is re-entrant only within a single-threaded
// context: the DMI layer never shifts concurrently on the same Adapter.
type Adapter interface {
	fmt.Stringer

	// Info returns the adapter's static capabilities.
	Info() (AdapterInfo, error)

	// WriteIR loads ir (bits wide) into the instruction register of the
	// TAP at deviceIndex in the scan chain. Every other TAP in the chain
	// is put into BYPASS.
	WriteIR(deviceIndex int, ir uint32, bits int) error

	// ShiftDR shifts tdi into the data register of the TAP at
	// deviceIndex and captures the bits that come back into tdo. tdi and
	// tdo must each hold at least (bits+7)/8 bytes; tdo may be nil to
	// discard the response.
	ShiftDR(deviceIndex int, tdi, tdo []byte, bits int) error

	// ReturnToIdle spends idleCycles clock cycles in Run-Test/Idle.
	ReturnToIdle(idleCycles int) error

	// ResetTAP resets the TAP state machine. A hard reset drives TRST if
	// wired; a soft reset clocks five-plus TMS=1 transitions.
	ResetTAP(hard bool) error

	// SetSpeed requests a TCK frequency in Hz.
	SetSpeed(hz int) error

	// Close releases any resources held by the adapter.
	Close() error
}
