// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpio defines digital pins.
//
// The pins are described by their logical functionality, not by their
// physical position. This is the substrate the software bit-bang JTAG and
// RVSWD adapters drive: TCK/TDI/TDO/TMS/TRST or CLK/DIO are all ordinary
// gpio.PinIO, registered and looked up through this package's
// Register/ByName/ByFunction registry.
package gpio

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/riscv-probe/rvdtm/conn/pin"
)

// Level is the level of the pin: Low or High.
type Level bool

const (
	// Low represents 0v.
	Low Level = false
	// High represents Vin, generally 3.3v or 5v.
	High Level = true
)

func (l Level) String() string {
	if l == Low {
		return "Low"
	}
	return "High"
}

// Pull specifies the internal pull-up or pull-down for a pin set as input.
type Pull uint8

// Acceptable pull values.
const (
	Float        Pull = 0 // Let the input float.
	Down         Pull = 1 // Apply pull-down.
	Up           Pull = 2 // Apply pull-up.
	PullNoChange Pull = 3 // Do not change the previous pull resistor setting.
)

func (p Pull) String() string {
	switch p {
	case Float:
		return "Float"
	case Down:
		return "Down"
	case Up:
		return "Up"
	default:
		return "PullNoChange"
	}
}

// PinIn is an input digital pin.
type PinIn interface {
	pin.Pin
	// In sets up a pin as an input with the given pull resistor setting.
	In(pull Pull) error
	// Read returns the current pin level.
	//
	// Behavior is undefined if In() wasn't called before.
	Read() Level
}

// PinOut is an output digital pin.
type PinOut interface {
	pin.Pin
	// Out sets a pin as output if it wasn't already and drives the given
	// level.
	Out(l Level) error
}

// PinIO is a digital pin that supports both input and output, which
// describes every line a JTAG or RVSWD adapter drives: TCK and TMS are
// output-only in practice but TDIO-style single-wire lines must switch
// direction mid-transaction.
type PinIO interface {
	pin.Pin
	In(pull Pull) error
	Read() Level
	Out(l Level) error
}

// RealPin is implemented by an alias pin, allowing a caller to resolve the
// concrete pin it wraps.
type RealPin interface {
	Real() PinIO
}

// INVALID implements PinIO and fails on all access.
var INVALID PinIO = invalidPin{}

// BasicPin implements PinIO as a non-functional pin, useful as a
// placeholder when a line (e.g. TRST) is not wired on a given probe.
type BasicPin struct {
	N string
}

func (b *BasicPin) String() string   { return b.N }
func (b *BasicPin) Name() string     { return b.N }
func (b *BasicPin) Number() int      { return -1 }
func (b *BasicPin) Function() string { return "" }

// In implements PinIO.
func (b *BasicPin) In(Pull) error {
	return fmt.Errorf("gpio: %s cannot be used as input", b.N)
}

// Read implements PinIO.
func (b *BasicPin) Read() Level { return Low }

// Out implements PinIO.
func (b *BasicPin) Out(Level) error {
	return fmt.Errorf("gpio: %s cannot be used as output", b.N)
}

//

// ByName returns a GPIO pin from its name.
//
// Returns nil if the pin is not present.
func ByName(name string) PinIO {
	lock.Lock()
	defer lock.Unlock()
	return byName[name]
}

// ByFunction returns a GPIO pin from its function, e.g. "JTAG_TCK".
//
// Returns nil if there is no pin mapped to this function.
func ByFunction(fn string) PinIO {
	lock.Lock()
	defer lock.Unlock()
	return byFunction[fn]
}

// All returns all the GPIO pins registered on this host, ordered by name.
func All() []PinIO {
	lock.Lock()
	defer lock.Unlock()
	out := make(pinList, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Sort(out)
	return out
}

// Register registers a GPIO pin.
//
// Registering the same pin name twice is an error.
func Register(p PinIO) error {
	lock.Lock()
	defer lock.Unlock()
	name := p.Name()
	if _, ok := byName[name]; ok {
		return fmt.Errorf("gpio: registering the same pin %s twice", name)
	}
	byName[name] = p
	return nil
}

// MapFunction registers a GPIO pin for a specific function, e.g. mapping
// "JTAG_TCK" to the pin driving the TAP clock.
func MapFunction(function string, p PinIO) {
	lock.Lock()
	defer lock.Unlock()
	byFunction[function] = p
}

//

var errInvalidPin = errors.New("gpio: invalid pin")

type invalidPin struct{}

func (invalidPin) Number() int      { return -1 }
func (invalidPin) Name() string     { return "INVALID" }
func (invalidPin) String() string   { return "INVALID" }
func (invalidPin) Function() string { return "" }
func (invalidPin) In(Pull) error    { return errInvalidPin }
func (invalidPin) Read() Level      { return Low }
func (invalidPin) Out(Level) error  { return errInvalidPin }

var (
	lock       sync.Mutex
	byName     = map[string]PinIO{}
	byFunction = map[string]PinIO{}
)

type pinList []PinIO

func (p pinList) Len() int           { return len(p) }
func (p pinList) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p pinList) Less(i, j int) bool { return p[i].Name() < p[j].Name() }

var _ PinIn = INVALID
var _ PinOut = INVALID
var _ PinIO = INVALID
