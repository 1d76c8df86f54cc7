// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rvswd

import (
	"errors"
	"sync/atomic"

	"github.com/riscv-probe/rvdtm/conn/gpio"
	"github.com/riscv-probe/rvdtm/conn/jtag"
)

// clockDelay applies the same process-wide busy-loop hold JTAG uses
// (spec §4.1: "a single process-wide divider ... drives a busy-loop hold
// after each edge"). JTAG and RVSWD are alternative physical transports
// for the same probe, never driven concurrently, so sharing
// jtag.ClockDivider is correct, not a layering accident.
func clockDelay() {
	d := atomic.LoadUint32(&jtag.ClockDivider)
	if d == jtag.MaxClockDivider {
		return
	}
	var x uint32
	for i := uint32(0); i < d; i++ {
		x += i
	}
	_ = x
}

// BitBang drives RVSWD directly over two gpio.PinIO lines: CLK (always an
// output) and DIO (switched between output and input as the bus turns
// around between SeqOut and SeqIn). It implements Adapter.
//
// Bits are driven on the falling edge of CLK and sampled on the rising
// edge (spec §4.1).
type BitBang struct {
	Name string
	CLK  gpio.PinIO
	DIO  gpio.PinIO
}

// NewBitBang wires up a software RVSWD adapter over the given pins and
// parks the bus idle (CLK low, DIO driven high).
func NewBitBang(name string, clk, dio gpio.PinIO) (*BitBang, error) {
	b := &BitBang{Name: name, CLK: clk, DIO: dio}
	if err := clk.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := dio.Out(gpio.High); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BitBang) String() string { return b.Name }

func (b *BitBang) pulse(level gpio.Level) {
	_ = b.CLK.Out(gpio.Low) // falling edge: data is driven/changes here
	clockDelay()
	_ = b.DIO.Out(level)
	_ = b.CLK.Out(gpio.High) // rising edge: data is sampled here
	clockDelay()
}

// Start implements Adapter: it re-asserts the idle line state (DIO
// driven high) that precedes every RVSWD transaction.
func (b *BitBang) Start() error {
	if err := b.CLK.Out(gpio.Low); err != nil {
		return err
	}
	return b.DIO.Out(gpio.High)
}

// Stop implements Adapter: DIO is released so the bus floats between
// transactions.
func (b *BitBang) Stop() error {
	return b.DIO.In(gpio.Float)
}

// SeqOut implements Adapter: it drives nBits of value onto DIO, LSB
// first.
func (b *BitBang) SeqOut(value uint64, nBits int) error {
	if nBits < 0 || nBits > 64 {
		return errors.New("rvswd: nBits out of range")
	}
	if err := b.DIO.Out(gpio.High); err != nil {
		return err
	}
	for i := 0; i < nBits; i++ {
		level := gpio.Low
		if (value>>uint(i))&1 != 0 {
			level = gpio.High
		}
		b.pulse(level)
	}
	return nil
}

// SeqIn implements Adapter: it samples nBits bits from DIO, LSB first,
// switching DIO to an input for the duration of the read.
func (b *BitBang) SeqIn(nBits int) (uint64, error) {
	if nBits < 0 || nBits > 64 {
		return 0, errors.New("rvswd: nBits out of range")
	}
	if err := b.DIO.In(gpio.Float); err != nil {
		return 0, err
	}
	var value uint64
	for i := 0; i < nBits; i++ {
		_ = b.CLK.Out(gpio.Low) // falling edge: peer drives the next bit
		clockDelay()
		_ = b.CLK.Out(gpio.High) // rising edge: we sample
		clockDelay()
		if b.DIO.Read() == gpio.High {
			value |= 1 << uint(i)
		}
	}
	return value, nil
}

// Close implements Adapter. The underlying gpio.PinIO pins are owned by
// the caller, so there is nothing to release here.
func (b *BitBang) Close() error {
	return nil
}

var _ Adapter = &BitBang{}
