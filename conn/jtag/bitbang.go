// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package jtag

import (
	"errors"
	"sync/atomic"

	"github.com/riscv-probe/rvdtm/conn/gpio"
)

// ClockDivider is the process-wide TCK clock divider (spec §4.1): a
// busy-loop hold is applied after every edge, on both the CLK-low and
// CLK-high phases. MaxClockDivider signals "no delay".
//
// It is a single global because exactly one physical bus is driven by a
// process at a time; per-adapter state would disagree with the hardware
// the moment two Adapters shared a clock source.
var ClockDivider uint32 = MaxClockDivider

// MaxClockDivider disables the busy-loop hold entirely.
const MaxClockDivider uint32 = 1<<32 - 1

func clockDelay() {
	d := atomic.LoadUint32(&ClockDivider)
	if d == MaxClockDivider {
		return
	}
	var x uint32
	for i := uint32(0); i < d; i++ {
		x += i
	}
	_ = x
}

// TAP TMS sequences, read as the literal sequence of TMS values applied
// on successive TCK pulses while starting from Run-Test-Idle.
const (
	tmsReset   = "111110"
	tmsShiftDR = "100"
	tmsShiftIR = "1100"
)

// BitBang drives a JTAG TAP chain directly over five gpio.PinIO lines.
// It implements Adapter.
//
// TRST may be gpio.INVALID when the target doesn't wire it; ResetTAP then
// falls back to the TMS-only soft reset.
type BitBang struct {
	Name string
	TCK  gpio.PinIO
	TDI  gpio.PinIO
	TDO  gpio.PinIO
	TMS  gpio.PinIO
	TRST gpio.PinIO

	speedHz int
}

// NewBitBang wires up a software JTAG adapter over the given pins,
// soft-resets the TAP and leaves it in Run-Test-Idle.
func NewBitBang(name string, tck, tdi, tdo, tms, trst gpio.PinIO) (*BitBang, error) {
	b := &BitBang{Name: name, TCK: tck, TDI: tdi, TDO: tdo, TMS: tms, TRST: trst, speedHz: 1_000_000}
	if err := tck.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := tms.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := tdi.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := tdo.In(gpio.Float); err != nil {
		return nil, err
	}
	if trst != nil && trst != gpio.INVALID {
		if err := trst.Out(gpio.High); err != nil {
			return nil, err
		}
	}
	if err := b.ResetTAP(false); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BitBang) String() string { return b.Name }

// Info implements Adapter.
func (b *BitBang) Info() (AdapterInfo, error) {
	return AdapterInfo{
		Name:         b.Name,
		Vendor:       "bitbang",
		MinFrequency: 1,
		MaxFrequency: 10_000_000,
		SupportsTRST: b.TRST != nil && b.TRST != gpio.INVALID,
	}, nil
}

func (b *BitBang) pulseTCK() {
	_ = b.TCK.Out(gpio.High)
	clockDelay()
	_ = b.TCK.Out(gpio.Low)
	clockDelay()
}

func (b *BitBang) pulseTMS(seq string) {
	for _, c := range seq {
		level := gpio.Low
		if c == '1' {
			level = gpio.High
		}
		_ = b.TMS.Out(level)
		b.pulseTCK()
	}
}

// WriteIR implements Adapter. It only supports a single TAP in the
// chain: deviceIndex must be 0.
func (b *BitBang) WriteIR(deviceIndex int, ir uint32, bits int) error {
	if deviceIndex != 0 {
		return errors.New("jtag: bitbang adapter supports a single-TAP chain only")
	}
	b.pulseTMS(tmsShiftIR)
	_ = b.TMS.Out(gpio.Low)
	for i := 0; i < bits; i++ {
		bit := (ir >> uint(i)) & 1
		level := gpio.Low
		if bit != 0 {
			level = gpio.High
		}
		_ = b.TDI.Out(level)
		if i == bits-1 {
			_ = b.TMS.Out(gpio.High) // Exit1-IR on the last bit.
		}
		b.pulseTCK()
	}
	b.pulseTMS("1") // Update-IR
	b.pulseTMS("0") // Run-Test-Idle
	return nil
}

// ShiftDR implements Adapter.
func (b *BitBang) ShiftDR(deviceIndex int, tdi, tdo []byte, bits int) error {
	if deviceIndex != 0 {
		return errors.New("jtag: bitbang adapter supports a single-TAP chain only")
	}
	b.pulseTMS(tmsShiftDR)
	_ = b.TMS.Out(gpio.Low)
	if tdo != nil {
		for i := range tdo {
			tdo[i] = 0
		}
	}
	for i := 0; i < bits; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		bit := (tdi[byteIdx] >> bitIdx) & 1
		level := gpio.Low
		if bit != 0 {
			level = gpio.High
		}
		_ = b.TDI.Out(level)
		if i == bits-1 {
			_ = b.TMS.Out(gpio.High) // Exit1-DR on the last bit.
		}
		sampled := b.TDO.Read()
		b.pulseTCK()
		if tdo != nil && sampled == gpio.High {
			tdo[byteIdx] |= 1 << bitIdx
		}
	}
	b.pulseTMS("1") // Update-DR
	b.pulseTMS("0") // Run-Test-Idle
	return nil
}

// ReturnToIdle implements Adapter: idleCycles TCK pulses with TMS held
// low, in Run-Test-Idle.
func (b *BitBang) ReturnToIdle(idleCycles int) error {
	_ = b.TMS.Out(gpio.Low)
	for i := 0; i < idleCycles; i++ {
		b.pulseTCK()
	}
	return nil
}

// ResetTAP implements Adapter.
func (b *BitBang) ResetTAP(hard bool) error {
	if hard && b.TRST != nil && b.TRST != gpio.INVALID {
		_ = b.TRST.Out(gpio.Low)
		clockDelay()
		_ = b.TRST.Out(gpio.High)
		clockDelay()
	}
	b.pulseTMS(tmsReset)
	b.pulseTMS("0") // Run-Test-Idle
	return nil
}

// SetSpeed implements Adapter. It converts the requested frequency into
// the shared ClockDivider: the host loop count needed to reach hz is
// board and build specific, so this is a coarse linear approximation
// good enough to slow down a noisy link, not a calibrated clock.
func (b *BitBang) SetSpeed(hz int) error {
	if hz <= 0 {
		return errors.New("jtag: speed must be positive")
	}
	b.speedHz = hz
	const baseline = 1_000_000
	if hz >= baseline {
		atomic.StoreUint32(&ClockDivider, MaxClockDivider)
		return nil
	}
	atomic.StoreUint32(&ClockDivider, uint32(baseline/hz))
	return nil
}

// Close implements Adapter. The underlying gpio.PinIO pins are owned by
// the caller, so there is nothing to release here.
func (b *BitBang) Close() error {
	return nil
}

var _ Adapter = &BitBang{}
