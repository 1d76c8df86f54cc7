// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

import (
	"fmt"

	"github.com/riscv-probe/rvdtm/conn/jtag"
)

// JTAG IRs (spec §6: "0x10 dtmcs, 0x11 dmi, 0x1f bypass (5-bit IR
// canonical)").
const (
	irDTMCS  = 0x10
	irDMI    = 0x11
	irIDCODE = 0x01
	irBypass = 0x1f
	irBits   = 5
)

// dtmcs field layout (spec §6).
const (
	dtmcsVersionMask    = 0xf
	dtmcsAbitsShift     = 4
	dtmcsAbitsMask      = 0x7 << dtmcsAbitsShift
	dtmcsIdleShift      = 12
	dtmcsIdleMask       = 0xf << dtmcsIdleShift
	dtmcsDMIReset       = 1 << 16
	dtmcsDMIHardReset   = 1 << 17
	dtmcsScanBits       = 32
)

// dmiOpNop, dmiOpRead and dmiOpWrite are the op field values written
// into the DMI scan-chain register. The values read back on the
// following scan instead report the previous operation's status:
// 0=success, 1=reserved(->failure), 2=failure, 3=busy (spec §4.2).
const (
	dmiOpNop   = 0
	dmiOpRead  = 1
	dmiOpWrite = 2
)

const (
	dmiStatusSuccess = 0
	dmiStatusBusy    = 3
)

// jtagBackend drives the DMI register space over a jtag.Adapter,
// implementing the "op[2] | data[32] | address[width]" scan-chain
// layout and the two-scan {op ; noop} read-back convention of spec
// §4.2.
type jtagBackend struct {
	name        string
	adapter     jtag.Adapter
	deviceIndex int
	idleCycles  uint8
}

// NewJTAGBackend wraps adapter as a Backend driving a single TAP at
// deviceIndex in the scan chain.
func NewJTAGBackend(name string, adapter jtag.Adapter, deviceIndex int) Backend {
	return &jtagBackend{name: name, adapter: adapter, deviceIndex: deviceIndex}
}

func (b *jtagBackend) String() string { return b.name }

func (b *jtagBackend) selectDMI() error {
	return b.adapter.WriteIR(b.deviceIndex, irDMI, irBits)
}

// DetectVersion implements Backend by scanning dtmcs.
func (b *jtagBackend) DetectVersion() (Version, uint8, uint8, error) {
	if err := b.adapter.WriteIR(b.deviceIndex, irDTMCS, irBits); err != nil {
		return VersionUnknown, 0, 0, err
	}
	tdi := make([]byte, 4)
	tdo := make([]byte, 4)
	if err := b.adapter.ShiftDR(b.deviceIndex, tdi, tdo, dtmcsScanBits); err != nil {
		return VersionUnknown, 0, 0, err
	}
	raw := uint32(unpackLSB(tdo, dtmcsScanBits))
	version := DecodeVersion(uint8(raw & dtmcsVersionMask))
	abits := uint8((raw & dtmcsAbitsMask) >> dtmcsAbitsShift)
	idle := uint8((raw & dtmcsIdleMask) >> dtmcsIdleShift)
	b.idleCycles = idle
	if err := b.selectDMI(); err != nil {
		return version, abits, idle, err
	}
	return version, abits, idle, nil
}

// DesignerCode implements Backend by scanning IDCODE and extracting the
// 11-bit JEP-106 manufacturer field.
func (b *jtagBackend) DesignerCode() (uint32, bool) {
	if err := b.adapter.WriteIR(b.deviceIndex, irIDCODE, irBits); err != nil {
		return 0, false
	}
	tdi := make([]byte, 4)
	tdo := make([]byte, 4)
	if err := b.adapter.ShiftDR(b.deviceIndex, tdi, tdo, 32); err != nil {
		return 0, false
	}
	idcode := uint32(unpackLSB(tdo, 32))
	_ = b.selectDMI()
	if idcode == 0 || idcode == 0xffffffff {
		return 0, false
	}
	return (idcode >> 1) & 0x7ff, true
}

// Transact implements Backend's {op scan; noop scan} pair: the first
// scan loads the requested operation, the second retrieves its result.
func (b *jtagBackend) Transact(rw RW, address uint32, addressWidth uint8, writeValue uint32) (uint32, Fault, error) {
	op := uint64(dmiOpRead)
	if rw == RWWrite {
		op = dmiOpWrite
	}
	bits := 2 + 32 + int(addressWidth)
	nbytes := (bits + 7) / 8

	scan := func(opField uint64, data uint32, addr uint32) (uint64, error) {
		word := opField | uint64(data)<<2 | uint64(addr)<<34
		tdi := make([]byte, nbytes)
		tdo := make([]byte, nbytes)
		packLSB(tdi, word, bits)
		if err := b.adapter.ShiftDR(b.deviceIndex, tdi, tdo, bits); err != nil {
			return 0, err
		}
		if err := b.adapter.ReturnToIdle(int(b.idleCycles)); err != nil {
			return 0, err
		}
		return unpackLSB(tdo, bits), nil
	}

	if _, err := scan(op, writeValue, address); err != nil {
		return 0, FaultNoResponse, err
	}
	result, err := scan(dmiOpNop, 0, 0)
	if err != nil {
		return 0, FaultNoResponse, err
	}
	status := uint8(result & 0x3)
	value := uint32(result >> 2)
	switch status {
	case dmiStatusSuccess:
		return value, FaultNone, nil
	case dmiStatusBusy:
		return 0, FaultBusy, nil
	default:
		return 0, FaultFailure, nil
	}
}

// Reset implements Backend: write dtmcs.dmireset, then re-select the
// DMI IR (spec §4.2 step 1).
func (b *jtagBackend) Reset() error {
	if err := b.adapter.WriteIR(b.deviceIndex, irDTMCS, irBits); err != nil {
		return err
	}
	tdi := make([]byte, 4)
	packLSB(tdi, dtmcsDMIReset, dtmcsScanBits)
	if err := b.adapter.ShiftDR(b.deviceIndex, tdi, nil, dtmcsScanBits); err != nil {
		return err
	}
	return b.selectDMI()
}

// Prepare implements Backend: re-select the DMI IR after a possible
// prior BYPASS.
func (b *jtagBackend) Prepare() error {
	return b.selectDMI()
}

// Quiesce implements Backend: park the TAP in BYPASS between
// attachments.
func (b *jtagBackend) Quiesce() error {
	return b.adapter.WriteIR(b.deviceIndex, irBypass, irBits)
}

func (b *jtagBackend) Close() error {
	return b.adapter.Close()
}

var _ Backend = &jtagBackend{}
var _ fmt.Stringer = &jtagBackend{}
