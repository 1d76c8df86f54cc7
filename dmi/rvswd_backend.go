// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

import (
	"github.com/riscv-probe/rvdtm/conn/rvswd"
)

// rvswdAddressWidth is the width of the address field in an RVSWD frame
// (spec §4.2: "address[8]").
const rvswdAddressWidth = 8

// rvswdReplyOK1 and rvswdReplyOK2 are the only reply codes that count
// as success (spec §4.2: "Reply code 3 or 7 = success").
const (
	rvswdReplyOK1 = 3
	rvswdReplyOK2 = 7
)

// rvswdResetBits is how many "1" bits clock out to simulate a DMI reset
// on RVSWD (spec §4.2: "simulated by clocking 100 ones with DIO high").
const rvswdResetBits = 100

// rvswdBackend drives the DMI register space over a rvswd.Adapter,
// assembling the single-wire frame of spec §4.2: start-bit, address,
// rw, triplicated parity, data, triplicated data-parity, reply,
// stop-bit.
type rvswdBackend struct {
	name    string
	adapter rvswd.Adapter
}

// NewRVSWDBackend wraps adapter as a Backend.
func NewRVSWDBackend(name string, adapter rvswd.Adapter) Backend {
	return &rvswdBackend{name: name, adapter: adapter}
}

func (b *rvswdBackend) String() string { return b.name }

func parityOf(v uint64, bits int) uint64 {
	var p uint64
	for i := 0; i < bits; i++ {
		p ^= (v >> uint(i)) & 1
	}
	return p
}

// DetectVersion implements Backend. RVSWD has no transport-side control
// register distinct from the DMI address space (unlike JTAG's dtmcs),
// so version detection reads the DM-side dmstatus register directly;
// its version field uses dmstatus's 0/1/2/3 encoding, not dtmcs's 0/1
// encoding (spec §4.2, §4.3, §9 open question), hence
// DecodeDMStatusVersion rather than DecodeVersion here.
func (b *rvswdBackend) DetectVersion() (Version, uint8, uint8, error) {
	raw, fault, err := b.Transact(RWRead, RegDMStatus, rvswdAddressWidth, 0)
	if err != nil {
		return VersionUnknown, rvswdAddressWidth, 0, err
	}
	if fault != FaultNone {
		return VersionUnknown, rvswdAddressWidth, 0, nil
	}
	return DecodeDMStatusVersion(DMStatusVersion(raw)), rvswdAddressWidth, 0, nil
}

// DesignerCode implements Backend. RVSWD exposes no transport-level
// IDCODE scan; the designer code is recovered from mvendorid once a
// hart is discovered (spec §4.4 step 6).
func (b *rvswdBackend) DesignerCode() (uint32, bool) {
	return 0, false
}

// Transact implements Backend: a single framed exchange, per §4.2.
func (b *rvswdBackend) Transact(rw RW, address uint32, addressWidth uint8, writeValue uint32) (uint32, Fault, error) {
	if err := b.adapter.Start(); err != nil {
		return 0, FaultNoResponse, err
	}
	defer func() { _ = b.adapter.Stop() }()

	if err := b.adapter.SeqOut(0, 1); err != nil { // start-bit = 0
		return 0, FaultNoResponse, err
	}
	if err := b.adapter.SeqOut(uint64(address), int(addressWidth)); err != nil {
		return 0, FaultNoResponse, err
	}
	rwBit := uint64(0)
	if rw == RWWrite {
		rwBit = 1
	}
	if err := b.adapter.SeqOut(rwBit, 1); err != nil {
		return 0, FaultNoResponse, err
	}
	addrParity := parityOf(uint64(address), int(addressWidth)) ^ rwBit
	for i := 0; i < 3; i++ {
		if err := b.adapter.SeqOut(addrParity, 1); err != nil {
			return 0, FaultNoResponse, err
		}
	}

	var value uint32
	if rw == RWWrite {
		if err := b.adapter.SeqOut(uint64(writeValue), 32); err != nil {
			return 0, FaultNoResponse, err
		}
		dataParity := parityOf(uint64(writeValue), 32)
		for i := 0; i < 3; i++ {
			if err := b.adapter.SeqOut(dataParity, 1); err != nil {
				return 0, FaultNoResponse, err
			}
		}
	} else {
		data, err := b.adapter.SeqIn(32)
		if err != nil {
			return 0, FaultNoResponse, err
		}
		value = uint32(data)
		if _, err := b.adapter.SeqIn(3); err != nil { // data-parity, unused
			return 0, FaultNoResponse, err
		}
	}

	reply, err := b.adapter.SeqIn(4)
	if err != nil {
		return 0, FaultNoResponse, err
	}
	if _, err := b.adapter.SeqIn(1); err != nil { // stop-bit
		return 0, FaultNoResponse, err
	}

	switch reply {
	case rvswdReplyOK1, rvswdReplyOK2:
		return value, FaultNone, nil
	default:
		return 0, FaultFailure, nil
	}
}

// Reset implements Backend: clock 100 ones with DIO high (spec §4.2).
func (b *rvswdBackend) Reset() error {
	if err := b.adapter.Start(); err != nil {
		return err
	}
	defer func() { _ = b.adapter.Stop() }()
	remaining := rvswdResetBits
	for remaining > 0 {
		n := 64
		if remaining < n {
			n = remaining
		}
		mask := ^uint64(0)
		if n < 64 {
			mask = (uint64(1) << uint(n)) - 1
		}
		if err := b.adapter.SeqOut(mask, n); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

// Prepare implements Backend. RVSWD has no BYPASS-equivalent state to
// re-select; Start already re-asserts the idle line state.
func (b *rvswdBackend) Prepare() error {
	return b.adapter.Start()
}

// Quiesce implements Backend: release the bus.
func (b *rvswdBackend) Quiesce() error {
	return b.adapter.Stop()
}

func (b *rvswdBackend) Close() error {
	return b.adapter.Close()
}

var _ Backend = &rvswdBackend{}
