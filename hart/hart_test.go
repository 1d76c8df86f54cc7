// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hart

import (
	"io"
	"testing"

	"github.com/riscv-probe/rvdtm/dmi"
	"github.com/rs/zerolog"
)

// fakeDM is an in-memory register file standing in for a Debug Module,
// enough to drive Abstract Command reads/writes and dmstatus polling.
type fakeDM struct {
	regs map[uint32]uint32
	csrs map[uint16]uint64
}

func newFakeDM() *fakeDM {
	return &fakeDM{
		regs: map[uint32]uint32{dmi.RegDMStatus: dmi.DMStatusAllHalted | dmi.DMStatusAllResumeAck},
		csrs: map[uint16]uint64{
			CSRMisa:      0x40141105, // RV32, extensions A,C,I,M,S,U (scenario 1's misa value)
			CSRMVendorID: 0,
			CSRMArchID:   0,
			CSRMImplID:   0,
			CSRMHartID:   0,
			CSRDCSR:      0,
		},
	}
}

func (f *fakeDM) Read(offset uint32) (uint32, bool) {
	return f.regs[offset], true
}

func (f *fakeDM) Write(offset, value uint32) bool {
	switch offset {
	case dmi.RegCommand:
		regno := uint16(value & 0xffff)
		if value&cmdWrite != 0 {
			data0 := f.regs[dmi.RegData0]
			f.csrs[regno] = uint64(data0)
		} else {
			v := f.csrs[regno]
			f.regs[dmi.RegData0] = uint32(v)
			f.regs[dmi.RegData1] = uint32(v >> 32)
		}
		f.regs[dmi.RegAbstractCS] = 0 // not busy, cmderr=0
	default:
		f.regs[offset] = value
	}
	return true
}

func (f *fakeDM) Prepare() error { return nil }
func (f *fakeDM) Quiesce() error { return nil }

var _ DM = &fakeDM{}

func testLogger() zerolog.Logger { return zerolog.New(io.Discard) }

func TestDiscover_scenario1(t *testing.T) {
	dm := newFakeDM()
	dm.regs[dmi.RegAbstractCS] = 1 // datacount=1 -> 32-bit

	h, err := Discover(dm, 0, 0, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if h.AccessWidth() != 32 {
		t.Fatalf("access width = %d, want 32", h.AccessWidth())
	}
	if h.Core() != "RISC-V" {
		t.Fatalf("core = %q, want RISC-V", h.Core())
	}
	if h.Target() == nil {
		t.Fatal("expected a target to be built")
	}
}

func TestChooseWidth(t *testing.T) {
	if w := chooseWidth(4, 0, 4); w != 4 {
		t.Fatalf("chooseWidth(4,0,4) = %d, want 4", w)
	}
	if w := chooseWidth(4, 1, 4); w != 1 {
		t.Fatalf("chooseWidth(4,1,4) = %d, want 1 (misaligned address)", w)
	}
	if w := chooseWidth(4, 2, 2); w != 2 {
		t.Fatalf("chooseWidth(4,2,2) = %d, want 2", w)
	}
}

func TestHaltAndResume(t *testing.T) {
	dm := newFakeDM()
	dm.regs[dmi.RegAbstractCS] = 1

	h, err := Discover(dm, 0, 0, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.haltRequest(); err != nil {
		t.Fatal(err)
	}
	if err := h.resume(false); err != nil {
		t.Fatal(err)
	}
}
