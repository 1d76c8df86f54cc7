// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dm

import (
	"io"
	"testing"
	"time"

	"github.com/riscv-probe/rvdtm/dmi"
	"github.com/riscv-probe/rvdtm/hart"
	"github.com/rs/zerolog"
)

// fakeBackend is an in-memory DMI address space, letting dm.Enumerate
// (and the hart discovery it triggers) run against scripted register
// state without real hardware.
type fakeBackend struct {
	regs map[uint32]uint32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{regs: map[uint32]uint32{}}
}

func (f *fakeBackend) String() string { return "fake" }
func (f *fakeBackend) DetectVersion() (dmi.Version, uint8, uint8, error) {
	return dmi.VersionV13, 7, 0, nil
}
func (f *fakeBackend) DesignerCode() (uint32, bool) { return 0, false }

func (f *fakeBackend) Transact(rw dmi.RW, address uint32, addressWidth uint8, writeValue uint32) (uint32, dmi.Fault, error) {
	if rw == dmi.RWWrite {
		if address&0xff == dmi.RegDMControl {
			// Simulate a single-hart implementation: hartsel bits never
			// latch, so the activate() width probe reads back hartMax=0
			// instead of looping over a million fake harts.
			writeValue &= dmi.DMControlDMActive | dmi.DMControlHaltReq | dmi.DMControlResumeReq
		}
		f.regs[address] = writeValue
		if address&0xff == dmi.RegCommand {
			// Mirror the Abstract Command side effects the hart
			// package's csr.go expects: a write command copies
			// data0 into the addressed CSR slot, keyed by the
			// low 16 bits (regno) OR'd with the DM base so CSRs don't
			// collide across DMs sharing this fake address space.
			base := address &^ 0xff
			regno := writeValue & 0xffff
			if writeValue&(1<<16) != 0 {
				f.regs[csrKey(base, regno)] = f.regs[base|dmi.RegData0]
			} else {
				f.regs[base|dmi.RegData0] = f.regs[csrKey(base, regno)]
			}
			f.regs[base|dmi.RegAbstractCS] = 0
		}
		return 0, dmi.FaultNone, nil
	}
	return f.regs[address], dmi.FaultNone, nil
}

// csrKey maps a (DM base, CSR regno) pair into an address space region
// well above any real DMI register so it can't collide with them.
func csrKey(base, regno uint32) uint32 { return 0x1000000 | base<<12 | regno }

func (f *fakeBackend) Reset() error   { return nil }
func (f *fakeBackend) Prepare() error { return nil }
func (f *fakeBackend) Quiesce() error { return nil }
func (f *fakeBackend) Close() error   { return nil }

var _ dmi.Backend = &fakeBackend{}

func testLogger() zerolog.Logger { return zerolog.New(io.Discard) }

// TestEnumerate_singleDM mirrors spec §8 scenario 1: one DM, one hart.
func TestEnumerate_singleDM(t *testing.T) {
	b := newFakeBackend()
	b.regs[dmi.RegDMStatus] = 2 | dmi.DMStatusAllHalted | dmi.DMStatusAllResumeAck
	b.regs[dmi.RegAbstractCS] = 1 // datacount=1 -> 32-bit
	b.regs[csrKey(0, hart.CSRMisa)] = 0x40141105

	transport, err := dmi.Init(b, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	dms, err := Enumerate(transport, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(dms) != 1 {
		t.Fatalf("got %d DMs, want 1", len(dms))
	}
	if len(dms[0].Harts()) != 1 {
		t.Fatalf("got %d harts, want 1", len(dms[0].Harts()))
	}
	if dms[0].Harts()[0].AccessWidth() != 32 {
		t.Fatalf("access width = %d, want 32", dms[0].Harts()[0].AccessWidth())
	}
}

// TestEnumerate_noDM covers nextdm==0 terminating a degenerate
// single-DM chain with no DM present (dmstatus.version==0).
func TestEnumerate_noDM(t *testing.T) {
	b := newFakeBackend()
	// dmstatus defaults to 0: version field 0 means not present.
	transport, err := dmi.Init(b, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	dms, err := Enumerate(transport, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(dms) != 0 {
		t.Fatalf("got %d DMs, want 0", len(dms))
	}
}

// TestEnumerate_revisitedBaseStops guards spec §9's open-question
// decision: a nextdm chain that revisits an earlier base terminates
// defensively instead of looping forever.
func TestEnumerate_revisitedBaseStops(t *testing.T) {
	b := newFakeBackend()
	b.regs[dmi.RegDMStatus] = 2 | dmi.DMStatusAllNonExistent
	b.regs[dmi.RegNextDM] = 0x100
	b.regs[0x100+dmi.RegDMStatus] = 2 | dmi.DMStatusAllNonExistent
	b.regs[0x100+dmi.RegNextDM] = 0x100 // self-loop: revisits an already-visited base

	transport, err := dmi.Init(b, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan []*DebugModule, 1)
	go func() {
		dms, _ := Enumerate(transport, testLogger())
		done <- dms
	}()
	select {
	case dms := <-done:
		if len(dms) != 2 {
			t.Fatalf("got %d DMs, want 2 (bases 0 and 0x100, each visited once, no harts)", len(dms))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Enumerate did not terminate on a chain revisiting base 0x100")
	}
}
