// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

import (
	"testing"

	"github.com/riscv-probe/rvdtm/conn/jtag"
)

// fakeAdapter is a scriptable jtag.Adapter: each ShiftDR call pops the
// next canned response and records what was sent.
type fakeAdapter struct {
	lastIR     uint32
	responses  [][]byte
	sent       [][]byte
	idleCycles []int
}

func (f *fakeAdapter) String() string                   { return "fake-adapter" }
func (f *fakeAdapter) Info() (jtag.AdapterInfo, error)   { return jtag.AdapterInfo{}, nil }
func (f *fakeAdapter) WriteIR(_ int, ir uint32, _ int) error {
	f.lastIR = ir
	return nil
}

func (f *fakeAdapter) ShiftDR(_ int, tdi, tdo []byte, bits int) error {
	f.sent = append(f.sent, append([]byte(nil), tdi...))
	if tdo != nil && len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		copy(tdo, resp)
	}
	return nil
}

func (f *fakeAdapter) ReturnToIdle(n int) error {
	f.idleCycles = append(f.idleCycles, n)
	return nil
}
func (f *fakeAdapter) ResetTAP(bool) error  { return nil }
func (f *fakeAdapter) SetSpeed(int) error   { return nil }
func (f *fakeAdapter) Close() error         { return nil }

var _ jtag.Adapter = &fakeAdapter{}

func TestJTAGBackend_DetectVersion(t *testing.T) {
	// dtmcs = version=1, abits=7, idle=5 -> 0x1 | 7<<4 | 5<<12.
	dtmcs := uint32(1) | uint32(7)<<4 | uint32(5)<<12
	buf := make([]byte, 4)
	packLSB(buf, uint64(dtmcs), 32)

	a := &fakeAdapter{responses: [][]byte{buf}}
	b := NewJTAGBackend("t0", a, 0)

	version, abits, idle, err := b.DetectVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != VersionV13 {
		t.Fatalf("version = %v, want v0.13/1.0", version)
	}
	if abits != 7 || idle != 5 {
		t.Fatalf("abits=%d idle=%d, want 7,5", abits, idle)
	}
	if a.lastIR != irDMI {
		t.Fatalf("expected DMI IR re-selected after dtmcs scan, got %#x", a.lastIR)
	}
}

func TestJTAGBackend_Transact_success(t *testing.T) {
	// Second scan (the noop) reports status=success(0), data=0x42.
	result := uint64(dmiStatusSuccess) | uint64(0x42)<<2
	buf := make([]byte, 6)
	packLSB(buf, result, 2+32+7)

	a := &fakeAdapter{responses: [][]byte{nil, buf}}
	b := NewJTAGBackend("t0", a, 0)

	value, fault, err := b.Transact(RWRead, 0x04, 7, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fault != FaultNone {
		t.Fatalf("fault = %v, want none", fault)
	}
	if value != 0x42 {
		t.Fatalf("value = %#x, want 0x42", value)
	}
	if len(a.sent) != 2 {
		t.Fatalf("expected two scans (op;noop), got %d", len(a.sent))
	}
}

func TestJTAGBackend_Transact_busy(t *testing.T) {
	result := uint64(dmiStatusBusy)
	buf := make([]byte, 6)
	packLSB(buf, result, 2+32+7)

	a := &fakeAdapter{responses: [][]byte{nil, buf}}
	b := NewJTAGBackend("t0", a, 0)

	_, fault, err := b.Transact(RWWrite, 0x10, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if fault != FaultBusy {
		t.Fatalf("fault = %v, want busy", fault)
	}
}

func TestJTAGBackend_Reset(t *testing.T) {
	a := &fakeAdapter{}
	b := NewJTAGBackend("t0", a, 0)
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	if a.lastIR != irDMI {
		t.Fatalf("expected DMI re-selected after reset, got %#x", a.lastIR)
	}
}
