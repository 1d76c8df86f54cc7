// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

import (
	"testing"

	"github.com/riscv-probe/rvdtm/conn/rvswd"
)

// fakeRVSWDAdapter scripts the bits an RVSWD frame exchange reads back,
// and records everything written.
type fakeRVSWDAdapter struct {
	in     []uint64 // queued SeqIn replies, one per call
	inBits []int
	out    []uint64 // recorded SeqOut values
	outLen []int
	starts int
	stops  int
}

func (f *fakeRVSWDAdapter) String() string { return "fake-rvswd" }
func (f *fakeRVSWDAdapter) Start() error   { f.starts++; return nil }
func (f *fakeRVSWDAdapter) Stop() error    { f.stops++; return nil }

func (f *fakeRVSWDAdapter) SeqOut(value uint64, nBits int) error {
	f.out = append(f.out, value)
	f.outLen = append(f.outLen, nBits)
	return nil
}

func (f *fakeRVSWDAdapter) SeqIn(nBits int) (uint64, error) {
	f.inBits = append(f.inBits, nBits)
	if len(f.in) == 0 {
		return 0, nil
	}
	v := f.in[0]
	f.in = f.in[1:]
	return v, nil
}

func (f *fakeRVSWDAdapter) Close() error { return nil }

var _ rvswd.Adapter = &fakeRVSWDAdapter{}

func TestRVSWDBackend_ReadSuccess(t *testing.T) {
	// data=0x42, parity (unused), reply=3 (success), stop-bit.
	a := &fakeRVSWDAdapter{in: []uint64{0x42, 0, rvswdReplyOK1, 0}}
	b := NewRVSWDBackend("r0", a)

	value, fault, err := b.Transact(RWRead, 0x11, rvswdAddressWidth, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fault != FaultNone {
		t.Fatalf("fault = %v, want none", fault)
	}
	if value != 0x42 {
		t.Fatalf("value = %#x, want 0x42", value)
	}
	if a.starts != 1 || a.stops != 1 {
		t.Fatalf("expected one Start/Stop pair, got %d/%d", a.starts, a.stops)
	}
}

func TestRVSWDBackend_ReplyFailure(t *testing.T) {
	a := &fakeRVSWDAdapter{in: []uint64{0x42, 0, 0x1, 0}} // reply=1 is not 3 or 7
	b := NewRVSWDBackend("r0", a)

	_, fault, err := b.Transact(RWRead, 0x11, rvswdAddressWidth, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fault != FaultFailure {
		t.Fatalf("fault = %v, want failure", fault)
	}
}

func TestRVSWDBackend_Write(t *testing.T) {
	a := &fakeRVSWDAdapter{in: []uint64{rvswdReplyOK2, 0}}
	b := NewRVSWDBackend("r0", a)

	_, fault, err := b.Transact(RWWrite, 0x10, rvswdAddressWidth, 0xcafef00d)
	if err != nil {
		t.Fatal(err)
	}
	if fault != FaultNone {
		t.Fatalf("fault = %v, want none", fault)
	}
	found := false
	for i, v := range a.out {
		if a.outLen[i] == 32 && v == 0xcafef00d {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the 32-bit write value to be sent")
	}
}

func TestRVSWDBackend_Reset(t *testing.T) {
	a := &fakeRVSWDAdapter{}
	b := NewRVSWDBackend("r0", a)
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, n := range a.outLen {
		total += n
	}
	if total != rvswdResetBits {
		t.Fatalf("clocked %d bits, want %d", total, rvswdResetBits)
	}
}

func TestRVSWDBackend_DetectVersion(t *testing.T) {
	// dmstatus with version field = 2 (v0.13/1.0, per scenario 1).
	a := &fakeRVSWDAdapter{in: []uint64{0x2, 0, rvswdReplyOK1, 0}}
	b := NewRVSWDBackend("r0", a)
	version, width, _, err := b.DetectVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != VersionV13 {
		t.Fatalf("version = %v, want v0.13/1.0", version)
	}
	if width != rvswdAddressWidth {
		t.Fatalf("width = %d, want %d", width, rvswdAddressWidth)
	}
}
