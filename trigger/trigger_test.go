// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package trigger

import "testing"

type fakeCSR struct {
	csrs map[uint16]uint32
}

func newFakeCSR() *fakeCSR { return &fakeCSR{csrs: map[uint16]uint32{CSRTInfo: tinfoType2}} }

func (f *fakeCSR) ReadCSR(reg uint16) (uint32, bool) {
	v, ok := f.csrs[reg]
	return v, ok
}

func (f *fakeCSR) WriteCSR(reg uint16, value uint32) bool {
	f.csrs[reg] = value
	return true
}

func TestAllocateConfigureRelease(t *testing.T) {
	csr := newFakeCSR()
	m := NewMediator(csr, 4)

	idx, err := m.Allocate(Breakpoint)
	if err != nil {
		t.Fatal(err)
	}
	if m.Use(idx) != Breakpoint {
		t.Fatal("expected slot marked Breakpoint")
	}
	if err := m.Configure(idx, 0x8000, 4, Breakpoint); err != nil {
		t.Fatal(err)
	}
	if csr.csrs[CSRTData2] != 0x8000 {
		t.Fatalf("tdata2 = %#x, want 0x8000", csr.csrs[CSRTData2])
	}
	if err := m.Release(idx); err != nil {
		t.Fatal(err)
	}
	if m.Use(idx) != Unused {
		t.Fatal("expected slot released")
	}
	if csr.csrs[CSRTData1] != 0 {
		t.Fatal("expected tdata1 cleared on release")
	}
}

func TestAllocate_exhausted(t *testing.T) {
	csr := newFakeCSR()
	m := NewMediator(csr, 1)
	if _, err := m.Allocate(Breakpoint); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Allocate(Breakpoint); err != ErrNoFreeTrigger {
		t.Fatalf("got %v, want ErrNoFreeTrigger", err)
	}
}

func TestSizeBits(t *testing.T) {
	cases := []struct {
		size int
		want uint32
	}{
		{1, size8Bit}, {2, size16Bit}, {4, size32Bit}, {8, size64Bit}, {16, size128Bit},
	}
	for _, c := range cases {
		got, err := SizeBits(c.size)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Fatalf("SizeBits(%d) = %#x, want %#x", c.size, got, c.want)
		}
	}
	if _, err := SizeBits(3); err == nil {
		t.Fatal("expected error for unsupported size")
	}
}

func TestMediator_Count(t *testing.T) {
	csr := newFakeCSR()
	if m := NewMediator(csr, 3); m.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", m.Count())
	}
	if m := NewMediator(csr, 99); m.Count() != maxTriggers {
		t.Fatalf("Count() = %d, want capped at %d", m.Count(), maxTriggers)
	}
}

func TestConfigure_unallocatedSlot(t *testing.T) {
	csr := newFakeCSR()
	m := NewMediator(csr, 2)
	if err := m.Configure(0, 0x100, 4, Breakpoint); err == nil {
		t.Fatal("expected error configuring an unallocated slot")
	}
}
