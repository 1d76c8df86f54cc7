// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

import "testing"

func TestDecodeVersion(t *testing.T) {
	cases := map[uint8]Version{
		0: VersionV011,
		1: VersionV13,
		2: VersionUnknown,
		3: VersionUnknown,
	}
	for field, want := range cases {
		if got := DecodeVersion(field); got != want {
			t.Errorf("DecodeVersion(%d) = %v, want %v", field, got, want)
		}
	}
}

func TestDecodeDMStatusVersion(t *testing.T) {
	cases := map[uint8]Version{
		0: VersionUnimpl,
		1: VersionV011,
		2: VersionV13,
		3: VersionV13,
		4: VersionUnknown,
	}
	for field, want := range cases {
		if got := DecodeDMStatusVersion(field); got != want {
			t.Errorf("DecodeDMStatusVersion(%d) = %v, want %v", field, got, want)
		}
	}
}

func TestVersionUsable(t *testing.T) {
	if VersionV13.Usable() != true {
		t.Fatal("v0.13/1.0 should be usable")
	}
	if VersionV011.Usable() {
		t.Fatal("v0.11 should not be usable (scenario 3)")
	}
	if VersionUnimpl.Usable() || VersionUnknown.Usable() {
		t.Fatal("unimplemented/unknown should not be usable")
	}
}
