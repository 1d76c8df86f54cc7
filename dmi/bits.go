// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

// packLSB writes the low `bits` bits of v into buf, LSB-first, matching
// the byte convention jtag.Adapter.ShiftDR uses (bit i lives at
// buf[i/8] bit i%8).
func packLSB(buf []byte, v uint64, bits int) {
	for i := range buf {
		buf[i] = 0
	}
	for i := 0; i < bits; i++ {
		if (v>>uint(i))&1 != 0 {
			buf[i/8] |= 1 << uint(i%8)
		}
	}
}

// unpackLSB is the inverse of packLSB.
func unpackLSB(buf []byte, bits int) uint64 {
	var v uint64
	for i := 0; i < bits; i++ {
		if buf[i/8]&(1<<uint(i%8)) != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}
