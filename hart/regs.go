// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hart

// CSR numbers referenced by discovery and execution control (spec
// §4.4, §4.5, §4.6).
const (
	CSRMisa      = 0x301
	CSRMVendorID = 0xf11
	CSRMArchID   = 0xf12
	CSRMImplID   = 0xf13
	CSRMHartID   = 0xf14
	CSRDCSR      = 0x7b0
)

// dcsr bit layout (spec §4.5).
const (
	dcsrStep   = 1 << 2
	dcsrStepIE = 1 << 11
)

// Abstract Command register-access regno ranges (spec §4.4).
const (
	regnoCSRMax = 0x0fff
	regnoGPRMin = 0x1000
	regnoGPRMax = 0x101f
	regnoFPRMin = 0x1020
	regnoFPRMax = 0x103f
)

// command register field layout (spec §4.4: "cmdtype=0 (reg access) |
// transfer | (write?1:0) | aarsize | regno"). The C source ORs magic
// force-width bits into the regno; this package instead threads an
// explicit forced-width parameter (spec §9's redesign guidance) and
// only ever builds this struct-free bitfield at the call site.
const (
	cmdTypeRegisterAccess = 0 << 24
	cmdAarSizeShift        = 20
	cmdTransfer            = 1 << 17
	cmdWrite               = 1 << 16
)

// aarsize field values (spec §4.4: "2=32-bit, 3=64-bit, 4=128-bit").
func aarsizeFor(widthBits uint8) uint32 {
	switch widthBits {
	case 64:
		return 3
	case 128:
		return 4
	default:
		return 2
	}
}

// abstractcs.cmderr is cleared by writing all-ones to its field
// (spec §4.4: "clear cmderr by writing all-ones to that field").
const cmderrClearMask = 0x7 << 8
