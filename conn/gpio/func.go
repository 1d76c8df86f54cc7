// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import "github.com/riscv-probe/rvdtm/conn/pin"

// Well known pin functionality. Debug transports only ever drive or sample
// digital levels, so the set is kept to what JTAG/RVSWD bit-banging needs.
const (
	// Inputs
	IN      pin.Func = "IN"      // Input
	IN_HIGH pin.Func = "In/High" // Read high
	IN_LOW  pin.Func = "In/Low"  // Read low

	// Outputs
	OUT      pin.Func = "OUT"      // Output, drive
	OUT_OC   pin.Func = "OUT_OPEN" // Output, open collector/drain; used for RVSWD DIO
	OUT_HIGH pin.Func = "Out/High" // Drive high
	OUT_LOW  pin.Func = "Out/Low"  // Drive low; open collector low

	FLOAT pin.Func = "FLOAT" // Input float or Output open collector high
)
