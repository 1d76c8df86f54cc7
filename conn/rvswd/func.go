// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rvswd

import "github.com/riscv-probe/rvdtm/conn/pin"

// Well known pin functionality for the two RVSWD lines.
const (
	CLK pin.Func = "RVSWD_CLK" // Clock, driven by the probe.
	DIO pin.Func = "RVSWD_DIO" // Single-wire bidirectional data line.
)
