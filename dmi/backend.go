// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

import "fmt"

// RW selects the direction of a DMI transaction.
type RW uint8

const (
	RWRead RW = iota
	RWWrite
)

// Backend is the tagged-variant abstraction over the physical transport
// that actually carries DMI register transactions: JTAG or RVSWD (spec
// §4.1, §4.2, §9 — "replace function-pointer dispatch with a tagged
// variant"). DMI owns the busy-retry algorithm; a Backend only knows how
// to perform one transaction and how to reset the bus.
type Backend interface {
	fmt.Stringer

	// DetectVersion probes the transport for its protocol version, the
	// DMI address-field width and the transport's initial idle-cycle
	// count.
	DetectVersion() (version Version, addressWidth uint8, idleCycles uint8, err error)

	// DesignerCode returns the JEP-106 designer code extracted from the
	// transport (e.g. a JTAG IDCODE scan), if the transport exposes one.
	DesignerCode() (code uint32, ok bool)

	// Transact performs exactly one DMI register transaction and
	// reports its outcome. For JTAG this is the {op scan; noop scan}
	// pair of spec §4.2; for RVSWD it is one framed exchange.
	Transact(rw RW, address uint32, addressWidth uint8, writeValue uint32) (value uint32, fault Fault, err error)

	// Reset issues the transport's DMI-reset primitive (dtmcs.dmireset
	// for JTAG; 100 ones with DIO held high for RVSWD).
	Reset() error

	// Prepare re-establishes the DMI selection after an attach (e.g.
	// re-selecting the DMI IR on JTAG after a prior BYPASS).
	Prepare() error

	// Quiesce parks the transport between attachments (e.g. loading
	// BYPASS into the JTAG IR).
	Quiesce() error

	// Close releases the backend's underlying adapter.
	Close() error
}
