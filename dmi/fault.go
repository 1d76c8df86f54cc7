// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

// Fault is the last-transaction status tracked on a DMI (spec §3's
// `fault` field and §7's error taxonomy).
type Fault uint8

const (
	// FaultNone means the last transaction completed successfully.
	FaultNone Fault = iota
	// FaultBusy means the transport reported busy; retried internally
	// by the busy-handling algorithm up to the idle-cycle cap.
	FaultBusy
	// FaultFailure is unrecoverable at the transport level: the DMI is
	// reset and the call reports false.
	FaultFailure
	// FaultNoResponse means the physical transport produced no ACK at
	// all (spec §7's dmi_no_response).
	FaultNoResponse
)

func (f Fault) String() string {
	switch f {
	case FaultBusy:
		return "busy"
	case FaultFailure:
		return "failure"
	case FaultNoResponse:
		return "no_response"
	default:
		return "none"
	}
}
