// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hart

// Status mirrors spec §3's AbstractCommandStatus-derived hart status
// enum, decoded from abstractcs.cmderr (spec §4.4, §7).
type Status int

const (
	StatusNoError Status = iota
	StatusBusy
	StatusUnsupported
	StatusException
	StatusWrongState
	StatusBusError
	StatusOther
)

func (s Status) String() string {
	switch s {
	case StatusNoError:
		return "no_error"
	case StatusBusy:
		return "busy"
	case StatusUnsupported:
		return "unsupported"
	case StatusException:
		return "exception"
	case StatusWrongState:
		return "wrong_state"
	case StatusBusError:
		return "bus_error"
	default:
		return "other"
	}
}

// statusFromCmdErr maps abstractcs.cmderr (spec §6/§7) to a Status.
func statusFromCmdErr(cmderr uint8) Status {
	switch cmderr {
	case 0:
		return StatusNoError
	case 1:
		return StatusBusy
	case 2:
		return StatusUnsupported
	case 3:
		return StatusException
	case 4:
		return StatusWrongState
	case 5:
		return StatusBusError
	default:
		return StatusOther
	}
}
