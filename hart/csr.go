// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hart

import (
	"github.com/riscv-probe/rvdtm/dmi"
	"github.com/riscv-probe/rvdtm/trigger"
)

// ReadCSR implements trigger.CSRAccess using the hart's native access
// width.
func (h *Hart) ReadCSR(reg uint16) (uint32, bool) {
	v, status := h.readCSRWidth(reg, h.accessWidth)
	return uint32(v), status == StatusNoError
}

// WriteCSR implements trigger.CSRAccess using the hart's native access
// width.
func (h *Hart) WriteCSR(reg uint16, value uint32) bool {
	status := h.writeCSRWidth(reg, h.accessWidth, uint64(value))
	return status == StatusNoError
}

// readCSRWidth reads a CSR forced to a specific width (spec §9's
// explicit (width, reg) pair replacing the magic-bit forced-width
// encoding).
func (h *Hart) readCSRWidth(reg uint16, width uint8) (uint64, Status) {
	return h.abstractCommand(false, reg, width, 0)
}

func (h *Hart) writeCSRWidth(reg uint16, width uint8, value uint64) Status {
	_, status := h.abstractCommand(true, reg, width, value)
	return status
}

// abstractCommand implements spec §4.4's "Abstract Command register
// access": write data0 (and data1 for width>=64), write command,
// poll abstractcs.busy, capture and clear cmderr.
func (h *Hart) abstractCommand(write bool, reg uint16, width uint8, value uint64) (uint64, Status) {
	if write {
		if !h.dm.Write(dmi.RegData0, uint32(value)) {
			h.status = StatusBusError
			return 0, h.status
		}
		if width >= 64 {
			if !h.dm.Write(dmi.RegData1, uint32(value>>32)) {
				h.status = StatusBusError
				return 0, h.status
			}
		}
	}

	cmd := uint32(cmdTypeRegisterAccess) | aarsizeFor(width)<<cmdAarSizeShift | cmdTransfer | uint32(reg)
	if write {
		cmd |= cmdWrite
	}
	if !h.dm.Write(dmi.RegCommand, cmd) {
		h.status = StatusBusError
		return 0, h.status
	}

	for {
		abstractcs, ok := h.dm.Read(dmi.RegAbstractCS)
		if !ok {
			h.status = StatusBusError
			return 0, h.status
		}
		if abstractcs&dmi.AbstractCSBusy != 0 {
			continue
		}
		cmderr := dmi.AbstractCSCmdErr(abstractcs)
		h.status = statusFromCmdErr(cmderr)
		if cmderr != 0 {
			h.dm.Write(dmi.RegAbstractCS, cmderrClearMask)
		}
		break
	}
	if h.status != StatusNoError {
		return 0, h.status
	}
	if write {
		return 0, StatusNoError
	}

	lo, ok := h.dm.Read(dmi.RegData0)
	if !ok {
		h.status = StatusBusError
		return 0, h.status
	}
	value64 := uint64(lo)
	if width >= 64 {
		hi, ok := h.dm.Read(dmi.RegData1)
		if !ok {
			h.status = StatusBusError
			return 0, h.status
		}
		value64 |= uint64(hi) << 32
	}
	return value64, StatusNoError
}

// detectTriggerCount probes tselect/tinfo to count the hardware
// triggers this hart exposes (capped at 8, spec §3).
func (h *Hart) detectTriggerCount() int {
	count := 0
	for i := 0; i < 8; i++ {
		if !h.WriteCSR(trigger.CSRTSelect, uint32(i)) {
			break
		}
		readback, ok := h.ReadCSR(trigger.CSRTSelect)
		if !ok || readback != uint32(i) {
			break
		}
		count++
	}
	return count
}
