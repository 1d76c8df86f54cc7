// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hart

import (
	"errors"

	"github.com/riscv-probe/rvdtm/dmi"
)

// haltRequest implements spec §4.5's halt_request: write
// dmcontrol=hartsel|haltreq, poll dmstatus.allhalted, clear haltreq.
func (h *Hart) haltRequest() error {
	if !h.dm.Write(dmi.RegDMControl, h.hartSel|dmi.DMControlHaltReq) {
		return errors.New("hart: haltreq write failed")
	}
	for {
		dmstatus, ok := h.dm.Read(dmi.RegDMStatus)
		if !ok {
			return errors.New("hart: dmstatus read failed while halting")
		}
		if dmstatus&dmi.DMStatusAllHalted != 0 {
			break
		}
	}
	if !h.dm.Write(dmi.RegDMControl, h.hartSel) {
		return errors.New("hart: haltreq clear failed")
	}
	return nil
}

// resume implements spec §4.5's resume(hart, step): configure dcsr's
// step/stepie bits, then write dmcontrol=hartsel|resumereq and poll
// dmstatus.allresumeack.
func (h *Hart) resume(step bool) error {
	dcsr, status := h.readCSRWidth(CSRDCSR, 32)
	if status != StatusNoError {
		return errors.New("hart: dcsr read failed before resume")
	}
	if step {
		dcsr |= dcsrStep | dcsrStepIE
	} else {
		dcsr &^= dcsrStep | dcsrStepIE
	}
	if status := h.writeCSRWidth(CSRDCSR, 32, dcsr); status != StatusNoError {
		return errors.New("hart: dcsr write failed before resume")
	}

	if !h.dm.Write(dmi.RegDMControl, h.hartSel|dmi.DMControlResumeReq) {
		return errors.New("hart: resumereq write failed")
	}
	for {
		dmstatus, ok := h.dm.Read(dmi.RegDMStatus)
		if !ok {
			return errors.New("hart: dmstatus read failed while resuming")
		}
		if dmstatus&dmi.DMStatusAllResumeAck != 0 {
			break
		}
	}
	return h.dm.Write(dmi.RegDMControl, h.hartSel)
}

// Attach implements spec §4.5's attach(target): re-select the DMI and
// re-latch hartsel in case of bus disturbance.
func (h *Hart) Attach() error {
	if err := h.dm.Prepare(); err != nil {
		return err
	}
	if !h.dm.Write(dmi.RegDMControl, h.hartSel) {
		return errors.New("hart: failed to re-latch hartsel on attach")
	}
	return nil
}

// Detach implements spec §4.5's detach(target): quiesce the transport.
func (h *Hart) Detach() error {
	return h.dm.Quiesce()
}
