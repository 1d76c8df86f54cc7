// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hart implements per-hart CSR and memory access via Abstract
// Commands, ISA discovery with width negotiation, and hart execution
// control (spec §4.4, §4.5).
package hart

import (
	"errors"
	"fmt"

	"github.com/riscv-probe/rvdtm/dmi"
	"github.com/riscv-probe/rvdtm/target"
	"github.com/riscv-probe/rvdtm/trigger"
	"github.com/riscv-probe/rvdtm/vendorhook"
	"github.com/rs/zerolog"
)

// Hart is one hardware thread behind a Debug Module (spec §3).
type Hart struct {
	dm         DM
	hartIndex  uint32
	hartSel    uint32 // pre-computed dmcontrol value selecting this hart, dmactive held set

	accessWidth  uint8 // 0, 32, 64 or 128
	addressWidth uint8
	status       Status
	extensions   uint32
	vendorID     uint32
	archID       uint32
	implID       uint32
	hartID       uint32
	core         string
	inactive     bool

	triggers    int
	triggerUses *trigger.Mediator

	target *target.Target
	log    zerolog.Logger
}

// Discover probes one hart known to exist behind dm (spec §4.4): it
// requests a halt, negotiates access width via misa, reads identity
// CSRs, runs the vendor hook and resumes the hart.
func Discover(dm DM, hartIndex uint32, transportDesignerCode uint32, log zerolog.Logger) (*Hart, error) {
	h := &Hart{
		dm:        dm,
		hartIndex: hartIndex,
		hartSel:   dmi.HartSelField(hartIndex, dmi.DMControlDMActive),
		core:      "RISC-V",
		log:       log.With().Uint32("hart", hartIndex).Logger(),
	}

	if err := h.haltRequest(); err != nil {
		return nil, fmt.Errorf("hart: halt request failed: %w", err)
	}

	abstractcs, ok := dm.Read(dmi.RegAbstractCS)
	if !ok {
		return nil, errors.New("hart: abstractcs read failed")
	}
	width := datacountToWidth(dmi.AbstractCSDataCount(abstractcs))

	var misa uint64
	var status Status
	for {
		misa, status = h.readCSRWidth(CSRMisa, width)
		if status == StatusNoError {
			break
		}
		switch width {
		case 128:
			width = 64
			continue
		case 64:
			width = 32
			continue
		}
		h.accessWidth = 0
		return nil, fmt.Errorf("hart: misa read failed at every width (last status %v)", status)
	}
	h.accessWidth = width
	h.addressWidth = xlenFromMisa(misa, width)
	h.extensions = uint32(misa) & 0x03ffffff

	vendorID, _ := h.readCSRWidth(CSRMVendorID, 32)
	archID, _ := h.readCSRWidth(CSRMArchID, 32)
	implID, _ := h.readCSRWidth(CSRMImplID, 32)
	hartID, _ := h.readCSRWidth(CSRMHartID, 32)
	h.vendorID = uint32(vendorID)
	h.archID = uint32(archID)
	h.implID = uint32(implID)
	h.hartID = uint32(hartID)

	if h.addressWidth == 128 {
		h.core = "(unsup) rv128"
		h.inactive = true
		h.log.Warn().Msg("hart: rv128 is unsupported, marking target inactive")
	}

	designerCode := h.vendorID
	if designerCode == 0 {
		designerCode = transportDesignerCode
	}

	h.triggers = h.detectTriggerCount()
	h.triggerUses = trigger.NewMediator(h, h.triggers)

	h.target = h.buildTarget(designerCode)
	vendorhook.Run(h.target, h.log)

	if err := h.resume(false); err != nil {
		return nil, fmt.Errorf("hart: resume after discovery failed: %w", err)
	}

	return h, nil
}

func (h *Hart) buildTarget(designerCode uint32) *target.Target {
	t := target.New(h.core, fmt.Sprintf("hart%d", h.hartIndex), designerCode, h.archID, h.implID)
	t.Attach = h.Attach
	t.Detach = h.Detach
	t.CheckError = h.checkError
	t.HaltRequest = h.haltRequest
	t.HaltResume = h.resume
	t.MemRead = h.MemRead
	t.MemWrite = h.MemWrite
	return t
}

// AccessWidth returns the hart's native Abstract Command width
// (32, 64 or 128).
func (h *Hart) AccessWidth() uint8 { return h.accessWidth }

// AddressWidth returns the hart's memory address width in bits.
func (h *Hart) AddressWidth() uint8 { return h.addressWidth }

// Extensions returns the low 26 bits of misa (the ISA extension
// bitmap).
func (h *Hart) Extensions() uint32 { return h.extensions }

// VendorID, ArchID, ImplID and HartID return the identity CSRs read
// during discovery.
func (h *Hart) VendorID() uint32 { return h.vendorID }
func (h *Hart) ArchID() uint32   { return h.archID }
func (h *Hart) ImplID() uint32   { return h.implID }
func (h *Hart) HartID() uint32   { return h.hartID }

// Core is the human-readable core string, e.g. "RISC-V" or
// "(unsup) rv128".
func (h *Hart) Core() string { return h.core }

// Inactive reports whether this hart was marked inactive during
// discovery (currently only for rv128, spec §4.4 step 5).
func (h *Hart) Inactive() bool { return h.inactive }

// Status returns the status derived from the last Abstract Command.
func (h *Hart) Status() Status { return h.status }

// Target returns the target record published for this hart.
func (h *Hart) Target() *target.Target { return h.target }

// Triggers returns the trigger mediator for this hart's hardware
// trigger slots.
func (h *Hart) Triggers() *trigger.Mediator { return h.triggerUses }

func (h *Hart) checkError() error {
	if h.status == StatusNoError {
		return nil
	}
	return fmt.Errorf("hart: last operation status %v", h.status)
}

func datacountToWidth(datacount uint8) uint8 {
	switch datacount {
	case 4:
		return 128
	case 2:
		return 64
	default:
		return 32
	}
}

// xlenFromMisa extracts the XLEN field from misa's high bits
// (spec §4.4 step 3).
func xlenFromMisa(misa uint64, width uint8) uint8 {
	var xlenField uint64
	switch width {
	case 64:
		xlenField = (misa >> 62) & 0x3
	default:
		xlenField = (misa >> 30) & 0x3
	}
	switch xlenField {
	case 1:
		return 32
	case 2:
		return 64
	case 3:
		return 128
	default:
		return width
	}
}
