// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dm implements the Debug Module registry (spec §4.3): walking
// the `nextdm` chain, activating each DM, discovering its hartsel
// width, and enumerating the harts behind it.
package dm

import (
	"fmt"

	"github.com/riscv-probe/rvdtm/dmi"
	"github.com/riscv-probe/rvdtm/hart"
	"github.com/rs/zerolog"
)

// DebugModule is one Debug Module behind a DMI (spec §3). It owns its
// harts directly, per spec §9's parent-owned-arena guidance: there is
// no back-pointer ref-count between Hart and DebugModule, only this
// struct's Harts slice.
type DebugModule struct {
	transport *dmi.DMI
	base      uint32
	version   dmi.Version
	hartMax   uint32
	harts     []*hart.Hart

	log zerolog.Logger
}

// Read implements hart.DM: a register read at this DM's base+offset.
func (d *DebugModule) Read(offset uint32) (uint32, bool) { return d.transport.Read(d.base + offset) }

// Write implements hart.DM: a register write at this DM's base+offset.
func (d *DebugModule) Write(offset, value uint32) bool {
	return d.transport.Write(d.base+offset, value)
}

// Prepare implements hart.DM by forwarding to the owning DMI.
func (d *DebugModule) Prepare() error { return d.transport.Prepare() }

// Quiesce implements hart.DM by forwarding to the owning DMI.
func (d *DebugModule) Quiesce() error { return d.transport.Quiesce() }

var _ hart.DM = &DebugModule{}

// Base returns the DMI address offset at which this DM's register
// window begins.
func (d *DebugModule) Base() uint32 { return d.base }

// Version returns the DM's reported protocol version.
func (d *DebugModule) Version() dmi.Version { return d.version }

// Harts returns the harts discovered behind this DM, in discovery
// order.
func (d *DebugModule) Harts() []*hart.Hart { return d.harts }

// Enumerate walks the `nextdm` chain starting at DMI address 0
// (spec §4.3): for each present, non-unimpl DM it activates dmactive,
// discovers the hartsel width, probes harts until `allnonexistent`,
// and runs hart discovery (spec §4.4) on each one found.
func Enumerate(transport *dmi.DMI, log zerolog.Logger) ([]*DebugModule, error) {
	var dms []*DebugModule
	visited := map[uint32]bool{}
	base := uint32(0)

	for {
		if visited[base] {
			log.Warn().Uint32("base", base).Msg("dm: nextdm chain revisited a base, stopping (spec §9 open question)")
			break
		}
		visited[base] = true

		dmstatus, ok := transport.Read(base + dmi.RegDMStatus)
		if !ok {
			return dms, fmt.Errorf("dm: dmstatus read failed at base %#x", base)
		}
		versionField := dmi.DMStatusVersion(dmstatus)
		version := dmi.DecodeDMStatusVersion(versionField)

		switch {
		case versionField == 0:
			log.Debug().Uint32("base", base).Msg("dm: no DM present at this base")

		case version == dmi.VersionUnknown:
			log.Warn().Uint32("base", base).Uint8("version_field", versionField).Msg("dm: unrecognized dmstatus version, skipping (still consulted for nextdm)")

		default:
			d := &DebugModule{
				transport: transport,
				base:      base,
				version:   version,
				log:       log.With().Uint32("dm_base", base).Logger(),
			}
			if err := d.activate(); err != nil {
				log.Warn().Err(err).Uint32("base", base).Msg("dm: activation failed, skipping")
			} else {
				transport.Acquire()
				if err := d.discoverHarts(); err != nil {
					log.Warn().Err(err).Uint32("base", base).Msg("dm: hart discovery incomplete")
				}
				dms = append(dms, d)
			}
		}

		nextdm, ok := transport.Read(base + dmi.RegNextDM)
		if !ok || nextdm == 0 {
			break
		}
		base = nextdm
	}
	return dms, nil
}

// activate implements spec §4.3 step 3: set dmactive, then probe the
// hartsel width by writing all-ones and reading back what stuck.
func (d *DebugModule) activate() error {
	if !d.Write(dmi.RegDMControl, dmi.DMControlDMActive) {
		return fmt.Errorf("dm: dmactive write failed")
	}
	allOnes := dmi.HartSelField(0xfffff, dmi.DMControlDMActive)
	if !d.Write(dmi.RegDMControl, allOnes) {
		return fmt.Errorf("dm: hartsel probe write failed")
	}
	readback, ok := d.Read(dmi.RegDMControl)
	if !ok {
		return fmt.Errorf("dm: hartsel probe read failed")
	}
	hartsello := (readback >> 6) & 0x3ff
	hartselhi := (readback >> 16) & 0x3ff
	d.hartMax = hartsello | (hartselhi << 10)
	return d.Write(dmi.RegDMControl, dmi.DMControlDMActive)
}

// discoverHarts implements spec §4.3 steps 4-5: probe hartsel 0..hartMax
// for existence via allnonexistent, discovering each hart that exists.
func (d *DebugModule) discoverHarts() error {
	designerCode := d.transport.DesignerCode()
	for idx := uint32(0); idx <= d.hartMax; idx++ {
		sel := dmi.HartSelField(idx, dmi.DMControlDMActive)
		if !d.Write(dmi.RegDMControl, sel) {
			return fmt.Errorf("dm: hartsel write failed for hart %d", idx)
		}
		dmstatus, ok := d.Read(dmi.RegDMStatus)
		if !ok {
			return fmt.Errorf("dm: dmstatus read failed for hart %d", idx)
		}
		if dmstatus&dmi.DMStatusAllNonExistent != 0 {
			break
		}
		h, err := hart.Discover(d, idx, designerCode, d.log)
		if err != nil {
			d.log.Warn().Err(err).Uint32("hart", idx).Msg("dm: hart discovery failed, skipping")
			continue
		}
		d.harts = append(d.harts, h)
	}
	return nil
}
