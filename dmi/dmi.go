// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dmi implements the version-agnostic Debug Module Interface
// (DMI) transport (spec §4.2): read/write against a DM register address
// space, the non-negotiable busy-retry algorithm with idle-cycle
// auto-tuning, and DMI reset on busy-exhaustion or failure.
//
// A DMI is backed by a Backend (JTAG or RVSWD); the retry algorithm
// itself is backend-agnostic and lives here.
package dmi

import (
	"errors"

	"github.com/rs/zerolog"
)

// maxIdleCycles is the idle_cycles cap beyond which a recurring busy
// result is escalated to failure (spec §3, §4.2 step 2).
const maxIdleCycles = 8

// ErrUnsupportedVersion is returned by Init when the transport reports
// an unusable protocol version (spec §3 invariant, scenario 3).
var ErrUnsupportedVersion = errors.New("dmi: unsupported or unrecognized protocol version")

// DMI is one physical debug transport: a version, an idle-cycle count
// that auto-tunes on busy responses, and a reference count of the
// Debug Modules that depend on it (spec §3).
//
// DMI does not hold back-pointers to its DMs; the owning arena (see
// package dm) tracks that relationship by index, per spec §9's
// parent-owned-arena guidance.
type DMI struct {
	backend      Backend
	version      Version
	idleCycles   uint8
	addressWidth uint8
	fault        Fault
	designerCode uint32
	refCount     int

	log zerolog.Logger
}

// Init probes backend for its protocol version and wraps it in a DMI if
// usable. It is the entry point upper layers call as `dmi_init`
// (spec §6).
func Init(backend Backend, log zerolog.Logger) (*DMI, error) {
	version, addrWidth, idle, err := backend.DetectVersion()
	if err != nil {
		return nil, err
	}
	if !version.Usable() {
		log.Warn().Stringer("version", version).Msg("dmi: protocol version not presently supported")
		_ = backend.Close()
		return nil, ErrUnsupportedVersion
	}
	designer, _ := backend.DesignerCode()
	d := &DMI{
		backend:      backend,
		version:      version,
		idleCycles:   idle,
		addressWidth: addrWidth,
		designerCode: designer,
		log:          log,
	}
	log.Info().Stringer("version", d.version).Uint8("address_width", d.addressWidth).Uint8("idle_cycles", d.idleCycles).Msg("dmi: transport ready")
	return d, nil
}

// Version returns the detected protocol version.
func (d *DMI) Version() Version { return d.version }

// AddressWidth returns the DMI address field width in bits.
func (d *DMI) AddressWidth() uint8 { return d.addressWidth }

// Fault returns the status of the last transaction.
func (d *DMI) Fault() Fault { return d.fault }

// DesignerCode returns the JEP-106 code extracted from the transport,
// if any (spec §4.4 step 6 falls back to mvendorid when this is zero).
func (d *DMI) DesignerCode() uint32 { return d.designerCode }

// Acquire increments the DMI's reference count. Called when a DM is
// created against it.
func (d *DMI) Acquire() { d.refCount++ }

// Release decrements the DMI's reference count, closing the backend
// once it reaches zero.
func (d *DMI) Release() error {
	d.refCount--
	if d.refCount > 0 {
		return nil
	}
	return d.backend.Close()
}

// Read issues a DMI read transaction, applying the busy-retry algorithm.
// It reports ok=false on unrecoverable failure.
func (d *DMI) Read(address uint32) (value uint32, ok bool) {
	return d.transact(RWRead, address, 0)
}

// Write issues a DMI write transaction, applying the busy-retry
// algorithm.
func (d *DMI) Write(address, value uint32) (ok bool) {
	_, ok = d.transact(RWWrite, address, value)
	return ok
}

// Prepare re-selects the DMI on the transport after an attach.
func (d *DMI) Prepare() error { return d.backend.Prepare() }

// Quiesce parks the transport between attachments.
func (d *DMI) Quiesce() error { return d.backend.Quiesce() }

// transact implements spec §4.2's "Busy handling algorithm
// (non-negotiable)":
//  1. Perform the shift. If busy, bump idle_cycles (capped at 8), reset
//     the DMI, and retry the whole operation.
//  2. If idle_cycles is already 8 and busy recurs, escalate to failure.
//  3. On failure, reset the DMI and report false.
func (d *DMI) transact(rw RW, address, writeValue uint32) (uint32, bool) {
	for {
		value, fault, err := d.backend.Transact(rw, address, d.addressWidth, writeValue)
		if err != nil {
			d.fault = FaultNoResponse
			d.log.Error().Err(err).Msg("dmi: transport produced no response")
			return 0, false
		}
		switch fault {
		case FaultNone:
			d.fault = FaultNone
			return value, true

		case FaultBusy:
			if d.idleCycles >= maxIdleCycles {
				d.log.Error().Msg("dmi: busy persisted at idle_cycles=8, escalating to failure")
				d.fault = FaultFailure
				_ = d.backend.Reset()
				return 0, false
			}
			d.idleCycles++
			d.log.Warn().Uint8("idle_cycles", d.idleCycles).Msg("dmi: busy, retrying with more idle cycles")
			if err := d.backend.Reset(); err != nil {
				d.fault = FaultNoResponse
				return 0, false
			}
			continue

		case FaultFailure:
			d.fault = FaultFailure
			d.log.Error().Msg("dmi: transaction failed")
			_ = d.backend.Reset()
			return 0, false

		default:
			d.fault = FaultFailure
			return 0, false
		}
	}
}
