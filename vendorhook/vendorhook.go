// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package vendorhook implements spec §4.7's vendor-quirk hook table: a
// per-{designer, arch, impl} preparation function run exactly once after
// a hart is discovered.
package vendorhook

import (
	"fmt"

	"github.com/riscv-probe/rvdtm/target"
	"github.com/rs/zerolog"
)

// key identifies a hart implementation for hook lookup.
type key struct {
	designerCode uint32
	archID       uint32
	implID       uint32
}

// Hook is run once, after discovery, against the just-discovered
// target.
type Hook func(t *target.Target) error

var registry = map[key]Hook{}

// Register installs hook for the given {designer, arch, impl} triple.
// Intended to be called from package init functions, mirroring the
// probe backend registry's MustRegister convention.
func Register(designerCode, archID, implID uint32, hook Hook) {
	registry[key{designerCode, archID, implID}] = hook
}

// Override forces Run to look up the hook for a specific {designer,
// arch, impl} triple instead of the target's own identity fields, for
// boards whose debug ROM misreports one of the three (wired from a
// probe profile's vendor_hook override,
// internal/probecfg.VendorHookOverride). Process-wide, in the spirit
// of conn/jtag's ClockDivider knob (spec §4.1's "target_clk_divider").
var Override *OverrideKey

// OverrideKey is the {designer, arch, impl} triple Run consults in
// place of a target's own identity fields when Override is set.
type OverrideKey struct {
	DesignerCode uint32
	ArchID       uint32
	ImplID       uint32
}

// Run looks up and invokes the hook matching t's identity fields (or
// Override's, if set), if any. A missing hook is not an error: most
// vendors need no quirks. A hook that fails logs a warning but does
// not abort discovery (spec §7's propagation policy).
func Run(t *target.Target, log zerolog.Logger) {
	lookup := key{t.DesignerCode, t.ArchID, t.ImplID}
	if Override != nil {
		lookup = key{Override.DesignerCode, Override.ArchID, Override.ImplID}
	}
	hook, ok := registry[lookup]
	if !ok {
		return
	}
	if err := hook(t); err != nil {
		log.Warn().Err(err).Str("cpuid", t.CPUID).Msg("vendorhook: preparation failed, continuing discovery")
	}
}

func init() {
	// Espressif ESP32-C3 (spec §4.7, scenario 6): designer=JEP106
	// Espressif, arch_id=0x80000001, impl_id=0x00000001. Disables the
	// watchdogs that would otherwise reset the core while halted.
	Register(jep106Espressif, 0x80000001, 0x00000001, esp32c3DisableWatchdogs)
}

// jep106Espressif is Espressif Systems' JEP-106 manufacturer code.
const jep106Espressif = 0x6b

// Watchdog write-protect key for the ESP32-C3's TIMG0/TIMG1/RTC/"super"
// watchdogs (spec §4.7); the register addresses are listed in
// esp32c3DisableWatchdogs.
const (
	wdtWriteProtectKey = 0x50D83AA1
)

func esp32c3DisableWatchdogs(t *target.Target) error {
	if t.MemWrite == nil {
		return fmt.Errorf("vendorhook: target has no MemWrite")
	}
	// Register addresses for TIMG0, TIMG1, RTC and "super" WDT
	// write-protect and CONFIG0 registers on the ESP32-C3.
	wdts := []struct{ wkey, config0 uint32 }{
		{0x6001F064, 0x6001F048}, // TIMG0
		{0x60020064, 0x60020048}, // TIMG1
		{0x600080A8, 0x60008090}, // RTC
		{0x600080AC, 0x600080A0}, // "super" WDT
	}
	le := func(v uint32) []byte {
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}
	for _, w := range wdts {
		if err := t.MemWrite(w.wkey, le(wdtWriteProtectKey)); err != nil {
			return err
		}
		if err := t.MemWrite(w.config0, le(0)); err != nil {
			return err
		}
	}
	return nil
}
