// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package probecfg loads a probe profile: which physical transport to
// drive, which GPIO pins carry which signal, the TCK/CLK divider, and
// any vendor hook override. A profile is a small YAML file, the way
// tinyrange-cc's site-config.yml or guiperry-HASHER's device config
// are loaded: parsed once at startup, with missing fields left at
// their zero value rather than rejected, except transport, which is
// required.
package probecfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Transport selects which physical layer cmd/rvdtm drives.
type Transport string

const (
	// TransportJTAGBitbang drives JTAG over bit-banged GPIO pins.
	TransportJTAGBitbang Transport = "jtag-bitbang"
	// TransportJTAGUSB drives JTAG over a CMSIS-DAP-style USB adapter.
	TransportJTAGUSB Transport = "jtag-usb"
	// TransportRVSWD drives RVSWD over bit-banged GPIO pins.
	TransportRVSWD Transport = "rvswd"
)

// PinMap names the GPIO pins backing a bit-banged transport, by the
// pin name as registered with conn/gpio (e.g. "GPIO4").
//
// Only the fields relevant to the selected Transport need be set: a
// jtag-bitbang profile leaves CLK/DIO empty, an rvswd profile leaves
// TCK/TDI/TDO/TMS/TRST empty.
type PinMap struct {
	TCK  string `yaml:"tck,omitempty"`
	TDI  string `yaml:"tdi,omitempty"`
	TDO  string `yaml:"tdo,omitempty"`
	TMS  string `yaml:"tms,omitempty"`
	TRST string `yaml:"trst,omitempty"`

	CLK string `yaml:"clk,omitempty"`
	DIO string `yaml:"dio,omitempty"`
}

// VendorHookOverride forces a specific {designer_code, arch_id, impl_id}
// vendor hook to run regardless of what the discovered hart actually
// reports, for boards whose debug ROM misreports one of the three IDs.
type VendorHookOverride struct {
	DesignerCode uint32 `yaml:"designer_code"`
	ArchID       uint32 `yaml:"arch_id"`
	ImplID       uint32 `yaml:"impl_id"`
}

// Profile is the full set of knobs a probe session is configured with.
type Profile struct {
	Transport Transport `yaml:"transport"`
	Pins      PinMap    `yaml:"pins"`

	// ClockDivider is the software bit-bang delay loop count (spec §4.1's
	// "target_clk_divider"); 0 means "use the driver's default".
	ClockDivider uint32 `yaml:"clock_divider,omitempty"`

	// USBVendorID/USBProductID select a specific CMSIS-DAP-style adapter
	// when more than one is attached.
	USBVendorID  uint16 `yaml:"usb_vendor_id,omitempty"`
	USBProductID uint16 `yaml:"usb_product_id,omitempty"`

	VendorHook *VendorHookOverride `yaml:"vendor_hook,omitempty"`
}

// Load reads and parses a profile YAML file at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("probecfg: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("probecfg: parsing %s: %w", path, err)
	}
	if p.Transport == "" {
		return nil, fmt.Errorf("probecfg: %s: transport is required", path)
	}
	return &p, nil
}
