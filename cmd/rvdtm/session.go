// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	probe "github.com/riscv-probe/rvdtm"
	"github.com/riscv-probe/rvdtm/conn/gpio"
	"github.com/riscv-probe/rvdtm/conn/jtag"
	"github.com/riscv-probe/rvdtm/conn/jtag/usbprobe"
	"github.com/riscv-probe/rvdtm/conn/rvswd"
	"github.com/riscv-probe/rvdtm/dmi"
	"github.com/riscv-probe/rvdtm/internal/probecfg"
	"github.com/riscv-probe/rvdtm/vendorhook"
	"github.com/rs/zerolog"
)

// openDMI loads --profile, brings up probe.Init() and the physical
// transport it names, and hands back a ready-to-use DMI.
func openDMI(log zerolog.Logger) (*dmi.DMI, error) {
	if profilePath == "" {
		return nil, errors.New("rvdtm: --profile is required")
	}
	if _, err := probe.Init(); err != nil {
		return nil, fmt.Errorf("rvdtm: probe init: %w", err)
	}

	p, err := probecfg.Load(profilePath)
	if err != nil {
		return nil, err
	}
	if p.ClockDivider != 0 {
		jtag.ClockDivider = p.ClockDivider
	}
	if p.VendorHook != nil {
		vendorhook.Override = &vendorhook.OverrideKey{
			DesignerCode: p.VendorHook.DesignerCode,
			ArchID:       p.VendorHook.ArchID,
			ImplID:       p.VendorHook.ImplID,
		}
	}

	backend, err := openBackend(p)
	if err != nil {
		return nil, err
	}
	return dmi.Init(backend, log)
}

func openBackend(p *probecfg.Profile) (dmi.Backend, error) {
	switch p.Transport {
	case probecfg.TransportJTAGBitbang:
		adapter, err := openBitbangJTAG(p.Pins)
		if err != nil {
			return nil, err
		}
		return dmi.NewJTAGBackend("jtag-bitbang", adapter, 0), nil

	case probecfg.TransportJTAGUSB:
		adapter, err := usbprobe.Open("usbprobe", p.USBVendorID, p.USBProductID)
		if err != nil {
			return nil, fmt.Errorf("rvdtm: opening USB probe: %w", err)
		}
		return dmi.NewJTAGBackend("jtag-usb", adapter, 0), nil

	case probecfg.TransportRVSWD:
		adapter, err := openBitbangRVSWD(p.Pins)
		if err != nil {
			return nil, err
		}
		return dmi.NewRVSWDBackend("rvswd", adapter), nil

	default:
		return nil, fmt.Errorf("rvdtm: unknown transport %q", p.Transport)
	}
}

func openBitbangJTAG(pins probecfg.PinMap) (*jtag.BitBang, error) {
	tck, err := pin(pins.TCK, "tck")
	if err != nil {
		return nil, err
	}
	tdi, err := pin(pins.TDI, "tdi")
	if err != nil {
		return nil, err
	}
	tdo, err := pin(pins.TDO, "tdo")
	if err != nil {
		return nil, err
	}
	tms, err := pin(pins.TMS, "tms")
	if err != nil {
		return nil, err
	}
	trst := gpio.PinIO(gpio.INVALID)
	if pins.TRST != "" {
		trst, err = pin(pins.TRST, "trst")
		if err != nil {
			return nil, err
		}
	}
	return jtag.NewBitBang("jtag-bitbang", tck, tdi, tdo, tms, trst)
}

func openBitbangRVSWD(pins probecfg.PinMap) (*rvswd.BitBang, error) {
	clk, err := pin(pins.CLK, "clk")
	if err != nil {
		return nil, err
	}
	dio, err := pin(pins.DIO, "dio")
	if err != nil {
		return nil, err
	}
	return rvswd.NewBitBang("rvswd-bitbang", clk, dio)
}

func pin(name, role string) (gpio.PinIO, error) {
	if name == "" {
		return nil, fmt.Errorf("rvdtm: profile is missing a %s pin", role)
	}
	p := gpio.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("rvdtm: no GPIO pin named %q for %s", name, role)
	}
	return p, nil
}

// release drains the DMI's reference count back to zero, closing the
// backend. dm.Enumerate calls transport.Acquire() once per DM it keeps,
// so releasing fewer times would leak the transport open.
func release(transport *dmi.DMI, dmCount int) {
	n := dmCount
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		_ = transport.Release()
	}
}
