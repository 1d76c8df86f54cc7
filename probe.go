// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package probe is a registry of debug-probe transport backends.
//
// A physical transport driver (a USB CMSIS-DAP adapter, a bit-bang GPIO
// backend) registers itself in its package init() function by calling
// probe.MustRegister(). The user calls probe.Init() once at startup,
// the way cmd/rvdtm does before it opens a dmi.DMI, to initialize every
// registered backend.
//
// This mirrors periph.io's own host-driver registry (periph.Init()):
// the difference is what gets registered. Here a "driver" is a debug
// probe transport, not a host peripheral bus. Unlike periph's registry,
// drivers here don't depend on one another: a probe never has more than
// one self-registering transport driver active (the bit-bang JTAG/RVSWD
// backends are built directly from a loaded profile's GPIO pins in
// cmd/rvdtm, not through this registry), so Init() loads every
// registered driver in registration order.
package probe // import "github.com/riscv-probe/rvdtm"

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Driver is a debug-probe transport backend: a USB CMSIS-DAP adapter, a
// bit-bang GPIO JTAG/RVSWD driver, or similar.
type Driver interface {
	// String returns the name of the driver, as to be presented to the user.
	//
	// It must be unique in the list of registered drivers.
	String() string
	// Init initializes the driver.
	//
	// A driver may enter one of the three following state: loaded successfully,
	// was skipped as irrelevant on this host, failed to load.
	//
	// On success, it must return true, nil.
	//
	// When irrelevant (skipped), it must return false, errors.New(<reason>).
	//
	// On failure, it must return true, errors.New(<reason>). The failure must
	// state why it failed, for example an expected USB device that could not
	// be opened.
	Init() (bool, error)
}

// DriverFailure is a driver that wasn't loaded, either because it was skipped
// or because it failed to load.
type DriverFailure struct {
	D   Driver
	Err error
}

func (d DriverFailure) String() string {
	return fmt.Sprintf("%s: %v", d.D, d.Err)
}

// State is the state of loaded transport drivers.
//
// Each list is sorted by the driver name.
type State struct {
	Loaded  []Driver
	Skipped []DriverFailure
	Failed  []DriverFailure
}

// Init initializes every registered driver, in registration order.
//
// It is safe to call this function multiple times, the previous state is
// returned on later calls.
func Init() (*State, error) {
	mu.Lock()
	defer mu.Unlock()
	if state != nil {
		return state, nil
	}
	state = &State{}
	for _, d := range allDrivers {
		ok, err := d.Init()
		switch {
		case ok && err == nil:
			state.Loaded = append(state.Loaded, d)
		case ok:
			state.Failed = append(state.Failed, DriverFailure{d, err})
		default:
			state.Skipped = append(state.Skipped, DriverFailure{d, err})
		}
	}
	d := drivers(state.Loaded)
	sort.Sort(d)
	state.Loaded = d
	f := failures(state.Skipped)
	sort.Sort(f)
	state.Skipped = f
	f = failures(state.Failed)
	sort.Sort(f)
	state.Failed = f
	return state, nil
}

// Register registers a driver to be initialized automatically on Init().
//
// The d.String() value must be unique across all registered drivers.
//
// It is an error to call Register() after Init() was called.
func Register(d Driver) error {
	mu.Lock()
	defer mu.Unlock()
	if state != nil {
		return errors.New("probe: can't call Register() after Init()")
	}

	n := d.String()
	if _, ok := byName[n]; ok {
		return fmt.Errorf("probe: driver with same name %q was already registered", d)
	}
	byName[n] = d
	allDrivers = append(allDrivers, d)
	return nil
}

// MustRegister calls Register() and panics if registration fails.
//
// This is the function to call in a driver's package init() function.
func MustRegister(d Driver) {
	if err := Register(d); err != nil {
		panic(err)
	}
}

//

var (
	mu         sync.Mutex
	allDrivers []Driver
	byName     = map[string]Driver{}
	state      *State
)

type drivers []Driver

func (d drivers) Len() int           { return len(d) }
func (d drivers) Less(i, j int) bool { return d[i].String() < d[j].String() }
func (d drivers) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }

type failures []DriverFailure

func (f failures) Len() int           { return len(f) }
func (f failures) Less(i, j int) bool { return f[i].D.String() < f[j].D.String() }
func (f failures) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
