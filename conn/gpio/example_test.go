// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio_test

import (
	"fmt"
	"log"

	"github.com/riscv-probe/rvdtm/conn/gpio"
	"github.com/riscv-probe/rvdtm/conn/jtag"
)

func Example() {
	// Find a GPIO pin by name, the way a bit-bang JTAG adapter would once
	// the host's GPIO driver has registered its pins.
	p := gpio.ByName("GPIO6")
	if p == nil {
		log.Fatal("Failed to find GPIO6")
	}

	// A pin can be read, independent of its state; it doesn't matter if it is
	// set as input or output.
	fmt.Printf("%s is %s\n", p, p.Read())
}

func ExamplePinIn() {
	p := gpio.ByName("GPIO6")
	if p == nil {
		log.Fatal("Failed to find GPIO6")
	}

	// Set it as input, with a pull down; defaults to Low when unconnected.
	if err := p.In(gpio.Down); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s is %s\n", p, p.Read())
}

func ExamplePinOut() {
	p := gpio.ByName("GPIO6")
	if p == nil {
		log.Fatal("Failed to find GPIO6")
	}

	// Set the pin as output High, as a bit-bang JTAG driver does when it
	// drives TCK or TMS.
	if err := p.Out(gpio.High); err != nil {
		log.Fatal(err)
	}
}

func ExampleMapFunction() {
	// A probe configuration maps logical JTAG signal names onto whichever
	// GPIO the board wiring uses.
	tck := gpio.ByName("GPIO6")
	if tck == nil {
		log.Fatal("Failed to find GPIO6")
	}
	gpio.MapFunction(string(jtag.TCK), tck)

	p := gpio.ByFunction(string(jtag.TCK))
	fmt.Printf("JTAG_TCK is %s\n", p)
}
