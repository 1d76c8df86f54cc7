// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import (
	"fmt"
	"log"
	"testing"
)

func ExampleAll() {
	fmt.Print("GPIO pins available:\n")
	for _, pin := range All() {
		fmt.Printf("- %s: %s\n", pin, pin.Function())
	}
}

func ExampleByFunction() {
	for _, f := range []string{"JTAG_TCK", "JTAG_TDI"} {
		fmt.Printf("%s: %s\n", f, ByFunction(f))
	}
}

func ExampleByName() {
	p := ByName("GPIO6")
	if p == nil {
		log.Fatal("Failed to find GPIO6")
	}
	fmt.Printf("%s: %s\n", p, p.Function())
}

func TestInvalid(t *testing.T) {
	if INVALID.In(Float) != errInvalidPin {
		t.Fail()
	}
	if INVALID.Out(Low) != errInvalidPin {
		t.Fail()
	}
}

func TestRegister_duplicate(t *testing.T) {
	p := &BasicPin{N: "dup-test-pin"}
	if err := Register(p); err != nil {
		t.Fatal(err)
	}
	if err := Register(p); err == nil {
		t.Fatal("expected error registering the same pin name twice")
	}
}

func TestMapFunction(t *testing.T) {
	p := &BasicPin{N: "func-test-pin"}
	MapFunction("TEST_FUNC", p)
	if ByFunction("TEST_FUNC") != PinIO(p) {
		t.Fatal("MapFunction/ByFunction round-trip failed")
	}
}

func TestAreInGPIOTest(t *testing.T) {
	// Real tests are in gpiotest due to cyclic dependency.
}
