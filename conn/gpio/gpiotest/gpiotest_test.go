// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpiotest

import (
	"testing"

	"github.com/riscv-probe/rvdtm/conn/gpio"
)

func TestPin(t *testing.T) {
	p := &Pin{N: "GPIO1", Num: 10, Fn: "JTAG_TDI"}
	// pin.Pin
	if s := p.String(); s != "GPIO1(10)" {
		t.Fatal(s)
	}
	if n := p.Number(); n != 10 {
		t.Fatal(n)
	}
	if n := p.Name(); n != "GPIO1" {
		t.Fatal(n)
	}
	if f := p.Function(); f != "JTAG_TDI" {
		t.Fatal(f)
	}
	// gpio.PinIn
	if err := p.In(gpio.Down); err != nil {
		t.Fatal(err)
	}
	if l := p.Read(); l != gpio.Low {
		t.Fatal(l)
	}
	if err := p.In(gpio.Up); err != nil {
		t.Fatal(err)
	}
	if l := p.Read(); l != gpio.High {
		t.Fatal(l)
	}
	if pull := p.Pull(); pull != gpio.Up {
		t.Fatal(pull)
	}
	// gpio.PinOut
	if err := p.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if l := p.Read(); l != gpio.Low {
		t.Fatal(l)
	}
}

func TestLogPinIO(t *testing.T) {
	p := &Pin{N: "GPIO1"}
	l := &LogPinIO{p}
	if l.Real() != p {
		t.Fatal("unexpected real pin")
	}
	// gpio.PinIn
	if err := l.In(gpio.PullNoChange); err != nil {
		t.Fatal(err)
	}
	if v := l.Read(); v != gpio.Low {
		t.Fatalf("unexpected level %v", v)
	}
	// gpio.PinOut
	if err := l.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if v := l.Read(); v != gpio.High {
		t.Fatalf("unexpected level %v", v)
	}
}

func TestRegister(t *testing.T) {
	gpio2 := &Pin{N: "test-gpio2", Num: 2, Fn: "JTAG_TCK"}
	if err := gpio.Register(gpio2); err != nil {
		t.Fatal(err)
	}
	if gpio.ByName("test-gpio2") != gpio.PinIO(gpio2) {
		t.Fatal("expected test-gpio2 to be registered")
	}
	if gpio.ByName("test-gpio-missing") != nil {
		t.Fatal("test-gpio-missing should not exist")
	}
}
