// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package usbprobe implements jtag.Adapter over a CMSIS-DAP-style USB
// debug probe, using github.com/google/gousb the way
// experimental/host/usbbus drives a USB peripheral in the teacher: open
// a context, find the device by VID/PID, claim a configuration and
// interface, open the bulk endpoints, and exchange fixed-format command
// packets.
package usbprobe

import (
	"fmt"
	"sync"

	"github.com/google/gousb"
	"github.com/riscv-probe/rvdtm/conn/jtag"
	probe "github.com/riscv-probe/rvdtm"
)

// CMSIS-DAP command bytes this driver exercises. Only the subset needed
// to shift a JTAG TAP chain is implemented; DAP_TransferConfigure,
// DAP_SWD_*, and the other families in the full specification go
// unused here.
const (
	cmdDAPInfo        = 0x00
	cmdDAPConnect     = 0x02
	cmdDAPDisconnect  = 0x03
	cmdDAPResetTarget = 0x0a
	cmdDAPSWJClock    = 0x11
	cmdDAPJTAGSeq     = 0x14

	dapPortJTAG = 2

	dapInfoVendorID = 0x01
	dapInfoProduct  = 0x02
)

// Default VID/PID recognized when the caller doesn't name one: this is
// the well-known CMSIS-DAP bulk VID/PID pairing many boards reuse.
const (
	defaultVID = gousb.ID(0x0d28)
	defaultPID = gousb.ID(0x0204)
)

// Adapter drives a JTAG TAP chain over a CMSIS-DAP bulk USB endpoint
// pair. It implements jtag.Adapter.
type Adapter struct {
	name string
	vid  gousb.ID
	pid  gousb.ID

	mu      sync.Mutex
	ctx     *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	epOut   *gousb.OutEndpoint
	epIn    *gousb.InEndpoint
	speedHz int
}

// Open claims a CMSIS-DAP USB device by vendor/product ID (0 picks the
// package default for each) and switches it into JTAG mode.
func Open(name string, vid, pid uint16) (*Adapter, error) {
	a := &Adapter{name: name, vid: gousb.ID(vid), pid: gousb.ID(pid), speedHz: 1_000_000}
	if a.vid == 0 {
		a.vid = defaultVID
	}
	if a.pid == 0 {
		a.pid = defaultPID
	}

	a.ctx = gousb.NewContext()
	dev, err := a.ctx.OpenDeviceWithVIDPID(a.vid, a.pid)
	if err != nil {
		a.ctx.Close()
		return nil, fmt.Errorf("usbprobe: open %04x:%04x: %w", a.vid, a.pid, err)
	}
	if dev == nil {
		a.ctx.Close()
		return nil, fmt.Errorf("usbprobe: no device matching %04x:%04x", a.vid, a.pid)
	}
	a.dev = dev

	cfg, err := dev.Config(1)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("usbprobe: set config: %w", err)
	}
	a.cfg = cfg

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("usbprobe: claim interface: %w", err)
	}
	a.intf = intf

	epOut, err := intf.OutEndpoint(1)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("usbprobe: open OUT endpoint: %w", err)
	}
	a.epOut = epOut

	epIn, err := intf.InEndpoint(1)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("usbprobe: open IN endpoint: %w", err)
	}
	a.epIn = epIn

	if err := a.connect(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Adapter) String() string { return a.name }

func (a *Adapter) exchange(cmd []byte, respLen int) ([]byte, error) {
	if _, err := a.epOut.Write(cmd); err != nil {
		return nil, fmt.Errorf("usbprobe: write: %w", err)
	}
	resp := make([]byte, respLen)
	if _, err := a.epIn.Read(resp); err != nil {
		return nil, fmt.Errorf("usbprobe: read: %w", err)
	}
	if resp[0] != cmd[0] {
		return nil, fmt.Errorf("usbprobe: response to command %#x echoed %#x", cmd[0], resp[0])
	}
	return resp, nil
}

func (a *Adapter) connect() error {
	if _, err := a.exchange([]byte{cmdDAPConnect, dapPortJTAG}, 2); err != nil {
		return fmt.Errorf("usbprobe: DAP_Connect: %w", err)
	}
	return nil
}

// Info implements jtag.Adapter.
func (a *Adapter) Info() (jtag.AdapterInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	vendor, _ := a.exchange([]byte{cmdDAPInfo, dapInfoVendorID}, 64)
	product, _ := a.exchange([]byte{cmdDAPInfo, dapInfoProduct}, 64)
	return jtag.AdapterInfo{
		Name:         a.name,
		Vendor:       string(stringPayload(vendor)),
		Model:        string(stringPayload(product)),
		MinFrequency: 1000,
		MaxFrequency: 10_000_000,
		SupportsSRST: true,
		SupportsTRST: true,
	}, nil
}

func stringPayload(resp []byte) []byte {
	if len(resp) < 2 {
		return nil
	}
	n := int(resp[1])
	if 2+n > len(resp) {
		n = len(resp) - 2
	}
	return resp[2 : 2+n]
}

// jtagSeq is one CMSIS-DAP DAP_JTAG_Sequence entry: tckCount clock
// pulses with TMS held at a single value, TDI supplied one bit per
// pulse, and TDO optionally captured.
type jtagSeq struct {
	tckCount int
	tms      bool
	capture  bool
	tdi      []byte
}

func (s jtagSeq) infoByte() byte {
	b := byte(s.tckCount & 0x3f)
	if s.tckCount == 64 {
		b = 0
	}
	if s.tms {
		b |= 1 << 6
	}
	if s.capture {
		b |= 1 << 7
	}
	return b
}

// runSequences sends one DAP_JTAG_Sequence command covering all of seqs
// and returns the captured TDO bytes of every sequence marked capture,
// concatenated in order.
func (a *Adapter) runSequences(seqs []jtagSeq) ([]byte, error) {
	cmd := []byte{cmdDAPJTAGSeq, byte(len(seqs))}
	respBytes := 1
	for _, s := range seqs {
		cmd = append(cmd, s.infoByte())
		cmd = append(cmd, s.tdi...)
		if s.capture {
			respBytes += (s.tckCount + 7) / 8
		}
	}
	resp, err := a.exchange(cmd, respBytes)
	if err != nil {
		return nil, err
	}
	return resp[1:], nil
}

func bitsToSeqs(tms bool, tdi []byte, bits int, capture bool) []jtagSeq {
	var seqs []jtagSeq
	for done := 0; done < bits; {
		n := bits - done
		if n > 64 {
			n = 64
		}
		nbytes := (n + 7) / 8
		chunk := make([]byte, nbytes)
		copyBits(chunk, tdi, done, n)
		seqs = append(seqs, jtagSeq{tckCount: n, tms: tms, capture: capture, tdi: chunk})
		done += n
	}
	return seqs
}

// copyBits copies the n bits of src starting at bit offset start into
// the low bits of dst (LSB-first), the same convention jtag.Adapter
// uses for its ShiftDR buffers.
func copyBits(dst, src []byte, start, n int) {
	for i := 0; i < n; i++ {
		srcIdx, srcBit := (start+i)/8, uint((start+i)%8)
		if srcIdx >= len(src) {
			break
		}
		bit := (src[srcIdx] >> srcBit) & 1
		if bit != 0 {
			dst[i/8] |= 1 << uint(i%8)
		}
	}
}

func extractBits(dst []byte, src []byte, n int) {
	for i := 0; i < n; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		if (src[byteIdx]>>bitIdx)&1 != 0 {
			dst[i/8] |= 1 << uint(i%8)
		}
	}
}

// TAP TMS header/trailer sequences, read as runs of identical TMS
// value applied on successive TCK pulses from Run-Test-Idle — the same
// navigation jtag.BitBang drives bit by bit, collapsed here into
// CMSIS-DAP's one-TMS-value-per-sequence format.
func tmsHeaderIR() []jtagSeq {
	return []jtagSeq{{tckCount: 2, tms: true}, {tckCount: 2, tms: false}} // "1100": Select-DR,Select-IR,Capture-IR,Shift-IR
}

func tmsHeaderDR() []jtagSeq {
	return []jtagSeq{{tckCount: 1, tms: true}, {tckCount: 2, tms: false}} // "100": Select-DR,Capture-DR,Shift-DR
}

func tmsResetSeq() []jtagSeq {
	return []jtagSeq{{tckCount: 5, tms: true}, {tckCount: 1, tms: false}} // "111110"
}

// shiftRegister runs header, shifts `bits` bits of value (LSB first,
// TMS high on the last bit to exit into Exit1-IR/DR), then Update and
// Run-Test-Idle, mirroring BitBang.WriteIR/ShiftDR's state walk.
func (a *Adapter) shiftRegister(header []jtagSeq, value []byte, bits int, capture []byte) error {
	seqs := append([]jtagSeq{}, header...)
	if bits > 0 {
		seqs = append(seqs, bitsToSeqs(false, value, bits-1, capture != nil)...)
		last := byte(0)
		if (value[(bits-1)/8]>>uint((bits-1)%8))&1 != 0 {
			last = 1
		}
		seqs = append(seqs, jtagSeq{tckCount: 1, tms: true, capture: capture != nil, tdi: []byte{last}}) // Exit1
	}
	seqs = append(seqs, jtagSeq{tckCount: 1, tms: true})  // Update
	seqs = append(seqs, jtagSeq{tckCount: 1, tms: false}) // Run-Test-Idle

	resp, err := a.runSequences(seqs)
	if err != nil {
		return err
	}
	if capture != nil {
		for i := range capture {
			capture[i] = 0
		}
		extractBits(capture, resp, bits)
	}
	return nil
}

// WriteIR implements jtag.Adapter. It supports a single TAP in the
// chain: deviceIndex must be 0.
func (a *Adapter) WriteIR(deviceIndex int, ir uint32, bits int) error {
	if deviceIndex != 0 {
		return fmt.Errorf("usbprobe: single-TAP chain only")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	buf := make([]byte, 4)
	for i := 0; i < bits; i++ {
		if (ir>>uint(i))&1 != 0 {
			buf[i/8] |= 1 << uint(i%8)
		}
	}
	return a.shiftRegister(tmsHeaderIR(), buf, bits, nil)
}

// ShiftDR implements jtag.Adapter.
func (a *Adapter) ShiftDR(deviceIndex int, tdi, tdo []byte, bits int) error {
	if deviceIndex != 0 {
		return fmt.Errorf("usbprobe: single-TAP chain only")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shiftRegister(tmsHeaderDR(), tdi, bits, tdo)
}

// ReturnToIdle implements jtag.Adapter.
func (a *Adapter) ReturnToIdle(idleCycles int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if idleCycles <= 0 {
		return nil
	}
	seqs := bitsToSeqs(false, make([]byte, (idleCycles+7)/8), idleCycles, false)
	_, err := a.runSequences(seqs)
	return err
}

// ResetTAP implements jtag.Adapter.
func (a *Adapter) ResetTAP(hard bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if hard {
		_, err := a.exchange([]byte{cmdDAPResetTarget}, 3)
		return err
	}
	seqs := append(tmsResetSeq(), jtagSeq{tckCount: 1, tms: false})
	_, err := a.runSequences(seqs)
	return err
}

// SetSpeed implements jtag.Adapter.
func (a *Adapter) SetSpeed(hz int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if hz <= 0 {
		return fmt.Errorf("usbprobe: speed must be positive")
	}
	cmd := []byte{cmdDAPSWJClock, byte(hz), byte(hz >> 8), byte(hz >> 16), byte(hz >> 24)}
	if _, err := a.exchange(cmd, 2); err != nil {
		return err
	}
	a.speedHz = hz
	return nil
}

// Close implements jtag.Adapter: disconnects and releases the USB
// device in the reverse order it was acquired.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.epOut != nil || a.epIn != nil {
		_, _ = a.exchange([]byte{cmdDAPDisconnect}, 2)
	}
	if a.intf != nil {
		a.intf.Close()
	}
	if a.cfg != nil {
		_ = a.cfg.Close()
	}
	if a.dev != nil {
		_ = a.dev.Close()
	}
	if a.ctx != nil {
		_ = a.ctx.Close()
	}
	return nil
}

var _ jtag.Adapter = &Adapter{}

// driver self-registers with probe so cmd/rvdtm can bring up a USB
// adapter through probe.Init() the way periph's usbbus driver
// registers itself for host peripheral discovery.
type driver struct{}

func (d *driver) String() string { return "usbprobe" }

func (d *driver) Init() (bool, error) {
	// Scanning and opening a specific VID/PID happens on demand via
	// Open(), driven by an internal/probecfg.Profile; there is nothing
	// generic to bring up at process start.
	return true, nil
}

func init() {
	probe.MustRegister(&driver{})
}
