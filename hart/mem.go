// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hart

import (
	"encoding/binary"
	"errors"

	"github.com/riscv-probe/rvdtm/dmi"
)

// chooseWidth implements spec §4.4's memory-access width selection:
// "compute align_mask = (1 << native_mem_width_log2) - 1, bitwise-OR
// the low bits of address and length, and pick the largest width whose
// mask bits are all zero."
func chooseWidth(nativeWidthBytes int, address, length uint32) int {
	for w := nativeWidthBytes; w > 1; w >>= 1 {
		mask := uint32(w - 1)
		if (address|length)&mask == 0 {
			return w
		}
	}
	return 1
}

func (h *Hart) nativeMemWidthBytes() int {
	switch h.addressWidth {
	case 64:
		return 8
	case 128:
		return 16
	default:
		return 4
	}
}

func (h *Hart) waitSBReady() (uint32, error) {
	for {
		sbcs, ok := h.dm.Read(dmi.RegSBCS)
		if !ok {
			return 0, errors.New("hart: sbcs read failed")
		}
		if sbcs&dmi.SBCSBusyError != 0 {
			h.dm.Write(dmi.RegSBCS, dmi.SBCSBusyError)
			return sbcs, errors.New("hart: system bus access reported an error")
		}
		if sbcs&dmi.SBCSBusy == 0 {
			return sbcs, nil
		}
	}
}

// MemRead reads len(data) bytes from target memory at address, using
// the largest aligned transfer width spec §4.4 allows.
func (h *Hart) MemRead(address uint32, data []byte) error {
	width := chooseWidth(h.nativeMemWidthBytes(), address, uint32(len(data)))
	for offset := 0; offset < len(data); offset += width {
		sbcs := dmi.SBCSAccess(width) | dmi.SBCSReadOnAddr
		if !h.dm.Write(dmi.RegSBCS, sbcs) {
			return errors.New("hart: sbcs write failed")
		}
		if !h.dm.Write(dmi.RegSBAddress0, address+uint32(offset)) {
			return errors.New("hart: sbaddress0 write failed")
		}
		if _, err := h.waitSBReady(); err != nil {
			return err
		}
		value, ok := h.dm.Read(dmi.RegSBData0)
		if !ok {
			return errors.New("hart: sbdata0 read failed")
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, value)
		copy(data[offset:offset+width], buf[:width])
	}
	return nil
}

// MemWrite writes data to target memory at address, using the largest
// aligned transfer width spec §4.4 allows.
func (h *Hart) MemWrite(address uint32, data []byte) error {
	width := chooseWidth(h.nativeMemWidthBytes(), address, uint32(len(data)))
	for offset := 0; offset < len(data); offset += width {
		sbcs := dmi.SBCSAccess(width)
		if !h.dm.Write(dmi.RegSBCS, sbcs) {
			return errors.New("hart: sbcs write failed")
		}
		if !h.dm.Write(dmi.RegSBAddress0, address+uint32(offset)) {
			return errors.New("hart: sbaddress0 write failed")
		}
		buf := make([]byte, 4)
		copy(buf[:width], data[offset:offset+width])
		value := binary.LittleEndian.Uint32(buf)
		if !h.dm.Write(dmi.RegSBData0, value) {
			return errors.New("hart: sbdata0 write failed")
		}
		if _, err := h.waitSBReady(); err != nil {
			return err
		}
	}
	return nil
}
