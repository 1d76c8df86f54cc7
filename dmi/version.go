// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dmi

// Version is the RISC-V External Debug protocol version reported by a
// transport's dtmcs/dmstatus version field (spec §4.2).
type Version uint8

const (
	// VersionUnknown means the version field decoded to a value this
	// package does not recognize.
	VersionUnknown Version = iota
	// VersionUnimpl means "no debug module present": a dmstatus
	// version field of 0 (see DecodeDMStatusVersion).
	VersionUnimpl
	// VersionV011 is the 0.11 draft. Recognized but not driven: once a
	// DMI reports this version it is discarded (spec §3 invariant).
	VersionV011
	// VersionV13 covers both 0.13 and 1.0: the dtmcs version field does
	// not distinguish them (spec §4.2, §9 open question). v1.0-only
	// features such as hasresethaltreq are not exercised here.
	VersionV13
)

func (v Version) String() string {
	switch v {
	case VersionUnimpl:
		return "unimplemented"
	case VersionV011:
		return "0.11"
	case VersionV13:
		return "0.13/1.0"
	default:
		return "unknown"
	}
}

// DecodeVersion maps a raw 4-bit dtmcs version field to a Version
// (dmstatus uses DecodeDMStatusVersion) (spec §4.2: "0→v0.11; 1→v0.13/v1.0 (indistinguishable...)").
func DecodeVersion(field uint8) Version {
	switch field & 0xf {
	case 0:
		return VersionV011
	case 1:
		return VersionV13
	default:
		return VersionUnknown
	}
}

// DecodeDMStatusVersion maps dmstatus's version field (spec §6,
// §4.3 step 2). Unlike dtmcs, dmstatus distinguishes 0.13 from 1.0
// (scenario 1 uses "version=2" for a working 0.13 DM): 0 means no DM
// present, 1 is 0.11, 2 and 3 both map to VersionV13 for the same
// reason dtmcs collapses them (spec §4.2, §9 open question).
func DecodeDMStatusVersion(field uint8) Version {
	switch field & 0xf {
	case 0:
		return VersionUnimpl
	case 1:
		return VersionV011
	case 2, 3:
		return VersionV13
	default:
		return VersionUnknown
	}
}

// Usable reports whether a DMI reporting this version should be kept
// around. Per spec §3 a DMI is discarded once its version is unknown or
// unimplemented; scenario 3 additionally discards a recognized-but-
// unsupported v0.11 transport ("v0.11 not presently supported"), so
// v0.11 is unusable here too even though it decoded successfully.
func (v Version) Usable() bool {
	return v == VersionV13
}
