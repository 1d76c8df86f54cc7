// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hart

// DM is the narrow contract a Hart needs from its owning Debug Module:
// register read/write against the DM's window (already offset by its
// base) plus the attach/detach transport hooks. The dm package's
// DebugModule implements this; hart does not import dm, to keep the
// parent-owned arena (DMI owns DMs, DM owns Harts) acyclic (spec §9).
type DM interface {
	Read(offset uint32) (value uint32, ok bool)
	Write(offset, value uint32) bool
	Prepare() error
	Quiesce() error
}
