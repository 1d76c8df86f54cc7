// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/riscv-probe/rvdtm/dm"
	"github.com/riscv-probe/rvdtm/hart"
	"github.com/spf13/cobra"
)

var (
	dmIndex   int
	hartIndex int
)

func init() {
	for _, c := range []*cobra.Command{haltCmd, resumeCmd} {
		c.Flags().IntVar(&dmIndex, "dm", 0, "index of the Debug Module to target, in discovery order")
		c.Flags().IntVar(&hartIndex, "hart", 0, "index of the hart to target, in discovery order")
	}
}

var haltCmd = &cobra.Command{
	Use:   "halt",
	Short: "Halt a discovered hart",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		transport, err := openDMI(log)
		if err != nil {
			return err
		}
		dms, err := dm.Enumerate(transport, log)
		defer release(transport, len(dms))
		if err != nil {
			return err
		}
		h, err := selectHart(dms, dmIndex, hartIndex)
		if err != nil {
			return err
		}
		if err := h.Target().HaltRequest(); err != nil {
			return fmt.Errorf("rvdtm: halt failed: %w", err)
		}
		fmt.Printf("dm%d hart%d halted\n", dmIndex, h.HartID())
		return nil
	},
}

func selectHart(dms []*dm.DebugModule, dmIdx, hartIdx int) (*hart.Hart, error) {
	if dmIdx < 0 || dmIdx >= len(dms) {
		return nil, fmt.Errorf("rvdtm: --dm %d out of range (found %d Debug Modules)", dmIdx, len(dms))
	}
	harts := dms[dmIdx].Harts()
	if hartIdx < 0 || hartIdx >= len(harts) {
		return nil, fmt.Errorf("rvdtm: --hart %d out of range (dm%d has %d harts)", hartIdx, dmIdx, len(harts))
	}
	return harts[hartIdx], nil
}
