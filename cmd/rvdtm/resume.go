// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/riscv-probe/rvdtm/dm"
	"github.com/spf13/cobra"
)

var singleStep bool

func init() {
	resumeCmd.Flags().BoolVar(&singleStep, "step", false, "single-step instead of free-running")
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a halted hart",
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
		if err := h.Target().HaltResume(singleStep); err != nil {
			return fmt.Errorf("rvdtm: resume failed: %w", err)
		}
		fmt.Printf("dm%d hart%d resumed (step=%v)\n", dmIndex, h.HartID(), singleStep)
		return nil
	},
}
