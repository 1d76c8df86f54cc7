// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/riscv-probe/rvdtm/dm"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Walk the DMI, print every Debug Module and hart found behind it",
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
		if len(dms) == 0 {
			fmt.Println("no Debug Modules found")
			return nil
		}

		for i, d := range dms {
			fmt.Printf("dm%d  base=%#x  version=%s  harts=%d\n", i, d.Base(), d.Version(), len(d.Harts()))
			for _, h := range d.Harts() {
				status := "active"
				if h.Inactive() {
					status = "inactive"
				}
				fmt.Printf("  hart%d  %s  access=%d  address=%d  vendor=%#x  arch=%#x  impl=%#x  triggers=%d  %s\n",
					h.HartID(), h.Core(), h.AccessWidth(), h.AddressWidth(), h.VendorID(), h.ArchID(), h.ImplID(), h.Triggers().Count(), status)
			}
		}
		return nil
	},
}
