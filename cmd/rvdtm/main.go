// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command rvdtm is a small CLI over the RISC-V External Debug stack: it
// brings up a DMI transport from a probe profile, walks the Debug
// Module / hart topology behind it, and offers manual halt/resume for
// poking at a target without a full GDB remote-serial front end.
//
// It plays the role periph's one-verb-per-binary cmd/gpio-read,
// cmd/gpio-write tools play for host peripherals, collapsed into
// subcommands the way a cobra-based tool does it.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	profilePath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "rvdtm",
	Short:         "Inspect and control RISC-V harts over their External Debug interface",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "probe profile YAML file (see internal/probecfg)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.AddCommand(discoverCmd, haltCmd, resumeCmd)
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rvdtm: %v\n", err)
		os.Exit(1)
	}
}
