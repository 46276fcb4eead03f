// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var debug bool

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

var rootCmd = &cobra.Command{
	Use:   "garando",
	Short: "Inspect source positions and macro expansion traces",
	Long: `Garando maps session-wide byte offsets back to file, line, and
column, and replays macro expansion traces so the provenance of any
span can be examined.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(backtraceCmd)
	rootCmd.AddCommand(replCmd)
}
