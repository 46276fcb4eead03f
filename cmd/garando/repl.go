// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/GreenBeard/garando/pos"
	"github.com/GreenBeard/garando/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively explore a hygiene store",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func runREPL(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("repl needs a terminal on stdin")
	}
	repl.REPL(pos.NewStore())
	return nil
}
