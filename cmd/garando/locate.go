// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/GreenBeard/garando/codemap"
	"github.com/GreenBeard/garando/pos"
)

var locateCmd = &cobra.Command{
	Use:   "locate <file> <offset>...",
	Short: "Map byte offsets in a file to line and column",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runLocate,
}

func runLocate(cmd *cobra.Command, args []string) error {
	cm := codemap.New()
	f, err := cm.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}
	logger.Debug("file loaded", "name", f.Name, "bytes", f.ByteLength(), "lines", f.CountLines())

	for _, arg := range args[1:] {
		off, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("bad offset %q: %w", arg, err)
		}
		if off >= uint64(f.ByteLength()) {
			return fmt.Errorf("offset %d is past the end of %s (%d bytes)", off, f.Name, f.ByteLength())
		}
		p := f.StartPos + pos.BytePos(off)
		loc := cm.LookupCharPos(p)
		fmt.Printf("%d\t%s:%d:%d\n", off, loc.File.Name, loc.Line, loc.Col+1)
	}
	return nil
}
