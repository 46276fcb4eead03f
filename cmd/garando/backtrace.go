// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GreenBeard/garando/trace"
)

var backtraceCmd = &cobra.Command{
	Use:   "backtrace <trace.yaml>",
	Short: "Replay an expansion trace and print each span's provenance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktrace,
}

func runBacktrace(cmd *cobra.Command, args []string) error {
	doc, err := trace.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("loading trace: %w", err)
	}
	s := doc.Replay()
	logger.Debug("trace replayed",
		"files", len(doc.Files), "expansions", len(doc.Expansions), "spans", len(s.Spans))

	for i, sp := range s.Spans {
		fmt.Printf("span %d: %s  ctxt %v\n", i, s.Map.SpanToString(sp), sp.Ctxt)
		if snippet, err := s.Map.SpanToSnippet(sp); err == nil {
			fmt.Printf("  %q\n", snippet)
		}
		for _, level := range sp.MacroBacktrace(s.Store) {
			fmt.Printf("  in expansion of %s at %s\n",
				level.MacroDeclName, s.Map.SpanToString(level.CallSite))
			if level.DefSiteSpan != nil {
				fmt.Printf("     defined at %s\n", s.Map.SpanToString(*level.DefSiteSpan))
			}
		}
	}
	return nil
}
