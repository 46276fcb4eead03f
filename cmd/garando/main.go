// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The garando command inspects source positions and macro expansion
// traces: it maps byte offsets to file:line:col, replays expansion
// traces recorded as YAML, and offers an interactive hygiene explorer.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
