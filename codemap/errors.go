// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codemap

import (
	"fmt"

	"github.com/GreenBeard/garando/pos"
)

// IllFormedSpanError reports a span whose start lies after its end.
type IllFormedSpanError struct {
	Span pos.Span
}

func (e *IllFormedSpanError) Error() string {
	return fmt.Sprintf("ill-formed span %v", e.Span)
}

// DistinctSourcesError reports a span whose endpoints lie in different
// files.
type DistinctSourcesError struct {
	BeginName string
	BeginPos  pos.BytePos
	EndName   string
	EndPos    pos.BytePos
}

func (e *DistinctSourcesError) Error() string {
	return fmt.Sprintf("span crosses files: begins in %s (at %d), ends in %s (at %d)",
		e.BeginName, e.BeginPos, e.EndName, e.EndPos)
}

// MalformedPositionsError reports file-local offsets that do not fit
// the file's source.
type MalformedPositionsError struct {
	Name      string
	SourceLen int
	BeginPos  pos.BytePos
	EndPos    pos.BytePos
}

func (e *MalformedPositionsError) Error() string {
	return fmt.Sprintf("malformed positions %d..%d in %s (source length %d)",
		e.BeginPos, e.EndPos, e.Name, e.SourceLen)
}

// SourceNotAvailableError reports a snippet request against an
// imported file whose text was not loaded.
type SourceNotAvailableError struct {
	Filename string
}

func (e *SourceNotAvailableError) Error() string {
	return fmt.Sprintf("source of %s not available", e.Filename)
}
