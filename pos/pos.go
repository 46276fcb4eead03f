// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pos provides source positions, spans, and the macro-hygiene
// store for a language front end.
//
// A position is an absolute byte offset from the beginning of the
// session's address space (see the codemap package, which assigns each
// file a disjoint range of that space). A Span is a pair of positions
// plus a SyntaxContext recording the chain of macro expansions that
// produced the code, so that later phases can resolve names hygienically
// and explain generated code to a human.
//
// The hygiene machinery follows the MTWT discipline of Flatt et al.,
// "Macros that work together: Compile-time bindings, partial expansion,
// and definition contexts" (J. Funct. Program. 22(2), 2012).
package pos

// A BytePos is an absolute byte offset. It is kept small (32 bits)
// because syntax trees contain a great many of them.
type BytePos uint32

// A CharPos is a character offset within a line. Because of multibyte
// UTF-8 characters, a byte offset is not equivalent to a character
// offset; the codemap converts between the two.
type CharPos int
