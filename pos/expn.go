// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pos

// An ExpnKind says how a macro was invoked.
type ExpnKind int

const (
	// MacroAttribute is an attribute invocation, e.g. #[derive(...)].
	MacroAttribute ExpnKind = iota
	// MacroBang is a function-like invocation, e.g. format!().
	MacroBang
	// CompilerDesugaring is a synthetic expansion performed by the
	// compiler itself while lowering.
	CompilerDesugaring
)

func (k ExpnKind) String() string {
	switch k {
	case MacroAttribute:
		return "attribute"
	case MacroBang:
		return "bang"
	case CompilerDesugaring:
		return "desugaring"
	}
	return "unknown"
}

// An ExpnFormat describes the source of an expansion: what kind of
// invocation it was, and the name of the macro or desugaring.
type ExpnFormat struct {
	Kind ExpnKind
	Name Symbol
}

// A NameAndSpan carries the callee side of an expansion record.
type NameAndSpan struct {
	// Format is how the macro was invoked.
	Format ExpnFormat
	// AllowInternalUnstable marks macros that may use unstable
	// features internally without the whole crate opting in.
	AllowInternalUnstable bool
	// Span is the macro's own definition site, or nil when the
	// definition has no sensible span (e.g. built into the compiler).
	Span *Span
}

// Name returns the macro or desugaring name.
func (n NameAndSpan) Name() Symbol {
	return n.Format.Name
}

// ExpnInfo records where a mark's expansion was triggered and by what.
type ExpnInfo struct {
	// CallSite is the location of the macro invocation or desugared
	// construct. It may itself carry a non-empty context: if foo!()
	// expanded to a bar!() call, a span from bar!'s output has a call
	// site inside foo!'s output, whose own ExpnInfo points at the
	// foo!() invocation.
	CallSite Span
	// Callee describes the expansion itself.
	Callee NameAndSpan
}
