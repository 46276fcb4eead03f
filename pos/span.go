// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pos

import (
	"encoding/json"
	"fmt"
)

// A Span is a region of code: an absolute byte range plus the syntax
// context recording how the code came to exist. Positions are absolute
// offsets into the session's address space, not offsets within a file;
// the codemap relates them back to files. Spans are plain values and
// compare structurally, context included; use SourceEqual to compare
// byte ranges alone.
type Span struct {
	Lo   BytePos
	Hi   BytePos
	Ctxt SyntaxContext
}

// DummySpan is the canonical placeholder span.
var DummySpan = Span{}

// EndPoint returns a span covering just the end point of s.
func (s Span) EndPoint() Span {
	lo := s.Lo
	if s.Hi > 0 && s.Hi-1 > lo {
		lo = s.Hi - 1
	}
	s.Lo = lo
	return s
}

// NextPoint returns a span for the next character after the end of s.
func (s Span) NextPoint() Span {
	lo := s.Lo + 1
	if s.Hi > lo {
		lo = s.Hi
	}
	s.Lo = lo
	s.Hi = lo
	return s
}

// SubstituteDummy returns other if s has the dummy span's byte range,
// and s otherwise.
func (s Span) SubstituteDummy(other Span) Span {
	if s.SourceEqual(DummySpan) {
		return other
	}
	return s
}

// Contains reports whether s's byte range contains other's. Contexts
// are ignored.
func (s Span) Contains(other Span) bool {
	return s.Lo <= other.Lo && other.Hi <= s.Hi
}

// SourceEqual reports whether two spans cover the same bytes of source
// text, ignoring their contexts. Use this instead of == when either
// span could be generated code.
func (s Span) SourceEqual(other Span) bool {
	return s.Lo == other.Lo && s.Hi == other.Hi
}

// TrimStart returns s with its start trimmed to the end of other, and
// true; or the zero span and false if other extends past s's end.
func (s Span) TrimStart(other Span) (Span, bool) {
	if s.Hi <= other.Hi {
		return Span{}, false
	}
	if other.Hi > s.Lo {
		s.Lo = other.Hi
	}
	return s, true
}

// To returns a span enclosing both s and end. If end carries the empty
// context, end's code is plain unexpanded source and is authoritative,
// so the result takes end's context; otherwise s's context wins. This
// tie-break decides which expansion's hygiene governs a span joined
// across an expansion boundary.
func (s Span) To(end Span) Span {
	if end.Ctxt == NoExpansion {
		return Span{Lo: s.Lo, Hi: end.Hi, Ctxt: end.Ctxt}
	}
	return Span{Lo: s.Lo, Hi: end.Hi, Ctxt: s.Ctxt}
}

// Between returns the span of the gap between s and end, with the same
// context tie-break as To.
func (s Span) Between(end Span) Span {
	ctxt := s.Ctxt
	if end.Ctxt == NoExpansion {
		ctxt = end.Ctxt
	}
	return Span{Lo: s.Hi, Hi: end.Lo, Ctxt: ctxt}
}

// Until returns the span from s's start up to end's start, with the
// same context tie-break as To.
func (s Span) Until(end Span) Span {
	ctxt := s.Ctxt
	if end.Ctxt == NoExpansion {
		ctxt = end.Ctxt
	}
	return Span{Lo: s.Lo, Hi: end.Lo, Ctxt: ctxt}
}

// SourceCallsite walks the expansion provenance of s outward and
// returns the span of the original macro invocation in plain source, or
// s itself if s was not produced by expansion.
func (s Span) SourceCallsite(st *Store) Span {
	for {
		info := s.Ctxt.Outer(st).ExpnInfo(st)
		if info == nil {
			return s
		}
		s = info.CallSite
	}
}

// SourceCallee returns the callee metadata of the outermost expansion
// that produced s, or nil if s has no expansion provenance.
func (s Span) SourceCallee(st *Store) *NameAndSpan {
	info := s.Ctxt.Outer(st).ExpnInfo(st)
	if info == nil {
		return nil
	}
	for {
		next := info.CallSite.Ctxt.Outer(st).ExpnInfo(st)
		if next == nil {
			callee := info.Callee
			return &callee
		}
		info = next
	}
}

// AllowsUnstable reports whether s is internal to a macro that may use
// unstable features.
func (s Span) AllowsUnstable(st *Store) bool {
	if info := s.Ctxt.Outer(st).ExpnInfo(st); info != nil {
		return info.Callee.AllowInternalUnstable
	}
	return false
}

// A MacroBacktrace is one level of a span's expansion history.
type MacroBacktrace struct {
	// CallSite is where the macro was applied to generate this code.
	CallSite Span
	// MacroDeclName is the rendered name of the macro that was
	// applied, e.g. "foo!" or "#[derive(Eq)]".
	MacroDeclName string
	// DefSiteSpan is where the macro was defined, if known.
	DefSiteSpan *Span
}

// MacroBacktrace returns the expansion steps that produced s, innermost
// first. A level whose call site covers the same bytes as the level
// below it is a macro-internal recursive step and is omitted.
func (s Span) MacroBacktrace(st *Store) []MacroBacktrace {
	var result []MacroBacktrace
	prev := DummySpan
	for {
		info := s.Ctxt.Outer(st).ExpnInfo(st)
		if info == nil {
			return result
		}
		var name string
		switch info.Callee.Format.Kind {
		case MacroAttribute:
			name = fmt.Sprintf("#[%s]", st.Name(info.Callee.Name()))
		case MacroBang:
			name = fmt.Sprintf("%s!", st.Name(info.Callee.Name()))
		case CompilerDesugaring:
			name = fmt.Sprintf("desugaring of `%s`", st.Name(info.Callee.Name()))
		}

		// Don't report recursive invocations.
		if !info.CallSite.SourceEqual(prev) {
			result = append(result, MacroBacktrace{
				CallSite:      info.CallSite,
				MacroDeclName: name,
				DefSiteSpan:   info.Callee.Span,
			})
		}

		prev = s
		s = info.CallSite
	}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d..%d)%s", s.Lo, s.Hi, s.Ctxt)
}

type spanJSON struct {
	Lo BytePos `json:"lo"`
	Hi BytePos `json:"hi"`
}

// MarshalJSON encodes only the byte range; hygiene identity is not
// preserved across serialization boundaries.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal(spanJSON{s.Lo, s.Hi})
}

// UnmarshalJSON decodes a byte range; the context is always the empty
// context.
func (s *Span) UnmarshalJSON(data []byte) error {
	var v spanJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Span{Lo: v.Lo, Hi: v.Hi}
	return nil
}
