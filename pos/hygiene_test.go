// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pos

import "testing"

func TestApplyRemoveCancellation(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(m1)

	for _, base := range []SyntaxContext{
		NoExpansion,
		NoExpansion.ApplyMark(st, m1),
		NoExpansion.ApplyMark(st, m1).ApplyMark(st, m2),
	} {
		for _, m := range []Mark{m1, m2} {
			if base.Outer(st) == m {
				// Applying the outermost mark again cancels rather
				// than extends; see TestDoubleApplicationCancels.
				continue
			}
			c := base.ApplyMark(st, m)
			got := c.RemoveMark(st)
			if got != m {
				t.Errorf("RemoveMark after ApplyMark(%v, %v) = %v, want %v", base, m, got, m)
			}
			if c != base {
				t.Errorf("context after apply/remove of %v = %v, want %v", m, c, base)
			}
		}
	}
}

func TestDoubleApplicationCancels(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(RootMark)

	c := NoExpansion.ApplyMark(st, m1)
	if got := c.ApplyMark(st, m1); got != NoExpansion {
		t.Errorf("applying %v twice to the empty context = %v, want %v", m1, got, NoExpansion)
	}

	c12 := c.ApplyMark(st, m2)
	if got := c12.ApplyMark(st, m2); got != c {
		t.Errorf("re-applying outermost mark %v = %v, want %v", m2, got, c)
	}
}

func TestApplyMarkMemoized(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(RootMark)

	a := NoExpansion.ApplyMark(st, m1)
	b := NoExpansion.ApplyMark(st, m2)
	if a2 := NoExpansion.ApplyMark(st, m1); a2 != a {
		t.Errorf("second ApplyMark(empty, m1) = %v, want %v", a2, a)
	}
	if b2 := NoExpansion.ApplyMark(st, m2); b2 != b {
		t.Errorf("second ApplyMark(empty, m2) = %v, want %v", b2, b)
	}
	ab := a.ApplyMark(st, m2)
	if ab2 := a.ApplyMark(st, m2); ab2 != ab {
		t.Errorf("second ApplyMark(a, m2) = %v, want %v", ab2, ab)
	}
}

func TestScenarioFreshApply(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	c1 := NoExpansion.ApplyMark(st, m1)
	if c1 == NoExpansion {
		t.Fatalf("ApplyMark returned the empty context")
	}
	if got := c1.Outer(st); got != m1 {
		t.Errorf("c1.Outer = %v, want %v", got, m1)
	}
	if got := c1.ApplyMark(st, m1); got != NoExpansion {
		t.Errorf("c1.ApplyMark(m1) = %v, want %v", got, NoExpansion)
	}
}

func TestIsDescendantOf(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(m1)
	m3 := st.Fresh(RootMark)

	for _, test := range []struct {
		m, ancestor Mark
		want        bool
	}{
		{RootMark, RootMark, true},
		{m1, m1, true},
		{m2, m2, true},
		{m2, m1, true},
		{m2, RootMark, true},
		{m1, RootMark, true},
		{m1, m2, false},
		{m3, m1, false},
		{RootMark, m1, false},
	} {
		if got := test.m.IsDescendantOf(st, test.ancestor); got != test.want {
			t.Errorf("%v.IsDescendantOf(%v) = %t, want %t", test.m, test.ancestor, got, test.want)
		}
	}
}

func TestMarkModern(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(m1)
	m3 := st.Fresh(m2)

	if m3.IsModern(st) {
		t.Errorf("fresh mark is modern")
	}
	if got := m3.Modern(st); got != RootMark {
		t.Errorf("Modern with no modern ancestor = %v, want root", got)
	}

	m1.SetModern(st)
	if got := m3.Modern(st); got != m1 {
		t.Errorf("Modern = %v, want nearest modern ancestor %v", got, m1)
	}
	m3.SetModern(st)
	if got := m3.Modern(st); got != m3 {
		t.Errorf("Modern of a modern mark = %v, want itself", got)
	}
}

func TestModernProjection(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m1.SetModern(st)

	c1 := NoExpansion.ApplyMark(st, m1)
	if got := c1.Modern(st); got != c1 {
		t.Errorf("modern mark's context projection = %v, want the context itself %v", got, c1)
	}

	// A legacy mark leaves the projection untouched.
	legacy := st.Fresh(RootMark)
	c2 := c1.ApplyMark(st, legacy)
	if got := c2.Modern(st); got != c1 {
		t.Errorf("projection after legacy mark = %v, want %v", got, c1)
	}

	// A second modern mark extends the projection past the legacy one.
	m2 := st.Fresh(RootMark)
	m2.SetModern(st)
	c3 := c2.ApplyMark(st, m2)
	want := c1.ApplyMark(st, m2)
	if got := c3.Modern(st); got != want {
		t.Errorf("projection after modern mark = %v, want %v", got, want)
	}
	if got := c3.Modern(st).Modern(st); got != c3.Modern(st) {
		t.Errorf("projection is not idempotent: %v", got)
	}
}

func TestAdjust(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(RootMark)
	expansion := st.Fresh(m1)

	// Context [m1, m2], m2 outermost. The expansion descends from m1
	// but not m2, so exactly m2 is stripped.
	c := NoExpansion.ApplyMark(st, m1).ApplyMark(st, m2)
	scope, adjusted := c.Adjust(st, expansion)
	if !adjusted || scope != m2 {
		t.Errorf("Adjust = (%v, %t), want (%v, true)", scope, adjusted, m2)
	}
	if want := NoExpansion.ApplyMark(st, m1); c != want {
		t.Errorf("context after Adjust = %v, want %v", c, want)
	}

	// No stripping needed: ordinary resolution.
	if scope, adjusted := c.Adjust(st, expansion); adjusted {
		t.Errorf("second Adjust = (%v, true), want no adjustment", scope)
	}
	under := NoExpansion.ApplyMark(st, m1)
	if scope, adjusted := under.Adjust(st, m1); adjusted {
		t.Errorf("Adjust with expansion equal to outer mark = (%v, true), want no adjustment", scope)
	}
}

func TestGlobAdjust(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(RootMark)
	expansion := st.Fresh(m1)

	glob := NoExpansion.ApplyMark(st, m1).ApplyMark(st, m2)
	c := NoExpansion.ApplyMark(st, m1).ApplyMark(st, m2)
	scope, scoped, ok := c.GlobAdjust(st, expansion, glob)
	if !ok || !scoped || scope != m2 {
		t.Fatalf("GlobAdjust = (%v, %t, %t), want (%v, true, true)", scope, scoped, ok, m2)
	}
	if want := NoExpansion.ApplyMark(st, m1); c != want {
		t.Errorf("context after GlobAdjust = %v, want %v", c, want)
	}

	// ReverseGlobAdjust restores the stripped marks.
	scope, scoped, ok = c.ReverseGlobAdjust(st, expansion, glob)
	if !ok || !scoped || scope != m2 {
		t.Fatalf("ReverseGlobAdjust = (%v, %t, %t), want (%v, true, true)", scope, scoped, ok, m2)
	}
	if want := NoExpansion.ApplyMark(st, m1).ApplyMark(st, m2); c != want {
		t.Errorf("context after ReverseGlobAdjust = %v, want %v", c, want)
	}
}

func TestGlobAdjustDisagreement(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(RootMark)
	m3 := st.Fresh(RootMark)
	expansion := st.Fresh(m1)

	glob := NoExpansion.ApplyMark(st, m2)
	c := NoExpansion.ApplyMark(st, m3)
	if _, _, ok := c.GlobAdjust(st, expansion, glob); ok {
		t.Errorf("GlobAdjust succeeded despite mismatched marks")
	}
}

func TestGlobAdjustUnequalDepth(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	m2 := st.Fresh(RootMark)
	expansion := st.Fresh(m1)

	// glob still has a mark to strip but c has none left.
	glob := NoExpansion.ApplyMark(st, m2)
	c := NoExpansion
	if _, _, ok := c.GlobAdjust(st, expansion, glob); ok {
		t.Errorf("GlobAdjust succeeded with a shallower context")
	}

	// c deeper than glob: the leftover mark fails the final Adjust.
	c = NoExpansion.ApplyMark(st, m2).ApplyMark(st, m2a(st))
	glob = NoExpansion.ApplyMark(st, m2)
	if _, _, ok := c.GlobAdjust(st, expansion, glob); ok {
		t.Errorf("GlobAdjust succeeded with a deeper context")
	}
}

// m2a returns a mark unrelated to every other mark in the test.
func m2a(st *Store) Mark {
	return st.Fresh(RootMark)
}

func TestGlobAdjustNoStripping(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	expansion := st.Fresh(m1)

	glob := NoExpansion.ApplyMark(st, m1)
	c := NoExpansion.ApplyMark(st, m1)
	scope, scoped, ok := c.GlobAdjust(st, expansion, glob)
	if !ok || scoped {
		t.Errorf("GlobAdjust = (%v, %t, %t), want (0, false, true)", scope, scoped, ok)
	}
	if want := NoExpansion.ApplyMark(st, m1); c != want {
		t.Errorf("context changed to %v, want %v", c, want)
	}
}

func TestExpnInfo(t *testing.T) {
	st := NewStore()
	m := st.Fresh(RootMark)
	if info := m.ExpnInfo(st); info != nil {
		t.Fatalf("fresh mark has expansion info %+v", info)
	}

	name := st.Intern("vec")
	m.SetExpnInfo(st, ExpnInfo{
		CallSite: Span{Lo: 4, Hi: 14},
		Callee: NameAndSpan{
			Format: ExpnFormat{Kind: MacroBang, Name: name},
		},
	})
	info := m.ExpnInfo(st)
	if info == nil {
		t.Fatalf("expansion info not recorded")
	}
	if info.CallSite != (Span{Lo: 4, Hi: 14}) || info.Callee.Name() != name {
		t.Errorf("recorded info = %+v", info)
	}
}

func TestSetExpnInfoTwicePanics(t *testing.T) {
	st := NewStore()
	m := st.Fresh(RootMark)
	m.SetExpnInfo(st, ExpnInfo{})
	defer func() {
		if recover() == nil {
			t.Errorf("second SetExpnInfo did not panic")
		}
	}()
	m.SetExpnInfo(st, ExpnInfo{})
}

func TestRemoveMarkEmptyPanics(t *testing.T) {
	st := NewStore()
	c := NoExpansion
	defer func() {
		if recover() == nil {
			t.Errorf("RemoveMark on the empty context did not panic")
		}
	}()
	c.RemoveMark(st)
}

func TestForeignHandlePanics(t *testing.T) {
	st := NewStore()
	defer func() {
		if recover() == nil {
			t.Errorf("lookup of an unissued mark did not panic")
		}
	}()
	Mark(42).IsModern(st)
}

func TestClearMarkings(t *testing.T) {
	st := NewStore()
	m1 := st.Fresh(RootMark)
	c1 := NoExpansion.ApplyMark(st, m1)

	st.ClearMarkings()

	// Existing handles stay valid and the algebra still holds; only
	// de-duplication against pre-clear contexts is lost.
	if got := c1.Outer(st); got != m1 {
		t.Errorf("c1.Outer after ClearMarkings = %v, want %v", got, m1)
	}
	c2 := NoExpansion.ApplyMark(st, m1)
	if got := c2.Outer(st); got != m1 {
		t.Errorf("c2.Outer = %v, want %v", got, m1)
	}
	if got := c2.ApplyMark(st, m1); got != NoExpansion {
		t.Errorf("cancellation after ClearMarkings = %v, want %v", got, NoExpansion)
	}
}
