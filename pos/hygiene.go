// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pos

import (
	"fmt"
	"sync"
)

// A Mark identifies one macro-expansion step. Marks are handles into a
// Store; the zero Mark is the root mark, standing for freshly parsed,
// unexpanded code.
type Mark uint32

// RootMark is the mark of the theoretical expansion that generates
// freshly parsed source. Every other mark descends from it.
const RootMark Mark = 0

// A SyntaxContext identifies a chain of macro expansions (a stack of
// marks layered onto NoExpansion). Contexts are handles into a Store;
// the zero context is the empty context.
type SyntaxContext uint32

// NoExpansion is the empty syntax context: code that was written by the
// user, not produced by any expansion.
const NoExpansion SyntaxContext = 0

type markData struct {
	parent   Mark
	modern   bool
	expnInfo *ExpnInfo
}

type ctxtData struct {
	outerMark Mark
	prevCtxt  SyntaxContext
	modern    SyntaxContext
}

type markingKey struct {
	ctxt SyntaxContext
	mark Mark
}

// A Store holds all hygiene state for one compilation session: the
// append-only arenas of marks and syntax contexts, the memoization
// cache for ApplyMark, the symbol interner, and the gensym map. Mark,
// SyntaxContext, and Symbol values are indices into a Store and are
// meaningless without it.
//
// Entries are only ever appended, so handles remain valid for the life
// of the store. A single mutex guards growth; every mutation is a short
// append, and handle values themselves are freely copyable across
// goroutines.
type Store struct {
	mu       sync.Mutex
	marks    []markData
	ctxts    []ctxtData
	markings map[markingKey]SyntaxContext

	names   []string
	symbols map[string]Symbol
	gensyms map[Symbol]SyntaxContext
}

// NewStore returns a store seeded with the root mark and the empty
// context.
func NewStore() *Store {
	return &Store{
		marks:    []markData{{}},
		ctxts:    []ctxtData{{}},
		markings: make(map[markingKey]SyntaxContext),
		symbols:  make(map[string]Symbol),
		gensyms:  make(map[Symbol]SyntaxContext),
	}
}

// Fresh appends a new mark whose parent is the given mark.
func (st *Store) Fresh(parent Mark) Mark {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.marks = append(st.marks, markData{parent: parent})
	return Mark(len(st.marks) - 1)
}

// NumMarks returns the number of marks issued so far, the root mark
// included.
func (st *Store) NumMarks() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.marks)
}

// NumContexts returns the number of syntax contexts created so far,
// the empty context included.
func (st *Store) NumContexts() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.ctxts)
}

// ClearMarkings drops the ApplyMark memoization cache. The mark and
// context tables are untouched, so existing handles stay valid; only
// the de-duplication of future ApplyMark calls is reset.
func (st *Store) ClearMarkings() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.markings = make(map[markingKey]SyntaxContext)
}

func (st *Store) markData(m Mark) *markData {
	if int(m) >= len(st.marks) {
		panic(fmt.Sprintf("pos: mark %d not issued by this store", m))
	}
	return &st.marks[m]
}

func (st *Store) ctxtData(c SyntaxContext) *ctxtData {
	if int(c) >= len(st.ctxts) {
		panic(fmt.Sprintf("pos: syntax context %d not issued by this store", c))
	}
	return &st.ctxts[c]
}

// Parent returns the parent of m.
func (m Mark) Parent(st *Store) Mark {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.markData(m).parent
}

// ExpnInfo returns the expansion provenance recorded for m, or nil if
// none has been recorded.
func (m Mark) ExpnInfo(st *Store) *ExpnInfo {
	st.mu.Lock()
	defer st.mu.Unlock()
	info := st.markData(m).expnInfo
	if info == nil {
		return nil
	}
	cp := *info
	return &cp
}

// SetExpnInfo records the expansion provenance for m. It must be called
// at most once per mark; a second call is a bug in the caller and
// panics.
func (m Mark) SetExpnInfo(st *Store, info ExpnInfo) {
	st.mu.Lock()
	defer st.mu.Unlock()
	data := st.markData(m)
	if data.expnInfo != nil {
		panic(fmt.Sprintf("pos: expansion info for mark %d set twice", m))
	}
	cp := info
	data.expnInfo = &cp
}

// Modern walks the parent chain from m and returns the nearest mark
// flagged modern, or the root mark if there is none.
func (m Mark) Modern(st *Store) Mark {
	st.mu.Lock()
	defer st.mu.Unlock()
	for {
		if m == RootMark || st.markData(m).modern {
			return m
		}
		m = st.markData(m).parent
	}
}

// IsModern reports whether m itself is flagged modern.
func (m Mark) IsModern(st *Store) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.markData(m).modern
}

// SetModern flags m as participating in declarative-macro hygiene.
// Once set, the flag is never cleared.
func (m Mark) SetModern(st *Store) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.markData(m).modern = true
}

// IsDescendantOf reports whether ancestor appears on the parent chain
// from m (inclusive: every mark is a descendant of itself). Reaching
// the root without finding ancestor reports false, unless the root is
// the ancestor sought.
func (m Mark) IsDescendantOf(st *Store, ancestor Mark) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for m != ancestor {
		if m == RootMark {
			return false
		}
		m = st.markData(m).parent
	}
	return true
}

// Outer returns the outermost mark of c, that is, the mark applied most
// recently.
func (c SyntaxContext) Outer(st *Store) Mark {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ctxtData(c).outerMark
}

// Modern returns the hygienic-only projection of c: the context
// obtained by keeping only the modern marks of c's chain. Declarative
// macros resolve names against this projection.
func (c SyntaxContext) Modern(st *Store) SyntaxContext {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ctxtData(c).modern
}

// ApplyMark extends c with the given mark and returns the resulting
// context.
//
// Applying the mark that is already outermost on c undoes the previous
// extension instead: the result is c's predecessor, and no new context
// is created. This models re-entering the same expansion boundary.
// Otherwise the result is memoized, so the same (context, mark) pair
// always yields the identical context handle.
func (c SyntaxContext) ApplyMark(st *Store, mark Mark) SyntaxContext {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.applyMark(c, mark)
}

func (st *Store) applyMark(c SyntaxContext, mark Mark) SyntaxContext {
	data := *st.ctxtData(c)
	if mark == data.outerMark {
		return data.prevCtxt
	}

	// Legacy marks do not participate in hygienic-only scoping, so the
	// modern projection passes through unchanged. A modern mark extends
	// the projection with a context that is its own projection.
	modern := data.modern
	if st.markData(mark).modern {
		key := markingKey{data.modern, mark}
		ctxt, ok := st.markings[key]
		if !ok {
			ctxt = SyntaxContext(len(st.ctxts))
			st.ctxts = append(st.ctxts, ctxtData{
				outerMark: mark,
				prevCtxt:  data.modern,
				modern:    ctxt,
			})
			st.markings[key] = ctxt
		}
		modern = ctxt
	}

	key := markingKey{c, mark}
	ctxt, ok := st.markings[key]
	if !ok {
		ctxt = SyntaxContext(len(st.ctxts))
		st.ctxts = append(st.ctxts, ctxtData{
			outerMark: mark,
			prevCtxt:  c,
			modern:    modern,
		})
		st.markings[key] = ctxt
	}
	return ctxt
}

// RemoveMark strips the outermost mark from c, updating c in place to
// its predecessor, and returns the stripped mark. Calling RemoveMark on
// the empty context is a bug in the caller and panics.
func (c *SyntaxContext) RemoveMark(st *Store) Mark {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.removeMark(c)
}

func (st *Store) removeMark(c *SyntaxContext) Mark {
	if *c == NoExpansion {
		panic("pos: RemoveMark on the empty syntax context")
	}
	data := st.ctxtData(*c)
	outer := data.outerMark
	*c = data.prevCtxt
	return outer
}

func (st *Store) isDescendantOf(m, ancestor Mark) bool {
	for m != ancestor {
		if m == RootMark {
			return false
		}
		m = st.markData(m).parent
	}
	return true
}

// Adjust prepares c for name resolution in a scope created by the given
// expansion. Marks are stripped from c until the expansion is a
// descendant of c's outermost mark. If any marks were stripped, Adjust
// returns the last one and true: the caller should privacy-check the
// resolution against that mark's definition scope. Otherwise it returns
// the zero mark and false, and resolution proceeds as usual.
func (c *SyntaxContext) Adjust(st *Store, expansion Mark) (scope Mark, adjusted bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.adjust(c, expansion)
}

func (st *Store) adjust(c *SyntaxContext, expansion Mark) (scope Mark, adjusted bool) {
	for !st.isDescendantOf(expansion, st.ctxtData(*c).outerMark) {
		scope = st.removeMark(c)
		adjusted = true
	}
	return scope, adjusted
}

// GlobAdjust is the variant of Adjust for a name reached through a glob
// import that itself came through macro expansion; globCtxt is the
// context of the glob import. Marks are stripped from c and globCtxt in
// lockstep, and the adjustment fails (ok == false) if the two ever
// strip different marks, if c runs out of marks first, or if a plain
// Adjust of c would still strip marks afterwards. On success, scope and
// scoped have the same meaning as Adjust's results.
func (c *SyntaxContext) GlobAdjust(st *Store, expansion Mark, globCtxt SyntaxContext) (scope Mark, scoped, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for !st.isDescendantOf(expansion, st.ctxtData(globCtxt).outerMark) {
		if *c == NoExpansion {
			return 0, false, false
		}
		scope = st.removeMark(&globCtxt)
		scoped = true
		if st.removeMark(c) != scope {
			return 0, false, false
		}
	}
	if _, adjusted := st.adjust(c, expansion); adjusted {
		return 0, false, false
	}
	return scope, scoped, true
}

// ReverseGlobAdjust undoes a previous GlobAdjust: it verifies that c is
// already adjusted for the expansion, strips marks from globCtxt alone,
// and re-applies them to c innermost-first. The results have the same
// shape as GlobAdjust's.
func (c *SyntaxContext) ReverseGlobAdjust(st *Store, expansion Mark, globCtxt SyntaxContext) (scope Mark, scoped, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, adjusted := st.adjust(c, expansion); adjusted {
		return 0, false, false
	}

	var marks []Mark
	for !st.isDescendantOf(expansion, st.ctxtData(globCtxt).outerMark) {
		marks = append(marks, st.removeMark(&globCtxt))
	}
	if len(marks) > 0 {
		scope, scoped = marks[len(marks)-1], true
	}
	for i := len(marks) - 1; i >= 0; i-- {
		*c = st.applyMark(*c, marks[i])
	}
	return scope, scoped, true
}

func (c SyntaxContext) String() string {
	return fmt.Sprintf("#%d", uint32(c))
}

// MarshalJSON encodes c as null: hygiene identity is not preserved
// across serialization boundaries.
func (c SyntaxContext) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON decodes any value as the empty context.
func (c *SyntaxContext) UnmarshalJSON([]byte) error {
	*c = NoExpansion
	return nil
}
