// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pos

import "fmt"

// A Symbol is an interned string, a handle into a Store's interner.
// Interned symbols with the same text are the same Symbol; gensyms are
// the exception (see Gensym).
type Symbol uint32

// An Ident is a name together with the syntax context it was written
// (or generated) in.
type Ident struct {
	Name Symbol
	Ctxt SyntaxContext
}

// Intern returns the symbol for the given text, creating it on first
// use.
func (st *Store) Intern(name string) Symbol {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.intern(name)
}

func (st *Store) intern(name string) Symbol {
	if sym, ok := st.symbols[name]; ok {
		return sym
	}
	sym := Symbol(len(st.names))
	st.names = append(st.names, name)
	st.symbols[name] = sym
	return sym
}

// Name returns the text of sym.
func (st *Store) Name(sym Symbol) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	if int(sym) >= len(st.names) {
		panic(fmt.Sprintf("pos: symbol %d not issued by this store", sym))
	}
	return st.names[sym]
}

// Gensym returns a fresh symbol with the given text. The result is
// textually identical to, but never equal to, any other symbol;
// interning the same text later still yields the original symbol.
func (st *Store) Gensym(name string) Symbol {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.gensym(name)
}

func (st *Store) gensym(name string) Symbol {
	sym := Symbol(len(st.names))
	st.names = append(st.names, name)
	return sym
}

// FromIdent generates a gensym from id's name and records id's context
// against it, so that ToIdent can later reconstruct an identifier with
// the originating hygiene. This is how hygienic code generation
// manufactures textually-unique names that still resolve in the scope
// they came from.
func (st *Store) FromIdent(id Ident) Symbol {
	st.mu.Lock()
	defer st.mu.Unlock()
	if int(id.Name) >= len(st.names) {
		panic(fmt.Sprintf("pos: symbol %d not issued by this store", id.Name))
	}
	sym := st.gensym(st.names[id.Name])
	st.gensyms[sym] = id.Ctxt
	return sym
}

// ToIdent reconstructs the identifier a gensym was generated from: the
// interned (non-gensym) symbol of the same text, under the recorded
// context. A symbol that was never registered with FromIdent yields
// itself with the empty context.
func (sym Symbol) ToIdent(st *Store) Ident {
	st.mu.Lock()
	defer st.mu.Unlock()
	if ctxt, ok := st.gensyms[sym]; ok {
		return Ident{Name: st.intern(st.names[sym]), Ctxt: ctxt}
	}
	return Ident{Name: sym, Ctxt: NoExpansion}
}
