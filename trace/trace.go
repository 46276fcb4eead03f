// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trace loads and replays expansion traces.
//
// A trace is a YAML document describing a synthetic expansion session:
// source files, a tree of macro expansions with their call and
// definition sites, and spans of interest. Replaying a trace populates
// a codemap.CodeMap and a pos.Store exactly as an expansion driver
// would, which makes traces both a fixture format for end-to-end tests
// and the input format for the garando CLI.
package trace

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GreenBeard/garando/codemap"
	"github.com/GreenBeard/garando/pos"
)

// A Document is a parsed expansion trace.
type Document struct {
	Files      []File      `yaml:"files"`
	Expansions []Expansion `yaml:"expansions"`
	Spans      []Location  `yaml:"spans"`
}

// A File is one source file of the trace.
type File struct {
	Name string `yaml:"name"`
	Src  string `yaml:"src"`
}

// An Expansion is one macro-expansion step.
type Expansion struct {
	// Macro is the callee name, e.g. "vec" for vec!().
	Macro string `yaml:"macro"`
	// Kind is "bang", "attribute", or "desugaring".
	Kind string `yaml:"kind"`
	// Parent is the index of the expansion this one was triggered
	// inside, or nil for a top-level expansion.
	Parent *int `yaml:"parent"`
	// Modern marks the expansion as declarative-macro hygiene.
	Modern bool `yaml:"modern"`
	// AllowInternalUnstable carries the corresponding callee flag.
	AllowInternalUnstable bool `yaml:"allow_internal_unstable"`
	// CallSite is where the macro was invoked.
	CallSite Location `yaml:"call_site"`
	// DefSite is where the macro was defined, if known.
	DefSite *Location `yaml:"def_site"`
}

// A Location is a file-relative byte range, plus the expansion whose
// output the range lies in (nil for plain source).
type Location struct {
	File string `yaml:"file"`
	Lo   uint32 `yaml:"lo"`
	Hi   uint32 `yaml:"hi"`
	From *int   `yaml:"from"`
}

// Load parses a trace document and validates its cross-references.
func Load(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing trace: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and parses a trace document from a file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

func (doc *Document) validate() error {
	names := make(map[string]int)
	for i, f := range doc.Files {
		if f.Name == "" {
			return fmt.Errorf("file %d: missing name", i)
		}
		if _, ok := names[f.Name]; ok {
			return fmt.Errorf("file %q declared twice", f.Name)
		}
		names[f.Name] = len(f.Src)
	}

	checkLoc := func(what string, loc Location, expn int) error {
		size, ok := names[loc.File]
		if !ok {
			return fmt.Errorf("%s: unknown file %q", what, loc.File)
		}
		if loc.Lo > loc.Hi || int(loc.Hi) > size {
			return fmt.Errorf("%s: range %d..%d outside %q (%d bytes)",
				what, loc.Lo, loc.Hi, loc.File, size)
		}
		// Only earlier expansions may have produced this code.
		if loc.From != nil && (*loc.From < 0 || *loc.From >= expn) {
			return fmt.Errorf("%s: from refers to expansion %d, want 0..%d",
				what, *loc.From, expn-1)
		}
		return nil
	}

	for i, e := range doc.Expansions {
		switch e.Kind {
		case "bang", "attribute", "desugaring":
		default:
			return fmt.Errorf("expansion %d: unknown kind %q", i, e.Kind)
		}
		if e.Macro == "" {
			return fmt.Errorf("expansion %d: missing macro name", i)
		}
		if e.Parent != nil && (*e.Parent < 0 || *e.Parent >= i) {
			return fmt.Errorf("expansion %d: parent refers to expansion %d, want 0..%d",
				i, *e.Parent, i-1)
		}
		if err := checkLoc(fmt.Sprintf("expansion %d call_site", i), e.CallSite, i); err != nil {
			return err
		}
		if e.DefSite != nil {
			if err := checkLoc(fmt.Sprintf("expansion %d def_site", i), *e.DefSite, i); err != nil {
				return err
			}
		}
	}

	for i, loc := range doc.Spans {
		if err := checkLoc(fmt.Sprintf("span %d", i), loc, len(doc.Expansions)); err != nil {
			return err
		}
	}
	return nil
}

func (e Expansion) kind() pos.ExpnKind {
	switch e.Kind {
	case "attribute":
		return pos.MacroAttribute
	case "desugaring":
		return pos.CompilerDesugaring
	}
	return pos.MacroBang
}

// A Session is a replayed trace: the populated store and codemap, plus
// the mark, output context, and resolved spans of every expansion.
type Session struct {
	Store *pos.Store
	Map   *codemap.CodeMap

	// Marks[i] is the mark allocated for expansion i, and Contexts[i]
	// the context carried by code in its output.
	Marks    []pos.Mark
	Contexts []pos.SyntaxContext

	// Spans are the resolved spans of the document, in order.
	Spans []pos.Span
}

// Replay runs the document against a fresh store and codemap, the way
// an expansion driver would: one fresh mark per expansion, provenance
// attached once call and definition sites are resolved, and each
// span's context built by applying the producing expansion's marks.
// The document must have come from Load, which validates it.
func (doc *Document) Replay() *Session {
	s := &Session{
		Store: pos.NewStore(),
		Map:   codemap.New(),
	}

	files := make(map[string]*codemap.FileMap)
	for _, f := range doc.Files {
		files[f.Name] = s.Map.NewFileMapAndLines(f.Name, f.Src)
	}

	resolve := func(loc Location) pos.Span {
		f := files[loc.File]
		sp := pos.Span{
			Lo: f.StartPos + pos.BytePos(loc.Lo),
			Hi: f.StartPos + pos.BytePos(loc.Hi),
		}
		if loc.From != nil {
			sp.Ctxt = s.Contexts[*loc.From]
		}
		return sp
	}

	for _, e := range doc.Expansions {
		parent := pos.RootMark
		if e.Parent != nil {
			parent = s.Marks[*e.Parent]
		}
		m := s.Store.Fresh(parent)
		if e.Modern {
			m.SetModern(s.Store)
		}
		callSite := resolve(e.CallSite)

		callee := pos.NameAndSpan{
			Format: pos.ExpnFormat{
				Kind: e.kind(),
				Name: s.Store.Intern(e.Macro),
			},
			AllowInternalUnstable: e.AllowInternalUnstable,
		}
		if e.DefSite != nil {
			def := resolve(*e.DefSite)
			callee.Span = &def
		}
		m.SetExpnInfo(s.Store, pos.ExpnInfo{
			CallSite: callSite,
			Callee:   callee,
		})

		s.Marks = append(s.Marks, m)
		s.Contexts = append(s.Contexts, callSite.Ctxt.ApplyMark(s.Store, m))
	}

	for _, loc := range doc.Spans {
		s.Spans = append(s.Spans, resolve(loc))
	}
	return s
}
