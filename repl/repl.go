// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repl provides an interactive explorer for a hygiene store.
//
// It supports readline-style command editing and interrupts through
// Control-C. Each line is one command against a live pos.Store: marks
// can be created and flagged, contexts extended and stripped, and the
// tables dumped. It exists for debugging expansion traces by hand.
package repl

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/GreenBeard/garando/pos"
)

// REPL executes a read, eval, print loop over the given store.
// Control-C interrupts the current line read.
func REPL(st *pos.Store) {
	rl, err := readline.New("hyg> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer rl.Close()
	for {
		if err := rep(rl, st); err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
	fmt.Println()
}

// rep reads and executes one command. It returns an error (possibly
// readline.ErrInterrupt) only if readline failed or the user asked to
// leave; command errors are printed.
func rep(rl *readline.Instance, st *pos.Store) error {
	line, err := rl.Readline()
	if err != nil {
		return err
	}
	out, err := Exec(st, line)
	if err == io.EOF {
		return err
	}
	if err != nil {
		fmt.Println("error:", err)
		return nil
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}

// Exec runs a single explorer command against the store and returns
// its output. It is the REPL's dispatcher, split out so tests and
// scripts can drive it without a terminal. The error is io.EOF when
// the command asks to leave the loop.
func Exec(st *pos.Store, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		return helpText, nil

	case "fresh":
		parent := pos.RootMark
		if len(args) > 0 {
			m, err := parseMark(st, args[0])
			if err != nil {
				return "", err
			}
			parent = m
		}
		m := st.Fresh(parent)
		return fmt.Sprintf("mark %d (parent %d)", m, parent), nil

	case "modern":
		m, err := arity1Mark(st, cmd, args)
		if err != nil {
			return "", err
		}
		m.SetModern(st)
		return fmt.Sprintf("mark %d is now modern", m), nil

	case "apply":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: apply <ctxt> <mark>")
		}
		c, err := parseCtxt(st, args[0])
		if err != nil {
			return "", err
		}
		m, err := parseMark(st, args[1])
		if err != nil {
			return "", err
		}
		return c.ApplyMark(st, m).String(), nil

	case "remove":
		c, err := arity1Ctxt(st, cmd, args)
		if err != nil {
			return "", err
		}
		if c == pos.NoExpansion {
			return "", fmt.Errorf("cannot remove a mark from the empty context")
		}
		m := c.RemoveMark(st)
		return fmt.Sprintf("removed mark %d, leaving %v", m, c), nil

	case "adjust":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: adjust <ctxt> <expansion-mark>")
		}
		c, err := parseCtxt(st, args[0])
		if err != nil {
			return "", err
		}
		m, err := parseMark(st, args[1])
		if err != nil {
			return "", err
		}
		scope, adjusted := c.Adjust(st, m)
		if !adjusted {
			return fmt.Sprintf("no adjustment; context stays %v", c), nil
		}
		return fmt.Sprintf("adjusted to %v, privacy scope mark %d", c, scope), nil

	case "ctxt":
		c, err := arity1Ctxt(st, cmd, args)
		if err != nil {
			return "", err
		}
		return describeCtxt(st, c), nil

	case "mark":
		m, err := arity1Mark(st, cmd, args)
		if err != nil {
			return "", err
		}
		return describeMark(st, m), nil

	case "marks":
		var b strings.Builder
		for i := 0; i < st.NumMarks(); i++ {
			fmt.Fprintln(&b, describeMark(st, pos.Mark(i)))
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case "ctxts":
		var b strings.Builder
		for i := 0; i < st.NumContexts(); i++ {
			fmt.Fprintln(&b, describeCtxt(st, pos.SyntaxContext(i)))
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case "exit", "quit":
		return "", io.EOF
	}
	return "", fmt.Errorf("unknown command %q (try help)", cmd)
}

const helpText = `commands:
  fresh [parent]        allocate a mark (default parent: root)
  modern <mark>         flag a mark as declarative-macro hygiene
  apply <ctxt> <mark>   extend a context with a mark
  remove <ctxt>         strip the outermost mark
  adjust <ctxt> <mark>  adjust a context for resolution in an expansion
  mark <mark>           describe one mark
  ctxt <ctxt>           describe one context
  marks, ctxts          dump the tables
  exit`

func describeMark(st *pos.Store, m pos.Mark) string {
	s := fmt.Sprintf("mark %d: parent %d", m, m.Parent(st))
	if m.IsModern(st) {
		s += ", modern"
	}
	if info := m.ExpnInfo(st); info != nil {
		s += fmt.Sprintf(", %s %q called at %v",
			info.Callee.Format.Kind, st.Name(info.Callee.Name()), info.CallSite)
	}
	return s
}

func describeCtxt(st *pos.Store, c pos.SyntaxContext) string {
	if c == pos.NoExpansion {
		return "#0: empty"
	}
	// Reconstruct the mark chain by stripping a copy.
	var marks []string
	for probe := c; probe != pos.NoExpansion; {
		marks = append(marks, strconv.Itoa(int(probe.RemoveMark(st))))
	}
	return fmt.Sprintf("%v: marks [%s] (outermost first), modern %v",
		c, strings.Join(marks, " "), c.Modern(st))
}

func arity1Mark(st *pos.Store, cmd string, args []string) (pos.Mark, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <mark>", cmd)
	}
	return parseMark(st, args[0])
}

func arity1Ctxt(st *pos.Store, cmd string, args []string) (pos.SyntaxContext, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <ctxt>", cmd)
	}
	return parseCtxt(st, args[0])
}

func parseMark(st *pos.Store, s string) (pos.Mark, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= st.NumMarks() {
		return 0, fmt.Errorf("no such mark %q (have 0..%d)", s, st.NumMarks()-1)
	}
	return pos.Mark(n), nil
}

func parseCtxt(st *pos.Store, s string) (pos.SyntaxContext, error) {
	s = strings.TrimPrefix(s, "#")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= st.NumContexts() {
		return 0, fmt.Errorf("no such context %q (have #0..#%d)", s, st.NumContexts()-1)
	}
	return pos.SyntaxContext(n), nil
}
