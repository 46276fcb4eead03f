// Copyright 2025 The Garando Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codemap maps absolute byte positions back to files, lines,
// and columns.
//
// A CodeMap owns every source file of one session and assigns each a
// disjoint range of the session's 32-bit address space, so that a bare
// pos.BytePos identifies both the file and the offset within it. The
// hygiene core in package pos never depends on this package; parsers
// produce positions through it, and diagnostics resolve them here.
//
// A CodeMap is not safe for concurrent use.
package codemap

import (
	"fmt"
	"os"
	"strings"

	"github.com/GreenBeard/garando/pos"
)

// A MultiByteChar records the position of a multibyte UTF-8 character,
// used to convert byte offsets to character columns.
type MultiByteChar struct {
	// Pos is the absolute position of the character.
	Pos pos.BytePos
	// Bytes is the number of bytes in its encoding, at least 2.
	Bytes int
}

// A FileMap is a single source in the CodeMap. Sources that do not
// originate from files have names between angle brackets by
// convention, e.g. "<anon>".
type FileMap struct {
	// Name of the file the source came from.
	Name string
	// StartPos and EndPos delimit this source in the session's
	// address space.
	StartPos pos.BytePos
	EndPos   pos.BytePos

	src            string
	hasSrc         bool
	lines          []pos.BytePos
	multibyteChars []MultiByteChar
}

// NextLine registers the start of a line. Offsets must be registered in
// increasing order and must be absolute (file start plus line offset);
// a non-monotonic offset is a bug in the caller and panics.
func (f *FileMap) NextLine(p pos.BytePos) {
	if n := len(f.lines); n > 0 && f.lines[n-1] >= p {
		panic(fmt.Sprintf("codemap: line start %d not after %d", p, f.lines[n-1]))
	}
	f.lines = append(f.lines, p)
}

// GetLine returns the text of the 0-based line number from the
// registered line starts. The line runs to the next newline in the
// source, which may be past the next registered line start if line
// information is still being built.
func (f *FileMap) GetLine(line int) (string, bool) {
	if !f.hasSrc || line < 0 || line >= len(f.lines) {
		return "", false
	}
	begin := int(f.lines[line] - f.StartPos)
	s := f.src[begin:]
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s, true
}

// RecordMultibyteChar registers a multibyte character at the given
// absolute position.
func (f *FileMap) RecordMultibyteChar(p pos.BytePos, bytes int) {
	if bytes < 2 || bytes > 4 {
		panic(fmt.Sprintf("codemap: %d-byte character", bytes))
	}
	f.multibyteChars = append(f.multibyteChars, MultiByteChar{p, bytes})
}

// IsRealFile reports whether the name refers to an actual file rather
// than a pseudo-name like "<anon>".
func (f *FileMap) IsRealFile() bool {
	return !(strings.HasPrefix(f.Name, "<") && strings.HasSuffix(f.Name, ">"))
}

// IsImported reports whether the source text is unavailable (the file
// was imported from another session's metadata).
func (f *FileMap) IsImported() bool {
	return !f.hasSrc
}

// ByteLength returns the length of the source in bytes.
func (f *FileMap) ByteLength() int {
	return int(f.EndPos - f.StartPos)
}

// CountLines returns the number of registered lines.
func (f *FileMap) CountLines() int {
	return len(f.lines)
}

// LookupLine finds the 0-based index of the line containing p, or
// false if no line information covers p.
func (f *FileMap) LookupLine(p pos.BytePos) (int, bool) {
	if len(f.lines) == 0 {
		return 0, false
	}
	// Binary search for the last line start <= p.
	lo, hi := 0, len(f.lines)
	for hi-lo > 1 {
		m := (lo + hi) / 2
		if f.lines[m] > p {
			hi = m
		} else {
			lo = m
		}
	}
	if f.lines[lo] > p {
		return 0, false
	}
	return lo, true
}

// LineBounds returns the position range of the 0-based line index.
func (f *FileMap) LineBounds(line int) (start, end pos.BytePos) {
	if f.StartPos == f.EndPos {
		return f.StartPos, f.EndPos
	}
	if line == len(f.lines)-1 {
		return f.lines[line], f.EndPos
	}
	return f.lines[line], f.lines[line+1]
}

func (f *FileMap) String() string {
	return fmt.Sprintf("FileMap(%s)", f.Name)
}

// A Loc is a source location for error reporting: a file, a 1-based
// line number, and a 0-based character column. Line 0 means the file
// carries no line information for the position.
type Loc struct {
	File *FileMap
	Line int
	Col  pos.CharPos
}

// A LineInfo is one line of a span, in columns.
type LineInfo struct {
	// LineIndex is 0-based.
	LineIndex int
	// StartCol is the column where the span begins on this line.
	StartCol pos.CharPos
	// EndCol is the column where it ends, exclusive.
	EndCol pos.CharPos
}

// FileLines is the per-line breakdown of a span within one file.
type FileLines struct {
	File  *FileMap
	Lines []LineInfo
}

// A FileLoader reads file contents for LoadFile. The default loader
// reads from the local file system.
type FileLoader interface {
	FileExists(path string) bool
	ReadFile(path string) ([]byte, error)
}

type osFileLoader struct{}

func (osFileLoader) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileLoader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// A CodeMap owns the session's source files and resolves absolute
// positions against them.
type CodeMap struct {
	files  []*FileMap
	loader FileLoader
}

// New returns an empty CodeMap reading files from the OS.
func New() *CodeMap {
	return &CodeMap{loader: osFileLoader{}}
}

// NewWithFileLoader returns an empty CodeMap using the given loader.
func NewWithFileLoader(loader FileLoader) *CodeMap {
	return &CodeMap{loader: loader}
}

// Files returns the registered file maps in allocation order.
func (c *CodeMap) Files() []*FileMap {
	return c.files
}

// FileExists reports whether the loader can see the path.
func (c *CodeMap) FileExists(path string) bool {
	return c.loader.FileExists(path)
}

// LoadFile reads a file through the loader and registers it, with line
// and multibyte-character information, under its path.
func (c *CodeMap) LoadFile(path string) (*FileMap, error) {
	data, err := c.loader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.NewFileMapAndLines(path, string(data)), nil
}

// nextStartPos places the next file one byte past the previous file's
// end, so positions stay distinguishable even across zero-length
// files.
func (c *CodeMap) nextStartPos() pos.BytePos {
	if len(c.files) == 0 {
		return 0
	}
	return c.files[len(c.files)-1].EndPos + 1
}

// NewFileMap registers a source without line information. Callers that
// do not register lines themselves should use NewFileMapAndLines.
func (c *CodeMap) NewFileMap(filename, src string) *FileMap {
	src = strings.TrimPrefix(src, "\ufeff")
	start := c.nextStartPos()
	f := &FileMap{
		Name:     filename,
		StartPos: start,
		EndPos:   start + pos.BytePos(len(src)),
		src:      src,
		hasSrc:   true,
	}
	c.files = append(c.files, f)
	return f
}

// NewFileMapAndLines registers a source and computes its line starts
// and multibyte characters.
func (c *CodeMap) NewFileMapAndLines(filename, src string) *FileMap {
	f := c.NewFileMap(filename, src)
	text := f.src
	if len(text) > 0 {
		f.NextLine(f.StartPos)
	}
	for i := 0; i < len(text); i++ {
		b := text[i]
		if b == '\n' && i+1 < len(text) {
			f.NextLine(f.StartPos + pos.BytePos(i) + 1)
		}
		if b >= 0x80 {
			n := 1
			for n = 1; i+n < len(text) && text[i+n]&0xc0 == 0x80; n++ {
			}
			f.RecordMultibyteChar(f.StartPos+pos.BytePos(i), n)
			i += n - 1
		}
	}
	return f
}

// NewImportedFileMap registers a file whose source text is unavailable
// but whose line and multibyte tables are known, e.g. from another
// session's metadata. The tables are given file-local and rebased here.
func (c *CodeMap) NewImportedFileMap(filename string, sourceLen int, lines []pos.BytePos, multibyteChars []MultiByteChar) *FileMap {
	start := c.nextStartPos()
	f := &FileMap{
		Name:     filename,
		StartPos: start,
		EndPos:   start + pos.BytePos(sourceLen),
	}
	for _, p := range lines {
		f.lines = append(f.lines, p+start)
	}
	for _, mbc := range multibyteChars {
		mbc.Pos += start
		f.multibyteChars = append(f.multibyteChars, mbc)
	}
	c.files = append(c.files, f)
	return f
}

// lookupFileMapIdx returns the index of the file containing p.
func (c *CodeMap) lookupFileMapIdx(p pos.BytePos) int {
	if len(c.files) == 0 {
		panic(fmt.Sprintf("codemap: position %d does not resolve to a source location", p))
	}
	a, b := 0, len(c.files)
	for b-a > 1 {
		m := (a + b) / 2
		if c.files[m].StartPos > p {
			b = m
		} else {
			a = m
		}
	}
	return a
}

// LookupByteOffset returns the file containing p and p's offset within
// it.
func (c *CodeMap) LookupByteOffset(p pos.BytePos) (*FileMap, pos.BytePos) {
	f := c.files[c.lookupFileMapIdx(p)]
	return f, p - f.StartPos
}

// BytePosToFileCharPos converts an absolute position to a character
// offset within its file, correcting for multibyte characters.
func (c *CodeMap) BytePosToFileCharPos(p pos.BytePos) pos.CharPos {
	f := c.files[c.lookupFileMapIdx(p)]
	extra := 0
	for _, mbc := range f.multibyteChars {
		if mbc.Pos >= p {
			break
		}
		// Every character is at least one byte, so only the extra
		// bytes count.
		extra += mbc.Bytes - 1
		if int(p) < int(mbc.Pos)+mbc.Bytes {
			panic(fmt.Sprintf("codemap: position %d lies inside a character", p))
		}
	}
	return pos.CharPos(int(p-f.StartPos) - extra)
}

// LookupCharPos resolves an absolute position to a file, 1-based line,
// and 0-based character column.
func (c *CodeMap) LookupCharPos(p pos.BytePos) Loc {
	chpos := c.BytePosToFileCharPos(p)
	f := c.files[c.lookupFileMapIdx(p)]
	line, ok := f.LookupLine(p)
	if !ok {
		// No line information; report the column within the file.
		return Loc{File: f, Line: 0, Col: chpos}
	}
	linechpos := c.BytePosToFileCharPos(f.lines[line])
	return Loc{File: f, Line: line + 1, Col: chpos - linechpos}
}

// lookupLine returns the file and 0-based line containing p, or false
// if the file has no line information there.
func (c *CodeMap) lookupLine(p pos.BytePos) (*FileMap, int, bool) {
	f := c.files[c.lookupFileMapIdx(p)]
	line, ok := f.LookupLine(p)
	return f, line, ok
}

// MkSubstrFilename renders a pseudo-filename for a span, of the form
// "<name:line:col>".
func (c *CodeMap) MkSubstrFilename(sp pos.Span) string {
	loc := c.LookupCharPos(sp.Lo)
	return fmt.Sprintf("<%s:%d:%d>", loc.File.Name, loc.Line, int(loc.Col)+1)
}

// MergeSpans unions two spans on the same line. The spans must share a
// context, must not overlap, and lhs must end on the line rhs begins.
func (c *CodeMap) MergeSpans(lhs, rhs pos.Span) (pos.Span, bool) {
	if lhs.Ctxt != rhs.Ctxt {
		return pos.Span{}, false
	}
	lhsFile, lhsLine, ok := c.lookupLine(lhs.Hi)
	if !ok {
		return pos.Span{}, false
	}
	rhsFile, rhsLine, ok := c.lookupLine(rhs.Lo)
	if !ok {
		return pos.Span{}, false
	}
	if lhsFile != rhsFile || lhsLine != rhsLine {
		return pos.Span{}, false
	}
	if lhs.Lo <= rhs.Lo && lhs.Hi <= rhs.Lo {
		return pos.Span{Lo: lhs.Lo, Hi: rhs.Hi, Ctxt: lhs.Ctxt}, true
	}
	return pos.Span{}, false
}

// SpanToString renders a span as "name:line:col: line:col" with
// 1-based columns, or "no-location" for the dummy span in an empty
// codemap.
func (c *CodeMap) SpanToString(sp pos.Span) string {
	if len(c.files) == 0 && sp.SourceEqual(pos.DummySpan) {
		return "no-location"
	}
	lo := c.LookupCharPos(sp.Lo)
	hi := c.LookupCharPos(sp.Hi)
	return fmt.Sprintf("%s:%d:%d: %d:%d",
		lo.File.Name, lo.Line, int(lo.Col)+1, hi.Line, int(hi.Col)+1)
}

// SpanToFilename returns the name of the file a span starts in.
func (c *CodeMap) SpanToFilename(sp pos.Span) string {
	return c.LookupCharPos(sp.Lo).File.Name
}

// SpanToLines breaks a span into per-line column ranges.
func (c *CodeMap) SpanToLines(sp pos.Span) (*FileLines, error) {
	if sp.Lo > sp.Hi {
		return nil, &IllFormedSpanError{sp}
	}
	lo := c.LookupCharPos(sp.Lo)
	hi := c.LookupCharPos(sp.Hi)
	if lo.File.StartPos != hi.File.StartPos {
		return nil, &DistinctSourcesError{
			BeginName: lo.File.Name, BeginPos: lo.File.StartPos,
			EndName: hi.File.Name, EndPos: hi.File.StartPos,
		}
	}

	fl := &FileLines{File: lo.File}
	if lo.Line == 0 {
		return fl, nil
	}

	// The span starts partway through its first line; every following
	// line starts at column 0 and, except the last, runs to the end of
	// the line.
	startCol := lo.Col
	for lineIndex := lo.Line - 1; lineIndex < hi.Line-1; lineIndex++ {
		lineLen := 0
		if line, ok := lo.File.GetLine(lineIndex); ok {
			lineLen = len([]rune(line))
		}
		fl.Lines = append(fl.Lines, LineInfo{
			LineIndex: lineIndex,
			StartCol:  startCol,
			EndCol:    pos.CharPos(lineLen),
		})
		startCol = 0
	}
	fl.Lines = append(fl.Lines, LineInfo{
		LineIndex: hi.Line - 1,
		StartCol:  startCol,
		EndCol:    hi.Col,
	})
	return fl, nil
}

// SpanToSnippet returns the source text a span covers.
func (c *CodeMap) SpanToSnippet(sp pos.Span) (string, error) {
	if sp.Lo > sp.Hi {
		return "", &IllFormedSpanError{sp}
	}
	beginFile, begin := c.LookupByteOffset(sp.Lo)
	endFile, end := c.LookupByteOffset(sp.Hi)
	if beginFile.StartPos != endFile.StartPos {
		return "", &DistinctSourcesError{
			BeginName: beginFile.Name, BeginPos: beginFile.StartPos,
			EndName: endFile.Name, EndPos: endFile.StartPos,
		}
	}
	if !beginFile.hasSrc {
		return "", &SourceNotAvailableError{Filename: beginFile.Name}
	}
	if begin > end || int(end) > beginFile.ByteLength() {
		return "", &MalformedPositionsError{
			Name:      beginFile.Name,
			SourceLen: beginFile.ByteLength(),
			BeginPos:  begin,
			EndPos:    end,
		}
	}
	return beginFile.src[begin:end], nil
}

// SpanUntilChar shortens a span to end before the first occurrence of
// ch, when the prefix is non-empty and stays on one line; otherwise the
// span is returned unchanged.
func (c *CodeMap) SpanUntilChar(sp pos.Span, ch byte) pos.Span {
	snippet, err := c.SpanToSnippet(sp)
	if err != nil {
		return sp
	}
	if i := strings.IndexByte(snippet, ch); i >= 0 {
		snippet = snippet[:i]
	}
	snippet = strings.TrimRight(snippet, " \t\r\n")
	if snippet != "" && !strings.Contains(snippet, "\n") {
		sp.Hi = sp.Lo + pos.BytePos(len(snippet))
	}
	return sp
}

// DefSpan shortens a definition's span to its header, before the
// opening brace.
func (c *CodeMap) DefSpan(sp pos.Span) pos.Span {
	return c.SpanUntilChar(sp, '{')
}

// GetFileMap returns the registered file with the given name.
func (c *CodeMap) GetFileMap(filename string) (*FileMap, bool) {
	for _, f := range c.files {
		if f.Name == filename {
			return f, true
		}
	}
	return nil, false
}

// CountLines returns the number of registered lines across all files.
func (c *CodeMap) CountLines() int {
	n := 0
	for _, f := range c.files {
		n += f.CountLines()
	}
	return n
}
