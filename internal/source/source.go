package source

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// File is one unit of C0 text: a user program or a library header.
type File struct {
	Name  string
	Input string
	// Lib marks library headers; declarations they contain are library-owned.
	Lib   bool
	lines []int // byte offset of each line start
}

func NewFile(name string, input string) *File {
	f := &File{Name: name, Input: input, lines: []int{0}}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			f.lines = append(f.lines, i+1)
		}
	}
	return f
}

// NewLibFile is NewFile for a library header.
func NewLibFile(name string, input string) *File {
	f := NewFile(name, input)
	f.Lib = true
	return f
}

// Position converts a byte offset to a 1-based line and a 1-based rune column.
func (f *File) Position(off int) (line int, col int) {
	off = max(0, min(off, len(f.Input)))
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > off }) - 1
	i = max(i, 0)
	col = 1
	for pos := f.lines[i]; pos < off; col++ {
		_, sz := utf8.DecodeRuneInString(f.Input[pos:])
		if pos+sz > off {
			break
		}
		pos += sz
	}
	return i + 1, col
}

// Line returns the text of a 1-based line without its newline.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	start := f.lines[n-1]
	end := len(f.Input)
	if n < len(f.lines) {
		end = f.lines[n] - 1
	}
	return strings.TrimSuffix(f.Input[start:end], "\r")
}

type Span struct {
	File       *File
	Start, End int // byte offsets [start, end)
}

func (s Span) Known() bool { return s.File != nil }

// To joins two spans of the same file.
func (s Span) To(o Span) Span {
	if s.File == nil {
		return o
	}
	return Span{File: s.File, Start: s.Start, End: max(s.End, o.End)}
}

func (s Span) LocStart() (filename string, line int, col int) {
	if s.File == nil {
		return "", 0, 0
	}
	line, col = s.File.Position(s.Start)
	return s.File.Name, line, col
}

// Snippet renders the first line of the span with a caret under its start.
func (s Span) Snippet() string {
	if s.File == nil {
		return ""
	}
	line, col := s.File.Position(s.Start)
	text := s.File.Line(line)
	gutter := fmt.Sprintf("%4d | ", line)
	return gutter + text + "\n" + strings.Repeat(" ", len(gutter)+col-1) + "^"
}
