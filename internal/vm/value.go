package vm

import (
	"fmt"
	"slices"
	"strconv"

	"c0lang/internal/types"
)

// ValueKind tags which field of a Value is meaningful.
type ValueKind int

const (
	// VUndef marks an array cell that has not been touched yet.
	VUndef ValueKind = iota
	VInt
	VBool
	VChar
	VString
	VNull
	VPointer
	VArray
	VFunc
	VTagged
	VDouble
	VStruct
)

// Value is a runtime value: a tagged union over the C0 value kinds.
type Value struct {
	K ValueKind
	I int32
	B bool
	C byte
	S string  // VString; function name for VFunc; tag for VTagged
	P *Addr   // VPointer
	A *Base   // VArray
	T *Value  // VTagged: the untagged pointer
	D float64 // VDouble
	M *Struct // VStruct
}

// Base is one heap allocation: a single cell for alloc, n cells for
// alloc_array. Cells are initialized on first touch.
type Base struct {
	Elem  types.Type
	Cells []Value
}

// Addr is a location: a cell of a base followed by a chain of field names.
type Addr struct {
	Base  *Base
	Index int
	Path  []string
}

func (a *Addr) field(name string) *Addr {
	path := make([]string, len(a.Path), len(a.Path)+1)
	copy(path, a.Path)
	return &Addr{Base: a.Base, Index: a.Index, Path: append(path, name)}
}

// Struct is a heap struct. Fields appear in M the first time they are
// loaded or stored.
type Struct struct {
	Name   string
	Fields map[string]*Value
}

func Int(i int32) Value { return Value{K: VInt, I: i} }

func Bool(b bool) Value { return Value{K: VBool, B: b} }

func Char(c byte) Value { return Value{K: VChar, C: c} }

func String(s string) Value { return Value{K: VString, S: s} }

func Null() Value { return Value{K: VNull} }

func Double(d float64) Value { return Value{K: VDouble, D: d} }

func (v Value) String() string {
	switch v.K {
	case VInt:
		return strconv.Itoa(int(v.I))
	case VBool:
		return strconv.FormatBool(v.B)
	case VChar:
		return strconv.QuoteRune(rune(v.C))
	case VString:
		return strconv.Quote(v.S)
	case VNull:
		return "NULL"
	case VPointer:
		return fmt.Sprintf("<pointer %p>", v.P.Base)
	case VArray:
		return fmt.Sprintf("<array of %d>", len(v.A.Cells))
	case VFunc:
		return "&" + v.S
	case VTagged:
		return fmt.Sprintf("<void* tagged %s>", v.S)
	case VDouble:
		return strconv.FormatFloat(v.D, 'g', -1, 64)
	case VStruct:
		return "struct " + v.M.Name
	default:
		return "<uninitialized>"
	}
}

// sameRef is address equality for pointers, arrays and function pointers.
func sameRef(a, b Value) bool {
	if a.K == VNull || b.K == VNull {
		return a.K == b.K
	}
	if a.K != b.K {
		return false
	}
	switch a.K {
	case VPointer:
		return a.P.Base == b.P.Base && a.P.Index == b.P.Index && slices.Equal(a.P.Path, b.P.Path)
	case VArray:
		return a.A == b.A
	case VFunc:
		return a.S == b.S
	case VTagged:
		return a.S == b.S && sameRef(*a.T, *b.T)
	case VDouble:
		return a == b
	}
	return false
}
