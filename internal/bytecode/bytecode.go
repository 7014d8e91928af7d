// Package bytecode is the stack instruction set produced by the compiler and
// executed by the VM.
package bytecode

import (
	"fmt"
	"strconv"

	"c0lang/internal/types"
)

type Program struct {
	// Natives are the library functions callable from the program.
	Natives map[string]Native
	Funcs   map[string]*Func
	Structs map[string]*Struct
}

type Native struct {
	Arity int
	Void  bool
}

type Func struct {
	Name   string
	Params []string
	Void   bool
	Code   []Instr
	// Labels maps each label to the pc of its LABEL instruction. Filled by
	// Resolve.
	Labels map[string]int
}

// Struct is the layout of a defined struct, fields in declaration order.
type Struct struct {
	Name   string
	Fields []Field
}

type Field struct {
	Name string
	Type types.Type
}

func (s *Struct) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

type Instr interface {
	instrNode()
	fmtString() string
}

// String renders one instruction the way Format does.
func String(i Instr) string { return i.fmtString() }

// Stack

type Pop struct{}

func (*Pop) instrNode()        {}
func (*Pop) fmtString() string { return "pop" }

type Dup struct{}

func (*Dup) instrNode()        {}
func (*Dup) fmtString() string { return "dup" }

type Swap struct{}

func (*Swap) instrNode()        {}
func (*Swap) fmtString() string { return "swap" }

// Constants

type IConst struct{ V int32 }

func (*IConst) instrNode()          {}
func (i *IConst) fmtString() string { return fmt.Sprintf("iconst %d", i.V) }

type BConst struct{ V bool }

func (*BConst) instrNode()          {}
func (i *BConst) fmtString() string { return fmt.Sprintf("bconst %t", i.V) }

type CConst struct{ V byte }

func (*CConst) instrNode() {}
func (i *CConst) fmtString() string {
	return "cconst " + strconv.QuoteRune(rune(i.V))
}

type SConst struct{ V string }

func (*SConst) instrNode()          {}
func (i *SConst) fmtString() string { return "sconst " + strconv.Quote(i.V) }

type AConstNull struct{}

func (*AConstNull) instrNode()        {}
func (*AConstNull) fmtString() string { return "aconst_null" }

// Arithmetic

type ArithOp string

const (
	IAdd ArithOp = "iadd"
	ISub ArithOp = "isub"
	IMul ArithOp = "imul"
	IDiv ArithOp = "idiv"
	IRem ArithOp = "irem"
	IAnd ArithOp = "iand"
	IOr  ArithOp = "ior"
	IXor ArithOp = "ixor"
	IShl ArithOp = "ishl"
	IShr ArithOp = "ishr"
)

// ArithOps maps a C0 operator to its instruction.
var ArithOps = map[string]ArithOp{
	"+": IAdd, "-": ISub, "*": IMul, "/": IDiv, "%": IRem,
	"&": IAnd, "|": IOr, "^": IXor, "<<": IShl, ">>": IShr,
}

type Arith struct{ Op ArithOp }

func (*Arith) instrNode()          {}
func (i *Arith) fmtString() string { return string(i.Op) }

// Locals

type VLoad struct{ Name string }

func (*VLoad) instrNode()          {}
func (i *VLoad) fmtString() string { return "vload " + i.Name }

type VStore struct{ Name string }

func (*VStore) instrNode()          {}
func (i *VStore) fmtString() string { return "vstore " + i.Name }

// Control flow

type Label struct{ Name string }

func (*Label) instrNode()          {}
func (i *Label) fmtString() string { return i.Name + ":" }

type Goto struct{ Target string }

func (*Goto) instrNode()          {}
func (i *Goto) fmtString() string { return "goto " + i.Target }

// If pops a bool and jumps when it is true.
type If struct{ Target string }

func (*If) instrNode()          {}
func (i *If) fmtString() string { return "if " + i.Target }

// CmpFamily selects the operand representation of an IfCmp.
type CmpFamily string

const (
	CmpInt  CmpFamily = "i"
	CmpChar CmpFamily = "c"
	CmpBool CmpFamily = "b"
	CmpRef  CmpFamily = "a"
)

type CmpOp string

const (
	CmpEq CmpOp = "eq"
	CmpNe CmpOp = "ne"
	CmpLt CmpOp = "lt"
	CmpLe CmpOp = "le"
	CmpGt CmpOp = "gt"
	CmpGe CmpOp = "ge"
)

var CmpOps = map[string]CmpOp{
	"==": CmpEq, "!=": CmpNe, "<": CmpLt, "<=": CmpLe, ">": CmpGt, ">=": CmpGe,
}

// IfCmp pops two operands and jumps when the comparison holds.
type IfCmp struct {
	Family CmpFamily
	Op     CmpOp
	Target string
}

func (*IfCmp) instrNode() {}
func (i *IfCmp) fmtString() string {
	return fmt.Sprintf("if_%scmp%s %s", i.Family, i.Op, i.Target)
}

// Calls

type InvokeStatic struct {
	Name string
	Argc int
}

func (*InvokeStatic) instrNode() {}
func (i *InvokeStatic) fmtString() string {
	return fmt.Sprintf("invokestatic %s/%d", i.Name, i.Argc)
}

type InvokeNative struct {
	Name string
	Argc int
}

func (*InvokeNative) instrNode() {}
func (i *InvokeNative) fmtString() string {
	return fmt.Sprintf("invokenative %s/%d", i.Name, i.Argc)
}

// InvokeDynamic pops Argc arguments and then a function pointer.
type InvokeDynamic struct{ Argc int }

func (*InvokeDynamic) instrNode()          {}
func (i *InvokeDynamic) fmtString() string { return fmt.Sprintf("invokedynamic %d", i.Argc) }

type FuncPtr struct{ Name string }

func (*FuncPtr) instrNode()          {}
func (i *FuncPtr) fmtString() string { return "funcptr " + i.Name }

type Return struct{ Void bool }

func (*Return) instrNode() {}
func (i *Return) fmtString() string {
	if i.Void {
		return "vreturn"
	}
	return "return"
}

// Heap

type New struct{ Type types.Type }

func (*New) instrNode()          {}
func (i *New) fmtString() string { return "new " + i.Type.String() }

// NewArray pops a length.
type NewArray struct{ Elem types.Type }

func (*NewArray) instrNode()          {}
func (i *NewArray) fmtString() string { return "newarray " + i.Elem.String() }

type ArrayLength struct{}

func (*ArrayLength) instrNode()        {}
func (*ArrayLength) fmtString() string { return "arraylength" }

// AAddF turns the address of a struct into the address of one of its fields.
type AAddF struct {
	Struct string
	Field  string
}

func (*AAddF) instrNode()          {}
func (i *AAddF) fmtString() string { return fmt.Sprintf("aaddf %s.%s", i.Struct, i.Field) }

// AAddS pops an index and an array and pushes the address of the element.
type AAddS struct{}

func (*AAddS) instrNode()        {}
func (*AAddS) fmtString() string { return "aadds" }

// MemKind selects the value representation of a load or store.
type MemKind string

const (
	MemInt  MemKind = "i"
	MemChar MemKind = "c"
	MemBool MemKind = "b"
	MemRef  MemKind = "a"
)

// MemKindOf picks the load/store family for values of t.
func MemKindOf(t types.Type) MemKind {
	switch t.K {
	case types.TyInt:
		return MemInt
	case types.TyChar:
		return MemChar
	case types.TyBool:
		return MemBool
	default:
		return MemRef
	}
}

type MLoad struct{ Kind MemKind }

func (*MLoad) instrNode()          {}
func (i *MLoad) fmtString() string { return string(i.Kind) + "mload" }

// MStore pops a value and then an address.
type MStore struct{ Kind MemKind }

func (*MStore) instrNode()          {}
func (i *MStore) fmtString() string { return string(i.Kind) + "mstore" }

// Tagged pointers

type AddTag struct{ Tag string }

func (*AddTag) instrNode()          {}
func (i *AddTag) fmtString() string { return "addtag " + i.Tag }

// CheckTag untags a void* whose tag must be Tag.
type CheckTag struct{ Tag string }

func (*CheckTag) instrNode()          {}
func (i *CheckTag) fmtString() string { return "checktag " + i.Tag }

type Untag struct{}

func (*Untag) instrNode()        {}
func (*Untag) fmtString() string { return "untag" }

// IfHasTag pops a void* and jumps when it is NULL or carries Tag.
type IfHasTag struct {
	Tag    string
	Target string
}

func (*IfHasTag) instrNode()          {}
func (i *IfHasTag) fmtString() string { return fmt.Sprintf("if_hastag %s %s", i.Tag, i.Target) }

// Abort pops a message and fails with an AbortError for Contract.
type Abort struct{ Contract string }

func (*Abort) instrNode()          {}
func (i *Abort) fmtString() string { return "abort " + i.Contract }
