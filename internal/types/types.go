// Package types is the structural type model shared by the checker, the
// compiler and the VM. Typedef names never appear here: a Type is always
// fully expanded.
package types

import "strings"

type Kind int

const (
	TyBad Kind = iota
	TyInt
	TyBool
	TyString
	TyChar
	TyVoid
	TyPointer // Elem
	TyArray   // Elem
	TyStruct  // Name
	TyFunc    // Name, Sig: a named function type, only legal behind a pointer

	// Checker-only kinds. They are erased before a type is recorded for
	// the compiler.
	TyNull    // the type of NULL
	TyFuncPtr // the type of &f: Sig
)

type Type struct {
	K    Kind
	Elem *Type
	Name string
	Sig  *FuncSig
}

type FuncSig struct {
	Params []Type
	Ret    Type
}

var (
	Bad    = Type{K: TyBad}
	Int    = Type{K: TyInt}
	Bool   = Type{K: TyBool}
	String = Type{K: TyString}
	Char   = Type{K: TyChar}
	Void   = Type{K: TyVoid}
	Null   = Type{K: TyNull}
)

func Pointer(elem Type) Type { return Type{K: TyPointer, Elem: &elem} }

func Array(elem Type) Type { return Type{K: TyArray, Elem: &elem} }

func Struct(name string) Type { return Type{K: TyStruct, Name: name} }

func Func(name string, sig *FuncSig) Type { return Type{K: TyFunc, Name: name, Sig: sig} }

func FuncPtr(sig *FuncSig) Type { return Type{K: TyFuncPtr, Sig: sig} }

func (t Type) String() string {
	switch t.K {
	case TyInt:
		return "int"
	case TyBool:
		return "bool"
	case TyString:
		return "string"
	case TyChar:
		return "char"
	case TyVoid:
		return "void"
	case TyPointer:
		return t.Elem.String() + "*"
	case TyArray:
		return t.Elem.String() + "[]"
	case TyStruct:
		return "struct " + t.Name
	case TyFunc:
		if t.Name == "" {
			return t.Sig.String()
		}
		return t.Name
	case TyNull:
		return "NULL"
	case TyFuncPtr:
		return "&(" + t.Sig.String() + ")"
	default:
		return "<bad>"
	}
}

func (s *FuncSig) String() string {
	var b strings.Builder
	b.WriteString(s.Ret.String())
	b.WriteString(" (")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(")")
	return b.String()
}

// IsVoidPtr reports whether t is the tagged pointer type void*.
func (t Type) IsVoidPtr() bool { return t.K == TyPointer && t.Elem.K == TyVoid }

// IsPointerLike reports whether t is compared by address.
func (t Type) IsPointerLike() bool {
	return t.K == TyPointer || t.K == TyNull || t.K == TyFuncPtr
}

// Small reports whether values of t fit in a local, a parameter or a
// return slot. Structs and function types must go behind a pointer.
func (t Type) Small() bool {
	switch t.K {
	case TyInt, TyBool, TyString, TyChar, TyPointer, TyArray, TyNull, TyFuncPtr:
		return true
	default:
		return false
	}
}

// Equal is structural equality of actual types. Structs and function types
// compare by name; pointers and arrays by their element.
func Equal(a, b Type) bool {
	if a.K != b.K {
		return false
	}
	switch a.K {
	case TyPointer, TyArray:
		return Equal(*a.Elem, *b.Elem)
	case TyStruct:
		return a.Name == b.Name
	case TyFunc:
		if a.Name == "" || b.Name == "" {
			return EqualSigs(a.Sig, b.Sig)
		}
		return a.Name == b.Name
	case TyFuncPtr:
		return EqualSigs(a.Sig, b.Sig)
	default:
		return true
	}
}

// EqualSigs requires equal return types and pairwise equal parameters.
func EqualSigs(a, b *FuncSig) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Params) != len(b.Params) || !Equal(a.Ret, b.Ret) {
		return false
	}
	for i := range a.Params {
		if !Equal(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

// IsSubtype reports whether a value of synthesized type abstract may be used
// where concrete is expected. NULL fits any pointer and &f fits a pointer to
// a function type with an equal signature; everything else must be equal.
func IsSubtype(abstract, concrete Type) bool {
	switch abstract.K {
	case TyNull:
		return concrete.K == TyPointer || concrete.K == TyNull
	case TyFuncPtr:
		if concrete.K == TyPointer && concrete.Elem.K == TyFunc {
			return EqualSigs(abstract.Sig, concrete.Elem.Sig)
		}
		return concrete.K == TyFuncPtr && EqualSigs(abstract.Sig, concrete.Sig)
	}
	return Equal(abstract, concrete)
}

// LUBError explains why two branch types have no least upper bound.
type LUBError struct {
	Msg string
}

func (e *LUBError) Error() string { return e.Msg }

// LUB unifies the types of the two branches of a conditional expression.
func LUB(a, b Type) (Type, error) {
	switch {
	case a.K == TyNull && b.K == TyNull:
		return Null, nil
	case a.K == TyNull && (b.K == TyFuncPtr || b.K == TyPointer):
		return b, nil
	case b.K == TyNull && (a.K == TyFuncPtr || a.K == TyPointer):
		return a, nil
	case a.K == TyFuncPtr && b.K == TyFuncPtr:
		if EqualSigs(a.Sig, b.Sig) {
			return a, nil
		}
		return Bad, &LUBError{Msg: "function pointers in branches have different signatures"}
	case a.K == TyFuncPtr && b.K == TyPointer && b.Elem.K == TyFunc:
		if EqualSigs(a.Sig, b.Elem.Sig) {
			return b, nil
		}
		return Bad, &LUBError{Msg: "function pointers in branches have different signatures"}
	case b.K == TyFuncPtr && a.K == TyPointer && a.Elem.K == TyFunc:
		return LUB(b, a)
	case (a.K == TyFuncPtr && b.K == TyFunc) || (a.K == TyFunc && b.K == TyFuncPtr):
		return Bad, &LUBError{Msg: "cannot mix a function pointer with a dereferenced function pointer; do not dereference function pointers here"}
	case a.K == TyFunc && b.K == TyFunc:
		if a.Name == b.Name {
			return a, nil
		}
		return Bad, &LUBError{Msg: "branches have different function types " + a.String() + " and " + b.String()}
	case a.K != b.K:
		return Bad, &LUBError{Msg: "branches have incompatible types " + a.String() + " and " + b.String()}
	case a.K == TyPointer || a.K == TyArray:
		elem, err := LUB(*a.Elem, *b.Elem)
		if err != nil {
			return Bad, &LUBError{Msg: "branches have incompatible types " + a.String() + " and " + b.String()}
		}
		return Type{K: a.K, Elem: &elem}, nil
	case Equal(a, b):
		return a, nil
	}
	return Bad, &LUBError{Msg: "branches have incompatible types " + a.String() + " and " + b.String()}
}

// Erase replaces checker-only kinds with the actual type the compiler sees.
func Erase(t Type) Type {
	switch t.K {
	case TyNull:
		return Pointer(Void)
	case TyFuncPtr:
		return Pointer(Func("", t.Sig))
	}
	return t
}
