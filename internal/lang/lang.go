// Package lang holds the dialect policy: which surface constructs each
// language level of the L1 < L2 < L3 < L4 < C0 < C1 family admits.
package lang

import (
	"fmt"
	"slices"
	"strings"
)

type Dialect int

const (
	L1 Dialect = iota
	L2
	L3
	L4
	C0
	C1
)

var Dialects = []Dialect{L1, L2, L3, L4, C0, C1}

func (d Dialect) String() string {
	switch d {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	case L4:
		return "L4"
	case C0:
		return "C0"
	case C1:
		return "C1"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

func ParseDialect(s string) (Dialect, error) {
	for _, d := range Dialects {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dialect: %q (want one of L1, L2, L3, L4, C0, C1)", s)
}

// Construct names one surface form subject to dialect restriction.
type Construct string

const (
	// types
	TyInt       Construct = "int"
	TyBool      Construct = "bool"
	TyString    Construct = "string"
	TyChar      Construct = "char"
	TyVoid      Construct = "void"
	TyPointer   Construct = "pointer types"
	TyArray     Construct = "array types"
	TyStruct    Construct = "struct types"
	TyNamed     Construct = "typedef names"
	TyVoidPtr   Construct = "void pointers"
	TyFunctionT Construct = "function types"

	// expressions
	ExIntLit     Construct = "integer literals"
	ExBoolLit    Construct = "boolean literals"
	ExStringLit  Construct = "string literals"
	ExCharLit    Construct = "character literals"
	ExNull       Construct = "NULL"
	ExIdent      Construct = "variables"
	ExArith      Construct = "arithmetic operators"
	ExBitwise    Construct = "bitwise and shift operators"
	ExCompare    Construct = "comparison operators"
	ExLogical    Construct = "logical operators"
	ExTernary    Construct = "conditional expressions"
	ExCall       Construct = "function calls"
	ExDeref      Construct = "pointer dereference"
	ExMember     Construct = "field access"
	ExIndex      Construct = "array indexing"
	ExAlloc      Construct = "alloc"
	ExAllocArray Construct = "alloc_array"
	ExResult     Construct = "\\result"
	ExLength     Construct = "\\length"
	ExHasTag     Construct = "\\hastag"
	ExAddrOf     Construct = "address-of (&)"
	ExCast       Construct = "casts"
	ExIndirect   Construct = "calls through function pointers"

	// statements
	StDecl     Construct = "variable declarations"
	StAssign   Construct = "assignment"
	StCompound Construct = "compound assignment"
	StUpdate   Construct = "increment and decrement"
	StReturn   Construct = "return"
	StBlock    Construct = "blocks"
	StIf       Construct = "if statements"
	StWhile    Construct = "while loops"
	StFor      Construct = "for loops"
	StExpr     Construct = "expression statements"
	StAssert   Construct = "assert"
	StError    Construct = "error"
	StBreak    Construct = "break"
	StContinue Construct = "continue"

	// annotations
	AnRequires  Construct = "@requires"
	AnEnsures   Construct = "@ensures"
	AnInvariant Construct = "@loop_invariant"
	AnAssert    Construct = "@assert"

	// declarations
	DeFunction     Construct = "function definitions"
	DeNonMain      Construct = "functions other than main"
	DePrototype    Construct = "function declarations"
	DeTypedef      Construct = "typedefs"
	DeFunctionType Construct = "function type definitions"
	DeStruct       Construct = "struct declarations"
	DeUse          Construct = "#use"
)

var (
	fromL1 = []Dialect{L1, L2, L3, L4, C0, C1}
	fromL2 = []Dialect{L2, L3, L4, C0, C1}
	fromL3 = []Dialect{L3, L4, C0, C1}
	fromL4 = []Dialect{L4, C0, C1}
	fromC0 = []Dialect{C0, C1}
	fromC1 = []Dialect{C1}
)

// policy lists, per construct, every dialect in which it is legal.
var policy = map[Construct][]Dialect{
	TyInt:       fromL1,
	TyBool:      fromL2,
	TyString:    fromC0,
	TyChar:      fromC0,
	TyVoid:      fromL3,
	TyPointer:   fromL4,
	TyArray:     fromL4,
	TyStruct:    fromL4,
	TyNamed:     fromL3,
	TyVoidPtr:   fromC1,
	TyFunctionT: fromC1,

	ExIntLit:     fromL1,
	ExBoolLit:    fromL2,
	ExStringLit:  fromC0,
	ExCharLit:    fromC0,
	ExNull:       fromL4,
	ExIdent:      fromL1,
	ExArith:      fromL1,
	ExBitwise:    fromL2,
	ExCompare:    fromL2,
	ExLogical:    fromL2,
	ExTernary:    fromL2,
	ExCall:       fromL3,
	ExDeref:      fromL4,
	ExMember:     fromL4,
	ExIndex:      fromL4,
	ExAlloc:      fromL4,
	ExAllocArray: fromL4,
	ExResult:     fromC0,
	ExLength:     fromC0,
	ExHasTag:     fromC1,
	ExAddrOf:     fromC1,
	ExCast:       fromC1,
	ExIndirect:   fromC1,

	StDecl:     fromL1,
	StAssign:   fromL1,
	StCompound: fromL1,
	StUpdate:   fromL2,
	StReturn:   fromL1,
	StBlock:    fromL1,
	StIf:       fromL2,
	StWhile:    fromL2,
	StFor:      fromL2,
	StExpr:     fromL3,
	StAssert:   fromL3,
	StError:    fromC0,
	StBreak:    fromC1,
	StContinue: fromC1,

	AnRequires:  fromC0,
	AnEnsures:   fromC0,
	AnInvariant: fromC0,
	AnAssert:    fromC0,

	DeFunction:     fromL1,
	DeNonMain:      fromL3,
	DePrototype:    fromL3,
	DeTypedef:      fromL3,
	DeFunctionType: fromC1,
	DeStruct:       fromL4,
	DeUse:          fromC0,
}

// Allowed reports the dialects that admit c, in ascending order.
func Allowed(c Construct) []Dialect {
	return policy[c]
}

// Permits reports whether dialect d admits construct c.
func (d Dialect) Permits(c Construct) bool {
	return slices.Contains(policy[c], d)
}

// Constructs lists every construct in the table, sorted by name.
func Constructs() []Construct {
	out := make([]Construct, 0, len(policy))
	for c := range policy {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// DescribeAllowed renders the dialect list of c for error messages.
func DescribeAllowed(c Construct) string {
	ds := policy[c]
	if len(ds) == 0 {
		return "no dialect"
	}
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}
