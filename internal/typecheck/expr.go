package typecheck

import (
	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/source"
	"c0lang/internal/types"
)

type modeKind int

const (
	modeOrdinary modeKind = iota
	modeRequires
	modeEnsures
	modeInvariant
	modeAssert
)

// mode says where an expression sits. Contract-only forms are legal only
// outside modeOrdinary; \result only in modeEnsures.
type mode struct {
	kind modeKind
	ret  types.Type // modeEnsures only
}

func (m mode) annotation() bool { return m.kind != modeOrdinary }

func (c *Checker) setExprType(e ast.Expr, t types.Type) types.Type {
	c.exprTypes[e] = types.Erase(t)
	return t
}

// check synthesizes e and requires it to be a subtype of want. A NULL or &f
// operand is recorded with the expected type.
func (c *Checker) check(locals *Locals, e ast.Expr, want types.Type, m mode) types.Type {
	got := c.synth(locals, e, m)
	if got.K == types.TyBad || want.K == types.TyBad {
		return want
	}
	if !types.IsSubtype(got, want) {
		c.errorAt(diag.SubtypeMismatchError, e.Span(), "expected %s, found %s", want, got)
		return want
	}
	if got.K == types.TyNull || got.K == types.TyFuncPtr {
		c.exprTypes[e] = types.Erase(want)
	}
	return want
}

func (c *Checker) synth(locals *Locals, ex ast.Expr, m mode) types.Type {
	if c.err != nil {
		return types.Bad
	}
	switch e := ex.(type) {
	case *ast.IntLit:
		return c.setExprType(ex, types.Int)
	case *ast.BoolLit:
		return c.setExprType(ex, types.Bool)
	case *ast.StringLit:
		return c.setExprType(ex, types.String)
	case *ast.CharLit:
		return c.setExprType(ex, types.Char)
	case *ast.NullLit:
		return c.setExprType(ex, types.Null)
	case *ast.IdentExpr:
		if t, ok := locals.Lookup(e.Name); ok {
			return c.setExprType(ex, t)
		}
		if c.env.Function(e.Name) != nil {
			c.errorAt(diag.TypeError, e.S, "function %s cannot be used as a value; take its address with &%s", e.Name, e.Name)
			return types.Bad
		}
		c.errorAt(diag.UndeclaredVariableError, e.S, "undeclared variable %s", e.Name)
		return types.Bad
	case *ast.UnaryExpr:
		if e.Op == "!" {
			c.check(locals, e.X, types.Bool, m)
			return c.setExprType(ex, types.Bool)
		}
		c.check(locals, e.X, types.Int, m)
		return c.setExprType(ex, types.Int)
	case *ast.BinaryExpr:
		return c.setExprType(ex, c.binary(locals, e, m))
	case *ast.LogicalExpr:
		c.check(locals, e.Left, types.Bool, m)
		c.check(locals, e.Right, types.Bool, m)
		return c.setExprType(ex, types.Bool)
	case *ast.CondExpr:
		c.check(locals, e.Test, types.Bool, m)
		a := c.synth(locals, e.Then, m)
		b := c.synth(locals, e.Else, m)
		if c.err != nil {
			return types.Bad
		}
		t, err := types.LUB(a, b)
		if err != nil {
			c.errorAt(diag.TypeError, e.S, "%v", err)
			return types.Bad
		}
		if !t.Small() {
			c.errorAt(diag.NotSmallTypeError, e.S, "conditional expression has large type %s", t)
			return types.Bad
		}
		c.refine(e.Then, a, t)
		c.refine(e.Else, b, t)
		return c.setExprType(ex, t)
	case *ast.CallExpr:
		return c.setExprType(ex, c.call(locals, e, m))
	case *ast.IndirectCallExpr:
		ft := c.synth(locals, e.Fn, m)
		if ft.K == types.TyBad {
			return types.Bad
		}
		var sig *types.FuncSig
		switch {
		case ft.K == types.TyPointer && ft.Elem.K == types.TyFunc:
			sig = ft.Elem.Sig
		case ft.K == types.TyFuncPtr:
			sig = ft.Sig
		default:
			c.errorAt(diag.TypeError, e.Fn.Span(), "only function pointers can be dereferenced and called, found %s", ft)
			return types.Bad
		}
		c.args(locals, "function pointer", e.Args, sig, e.S, m)
		return c.setExprType(ex, sig.Ret)
	case *ast.MemberExpr:
		return c.setExprType(ex, c.member(locals, e, m))
	case *ast.IndexExpr:
		at := c.synth(locals, e.X, m)
		c.check(locals, e.Index, types.Int, m)
		if at.K == types.TyBad {
			return types.Bad
		}
		if at.K != types.TyArray {
			c.errorAt(diag.TypeError, e.X.Span(), "indexing requires an array, found %s", at)
			return types.Bad
		}
		return c.setExprType(ex, *at.Elem)
	case *ast.DerefExpr:
		pt := c.synth(locals, e.X, m)
		switch {
		case pt.K == types.TyBad:
			return types.Bad
		case pt.K == types.TyNull:
			c.errorAt(diag.TypeError, e.S, "cannot dereference NULL")
			return types.Bad
		case pt.IsVoidPtr():
			c.errorAt(diag.TypeError, e.S, "cannot dereference void*; cast it first")
			return types.Bad
		case pt.K != types.TyPointer:
			c.errorAt(diag.TypeError, e.S, "dereference requires a pointer, found %s", pt)
			return types.Bad
		}
		return c.setExprType(ex, *pt.Elem)
	case *ast.AddrOfExpr:
		if _, ok := locals.Lookup(e.Func); ok {
			c.errorAt(diag.TypeError, e.S, "cannot take the address of variable %s", e.Func)
			return types.Bad
		}
		sig, err := c.env.FuncSig(e.Func)
		if err != nil {
			c.errorAt(diag.UndeclaredFunctionError, e.S, "undeclared function %s", e.Func)
			return types.Bad
		}
		return c.setExprType(ex, types.FuncPtr(sig))
	case *ast.CastExpr:
		return c.setExprType(ex, c.cast(locals, e, m))
	case *ast.AllocExpr:
		t := c.allocType(e.Type)
		if t.K == types.TyBad {
			return types.Bad
		}
		return c.setExprType(ex, types.Pointer(t))
	case *ast.AllocArrayExpr:
		t := c.allocType(e.Type)
		c.check(locals, e.Size, types.Int, m)
		if t.K == types.TyBad {
			return types.Bad
		}
		return c.setExprType(ex, types.Array(t))
	case *ast.ResultExpr:
		if m.kind != modeEnsures {
			c.errorAt(diag.ResultOutsideEnsuresError, e.S, "\\result is only allowed in @ensures")
			return types.Bad
		}
		if m.ret.K == types.TyVoid {
			c.errorAt(diag.ResultOutsideEnsuresError, e.S, "\\result is not allowed in a function returning void")
			return types.Bad
		}
		return c.setExprType(ex, m.ret)
	case *ast.LengthExpr:
		if !m.annotation() {
			c.errorAt(diag.AnnotationOnlyError, e.S, "\\length is only allowed in annotations")
			return types.Bad
		}
		at := c.synth(locals, e.X, m)
		if at.K != types.TyArray && at.K != types.TyBad {
			c.errorAt(diag.TypeError, e.X.Span(), "\\length requires an array, found %s", at)
			return types.Bad
		}
		return c.setExprType(ex, types.Int)
	case *ast.HasTagExpr:
		if !m.annotation() {
			c.errorAt(diag.AnnotationOnlyError, e.S, "\\hastag is only allowed in annotations")
			return types.Bad
		}
		t := c.resolve(e.Type)
		if t.K != types.TyPointer || t.IsVoidPtr() {
			c.errorAt(diag.TypeError, e.Type.Span(), "\\hastag requires a non-void pointer type, found %s", t)
			return types.Bad
		}
		c.check(locals, e.X, types.Pointer(types.Void), m)
		return c.setExprType(ex, types.Bool)
	}
	c.errorAt(diag.ImpossibleError, ex.Span(), "unexpected expression %T", ex)
	return types.Bad
}

// refine records the unified type for a branch or operand that synthesized
// a checker-only type.
func (c *Checker) refine(e ast.Expr, got, unified types.Type) {
	if got.K == types.TyNull || got.K == types.TyFuncPtr {
		c.exprTypes[e] = types.Erase(unified)
	}
}

func (c *Checker) binary(locals *Locals, e *ast.BinaryExpr, m mode) types.Type {
	switch e.Op {
	case "+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>":
		c.check(locals, e.Left, types.Int, m)
		c.check(locals, e.Right, types.Int, m)
		return types.Int
	case "<", "<=", ">", ">=":
		a := c.synth(locals, e.Left, m)
		b := c.synth(locals, e.Right, m)
		if c.err != nil {
			return types.Bad
		}
		if (a.K == types.TyInt && b.K == types.TyInt) || (a.K == types.TyChar && b.K == types.TyChar) {
			return types.Bool
		}
		c.errorAt(diag.IncomparableTypeError, e.S, "%s only compares two ints or two chars, found %s and %s", e.Op, a, b)
		return types.Bad
	case "==", "!=":
		a := c.synth(locals, e.Left, m)
		b := c.synth(locals, e.Right, m)
		if c.err != nil {
			return types.Bad
		}
		for _, t := range []types.Type{a, b} {
			switch t.K {
			case types.TyString:
				c.errorAt(diag.IncomparableTypeError, e.S, "strings cannot be compared with %s; use string_equal from <string>", e.Op)
				return types.Bad
			case types.TyStruct:
				c.errorAt(diag.IncomparableTypeError, e.S, "structs cannot be compared; compare pointers to them instead")
				return types.Bad
			case types.TyVoid:
				c.errorAt(diag.IncomparableTypeError, e.S, "void values cannot be compared")
				return types.Bad
			case types.TyFunc:
				c.errorAt(diag.IncomparableTypeError, e.S, "functions cannot be compared; compare function pointers instead")
				return types.Bad
			}
		}
		t, err := types.LUB(a, b)
		if err != nil {
			c.errorAt(diag.IncomparableTypeError, e.S, "cannot compare %s and %s", a, b)
			return types.Bad
		}
		c.refine(e.Left, a, t)
		c.refine(e.Right, b, t)
		return types.Bool
	}
	c.errorAt(diag.ImpossibleError, e.S, "unknown operator %s", e.Op)
	return types.Bad
}

func (c *Checker) call(locals *Locals, e *ast.CallExpr, m mode) types.Type {
	if _, ok := locals.Lookup(e.Callee); ok {
		c.errorAt(diag.TypeError, e.S, "%s is a variable, not a function", e.Callee)
		return types.Bad
	}
	fn := c.env.Function(e.Callee)
	if fn == nil {
		c.errorAt(diag.UndeclaredFunctionError, e.S, "undeclared function %s", e.Callee)
		return types.Bad
	}
	sig, err := c.env.Sig(fn.Params, fn.Ret)
	if err != nil {
		c.fail(err)
		return types.Bad
	}
	c.args(locals, e.Callee, e.Args, sig, e.S, m)
	return sig.Ret
}

func (c *Checker) args(locals *Locals, name string, args []ast.Expr, sig *types.FuncSig, span source.Span, m mode) {
	if len(args) != len(sig.Params) {
		c.errorAt(diag.ArityMismatchError, span, "%s expects %d arguments, found %d", name, len(sig.Params), len(args))
		return
	}
	for i, a := range args {
		c.check(locals, a, sig.Params[i], m)
	}
}

func (c *Checker) member(locals *Locals, e *ast.MemberExpr, m mode) types.Type {
	xt := c.synth(locals, e.X, m)
	if xt.K == types.TyBad {
		return types.Bad
	}
	st := xt
	if e.Deref {
		if xt.K != types.TyPointer || xt.Elem.K != types.TyStruct {
			c.errorAt(diag.TypeError, e.X.Span(), "-> requires a pointer to a struct, found %s", xt)
			return types.Bad
		}
		st = *xt.Elem
	} else if xt.K != types.TyStruct {
		if xt.K == types.TyPointer && xt.Elem.K == types.TyStruct {
			c.errorAt(diag.TypeError, e.X.Span(), "field access on a pointer needs ->, found %s", xt)
			return types.Bad
		}
		c.errorAt(diag.TypeError, e.X.Span(), "field access requires a struct, found %s", xt)
		return types.Bad
	}
	layout, err := c.env.Layout(st.Name, e.S)
	if err != nil {
		c.fail(err)
		return types.Bad
	}
	f, ok := layout.Field(e.Field)
	if !ok {
		c.errorAt(diag.TypeError, e.S, "struct %s has no field %s", st.Name, e.Field)
		return types.Bad
	}
	return f.Type
}

// cast allows conversions to and from void* only.
func (c *Checker) cast(locals *Locals, e *ast.CastExpr, m mode) types.Type {
	to := c.resolve(e.Type)
	from := c.synth(locals, e.X, m)
	if c.err != nil {
		return types.Bad
	}
	if to.K != types.TyPointer {
		c.errorAt(diag.TypeError, e.S, "casts are only allowed between pointer types, not to %s", to)
		return types.Bad
	}
	switch {
	case from.K == types.TyNull:
		c.exprTypes[e.X] = types.Erase(to)
		return to
	case from.K == types.TyFuncPtr:
		c.errorAt(diag.TypeError, e.S, "a function address must be stored in a named function pointer type before it is cast")
		return types.Bad
	case from.K != types.TyPointer:
		c.errorAt(diag.TypeError, e.S, "casts are only allowed between pointer types, not from %s", from)
		return types.Bad
	case types.Equal(from, to), from.IsVoidPtr(), to.IsVoidPtr():
		return to
	}
	c.errorAt(diag.TypeError, e.S, "cannot cast %s to %s; casts must go to or from void*", from, to)
	return types.Bad
}

func (c *Checker) allocType(t ast.Type) types.Type {
	rt := c.resolve(t)
	switch rt.K {
	case types.TyBad:
		return types.Bad
	case types.TyVoid:
		c.errorAt(diag.TypeError, t.Span(), "cannot allocate void")
		return types.Bad
	case types.TyFunc:
		c.errorAt(diag.TypeError, t.Span(), "cannot allocate function type %s", rt)
		return types.Bad
	case types.TyStruct:
		if _, err := c.env.Layout(rt.Name, t.Span()); err != nil {
			c.fail(err)
			return types.Bad
		}
	}
	return rt
}
