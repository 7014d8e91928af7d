package typecheck

import (
	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/types"
)

var ordinary = mode{kind: modeOrdinary}

// checkStmt checks s and returns the locals in scope after it. Only a
// declaration extends the environment; compound statements hand back what
// they were given.
func (c *Checker) checkStmt(locals *Locals, s ast.Stmt, ret types.Type, inLoop bool) *Locals {
	if c.err != nil {
		return locals
	}
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		t := c.resolve(s.Type)
		c.checkTypeInDeclaration(t, s.S, "variable "+s.Name)
		if _, ok := locals.Lookup(s.Name); ok {
			c.errorAt(diag.DuplicateDeclarationError, s.S, "variable %s is already declared", s.Name)
			return locals
		}
		if s.Init != nil {
			c.check(locals, s.Init, t, ordinary)
		}
		return locals.Extend(s.Name, t)
	case *ast.AssignStmt:
		lt := c.lvalue(locals, s.Left)
		if lt.K == types.TyBad {
			return locals
		}
		if s.Op == "=" {
			c.check(locals, s.Right, lt, ordinary)
			return locals
		}
		if lt.K != types.TyInt {
			c.errorAt(diag.SubtypeMismatchError, s.Left.Span(), "%s requires an int, found %s", s.Op, lt)
			return locals
		}
		c.check(locals, s.Right, types.Int, ordinary)
	case *ast.UpdateStmt:
		lt := c.lvalue(locals, s.X)
		if lt.K != types.TyInt && lt.K != types.TyBad {
			c.errorAt(diag.SubtypeMismatchError, s.X.Span(), "%s requires an int, found %s", s.Op, lt)
		}
	case *ast.ExprStmt:
		t := c.synth(locals, s.X, ordinary)
		if t.K != types.TyVoid && t.K != types.TyBad && !t.Small() {
			c.errorAt(diag.NotSmallTypeError, s.S, "expression has large type %s", t)
		}
	case *ast.IfStmt:
		c.check(locals, s.Test, types.Bool, ordinary)
		c.checkStmt(locals, s.Then, ret, inLoop)
		if s.Else != nil {
			c.checkStmt(locals, s.Else, ret, inLoop)
		}
	case *ast.WhileStmt:
		c.check(locals, s.Test, types.Bool, ordinary)
		for _, inv := range s.Invariants {
			c.check(locals, inv, types.Bool, mode{kind: modeInvariant})
		}
		c.checkStmt(locals, s.Body, ret, true)
	case *ast.ForStmt:
		inner := locals
		if s.Init != nil {
			inner = c.checkStmt(locals, s.Init, ret, inLoop)
		}
		c.check(inner, s.Test, types.Bool, ordinary)
		for _, inv := range s.Invariants {
			c.check(inner, inv, types.Bool, mode{kind: modeInvariant})
		}
		if s.Update != nil {
			c.checkStmt(inner, s.Update, ret, true)
		}
		c.checkStmt(inner, s.Body, ret, true)
	case *ast.ReturnStmt:
		switch {
		case ret.K == types.TyVoid && s.X != nil:
			c.errorAt(diag.TypeError, s.S, "void function cannot return a value")
		case ret.K != types.TyVoid && s.X == nil:
			c.errorAt(diag.TypeError, s.S, "function must return a value of type %s", ret)
		case s.X != nil:
			c.check(locals, s.X, ret, ordinary)
		}
	case *ast.BlockStmt:
		c.checkBlock(locals, s, ret, inLoop)
	case *ast.AssertStmt:
		c.check(locals, s.X, types.Bool, ordinary)
	case *ast.ErrorStmt:
		c.check(locals, s.X, types.String, ordinary)
	case *ast.BreakStmt:
		if !inLoop {
			c.errorAt(diag.TypeError, s.S, "break outside of a loop")
		}
	case *ast.ContinueStmt:
		if !inLoop {
			c.errorAt(diag.TypeError, s.S, "continue outside of a loop")
		}
	case *ast.AnnoAssertStmt:
		c.check(locals, s.X, types.Bool, mode{kind: modeAssert})
	default:
		c.errorAt(diag.ImpossibleError, s.Span(), "unexpected statement %T", s)
	}
	return locals
}

func (c *Checker) checkBlock(locals *Locals, b *ast.BlockStmt, ret types.Type, inLoop bool) {
	inner := locals
	for _, s := range b.Stmts {
		inner = c.checkStmt(inner, s, ret, inLoop)
	}
}

// lvalue checks an assignment target and returns its type.
func (c *Checker) lvalue(locals *Locals, e ast.Expr) types.Type {
	switch e.(type) {
	case *ast.IdentExpr, *ast.MemberExpr, *ast.IndexExpr, *ast.DerefExpr:
	default:
		c.errorAt(diag.TypeError, e.Span(), "invalid assignment target")
		return types.Bad
	}
	t := c.synth(locals, e, ordinary)
	if t.K != types.TyBad && !t.Small() {
		c.errorAt(diag.NotSmallTypeError, e.Span(), "cannot assign a value of large type %s", t)
		return types.Bad
	}
	return t
}

// CheckExpr checks a lone expression against locals, as the REPL does.
func (c *Checker) CheckExpr(locals *Locals, e ast.Expr) (types.Type, error) {
	c.err = nil
	t := c.synth(locals, e, ordinary)
	if c.err != nil {
		return types.Bad, c.err
	}
	return types.Erase(t), nil
}
