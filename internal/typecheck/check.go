// Package typecheck checks declarations against the global environment and
// synthesizes a type for every expression. Each declaration is checked as it
// is appended, so a function body sees its own signature and every earlier
// declaration but nothing after it.
package typecheck

import (
	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/env"
	"c0lang/internal/source"
	"c0lang/internal/types"
)

type CheckedProgram struct {
	Env *env.Env
	// ExprTypes holds the erased type of every checked expression.
	ExprTypes map[ast.Expr]types.Type
}

type Options struct {
	// RequireMain demands a definition of `int main()`.
	RequireMain bool
}

// Check declares and checks every declaration of prog in order.
func Check(e *env.Env, prog *ast.Program, opts Options) (*CheckedProgram, error) {
	c := NewChecker(e)
	for _, d := range prog.Decls {
		if err := c.Decl(d); err != nil {
			return nil, err
		}
	}
	if opts.RequireMain {
		if err := CheckMain(e); err != nil {
			return nil, err
		}
	}
	return c.Result(), nil
}

// Checker checks declarations one at a time against a growing environment.
type Checker struct {
	env       *env.Env
	exprTypes map[ast.Expr]types.Type
	err       *diag.Error
}

func NewChecker(e *env.Env) *Checker {
	return &Checker{env: e, exprTypes: map[ast.Expr]types.Type{}}
}

func (c *Checker) Result() *CheckedProgram {
	return &CheckedProgram{Env: c.env, ExprTypes: c.exprTypes}
}

// Decl checks d against every earlier declaration, appends it to the
// environment and checks its contracts and body.
func (c *Checker) Decl(d ast.Decl) error {
	c.err = nil
	switch d := d.(type) {
	case *ast.UseDecl:
		return nil
	case *ast.TypeDef:
		c.checkTypeNameFree(d.Name, d.S)
		if c.err != nil {
			return c.err
		}
		t := c.resolve(d.Type)
		if c.err == nil && t.K == types.TyVoid {
			c.errorAt(diag.TypeError, d.S, "cannot define %s as void", d.Name)
		}
		if c.err != nil {
			return c.err
		}
		c.env.Declare(d)
	case *ast.FuncTypeDef:
		c.checkTypeNameFree(d.Name, d.S)
		if c.err != nil {
			return c.err
		}
		sig := c.signature(d.Params, d.Ret)
		if c.err != nil {
			return c.err
		}
		c.env.Declare(d)
		c.checkContracts(d.Params, sig, d.Requires, d.Ensures)
	case *ast.StructDecl:
		c.checkStruct(d)
		if c.err != nil {
			return c.err
		}
		c.env.Declare(d)
	case *ast.FuncDecl:
		sig := c.checkFuncDecl(d)
		if c.err != nil {
			return c.err
		}
		c.env.Declare(d)
		locals := c.checkContracts(d.Params, sig, d.Requires, d.Ensures)
		if d.Body != nil && c.err == nil {
			c.checkBlock(locals, d.Body, sig.Ret, false)
		}
	default:
		c.errorAt(diag.ImpossibleError, d.Span(), "unexpected declaration %T", d)
	}
	if c.err != nil {
		return c.err
	}
	return nil
}

// CheckMain requires a definition of `int main()`.
func CheckMain(e *env.Env) error {
	fn := e.Function("main")
	if fn == nil || fn.Body == nil {
		return diag.New(diag.TypeError, "program has no definition of int main()")
	}
	sig, err := e.Sig(fn.Params, fn.Ret)
	if err != nil {
		return err
	}
	if len(sig.Params) != 0 || sig.Ret.K != types.TyInt {
		return diag.At(diag.TypeError, fn.S, "main must have type int main(), found %s", sig)
	}
	return nil
}

func (c *Checker) errorAt(kind diag.Kind, span source.Span, format string, args ...any) {
	if c.err == nil {
		c.err = diag.At(kind, span, format, args...)
	}
}

func (c *Checker) fail(err error) {
	if c.err != nil || err == nil {
		return
	}
	if e, ok := err.(*diag.Error); ok {
		c.err = e
		return
	}
	c.err = diag.Impossible("%v", err)
}

func (c *Checker) resolve(t ast.Type) types.Type {
	rt, err := c.env.Resolve(t)
	if err != nil {
		c.fail(err)
		return types.Bad
	}
	return rt
}

// checkTypeNameFree rejects a typedef whose name is already taken by a
// typedef or a function.
func (c *Checker) checkTypeNameFree(name string, span source.Span) {
	for _, prev := range c.env.Lookup(name) {
		switch prev.(type) {
		case *ast.TypeDef, *ast.FuncTypeDef, *ast.FuncDecl:
			c.errorAt(diag.DuplicateDeclarationError, span, "%s is already declared", name)
			return
		}
	}
}

func (c *Checker) checkStruct(d *ast.StructDecl) {
	if !d.Defined {
		return
	}
	if prev := c.env.Struct(d.Name); prev != nil && prev.Defined {
		c.errorAt(diag.DuplicateDeclarationError, d.S, "struct %s is already defined", d.Name)
		return
	}
	seen := map[string]bool{}
	for _, f := range d.Fields {
		if seen[f.Name] {
			c.errorAt(diag.DuplicateDeclarationError, f.S, "field %s is declared twice in struct %s", f.Name, d.Name)
			return
		}
		seen[f.Name] = true
		ft := c.resolve(f.Type)
		switch ft.K {
		case types.TyVoid:
			c.errorAt(diag.TypeError, f.S, "field %s cannot have type void", f.Name)
		case types.TyFunc:
			c.errorAt(diag.NotSmallTypeError, f.S, "field %s has function type %s; use a function pointer", f.Name, ft)
		case types.TyStruct:
			if ft.Name == d.Name {
				c.errorAt(diag.TypeError, f.S, "struct %s cannot contain itself; use a pointer", d.Name)
			} else if sd := c.env.Struct(ft.Name); sd == nil || !sd.Defined {
				c.errorAt(diag.UnknownTypeError, f.S, "struct %s must be defined before it is used as a field", ft.Name)
			}
		}
		if c.err != nil {
			return
		}
	}
}

func (c *Checker) signature(params []ast.Param, ret ast.Type) *types.FuncSig {
	sig := &types.FuncSig{Ret: c.resolve(ret)}
	if c.err != nil {
		return sig
	}
	if sig.Ret.K != types.TyVoid {
		c.checkTypeInDeclaration(sig.Ret, ret.Span(), "return type")
	}
	seen := map[string]bool{}
	for _, p := range params {
		if seen[p.Name] {
			c.errorAt(diag.DuplicateDeclarationError, p.S, "parameter %s is declared twice", p.Name)
			return sig
		}
		seen[p.Name] = true
		pt := c.resolve(p.Type)
		c.checkTypeInDeclaration(pt, p.S, "parameter "+p.Name)
		sig.Params = append(sig.Params, pt)
	}
	return sig
}

// checkTypeInDeclaration enforces the smallness rule for locals, parameters
// and return types.
func (c *Checker) checkTypeInDeclaration(t types.Type, span source.Span, what string) {
	switch {
	case t.K == types.TyBad:
	case t.K == types.TyVoid:
		c.errorAt(diag.TypeError, span, "%s cannot have type void", what)
	case !t.Small():
		c.errorAt(diag.NotSmallTypeError, span, "%s has large type %s; use a pointer", what, t)
	}
}

func (c *Checker) checkFuncDecl(d *ast.FuncDecl) *types.FuncSig {
	for _, prev := range c.env.Lookup(d.Name) {
		switch prev.(type) {
		case *ast.TypeDef, *ast.FuncTypeDef:
			c.errorAt(diag.DuplicateDeclarationError, d.S, "%s is already declared as a type", d.Name)
			return nil
		}
	}
	sig := c.signature(d.Params, d.Ret)
	if c.err != nil {
		return sig
	}
	for _, prev := range c.env.Lookup(d.Name) {
		fn, ok := prev.(*ast.FuncDecl)
		if !ok {
			continue
		}
		psig, err := c.env.Sig(fn.Params, fn.Ret)
		if err != nil {
			c.fail(err)
			return sig
		}
		if !types.EqualSigs(sig, psig) {
			c.errorAt(diag.IncompatibleRedeclarationError, d.S, "%s redeclared as %s, previously %s", d.Name, sig, psig)
			return sig
		}
		if d.Body != nil && fn.Body != nil {
			c.errorAt(diag.DuplicateDeclarationError, d.S, "function %s is defined twice", d.Name)
			return sig
		}
		if d.Body != nil && fn.Lib {
			c.errorAt(diag.DuplicateDeclarationError, d.S, "function %s is declared in a library and cannot be redefined", d.Name)
			return sig
		}
	}
	return sig
}

// checkContracts checks requires and ensures clauses and returns the
// parameter environment.
func (c *Checker) checkContracts(params []ast.Param, sig *types.FuncSig, requires, ensures []ast.Expr) *Locals {
	var locals *Locals
	for i, p := range params {
		locals = locals.Extend(p.Name, sig.Params[i])
	}
	for _, e := range requires {
		c.check(locals, e, types.Bool, mode{kind: modeRequires})
	}
	for _, e := range ensures {
		c.check(locals, e, types.Bool, mode{kind: modeEnsures, ret: sig.Ret})
	}
	return locals
}
