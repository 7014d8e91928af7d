// Package flow is the definite-assignment checker. It runs after type
// checking and rejects reads of locals that are not assigned on every path,
// writes to locals mentioned in @ensures, non-void functions that can fall
// off their end, and calls to functions that are never defined.
package flow

import (
	"slices"

	"github.com/hashicorp/go-set/v3"

	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/env"
	"c0lang/internal/source"
)

type names = *set.Set[string]

// Check flow-checks every defined function in e, then requires that every
// function reachable from roots has a definition. Library functions are
// provided natively and need none.
func Check(e *env.Env, roots []string) error {
	free := map[string]names{}
	for _, d := range e.Decls() {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		funcs, err := Function(fn)
		if err != nil {
			return err
		}
		free[fn.Name] = funcs
	}
	return checkDefined(e, roots, free)
}

// Function checks one function definition and returns the names of the
// functions it calls or takes the address of.
func Function(fn *ast.FuncDecl) (names, error) {
	c := &checker{
		constants: set.New[string](0),
		funcs:     set.New[string](0),
	}
	params := set.New[string](len(fn.Params))
	for _, p := range fn.Params {
		params.Insert(p.Name)
	}
	for _, e := range fn.Requires {
		c.uses(params, params, e)
	}
	for _, e := range fn.Ensures {
		c.uses(params, params, e)
		c.constants.InsertSet(freeLocals(params, e))
	}
	_, returns := c.stmt(params, params.Copy(), fn.Body)
	if c.err != nil {
		return nil, c.err
	}
	if !returns && !isVoid(fn.Ret) {
		return nil, diag.At(diag.MissingReturnError, fn.S, "function %s may end without returning a value", fn.Name)
	}
	return c.funcs, nil
}

func isVoid(t ast.Type) bool {
	_, ok := t.(*ast.VoidType)
	return ok
}

func checkDefined(e *env.Env, roots []string, free map[string]names) error {
	seen := set.New[string](len(free))
	queue := slices.Clone(roots)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if !seen.Insert(name) {
			continue
		}
		if e.IsLibFunction(name) {
			continue
		}
		fn := e.Function(name)
		if fn == nil {
			return diag.New(diag.UndeclaredFunctionError, "undeclared function %s", name)
		}
		if fn.Body == nil {
			return diag.At(diag.MissingDefinitionError, fn.S, "function %s is used but never defined", name)
		}
		callees := free[name].Slice()
		slices.Sort(callees)
		queue = append(queue, callees...)
	}
	return nil
}

type checker struct {
	// constants are the locals mentioned in @ensures.
	constants names
	// funcs collects the free function names of the body.
	funcs names
	// continues holds, per enclosing loop, the intersection of the defined
	// sets at its continue statements; nil until one is seen.
	continues []names
	err       *diag.Error
}

func (c *checker) errorAt(kind diag.Kind, span source.Span, format string, args ...any) {
	if c.err == nil {
		c.err = diag.At(kind, span, format, args...)
	}
}

func intersect(a, b names) names {
	return a.Intersect(b).(*set.Set[string])
}

// stmt returns the locals defined after s and whether s always returns.
// locals holds every local in scope; defined is owned by the caller and
// never modified.
func (c *checker) stmt(locals, defined names, s ast.Stmt) (names, bool) {
	if c.err != nil {
		return defined, false
	}
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		out := defined.Copy()
		if s.Init != nil {
			c.uses(locals, defined, s.Init)
			out.Insert(s.Name)
		}
		return out, false
	case *ast.AssignStmt:
		c.uses(locals, defined, s.Right)
		if id, ok := s.Left.(*ast.IdentExpr); ok {
			c.assign(id)
			if s.Op != "=" {
				c.uses(locals, defined, id)
			}
			out := defined.Copy()
			out.Insert(id.Name)
			return out, false
		}
		c.uses(locals, defined, s.Left)
		return defined, false
	case *ast.UpdateStmt:
		if id, ok := s.X.(*ast.IdentExpr); ok {
			c.assign(id)
		}
		c.uses(locals, defined, s.X)
		return defined, false
	case *ast.ExprStmt:
		c.uses(locals, defined, s.X)
		return defined, false
	case *ast.AssertStmt:
		c.uses(locals, defined, s.X)
		return defined, false
	case *ast.AnnoAssertStmt:
		c.uses(locals, defined, s.X)
		return defined, false
	case *ast.ErrorStmt:
		c.uses(locals, defined, s.X)
		return locals.Copy(), true
	case *ast.IfStmt:
		c.uses(locals, defined, s.Test)
		d1, r1 := c.stmt(locals, defined, s.Then)
		d2, r2 := defined, false
		if s.Else != nil {
			d2, r2 = c.stmt(locals, defined, s.Else)
		}
		return intersect(d1, d2), r1 && r2
	case *ast.WhileStmt:
		c.uses(locals, defined, s.Test)
		for _, inv := range s.Invariants {
			c.uses(locals, defined, inv)
		}
		c.loop(locals, defined, s.Body)
		return defined, false
	case *ast.ForStmt:
		inner, innerDefined := locals, defined
		if s.Init != nil {
			if d, ok := s.Init.(*ast.VarDeclStmt); ok {
				inner = locals.Copy()
				inner.Insert(d.Name)
			}
			innerDefined, _ = c.stmt(inner, defined, s.Init)
		}
		c.uses(inner, innerDefined, s.Test)
		for _, inv := range s.Invariants {
			c.uses(inner, innerDefined, inv)
		}
		afterBody := c.loop(inner, innerDefined, s.Body)
		if s.Update != nil {
			c.stmt(inner, afterBody, s.Update)
		}
		return intersect(innerDefined, locals), false
	case *ast.ReturnStmt:
		if s.X != nil {
			c.uses(locals, defined, s.X)
		}
		return locals.Copy(), true
	case *ast.ContinueStmt:
		top := len(c.continues) - 1
		if top < 0 {
			c.errorAt(diag.ImpossibleError, s.S, "continue outside of a loop")
			return defined, false
		}
		if c.continues[top] == nil {
			c.continues[top] = defined.Copy()
		} else {
			c.continues[top] = intersect(c.continues[top], defined)
		}
		return locals.Copy(), false
	case *ast.BreakStmt:
		return locals.Copy(), false
	case *ast.BlockStmt:
		return c.block(locals, defined, s)
	}
	c.errorAt(diag.ImpossibleError, s.Span(), "unexpected statement %T", s)
	return defined, false
}

// loop checks a loop body and returns what is defined where control
// reaches the update: the end of the body joined with every continue.
func (c *checker) loop(locals, defined names, body ast.Stmt) names {
	c.continues = append(c.continues, nil)
	out, _ := c.stmt(locals, defined, body)
	top := len(c.continues) - 1
	if cont := c.continues[top]; cont != nil {
		out = intersect(out, cont)
	}
	c.continues = c.continues[:top]
	return out
}

func (c *checker) block(locals, defined names, b *ast.BlockStmt) (names, bool) {
	inner := locals
	returns := false
	for _, s := range b.Stmts {
		if d, ok := s.(*ast.VarDeclStmt); ok {
			if inner == locals {
				inner = locals.Copy()
			}
			inner.Insert(d.Name)
		}
		var r bool
		defined, r = c.stmt(inner, defined, s)
		returns = returns || r
	}
	return intersect(defined, locals), returns
}

func (c *checker) assign(id *ast.IdentExpr) {
	if c.constants.Contains(id.Name) {
		c.errorAt(diag.ConstantReassignmentError, id.S, "%s is mentioned in @ensures and cannot be assigned", id.Name)
	}
}

// uses requires every local read by e to be defined and records the
// functions e refers to.
func (c *checker) uses(locals, defined names, e ast.Expr) {
	walkExpr(e, func(e ast.Expr) {
		switch e := e.(type) {
		case *ast.IdentExpr:
			if locals.Contains(e.Name) && !defined.Contains(e.Name) {
				c.errorAt(diag.UseBeforeAssignError, e.S, "%s may be used before it is assigned", e.Name)
			}
		case *ast.CallExpr:
			c.funcs.Insert(e.Callee)
		case *ast.AddrOfExpr:
			c.funcs.Insert(e.Func)
		}
	})
}

// freeLocals lists the locals among the identifiers of e.
func freeLocals(locals names, e ast.Expr) names {
	out := set.New[string](0)
	walkExpr(e, func(e ast.Expr) {
		if id, ok := e.(*ast.IdentExpr); ok && locals.Contains(id.Name) {
			out.Insert(id.Name)
		}
	})
	return out
}
