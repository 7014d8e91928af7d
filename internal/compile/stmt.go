package compile

import (
	"fmt"
	"strings"

	"c0lang/internal/ast"
	"c0lang/internal/bytecode"
	"c0lang/internal/types"
)

func (g *gen) block(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		g.stmt(s)
	}
}

func (g *gen) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDeclStmt:
		if s.Init != nil {
			g.expr(s.Init)
			g.emit(&bytecode.VStore{Name: s.Name})
		}
	case *ast.AssignStmt:
		g.assign(s.Left, strings.TrimSuffix(s.Op, "="), s.Right)
	case *ast.UpdateStmt:
		op := "+"
		if s.Op == "--" {
			op = "-"
		}
		g.assign(s.X, op, &ast.IntLit{Value: 1, S: s.S})
	case *ast.ExprStmt:
		g.expr(s.X)
		if t := g.typeOf(s.X); t.K != types.TyVoid {
			g.emit(&bytecode.Pop{})
		}
	case *ast.IfStmt:
		then := g.newLabel("if_true")
		els := g.newLabel("if_false")
		join := g.newLabel("if_end")
		g.conditional(s.Test, then, els)
		g.label(then)
		g.stmt(s.Then)
		g.emit(&bytecode.Goto{Target: join})
		g.label(els)
		if s.Else != nil {
			g.stmt(s.Else)
		}
		g.label(join)
	case *ast.WhileStmt:
		head := g.newLabel("loop")
		body := g.newLabel("body")
		exit := g.newLabel("exit")
		g.label(head)
		g.invariants(s.Invariants)
		g.conditional(s.Test, body, exit)
		g.label(body)
		g.loopStack = append(g.loopStack, loopCtx{breakTarget: exit, continueTarget: head})
		g.stmt(s.Body)
		g.loopStack = g.loopStack[:len(g.loopStack)-1]
		g.emit(&bytecode.Goto{Target: head})
		g.label(exit)
	case *ast.ForStmt:
		if s.Init != nil {
			g.stmt(s.Init)
		}
		head := g.newLabel("loop")
		body := g.newLabel("body")
		next := g.newLabel("next")
		exit := g.newLabel("exit")
		g.label(head)
		g.invariants(s.Invariants)
		g.conditional(s.Test, body, exit)
		g.label(body)
		g.loopStack = append(g.loopStack, loopCtx{breakTarget: exit, continueTarget: next})
		g.stmt(s.Body)
		g.loopStack = g.loopStack[:len(g.loopStack)-1]
		g.label(next)
		if s.Update != nil {
			g.stmt(s.Update)
		}
		g.emit(&bytecode.Goto{Target: head})
		g.label(exit)
	case *ast.ReturnStmt:
		if s.X != nil {
			g.expr(s.X)
		}
		g.ret()
	case *ast.BlockStmt:
		g.block(s)
	case *ast.AssertStmt:
		g.check(s.X, "assert", fmt.Sprintf("%s: assert failed", spanString(s.S)))
	case *ast.AnnoAssertStmt:
		if g.opts.Contracts {
			g.contract(s.X, "assert")
		}
	case *ast.ErrorStmt:
		g.expr(s.X)
		g.emit(&bytecode.Abort{Contract: "error"})
	case *ast.BreakStmt:
		if len(g.loopStack) == 0 {
			g.fail("break outside loop")
			return
		}
		g.emit(&bytecode.Goto{Target: g.loopStack[len(g.loopStack)-1].breakTarget})
	case *ast.ContinueStmt:
		if len(g.loopStack) == 0 {
			g.fail("continue outside loop")
			return
		}
		g.emit(&bytecode.Goto{Target: g.loopStack[len(g.loopStack)-1].continueTarget})
	default:
		g.fail("unexpected statement %T", s)
	}
}

func (g *gen) invariants(invs []ast.Expr) {
	if !g.opts.Contracts {
		return
	}
	for _, e := range invs {
		g.contract(e, "loop_invariant")
	}
}

// assign stores right into left, combined with the current value through
// op unless op is empty. The address of a memory lvalue is computed once.
func (g *gen) assign(left ast.Expr, op string, right ast.Expr) {
	if id, ok := left.(*ast.IdentExpr); ok {
		if op != "" {
			g.emit(&bytecode.VLoad{Name: id.Name})
		}
		g.expr(right)
		g.arith(op)
		g.emit(&bytecode.VStore{Name: id.Name})
		return
	}
	kind := bytecode.MemKindOf(g.typeOf(left))
	g.addr(left)
	if op != "" {
		g.emit(&bytecode.Dup{})
		g.emit(&bytecode.MLoad{Kind: kind})
	}
	g.expr(right)
	g.arith(op)
	g.emit(&bytecode.MStore{Kind: kind})
}

func (g *gen) arith(op string) {
	if op == "" {
		return
	}
	a, ok := bytecode.ArithOps[op]
	if !ok {
		g.fail("unknown compound operator %s=", op)
		return
	}
	g.emit(&bytecode.Arith{Op: a})
}
