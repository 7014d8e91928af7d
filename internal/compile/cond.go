package compile

import (
	"c0lang/internal/ast"
	"c0lang/internal/bytecode"
	"c0lang/internal/types"
)

// conditional compiles a boolean expression into jumps: control reaches
// ifTrue when e holds and ifFalse otherwise. No boolean is left on the
// stack.
func (g *gen) conditional(e ast.Expr, ifTrue, ifFalse string) {
	switch e := e.(type) {
	case *ast.BoolLit:
		if e.Value {
			g.emit(&bytecode.Goto{Target: ifTrue})
		} else {
			g.emit(&bytecode.Goto{Target: ifFalse})
		}
		return
	case *ast.UnaryExpr:
		if e.Op == "!" {
			g.conditional(e.X, ifFalse, ifTrue)
			return
		}
	case *ast.LogicalExpr:
		mid := g.newLabel("mid")
		if e.Op == "&&" {
			g.conditional(e.Left, mid, ifFalse)
		} else {
			g.conditional(e.Left, ifTrue, mid)
		}
		g.label(mid)
		g.conditional(e.Right, ifTrue, ifFalse)
		return
	case *ast.BinaryExpr:
		if op, ok := bytecode.CmpOps[e.Op]; ok {
			g.compare(e, op, ifTrue)
			g.emit(&bytecode.Goto{Target: ifFalse})
			return
		}
	case *ast.HasTagExpr:
		g.expr(e.X)
		g.emit(&bytecode.IfHasTag{Tag: g.resolve(e.Type).String(), Target: ifTrue})
		g.emit(&bytecode.Goto{Target: ifFalse})
		return
	}
	g.expr(e)
	g.emit(&bytecode.If{Target: ifTrue})
	g.emit(&bytecode.Goto{Target: ifFalse})
}

// compare emits both operands and the comparison jump for their type.
// void* operands are untagged so that equality compares addresses.
func (g *gen) compare(e *ast.BinaryExpr, op bytecode.CmpOp, target string) {
	t := g.typeOf(e.Left)
	family := bytecode.CmpRef
	switch t.K {
	case types.TyInt:
		family = bytecode.CmpInt
	case types.TyChar:
		family = bytecode.CmpChar
	case types.TyBool:
		family = bytecode.CmpBool
	}
	untag := t.IsVoidPtr()
	g.expr(e.Left)
	if untag {
		g.emit(&bytecode.Untag{})
	}
	g.expr(e.Right)
	if untag {
		g.emit(&bytecode.Untag{})
	}
	g.emit(&bytecode.IfCmp{Family: family, Op: op, Target: target})
}

// conditionalExpression materializes a boolean expression as a value.
func (g *gen) conditionalExpression(e ast.Expr) {
	yes := g.newLabel("true")
	no := g.newLabel("false")
	join := g.newLabel("bool_end")
	g.conditional(e, yes, no)
	g.label(yes)
	g.emit(&bytecode.BConst{V: true})
	g.emit(&bytecode.Goto{Target: join})
	g.label(no)
	g.emit(&bytecode.BConst{V: false})
	g.label(join)
}
