package compile

import (
	"c0lang/internal/ast"
	"c0lang/internal/bytecode"
	"c0lang/internal/types"
)

// expr compiles e so that its value, if it has one, ends up on the stack.
func (g *gen) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLit:
		g.emit(&bytecode.IConst{V: e.Value})
	case *ast.BoolLit:
		g.emit(&bytecode.BConst{V: e.Value})
	case *ast.CharLit:
		g.emit(&bytecode.CConst{V: e.Value})
	case *ast.StringLit:
		g.emit(&bytecode.SConst{V: e.Value})
	case *ast.NullLit:
		g.emit(&bytecode.AConstNull{})
	case *ast.IdentExpr:
		g.emit(&bytecode.VLoad{Name: e.Name})
	case *ast.ResultExpr:
		g.emit(&bytecode.VLoad{Name: resultVar})
	case *ast.UnaryExpr:
		switch e.Op {
		case "-":
			g.emit(&bytecode.IConst{V: 0})
			g.expr(e.X)
			g.emit(&bytecode.Arith{Op: bytecode.ISub})
		case "~":
			g.expr(e.X)
			g.emit(&bytecode.IConst{V: -1})
			g.emit(&bytecode.Arith{Op: bytecode.IXor})
		default:
			g.conditionalExpression(e)
		}
	case *ast.BinaryExpr:
		op, ok := bytecode.ArithOps[e.Op]
		if !ok {
			g.conditionalExpression(e)
			return
		}
		g.expr(e.Left)
		g.expr(e.Right)
		g.emit(&bytecode.Arith{Op: op})
	case *ast.LogicalExpr, *ast.HasTagExpr:
		g.conditionalExpression(e)
	case *ast.CondExpr:
		then := g.newLabel("cond_true")
		els := g.newLabel("cond_false")
		join := g.newLabel("cond_end")
		g.conditional(e.Test, then, els)
		g.label(then)
		g.expr(e.Then)
		g.emit(&bytecode.Goto{Target: join})
		g.label(els)
		g.expr(e.Else)
		g.label(join)
	case *ast.CallExpr:
		for _, a := range e.Args {
			g.expr(a)
		}
		if g.env.IsLibFunction(e.Callee) {
			g.emit(&bytecode.InvokeNative{Name: e.Callee, Argc: len(e.Args)})
			return
		}
		g.emit(&bytecode.InvokeStatic{Name: e.Callee, Argc: len(e.Args)})
	case *ast.IndirectCallExpr:
		g.expr(e.Fn)
		for _, a := range e.Args {
			g.expr(a)
		}
		g.emit(&bytecode.InvokeDynamic{Argc: len(e.Args)})
	case *ast.AddrOfExpr:
		g.emit(&bytecode.FuncPtr{Name: e.Func})
	case *ast.MemberExpr, *ast.IndexExpr, *ast.DerefExpr:
		g.addr(e)
		g.emit(&bytecode.MLoad{Kind: bytecode.MemKindOf(g.typeOf(e))})
	case *ast.LengthExpr:
		g.expr(e.X)
		g.emit(&bytecode.ArrayLength{})
	case *ast.CastExpr:
		g.cast(e)
	case *ast.AllocExpr:
		g.emit(&bytecode.New{Type: g.resolve(e.Type)})
	case *ast.AllocArrayExpr:
		g.expr(e.Size)
		g.emit(&bytecode.NewArray{Elem: g.resolve(e.Type)})
	default:
		g.fail("unexpected expression %T", e)
	}
}

// cast tags a pointer converted to void* and checks the tag of a void*
// converted back.
func (g *gen) cast(e *ast.CastExpr) {
	from := g.typeOf(e.X)
	to := g.resolve(e.Type)
	g.expr(e.X)
	switch {
	case from.IsVoidPtr() && to.IsVoidPtr():
	case to.IsVoidPtr():
		g.emit(&bytecode.AddTag{Tag: from.String()})
	case from.IsVoidPtr():
		g.emit(&bytecode.CheckTag{Tag: to.String()})
	}
}

// addr compiles an lvalue to the address it denotes.
func (g *gen) addr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.DerefExpr:
		g.expr(e.X)
	case *ast.IndexExpr:
		g.expr(e.X)
		g.expr(e.Index)
		g.emit(&bytecode.AAddS{})
	case *ast.MemberExpr:
		var st types.Type
		if e.Deref {
			g.expr(e.X)
			if pt := g.typeOf(e.X); pt.K == types.TyPointer {
				st = *pt.Elem
			}
		} else {
			g.addr(e.X)
			st = g.typeOf(e.X)
		}
		if st.K != types.TyStruct {
			g.fail("field %s of non-struct %s", e.Field, st)
			return
		}
		g.emit(&bytecode.AAddF{Struct: st.Name, Field: e.Field})
	default:
		g.fail("expression %T has no address", e)
	}
}
