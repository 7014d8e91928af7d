package flow

import "c0lang/internal/ast"

// walkExpr calls f on e and each subexpression, parents first.
func walkExpr(e ast.Expr, f func(ast.Expr)) {
	if e == nil {
		return
	}
	f(e)
	switch e := e.(type) {
	case *ast.UnaryExpr:
		walkExpr(e.X, f)
	case *ast.BinaryExpr:
		walkExpr(e.Left, f)
		walkExpr(e.Right, f)
	case *ast.LogicalExpr:
		walkExpr(e.Left, f)
		walkExpr(e.Right, f)
	case *ast.CondExpr:
		walkExpr(e.Test, f)
		walkExpr(e.Then, f)
		walkExpr(e.Else, f)
	case *ast.CallExpr:
		for _, a := range e.Args {
			walkExpr(a, f)
		}
	case *ast.IndirectCallExpr:
		walkExpr(e.Fn, f)
		for _, a := range e.Args {
			walkExpr(a, f)
		}
	case *ast.MemberExpr:
		walkExpr(e.X, f)
	case *ast.IndexExpr:
		walkExpr(e.X, f)
		walkExpr(e.Index, f)
	case *ast.DerefExpr:
		walkExpr(e.X, f)
	case *ast.CastExpr:
		walkExpr(e.X, f)
	case *ast.AllocArrayExpr:
		walkExpr(e.Size, f)
	case *ast.LengthExpr:
		walkExpr(e.X, f)
	case *ast.HasTagExpr:
		walkExpr(e.X, f)
	}
}
