// Package restrict turns the loose parse tree into the validated AST for one
// dialect. It rejects constructs the dialect does not admit, malformed
// literals, statement-shaped expressions in expression position and
// annotations in the wrong place.
package restrict

import (
	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/lang"
	"c0lang/internal/source"
	"c0lang/internal/stringlit"
	"c0lang/internal/syntax"
)

type restricter struct {
	dialect lang.Dialect
	lib     bool
	err     *diag.Error
}

// Program restricts every declaration of a file. lib marks the declarations
// as coming from a library header.
func Program(d lang.Dialect, decls []syntax.Decl, lib bool) (*ast.Program, error) {
	prog := &ast.Program{}
	for _, decl := range decls {
		out, err := Decl(d, decl, lib)
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, out)
	}
	return prog, nil
}

// Decl restricts a single top-level declaration.
func Decl(d lang.Dialect, decl syntax.Decl, lib bool) (ast.Decl, error) {
	r := &restricter{dialect: d, lib: lib}
	out := r.decl(decl)
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

// Expr restricts a lone expression.
func Expr(d lang.Dialect, e syntax.Expr) (ast.Expr, error) {
	r := &restricter{dialect: d}
	out := r.expr(e)
	if r.err != nil {
		return nil, r.err
	}
	return out, nil
}

func (r *restricter) fail(kind diag.Kind, span source.Span, format string, args ...any) {
	if r.err == nil {
		r.err = diag.At(kind, span, format, args...)
	}
}

func (r *restricter) require(c lang.Construct, span source.Span) {
	if !r.dialect.Permits(c) {
		r.fail(diag.DialectError, span, "%s not allowed in %s (allowed in: %s)", c, r.dialect, lang.DescribeAllowed(c))
	}
}

// Types

func (r *restricter) typ(t syntax.Type) ast.Type {
	switch t := t.(type) {
	case *syntax.PrimType:
		switch t.Name {
		case "int":
			r.require(lang.TyInt, t.S)
			return &ast.IntType{S: t.S}
		case "bool":
			r.require(lang.TyBool, t.S)
			return &ast.BoolType{S: t.S}
		case "string":
			r.require(lang.TyString, t.S)
			return &ast.StringType{S: t.S}
		case "char":
			r.require(lang.TyChar, t.S)
			return &ast.CharType{S: t.S}
		case "void":
			r.require(lang.TyVoid, t.S)
			return &ast.VoidType{S: t.S}
		}
	case *syntax.PointerType:
		r.require(lang.TyPointer, t.S)
		if p, ok := t.Elem.(*syntax.PrimType); ok && p.Name == "void" {
			r.require(lang.TyVoidPtr, t.S)
			return &ast.PointerType{Elem: &ast.VoidType{S: p.S}, S: t.S}
		}
		return &ast.PointerType{Elem: r.typ(t.Elem), S: t.S}
	case *syntax.ArrayType:
		r.require(lang.TyArray, t.S)
		return &ast.ArrayType{Elem: r.typ(t.Elem), S: t.S}
	case *syntax.StructType:
		r.require(lang.TyStruct, t.S)
		return &ast.StructType{Name: t.Name, S: t.S}
	case *syntax.NamedType:
		r.require(lang.TyNamed, t.S)
		return &ast.NamedType{Name: t.Name, S: t.S}
	}
	r.fail(diag.ImpossibleError, t.Span(), "unexpected type form %T", t)
	return &ast.IntType{S: t.Span()}
}

// Expressions

func (r *restricter) exprs(es []syntax.Expr) []ast.Expr {
	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = r.expr(e)
	}
	return out
}

func (r *restricter) expr(e syntax.Expr) ast.Expr {
	switch e := e.(type) {
	case *syntax.IntLit:
		r.require(lang.ExIntLit, e.S)
		v, err := stringlit.ParseInt(e.Raw)
		if err != nil {
			r.fail(diag.LiteralFormatError, e.S, "%v", err)
		}
		return &ast.IntLit{Value: v, S: e.S}
	case *syntax.StringLit:
		r.require(lang.ExStringLit, e.S)
		v, err := stringlit.Decode(e.Raw)
		if err != nil {
			r.fail(diag.LiteralFormatError, e.S, "%v", err)
		}
		return &ast.StringLit{Value: v, S: e.S}
	case *syntax.CharLit:
		r.require(lang.ExCharLit, e.S)
		v, err := stringlit.DecodeChar(e.Raw)
		if err != nil {
			r.fail(diag.LiteralFormatError, e.S, "%v", err)
		}
		return &ast.CharLit{Value: v, S: e.S}
	case *syntax.BoolLit:
		r.require(lang.ExBoolLit, e.S)
		return &ast.BoolLit{Value: e.Value, S: e.S}
	case *syntax.NullLit:
		r.require(lang.ExNull, e.S)
		return &ast.NullLit{S: e.S}
	case *syntax.Ident:
		r.require(lang.ExIdent, e.S)
		return &ast.IdentExpr{Name: e.Name, S: e.S}
	case *syntax.Special:
		return r.special(e)
	case *syntax.Unary:
		return r.unary(e)
	case *syntax.Binary:
		return r.binary(e)
	case *syntax.Ternary:
		r.require(lang.ExTernary, e.S)
		return &ast.CondExpr{Test: r.expr(e.Test), Then: r.expr(e.Then), Else: r.expr(e.Else), S: e.S}
	case *syntax.Call:
		return r.call(e)
	case *syntax.Member:
		r.require(lang.ExMember, e.S)
		return &ast.MemberExpr{X: r.expr(e.X), Field: e.Field, Deref: e.Arrow, S: e.S}
	case *syntax.Index:
		r.require(lang.ExIndex, e.S)
		return &ast.IndexExpr{X: r.expr(e.X), Index: r.expr(e.Index), S: e.S}
	case *syntax.Cast:
		r.require(lang.ExCast, e.S)
		return &ast.CastExpr{Type: r.typ(e.Type), X: r.expr(e.X), S: e.S}
	case *syntax.Alloc:
		r.require(lang.ExAlloc, e.S)
		return &ast.AllocExpr{Type: r.typ(e.Type), S: e.S}
	case *syntax.AllocArray:
		r.require(lang.ExAllocArray, e.S)
		return &ast.AllocArrayExpr{Type: r.typ(e.Type), Size: r.expr(e.Size), S: e.S}
	case *syntax.Assign:
		r.fail(diag.MisplacedConstructError, e.S, "assignment used as an expression")
	case *syntax.Update:
		r.fail(diag.MisplacedConstructError, e.S, "%s used as an expression", e.Op)
	case *syntax.AssertCall:
		r.fail(diag.MisplacedConstructError, e.S, "assert() used as an expression")
	case *syntax.ErrorCall:
		r.fail(diag.MisplacedConstructError, e.S, "error() used as an expression")
	default:
		r.fail(diag.ImpossibleError, e.Span(), "unexpected expression form %T", e)
	}
	return &ast.IntLit{S: e.Span()}
}

func (r *restricter) special(e *syntax.Special) ast.Expr {
	switch e.Name {
	case "result":
		r.require(lang.ExResult, e.S)
		return &ast.ResultExpr{S: e.S}
	case "length":
		r.require(lang.ExLength, e.S)
		return &ast.LengthExpr{X: r.expr(e.Args[0]), S: e.S}
	case "hastag":
		r.require(lang.ExHasTag, e.S)
		return &ast.HasTagExpr{Type: r.typ(e.Type), X: r.expr(e.Args[0]), S: e.S}
	}
	r.fail(diag.ImpossibleError, e.S, "unknown special form \\%s", e.Name)
	return &ast.ResultExpr{S: e.S}
}

func (r *restricter) unary(e *syntax.Unary) ast.Expr {
	switch e.Op {
	case "*":
		r.require(lang.ExDeref, e.S)
		return &ast.DerefExpr{X: r.expr(e.X), S: e.S}
	case "&":
		r.require(lang.ExAddrOf, e.S)
		id, ok := e.X.(*syntax.Ident)
		if !ok {
			r.fail(diag.MisplacedConstructError, e.S, "the address-of operator only applies to function names")
			return &ast.AddrOfExpr{S: e.S}
		}
		return &ast.AddrOfExpr{Func: id.Name, S: e.S}
	case "!":
		r.require(lang.ExLogical, e.S)
	case "~":
		r.require(lang.ExBitwise, e.S)
	case "-":
		r.require(lang.ExArith, e.S)
	}
	return &ast.UnaryExpr{Op: e.Op, X: r.expr(e.X), S: e.S}
}

func (r *restricter) binary(e *syntax.Binary) ast.Expr {
	switch e.Op {
	case "&&", "||":
		r.require(lang.ExLogical, e.S)
		return &ast.LogicalExpr{Op: e.Op, Left: r.expr(e.Left), Right: r.expr(e.Right), S: e.S}
	case "+", "-", "*", "/", "%":
		r.require(lang.ExArith, e.S)
	case "&", "|", "^", "<<", ">>":
		r.require(lang.ExBitwise, e.S)
	case "<", "<=", ">", ">=", "==", "!=":
		r.require(lang.ExCompare, e.S)
	default:
		r.fail(diag.ImpossibleError, e.S, "unknown binary operator %s", e.Op)
	}
	return &ast.BinaryExpr{Op: e.Op, Left: r.expr(e.Left), Right: r.expr(e.Right), S: e.S}
}

func (r *restricter) call(e *syntax.Call) ast.Expr {
	switch callee := e.Callee.(type) {
	case *syntax.Ident:
		r.require(lang.ExCall, e.S)
		return &ast.CallExpr{Callee: callee.Name, Args: r.exprs(e.Args), S: e.S}
	case *syntax.Unary:
		if callee.Op == "*" {
			r.require(lang.ExIndirect, e.S)
			return &ast.IndirectCallExpr{Fn: r.expr(callee.X), Args: r.exprs(e.Args), S: e.S}
		}
	}
	r.fail(diag.MisplacedConstructError, e.S, "only function names and dereferenced function pointers can be called")
	return &ast.CallExpr{S: e.S}
}

// Statements

func (r *restricter) stmt(s syntax.Stmt) ast.Stmt {
	switch s := s.(type) {
	case *syntax.VarDecl:
		r.require(lang.StDecl, s.S)
		d := &ast.VarDeclStmt{Type: r.typ(s.Type), Name: s.Name, S: s.S}
		if s.Init != nil {
			d.Init = r.expr(s.Init)
		}
		return d
	case *syntax.ExprStmt:
		return r.exprStmt(s)
	case *syntax.If:
		r.require(lang.StIf, s.S)
		out := &ast.IfStmt{Test: r.expr(s.Test), Then: r.stmt(s.Then), S: s.S}
		if s.Else != nil {
			out.Else = r.stmt(s.Else)
		}
		return out
	case *syntax.While:
		r.require(lang.StWhile, s.S)
		return &ast.WhileStmt{Test: r.expr(s.Test), Invariants: r.loopAnnos(s.Annos), Body: r.stmt(s.Body), S: s.S}
	case *syntax.For:
		r.require(lang.StFor, s.S)
		out := &ast.ForStmt{Test: r.expr(s.Test), Invariants: r.loopAnnos(s.Annos), S: s.S}
		if s.Init != nil {
			out.Init = r.stmt(s.Init)
		}
		if s.Update != nil {
			if _, ok := s.Update.(*syntax.VarDecl); ok {
				r.fail(diag.MisplacedConstructError, s.Update.Span(), "a declaration cannot be the step of a for loop")
			}
			out.Update = r.stmt(s.Update)
		}
		out.Body = r.stmt(s.Body)
		return out
	case *syntax.Return:
		r.require(lang.StReturn, s.S)
		out := &ast.ReturnStmt{S: s.S}
		if s.X != nil {
			out.X = r.expr(s.X)
		}
		return out
	case *syntax.Block:
		return r.block(s)
	case *syntax.Break:
		r.require(lang.StBreak, s.S)
		return &ast.BreakStmt{S: s.S}
	case *syntax.Continue:
		r.require(lang.StContinue, s.S)
		return &ast.ContinueStmt{S: s.S}
	case *syntax.AnnoStmt:
		var stmts []ast.Stmt
		for _, a := range s.Annos {
			if a.Kind != "assert" {
				r.fail(diag.MisplacedConstructError, a.S, "@%s is not allowed on a statement; only @assert is", a.Kind)
				continue
			}
			r.require(lang.AnAssert, a.S)
			stmts = append(stmts, &ast.AnnoAssertStmt{X: r.expr(a.Expr), S: a.S})
		}
		if len(stmts) == 1 {
			return stmts[0]
		}
		return &ast.BlockStmt{Stmts: stmts, S: s.S}
	}
	r.fail(diag.ImpossibleError, s.Span(), "unexpected statement form %T", s)
	return &ast.BlockStmt{S: s.Span()}
}

func (r *restricter) exprStmt(s *syntax.ExprStmt) ast.Stmt {
	switch x := s.X.(type) {
	case *syntax.Assign:
		if x.Op == "=" {
			r.require(lang.StAssign, s.S)
		} else {
			r.require(lang.StCompound, s.S)
		}
		return &ast.AssignStmt{Op: x.Op, Left: r.expr(x.Left), Right: r.expr(x.Right), S: s.S}
	case *syntax.Update:
		r.require(lang.StUpdate, s.S)
		return &ast.UpdateStmt{Op: x.Op, X: r.expr(x.X), S: s.S}
	case *syntax.AssertCall:
		r.require(lang.StAssert, s.S)
		return &ast.AssertStmt{X: r.expr(x.Arg), S: s.S}
	case *syntax.ErrorCall:
		r.require(lang.StError, s.S)
		return &ast.ErrorStmt{X: r.expr(x.Arg), S: s.S}
	}
	r.require(lang.StExpr, s.S)
	return &ast.ExprStmt{X: r.expr(s.X), S: s.S}
}

func (r *restricter) block(b *syntax.Block) *ast.BlockStmt {
	r.require(lang.StBlock, b.S)
	out := &ast.BlockStmt{S: b.S}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, r.stmt(s))
	}
	return out
}

func (r *restricter) loopAnnos(annos []*syntax.Anno) []ast.Expr {
	var out []ast.Expr
	for _, a := range annos {
		if a.Kind != "loop_invariant" {
			r.fail(diag.MisplacedConstructError, a.S, "@%s is not allowed on a loop; only @loop_invariant is", a.Kind)
			continue
		}
		r.require(lang.AnInvariant, a.S)
		out = append(out, r.expr(a.Expr))
	}
	return out
}

// funcAnnos splits function annotations into requires and ensures clauses.
func (r *restricter) funcAnnos(annos []*syntax.Anno) (requires, ensures []ast.Expr) {
	for _, a := range annos {
		switch a.Kind {
		case "requires":
			r.require(lang.AnRequires, a.S)
			requires = append(requires, r.expr(a.Expr))
		case "ensures":
			r.require(lang.AnEnsures, a.S)
			ensures = append(ensures, r.expr(a.Expr))
		default:
			r.fail(diag.MisplacedConstructError, a.S, "@%s is not allowed on a function; only @requires and @ensures are", a.Kind)
		}
	}
	return requires, ensures
}

// Declarations

func (r *restricter) params(ps []*syntax.Param) []ast.Param {
	out := make([]ast.Param, len(ps))
	for i, p := range ps {
		out[i] = ast.Param{Type: r.typ(p.Type), Name: p.Name, S: p.S}
	}
	return out
}

func (r *restricter) decl(d syntax.Decl) ast.Decl {
	switch d := d.(type) {
	case *syntax.StructDecl:
		r.require(lang.DeStruct, d.S)
		out := &ast.StructDecl{Name: d.Name, Defined: d.Defined, Lib: r.lib, S: d.S}
		for _, f := range d.Fields {
			out.Fields = append(out.Fields, ast.Field{Type: r.typ(f.Type), Name: f.Name, S: f.S})
		}
		return out
	case *syntax.FuncDecl:
		if d.Body != nil {
			r.require(lang.DeFunction, d.S)
		} else {
			r.require(lang.DePrototype, d.S)
		}
		if d.Name != "main" {
			r.require(lang.DeNonMain, d.S)
		}
		out := &ast.FuncDecl{Ret: r.typ(d.Ret), Name: d.Name, Params: r.params(d.Params), Lib: r.lib, S: d.S}
		out.Requires, out.Ensures = r.funcAnnos(d.Annos)
		if d.Body != nil {
			out.Body = r.block(d.Body)
		}
		return out
	case *syntax.Typedef:
		r.require(lang.DeTypedef, d.S)
		return &ast.TypeDef{Type: r.typ(d.Type), Name: d.Name, S: d.S}
	case *syntax.FuncTypedef:
		r.require(lang.DeFunctionType, d.S)
		out := &ast.FuncTypeDef{Ret: r.typ(d.Ret), Name: d.Name, Params: r.params(d.Params), S: d.S}
		out.Requires, out.Ensures = r.funcAnnos(d.Annos)
		return out
	case *syntax.Use:
		r.require(lang.DeUse, d.S)
		return &ast.UseDecl{Name: d.Name, Lib: d.Lib, S: d.S}
	}
	r.fail(diag.ImpossibleError, d.Span(), "unexpected declaration form %T", d)
	return &ast.UseDecl{S: d.Span()}
}
