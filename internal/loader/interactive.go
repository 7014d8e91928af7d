package loader

import (
	"fmt"

	"c0lang/internal/ast"
	"c0lang/internal/compile"
	"c0lang/internal/diag"
	"c0lang/internal/env"
	"c0lang/internal/flow"
	"c0lang/internal/parser"
	"c0lang/internal/restrict"
	"c0lang/internal/source"
	"c0lang/internal/syntax"
	"c0lang/internal/typecheck"
	"c0lang/internal/types"
	"c0lang/internal/vm"
)

// Interactive is a REPL session. Each input is either a group of
// declarations, which extend the session, or an expression, which is
// evaluated against everything declared so far.
type Interactive struct {
	cfg      Config
	l        *loader
	session  *compile.Session
	env      *env.Env
	checker  *typecheck.Checker
	accepted []ast.Decl
	n        int
}

func NewInteractive(cfg Config) (*Interactive, error) {
	it := &Interactive{cfg: cfg, l: newLoader(cfg), session: compile.NewSession()}
	for _, name := range cfg.Libraries {
		if err := it.l.useLib(name, source.Span{}); err != nil {
			return nil, err
		}
	}
	it.reset()
	if err := it.declare(it.l.decls); err != nil {
		return nil, err
	}
	return it, nil
}

// reset rebuilds the environment from the accepted declarations. The
// environment is append-only, so a rejected input is undone by replaying.
func (it *Interactive) reset() {
	it.env = env.New()
	it.checker = typecheck.NewChecker(it.env)
	for _, d := range it.accepted {
		if err := it.checker.Decl(d); err != nil {
			panic(fmt.Sprintf("replaying accepted declaration: %v", err))
		}
	}
}

func (it *Interactive) declare(decls []ast.Decl) error {
	for _, d := range decls {
		if err := it.checker.Decl(d); err != nil {
			it.reset()
			return err
		}
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Body != nil {
			if _, err := flow.Function(fn); err != nil {
				it.reset()
				return err
			}
		}
	}
	it.accepted = append(it.accepted, decls...)
	return nil
}

// Eval handles one input. It returns the rendered value of an expression,
// or "" for declarations and void expressions. An error satisfying
// parser.IsIncomplete means the input should be continued.
func (it *Interactive) Eval(input string) (string, error) {
	it.n++
	file := source.NewFile(fmt.Sprintf("<repl %d>", it.n), input)
	e, exprErr := parser.ParseExpr(file, it.l.typeNames)
	if exprErr == nil {
		return it.evalExpr(e)
	}
	before := len(it.l.decls)
	declErr := it.l.load(file, it.cfg.Dialect, false)
	if declErr == nil {
		if err := it.declare(it.l.decls[before:]); err != nil {
			it.l.decls = it.l.decls[:before]
			return "", err
		}
		return "", nil
	}
	if parser.IsIncomplete(exprErr) {
		return "", exprErr
	}
	return "", declErr
}

func (it *Interactive) evalExpr(se syntax.Expr) (string, error) {
	x, err := restrict.Expr(it.cfg.Dialect, se)
	if err != nil {
		return "", err
	}
	t, err := it.checker.CheckExpr(nil, x)
	if err != nil {
		return "", err
	}
	ret, err := typeSyntax(t)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("__repl_%d", it.n)
	var body ast.Stmt = &ast.ReturnStmt{X: x, S: x.Span()}
	if t.K == types.TyVoid {
		body = &ast.ExprStmt{X: x, S: x.Span()}
	}
	fn := &ast.FuncDecl{
		Ret:  ret,
		Name: name,
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{body}, S: x.Span()},
		S:    x.Span(),
	}
	if err := it.checker.Decl(fn); err != nil {
		it.reset()
		return "", err
	}
	defer it.reset()
	if err := flow.Check(it.env, []string{name}); err != nil {
		return "", err
	}
	bc, err := it.session.Compile(it.checker.Result(), compile.Options{Contracts: it.cfg.Contracts})
	if err != nil {
		return "", err
	}
	m, err := vm.New(bc, vm.Config{Out: it.cfg.Out, In: it.cfg.In, Gas: it.cfg.Gas, Trace: it.cfg.Trace})
	if err != nil {
		return "", err
	}
	v, err := m.Call(name)
	if err != nil {
		return "", err
	}
	if t.K == types.TyVoid {
		return "", nil
	}
	return fmt.Sprintf("%s (%s)", v, t), nil
}

// typeSyntax spells an erased type as a declaration type.
func typeSyntax(t types.Type) (ast.Type, error) {
	switch t.K {
	case types.TyInt:
		return &ast.IntType{}, nil
	case types.TyBool:
		return &ast.BoolType{}, nil
	case types.TyString:
		return &ast.StringType{}, nil
	case types.TyChar:
		return &ast.CharType{}, nil
	case types.TyVoid:
		return &ast.VoidType{}, nil
	case types.TyStruct:
		return &ast.StructType{Name: t.Name}, nil
	case types.TyFunc:
		if t.Name == "" {
			return nil, diag.New(diag.TypeError, "cannot display a value of type %s", t)
		}
		return &ast.NamedType{Name: t.Name}, nil
	case types.TyPointer, types.TyArray:
		elem, err := typeSyntax(*t.Elem)
		if err != nil {
			return nil, err
		}
		if t.K == types.TyArray {
			return &ast.ArrayType{Elem: elem}, nil
		}
		return &ast.PointerType{Elem: elem}, nil
	}
	return nil, diag.Impossible("no syntax for type %s", t)
}

// NeedsMore reports whether src is a prefix of a valid input, so a line
// editor should keep reading.
func (it *Interactive) NeedsMore(src string) bool {
	f := source.NewFile("<repl>", src)
	_, exprErr := parser.ParseExpr(f, it.l.typeNames.Copy())
	if exprErr == nil {
		return false
	}
	_, declErr := parser.Parse(f, it.l.typeNames.Copy())
	if declErr == nil {
		return false
	}
	return parser.IsIncomplete(exprErr) || parser.IsIncomplete(declErr)
}
