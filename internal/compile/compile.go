// Package compile lowers a checked program into bytecode.
package compile

import (
	"fmt"

	"c0lang/internal/ast"
	"c0lang/internal/bytecode"
	"c0lang/internal/diag"
	"c0lang/internal/env"
	"c0lang/internal/source"
	"c0lang/internal/typecheck"
	"c0lang/internal/types"
)

type Options struct {
	// Contracts compiles @requires, @ensures, @loop_invariant and @assert
	// into checks. assert() statements are checked regardless.
	Contracts bool
}

// resultVar holds the return value while @ensures run. It cannot collide
// with a C0 identifier.
const resultVar = "\\result"

// Session owns the label counter. Labels are unique across every program a
// session compiles; a fresh session starts again from zero, so compiling the
// same input in two sessions yields identical bytecode.
type Session struct {
	labels int
}

func NewSession() *Session { return &Session{} }

// Compile lowers p with a fresh session.
func Compile(p *typecheck.CheckedProgram, opts Options) (*bytecode.Program, error) {
	return NewSession().Compile(p, opts)
}

// Compile lowers every defined function of p, records library functions as
// natives and resolves labels.
func (s *Session) Compile(p *typecheck.CheckedProgram, opts Options) (*bytecode.Program, error) {
	out := &bytecode.Program{
		Natives: map[string]bytecode.Native{},
		Funcs:   map[string]*bytecode.Func{},
		Structs: map[string]*bytecode.Struct{},
	}
	layouts, err := p.Env.Layouts()
	if err != nil {
		return nil, err
	}
	for name, l := range layouts {
		st := &bytecode.Struct{Name: name}
		for _, f := range l.Fields {
			st.Fields = append(st.Fields, bytecode.Field{Name: f.Name, Type: f.Type})
		}
		out.Structs[name] = st
	}
	for _, name := range p.Env.LibFunctions() {
		fn := p.Env.Function(name)
		out.Natives[name] = bytecode.Native{Arity: len(fn.Params), Void: isVoid(fn.Ret)}
	}
	for _, d := range p.Env.Decls() {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Body == nil || fn.Lib {
			continue
		}
		g := &gen{s: s, p: p, env: p.Env, opts: opts}
		f, err := g.genFunc(fn)
		if err != nil {
			return nil, err
		}
		out.Funcs[fn.Name] = f
	}
	if err := out.Resolve(); err != nil {
		return nil, err
	}
	return out, nil
}

type gen struct {
	s    *Session
	p    *typecheck.CheckedProgram
	env  *env.Env
	opts Options

	fn   *ast.FuncDecl
	code []bytecode.Instr
	// retLabel is the @ensures epilogue; empty when returns are direct.
	retLabel  string
	loopStack []loopCtx
	err       *diag.Error
}

type loopCtx struct {
	breakTarget    string
	continueTarget string
}

func (g *gen) emit(i bytecode.Instr) { g.code = append(g.code, i) }

func (g *gen) label(name string) { g.emit(&bytecode.Label{Name: name}) }

func (g *gen) newLabel(prefix string) string {
	g.s.labels++
	return fmt.Sprintf("%s_%d", prefix, g.s.labels)
}

func (g *gen) fail(format string, args ...any) {
	if g.err == nil {
		g.err = diag.Impossible(format, args...)
	}
}

// typeOf returns the type the checker recorded for e.
func (g *gen) typeOf(e ast.Expr) types.Type {
	t, ok := g.p.ExprTypes[e]
	if !ok {
		g.fail("no type recorded for %T at %s", e, spanString(e.Span()))
		return types.Bad
	}
	return t
}

func (g *gen) resolve(t ast.Type) types.Type {
	rt, err := g.env.Resolve(t)
	if err != nil {
		g.fail("unresolved type: %v", err)
		return types.Bad
	}
	return rt
}

func isVoid(t ast.Type) bool {
	_, ok := t.(*ast.VoidType)
	return ok
}

func spanString(s source.Span) string {
	if !s.Known() {
		return "<unknown>"
	}
	file, line, col := s.LocStart()
	return fmt.Sprintf("%s:%d:%d", file, line, col)
}

func (g *gen) genFunc(fn *ast.FuncDecl) (*bytecode.Func, error) {
	g.fn = fn
	void := isVoid(fn.Ret)
	f := &bytecode.Func{Name: fn.Name, Void: void}
	for _, p := range fn.Params {
		f.Params = append(f.Params, p.Name)
	}
	if g.opts.Contracts {
		for _, e := range fn.Requires {
			g.contract(e, "requires")
		}
		if len(fn.Ensures) > 0 {
			g.retLabel = g.newLabel("return")
		}
	}
	g.block(fn.Body)
	if void {
		g.ret()
	}
	if g.retLabel != "" {
		g.label(g.retLabel)
		for _, e := range fn.Ensures {
			g.contract(e, "ensures")
		}
		if void {
			g.emit(&bytecode.Return{Void: true})
		} else {
			g.emit(&bytecode.VLoad{Name: resultVar})
			g.emit(&bytecode.Return{})
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	f.Code = g.code
	return f, nil
}

// ret returns the value on top of the stack, if any, through the epilogue
// when one exists.
func (g *gen) ret() {
	void := isVoid(g.fn.Ret)
	if g.retLabel == "" {
		g.emit(&bytecode.Return{Void: void})
		return
	}
	if !void {
		g.emit(&bytecode.VStore{Name: resultVar})
	}
	g.emit(&bytecode.Goto{Target: g.retLabel})
}

// contract checks an annotation of the given kind.
func (g *gen) contract(e ast.Expr, kind string) {
	g.check(e, kind, fmt.Sprintf("%s: @%s annotation failed", spanString(e.Span()), kind))
}

// check aborts with msg, tagged by kind, when e is false.
func (g *gen) check(e ast.Expr, kind, msg string) {
	ok := g.newLabel("ok")
	bad := g.newLabel("fail")
	g.conditional(e, ok, bad)
	g.label(bad)
	g.emit(&bytecode.SConst{V: msg})
	g.emit(&bytecode.Abort{Contract: kind})
	g.label(ok)
}
