// Package env is the global environment: the ordered list of top-level
// declarations seen so far, with typedef expansion and struct layouts.
package env

import (
	"slices"

	"github.com/hashicorp/go-set/v3"

	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/source"
	"c0lang/internal/types"
)

// Env is append-only. Every Declare bumps the generation, which keys the
// struct layout cache so a layout computed against an older environment is
// never served.
type Env struct {
	decls  []ast.Decl
	byName map[string][]ast.Decl
	gen    int

	libStructs *set.Set[string]
	libFuncs   *set.Set[string]

	layoutGen int
	layouts   map[string]*Layout
}

func New() *Env {
	return &Env{
		byName:     map[string][]ast.Decl{},
		libStructs: set.New[string](0),
		libFuncs:   set.New[string](0),
		layouts:    map[string]*Layout{},
	}
}

// Declare appends d. Duplicate and incompatible declarations are detected by
// the program checker, not here.
func (e *Env) Declare(d ast.Decl) {
	e.decls = append(e.decls, d)
	name := d.DeclName()
	e.byName[name] = append(e.byName[name], d)
	switch d := d.(type) {
	case *ast.StructDecl:
		if d.Lib {
			e.libStructs.Insert(d.Name)
		}
	case *ast.FuncDecl:
		if d.Lib {
			e.libFuncs.Insert(d.Name)
		}
	}
	e.gen++
}

func (e *Env) Decls() []ast.Decl { return e.decls }

// Gen is the number of declarations appended so far.
func (e *Env) Gen() int { return e.gen }

// Lookup returns every declaration of name, in order.
func (e *Env) Lookup(name string) []ast.Decl { return e.byName[name] }

func (e *Env) IsLibFunction(name string) bool { return e.libFuncs.Contains(name) }

func (e *Env) IsLibStruct(name string) bool { return e.libStructs.Contains(name) }

// LibFunctions lists library function names in sorted order.
func (e *Env) LibFunctions() []string {
	names := e.libFuncs.Slice()
	slices.Sort(names)
	return names
}

// Function returns the definition of name if one exists, else its first
// declaration, else nil.
func (e *Env) Function(name string) *ast.FuncDecl {
	var first *ast.FuncDecl
	for _, d := range e.byName[name] {
		fn, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fn.Body != nil {
			return fn
		}
		if first == nil {
			first = fn
		}
	}
	return first
}

// Struct returns the definition of a struct if one exists, else its first
// forward declaration, else nil.
func (e *Env) Struct(name string) *ast.StructDecl {
	var first *ast.StructDecl
	for _, d := range e.byName[name] {
		sd, ok := d.(*ast.StructDecl)
		if !ok {
			continue
		}
		if sd.Defined {
			return sd
		}
		if first == nil {
			first = sd
		}
	}
	return first
}

// TypeName returns the typedef or function type definition of name, or nil.
func (e *Env) TypeName(name string) ast.Decl {
	for _, d := range e.byName[name] {
		switch d.(type) {
		case *ast.TypeDef, *ast.FuncTypeDef:
			return d
		}
	}
	return nil
}

// ExpandTypeDef resolves a type name through any chain of typedefs.
func (e *Env) ExpandTypeDef(name string, span source.Span) (types.Type, error) {
	return e.expand(name, span, set.New[string](4))
}

func (e *Env) expand(name string, span source.Span, visiting *set.Set[string]) (types.Type, error) {
	if !visiting.Insert(name) {
		return types.Bad, diag.At(diag.CyclicTypedefError, span, "typedef %s refers to itself", name)
	}
	switch d := e.TypeName(name).(type) {
	case *ast.TypeDef:
		return e.resolve(d.Type, visiting)
	case *ast.FuncTypeDef:
		sig, err := e.sig(d.Params, d.Ret, visiting)
		if err != nil {
			return types.Bad, err
		}
		return types.Func(d.Name, sig), nil
	}
	return types.Bad, diag.At(diag.UnknownTypeError, span, "unknown type %s", name)
}

// Resolve converts a surface type into an actual type.
func (e *Env) Resolve(t ast.Type) (types.Type, error) {
	return e.resolve(t, set.New[string](4))
}

func (e *Env) resolve(t ast.Type, visiting *set.Set[string]) (types.Type, error) {
	switch t := t.(type) {
	case *ast.IntType:
		return types.Int, nil
	case *ast.BoolType:
		return types.Bool, nil
	case *ast.StringType:
		return types.String, nil
	case *ast.CharType:
		return types.Char, nil
	case *ast.VoidType:
		return types.Void, nil
	case *ast.PointerType:
		elem, err := e.resolve(t.Elem, visiting)
		if err != nil {
			return types.Bad, err
		}
		return types.Pointer(elem), nil
	case *ast.ArrayType:
		elem, err := e.resolve(t.Elem, visiting)
		if err != nil {
			return types.Bad, err
		}
		return types.Array(elem), nil
	case *ast.StructType:
		return types.Struct(t.Name), nil
	case *ast.NamedType:
		return e.expand(t.Name, t.S, visiting)
	}
	return types.Bad, diag.Impossible("unexpected type form %T", t)
}

// Sig resolves a parameter list and return type.
func (e *Env) Sig(params []ast.Param, ret ast.Type) (*types.FuncSig, error) {
	return e.sig(params, ret, set.New[string](4))
}

func (e *Env) sig(params []ast.Param, ret ast.Type, visiting *set.Set[string]) (*types.FuncSig, error) {
	r, err := e.resolve(ret, visiting.Copy())
	if err != nil {
		return nil, err
	}
	sig := &types.FuncSig{Ret: r}
	for _, p := range params {
		pt, err := e.resolve(p.Type, visiting.Copy())
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, pt)
	}
	return sig, nil
}

// FuncSig resolves the signature of the preferred declaration of name.
func (e *Env) FuncSig(name string) (*types.FuncSig, error) {
	fn := e.Function(name)
	if fn == nil {
		return nil, diag.New(diag.UndeclaredFunctionError, "undeclared function %s", name)
	}
	return e.Sig(fn.Params, fn.Ret)
}
