package env

import (
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/source"
	"c0lang/internal/types"
)

func typedef(name string, t ast.Type) *ast.TypeDef {
	return &ast.TypeDef{Type: t, Name: name}
}

func TestExpandTypeDef(t *testing.T) {
	e := New()
	e.Declare(typedef("elem", &ast.IntType{}))
	e.Declare(typedef("list", &ast.PointerType{Elem: &ast.NamedType{Name: "elem"}}))

	got, err := e.ExpandTypeDef("list", source.Span{})
	be.Err(t, err, nil)
	be.True(t, types.Equal(got, types.Pointer(types.Int)))

	_, err = e.ExpandTypeDef("missing", source.Span{})
	be.Equal(t, diag.KindOf(err), diag.UnknownTypeError)
}

func TestExpandTypeDefCycle(t *testing.T) {
	e := New()
	e.Declare(typedef("a", &ast.PointerType{Elem: &ast.NamedType{Name: "b"}}))
	e.Declare(typedef("b", &ast.ArrayType{Elem: &ast.NamedType{Name: "a"}}))
	_, err := e.ExpandTypeDef("a", source.Span{})
	be.Equal(t, diag.KindOf(err), diag.CyclicTypedefError)
	be.Err(t, err, "refers to itself")
}

func TestFunctionPrefersDefinition(t *testing.T) {
	e := New()
	proto := &ast.FuncDecl{Ret: &ast.IntType{}, Name: "f"}
	def := &ast.FuncDecl{Ret: &ast.IntType{}, Name: "f", Body: &ast.BlockStmt{}}
	e.Declare(proto)
	be.Equal(t, e.Function("f"), proto)
	e.Declare(def)
	be.Equal(t, e.Function("f"), def)
	be.Equal(t, len(e.Lookup("f")), 2)
	be.True(t, e.Function("g") == nil)
}

func TestLibFunctions(t *testing.T) {
	e := New()
	e.Declare(&ast.FuncDecl{Ret: &ast.VoidType{}, Name: "print", Lib: true})
	e.Declare(&ast.FuncDecl{Ret: &ast.VoidType{}, Name: "flush", Lib: true})
	e.Declare(&ast.FuncDecl{Ret: &ast.IntType{}, Name: "main", Body: &ast.BlockStmt{}})
	be.Equal(t, e.LibFunctions(), []string{"flush", "print"})
	be.True(t, e.IsLibFunction("print"))
	be.True(t, !e.IsLibFunction("main"))
}

func TestLayoutCache(t *testing.T) {
	e := New()
	e.Declare(&ast.StructDecl{Name: "p"})
	_, err := e.Layout("p", source.Span{})
	be.Equal(t, diag.KindOf(err), diag.UnknownTypeError)

	e.Declare(&ast.StructDecl{Name: "p", Defined: true, Fields: []ast.Field{
		{Type: &ast.IntType{}, Name: "x"},
		{Type: &ast.PointerType{Elem: &ast.StructType{Name: "p"}}, Name: "next"},
	}})
	l, err := e.Layout("p", source.Span{})
	be.Err(t, err, nil)
	be.Equal(t, len(l.Fields), 2)
	f, ok := l.Field("next")
	be.True(t, ok)
	be.Equal(t, f.Offset, 1)
	be.True(t, types.Equal(f.Type, types.Pointer(types.Struct("p"))))

	again, err := e.Layout("p", source.Span{})
	be.Err(t, err, nil)
	be.Equal(t, again, l)

	e.Declare(typedef("unrelated", &ast.IntType{}))
	fresh, err := e.Layout("p", source.Span{})
	be.Err(t, err, nil)
	be.True(t, fresh != l)

	all, err := e.Layouts()
	be.Err(t, err, nil)
	be.Equal(t, len(all), 1)
}
