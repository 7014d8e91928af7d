package parser

import (
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/nalgeon/be"

	"c0lang/internal/source"
	"c0lang/internal/syntax"
)

func parse(t *testing.T, src string) []syntax.Decl {
	t.Helper()
	decls, err := Parse(source.NewFile("test.c0", src), nil)
	be.Err(t, err, nil)
	return decls
}

func TestParseMain(t *testing.T) {
	decls := parse(t, `int main() { int x = 3; int y = 4; return x + y * 2; }`)
	be.Equal(t, len(decls), 1)
	fn, ok := decls[0].(*syntax.FuncDecl)
	be.True(t, ok)
	be.Equal(t, fn.Name, "main")
	be.Equal(t, len(fn.Body.Stmts), 3)

	ret := fn.Body.Stmts[2].(*syntax.Return)
	add, ok := ret.X.(*syntax.Binary)
	be.True(t, ok)
	be.Equal(t, add.Op, "+")
	mul, ok := add.Right.(*syntax.Binary)
	be.True(t, ok)
	be.Equal(t, mul.Op, "*")
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		src string
		op  string
	}{
		{"a || b && c", "||"},
		{"a & b == c", "&"},
		{"a < b << c", "<"},
		{"a ^ b | c", "|"},
		{"a - b - c", "-"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			decls := parse(t, "bool f() { return "+tc.src+"; }")
			ret := decls[0].(*syntax.FuncDecl).Body.Stmts[0].(*syntax.Return)
			b, ok := ret.X.(*syntax.Binary)
			be.True(t, ok)
			be.Equal(t, b.Op, tc.op)
		})
	}
}

func TestParseLeftAssociative(t *testing.T) {
	decls := parse(t, "int f() { return 10 - 3 - 2; }")
	b := decls[0].(*syntax.FuncDecl).Body.Stmts[0].(*syntax.Return).X.(*syntax.Binary)
	_, leftIsBinary := b.Left.(*syntax.Binary)
	be.True(t, leftIsBinary)
	_, rightIsLit := b.Right.(*syntax.IntLit)
	be.True(t, rightIsLit)
}

func TestParseTypedefClassifiesIdentifiers(t *testing.T) {
	names := set.New[string](0)
	src := `typedef int* ip;
int f(ip p) { ip q = p; q * p; return *q; }`
	decls, err := Parse(source.NewFile("test.c0", src), names)
	be.Err(t, err, nil)
	be.True(t, names.Contains("ip"))

	fn := decls[1].(*syntax.FuncDecl)
	_, isDecl := fn.Body.Stmts[0].(*syntax.VarDecl)
	be.True(t, isDecl)
	// q is not a type name, so `q * p` is a multiplication.
	es, ok := fn.Body.Stmts[1].(*syntax.ExprStmt)
	be.True(t, ok)
	be.Equal(t, es.X.(*syntax.Binary).Op, "*")
}

func TestParseCast(t *testing.T) {
	decls := parse(t, "int f(void* p) { return *(int*)p; }")
	ret := decls[0].(*syntax.FuncDecl).Body.Stmts[0].(*syntax.Return)
	deref := ret.X.(*syntax.Unary)
	be.Equal(t, deref.Op, "*")
	cast, ok := deref.X.(*syntax.Cast)
	be.True(t, ok)
	_, isPtr := cast.Type.(*syntax.PointerType)
	be.True(t, isPtr)
}

func TestParseStructs(t *testing.T) {
	decls := parse(t, `struct point;
struct point { int x; bool y; };
struct point* mk() { struct point* p = alloc(struct point); p->x = 1; (*p).y = true; return p; }`)
	be.Equal(t, len(decls), 3)
	fwd := decls[0].(*syntax.StructDecl)
	be.True(t, !fwd.Defined)
	def := decls[1].(*syntax.StructDecl)
	be.True(t, def.Defined)
	be.Equal(t, len(def.Fields), 2)
	fn := decls[2].(*syntax.FuncDecl)
	asg := fn.Body.Stmts[1].(*syntax.ExprStmt).X.(*syntax.Assign)
	be.True(t, asg.Left.(*syntax.Member).Arrow)
}

func TestParseAnnotations(t *testing.T) {
	src := `int f(int[] a, int n)
//@requires n == \length(a);
//@ensures \result >= 0;
{
  for (int i = 0; i < n; i++)
  //@loop_invariant 0 <= i;
  { //@assert i < n;
    a[i] += 1;
  }
  return n;
}`
	fn := parse(t, src)[0].(*syntax.FuncDecl)
	be.Equal(t, len(fn.Annos), 2)
	be.Equal(t, fn.Annos[0].Kind, "requires")
	be.Equal(t, fn.Annos[1].Kind, "ensures")
	loop := fn.Body.Stmts[0].(*syntax.For)
	be.Equal(t, len(loop.Annos), 1)
	be.Equal(t, loop.Annos[0].Kind, "loop_invariant")
	body := loop.Body.(*syntax.Block)
	anno, ok := body.Stmts[0].(*syntax.AnnoStmt)
	be.True(t, ok)
	be.Equal(t, anno.Annos[0].Kind, "assert")
	_, isUpdate := loop.Update.(*syntax.ExprStmt).X.(*syntax.Update)
	be.True(t, isUpdate)
}

func TestParseFunctionTypes(t *testing.T) {
	src := `typedef int cmp_fn(void* a, void* b);
int apply(cmp_fn* f, void* a) { return (*f)(a, a); }`
	decls := parse(t, src)
	ft, ok := decls[0].(*syntax.FuncTypedef)
	be.True(t, ok)
	be.Equal(t, len(ft.Params), 2)
	ret := decls[1].(*syntax.FuncDecl).Body.Stmts[0].(*syntax.Return)
	call := ret.X.(*syntax.Call)
	_, derefCallee := call.Callee.(*syntax.Unary)
	be.True(t, derefCallee)
}

func TestParseUse(t *testing.T) {
	decls := parse(t, "#use <conio>\n#use \"util.c0\"\nint main() { println(\"hi\"); return 0; }")
	be.Equal(t, len(decls), 3)
	be.True(t, decls[0].(*syntax.Use).Lib)
	be.True(t, !decls[1].(*syntax.Use).Lib)
}

func TestParseSpecials(t *testing.T) {
	fn := parse(t, `bool f(void* p) //@ensures \result == \hastag(int*, p);
{ return true; }`)[0].(*syntax.FuncDecl)
	eq := fn.Annos[0].Expr.(*syntax.Binary)
	be.Equal(t, eq.Left.(*syntax.Special).Name, "result")
	ht := eq.Right.(*syntax.Special)
	be.Equal(t, ht.Name, "hastag")
	be.Equal(t, len(ht.Args), 1)
}

func TestParseExpr(t *testing.T) {
	e, err := ParseExpr(source.NewFile("repl", "(elem)p == NULL;"), set.From([]string{"elem"}))
	be.Err(t, err, nil)
	cmp, ok := e.(*syntax.Binary)
	be.True(t, ok)
	_, ok = cmp.Left.(*syntax.Cast)
	be.True(t, ok)

	_, err = ParseExpr(source.NewFile("repl", "1 + 2 3"), nil)
	be.Err(t, err, "expected end of expression")
	_, err = ParseExpr(source.NewFile("repl", "f(1, "), nil)
	be.True(t, IsIncomplete(err))
}
