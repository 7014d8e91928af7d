package typecheck

import (
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/ast"
	"c0lang/internal/diag"
	"c0lang/internal/env"
	"c0lang/internal/lang"
	"c0lang/internal/parser"
	"c0lang/internal/restrict"
	"c0lang/internal/source"
	"c0lang/internal/types"
)

func checkSrc(t *testing.T, src string) (*ast.Program, *CheckedProgram, error) {
	t.Helper()
	decls, err := parser.Parse(source.NewFile("test.c0", src), nil)
	be.Err(t, err, nil)
	prog, err := restrict.Program(lang.C1, decls, false)
	be.Err(t, err, nil)
	checked, err := Check(env.New(), prog, Options{RequireMain: true})
	return prog, checked, err
}

func TestCheckRoundTrip(t *testing.T) {
	prog, checked, err := checkSrc(t, `int main() { int x = 3; int y = 4; return x + y * 2; }`)
	be.Err(t, err, nil)
	ret := prog.Decls[0].(*ast.FuncDecl).Body.Stmts[2].(*ast.ReturnStmt)
	be.Equal(t, checked.ExprTypes[ret.X].K, types.TyInt)
}

func TestCheckAccepts(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"recursion", "int fact(int n) { return n <= 1 ? 1 : n * fact(n - 1); } int main() { return fact(5); }"},
		{"mutual", "bool even(int n); bool odd(int n) { return n == 0 ? false : even(n - 1); } bool even(int n) { return n == 0 ? true : odd(n - 1); } int main() { return even(4) ? 1 : 0; }"},
		{"null_compare", "int main() { int* p = NULL; if (p == NULL) return 1; return 0; }"},
		{"null_lub", "int main() { int* p = alloc(int); int* q = true ? NULL : p; return q == NULL ? 1 : 0; }"},
		{"char_order", "int main() { char a = 'a'; return a < 'b' ? 1 : 0; }"},
		{"struct_fields", "struct p { int x; bool b; }; int main() { struct p* s = alloc(struct p); s->x = 2; (*s).x += 1; return s->b ? 0 : s->x; }"},
		{"nested_struct", "struct in { int v; }; struct out { struct in i; }; int main() { struct out* o = alloc(struct out); o->i.v = 1; return o->i.v; }"},
		{"function_pointer", "typedef int op(int x); int inc(int x) { return x + 1; } int main() { op* f = &inc; return (*f)(1); }"},
		{"void_ptr_cast", "int main() { int* p = alloc(int); void* v = (void*)p; int* q = (int*)v; return *q; }"},
		{"contracts", "int f(int[] a, int n) //@requires n == \\length(a);\n//@ensures \\result >= 0;\n{ for (int i = 0; i < n; i++) //@loop_invariant 0 <= i;\n{ //@assert i < \\length(a);\n} return n; } int main() { return f(alloc_array(int, 2), 2); }"},
		{"hastag", "int main() { void* p = (void*)alloc(int); //@assert \\hastag(int*, p);\n return 0; }"},
		{"sequential_for_scopes", "int main() { for (int i = 0; i < 2; i++) {} for (int i = 0; i < 2; i++) {} return 0; }"},
		{"break_in_loop", "int main() { while (true) { break; } return 0; }"},
		{"typedef_struct", "typedef struct list* list; struct list { int v; list next; }; int main() { list l = alloc(struct list); return l->v; }"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := checkSrc(t, tc.src)
			be.Err(t, err, nil)
		})
	}
}

func TestCheckRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind diag.Kind
		want string
	}{
		{"no_main", "int f() { return 0; }", diag.TypeError, "no definition of int main()"},
		{"bad_main", "int main(int x) { return x; }", diag.TypeError, "main must have type int main()"},
		{"undeclared_var", "int main() { return x; }", diag.UndeclaredVariableError, "undeclared variable x"},
		{"undeclared_fn", "int main() { return f(); }", diag.UndeclaredFunctionError, "undeclared function f"},
		{"arity", "int f(int x) { return x; } int main() { return f(1, 2); }", diag.ArityMismatchError, "expects 1 arguments, found 2"},
		{"mismatch", "int main() { bool b = 1; return 0; }", diag.SubtypeMismatchError, "expected bool, found int"},
		{"string_eq", `int main() { string s = "a"; return s == "a" ? 1 : 0; }`, diag.IncomparableTypeError, "string_equal"},
		{"ordering_bool", "int main() { return true < false ? 1 : 0; }", diag.IncomparableTypeError, "two ints or two chars"},
		{"ordering_mixed", "int main() { return 'a' < 1 ? 1 : 0; }", diag.IncomparableTypeError, "found char and int"},
		{"struct_local", "struct s { int x; }; int main() { struct s v; return 0; }", diag.NotSmallTypeError, "large type struct s"},
		{"struct_param", "struct s { int x; }; int f(struct s v) { return 0; } int main() { return 0; }", diag.NotSmallTypeError, "parameter v"},
		{"result_outside", "int main() { //@assert \\result == 0;\n return 0; }", diag.ResultOutsideEnsuresError, "only allowed in @ensures"},
		{"result_void", "void f() //@ensures \\result == 0;\n{ } int main() { return 0; }", diag.ResultOutsideEnsuresError, "returning void"},
		{"length_ordinary", "int main() { int[] a = alloc_array(int, 1); return \\length(a); }", diag.AnnotationOnlyError, "\\length"},
		{"redeclare_local", "int main() { int x = 1; { int x = 2; } return x; }", diag.DuplicateDeclarationError, "variable x is already declared"},
		{"duplicate_fn", "int f() { return 1; } int f() { return 2; } int main() { return 0; }", diag.DuplicateDeclarationError, "defined twice"},
		{"incompatible", "int f(int x); bool f(int x) { return true; } int main() { return 0; }", diag.IncompatibleRedeclarationError, "redeclared"},
		{"duplicate_struct", "struct s { int x; }; struct s { int y; }; int main() { return 0; }", diag.DuplicateDeclarationError, "already defined"},
		{"unknown_struct", "int main() { struct s* p = alloc(struct s); return 0; }", diag.UnknownTypeError, "struct s is not defined"},
		{"call_local", "int main() { int f = 1; return f(); }", diag.TypeError, "is a variable, not a function"},
		{"break_outside", "int main() { break; return 0; }", diag.TypeError, "break outside"},
		{"deref_void", "int main() { void* p = NULL; return *p; }", diag.TypeError, "cannot dereference void*"},
		{"bad_cast", "int main() { int* p = NULL; bool* q = (bool*)p; return 0; }", diag.TypeError, "to or from void*"},
		{"missing_field", "struct s { int x; }; int main() { struct s* p = alloc(struct s); return p->y; }", diag.TypeError, "has no field y"},
		{"return_missing_value", "int main() { return; }", diag.TypeError, "must return a value"},
		{"fn_as_value", "int f() { return 1; } int main() { int x = f; return 0; }", diag.TypeError, "cannot be used as a value"},
		{"fn_ptr_mismatch", "typedef int op(int x); bool g(int x) { return true; } int main() { op* f = &g; return 0; }", diag.SubtypeMismatchError, "expected op*"},
		{"lub_mismatch", "int main() { int* p = NULL; bool* q = NULL; return (true ? p : q) == NULL ? 1 : 0; }", diag.TypeError, "incompatible types"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := checkSrc(t, tc.src)
			be.Equal(t, diag.KindOf(err), tc.kind)
			be.Err(t, err, tc.want)
		})
	}
}

func TestCheckRecordsNullAsExpectedType(t *testing.T) {
	prog, checked, err := checkSrc(t, "int main() { int* p = NULL; return p == NULL ? 1 : 0; }")
	be.Err(t, err, nil)
	body := prog.Decls[0].(*ast.FuncDecl).Body.Stmts
	null := body[0].(*ast.VarDeclStmt).Init
	be.Equal(t, checked.ExprTypes[null].String(), "int*")
	cmp := body[1].(*ast.ReturnStmt).X.(*ast.CondExpr).Test.(*ast.BinaryExpr)
	be.Equal(t, checked.ExprTypes[cmp.Right].String(), "int*")
}

func TestLocalsPersistent(t *testing.T) {
	var base *Locals
	a := base.Extend("x", types.Int)
	b := a.Extend("y", types.Bool)
	_, ok := a.Lookup("y")
	be.True(t, !ok)
	ty, ok := b.Lookup("x")
	be.True(t, ok)
	be.Equal(t, ty.K, types.TyInt)
	be.Equal(t, b.Names(), []string{"y", "x"})
}
