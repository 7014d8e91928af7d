package flow

import (
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/diag"
	"c0lang/internal/env"
	"c0lang/internal/lang"
	"c0lang/internal/parser"
	"c0lang/internal/restrict"
	"c0lang/internal/source"
	"c0lang/internal/typecheck"
)

func flowSrc(t *testing.T, src string) error {
	t.Helper()
	decls, err := parser.Parse(source.NewFile("test.c0", src), nil)
	be.Err(t, err, nil)
	prog, err := restrict.Program(lang.C1, decls, false)
	be.Err(t, err, nil)
	e := env.New()
	_, err = typecheck.Check(e, prog, typecheck.Options{RequireMain: true})
	be.Err(t, err, nil)
	return Check(e, []string{"main"})
}

func TestFlowAccepts(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"both_branches", "int main() { int x; if (true) x = 1; else x = 2; return x; }"},
		{"returning_branch", "int main() { int x; if (false) return 0; else x = 3; return x; }"},
		{"for_init_outer", "int main() { int i; for (i = 0; i < 3; i++) {} return i; }"},
		{"update_sees_body", "int main() { for (int i = 0; i < 3; i++) { int j = i; } return 0; }"},
		{"dead_after_return", "int main() { int x; return 0; x++; }"},
		{"error_ends_path", `int f(int x) { if (x > 0) return x; error("negative"); } int main() { return f(1); }`},
		{"prototype_then_definition", "int f(); int main() { return f(); } int f() { return 1; }"},
		{"unused_prototype", "int g(); int main() { return 0; }"},
		{"ensures_reads_param", "int f(int x) //@ensures \\result == x;\n{ int y = x; y++; return y - 1; } int main() { return f(1); }"},
		{"update_after_assign_then_continue", "int main() { int x; for (int i = 0; i < 3; i += x) { x = 1; if (i == 0) continue; x = 2; } return 0; }"},
		{"continue_in_inner_loop", "int main() { int x; for (int i = 0; i < 3; i += x) { while (false) { continue; } x = 1; } return 0; }"},
		{"break_then_read_inside", "int main() { for (int i = 0; i < 3; i++) { int y; if (i == 1) break; y = i; i += y; } return 0; }"},
		{"void_fallthrough", "void f() { } int main() { f(); return 0; }"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			be.Err(t, flowSrc(t, tc.src), nil)
		})
	}
}

func TestFlowRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind diag.Kind
		want string
	}{
		{"uninitialized", "int main() { int x; return x; }", diag.UseBeforeAssignError, "x may be used before it is assigned"},
		{"one_branch", "int main() { int x; if (true) x = 1; return x; }", diag.UseBeforeAssignError, "x may be used"},
		{"loop_body_only", "int main() { int x; while (false) { x = 1; } return x; }", diag.UseBeforeAssignError, "x may be used"},
		{"compound_uninit", "int main() { int x; x += 1; return 0; }", diag.UseBeforeAssignError, "x may be used"},
		{"in_test", "int main() { int x; if (x == 0) return 1; return 0; }", diag.UseBeforeAssignError, "x may be used"},
		{"constant", "int f(int x) //@ensures \\result > x;\n{ x = x + 1; return x; } int main() { return f(1); }", diag.ConstantReassignmentError, "x is mentioned in @ensures"},
		{"constant_update", "int f(int x) //@ensures \\result > x;\n{ x++; return x; } int main() { return f(1); }", diag.ConstantReassignmentError, "cannot be assigned"},
		{"update_after_continue", "int main() { int x; for (int i = 0; i < 3; i += x) { if (i == 0) continue; x = 1; } return 0; }", diag.UseBeforeAssignError, "x may be used"},
		{"nested_continue", "int main() { int x; for (int i = 0; i < 3; i += x) { if (i > 0) { if (i == 1) continue; } x = 1; } return 0; }", diag.UseBeforeAssignError, "x may be used"},
		{"break_skips_assign", "int main() { int x; for (int i = 0; i < 3; i++) { if (i == 1) break; x = i; } return x; }", diag.UseBeforeAssignError, "x may be used"},
		{"while_break_skips_assign", "int main() { int x; while (true) { if (true) break; x = 1; } return x; }", diag.UseBeforeAssignError, "x may be used"},
		{"missing_return", "int main() { int x = 1; if (x > 0) return 1; }", diag.MissingReturnError, "may end without returning"},
		{"loop_return", "int main() { while (true) { return 1; } }", diag.MissingReturnError, "may end without returning"},
		{"missing_definition", "int f(); int main() { return f(); }", diag.MissingDefinitionError, "f is used but never defined"},
		{"transitive_definition", "int g(); int f() { return g(); } int main() { return f(); }", diag.MissingDefinitionError, "g is used but never defined"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := flowSrc(t, tc.src)
			be.Equal(t, diag.KindOf(err), tc.kind)
			be.Err(t, err, tc.want)
		})
	}
}
